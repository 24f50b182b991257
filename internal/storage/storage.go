// Package storage provides the object storage collaborator used for ticket
// attachments and chat images, backed by any S3-compatible endpoint.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
)

// Store uploads and deletes objects. Objects are addressed by a folder and
// a key; Upload returns the public URL stored on the owning record.
type Store interface {
	Upload(ctx context.Context, folder, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, folder, key string) error
}

// S3 is the Store implementation over an S3-compatible endpoint.
type S3 struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewS3 creates a Store from the storage configuration.
func NewS3(cfg config.Storage) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &S3{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

// Upload stores data under folder/key and returns the public URL.
func (s *S3) Upload(ctx context.Context, folder, key string, data []byte, contentType string) (string, error) {
	objectName := folder + "/" + key

	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectName, err)
	}

	return s.publicURL + "/" + objectName, nil
}

// Delete removes the object under folder/key. Deleting a missing object is
// not an error.
func (s *S3) Delete(ctx context.Context, folder, key string) error {
	objectName := folder + "/" + key

	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectName, err)
	}

	return nil
}

// Disabled is a Store that drops uploads. Used when object storage is not
// configured (development without a running endpoint).
type Disabled struct{}

// Upload discards the data and returns an empty URL.
func (Disabled) Upload(_ context.Context, _, _ string, _ []byte, _ string) (string, error) {
	return "", nil
}

// Delete does nothing.
func (Disabled) Delete(_ context.Context, _, _ string) error {
	return nil
}
