package chat

import "errors"

var (
	// ErrEmptyMessage is returned when a message carries neither text nor an image.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInvalidImage is returned when the image payload is not valid base64.
	ErrInvalidImage = errors.New("image payload is not valid base64")
)
