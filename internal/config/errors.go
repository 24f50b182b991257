package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrStorageBucketEmpty error if object storage is enabled without a bucket name.
	ErrStorageBucketEmpty = errors.New("toml config storage.bucket can not be empty when storage is enabled")
)
