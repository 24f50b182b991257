package config

import (
	"time"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Storage   Storage
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	Session      Session // session settings
}

// Storage holds the S3-compatible object storage settings used for
// ticket attachments and chat images.
type Storage struct {
	Enabled   bool   // false disables uploads entirely (dev without minio)
	Endpoint  string // host:port of the S3 endpoint
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string // bucket all objects live in
	PublicURL string // base url returned to browsers for stored objects
}
