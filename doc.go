// Package main provides the entry point for the CPE System back office.
// It initializes and runs a web server using the Fiber framework that lets
// ISP staff manage client records, service tickets, roles and module-based
// access control through server-rendered pages. The application uses gorm
// for data persistence, a per-ticket websocket chat channel for support
// conversations, and S3-compatible object storage for ticket attachments.
package main
