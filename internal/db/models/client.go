package models

import "time"

// Client represents a customer of the ISP. Tickets always belong to a
// client, and customer user accounts link back to their client record.
type Client struct {
	// ID is the unique identifier for the client.
	ID uint `gorm:"primaryKey"`
	// Name is the client's full name or company name.
	Name string `gorm:"size:150;not null"`
	// Email is the client's contact email address.
	Email string `gorm:"size:255"`
	// Phone is the client's contact phone number.
	Phone string `gorm:"size:30"`
	// Address is the service address on file.
	Address string `gorm:"size:255"`
	// Active indicates whether the client currently has service. No column
	// default: GORM would skip the zero value false on insert.
	Active bool
	// CreatedAt is the timestamp when the client was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the client was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Client model.
// This overrides GORM's default pluralized table naming.
func (Client) TableName() string {
	return "clients"
}
