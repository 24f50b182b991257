// Package models contains database model definitions.
package models

import "time"

// Module represents a named, independently toggleable feature area of the
// back office (clients, tickets, invoices, ...). Modules gate menu
// visibility: deactivating a module removes it from resolved menus without
// deleting the permissions that reference it.
type Module struct {
	// ID is the unique identifier for the module.
	ID uint `gorm:"primaryKey"`
	// Name is the unique module key as referenced by the menu (e.g. "tickets").
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable explanation of the feature area.
	Description string `gorm:"size:255"`
	// Active indicates whether the module is currently enabled. Stored
	// without a column default so that creating an inactive record works:
	// GORM skips zero values for defaulted columns on insert.
	Active bool
	// CreatedAt is the timestamp when the module was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the module was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Module model.
// This overrides GORM's default pluralized table naming.
func (Module) TableName() string {
	return "modules"
}
