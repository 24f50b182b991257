package models

import "time"

// PermissionKind classifies what a permission lets its holder do.
type PermissionKind string

const (
	// PermissionKindRead grants read-only access to the matched routes.
	PermissionKindRead PermissionKind = "read"
	// PermissionKindWrite grants create/update access to the matched routes.
	PermissionKindWrite PermissionKind = "write"
	// PermissionKindDelete grants delete access to the matched routes.
	PermissionKindDelete PermissionKind = "delete"
)

// Permission represents a (route pattern, HTTP method) capability in the
// authorization system. Route patterns may contain named parameter segments
// (e.g. "/tickets/edit/:id"). A permission is optionally scoped to modules;
// with zero linked modules it is unconditional.
//
// The (Route, Method) combination is the logical identity of a permission:
// role edits diff old and new permission sets on that key, not on ID.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Route is the route pattern this permission applies to.
	Route string `gorm:"size:255;not null;index:idx_route_method"`
	// Method is the HTTP method allowed on the route (GET, POST, PUT, DELETE).
	Method string `gorm:"size:10;not null;index:idx_route_method"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// Kind classifies the permission as read, write or delete.
	Kind PermissionKind `gorm:"type:varchar(20);not null;default:'read'"`
	// Modules are the feature areas this permission is scoped to.
	// An empty set means the permission is always active.
	Modules []Module `gorm:"many2many:permission_modules;"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}
