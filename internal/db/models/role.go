package models

import "time"

// RoleNameClient is the reserved role name for end customers.
// Requesters holding this role get a restricted ticket creation path.
const RoleNameClient = "Client"

// Role represents a role in the role-based access control system.
// Roles bundle permissions (via RolePermission rows) and are assigned to
// users. The direct Modules grant exists for admin bootstrap: it gives a
// role menu access before any permission rows reference the modules.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g. "Administrator", "Client").
	Name string `gorm:"unique;size:100;not null"`
	// IsAdmin marks the role as administrative.
	IsAdmin bool `gorm:"default:false"`
	// Modules is the direct module grant used for admin bootstrap.
	Modules []Module `gorm:"many2many:role_modules;"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}

// IsClient reports whether the role is the reserved end-customer role.
func (r *Role) IsClient() bool {
	return r.Name == RoleNameClient
}
