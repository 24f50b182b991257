package models

import "time"

// NotificationKind classifies what happened.
type NotificationKind string

const (
	// NotificationKindTicketAssigned signals a ticket was assigned to the target user.
	NotificationKindTicketAssigned NotificationKind = "ticket_assigned"
)

// Notification is a per-user record signaling a ticket-related event.
// Its lifecycle is tied to the ticket: reassigning the ticket re-targets
// the notification, deleting the ticket deletes it.
type Notification struct {
	// ID is the unique identifier for the notification.
	ID uint `gorm:"primaryKey"`
	// UserID is the user the notification targets.
	UserID uint64 `gorm:"not null;index"`
	// Kind classifies the event.
	Kind NotificationKind `gorm:"type:varchar(30);not null;index"`
	// Message is the rendered notification text.
	Message string `gorm:"size:255"`
	// TicketID is the ticket the notification refers to (nil for non-ticket events).
	TicketID *uint `gorm:"index"`
	// CreatedAt is the timestamp when the notification was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Notification model.
// This overrides GORM's default pluralized table naming.
func (Notification) TableName() string {
	return "notifications"
}
