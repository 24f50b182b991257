package models

import "time"

// TicketMessage is one chat message inside a ticket conversation.
// Messages are append-only and read ordered by CreatedAt ascending.
type TicketMessage struct {
	// ID is the unique identifier for the message.
	ID uint `gorm:"primaryKey"`
	// TicketID is the ticket this message belongs to.
	TicketID uint `gorm:"not null;index"`
	// Ticket is the associated ticket.
	Ticket Ticket `gorm:"foreignKey:TicketID"`
	// UserID is the author of the message.
	UserID uint64 `gorm:"not null;index"`
	// User is the author of the message.
	User User `gorm:"foreignKey:UserID"`
	// Text is the message body.
	Text string `gorm:"type:text"`
	// MediaURL points at an attached image in object storage, if any.
	MediaURL string `gorm:"size:500"`
	// CreatedAt is the server-side timestamp of the message (managed by GORM).
	CreatedAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for the TicketMessage model.
// This overrides GORM's default pluralized table naming.
func (TicketMessage) TableName() string {
	return "ticket_messages"
}
