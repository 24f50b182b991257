package models

import "time"

// TicketType drives which fields a ticket requires.
type TicketType string

const (
	// TicketTypeResolution is a support request; no site visit implied.
	TicketTypeResolution TicketType = "resolution"
	// TicketTypeMaintenance is a site maintenance visit; requires address and coordinates.
	TicketTypeMaintenance TicketType = "maintenance"
	// TicketTypeInstallation is a new service installation; requires address and coordinates.
	TicketTypeInstallation TicketType = "installation"
)

// RequiresLocation reports whether tickets of this type must carry an
// address and coordinates.
func (t TicketType) RequiresLocation() bool {
	return t == TicketTypeMaintenance || t == TicketTypeInstallation
}

// Valid reports whether the type is one of the known ticket types.
func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeResolution, TicketTypeMaintenance, TicketTypeInstallation:
		return true
	}

	return false
}

// TicketStatus enumerates the lifecycle states of a ticket.
type TicketStatus string

const (
	// TicketStatusSubmitted is the initial state of every ticket.
	TicketStatusSubmitted TicketStatus = "submitted"
	// TicketStatusInProgress means a resolver is working the ticket.
	TicketStatusInProgress TicketStatus = "in_progress"
	// TicketStatusCompleted is terminal; completed tickets accept no new chat messages.
	TicketStatusCompleted TicketStatus = "completed"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusSubmitted, TicketStatusInProgress, TicketStatusCompleted:
		return true
	}

	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// The lifecycle is linear: submitted → in_progress → completed.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	switch s {
	case TicketStatusSubmitted:
		return next == TicketStatusInProgress
	case TicketStatusInProgress:
		return next == TicketStatusCompleted
	}

	return false
}

// Ticket represents a unit of support, installation or maintenance work
// tracked through states. Tickets are created by a user on behalf of a
// client and optionally assigned to a resolver.
type Ticket struct {
	// ID is the unique identifier for the ticket.
	ID uint `gorm:"primaryKey"`
	// Number is the unique, generated ticket number (TKT-XXXXXX-YYYYMMDD-HHmmss).
	Number string `gorm:"uniqueIndex;size:30;not null"`
	// Title is the short summary shown in lists.
	Title string `gorm:"size:200;not null"`
	// Description is the full problem description.
	Description string `gorm:"type:text"`
	// Type drives which fields are required (maintenance and installation need a location).
	Type TicketType `gorm:"type:varchar(20);not null;index"`
	// ClientID is the client this ticket belongs to.
	ClientID uint `gorm:"not null;index"`
	// Client is the associated client record.
	Client Client `gorm:"foreignKey:ClientID"`
	// CreatorID is the user who opened the ticket.
	CreatorID uint64 `gorm:"not null;index"`
	// Creator is the user who opened the ticket.
	Creator User `gorm:"foreignKey:CreatorID"`
	// ResolverID is the user assigned to work the ticket (nil while unassigned).
	ResolverID *uint64 `gorm:"index"`
	// Resolver is the assigned user, when set.
	Resolver *User `gorm:"foreignKey:ResolverID"`
	// Status is the current lifecycle state.
	Status TicketStatus `gorm:"type:varchar(20);not null;default:'submitted';index"`
	// Address is the site address for maintenance/installation visits.
	Address string `gorm:"size:255"`
	// Latitude of the site, when a location is required.
	Latitude float64
	// Longitude of the site, when a location is required.
	Longitude float64
	// ImageURL points at the stored problem image, if one was attached.
	ImageURL string `gorm:"size:500"`
	// CreatedAt is the timestamp when the ticket was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the ticket was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Ticket model.
// This overrides GORM's default pluralized table naming.
func (Ticket) TableName() string {
	return "tickets"
}
