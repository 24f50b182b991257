// Package ticket implements the ticket lifecycle engine: creation with
// type-dependent validation, assignment notifications, status transitions
// and the deletion cascade over messages, stored files and notifications.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/controller/notification"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/storage"
)

const (
	// attachmentFolder is the object storage folder for ticket attachments.
	// The object key is the ticket number.
	attachmentFolder = "tickets"

	// EventStatusChanged is broadcast to a ticket's room when its lifecycle
	// state changes.
	EventStatusChanged = "ticketStatusChanged"
)

// Broadcaster delivers an event to every participant currently joined to a
// ticket's room. Injected so tests can substitute a fake.
type Broadcaster interface {
	ToTicket(ticketID uint, event string, payload any)
}

// Identity carries the requester's identity for the duration of one
// operation, read from the session by the caller.
type Identity struct {
	UserID   uint64
	RoleName string
	ClientID *uint
}

func (i Identity) isClient() bool {
	return i.RoleName == models.RoleNameClient
}

// Attachment is an optional file submitted with a ticket.
type Attachment struct {
	Data        []byte
	ContentType string
}

// Input carries the user-submitted fields for ticket creation and update.
// Coordinates is the raw "lat,lon" string as submitted.
type Input struct {
	Title       string
	Description string
	Type        models.TicketType
	ClientID    uint
	ResolverID  *uint64
	Address     string
	Coordinates string
	Attachment  *Attachment
}

// StatusChange is the payload broadcast on a status transition.
type StatusChange struct {
	TicketID uint                `json:"ticketId"`
	Number   string              `json:"number"`
	Status   models.TicketStatus `json:"status"`
}

// Engine runs ticket mutations against the datastore, uploads attachments
// to object storage and broadcasts status changes to the realtime channel.
type Engine struct {
	db    *gorm.DB
	store storage.Store
	rt    Broadcaster
}

// NewEngine creates a ticket engine. rt may be nil when no realtime channel
// is attached (CLI tooling, tests).
func NewEngine(db *gorm.DB, store storage.Store, rt Broadcaster) *Engine {
	return &Engine{db: db, store: store, rt: rt}
}

// Create validates the input and persists a new ticket.
//
// Requesters holding the customer role get the restricted path: the type is
// forced to resolution, no resolver can be assigned, and the client is
// derived from their linked client record. Maintenance and installation
// tickets require an address and a parseable coordinate pair. Validation
// runs before any upload or write, so a rejected ticket persists nothing.
func (e *Engine) Create(ctx context.Context, who Identity, in Input) (*models.Ticket, error) {
	if e.db == nil {
		return nil, ErrDBNil
	}

	if who.isClient() {
		if who.ClientID == nil {
			return nil, ErrClientRecordMissing
		}

		in.Type = models.TicketTypeResolution
		in.ResolverID = nil
		in.ClientID = *who.ClientID
	}

	lat, lon, err := validateInput(&in)
	if err != nil {
		return nil, err
	}

	t := &models.Ticket{
		Number:      NewNumber(time.Now()),
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		ClientID:    in.ClientID,
		CreatorID:   who.UserID,
		ResolverID:  in.ResolverID,
		Status:      models.TicketStatusSubmitted,
		Address:     in.Address,
		Latitude:    lat,
		Longitude:   lon,
	}

	if in.Attachment != nil {
		url, err := e.store.Upload(ctx, attachmentFolder, t.Number, in.Attachment.Data, in.Attachment.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload ticket attachment: %w", err)
		}

		t.ImageURL = url
	}

	if err := e.db.Create(t).Error; err != nil {
		return nil, err
	}

	if t.ResolverID != nil {
		e.notifyAssigned(*t.ResolverID, t)
	}

	return t, nil
}

// Update applies the same validation as Create to an existing ticket.
// Re-assignment to a different resolver re-targets the pending assignment
// notification, or emits one if none exists. A new attachment replaces the
// stored file.
func (e *Engine) Update(ctx context.Context, id uint, in Input) (*models.Ticket, error) {
	t, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	lat, lon, err := validateInput(&in)
	if err != nil {
		return nil, err
	}

	prevResolver := t.ResolverID

	t.Title = in.Title
	t.Description = in.Description
	t.Type = in.Type
	t.ClientID = in.ClientID
	t.Address = in.Address
	t.Latitude = lat
	t.Longitude = lon

	// Copy the pointee: Save must not write back into the caller's value
	// through a shared pointer.
	t.ResolverID = nil
	t.Resolver = nil

	if in.ResolverID != nil {
		resolverID := *in.ResolverID
		t.ResolverID = &resolverID
	}

	if in.Attachment != nil {
		if t.ImageURL != "" {
			if err := e.store.Delete(ctx, attachmentFolder, t.Number); err != nil {
				log.Error().Err(err).Str("ticket", t.Number).Msg("failed to delete replaced ticket attachment")
			}
		}

		url, err := e.store.Upload(ctx, attachmentFolder, t.Number, in.Attachment.Data, in.Attachment.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload ticket attachment: %w", err)
		}

		t.ImageURL = url
	}

	if err := e.db.Omit(clause.Associations).Save(t).Error; err != nil {
		return nil, err
	}

	if t.ResolverID != nil && (prevResolver == nil || *prevResolver != *t.ResolverID) {
		rows, err := notification.RetargetTicketAssigned(e.db, t.ID, *t.ResolverID)
		if err != nil {
			log.Error().Err(err).Uint("ticket_id", t.ID).Msg("failed to re-target assignment notification")
		} else if rows == 0 {
			e.notifyAssigned(*t.ResolverID, t)
		}
	}

	return t, nil
}

// UpdateStatus moves a ticket to the next lifecycle state and broadcasts
// the change to the ticket's room. The broadcast is fire-and-forget.
func (e *Engine) UpdateStatus(id uint, next models.TicketStatus) (*models.Ticket, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	t, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	if !t.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	if err := e.db.Model(t).Update("status", next).Error; err != nil {
		return nil, err
	}

	t.Status = next

	if e.rt != nil {
		e.rt.ToTicket(t.ID, EventStatusChanged, StatusChange{
			TicketID: t.ID,
			Number:   t.Number,
			Status:   t.Status,
		})
	}

	return t, nil
}

// Delete removes a ticket and everything hanging off it: chat messages
// first, then the stored attachment, then the ticket's notifications, and
// finally the ticket row. Cleanup runs before the row disappears because it
// needs the ticket's stored identifiers.
func (e *Engine) Delete(ctx context.Context, id uint) error {
	t, err := e.Get(id)
	if err != nil {
		return err
	}

	if err := e.db.Where("ticket_id = ?", t.ID).Delete(&models.TicketMessage{}).Error; err != nil {
		return err
	}

	if t.ImageURL != "" {
		if err := e.store.Delete(ctx, attachmentFolder, t.Number); err != nil {
			log.Error().Err(err).Str("ticket", t.Number).Msg("failed to delete ticket attachment")
		}
	}

	if err := notification.DeleteForTicket(e.db, t.ID); err != nil {
		return err
	}

	return e.db.Delete(t).Error
}

// Get loads a ticket with its client, creator and resolver.
func (e *Engine) Get(id uint) (*models.Ticket, error) {
	if e.db == nil {
		return nil, ErrDBNil
	}

	var t models.Ticket

	result := e.db.Preload("Client").Preload("Creator").Preload("Resolver").First(&t, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}

		return nil, result.Error
	}

	return &t, nil
}

// List returns tickets visible to the requester, newest first. Customer
// accounts only see their own client's tickets.
func (e *Engine) List(who Identity) ([]models.Ticket, error) {
	if e.db == nil {
		return nil, ErrDBNil
	}

	query := e.db.Preload("Client").Preload("Resolver").Order("created_at DESC")

	if who.isClient() {
		if who.ClientID == nil {
			return nil, ErrClientRecordMissing
		}

		query = query.Where("client_id = ?", *who.ClientID)
	}

	var tickets []models.Ticket

	if err := query.Find(&tickets).Error; err != nil {
		return nil, err
	}

	return tickets, nil
}

// Timeline loads a ticket together with its full message history, oldest
// first, with the author of every message resolved. Customer accounts can
// only open their own client's tickets; anything else reads as not found.
func (e *Engine) Timeline(who Identity, id uint) (*models.Ticket, []models.TicketMessage, error) {
	t, err := e.Get(id)
	if err != nil {
		return nil, nil, err
	}

	if who.isClient() {
		if who.ClientID == nil {
			return nil, nil, ErrClientRecordMissing
		}

		if t.ClientID != *who.ClientID {
			return nil, nil, ErrTicketNotFound
		}
	}

	var messages []models.TicketMessage

	result := e.db.Preload("User").
		Where("ticket_id = ?", t.ID).
		Order("created_at ASC, id ASC").
		Find(&messages)
	if result.Error != nil {
		return nil, nil, result.Error
	}

	return t, messages, nil
}

func (e *Engine) notifyAssigned(userID uint64, t *models.Ticket) {
	msg := fmt.Sprintf("Ticket %s has been assigned to you", t.Number)

	_, created, err := notification.EmitTicketAssigned(e.db, userID, t.ID, msg)
	if err != nil {
		log.Error().Err(err).Uint("ticket_id", t.ID).Msg("failed to emit assignment notification")
		return
	}

	if created {
		log.Debug().Uint64("user_id", userID).Str("ticket", t.Number).Msg("assignment notification emitted")
	}
}

// validateInput checks the shared creation/update rules and returns the
// parsed coordinates for location-bound ticket types.
func validateInput(in *Input) (float64, float64, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return 0, 0, ErrTitleRequired
	}

	if !in.Type.Valid() {
		return 0, 0, ErrInvalidType
	}

	if in.ClientID == 0 {
		return 0, 0, ErrClientRequired
	}

	if !in.Type.RequiresLocation() {
		return 0, 0, nil
	}

	if strings.TrimSpace(in.Address) == "" {
		return 0, 0, ErrAddressRequired
	}

	return ParseCoordinates(in.Coordinates)
}
