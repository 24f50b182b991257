package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/storage"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/ticket"
)

// imageFolder is the object storage folder for chat images, one
// subfolder per ticket.
const imageFolder = "chat"

// SendMessageInput is the payload of a sendMessage event.
type SendMessageInput struct {
	TicketID    uint   `json:"ticketId"`
	Text        string `json:"text"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// JoinInput is the payload of a join event.
type JoinInput struct {
	TicketID uint `json:"ticketId"`
}

// MessagePayload is the newMessage broadcast, the persisted message with
// its author resolved.
type MessagePayload struct {
	ID         uint      `json:"id"`
	TicketID   uint      `json:"ticketId"`
	AuthorID   uint64    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	MediaURL   string    `json:"mediaUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ErrorPayload is the errorMessage unicast.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeTicketNotFound = "TicketNotFound"
	codeTicketClosed   = "TicketClosed"
	codeInvalidMessage = "InvalidMessage"
	codeInternal       = "InternalError"
)

// Service runs the chat contract: look up the ticket, gate on its state,
// persist the message and broadcast it to the room.
type Service struct {
	db    *gorm.DB
	store storage.Store
	hub   *Hub

	// roomLocks serializes sends per ticket so broadcast order matches
	// persistence order inside one room.
	mu        sync.Mutex
	roomLocks map[uint]*sync.Mutex
}

// NewService creates a chat service on top of the hub.
func NewService(db *gorm.DB, store storage.Store, hub *Hub) *Service {
	return &Service{
		db:        db,
		store:     store,
		hub:       hub,
		roomLocks: make(map[uint]*sync.Mutex),
	}
}

// Hub exposes the hub so other components can broadcast into rooms.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Join subscribes the sender to a ticket's room after checking the ticket
// exists. Failures go back to the sender only.
func (s *Service) Join(sender Subscriber, in JoinInput) {
	var t models.Ticket

	result := s.db.First(&t, in.TicketID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sender.Send(EventError, ErrorPayload{Code: codeTicketNotFound, Message: "ticket not found"})
			return
		}

		log.Error().Err(result.Error).Uint("ticket_id", in.TicketID).Msg("failed to look up ticket on join")
		sender.Send(EventError, ErrorPayload{Code: codeInternal, Message: "failed to join ticket room"})

		return
	}

	s.hub.Join(t.ID, sender)
}

// SendMessage persists and broadcasts one chat message.
//
// Failures are unicast back to the sender as an errorMessage event and
// nothing is persisted: a missing ticket, a completed ticket, an empty or
// malformed payload. On success every participant in the room, the sender
// included, receives the persisted message as a newMessage event.
func (s *Service) SendMessage(ctx context.Context, sender Subscriber, author models.User, in SendMessageInput) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" && in.ImageBase64 == "" {
		sender.Send(EventError, ErrorPayload{Code: codeInvalidMessage, Message: ErrEmptyMessage.Error()})
		return
	}

	lock := s.roomLock(in.TicketID)
	lock.Lock()
	defer lock.Unlock()

	var t models.Ticket

	result := s.db.First(&t, in.TicketID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sender.Send(EventError, ErrorPayload{Code: codeTicketNotFound, Message: ticket.ErrTicketNotFound.Error()})
			return
		}

		log.Error().Err(result.Error).Uint("ticket_id", in.TicketID).Msg("failed to look up ticket on send")
		sender.Send(EventError, ErrorPayload{Code: codeInternal, Message: "failed to send message"})

		return
	}

	if t.Status == models.TicketStatusCompleted {
		sender.Send(EventError, ErrorPayload{Code: codeTicketClosed, Message: ticket.ErrTicketClosed.Error()})
		return
	}

	mediaURL, err := s.uploadImage(ctx, t.ID, in.ImageBase64)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) {
			sender.Send(EventError, ErrorPayload{Code: codeInvalidMessage, Message: err.Error()})
			return
		}

		log.Error().Err(err).Uint("ticket_id", t.ID).Msg("failed to upload chat image")
		sender.Send(EventError, ErrorPayload{Code: codeInternal, Message: "failed to store image"})

		return
	}

	msg := models.TicketMessage{
		TicketID: t.ID,
		UserID:   author.ID,
		Text:     in.Text,
		MediaURL: mediaURL,
	}

	if err := s.db.Create(&msg).Error; err != nil {
		log.Error().Err(err).Uint("ticket_id", t.ID).Msg("failed to persist chat message")
		sender.Send(EventError, ErrorPayload{Code: codeInternal, Message: "failed to send message"})

		return
	}

	s.hub.ToTicket(t.ID, EventNewMessage, MessagePayload{
		ID:         msg.ID,
		TicketID:   msg.TicketID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Text:       msg.Text,
		MediaURL:   msg.MediaURL,
		CreatedAt:  msg.CreatedAt,
	})
}

// uploadImage decodes an optional base64 image and stores it under
// chat/{ticketID}/{random}. Returns the empty URL when no image was sent.
func (s *Service) uploadImage(ctx context.Context, ticketID uint, imageBase64 string) (string, error) {
	if imageBase64 == "" {
		return "", nil
	}

	contentType := "image/png"

	// accept data URLs as sent by canvas/file readers
	if strings.HasPrefix(imageBase64, "data:") {
		semi := strings.Index(imageBase64, ";base64,")
		if semi < 0 {
			return "", ErrInvalidImage
		}

		contentType = imageBase64[len("data:"):semi]
		imageBase64 = imageBase64[semi+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", ErrInvalidImage
	}

	folder := fmt.Sprintf("%s/%d", imageFolder, ticketID)

	return s.store.Upload(ctx, folder, uuid.New().String(), data, contentType)
}

func (s *Service) roomLock(ticketID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.roomLocks[ticketID]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[ticketID] = lock
	}

	return lock
}
