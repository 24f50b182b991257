// Package notification provides persistence operations for ticket notifications.
//
// Notifications follow their ticket: reassigning a ticket re-targets its
// assignment notifications, deleting a ticket removes them.
package notification

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

const (
	ticketKindQuery = "ticket_id = ? AND kind = ?"
)

var (
	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// EmitTicketAssigned creates a ticket_assigned notification for the given
// user and ticket unless one already exists for that (user, ticket, kind)
// triple. It reports whether a new notification was created, so callers can
// emit repeatedly without producing duplicates.
func EmitTicketAssigned(db *gorm.DB, userID uint64, ticketID uint, message string) (*models.Notification, bool, error) {
	if db == nil {
		return nil, false, ErrDBNil
	}

	var existing models.Notification

	result := db.Where("user_id = ? AND "+ticketKindQuery, userID, ticketID, models.NotificationKindTicketAssigned).
		First(&existing)
	if result.Error == nil {
		return &existing, false, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, false, result.Error
	}

	n := &models.Notification{
		UserID:   userID,
		Kind:     models.NotificationKindTicketAssigned,
		Message:  message,
		TicketID: &ticketID,
	}

	if err := db.Create(n).Error; err != nil {
		return nil, false, err
	}

	return n, true, nil
}

// RetargetTicketAssigned moves all ticket_assigned notifications of a ticket
// to a new target user. Used when a ticket changes resolver so the pending
// notification follows the assignment.
func RetargetTicketAssigned(db *gorm.DB, ticketID uint, newUserID uint64) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Model(&models.Notification{}).
		Where(ticketKindQuery, ticketID, models.NotificationKindTicketAssigned).
		Update("user_id", newUserID)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// DeleteForTicket removes every notification referring to the given ticket.
// Called as part of the ticket deletion cascade, before the ticket row goes away.
func DeleteForTicket(db *gorm.DB, ticketID uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("ticket_id = ?", ticketID).Delete(&models.Notification{}).Error
}

// ListForUser retrieves a user's notifications, newest first.
func ListForUser(db *gorm.DB, userID uint64) ([]models.Notification, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var notifications []models.Notification

	result := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&notifications)
	if result.Error != nil {
		return nil, result.Error
	}

	return notifications, nil
}

// Delete deletes a notification by ID.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.Notification{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
