package notification

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Notification{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestEmitTicketAssigned(t *testing.T) {
	db := setupTestDB(t)

	n, created, err := EmitTicketAssigned(db, 7, 42, "Ticket TKT-ABC123 assigned to you")
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, n)
	assert.Equal(t, uint64(7), n.UserID)
	require.NotNil(t, n.TicketID)
	assert.Equal(t, uint(42), *n.TicketID)
	assert.Equal(t, models.NotificationKindTicketAssigned, n.Kind)

	// same triple again: no new row
	n2, created, err := EmitTicketAssigned(db, 7, 42, "Ticket TKT-ABC123 assigned to you")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, n.ID, n2.ID)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// different user for the same ticket is a new notification
	_, created, err = EmitTicketAssigned(db, 8, 42, "Ticket TKT-ABC123 assigned to you")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestEmitTicketAssignedNilDB(t *testing.T) {
	_, _, err := EmitTicketAssigned(nil, 1, 1, "x")
	require.ErrorIs(t, err, ErrDBNil)
}

func TestRetargetTicketAssigned(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := EmitTicketAssigned(db, 7, 42, "assigned")
	require.NoError(t, err)

	moved, err := RetargetTicketAssigned(db, 42, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	list, err := ListForUser(db, 9)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = ListForUser(db, 7)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteForTicket(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := EmitTicketAssigned(db, 7, 42, "assigned")
	require.NoError(t, err)
	_, _, err = EmitTicketAssigned(db, 7, 43, "assigned")
	require.NoError(t, err)

	require.NoError(t, DeleteForTicket(db, 42))

	list, err := ListForUser(db, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].TicketID)
	assert.Equal(t, uint(43), *list[0].TicketID)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	n, _, err := EmitTicketAssigned(db, 7, 42, "assigned")
	require.NoError(t, err)

	require.NoError(t, Delete(db, n.ID))
	require.ErrorIs(t, Delete(db, n.ID), ErrNotificationNotFound)
}
