package ticket

import (
	"context"
	"regexp"
	"testing"
	"time"

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

	err = db.AutoMigrate(
		&models.Client{},
		&models.Role{},
		&models.User{},
		&models.Ticket{},
		&models.TicketMessage{},
		&models.Notification{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

type fakeStore struct {
	uploads []string
	deletes []string
}

func (f *fakeStore) Upload(_ context.Context, folder, key string, _ []byte, _ string) (string, error) {
	f.uploads = append(f.uploads, folder+"/"+key)
	return "https://cdn.test/" + folder + "/" + key, nil
}

func (f *fakeStore) Delete(_ context.Context, folder, key string) error {
	f.deletes = append(f.deletes, folder+"/"+key)
	return nil
}

type broadcastEvent struct {
	ticketID uint
	event    string
	payload  any
}

type fakeBroadcaster struct {
	events []broadcastEvent
}

func (f *fakeBroadcaster) ToTicket(ticketID uint, event string, payload any) {
	f.events = append(f.events, broadcastEvent{ticketID: ticketID, event: event, payload: payload})
}

// seedBase creates a staff user, a customer user with a linked client, and
// a second staff user usable as resolver.
func seedBase(t *testing.T, db *gorm.DB) (staff, customer, resolver models.User, client models.Client) {
	t.Helper()

	staffRole := models.Role{Name: "Technician"}
	clientRole := models.Role{Name: models.RoleNameClient}
	require.NoError(t, db.Create(&staffRole).Error)
	require.NoError(t, db.Create(&clientRole).Error)

	client = models.Client{Name: "Maria Lopez", Active: true}
	require.NoError(t, db.Create(&client).Error)

	staff = models.User{Active: true, Email: "tech@cpe.test", Name: "Tech", RoleID: staffRole.ID}
	require.NoError(t, db.Create(&staff).Error)

	resolver = models.User{Active: true, Email: "resolver@cpe.test", Name: "Resolver", RoleID: staffRole.ID}
	require.NoError(t, db.Create(&resolver).Error)

	customer = models.User{Active: true, Email: "maria@cpe.test", Name: "Maria", RoleID: clientRole.ID, ClientID: &client.ID}
	require.NoError(t, db.Create(&customer).Error)

	return staff, customer, resolver, client
}

func TestNewNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^TKT-[A-Z0-9]{6}-\d{8}-\d{6}$`)

	now := time.Now()
	first := NewNumber(now)
	second := NewNumber(now)

	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second, "random component should differ")
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "plain pair", raw: "13.6929,-89.2182", lat: 13.6929, lon: -89.2182},
		{name: "spaces around parts", raw: " 13.5 , -89.1 ", lat: 13.5, lon: -89.1},
		{name: "single value", raw: "13.6929", wantErr: true},
		{name: "three values", raw: "1,2,3", wantErr: true},
		{name: "not numbers", raw: "lat,lon", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := ParseCoordinates(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}

func TestCreateMaintenanceMissingCoordinatesPersistsNothing(t *testing.T) {
	db := setupTestDB(t)
	staff, _, _, client := seedBase(t, db)

	store := &fakeStore{}
	engine := NewEngine(db, store, nil)

	_, err := engine.Create(context.Background(), Identity{UserID: staff.ID, RoleName: "Technician"}, Input{
		Title:      "Router down",
		Type:       models.TicketTypeMaintenance,
		ClientID:   client.ID,
		Address:    "Col. Escalon, San Salvador",
		Attachment: &Attachment{Data: []byte("img"), ContentType: "image/png"},
	})
	require.ErrorIs(t, err, ErrInvalidCoordinates)

	var count int64
	require.NoError(t, db.Model(&models.Ticket{}).Count(&count).Error)
	assert.Zero(t, count, "rejected ticket must not be persisted")
	assert.Empty(t, store.uploads, "rejected ticket must not upload its attachment")
}

func TestCreateMaintenanceRequiresAddress(t *testing.T) {
	db := setupTestDB(t)
	staff, _, _, client := seedBase(t, db)

	engine := NewEngine(db, &fakeStore{}, nil)

	_, err := engine.Create(context.Background(), Identity{UserID: staff.ID, RoleName: "Technician"}, Input{
		Title:       "Site visit",
		Type:        models.TicketTypeMaintenance,
		ClientID:    client.ID,
		Coordinates: "13.69,-89.21",
	})
	assert.ErrorIs(t, err, ErrAddressRequired)
}

func TestCreateClientForcedPath(t *testing.T) {
	db := setupTestDB(t)
	_, customer, resolver, client := seedBase(t, db)

	engine := NewEngine(db, &fakeStore{}, nil)

	// the customer tries to pick a type and a resolver; both are overridden
	created, err := engine.Create(context.Background(), Identity{
		UserID:   customer.ID,
		RoleName: models.RoleNameClient,
		ClientID: customer.ClientID,
	}, Input{
		Title:      "No internet",
		Type:       models.TicketTypeInstallation,
		ResolverID: &resolver.ID,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TKT-[A-Z0-9]{6}-\d{8}-\d{6}$`, created.Number)
	assert.Equal(t, models.TicketTypeResolution, created.Type)
	assert.Equal(t, models.TicketStatusSubmitted, created.Status)
	assert.Nil(t, created.ResolverID)
	assert.Equal(t, client.ID, created.ClientID)
	assert.Equal(t, customer.ID, created.CreatorID)
}

func TestCreateClientRecordMissing(t *testing.T) {
	db := setupTestDB(t)
	seedBase(t, db)

	engine := NewEngine(db, &fakeStore{}, nil)

	_, err := engine.Create(context.Background(), Identity{UserID: 99, RoleName: models.RoleNameClient}, Input{
		Title: "No internet",
	})
	assert.ErrorIs(t, err, ErrClientRecordMissing)
}

func TestAssignmentNotificationsAreIdempotent(t *testing.T) {
	db := setupTestDB(t)
	staff, _, resolver, client := seedBase(t, db)

	engine := NewEngine(db, &fakeStore{}, nil)
	who := Identity{UserID: staff.ID, RoleName: "Technician"}

	created, err := engine.Create(context.Background(), who, Input{
		Title:      "Slow connection",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		ResolverID: &resolver.ID,
	})
	require.NoError(t, err)

	countAssigned := func(userID uint64) int64 {
		var n int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("user_id = ? AND ticket_id = ? AND kind = ?", userID, created.ID, models.NotificationKindTicketAssigned).
			Count(&n).Error)
		return n
	}

	require.EqualValues(t, 1, countAssigned(resolver.ID))

	// no-op update with the same resolver creates nothing new
	_, err = engine.Update(context.Background(), created.ID, Input{
		Title:      "Slow connection",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		ResolverID: &resolver.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countAssigned(resolver.ID))

	// re-assignment moves the existing notification to the new resolver
	_, err = engine.Update(context.Background(), created.ID, Input{
		Title:      "Slow connection",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		ResolverID: &staff.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countAssigned(staff.ID))
	assert.EqualValues(t, 0, countAssigned(resolver.ID))

	var total int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestUpdateReplacesStoredAttachment(t *testing.T) {
	db := setupTestDB(t)
	staff, _, _, client := seedBase(t, db)

	store := &fakeStore{}
	engine := NewEngine(db, store, nil)
	who := Identity{UserID: staff.ID, RoleName: "Technician"}

	created, err := engine.Create(context.Background(), who, Input{
		Title:      "Damaged antenna",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		Attachment: &Attachment{Data: []byte("first"), ContentType: "image/jpeg"},
	})
	require.NoError(t, err)
	require.Len(t, store.uploads, 1)
	require.NotEmpty(t, created.ImageURL)

	updated, err := engine.Update(context.Background(), created.ID, Input{
		Title:      "Damaged antenna",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		Attachment: &Attachment{Data: []byte("second"), ContentType: "image/jpeg"},
	})
	require.NoError(t, err)

	require.Len(t, store.deletes, 1)
	assert.Equal(t, "tickets/"+created.Number, store.deletes[0])
	require.Len(t, store.uploads, 2)
	assert.NotEmpty(t, updated.ImageURL)
}

func TestUpdateStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	staff, _, _, client := seedBase(t, db)

	rt := &fakeBroadcaster{}
	engine := NewEngine(db, &fakeStore{}, rt)

	created, err := engine.Create(context.Background(), Identity{UserID: staff.ID, RoleName: "Technician"}, Input{
		Title:    "Intermittent drops",
		Type:     models.TicketTypeResolution,
		ClientID: client.ID,
	})
	require.NoError(t, err)

	// skipping a state is rejected
	_, err = engine.UpdateStatus(created.ID, models.TicketStatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = engine.UpdateStatus(created.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := engine.UpdateStatus(created.ID, models.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusInProgress, updated.Status)

	updated, err = engine.UpdateStatus(created.ID, models.TicketStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCompleted, updated.Status)

	require.Len(t, rt.events, 2)
	assert.Equal(t, created.ID, rt.events[0].ticketID)
	assert.Equal(t, EventStatusChanged, rt.events[0].event)

	change, ok := rt.events[1].payload.(StatusChange)
	require.True(t, ok)
	assert.Equal(t, models.TicketStatusCompleted, change.Status)
	assert.Equal(t, created.Number, change.Number)
}

func TestUpdateStatusUnknownTicket(t *testing.T) {
	db := setupTestDB(t)
	seedBase(t, db)

	engine := NewEngine(db, &fakeStore{}, nil)

	_, err := engine.UpdateStatus(12345, models.TicketStatusInProgress)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	staff, _, resolver, client := seedBase(t, db)

	store := &fakeStore{}
	engine := NewEngine(db, store, nil)

	created, err := engine.Create(context.Background(), Identity{UserID: staff.ID, RoleName: "Technician"}, Input{
		Title:      "Replace modem",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		ResolverID: &resolver.ID,
		Attachment: &Attachment{Data: []byte("img"), ContentType: "image/png"},
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.TicketMessage{TicketID: created.ID, UserID: staff.ID, Text: "On my way"}).Error)
	require.NoError(t, db.Create(&models.TicketMessage{TicketID: created.ID, UserID: resolver.ID, Text: "Arrived"}).Error)

	require.NoError(t, engine.Delete(context.Background(), created.ID))

	var messages, notifications, tickets int64
	require.NoError(t, db.Model(&models.TicketMessage{}).Where("ticket_id = ?", created.ID).Count(&messages).Error)
	require.NoError(t, db.Model(&models.Notification{}).Where("ticket_id = ?", created.ID).Count(&notifications).Error)
	require.NoError(t, db.Model(&models.Ticket{}).Count(&tickets).Error)

	assert.Zero(t, messages)
	assert.Zero(t, notifications)
	assert.Zero(t, tickets)

	require.Len(t, store.deletes, 1)
	assert.Equal(t, "tickets/"+created.Number, store.deletes[0])
}

func TestListScopesCustomerToOwnClient(t *testing.T) {
	db := setupTestDB(t)
	staff, customer, _, client := seedBase(t, db)

	other := models.Client{Name: "Other Client", Active: true}
	require.NoError(t, db.Create(&other).Error)

	engine := NewEngine(db, &fakeStore{}, nil)
	who := Identity{UserID: staff.ID, RoleName: "Technician"}

	_, err := engine.Create(context.Background(), who, Input{
		Title: "Mine", Type: models.TicketTypeResolution, ClientID: client.ID,
	})
	require.NoError(t, err)

	_, err = engine.Create(context.Background(), who, Input{
		Title: "Not mine", Type: models.TicketTypeResolution, ClientID: other.ID,
	})
	require.NoError(t, err)

	all, err := engine.List(who)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := engine.List(Identity{UserID: customer.ID, RoleName: models.RoleNameClient, ClientID: &client.ID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Mine", own[0].Title)
}

func TestTimelineOrdersMessagesAscending(t *testing.T) {
	db := setupTestDB(t)
	staff, _, resolver, client := seedBase(t, db)

	engine := NewEngine(db, &fakeStore{}, nil)

	created, err := engine.Create(context.Background(), Identity{UserID: staff.ID, RoleName: "Technician"}, Input{
		Title: "History check", Type: models.TicketTypeResolution, ClientID: client.ID,
	})
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		msg := models.TicketMessage{TicketID: created.ID, UserID: resolver.ID, Text: text, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(&msg).Error)
	}

	ticket, messages, err := engine.Timeline(Identity{UserID: staff.ID, RoleName: "Technician"}, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, ticket.ID)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "third", messages[2].Text)
	assert.Equal(t, resolver.Name, messages[0].User.Name)
}

func TestUpdateReassignmentPersists(t *testing.T) {
	db := setupTestDB(t)
	staff, _, resolver, client := seedBase(t, db)

	engine := NewEngine(db, &fakeStore{}, nil)
	who := Identity{UserID: staff.ID, RoleName: "Technician"}

	created, err := engine.Create(context.Background(), who, Input{
		Title:      "Router replacement",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		ResolverID: &resolver.ID,
	})
	require.NoError(t, err)

	wantResolver := staff.ID
	updated, err := engine.Update(context.Background(), created.ID, Input{
		Title:      "Router replacement",
		Type:       models.TicketTypeResolution,
		ClientID:   client.ID,
		ResolverID: &staff.ID,
	})
	require.NoError(t, err)

	// the caller's variable must come through the update untouched
	assert.Equal(t, wantResolver, staff.ID)

	require.NotNil(t, updated.ResolverID)
	assert.Equal(t, staff.ID, *updated.ResolverID)

	var stored models.Ticket
	require.NoError(t, db.First(&stored, created.ID).Error)
	require.NotNil(t, stored.ResolverID)
	assert.Equal(t, staff.ID, *stored.ResolverID)
}

func TestTimelineScopesCustomerToOwnClient(t *testing.T) {
	db := setupTestDB(t)
	staff, customer, _, client := seedBase(t, db)

	other := models.Client{Name: "Other Client", Active: true}
	require.NoError(t, db.Create(&other).Error)

	engine := NewEngine(db, &fakeStore{}, nil)
	who := Identity{UserID: staff.ID, RoleName: "Technician"}

	own, err := engine.Create(context.Background(), who, Input{
		Title: "Mine", Type: models.TicketTypeResolution, ClientID: client.ID,
	})
	require.NoError(t, err)

	foreign, err := engine.Create(context.Background(), who, Input{
		Title: "Not mine", Type: models.TicketTypeResolution, ClientID: other.ID,
	})
	require.NoError(t, err)

	me := Identity{UserID: customer.ID, RoleName: models.RoleNameClient, ClientID: &client.ID}

	ticket, _, err := engine.Timeline(me, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, ticket.ID)

	_, _, err = engine.Timeline(me, foreign.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, _, err = engine.Timeline(Identity{UserID: customer.ID, RoleName: models.RoleNameClient}, own.ID)
	assert.ErrorIs(t, err, ErrClientRecordMissing)

	// staff identities stay unscoped
	_, _, err = engine.Timeline(who, foreign.ID)
	assert.NoError(t, err)
}
