package daemon

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/authz"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Client{},
		&models.Module{},
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.User{},
		&models.Ticket{},
		&models.TicketMessage{},
		&models.Notification{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestSeedCreatesKnownModules(t *testing.T) {
	db := setupTestDB(t)
	seed(&config.Config{}, db)

	var modules []models.Module
	require.NoError(t, db.Find(&modules).Error)
	require.Len(t, modules, len(authz.KnownModules()))

	for _, m := range modules {
		assert.True(t, m.Active, "seeded module %q should be active", m.Name)
	}
}

func TestSeedAdminReachesEverySeededRoute(t *testing.T) {
	db := setupTestDB(t)
	seed(&config.Config{}, db)

	var adminRole models.Role
	require.NoError(t, db.Where("name = ?", "Administrator").First(&adminRole).Error)
	assert.True(t, adminRole.IsAdmin)

	svc := authz.NewService(db)

	perms, err := svc.PermissionsForRole(adminRole.ID)
	require.NoError(t, err)
	require.NotEmpty(t, perms)

	// every seeded permission authorizes a concrete request shaped like
	// its own route pattern
	for _, p := range perms {
		path := examplePath(p.Route)

		allowed, errAuth := svc.IsAuthorized(adminRole.ID, p.Method, path)
		require.NoError(t, errAuth)
		assert.True(t, allowed, "%s %s should be allowed", p.Method, path)
	}
}

func TestSeedClientRoleIsRestricted(t *testing.T) {
	db := setupTestDB(t)
	seed(&config.Config{}, db)

	var clientRole models.Role
	require.NoError(t, db.Where("name = ?", models.RoleNameClient).First(&clientRole).Error)
	assert.False(t, clientRole.IsAdmin)

	svc := authz.NewService(db)

	allowed, err := svc.IsAuthorized(clientRole.ID, "POST", "/tickets")
	require.NoError(t, err)
	assert.True(t, allowed)

	for _, denied := range []struct{ method, path string }{
		{"POST", "/tickets/delete/7"},
		{"POST", "/tickets/7/updatestatus"},
		{"GET", "/admin/user"},
		{"GET", "/clients"},
	} {
		allowed, err = svc.IsAuthorized(clientRole.ID, denied.method, denied.path)
		require.NoError(t, err)
		assert.False(t, allowed, "%s %s should be denied", denied.method, denied.path)
	}
}

func TestSeedIsIdempotentOnSecondBoot(t *testing.T) {
	db := setupTestDB(t)
	seed(&config.Config{}, db)

	var firstPerms int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&firstPerms).Error)

	seed(&config.Config{}, db)

	var roleCount, userCount, permCount int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roleCount).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Permission{}).Count(&permCount).Error)

	assert.Equal(t, int64(2), roleCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, firstPerms, permCount)
}

func TestSeedAdminUserCanLogIn(t *testing.T) {
	db := setupTestDB(t)
	seed(&config.Config{}, db)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@cpe-system.local").First(&admin).Error)

	assert.True(t, admin.Active)
	assert.True(t, admin.VerifyPassword("changeme"))
	assert.False(t, admin.VerifyPassword("wrong"))
}

// examplePath substitutes a numeric value for every parameter segment.
func examplePath(pattern string) string {
	segments := strings.Split(pattern[1:], "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") {
			segments[i] = "42"
		}
	}

	return "/" + strings.Join(segments, "/")
}
