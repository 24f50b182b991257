package authz

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

	err = db.AutoMigrate(
		&models.Module{},
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestDiffPermissions(t *testing.T) {
	current := []models.Permission{
		{ID: 1, Route: "/a", Method: "GET"},
		{ID: 2, Route: "/b", Method: "POST"},
	}
	desired := []PermissionInput{
		{Route: "/b", Method: "POST", Kind: models.PermissionKindWrite},
		{Route: "/c", Method: "DELETE", Kind: models.PermissionKindDelete},
	}

	diff := DiffPermissions(current, desired)

	// exactly one create, one delete, one update
	require.Len(t, diff.Create, 1)
	assert.Equal(t, "/c", diff.Create[0].Route)
	assert.Equal(t, "DELETE", diff.Create[0].Method)

	require.Len(t, diff.Delete, 1)
	assert.Equal(t, uint(1), diff.Delete[0].ID)

	require.Len(t, diff.Update, 1)
	assert.Equal(t, uint(2), diff.Update[0].Existing.ID)
	assert.Equal(t, models.PermissionKindWrite, diff.Update[0].Desired.Kind)
}

func TestDiffPermissionsEmptySets(t *testing.T) {
	diff := DiffPermissions(nil, nil)
	assert.Empty(t, diff.Create)
	assert.Empty(t, diff.Update)
	assert.Empty(t, diff.Delete)
}

func TestDiffPermissionsDuplicateDesiredKey(t *testing.T) {
	desired := []PermissionInput{
		{Route: "/a", Method: "GET", Description: "first"},
		{Route: "/a", Method: "GET", Description: "last wins"},
	}

	diff := DiffPermissions(nil, desired)

	require.Len(t, diff.Create, 1)
	assert.Equal(t, "last wins", diff.Create[0].Description)
}

func TestPermissionInputValidate(t *testing.T) {
	testCases := []struct {
		name        string
		input       PermissionInput
		expectedErr error
	}{
		{
			name:  "valid",
			input: PermissionInput{Route: "/tickets/:id", Method: "GET", Kind: models.PermissionKindRead},
		},
		{
			name:        "malformed route",
			input:       PermissionInput{Route: "tickets", Method: "GET", Kind: models.PermissionKindRead},
			expectedErr: ErrInvalidRoute,
		},
		{
			name:        "unknown method",
			input:       PermissionInput{Route: "/tickets", Method: "FETCH", Kind: models.PermissionKindRead},
			expectedErr: ErrInvalidMethod,
		},
		{
			name:        "unknown kind",
			input:       PermissionInput{Route: "/tickets", Method: "GET", Kind: "admin"},
			expectedErr: ErrInvalidKind,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestApplyRolePermissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	role := models.Role{Name: "Support"}
	require.NoError(t, db.Create(&role).Error)

	// initial set: /a GET and /b POST
	initial := []PermissionInput{
		{Route: "/a", Method: "GET", Kind: models.PermissionKindRead},
		{Route: "/b", Method: "POST", Kind: models.PermissionKindWrite},
	}
	require.NoError(t, svc.ApplyRolePermissions(role.ID, initial))

	perms, err := svc.PermissionsForRole(role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 2)

	// reconcile to: /b POST (kind changed), /c DELETE
	next := []PermissionInput{
		{Route: "/b", Method: "POST", Kind: models.PermissionKindDelete, Description: "updated"},
		{Route: "/c", Method: "DELETE", Kind: models.PermissionKindDelete},
	}
	require.NoError(t, svc.ApplyRolePermissions(role.ID, next))

	perms, err = svc.PermissionsForRole(role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 2)

	byKey := map[string]models.Permission{}
	for _, p := range perms {
		byKey[p.Method+" "+p.Route] = p
	}

	require.Contains(t, byKey, "POST /b")
	assert.Equal(t, models.PermissionKindDelete, byKey["POST /b"].Kind)
	assert.Equal(t, "updated", byKey["POST /b"].Description)
	require.Contains(t, byKey, "DELETE /c")
	assert.NotContains(t, byKey, "GET /a")

	// the deleted permission row is gone, not only unlinked
	var count int64
	require.NoError(t, db.Model(&models.Permission{}).Where("route = ?", "/a").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestApplyRolePermissionsModuleScope(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	role := models.Role{Name: "Billing"}
	require.NoError(t, db.Create(&role).Error)

	mod := models.Module{Name: ModuleInvoices, Active: true}
	require.NoError(t, db.Create(&mod).Error)

	desired := []PermissionInput{
		{Route: "/invoices", Method: "GET", Kind: models.PermissionKindRead, ModuleIDs: []uint{mod.ID}},
	}
	require.NoError(t, svc.ApplyRolePermissions(role.ID, desired))

	perms, err := svc.PermissionsForRole(role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.Len(t, perms[0].Modules, 1)
	assert.Equal(t, ModuleInvoices, perms[0].Modules[0].Name)
}

func TestApplyRolePermissionsUnknownRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	err := svc.ApplyRolePermissions(999, nil)
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestApplyRolePermissionsRejectsInvalidInput(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	role := models.Role{Name: "Support"}
	require.NoError(t, db.Create(&role).Error)

	err := svc.ApplyRolePermissions(role.ID, []PermissionInput{
		{Route: "no-slash", Method: "GET", Kind: models.PermissionKindRead},
	})
	require.ErrorIs(t, err, ErrInvalidRoute)

	// nothing was written
	perms, errLoad := svc.PermissionsForRole(role.ID)
	require.NoError(t, errLoad)
	assert.Empty(t, perms)
}

func TestDeleteRoleCascadesLinks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	role := models.Role{Name: "Support"}
	require.NoError(t, db.Create(&role).Error)

	require.NoError(t, svc.ApplyRolePermissions(role.ID, []PermissionInput{
		{Route: "/a", Method: "GET", Kind: models.PermissionKindRead},
	}))

	require.NoError(t, svc.DeleteRole(role.ID))

	var linkCount int64
	require.NoError(t, db.Model(&models.RolePermission{}).Where("role_id = ?", role.ID).Count(&linkCount).Error)
	assert.Equal(t, int64(0), linkCount)

	require.ErrorIs(t, svc.DeleteRole(role.ID), ErrRoleNotFound)
}
