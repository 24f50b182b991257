package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

func TestIsAuthorized(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	support := models.Role{Name: "Support"}
	require.NoError(t, db.Create(&support).Error)

	client := models.Role{Name: models.RoleNameClient}
	require.NoError(t, db.Create(&client).Error)

	require.NoError(t, svc.ApplyRolePermissions(support.ID, []PermissionInput{
		{Route: "/tickets", Method: "GET", Kind: models.PermissionKindRead},
		{Route: "/tickets/edit/:id", Method: "PUT", Kind: models.PermissionKindWrite},
	}))

	testCases := []struct {
		name    string
		roleID  uint
		method  string
		path    string
		allowed bool
	}{
		{"listed route", support.ID, "GET", "/tickets", true},
		{"parameterized route", support.ID, "PUT", "/tickets/edit/42", true},
		{"wrong method", support.ID, "DELETE", "/tickets", false},
		{"unlisted route", support.ID, "GET", "/invoices", false},
		{"role without permissions", client.ID, "GET", "/tickets", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			allowed, err := svc.IsAuthorized(tc.roleID, tc.method, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}

func TestVisibilityForRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	role := models.Role{Name: "Support"}
	require.NoError(t, db.Create(&role).Error)

	tickets := models.Module{Name: ModuleTickets, Active: true}
	require.NoError(t, db.Create(&tickets).Error)

	invoices := models.Module{Name: ModuleInvoices, Active: false}
	require.NoError(t, db.Create(&invoices).Error)

	require.NoError(t, svc.ApplyRolePermissions(role.ID, []PermissionInput{
		{Route: "/tickets", Method: "GET", Kind: models.PermissionKindRead, ModuleIDs: []uint{tickets.ID}},
		{Route: "/invoices", Method: "GET", Kind: models.PermissionKindRead, ModuleIDs: []uint{invoices.ID}},
	}))

	v, err := svc.VisibilityForRole(role.ID)
	require.NoError(t, err)

	assert.True(t, v[ModuleTickets])
	assert.False(t, v[ModuleInvoices])
	assert.False(t, v[ModuleClients])

	// toggling the module on changes the next resolution; nothing is cached
	require.NoError(t, db.Model(&invoices).Update("active", true).Error)

	v, err = svc.VisibilityForRole(role.ID)
	require.NoError(t, err)
	assert.True(t, v[ModuleInvoices])
}

func TestVisibilityWithMixedModuleLinks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	role := models.Role{Name: "Support"}
	require.NoError(t, db.Create(&role).Error)

	tickets := models.Module{Name: ModuleTickets, Active: true}
	require.NoError(t, db.Create(&tickets).Error)

	reports := models.Module{Name: ModuleReports, Active: false}
	require.NoError(t, db.Create(&reports).Error)

	invoices := models.Module{Name: ModuleInvoices, Active: false}
	require.NoError(t, db.Create(&invoices).Error)

	require.NoError(t, svc.ApplyRolePermissions(role.ID, []PermissionInput{
		{Route: "/tickets", Method: "GET", Kind: models.PermissionKindRead, ModuleIDs: []uint{tickets.ID, reports.ID}},
		{Route: "/invoices", Method: "GET", Kind: models.PermissionKindRead, ModuleIDs: []uint{invoices.ID}},
	}))

	v, err := svc.VisibilityForRole(role.ID)
	require.NoError(t, err)

	// one active link makes the permission count, and a counting
	// permission carries all of its module names, inactive ones included
	assert.True(t, v[ModuleTickets])
	assert.True(t, v[ModuleReports])

	// a permission whose links are all inactive carries nothing
	assert.False(t, v[ModuleInvoices])
}
