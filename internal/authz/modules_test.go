package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

func rolePerm(perm models.Permission) models.RolePermission {
	return models.RolePermission{Permission: perm}
}

func TestNewVisibility(t *testing.T) {
	v := NewVisibility()

	assert.Len(t, v, len(KnownModules()))

	for _, key := range KnownModules() {
		visible, present := v[key]
		assert.True(t, present, "key %s must be present", key)
		assert.False(t, visible, "key %s must start hidden", key)
	}
}

func TestResolveActiveModules(t *testing.T) {
	testCases := []struct {
		name      string
		rolePerms []models.RolePermission
		visible   []string
	}{
		{
			name:      "empty permission set hides everything",
			rolePerms: nil,
			visible:   nil,
		},
		{
			name: "active module becomes visible",
			rolePerms: []models.RolePermission{
				rolePerm(models.Permission{
					Route: "/tickets", Method: "GET",
					Modules: []models.Module{{Name: ModuleTickets, Active: true}},
				}),
			},
			visible: []string{ModuleTickets},
		},
		{
			name: "inactive module stays hidden",
			rolePerms: []models.RolePermission{
				rolePerm(models.Permission{
					Route: "/invoices", Method: "GET",
					Modules: []models.Module{{Name: ModuleInvoices, Active: false}},
				}),
			},
			visible: nil,
		},
		{
			name: "unconditional permission references nothing",
			rolePerms: []models.RolePermission{
				rolePerm(models.Permission{Route: "/dashboard", Method: "GET"}),
			},
			visible: nil,
		},
		{
			name: "unknown module names are ignored",
			rolePerms: []models.RolePermission{
				rolePerm(models.Permission{
					Route: "/legacy", Method: "GET",
					Modules: []models.Module{{Name: "telegraphs", Active: true}},
				}),
			},
			visible: nil,
		},
		{
			name: "multiple permissions accumulate",
			rolePerms: []models.RolePermission{
				rolePerm(models.Permission{
					Route: "/tickets", Method: "GET",
					Modules: []models.Module{{Name: ModuleTickets, Active: true}},
				}),
				rolePerm(models.Permission{
					Route: "/clients", Method: "GET",
					Modules: []models.Module{{Name: ModuleClients, Active: true}},
				}),
				rolePerm(models.Permission{
					Route: "/invoices", Method: "GET",
					Modules: []models.Module{{Name: ModuleInvoices, Active: false}},
				}),
			},
			visible: []string{ModuleTickets, ModuleClients},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := ResolveActiveModules(tc.rolePerms)

			expected := NewVisibility()
			for _, key := range tc.visible {
				expected[key] = true
			}

			assert.Equal(t, expected, v)
		})
	}
}
