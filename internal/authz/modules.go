package authz

import (
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

// Module key constants name the feature areas of the back office.
// Module rows in the database reference these names; unknown names are
// ignored by the resolver.
const (
	// ModuleClients gates the client record screens.
	ModuleClients = "clients"
	// ModuleEquipment gates the equipment inventory screens.
	ModuleEquipment = "equipment"
	// ModuleContracts gates the service contract screens.
	ModuleContracts = "contracts"
	// ModuleInvoices gates the invoicing screens.
	ModuleInvoices = "invoices"
	// ModulePayments gates the payment screens.
	ModulePayments = "payments"
	// ModuleTickets gates the ticket screens and chat.
	ModuleTickets = "tickets"
	// ModuleUsers gates user account administration.
	ModuleUsers = "users"
	// ModuleRoles gates role and permission administration.
	ModuleRoles = "roles"
	// ModuleModules gates module administration itself.
	ModuleModules = "modules"
	// ModuleReports gates report generation.
	ModuleReports = "reports"
)

// KnownModules lists every module key in menu order.
func KnownModules() []string {
	return []string{
		ModuleClients,
		ModuleEquipment,
		ModuleContracts,
		ModuleInvoices,
		ModulePayments,
		ModuleTickets,
		ModuleUsers,
		ModuleRoles,
		ModuleModules,
		ModuleReports,
	}
}

// Visibility is the fixed-shape mapping from each known module key to
// whether the current role can see it. Every known key is always present.
type Visibility map[string]bool

// NewVisibility returns a Visibility with every known module key set to false.
func NewVisibility() Visibility {
	v := make(Visibility, len(KnownModules()))
	for _, key := range KnownModules() {
		v[key] = false
	}

	return v
}

// ResolveActiveModules computes module visibility from a role's permission
// rows. A permission contributes if it has zero linked modules
// (unconditional) or at least one linked module with Active=true. A known
// module key becomes visible iff a contributing permission references a
// module literally named that key.
//
// The result is a pure function of the input; callers recompute it per
// request instead of caching, so there is no staleness to reason about.
func ResolveActiveModules(rolePerms []models.RolePermission) Visibility {
	visibility := NewVisibility()

	for i := range rolePerms {
		p := &rolePerms[i].Permission

		if !permissionContributes(p) {
			continue
		}

		for _, m := range p.Modules {
			if _, known := visibility[m.Name]; known {
				visibility[m.Name] = true
			}
		}
	}

	return visibility
}

// permissionContributes reports whether the permission takes part in
// visibility resolution: unconditional (zero modules) or scoped to at
// least one active module.
func permissionContributes(p *models.Permission) bool {
	if len(p.Modules) == 0 {
		return true
	}

	for _, m := range p.Modules {
		if m.Active {
			return true
		}
	}

	return false
}
