package daemon

import (
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/authz"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

var moduleDescriptions = map[string]string{
	authz.ModuleClients:   "Client records and service addresses",
	authz.ModuleEquipment: "CPE inventory and assignments",
	authz.ModuleContracts: "Service contracts and plans",
	authz.ModuleInvoices:  "Invoicing",
	authz.ModulePayments:  "Payment registration",
	authz.ModuleTickets:   "Service tickets and support chat",
	authz.ModuleUsers:     "User account administration",
	authz.ModuleRoles:     "Role and permission administration",
	authz.ModuleModules:   "Feature module administration",
	authz.ModuleReports:   "Report generation",
}

// seed creates the known feature modules and, on an empty database, an
// administrator role with the full permission set, the reserved end
// customer role, and a default admin account.
func seed(_ *config.Config, db *gorm.DB) {
	modules := seedModules(db)

	var count int64
	db.Model(&models.Role{}).Count(&count)
	if count > 0 {
		return
	}

	svc := authz.NewService(db)

	adminRole := models.Role{
		Name:    "Administrator",
		IsAdmin: true,
		Modules: allModules(modules),
	}
	if err := db.Create(&adminRole).Error; err != nil {
		panic("failed to seed administrator role")
	}

	if err := svc.ApplyRolePermissions(adminRole.ID, adminPermissions(modules)); err != nil {
		panic("failed to seed administrator permissions")
	}

	clientRole := models.Role{Name: models.RoleNameClient}
	if err := db.Create(&clientRole).Error; err != nil {
		panic("failed to seed client role")
	}

	if err := svc.ApplyRolePermissions(clientRole.ID, clientPermissions(modules)); err != nil {
		panic("failed to seed client permissions")
	}

	db.Create(&models.User{
		Email:    "admin@cpe-system.local",
		Password: models.HashPassword("changeme"), // change after first login
		Name:     "Administrator",
		Active:   true,
		RoleID:   adminRole.ID,
	})
}

// seedModules ensures a Module row exists for every known module key and
// returns the rows keyed by name. Existing rows keep their Active flag.
func seedModules(db *gorm.DB) map[string]models.Module {
	byName := make(map[string]models.Module, len(authz.KnownModules()))

	for _, name := range authz.KnownModules() {
		var module models.Module

		err := db.Where(models.Module{Name: name}).
			Attrs(models.Module{Description: moduleDescriptions[name], Active: true}).
			FirstOrCreate(&module).Error
		if err != nil {
			panic("failed to seed modules")
		}

		byName[name] = module
	}

	return byName
}

func allModules(byName map[string]models.Module) []models.Module {
	all := make([]models.Module, 0, len(authz.KnownModules()))
	for _, name := range authz.KnownModules() {
		all = append(all, byName[name])
	}

	return all
}

// screenPermissions yields the permission records of a standard CRUD
// screen rooted at base, scoped to the given module.
func screenPermissions(base, what string, moduleID uint) []authz.PermissionInput {
	scope := []uint{moduleID}

	return []authz.PermissionInput{
		{Route: base, Method: "GET", Kind: models.PermissionKindRead, Description: "List " + what, ModuleIDs: scope},
		{Route: base + "/new", Method: "GET", Kind: models.PermissionKindRead, Description: "New " + what + " form", ModuleIDs: scope},
		{Route: base, Method: "POST", Kind: models.PermissionKindWrite, Description: "Create " + what, ModuleIDs: scope},
		{Route: base + "/edit/:id", Method: "GET", Kind: models.PermissionKindRead, Description: "Edit " + what + " form", ModuleIDs: scope},
		{Route: base + "/edit/:id", Method: "POST", Kind: models.PermissionKindWrite, Description: "Update " + what, ModuleIDs: scope},
		{Route: base + "/delete/:id", Method: "POST", Kind: models.PermissionKindDelete, Description: "Delete " + what, ModuleIDs: scope},
	}
}

func adminPermissions(byName map[string]models.Module) []authz.PermissionInput {
	tickets := []uint{byName[authz.ModuleTickets].ID}

	perms := screenPermissions("/clients", "client", byName[authz.ModuleClients].ID)
	perms = append(perms, screenPermissions("/admin/module", "module", byName[authz.ModuleModules].ID)...)
	perms = append(perms, authz.PermissionInput{
		Route: "/admin/module/toggle/:id", Method: "POST", Kind: models.PermissionKindWrite,
		Description: "Toggle module", ModuleIDs: []uint{byName[authz.ModuleModules].ID},
	})
	perms = append(perms, screenPermissions("/admin/role", "role", byName[authz.ModuleRoles].ID)...)
	perms = append(perms, screenPermissions("/admin/user", "user", byName[authz.ModuleUsers].ID)...)
	perms = append(perms, screenPermissions("/tickets", "ticket", byName[authz.ModuleTickets].ID)...)
	perms = append(perms,
		authz.PermissionInput{
			Route: "/tickets/edit/:id", Method: "PUT", Kind: models.PermissionKindWrite,
			Description: "Update ticket", ModuleIDs: tickets,
		},
		authz.PermissionInput{
			Route: "/tickets/delete/:id", Method: "DELETE", Kind: models.PermissionKindDelete,
			Description: "Delete ticket", ModuleIDs: tickets,
		},
		authz.PermissionInput{
			Route: "/tickets/timeline/:id", Method: "GET", Kind: models.PermissionKindRead,
			Description: "Ticket timeline and chat", ModuleIDs: tickets,
		},
		authz.PermissionInput{
			Route: "/tickets/:id/updatestatus", Method: "PUT", Kind: models.PermissionKindWrite,
			Description: "Change ticket status", ModuleIDs: tickets,
		},
		authz.PermissionInput{
			Route: "/tickets/:id/updatestatus", Method: "POST", Kind: models.PermissionKindWrite,
			Description: "Change ticket status", ModuleIDs: tickets,
		},
	)

	return perms
}

// clientPermissions is the restricted set for end customers: create
// resolution tickets against their own client record and follow them.
func clientPermissions(byName map[string]models.Module) []authz.PermissionInput {
	tickets := []uint{byName[authz.ModuleTickets].ID}

	return []authz.PermissionInput{
		{Route: "/tickets", Method: "GET", Kind: models.PermissionKindRead, Description: "List own tickets", ModuleIDs: tickets},
		{Route: "/tickets/new", Method: "GET", Kind: models.PermissionKindRead, Description: "New ticket form", ModuleIDs: tickets},
		{Route: "/tickets", Method: "POST", Kind: models.PermissionKindWrite, Description: "Create ticket", ModuleIDs: tickets},
		{Route: "/tickets/timeline/:id", Method: "GET", Kind: models.PermissionKindRead, Description: "Ticket timeline and chat", ModuleIDs: tickets},
	}
}
