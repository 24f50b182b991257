// Package navigation provides the page navigation state: breadcrumbs,
// active-section tracking and the sidebar menu derived from the role's
// module visibility.
package navigation

import (
	"github.com/AdoDeveloper/cpe-system-sub000/internal/authz"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}

// MenuItem is one sidebar entry.
type MenuItem struct {
	Key   string
	Title string
	URL   string
}

// menuEntries maps module keys to their sidebar entry, in menu order.
var menuEntries = []MenuItem{
	{Key: authz.ModuleClients, Title: "Clients", URL: "/clients"},
	{Key: authz.ModuleEquipment, Title: "Equipment", URL: "/equipment"},
	{Key: authz.ModuleContracts, Title: "Contracts", URL: "/contracts"},
	{Key: authz.ModuleInvoices, Title: "Invoices", URL: "/invoices"},
	{Key: authz.ModulePayments, Title: "Payments", URL: "/payments"},
	{Key: authz.ModuleTickets, Title: "Tickets", URL: "/tickets"},
	{Key: authz.ModuleUsers, Title: "Users", URL: "/admin/user"},
	{Key: authz.ModuleRoles, Title: "Roles", URL: "/admin/role"},
	{Key: authz.ModuleModules, Title: "Modules", URL: "/admin/module"},
	{Key: authz.ModuleReports, Title: "Reports", URL: "/reports"},
}

// BuildMenu returns the sidebar entries visible under the given module
// visibility, in menu order.
func BuildMenu(visibility authz.Visibility) []MenuItem {
	menu := make([]MenuItem, 0, len(menuEntries))

	for _, item := range menuEntries {
		if visibility[item.Key] {
			menu = append(menu, item)
		}
	}

	return menu
}
