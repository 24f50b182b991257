// Package role provides handlers for managing roles and their permission
// sets in the admin area. The form submits the desired permission set as a
// structured JSON list of records; the server reconciles it against the
// role's current permissions keyed on route+method.
package role

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/authz"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/dashboard"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/navigation"
)

const (
	// Path is the base path for role management.
	Path = handler.RootPath + "admin/role"

	// TemplateList is the template for listing roles.
	TemplateList = "admin/role/list"
	// TemplateForm is the template for creating/updating a role.
	TemplateForm = "admin/role/form"
)

// form is the role form payload. Permissions carries the desired permission
// set as a JSON array of records.
type form struct {
	Name        string `form:"name" validate:"required,max=100"`
	IsAdmin     bool   `form:"isAdmin"`
	Permissions string `form:"permissions"`
	ModuleIDs   []uint `form:"moduleIds"`
}

// Service provides CRUD and permission reconciliation for roles.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	validator   *validator.Validate
	authService *authz.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()
	s.authService = authService

	guard := authz.RequireAccess(authService)

	app.Get(Path, guard, s.List)
	app.Get(Path+"/new", guard, s.New)
	app.Post(Path, guard, s.Create)
	app.Get(Path+"/edit/:id", guard, s.Edit)
	app.Post(Path+"/edit/:id", guard, s.Update)
	app.Post(Path+"/delete/:id", guard, s.Delete)
}

func (s *Service) nav(pageTitle string, listActive bool) *navigation.Context {
	return navigation.NewContext(pageTitle, "admin", "role").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Roles", Path, listActive)
}

// List shows all roles with their permission counts.
func (s *Service) List(c *fiber.Ctx) error {
	nav := s.nav("Roles", true)

	var roles []models.Role

	if err := s.db.Preload("Modules").Order("name ASC").Find(&roles).Error; err != nil {
		log.Error().Err(err).Msg("failed to load roles")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load roles",
			"Menu":       c.Locals("Menu"),
		}, handler.BaseLayout)
	}

	permCounts := make(map[uint]int64, len(roles))

	for _, role := range roles {
		var count int64
		if err := s.db.Model(&models.RolePermission{}).Where("role_id = ?", role.ID).Count(&count).Error; err == nil {
			permCounts[role.ID] = count
		}
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"Roles":      roles,
		"PermCounts": permCounts,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	nav := s.nav("New Role", false).AddBreadcrumb("New", Path+"/new", true)

	modules, err := s.allModules()
	if err != nil {
		return c.Redirect(Path)
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation":      nav,
		"Role":            models.Role{},
		"Modules":         modules,
		"PermissionsJSON": "[]",
		"Menu":            c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Create persists a new role and applies its submitted permission set.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "New Role", models.Role{}, "[]", "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "New Role", models.Role{Name: in.Name}, in.Permissions, "Name is required")
	}

	desired, err := parsePermissions(in.Permissions)
	if err != nil {
		return s.renderFormError(c, "New Role", models.Role{Name: in.Name}, in.Permissions, err.Error())
	}

	modules, err := s.modulesByID(in.ModuleIDs)
	if err != nil {
		return s.renderFormError(c, "New Role", models.Role{Name: in.Name}, in.Permissions, "Failed to load modules")
	}

	role := models.Role{
		Name:    in.Name,
		IsAdmin: in.IsAdmin,
		Modules: modules,
	}

	if err := s.db.Create(&role).Error; err != nil {
		log.Error().Err(err).Str("name", in.Name).Msg("failed to create role")

		return s.renderFormError(c, "New Role", role, in.Permissions, "Failed to create role (name must be unique)")
	}

	if err := s.authService.ApplyRolePermissions(role.ID, desired); err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("failed to apply role permissions")

		return s.renderFormError(c, "New Role", role, in.Permissions, "Failed to apply permissions: "+err.Error())
	}

	return c.Redirect(Path)
}

// Edit shows the edit form with the role's current permission set.
func (s *Service) Edit(c *fiber.Ctx) error {
	role, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	nav := s.nav("Edit Role", false).AddBreadcrumb("Edit", "#", true)

	modules, err := s.allModules()
	if err != nil {
		return c.Redirect(Path)
	}

	perms, err := s.authService.PermissionsForRole(role.ID)
	if err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("failed to load role permissions")
		return c.Redirect(Path)
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation":      nav,
		"Role":            role,
		"Modules":         modules,
		"PermissionsJSON": permissionsJSON(perms),
		"Menu":            c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Update persists changes to a role and reconciles its permission set.
func (s *Service) Update(c *fiber.Ctx) error {
	role, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "Edit Role", role, "[]", "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "Edit Role", role, in.Permissions, "Name is required")
	}

	desired, err := parsePermissions(in.Permissions)
	if err != nil {
		return s.renderFormError(c, "Edit Role", role, in.Permissions, err.Error())
	}

	modules, err := s.modulesByID(in.ModuleIDs)
	if err != nil {
		return s.renderFormError(c, "Edit Role", role, in.Permissions, "Failed to load modules")
	}

	role.Name = in.Name
	role.IsAdmin = in.IsAdmin

	if err := s.db.Save(&role).Error; err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("failed to update role")

		return s.renderFormError(c, "Edit Role", role, in.Permissions, "Failed to update role")
	}

	if err := s.db.Model(&role).Association("Modules").Replace(modules); err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("failed to replace role modules")

		return s.renderFormError(c, "Edit Role", role, in.Permissions, "Failed to update module grants")
	}

	if err := s.authService.ApplyRolePermissions(role.ID, desired); err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("failed to apply role permissions")

		return s.renderFormError(c, "Edit Role", role, in.Permissions, "Failed to apply permissions: "+err.Error())
	}

	return c.Redirect(Path)
}

// Delete removes a role and its permission links.
func (s *Service) Delete(c *fiber.Ctx) error {
	role, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	var users int64
	if err := s.db.Model(&models.User{}).Where("role_id = ?", role.ID).Count(&users).Error; err == nil && users > 0 {
		log.Warn().Uint("role_id", role.ID).Int64("users", users).Msg("refusing to delete role still assigned to users")
		return c.Redirect(Path)
	}

	if err := s.authService.DeleteRole(role.ID); err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("failed to delete role")
	}

	return c.Redirect(Path)
}

func (s *Service) load(c *fiber.Ctx) (models.Role, error) {
	var role models.Role

	id, err := c.ParamsInt("id")
	if err != nil {
		return role, err
	}

	if err := s.db.Preload("Modules").First(&role, id).Error; err != nil {
		log.Warn().Err(err).Int("role_id", id).Msg("role not found")
		return role, err
	}

	return role, nil
}

func (s *Service) allModules() ([]models.Module, error) {
	var modules []models.Module

	if err := s.db.Order("name ASC").Find(&modules).Error; err != nil {
		log.Error().Err(err).Msg("failed to load modules")
		return nil, err
	}

	return modules, nil
}

func (s *Service) modulesByID(ids []uint) ([]models.Module, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var modules []models.Module

	if err := s.db.Where("id IN ?", ids).Find(&modules).Error; err != nil {
		return nil, err
	}

	return modules, nil
}

func (s *Service) renderFormError(c *fiber.Ctx, title string, role models.Role, permissionsJSON, msg string) error {
	nav := s.nav(title, false).AddBreadcrumb(title, "#", true)

	modules, _ := s.allModules()

	if permissionsJSON == "" {
		permissionsJSON = "[]"
	}

	return c.Status(fiber.StatusBadRequest).Render(TemplateForm, fiber.Map{
		"Navigation":      nav,
		"Role":            role,
		"Modules":         modules,
		"PermissionsJSON": permissionsJSON,
		"Error":           msg,
		"Menu":            c.Locals("Menu"),
	}, handler.BaseLayout)
}

// parsePermissions decodes the submitted JSON permission records.
func parsePermissions(raw string) ([]authz.PermissionInput, error) {
	if raw == "" {
		return nil, nil
	}

	var desired []authz.PermissionInput

	if err := json.Unmarshal([]byte(raw), &desired); err != nil {
		return nil, errors.New("permissions must be a JSON list of records")
	}

	return desired, nil
}

// permissionsJSON renders a role's current permissions back into the form's
// JSON record shape.
func permissionsJSON(perms []models.Permission) string {
	records := make([]authz.PermissionInput, 0, len(perms))

	for _, p := range perms {
		moduleIDs := make([]uint, 0, len(p.Modules))
		for _, m := range p.Modules {
			moduleIDs = append(moduleIDs, m.ID)
		}

		records = append(records, authz.PermissionInput{
			Route:       p.Route,
			Method:      p.Method,
			Description: p.Description,
			Kind:        p.Kind,
			ModuleIDs:   moduleIDs,
		})
	}

	out, err := json.Marshal(records)
	if err != nil {
		return "[]"
	}

	return string(out)
}
