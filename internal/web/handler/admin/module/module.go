// Package module provides handlers for managing feature modules (CRUD and
// activation toggling) in the admin area. Toggling a module changes menu
// visibility on the next request; nothing is cached.
package module

import (
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
	// Path is the base path for module management.
	Path = handler.RootPath + "admin/module"

	// TemplateList is the template for listing modules.
	TemplateList = "admin/module/list"
	// TemplateForm is the template for creating/updating a module.
	TemplateForm = "admin/module/form"
)

// form is the module form payload.
type form struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description" validate:"max=255"`
	Active      bool   `form:"active"`
}

// Service provides CRUD operations for modules.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
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

	guard := authz.RequireAccess(authService)

	app.Get(Path, guard, s.List)
	app.Get(Path+"/new", guard, s.New)
	app.Post(Path, guard, s.Create)
	app.Get(Path+"/edit/:id", guard, s.Edit)
	app.Post(Path+"/edit/:id", guard, s.Update)
	app.Post(Path+"/toggle/:id", guard, s.Toggle)
	app.Post(Path+"/delete/:id", guard, s.Delete)
}

func (s *Service) nav(pageTitle, activePage string) *navigation.Context {
	return navigation.NewContext(pageTitle, "admin", "module").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Modules", Path, activePage == "list")
}

// List shows all modules.
func (s *Service) List(c *fiber.Ctx) error {
	nav := s.nav("Modules", "list")

	var modules []models.Module

	if err := s.db.Order("name ASC").Find(&modules).Error; err != nil {
		log.Error().Err(err).Msg("failed to load modules")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load modules",
			"Menu":       c.Locals("Menu"),
		}, handler.BaseLayout)
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"Modules":    modules,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	nav := s.nav("New Module", "new").AddBreadcrumb("New", Path+"/new", true)

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Module":     models.Module{Active: true},
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Create persists a new module.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "New Module", models.Module{}, "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "New Module", models.Module{Name: in.Name, Description: in.Description}, "Name is required")
	}

	module := models.Module{
		Name:        in.Name,
		Description: in.Description,
		Active:      in.Active,
	}

	if err := s.db.Create(&module).Error; err != nil {
		log.Error().Err(err).Str("name", in.Name).Msg("failed to create module")

		return s.renderFormError(c, "New Module", module, "Failed to create module (name must be unique)")
	}

	return c.Redirect(Path)
}

// Edit shows the edit form.
func (s *Service) Edit(c *fiber.Ctx) error {
	module, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	nav := s.nav("Edit Module", "edit").AddBreadcrumb("Edit", "#", true)

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Module":     module,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Update persists changes to a module.
func (s *Service) Update(c *fiber.Ctx) error {
	module, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "Edit Module", module, "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "Edit Module", module, "Name is required")
	}

	module.Name = in.Name
	module.Description = in.Description
	module.Active = in.Active

	if err := s.db.Save(&module).Error; err != nil {
		log.Error().Err(err).Uint("module_id", module.ID).Msg("failed to update module")

		return s.renderFormError(c, "Edit Module", module, "Failed to update module")
	}

	return c.Redirect(Path)
}

// Toggle flips a module's active flag. Deactivation removes the module from
// every resolved menu without touching its permissions.
func (s *Service) Toggle(c *fiber.Ctx) error {
	module, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	if err := s.db.Model(&module).Update("active", !module.Active).Error; err != nil {
		log.Error().Err(err).Uint("module_id", module.ID).Msg("failed to toggle module")
	}

	return c.Redirect(Path)
}

// Delete removes a module together with its links into permissions and roles.
func (s *Service) Delete(c *fiber.Ctx) error {
	module, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM permission_modules WHERE module_id = ?", module.ID).Error; err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM role_modules WHERE module_id = ?", module.ID).Error; err != nil {
			return err
		}

		return tx.Delete(&module).Error
	})
	if err != nil {
		log.Error().Err(err).Uint("module_id", module.ID).Msg("failed to delete module")
	}

	return c.Redirect(Path)
}

func (s *Service) load(c *fiber.Ctx) (models.Module, error) {
	var module models.Module

	id, err := c.ParamsInt("id")
	if err != nil {
		return module, err
	}

	if err := s.db.First(&module, id).Error; err != nil {
		log.Warn().Err(err).Int("module_id", id).Msg("module not found")
		return module, err
	}

	return module, nil
}

func (s *Service) renderFormError(c *fiber.Ctx, title string, module models.Module, msg string) error {
	nav := s.nav(title, "form").AddBreadcrumb(title, "#", true)

	return c.Status(fiber.StatusBadRequest).Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Module":     module,
		"Error":      msg,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}
