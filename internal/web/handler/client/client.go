// Package client provides handlers for managing client records (CRUD).
package client

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
	// Path is the base path for client management.
	Path = handler.RootPath + "clients"

	// TemplateList is the template for listing clients.
	TemplateList = "client/list"
	// TemplateForm is the template for creating/updating a client.
	TemplateForm = "client/form"
)

// form is the client form payload.
type form struct {
	Name    string `form:"name" validate:"required,max=150"`
	Email   string `form:"email" validate:"omitempty,email,max=255"`
	Phone   string `form:"phone" validate:"max=30"`
	Address string `form:"address" validate:"max=255"`
	Active  bool   `form:"active"`
}

// Service provides CRUD operations for clients.
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
	app.Post(Path+"/delete/:id", guard, s.Delete)
}

func (s *Service) nav(pageTitle string, listActive bool) *navigation.Context {
	return navigation.NewContext(pageTitle, "clients", "client").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Clients", Path, listActive)
}

// List shows clients, optionally filtered by a search term.
func (s *Service) List(c *fiber.Ctx) error {
	nav := s.nav("Clients", true)

	search := c.Query("search", "")

	tx := s.db.Model(&models.Client{}).Order("name ASC")
	if search != "" {
		like := "%" + search + "%"
		tx = tx.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}

	var clients []models.Client

	if err := tx.Find(&clients).Error; err != nil {
		log.Error().Err(err).Msg("failed to load clients")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load clients",
			"Search":     search,
			"Menu":       c.Locals("Menu"),
		}, handler.BaseLayout)
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"Clients":    clients,
		"Search":     search,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	nav := s.nav("New Client", false).AddBreadcrumb("New", Path+"/new", true)

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Client":     models.Client{Active: true},
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Create persists a new client.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "New Client", models.Client{}, "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "New Client", models.Client{Name: in.Name, Email: in.Email}, "Name is required and email must be valid")
	}

	client := models.Client{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
		Active:  in.Active,
	}

	if err := s.db.Create(&client).Error; err != nil {
		log.Error().Err(err).Str("name", in.Name).Msg("failed to create client")

		return s.renderFormError(c, "New Client", client, "Failed to create client")
	}

	return c.Redirect(Path)
}

// Edit shows the edit form.
func (s *Service) Edit(c *fiber.Ctx) error {
	client, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	nav := s.nav("Edit Client", false).AddBreadcrumb("Edit", "#", true)

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Client":     client,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Update persists changes to a client.
func (s *Service) Update(c *fiber.Ctx) error {
	client, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "Edit Client", client, "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "Edit Client", client, "Name is required and email must be valid")
	}

	client.Name = in.Name
	client.Email = in.Email
	client.Phone = in.Phone
	client.Address = in.Address
	client.Active = in.Active

	if err := s.db.Save(&client).Error; err != nil {
		log.Error().Err(err).Uint("client_id", client.ID).Msg("failed to update client")

		return s.renderFormError(c, "Edit Client", client, "Failed to update client")
	}

	return c.Redirect(Path)
}

// Delete removes a client unless tickets or user accounts still reference it.
func (s *Service) Delete(c *fiber.Ctx) error {
	client, err := s.load(c)
	if err != nil {
		return c.Redirect(Path)
	}

	var tickets int64
	if err := s.db.Model(&models.Ticket{}).Where("client_id = ?", client.ID).Count(&tickets).Error; err == nil && tickets > 0 {
		log.Warn().Uint("client_id", client.ID).Int64("tickets", tickets).Msg("refusing to delete client with tickets")
		return c.Redirect(Path)
	}

	var users int64
	if err := s.db.Model(&models.User{}).Where("client_id = ?", client.ID).Count(&users).Error; err == nil && users > 0 {
		log.Warn().Uint("client_id", client.ID).Int64("users", users).Msg("refusing to delete client with linked users")
		return c.Redirect(Path)
	}

	if err := s.db.Delete(&client).Error; err != nil {
		log.Error().Err(err).Uint("client_id", client.ID).Msg("failed to delete client")
	}

	return c.Redirect(Path)
}

func (s *Service) load(c *fiber.Ctx) (models.Client, error) {
	var client models.Client

	id, err := c.ParamsInt("id")
	if err != nil {
		return client, err
	}

	if err := s.db.First(&client, id).Error; err != nil {
		log.Warn().Err(err).Int("client_id", id).Msg("client not found")
		return client, err
	}

	return client, nil
}

func (s *Service) renderFormError(c *fiber.Ctx, title string, client models.Client, msg string) error {
	nav := s.nav(title, false).AddBreadcrumb(title, "#", true)

	return c.Status(fiber.StatusBadRequest).Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Client":     client,
		"Error":      msg,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}
