// Package user provides handlers for managing users (CRUD) in admin area.
package user

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
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/session"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/user"

	// TemplateList is the template for listing users.
	TemplateList = "admin/user/list"
	// TemplateForm is the template for creating/updating a user.
	TemplateForm = "admin/user/form"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25
)

// form is the user form payload.
type form struct {
	Email    string `form:"email" validate:"required,email,max=255"`
	Password string `form:"password" validate:"max=128"`
	Name     string `form:"name" validate:"required,max=100"`
	RoleID   uint   `form:"roleId" validate:"required"`
	ClientID uint   `form:"clientId"`
	Active   bool   `form:"active"`
}

// Service provides CRUD operations for users.
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
	return navigation.NewContext(pageTitle, "admin", "user").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Users", Path, listActive)
}

// List shows users with simple pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	nav := s.nav("Users", true)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = DefaultPageSize
	}

	search := c.Query("search", "")

	var (
		users      []models.User
		totalCount int64
		tx         = s.db.Model(&models.User{})
	)

	if search != "" {
		like := "%" + search + "%"
		tx = tx.Where("email LIKE ? OR name LIKE ?", like, like)
	}

	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count users failed")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load users",
			"Search":     search,
			"Menu":       c.Locals("Menu"),
		}, handler.BaseLayout)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * pageSize
	if err := tx.Preload("Role").Preload("Client").Order("id DESC").Limit(pageSize).Offset(offset).Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("query users failed")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load users",
			"Search":     search,
			"Menu":       c.Locals("Menu"),
		}, handler.BaseLayout)
	}

	// Get current user ID from session
	var currentUserID uint64

	if sessionID := c.Cookies("session"); sessionID != "" {
		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err == nil {
			currentUserID = sessionData.User.ID
		}
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation":    nav,
		"Users":         users,
		"CurrentUserID": currentUserID,
		"Search":        search,
		"Page":          page,
		"PageSize":      pageSize,
		"TotalItems":    totalCount,
		"TotalPages":    totalPages,
		"HasPrev":       page > 1,
		"HasNext":       page < totalPages,
		"PrevPage":      page - 1,
		"NextPage":      page + 1,
		"Menu":          c.Locals("Menu"),
	}, handler.BaseLayout)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	nav := s.nav("New User", false).AddBreadcrumb("New", Path+"/new", true)

	roles, clients, err := s.formChoices()
	if err != nil {
		return c.Redirect(Path)
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"User":       models.User{Active: true},
		"Roles":      roles,
		"Clients":    clients,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Create persists a new user.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "New User", models.User{}, "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "New User", models.User{Email: in.Email, Name: in.Name}, "Email, name and role are required")
	}

	if in.Password == "" {
		return s.renderFormError(c, "New User", models.User{Email: in.Email, Name: in.Name}, "Password is required")
	}

	user := models.User{
		Active:   in.Active,
		Email:    in.Email,
		Password: models.HashPassword(in.Password),
		Name:     in.Name,
		RoleID:   in.RoleID,
	}

	if in.ClientID != 0 {
		user.ClientID = &in.ClientID
	}

	if err := s.db.Create(&user).Error; err != nil {
		log.Error().Err(err).Str("email", in.Email).Msg("failed to create user")

		return s.renderFormError(c, "New User", user, "Failed to create user (email must be unique)")
	}

	return c.Redirect(Path)
}

// Edit shows the edit form.
func (s *Service) Edit(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return c.Redirect(Path)
	}

	nav := s.nav("Edit User", false).AddBreadcrumb("Edit", "#", true)

	roles, clients, err := s.formChoices()
	if err != nil {
		return c.Redirect(Path)
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"User":       user,
		"Roles":      roles,
		"Clients":    clients,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Update persists changes to a user. An empty password keeps the current one.
func (s *Service) Update(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return c.Redirect(Path)
	}

	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.renderFormError(c, "Edit User", user, "Invalid form data")
	}

	if err := s.validator.Struct(in); err != nil {
		return s.renderFormError(c, "Edit User", user, "Email, name and role are required")
	}

	user.Email = in.Email
	user.Name = in.Name
	user.RoleID = in.RoleID
	user.Active = in.Active
	user.ClientID = nil

	if in.ClientID != 0 {
		user.ClientID = &in.ClientID
	}

	if in.Password != "" {
		user.Password = models.HashPassword(in.Password)
	}

	if err := s.db.Save(&user).Error; err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to update user")

		return s.renderFormError(c, "Edit User", user, "Failed to update user")
	}

	return c.Redirect(Path)
}

// Delete soft-deletes a user. The current user cannot delete themselves.
func (s *Service) Delete(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return c.Redirect(Path)
	}

	if sessionID := c.Cookies("session"); sessionID != "" {
		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err == nil && sessionData.User.ID == user.ID {
			log.Warn().Uint64("user_id", user.ID).Msg("user attempted to delete their own account")
			return c.Redirect(Path)
		}
	}

	if err := s.db.Delete(&user).Error; err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to delete user")
	}

	return c.Redirect(Path)
}

func (s *Service) loadUser(c *fiber.Ctx) (models.User, error) {
	var user models.User

	id, err := c.ParamsInt("id")
	if err != nil {
		return user, err
	}

	if err := s.db.Preload("Role").Preload("Client").First(&user, id).Error; err != nil {
		log.Warn().Err(err).Int("user_id", id).Msg("user not found")
		return user, err
	}

	return user, nil
}

func (s *Service) formChoices() ([]models.Role, []models.Client, error) {
	var roles []models.Role
	if err := s.db.Order("name ASC").Find(&roles).Error; err != nil {
		log.Error().Err(err).Msg("failed to load roles")
		return nil, nil, err
	}

	var clients []models.Client
	if err := s.db.Where("active = ?", true).Order("name ASC").Find(&clients).Error; err != nil {
		log.Error().Err(err).Msg("failed to load clients")
		return nil, nil, err
	}

	return roles, clients, nil
}

func (s *Service) renderFormError(c *fiber.Ctx, title string, user models.User, msg string) error {
	nav := s.nav(title, false).AddBreadcrumb(title, "#", true)

	roles, clients, _ := s.formChoices()

	return c.Status(fiber.StatusBadRequest).Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"User":       user,
		"Roles":      roles,
		"Clients":    clients,
		"Error":      msg,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}
