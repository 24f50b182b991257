// Package ticket provides the web handlers driving the ticket lifecycle
// engine: listing, creation, editing, deletion, status changes and the
// per-ticket timeline with its chat history.
package ticket

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/authz"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/ticket"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/dashboard"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/navigation"
)

const (
	// Path is the base path for ticket management.
	Path = handler.RootPath + "tickets"

	// TemplateList is the template for listing tickets.
	TemplateList = "ticket/list"
	// TemplateForm is the template for creating/updating a ticket.
	TemplateForm = "ticket/form"
	// TemplateTimeline is the template for the per-ticket timeline and chat.
	TemplateTimeline = "ticket/timeline"
)

// form is the ticket form payload. Coordinates is the raw "lat,lon" string.
type form struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Type        string `form:"type"`
	ClientID    uint   `form:"clientId"`
	ResolverID  uint64 `form:"resolverId"`
	Address     string `form:"address"`
	Coordinates string `form:"coordinates"`
}

// Service provides the ticket web handlers on top of the lifecycle engine.
type Service struct {
	handler.Service
	cfg    *config.Config
	db     *gorm.DB
	engine *ticket.Engine
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service, engine *ticket.Engine) {
	if app == nil || cfg == nil || db == nil || engine == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.engine = engine

	guard := authz.RequireAccess(authService)

	app.Get(Path, guard, s.List)
	app.Get(Path+"/new", guard, s.New)
	app.Post(Path, guard, s.Create)
	app.Get(Path+"/edit/:id", guard, s.Edit)
	app.Put(Path+"/edit/:id", guard, s.Update)
	app.Post(Path+"/edit/:id", guard, s.Update)
	app.Delete(Path+"/delete/:id", guard, s.Delete)
	app.Post(Path+"/delete/:id", guard, s.Delete)
	app.Get(Path+"/timeline/:id", guard, s.Timeline)
	app.Put(Path+"/:id/updatestatus", guard, s.UpdateStatus)
	app.Post(Path+"/:id/updatestatus", guard, s.UpdateStatus)
}

func (s *Service) nav(pageTitle string, listActive bool) *navigation.Context {
	return navigation.NewContext(pageTitle, "tickets", "ticket").
		AddBreadcrumb("Home", dashboard.Path, false).
		AddBreadcrumb("Tickets", Path, listActive)
}

// identity builds the engine identity from the authenticated session user.
func identity(c *fiber.Ctx) (ticket.Identity, bool) {
	user, ok := c.Locals("CurrentUser").(models.User)
	if !ok || user.ID == 0 {
		return ticket.Identity{}, false
	}

	return ticket.Identity{
		UserID:   user.ID,
		RoleName: user.Role.Name,
		ClientID: user.ClientID,
	}, true
}

// List shows the tickets visible to the current user.
func (s *Service) List(c *fiber.Ctx) error {
	nav := s.nav("Tickets", true)

	who, ok := identity(c)
	if !ok {
		return c.Redirect("/login")
	}

	tickets, err := s.engine.List(who)
	if err != nil {
		log.Error().Err(err).Msg("failed to load tickets")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load tickets",
			"Menu":       c.Locals("Menu"),
		}, handler.BaseLayout)
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"Tickets":    tickets,
		"IsClient":   who.RoleName == models.RoleNameClient,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	nav := s.nav("New Ticket", false).AddBreadcrumb("New", Path+"/new", true)

	who, ok := identity(c)
	if !ok {
		return c.Redirect("/login")
	}

	clients, resolvers, err := s.formChoices()
	if err != nil {
		return c.Redirect(Path)
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": nav,
		"Ticket":     models.Ticket{Type: models.TicketTypeResolution},
		"Clients":    clients,
		"Resolvers":  resolvers,
		"IsClient":   who.RoleName == models.RoleNameClient,
		"Menu":       c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Create validates the form and hands it to the lifecycle engine.
func (s *Service) Create(c *fiber.Ctx) error {
	who, ok := identity(c)
	if !ok {
		return c.Redirect("/login")
	}

	in, err := s.parseForm(c)
	if err != nil {
		return s.renderFormError(c, "New Ticket", models.Ticket{}, "Invalid form data")
	}

	created, err := s.engine.Create(c.Context(), who, in)
	if err != nil {
		return s.handleEngineError(c, "New Ticket", models.Ticket{
			Title:       in.Title,
			Description: in.Description,
			Type:        in.Type,
			Address:     in.Address,
		}, err)
	}

	log.Info().Str("ticket", created.Number).Uint64("creator", who.UserID).Msg("ticket created")

	return c.Redirect(Path)
}

// Edit shows the edit form.
func (s *Service) Edit(c *fiber.Ctx) error {
	t, err := s.loadFromParams(c)
	if err != nil {
		return c.Redirect(Path)
	}

	nav := s.nav("Edit Ticket", false).AddBreadcrumb(t.Number, "#", true)

	clients, resolvers, err := s.formChoices()
	if err != nil {
		return c.Redirect(Path)
	}

	coordinates := ""
	if t.Latitude != 0 || t.Longitude != 0 {
		coordinates = strconv.FormatFloat(t.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(t.Longitude, 'f', -1, 64)
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation":  nav,
		"Ticket":      t,
		"Coordinates": coordinates,
		"Clients":     clients,
		"Resolvers":   resolvers,
		"Menu":        c.Locals("Menu"),
	}, handler.BaseLayout)
}

// Update applies the form to an existing ticket through the engine.
func (s *Service) Update(c *fiber.Ctx) error {
	t, err := s.loadFromParams(c)
	if err != nil {
		return c.Redirect(Path)
	}

	in, err := s.parseForm(c)
	if err != nil {
		return s.renderFormError(c, "Edit Ticket", *t, "Invalid form data")
	}

	if _, err := s.engine.Update(c.Context(), t.ID, in); err != nil {
		return s.handleEngineError(c, "Edit Ticket", *t, err)
	}

	return c.Redirect(Path)
}

// Delete removes a ticket and everything attached to it.
func (s *Service) Delete(c *fiber.Ctx) error {
	t, err := s.loadFromParams(c)
	if err != nil {
		return c.Redirect(Path)
	}

	if err := s.engine.Delete(c.Context(), t.ID); err != nil {
		log.Error().Err(err).Str("ticket", t.Number).Msg("failed to delete ticket")
	}

	return c.Redirect(Path)
}

// Timeline shows the ticket detail with its full message history; the chat
// rides the websocket channel from there.
func (s *Service) Timeline(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Redirect(Path)
	}

	who, ok := identity(c)
	if !ok {
		return c.Redirect("/login")
	}

	t, messages, err := s.engine.Timeline(who, uint(id))
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return c.Redirect(Path)
		}

		log.Error().Err(err).Int("ticket_id", id).Msg("failed to load ticket timeline")

		return c.Redirect(Path)
	}

	nav := s.nav(t.Number, false).AddBreadcrumb(t.Number, "#", true)

	var currentUserID uint64
	if user, ok := c.Locals("CurrentUser").(models.User); ok {
		currentUserID = user.ID
	}

	return c.Render(TemplateTimeline, fiber.Map{
		"Navigation":    nav,
		"Ticket":        t,
		"Messages":      messages,
		"CurrentUserID": currentUserID,
		"Closed":        t.Status == models.TicketStatusCompleted,
		"Menu":          c.Locals("Menu"),
	}, handler.BaseLayout)
}

// UpdateStatus moves a ticket to the requested lifecycle state.
func (s *Service) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid ticket id"})
	}

	next := models.TicketStatus(c.FormValue("status"))

	updated, err := s.engine.UpdateStatus(uint(id), next)
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrTicketNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ticket.ErrInvalidStatus), errors.Is(err, ticket.ErrInvalidTransition):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			log.Error().Err(err).Int("ticket_id", id).Msg("failed to update ticket status")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update status"})
		}
	}

	return c.JSON(fiber.Map{
		"ticketId": updated.ID,
		"status":   updated.Status,
	})
}

// parseForm reads the form fields and the optional attachment into an
// engine input.
func (s *Service) parseForm(c *fiber.Ctx) (ticket.Input, error) {
	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return ticket.Input{}, err
	}

	out := ticket.Input{
		Title:       in.Title,
		Description: in.Description,
		Type:        models.TicketType(in.Type),
		ClientID:    in.ClientID,
		Address:     in.Address,
		Coordinates: in.Coordinates,
	}

	if in.ResolverID != 0 {
		out.ResolverID = &in.ResolverID
	}

	file, err := c.FormFile("image")
	if err == nil && file != nil {
		attachment, err := readAttachment(file)
		if err != nil {
			return ticket.Input{}, err
		}

		out.Attachment = attachment
	}

	return out, nil
}

func readAttachment(file *multipart.FileHeader) (*ticket.Attachment, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &ticket.Attachment{Data: data, ContentType: contentType}, nil
}

func (s *Service) loadFromParams(c *fiber.Ctx) (*models.Ticket, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, err
	}

	t, err := s.engine.Get(uint(id))
	if err != nil {
		log.Warn().Err(err).Int("ticket_id", id).Msg("ticket not found")
		return nil, err
	}

	return t, nil
}

func (s *Service) formChoices() ([]models.Client, []models.User, error) {
	var clients []models.Client
	if err := s.db.Where("active = ?", true).Order("name ASC").Find(&clients).Error; err != nil {
		log.Error().Err(err).Msg("failed to load clients")
		return nil, nil, err
	}

	// staff users double as resolver candidates
	var resolvers []models.User
	err := s.db.Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.active = ? AND roles.name <> ?", true, models.RoleNameClient).
		Order("users.name ASC").
		Find(&resolvers).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to load resolver candidates")
		return nil, nil, err
	}

	return clients, resolvers, nil
}

// handleEngineError maps engine validation failures onto the form with a
// message; anything unexpected becomes a generic failure.
func (s *Service) handleEngineError(c *fiber.Ctx, title string, t models.Ticket, err error) error {
	switch {
	case errors.Is(err, ticket.ErrTitleRequired),
		errors.Is(err, ticket.ErrInvalidType),
		errors.Is(err, ticket.ErrInvalidCoordinates),
		errors.Is(err, ticket.ErrAddressRequired),
		errors.Is(err, ticket.ErrClientRequired),
		errors.Is(err, ticket.ErrClientRecordMissing):
		return s.renderFormError(c, title, t, err.Error())
	default:
		log.Error().Err(err).Msg("ticket operation failed")
		return s.renderFormError(c, title, t, "Something went wrong, please try again")
	}
}

func (s *Service) renderFormError(c *fiber.Ctx, title string, t models.Ticket, msg string) error {
	nav := s.nav(title, false).AddBreadcrumb(title, "#", true)

	clients, resolvers, _ := s.formChoices()

	coordinates := ""
	if t.Latitude != 0 || t.Longitude != 0 {
		coordinates = strconv.FormatFloat(t.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(t.Longitude, 'f', -1, 64)
	}

	return c.Status(fiber.StatusBadRequest).Render(TemplateForm, fiber.Map{
		"Navigation":  nav,
		"Ticket":      t,
		"Coordinates": coordinates,
		"Clients":     clients,
		"Resolvers":   resolvers,
		"Error":       msg,
		"Menu":        c.Locals("Menu"),
	}, handler.BaseLayout)
}
