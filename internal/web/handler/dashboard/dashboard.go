// Package dashboard provides the landing page: ticket counts per state,
// client totals and the current user's pending notifications.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/authz"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/controller/notification"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/navigation"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/session"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"

	// RecentTicketCount is how many recent tickets the dashboard shows.
	RecentTicketCount = 10
)

// Stats holds the counters rendered on the dashboard.
type Stats struct {
	TicketsSubmitted  int64
	TicketsInProgress int64
	TicketsCompleted  int64
	ActiveClients     int64
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path, s.Get)
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Home", Path, false).
		AddBreadcrumb("Dashboard", Path, true)

	var stats Stats

	countTickets := func(status models.TicketStatus, dest *int64) {
		if err := s.db.Model(&models.Ticket{}).Where("status = ?", status).Count(dest).Error; err != nil {
			log.Error().Err(err).Str("status", string(status)).Msg("failed to count tickets")
		}
	}

	countTickets(models.TicketStatusSubmitted, &stats.TicketsSubmitted)
	countTickets(models.TicketStatusInProgress, &stats.TicketsInProgress)
	countTickets(models.TicketStatusCompleted, &stats.TicketsCompleted)

	if err := s.db.Model(&models.Client{}).Where("active = ?", true).Count(&stats.ActiveClients).Error; err != nil {
		log.Error().Err(err).Msg("failed to count clients")
	}

	var recent []models.Ticket

	err := s.db.Preload("Client").Preload("Resolver").
		Order("created_at DESC").Limit(RecentTicketCount).
		Find(&recent).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to load recent tickets")
	}

	var notifications []models.Notification

	if user, ok := c.Locals("CurrentUser").(models.User); ok {
		notifications, err = notification.ListForUser(s.db, user.ID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to load notifications")
		}
	} else if sessionID := c.Cookies("session"); sessionID != "" {
		sessionData := new(session.Data)
		if readErr := sessionData.Read(sessionID); readErr == nil && sessionData.User.ID > 0 {
			notifications, err = notification.ListForUser(s.db, sessionData.User.ID)
			if err != nil {
				log.Error().Err(err).Msg("failed to load notifications")
			}
		}
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation":    nav,
		"Stats":         stats,
		"RecentTickets": recent,
		"Notifications": notifications,
		"Menu":          c.Locals("Menu"),
	}, handler.BaseLayout)
}
