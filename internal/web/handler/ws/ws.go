// Package ws upgrades authenticated requests to the websocket channel the
// per-ticket chat rides on.
package ws

import (
	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/chat"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler"
)

// Path is the websocket endpoint.
const Path = handler.RootPath + "ws"

// Service is the websocket handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	chat *chat.Service
}

// Handler is the exported instance.
var Handler = Service{}

var upgrader = websocket.FastHTTPUpgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Init registers the websocket route. Authentication is enforced by the
// session middleware; there is no per-route permission: room access rides
// on ticket visibility.
func (s *Service) Init(app *fiber.App, cfg *config.Config, chatService *chat.Service) {
	if app == nil || cfg == nil || chatService == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.chat = chatService

	app.Get(Path, s.Get)
}

// Get upgrades the connection and serves it until the peer disconnects.
func (s *Service) Get(c *fiber.Ctx) error {
	user, ok := c.Locals("CurrentUser").(models.User)
	if !ok || user.ID == 0 {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	err := upgrader.Upgrade(c.Context(), func(conn *websocket.Conn) {
		client := chat.NewClient(s.chat, conn, user)
		client.Serve()
	})
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("websocket upgrade failed")
		return fiber.ErrUpgradeRequired
	}

	return nil
}
