// Package web wires the HTTP surface: the fiber app, template engine,
// session-backed authentication, permission-gated handlers and the
// websocket chat endpoint.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/authz"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/chat"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	fiberlogger "github.com/AdoDeveloper/cpe-system-sub000/internal/logger/adapter/fiber"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/storage"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/ticket"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/admin/module"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/admin/role"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/admin/user"
	clienthandler "github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/client"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/dashboard"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/login"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/logout"
	tickethandler "github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/ticket"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/handler/ws"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/navigation"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *authz.Service
	hub          *chat.Hub
	engine       *ticket.Engine
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration, database and
// object storage collaborator.
func New(cfg *config.Config, db *gorm.DB, store storage.Store) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	// Add template helper functions
	templateEngine.AddFunc("iterate", func(count int) []int {
		result := make([]int, count)
		for i := range result {
			result[i] = i
		}

		return result
	})
	templateEngine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	templateEngine.AddFunc("sub", func(a, b int) int {
		return a - b
	})
	templateEngine.AddFunc("deref", func(p *uint) uint {
		if p == nil {
			return 0
		}

		return *p
	})
	templateEngine.AddFunc("deref64", func(p *uint64) uint64 {
		if p == nil {
			return 0
		}

		return *p
	})
	templateEngine.AddFunc("menuItems", func(v any) []navigation.MenuItem {
		if visibility, ok := v.(authz.Visibility); ok {
			return navigation.BuildMenu(visibility)
		}

		return nil
	})

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     false,
			},
		),
	)

	// basic auth middleware
	app.Use(AuthMiddleware)

	// Initialize authz service
	authService := authz.NewService(db)

	// Add resolved module visibility to fiber.Locals (after auth)
	app.Use(authz.AddMenuToLocals(authService))

	// realtime channel and ticket engine share the hub: chat broadcasts
	// messages, the engine broadcasts status changes
	hub := chat.NewHub()
	chatService := chat.NewService(db, store, hub)
	engine := ticket.NewEngine(db, store, hub)

	// init web service
	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
		hub:         hub,
		engine:      engine,
	}

	// init handlers (they register their own routes with permission checks)
	if err := login.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	logout.Handler.Init(app, cfg)
	dashboard.Handler.Init(app, cfg, db, authService)
	clienthandler.Handler.Init(app, cfg, db, authService)
	module.Handler.Init(app, cfg, db, authService)
	role.Handler.Init(app, cfg, db, authService)
	user.Handler.Init(app, cfg, db, authService)
	tickethandler.Handler.Init(app, cfg, db, authService, engine)
	ws.Handler.Init(app, cfg, chatService)

	// redirect root to dashboard
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	return service
}
