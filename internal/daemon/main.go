// Package daemon wires up the database, object storage, session store and
// web service into the running application.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	fiberstorage "github.com/gofiber/storage"
	sessionmemory "github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/config"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/dsn"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/storage"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web"
	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.Client{},
		&models.Module{},
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.User{},
		&models.Ticket{},
		&models.TicketMessage{},
		&models.Notification{},
	); err != nil {
		panic("failed to migrate database")
	}

	seed(cfg, db)

	session.Init(sessionStorage(cfg))

	return &Daemon{
		cfg:        cfg,
		webService: *web.New(cfg, db, objectStore(cfg)),
	}
}

func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case "postgres":
		return gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		return sqlite.Open(dsn.Create(cfg))
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

// sessionStorage picks a fiber session backend matching the configured
// database engine. The sqlite engine keeps sessions in memory; it exists
// for development where logins not surviving a restart is acceptable.
func sessionStorage(cfg *config.Config) fiberstorage.Storage {
	switch cfg.DB.GormEngine {
	case "postgres":
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	case "sqlite":
		return sessionmemory.New()
	default:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}
}

func objectStore(cfg *config.Config) storage.Store {
	if !cfg.Storage.Enabled {
		log.Warn().Msg("object storage disabled, attachments will be dropped")
		return storage.Disabled{}
	}

	store, err := storage.NewS3(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
		return nil
	}

	return store
}
