package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/storage"
	sessionmemory "github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/GoAD-Admin/GoAD-Admin/internal/auth"
	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/dsn"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/models"
	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
	"github.com/GoAD-Admin/GoAD-Admin/internal/logger"
	"github.com/GoAD-Admin/GoAD-Admin/internal/management"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
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

	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}

	db := openDatabase(cfg)

	if err := db.AutoMigrate(
		&models.DelegationRule{},
	); err != nil {
		panic("failed to migrate database")
	}

	seed(cfg, db)

	session.Init(sessionStorage(cfg))

	gateway := directory.NewLDAPGateway(cfg.AD)
	mgmtService := management.NewService(db, gateway)
	authService := auth.NewService(cfg.AD, gateway)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, mgmtService, authService),
	}
}

// openDatabase opens the configured database engine with gorm.
func openDatabase(cfg *config.Config) *gorm.DB {
	var dbDriver gorm.Dialector

	switch cfg.DB.GormEngine {
	case "postgres":
		dbDriver = gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		dbDriver = sqlite.Open(dsn.Create(cfg))
	default:
		dbDriver = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dbDriver, &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	return db
}

// sessionStorage picks the session backend matching the database engine.
// The sqlite engine keeps sessions in memory, they do not survive a restart.
func sessionStorage(cfg *config.Config) storage.Storage {
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
