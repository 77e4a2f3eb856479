// Package server wires the vault together: it derives the storage key,
// opens and migrates the database, builds the services and runs the HTTP
// API until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/api"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/server/objectstore"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/passvault/internal/server/services"
	"github.com/dmitrijs2005/passvault/internal/vault"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	userService  *services.UserService
	entryService *services.EntryService
}

// NewApp builds every component from cfg. The database is opened and
// migrated here, so a returned App is ready to serve.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	logger = logger.With("module", "app")

	salt := []byte(cfg.KDFSalt)
	if len(salt) == 0 {
		logger.Warn(ctx, "KDF salt not configured, using the legacy build-wide salt")
		salt = cryptox.LegacyKDFSalt
	}
	key := cryptox.DeriveKey([]byte(cfg.SecretKey), salt)
	logger.Info(ctx, "Storage key derived", "fingerprint", key.Fingerprint())

	dialect, err := dbx.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	db, err := repomanager.Open(ctx, dialect, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewSQLRepositoryManager(dialect)
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	logger.Info(ctx, "Database ready", "driver", dialect)

	codec := vault.NewCodec(cryptox.NewCipher(key))
	presigner := objectstore.NewS3Presigner(objectstore.Settings{
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Validity:     cfg.LogoURLValidity,
	})

	us := services.NewUserService(db, rm, cryptox.NewPasswordHasher(), cfg)
	es := services.NewEntryService(db, rm, codec, presigner, logger)

	return &App{config: cfg, logger: logger, db: db, userService: us, entryService: es}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := api.NewServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.entryService, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(context.Background(), "Stopped")
}
