// Package server initializes and runs the vault server: it opens the
// database, applies migrations, wires repositories into services, and serves
// the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/hevault-io/hevault/internal/logging"
	"github.com/hevault-io/hevault/internal/server/blobstore"
	"github.com/hevault-io/hevault/internal/server/config"
	"github.com/hevault-io/hevault/internal/server/engine"
	"github.com/hevault-io/hevault/internal/server/httpapi"
	"github.com/hevault-io/hevault/internal/server/repositories/repomanager"
	"github.com/hevault-io/hevault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.HTTPServer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs := blobstore.New(cfg.UploadRoot)
	runner := engine.NewRunner(cfg.EngineBin, cfg.EngineBinFallback, cfg.EngineOutputLimit, logger)

	httpServer := httpapi.NewHTTPServer(
		cfg.EndpointAddr,
		logger,
		services.NewUserService(db, rm, blobs, cfg, logger),
		services.NewFolderService(db, rm),
		services.NewFileService(db, rm, blobs, logger),
		services.NewDictionaryService(db, rm),
		services.NewDeletionService(db, rm, blobs, logger),
		services.NewSearchService(db, rm, blobs, logger),
		runner,
	)

	return &App{config: cfg, logger: logger, db: db, http: httpServer}, nil
}

// Run serves until the context is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.http.Run(ctx)
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}

	return err
}
