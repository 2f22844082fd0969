// Package server wires the kokoto services together and runs the HTTP API
// and the gRPC health endpoint until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/blobs"
	"github.com/hatamake/kokoto-httpd/internal/server/cache"
	"github.com/hatamake/kokoto-httpd/internal/server/config"
	"github.com/hatamake/kokoto-httpd/internal/server/httpapi"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
	"github.com/hatamake/kokoto-httpd/internal/server/services"

	gs "github.com/hatamake/kokoto-httpd/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	store  cache.Store
	http   *httpapi.Server
	health *gs.HealthServer
}

// NewApp connects the database and the cache, applies pending migrations and
// builds the servers.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewRepositoryManager(c.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var store cache.Store = cache.NopStore{}
	if c.RedisAddr != "" {
		store = cache.NewRedisStore(cache.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			TTL:      c.CacheTTL,
		})
	} else {
		logger.Warn(ctx, "no redis address configured, caching disabled")
	}

	deps := services.Deps{
		DB:          db,
		Repos:       rm,
		Cache:       cache.New(store, logger),
		Invalidator: cache.NewCoarseInvalidator(store, logger),
		Log:         logger,
		Config:      c,
	}
	presigner := blobs.NewPresigner(blobs.Options{
		Region:   c.S3Region,
		User:     c.S3RootUser,
		Password: c.S3RootPassword,
		Bucket:   c.S3Bucket,
		Endpoint: c.S3BaseEndpoint,
	})

	api := httpapi.NewServer(c.EndpointAddrHTTP, logger, httpapi.Services{
		Users:            services.NewUserService(db, rm, c),
		Documents:        services.NewDocumentService(deps),
		Files:            services.NewFileService(deps, presigner),
		Tags:             services.NewTagService(deps),
		DocumentComments: services.NewDocumentCommentService(deps),
		FileComments:     services.NewFileCommentService(deps),
	}, c.Site, c.Debug)

	health := gs.NewHealthServer(c.EndpointAddrGRPC, logger, 0,
		gs.Check{Name: "database", Ping: db.PingContext},
		gs.Check{Name: "cache", Ping: store.Ping},
	)

	return &App{config: c, logger: logger, db: db, store: store, http: api, health: health}, nil
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
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or a server fails, then releases the
// database and the cache.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Warn(ctx, "cache close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
