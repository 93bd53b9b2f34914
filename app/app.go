package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/campus-coders-club/cp-board/app/modules/leaderboard"
	"github.com/campus-coders-club/cp-board/app/modules/user"
	"github.com/campus-coders-club/cp-board/config"
	"github.com/campus-coders-club/cp-board/db/bundb"
	"github.com/campus-coders-club/cp-board/internal/eventbus"
	"github.com/campus-coders-club/cp-board/internal/observability"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

const httpShutdownTimeout = 10 * time.Second

// App wires configuration, storage, modules, and the HTTP server.
type App struct {
	Config            *config.Config
	Observability     *observability.Observability
	UserModule        *user.Module
	LeaderboardModule *leaderboard.Module

	db        *bundb.DBService
	publisher eventbus.Publisher
	router    chi.Router
	server    *http.Server
}

// NewApp initializes the application.
func NewApp(ctx context.Context, cfg *config.Config, obs *observability.Observability) (*App, error) {
	logger := obs.Logger

	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	var publisher eventbus.Publisher = eventbus.NoOpPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := eventbus.NewNatsPublisher(cfg.NATS.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = natsPublisher
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	userModule := user.NewModule(ctx, obs, dbService.GetDB())

	leaderboardModule, err := leaderboard.NewModule(
		ctx,
		cfg,
		obs,
		publisher,
		userModule.Repository(),
		router,
		dbService.GetDB(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}

	app := &App{
		Config:            cfg,
		Observability:     obs,
		UserModule:        userModule,
		LeaderboardModule: leaderboardModule,
		db:                dbService,
		publisher:         publisher,
		router:            router,
	}

	router.Get("/healthz", app.handleHealthz)

	app.server = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return app, nil
}

func (app *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := app.db.GetDB().PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Run starts the modules and the HTTP server and blocks until ctx is done.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	app.Observability.ServeMetrics(ctx, app.Config.Observability.MetricsAddress)

	var wg sync.WaitGroup
	wg.Add(1)
	go app.LeaderboardModule.Run(ctx, &wg)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", attr.String("address", app.Config.HTTP.Address))
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", attr.Error(err))
	}

	wg.Wait()
	return nil
}

// Close releases the application's resources.
func (app *App) Close() error {
	logger := app.Observability.Logger

	if err := app.LeaderboardModule.Close(); err != nil {
		logger.Error("Error closing leaderboard module", attr.Error(err))
	}

	app.publisher.Close()

	if err := app.db.GetDB().Close(); err != nil {
		return fmt.Errorf("error closing database connection: %w", err)
	}
	return nil
}
