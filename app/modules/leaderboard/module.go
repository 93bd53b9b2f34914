package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"

	leaderboardservice "github.com/campus-coders-club/cp-board/app/modules/leaderboard/application"
	leaderboardhandlers "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/handlers"
	leaderboardqueue "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/queue"
	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
	platformclients "github.com/campus-coders-club/cp-board/app/modules/platform/infrastructure/clients"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/config"
	"github.com/campus-coders-club/cp-board/internal/eventbus"
	"github.com/campus-coders-club/cp-board/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Module is the leaderboard refresh engine: platform clients, cycle store,
// River scheduling, and the HTTP surface.
type Module struct {
	config       *config.Config
	service      leaderboardservice.Service
	queueService *leaderboardqueue.Service
	handlers     *leaderboardhandlers.Handlers
	cancelFunc   context.CancelFunc
	logger       *slog.Logger
}

// NewModule creates the leaderboard module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	publisher eventbus.Publisher,
	userRepo userdb.Repository,
	httpRouter chi.Router,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger

	logger.InfoContext(ctx, "Initializing leaderboard module")

	cycleRepo := &leaderboarddb.CycleDBImpl{DB: db}

	fetchers := newStatFetchers(cfg.Platforms, logger)

	schedule, err := leaderboardqueue.ParseDailySchedule(cfg.Leaderboard.RefreshAt, cfg.Leaderboard.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to parse refresh schedule: %w", err)
	}

	queueService, err := leaderboardqueue.NewService(ctx, cfg.Postgres.DSN, logger, obs.Metrics, leaderboardqueue.Config{
		Schedule: schedule,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create queue service: %w", err)
	}

	service := leaderboardservice.NewLeaderboardService(
		userRepo,
		cycleRepo,
		fetchers,
		queueService,
		publisher,
		logger,
		obs.Metrics,
		obs.Tracer,
		leaderboardservice.Config{
			BatchSize:      cfg.Leaderboard.BatchSize,
			UpdateInterval: cfg.Leaderboard.UpdateInterval,
			SettleDelay:    cfg.Leaderboard.SettleDelay,
		},
	)
	queueService.SetRunner(service)

	handlers := leaderboardhandlers.NewHandlers(service, logger)
	if httpRouter != nil {
		handlers.RegisterRoutes(httpRouter)
	}

	return &Module{
		config:       cfg,
		service:      service,
		queueService: queueService,
		handlers:     handlers,
		logger:       logger,
	}, nil
}

func newStatFetchers(cfg config.PlatformsConfig, logger *slog.Logger) map[sharedtypes.Platform]platformclients.StatFetcher {
	limiter := func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return map[sharedtypes.Platform]platformclients.StatFetcher{
		sharedtypes.PlatformCodeChef:   platformclients.NewCodeChefClient(cfg.CodeChefBaseURL, nil, limiter(), logger),
		sharedtypes.PlatformCodeforces: platformclients.NewCodeforcesClient(cfg.CodeforcesBaseURL, nil, limiter(), logger),
		sharedtypes.PlatformLeetCode:   platformclients.NewLeetCodeClient(cfg.LeetCodeBaseURL, nil, limiter(), logger),
		sharedtypes.PlatformGitHub:     platformclients.NewGitHubClient(cfg.GitHubBaseURL, cfg.GitHubToken, limiter(), logger),
	}
}

// Run starts the queue workers and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.queueService.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start leaderboard queue", "error", err)
		return
	}

	m.logger.InfoContext(ctx, "Leaderboard module started",
		"refresh_at", m.config.Leaderboard.RefreshAt,
		"timezone", m.config.Leaderboard.Timezone,
	)

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the leaderboard module.
func (m *Module) Close() error {
	m.logger.Info("Stopping leaderboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.queueService != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.queueService.Stop(stopCtx); err != nil {
			m.logger.Error("Error stopping leaderboard queue", "error", err)
			return fmt.Errorf("error stopping queue: %w", err)
		}
	}

	m.logger.Info("Leaderboard module stopped")
	return nil
}

// GetService returns the leaderboard service for use by other modules.
func (m *Module) GetService() leaderboardservice.Service {
	return m.service
}
