package leaderboardservice

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
	platformclients "github.com/campus-coders-club/cp-board/app/modules/platform/infrastructure/clients"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/eventbus"
	"github.com/campus-coders-club/cp-board/internal/observability"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// Config tunes the refresh engine.
type Config struct {
	BatchSize      int
	UpdateInterval time.Duration
	SettleDelay    time.Duration
	// WaitPollInterval is how often a synchronous Refresh polls the cycle.
	WaitPollInterval time.Duration
}

// LeaderboardService implements Service.
type LeaderboardService struct {
	users     userdb.Repository
	cycles    leaderboarddb.Repository
	fetchers  map[sharedtypes.Platform]platformclients.StatFetcher
	scheduler RefreshScheduler
	publisher eventbus.Publisher
	logger    *slog.Logger
	metrics   observability.Metrics
	tracer    trace.Tracer
	cfg       Config

	serviceWrapper func(ctx context.Context, operationName string, fn func(ctx context.Context) error) error
}

var _ Service = (*LeaderboardService)(nil)

// NewLeaderboardService wires the refresh engine.
func NewLeaderboardService(
	users userdb.Repository,
	cycles leaderboarddb.Repository,
	fetchers map[sharedtypes.Platform]platformclients.StatFetcher,
	scheduler RefreshScheduler,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	cfg Config,
) *LeaderboardService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = 60 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 5 * time.Second
	}
	if cfg.WaitPollInterval <= 0 {
		cfg.WaitPollInterval = time.Second
	}

	s := &LeaderboardService{
		users:     users,
		cycles:    cycles,
		fetchers:  fetchers,
		scheduler: scheduler,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		cfg:       cfg,
	}
	s.serviceWrapper = s.wrapOperation
	return s
}

// wrapOperation records metrics and a span around one service operation.
func (s *LeaderboardService) wrapOperation(ctx context.Context, operationName string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operationName)
	defer span.End()

	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operationName, "leaderboard")

	err := fn(ctx)

	duration := time.Since(start)
	s.metrics.RecordOperationDuration(ctx, operationName, "leaderboard", duration)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operationName)
		s.metrics.RecordOperationFailure(ctx, operationName, "leaderboard")
		s.logger.ErrorContext(ctx, "operation failed",
			attr.String("operation", operationName),
			attr.Duration("duration", duration),
			attr.Error(err))
		return err
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "leaderboard")
	return nil
}
