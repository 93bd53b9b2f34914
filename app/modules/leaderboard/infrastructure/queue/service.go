package leaderboardqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	leaderboardservice "github.com/campus-coders-club/cp-board/app/modules/leaderboard/application"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

const queueLeaderboard = "leaderboard"

// Config tunes the queue service.
type Config struct {
	// Daily schedule for the recurring refresh; zero value disables it.
	Schedule DailySchedule
}

// Service schedules leaderboard refresh work on River. It implements the
// application's RefreshScheduler; its workers call back into the service
// assigned via SetRunner.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics observability.Metrics

	mu     sync.RWMutex
	runner RefreshRunner
}

var _ leaderboardservice.RefreshScheduler = (*Service)(nil)

// NewService creates a River-based queue service for leaderboard refresh
// scheduling. River requires its own pgx pool; bun keeps its database/sql
// pool separately.
func NewService(ctx context.Context, dsn string, logger *slog.Logger, metrics observability.Metrics, cfg Config) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing leaderboard queue service")

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		ctxLogger.Error("Failed to create pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	service := &Service{
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewBatchWorker(service, ctxLogger))
	river.AddWorker(workers, NewRankWorker(service, ctxLogger))
	river.AddWorker(workers, NewRefreshWorker(service, ctxLogger))

	riverConfig := &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			// One worker keeps batches sequential even when a batch overruns
			// its slot, bounding concurrent outbound request volume.
			queueLeaderboard: {MaxWorkers: 1},
		},
		Workers: workers,
	}

	if cfg.Schedule.Location != nil {
		riverConfig.PeriodicJobs = []*river.PeriodicJob{
			river.NewPeriodicJob(
				cfg.Schedule,
				func() (river.JobArgs, *river.InsertOpts) {
					return RefreshJobArgs{Source: sharedtypes.RefreshSourceScheduled}, &river.InsertOpts{
						Queue: river.QueueDefault,
					}
				},
				&river.PeriodicJobOpts{RunOnStart: false},
			),
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), riverConfig)
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	service.client = client

	duration := time.Since(start)
	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", duration)

	ctxLogger.Info("Leaderboard queue service initialized successfully")
	return service, nil
}

// SetRunner late-binds the leaderboard service the workers call. Must be
// called before Start.
func (s *Service) SetRunner(runner RefreshRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = runner
}

// Runner returns the assigned runner, or nil before SetRunner.
func (s *Service) Runner() RefreshRunner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runner
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting leaderboard queue service")
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

// Stop stops the River client and closes its pool.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping leaderboard queue service")
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	return nil
}

// ScheduleBatch enqueues one batch job at its staggered offset. Uniqueness
// by args prevents duplicate scheduling of the same batch within a cycle.
func (s *Service) ScheduleBatch(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64, runAt time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_batch", "river")

	job := BatchJobArgs{
		CycleID:    cycleID,
		BatchIndex: batchIndex,
		UserIDs:    userIDs,
	}

	result, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       queueLeaderboard,
		ScheduledAt: runAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.logger.Error("Failed to schedule batch job",
			attr.UUID("cycle_id", cycleID),
			attr.Int("batch_index", batchIndex),
			attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_batch", "river")
		return fmt.Errorf("failed to schedule batch job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_batch", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_batch", "river", time.Since(start))

	s.logger.Info("Batch job scheduled",
		attr.UUID("cycle_id", cycleID),
		attr.Int("batch_index", batchIndex),
		attr.Time("run_at", runAt),
		attr.Int64("job_id", result.Job.ID))
	return nil
}

// ScheduleRankFallback enqueues the timer-derived rank job for a cycle.
func (s *Service) ScheduleRankFallback(ctx context.Context, cycleID uuid.UUID, runAt time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_rank_fallback", "river")

	result, err := s.client.Insert(ctx, RankJobArgs{CycleID: cycleID}, &river.InsertOpts{
		Queue:       river.QueueDefault,
		ScheduledAt: runAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.logger.Error("Failed to schedule rank fallback job",
			attr.UUID("cycle_id", cycleID),
			attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_rank_fallback", "river")
		return fmt.Errorf("failed to schedule rank fallback job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_rank_fallback", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_rank_fallback", "river", time.Since(start))

	s.logger.Info("Rank fallback job scheduled",
		attr.UUID("cycle_id", cycleID),
		attr.Time("run_at", runAt),
		attr.Int64("job_id", result.Job.ID))
	return nil
}

// HealthCheck verifies the queue's database connectivity.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}
