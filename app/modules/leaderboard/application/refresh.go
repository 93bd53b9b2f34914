package leaderboardservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/internal/eventbus"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// Refresh is the single refresh entry point, shared by the daily periodic
// job and the manual HTTP trigger. It lists all users, creates a refresh
// cycle, and schedules one job per batch at staggered offsets plus the
// fallback rank job. Fire-and-schedule: without opts.Wait it returns as soon
// as everything is enqueued.
func (s *LeaderboardService) Refresh(ctx context.Context, opts RefreshOptions) (*RefreshReceipt, error) {
	var receipt *RefreshReceipt

	err := s.serviceWrapper(ctx, "Refresh", func(ctx context.Context) error {
		users, err := s.users.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users for refresh: %w", err)
		}

		ids := make([]int64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		batches := PartitionIDs(ids, s.cfg.BatchSize)

		cycle := &leaderboarddb.RefreshCycle{
			Source:       opts.Source,
			State:        leaderboarddb.CycleStateRunning,
			UserCount:    len(users),
			TotalBatches: len(batches),
			StartedAt:    time.Now(),
		}
		if err := s.cycles.CreateCycle(ctx, cycle); err != nil {
			return err
		}

		logger := s.logger.With(
			attr.UUID("cycle_id", cycle.ID),
			attr.String("source", string(opts.Source)),
			attr.Int("user_count", len(users)),
			attr.Int("batch_count", len(batches)),
		)
		logger.InfoContext(ctx, "refresh cycle scheduled")

		base := time.Now()
		for i, batch := range batches {
			runAt := batchStart(base, i, s.cfg.UpdateInterval)
			if err := s.scheduler.ScheduleBatch(ctx, cycle.ID, i, batch, runAt); err != nil {
				return fmt.Errorf("failed to schedule batch %d: %w", i, err)
			}
		}

		rankAt := rankFallbackAt(base, len(batches), s.cfg.UpdateInterval, s.cfg.SettleDelay)
		if err := s.scheduler.ScheduleRankFallback(ctx, cycle.ID, rankAt); err != nil {
			return fmt.Errorf("failed to schedule rank fallback: %w", err)
		}

		event := eventbus.RefreshEvent{
			CycleID:    cycle.ID,
			Source:     opts.Source,
			UserCount:  len(users),
			BatchCount: len(batches),
			OccurredAt: base,
		}
		if err := s.publisher.PublishRefresh(ctx, eventbus.SubjectRefreshStarted, event); err != nil {
			logger.WarnContext(ctx, "failed to publish refresh started event", attr.Error(err))
		}

		receipt = &RefreshReceipt{
			CycleID:    cycle.ID,
			UserCount:  len(users),
			BatchCount: len(batches),
			RankAt:     rankAt,
		}

		if len(batches) == 0 {
			// Nothing to aggregate; rank immediately so the cycle still
			// finishes and an empty board stays consistent.
			return s.rankCycle(ctx, cycle.ID, false)
		}

		if opts.Wait {
			return s.waitForCycle(ctx, cycle.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// waitForCycle polls the cycle until it finishes or ctx expires.
func (s *LeaderboardService) waitForCycle(ctx context.Context, cycleID uuid.UUID) error {
	ticker := time.NewTicker(s.cfg.WaitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("refresh wait aborted: %w", ctx.Err())
		case <-ticker.C:
			cycle, err := s.cycles.GetCycle(ctx, cycleID)
			if err != nil {
				return fmt.Errorf("failed to poll refresh cycle: %w", err)
			}
			if cycle.State == leaderboarddb.CycleStateFinished {
				return nil
			}
		}
	}
}
