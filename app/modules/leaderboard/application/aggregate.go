package leaderboardservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// AggregateUser computes one user's fresh platform scores and total.
// Platforms without a registered username carry their previous score forward
// unchanged. The four fetches run concurrently; fetchers themselves never
// fail, so one slow or broken platform cannot affect the others' results.
func (s *LeaderboardService) AggregateUser(ctx context.Context, user *userdb.User) *userdb.ScoreUpdate {
	previous := user.Platforms
	if previous == nil {
		previous = sharedtypes.PlatformScores{}
	}

	updated := sharedtypes.PlatformScores{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, platform := range sharedtypes.Platforms {
		entry := previous.Entry(platform)

		if entry.Username == "" {
			// Carry-forward invariant: unregistered platforms keep their
			// last-known score.
			mu.Lock()
			updated[platform] = entry
			mu.Unlock()
			continue
		}

		fetcher, ok := s.fetchers[platform]
		if !ok {
			s.logger.WarnContext(ctx, "no fetcher registered for platform",
				attr.String("platform", platform.String()))
			mu.Lock()
			updated[platform] = entry
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			score := fetcher.Fetch(ctx, entry.Username, entry.Score)
			mu.Lock()
			updated[platform] = sharedtypes.PlatformEntry{Username: entry.Username, Score: score}
			mu.Unlock()
		}()
	}
	wg.Wait()

	return &userdb.ScoreUpdate{
		Platforms:  updated,
		TotalScore: updated.Total(),
	}
}

// ProcessBatch aggregates and persists one batch of users sequentially, then
// records the batch's completion against its cycle. A persistence failure for
// one user is logged and skipped; the batch always runs to the end.
func (s *LeaderboardService) ProcessBatch(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64) error {
	return s.serviceWrapper(ctx, "ProcessBatch", func(ctx context.Context) error {
		logger := s.logger.With(
			attr.UUID("cycle_id", cycleID),
			attr.Int("batch_index", batchIndex),
			attr.Int("batch_size", len(userIDs)),
		)
		logger.InfoContext(ctx, "processing batch")

		for _, id := range userIDs {
			user, err := s.users.GetByID(ctx, id)
			if err != nil {
				logger.WarnContext(ctx, "skipping user, load failed",
					attr.Int64("user_id", id),
					attr.Error(err))
				continue
			}

			update := s.AggregateUser(ctx, user)

			if err := s.users.UpdateScores(ctx, user.ID, update); err != nil {
				logger.WarnContext(ctx, "skipping user, score update failed",
					attr.Int64("user_id", id),
					attr.Error(err))
				continue
			}
		}

		completed, total, err := s.cycles.IncrementCompletedBatches(ctx, cycleID)
		if err != nil {
			return fmt.Errorf("failed to record batch completion: %w", err)
		}

		logger.InfoContext(ctx, "batch completed",
			attr.Int("completed_batches", completed),
			attr.Int("total_batches", total))

		if completed >= total {
			// Completion barrier: the last batch ranks immediately rather
			// than waiting for the timer-derived fallback.
			return s.rankCycle(ctx, cycleID, false)
		}
		return nil
	})
}
