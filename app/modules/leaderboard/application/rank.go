package leaderboardservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campus-coders-club/cp-board/internal/eventbus"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// RunRankFallback is executed by the timer-derived rank job. It only ranks
// when completion tracking has not already claimed the cycle, so the normal
// path and the fallback can never double-rank.
func (s *LeaderboardService) RunRankFallback(ctx context.Context, cycleID uuid.UUID) error {
	return s.serviceWrapper(ctx, "RunRankFallback", func(ctx context.Context) error {
		cycle, err := s.cycles.GetCycle(ctx, cycleID)
		if err != nil {
			return fmt.Errorf("failed to load cycle for rank fallback: %w", err)
		}

		if cycle.CompletedBatches < cycle.TotalBatches {
			// Some batch overran its slot or its job was lost. Rank anyway:
			// stale rows simply keep their previous scores until the next
			// cycle supersedes them.
			s.logger.WarnContext(ctx, "ranking with incomplete batches",
				attr.UUID("cycle_id", cycleID),
				attr.Int("completed_batches", cycle.CompletedBatches),
				attr.Int("total_batches", cycle.TotalBatches))
		}

		return s.rankCycle(ctx, cycleID, true)
	})
}

// rankCycle claims the ranking phase and recomputes every rank. A false
// claim means another path already ranked this cycle.
func (s *LeaderboardService) rankCycle(ctx context.Context, cycleID uuid.UUID, fallback bool) error {
	claimed, err := s.cycles.TryBeginRanking(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("failed to claim ranking phase: %w", err)
	}
	if !claimed {
		s.logger.DebugContext(ctx, "ranking already handled for cycle",
			attr.UUID("cycle_id", cycleID),
			attr.Bool("fallback", fallback))
		return nil
	}

	if err := s.RecomputeRanks(ctx); err != nil {
		return err
	}

	if err := s.cycles.FinishCycle(ctx, cycleID); err != nil {
		return err
	}

	cycle, err := s.cycles.GetCycle(ctx, cycleID)
	if err == nil {
		event := eventbus.RefreshEvent{
			CycleID:    cycleID,
			Source:     cycle.Source,
			UserCount:  cycle.UserCount,
			BatchCount: cycle.TotalBatches,
			OccurredAt: time.Now(),
		}
		if err := s.publisher.PublishRefresh(ctx, eventbus.SubjectRefreshCompleted, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish refresh completed event",
				attr.UUID("cycle_id", cycleID),
				attr.Error(err))
		}
	}

	s.logger.InfoContext(ctx, "refresh cycle finished",
		attr.UUID("cycle_id", cycleID),
		attr.Bool("fallback", fallback))
	return nil
}

// RecomputeRanks derives every user's rank from the current totals: ranks are
// contiguous 1-based positions in total_score DESC order, ties broken by id
// ASC. Ranks are never authoritative; this full re-derivation runs once per
// cycle.
func (s *LeaderboardService) RecomputeRanks(ctx context.Context) error {
	return s.serviceWrapper(ctx, "RecomputeRanks", func(ctx context.Context) error {
		users, err := s.users.ListByTotalScore(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users for ranking: %w", err)
		}

		for position, user := range users {
			rank := position + 1
			if err := s.users.UpdateRank(ctx, user.ID, rank); err != nil {
				// A single failed write must not abort the sweep; the row
				// keeps its previous rank until the next cycle.
				s.logger.WarnContext(ctx, "failed to persist rank",
					attr.Int64("user_id", user.ID),
					attr.Int("rank", rank),
					attr.Error(err))
			}
		}

		s.logger.InfoContext(ctx, "ranks recomputed", attr.Int("user_count", len(users)))
		return nil
	})
}
