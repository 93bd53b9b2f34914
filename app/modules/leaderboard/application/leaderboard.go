package leaderboardservice

import (
	"context"
	"fmt"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// GetLeaderboard returns every user's projection sorted by rank ascending.
// It never triggers a refresh.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry

	err := s.serviceWrapper(ctx, "GetLeaderboard", func(ctx context.Context) error {
		users, err := s.users.ListRanked(ctx)
		if err != nil {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}

		entries = make([]LeaderboardEntry, len(users))
		for i, user := range users {
			entries[i] = NewLeaderboardEntry(user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdatePlatform replaces a single platform's username and score for the
// user matching req.Email. Validation failures surface as ErrMissingField /
// ErrInvalidPlatform; an unknown email surfaces the repository's not-found
// error unchanged.
func (s *LeaderboardService) UpdatePlatform(ctx context.Context, req PlatformUpdateRequest) error {
	return s.serviceWrapper(ctx, "UpdatePlatform", func(ctx context.Context) error {
		if req.Email == "" {
			return fmt.Errorf("%w: email", ErrMissingField)
		}
		if req.Platform == "" {
			return fmt.Errorf("%w: platform", ErrMissingField)
		}
		if !req.Platform.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidPlatform, req.Platform)
		}
		if req.Score == nil {
			return fmt.Errorf("%w: stats", ErrMissingField)
		}
		if *req.Score < 0 {
			return fmt.Errorf("%w: stats must be non-negative", ErrMissingField)
		}

		entry := sharedtypes.PlatformEntry{Username: req.Username, Score: *req.Score}
		if err := s.users.UpdatePlatformEntry(ctx, req.Email, req.Platform, entry); err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "platform entry updated",
			attr.String("email", req.Email),
			attr.String("platform", req.Platform.String()),
			attr.Int("score", *req.Score))
		return nil
	})
}
