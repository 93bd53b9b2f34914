package leaderboardservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
)

// Service is the leaderboard refresh engine's application surface.
type Service interface {
	// Refresh runs one full refresh: schedules all batches and the fallback
	// rank job. With opts.Wait it blocks until the cycle finishes or ctx
	// expires. Both the periodic job and the HTTP trigger call this.
	Refresh(ctx context.Context, opts RefreshOptions) (*RefreshReceipt, error)
	// ProcessBatch aggregates and persists scores for one batch of users,
	// then records batch completion; the final batch triggers ranking.
	ProcessBatch(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64) error
	// RunRankFallback is the timer-derived safety net: it ranks the cycle
	// if completion tracking has not already done so.
	RunRankFallback(ctx context.Context, cycleID uuid.UUID) error
	// GetLeaderboard returns the read-only projection sorted by rank.
	GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	// UpdatePlatform replaces one platform's entry for the user matching
	// email.
	UpdatePlatform(ctx context.Context, req PlatformUpdateRequest) error
}

// RefreshScheduler is the deferred-execution backend (River in production).
type RefreshScheduler interface {
	ScheduleBatch(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64, runAt time.Time) error
	ScheduleRankFallback(ctx context.Context, cycleID uuid.UUID, runAt time.Time) error
}

// RefreshOptions controls one refresh invocation.
type RefreshOptions struct {
	Source sharedtypes.RefreshSource
	// Wait blocks until the cycle finishes instead of returning after
	// scheduling. Bounded by the caller's context.
	Wait bool
}

// RefreshReceipt describes the scheduled cycle.
type RefreshReceipt struct {
	CycleID    uuid.UUID
	UserCount  int
	BatchCount int
	// RankAt is when the fallback rank job will fire.
	RankAt time.Time
}

// LeaderboardEntry is the external-facing projection of one user.
type LeaderboardEntry struct {
	Name       string                     `json:"name"`
	Email      string                     `json:"email"`
	RollNo     string                     `json:"rollNo,omitempty"`
	Department string                     `json:"department,omitempty"`
	Section    string                     `json:"section,omitempty"`
	Platforms  sharedtypes.PlatformScores `json:"platforms"`
	TotalScore int                        `json:"totalScore"`
	Rank       int                        `json:"rank"`
}

// PlatformUpdateRequest is a user-initiated single-platform update.
type PlatformUpdateRequest struct {
	Email    string
	Platform sharedtypes.Platform
	Username string
	Score    *int
}

// NewLeaderboardEntry projects a stored user.
func NewLeaderboardEntry(user *userdb.User) LeaderboardEntry {
	platforms := user.Platforms
	if platforms == nil {
		platforms = sharedtypes.PlatformScores{}
	}
	return LeaderboardEntry{
		Name:       user.Name,
		Email:      user.Email,
		RollNo:     user.RollNo,
		Department: user.Department,
		Section:    user.Section,
		Platforms:  platforms,
		TotalScore: user.TotalScore,
		Rank:       user.Rank,
	}
}
