package leaderboarddb

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines refresh-cycle persistence operations.
type Repository interface {
	CreateCycle(ctx context.Context, cycle *RefreshCycle) error
	GetCycle(ctx context.Context, id uuid.UUID) (*RefreshCycle, error)
	// IncrementCompletedBatches bumps the completed counter and returns the
	// post-increment completed and total counts.
	IncrementCompletedBatches(ctx context.Context, id uuid.UUID) (completed, total int, err error)
	// TryBeginRanking transitions running -> ranking. It reports false when
	// another worker already claimed ranking (or the cycle is finished).
	TryBeginRanking(ctx context.Context, id uuid.UUID) (bool, error)
	FinishCycle(ctx context.Context, id uuid.UUID) error
}
