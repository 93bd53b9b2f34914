package leaderboarddb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
)

// CycleState tracks a refresh cycle's progress.
type CycleState string

const (
	CycleStateRunning  CycleState = "running"
	CycleStateRanking  CycleState = "ranking"
	CycleStateFinished CycleState = "finished"
)

// RefreshCycle is one scheduled or manual leaderboard refresh. The batch
// counters implement completion tracking: the worker that completes the last
// batch starts rank recomputation instead of relying on timing alone.
type RefreshCycle struct {
	bun.BaseModel `bun:"table:leaderboard_refresh_cycles,alias:rc"`

	ID               uuid.UUID                 `bun:"id,pk,type:uuid"`
	Source           sharedtypes.RefreshSource `bun:"source,notnull"`
	State            CycleState                `bun:"state,notnull,default:'running'"`
	UserCount        int                       `bun:"user_count,notnull,default:0"`
	TotalBatches     int                       `bun:"total_batches,notnull,default:0"`
	CompletedBatches int                       `bun:"completed_batches,notnull,default:0"`

	StartedAt  time.Time `bun:"started_at,nullzero,notnull,default:current_timestamp"`
	FinishedAt time.Time `bun:"finished_at,nullzero"`
}

var _ bun.BeforeInsertHook = (*RefreshCycle)(nil)

func (c *RefreshCycle) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
