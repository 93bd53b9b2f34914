package leaderboardqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	leaderboardservice "github.com/campus-coders-club/cp-board/app/modules/leaderboard/application"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// RefreshRunner is the slice of the leaderboard service the workers invoke.
type RefreshRunner interface {
	Refresh(ctx context.Context, opts leaderboardservice.RefreshOptions) (*leaderboardservice.RefreshReceipt, error)
	ProcessBatch(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64) error
	RunRankFallback(ctx context.Context, cycleID uuid.UUID) error
}

// BatchJobArgs aggregates one batch of users at its staggered offset.
type BatchJobArgs struct {
	CycleID    uuid.UUID `json:"cycle_id"`
	BatchIndex int       `json:"batch_index"`
	UserIDs    []int64   `json:"user_ids"`
}

func (BatchJobArgs) Kind() string { return "leaderboard_batch" }

// RankJobArgs is the timer-derived rank fallback for one cycle.
type RankJobArgs struct {
	CycleID uuid.UUID `json:"cycle_id"`
}

func (RankJobArgs) Kind() string { return "leaderboard_rank" }

// RefreshJobArgs is the periodic daily refresh trigger.
type RefreshJobArgs struct {
	Source sharedtypes.RefreshSource `json:"source"`
}

func (RefreshJobArgs) Kind() string { return "leaderboard_refresh" }

// BatchWorker runs one scheduled batch.
type BatchWorker struct {
	river.WorkerDefaults[BatchJobArgs]
	service *Service
	logger  *slog.Logger
}

func NewBatchWorker(service *Service, logger *slog.Logger) *BatchWorker {
	return &BatchWorker{service: service, logger: logger}
}

func (w *BatchWorker) Work(ctx context.Context, job *river.Job[BatchJobArgs]) error {
	runner := w.service.Runner()
	if runner == nil {
		return fmt.Errorf("batch worker has no runner assigned")
	}

	w.logger.InfoContext(ctx, "running batch job",
		attr.UUID("cycle_id", job.Args.CycleID),
		attr.Int("batch_index", job.Args.BatchIndex),
		attr.Int64("job_id", job.ID))

	return runner.ProcessBatch(ctx, job.Args.CycleID, job.Args.BatchIndex, job.Args.UserIDs)
}

// RankWorker runs the rank fallback for one cycle.
type RankWorker struct {
	river.WorkerDefaults[RankJobArgs]
	service *Service
	logger  *slog.Logger
}

func NewRankWorker(service *Service, logger *slog.Logger) *RankWorker {
	return &RankWorker{service: service, logger: logger}
}

func (w *RankWorker) Work(ctx context.Context, job *river.Job[RankJobArgs]) error {
	runner := w.service.Runner()
	if runner == nil {
		return fmt.Errorf("rank worker has no runner assigned")
	}

	w.logger.InfoContext(ctx, "running rank fallback job",
		attr.UUID("cycle_id", job.Args.CycleID),
		attr.Int64("job_id", job.ID))

	return runner.RunRankFallback(ctx, job.Args.CycleID)
}

// RefreshWorker runs the daily scheduled refresh through the same entry
// point the manual trigger uses.
type RefreshWorker struct {
	river.WorkerDefaults[RefreshJobArgs]
	service *Service
	logger  *slog.Logger
}

func NewRefreshWorker(service *Service, logger *slog.Logger) *RefreshWorker {
	return &RefreshWorker{service: service, logger: logger}
}

func (w *RefreshWorker) Work(ctx context.Context, job *river.Job[RefreshJobArgs]) error {
	runner := w.service.Runner()
	if runner == nil {
		return fmt.Errorf("refresh worker has no runner assigned")
	}

	w.logger.InfoContext(ctx, "running scheduled refresh job",
		attr.Int64("job_id", job.ID))

	_, err := runner.Refresh(ctx, leaderboardservice.RefreshOptions{Source: job.Args.Source})
	return err
}
