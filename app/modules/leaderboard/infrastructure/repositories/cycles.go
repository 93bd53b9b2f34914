package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrCycleNotFound = errors.New("refresh cycle not found")

// CycleDBImpl is the bun-backed refresh cycle repository.
type CycleDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*CycleDBImpl)(nil)

// CreateCycle inserts a new refresh cycle row.
func (db *CycleDBImpl) CreateCycle(ctx context.Context, cycle *RefreshCycle) error {
	if _, err := db.DB.NewInsert().Model(cycle).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create refresh cycle: %w", err)
	}
	return nil
}

// GetCycle retrieves a refresh cycle by id.
func (db *CycleDBImpl) GetCycle(ctx context.Context, id uuid.UUID) (*RefreshCycle, error) {
	cycle := &RefreshCycle{}
	err := db.DB.NewSelect().Model(cycle).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("failed to get refresh cycle: %w", err)
	}
	return cycle, nil
}

// IncrementCompletedBatches bumps the completed counter atomically and
// returns the post-increment counts, so the caller can detect the final
// batch without a read-modify-write race.
func (db *CycleDBImpl) IncrementCompletedBatches(ctx context.Context, id uuid.UUID) (int, int, error) {
	var row struct {
		Completed int `bun:"completed_batches"`
		Total     int `bun:"total_batches"`
	}

	err := db.DB.NewUpdate().
		Model((*RefreshCycle)(nil)).
		Set("completed_batches = completed_batches + 1").
		Where("id = ?", id).
		Returning("completed_batches, total_batches").
		Scan(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrCycleNotFound
		}
		return 0, 0, fmt.Errorf("failed to increment completed batches: %w", err)
	}

	return row.Completed, row.Total, nil
}

// TryBeginRanking claims the ranking phase with a state CAS.
func (db *CycleDBImpl) TryBeginRanking(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := db.DB.NewUpdate().
		Model((*RefreshCycle)(nil)).
		Set("state = ?", CycleStateRanking).
		Where("id = ? AND state = ?", id, CycleStateRunning).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin ranking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// FinishCycle marks the cycle finished.
func (db *CycleDBImpl) FinishCycle(ctx context.Context, id uuid.UUID) error {
	_, err := db.DB.NewUpdate().
		Model((*RefreshCycle)(nil)).
		Set("state = ?", CycleStateFinished).
		Set("finished_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to finish refresh cycle: %w", err)
	}
	return nil
}
