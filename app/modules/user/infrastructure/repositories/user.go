package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
)

// UserDBImpl is the bun-backed user repository.
type UserDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*UserDBImpl)(nil)

// CreateUser creates a new user.
func (db *UserDBImpl) CreateUser(ctx context.Context, user *User) error {
	if user.Platforms == nil {
		user.Platforms = sharedtypes.PlatformScores{}
	}
	if _, err := db.DB.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetAll retrieves every user in insertion order.
func (db *UserDBImpl) GetAll(ctx context.Context) ([]*User, error) {
	var users []*User
	err := db.DB.NewSelect().
		Model(&users).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user by primary key.
func (db *UserDBImpl) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := db.DB.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func (db *UserDBImpl) GetByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := db.DB.NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UpdateScores writes the platform map and total score for one user. Identity
// fields are never touched.
func (db *UserDBImpl) UpdateScores(ctx context.Context, id int64, update *ScoreUpdate) error {
	result, err := db.DB.NewUpdate().
		Model((*User)(nil)).
		Set("platforms = ?", update.Platforms).
		Set("total_score = ?", update.TotalScore).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update scores for user %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateRank writes the rank for one user.
func (db *UserDBImpl) UpdateRank(ctx context.Context, id int64, rank int) error {
	result, err := db.DB.NewUpdate().
		Model((*User)(nil)).
		Set("rank = ?", rank).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update rank for user %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePlatformEntry replaces a single platform entry for the user with the
// given email, recomputing the stored total from the resulting map.
func (db *UserDBImpl) UpdatePlatformEntry(ctx context.Context, email string, platform sharedtypes.Platform, entry sharedtypes.PlatformEntry) error {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user := &User{}
	err = tx.NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.Platforms == nil {
		user.Platforms = sharedtypes.PlatformScores{}
	}
	user.Platforms[platform] = entry

	_, err = tx.NewUpdate().
		Model((*User)(nil)).
		Set("platforms = ?", user.Platforms).
		Set("total_score = ?", user.Platforms.Total()).
		Set("updated_at = current_timestamp").
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update platform entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListByTotalScore returns all users ordered by total_score DESC with id ASC
// as the deterministic tie-break.
func (db *UserDBImpl) ListByTotalScore(ctx context.Context) ([]*User, error) {
	var users []*User
	err := db.DB.NewSelect().
		Model(&users).
		Order("total_score DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by total score: %w", err)
	}
	return users, nil
}

// ListRanked returns all users ordered by rank ascending.
func (db *UserDBImpl) ListRanked(ctx context.Context) ([]*User, error) {
	var users []*User
	err := db.DB.NewSelect().
		Model(&users).
		Order("rank ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranked users: %w", err)
	}
	return users, nil
}
