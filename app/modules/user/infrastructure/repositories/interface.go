package userdb

import (
	"context"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
)

// Repository defines user data operations needed by the refresh engine and
// the HTTP surface.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetAll(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpdateScores writes the platform map and total score for one user.
	UpdateScores(ctx context.Context, id int64, update *ScoreUpdate) error
	// UpdateRank writes the rank for one user.
	UpdateRank(ctx context.Context, id int64, rank int) error
	// UpdatePlatformEntry replaces a single platform's entry for the user
	// with the given email.
	UpdatePlatformEntry(ctx context.Context, email string, platform sharedtypes.Platform, entry sharedtypes.PlatformEntry) error
	// ListByTotalScore returns all users ordered by total_score DESC, id ASC.
	ListByTotalScore(ctx context.Context) ([]*User, error)
	// ListRanked returns all users ordered by rank ASC.
	ListRanked(ctx context.Context) ([]*User, error)
}
