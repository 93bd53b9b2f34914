package userdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
)

// User represents a tracked club member. The refresh engine only ever writes
// the platform scores, total score, and rank; identity fields are owned by
// whoever registers the user.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Name       string `bun:"name,notnull"`
	Email      string `bun:"email,notnull,unique"`
	RollNo     string `bun:"roll_no"`
	Department string `bun:"department"`
	Section    string `bun:"section"`

	Platforms  sharedtypes.PlatformScores `bun:"platforms,type:jsonb,notnull,default:'{}'"`
	TotalScore int                        `bun:"total_score,notnull,default:0"`
	Rank       int                        `bun:"rank,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeUpdateHook = (*User)(nil)

func (u *User) BeforeUpdate(ctx context.Context, _ *bun.UpdateQuery) error {
	u.UpdatedAt = time.Now()
	return nil
}

// ScoreUpdate is the partial update a refresh cycle writes per user.
type ScoreUpdate struct {
	Platforms  sharedtypes.PlatformScores
	TotalScore int
}
