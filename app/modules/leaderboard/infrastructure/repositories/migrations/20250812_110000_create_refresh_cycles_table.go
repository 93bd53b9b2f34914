package leaderboardmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating leaderboard_refresh_cycles table...")

		if _, err := db.NewCreateTable().Model((*leaderboarddb.RefreshCycle)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_refresh_cycles_started_at ON leaderboard_refresh_cycles (started_at DESC)").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Refresh cycles table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping leaderboard_refresh_cycles table...")
		if _, err := db.NewDropTable().Model((*leaderboarddb.RefreshCycle)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		return nil
	})
}
