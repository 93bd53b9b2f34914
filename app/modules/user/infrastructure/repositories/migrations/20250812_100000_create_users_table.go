package usermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating users table...")

		if _, err := db.NewCreateTable().Model((*userdb.User)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_users_total_score ON users (total_score DESC, id ASC)").Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewRaw(`CREATE INDEX IF NOT EXISTS idx_users_rank ON users ("rank" ASC)`).Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Users table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping users table...")
		if _, err := db.NewDropTable().Model((*userdb.User)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		return nil
	})
}
