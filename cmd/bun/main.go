package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	leaderboardmigrations "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories/migrations"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	usermigrations "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories/migrations"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(pgdb, pgdialect.New())
	defer db.Close()

	migrators := map[string]*migrate.Migrator{
		"user":        migrate.NewMigrator(db, usermigrations.Migrations),
		"leaderboard": migrate.NewMigrator(db, leaderboardmigrations.Migrations),
	}

	cliApp := &cli.App{
		Name: "bun",
		Commands: []*cli.Command{
			newMultiModuleDBCommand(migrators),
			newSeedCommand(db),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newMultiModuleDBCommand(migrators map[string]*migrate.Migrator) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					for moduleName, migrator := range migrators {
						fmt.Printf("Initializing migrations for module: %s\n", moduleName)
						if err := migrator.Init(c.Context); err != nil {
							return fmt.Errorf("init %s: %w", moduleName, err)
						}
					}
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					for moduleName, migrator := range migrators {
						fmt.Printf("Running migrations for module: %s\n", moduleName)
						group, err := migrator.Migrate(c.Context)
						if err != nil {
							return err
						}
						if group.IsZero() {
							fmt.Printf("No new migrations to run for module: %s\n", moduleName)
						} else {
							fmt.Printf("Migrated module: %s to %s\n", moduleName, group)
						}
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					for moduleName, migrator := range migrators {
						fmt.Printf("Rolling back migrations for module: %s\n", moduleName)
						group, err := migrator.Rollback(c.Context)
						if err != nil {
							return err
						}
						if group.IsZero() {
							fmt.Printf("No groups to roll back for module: %s\n", moduleName)
						} else {
							fmt.Printf("Rolled back module: %s to %s\n", moduleName, group)
						}
					}
					return nil
				},
			},
			{
				Name:  "create_go",
				Usage: "create Go migration",
				Action: func(c *cli.Context) error {
					moduleName := c.Args().First()
					migrator, ok := migrators[moduleName]
					if !ok {
						return fmt.Errorf("invalid module name: %s", moduleName)
					}

					name := strings.Join(c.Args().Tail(), "_")
					mf, err := migrator.CreateGoMigration(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
					return nil
				},
			},
		},
	}
}

func newSeedCommand(db *bun.DB) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "seed the users table with fake data",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Value: 25, Usage: "number of users to create"},
		},
		Action: func(c *cli.Context) error {
			repo := &userdb.UserDBImpl{DB: db}
			count := c.Int("count")

			for i := 0; i < count; i++ {
				handle := strings.ToLower(gofakeit.Username())
				user := &userdb.User{
					Name:       gofakeit.Name(),
					Email:      gofakeit.Email(),
					RollNo:     fmt.Sprintf("%d%s%04d", gofakeit.Number(20, 25), strings.ToUpper(gofakeit.LetterN(2)), gofakeit.Number(1, 9999)),
					Department: gofakeit.RandomString([]string{"CSE", "ECE", "EEE", "MECH", "IT"}),
					Section:    gofakeit.RandomString([]string{"A", "B", "C"}),
					Platforms: sharedtypes.PlatformScores{
						sharedtypes.PlatformCodeChef:   {Username: handle},
						sharedtypes.PlatformCodeforces: {Username: handle},
						sharedtypes.PlatformLeetCode:   {Username: handle},
						sharedtypes.PlatformGitHub:     {Username: handle},
					},
				}
				if err := repo.CreateUser(c.Context, user); err != nil {
					return fmt.Errorf("failed to seed user %d: %w", i, err)
				}
			}

			fmt.Printf("Seeded %d users\n", count)
			return nil
		},
	}
}
