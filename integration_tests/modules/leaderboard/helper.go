package leaderboardintegration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.opentelemetry.io/otel/trace/noop"

	leaderboardservice "github.com/campus-coders-club/cp-board/app/modules/leaderboard/application"
	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
	leaderboardmigrations "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories/migrations"
	platformclients "github.com/campus-coders-club/cp-board/app/modules/platform/infrastructure/clients"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	usermigrations "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories/migrations"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/integration_tests/containers"
	"github.com/campus-coders-club/cp-board/internal/eventbus"
	"github.com/campus-coders-club/cp-board/internal/observability"
)

var (
	setupOnce sync.Once
	setupErr  error
	testDSN   string
)

// testDB starts the shared Postgres container on first use and returns a
// migrated bun.DB. Tests are skipped when Docker is unavailable.
func testDB(t *testing.T) *bun.DB {
	t.Helper()

	setupOnce.Do(func() {
		ctx := context.Background()
		container, dsn, err := containers.SetupPostgresContainer(ctx)
		if err != nil {
			setupErr = err
			return
		}
		testDSN = dsn
		// The container lives for the whole test binary; Ryuk reaps it when
		// the process exits.
		_ = container
	})
	if setupErr != nil {
		t.Skipf("skipping integration test, postgres container unavailable: %v", setupErr)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(testDSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	db.RegisterModel(&userdb.User{})
	db.RegisterModel(&leaderboarddb.RefreshCycle{})

	ctx := context.Background()
	for name, migrations := range map[string]*migrate.Migrations{
		"user":        usermigrations.Migrations,
		"leaderboard": leaderboardmigrations.Migrations,
	} {
		migrator := migrate.NewMigrator(db, migrations)
		if err := migrator.Init(ctx); err != nil {
			t.Fatalf("failed to init %s migrations: %v", name, err)
		}
		if _, err := migrator.Migrate(ctx); err != nil {
			t.Fatalf("failed to run %s migrations: %v", name, err)
		}
	}

	truncate(t, db)
	return db
}

func truncate(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"users", "leaderboard_refresh_cycles"} {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// inlineScheduler runs scheduled work synchronously against the service,
// collapsing the River round trip for flow tests.
type inlineScheduler struct {
	service *leaderboardservice.LeaderboardService
}

func (s *inlineScheduler) ScheduleBatch(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64, _ time.Time) error {
	return s.service.ProcessBatch(ctx, cycleID, batchIndex, userIDs)
}

func (s *inlineScheduler) ScheduleRankFallback(ctx context.Context, cycleID uuid.UUID, _ time.Time) error {
	return s.service.RunRankFallback(ctx, cycleID)
}

// newIntegrationService builds a real service over the migrated database with
// fake fetchers and an inline scheduler.
func newIntegrationService(db *bun.DB, fetchers map[sharedtypes.Platform]platformclients.StatFetcher, cfg leaderboardservice.Config) *leaderboardservice.LeaderboardService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduler := &inlineScheduler{}
	service := leaderboardservice.NewLeaderboardService(
		&userdb.UserDBImpl{DB: db},
		&leaderboarddb.CycleDBImpl{DB: db},
		fetchers,
		scheduler,
		eventbus.NoOpPublisher{},
		logger,
		&observability.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("integration"),
		cfg,
	)
	scheduler.service = service
	return service
}

// fixedFetcher returns one fixed score for every username.
type fixedFetcher struct {
	platform sharedtypes.Platform
	score    int
}

func (f fixedFetcher) Platform() sharedtypes.Platform { return f.platform }

func (f fixedFetcher) Fetch(context.Context, string, int) int { return f.score }

func fixedFetchers(score int) map[sharedtypes.Platform]platformclients.StatFetcher {
	fetchers := map[sharedtypes.Platform]platformclients.StatFetcher{}
	for _, platform := range sharedtypes.Platforms {
		fetchers[platform] = fixedFetcher{platform: platform, score: score}
	}
	return fetchers
}
