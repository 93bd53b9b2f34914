package leaderboardintegration

import (
	"context"
	"errors"
	"testing"

	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
)

func TestUserRepository(t *testing.T) {
	db := testDB(t)
	repo := &userdb.UserDBImpl{DB: db}
	ctx := context.Background()

	asha := &userdb.User{
		Name:  "Asha",
		Email: "asha@example.com",
		Platforms: sharedtypes.PlatformScores{
			sharedtypes.PlatformLeetCode: {Username: "asha", Score: 10},
		},
	}
	if err := repo.CreateUser(ctx, asha); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if asha.ID == 0 {
		t.Fatal("CreateUser() did not assign an id")
	}

	t.Run("get by email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "asha@example.com")
		if err != nil {
			t.Fatalf("GetByEmail() error = %v", err)
		}
		if got.Name != "Asha" {
			t.Errorf("Name = %s, want Asha", got.Name)
		}
		if got.Platforms.Entry(sharedtypes.PlatformLeetCode).Score != 10 {
			t.Errorf("jsonb platforms did not round trip: %+v", got.Platforms)
		}
	})

	t.Run("unknown email returns sentinel", func(t *testing.T) {
		if _, err := repo.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, userdb.ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("update scores", func(t *testing.T) {
		update := &userdb.ScoreUpdate{
			Platforms: sharedtypes.PlatformScores{
				sharedtypes.PlatformLeetCode: {Username: "asha", Score: 25},
				sharedtypes.PlatformGitHub:   {Username: "asha", Score: 5},
			},
			TotalScore: 30,
		}
		if err := repo.UpdateScores(ctx, asha.ID, update); err != nil {
			t.Fatalf("UpdateScores() error = %v", err)
		}

		got, err := repo.GetByID(ctx, asha.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.TotalScore != 30 {
			t.Errorf("TotalScore = %d, want 30", got.TotalScore)
		}
		if got.Platforms.Entry(sharedtypes.PlatformGitHub).Score != 5 {
			t.Errorf("github entry not persisted: %+v", got.Platforms)
		}
	})

	t.Run("update scores for unknown id", func(t *testing.T) {
		err := repo.UpdateScores(ctx, 99999, &userdb.ScoreUpdate{Platforms: sharedtypes.PlatformScores{}})
		if !errors.Is(err, userdb.ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("update platform entry", func(t *testing.T) {
		entry := sharedtypes.PlatformEntry{Username: "asha_cf", Score: 12}
		if err := repo.UpdatePlatformEntry(ctx, "asha@example.com", sharedtypes.PlatformCodeforces, entry); err != nil {
			t.Fatalf("UpdatePlatformEntry() error = %v", err)
		}

		got, err := repo.GetByEmail(ctx, "asha@example.com")
		if err != nil {
			t.Fatal(err)
		}
		if got.Platforms.Entry(sharedtypes.PlatformCodeforces) != entry {
			t.Errorf("codeforces entry = %+v, want %+v", got.Platforms.Entry(sharedtypes.PlatformCodeforces), entry)
		}
		// Other platforms untouched, total rolled up from the map.
		if got.Platforms.Entry(sharedtypes.PlatformLeetCode).Score != 25 {
			t.Errorf("leetcode entry clobbered: %+v", got.Platforms)
		}
		if got.TotalScore != 42 {
			t.Errorf("TotalScore = %d, want 42", got.TotalScore)
		}
	})
}

func TestUserRepositoryOrdering(t *testing.T) {
	db := testDB(t)
	repo := &userdb.UserDBImpl{DB: db}
	ctx := context.Background()

	seed := []struct {
		email string
		total int
	}{
		{"a@example.com", 40},
		{"b@example.com", 90},
		{"c@example.com", 40},
		{"d@example.com", 10},
	}
	ids := make([]int64, len(seed))
	for i, s := range seed {
		u := &userdb.User{Name: s.email, Email: s.email}
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
		if err := repo.UpdateScores(ctx, u.ID, &userdb.ScoreUpdate{
			Platforms:  sharedtypes.PlatformScores{},
			TotalScore: s.total,
		}); err != nil {
			t.Fatal(err)
		}
		ids[i] = u.ID
	}

	users, err := repo.ListByTotalScore(ctx)
	if err != nil {
		t.Fatalf("ListByTotalScore() error = %v", err)
	}
	if len(users) != 4 {
		t.Fatalf("got %d users, want 4", len(users))
	}

	// total_score DESC, ties broken by id ASC.
	wantOrder := []int64{ids[1], ids[0], ids[2], ids[3]}
	for i, u := range users {
		if u.ID != wantOrder[i] {
			t.Errorf("position %d: got id %d, want %d", i, u.ID, wantOrder[i])
		}
	}

	for i, u := range users {
		if err := repo.UpdateRank(ctx, u.ID, i+1); err != nil {
			t.Fatal(err)
		}
	}

	ranked, err := repo.ListRanked(ctx)
	if err != nil {
		t.Fatalf("ListRanked() error = %v", err)
	}
	for i, u := range ranked {
		if u.Rank != i+1 {
			t.Errorf("position %d has rank %d", i, u.Rank)
		}
	}
}

func TestCycleRepository(t *testing.T) {
	db := testDB(t)
	repo := &leaderboarddb.CycleDBImpl{DB: db}
	ctx := context.Background()

	cycle := &leaderboarddb.RefreshCycle{
		Source:       sharedtypes.RefreshSourceManual,
		State:        leaderboarddb.CycleStateRunning,
		UserCount:    4,
		TotalBatches: 2,
	}
	if err := repo.CreateCycle(ctx, cycle); err != nil {
		t.Fatalf("CreateCycle() error = %v", err)
	}

	completed, total, err := repo.IncrementCompletedBatches(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("IncrementCompletedBatches() error = %v", err)
	}
	if completed != 1 || total != 2 {
		t.Errorf("counters = (%d, %d), want (1, 2)", completed, total)
	}

	completed, total, err = repo.IncrementCompletedBatches(ctx, cycle.ID)
	if err != nil {
		t.Fatal(err)
	}
	if completed != 2 || total != 2 {
		t.Errorf("counters = (%d, %d), want (2, 2)", completed, total)
	}

	claimed, err := repo.TryBeginRanking(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("TryBeginRanking() error = %v", err)
	}
	if !claimed {
		t.Fatal("first TryBeginRanking() should claim the cycle")
	}

	claimed, err = repo.TryBeginRanking(ctx, cycle.ID)
	if err != nil {
		t.Fatal(err)
	}
	if claimed {
		t.Error("second TryBeginRanking() must not claim again")
	}

	if err := repo.FinishCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("FinishCycle() error = %v", err)
	}

	got, err := repo.GetCycle(ctx, cycle.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != leaderboarddb.CycleStateFinished {
		t.Errorf("State = %s, want finished", got.State)
	}
	if got.FinishedAt.IsZero() {
		t.Error("FinishedAt not set")
	}
}
