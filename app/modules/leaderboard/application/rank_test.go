package leaderboardservice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
)

func TestRecomputeRanks(t *testing.T) {
	users := NewFakeUserRepository()

	// ListByTotalScore contract: total_score DESC, ties by id ASC.
	users.ListByTotalScoreFunc = func(context.Context) ([]*userdb.User, error) {
		return []*userdb.User{
			{ID: 3, TotalScore: 90},
			{ID: 1, TotalScore: 40},
			{ID: 4, TotalScore: 40},
			{ID: 2, TotalScore: 10},
		}, nil
	}

	ranks := map[int64]int{}
	users.UpdateRankFunc = func(_ context.Context, id int64, rank int) error {
		ranks[id] = rank
		return nil
	}

	service := newTestService(testDeps{users: users}, Config{})

	if err := service.RecomputeRanks(context.Background()); err != nil {
		t.Fatalf("RecomputeRanks() error = %v", err)
	}

	want := map[int64]int{3: 1, 1: 2, 4: 3, 2: 4}
	if diff := cmp.Diff(want, ranks); diff != "" {
		t.Errorf("ranks mismatch (-want +got):\n%s", diff)
	}
}

func TestRecomputeRanksContinuesPastWriteFailure(t *testing.T) {
	users := NewFakeUserRepository()
	users.ListByTotalScoreFunc = func(context.Context) ([]*userdb.User, error) {
		return []*userdb.User{{ID: 1, TotalScore: 3}, {ID: 2, TotalScore: 2}, {ID: 3, TotalScore: 1}}, nil
	}

	ranks := map[int64]int{}
	users.UpdateRankFunc = func(_ context.Context, id int64, rank int) error {
		if id == 2 {
			return errors.New("write failed")
		}
		ranks[id] = rank
		return nil
	}

	service := newTestService(testDeps{users: users}, Config{})

	if err := service.RecomputeRanks(context.Background()); err != nil {
		t.Fatalf("RecomputeRanks() error = %v", err)
	}

	want := map[int64]int{1: 1, 3: 3}
	if diff := cmp.Diff(want, ranks); diff != "" {
		t.Errorf("ranks mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRankFallback(t *testing.T) {
	t.Run("ranks an unfinished cycle", func(t *testing.T) {
		cycles := NewFakeCycleRepository()
		cycle := &leaderboarddb.RefreshCycle{
			State:            leaderboarddb.CycleStateRunning,
			TotalBatches:     3,
			CompletedBatches: 2,
		}
		if err := cycles.CreateCycle(context.Background(), cycle); err != nil {
			t.Fatal(err)
		}

		service := newTestService(testDeps{cycles: cycles}, Config{})

		if err := service.RunRankFallback(context.Background(), cycle.ID); err != nil {
			t.Fatalf("RunRankFallback() error = %v", err)
		}

		got, err := cycles.GetCycle(context.Background(), cycle.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.State != leaderboarddb.CycleStateFinished {
			t.Errorf("State = %s, want finished", got.State)
		}
	})

	t.Run("no-ops when the cycle is already ranked", func(t *testing.T) {
		users := NewFakeUserRepository()
		cycles := NewFakeCycleRepository()

		cycle := &leaderboarddb.RefreshCycle{
			State:            leaderboarddb.CycleStateFinished,
			TotalBatches:     1,
			CompletedBatches: 1,
		}
		if err := cycles.CreateCycle(context.Background(), cycle); err != nil {
			t.Fatal(err)
		}

		service := newTestService(testDeps{users: users, cycles: cycles}, Config{})

		if err := service.RunRankFallback(context.Background(), cycle.ID); err != nil {
			t.Fatalf("RunRankFallback() error = %v", err)
		}

		for _, step := range users.Trace() {
			if step == "ListByTotalScore" || step == "UpdateRank" {
				t.Errorf("rank recomputation ran on an already-finished cycle (%s)", step)
			}
		}
	})

	t.Run("unknown cycle fails", func(t *testing.T) {
		cycles := NewFakeCycleRepository()
		service := newTestService(testDeps{cycles: cycles}, Config{})

		err := service.RunRankFallback(context.Background(), uuid.New())
		if !errors.Is(err, leaderboarddb.ErrCycleNotFound) {
			t.Errorf("error = %v, want ErrCycleNotFound", err)
		}
	})
}

func TestRankCycleClaimedOnce(t *testing.T) {
	// Completion-triggered ranking and the fallback race for the same cycle;
	// exactly one of them may recompute ranks.
	users := NewFakeUserRepository()
	cycles := NewFakeCycleRepository()

	cycle := &leaderboarddb.RefreshCycle{
		State:            leaderboarddb.CycleStateRunning,
		TotalBatches:     1,
		CompletedBatches: 1,
	}
	if err := cycles.CreateCycle(context.Background(), cycle); err != nil {
		t.Fatal(err)
	}

	rankSweeps := 0
	users.ListByTotalScoreFunc = func(context.Context) ([]*userdb.User, error) {
		rankSweeps++
		return nil, nil
	}

	service := newTestService(testDeps{users: users, cycles: cycles}, Config{})

	if err := service.rankCycle(context.Background(), cycle.ID, false); err != nil {
		t.Fatalf("first rankCycle() error = %v", err)
	}
	if err := service.rankCycle(context.Background(), cycle.ID, true); err != nil {
		t.Fatalf("second rankCycle() error = %v", err)
	}

	if rankSweeps != 1 {
		t.Errorf("rank sweep ran %d times, want exactly 1", rankSweeps)
	}
}
