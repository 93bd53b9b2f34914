package leaderboardservice

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	leaderboarddb "github.com/campus-coders-club/cp-board/app/modules/leaderboard/infrastructure/repositories"
	platformclients "github.com/campus-coders-club/cp-board/app/modules/platform/infrastructure/clients"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/eventbus"
	"github.com/campus-coders-club/cp-board/internal/observability"
)

// ------------------------
// Fake user repository
// ------------------------

// FakeUserRepository provides a programmable stub for userdb.Repository.
type FakeUserRepository struct {
	mu    sync.Mutex
	trace []string

	CreateUserFunc          func(ctx context.Context, user *userdb.User) error
	GetAllFunc              func(ctx context.Context) ([]*userdb.User, error)
	GetByIDFunc             func(ctx context.Context, id int64) (*userdb.User, error)
	GetByEmailFunc          func(ctx context.Context, email string) (*userdb.User, error)
	UpdateScoresFunc        func(ctx context.Context, id int64, update *userdb.ScoreUpdate) error
	UpdateRankFunc          func(ctx context.Context, id int64, rank int) error
	UpdatePlatformEntryFunc func(ctx context.Context, email string, platform sharedtypes.Platform, entry sharedtypes.PlatformEntry) error
	ListByTotalScoreFunc    func(ctx context.Context) ([]*userdb.User, error)
	ListRankedFunc          func(ctx context.Context) ([]*userdb.User, error)
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{trace: []string{}}
}

func (f *FakeUserRepository) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeUserRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeUserRepository) CreateUser(ctx context.Context, user *userdb.User) error {
	f.record("CreateUser")
	if f.CreateUserFunc != nil {
		return f.CreateUserFunc(ctx, user)
	}
	return nil
}

func (f *FakeUserRepository) GetAll(ctx context.Context) ([]*userdb.User, error) {
	f.record("GetAll")
	if f.GetAllFunc != nil {
		return f.GetAllFunc(ctx)
	}
	return nil, nil
}

func (f *FakeUserRepository) GetByID(ctx context.Context, id int64) (*userdb.User, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, userdb.ErrUserNotFound
}

func (f *FakeUserRepository) GetByEmail(ctx context.Context, email string) (*userdb.User, error) {
	f.record("GetByEmail")
	if f.GetByEmailFunc != nil {
		return f.GetByEmailFunc(ctx, email)
	}
	return nil, userdb.ErrUserNotFound
}

func (f *FakeUserRepository) UpdateScores(ctx context.Context, id int64, update *userdb.ScoreUpdate) error {
	f.record("UpdateScores")
	if f.UpdateScoresFunc != nil {
		return f.UpdateScoresFunc(ctx, id, update)
	}
	return nil
}

func (f *FakeUserRepository) UpdateRank(ctx context.Context, id int64, rank int) error {
	f.record("UpdateRank")
	if f.UpdateRankFunc != nil {
		return f.UpdateRankFunc(ctx, id, rank)
	}
	return nil
}

func (f *FakeUserRepository) UpdatePlatformEntry(ctx context.Context, email string, platform sharedtypes.Platform, entry sharedtypes.PlatformEntry) error {
	f.record("UpdatePlatformEntry")
	if f.UpdatePlatformEntryFunc != nil {
		return f.UpdatePlatformEntryFunc(ctx, email, platform, entry)
	}
	return nil
}

func (f *FakeUserRepository) ListByTotalScore(ctx context.Context) ([]*userdb.User, error) {
	f.record("ListByTotalScore")
	if f.ListByTotalScoreFunc != nil {
		return f.ListByTotalScoreFunc(ctx)
	}
	return nil, nil
}

func (f *FakeUserRepository) ListRanked(ctx context.Context) ([]*userdb.User, error) {
	f.record("ListRanked")
	if f.ListRankedFunc != nil {
		return f.ListRankedFunc(ctx)
	}
	return nil, nil
}

// ------------------------
// Fake cycle repository
// ------------------------

// FakeCycleRepository keeps cycles in memory with the same state-machine
// semantics as the bun implementation.
type FakeCycleRepository struct {
	mu     sync.Mutex
	cycles map[uuid.UUID]*leaderboarddb.RefreshCycle

	CreateCycleFunc               func(ctx context.Context, cycle *leaderboarddb.RefreshCycle) error
	GetCycleFunc                  func(ctx context.Context, id uuid.UUID) (*leaderboarddb.RefreshCycle, error)
	IncrementCompletedBatchesFunc func(ctx context.Context, id uuid.UUID) (int, int, error)
	TryBeginRankingFunc           func(ctx context.Context, id uuid.UUID) (bool, error)
	FinishCycleFunc               func(ctx context.Context, id uuid.UUID) error
}

func NewFakeCycleRepository() *FakeCycleRepository {
	return &FakeCycleRepository{cycles: map[uuid.UUID]*leaderboarddb.RefreshCycle{}}
}

func (f *FakeCycleRepository) CreateCycle(ctx context.Context, cycle *leaderboarddb.RefreshCycle) error {
	if f.CreateCycleFunc != nil {
		return f.CreateCycleFunc(ctx, cycle)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if cycle.ID == uuid.Nil {
		cycle.ID = uuid.New()
	}
	stored := *cycle
	f.cycles[cycle.ID] = &stored
	return nil
}

func (f *FakeCycleRepository) GetCycle(ctx context.Context, id uuid.UUID) (*leaderboarddb.RefreshCycle, error) {
	if f.GetCycleFunc != nil {
		return f.GetCycleFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cycle, ok := f.cycles[id]
	if !ok {
		return nil, leaderboarddb.ErrCycleNotFound
	}
	out := *cycle
	return &out, nil
}

func (f *FakeCycleRepository) IncrementCompletedBatches(ctx context.Context, id uuid.UUID) (int, int, error) {
	if f.IncrementCompletedBatchesFunc != nil {
		return f.IncrementCompletedBatchesFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cycle, ok := f.cycles[id]
	if !ok {
		return 0, 0, leaderboarddb.ErrCycleNotFound
	}
	cycle.CompletedBatches++
	return cycle.CompletedBatches, cycle.TotalBatches, nil
}

func (f *FakeCycleRepository) TryBeginRanking(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.TryBeginRankingFunc != nil {
		return f.TryBeginRankingFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cycle, ok := f.cycles[id]
	if !ok {
		return false, leaderboarddb.ErrCycleNotFound
	}
	if cycle.State != leaderboarddb.CycleStateRunning {
		return false, nil
	}
	cycle.State = leaderboarddb.CycleStateRanking
	return true, nil
}

func (f *FakeCycleRepository) FinishCycle(ctx context.Context, id uuid.UUID) error {
	if f.FinishCycleFunc != nil {
		return f.FinishCycleFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cycle, ok := f.cycles[id]
	if !ok {
		return leaderboarddb.ErrCycleNotFound
	}
	cycle.State = leaderboarddb.CycleStateFinished
	cycle.FinishedAt = time.Now()
	return nil
}

// ------------------------
// Fake scheduler
// ------------------------

type scheduledBatch struct {
	CycleID    uuid.UUID
	BatchIndex int
	UserIDs    []int64
	RunAt      time.Time
}

type scheduledRank struct {
	CycleID uuid.UUID
	RunAt   time.Time
}

// FakeScheduler records scheduled work instead of enqueueing it.
type FakeScheduler struct {
	mu      sync.Mutex
	Batches []scheduledBatch
	Ranks   []scheduledRank

	ScheduleBatchFunc        func(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64, runAt time.Time) error
	ScheduleRankFallbackFunc func(ctx context.Context, cycleID uuid.UUID, runAt time.Time) error
}

func (f *FakeScheduler) ScheduleBatch(ctx context.Context, cycleID uuid.UUID, batchIndex int, userIDs []int64, runAt time.Time) error {
	if f.ScheduleBatchFunc != nil {
		return f.ScheduleBatchFunc(ctx, cycleID, batchIndex, userIDs, runAt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Batches = append(f.Batches, scheduledBatch{CycleID: cycleID, BatchIndex: batchIndex, UserIDs: userIDs, RunAt: runAt})
	return nil
}

func (f *FakeScheduler) ScheduleRankFallback(ctx context.Context, cycleID uuid.UUID, runAt time.Time) error {
	if f.ScheduleRankFallbackFunc != nil {
		return f.ScheduleRankFallbackFunc(ctx, cycleID, runAt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ranks = append(f.Ranks, scheduledRank{CycleID: cycleID, RunAt: runAt})
	return nil
}

// ------------------------
// Fake fetcher
// ------------------------

// FakeFetcher returns a fixed score per username, or previous when the
// username is unknown.
type FakeFetcher struct {
	platform sharedtypes.Platform
	Scores   map[string]int

	mu    sync.Mutex
	Calls []string
}

var _ platformclients.StatFetcher = (*FakeFetcher)(nil)

func NewFakeFetcher(platform sharedtypes.Platform, scores map[string]int) *FakeFetcher {
	return &FakeFetcher{platform: platform, Scores: scores}
}

func (f *FakeFetcher) Platform() sharedtypes.Platform { return f.platform }

func (f *FakeFetcher) Fetch(_ context.Context, username string, previous int) int {
	f.mu.Lock()
	f.Calls = append(f.Calls, username)
	f.mu.Unlock()
	if score, ok := f.Scores[username]; ok {
		return score
	}
	return previous
}

// ------------------------
// Service under test
// ------------------------

type testDeps struct {
	users     *FakeUserRepository
	cycles    *FakeCycleRepository
	scheduler *FakeScheduler
	fetchers  map[sharedtypes.Platform]platformclients.StatFetcher
}

func newTestService(deps testDeps, cfg Config) *LeaderboardService {
	if deps.users == nil {
		deps.users = NewFakeUserRepository()
	}
	if deps.cycles == nil {
		deps.cycles = NewFakeCycleRepository()
	}
	if deps.scheduler == nil {
		deps.scheduler = &FakeScheduler{}
	}
	if deps.fetchers == nil {
		deps.fetchers = map[sharedtypes.Platform]platformclients.StatFetcher{}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLeaderboardService(
		deps.users,
		deps.cycles,
		deps.fetchers,
		deps.scheduler,
		eventbus.NoOpPublisher{},
		logger,
		&observability.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		cfg,
	)
}
