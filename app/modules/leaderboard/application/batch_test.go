package leaderboardservice

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPartitionIDs(t *testing.T) {
	tests := []struct {
		name      string
		ids       []int64
		batchSize int
		want      [][]int64
	}{
		{
			name:      "empty input",
			ids:       nil,
			batchSize: 10,
			want:      nil,
		},
		{
			name:      "single short batch",
			ids:       []int64{1, 2, 3},
			batchSize: 10,
			want:      [][]int64{{1, 2, 3}},
		},
		{
			name:      "exact multiple",
			ids:       []int64{1, 2, 3, 4},
			batchSize: 2,
			want:      [][]int64{{1, 2}, {3, 4}},
		},
		{
			name:      "short final batch",
			ids:       []int64{1, 2, 3, 4, 5},
			batchSize: 2,
			want:      [][]int64{{1, 2}, {3, 4}, {5}},
		},
		{
			name:      "batch size one",
			ids:       []int64{7, 8},
			batchSize: 1,
			want:      [][]int64{{7}, {8}},
		},
		{
			name:      "non-positive batch size keeps everything together",
			ids:       []int64{1, 2, 3},
			batchSize: 0,
			want:      [][]int64{{1, 2, 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartitionIDs(tt.ids, tt.batchSize)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PartitionIDs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartitionIDsCoversEveryIDOnce(t *testing.T) {
	ids := make([]int64, 97)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	batches := PartitionIDs(ids, 10)

	seen := map[int64]int{}
	for _, batch := range batches {
		for _, id := range batch {
			seen[id]++
		}
	}
	if len(seen) != len(ids) {
		t.Fatalf("expected %d distinct ids, got %d", len(ids), len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("id %d appeared %d times", id, count)
		}
	}
	if got := len(batches); got != 10 {
		t.Errorf("expected 10 batches, got %d", got)
	}
	if got := len(batches[9]); got != 7 {
		t.Errorf("expected final batch of 7, got %d", got)
	}
}

func TestBatchStart(t *testing.T) {
	base := time.Date(2026, 2, 1, 2, 0, 0, 0, time.UTC)
	interval := time.Minute

	if got := batchStart(base, 0, interval); !got.Equal(base) {
		t.Errorf("batch 0 should start at base, got %v", got)
	}
	if got := batchStart(base, 3, interval); !got.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("batch 3 should start 3 intervals later, got %v", got)
	}
}

func TestRankFallbackAt(t *testing.T) {
	base := time.Date(2026, 2, 1, 2, 0, 0, 0, time.UTC)

	got := rankFallbackAt(base, 5, time.Minute, 5*time.Second)
	want := base.Add(5*time.Minute + 5*time.Second)
	if !got.Equal(want) {
		t.Errorf("rankFallbackAt() = %v, want %v", got, want)
	}
}
