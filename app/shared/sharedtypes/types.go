package sharedtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Platform identifies one of the external services we track per user.
type Platform string

const (
	PlatformCodeChef   Platform = "codechef"
	PlatformCodeforces Platform = "codeforces"
	PlatformLeetCode   Platform = "leetcode"
	PlatformGitHub     Platform = "github"
)

// Platforms lists every tracked platform in aggregation order.
var Platforms = []Platform{
	PlatformCodeChef,
	PlatformCodeforces,
	PlatformLeetCode,
	PlatformGitHub,
}

// IsValid reports whether p is one of the tracked platforms.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformCodeChef, PlatformCodeforces, PlatformLeetCode, PlatformGitHub:
		return true
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// PlatformEntry holds a user's registration and last-known score for one
// platform. An empty Username means the platform contributes its last-known
// score unchanged during aggregation.
type PlatformEntry struct {
	Username string `json:"username,omitempty"`
	Score    int    `json:"score"`
}

// PlatformScores is the per-user platform map, stored as jsonb.
type PlatformScores map[Platform]PlatformEntry

// Entry returns the stored entry for p, or a zero entry if absent.
func (ps PlatformScores) Entry(p Platform) PlatformEntry {
	if ps == nil {
		return PlatformEntry{}
	}
	return ps[p]
}

// Total sums the stored scores across all tracked platforms.
func (ps PlatformScores) Total() int {
	total := 0
	for _, p := range Platforms {
		total += ps.Entry(p).Score
	}
	return total
}

// Value implements driver.Valuer so the map binds as jsonb.
func (ps PlatformScores) Value() (driver.Value, error) {
	if ps == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(ps)
}

// Scan implements sql.Scanner for jsonb columns.
func (ps *PlatformScores) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ps = PlatformScores{}
		return nil
	case []byte:
		return json.Unmarshal(v, ps)
	case string:
		return json.Unmarshal([]byte(v), ps)
	default:
		return fmt.Errorf("unsupported platform scores source type %T", src)
	}
}

// RefreshSource records what triggered a refresh cycle.
type RefreshSource string

const (
	RefreshSourceManual    RefreshSource = "manual"
	RefreshSourceScheduled RefreshSource = "scheduled"
)
