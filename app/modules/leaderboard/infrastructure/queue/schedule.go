package leaderboardqueue

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DailySchedule fires once a day at a fixed wall-clock time in a fixed
// timezone. It implements river's PeriodicSchedule.
type DailySchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// ParseDailySchedule builds a DailySchedule from "HH:MM" and a timezone name.
func ParseDailySchedule(at, timezone string) (DailySchedule, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return DailySchedule{}, fmt.Errorf("invalid refresh time %q, want HH:MM", at)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return DailySchedule{}, fmt.Errorf("invalid refresh hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return DailySchedule{}, fmt.Errorf("invalid refresh minute in %q", at)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return DailySchedule{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	return DailySchedule{Hour: hour, Minute: minute, Location: loc}, nil
}

// Next returns the next occurrence of the configured wall-clock time
// strictly after current.
func (s DailySchedule) Next(current time.Time) time.Time {
	local := current.In(s.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, s.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
