package codetime

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/codetime/internal/storage"
)

// Statistics summarizes the whole history. Durations are in seconds.
type Statistics struct {
	TimeSpentToday   int64 `json:"timeSpentToday"`
	MostTimeSpent    int64 `json:"mostTimeSpent"`
	TotalTimeSpent   int64 `json:"totalTimeSpent"`
	AverageTimeSpent int64 `json:"averageTimeSpent"`
	LongestStreak    int   `json:"longestStreak"`
	CurrentStreak    int   `json:"currentStreak"`
}

// Statistics scans every stored day.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	entries, err := s.rangeEntries(ctx, "", "")
	if err != nil {
		return Statistics{}, err
	}

	now := s.now()
	today := now.Format(storage.DayLayout)

	var stats Statistics
	var total, most, active int
	for _, e := range entries {
		if e.Date == today {
			stats.TimeSpentToday = minutesToSeconds(e.TotalMinutes)
		}
		total += e.TotalMinutes
		most = max(most, e.TotalMinutes)
		if e.TotalMinutes > 0 {
			active++
		}
	}
	stats.TotalTimeSpent = minutesToSeconds(total)
	stats.MostTimeSpent = minutesToSeconds(most)
	if active > 0 {
		stats.AverageTimeSpent = stats.TotalTimeSpent / int64(active)
	}

	stats.LongestStreak, stats.CurrentStreak, err = streaks(entries, today)
	if err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

func minutesToSeconds(m int) int64 {
	return int64(m) * 60
}

// streaks walks entries in ascending date order. A run is a sequence of days
// exactly one calendar day apart, each with activity. The current streak is
// the run ending at the last stored day, provided that day is no more than
// CurrentStreakGrace days before today.
func streaks(entries []storage.DailyEntry, today string) (longest, current int, err error) {
	if len(entries) == 0 {
		return 0, 0, nil
	}

	const day = 24 * time.Hour
	run := 0
	var prev time.Time
	for _, e := range entries {
		d, err := time.Parse(storage.DayLayout, e.Date)
		if err != nil {
			return 0, 0, fmt.Errorf("parse day %q: %w", e.Date, err)
		}
		switch {
		case e.TotalMinutes <= 0:
			run = 0
		case run > 0 && d.Sub(prev) == day:
			run++
		default:
			run = 1
		}
		prev = d
		longest = max(longest, run)
	}

	t, err := time.Parse(storage.DayLayout, today)
	if err != nil {
		return 0, 0, fmt.Errorf("parse today %q: %w", today, err)
	}
	if age := t.Sub(prev) / day; age >= 0 && age <= CurrentStreakGrace {
		current = run
	}
	return longest, current, nil
}
