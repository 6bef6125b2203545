package codetime

import (
	"fmt"
	"time"
)

// LevelThresholds are the ascending hour boundaries of calendar levels 1-5.
// A day with hours below LevelThresholds[i] gets level i+1; anything at or
// above the last threshold gets MaxLevel.
var LevelThresholds = [...]float64{1, 3, 5, 7, 9}

// MaxLevel is the level of days at or above the last threshold.
const MaxLevel = len(LevelThresholds) + 1

const (
	// MaxLastXDays caps LastXDays.
	MaxLastXDays = 30

	// EachDayWindow is how many days before today EachDay reports.
	EachDayWindow = 30

	// CurrentStreakGrace is how many days old the most recent active day may
	// be for its run to still count as the current streak.
	CurrentStreakGrace = 1
)

// Level buckets a day's minutes into a heat level from 0 to MaxLevel.
func Level(totalMinutes int) int {
	if totalMinutes <= 0 {
		return 0
	}
	hours := float64(totalMinutes) / 60
	for i, threshold := range LevelThresholds {
		if hours < threshold {
			return i + 1
		}
	}
	return MaxLevel
}

// Window is a trailing range used by the ranking queries.
type Window string

const (
	Window24Hours Window = "24 hours"
	Window7Days   Window = "7 days"
	Window30Days  Window = "30 days"

	DefaultWindow = Window7Days
)

// ParseWindow accepts the three window names. An empty string selects
// DefaultWindow.
func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case "":
		return DefaultWindow, nil
	case Window24Hours, Window7Days, Window30Days:
		return w, nil
	default:
		return "", invalidf("unknown window %q (want %q, %q or %q)", s, Window24Hours, Window7Days, Window30Days)
	}
}

// Start returns the instant the window opens when it ends at now.
func (w Window) Start(now time.Time) time.Time {
	switch w {
	case Window24Hours:
		return now.Add(-24 * time.Hour)
	case Window30Days:
		return now.AddDate(0, 0, -30)
	default:
		return now.AddDate(0, 0, -7)
	}
}

func (w Window) String() string {
	return string(w)
}

// yearBounds returns the first and last day keys of year.
func yearBounds(year int) (string, string) {
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year)
}
