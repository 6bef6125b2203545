package codetime

import (
	"context"
	"errors"
	"time"

	"github.com/runnerr0/codetime/internal/metrics"
	"github.com/runnerr0/codetime/internal/storage"
)

// CalendarDay is one cell of the activity calendar.
type CalendarDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// Calendar is a year of activity. FirstYear is the year of the earliest
// stored day, for bounding a year picker.
type Calendar struct {
	Data      []CalendarDay `json:"data"`
	FirstYear int           `json:"firstYear"`
}

// Activities builds the calendar for year; year <= 0 selects the current
// year. When the year has any data, Jan 1 and Dec 31 are always present so
// the calendar spans the full year. A year without data is not an error.
func (s *Service) Activities(ctx context.Context, year int) (Calendar, error) {
	if year <= 0 {
		year = s.now().Year()
	}
	first, last := yearBounds(year)

	entries, err := s.rangeEntries(ctx, first, last)
	if err != nil {
		return Calendar{}, err
	}
	firstYear, err := s.firstYear(ctx, year)
	if err != nil {
		return Calendar{}, err
	}
	if len(entries) == 0 {
		return Calendar{Data: []CalendarDay{}, FirstYear: firstYear}, nil
	}

	days := make([]CalendarDay, 0, len(entries)+2)
	if entries[0].Date != first {
		days = append(days, CalendarDay{Date: first})
	}
	for _, e := range entries {
		days = append(days, CalendarDay{Date: e.Date, Count: e.TotalMinutes, Level: Level(e.TotalMinutes)})
	}
	if entries[len(entries)-1].Date != last {
		days = append(days, CalendarDay{Date: last})
	}
	return Calendar{Data: days, FirstYear: firstYear}, nil
}

// firstYear returns the year of the earliest stored day, or fallback when
// the store is empty.
func (s *Service) firstYear(ctx context.Context, fallback int) (int, error) {
	start := s.clock.Now()
	e, err := s.store.Earliest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		metrics.RecordStoreOp("earliest", s.clock.Since(start), nil)
		return fallback, nil
	}
	metrics.RecordStoreOp("earliest", s.clock.Since(start), err)
	if err != nil {
		return 0, storeErr("earliest entry", err)
	}
	d, err := time.Parse(storage.DayLayout, e.Date)
	if err != nil {
		return fallback, nil
	}
	return d.Year(), nil
}
