package codetime

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/runnerr0/codetime/internal/storage"
)

// DayDuration is one day of the EachDay breakdown.
type DayDuration struct {
	Date       string `json:"date"`
	DurationMs int64  `json:"duration"`
}

// LastXDays returns every stored day on or after today minus days.
func (s *Service) LastXDays(ctx context.Context, days int) ([]storage.DailyEntry, error) {
	if days < 0 || days > MaxLastXDays {
		return nil, invalidf("days must be between 0 and %d, got %d", MaxLastXDays, days)
	}
	from := s.dayKey(s.now().AddDate(0, 0, -days))
	return s.rangeEntries(ctx, from, "")
}

// TopProjects ranks projects by minutes over w.
func (s *Service) TopProjects(ctx context.Context, w Window) (storage.Counter, error) {
	return s.top(ctx, w, func(e *storage.DailyEntry) storage.Counter { return e.Projects })
}

// TopLanguages ranks languages by minutes over w.
func (s *Service) TopLanguages(ctx context.Context, w Window) (storage.Counter, error) {
	return s.top(ctx, w, func(e *storage.DailyEntry) storage.Counter { return e.Languages })
}

func (s *Service) top(ctx context.Context, w Window, dim func(*storage.DailyEntry) storage.Counter) (storage.Counter, error) {
	w, err := ParseWindow(string(w))
	if err != nil {
		return storage.Counter{}, err
	}
	from := s.dayKey(w.Start(s.now()))
	entries, err := s.rangeEntries(ctx, from, "")
	if err != nil {
		return storage.Counter{}, err
	}
	return rank(entries, dim), nil
}

// rank sums one dimension across entries and orders it by descending
// minutes. Ties keep the order in which keys were first seen.
func rank(entries []storage.DailyEntry, dim func(*storage.DailyEntry) storage.Counter) storage.Counter {
	totals := storage.NewCounter()
	for i := range entries {
		dim(&entries[i]).Each(func(key string, minutes int) {
			totals.Add(key, minutes)
		})
	}

	keys := totals.Keys()
	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Compare(totals.Get(b), totals.Get(a))
	})

	ranked := storage.NewCounter()
	for _, k := range keys {
		ranked.Add(k, totals.Get(k))
	}
	return ranked
}

// EachDay reports the minutes of every stored day from EachDayWindow days
// ago through today. Days without an entry are left out.
func (s *Service) EachDay(ctx context.Context) ([]DayDuration, error) {
	now := s.now()
	entries, err := s.rangeEntries(ctx, s.dayKey(now.AddDate(0, 0, -EachDayWindow)), s.dayKey(now))
	if err != nil {
		return nil, err
	}
	out := make([]DayDuration, 0, len(entries))
	for _, e := range entries {
		out = append(out, DayDuration{
			Date:       e.Date,
			DurationMs: int64(e.TotalMinutes) * int64(time.Minute/time.Millisecond),
		})
	}
	return out, nil
}

// maxLookbackMinutes is the largest minute count a time.Duration can hold.
const maxLookbackMinutes = math.MaxInt64 / int64(time.Minute)

// UserMinutes sums the minutes of every day touched by the trailing window
// of the given length. Whole days are counted.
func (s *Service) UserMinutes(ctx context.Context, minutes int) (int, error) {
	if minutes < 0 {
		return 0, invalidf("minutes must not be negative, got %d", minutes)
	}
	// Beyond what a Duration can hold the window covers all of history.
	var from string
	if int64(minutes) <= maxLookbackMinutes {
		from = s.dayKey(s.now().Add(-time.Duration(minutes) * time.Minute))
	}
	entries, err := s.rangeEntries(ctx, from, "")
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		total += e.TotalMinutes
	}
	return total, nil
}
