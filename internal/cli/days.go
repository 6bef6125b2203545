package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

// Execute implements the go-flags Commander interface for DaysCommand.
func (c *DaysCommand) Execute(args []string) error {
	return withService(c.globals, func(ctx context.Context, svc *codetime.Service, _ storage.Store, _ *config.Config) error {
		return c.executeWithService(ctx, svc)
	})
}

// executeWithService prints recent days from svc (used by tests).
func (c *DaysCommand) executeWithService(ctx context.Context, svc *codetime.Service) error {
	if c.Each {
		return c.printEachDay(ctx, svc)
	}

	entries, err := svc.LastXDays(ctx, c.Days)
	if err != nil {
		return fmt.Errorf("listing days: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		if entries == nil {
			entries = []storage.DailyEntry{}
		}
		return printJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Printf("No activity in the last %d days\n", c.Days)
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %9s  %-24s %s\n", e.Date, formatMinutes(e.TotalMinutes), firstKey(e.Projects), firstKey(e.Languages))
	}
	return nil
}

func (c *DaysCommand) printEachDay(ctx context.Context, svc *codetime.Service) error {
	days, err := svc.EachDay(ctx)
	if err != nil {
		return fmt.Errorf("listing days: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		if days == nil {
			days = []codetime.DayDuration{}
		}
		return printJSON(days)
	}

	peak := int64(0)
	for _, d := range days {
		if d.DurationMs > peak {
			peak = d.DurationMs
		}
	}
	for _, d := range days {
		minutes := int(d.DurationMs / 60_000)
		fmt.Printf("%s  %9s  %s\n", d.Date, formatMinutes(minutes), bar(minutes, int(peak/60_000), 30))
	}
	return nil
}

// firstKey returns the busiest key of a day's counter.
func firstKey(c storage.Counter) string {
	best, bestMinutes := "", -1
	c.Each(func(key string, minutes int) {
		if minutes > bestMinutes {
			best, bestMinutes = key, minutes
		}
	})
	return best
}
