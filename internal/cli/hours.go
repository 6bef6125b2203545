package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

// Execute implements the go-flags Commander interface for HoursCommand.
func (c *HoursCommand) Execute(args []string) error {
	return withService(c.globals, func(ctx context.Context, svc *codetime.Service, _ storage.Store, _ *config.Config) error {
		return c.executeWithService(ctx, svc)
	})
}

// executeWithService prints the hour distribution from svc (used by tests).
func (c *HoursCommand) executeWithService(ctx context.Context, svc *codetime.Service) error {
	dist, err := svc.TimeDistribution(ctx)
	if err != nil {
		return fmt.Errorf("time distribution: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(dist)
	}

	peak := 0
	for _, m := range dist {
		if m > peak {
			peak = m
		}
	}
	fmt.Printf("Minutes per hour of day (%s)\n", svc.Location())
	for hour, m := range dist {
		fmt.Printf("%02d:00  %9s  %s\n", hour, formatMinutes(m), bar(m, peak, 40))
	}
	return nil
}
