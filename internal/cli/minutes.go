package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

// Execute implements the go-flags Commander interface for MinutesCommand.
func (c *MinutesCommand) Execute(args []string) error {
	return withService(c.globals, func(ctx context.Context, svc *codetime.Service, _ storage.Store, _ *config.Config) error {
		return c.executeWithService(ctx, svc)
	})
}

// executeWithService prints the minute total from svc (used by tests).
func (c *MinutesCommand) executeWithService(ctx context.Context, svc *codetime.Service) error {
	total, err := svc.UserMinutes(ctx, c.Minutes)
	if err != nil {
		return fmt.Errorf("user minutes: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]int{"minutes": total})
	}
	fmt.Println(total)
	return nil
}
