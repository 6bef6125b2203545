package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

// Execute implements the go-flags Commander interface for LogCommand.
func (c *LogCommand) Execute(args []string) error {
	return withService(c.globals, func(ctx context.Context, svc *codetime.Service, _ storage.Store, _ *config.Config) error {
		return c.executeWithService(ctx, svc)
	})
}

// executeWithService records the heartbeat against svc (used by tests).
func (c *LogCommand) executeWithService(ctx context.Context, svc *codetime.Service) error {
	ack, err := svc.Record(ctx, codetime.Heartbeat{
		Project:      c.Project,
		RelativeFile: c.RelativeFile,
		Language:     c.Language,
	})
	if err != nil {
		return fmt.Errorf("recording heartbeat: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]any{
			"day":           ack.Day,
			"minute":        time.UnixMilli(ack.Timestamp).In(svc.Location()).Format(time.RFC3339),
			"outcome":       ack.Outcome,
			"total_minutes": ack.TotalMinutes,
		})
	}

	switch ack.Outcome {
	case codetime.OutcomeDuplicate:
		fmt.Printf("Already counted this minute (%s, %s today)\n", ack.Day, formatMinutes(ack.TotalMinutes))
	default:
		fmt.Printf("Logged 1 minute on %s (%s today)\n", ack.Day, formatMinutes(ack.TotalMinutes))
	}
	return nil
}
