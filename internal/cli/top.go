package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

type rankJSON struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// Execute implements the go-flags Commander interface for TopCommand.
func (c *TopCommand) Execute(args []string) error {
	return withService(c.globals, func(ctx context.Context, svc *codetime.Service, _ storage.Store, _ *config.Config) error {
		return c.executeWithService(ctx, svc)
	})
}

// executeWithService prints the ranking from svc (used by tests).
func (c *TopCommand) executeWithService(ctx context.Context, svc *codetime.Service) error {
	window, err := codetime.ParseWindow(c.Last)
	if err != nil {
		return err
	}

	var ranked storage.Counter
	dimension := "Projects"
	if c.Languages {
		dimension = "Languages"
		ranked, err = svc.TopLanguages(ctx, window)
	} else {
		ranked, err = svc.TopProjects(ctx, window)
	}
	if err != nil {
		return fmt.Errorf("ranking %s: %w", dimension, err)
	}

	rows := make([]rankJSON, 0, ranked.Len())
	ranked.Each(func(key string, minutes int) {
		if c.Limit > 0 && len(rows) >= c.Limit {
			return
		}
		rows = append(rows, rankJSON{Name: key, Minutes: minutes})
	})

	if c.globals != nil && c.globals.JSON {
		return printJSON(rows)
	}

	fmt.Printf("Top %s (last %s)\n", dimension, window)
	if len(rows) == 0 {
		fmt.Println("  no activity")
		return nil
	}
	peak := rows[0].Minutes
	for i, r := range rows {
		fmt.Printf("%3d. %-30s %9s  %s\n", i+1, r.Name, formatMinutes(r.Minutes), bar(r.Minutes, peak, 20))
	}
	return nil
}
