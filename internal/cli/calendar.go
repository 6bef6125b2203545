package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

// levelGlyphs renders heat levels 0..MaxLevel.
var levelGlyphs = [codetime.MaxLevel + 1]string{"·", "1", "2", "3", "4", "5", "6"}

// Execute implements the go-flags Commander interface for CalendarCommand.
func (c *CalendarCommand) Execute(args []string) error {
	return withService(c.globals, func(ctx context.Context, svc *codetime.Service, _ storage.Store, _ *config.Config) error {
		return c.executeWithService(ctx, svc)
	})
}

// executeWithService prints the calendar from svc (used by tests).
func (c *CalendarCommand) executeWithService(ctx context.Context, svc *codetime.Service) error {
	cal, err := svc.Activities(ctx, c.Year)
	if err != nil {
		return fmt.Errorf("building calendar: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(cal)
	}

	if len(cal.Data) == 0 {
		fmt.Printf("No activity recorded for this year (first year: %d)\n", cal.FirstYear)
		return nil
	}

	fmt.Printf("Activity %s .. %s (first year: %d)\n", cal.Data[0].Date, cal.Data[len(cal.Data)-1].Date, cal.FirstYear)
	month := ""
	var line strings.Builder
	flush := func() {
		if month != "" {
			fmt.Printf("%s  %s\n", month, line.String())
		}
		line.Reset()
	}
	for _, d := range cal.Data {
		if m := d.Date[:7]; m != month {
			flush()
			month = m
		}
		line.WriteString(levelGlyphs[d.Level])
	}
	flush()
	return nil
}
