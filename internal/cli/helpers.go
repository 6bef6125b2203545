package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/logging"
	"github.com/runnerr0/codetime/internal/storage"
)

// loadConfig reads --config when given, otherwise the default path, writing
// defaults on first use.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.Load(globals.Config)
	}
	return config.LoadOrCreate()
}

// initCLILogging keeps one-shot commands quiet unless --verbose is set.
func initCLILogging(globals *GlobalFlags) {
	level := "warn"
	if globals != nil && globals.Verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: "console", Output: os.Stderr})
}

// openStore opens the configured backend with migrations applied.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		dir, err := cfg.BadgerPath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		store, err := storage.OpenBadger(dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		path, err := cfg.DBPath()
		if err != nil {
			return nil, err
		}
		store, err := storage.OpenSQLite(ctx, path, storage.SQLiteOptions{
			JournalMode:   cfg.Storage.SQLiteJournalMode,
			BusyTimeoutMS: cfg.Storage.BusyTimeoutMS,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// newService builds the engine with the configured time zone and
// placeholder values.
func newService(cfg *config.Config, store storage.Store, opts ...codetime.Option) (*codetime.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("aggregation.timezone: %w", err)
	}
	base := []codetime.Option{
		codetime.WithLocation(loc),
		codetime.WithRejectedValues(cfg.Aggregation.RejectedValues),
	}
	return codetime.New(store, append(base, opts...)...), nil
}

// withService loads config, opens the store and runs fn against a service.
func withService(globals *GlobalFlags, fn func(ctx context.Context, svc *codetime.Service, store storage.Store, cfg *config.Config) error) error {
	initCLILogging(globals)

	cfg, err := loadConfig(globals)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	svc, err := newService(cfg, store)
	if err != nil {
		return err
	}
	return fn(ctx, svc, store, cfg)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatMinutes renders minutes as "2h 05m", or "45m" under an hour.
func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

// formatSeconds renders whole seconds like formatMinutes, dropping seconds.
func formatSeconds(s int64) string {
	return formatMinutes(int(s / 60))
}

// bar draws n blocks scaled so peak fills width.
func bar(n, peak, width int) string {
	if n <= 0 || peak <= 0 {
		return ""
	}
	w := n * width / peak
	if w == 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
		if len(s) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(s); i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
