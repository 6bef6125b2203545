package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string              `json:"version"`
	Backend           string              `json:"backend"`
	StoragePath       string              `json:"storage_path"`
	DatabaseSizeBytes int64               `json:"database_size_bytes,omitempty"`
	DaysRecorded      int64               `json:"days_recorded,omitempty"`
	Timezone          string              `json:"timezone"`
	DaemonRunning     bool                `json:"daemon_running"`
	Statistics        codetime.Statistics `json:"statistics"`
}

// storeInfo describes where and how much data is stored.
type storeInfo struct {
	backend string
	path    string
	size    int64
	days    int64
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withService(c.globals, func(ctx context.Context, svc *codetime.Service, store storage.Store, cfg *config.Config) error {
		info := describeStore(ctx, cfg, store)
		daemonURL := "http://" + net.JoinHostPort(cfg.Daemon.Host, strconv.Itoa(cfg.Daemon.Port))
		return c.executeWithService(ctx, svc, info, checkDaemon(daemonURL))
	})
}

// executeWithService prints statistics from svc (used by tests).
func (c *StatusCommand) executeWithService(ctx context.Context, svc *codetime.Service, info storeInfo, daemonRunning bool) error {
	stats, err := svc.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(statusJSON{
			Version:           c.version,
			Backend:           info.backend,
			StoragePath:       info.path,
			DatabaseSizeBytes: info.size,
			DaysRecorded:      info.days,
			Timezone:          svc.Location().String(),
			DaemonRunning:     daemonRunning,
			Statistics:        stats,
		})
	}

	fmt.Println("codetime Status")
	fmt.Println("===============")
	fmt.Printf("Version:        %s\n", c.version)
	if info.size > 0 {
		fmt.Printf("Storage:        %s %s (%s)\n", info.backend, info.path, formatBytes(info.size))
	} else {
		fmt.Printf("Storage:        %s %s\n", info.backend, info.path)
	}
	if info.days > 0 {
		fmt.Printf("Days recorded:  %s\n", formatNumber(info.days))
	}
	fmt.Printf("Timezone:       %s\n", svc.Location())
	fmt.Println()
	fmt.Printf("Today:          %s\n", formatSeconds(stats.TimeSpentToday))
	fmt.Printf("Best day:       %s\n", formatSeconds(stats.MostTimeSpent))
	fmt.Printf("Total:          %s\n", formatSeconds(stats.TotalTimeSpent))
	fmt.Printf("Daily average:  %s\n", formatSeconds(stats.AverageTimeSpent))
	fmt.Printf("Current streak: %d days\n", stats.CurrentStreak)
	fmt.Printf("Longest streak: %d days\n", stats.LongestStreak)
	fmt.Println()
	if daemonRunning {
		fmt.Println("Daemon:         running")
	} else {
		fmt.Println("Daemon:         not running")
	}
	return nil
}

// describeStore collects backend details for the status report.
func describeStore(ctx context.Context, cfg *config.Config, store storage.Store) storeInfo {
	info := storeInfo{backend: cfg.Storage.Backend}
	switch s := store.(type) {
	case *storage.SQLiteStore:
		info.path, _ = cfg.DBPath()
		info.size = getDatabaseSize(s.DB(), info.path)
		info.days, _ = s.Count(ctx)
	default:
		info.path, _ = cfg.BadgerPath()
	}
	return info
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkDaemon reports whether a daemon answers the health endpoint at
// baseURL within one second.
func checkDaemon(baseURL string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
