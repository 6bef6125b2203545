package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// parseOnly builds a parser whose commands are parsed but not executed.
func parseOnly(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	parser, globals, cmds := buildParser(version)
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
	return parser, globals, cmds
}

// newTestService returns a service over an in-memory SQLite store built from
// the default config, with the clock pinned to now.
func newTestService(t *testing.T, now time.Time) (*codetime.Service, storage.Store) {
	t.Helper()
	store, err := storage.OpenSQLite(context.Background(), ":memory:", storage.SQLiteOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := quartz.NewMock(t)
	clock.Set(now)

	svc, err := newService(config.DefaultConfig(), store, codetime.WithClock(clock))
	require.NoError(t, err)
	return svc, store
}

// putDay stores an entry with all minutes in one project, language and hour.
func putDay(t *testing.T, store storage.Store, day, project, language string, minutes int) {
	t.Helper()
	e := storage.NewDailyEntry(day)
	e.Projects.Add(project, minutes)
	e.Languages.Add(language, minutes)
	e.RelativeFiles.Add("main.go", minutes)
	e.Hourly[10] = minutes
	e.TotalMinutes = minutes
	require.NoError(t, store.Upsert(context.Background(), e))
}

// writeTestConfig writes a config file keeping all data under a temp dir.
func writeTestConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("storage:\n  path: %s\n  backend: %s\n", filepath.Join(dir, "data"), backend)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

var june10 = time.Date(2025, time.June, 10, 15, 4, 5, 0, time.UTC)
