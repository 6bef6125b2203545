package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Contains(t, output, "codetime 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})
	assert.Equal(t, "codetime 1.2.3", strings.TrimSpace(output))
}

func TestAllSubcommandsExist(t *testing.T) {
	expected := []string{"ingest", "log", "status", "top", "calendar", "days", "hours", "minutes"}
	parser, _, _ := buildParser("test")

	for _, name := range expected {
		cmd := parser.Find(name)
		assert.NotNil(t, cmd, "subcommand %q should exist", name)
	}
}

func TestSubcommandsRecognized(t *testing.T) {
	for _, args := range [][]string{
		{"ingest"},
		{"log", "--project", "p", "--file", "a.go", "--language", "go"},
		{"status"},
		{"top"},
		{"calendar", "--year", "2024"},
		{"days", "--each"},
		{"hours"},
		{"minutes", "--minutes", "30"},
	} {
		parser, _, _ := parseOnly("test")
		_, err := parser.ParseArgs(args)
		assert.NoError(t, err, args[0])
	}
}

func TestUnknownSubcommandFails(t *testing.T) {
	parser, _, _ := parseOnly("test")
	_, err := parser.ParseArgs([]string{"nonexistent"})
	require.Error(t, err)
}

func TestHelpFlagDoesNotError(t *testing.T) {
	err := RunWithArgs("test", []string{"--help"})
	assert.NoError(t, err)
}

func TestGlobalFlags(t *testing.T) {
	parser, globals, _ := parseOnly("test")
	_, err := parser.ParseArgs([]string{"--json", "--verbose", "--config", "/tmp/test.yaml", "status"})
	require.NoError(t, err)
	assert.True(t, globals.JSON)
	assert.True(t, globals.Verbose)
	assert.Equal(t, "/tmp/test.yaml", globals.Config)
}

func TestFlagDefaults(t *testing.T) {
	p, _, c := parseOnly("test")
	_, err := p.ParseArgs([]string{"top"})
	require.NoError(t, err)
	assert.Equal(t, "7 days", c.Top.Last)
	assert.Equal(t, 10, c.Top.Limit)
	assert.False(t, c.Top.Languages)

	p, _, c = parseOnly("test")
	_, err = p.ParseArgs([]string{"days"})
	require.NoError(t, err)
	assert.Equal(t, 7, c.Days.Days)

	p, _, c = parseOnly("test")
	_, err = p.ParseArgs([]string{"minutes"})
	require.NoError(t, err)
	assert.Equal(t, 60, c.Minutes.Minutes)
}

func TestTopLastFlagTakesSpacedWindow(t *testing.T) {
	p, _, c := parseOnly("test")
	_, err := p.ParseArgs([]string{"top", "--last", "30 days", "--languages", "--limit", "3"})
	require.NoError(t, err)
	assert.Equal(t, "30 days", c.Top.Last)
	assert.True(t, c.Top.Languages)
	assert.Equal(t, 3, c.Top.Limit)
}

func TestIngestOverrideFlags(t *testing.T) {
	p, _, c := parseOnly("test")
	_, err := p.ParseArgs([]string{"ingest", "--port", "9999", "--host", "0.0.0.0", "--log-level", "debug"})
	require.NoError(t, err)
	assert.Equal(t, 9999, c.Ingest.Port)
	assert.Equal(t, "0.0.0.0", c.Ingest.Host)
	assert.Equal(t, "debug", c.Ingest.LogLevel)
}

func TestRunWithArgs_EndToEnd(t *testing.T) {
	for _, backend := range []string{"sqlite", "badger"} {
		t.Run(backend, func(t *testing.T) {
			cfgPath := writeTestConfig(t, backend)

			output := captureOutput(t, func() {
				err := RunWithArgs("test", []string{"--config", cfgPath, "log",
					"--project", "codetime", "--file", "main.go", "--language", "go"})
				require.NoError(t, err)
			})
			assert.Contains(t, output, "Logged 1 minute")

			output = captureOutput(t, func() {
				err := RunWithArgs("test", []string{"--config", cfgPath, "--json", "minutes", "--minutes", "5"})
				require.NoError(t, err)
			})
			assert.JSONEq(t, `{"minutes":1}`, output)
		})
	}
}

func TestRunWithArgs_LogRejectsMissingFields(t *testing.T) {
	cfgPath := writeTestConfig(t, "sqlite")
	err := RunWithArgs("test", []string{"--config", cfgPath, "log", "--project", "codetime"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relativeFile is required")
}

func TestRunWithArgs_BadConfig(t *testing.T) {
	err := RunWithArgs("test", []string{"--config", "/nonexistent/codetime.yaml", "status"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
