package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (default ~/.config/codetime/config.yaml)" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Log engine activity to stderr"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// IngestCommand runs the heartbeat daemon (local HTTP service).
type IngestCommand struct {
	Host     string `long:"host" description:"Override daemon listen host"`
	Port     int    `long:"port" description:"Override daemon port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// LogCommand records one heartbeat without the daemon.
type LogCommand struct {
	Project      string `long:"project" description:"Project name (required)"`
	RelativeFile string `long:"file" description:"File path relative to the project root (required)"`
	Language     string `long:"language" description:"Language identifier (required)"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows coding statistics and store health.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// TopCommand ranks projects or languages over a trailing window.
type TopCommand struct {
	Last      string `long:"last" description:"Window: '24 hours', '7 days' or '30 days'" default:"7 days"`
	Languages bool   `long:"languages" description:"Rank languages instead of projects"`
	Limit     int    `long:"limit" description:"Maximum rows (0 for all)" default:"10"`

	globals *GlobalFlags
	version string
}

// CalendarCommand prints the activity calendar of a year.
type CalendarCommand struct {
	Year int `long:"year" description:"Calendar year (default current year)"`

	globals *GlobalFlags
	version string
}

// DaysCommand lists recent daily entries.
type DaysCommand struct {
	Days int  `long:"days" description:"Number of days back, at most 30" default:"7"`
	Each bool `long:"each" description:"Per-day durations for the last 30 days"`

	globals *GlobalFlags
	version string
}

// HoursCommand shows the hour-of-day distribution.
type HoursCommand struct {
	globals *GlobalFlags
	version string
}

// MinutesCommand reports total minutes since a number of minutes ago.
type MinutesCommand struct {
	Minutes int `long:"minutes" description:"Look-back in minutes" default:"60"`

	globals *GlobalFlags
	version string
}
