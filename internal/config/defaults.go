package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/codetime",
			Backend:           BackendSQLite,
			SQLiteFile:        "codetime.db",
			SQLiteJournalMode: "wal",
			BusyTimeoutMS:     5000,
			BadgerDir:         "badger",
		},
		Daemon: DaemonConfig{
			Host:                   "127.0.0.1",
			Port:                   8721,
			MaxRequestSize:         65536,
			RateLimitRequests:      600,
			RateLimitWindowSeconds: 60,
			CORSOrigins:            []string{"*"},
			ShutdownTimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       "",
			MaxSize:    10,
			MaxBackups: 3,
		},
		Aggregation: AggregationConfig{
			Timezone:       "UTC",
			RejectedValues: DefaultRejectedValues(),
		},
	}
}
