package config

import (
	"flag"
	"strings"

	"holder-analytics/internal/domain"
)

// RegisterFlags binds flags to cfg fields. Current values become the defaults,
// so flags override everything loaded before.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Server.Listen, "listen", c.Server.Listen, "HTTP listen address")
	fs.StringVar(&c.API.BaseURL, "api-url", c.API.BaseURL, "Analytics API base URL")
	fs.DurationVar(&c.API.Timeout, "api-timeout", c.API.Timeout, "Analytics API request timeout")
	fs.BoolVar(&c.Storage.UseMemory, "use-memory", c.Storage.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	fs.StringVar(&c.Storage.PostgresDSN, "postgres-dsn", c.Storage.PostgresDSN, "PostgreSQL connection string")
	fs.StringVar(&c.Storage.ClickhouseDSN, "clickhouse-dsn", c.Storage.ClickhouseDSN, "ClickHouse connection string")
	fs.BoolVar(&c.Recorder.Enabled, "recorder", c.Recorder.Enabled, "Run the snapshot recorder")
	fs.DurationVar(&c.Recorder.Interval, "recorder-interval", c.Recorder.Interval, "Snapshot recorder interval")
	fs.Func("recorder-sections", "Comma-separated sections to archive", func(v string) error {
		c.Recorder.Sections = parseSections(v)
		return nil
	})
	fs.Func("chart-mode", "Default chart mode (line, area, bar)", func(v string) error {
		c.Chart.Mode = domain.ChartMode(strings.ToLower(v))
		return nil
	})
	fs.IntVar(&c.Cache.Size, "cache-size", c.Cache.Size, "Query cache entries")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.Log.File, "log-file", c.Log.File, "Rotated JSON log file")
}
