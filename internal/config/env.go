package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"holder-analytics/internal/domain"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with environment variables. Values are coerced with
// cast; a value that does not parse is an error.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	e := envApplier{lookup: lookup}

	e.str("LISTEN_ADDR", &cfg.Server.Listen)
	e.str("GIN_MODE", &cfg.Server.Mode)
	e.duration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	e.str("ANALYTICS_API_URL", &cfg.API.BaseURL)
	e.str("ANALYTICS_API_TOKEN", &cfg.API.Token)
	e.str("ANALYTICS_API_KEY", &cfg.API.Key)
	e.duration("ANALYTICS_API_TIMEOUT", &cfg.API.Timeout)

	e.integer("CACHE_SIZE", &cfg.Cache.Size)
	e.duration("CACHE_STALE_AGE", &cfg.Cache.StaleAge)

	e.boolean("USE_MEMORY", &cfg.Storage.UseMemory)
	e.str("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	e.str("CLICKHOUSE_DSN", &cfg.Storage.ClickhouseDSN)
	if v, ok := e.get("POSTGRES_MAX_CONNS"); ok {
		n, err := cast.ToInt32E(v)
		e.record("POSTGRES_MAX_CONNS", err)
		if err == nil {
			cfg.Storage.MaxConns = n
		}
	}

	e.boolean("RECORDER_ENABLED", &cfg.Recorder.Enabled)
	e.duration("RECORDER_INTERVAL", &cfg.Recorder.Interval)
	if v, ok := e.get("RECORDER_SECTIONS"); ok {
		cfg.Recorder.Sections = parseSections(v)
	}
	if v, ok := e.get("RECORDER_RANGE"); ok {
		cfg.Recorder.Range = domain.Range(v)
	}
	e.integer("RICH_LIST_TOP", &cfg.Recorder.RichListTop)

	if v, ok := e.get("CHART_MODE"); ok {
		cfg.Chart.Mode = domain.ChartMode(v)
	}
	e.integer("CHART_MAX_POINTS", &cfg.Chart.MaxPoints)

	e.str("LOG_LEVEL", &cfg.Log.Level)
	e.str("LOG_FILE", &cfg.Log.File)
	e.boolean("LOG_CONSOLE", &cfg.Log.Console)

	return e.err
}

type envApplier struct {
	lookup LookupFunc
	err    error
}

func (e *envApplier) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envApplier) record(key string, err error) {
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("env %s: %w", key, err)
	}
}

func (e *envApplier) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envApplier) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := cast.ToIntE(v)
		e.record(key, err)
		if err == nil {
			*dst = n
		}
	}
}

func (e *envApplier) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := cast.ToBoolE(v)
		e.record(key, err)
		if err == nil {
			*dst = b
		}
	}
}

func (e *envApplier) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := cast.ToDurationE(v)
		e.record(key, err)
		if err == nil {
			*dst = d
		}
	}
}

func parseSections(v string) []domain.Section {
	var out []domain.Section
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, domain.Section(s))
		}
	}
	return out
}
