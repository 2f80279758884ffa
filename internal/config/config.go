// Package config loads service configuration from a YAML file, a .env file,
// the environment and command-line flags, in that order of precedence
// (later wins), and validates the result.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/logging"
)

// ErrInvalidConfig is returned when the loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen          string        `yaml:"listen" validate:"required"`
	Mode            string        `yaml:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// APIConfig configures the upstream analytics API client.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Token   string        `yaml:"token"`
	Key     string        `yaml:"key"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// CacheConfig configures the query cache.
type CacheConfig struct {
	Size     int           `yaml:"size" validate:"gt=0"`
	StaleAge time.Duration `yaml:"stale_age" validate:"gte=0"`
}

// StorageConfig selects the archive backends.
type StorageConfig struct {
	UseMemory     bool   `yaml:"use_memory"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_without=UseMemory"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" validate:"required_without=UseMemory"`
	MaxConns      int32  `yaml:"max_conns" validate:"gte=0"`
}

// RecorderConfig configures the scheduled snapshot recorder.
type RecorderConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Interval    time.Duration    `yaml:"interval" validate:"required_if=Enabled true,gte=0"`
	Sections    []domain.Section `yaml:"sections" validate:"dive,section"`
	Range       domain.Range     `yaml:"range" validate:"range"`
	RichListTop int              `yaml:"rich_list_top" validate:"gte=0,lte=1000"`
}

// ChartConfig holds chart preparation defaults.
type ChartConfig struct {
	Mode      domain.ChartMode `yaml:"mode" validate:"chartmode"`
	MaxPoints int              `yaml:"max_points" validate:"gte=0"`
	TopN      int              `yaml:"top_n" validate:"gte=0"`
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Cache    CacheConfig    `yaml:"cache"`
	Storage  StorageConfig  `yaml:"storage"`
	Recorder RecorderConfig `yaml:"recorder"`
	Chart    ChartConfig    `yaml:"chart"`
	Log      logging.Config `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:          ":8080",
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			Size:     512,
			StaleAge: 30 * time.Second,
		},
		Storage: StorageConfig{
			UseMemory: true,
			MaxConns:  10,
		},
		Recorder: RecorderConfig{
			Enabled:     true,
			Interval:    time.Hour,
			Sections:    []domain.Section{domain.SectionHolders, domain.SectionDistribution, domain.SectionStaking},
			Range:       domain.Range24h,
			RichListTop: 100,
		},
		Chart: ChartConfig{
			Mode: domain.ChartModeLine,
			TopN: 10,
		},
		Log: logging.DefaultConfig(),
	}
}

// ConfigEnv names the environment variable holding the YAML file path.
const ConfigEnv = "HOLDER_ANALYTICS_CONFIG"

// Load builds the configuration for a binary. args are the command-line
// arguments without the program name. The YAML path comes from -config or
// ConfigEnv. extra registers binary specific flags on the same set.
func Load(name string, args []string, extra ...func(*flag.FlagSet)) (*Config, error) {
	cfg := Default()

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	path := configPath(args)
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", path, "YAML config file")
	cfg.RegisterFlags(fs)
	for _, register := range extra {
		register(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile decodes the YAML file at path over cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}
	return nil
}

// LoadEnvFile sets variables from a KEY=VALUE file without overriding ones
// already present in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// configPath finds -config/--config in args without parsing other flags.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
