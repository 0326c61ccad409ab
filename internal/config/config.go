// Package config loads process configuration from defaults, an optional
// YAML file, a .env file, the environment and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // display zones must resolve on minimal images

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage modes.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is built once in main and passed down explicitly.
type Config struct {
	// Timezone for date, weekday, session and hour evaluation.
	Timezone string `yaml:"timezone"`
	// DebounceDelay between the last filter edit and its commit.
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Import  ImportConfig  `yaml:"import"`

	// Fixtures seeds the engine with generated demo trades.
	Fixtures FixtureConfig `yaml:"fixtures"`
}

// StorageConfig selects and addresses the persistence backends.
type StorageConfig struct {
	Mode          string `yaml:"mode"`           // memory | postgres
	PostgresDSN   string `yaml:"postgres_dsn"`   // required for postgres mode
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional breakdown snapshot store
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// ImportConfig toggles normalizer derivations.
type ImportConfig struct {
	DeriveMissingProfit bool `yaml:"derive_missing_profit"`
	DeriveMissingSwap   bool `yaml:"derive_missing_swap"`
}

// FixtureConfig drives the demo trade generator.
type FixtureConfig struct {
	Enabled bool  `yaml:"enabled"`
	Count   int   `yaml:"count"`
	Seed    int64 `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Timezone:      "Asia/Tokyo",
		DebounceDelay: 200 * time.Millisecond,
		Storage:       StorageConfig{Mode: StorageMemory},
		HTTP:          HTTPConfig{Addr: ":8080"},
		Log:           LogConfig{Level: "info", Format: "json"},
		Import:        ImportConfig{DeriveMissingProfit: true},
		Fixtures:      FixtureConfig{Count: 200, Seed: 1},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty), .env, and the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads .env from the working directory. It never overrides
// variables that are already set. A missing file is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, o := range options {
		if o.env == "" {
			continue
		}
		v, ok := lookup(o.env)
		if !ok || v == "" {
			continue
		}
		if err := o.set(c, v); err != nil {
			return fmt.Errorf("invalid %s: %w", o.env, err)
		}
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.DebounceDelay < 0 {
		errs = append(errs, fmt.Errorf("debounce_delay must not be negative, got %s", c.DebounceDelay))
	}
	switch c.Storage.Mode {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required in postgres mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.mode must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage.Mode))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Fixtures.Enabled && c.Fixtures.Count <= 0 {
		errs = append(errs, fmt.Errorf("fixtures.count must be positive, got %d", c.Fixtures.Count))
	}
	return errors.Join(errs...)
}

// option is one setting reachable from the environment and/or a flag.
type option struct {
	flag   string
	env    string
	usage  string
	isBool bool
	set    func(c *Config, v string) error
}

var options = []option{
	{flag: "tz", env: "TJL_TIMEZONE", usage: "display timezone", set: func(c *Config, v string) error {
		c.Timezone = v
		return nil
	}},
	{flag: "debounce", env: "TJL_DEBOUNCE", usage: "filter debounce delay", set: func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.DebounceDelay = d
		return err
	}},
	{flag: "storage", env: "TJL_STORAGE", usage: "storage mode (memory|postgres)", set: func(c *Config, v string) error {
		c.Storage.Mode = strings.ToLower(v)
		return nil
	}},
	{flag: "postgres-dsn", env: "DATABASE_URL", usage: "postgres connection string", set: func(c *Config, v string) error {
		c.Storage.PostgresDSN = v
		return nil
	}},
	{flag: "clickhouse-dsn", env: "CLICKHOUSE_DSN", usage: "clickhouse connection string for breakdown snapshots", set: func(c *Config, v string) error {
		c.Storage.ClickhouseDSN = v
		return nil
	}},
	{flag: "addr", env: "TJL_HTTP_ADDR", usage: "HTTP listen address", set: func(c *Config, v string) error {
		c.HTTP.Addr = v
		return nil
	}},
	{flag: "log-level", env: "LOG_LEVEL", usage: "log level", set: func(c *Config, v string) error {
		c.Log.Level = strings.ToLower(v)
		return nil
	}},
	{flag: "log-format", env: "LOG_FORMAT", usage: "log format (json|console)", set: func(c *Config, v string) error {
		c.Log.Format = strings.ToLower(v)
		return nil
	}},
	{flag: "derive-profit", env: "TJL_DERIVE_PROFIT", usage: "derive missing profit from prices", isBool: true, set: func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Import.DeriveMissingProfit = b
		return err
	}},
	{flag: "derive-swap", env: "TJL_DERIVE_SWAP", usage: "derive missing swap from the rate table", isBool: true, set: func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Import.DeriveMissingSwap = b
		return err
	}},
	{flag: "fixtures", env: "TJL_FIXTURES", usage: "seed with generated demo trades", isBool: true, set: func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Fixtures.Enabled = b
		return err
	}},
	{flag: "fixture-count", env: "TJL_FIXTURE_COUNT", usage: "number of demo trades", set: func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Fixtures.Count = n
		return err
	}},
	{flag: "fixture-seed", env: "TJL_FIXTURE_SEED", usage: "demo generator seed", set: func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		c.Fixtures.Seed = n
		return err
	}},
}
