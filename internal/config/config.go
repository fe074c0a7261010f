// Package config loads and validates server configuration from
// environment variables (and an optional .env file), following the
// teacher's env-driven configuration pattern.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every runtime-tunable parameter. Tags carry the
// environment variable name and default. The seven parameters named in
// spec.md §6 (port, bind, timeout, maxmemory, verbose, dbfilename,
// logfile) are all present, alongside process-sizing knobs the
// delegator/resource packages need.
type Config struct {
	// Wire listener (spec.md §6: "bind", "port").
	Bind string `env:"KV_BIND" envDefault:"0.0.0.0"`
	Port int    `env:"KV_PORT" envDefault:"6380"`

	// Console (out-of-scope collaborator; still needs an address).
	ConsoleAddr string `env:"KV_CONSOLE_ADDR" envDefault:":6381"`

	// Idle timeout before a session is closed (spec.md §5).
	Timeout time.Duration `env:"KV_TIMEOUT" envDefault:"0s"`

	// Resource ceiling enforced by internal/resource (spec.md §6
	// "maxmemory"); 0 disables the check.
	MaxMemory int64 `env:"KV_MAXMEMORY" envDefault:"0"`

	// Verbosity level, set at startup and mutable via CONFIG SET verbose.
	Verbose int `env:"KV_VERBOSE" envDefault:"0"`

	// Persistence (spec.md §6 "dbfilename").
	DBFilename string `env:"KV_DBFILENAME" envDefault:"dump.kvs"`

	// Logging (spec.md §6 "logfile" plus ambient level/format).
	LogFile   string `env:"KV_LOGFILE" envDefault:""`
	LogLevel  string `env:"KV_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"KV_LOG_FORMAT" envDefault:"json"`

	// Delegator queue sizing (ambient; not a wire-visible parameter).
	StoreQueueSize      int `env:"KV_STORE_QUEUE_SIZE" envDefault:"4096"`
	AttributesQueueSize int `env:"KV_ATTRS_QUEUE_SIZE" envDefault:"1024"`

	// Per-client reply channel and command-rate limiting.
	ReplyChannelSize    int     `env:"KV_REPLY_CHANNEL_SIZE" envDefault:"256"`
	MaxCommandsPerSec   float64 `env:"KV_MAX_COMMANDS_PER_SEC" envDefault:"1000"`
	CommandBurst        int     `env:"KV_COMMAND_BURST" envDefault:"200"`
	MaxConnections      int     `env:"KV_MAX_CONNECTIONS" envDefault:"10000"`
	ResourceSampleEvery time.Duration `env:"KV_RESOURCE_SAMPLE_INTERVAL" envDefault:"5s"`

	// Metrics endpoint, exposed alongside the console mux.
	MetricsAddr string `env:"KV_METRICS_ADDR" envDefault:":6382"`
}

// Addr returns the bind:port listen address for the wire protocol.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// Load reads an optional .env file then parses environment variables
// into a Config, validating the result. logger may be nil during early
// startup before a structured logger exists.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate enforces range and enum constraints.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("KV_PORT must be 1-65535, got %d", c.Port)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("KV_MAX_CONNECTIONS must be > 0, got %d", c.MaxConnections)
	}
	if c.StoreQueueSize < 1 || c.AttributesQueueSize < 1 {
		return fmt.Errorf("queue sizes must be > 0")
	}
	if c.Verbose < 0 {
		return fmt.Errorf("KV_VERBOSE must be >= 0, got %d", c.Verbose)
	}
	if c.MaxMemory < 0 {
		return fmt.Errorf("KV_MAXMEMORY must be >= 0, got %d", c.MaxMemory)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("KV_LOG_LEVEL must be one of debug/info/warn/error, got %q", c.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "pretty": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("KV_LOG_FORMAT must be one of json/pretty, got %q", c.LogFormat)
	}
	return nil
}

// Print renders a human-readable startup banner to stdout.
func (c *Config) Print() {
	fmt.Println("=== kvstored configuration ===")
	fmt.Printf("Listen:          %s\n", c.Addr())
	fmt.Printf("Console:         %s\n", c.ConsoleAddr)
	fmt.Printf("Metrics:         %s\n", c.MetricsAddr)
	fmt.Printf("Timeout:         %s\n", c.Timeout)
	fmt.Printf("Max connections: %d\n", c.MaxConnections)
	fmt.Printf("Max memory:      %d bytes\n", c.MaxMemory)
	fmt.Printf("Verbose level:   %d\n", c.Verbose)
	fmt.Printf("DB filename:     %s\n", c.DBFilename)
	fmt.Printf("Log level/fmt:   %s/%s\n", c.LogLevel, c.LogFormat)
	fmt.Println("===============================")
}

// LogConfig emits the same information as one structured log event.
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Str("addr", c.Addr()).
		Str("console_addr", c.ConsoleAddr).
		Str("metrics_addr", c.MetricsAddr).
		Dur("timeout", c.Timeout).
		Int("max_connections", c.MaxConnections).
		Int64("max_memory", c.MaxMemory).
		Int("verbose", c.Verbose).
		Str("dbfilename", c.DBFilename).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("configuration loaded")
}

// Get returns a config parameter's current string value by name, as
// consumed by CONFIG GET. Unknown names return ("", false).
func (c *Config) Get(name string) (string, bool) {
	switch name {
	case "port":
		return fmt.Sprintf("%d", c.Port), true
	case "bind":
		return c.Bind, true
	case "timeout":
		return fmt.Sprintf("%d", int64(c.Timeout.Seconds())), true
	case "maxmemory":
		return fmt.Sprintf("%d", c.MaxMemory), true
	case "verbose":
		return fmt.Sprintf("%d", c.Verbose), true
	case "dbfilename":
		return c.DBFilename, true
	case "logfile":
		return c.LogFile, true
	default:
		return "", false
	}
}

// Set applies a runtime CONFIG SET for the subset of parameters the wire
// protocol exposes as mutable (spec.md §6). Unknown names or malformed
// values return an error.
func (c *Config) Set(name, value string) error {
	switch name {
	case "timeout":
		secs, err := parseNonNegativeInt(value)
		if err != nil {
			return err
		}
		c.Timeout = time.Duration(secs) * time.Second
	case "maxmemory":
		bytes, err := parseNonNegativeInt(value)
		if err != nil {
			return err
		}
		c.MaxMemory = bytes
	case "verbose":
		level, err := parseNonNegativeInt(value)
		if err != nil {
			return err
		}
		c.Verbose = int(level)
	case "dbfilename":
		c.DBFilename = value
	case "logfile":
		c.LogFile = value
	default:
		return fmt.Errorf("unsupported config parameter %q", name)
	}
	return nil
}

func parseNonNegativeInt(s string) (int64, error) {
	var v int64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("value must be non-negative, got %q", s)
	}
	return v, nil
}
