// Package config loads the gorc configuration file.
//
// The file is TOML; every key is optional and falls back to Default:
//
//	[executor]
//	memory_mb = 64
//	disk_cache = true
//	timeout = "30s"
//
//	[server]
//	listen = ":8080"
//	instance_ttl = "15m"
//
//	[log]
//	level = "info"
//	file = "log/gorc.log"
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caffeineduck/gorc/errors"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Executor ExecutorConfig `toml:"executor"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

type ExecutorConfig struct {
	MemoryMB    uint32   `toml:"memory_mb"`
	DiskCache   bool     `toml:"disk_cache"`
	CacheDir    string   `toml:"cache_dir"`
	Timeout     Duration `toml:"timeout"`
	InitTimeout Duration `toml:"init_timeout"`
}

type ServerConfig struct {
	Listen       string   `toml:"listen"`
	InstanceTTL  Duration `toml:"instance_ttl"`
	MaxInstances int      `toml:"max_instances"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // json or console
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

func Default() Config {
	return Config{
		Executor: ExecutorConfig{
			DiskCache:   true,
			Timeout:     Duration{30 * time.Second},
			InitTimeout: Duration{5 * time.Second},
		},
		Server: ServerConfig{
			Listen:       ":8080",
			InstanceTTL:  Duration{15 * time.Minute},
			MaxInstances: 256,
			MaxBodyBytes: 16 << 20,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Executor.Timeout.Duration < 0:
		return invalid("executor.timeout must not be negative")
	case c.Executor.InitTimeout.Duration < 0:
		return invalid("executor.init_timeout must not be negative")
	case c.Executor.MemoryMB > 4096:
		return invalid("executor.memory_mb exceeds the 4096 MiB wasm32 address space")
	case c.Server.Listen == "":
		return invalid("server.listen is required")
	case c.Server.InstanceTTL.Duration <= 0:
		return invalid("server.instance_ttl must be positive")
	case c.Server.MaxInstances <= 0:
		return invalid("server.max_instances must be positive")
	case c.Server.MaxBodyBytes <= 0:
		return invalid("server.max_body_bytes must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid(fmt.Sprintf("log.format %q is not json or console", c.Log.Format))
	}
	return nil
}

func invalid(detail string) error {
	return errors.InvalidInput(errors.PhaseHost, detail)
}

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
