package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/hcicodec/internal/logging"
	"github.com/danmuck/hcicodec/internal/transport"
)

// Config is everything hcictl reads from its TOML file.
type Config struct {
	Link     transport.Config
	LogLevel string
}

type fileConfig struct {
	Addr               string        `toml:"addr"`
	Network            string        `toml:"network"`
	ConnectTimeout     string        `toml:"connect_timeout"`
	ReadTimeout        string        `toml:"read_timeout"`
	WriteTimeout       string        `toml:"write_timeout"`
	MaxConnectAttempts int           `toml:"max_connect_attempts"`
	MaxPacketBytes     int           `toml:"max_packet_bytes"`
	Backoff            backoffConfig `toml:"backoff"`
	LogLevel           string        `toml:"log_level"`
}

type backoffConfig struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	Jitter       bool    `toml:"jitter"`
}

func Default() Config {
	return Config{Link: transport.DefaultConfig(), LogLevel: "info"}
}

// Load overlays the keys present in the file at path on Default and
// validates the result.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	cfg, err := apply(Default(), raw, meta)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func apply(cfg Config, raw fileConfig, meta toml.MetaData) (Config, error) {
	if meta.IsDefined("addr") {
		cfg.Link.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("network") {
		cfg.Link.Network = strings.TrimSpace(raw.Network)
	}
	durations := []struct {
		key []string
		raw string
		dst *time.Duration
	}{
		{[]string{"connect_timeout"}, raw.ConnectTimeout, &cfg.Link.ConnectTimeout},
		{[]string{"read_timeout"}, raw.ReadTimeout, &cfg.Link.ReadTimeout},
		{[]string{"write_timeout"}, raw.WriteTimeout, &cfg.Link.WriteTimeout},
		{[]string{"backoff", "initial_delay"}, raw.Backoff.InitialDelay, &cfg.Link.Backoff.InitialDelay},
		{[]string{"backoff", "max_delay"}, raw.Backoff.MaxDelay, &cfg.Link.Backoff.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key...) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", strings.Join(d.key, "."), err)
		}
		*d.dst = v
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.Link.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	if meta.IsDefined("max_packet_bytes") {
		cfg.Link.Limits.MaxPacketBytes = raw.MaxPacketBytes
	}
	if meta.IsDefined("backoff", "multiplier") {
		cfg.Link.Backoff.Multiplier = raw.Backoff.Multiplier
	}
	if meta.IsDefined("backoff", "jitter") {
		cfg.Link.Backoff.Jitter = raw.Backoff.Jitter
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	link := cfg.Link
	if link.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if link.Network != "tcp" && link.Network != "tcp4" && link.Network != "tcp6" && link.Network != "unix" {
		return fmt.Errorf("network %q not supported", link.Network)
	}
	if link.ConnectTimeout < 0 || link.ReadTimeout < 0 || link.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if link.MaxConnectAttempts < 1 {
		return fmt.Errorf("max_connect_attempts must be at least 1")
	}
	if link.Limits.MaxPacketBytes < 0 {
		return fmt.Errorf("max_packet_bytes must not be negative")
	}
	if link.Backoff.Multiplier != 0 && link.Backoff.Multiplier < 1 {
		return fmt.Errorf("backoff.multiplier must be at least 1")
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("log_level %q not recognized", cfg.LogLevel)
	}
	return nil
}
