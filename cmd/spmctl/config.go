package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/spmctl/internal/client"
)

type fileConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	TCPLogPort          int    `toml:"tcplog_port"`
	ConnectTimeout      string `toml:"connect_timeout"`
	ReadTimeout         string `toml:"read_timeout"`
	WriteTimeout        string `toml:"write_timeout"`
	StatusPlacement     string `toml:"status_placement"`
	AlwaysAwaitResponse bool   `toml:"always_await_response"`
	LogLevel            string `toml:"log_level"`
}

// connConfig is everything the CLI needs to reach one controller.
type connConfig struct {
	Host       string
	Port       int
	TCPLogPort int
	LogLevel   string
	Options    client.Options
}

func defaultConnConfig() connConfig {
	return connConfig{
		Host:       "127.0.0.1",
		Port:       6501,
		TCPLogPort: 6590,
		Options:    client.DefaultOptions(),
	}
}

func loadConnConfig(path string) (connConfig, error) {
	cfg := defaultConnConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return connConfig{}, fmt.Errorf("load spmctl config: %w", err)
	}

	if meta.IsDefined("host") {
		if host := strings.TrimSpace(raw.Host); host != "" {
			cfg.Host = host
		}
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("tcplog_port") {
		cfg.TCPLogPort = raw.TCPLogPort
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Options.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.Options.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Options.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return connConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("status_placement") {
		p, err := client.ParseStatusPlacement(raw.StatusPlacement)
		if err != nil {
			return connConfig{}, err
		}
		cfg.Options.Status = p
	}
	if meta.IsDefined("always_await_response") {
		cfg.Options.AlwaysAwaitResponse = raw.AlwaysAwaitResponse
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return connConfig{}, fmt.Errorf("unknown spmctl config key %q", undecoded[0].String())
	}
	return cfg, nil
}
