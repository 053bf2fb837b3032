package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// GatewayConfig is the spmgw.toml file.
type GatewayConfig struct {
	Name            string           `toml:"name"`
	Listen          string           `toml:"listen"`
	CorsOrigins     []string         `toml:"cors_origins"`
	RateLimit       float64          `toml:"rate_limit"`
	RateBurst       int              `toml:"rate_burst"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	AuthToken       string           `toml:"auth_token"`
	Instrument      InstrumentConfig `toml:"instrument"`
	Redial          RedialConfig     `toml:"redial"`
}

// InstrumentConfig describes how to reach the controller.
type InstrumentConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	ConnectTimeout      string `toml:"connect_timeout"`
	ReadTimeout         string `toml:"read_timeout"`
	WriteTimeout        string `toml:"write_timeout"`
	StatusPlacement     string `toml:"status_placement"`
	MaxBodyBytes        uint32 `toml:"max_body_bytes"`
	AlwaysAwaitResponse bool   `toml:"always_await_response"`
}

// RedialConfig bounds reconnect attempts after the connection breaks.
type RedialConfig struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	MaxAttempts  int     `toml:"max_attempts"`
	Jitter       bool    `toml:"jitter"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Name:            "spmgw",
		Listen:          ":8650",
		RateLimit:       20,
		RateBurst:       40,
		ShutdownTimeout: "5s",
		Instrument: InstrumentConfig{
			Host:            "127.0.0.1",
			Port:            6501,
			ConnectTimeout:  "5s",
			ReadTimeout:     "10s",
			WriteTimeout:    "10s",
			StatusPlacement: "leading",
		},
		Redial: RedialConfig{
			InitialDelay: "250ms",
			Multiplier:   2,
			MaxDelay:     "5s",
			MaxAttempts:  5,
			Jitter:       true,
		},
	}
}

// LoadGatewayConfig reads path over the defaults and validates the result.
func LoadGatewayConfig(path string) (GatewayConfig, error) {
	cfg := DefaultGatewayConfig()
	if err := loadToml(path, &cfg); err != nil {
		return GatewayConfig{}, err
	}
	if err := ValidateGatewayConfig(cfg); err != nil {
		return GatewayConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateGatewayConfig(cfg GatewayConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("gateway config missing name")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		return fmt.Errorf("gateway config missing listen")
	}
	if cfg.RateLimit < 0 || cfg.RateBurst < 0 {
		return fmt.Errorf("gateway rate limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		return fmt.Errorf("gateway rate_burst required when rate_limit is set")
	}
	if _, err := parseDuration("shutdown_timeout", cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := ValidateInstrument(cfg.Instrument); err != nil {
		return fmt.Errorf("instrument invalid: %w", err)
	}
	if err := validateRedial(cfg.Redial); err != nil {
		return fmt.Errorf("redial invalid: %w", err)
	}
	return nil
}

func ValidateInstrument(cfg InstrumentConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}
	for _, d := range []struct{ name, raw string }{
		{"connect_timeout", cfg.ConnectTimeout},
		{"read_timeout", cfg.ReadTimeout},
		{"write_timeout", cfg.WriteTimeout},
	} {
		if _, err := parseDuration(d.name, d.raw); err != nil {
			return err
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.StatusPlacement)) {
	case "", "leading", "trailing":
	default:
		return fmt.Errorf("status_placement must be leading or trailing, got %q", cfg.StatusPlacement)
	}
	return nil
}

func validateRedial(cfg RedialConfig) error {
	if _, err := parseDuration("initial_delay", cfg.InitialDelay); err != nil {
		return err
	}
	if _, err := parseDuration("max_delay", cfg.MaxDelay); err != nil {
		return err
	}
	if cfg.Multiplier != 0 && cfg.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %v", cfg.Multiplier)
	}
	if cfg.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative")
	}
	return nil
}

// parseDuration accepts Go duration strings; empty means zero.
func parseDuration(name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return d, nil
}
