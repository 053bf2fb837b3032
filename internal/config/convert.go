package config

import (
	"time"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

// ClientOptions turns a validated instrument section into dial options.
func ClientOptions(cfg InstrumentConfig, logger zerolog.Logger) (client.Options, error) {
	opts := client.DefaultOptions()
	opts.Logger = logger
	var err error
	if opts.ConnectTimeout, err = parseDuration("connect_timeout", cfg.ConnectTimeout); err != nil {
		return client.Options{}, err
	}
	if opts.ReadTimeout, err = parseDuration("read_timeout", cfg.ReadTimeout); err != nil {
		return client.Options{}, err
	}
	if opts.WriteTimeout, err = parseDuration("write_timeout", cfg.WriteTimeout); err != nil {
		return client.Options{}, err
	}
	if opts.Status, err = client.ParseStatusPlacement(cfg.StatusPlacement); err != nil {
		return client.Options{}, err
	}
	if cfg.MaxBodyBytes > 0 {
		opts.Limits = frame.Limits{MaxBodyBytes: cfg.MaxBodyBytes}
	}
	opts.AlwaysAwaitResponse = cfg.AlwaysAwaitResponse
	return opts, nil
}

// Backoff is the parsed form of RedialConfig.
type Backoff struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	MaxAttempts  int
	Jitter       bool
}

func RedialBackoff(cfg RedialConfig) (Backoff, error) {
	b := Backoff{Multiplier: cfg.Multiplier, MaxAttempts: cfg.MaxAttempts, Jitter: cfg.Jitter}
	var err error
	if b.InitialDelay, err = parseDuration("initial_delay", cfg.InitialDelay); err != nil {
		return Backoff{}, err
	}
	if b.MaxDelay, err = parseDuration("max_delay", cfg.MaxDelay); err != nil {
		return Backoff{}, err
	}
	return b, nil
}

func ShutdownTimeout(cfg GatewayConfig) time.Duration {
	d, err := parseDuration("shutdown_timeout", cfg.ShutdownTimeout)
	if err != nil || d == 0 {
		return 5 * time.Second
	}
	return d
}
