package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/danmuck/spmctl/internal/protocol/frame"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StatusPlacement selects where the status block sits in a response body.
type StatusPlacement uint8

const (
	// StatusLeading reads the status block before the result fields.
	StatusLeading StatusPlacement = iota
	// StatusTrailing reads the status block after the result fields.
	StatusTrailing
)

func (p StatusPlacement) String() string {
	switch p {
	case StatusLeading:
		return "leading"
	case StatusTrailing:
		return "trailing"
	default:
		return fmt.Sprintf("StatusPlacement(%d)", uint8(p))
	}
}

func ParseStatusPlacement(raw string) (StatusPlacement, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "leading":
		return StatusLeading, nil
	case "trailing":
		return StatusTrailing, nil
	default:
		return StatusLeading, fmt.Errorf("%w: status placement %q", protocol.ErrInvalidArgument, raw)
	}
}

// Options configures one connection. Zero timeouts mean no deadline.
type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	Status StatusPlacement
	Limits frame.Limits

	// AlwaysAwaitResponse sets the response flag on every request, so
	// commands without results still report their status.
	AlwaysAwaitResponse bool

	Logger   zerolog.Logger
	Observer Observer
}

func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		Status:         StatusLeading,
		Limits:         frame.DefaultLimits(),
		Logger:         log.Logger,
	}
}

// Report describes one finished transaction.
type Report struct {
	Command  string
	Started  time.Time
	Duration time.Duration
	BytesOut int
	BytesIn  int
	Err      error
}

// Observer receives a Report after every Transact call.
type Observer interface {
	ObserveTransaction(Report)
}
