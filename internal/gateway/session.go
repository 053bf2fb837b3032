package gateway

import (
	"context"
	"math/rand"
	"time"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/config"
	"github.com/danmuck/spmctl/internal/observability"
	"github.com/rs/zerolog"
)

// DialFunc opens a fresh instrument connection.
type DialFunc func(ctx context.Context) (*client.Conn, error)

// Dialer builds a DialFunc from an instrument config section. Connections
// report their transactions to the prometheus collectors.
func Dialer(cfg config.InstrumentConfig, logger zerolog.Logger) (DialFunc, error) {
	opts, err := config.ClientOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts.Observer = observability.ClientObserver{}
	return func(ctx context.Context) (*client.Conn, error) {
		return client.Dial(ctx, cfg.Host, cfg.Port, opts)
	}, nil
}

// session owns the shared connection. It dials lazily and redials a broken
// connection before the next request; the request that hit the failure is
// never replayed.
type session struct {
	locked  *client.Locked
	dial    DialFunc
	backoff config.Backoff
	logger  zerolog.Logger
	// guarded by the Locked mutex via Reconnect
	rng *rand.Rand
}

func newSession(dial DialFunc, backoff config.Backoff, logger zerolog.Logger) *session {
	return &session{
		locked:  client.NewLocked(nil),
		dial:    dial,
		backoff: backoff,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *session) ensure(ctx context.Context) error {
	redialed, err := s.locked.Reconnect(func() (*client.Conn, error) {
		return s.redial(ctx)
	})
	if redialed {
		s.logger.Info().Msg("instrument connection established")
	}
	return err
}

func (s *session) redial(ctx context.Context) (*client.Conn, error) {
	attempts := s.backoff.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		conn, err := s.dial(ctx)
		if err == nil {
			return conn, nil
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("instrument dial failed")
		if attempt >= attempts {
			return nil, err
		}
		timer := time.NewTimer(NextBackoffDelay(s.backoff, attempt, s.rng))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *session) close() error {
	return s.locked.Close()
}
