package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/danmuck/spmctl/internal/protocol"
)

var (
	// ErrIO reports a socket failure. The connection is unusable afterwards.
	ErrIO = errors.New("client: i/o failure")
	// ErrTimeout reports an exceeded read or write deadline. A command whose
	// request was already written may still run on the instrument.
	ErrTimeout = errors.New("client: timeout")
	// ErrConnect reports a failed dial.
	ErrConnect = errors.New("client: connect failed")
	// ErrConnectionBroken is returned by every call on a connection that a
	// previous I/O, timeout or protocol failure left in an unknown state.
	ErrConnectionBroken = errors.New("client: connection broken")
)

// ServerError is a failure reported by the instrument in the response status
// block. The connection stays usable.
type ServerError struct {
	Code    int32
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("client: server error %d: %s", e.Code, e.Message)
}

// Classify maps a transport failure onto ErrTimeout or ErrIO, keeping the
// cause in the chain. Protocol errors pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, protocol.ErrProtocol) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
