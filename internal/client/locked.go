package client

import (
	"sync"

	"github.com/danmuck/spmctl/internal/protocol"
)

// Locked serializes access to one Conn across goroutines. Each Transact
// holds the lock for the whole exchange.
type Locked struct {
	mu   sync.Mutex
	conn *Conn
}

func NewLocked(conn *Conn) *Locked {
	return &Locked{conn: conn}
}

func (l *Locked) Transact(command string, args []protocol.Value, argCodes, resultCodes []protocol.Code) ([]protocol.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil, ErrConnectionBroken
	}
	return l.conn.Transact(command, args, argCodes, resultCodes)
}

// Reconnect replaces a broken or closed connection with one from dial.
// It returns false without dialing when the current connection is healthy.
// The lock is held while dialing.
func (l *Locked) Reconnect(dial func() (*Conn, error)) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil && l.conn.Err() == nil {
		return false, nil
	}
	conn, err := dial()
	if err != nil {
		return false, err
	}
	if l.conn != nil {
		_ = l.conn.Close()
	}
	l.conn = conn
	return true, nil
}

// Err reports the current connection's failure state.
func (l *Locked) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrConnectionBroken
	}
	return l.conn.Err()
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
