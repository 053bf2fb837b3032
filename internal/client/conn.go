package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/danmuck/spmctl/internal/protocol/frame"
)

// Conn is one TCP connection to the instrument's control port. A Conn runs
// one transaction at a time and is not safe for concurrent use; wrap it in
// Locked to share it.
type Conn struct {
	nc     net.Conn
	addr   string
	opts   Options
	broken error
	closed bool
}

// Dial connects to host:port. ctx bounds the dial only.
func Dial(ctx context.Context, host string, port int, opts Options) (*Conn, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: %w: port %d", ErrConnect, protocol.ErrInvalidArgument, port)
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	opts.Logger.Debug().Str("addr", addr).Msg("client connected")
	return NewConn(nc, opts), nil
}

// NewConn wraps an established stream.
func NewConn(nc net.Conn, opts Options) *Conn {
	if opts.Limits.MaxBodyBytes == 0 {
		opts.Limits = frame.DefaultLimits()
	}
	addr := ""
	if ra := nc.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	return &Conn{nc: nc, addr: addr, opts: opts}
}

func (c *Conn) RemoteAddr() string {
	return c.addr
}

// Err returns the failure that broke the connection, or nil.
func (c *Conn) Err() error {
	if c.closed {
		return net.ErrClosed
	}
	return c.broken
}

// Close releases the socket. Repeated calls return nil.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.nc.Close()
}

// Transact sends one command and, when resultCodes is non-empty, waits for
// its response and decodes exactly len(resultCodes) fields.
//
// Argument and command-name errors are reported before anything is written
// and leave the connection usable, as does a *ServerError. Any I/O, timeout
// or protocol failure breaks the connection. Transact never retries: after a
// timeout the instrument may still execute the command.
func (c *Conn) Transact(command string, args []protocol.Value, argCodes, resultCodes []protocol.Code) (results []protocol.Value, err error) {
	report := Report{Command: command, Started: time.Now()}
	defer func() {
		report.Duration = time.Since(report.Started)
		report.Err = err
		c.finish(report)
	}()

	if c.closed {
		return nil, fmt.Errorf("%w: %w", ErrConnectionBroken, net.ErrClosed)
	}
	if c.broken != nil {
		return nil, fmt.Errorf("%w (cause: %v)", ErrConnectionBroken, c.broken)
	}

	if err := frame.ValidateCommand(command); err != nil {
		return nil, err
	}
	for i, code := range resultCodes {
		if !code.Valid() {
			return nil, &protocol.FieldError{Index: i, Code: code, Err: fmt.Errorf("%w: invalid result code", protocol.ErrInvalidArgument)}
		}
	}
	body, err := protocol.Encode(args, argCodes)
	if err != nil {
		return nil, err
	}

	awaitResponse := len(resultCodes) > 0 || c.opts.AlwaysAwaitResponse
	msg, err := frame.AppendRequest(make([]byte, 0, frame.HeaderLen+len(body)), frame.RequestHeader{
		Command:      command,
		SendResponse: awaitResponse,
	}, body)
	if err != nil {
		return nil, err
	}
	if err := c.write(msg); err != nil {
		return nil, c.poison(err)
	}
	report.BytesOut = len(msg)
	if !awaitResponse {
		return []protocol.Value{}, nil
	}

	respBody, err := c.readResponse(command)
	report.BytesIn = frame.HeaderLen + len(respBody)
	if err != nil {
		return nil, c.poison(err)
	}
	results, err = splitResponse(respBody, resultCodes, c.opts.Status)
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, c.poison(err)
	}
	return results, nil
}

func (c *Conn) write(msg []byte) error {
	if err := c.nc.SetWriteDeadline(deadline(c.opts.WriteTimeout)); err != nil {
		return Classify("set write deadline", err)
	}
	if _, err := c.nc.Write(msg); err != nil {
		return Classify("write request", err)
	}
	return nil
}

func (c *Conn) readResponse(command string) ([]byte, error) {
	if err := c.nc.SetReadDeadline(deadline(c.opts.ReadTimeout)); err != nil {
		return nil, Classify("set read deadline", err)
	}
	h, err := frame.ReadResponseHeader(c.nc)
	if err != nil {
		return nil, Classify("read response header", err)
	}
	if h.Command != "" && h.Command != command {
		return nil, fmt.Errorf("%w: response for %q while waiting for %q", protocol.ErrProtocol, h.Command, command)
	}
	// Fresh deadline so a large body is not charged for the header wait.
	if err := c.nc.SetReadDeadline(deadline(c.opts.ReadTimeout)); err != nil {
		return nil, Classify("set read deadline", err)
	}
	body, err := frame.ReadBody(c.nc, h.BodyLen, c.opts.Limits)
	if err != nil {
		return nil, Classify("read response body", err)
	}
	return body, nil
}

func (c *Conn) poison(err error) error {
	c.broken = err
	return err
}

func (c *Conn) finish(r Report) {
	event := c.opts.Logger.Debug()
	if r.Err != nil {
		event = c.opts.Logger.Warn().Err(r.Err)
	}
	event.
		Str("command", r.Command).
		Dur("duration", r.Duration).
		Int("bytes_out", r.BytesOut).
		Int("bytes_in", r.BytesIn).
		Msg("client transaction")
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveTransaction(r)
	}
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
