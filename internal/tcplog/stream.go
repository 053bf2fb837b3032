// Package tcplog reads the continuous frame stream the instrument's data
// logger pushes on its own TCP port.
package tcplog

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/rs/zerolog"
)

const (
	// HeaderLen covers channel count, oversampling, counter and state.
	HeaderLen   = 18
	MaxChannels = 24
)

// Frame is one sample row.
type Frame struct {
	Oversampling float32
	Counter      int64
	State        Status
	Samples      []float32
}

type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Logger         zerolog.Logger
}

// Stream is a read-only connection to the data logger port. It is not safe
// for concurrent use.
type Stream struct {
	nc     net.Conn
	opts   Options
	header [HeaderLen]byte
	broken error
}

func Dial(ctx context.Context, host string, port int, opts Options) (*Stream, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: %w: port %d", client.ErrConnect, protocol.ErrInvalidArgument, port)
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
		return nil, fmt.Errorf("%w: %s: %w", client.ErrConnect, addr, err)
	}
	opts.Logger.Debug().Str("addr", addr).Msg("tcplog stream connected")
	return &Stream{nc: nc, opts: opts}, nil
}

// ReadFrame blocks until the next frame arrives or the read timeout fires.
// Any failure leaves the stream misaligned, so later calls return the same
// error.
func (s *Stream) ReadFrame() (Frame, error) {
	if s.broken != nil {
		return Frame{}, s.broken
	}
	f, err := s.readFrame()
	if err != nil {
		s.broken = err
	}
	return f, err
}

func (s *Stream) readFrame() (Frame, error) {
	if s.opts.ReadTimeout > 0 {
		if err := s.nc.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			return Frame{}, client.Classify("set read deadline", err)
		}
	}
	if _, err := io.ReadFull(s.nc, s.header[:]); err != nil {
		return Frame{}, client.Classify("read frame header", err)
	}
	f, n, err := parseHeader(s.header[:])
	if err != nil {
		return Frame{}, err
	}
	payload := make([]byte, n*4)
	if _, err := io.ReadFull(s.nc, payload); err != nil {
		return Frame{}, client.Classify("read frame samples", err)
	}
	d := protocol.NewDecoder(payload)
	f.Samples = make([]float32, n)
	for i := range f.Samples {
		// payload length was sized for exactly n samples
		f.Samples[i], _ = d.ReadF32()
	}
	return f, nil
}

func parseHeader(b []byte) (Frame, int, error) {
	d := protocol.NewDecoder(b)
	nch, err := d.ReadI32()
	if err != nil {
		return Frame{}, 0, err
	}
	if nch < 0 || nch > MaxChannels {
		return Frame{}, 0, fmt.Errorf("%w: channel count %d", protocol.ErrInvalidLength, nch)
	}
	var f Frame
	if f.Oversampling, err = d.ReadF32(); err != nil {
		return Frame{}, 0, err
	}
	if f.Counter, err = d.ReadI64(); err != nil {
		return Frame{}, 0, err
	}
	raw, err := d.ReadU16()
	if err != nil {
		return Frame{}, 0, err
	}
	if f.State, err = ParseStatus(int64(raw)); err != nil {
		return Frame{}, 0, err
	}
	return f, int(nch), nil
}

func (s *Stream) Close() error {
	return s.nc.Close()
}
