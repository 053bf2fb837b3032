package tcplog

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/danmuck/spmctl/internal/testutil/testlog"
)

func encodeFrame(nch int32, f Frame) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(nch))
	b = binary.BigEndian.AppendUint32(b, math.Float32bits(f.Oversampling))
	b = binary.BigEndian.AppendUint64(b, uint64(f.Counter))
	b = binary.BigEndian.AppendUint16(b, uint16(f.State))
	for _, s := range f.Samples {
		b = binary.BigEndian.AppendUint32(b, math.Float32bits(s))
	}
	return b
}

// pushPeer accepts one connection, writes payload and then idles until the
// test ends.
func pushPeer(t *testing.T, payload []byte) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_, _ = c.Write(payload)
		<-done
	}()
	t.Cleanup(func() {
		close(done)
		_ = ln.Close()
	})
	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func dialStream(t *testing.T, host string, port int) *Stream {
	t.Helper()
	s, err := Dial(context.Background(), host, port, Options{ReadTimeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReadFrames(t *testing.T) {
	testlog.Start(t)
	first := Frame{Oversampling: 10, Counter: 1, State: StatusRunning, Samples: []float32{0.5, -1.25}}
	second := Frame{Oversampling: 10, Counter: 2, State: StatusRunning, Samples: []float32{0.75, -1}}
	payload := append(encodeFrame(2, first), encodeFrame(2, second)...)
	host, port := pushPeer(t, payload)
	s := dialStream(t, host, port)

	for _, want := range []Frame{first, second} {
		got, err := s.ReadFrame()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("frame mismatch: got=%+v want=%+v", got, want)
		}
	}

	_, err := s.ReadFrame()
	if !errors.Is(err, client.ErrTimeout) {
		t.Fatalf("expected ErrTimeout once the peer goes quiet, got %v", err)
	}
}

func TestReadFrameRejectsBadHeader(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		want    error
	}{
		{"negative channels", encodeFrame(-1, Frame{}), protocol.ErrInvalidLength},
		{"too many channels", encodeFrame(MaxChannels+1, Frame{}), protocol.ErrInvalidLength},
		{"unknown state", encodeFrame(0, Frame{State: 42}), protocol.ErrProtocol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testlog.Start(t)
			host, port := pushPeer(t, tc.payload)
			s := dialStream(t, host, port)
			_, err := s.ReadFrame()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if _, again := s.ReadFrame(); !errors.Is(again, tc.want) {
				t.Fatalf("expected sticky failure, got %v", again)
			}
		})
	}
}

func TestStatusNames(t *testing.T) {
	if StatusBufferOverflow.String() != "Buffer Overflow" {
		t.Fatalf("unexpected name: %s", StatusBufferOverflow)
	}
	if Status(99).String() != "Status(99)" {
		t.Fatalf("unexpected fallback: %s", Status(99))
	}
	if _, err := ParseStatus(8); !errors.Is(err, protocol.ErrProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}
