// Package fakepeer runs a loopback stand-in for the instrument's control
// port in tests.
package fakepeer

import (
	"encoding/binary"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/danmuck/spmctl/internal/protocol/frame"
)

// Request is one decoded request as the peer saw it.
type Request struct {
	Command      string
	SendResponse bool
	Body         []byte
}

// Response tells the peer what to send back.
type Response struct {
	// Command overrides the echoed name; empty echoes the request.
	Command string
	Status  int32
	Message string
	Results []byte
	// Trailing puts the status block after the results.
	Trailing bool
	// Raw, when set, is written verbatim instead of a framed response.
	Raw []byte
	// Silent sends nothing and keeps the connection open.
	Silent bool
	// Hangup closes the connection instead of answering.
	Hangup bool
	Delay  time.Duration
}

type Handler func(Request) Response

type Peer struct {
	ln      net.Listener
	handler Handler

	mu       sync.Mutex
	closed   bool
	requests []Request
	conns    []net.Conn
	wg       sync.WaitGroup
}

// Start listens on 127.0.0.1 and serves every accepted connection with h
// until the test ends.
func Start(t *testing.T, h Handler) *Peer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fakepeer listen: %v", err)
	}
	p := &Peer{ln: ln, handler: h}
	p.wg.Add(1)
	go p.accept()
	t.Cleanup(p.Close)
	return p
}

func (p *Peer) Host() string {
	host, _, _ := net.SplitHostPort(p.ln.Addr().String())
	return host
}

func (p *Peer) Port() int {
	_, port, _ := net.SplitHostPort(p.ln.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Requests returns the requests received so far.
func (p *Peer) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

func (p *Peer) Close() {
	_ = p.ln.Close()
	p.mu.Lock()
	p.closed = true
	for _, c := range p.conns {
		_ = c.Close()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Peer) accept() {
	defer p.wg.Done()
	for {
		c, err := p.ln.Accept()
		if err != nil {
			return
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = c.Close()
			return
		}
		p.conns = append(p.conns, c)
		p.wg.Add(1)
		p.mu.Unlock()
		go p.serve(c)
	}
}

func (p *Peer) serve(c net.Conn) {
	defer p.wg.Done()
	defer c.Close()
	for {
		h, err := frame.ReadRequestHeader(c)
		if err != nil {
			return
		}
		body, err := frame.ReadBody(c, h.BodyLen, frame.DefaultLimits())
		if err != nil {
			return
		}
		req := Request{Command: h.Command, SendResponse: h.SendResponse, Body: body}
		p.mu.Lock()
		p.requests = append(p.requests, req)
		p.mu.Unlock()

		resp := p.handler(req)
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		if resp.Hangup {
			return
		}
		if resp.Silent || (!req.SendResponse && resp.Raw == nil) {
			continue
		}
		out := resp.Raw
		if out == nil {
			out = Frame(req.Command, resp)
		}
		if _, err := c.Write(out); err != nil && !errors.Is(err, net.ErrClosed) {
			return
		}
	}
}

// Frame builds the framed response bytes for resp.
func Frame(command string, resp Response) []byte {
	if resp.Command != "" {
		command = resp.Command
	}
	status := StatusBlock(resp.Status, resp.Message)
	body := make([]byte, 0, len(status)+len(resp.Results))
	if resp.Trailing {
		body = append(append(body, resp.Results...), status...)
	} else {
		body = append(append(body, status...), resp.Results...)
	}
	out := frame.EncodeResponseHeader(frame.ResponseHeader{Command: command, BodyLen: uint32(len(body))})
	return append(out, body...)
}

// StatusBlock encodes i32 status, i32 message length and the message.
func StatusBlock(status int32, message string) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(status))
	b = binary.BigEndian.AppendUint32(b, uint32(len(message)))
	return append(b, message...)
}

// Results encodes values for Response.Results and fails the test on error.
func Results(t *testing.T, values []protocol.Value, codes []protocol.Code) []byte {
	t.Helper()
	b, err := protocol.Encode(values, codes)
	if err != nil {
		t.Fatalf("fakepeer encode results: %v", err)
	}
	return b
}

// OK answers every request with a zero status and no results.
func OK(Request) Response {
	return Response{}
}
