package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/spmctl/internal/protocol"
)

const (
	HeaderLen      = 40
	CommandNameLen = 32

	// offsets within the 40-byte header
	offBodyLen  = 32
	offResponse = 36
	offReserved = 38
)

var (
	ErrShortHeader  = errors.New("frame: short header")
	ErrShortBody    = errors.New("frame: short body")
	ErrBodyTooLarge = fmt.Errorf("%w: frame: body too large", protocol.ErrProtocol)
	ErrCommandName  = fmt.Errorf("%w: frame: invalid command name", protocol.ErrInvalidArgument)
)

// RequestHeader is the fixed header written before every request body.
type RequestHeader struct {
	Command      string
	BodyLen      uint32
	SendResponse bool
}

// ResponseHeader is the fixed header read before every response body.
type ResponseHeader struct {
	Command string
	BodyLen uint32
}

// Limits constrains response memory use.
type Limits struct {
	MaxBodyBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxBodyBytes: 256 * 1024 * 1024,
	}
}

// ValidateCommand checks that name fits the NUL-padded ASCII name field.
func ValidateCommand(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrCommandName)
	}
	if len(name) > CommandNameLen {
		return fmt.Errorf("%w: %q is %d bytes, max %d", ErrCommandName, name, len(name), CommandNameLen)
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return fmt.Errorf("%w: %q has non-printable byte at %d", ErrCommandName, name, i)
		}
	}
	return nil
}

// AppendRequest appends header and body as one contiguous message.
func AppendRequest(dst []byte, h RequestHeader, body []byte) ([]byte, error) {
	if err := ValidateCommand(h.Command); err != nil {
		return dst, err
	}
	h.BodyLen = uint32(len(body))
	dst = append(dst, EncodeRequestHeader(h)...)
	return append(dst, body...), nil
}

func EncodeRequestHeader(h RequestHeader) []byte {
	buf := make([]byte, HeaderLen)
	copy(buf[:CommandNameLen], h.Command)
	binary.BigEndian.PutUint32(buf[offBodyLen:offResponse], h.BodyLen)
	if h.SendResponse {
		binary.BigEndian.PutUint16(buf[offResponse:offReserved], 1)
	}
	return buf
}

func DecodeRequestHeader(b []byte) (RequestHeader, error) {
	if len(b) != HeaderLen {
		return RequestHeader{}, fmt.Errorf("frame: invalid header length: %d", len(b))
	}
	return RequestHeader{
		Command:      commandName(b[:CommandNameLen]),
		BodyLen:      binary.BigEndian.Uint32(b[offBodyLen:offResponse]),
		SendResponse: binary.BigEndian.Uint16(b[offResponse:offReserved]) != 0,
	}, nil
}

func EncodeResponseHeader(h ResponseHeader) []byte {
	buf := make([]byte, HeaderLen)
	copy(buf[:CommandNameLen], h.Command)
	binary.BigEndian.PutUint32(buf[offBodyLen:offResponse], h.BodyLen)
	return buf
}

func DecodeResponseHeader(b []byte) (ResponseHeader, error) {
	if len(b) != HeaderLen {
		return ResponseHeader{}, fmt.Errorf("frame: invalid header length: %d", len(b))
	}
	return ResponseHeader{
		Command: commandName(b[:CommandNameLen]),
		BodyLen: binary.BigEndian.Uint32(b[offBodyLen:offResponse]),
	}, nil
}

func commandName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ReadResponseHeader reads and decodes one response header.
func ReadResponseHeader(r io.Reader) (ResponseHeader, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return ResponseHeader{}, shortRead(ErrShortHeader, err)
	}
	return DecodeResponseHeader(fixed[:])
}

// ReadRequestHeader reads and decodes one request header. Peers serving the
// protocol use it.
func ReadRequestHeader(r io.Reader) (RequestHeader, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return RequestHeader{}, shortRead(ErrShortHeader, err)
	}
	return DecodeRequestHeader(fixed[:])
}

// ReadBody reads exactly n body bytes after checking n against limits.
func ReadBody(r io.Reader, n uint32, limits Limits) ([]byte, error) {
	if limits.MaxBodyBytes > 0 && n > limits.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrBodyTooLarge, n, limits.MaxBodyBytes)
	}
	body := make([]byte, n)
	if n == 0 {
		return body, nil
	}
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, shortRead(ErrShortBody, err)
	}
	return body, nil
}

// shortRead tags EOF-style failures with kind and passes the rest through,
// so timeouts stay recognisable to the caller.
func shortRead(kind, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}
