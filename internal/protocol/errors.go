package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("protocol: invalid argument")
	ErrTypeMismatch    = errors.New("protocol: type mismatch")
	ErrProtocol        = errors.New("protocol: malformed body")
)

// Decode failures. Each one is also an ErrProtocol.
var (
	ErrTruncated     = fmt.Errorf("%w: truncated response", ErrProtocol)
	ErrTrailingBytes = fmt.Errorf("%w: trailing bytes", ErrProtocol)
	ErrInvalidUTF8   = fmt.Errorf("%w: invalid utf-8", ErrProtocol)
	ErrInvalidLength = fmt.Errorf("%w: invalid length", ErrProtocol)
	ErrCodeSequence  = fmt.Errorf("%w: implicit length without preceding integer", ErrProtocol)
)

// FieldError locates a codec failure within an ordered argument or result list.
type FieldError struct {
	Index int
	Code  Code
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d (%s): %v", e.Index, e.Code, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
