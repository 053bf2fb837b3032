package client

import (
	"errors"
	"fmt"

	"github.com/danmuck/spmctl/internal/protocol"
)

// splitResponse separates the status block (i32 status, i32 message length,
// message bytes) from the result fields and decodes the results. A nonzero
// status yields *ServerError and no results.
func splitResponse(body []byte, codes []protocol.Code, placement StatusPlacement) ([]protocol.Value, error) {
	if placement == StatusTrailing {
		results, err := splitTrailing(body, codes)
		if err != nil {
			var serr *ServerError
			if !errors.As(err, &serr) {
				// an error reply carries the status block alone
				if only := statusOnly(body); only != nil {
					return nil, only
				}
			}
			return nil, err
		}
		return results, nil
	}
	d := protocol.NewDecoder(body)
	if err := readStatus(d); err != nil {
		return nil, err
	}
	results, err := decodeResults(d, codes)
	if err != nil {
		return nil, err
	}
	if err := checkConsumed(d, len(codes)); err != nil {
		return nil, err
	}
	return results, nil
}

func splitTrailing(body []byte, codes []protocol.Code) ([]protocol.Value, error) {
	d := protocol.NewDecoder(body)
	results, err := decodeResults(d, codes)
	if err != nil {
		return nil, err
	}
	if err := readStatus(d); err != nil {
		return nil, err
	}
	if err := checkConsumed(d, len(codes)); err != nil {
		return nil, err
	}
	return results, nil
}

// statusOnly returns the *ServerError when body is exactly one status block
// with a nonzero status, and nil otherwise.
func statusOnly(body []byte) error {
	d := protocol.NewDecoder(body)
	err := readStatus(d)
	var serr *ServerError
	if errors.As(err, &serr) && d.Remaining() == 0 {
		return serr
	}
	return nil
}

func checkConsumed(d *protocol.Decoder, fields int) error {
	if n := d.Remaining(); n != 0 {
		return fmt.Errorf("%w: %d bytes after %d fields", protocol.ErrTrailingBytes, n, fields)
	}
	return nil
}

func readStatus(d *protocol.Decoder) error {
	status, err := d.ReadI32()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	msg, err := d.ReadString()
	if err != nil {
		return fmt.Errorf("status message: %w", err)
	}
	if status != 0 {
		return &ServerError{Code: status, Message: msg}
	}
	return nil
}

func decodeResults(d *protocol.Decoder, codes []protocol.Code) ([]protocol.Value, error) {
	out := make([]protocol.Value, 0, len(codes))
	for i, c := range codes {
		v, err := d.Decode(c)
		if err != nil {
			return nil, &protocol.FieldError{Index: i, Code: c, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
