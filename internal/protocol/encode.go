package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Encode returns the wire body for values paired with codes.
//
// Every pair is validated before any byte is produced, so a mismatch never
// yields a partially built body.
func Encode(values []Value, codes []Code) ([]byte, error) {
	return AppendEncode(nil, values, codes)
}

// AppendEncode is Encode appending to dst. On error dst is returned unchanged.
func AppendEncode(dst []byte, values []Value, codes []Code) ([]byte, error) {
	size, err := EncodedSize(values, codes)
	if err != nil {
		return dst, err
	}
	out := dst
	if cap(out)-len(out) < size {
		out = make([]byte, len(dst), len(dst)+size)
		copy(out, dst)
	}
	for i := range values {
		out = appendField(out, values[i], codes[i])
	}
	return out, nil
}

// EncodedSize reports the body size values would occupy, validating them as
// Encode does.
func EncodedSize(values []Value, codes []Code) (int, error) {
	if len(values) != len(codes) {
		return 0, fmt.Errorf("%w: %d values for %d codes", ErrInvalidArgument, len(values), len(codes))
	}
	size := 0
	var ints []int64
	for i := range values {
		n, err := checkField(values[i], codes[i])
		if err == nil && codes[i].Implicit() {
			err = checkImplied(values[i], ints)
		}
		if err != nil {
			return 0, &FieldError{Index: i, Code: codes[i], Err: err}
		}
		if x, err := values[i].AsInt(); err == nil {
			ints = append(ints, x)
		}
		size += n
	}
	return size, nil
}

// checkImplied matches an implicit-length value against the integer fields
// before it, which carry its count on the wire: the latest one for strings
// and arrays, the two latest (rows, cols) for matrices.
func checkImplied(v Value, ints []int64) error {
	want := 1
	if v.kind == KindF32Matrix {
		want = 2
	}
	if len(ints) < want {
		return fmt.Errorf("%w: implicit length without preceding integer", ErrInvalidArgument)
	}
	latest := ints[len(ints)-1]
	switch v.kind {
	case KindString:
		if n := int64(len(v.v.(string))); n != latest {
			return fmt.Errorf("%w: string of %d bytes, preceding integer declares %d", ErrInvalidArgument, n, latest)
		}
	case KindStringArray:
		if n := int64(len(v.v.([]string))); n != latest {
			return fmt.Errorf("%w: %d strings, preceding integer declares %d", ErrInvalidArgument, n, latest)
		}
	case KindF32Matrix:
		m := v.v.([][]float32)
		rows := ints[len(ints)-2]
		if int64(len(m)) != rows || (len(m) > 0 && int64(len(m[0])) != latest) {
			cols := 0
			if len(m) > 0 {
				cols = len(m[0])
			}
			return fmt.Errorf("%w: %dx%d matrix, preceding integers declare %dx%d", ErrInvalidArgument, len(m), cols, rows, latest)
		}
	default:
		if n := int64(arrayLen(v)); n != latest {
			return fmt.Errorf("%w: %d elements, preceding integer declares %d", ErrInvalidArgument, n, latest)
		}
	}
	return nil
}

// checkField validates one pair and returns its encoded size.
func checkField(v Value, c Code) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: unknown code %s", ErrInvalidArgument, c)
	}
	if v.kind != c.Kind() {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, v.mismatch(c.Kind()))
	}
	inf := c.info()
	prefix := 0
	if inf.size == sizePrefixed {
		prefix = 4
	}

	switch v.kind {
	case KindU16, KindI16, KindU32, KindI32, KindF32, KindF64:
		return inf.width, nil
	case KindString:
		s := v.v.(string)
		if err := checkString(s); err != nil {
			return 0, err
		}
		return prefix + len(s), nil
	case KindStringArray:
		list := v.v.([]string)
		if err := checkCount(len(list)); err != nil {
			return 0, err
		}
		n := prefix
		for i, s := range list {
			if err := checkString(s); err != nil {
				return 0, fmt.Errorf("element %d: %w", i, err)
			}
			n += 4 + len(s)
		}
		return n, nil
	case KindF32Matrix:
		rows := v.v.([][]float32)
		cols := 0
		if len(rows) > 0 {
			cols = len(rows[0])
		}
		for i, row := range rows {
			if len(row) != cols {
				return 0, fmt.Errorf("%w: ragged matrix: row %d has %d columns, want %d", ErrInvalidArgument, i, len(row), cols)
			}
		}
		if err := checkCount(len(rows)); err != nil {
			return 0, err
		}
		if err := checkCount(cols); err != nil {
			return 0, err
		}
		if int64(len(rows))*int64(cols) > math.MaxInt32 || (cols == 0 && len(rows) > maxEmptyRows) {
			return 0, fmt.Errorf("%w: %dx%d matrix", ErrInvalidArgument, len(rows), cols)
		}
		return 2*prefix + len(rows)*cols*inf.width, nil
	default:
		n := arrayLen(v)
		if err := checkCount(n); err != nil {
			return 0, err
		}
		return prefix + n*inf.width, nil
	}
}

func checkString(s string) error {
	if err := checkCount(len(s)); err != nil {
		return err
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string is not valid utf-8", ErrInvalidArgument)
	}
	return nil
}

func checkCount(n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("%w: length %d exceeds i32 prefix", ErrInvalidArgument, n)
	}
	return nil
}

func arrayLen(v Value) int {
	switch a := v.v.(type) {
	case []uint8:
		return len(a)
	case []uint16:
		return len(a)
	case []int16:
		return len(a)
	case []uint32:
		return len(a)
	case []int32:
		return len(a)
	case []float32:
		return len(a)
	case []float64:
		return len(a)
	}
	return 0
}

func appendCount(b []byte, n int) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(int32(n)))
}

// appendField writes a pair already accepted by checkField.
func appendField(b []byte, v Value, c Code) []byte {
	prefixed := c.info().size == sizePrefixed
	switch x := v.v.(type) {
	case uint16:
		return binary.BigEndian.AppendUint16(b, x)
	case int16:
		return binary.BigEndian.AppendUint16(b, uint16(x))
	case uint32:
		return binary.BigEndian.AppendUint32(b, x)
	case int32:
		return binary.BigEndian.AppendUint32(b, uint32(x))
	case float32:
		return binary.BigEndian.AppendUint32(b, math.Float32bits(x))
	case float64:
		return binary.BigEndian.AppendUint64(b, math.Float64bits(x))
	case string:
		if prefixed {
			b = appendCount(b, len(x))
		}
		return append(b, x...)
	case []uint8:
		if prefixed {
			b = appendCount(b, len(x))
		}
		return append(b, x...)
	case []uint16:
		if prefixed {
			b = appendCount(b, len(x))
		}
		for _, e := range x {
			b = binary.BigEndian.AppendUint16(b, e)
		}
		return b
	case []int16:
		if prefixed {
			b = appendCount(b, len(x))
		}
		for _, e := range x {
			b = binary.BigEndian.AppendUint16(b, uint16(e))
		}
		return b
	case []uint32:
		if prefixed {
			b = appendCount(b, len(x))
		}
		for _, e := range x {
			b = binary.BigEndian.AppendUint32(b, e)
		}
		return b
	case []int32:
		if prefixed {
			b = appendCount(b, len(x))
		}
		for _, e := range x {
			b = binary.BigEndian.AppendUint32(b, uint32(e))
		}
		return b
	case []float32:
		if prefixed {
			b = appendCount(b, len(x))
		}
		for _, e := range x {
			b = binary.BigEndian.AppendUint32(b, math.Float32bits(e))
		}
		return b
	case []float64:
		if prefixed {
			b = appendCount(b, len(x))
		}
		for _, e := range x {
			b = binary.BigEndian.AppendUint64(b, math.Float64bits(e))
		}
		return b
	case []string:
		if prefixed {
			b = appendCount(b, len(x))
		}
		for _, s := range x {
			b = appendCount(b, len(s))
			b = append(b, s...)
		}
		return b
	case [][]float32:
		if prefixed {
			cols := 0
			if len(x) > 0 {
				cols = len(x[0])
			}
			b = appendCount(b, len(x))
			b = appendCount(b, cols)
		}
		for _, row := range x {
			for _, e := range row {
				b = binary.BigEndian.AppendUint32(b, math.Float32bits(e))
			}
		}
		return b
	}
	return b
}
