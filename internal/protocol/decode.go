package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Decode reads exactly len(codes) fields from body. Bytes left over after the
// last field are an ErrTrailingBytes failure.
func Decode(body []byte, codes []Code) ([]Value, error) {
	d := NewDecoder(body)
	out := make([]Value, 0, len(codes))
	for i, c := range codes {
		v, err := d.Decode(c)
		if err != nil {
			return nil, &FieldError{Index: i, Code: c, Err: err}
		}
		out = append(out, v)
	}
	if n := d.Remaining(); n != 0 {
		return nil, fmt.Errorf("%w: %d bytes after %d fields", ErrTrailingBytes, n, len(codes))
	}
	return out, nil
}

// Decoder consumes a body left to right. It remembers integer fields it has
// decoded so implicit-length codes can size themselves.
type Decoder struct {
	buf  []byte
	off  int
	ints []int64
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining reports the unread byte count.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) next(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, d.off, d.Remaining())
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) ReadU16() (uint16, error) {
	b, err := d.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) ReadI16() (int16, error) {
	v, err := d.ReadU16()
	return int16(v), err
}

func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) ReadI32() (int32, error) {
	v, err := d.ReadU32()
	return int32(v), err
}

func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *Decoder) ReadI64() (int64, error) {
	v, err := d.ReadU64()
	return int64(v), err
}

func (d *Decoder) ReadF32() (float32, error) {
	v, err := d.ReadU32()
	return math.Float32frombits(v), err
}

func (d *Decoder) ReadF64() (float64, error) {
	v, err := d.ReadU64()
	return math.Float64frombits(v), err
}

// ReadString reads an i32 byte count followed by that many UTF-8 bytes.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.readCount()
	if err != nil {
		return "", err
	}
	return d.readRawString(n)
}

func (d *Decoder) readRawString(n int) (string, error) {
	b, err := d.next(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w at offset %d", ErrInvalidUTF8, d.off-n)
	}
	return string(b), nil
}

// readCount reads an i32 size prefix and rejects negative values.
func (d *Decoder) readCount() (int, error) {
	n, err := d.ReadI32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative size prefix %d", ErrInvalidLength, n)
	}
	return int(n), nil
}

// implied returns the k-th most recent integer field (k=1 is the latest).
func (d *Decoder) implied(k int) (int, error) {
	if len(d.ints) < k {
		return 0, ErrCodeSequence
	}
	n := d.ints[len(d.ints)-k]
	if n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: implied size %d", ErrInvalidLength, n)
	}
	return int(n), nil
}

func (d *Decoder) length(c Code) (int, error) {
	if c.Implicit() {
		return d.implied(1)
	}
	return d.readCount()
}

// fits rejects element counts the remaining bytes cannot hold before any
// allocation is made for them.
func (d *Decoder) fits(count, width int) error {
	if int64(count)*int64(width) > int64(d.Remaining()) {
		return fmt.Errorf("%w: %d elements of %d bytes at offset %d, have %d", ErrTruncated, count, width, d.off, d.Remaining())
	}
	return nil
}

// Decode reads one field shaped by c.
func (d *Decoder) Decode(c Code) (Value, error) {
	if !c.Valid() {
		return Value{}, fmt.Errorf("%w: unknown code %s", ErrInvalidArgument, c)
	}
	switch c {
	case U16:
		v, err := d.ReadU16()
		if err != nil {
			return Value{}, err
		}
		d.ints = append(d.ints, int64(v))
		return U16Value(v), nil
	case I16:
		v, err := d.ReadI16()
		if err != nil {
			return Value{}, err
		}
		d.ints = append(d.ints, int64(v))
		return I16Value(v), nil
	case U32:
		v, err := d.ReadU32()
		if err != nil {
			return Value{}, err
		}
		d.ints = append(d.ints, int64(v))
		return U32Value(v), nil
	case I32:
		v, err := d.ReadI32()
		if err != nil {
			return Value{}, err
		}
		d.ints = append(d.ints, int64(v))
		return I32Value(v), nil
	case F32:
		v, err := d.ReadF32()
		if err != nil {
			return Value{}, err
		}
		return F32Value(v), nil
	case F64:
		v, err := d.ReadF64()
		if err != nil {
			return Value{}, err
		}
		return F64Value(v), nil
	case String, StringImplicit:
		n, err := d.length(c)
		if err != nil {
			return Value{}, err
		}
		s, err := d.readRawString(n)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case StringArray, StringArrayImplicit:
		n, err := d.length(c)
		if err != nil {
			return Value{}, err
		}
		// every element carries at least its 4-byte prefix
		if err := d.fits(n, 4); err != nil {
			return Value{}, err
		}
		list := make([]string, 0, n)
		for i := 0; i < n; i++ {
			s, err := d.ReadString()
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			list = append(list, s)
		}
		return StringArrayValue(list), nil
	case F32Matrix, F32MatrixImplicit:
		return d.decodeMatrix(c)
	default:
		return d.decodeNumericArray(c)
	}
}

// maxEmptyRows bounds zero-column matrices, whose row count no payload backs.
const maxEmptyRows = 1 << 16

func (d *Decoder) decodeMatrix(c Code) (Value, error) {
	var rows, cols int
	var err error
	if c.Implicit() {
		if rows, err = d.implied(2); err != nil {
			return Value{}, err
		}
		if cols, err = d.implied(1); err != nil {
			return Value{}, err
		}
	} else {
		if rows, err = d.readCount(); err != nil {
			return Value{}, err
		}
		if cols, err = d.readCount(); err != nil {
			return Value{}, err
		}
	}
	if int64(rows)*int64(cols) > math.MaxInt32 || (cols == 0 && rows > maxEmptyRows) {
		return Value{}, fmt.Errorf("%w: %dx%d matrix", ErrInvalidLength, rows, cols)
	}
	if err := d.fits(rows*cols, 4); err != nil {
		return Value{}, err
	}
	flat := make([]float32, rows*cols)
	for i := range flat {
		flat[i], _ = d.ReadF32()
	}
	out := make([][]float32, rows)
	for r := range out {
		out[r] = flat[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return F32MatrixValue(out), nil
}

func (d *Decoder) decodeNumericArray(c Code) (Value, error) {
	n, err := d.length(c)
	if err != nil {
		return Value{}, err
	}
	width := c.info().width
	if err := d.fits(n, width); err != nil {
		return Value{}, err
	}
	// fits guarantees the reads below cannot fail
	switch c.Kind() {
	case KindU8Array:
		b, _ := d.next(n)
		out := make([]uint8, n)
		copy(out, b)
		return U8ArrayValue(out), nil
	case KindU16Array:
		out := make([]uint16, n)
		for i := range out {
			out[i], _ = d.ReadU16()
		}
		return U16ArrayValue(out), nil
	case KindI16Array:
		out := make([]int16, n)
		for i := range out {
			out[i], _ = d.ReadI16()
		}
		return I16ArrayValue(out), nil
	case KindU32Array:
		out := make([]uint32, n)
		for i := range out {
			out[i], _ = d.ReadU32()
		}
		return U32ArrayValue(out), nil
	case KindI32Array:
		out := make([]int32, n)
		for i := range out {
			out[i], _ = d.ReadI32()
		}
		return I32ArrayValue(out), nil
	case KindF32Array:
		out := make([]float32, n)
		for i := range out {
			out[i], _ = d.ReadF32()
		}
		return F32ArrayValue(out), nil
	case KindF64Array:
		out := make([]float64, n)
		for i := range out {
			out[i], _ = d.ReadF64()
		}
		return F64ArrayValue(out), nil
	}
	return Value{}, fmt.Errorf("%w: unknown code %s", ErrInvalidArgument, c)
}
