package protocol

import "fmt"

// Kind is the immutable tag of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindU16
	KindI16
	KindU32
	KindI32
	KindF32
	KindF64
	KindString
	KindU8Array
	KindU16Array
	KindI16Array
	KindU32Array
	KindI32Array
	KindF32Array
	KindF64Array
	KindStringArray
	KindF32Matrix
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindU16:         "u16",
	KindI16:         "i16",
	KindU32:         "u32",
	KindI32:         "i32",
	KindF32:         "f32",
	KindF64:         "f64",
	KindString:      "string",
	KindU8Array:     "[]u8",
	KindU16Array:    "[]u16",
	KindI16Array:    "[]i16",
	KindU32Array:    "[]u32",
	KindI32Array:    "[]i32",
	KindF32Array:    "[]f32",
	KindF64Array:    "[]f64",
	KindStringArray: "[]string",
	KindF32Matrix:   "[][]f32",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one wire-representable value. The zero Value is KindInvalid.
//
// Array and matrix values share their backing slices with the caller; they
// are not copied on construction or access.
type Value struct {
	kind Kind
	v    any
}

func U16Value(v uint16) Value { return Value{kind: KindU16, v: v} }
func I16Value(v int16) Value { return Value{kind: KindI16, v: v} }
func U32Value(v uint32) Value { return Value{kind: KindU32, v: v} }
func I32Value(v int32) Value { return Value{kind: KindI32, v: v} }
func F32Value(v float32) Value { return Value{kind: KindF32, v: v} }
func F64Value(v float64) Value { return Value{kind: KindF64, v: v} }
func StringValue(v string) Value { return Value{kind: KindString, v: v} }
func U8ArrayValue(v []uint8) Value { return Value{kind: KindU8Array, v: v} }
func U16ArrayValue(v []uint16) Value { return Value{kind: KindU16Array, v: v} }
func I16ArrayValue(v []int16) Value { return Value{kind: KindI16Array, v: v} }
func U32ArrayValue(v []uint32) Value { return Value{kind: KindU32Array, v: v} }
func I32ArrayValue(v []int32) Value { return Value{kind: KindI32Array, v: v} }
func F32ArrayValue(v []float32) Value { return Value{kind: KindF32Array, v: v} }
func F64ArrayValue(v []float64) Value { return Value{kind: KindF64Array, v: v} }
func StringArrayValue(v []string) Value { return Value{kind: KindStringArray, v: v} }
func F32MatrixValue(v [][]float32) Value { return Value{kind: KindF32Matrix, v: v} }

// BoolU32Value encodes b as the 0=off/1=on u32 flag most commands use.
func BoolU32Value(b bool) Value {
	if b {
		return U32Value(1)
	}
	return U32Value(0)
}

// Interface returns the held Go value, or nil for the zero Value. Slices are
// shared, not copied.
func (v Value) Interface() any {
	return v.v
}

// Kind returns the value's tag.
func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) String() string {
	if v.kind == KindInvalid {
		return "invalid"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.v)
}

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, want, v.kind)
}

// AsU16 returns the held uint16.
func (v Value) AsU16() (uint16, error) {
	if v.kind != KindU16 {
		return 0, v.mismatch(KindU16)
	}
	return v.v.(uint16), nil
}

// AsI16 returns the held int16.
func (v Value) AsI16() (int16, error) {
	if v.kind != KindI16 {
		return 0, v.mismatch(KindI16)
	}
	return v.v.(int16), nil
}

// AsU32 returns the held uint32.
func (v Value) AsU32() (uint32, error) {
	if v.kind != KindU32 {
		return 0, v.mismatch(KindU32)
	}
	return v.v.(uint32), nil
}

// AsI32 returns the held int32.
func (v Value) AsI32() (int32, error) {
	if v.kind != KindI32 {
		return 0, v.mismatch(KindI32)
	}
	return v.v.(int32), nil
}

// AsF32 returns the held float32.
func (v Value) AsF32() (float32, error) {
	if v.kind != KindF32 {
		return 0, v.mismatch(KindF32)
	}
	return v.v.(float32), nil
}

// AsF64 returns the held float64.
func (v Value) AsF64() (float64, error) {
	if v.kind != KindF64 {
		return 0, v.mismatch(KindF64)
	}
	return v.v.(float64), nil
}

// AsString returns the held string.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.v.(string), nil
}

func (v Value) AsU8Array() ([]uint8, error) {
	if v.kind != KindU8Array {
		return nil, v.mismatch(KindU8Array)
	}
	return v.v.([]uint8), nil
}

func (v Value) AsU16Array() ([]uint16, error) {
	if v.kind != KindU16Array {
		return nil, v.mismatch(KindU16Array)
	}
	return v.v.([]uint16), nil
}

func (v Value) AsI16Array() ([]int16, error) {
	if v.kind != KindI16Array {
		return nil, v.mismatch(KindI16Array)
	}
	return v.v.([]int16), nil
}

func (v Value) AsU32Array() ([]uint32, error) {
	if v.kind != KindU32Array {
		return nil, v.mismatch(KindU32Array)
	}
	return v.v.([]uint32), nil
}

func (v Value) AsI32Array() ([]int32, error) {
	if v.kind != KindI32Array {
		return nil, v.mismatch(KindI32Array)
	}
	return v.v.([]int32), nil
}

func (v Value) AsF32Array() ([]float32, error) {
	if v.kind != KindF32Array {
		return nil, v.mismatch(KindF32Array)
	}
	return v.v.([]float32), nil
}

func (v Value) AsF64Array() ([]float64, error) {
	if v.kind != KindF64Array {
		return nil, v.mismatch(KindF64Array)
	}
	return v.v.([]float64), nil
}

func (v Value) AsStringArray() ([]string, error) {
	if v.kind != KindStringArray {
		return nil, v.mismatch(KindStringArray)
	}
	return v.v.([]string), nil
}

// AsF32Matrix returns the held rows of a 2D float array.
func (v Value) AsF32Matrix() ([][]float32, error) {
	if v.kind != KindF32Matrix {
		return nil, v.mismatch(KindF32Matrix)
	}
	return v.v.([][]float32), nil
}

// AsInt returns any integer scalar widened to int64. Implicit lengths are
// read through it.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindU16:
		return int64(v.v.(uint16)), nil
	case KindI16:
		return int64(v.v.(int16)), nil
	case KindU32:
		return int64(v.v.(uint32)), nil
	case KindI32:
		return int64(v.v.(int32)), nil
	default:
		return 0, fmt.Errorf("%w: expected integer, got %s", ErrTypeMismatch, v.kind)
	}
}
