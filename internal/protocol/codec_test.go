package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func TestRoundTripEveryPrefixedCode(t *testing.T) {
	cases := []struct {
		name  string
		code  Code
		value Value
	}{
		{"u16", U16, U16Value(0xBEEF)},
		{"i16", I16, I16Value(-2)},
		{"u32", U32, U32Value(15202)},
		{"i32", I32, I32Value(-7801)},
		{"f32", F32, F32Value(1.5e-9)},
		{"f64", F64, F64Value(-0.125)},
		{"string", String, StringValue("Nanonis SPM Control Software")},
		{"string multibyte", String, StringValue("Å µm – 電流")},
		{"string empty", String, StringValue("")},
		{"u8 array", U8Array, U8ArrayValue([]uint8{0, 1, 255})},
		{"u16 array", U16Array, U16ArrayValue([]uint16{7})},
		{"i16 array", I16Array, I16ArrayValue([]int16{-1, 1})},
		{"u32 array", U32Array, U32ArrayValue([]uint32{})},
		{"i32 array", I32Array, I32ArrayValue([]int32{-3, 0, 3})},
		{"f32 array", F32Array, F32ArrayValue([]float32{0.5})},
		{"f64 array", F64Array, F64ArrayValue([]float64{1e-12, 2e12})},
		{"string array", StringArray, StringArrayValue([]string{"Current (A)", "", "Z (m)"})},
		{"string array empty", StringArray, StringArrayValue([]string{})},
		{"matrix", F32Matrix, F32MatrixValue([][]float32{{1, 2, 3}, {4, 5, 6}})},
		{"matrix empty", F32Matrix, F32MatrixValue([][]float32{})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := Encode([]Value{tc.value}, []Code{tc.code})
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := Decode(body, []Code{tc.code})
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(out) != 1 {
				t.Fatalf("expected 1 value, got %d", len(out))
			}
			if !reflect.DeepEqual(out[0], tc.value) {
				t.Fatalf("round-trip mismatch: got=%v want=%v", out[0], tc.value)
			}
		})
	}
}

func TestRoundTripImplicitCodesUseLatestIntegers(t *testing.T) {
	values := []Value{
		I32Value(5), StringValue("bias!"),
		I32Value(2), F32ArrayValue([]float32{1, 2}), U32ArrayValue([]uint32{3, 4}),
		I32Value(2), I32Value(3), F32MatrixValue([][]float32{{1, 2, 3}, {4, 5, 6}}),
		I32Value(2), StringArrayValue([]string{"a", "βγ"}),
		U16Value(1), F64ArrayValue([]float64{9}),
	}
	codes := []Code{
		I32, StringImplicit,
		I32, F32ArrayImplicit, U32ArrayImplicit,
		I32, I32, F32MatrixImplicit,
		I32, StringArrayImplicit,
		U16, F64ArrayImplicit,
	}
	body, err := Encode(values, codes)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(body, codes)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, values) {
		t.Fatalf("round-trip mismatch:\n got=%v\nwant=%v", out, values)
	}
}

func TestEncodeIsIdempotent(t *testing.T) {
	values := []Value{StringValue("Bias.Set"), F32Value(0.5), I32ArrayValue([]int32{1, 2})}
	codes := []Code{String, F32, I32Array}
	a, err := Encode(values, codes)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := Encode(values, codes)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("encodings differ: %x vs %x", a, b)
	}
}

func TestEncodeWireLayout(t *testing.T) {
	body, err := Encode(
		[]Value{U16Value(1), StringValue("ab"), F32MatrixValue([][]float32{{1}, {2}})},
		[]Code{U16, String, F32Matrix},
	)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		0x00, 0x01,
		0, 0, 0, 2, 'a', 'b',
		0, 0, 0, 2, 0, 0, 0, 1,
		0x3f, 0x80, 0, 0,
		0x40, 0x00, 0, 0,
	}
	if !bytes.Equal(body, want) {
		t.Fatalf("layout mismatch:\n got=%x\nwant=%x", body, want)
	}
}

func TestEncodeEmptyValuesEmitOnlyPrefixes(t *testing.T) {
	body, err := Encode(
		[]Value{StringValue(""), F32ArrayValue(nil), F32MatrixValue(nil)},
		[]Code{String, F32Array, F32Matrix},
	)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(body, make([]byte, 16)) {
		t.Fatalf("expected 16 zero bytes, got %x", body)
	}
}

func TestEncodeMismatchFailsBeforeAnyByte(t *testing.T) {
	dst := []byte{0xAA}
	out, err := AppendEncode(dst, []Value{U32Value(1), F32Value(2)}, []Code{U32, I32})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch detail, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Index != 1 {
		t.Fatalf("expected FieldError at index 1, got %v", err)
	}
	if !bytes.Equal(out, []byte{0xAA}) {
		t.Fatalf("dst modified on error: %x", out)
	}
}

func TestEncodeRejectsArityMismatch(t *testing.T) {
	_, err := Encode([]Value{U32Value(1)}, nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEncodeRejectsRaggedMatrixAndBadUTF8(t *testing.T) {
	_, err := Encode([]Value{F32MatrixValue([][]float32{{1, 2}, {3}})}, []Code{F32Matrix})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("ragged: expected ErrInvalidArgument, got %v", err)
	}
	_, err = Encode([]Value{StringValue("\xff\xfe")}, []Code{String})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("utf8: expected ErrInvalidArgument, got %v", err)
	}
	_, err = Encode([]Value{{}}, []Code{U16})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero value: expected ErrInvalidArgument, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	cases := []struct {
		name  string
		body  []byte
		codes []Code
	}{
		{"empty body", nil, []Code{U32}},
		{"short scalar", []byte{0, 1}, []Code{I32}},
		{"string shorter than prefix", []byte{0, 0, 0, 5, 'a', 'b'}, []Code{String}},
		{"array shorter than prefix", []byte{0, 0, 0, 2, 0, 0, 0, 1}, []Code{I32Array}},
		{"huge prefix", []byte{0x7f, 0xff, 0xff, 0xff}, []Code{F64Array}},
		{"string array element", []byte{0, 0, 0, 1, 0, 0, 0, 3, 'x'}, []Code{StringArray}},
		{"matrix payload", []byte{0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 0}, []Code{F32Matrix}},
		{"missing second field", []byte{0, 7}, []Code{U16, U16}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.body, tc.codes)
			if !errors.Is(err, ErrTruncated) {
				t.Fatalf("expected ErrTruncated, got %v", err)
			}
			if !errors.Is(err, ErrProtocol) {
				t.Fatalf("expected ErrProtocol family, got %v", err)
			}
		})
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 1, 0xFF}, []Code{U32})
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
	_, err = Decode([]byte{1}, nil)
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes for empty codes, got %v", err)
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 2, 0xC3, 0x28}, []Code{String})
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestDecodeNegativePrefix(t *testing.T) {
	body := binary.BigEndian.AppendUint32(nil, 0xFFFFFFFF)
	_, err := Decode(body, []Code{String})
	if !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	_, err = Decode(append(body, 0, 0), []Code{I32, F32ArrayImplicit})
	if !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for implied, got %v", err)
	}
}

func TestDecodeImplicitWithoutIntegerIsCodeSequence(t *testing.T) {
	_, err := Decode([]byte{0x3f, 0x80, 0, 0}, []Code{F32, F32ArrayImplicit})
	if !errors.Is(err, ErrCodeSequence) {
		t.Fatalf("expected ErrCodeSequence, got %v", err)
	}
	_, err = Decode([]byte{0, 0, 0, 1}, []Code{I32, F32MatrixImplicit})
	if !errors.Is(err, ErrCodeSequence) {
		t.Fatalf("matrix: expected ErrCodeSequence, got %v", err)
	}
}

func TestEncodeImplicitMustMatchPrecedingInteger(t *testing.T) {
	cases := []struct {
		name   string
		values []Value
		codes  []Code
	}{
		{"array count", []Value{I32Value(5), I32ArrayValue([]int32{1, 2})}, []Code{I32, I32ArrayImplicit}},
		{"string bytes", []Value{U16Value(2), StringValue("abc")}, []Code{U16, StringImplicit}},
		{"string array count", []Value{I32Value(1), StringArrayValue([]string{"a", "b"})}, []Code{I32, StringArrayImplicit}},
		{"matrix rows", []Value{I32Value(3), I32Value(2), F32MatrixValue([][]float32{{1, 2}})}, []Code{I32, I32, F32MatrixImplicit}},
		{"matrix cols", []Value{I32Value(1), I32Value(3), F32MatrixValue([][]float32{{1, 2}})}, []Code{I32, I32, F32MatrixImplicit}},
		{"negative count", []Value{I32Value(-1), F32ArrayValue(nil)}, []Code{I32, F32ArrayImplicit}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dst := []byte{0xAA}
			out, err := AppendEncode(dst, tc.values, tc.codes)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Index != len(tc.values)-1 {
				t.Fatalf("expected FieldError at last index, got %v", err)
			}
			if len(out) != 1 {
				t.Fatalf("expected dst unchanged, got % x", out)
			}
		})
	}
}

func TestEncodeImplicitWithoutInteger(t *testing.T) {
	_, err := Encode([]Value{F32Value(1), F32ArrayValue([]float32{1})}, []Code{F32, F32ArrayImplicit})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	_, err = Encode([]Value{I32Value(1), F32MatrixValue([][]float32{{1}})}, []Code{I32, F32MatrixImplicit})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("matrix: expected ErrInvalidArgument, got %v", err)
	}
}

func TestEncodeImplicitEmptyMatrixIgnoresCols(t *testing.T) {
	values := []Value{I32Value(0), I32Value(7), F32MatrixValue([][]float32{})}
	codes := []Code{I32, I32, F32MatrixImplicit}
	body, err := Encode(values, codes)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(body, codes)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m, _ := out[2].AsF32Matrix(); len(m) != 0 {
		t.Fatalf("expected empty matrix, got %v", m)
	}
}

func TestEncodeRejectsOversizedEmptyMatrix(t *testing.T) {
	m := make([][]float32, maxEmptyRows+1)
	for i := range m {
		m[i] = []float32{}
	}
	_, err := Encode([]Value{F32MatrixValue(m)}, []Code{F32Matrix})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	m = m[:maxEmptyRows]
	body, err := Encode([]Value{F32MatrixValue(m)}, []Code{F32Matrix})
	if err != nil {
		t.Fatalf("encode at cap: %v", err)
	}
	if _, err := Decode(body, []Code{F32Matrix}); err != nil {
		t.Fatalf("decode at cap: %v", err)
	}
}

func TestMatrixFidelity(t *testing.T) {
	const rows, cols = 4, 3
	m := make([][]float32, rows)
	for r := range m {
		m[r] = make([]float32, cols)
		for c := range m[r] {
			m[r][c] = float32(r*cols+c) * 0.25
		}
	}
	body, err := Encode([]Value{F32MatrixValue(m)}, []Code{F32Matrix})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := binary.BigEndian.Uint32(body[0:4]); got != rows {
		t.Fatalf("row prefix: got %d want %d", got, rows)
	}
	if got := binary.BigEndian.Uint32(body[4:8]); got != cols {
		t.Fatalf("col prefix: got %d want %d", got, cols)
	}
	out, err := Decode(body, []Code{F32Matrix})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := out[0].AsF32Matrix()
	if err != nil {
		t.Fatalf("as matrix: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Fatalf("matrix mismatch: got=%v want=%v", got, m)
	}
}

func TestParseCodeVendorSpellings(t *testing.T) {
	got, err := ParseCodes("+*c", "*-c", "H", "i", "*+c", "*+i", "2f", "+*b")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Code{String, StringImplicit, U16, I32, StringArrayImplicit, I32ArrayImplicit, F32MatrixImplicit, U8Array}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parse mismatch: got=%v want=%v", got, want)
	}
	if _, err := ParseCode("q"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	for _, name := range []string{"StringArray", "F32Matrix"} {
		c, err := ParseCode(name)
		if err != nil || c.String() != name {
			t.Fatalf("%s: parsed %v (%v)", name, c, err)
		}
	}
}

func TestDecodeNeverPanicsOnGarbage(t *testing.T) {
	codes := []Code{I32, I32, F32MatrixImplicit, StringArray, StringImplicit, U16Array, F64}
	for n := 0; n < 64; n++ {
		body := make([]byte, n)
		for i := range body {
			body[i] = byte(i*37 + n)
		}
		_, _ = Decode(body, codes)
	}
}
