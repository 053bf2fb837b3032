package protocol

import (
	"fmt"
	"strings"
)

// Code describes the wire shape of one argument or result field. The set is
// closed: every shape the instrument speaks has exactly one constant.
type Code uint8

const (
	CodeInvalid Code = iota

	U16
	I16
	U32
	I32
	F32
	F64

	// String is a 4-byte byte count followed by UTF-8 bytes.
	String
	// StringImplicit is UTF-8 bytes whose count is the most recent integer field.
	StringImplicit

	U8Array
	U16Array
	I16Array
	U32Array
	I32Array
	F32Array
	F64Array
	// StringArray is a 4-byte element count, then each element as String.
	StringArray

	U8ArrayImplicit
	U16ArrayImplicit
	I16ArrayImplicit
	U32ArrayImplicit
	I32ArrayImplicit
	F32ArrayImplicit
	F64ArrayImplicit
	StringArrayImplicit

	// F32Matrix is a 4-byte row count, 4-byte column count, then row-major f32.
	F32Matrix
	// F32MatrixImplicit is row-major f32; rows and columns are the two most
	// recent integer fields, in that order.
	F32MatrixImplicit

	codeCount
)

type sizing uint8

const (
	sizeFixed sizing = iota
	sizePrefixed
	sizeImplicit
)

type codeInfo struct {
	name   string
	vendor string
	kind   Kind
	size   sizing
	// width is the byte width of one numeric element; zero for strings.
	width int
}

var codeTable = [codeCount]codeInfo{
	CodeInvalid: {name: "invalid"},

	U16: {name: "U16", vendor: "H", kind: KindU16, size: sizeFixed, width: 2},
	I16: {name: "I16", vendor: "h", kind: KindI16, size: sizeFixed, width: 2},
	U32: {name: "U32", vendor: "I", kind: KindU32, size: sizeFixed, width: 4},
	I32: {name: "I32", vendor: "i", kind: KindI32, size: sizeFixed, width: 4},
	F32: {name: "F32", vendor: "f", kind: KindF32, size: sizeFixed, width: 4},
	F64: {name: "F64", vendor: "d", kind: KindF64, size: sizeFixed, width: 8},

	String:         {name: "String", vendor: "+*c", kind: KindString, size: sizePrefixed},
	StringImplicit: {name: "StringImplicit", vendor: "*-c", kind: KindString, size: sizeImplicit},

	U8Array:     {name: "U8Array", vendor: "+*b", kind: KindU8Array, size: sizePrefixed, width: 1},
	U16Array:    {name: "U16Array", vendor: "+*H", kind: KindU16Array, size: sizePrefixed, width: 2},
	I16Array:    {name: "I16Array", vendor: "+*h", kind: KindI16Array, size: sizePrefixed, width: 2},
	U32Array:    {name: "U32Array", vendor: "+*I", kind: KindU32Array, size: sizePrefixed, width: 4},
	I32Array:    {name: "I32Array", vendor: "+*i", kind: KindI32Array, size: sizePrefixed, width: 4},
	F32Array:    {name: "F32Array", vendor: "+*f", kind: KindF32Array, size: sizePrefixed, width: 4},
	F64Array:    {name: "F64Array", vendor: "+*d", kind: KindF64Array, size: sizePrefixed, width: 8},
	StringArray: {name: "StringArray", kind: KindStringArray, size: sizePrefixed},

	U8ArrayImplicit:     {name: "U8ArrayImplicit", vendor: "*b", kind: KindU8Array, size: sizeImplicit, width: 1},
	U16ArrayImplicit:    {name: "U16ArrayImplicit", vendor: "*H", kind: KindU16Array, size: sizeImplicit, width: 2},
	I16ArrayImplicit:    {name: "I16ArrayImplicit", vendor: "*h", kind: KindI16Array, size: sizeImplicit, width: 2},
	U32ArrayImplicit:    {name: "U32ArrayImplicit", vendor: "*I", kind: KindU32Array, size: sizeImplicit, width: 4},
	I32ArrayImplicit:    {name: "I32ArrayImplicit", vendor: "*i", kind: KindI32Array, size: sizeImplicit, width: 4},
	F32ArrayImplicit:    {name: "F32ArrayImplicit", vendor: "*f", kind: KindF32Array, size: sizeImplicit, width: 4},
	F64ArrayImplicit:    {name: "F64ArrayImplicit", vendor: "*d", kind: KindF64Array, size: sizeImplicit, width: 8},
	StringArrayImplicit: {name: "StringArrayImplicit", vendor: "*+c", kind: KindStringArray, size: sizeImplicit},

	F32Matrix:         {name: "F32Matrix", kind: KindF32Matrix, size: sizePrefixed, width: 4},
	F32MatrixImplicit: {name: "F32MatrixImplicit", vendor: "2f", kind: KindF32Matrix, size: sizeImplicit, width: 4},
}

// vendorAliases are spellings seen in the vendor manual that map onto an
// existing shape.
var vendorAliases = map[string]Code{
	"*+i": I32ArrayImplicit,
}

var codesByName = func() map[string]Code {
	m := make(map[string]Code, 2*int(codeCount)+len(vendorAliases))
	for c := Code(1); c < codeCount; c++ {
		m[codeTable[c].name] = c
		if v := codeTable[c].vendor; v != "" {
			m[v] = c
		}
	}
	for k, c := range vendorAliases {
		m[k] = c
	}
	return m
}()

// ParseCode maps a vendor type-code spelling such as "+*c" or "2f", or a
// shape name such as "StringArray", to its Code.
func ParseCode(s string) (Code, error) {
	c, ok := codesByName[strings.TrimSpace(s)]
	if !ok {
		return CodeInvalid, fmt.Errorf("%w: unknown type code %q", ErrInvalidArgument, s)
	}
	return c, nil
}

// ParseCodes parses an ordered list of vendor spellings.
func ParseCodes(list ...string) ([]Code, error) {
	out := make([]Code, 0, len(list))
	for i, s := range list {
		c, err := ParseCode(s)
		if err != nil {
			return nil, fmt.Errorf("code[%d]: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (c Code) info() codeInfo {
	if c >= codeCount {
		return codeInfo{name: fmt.Sprintf("code(%d)", uint8(c))}
	}
	return codeTable[c]
}

// Valid reports whether c is one of the declared shapes.
func (c Code) Valid() bool {
	return c > CodeInvalid && c < codeCount
}

// Kind is the Value tag this code carries.
func (c Code) Kind() Kind {
	return c.info().kind
}

// Implicit reports whether the field's length comes from earlier integer fields.
func (c Code) Implicit() bool {
	return c.info().size == sizeImplicit
}

// Vendor returns the vendor spelling, or "" for shapes the manual never names.
func (c Code) Vendor() string {
	return c.info().vendor
}

func (c Code) String() string {
	inf := c.info()
	if inf.vendor != "" {
		return inf.name + "[" + inf.vendor + "]"
	}
	return inf.name
}
