package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/spmctl/internal/protocol"
)

// parseArg reads one "code=value" command-line argument. Arrays are comma
// separated; matrix rows are separated by semicolons.
func parseArg(arg string) (protocol.Value, protocol.Code, error) {
	rawCode, rawValue, ok := strings.Cut(arg, "=")
	if !ok {
		return protocol.Value{}, protocol.CodeInvalid, fmt.Errorf("%w: argument %q is not code=value", protocol.ErrInvalidArgument, arg)
	}
	code, err := protocol.ParseCode(rawCode)
	if err != nil {
		return protocol.Value{}, protocol.CodeInvalid, err
	}
	v, err := parseValue(code.Kind(), rawValue)
	if err != nil {
		return protocol.Value{}, protocol.CodeInvalid, fmt.Errorf("%w: %s: %w", protocol.ErrInvalidArgument, arg, err)
	}
	return v, code, nil
}

func parseValue(kind protocol.Kind, raw string) (protocol.Value, error) {
	switch kind {
	case protocol.KindU16:
		n, err := strconv.ParseUint(raw, 0, 16)
		return protocol.U16Value(uint16(n)), err
	case protocol.KindI16:
		n, err := strconv.ParseInt(raw, 0, 16)
		return protocol.I16Value(int16(n)), err
	case protocol.KindU32:
		n, err := strconv.ParseUint(raw, 0, 32)
		return protocol.U32Value(uint32(n)), err
	case protocol.KindI32:
		n, err := strconv.ParseInt(raw, 0, 32)
		return protocol.I32Value(int32(n)), err
	case protocol.KindF32:
		f, err := strconv.ParseFloat(raw, 32)
		return protocol.F32Value(float32(f)), err
	case protocol.KindF64:
		f, err := strconv.ParseFloat(raw, 64)
		return protocol.F64Value(f), err
	case protocol.KindString:
		return protocol.StringValue(raw), nil
	case protocol.KindStringArray:
		return protocol.StringArrayValue(splitList(raw)), nil
	case protocol.KindU8Array:
		v, err := parseList(raw, func(s string) (uint8, error) {
			n, err := strconv.ParseUint(s, 0, 8)
			return uint8(n), err
		})
		return protocol.U8ArrayValue(v), err
	case protocol.KindU16Array:
		v, err := parseList(raw, func(s string) (uint16, error) {
			n, err := strconv.ParseUint(s, 0, 16)
			return uint16(n), err
		})
		return protocol.U16ArrayValue(v), err
	case protocol.KindI16Array:
		v, err := parseList(raw, func(s string) (int16, error) {
			n, err := strconv.ParseInt(s, 0, 16)
			return int16(n), err
		})
		return protocol.I16ArrayValue(v), err
	case protocol.KindU32Array:
		v, err := parseList(raw, func(s string) (uint32, error) {
			n, err := strconv.ParseUint(s, 0, 32)
			return uint32(n), err
		})
		return protocol.U32ArrayValue(v), err
	case protocol.KindI32Array:
		v, err := parseList(raw, func(s string) (int32, error) {
			n, err := strconv.ParseInt(s, 0, 32)
			return int32(n), err
		})
		return protocol.I32ArrayValue(v), err
	case protocol.KindF32Array:
		v, err := parseList(raw, parseF32)
		return protocol.F32ArrayValue(v), err
	case protocol.KindF64Array:
		v, err := parseList(raw, func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		})
		return protocol.F64ArrayValue(v), err
	case protocol.KindF32Matrix:
		var rows [][]float32
		for _, r := range strings.Split(raw, ";") {
			if strings.TrimSpace(r) == "" {
				continue
			}
			row, err := parseList(r, parseF32)
			if err != nil {
				return protocol.Value{}, err
			}
			rows = append(rows, row)
		}
		return protocol.F32MatrixValue(rows), nil
	default:
		return protocol.Value{}, fmt.Errorf("unsupported kind %s", kind)
	}
}

func parseF32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

func parseList[T any](raw string, parse func(string) (T, error)) ([]T, error) {
	parts := splitList(raw)
	out := make([]T, 0, len(parts))
	for i, p := range parts {
		v, err := parse(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatValue(v protocol.Value) string {
	if s, err := v.AsString(); err == nil {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v.Interface())
}
