package gateway

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/danmuck/spmctl/internal/protocol"
)

type argJSON struct {
	Code  string          `json:"code" binding:"required"`
	Value json.RawMessage `json:"value"`
}

type transactRequest struct {
	Command string    `json:"command" binding:"required"`
	Args    []argJSON `json:"args"`
	Results []string  `json:"results"`
}

type resultJSON struct {
	Code  string `json:"code"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func decodeArgs(args []argJSON) ([]protocol.Value, []protocol.Code, error) {
	values := make([]protocol.Value, 0, len(args))
	codes := make([]protocol.Code, 0, len(args))
	for i, a := range args {
		code, err := protocol.ParseCode(a.Code)
		if err != nil {
			return nil, nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		v, err := valueFromJSON(code.Kind(), a.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("args[%d]: %w: %w", i, protocol.ErrInvalidArgument, err)
		}
		values = append(values, v)
		codes = append(codes, code)
	}
	return values, codes, nil
}

func valueFromJSON(kind protocol.Kind, raw json.RawMessage) (protocol.Value, error) {
	if len(raw) == 0 {
		return protocol.Value{}, fmt.Errorf("missing value")
	}
	switch kind {
	case protocol.KindU16:
		var v uint16
		err := json.Unmarshal(raw, &v)
		return protocol.U16Value(v), err
	case protocol.KindI16:
		var v int16
		err := json.Unmarshal(raw, &v)
		return protocol.I16Value(v), err
	case protocol.KindU32:
		var v uint32
		err := json.Unmarshal(raw, &v)
		return protocol.U32Value(v), err
	case protocol.KindI32:
		var v int32
		err := json.Unmarshal(raw, &v)
		return protocol.I32Value(v), err
	case protocol.KindF32:
		var v float32
		err := json.Unmarshal(raw, &v)
		return protocol.F32Value(v), err
	case protocol.KindF64:
		var v float64
		err := json.Unmarshal(raw, &v)
		return protocol.F64Value(v), err
	case protocol.KindString:
		var v string
		err := json.Unmarshal(raw, &v)
		return protocol.StringValue(v), err
	case protocol.KindU8Array:
		// JSON has no byte arrays; accept plain numbers instead of base64
		var wide []uint16
		if err := json.Unmarshal(raw, &wide); err != nil {
			return protocol.Value{}, err
		}
		v := make([]uint8, len(wide))
		for i, n := range wide {
			if n > math.MaxUint8 {
				return protocol.Value{}, fmt.Errorf("element %d out of byte range: %d", i, n)
			}
			v[i] = uint8(n)
		}
		return protocol.U8ArrayValue(v), nil
	case protocol.KindU16Array:
		var v []uint16
		err := json.Unmarshal(raw, &v)
		return protocol.U16ArrayValue(v), err
	case protocol.KindI16Array:
		var v []int16
		err := json.Unmarshal(raw, &v)
		return protocol.I16ArrayValue(v), err
	case protocol.KindU32Array:
		var v []uint32
		err := json.Unmarshal(raw, &v)
		return protocol.U32ArrayValue(v), err
	case protocol.KindI32Array:
		var v []int32
		err := json.Unmarshal(raw, &v)
		return protocol.I32ArrayValue(v), err
	case protocol.KindF32Array:
		var v []float32
		err := json.Unmarshal(raw, &v)
		return protocol.F32ArrayValue(v), err
	case protocol.KindF64Array:
		var v []float64
		err := json.Unmarshal(raw, &v)
		return protocol.F64ArrayValue(v), err
	case protocol.KindStringArray:
		var v []string
		err := json.Unmarshal(raw, &v)
		return protocol.StringArrayValue(v), err
	case protocol.KindF32Matrix:
		var v [][]float32
		err := json.Unmarshal(raw, &v)
		return protocol.F32MatrixValue(v), err
	default:
		return protocol.Value{}, fmt.Errorf("unsupported kind %s", kind)
	}
}

func encodeResults(values []protocol.Value, codes []protocol.Code) []resultJSON {
	out := make([]resultJSON, len(values))
	for i, v := range values {
		raw := v.Interface()
		if b, ok := raw.([]uint8); ok {
			wide := make([]uint16, len(b))
			for j, n := range b {
				wide[j] = uint16(n)
			}
			raw = wide
		}
		out[i] = resultJSON{Code: codes[i].String(), Kind: v.Kind().String(), Value: jsonSafe(raw)}
	}
	return out
}

// jsonSafe replaces NaN and infinities, which encoding/json rejects, with
// null.
func jsonSafe(raw any) any {
	switch v := raw.(type) {
	case float32:
		return finiteOrNil([]float32{v})[0]
	case float64:
		return finiteOrNil([]float64{v})[0]
	case []float32:
		return finiteOrNil(v)
	case []float64:
		return finiteOrNil(v)
	case [][]float32:
		rows := make([]any, len(v))
		for i, row := range v {
			rows[i] = finiteOrNil(row)
		}
		return rows
	}
	return raw
}

func finiteOrNil[T float32 | float64](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[i] = x
	}
	return out
}
