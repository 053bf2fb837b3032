package protocol

import "fmt"

// Toggle is a three-state setting: leave as is, switch on, switch off.
type Toggle uint8

const (
	NoChange Toggle = iota
	On
	Off
)

// ToggleOf maps a plain bool onto On/Off.
func ToggleOf(b bool) Toggle {
	if b {
		return On
	}
	return Off
}

func (t Toggle) String() string {
	switch t {
	case NoChange:
		return "no-change"
	case On:
		return "on"
	case Off:
		return "off"
	}
	return fmt.Sprintf("toggle(%d)", uint8(t))
}

// ToggleEncoding is one command family's integer convention for a Toggle.
type ToggleEncoding uint8

const (
	// ToggleNoChangeOnOff is 0=no change, 1=on, 2=off.
	ToggleNoChangeOnOff ToggleEncoding = iota
	// ToggleOffOn is 0=off, 1=on. NoChange cannot be expressed.
	ToggleOffOn
	// ToggleNegativeNoChange is -1=no change, 0=off, 1=on.
	ToggleNegativeNoChange
)

// Raw returns the wire integer for t.
func (e ToggleEncoding) Raw(t Toggle) (int64, error) {
	switch e {
	case ToggleNoChangeOnOff:
		switch t {
		case NoChange:
			return 0, nil
		case On:
			return 1, nil
		case Off:
			return 2, nil
		}
	case ToggleOffOn:
		switch t {
		case On:
			return 1, nil
		case Off:
			return 0, nil
		case NoChange:
			return 0, fmt.Errorf("%w: no-change is not expressible in on/off encoding", ErrInvalidArgument)
		}
	case ToggleNegativeNoChange:
		switch t {
		case NoChange:
			return -1, nil
		case On:
			return 1, nil
		case Off:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: %s under encoding %d", ErrInvalidArgument, t, e)
}

// Encode returns t as a Value for the integer code c.
func (e ToggleEncoding) Encode(t Toggle, c Code) (Value, error) {
	raw, err := e.Raw(t)
	if err != nil {
		return Value{}, err
	}
	switch c {
	case U16:
		if raw < 0 {
			break
		}
		return U16Value(uint16(raw)), nil
	case U32:
		if raw < 0 {
			break
		}
		return U32Value(uint32(raw)), nil
	case I16:
		return I16Value(int16(raw)), nil
	case I32:
		return I32Value(int32(raw)), nil
	default:
		return Value{}, fmt.Errorf("%w: toggle needs an integer code, got %s", ErrInvalidArgument, c)
	}
	return Value{}, fmt.Errorf("%w: %d does not fit %s", ErrInvalidArgument, raw, c)
}

// Decode maps a wire integer back to a Toggle.
func (e ToggleEncoding) Decode(v Value) (Toggle, error) {
	raw, err := v.AsInt()
	if err != nil {
		return NoChange, err
	}
	for _, t := range [...]Toggle{NoChange, On, Off} {
		if want, err := e.Raw(t); err == nil && want == raw {
			return t, nil
		}
	}
	return NoChange, fmt.Errorf("%w: toggle value %d", ErrProtocol, raw)
}
