package protocol

import (
	"errors"
	"testing"
)

func TestToggleEncodings(t *testing.T) {
	cases := []struct {
		enc  ToggleEncoding
		t    Toggle
		code Code
		want Value
	}{
		{ToggleNoChangeOnOff, NoChange, U32, U32Value(0)},
		{ToggleNoChangeOnOff, On, U32, U32Value(1)},
		{ToggleNoChangeOnOff, Off, U16, U16Value(2)},
		{ToggleOffOn, On, U32, U32Value(1)},
		{ToggleOffOn, Off, U32, U32Value(0)},
		{ToggleNegativeNoChange, NoChange, I32, I32Value(-1)},
		{ToggleNegativeNoChange, Off, I16, I16Value(0)},
	}
	for _, tc := range cases {
		got, err := tc.enc.Encode(tc.t, tc.code)
		if err != nil {
			t.Fatalf("encode %s/%d: %v", tc.t, tc.enc, err)
		}
		if got != tc.want {
			t.Fatalf("encode %s/%d: got %v want %v", tc.t, tc.enc, got, tc.want)
		}
		back, err := tc.enc.Decode(got)
		if err != nil || back != tc.t {
			t.Fatalf("decode %v: got %s err %v", got, back, err)
		}
	}
}

func TestToggleRejectsInexpressibleStates(t *testing.T) {
	if _, err := ToggleOffOn.Encode(NoChange, U32); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ToggleNegativeNoChange.Encode(NoChange, U32); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative into unsigned: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ToggleNoChangeOnOff.Encode(On, F32); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("float code: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ToggleNoChangeOnOff.Decode(U32Value(9)); !errors.Is(err, ErrProtocol) {
		t.Fatalf("unknown raw: expected ErrProtocol, got %v", err)
	}
}
