package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestAccessorMismatchNamesBothTags(t *testing.T) {
	v := F32Value(1)
	_, err := v.AsStringArray()
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "[]string") || !strings.Contains(err.Error(), "f32") {
		t.Fatalf("error should name expected and actual tag: %v", err)
	}
}

func TestZeroValueFailsEveryAccessor(t *testing.T) {
	var v Value
	if v.Kind() != KindInvalid {
		t.Fatalf("zero kind: %s", v.Kind())
	}
	if _, err := v.AsU32(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("AsU32: %v", err)
	}
	if _, err := v.AsF32Matrix(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("AsF32Matrix: %v", err)
	}
	if _, err := v.AsInt(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("AsInt: %v", err)
	}
}

func TestAsIntWidensEveryIntegerKind(t *testing.T) {
	for _, v := range []Value{U16Value(65535), I16Value(-1), U32Value(4000000000), I32Value(-5)} {
		if _, err := v.AsInt(); err != nil {
			t.Fatalf("%v: %v", v, err)
		}
	}
	if n, _ := U32Value(4000000000).AsInt(); n != 4000000000 {
		t.Fatalf("u32 widening lost bits: %d", n)
	}
	if _, err := F64Value(1).AsInt(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("f64 should not widen: %v", err)
	}
}

func TestCodeKindsMatchConstructors(t *testing.T) {
	for c := Code(1); c < codeCount; c++ {
		if c.Kind() == KindInvalid {
			t.Fatalf("%s has no kind", c)
		}
	}
	if String.Kind() != StringValue("").Kind() {
		t.Fatalf("string code/value kind disagree")
	}
	if CodeInvalid.Valid() || codeCount.Valid() {
		t.Fatalf("sentinels must not be valid codes")
	}
}
