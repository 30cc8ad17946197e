package storage

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodeRejectsNil(t *testing.T) {
	if _, err := Encode(nil); !errors.Is(err, ErrInvalidWrite) {
		t.Fatalf("expected ErrInvalidWrite, got %v", err)
	}
}

func TestEncodePlainStringPassthrough(t *testing.T) {
	out, err := Encode("hello")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if out != "hello" {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

func TestEncodePreSerializedStoredAsIs(t *testing.T) {
	pre := `{"a":1,"b":[true,null]}`
	out, err := Encode(pre)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if out != pre {
		t.Fatalf("pre-serialized text was re-encoded: %q", out)
	}
}

func TestEncodeStructuredValues(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{true, "true"},
		{123, "123"},
		{1.5, "1.5"},
		{[]any{float64(1)}, "[1]"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tc := range cases {
		out, err := Encode(tc.in)
		if err != nil {
			t.Fatalf("encode %v: %v", tc.in, err)
		}
		if out != tc.want {
			t.Fatalf("encode %v: got %q want %q", tc.in, out, tc.want)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	values := []any{
		true,
		false,
		float64(42),
		2.25,
		"plain text",
		[]any{float64(1), "two", true},
		map[string]any{"nested": []any{"a", float64(0)}},
	}
	for _, v := range values {
		encoded, err := Encode(v)
		if err != nil {
			t.Fatalf("encode %v: %v", v, err)
		}
		got := Decode(encoded)
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("round trip %v: got %#v", v, got)
		}
	}
}

func TestReEncodeIdempotent(t *testing.T) {
	v := map[string]any{"a": float64(1)}
	first, err := Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := Encode(first)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if second != first {
		t.Fatalf("re-encoding changed the text: %q vs %q", second, first)
	}
	if !reflect.DeepEqual(Decode(second), v) {
		t.Fatalf("decode after re-encode diverged: %#v", Decode(second))
	}
}

func TestDecodeNonStructuredTextUnchanged(t *testing.T) {
	if got := Decode("not json at all {"); got != "not json at all {" {
		t.Fatalf("plain text mangled: %#v", got)
	}
}

// The stored text "123" decodes to the number 123 whether the caller
// stored the string or the integer. This flattening is deliberate and
// load-bearing for downstream callers; do not "fix" it.
func TestNumericStringFlattening(t *testing.T) {
	fromString, err := Encode("123")
	if err != nil {
		t.Fatalf("encode string: %v", err)
	}
	fromInt, err := Encode(123)
	if err != nil {
		t.Fatalf("encode int: %v", err)
	}
	if fromString != fromInt {
		t.Fatalf("expected identical stored text, got %q vs %q", fromString, fromInt)
	}
	if got := Decode(fromString); got != float64(123) {
		t.Fatalf("expected number back, got %#v", got)
	}

	// The documented escape hatch: wrap the literal in a container.
	wrapped, err := Encode([]any{"123"})
	if err != nil {
		t.Fatalf("encode wrapped: %v", err)
	}
	got, ok := Decode(wrapped).([]any)
	if !ok || len(got) != 1 || got[0] != "123" {
		t.Fatalf("wrapped literal lost: %#v", got)
	}
}
