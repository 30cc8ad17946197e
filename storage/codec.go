package storage

import (
	"encoding/json"
	"fmt"
)

// Encode maps a natural value (bool, number, string, slice, map, struct)
// to its canonical text form.
//
// Strings are stored exactly as given: text that already parses as JSON is
// assumed to be a pre-serialized structure and must not be wrapped a second
// time, and bare text is kept verbatim so that Decode can hand it back
// unchanged. Every other value is serialized as JSON.
//
// Encoding nil is a caller error and fails with [ErrInvalidWrite]; "no
// value" is never a storable payload.
func Encode(v any) (string, error) {
	if v == nil {
		return "", ErrInvalidWrite
	}

	if s, ok := v.(string); ok {
		return s, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWrite, err)
	}
	return string(b), nil
}

// Decode maps stored text back to a natural value. Valid JSON yields the
// parsed value; anything else is a plain string and is returned unchanged.
// Decode never fails: a non-structured payload is data, not an error.
//
// Note the deliberate flattening: the text "123" decodes to the number 123
// whether it was stored as a string or as an integer. Callers that must
// round-trip the literal string wrap it in a one-element container.
func Decode(s string) any {
	if s == "" {
		return ""
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// IsEncoded reports whether text parses as a structured (JSON) payload.
func IsEncoded(s string) bool {
	return json.Valid([]byte(s))
}
