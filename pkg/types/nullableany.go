package types

import (
	"bytes"
	"errors"

	jsoniter "github.com/json-iterator/go"
)

// ErrNullValue is returned by GetAs when the value is null.
var ErrNullValue = errors.New("value is null")

// NullableAny holds an arbitrary JSON value verbatim, or null.
type NullableAny struct {
	raw   jsoniter.RawMessage
	valid bool
}

// IsNil reports whether the value is null.
func (na NullableAny) IsNil() bool {
	return !na.valid
}

// Raw returns the JSON text of the value, or nil when null.
func (na NullableAny) Raw() jsoniter.RawMessage {
	if !na.valid {
		return nil
	}
	return na.raw
}

// Set stores value. jsoniter.RawMessage and []byte holding valid JSON are kept
// verbatim; anything else is marshalled.
func (na *NullableAny) Set(value any) error {
	var raw []byte
	switch v := value.(type) {
	case jsoniter.RawMessage:
		if !json.Valid(v) {
			return errors.New("value is not valid JSON")
		}
		raw = v
	case []byte:
		if json.Valid(v) {
			raw = v
			break
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		na.raw, na.valid = nil, false
		return nil
	}
	na.raw, na.valid = raw, true
	return nil
}

// Get decodes the value into a generic Go value, or returns nil.
func (na NullableAny) Get() any {
	if !na.valid {
		return nil
	}
	var v any
	if err := json.Unmarshal(na.raw, &v); err != nil {
		return nil
	}
	return v
}

// GetAs decodes the value into v.
func (na NullableAny) GetAs(v any) error {
	if !na.valid {
		return ErrNullValue
	}
	return json.Unmarshal(na.raw, v)
}

func (na NullableAny) MarshalJSON() ([]byte, error) {
	if na.valid {
		return na.raw, nil
	}
	return []byte("null"), nil
}

func (na *NullableAny) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		na.raw, na.valid = nil, false
		return nil
	}
	if !json.Valid(data) {
		return errors.New("invalid JSON")
	}
	na.raw = append(jsoniter.RawMessage(nil), data...)
	na.valid = true
	return nil
}

// NullableAnyFrom returns a NullableAny holding value.
func NullableAnyFrom(value any) (NullableAny, error) {
	var na NullableAny
	if err := na.Set(value); err != nil {
		return NullableAny{}, err
	}
	return na, nil
}

// NilAny returns a null NullableAny.
func NilAny() NullableAny {
	return NullableAny{}
}

var _ Nullable = NullableAny{}
