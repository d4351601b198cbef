// Package types provides nullable values for JSON payloads where an absent or
// null field must be told apart from a zero value.
package types

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Nullable is implemented by values that can be null.
type Nullable interface {
	// IsNil reports whether the value is null or was absent from the payload.
	IsNil() bool
}
