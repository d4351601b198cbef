package types

// NullableString is a string that may be null. An empty string with Valid set
// is not nil.
type NullableString struct {
	Value string
	Valid bool
}

// String returns the value, or an empty string when null.
func (ns NullableString) String() string {
	if ns.Valid {
		return ns.Value
	}
	return ""
}

// IsNil reports whether the string is null.
func (ns NullableString) IsNil() bool {
	return !ns.Valid
}

// IsBlank reports whether the string is null or empty.
func (ns NullableString) IsBlank() bool {
	return !ns.Valid || ns.Value == ""
}

// Set assigns value and marks the string valid.
func (ns *NullableString) Set(value string) {
	ns.Value = value
	ns.Valid = true
}

func (ns NullableString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.Value)
	}
	return []byte("null"), nil
}

func (ns *NullableString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		ns.Value = ""
		ns.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &ns.Value); err != nil {
		return err
	}
	ns.Valid = true
	return nil
}

// NullableStringFrom returns a valid NullableString holding s.
func NullableStringFrom(s string) NullableString {
	return NullableString{Value: s, Valid: true}
}

// NullString returns a null NullableString.
func NullString() NullableString {
	return NullableString{}
}

var _ Nullable = NullableString{}
