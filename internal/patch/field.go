package patch

import "encoding/json"

// Field is a tri-state JSON field for partial updates. A field absent from
// the request body leaves the value unchanged, an explicit null clears it,
// and a value sets it. encoding/json only invokes UnmarshalJSON for keys
// present in the body, which is what makes the absent case detectable.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if string(data) == "null" {
		f.Null = true
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

// Set reports whether the field carries a concrete value
func (f Field[T]) Set() bool {
	return f.Present && !f.Null
}

// Clear reports whether the field was an explicit null
func (f Field[T]) Clear() bool {
	return f.Present && f.Null
}
