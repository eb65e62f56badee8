package dto

import (
	"bytes"
	"encoding/json"
)

// Patch is a tri-state optional used by partial updates: absent (Set=false),
// explicit null (Set=true, Valid=false) or a value (Set=true, Valid=true).
type Patch[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Value returns a patch carrying v.
func Value[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Valid: true, Value: v}
}

// Null returns a patch that clears the field.
func Null[T any]() Patch[T] {
	return Patch[T]{Set: true}
}

// UnmarshalJSON records that the key was present.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		p.Valid = false
		p.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &p.Value); err != nil {
		return err
	}
	p.Valid = true
	return nil
}

// MarshalJSON renders null for cleared or absent patches.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if !p.Set || !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// Ptr returns nil for a null patch, otherwise a pointer to the value.
func (p Patch[T]) Ptr() *T {
	if !p.Valid {
		return nil
	}
	v := p.Value
	return &v
}
