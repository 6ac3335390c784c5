package models

import (
	"encoding/json"
	"fmt"
)

// Reading is a value that is either present or unavailable with a reason.
// An unavailable reading serializes as JSON null, never as a zero value.
type Reading[T any] struct {
	value  T
	ok     bool
	reason string
}

// Present wraps an available value.
func Present[T any](v T) Reading[T] {
	return Reading[T]{value: v, ok: true}
}

// Unavailable records why a value could not be read.
func Unavailable[T any](reason string) Reading[T] {
	if reason == "" {
		reason = "unavailable"
	}
	return Reading[T]{reason: reason}
}

// UnavailableErr is Unavailable with the error text as the reason.
func UnavailableErr[T any](err error) Reading[T] {
	if err == nil {
		return Unavailable[T]("")
	}
	return Unavailable[T](err.Error())
}

// Get returns the value and whether it is present.
func (r Reading[T]) Get() (T, bool) { return r.value, r.ok }

// Present reports whether the reading holds a value.
func (r Reading[T]) Present() bool { return r.ok }

// Reason is empty for present readings.
func (r Reading[T]) Reason() string { return r.reason }

func (r Reading[T]) String() string {
	if !r.ok {
		return "n/a"
	}
	return fmt.Sprint(r.value)
}

// MarshalJSON implements json.Marshaler.
func (r Reading[T]) MarshalJSON() ([]byte, error) {
	if !r.ok {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON implements json.Unmarshaler. null becomes Unavailable.
func (r *Reading[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Unavailable[T]("")
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Present(v)
	return nil
}
