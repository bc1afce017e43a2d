package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Field holds a value extracted or computed from free text. A field that
// could not be resolved carries no value; consumers must check OK before
// using it and render it with Format.
type Field[T any] struct {
	value T
	ok    bool
}

// Resolved wraps a known value.
func Resolved[T any](v T) Field[T] {
	return Field[T]{value: v, ok: true}
}

// Unresolved returns a field with no value.
func Unresolved[T any]() Field[T] {
	return Field[T]{}
}

// Get returns the value and whether it was resolved.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.ok
}

// OK reports whether the field holds a value.
func (f Field[T]) OK() bool {
	return f.ok
}

// Format renders the value with fn, or ErrorMarker when unresolved.
func (f Field[T]) Format(fn func(T) string) string {
	if !f.ok {
		return ErrorMarker
	}
	return fn(f.value)
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String renders a duration as "<value> <unit>".
func (d Duration) String() string {
	return fmt.Sprintf("%s %s", FormatNumber(d.Value), d.Unit)
}

// Tier is the declared complexity of a task.
type Tier string

const (
	TierEasy    Tier = "Easy"
	TierMedium  Tier = "Medium"
	TierHard    Tier = "Hard"
	TierUnknown Tier = ErrorMarker
)

// ParseTier maps a word onto a known tier, ignoring case.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return TierEasy
	case "medium":
		return TierMedium
	case "hard":
		return TierHard
	}
	return TierUnknown
}

// Known reports whether t is one of Easy, Medium or Hard.
func (t Tier) Known() bool {
	return t == TierEasy || t == TierMedium || t == TierHard
}
