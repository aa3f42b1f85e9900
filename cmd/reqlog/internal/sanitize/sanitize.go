// Package sanitize strips sensitive values out of request data before it is
// logged. It provides the payload sanitizer, the header sanitizer and the
// path filter used by the request logger.
//
// A Sanitizer and a PathFilter are immutable once built. Their methods only
// read that configuration and allocate fresh output, so they are safe for
// concurrent use.
package sanitize

import (
	"reflect"
	"strings"

	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
)

// Sanitizer redacts values whose keys match a denylist of substrings.
type Sanitizer struct {
	fields []string
	marker string
}

// New builds a Sanitizer. Fields are matched case-insensitively as
// substrings of keys; empty and duplicate entries are dropped. An empty marker
// falls back to constants.RedactedPlaceholder.
func New(fields []string, marker string) *Sanitizer {
	if marker == "" {
		marker = constants.RedactedPlaceholder
	}

	seen := make(map[string]bool, len(fields))
	lowered := make([]string, 0, len(fields))
	for _, field := range fields {
		f := strings.ToLower(strings.TrimSpace(field))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		lowered = append(lowered, f)
	}

	return &Sanitizer{fields: lowered, marker: marker}
}

var defaultSanitizer = New(constants.SensitiveFields, constants.RedactedPlaceholder)

// Default returns the sanitizer built from constants.SensitiveFields.
func Default() *Sanitizer {
	return defaultSanitizer
}

// Fields returns a copy of the lowercased denylist.
func (s *Sanitizer) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Marker returns the redaction marker.
func (s *Sanitizer) Marker() string {
	return s.marker
}

// IsSensitive reports whether key contains any denylisted substring,
// ignoring case.
func (s *Sanitizer) IsSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range s.fields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// Data returns a deep copy of v with the values of sensitive keys replaced by
// the marker. Typed maps and slices come back as map[string]any and []any.
// Non-composite values are returned as they are. v is never modified and must
// be acyclic.
func (s *Sanitizer) Data(v any) any {
	switch KindOf(v) {
	case KindSequence:
		if seq, ok := v.([]any); ok {
			return s.sequence(seq)
		}
		return s.reflectSequence(reflect.ValueOf(v))
	case KindMapping:
		if m, ok := v.(map[string]any); ok {
			return s.mapping(m)
		}
		return s.reflectMapping(reflect.ValueOf(v))
	default:
		return v
	}
}

func (s *Sanitizer) sequence(in []any) []any {
	out := make([]any, len(in))
	for i, elem := range in {
		out[i] = s.Data(elem)
	}
	return out
}

func (s *Sanitizer) reflectSequence(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = s.Data(rv.Index(i).Interface())
	}
	return out
}

func (s *Sanitizer) mapping(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = s.entry(key, value)
	}
	return out
}

func (s *Sanitizer) reflectMapping(rv reflect.Value) map[string]any {
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		out[key] = s.entry(key, iter.Value().Interface())
	}
	return out
}

func (s *Sanitizer) entry(key string, value any) any {
	switch {
	case s.IsSensitive(key):
		return s.marker
	case KindOf(value).Composite():
		return s.Data(value)
	default:
		return value
	}
}

// Data sanitizes v with the default sanitizer.
func Data(v any) any {
	return defaultSanitizer.Data(v)
}
