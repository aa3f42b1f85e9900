package sanitize

import (
	"encoding/json"
	"reflect"
)

// Kind classifies a loggable value for the sanitizer.
type Kind int

const (
	// KindNull is nil, including nil slices and maps.
	KindNull Kind = iota
	// KindScalar is a string, bool, number, json.Number or []byte.
	KindScalar
	// KindSequence is a slice or array.
	KindSequence
	// KindMapping is a map with string keys.
	KindMapping
	// KindOther is anything else, such as structs and pointers. It is never
	// traversed.
	KindOther
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "other"
	}
}

// Composite reports whether values of this kind are traversed.
func (k Kind) Composite() bool {
	return k == KindSequence || k == KindMapping
}

// KindOf returns the kind of v. Besides the shapes produced by decoding JSON
// into an any, typed maps with string keys (map[string]string, url.Values,
// http.Header) are mappings and typed slices and arrays are sequences.
func KindOf(v any) Kind {
	switch t := v.(type) {
	case nil:
		return KindNull
	case []any:
		if t == nil {
			return KindNull
		}
		return KindSequence
	case map[string]any:
		if t == nil {
			return KindNull
		}
		return KindMapping
	case string, bool, json.Number, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return KindScalar
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return KindOther
		}
		if rv.IsNil() {
			return KindNull
		}
		return KindMapping
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindScalar
		}
		return KindSequence
	case reflect.Array:
		return KindSequence
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return KindScalar
	default:
		return KindOther
	}
}
