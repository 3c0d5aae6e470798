package extract

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/fatih/structs"
	"github.com/tidwall/gjson"
)

// Object is a node exposing named attributes.
type Object interface {
	Field(name string) (any, bool)
}

// Mapping is a node exposing string-keyed entries.
type Mapping interface {
	Lookup(key string) (any, bool)
}

// Sequence is an ordered list of nodes.
type Sequence interface {
	Len() int
	Index(i int) any
}

// Attributes returns the attribute view of v, for adapters that wrap a
// struct and override only some names.
func Attributes(v any) (Object, bool) {
	return asObject(v)
}

// asObject reports whether v has attribute semantics. Types implementing
// Object are used directly; structs and pointers to structs are probed by
// field name.
func asObject(v any) (Object, bool) {
	switch n := v.(type) {
	case nil:
		return nil, false
	case Object:
		return n, true
	case Mapping, Sequence, gjson.Result:
		return nil, false
	}
	if !structs.IsStruct(v) {
		return nil, false
	}
	return structObject{s: structs.New(v)}, true
}

func asMapping(v any) (Mapping, bool) {
	switch n := v.(type) {
	case nil:
		return nil, false
	case Mapping:
		return n, true
	case gjson.Result:
		m, ok := fromJSON(n).(Mapping)
		return m, ok
	case map[string]any:
		return stringMap(n), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	return reflectMap{v: rv}, true
}

func asSequence(v any) (Sequence, bool) {
	switch n := v.(type) {
	case nil, []byte, string:
		return nil, false
	case Sequence:
		return n, true
	case gjson.Result:
		s, ok := fromJSON(n).(Sequence)
		return s, ok
	case []any:
		return anySlice(n), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		return reflectSlice{v: rv}, true
	}
	return nil, false
}

// asBytes returns v as raw bytes when it is a byte slice.
func asBytes(v any) ([]byte, bool) {
	if b, ok := v.([]byte); ok {
		return b, true
	}
	rv := indirect(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	return rv.Bytes(), true
}

// asText returns v as a string when it is string-kinded.
func asText(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := indirect(v)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

// truthy mirrors the loose presence test used on mapping values: nil, zero
// numbers, false and empty strings or collections are all absent.
func truthy(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return !rv.IsZero()
	}
	return true
}

func indirect(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

type structObject struct {
	s *structs.Struct
}

// Field matches name against each exported field's JSON tag, the snake_case
// form of that tag, and the snake_case form of the Go field name.
func (o structObject) Field(name string) (any, bool) {
	for _, f := range o.s.Fields() {
		if !f.IsExported() {
			continue
		}
		if matchesField(f, name) {
			return f.Value(), true
		}
	}
	return nil, false
}

func matchesField(f *structs.Field, name string) bool {
	if tag, _, _ := strings.Cut(f.Tag("json"), ","); tag != "" && tag != "-" {
		if tag == name || snakeCase(tag) == name {
			return true
		}
	}
	return snakeCase(f.Name()) == name
}

// snakeCase converts Go and JSON identifiers to snake_case, keeping
// acronyms together: MIMEType -> mime_type, inlineData -> inline_data,
// B64JSON -> b64_json.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

type stringMap map[string]any

func (m stringMap) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

type reflectMap struct {
	v reflect.Value
}

func (m reflectMap) Lookup(key string) (any, bool) {
	val := m.v.MapIndex(reflect.ValueOf(key).Convert(m.v.Type().Key()))
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}

type anySlice []any

func (s anySlice) Len() int        { return len(s) }
func (s anySlice) Index(i int) any { return s[i] }

type reflectSlice struct {
	v reflect.Value
}

func (s reflectSlice) Len() int        { return s.v.Len() }
func (s reflectSlice) Index(i int) any { return s.v.Index(i).Interface() }
