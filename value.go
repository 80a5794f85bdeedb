package tal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeFormat is the ISO-8601 layout used when a Time is written out.
const TimeFormat = time.RFC3339

// Value is the closed set of values a Scope can hold: String, Number, Bool,
// List, Map, Time and Record. A nil Value stands for null.
type Value interface {
	String() string
	isValue()
}

type (
	String string
	Number float64
	Bool   bool
	List   []Value
	Map    map[string]Value
	Time   time.Time
)

// FieldProvider is implemented by opaque values that expose named fields to
// path lookup.
type FieldProvider interface {
	Field(name string) (any, bool)
}

// Record wraps a FieldProvider so it can live inside a Scope.
type Record struct {
	Fields FieldProvider
}

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (List) isValue()   {}
func (Map) isValue()    {}
func (Time) isValue()   {}
func (Record) isValue() {}

func (s String) String() string { return string(s) }

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (l List) String() string {
	parts := make([]string, len(l))
	for idx, item := range l {
		parts[idx] = stringOf(item)
	}
	return strings.Join(parts, ",")
}

func (m Map) String() string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for idx, key := range keys {
		parts[idx] = key + "=" + stringOf(m[key])
	}
	return strings.Join(parts, ",")
}

func (t Time) String() string { return time.Time(t).Format(TimeFormat) }

func (r Record) String() string {
	if s, ok := r.Fields.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

func (r Record) Field(name string) (Value, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields.Field(name)
	if !ok {
		return nil, false
	}
	return ValueOf(v), true
}

func stringOf(v Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// ValueOf converts plain Go data (as decoded from JSON or YAML, or built by
// hand) into a Value. Unsupported types are kept as their fmt string.
func ValueOf(v any) Value {
	switch v := v.(type) {
	case nil:
		return nil
	case Value:
		return v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case int:
		return Number(v)
	case int8:
		return Number(v)
	case int16:
		return Number(v)
	case int32:
		return Number(v)
	case int64:
		return Number(v)
	case uint:
		return Number(v)
	case uint8:
		return Number(v)
	case uint16:
		return Number(v)
	case uint32:
		return Number(v)
	case uint64:
		return Number(v)
	case float32:
		return Number(v)
	case float64:
		return Number(v)
	case time.Time:
		return Time(v)
	case []any:
		return listOf(v)
	case []string:
		return listOf(v)
	case []int:
		return listOf(v)
	case []float64:
		return listOf(v)
	case []bool:
		return listOf(v)
	case []map[string]any:
		return listOf(v)
	case []Value:
		return List(v)
	case map[string]any:
		return mapOf(v)
	case map[string]string:
		return mapOf(v)
	case map[string]int:
		return mapOf(v)
	case RenderContext:
		return mapOf(v)
	case map[any]any:
		out := make(Map, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = ValueOf(item)
		}
		return out
	case FieldProvider:
		return Record{Fields: v}
	case fmt.Stringer:
		return String(v.String())
	default:
		return String(fmt.Sprint(v))
	}
}

func listOf[T any](items []T) List {
	out := make(List, len(items))
	for idx, item := range items {
		out[idx] = ValueOf(item)
	}
	return out
}

func mapOf[M ~map[string]T, T any](items M) Map {
	out := make(Map, len(items))
	for key, item := range items {
		out[key] = ValueOf(item)
	}
	return out
}

// Result is an evaluated expression: the raw value plus the output modifiers
// named in its pipe chain.
type Result struct {
	Raw       Value
	Modifiers []*Modifier
}

// Bool is false for null, "", "false", "0" and zero numbers.
func (r Result) Bool() bool {
	switch v := r.Raw.(type) {
	case nil:
		return false
	case String:
		return v != "" && v != "false" && v != "0"
	case Number:
		return v != 0
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// String stringifies Raw and runs the modifiers left to right.
func (r Result) String() string {
	s := stringOf(r.Raw)
	for _, mod := range r.Modifiers {
		if mod.Transform != nil {
			s = mod.Transform(s)
		}
	}
	return s
}

// Escape is false once any modifier in the chain suppresses escaping.
func (r Result) Escape() bool {
	for _, mod := range r.Modifiers {
		if mod.Raw {
			return false
		}
	}
	return true
}

// List returns Raw as a list, if it is one.
func (r Result) List() (List, bool) {
	l, ok := r.Raw.(List)
	return l, ok
}
