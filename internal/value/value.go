// Package value implements the generic configuration tree that every file
// format and the environment overlay are converted into before merging.
//
// A Value is a closed variant: exactly one of nil, boolean, integer, float,
// string, sequence or table. The zero Value is nil.
package value

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindTable
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Table maps case-sensitive keys to values.
type Table map[string]Value

// Value is a node of the configuration tree.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	seq  []Value
	tbl  Table
}

// Nil returns the nil value.
func Nil() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Sequence returns a sequence holding items in order.
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// TableOf returns a table value. A nil table is replaced by an empty one.
func TableOf(t Table) Value {
	if t == nil {
		t = Table{}
	}
	return Value{kind: KindTable, tbl: t}
}

// EmptyTable returns a table value with no keys.
func EmptyTable() Value { return TableOf(nil) }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) IsTable() bool { return v.kind == KindTable }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsSequence returns the items of a sequence. The slice is shared with v.
func (v Value) AsSequence() ([]Value, bool) { return v.seq, v.kind == KindSequence }

// AsTable returns the entries of a table. The map is shared with v.
func (v Value) AsTable() (Table, bool) { return v.tbl, v.kind == KindTable }

// Lookup walks path through nested tables.
func (v Value) Lookup(path ...string) (Value, bool) {
	current := v
	for _, segment := range path {
		t, ok := current.AsTable()
		if !ok {
			return Value{}, false
		}
		next, ok := t[segment]
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSequence:
		items := make([]Value, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Clone()
		}
		return Sequence(items...)
	case KindTable:
		return TableOf(v.tbl.Clone())
	default:
		return v
	}
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v.Clone()
	}
	return out
}

// Keys returns the keys of t in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether v and o hold the same variant with equal contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindTable:
		if len(v.tbl) != len(o.tbl) {
			return false
		}
		for k, a := range v.tbl {
			b, ok := o.tbl[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v into plain Go values: map[string]any, []any, bool,
// int64, float64, string or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSequence:
		items := make([]any, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Interface()
		}
		return items
	case KindTable:
		m := make(map[string]any, len(v.tbl))
		for k, item := range v.tbl {
			m[k] = item.Interface()
		}
		return m
	default:
		return nil
	}
}

// String renders v for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, item := range v.seq {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindTable:
		parts := make([]string, 0, len(v.tbl))
		for _, k := range v.tbl.Keys() {
			parts = append(parts, k+" = "+v.tbl[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// FromAny converts the output of a format decoder into a Value. Maps must be
// keyed by strings (other key types are formatted with fmt.Sprint); times are
// kept as RFC 3339 strings.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Nil(), nil
	case Value:
		return x.Clone(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case time.Time:
		return String(x.Format(time.RFC3339Nano)), nil
	case number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %v: %w", raw, err)
		}
		return Float(f), nil
	case map[string]any:
		t := make(Table, len(x))
		for k, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			t[k] = v
		}
		return TableOf(t), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Sequence(items...), nil
	}
	return fromReflect(reflect.ValueOf(raw))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > 1<<63-1 {
			return Value{}, fmt.Errorf("integer %d overflows int64", u)
		}
		return Int(int64(u)), nil
	case reflect.Map:
		t := make(Table, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			v, err := FromAny(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			t[k] = v
		}
		return TableOf(t), nil
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			v, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Sequence(items...), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil(), nil
		}
		return FromAny(rv.Elem().Interface())
	}
	return Value{}, fmt.Errorf("unsupported value of type %s", rv.Type())
}

// Parse coerces a raw string into the most specific scalar it spells:
// boolean literals (case-insensitive), then integers, then floats. Anything
// else stays a string, so Parse never fails.
func Parse(raw string) Value {
	switch strings.ToLower(raw) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i)
	}
	// "inf" and "nan" parse as floats but are far more likely to be words.
	if strings.ContainsAny(raw, "0123456789") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Float(f)
		}
	}
	return String(raw)
}
