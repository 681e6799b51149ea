// Package msdp implements the MUD Server Data Protocol (telnet option 69)
// value model and subnegotiation codec. MSDP values are loosely typed on
// the wire: a value is a scalar string, an array of values, or a table of
// named values, nested to arbitrary depth. The Value type mirrors that
// shape as a tagged union with total, defaulting accessors so consumers
// never probe optional fields by hand.
package msdp

import (
	"sort"
	"strconv"
)

// Kind discriminates the three MSDP value shapes.
type Kind int

const (
	KindString Kind = iota
	KindArray
	KindTable
)

// String returns a human-readable kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	default:
		return "invalid"
	}
}

// Value is one MSDP value: a scalar string, an array, or a table.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	arr  []Value
	tbl  map[string]Value
}

// String constructs a scalar Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Array constructs an array Value.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// Table constructs a table Value. The map is held by reference; callers
// must not mutate it afterwards.
func Table(fields map[string]Value) Value {
	return Value{kind: KindTable, tbl: fields}
}

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// Str returns the scalar text. Non-scalar values return "".
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// AsString returns the scalar text, or def if the value is not a scalar
// or is empty.
func (v Value) AsString(def string) string {
	if v.kind != KindString || v.str == "" {
		return def
	}
	return v.str
}

// AsInt parses the scalar as a base-10 integer, or returns def if the
// value is not a scalar or does not parse.
func (v Value) AsInt(def int) int {
	if v.kind != KindString {
		return def
	}
	n, err := strconv.Atoi(v.str)
	if err != nil {
		return def
	}
	return n
}

// Len returns the number of array items or table fields; scalars have
// length 0.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindTable:
		return len(v.tbl)
	default:
		return 0
	}
}

// Index returns the i-th array item. Out-of-range indexes and non-array
// values return (zero, false).
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Items returns the array items, or nil for non-array values.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Field returns the named table field. Missing fields and non-table
// values return (zero, false).
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindTable {
		return Value{}, false
	}
	f, ok := v.tbl[name]
	return f, ok
}

// FieldString returns the named field as a scalar, or def if the field
// is missing, not a scalar, or empty.
func (v Value) FieldString(name, def string) string {
	f, ok := v.Field(name)
	if !ok {
		return def
	}
	return f.AsString(def)
}

// FieldInt returns the named field parsed as an integer, or def.
func (v Value) FieldInt(name string, def int) int {
	f, ok := v.Field(name)
	if !ok {
		return def
	}
	return f.AsInt(def)
}

// Keys returns the table's field names in sorted order, for
// deterministic iteration. Non-table values return nil.
func (v Value) Keys() []string {
	if v.kind != KindTable {
		return nil
	}
	keys := make([]string, 0, len(v.tbl))
	for k := range v.tbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
