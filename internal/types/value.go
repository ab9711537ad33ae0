// internal/types/value.go
package types

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

/*
 * Nested record values.
 *
 * Value is an immutable tagged union over Struct, Array and Primitive. It is
 * the column-like handle the rebuild core operates on: Field reads a named
 * struct field, WithField returns a copy with one field replaced or appended,
 * and Elems/Index expose array elements for broadcasting.
 *
 * Null handling: a null is a Primitive with nil Data. Field and WithField on a
 * null receiver return null instead of failing, matching how the host engine
 * propagates nulls through struct access. Only non-null, non-struct receivers
 * fail with ErrTypeMismatch.
 *
 * Immutability: constructors copy their input slices and no method mutates the
 * receiver, so a Value can be shared across goroutines without coordination.
 */

// Kind discriminates the Value union.
type Kind int

const (
	KindPrimitive Kind = iota
	KindStruct
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	default:
		return "primitive"
	}
}

// Field is one named member of a Struct value.
type Field struct {
	Name  string
	Value Value
}

// Value is an immutable nested record value. The zero Value is an untyped null.
type Value struct {
	kind   Kind
	typ    string // primitive type tag
	data   any    // primitive payload, nil for null
	fields []Field
	elems  []Value
}

// Struct builds a struct value. Field names must be unique; order is kept.
func Struct(fields ...Field) Value {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	return Value{kind: KindStruct, fields: fs}
}

// Array builds an array value.
func Array(elems ...Value) Value {
	es := make([]Value, len(elems))
	copy(es, elems)
	return Value{kind: KindArray, elems: es}
}

// Prim builds a primitive carrying its declared type tag.
func Prim(typ string, data any) Value {
	return Value{kind: KindPrimitive, typ: typ, data: data}
}

// Null builds a null primitive typed as typ. An empty typ means unknown.
func Null(typ string) Value {
	return Value{kind: KindPrimitive, typ: typ}
}

// F is shorthand for building a Field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is a null primitive.
func (v Value) IsNull() bool {
	return v.kind == KindPrimitive && v.data == nil
}

// Type returns the primitive type tag, or "struct"/"array" for composites.
func (v Value) Type() string {
	if v.kind != KindPrimitive {
		return v.kind.String()
	}
	return v.typ
}

// Data returns the primitive payload (nil for null and composites).
func (v Value) Data() any {
	if v.kind != KindPrimitive {
		return nil
	}
	return v.data
}

// NumFields returns the number of struct fields (0 for non-structs).
func (v Value) NumFields() int { return len(v.fields) }

// FieldAt returns the i-th struct field in declaration order.
func (v Value) FieldAt(i int) Field { return v.fields[i] }

// Fields returns a copy of the struct fields.
func (v Value) Fields() []Field {
	fs := make([]Field, len(v.fields))
	copy(fs, v.fields)
	return fs
}

// Has reports whether the struct has a field named name.
func (v Value) Has(name string) bool {
	return v.indexOf(name) >= 0
}

func (v Value) indexOf(name string) int {
	for i := range v.fields {
		if v.fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Field returns the named struct field.
// Returns ErrFieldNotFound if the field is missing, ErrTypeMismatch if v is not
// a struct. A null receiver yields an untyped null.
func (v Value) Field(name string) (Value, error) {
	switch {
	case v.IsNull():
		return Null(""), nil
	case v.kind != KindStruct:
		return Value{}, fmt.Errorf("get field %q on %s: %w", name, v.kind, ErrTypeMismatch)
	}
	i := v.indexOf(name)
	if i < 0 {
		return Value{}, fmt.Errorf("%q: %w", name, ErrFieldNotFound)
	}
	return v.fields[i].Value, nil
}

// WithField returns a copy of v with field name set to nv. A missing field is
// appended after the existing ones; an existing field keeps its position.
// A null receiver stays null.
func (v Value) WithField(name string, nv Value) (Value, error) {
	switch {
	case v.IsNull():
		return v, nil
	case v.kind != KindStruct:
		return Value{}, fmt.Errorf("with field %q on %s: %w", name, v.kind, ErrTypeMismatch)
	}
	i := v.indexOf(name)
	if i < 0 {
		fs := make([]Field, len(v.fields), len(v.fields)+1)
		copy(fs, v.fields)
		return Value{kind: KindStruct, fields: append(fs, Field{Name: name, Value: nv})}, nil
	}
	fs := make([]Field, len(v.fields))
	copy(fs, v.fields)
	fs[i].Value = nv
	return Value{kind: KindStruct, fields: fs}, nil
}

// Len returns the array length (0 for non-arrays).
func (v Value) Len() int { return len(v.elems) }

// Index returns the i-th array element.
func (v Value) Index(i int) Value { return v.elems[i] }

// Elems returns a copy of the array elements.
func (v Value) Elems() []Value {
	es := make([]Value, len(v.elems))
	copy(es, v.elems)
	return es
}

// Equal reports deep structural equality including field order and type tags.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindStruct:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	default:
		return v.typ == o.typ && reflect.DeepEqual(v.data, o.data)
	}
}

// String renders v compactly, e.g. {a: {b: 1, c: "x"}, l: [true, null]}.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindStruct:
		b.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Value.write(b)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteByte(']')
	default:
		switch d := v.data.(type) {
		case nil:
			b.WriteString("null")
		case string:
			b.WriteString(strconv.Quote(d))
		default:
			fmt.Fprintf(b, "%v", d)
		}
	}
}
