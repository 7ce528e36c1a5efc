package bind

import (
	"reflect"
)

// accessor reads a value out of an entity and writes one back in. Two
// shapes exist: one bound to a method pair, one bound to a struct field.
// Entities are always handled as pointer values (*T).
type accessor interface {
	// get returns the current value of the bound attribute.
	get(ent reflect.Value) reflect.Value
	// set assigns v to the bound attribute. v must be of the accessor's
	// declared value type.
	set(ent reflect.Value, v reflect.Value)
	// valueType is the declared Go type of the attribute, pointer
	// included for nullable attributes.
	valueType() reflect.Type
}

// methodAccessor binds through a zero-argument read method and a
// one-argument write method on the entity's pointer type.
type methodAccessor struct {
	read  int // method index on *T
	write int
	typ   reflect.Type
}

func (a methodAccessor) get(ent reflect.Value) reflect.Value {
	return ent.Method(a.read).Call(nil)[0]
}

func (a methodAccessor) set(ent reflect.Value, v reflect.Value) {
	ent.Method(a.write).Call([]reflect.Value{v})
}

func (a methodAccessor) valueType() reflect.Type { return a.typ }

// fieldAccessor binds directly to an exported struct field; both
// directions go through the same field.
type fieldAccessor struct {
	index int
	typ   reflect.Type
}

func (a fieldAccessor) get(ent reflect.Value) reflect.Value {
	return ent.Elem().Field(a.index)
}

func (a fieldAccessor) set(ent reflect.Value, v reflect.Value) {
	ent.Elem().Field(a.index).Set(v)
}

func (a fieldAccessor) valueType() reflect.Type { return a.typ }

// Binding pairs one usable column with the accessor that moves values
// between entities and rows, plus the classified semantic kind driving
// coercion.
type Binding struct {
	// Name is the accessor base name, e.g. "UserName" for column
	// "user_name".
	Name string
	// Column is the bound column descriptor.
	Column Column
	// Kind is the classified semantic type of the accessor value.
	Kind Kind
	// Nullable reports whether the accessor type is a pointer.
	Nullable bool

	acc      accessor
	adapters *Adapters
}

// Type returns the declared accessor type, pointer included.
func (b *Binding) Type() reflect.Type { return b.acc.valueType() }

// valueType returns the accessor type with any pointer stripped.
func (b *Binding) valueType() reflect.Type {
	t := b.acc.valueType()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Get returns the raw accessor value of ent (a *T reflect value).
func (b *Binding) Get(ent reflect.Value) reflect.Value {
	return b.acc.get(ent)
}

// Set assigns v to the bound attribute of ent.
func (b *Binding) Set(ent reflect.Value, v reflect.Value) {
	b.acc.set(ent, v)
}

// Set is the complete binding set of one entity type against one column
// set. It is computed once per engine instance and never invalidated; a
// schema change requires a new instance.
type Set struct {
	// Type is the entity struct type (not the pointer type).
	Type reflect.Type
	// IDColumn is the configured identity column name.
	IDColumn string
	// ID is the identity binding, or nil when the column set carries no
	// identity column (ad hoc projections).
	ID *Binding
	// All holds the usable bindings in column order, identity included.
	All []*Binding
}

// ByColumn returns the binding for the given column name, or nil.
func (s *Set) ByColumn(name string) *Binding {
	for _, b := range s.All {
		if b.Column.Name == name {
			return b
		}
	}
	return nil
}

// Writable returns the bindings that participate in INSERT/UPDATE value
// lists: every usable binding except the identity.
func (s *Set) Writable() []*Binding {
	out := make([]*Binding, 0, len(s.All))
	for _, b := range s.All {
		if b != s.ID {
			out = append(out, b)
		}
	}
	return out
}

// Columns returns the bound column names in column order.
func (s *Set) Columns() []string {
	out := make([]string, len(s.All))
	for i, b := range s.All {
		out[i] = b.Column.Name
	}
	return out
}
