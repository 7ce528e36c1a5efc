package bind

import (
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/syssam/entgroup"
	"github.com/syssam/entgroup/internal/naming"
)

// Binder discovers, for an entity type and a column set, which accessor
// pair serves each column. Discovery is convention-based: an explicit,
// ordered list of matchers is tried per column and the first success wins.
// A column with no usable pair is skipped with a diagnostic, not an error;
// read-only projections from ad hoc queries may legitimately omit columns.
type Binder struct {
	// Log receives unbound-column diagnostics. Defaults to log.Println.
	Log func(...any)
	// Adapters are the custom type adapters available to the produced
	// bindings. May be nil.
	Adapters *Adapters
}

// Bind produces the binding set of typ (a struct type) against cols.
// idColumn names the identity column. Binding fails only when cols is
// empty; otherwise unbound columns are dropped.
func (b *Binder) Bind(typ reflect.Type, idColumn string, cols []Column) (*Set, error) {
	if len(cols) == 0 {
		return nil, entgroup.ErrNoColumns
	}
	set := &Set{Type: typ, IDColumn: idColumn}
	pt := reflect.PointerTo(typ)
	for _, col := range cols {
		acc, ok := b.match(pt, typ, col, idColumn)
		if !ok {
			b.logf(fmt.Sprintf("bind: no accessor pair for column %q of %s; column skipped", col.Name, typ))
			continue
		}
		kind, nullable := KindOf(acc.valueType())
		bd := &Binding{
			Name:     naming.Accessor(col.Name),
			Column:   col,
			Kind:     kind,
			Nullable: nullable,
			acc:      acc,
			adapters: b.Adapters,
		}
		set.All = append(set.All, bd)
		if strings.EqualFold(col.Name, idColumn) {
			set.ID = bd
		}
	}
	if len(set.All) == 0 {
		return nil, entgroup.ErrNoColumns
	}
	return set, nil
}

// match tries the convention matchers in their fixed priority order:
// identity (ID/SetID), Get/Set, Is/Set, Has/Set, the bare no-prefix form,
// and finally a direct struct-field binding.
func (b *Binder) match(pt, typ reflect.Type, col Column, idColumn string) (accessor, bool) {
	name := naming.Accessor(col.Name)
	if strings.EqualFold(col.Name, idColumn) {
		if acc, ok := methodPair(pt, "ID", "SetID"); ok {
			return acc, true
		}
	}
	for _, prefix := range []string{"Get", "Is", "Has", ""} {
		if acc, ok := methodPair(pt, prefix+name, "Set"+name); ok {
			return acc, true
		}
	}
	return fieldFor(typ, name)
}

// methodPair accepts a pair only when a zero-argument read method and a
// one-argument write method exist with the given (case-insensitive) names
// and agree on the value type.
func methodPair(pt reflect.Type, readName, writeName string) (accessor, bool) {
	read, ok := methodByFold(pt, readName)
	if !ok || read.Type.NumIn() != 1 || read.Type.NumOut() != 1 {
		return nil, false
	}
	write, ok := methodByFold(pt, writeName)
	if !ok || write.Type.NumIn() != 2 || write.Type.NumOut() > 1 {
		return nil, false
	}
	if read.Type.Out(0) != write.Type.In(1) {
		return nil, false
	}
	return methodAccessor{read: read.Index, write: write.Index, typ: read.Type.Out(0)}, true
}

func methodByFold(pt reflect.Type, name string) (reflect.Method, bool) {
	for i := 0; i < pt.NumMethod(); i++ {
		if m := pt.Method(i); strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return reflect.Method{}, false
}

// fieldFor is the member-variable shape: an exported struct field whose
// name matches the column's accessor form serves both directions.
func fieldFor(typ reflect.Type, name string) (accessor, bool) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() || !strings.EqualFold(f.Name, name) {
			continue
		}
		return fieldAccessor{index: i, typ: f.Type}, true
	}
	return nil, false
}

func (b *Binder) logf(args ...any) {
	if b.Log != nil {
		b.Log(args...)
		return
	}
	log.Println(args...)
}
