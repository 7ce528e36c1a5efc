package bind

import (
	"database/sql"
	"fmt"
	"reflect"
)

// Value serializes the bound attribute of ent (a *T reflect value) to a
// column-compatible value: enums become their name string, Char a
// one-character string, Duration its nanosecond count, nil pointers NULL.
// The field's adapter, when one applies, runs last.
func (b *Binding) Value(ent reflect.Value) (any, error) {
	var out any
	v := b.Get(ent)
	switch {
	case b.Nullable && v.IsNil():
		out = nil
	case b.Nullable:
		out = b.serialize(v.Elem())
	default:
		out = b.serialize(v)
	}
	if ad := b.resolveAdapter(); ad != nil {
		return ad.Write(out)
	}
	return out, nil
}

// serialize performs the structural runtime-to-storage conversion on a
// non-pointer value.
func (b *Binding) serialize(v reflect.Value) any {
	switch b.Kind {
	case KindEnum:
		return v.String()
	case KindChar:
		if r := rune(v.Int()); r != 0 {
			return string(r)
		}
		return ""
	case KindDuration:
		return v.Int()
	case KindBool:
		return v.Bool()
	case KindString:
		return v.String()
	case KindBytes:
		return v.Bytes()
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return v.Int()
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return v.Uint()
	case KindFloat32, KindFloat64:
		return v.Float()
	default:
		return v.Interface()
	}
}

// Dest returns a fresh scan destination for one row together with the
// assign step that narrows the scanned value into the entity. Boxed
// (pointer) bindings receive nil on NULL; primitive bindings receive
// their zero value.
func (b *Binding) Dest() (any, func(ent reflect.Value) error) {
	if ad := b.resolveAdapter(); ad != nil {
		raw := new(any)
		return raw, func(ent reflect.Value) error {
			out, err := ad.Read(*raw)
			if err != nil {
				return fmt.Errorf("bind: adapter read for %q: %w", b.Column.Name, err)
			}
			if out == nil {
				b.assign(ent, false, nil)
				return nil
			}
			rv := reflect.ValueOf(out)
			b.assign(ent, true, func(dst reflect.Value) {
				if rv.Type() != dst.Type() && rv.CanConvert(dst.Type()) {
					rv = rv.Convert(dst.Type())
				}
				dst.Set(rv)
			})
			return nil
		}
	}
	switch b.Kind {
	case KindBool:
		d := new(sql.NullBool)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) { dst.SetBool(d.Bool) })
			return nil
		}
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		d := new(sql.NullInt64)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) { dst.SetInt(d.Int64) })
			return nil
		}
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		d := new(sql.NullInt64)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) { dst.SetUint(uint64(d.Int64)) })
			return nil
		}
	case KindFloat32, KindFloat64:
		d := new(sql.NullFloat64)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) { dst.SetFloat(d.Float64) })
			return nil
		}
	case KindString:
		d := new(sql.NullString)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) { dst.SetString(d.String) })
			return nil
		}
	case KindEnum:
		d := new(sql.NullString)
		return d, func(ent reflect.Value) error {
			// An empty or NULL source yields no value, not an error.
			b.assign(ent, d.Valid && d.String != "", func(dst reflect.Value) { dst.SetString(d.String) })
			return nil
		}
	case KindChar:
		d := new(sql.NullString)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) {
				// The empty string maps to the NUL sentinel.
				var r rune
				for _, r = range d.String {
					break
				}
				dst.SetInt(int64(r))
			})
			return nil
		}
	case KindBytes:
		d := new([]byte)
		return d, func(ent reflect.Value) error {
			b.assign(ent, *d != nil, func(dst reflect.Value) { dst.SetBytes(*d) })
			return nil
		}
	case KindTime:
		d := new(sql.NullTime)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) { dst.Set(reflect.ValueOf(d.Time)) })
			return nil
		}
	case KindDuration:
		d := new(sql.NullInt64)
		return d, func(ent reflect.Value) error {
			b.assign(ent, d.Valid, func(dst reflect.Value) { dst.SetInt(d.Int64) })
			return nil
		}
	default:
		// Unknown: generic fetch, assigned only when the runtime type fits.
		d := new(any)
		return d, func(ent reflect.Value) error {
			if *d == nil {
				b.assign(ent, false, nil)
				return nil
			}
			rv := reflect.ValueOf(*d)
			b.assign(ent, true, func(dst reflect.Value) {
				switch {
				case rv.Type() == dst.Type():
					dst.Set(rv)
				case rv.CanConvert(dst.Type()):
					dst.Set(rv.Convert(dst.Type()))
				}
			})
			return nil
		}
	}
}

// assign writes a scanned value into the entity through the accessor,
// allocating the pointer for nullable bindings and leaving nil on NULL.
func (b *Binding) assign(ent reflect.Value, valid bool, fill func(dst reflect.Value)) {
	t := b.acc.valueType()
	if b.Nullable {
		if !valid {
			b.Set(ent, reflect.Zero(t))
			return
		}
		p := reflect.New(t.Elem())
		fill(p.Elem())
		b.Set(ent, p)
		return
	}
	v := reflect.New(t).Elem()
	if valid {
		fill(v)
	}
	b.Set(ent, v)
}

func (b *Binding) resolveAdapter() Adapter {
	if b.adapters == nil {
		return nil
	}
	return b.adapters.Resolve(b.Name, b.valueType())
}
