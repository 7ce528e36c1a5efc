package entity

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/entgroup"
)

// ReadRecord extracts the bound attribute values of e into a transport
// record keyed by column name. Values carry their serialized form, so a
// record round-trips through WriteRecord and through the msgpack codec.
func (g *Group[T]) ReadRecord(ctx context.Context, e *T) (entgroup.Record, error) {
	set, err := g.bindings(ctx)
	if err != nil {
		return nil, err
	}
	ev := reflect.ValueOf(e)
	rec := make(entgroup.Record, len(set.All))
	for _, bd := range set.All {
		v, err := bd.Value(ev)
		if err != nil {
			return nil, err
		}
		rec[bd.Column.Name] = v
	}
	return rec, nil
}

// WriteRecord applies rec onto e. Record keys with no binding are
// ignored, and bound columns absent from rec keep their current value.
func (g *Group[T]) WriteRecord(ctx context.Context, e *T, rec entgroup.Record) error {
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	ev := reflect.ValueOf(e)
	for _, bd := range set.All {
		v, ok := rec[bd.Column.Name]
		if !ok {
			continue
		}
		dest, assign := bd.Dest()
		if err := feedDest(dest, v); err != nil {
			return entgroup.NewBindError(g.typ.String(), g.opts.table, err)
		}
		if err := assign(ev); err != nil {
			return entgroup.NewBindError(g.typ.String(), g.opts.table, err)
		}
	}
	return nil
}

// EncodeEntity serializes e through its record form for cache storage.
func (g *Group[T]) EncodeEntity(ctx context.Context, e *T) ([]byte, error) {
	rec, err := g.ReadRecord(ctx, e)
	if err != nil {
		return nil, err
	}
	return EncodeRecord(rec)
}

// DecodeEntity materializes a cached record payload into a fresh entity.
func (g *Group[T]) DecodeEntity(ctx context.Context, data []byte) (*T, error) {
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	e := g.opts.factory()
	if err := g.WriteRecord(ctx, e, rec); err != nil {
		return nil, err
	}
	markPersisted(e, true)
	return e, nil
}

// EncodeRecord serializes a record to its msgpack wire form.
func EncodeRecord(rec entgroup.Record) ([]byte, error) {
	return msgpack.Marshal(map[string]any(rec))
}

// DecodeRecord deserializes a msgpack payload produced by EncodeRecord.
func DecodeRecord(data []byte) (entgroup.Record, error) {
	var m map[string]any
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return entgroup.Record(m), nil
}

// feedDest routes a record value into a scan destination, mirroring the
// driver's scan conversions.
func feedDest(dest, v any) error {
	switch d := dest.(type) {
	case stdsql.Scanner:
		return d.Scan(v)
	case *[]byte:
		switch s := v.(type) {
		case nil:
			*d = nil
		case []byte:
			*d = s
		case string:
			*d = []byte(s)
		default:
			return fmt.Errorf("entity: cannot write %T into bytes column", v)
		}
	case *any:
		*d = v
	default:
		return fmt.Errorf("entity: unsupported scan destination %T", dest)
	}
	return nil
}
