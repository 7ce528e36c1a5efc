package bind

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Adapter converts between a runtime type the coercion layer does not
// know and a column-compatible value. At most one adapter applies per
// field; it runs after the structural conversions on write and may fully
// override the scanned value on read.
type Adapter interface {
	// AppliesTo reports whether the adapter serves accessor values of
	// type t (pointer already stripped).
	AppliesTo(t reflect.Type) bool
	// Write converts a runtime value to its storage form.
	Write(v any) (any, error)
	// Read converts a storage value back to the runtime form.
	Read(v any) (any, error)
}

// noAdapter is the cache sentinel recording that no adapter applies to a
// field, so the adapter list is scanned at most once per field.
type noAdapter struct{}

func (noAdapter) AppliesTo(reflect.Type) bool { return false }
func (noAdapter) Write(v any) (any, error)    { return v, nil }
func (noAdapter) Read(v any) (any, error)     { return v, nil }

// Adapters resolves the applicable adapter per field and caches the
// outcome. Resolution is deterministic, so racing first lookups are safe;
// the last stored result is equivalent regardless of race outcome.
type Adapters struct {
	adapters []Adapter
	cache    sync.Map // field name -> Adapter (noAdapter sentinel for none)
}

// NewAdapters returns an adapter registry over the given adapters.
func NewAdapters(adapters ...Adapter) *Adapters {
	return &Adapters{adapters: adapters}
}

// Resolve returns the adapter for the named field of type t, or nil.
func (a *Adapters) Resolve(field string, t reflect.Type) Adapter {
	if v, ok := a.cache.Load(field); ok {
		if _, none := v.(noAdapter); none {
			return nil
		}
		return v.(Adapter)
	}
	for _, ad := range a.adapters {
		if ad.AppliesTo(t) {
			a.cache.Store(field, ad)
			return ad
		}
	}
	a.cache.Store(field, noAdapter{})
	return nil
}

var (
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// UUIDAdapter stores uuid.UUID attributes in their canonical string form.
type UUIDAdapter struct{}

// AppliesTo implements Adapter.
func (UUIDAdapter) AppliesTo(t reflect.Type) bool { return t == uuidType }

// Write implements Adapter.
func (UUIDAdapter) Write(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("bind: UUIDAdapter: unexpected type %T", v)
	}
	return id.String(), nil
}

// Read implements Adapter.
func (UUIDAdapter) Read(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		return uuid.ParseBytes(v)
	default:
		return nil, fmt.Errorf("bind: UUIDAdapter: unexpected type %T", v)
	}
}

// DecimalAdapter stores decimal.Decimal attributes as exact decimal
// strings, avoiding float round-trips.
type DecimalAdapter struct{}

// AppliesTo implements Adapter.
func (DecimalAdapter) AppliesTo(t reflect.Type) bool { return t == decimalType }

// Write implements Adapter.
func (DecimalAdapter) Write(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	d, ok := v.(decimal.Decimal)
	if !ok {
		return nil, fmt.Errorf("bind: DecimalAdapter: unexpected type %T", v)
	}
	return d.String(), nil
}

// Read implements Adapter.
func (DecimalAdapter) Read(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return nil, fmt.Errorf("bind: DecimalAdapter: unexpected type %T", v)
	}
}
