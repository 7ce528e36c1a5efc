// Package bind discovers at runtime which accessors of an entity type
// correspond to which table columns, and converts values between Go types
// and column types in both directions.
//
// Discovery is convention-based and ordered: for each column the binder
// tries the identity pair (ID/SetID), then Get/Set, Is/Set, Has/Set, the
// bare no-prefix method pair, and finally a direct struct-field binding.
// Columns with no usable pair are skipped with a diagnostic; binding fails
// only when no column binds at all.
//
// Each binding carries a classified semantic Kind that drives coercion.
// Custom types plug in through the Adapter interface; UUIDAdapter and
// DecimalAdapter ship with the package.
package bind
