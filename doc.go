// Package entgroup binds plain Go values to rows in relational tables
// without hand-written mapping code.
//
// The heavy lifting lives in the sub-packages:
//
//   - bind: discovers which accessors of a type correspond to which table
//     columns and converts values in both directions.
//   - entity: the Group CRUD/batch engine for one bound type, and the
//     Relation engine for (left_id, right_id) join tables.
//   - dialect, dialect/sql: the driver abstraction and the database/sql
//     implementation with per-dialect identifier quoting.
//
// This package holds what the engines and their callers share: the error
// taxonomy, the Record transport type, the Cache interface, and the
// optional capability interfaces an entity type may implement.
//
// # Capabilities
//
// Entity types are ordinary structs. A type may opt into richer behavior
// by implementing one of the capability interfaces:
//
//	type Account struct {
//		id        int64
//		persisted bool
//	}
//
//	func (a *Account) ID() int64            { return a.id }
//	func (a *Account) SetID(id int64)       { a.id = id }
//	func (a *Account) IsPersisted() bool    { return a.persisted }
//	func (a *Account) SetPersisted(v bool)  { a.persisted = v }
//
// Types that implement none of them fall back to identity-based inference:
// an identity greater than zero means persisted.
package entgroup
