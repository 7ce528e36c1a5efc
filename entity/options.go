package entity

import (
	"errors"

	"github.com/syssam/entgroup/bind"
)

// Option configures a Group.
type Option[T any] func(*options[T]) error

type options[T any] struct {
	table     string
	idColumn  string
	factory   func() *T
	compare   func(a, b *T) int
	where     string
	whereArgs []any
	readOnly  bool
	adapters  []bind.Adapter
	log       func(...any)
}

// WithTable overrides the default table name (the pluralized snake_case
// form of the type name).
func WithTable[T any](table string) Option[T] {
	return func(o *options[T]) error {
		if table == "" {
			return errors.New("entity: table name cannot be empty")
		}
		o.table = table
		return nil
	}
}

// WithIDColumn overrides the default identity column name "id".
func WithIDColumn[T any](column string) Option[T] {
	return func(o *options[T]) error {
		if column == "" {
			return errors.New("entity: identity column cannot be empty")
		}
		o.idColumn = column
		return nil
	}
}

// WithFactory overrides the default zero-value factory. The factory runs
// once per fetched row.
func WithFactory[T any](factory func() *T) Option[T] {
	return func(o *options[T]) error {
		if factory == nil {
			return errors.New("entity: factory cannot be nil")
		}
		o.factory = factory
		return nil
	}
}

// WithCompare sets the ordering applied by List. Without it, types
// implementing entgroup.Comparable sort naturally and everything else
// sorts by identity.
func WithCompare[T any](compare func(a, b *T) int) Option[T] {
	return func(o *options[T]) error {
		o.compare = compare
		return nil
	}
}

// WithWhere configures a fixed filter clause appended to every read and
// keyed mutation, e.g. WithWhere[User]("tenant_id = ?", 42). The clause's
// arguments are bound after the operation's own parameters.
func WithWhere[T any](clause string, args ...any) Option[T] {
	return func(o *options[T]) error {
		o.where = clause
		o.whereArgs = args
		return nil
	}
}

// WithReadOnly marks the group read-only: every mutation operation fails
// immediately with a ReadOnlyError before reaching the driver.
func WithReadOnly[T any]() Option[T] {
	return func(o *options[T]) error {
		o.readOnly = true
		return nil
	}
}

// WithAdapters registers custom type adapters for the group's bindings.
func WithAdapters[T any](adapters ...bind.Adapter) Option[T] {
	return func(o *options[T]) error {
		o.adapters = append(o.adapters, adapters...)
		return nil
	}
}

// WithLog sets the diagnostics log function. Defaults to log.Println.
func WithLog[T any](log func(...any)) Option[T] {
	return func(o *options[T]) error {
		o.log = log
		return nil
	}
}
