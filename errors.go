package entgroup

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	// ErrReadOnly is returned when a mutation is attempted on a group
	// configured read-only.
	ErrReadOnly = errors.New("entgroup: group is read-only")

	// ErrNoColumns is returned when neither table metadata nor a query
	// result shape yields any usable columns.
	ErrNoColumns = errors.New("entgroup: no usable columns")

	// ErrNoIdentity is returned when the bound column set carries no
	// identity column for the group's configured identity name.
	ErrNoIdentity = errors.New("entgroup: no identity column bound")

	// ErrNoGeneratedID is returned when an insert that should produce a
	// generated identity did not.
	ErrNoGeneratedID = errors.New("entgroup: insert returned no generated identity")
)

// OperationError wraps a storage failure during a named operation. It is
// the single unrecoverable error kind for prepare/execute failures; the
// engines never retry or partially recover.
type OperationError struct {
	Op    string // named operation, e.g. "INSERT", "DELETE (removeAll)"
	Table string
	Err   error
}

// Error returns the error string.
func (e *OperationError) Error() string {
	return fmt.Sprintf("entgroup: %s on %q: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *OperationError) Unwrap() error { return e.Err }

// NewOperationError returns a new OperationError for the given operation.
func NewOperationError(op, table string, err error) *OperationError {
	return &OperationError{Op: op, Table: table, Err: err}
}

// IsOperationError returns true if the error is an OperationError.
func IsOperationError(err error) bool {
	if err == nil {
		return false
	}
	var e *OperationError
	return errors.As(err, &e)
}

// ReadOnlyError is returned when a mutation operation is invoked on a
// read-only group. The violation is reported before any statement is
// prepared or executed.
type ReadOnlyError struct {
	Op    string
	Table string
}

// Error returns the error string.
func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("entgroup: %s rejected: group for %q is read-only", e.Op, e.Table)
}

// Is reports whether the target error matches ReadOnlyError.
// This allows errors.Is(err, ErrReadOnly) to return true.
func (e *ReadOnlyError) Is(err error) bool {
	return err == ErrReadOnly
}

// NewReadOnlyError returns a new ReadOnlyError naming the rejected operation.
func NewReadOnlyError(op, table string) *ReadOnlyError {
	return &ReadOnlyError{Op: op, Table: table}
}

// IsReadOnly returns true if the error is a ReadOnlyError.
func IsReadOnly(err error) bool {
	if err == nil {
		return false
	}
	var e *ReadOnlyError
	return errors.As(err, &e) || errors.Is(err, ErrReadOnly)
}

// BindError reports that no usable column metadata could be found for an
// entity type. It occurs only on severe misconfiguration (wrong table name,
// no prior query to infer a shape from) and is not recoverable.
type BindError struct {
	Type  string // entity type name
	Table string
	Err   error
}

// Error returns the error string.
func (e *BindError) Error() string {
	return fmt.Sprintf("entgroup: cannot bind %s to %q: %v", e.Type, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error { return e.Err }

// NewBindError returns a new BindError for the given entity type and table.
func NewBindError(typ, table string, err error) *BindError {
	return &BindError{Type: typ, Table: table, Err: err}
}

// IsBindError returns true if the error is a BindError.
func IsBindError(err error) bool {
	if err == nil {
		return false
	}
	var e *BindError
	return errors.As(err, &e)
}

// IdentityError reports a generated-identity inconsistency: an insert
// completed but the storage layer produced no identity to assign back.
type IdentityError struct {
	Table string
	Err   error
}

// Error returns the error string.
func (e *IdentityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("entgroup: identity for %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("entgroup: insert into %q produced no generated identity", e.Table)
}

// Is reports whether the target error matches ErrNoGeneratedID.
func (e *IdentityError) Is(err error) bool {
	return err == ErrNoGeneratedID
}

// Unwrap returns the underlying error.
func (e *IdentityError) Unwrap() error { return e.Err }

// NewIdentityError returns a new IdentityError for the given table.
func NewIdentityError(table string, err error) *IdentityError {
	return &IdentityError{Table: table, Err: err}
}

// ConstraintError represents a database constraint violation.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("entgroup: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error { return e.wrap }

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}
