package dialect

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Dialect names of the supported databases.
const (
	// MySQL is the mysql dialect.
	MySQL = "mysql"
	// SQLite is the sqlite dialect.
	SQLite = "sqlite"
	// Postgres is the postgres dialect.
	Postgres = "postgres"
)

// ExecQuerier wraps the two standard statement methods.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. For example,
	// in SQL, INSERT or UPDATE. It scans the result into the pointer v.
	// For SQL drivers, v should be of type *sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows, typically a SELECT.
	// It scans the result into the pointer v. For SQL drivers, v should
	// be of type *sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all database operations. It is the
// pooled session provider of the engines: every public engine operation
// acquires one session from the driver for its duration and never retains
// it past the call.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transaction behavior with the Exec and Query methods.
type Tx interface {
	ExecQuerier
	// Commit commits the transaction.
	Commit() error
	// Rollback discards the transaction.
	Rollback() error
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit / Rollback.
func NopTx(d Driver) Tx {
	return nopTx{d}
}

// DebugDriver is a driver that logs all driver operations.
type DebugDriver struct {
	Driver           // underlying driver.
	log func(...any) // log function.
}

// Debug gets a driver and an optional logging function, and returns
// a new debugged-driver that prints all outgoing operations.
func Debug(d Driver, logger ...func(...any)) Driver {
	logf := log.Println
	if len(logger) == 1 {
		logf = logger[0]
	}
	return &DebugDriver{d, logf}
}

// Exec logs its params and calls the underlying driver Exec method.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.log(fmt.Sprintf("driver.Exec: query=%v args=%v time=%s", query, args, time.Since(start)))
	return err
}

// Query logs its params and calls the underlying driver Query method.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.log(fmt.Sprintf("driver.Query: query=%v args=%v time=%s", query, args, time.Since(start)))
	return err
}

// Tx adds an log-id for the transaction and calls the underlying driver Tx command.
func (d *DebugDriver) Tx(ctx context.Context) (Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.log("driver.Tx: started")
	return &DebugTx{tx, d.log}, nil
}

// DebugTx is a transaction implementation that logs all transaction operations.
type DebugTx struct {
	Tx               // underlying transaction.
	log func(...any) // log function.
}

// Exec logs its params and calls the underlying transaction Exec method.
func (d *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Tx.Exec(ctx, query, args, v)
	d.log(fmt.Sprintf("Tx.Exec: query=%v args=%v time=%s", query, args, time.Since(start)))
	return err
}

// Query logs its params and calls the underlying transaction Query method.
func (d *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Tx.Query(ctx, query, args, v)
	d.log(fmt.Sprintf("Tx.Query: query=%v args=%v time=%s", query, args, time.Since(start)))
	return err
}

// Commit logs this step and calls the underlying transaction Commit method.
func (d *DebugTx) Commit() error {
	d.log("Tx.Commit")
	return d.Tx.Commit()
}

// Rollback logs this step and calls the underlying transaction Rollback method.
func (d *DebugTx) Rollback() error {
	d.log("Tx.Rollback")
	return d.Tx.Rollback()
}
