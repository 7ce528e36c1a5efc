// Package dialect provides the database abstraction consumed by the
// entity engines.
//
// It defines the Driver, Tx and ExecQuerier interfaces, the dialect name
// constants (Postgres, MySQL, SQLite), and a Debug wrapper that logs every
// outgoing operation through an injected log function.
//
// Opening a connection:
//
//	import (
//	    "github.com/syssam/entgroup/dialect"
//	    "github.com/syssam/entgroup/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect
