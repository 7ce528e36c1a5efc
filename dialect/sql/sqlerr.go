package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL error numbers for duplicate-entry violations.
const (
	mysqlDupEntry            = 1062
	mysqlDupEntryWithKeyName = 1586
)

// IsUniqueConstraintError reports whether the error originates from a
// unique or primary-key constraint violation in any of the supported
// drivers. The relation engine uses it to treat a duplicate pair insert
// as "already present" rather than a failure.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var (
		myErr *mysql.MySQLError
		pqErr *pq.Error
		liErr *sqlite.Error
	)
	switch {
	case errors.As(err, &myErr):
		return myErr.Number == mysqlDupEntry || myErr.Number == mysqlDupEntryWithKeyName
	case errors.As(err, &pqErr):
		return pqErr.Code == "23505" // unique_violation
	case errors.As(err, &liErr):
		switch liErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return false
	default:
		// Fall back to message sniffing for drivers that do not expose
		// typed errors (e.g. sqlmock in tests).
		msg := err.Error()
		return strings.Contains(msg, "Error 1062") ||
			strings.Contains(msg, "duplicate key value violates unique constraint") ||
			strings.Contains(msg, "UNIQUE constraint failed")
	}
}
