// Package sql implements the dialect.Driver interface on top of
// database/sql, and provides the statement-building primitives shared by
// the entity engines: a Builder that applies per-dialect identifier
// quoting and placeholder numbering, and classification of driver-specific
// unique-constraint violations.
package sql
