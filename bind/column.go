package bind

import (
	"context"

	"github.com/syssam/entgroup/dialect"
	"github.com/syssam/entgroup/dialect/sql"
)

// Column describes one table column: its name, 1-based ordinal position
// and declared database type. Descriptors are produced once per table (or
// inferred from a query shape) and are immutable afterwards.
type Column struct {
	Name    string
	Ordinal int
	Type    string
}

// TableColumns discovers the column set of a table by probing it with a
// zero-row select. It returns an empty slice when the table cannot be
// queried, which signals the caller to fall back to a query-shape source.
func TableColumns(ctx context.Context, drv dialect.Driver, table string) ([]Column, error) {
	b := sql.NewBuilder(drv.Dialect())
	b.WriteString("SELECT * FROM ").Ident(table).WriteString(" WHERE 1 = 0")
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return RowColumns(rows)
}

// RowColumns infers column descriptors from a query result shape. It is
// the fallback metadata source for views and other non-introspectable
// read-only projections.
func RowColumns(rows *sql.Rows) ([]Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(types))
	for i, ct := range types {
		cols[i] = Column{
			Name:    ct.Name(),
			Ordinal: i + 1,
			Type:    ct.DatabaseTypeName(),
		}
	}
	return cols, nil
}
