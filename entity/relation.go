package entity

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/syssam/entgroup"
	"github.com/syssam/entgroup/dialect"
	"github.com/syssam/entgroup/dialect/sql"
	"github.com/syssam/entgroup/internal/naming"
)

// relationBatchSize is the exact sub-batch size for bulk pair operations.
// Batches at or below this size run as one statement.
const relationBatchSize = 1000

// Pair is one (left, right) identity association.
type Pair struct {
	Left  int64
	Right int64
}

// Lister resolves identity sets into full entities. Group[T] satisfies it.
type Lister[T any] interface {
	ListByIDs(ctx context.Context, ids ...int64) ([]*T, error)
}

// RelationOption configures a Relation.
type RelationOption[L, R any] func(*Relation[L, R]) error

// WithRelationTable overrides the default join-table name
// (snake(L) + "_" + snake(R)).
func WithRelationTable[L, R any](table string) RelationOption[L, R] {
	return func(r *Relation[L, R]) error {
		if table == "" {
			return errors.New("entity: relation table cannot be empty")
		}
		r.table = table
		return nil
	}
}

// WithLeftColumn overrides the default left column name (snake(L) + "_id").
func WithLeftColumn[L, R any](column string) RelationOption[L, R] {
	return func(r *Relation[L, R]) error {
		if column == "" {
			return errors.New("entity: left column cannot be empty")
		}
		r.leftCol = column
		return nil
	}
}

// WithRightColumn overrides the default right column name (snake(R) + "_id").
func WithRightColumn[L, R any](column string) RelationOption[L, R] {
	return func(r *Relation[L, R]) error {
		if column == "" {
			return errors.New("entity: right column cannot be empty")
		}
		r.rightCol = column
		return nil
	}
}

// WithLeft sets the lister resolving left identities into entities,
// enabling LeftValues.
func WithLeft[L, R any](lister Lister[L]) RelationOption[L, R] {
	return func(r *Relation[L, R]) error {
		r.left = lister
		return nil
	}
}

// WithRight sets the lister resolving right identities into entities,
// enabling RightValues.
func WithRight[L, R any](lister Lister[R]) RelationOption[L, R] {
	return func(r *Relation[L, R]) error {
		r.right = lister
		return nil
	}
}

// Relation is the join-table engine for a stored association between two
// entity types. Pair uniqueness is enforced by the storage layer; bulk
// inserts use the dialect's duplicate-tolerant form and never deduplicate
// engine-side.
type Relation[L, R any] struct {
	drv      dialect.Driver
	table    string
	leftCol  string
	rightCol string
	left     Lister[L]
	right    Lister[R]
}

// NewRelation builds a relation between entity types L and R backed by
// drv.
func NewRelation[L, R any](drv dialect.Driver, opts ...RelationOption[L, R]) (*Relation[L, R], error) {
	var (
		l L
		r R
	)
	lt, rt := reflect.TypeOf(l), reflect.TypeOf(r)
	if lt == nil || lt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: left type %T is not a struct", l)
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: right type %T is not a struct", r)
	}
	rel := &Relation[L, R]{
		drv:      drv,
		table:    naming.JoinTable(lt.Name(), rt.Name()),
		leftCol:  naming.JoinColumn(lt.Name()),
		rightCol: naming.JoinColumn(rt.Name()),
	}
	for _, opt := range opts {
		if err := opt(rel); err != nil {
			return nil, err
		}
	}
	return rel, nil
}

// Table returns the join-table name.
func (r *Relation[L, R]) Table() string { return r.table }

// Add stores the association (leftID, rightID), reporting whether a new
// row was written. Adding an existing pair is silently ignored.
func (r *Relation[L, R]) Add(ctx context.Context, leftID, rightID int64) (bool, error) {
	return r.addAll(ctx, r.drv, "INSERT (add)", []Pair{{leftID, rightID}})
}

// AddAll stores every pair, batched at the fixed sub-batch size, and
// reports whether any sub-batch wrote at least one row.
func (r *Relation[L, R]) AddAll(ctx context.Context, pairs []Pair) (bool, error) {
	return r.addAll(ctx, r.drv, "INSERT (addAll)", pairs)
}

func (r *Relation[L, R]) addAll(ctx context.Context, conn dialect.ExecQuerier, op string, pairs []Pair) (bool, error) {
	changed := false
	for len(pairs) > 0 {
		batch := pairs
		if len(batch) > relationBatchSize {
			batch = batch[:relationBatchSize]
		}
		pairs = pairs[len(batch):]
		b := sql.NewBuilder(r.drv.Dialect())
		switch r.drv.Dialect() {
		case dialect.MySQL:
			b.WriteString("INSERT IGNORE INTO ")
		case dialect.SQLite:
			b.WriteString("INSERT OR IGNORE INTO ")
		default:
			b.WriteString("INSERT INTO ")
		}
		b.Ident(r.table).WriteString(" (").Ident(r.leftCol).Comma().Ident(r.rightCol).WriteString(") VALUES ")
		for i, p := range batch {
			if i > 0 {
				b.Comma()
			}
			b.WriteString("(").Arg(p.Left).Comma().Arg(p.Right).WriteString(")")
		}
		if r.drv.Dialect() == dialect.Postgres {
			b.WriteString(" ON CONFLICT DO NOTHING")
		}
		n, err := r.exec(ctx, conn, op, b)
		if err != nil {
			return changed, err
		}
		changed = changed || n > 0
	}
	return changed, nil
}

// Contains reports whether the association (leftID, rightID) is stored.
func (r *Relation[L, R]) Contains(ctx context.Context, leftID, rightID int64) (bool, error) {
	b := sql.NewBuilder(r.drv.Dialect())
	b.WriteString("SELECT COUNT(*) FROM ").Ident(r.table)
	b.WriteString(" WHERE ").Ident(r.leftCol).WriteString(" = ").Arg(leftID)
	b.WriteString(" AND ").Ident(r.rightCol).WriteString(" = ").Arg(rightID)
	n, err := r.count(ctx, "COUNT (contains)", b)
	return n > 0, err
}

// ContainsLeft reports whether any pair carries the given left identity.
func (r *Relation[L, R]) ContainsLeft(ctx context.Context, leftID int64) (bool, error) {
	n, err := r.sizeOf(ctx, "COUNT (containsLeft)", r.leftCol, leftID, r.rightCol)
	return n > 0, err
}

// ContainsRight reports whether any pair carries the given right identity.
func (r *Relation[L, R]) ContainsRight(ctx context.Context, rightID int64) (bool, error) {
	n, err := r.sizeOf(ctx, "COUNT (containsRight)", r.rightCol, rightID, r.leftCol)
	return n > 0, err
}

// LeftSize counts the left identities associated with rightID, optionally
// restricted to the candidate set among.
func (r *Relation[L, R]) LeftSize(ctx context.Context, rightID int64, among ...int64) (int, error) {
	return r.sizeOf(ctx, "COUNT (leftSize)", r.rightCol, rightID, r.leftCol, among...)
}

// RightSize counts the right identities associated with leftID, optionally
// restricted to the candidate set among.
func (r *Relation[L, R]) RightSize(ctx context.Context, leftID int64, among ...int64) (int, error) {
	return r.sizeOf(ctx, "COUNT (rightSize)", r.leftCol, leftID, r.rightCol, among...)
}

func (r *Relation[L, R]) sizeOf(ctx context.Context, op, keyCol string, key int64, otherCol string, among ...int64) (int, error) {
	b := sql.NewBuilder(r.drv.Dialect())
	b.WriteString("SELECT COUNT(*) FROM ").Ident(r.table)
	b.WriteString(" WHERE ").Ident(keyCol).WriteString(" = ").Arg(key)
	if len(among) > 0 {
		b.WriteString(" AND ").Ident(otherCol).WriteString(" IN (")
		for i, id := range among {
			if i > 0 {
				b.Comma()
			}
			b.Arg(id)
		}
		b.WriteString(")")
	}
	return r.count(ctx, op, b)
}

// LeftIDs returns the left identities associated with rightID.
func (r *Relation[L, R]) LeftIDs(ctx context.Context, rightID int64) ([]int64, error) {
	return r.ids(ctx, "SELECT (leftIds)", r.leftCol, r.rightCol, rightID)
}

// RightIDs returns the right identities associated with leftID.
func (r *Relation[L, R]) RightIDs(ctx context.Context, leftID int64) ([]int64, error) {
	return r.ids(ctx, "SELECT (rightIds)", r.rightCol, r.leftCol, leftID)
}

func (r *Relation[L, R]) ids(ctx context.Context, op, selectCol, whereCol string, id int64) ([]int64, error) {
	b := sql.NewBuilder(r.drv.Dialect())
	b.WriteString("SELECT ").Ident(selectCol).WriteString(" FROM ").Ident(r.table)
	b.WriteString(" WHERE ").Ident(whereCol).WriteString(" = ").Arg(id)
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, entgroup.NewOperationError(op, r.table, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, entgroup.NewOperationError(op, r.table, err)
		}
		ids = append(ids, v)
	}
	if err := rows.Err(); err != nil {
		return nil, entgroup.NewOperationError(op, r.table, err)
	}
	return ids, nil
}

// LeftValues resolves the left entities associated with rightID through
// the configured left lister.
func (r *Relation[L, R]) LeftValues(ctx context.Context, rightID int64) ([]*L, error) {
	if r.left == nil {
		return nil, fmt.Errorf("entity: relation %q has no left lister", r.table)
	}
	ids, err := r.LeftIDs(ctx, rightID)
	if err != nil {
		return nil, err
	}
	return r.left.ListByIDs(ctx, ids...)
}

// RightValues resolves the right entities associated with leftID through
// the configured right lister.
func (r *Relation[L, R]) RightValues(ctx context.Context, leftID int64) ([]*R, error) {
	if r.right == nil {
		return nil, fmt.Errorf("entity: relation %q has no right lister", r.table)
	}
	ids, err := r.RightIDs(ctx, leftID)
	if err != nil {
		return nil, err
	}
	return r.right.ListByIDs(ctx, ids...)
}

// Remove deletes the association (leftID, rightID), reporting whether a
// row was deleted.
func (r *Relation[L, R]) Remove(ctx context.Context, leftID, rightID int64) (bool, error) {
	return r.removeAll(ctx, r.drv, "DELETE (remove)", []Pair{{leftID, rightID}})
}

// RemoveAll deletes every pair, batched at the fixed sub-batch size, and
// reports whether any sub-batch deleted at least one row.
func (r *Relation[L, R]) RemoveAll(ctx context.Context, pairs []Pair) (bool, error) {
	return r.removeAll(ctx, r.drv, "DELETE (removeAll)", pairs)
}

func (r *Relation[L, R]) removeAll(ctx context.Context, conn dialect.ExecQuerier, op string, pairs []Pair) (bool, error) {
	changed := false
	for len(pairs) > 0 {
		batch := pairs
		if len(batch) > relationBatchSize {
			batch = batch[:relationBatchSize]
		}
		pairs = pairs[len(batch):]
		b := sql.NewBuilder(r.drv.Dialect())
		b.WriteString("DELETE FROM ").Ident(r.table)
		b.WriteString(" WHERE (").Ident(r.leftCol).Comma().Ident(r.rightCol).WriteString(") IN (")
		for i, p := range batch {
			if i > 0 {
				b.Comma()
			}
			b.WriteString("(").Arg(p.Left).Comma().Arg(p.Right).WriteString(")")
		}
		b.WriteString(")")
		n, err := r.execOn(ctx, conn, op, b)
		if err != nil {
			return changed, err
		}
		changed = changed || n > 0
	}
	return changed, nil
}

// ReplaceAll deletes every stored pair and then stores pairs, both
// statements on one session, reporting whether either step changed rows.
func (r *Relation[L, R]) ReplaceAll(ctx context.Context, pairs []Pair) (bool, error) {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return false, entgroup.NewOperationError("REPLACE (replaceAll)", r.table, err)
	}
	b := sql.NewBuilder(r.drv.Dialect())
	b.WriteString("DELETE FROM ").Ident(r.table)
	deleted, err := r.execOn(ctx, tx, "DELETE (replaceAll)", b)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	inserted := false
	if len(pairs) > 0 {
		inserted, err = r.addAll(ctx, tx, "INSERT (replaceAll)", pairs)
		if err != nil {
			_ = tx.Rollback()
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, entgroup.NewOperationError("REPLACE (replaceAll)", r.table, err)
	}
	return deleted > 0 || inserted, nil
}

// RemoveEntity removes all pairs touching id on whichever side(s) match
// the runtime type of v.
func (r *Relation[L, R]) RemoveEntity(ctx context.Context, v any, id int64) (bool, error) {
	changed := false
	if _, ok := v.(*L); ok {
		n, err := r.RemoveLeft(ctx, id)
		if err != nil {
			return changed, err
		}
		changed = changed || n
	}
	if _, ok := v.(*R); ok {
		n, err := r.RemoveRight(ctx, id)
		if err != nil {
			return changed, err
		}
		changed = changed || n
	}
	return changed, nil
}

// RemoveLeft deletes every pair carrying the given left identity.
func (r *Relation[L, R]) RemoveLeft(ctx context.Context, leftID int64) (bool, error) {
	return r.removeSide(ctx, "DELETE (removeLeft)", r.leftCol, leftID)
}

// RemoveRight deletes every pair carrying the given right identity.
func (r *Relation[L, R]) RemoveRight(ctx context.Context, rightID int64) (bool, error) {
	return r.removeSide(ctx, "DELETE (removeRight)", r.rightCol, rightID)
}

func (r *Relation[L, R]) removeSide(ctx context.Context, op, col string, id int64) (bool, error) {
	b := sql.NewBuilder(r.drv.Dialect())
	b.WriteString("DELETE FROM ").Ident(r.table)
	b.WriteString(" WHERE ").Ident(col).WriteString(" = ").Arg(id)
	n, err := r.execOn(ctx, r.drv, op, b)
	return n > 0, err
}

// Clear deletes every stored pair.
func (r *Relation[L, R]) Clear(ctx context.Context) (bool, error) {
	b := sql.NewBuilder(r.drv.Dialect())
	b.WriteString("DELETE FROM ").Ident(r.table)
	n, err := r.execOn(ctx, r.drv, "DELETE (clear)", b)
	return n > 0, err
}

// Pairs dumps the full association.
func (r *Relation[L, R]) Pairs(ctx context.Context) ([]Pair, error) {
	b := sql.NewBuilder(r.drv.Dialect())
	b.WriteString("SELECT ").Ident(r.leftCol).Comma().Ident(r.rightCol).WriteString(" FROM ").Ident(r.table)
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, entgroup.NewOperationError("SELECT (pairs)", r.table, err)
	}
	defer rows.Close()
	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Left, &p.Right); err != nil {
			return nil, entgroup.NewOperationError("SELECT (pairs)", r.table, err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, entgroup.NewOperationError("SELECT (pairs)", r.table, err)
	}
	return pairs, nil
}

func (r *Relation[L, R]) count(ctx context.Context, op string, b *sql.Builder) (int, error) {
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return 0, entgroup.NewOperationError(op, r.table, err)
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, entgroup.NewOperationError(op, r.table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, entgroup.NewOperationError(op, r.table, err)
	}
	return n, nil
}

// exec runs a mutation and classifies constraint violations.
func (r *Relation[L, R]) exec(ctx context.Context, conn dialect.ExecQuerier, op string, b *sql.Builder) (int64, error) {
	n, err := r.execOn(ctx, conn, op, b)
	if err != nil {
		var oe *entgroup.OperationError
		if errors.As(err, &oe) && sql.IsUniqueConstraintError(oe.Err) {
			return n, entgroup.NewConstraintError(r.table, oe.Err)
		}
	}
	return n, err
}

// execOn runs a mutation on conn and returns the affected row count.
func (r *Relation[L, R]) execOn(ctx context.Context, conn dialect.ExecQuerier, op string, b *sql.Builder) (int64, error) {
	query, args := b.Query()
	var res sql.Result
	if err := conn.Exec(ctx, query, args, &res); err != nil {
		return 0, entgroup.NewOperationError(op, r.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, entgroup.NewOperationError(op, r.table, err)
	}
	return n, nil
}
