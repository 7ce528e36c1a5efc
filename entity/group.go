package entity

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"reflect"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/syssam/entgroup"
	"github.com/syssam/entgroup/bind"
	"github.com/syssam/entgroup/dialect"
	"github.com/syssam/entgroup/dialect/sql"
	"github.com/syssam/entgroup/internal/naming"
)

// putAllThreshold is the batch size at which PutAll switches from
// per-entity puts to partitioned batch statements.
const putAllThreshold = 100

// Group is the persistence engine for one entity type over one table.
// A group carries no entity cache; every read goes to the database.
type Group[T any] struct {
	drv  dialect.Driver
	opts options[T]

	typ        reflect.Type
	comparable bool
	binder     *bind.Binder

	// set is computed lazily on first use. Racing first computations are
	// safe: binding is deterministic, so the last stored set is equivalent.
	set       atomic.Pointer[bind.Set]
	lastShape atomic.Pointer[[]bind.Column]

	shapes *shapeCache
}

// New builds a group for entity type T backed by drv. The table name
// defaults to the pluralized snake_case form of the type name and the
// identity column to "id".
func New[T any](drv dialect.Driver, opts ...Option[T]) (*Group[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: type %T is not a struct", zero)
	}
	g := &Group[T]{drv: drv, typ: typ, shapes: newShapeCache(shapeCacheSize)}
	g.opts.table = naming.Table(typ.Name())
	g.opts.idColumn = "id"
	g.opts.factory = func() *T { return new(T) }
	g.opts.log = log.Println
	for _, opt := range opts {
		if err := opt(&g.opts); err != nil {
			return nil, err
		}
	}
	g.comparable = reflect.PointerTo(typ).Implements(comparableType)
	adapters := append([]bind.Adapter{}, g.opts.adapters...)
	adapters = append(adapters, bind.UUIDAdapter{}, bind.DecimalAdapter{})
	g.binder = &bind.Binder{Log: g.opts.log, Adapters: bind.NewAdapters(adapters...)}
	return g, nil
}

var comparableType = reflect.TypeOf((*entgroup.Comparable)(nil)).Elem()

// Table returns the table name the group operates on.
func (g *Group[T]) Table() string { return g.opts.table }

// IDColumn returns the identity column name.
func (g *Group[T]) IDColumn() string { return g.opts.idColumn }

// ReadOnly reports whether mutations are rejected.
func (g *Group[T]) ReadOnly() bool { return g.opts.readOnly }

// bindings returns the binding set, computing it on first use. Table
// metadata is probed first; when the table cannot be introspected (views,
// projections) the shape of the last ad hoc query serves as fallback.
func (g *Group[T]) bindings(ctx context.Context) (*bind.Set, error) {
	if s := g.set.Load(); s != nil {
		return s, nil
	}
	cols, err := bind.TableColumns(ctx, g.drv, g.opts.table)
	if err != nil || len(cols) == 0 {
		if shape := g.lastShape.Load(); shape != nil {
			cols, err = *shape, nil
		}
	}
	if err != nil {
		return nil, entgroup.NewBindError(g.typ.String(), g.opts.table, err)
	}
	s, err := g.binder.Bind(g.typ, g.opts.idColumn, cols)
	if err != nil {
		return nil, entgroup.NewBindError(g.typ.String(), g.opts.table, err)
	}
	// Every group operation keys on the identity column. Identity-less
	// projections are served by Query, whose shapes bypass this set.
	if s.ID == nil {
		return nil, entgroup.NewBindError(g.typ.String(), g.opts.table, entgroup.ErrNoIdentity)
	}
	g.set.Store(s)
	return s, nil
}

// id reads the identity value of e as int64. A nil boxed identity reads
// as zero.
func (g *Group[T]) id(set *bind.Set, e *T) int64 {
	v := set.ID.Get(reflect.ValueOf(e))
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}
	switch {
	case v.CanInt():
		return v.Int()
	case v.CanUint():
		return int64(v.Uint())
	}
	return 0
}

// setIdentity writes id back into e, converting to the declared identity
// type.
func (g *Group[T]) setIdentity(set *bind.Set, e *T, id int64) {
	t := set.ID.Type()
	v := reflect.ValueOf(id)
	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		p.Elem().Set(v.Convert(t.Elem()))
		set.ID.Set(reflect.ValueOf(e), p)
		return
	}
	set.ID.Set(reflect.ValueOf(e), v.Convert(t))
}

// persisted reports whether e counts as already stored: the explicit
// Persistable flag when implemented, a positive identity otherwise.
func (g *Group[T]) persisted(set *bind.Set, e *T) bool {
	if p, ok := any(e).(entgroup.Persistable); ok {
		return p.IsPersisted()
	}
	return g.id(set, e) > 0
}

func markPersisted[T any](e *T, persisted bool) {
	if p, ok := any(e).(entgroup.Persistable); ok {
		p.SetPersisted(persisted)
	}
}

func initialize[T any](e *T) {
	if i, ok := any(e).(entgroup.Initializable); ok && !i.IsInitialized() {
		i.Initialize()
	}
}

// filter appends the fixed filter clause to b. The clause is written
// through the builder so its "?" markers take the dialect's placeholder
// form and its arguments land after the operation's own. hasWhere reports
// whether a WHERE keyword already opened the clause list.
func (g *Group[T]) filter(b *sql.Builder, hasWhere bool) {
	if g.opts.where == "" {
		return
	}
	if hasWhere {
		b.WriteString(" AND (")
	} else {
		b.WriteString(" WHERE ")
	}
	next := 0
	for _, r := range g.opts.where {
		if r == '?' && next < len(g.opts.whereArgs) {
			b.Arg(g.opts.whereArgs[next])
			next++
			continue
		}
		b.WriteString(string(r))
	}
	if hasWhere {
		b.WriteString(")")
	}
}

func (g *Group[T]) selectBuilder(set *bind.Set) *sql.Builder {
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("SELECT ").IdentComma(set.Columns()...).WriteString(" FROM ").Ident(g.opts.table)
	return b
}

// scan materializes every remaining row of rows into entities via set.
// Loaded entities are marked persisted.
func (g *Group[T]) scan(set *bind.Set, rows *sql.Rows) ([]*T, error) {
	var out []*T
	dests := make([]any, len(set.All))
	assigns := make([]func(reflect.Value) error, len(set.All))
	for rows.Next() {
		e := g.opts.factory()
		ev := reflect.ValueOf(e)
		for i, bd := range set.All {
			dests[i], assigns[i] = bd.Dest()
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		for i := range assigns {
			if err := assigns[i](ev); err != nil {
				return nil, err
			}
		}
		markPersisted(e, true)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (g *Group[T]) queryRows(ctx context.Context, op, query string, args []any) (*sql.Rows, error) {
	rows := &sql.Rows{}
	if err := g.drv.Query(ctx, query, args, rows); err != nil {
		return nil, entgroup.NewOperationError(op, g.opts.table, err)
	}
	return rows, nil
}

// Get fetches the entity with the given identity, or nil when no row
// matches.
func (g *Group[T]) Get(ctx context.Context, id int64) (*T, error) {
	set, err := g.bindings(ctx)
	if err != nil {
		return nil, err
	}
	b := g.selectBuilder(set)
	b.WriteString(" WHERE ").Ident(set.IDColumn).WriteString(" = ").Arg(id)
	g.filter(b, true)
	query, args := b.Query()
	rows, err := g.queryRows(ctx, "SELECT (get)", query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	es, err := g.scan(set, rows)
	if err != nil {
		return nil, entgroup.NewOperationError("SELECT (get)", g.opts.table, err)
	}
	if len(es) == 0 {
		return nil, nil
	}
	return es[0], nil
}

// List fetches every entity of the group in the group's order: the
// configured comparator, the natural Comparable order, or ascending
// identity.
func (g *Group[T]) List(ctx context.Context) ([]*T, error) {
	set, err := g.bindings(ctx)
	if err != nil {
		return nil, err
	}
	b := g.selectBuilder(set)
	g.filter(b, false)
	query, args := b.Query()
	rows, err := g.queryRows(ctx, "SELECT (list)", query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	es, err := g.scan(set, rows)
	if err != nil {
		return nil, entgroup.NewOperationError("SELECT (list)", g.opts.table, err)
	}
	g.sort(set, es)
	return es, nil
}

func (g *Group[T]) sort(set *bind.Set, es []*T) {
	switch {
	case g.opts.compare != nil:
		slices.SortStableFunc(es, g.opts.compare)
	case g.comparable:
		slices.SortStableFunc(es, func(a, b *T) int {
			return any(a).(entgroup.Comparable).CompareTo(b)
		})
	default:
		slices.SortStableFunc(es, func(a, b *T) int {
			return cmp.Compare(g.id(set, a), g.id(set, b))
		})
	}
}

// ListByIDs fetches the entities with the given identities, preserving
// the order of ids. Missing identities are skipped silently; a repeated
// identity yields the same entity once per occurrence.
func (g *Group[T]) ListByIDs(ctx context.Context, ids ...int64) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	m, err := g.MapByIDs(ctx, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if e, ok := m[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Map fetches every entity keyed by identity.
func (g *Group[T]) Map(ctx context.Context) (map[int64]*T, error) {
	set, err := g.bindings(ctx)
	if err != nil {
		return nil, err
	}
	es, err := g.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]*T, len(es))
	for _, e := range es {
		m[g.id(set, e)] = e
	}
	return m, nil
}

// MapByIDs fetches the entities with the given identities keyed by
// identity. Missing identities produce no map entry.
func (g *Group[T]) MapByIDs(ctx context.Context, ids ...int64) (map[int64]*T, error) {
	if len(ids) == 0 {
		return map[int64]*T{}, nil
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return nil, err
	}
	b := g.selectBuilder(set)
	b.WriteString(" WHERE ").Ident(set.IDColumn).WriteString(" IN (")
	for i, id := range ids {
		if i > 0 {
			b.Comma()
		}
		b.Arg(id)
	}
	b.WriteString(")")
	g.filter(b, true)
	query, args := b.Query()
	rows, err := g.queryRows(ctx, "SELECT (map)", query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	es, err := g.scan(set, rows)
	if err != nil {
		return nil, entgroup.NewOperationError("SELECT (map)", g.opts.table, err)
	}
	m := make(map[int64]*T, len(es))
	for _, e := range es {
		m[g.id(set, e)] = e
	}
	return m, nil
}

// Size returns the number of rows in the group.
func (g *Group[T]) Size(ctx context.Context) (int, error) {
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("SELECT COUNT(*) FROM ").Ident(g.opts.table)
	g.filter(b, false)
	query, args := b.Query()
	n, err := g.scanInt(ctx, "COUNT (size)", query, args)
	return int(n), err
}

// Lowest returns the smallest identity in the group, or 0 when empty.
func (g *Group[T]) Lowest(ctx context.Context) (int64, error) {
	return g.aggIdentity(ctx, "MIN", "MIN (lowest)")
}

// Highest returns the largest identity in the group, or 0 when empty.
func (g *Group[T]) Highest(ctx context.Context) (int64, error) {
	return g.aggIdentity(ctx, "MAX", "MAX (highest)")
}

func (g *Group[T]) aggIdentity(ctx context.Context, fn, op string) (int64, error) {
	set, err := g.bindings(ctx)
	if err != nil {
		return 0, err
	}
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("SELECT ").WriteString(fn).WriteString("(").Ident(set.IDColumn).WriteString(") FROM ").Ident(g.opts.table)
	g.filter(b, false)
	query, args := b.Query()
	return g.scanInt(ctx, op, query, args)
}

// scanInt runs query and scans a single nullable integer cell; NULL (an
// aggregate over zero rows) reads as 0.
func (g *Group[T]) scanInt(ctx context.Context, op, query string, args []any) (int64, error) {
	rows, err := g.queryRows(ctx, op, query, args)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, entgroup.NewOperationError(op, g.opts.table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, entgroup.NewOperationError(op, g.opts.table, err)
	}
	return n.Int64, nil
}

// Put stores e, dispatching on persistence state: persisted entities
// update, transient entities insert. Initializable entities are
// initialized first.
func (g *Group[T]) Put(ctx context.Context, e *T) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("put", g.opts.table)
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	initialize(e)
	if g.persisted(set, e) {
		return g.update(ctx, g.drv, set, e)
	}
	return g.insert(ctx, set, e)
}

// PutAll stores every entity of es. Small batches loop over Put; past
// the threshold the entities are partitioned by persistence state and
// stored with batched statements.
func (g *Group[T]) PutAll(ctx context.Context, es []*T) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("putAll", g.opts.table)
	}
	if len(es) == 0 {
		return nil
	}
	if len(es) < putAllThreshold {
		for _, e := range es {
			if err := g.Put(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	var inserts, updates []*T
	for _, e := range es {
		initialize(e)
		if g.persisted(set, e) {
			updates = append(updates, e)
		} else {
			inserts = append(inserts, e)
		}
	}
	if err := g.UpdateAll(ctx, updates); err != nil {
		return err
	}
	return g.InsertAll(ctx, inserts)
}

// Insert stores e as a new row. A zero identity is treated as generated:
// the identity column is omitted from the statement and the produced key
// is written back into e.
func (g *Group[T]) Insert(ctx context.Context, e *T) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("insert", g.opts.table)
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	return g.insert(ctx, set, e)
}

func (g *Group[T]) insert(ctx context.Context, set *bind.Set, e *T) error {
	includeID := g.id(set, e) > 0
	cols := insertColumns(set, includeID)
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("INSERT INTO ").Ident(g.opts.table).WriteString(" (").IdentComma(columnNames(cols)...).WriteString(") VALUES ")
	if err := g.valueTuple(b, cols, e); err != nil {
		return entgroup.NewOperationError("INSERT", g.opts.table, err)
	}
	if !includeID && g.drv.Dialect() == dialect.Postgres {
		b.WriteString(" RETURNING ").Ident(set.IDColumn)
		query, args := b.Query()
		ids, err := g.returningIDs(ctx, "INSERT", query, args)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return entgroup.NewIdentityError(g.opts.table, entgroup.ErrNoGeneratedID)
		}
		g.setIdentity(set, e, ids[0])
		markPersisted(e, true)
		return nil
	}
	query, args := b.Query()
	var res sql.Result
	if err := g.drv.Exec(ctx, query, args, &res); err != nil {
		return g.execError("INSERT", err)
	}
	if !includeID {
		id, err := res.LastInsertId()
		if err != nil {
			return entgroup.NewIdentityError(g.opts.table, err)
		}
		if id == 0 {
			return entgroup.NewIdentityError(g.opts.table, entgroup.ErrNoGeneratedID)
		}
		g.setIdentity(set, e, id)
	}
	markPersisted(e, true)
	return nil
}

// InsertAll stores es as new rows with one multi-row statement when all
// entities agree on identity presence, falling back to per-entity inserts
// for mixed batches.
func (g *Group[T]) InsertAll(ctx context.Context, es []*T) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("insertAll", g.opts.table)
	}
	if len(es) == 0 {
		return nil
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	includeID := g.id(set, es[0]) > 0
	for _, e := range es[1:] {
		if (g.id(set, e) > 0) != includeID {
			for _, e := range es {
				if err := g.insert(ctx, set, e); err != nil {
					return err
				}
			}
			return nil
		}
	}
	cols := insertColumns(set, includeID)
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("INSERT INTO ").Ident(g.opts.table).WriteString(" (").IdentComma(columnNames(cols)...).WriteString(") VALUES ")
	for i, e := range es {
		if i > 0 {
			b.Comma()
		}
		if err := g.valueTuple(b, cols, e); err != nil {
			return entgroup.NewOperationError("INSERT (insertAll)", g.opts.table, err)
		}
	}
	if !includeID && g.drv.Dialect() == dialect.Postgres {
		b.WriteString(" RETURNING ").Ident(set.IDColumn)
		query, args := b.Query()
		ids, err := g.returningIDs(ctx, "INSERT (insertAll)", query, args)
		if err != nil {
			return err
		}
		if len(ids) != len(es) {
			return entgroup.NewIdentityError(g.opts.table, entgroup.ErrNoGeneratedID)
		}
		for i, e := range es {
			g.setIdentity(set, e, ids[i])
			markPersisted(e, true)
		}
		return nil
	}
	query, args := b.Query()
	var res sql.Result
	if err := g.drv.Exec(ctx, query, args, &res); err != nil {
		return g.execError("INSERT (insertAll)", err)
	}
	if !includeID {
		last, err := res.LastInsertId()
		if err != nil {
			return entgroup.NewIdentityError(g.opts.table, err)
		}
		if last == 0 {
			return entgroup.NewIdentityError(g.opts.table, entgroup.ErrNoGeneratedID)
		}
		// MySQL reports the first key of the batch, SQLite the last.
		first := last
		if g.drv.Dialect() == dialect.SQLite {
			first = last - int64(len(es)) + 1
		}
		for i, e := range es {
			g.setIdentity(set, e, first+int64(i))
		}
	}
	for _, e := range es {
		markPersisted(e, true)
	}
	return nil
}

// Update rewrites the row of e. The entity must carry its identity.
func (g *Group[T]) Update(ctx context.Context, e *T) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("update", g.opts.table)
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	return g.update(ctx, g.drv, set, e)
}

func (g *Group[T]) update(ctx context.Context, conn dialect.ExecQuerier, set *bind.Set, e *T) error {
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("UPDATE ").Ident(g.opts.table).WriteString(" SET ")
	ev := reflect.ValueOf(e)
	for i, bd := range set.Writable() {
		if i > 0 {
			b.Comma()
		}
		v, err := bd.Value(ev)
		if err != nil {
			return entgroup.NewOperationError("UPDATE", g.opts.table, err)
		}
		b.Ident(bd.Column.Name).WriteString(" = ").Arg(v)
	}
	b.WriteString(" WHERE ").Ident(set.IDColumn).WriteString(" = ").Arg(g.id(set, e))
	g.filter(b, true)
	query, args := b.Query()
	if err := conn.Exec(ctx, query, args, nil); err != nil {
		return g.execError("UPDATE", err)
	}
	markPersisted(e, true)
	return nil
}

// UpdateAll rewrites the rows of es within one transaction, binding the
// same statement shape once per entity.
func (g *Group[T]) UpdateAll(ctx context.Context, es []*T) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("updateAll", g.opts.table)
	}
	if len(es) == 0 {
		return nil
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	tx, err := g.drv.Tx(ctx)
	if err != nil {
		return entgroup.NewOperationError("UPDATE (updateAll)", g.opts.table, err)
	}
	for _, e := range es {
		if err := g.update(ctx, tx, set, e); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return entgroup.NewOperationError("UPDATE (updateAll)", g.opts.table, err)
	}
	return nil
}

// Remove deletes the row with the given identity. Deleting an absent
// identity is not an error.
func (g *Group[T]) Remove(ctx context.Context, id int64) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("remove", g.opts.table)
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("DELETE FROM ").Ident(g.opts.table)
	b.WriteString(" WHERE ").Ident(set.IDColumn).WriteString(" = ").Arg(id)
	g.filter(b, true)
	query, args := b.Query()
	if err := g.drv.Exec(ctx, query, args, nil); err != nil {
		return g.execError("DELETE (remove)", err)
	}
	return nil
}

// RemoveAll deletes the rows with the given identities in one statement.
func (g *Group[T]) RemoveAll(ctx context.Context, ids ...int64) error {
	if g.opts.readOnly {
		return entgroup.NewReadOnlyError("removeAll", g.opts.table)
	}
	if len(ids) == 0 {
		return nil
	}
	set, err := g.bindings(ctx)
	if err != nil {
		return err
	}
	b := sql.NewBuilder(g.drv.Dialect())
	b.WriteString("DELETE FROM ").Ident(g.opts.table)
	b.WriteString(" WHERE ").Ident(set.IDColumn).WriteString(" IN (")
	for i, id := range ids {
		if i > 0 {
			b.Comma()
		}
		b.Arg(id)
	}
	b.WriteString(")")
	g.filter(b, true)
	query, args := b.Query()
	if err := g.drv.Exec(ctx, query, args, nil); err != nil {
		return g.execError("DELETE (removeAll)", err)
	}
	return nil
}

// Query runs an arbitrary SQL query and materializes its rows as
// entities. Columns with no accessor pair are skipped; the result shape
// is remembered as the metadata fallback for non-introspectable tables.
func (g *Group[T]) Query(ctx context.Context, query string, args ...any) ([]*T, error) {
	rows, err := g.queryRows(ctx, "SELECT (query)", query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := bind.RowColumns(rows)
	if err != nil {
		return nil, entgroup.NewOperationError("SELECT (query)", g.opts.table, err)
	}
	g.lastShape.Store(&cols)
	set, err := g.shapeSet(cols)
	if err != nil {
		return nil, err
	}
	es, err := g.scan(set, rows)
	if err != nil {
		return nil, entgroup.NewOperationError("SELECT (query)", g.opts.table, err)
	}
	return es, nil
}

// QuerySingle runs an arbitrary SQL query and returns its first row as
// an entity, or nil when the query yields no rows.
func (g *Group[T]) QuerySingle(ctx context.Context, query string, args ...any) (*T, error) {
	es, err := g.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(es) == 0 {
		return nil, nil
	}
	return es[0], nil
}

// shapeSet returns the binding set for an ad hoc column shape, cached per
// shape so repeated queries with the same projection bind once.
func (g *Group[T]) shapeSet(cols []bind.Column) (*bind.Set, error) {
	key := shapeKey(cols)
	if s, ok := g.shapes.get(key); ok {
		return s, nil
	}
	s, err := g.binder.Bind(g.typ, g.opts.idColumn, cols)
	if err != nil {
		return nil, entgroup.NewBindError(g.typ.String(), g.opts.table, err)
	}
	g.shapes.add(key, s)
	return s, nil
}

func shapeKey(cols []bind.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return strings.Join(names, ",")
}

// returningIDs runs an INSERT ... RETURNING statement and collects the
// produced identities in row order.
func (g *Group[T]) returningIDs(ctx context.Context, op, query string, args []any) ([]int64, error) {
	rows, err := g.queryRows(ctx, op, query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, entgroup.NewOperationError(op, g.opts.table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, entgroup.NewOperationError(op, g.opts.table, err)
	}
	return ids, nil
}

// valueTuple appends one parenthesized VALUES tuple for e over cols.
func (g *Group[T]) valueTuple(b *sql.Builder, cols []*bind.Binding, e *T) error {
	ev := reflect.ValueOf(e)
	b.WriteString("(")
	for i, bd := range cols {
		if i > 0 {
			b.Comma()
		}
		v, err := bd.Value(ev)
		if err != nil {
			return err
		}
		b.Arg(v)
	}
	b.WriteString(")")
	return nil
}

// execError classifies driver failures, surfacing unique-constraint
// violations as ConstraintError.
func (g *Group[T]) execError(op string, err error) error {
	if sql.IsUniqueConstraintError(err) {
		return entgroup.NewConstraintError(g.opts.table, err)
	}
	return entgroup.NewOperationError(op, g.opts.table, err)
}

func insertColumns(set *bind.Set, includeID bool) []*bind.Binding {
	if includeID {
		return set.All
	}
	return set.Writable()
}

func columnNames(cols []*bind.Binding) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Column.Name
	}
	return out
}
