package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entgroup"
	"github.com/syssam/entgroup/dialect"
	"github.com/syssam/entgroup/dialect/sql"
)

// user exercises the method-backed accessor shape plus the Persistable
// capability.
type user struct {
	id        int64
	name      string
	age       int
	persisted bool
}

func (u *user) ID() int64           { return u.id }
func (u *user) SetID(v int64)       { u.id = v }
func (u *user) GetName() string     { return u.name }
func (u *user) SetName(v string)    { u.name = v }
func (u *user) GetAge() int         { return u.age }
func (u *user) SetAge(v int)        { u.age = v }
func (u *user) IsPersisted() bool   { return u.persisted }
func (u *user) SetPersisted(v bool) { u.persisted = v }

func newMock(t *testing.T, dialect string) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect, db), mock
}

func userGroup(t *testing.T, drv *sql.Driver, opts ...Option[user]) *Group[user] {
	t.Helper()
	g, err := New[user](drv, opts...)
	require.NoError(t, err)
	return g
}

// expectUserColumns arms the table metadata probe issued on first use.
func expectUserColumns(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT * FROM `users` WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))
}

func TestGroupGet(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` = ?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow(7, "mal", 30))

	u, err := g.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(7), u.ID())
	assert.Equal(t, "mal", u.GetName())
	assert.Equal(t, 30, u.GetAge())
	assert.True(t, u.IsPersisted())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupGetAbsent(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` = ?").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))

	u, err := g.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupListOrdering(t *testing.T) {
	tests := []struct {
		name string
		opts []Option[user]
		want []string
	}{
		{
			name: "by identity",
			want: []string{"a", "b", "c"},
		},
		{
			name: "custom comparator",
			opts: []Option[user]{WithCompare[user](func(a, b *user) int {
				return strings.Compare(b.GetName(), a.GetName())
			})},
			want: []string{"c", "b", "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, mock := newMock(t, dialect.MySQL)
			g := userGroup(t, drv, tt.opts...)

			expectUserColumns(mock)
			mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users`").
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).
					AddRow(3, "c", 3).
					AddRow(1, "a", 1).
					AddRow(2, "b", 2))

			us, err := g.List(context.Background())
			require.NoError(t, err)
			names := make([]string, len(us))
			for i, u := range us {
				names[i] = u.GetName()
			}
			assert.Equal(t, tt.want, names)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGroupListByIDsPreservesOrder(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` IN (?, ?, ?, ?)").
		WithArgs(int64(3), int64(1), int64(3), int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).
			AddRow(1, "a", 1).
			AddRow(3, "c", 3))

	us, err := g.ListByIDs(context.Background(), 3, 1, 3, 404)
	require.NoError(t, err)
	require.Len(t, us, 3)
	assert.Equal(t, int64(3), us[0].ID())
	assert.Equal(t, int64(1), us[1].ID())
	// A repeated identity yields the same entity once per occurrence.
	assert.Same(t, us[0], us[2])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupSize(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	mock.ExpectQuery("SELECT COUNT(*) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := g.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupLowestHighestEmpty(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectQuery("SELECT MIN(`id`) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(nil))
	mock.ExpectQuery("SELECT MAX(`id`) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	lo, err := g.Lowest(context.Background())
	require.NoError(t, err)
	assert.Zero(t, lo)
	hi, err := g.Highest(context.Background())
	require.NoError(t, err)
	assert.Zero(t, hi)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupInsertGeneratedIdentity(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectExec("INSERT INTO `users` (`name`, `age`) VALUES (?, ?)").
		WithArgs("niska", int64(61)).
		WillReturnResult(sqlmock.NewResult(42, 1))

	u := &user{name: "niska", age: 61}
	require.NoError(t, g.Insert(context.Background(), u))
	assert.Equal(t, int64(42), u.ID())
	assert.True(t, u.IsPersisted())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupInsertPreassignedIdentity(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectExec("INSERT INTO `users` (`id`, `name`, `age`) VALUES (?, ?, ?)").
		WithArgs(int64(9), "zoe", int64(33)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &user{id: 9, name: "zoe", age: 33}
	require.NoError(t, g.Insert(context.Background(), u))
	assert.Equal(t, int64(9), u.ID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupInsertReturningPostgres(t *testing.T) {
	drv, mock := newMock(t, dialect.Postgres)
	g := userGroup(t, drv)

	mock.ExpectQuery(`SELECT * FROM "users" WHERE 1 = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))
	mock.ExpectQuery(`INSERT INTO "users" ("name", "age") VALUES ($1, $2) RETURNING "id"`).
		WithArgs("wash", int64(38)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	u := &user{name: "wash", age: 38}
	require.NoError(t, g.Insert(context.Background(), u))
	assert.Equal(t, int64(7), u.ID())
	assert.True(t, u.IsPersisted())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupPutDispatch(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectExec("INSERT INTO `users` (`name`, `age`) VALUES (?, ?)").
		WithArgs("kaylee", int64(21)).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("UPDATE `users` SET `name` = ?, `age` = ? WHERE `id` = ?").
		WithArgs("kaylee", int64(22), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &user{name: "kaylee", age: 21}
	require.NoError(t, g.Put(context.Background(), u))
	require.Equal(t, int64(5), u.ID())

	u.SetAge(22)
	require.NoError(t, g.Put(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupUpdateAllSingleTx(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET `name` = ?, `age` = ? WHERE `id` = ?").
		WithArgs("a", int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users` SET `name` = ?, `age` = ? WHERE `id` = ?").
		WithArgs("b", int64(2), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	es := []*user{
		{id: 1, name: "a", age: 1, persisted: true},
		{id: 2, name: "b", age: 2, persisted: true},
	}
	require.NoError(t, g.UpdateAll(context.Background(), es))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupInsertAllBatch(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectExec("INSERT INTO `users` (`name`, `age`) VALUES (?, ?), (?, ?)").
		WithArgs("a", int64(1), "b", int64(2)).
		WillReturnResult(sqlmock.NewResult(10, 2))

	es := []*user{{name: "a", age: 1}, {name: "b", age: 2}}
	require.NoError(t, g.InsertAll(context.Background(), es))
	assert.Equal(t, int64(10), es[0].ID())
	assert.Equal(t, int64(11), es[1].ID())
	assert.True(t, es[0].IsPersisted())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupPutAllPartitions(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	const total = 120 // past the batch threshold
	es := make([]*user, 0, total)
	var (
		updates int
		inserts int
	)
	for i := 0; i < total; i++ {
		if i%2 == 0 {
			es = append(es, &user{id: int64(i + 1), name: fmt.Sprintf("u%d", i), persisted: true})
			updates++
		} else {
			es = append(es, &user{name: fmt.Sprintf("n%d", i)})
			inserts++
		}
	}

	expectUserColumns(mock)
	mock.ExpectBegin()
	for i := 0; i < updates; i++ {
		mock.ExpectExec("UPDATE `users` SET `name` = ?, `age` = ? WHERE `id` = ?").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
	var sb strings.Builder
	sb.WriteString("INSERT INTO `users` (`name`, `age`) VALUES ")
	for i := 0; i < inserts; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
	}
	mock.ExpectExec(sb.String()).WillReturnResult(sqlmock.NewResult(1000, int64(inserts)))

	require.NoError(t, g.PutAll(context.Background(), es))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRemoveAll(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	expectUserColumns(mock)
	mock.ExpectExec("DELETE FROM `users` WHERE `id` IN (?, ?, ?)").
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, g.RemoveAll(context.Background(), 1, 2, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupFixedFilter(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv, WithWhere[user]("tenant = ?", int64(9)))

	expectUserColumns(mock)
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` = ? AND (tenant = ?)").
		WithArgs(int64(7), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))
	mock.ExpectQuery("SELECT COUNT(*) FROM `users` WHERE tenant = ?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := g.Get(context.Background(), 7)
	require.NoError(t, err)
	_, err = g.Size(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupFixedFilterPostgres(t *testing.T) {
	drv, mock := newMock(t, dialect.Postgres)
	g := userGroup(t, drv, WithWhere[user]("tenant = ?", int64(9)))

	mock.ExpectQuery(`SELECT * FROM "users" WHERE 1 = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))
	// The clause's markers continue the statement's placeholder numbering.
	mock.ExpectQuery(`SELECT "id", "name", "age" FROM "users" WHERE "id" = $1 AND (tenant = $2)`).
		WithArgs(int64(7), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))
	mock.ExpectQuery(`SELECT COUNT(*) FROM "users" WHERE tenant = $1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := g.Get(context.Background(), 7)
	require.NoError(t, err)
	_, err = g.Size(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupReadOnlyRejectsBeforeDriver(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv, WithReadOnly[user]())
	ctx := context.Background()
	u := &user{name: "x"}

	for _, err := range []error{
		g.Put(ctx, u),
		g.PutAll(ctx, []*user{u}),
		g.Insert(ctx, u),
		g.InsertAll(ctx, []*user{u}),
		g.Update(ctx, u),
		g.UpdateAll(ctx, []*user{u}),
		g.Remove(ctx, 1),
		g.RemoveAll(ctx, 1, 2),
	} {
		assert.True(t, entgroup.IsReadOnly(err))
	}
	// Not a single statement reached the driver.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupQueryAndShapeFallback(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv, WithTable[user]("user_view"))

	// Ad hoc query binds positionally against the result shape.
	mock.ExpectQuery("SELECT id, name FROM user_view WHERE age > ?").
		WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a").AddRow(2, "b"))
	// The view cannot be introspected; Get falls back to the remembered
	// query shape.
	mock.ExpectQuery("SELECT * FROM `user_view` WHERE 1 = 0").
		WillReturnError(fmt.Errorf("no such table"))
	mock.ExpectQuery("SELECT `id`, `name` FROM `user_view` WHERE `id` = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a"))

	us, err := g.Query(context.Background(), "SELECT id, name FROM user_view WHERE age > ?", 18)
	require.NoError(t, err)
	require.Len(t, us, 2)
	assert.Equal(t, "a", us[0].GetName())

	u, err := g.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a", u.GetName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupQuerySingle(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	mock.ExpectQuery("SELECT id, name, age FROM users ORDER BY age DESC LIMIT 1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow(3, "book", 57))

	u, err := g.QuerySingle(context.Background(), "SELECT id, name, age FROM users ORDER BY age DESC LIMIT 1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "book", u.GetName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupBindFailure(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	mock.ExpectQuery("SELECT * FROM `users` WHERE 1 = 0").
		WillReturnError(fmt.Errorf("connection refused"))

	_, err := g.Get(context.Background(), 1)
	assert.True(t, entgroup.IsBindError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupMissingIdentityColumn(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	g := userGroup(t, drv)

	// The table binds, but no column matches the identity name.
	mock.ExpectQuery("SELECT * FROM `users` WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}))

	_, err := g.List(context.Background())
	require.Error(t, err)
	assert.True(t, entgroup.IsBindError(err))
	assert.True(t, errors.Is(err, entgroup.ErrNoIdentity))

	// Ad hoc queries still serve identity-less projections.
	mock.ExpectQuery("SELECT name, age FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}).
			AddRow("a", 1).
			AddRow("b", 2))

	us, err := g.Query(context.Background(), "SELECT name, age FROM users")
	require.NoError(t, err)
	require.Len(t, us, 2)
	assert.Equal(t, "b", us[1].GetName())
	require.NoError(t, mock.ExpectationsWereMet())
}
