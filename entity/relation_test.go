package entity

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entgroup/dialect"
)

type role struct {
	id   int64
	name string
}

func (r *role) ID() int64        { return r.id }
func (r *role) SetID(v int64)    { r.id = v }
func (r *role) GetName() string  { return r.name }
func (r *role) SetName(v string) { r.name = v }

func userRoles(t *testing.T, dialect string) (*Relation[user, role], sqlmock.Sqlmock) {
	t.Helper()
	drv, mock := newMock(t, dialect)
	rel, err := NewRelation[user, role](drv)
	require.NoError(t, err)
	return rel, mock
}

func addAllSQL(n int) string {
	var sb strings.Builder
	sb.WriteString("INSERT IGNORE INTO `user_role` (`user_id`, `role_id`) VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
	}
	return sb.String()
}

func removeAllSQL(n int) string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM `user_role` WHERE (`user_id`, `role_id`) IN (")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
	}
	sb.WriteString(")")
	return sb.String()
}

func pairsOf(n int) []Pair {
	out := make([]Pair, n)
	for i := range out {
		out[i] = Pair{Left: int64(i + 1), Right: int64(i%7 + 1)}
	}
	return out
}

func TestRelationDefaults(t *testing.T) {
	t.Parallel()

	drv, _ := newMock(t, dialect.MySQL)
	rel, err := NewRelation[user, role](drv)
	require.NoError(t, err)
	assert.Equal(t, "user_role", rel.Table())

	rel2, err := NewRelation[user, role](drv,
		WithRelationTable[user, role]("memberships"),
		WithLeftColumn[user, role]("member_id"),
		WithRightColumn[user, role]("grant_id"),
	)
	require.NoError(t, err)
	assert.Equal(t, "memberships", rel2.Table())
}

func TestRelationAdd(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectExec(addAllSQL(1)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Duplicate pair: ignored by the storage layer, zero rows affected.
	mock.ExpectExec(addAllSQL(1)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := rel.Add(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = rel.Add(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationAddPostgres(t *testing.T) {
	rel, mock := userRoles(t, dialect.Postgres)

	mock.ExpectExec(`INSERT INTO "user_role" ("user_id", "role_id") VALUES ($1, $2) ON CONFLICT DO NOTHING`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := rel.Add(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationContains(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectQuery("SELECT COUNT(*) FROM `user_role` WHERE `user_id` = ? AND `role_id` = ?").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT(*) FROM `user_role` WHERE `user_id` = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT(*) FROM `user_role` WHERE `role_id` = ?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := rel.Contains(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rel.ContainsLeft(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rel.ContainsRight(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationSizesWithCandidates(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectQuery("SELECT COUNT(*) FROM `user_role` WHERE `role_id` = ? AND `user_id` IN (?, ?)").
		WithArgs(int64(2), int64(10), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT(*) FROM `user_role` WHERE `user_id` = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := rel.LeftSize(context.Background(), 2, 10, 11)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = rel.RightSize(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationIDsAndValues(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	users, err := New[user](drv)
	require.NoError(t, err)
	rel, err := NewRelation[user, role](drv, WithLeft[user, role](users))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT `user_id` FROM `user_role` WHERE `role_id` = ?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1).AddRow(3))
	expectUserColumns(mock)
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` IN (?, ?)").
		WithArgs(int64(1), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).
			AddRow(1, "a", 1).
			AddRow(3, "c", 3))

	us, err := rel.LeftValues(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, us, 2)
	assert.Equal(t, "a", us[0].GetName())
	assert.Equal(t, "c", us[1].GetName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRemoveAllTupleIn(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectExec(removeAllSQL(3)).
		WithArgs(int64(1), int64(1), int64(2), int64(1), int64(3), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	changed, err := rel.RemoveAll(context.Background(), []Pair{{1, 1}, {2, 1}, {3, 2}})
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationBatchBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		batches []int
	}{
		{name: "exactly one batch", total: 1000, batches: []int{1000}},
		{name: "one over", total: 1001, batches: []int{1000, 1}},
		{name: "two full plus remainder", total: 2001, batches: []int{1000, 1000, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, mock := userRoles(t, dialect.MySQL)

			// Only the final sub-batch reports an affected row; "changed"
			// must still aggregate to true.
			for i, n := range tt.batches {
				var affected int64
				if i == len(tt.batches)-1 {
					affected = 1
				}
				mock.ExpectExec(addAllSQL(n)).WillReturnResult(sqlmock.NewResult(0, affected))
			}
			for i, n := range tt.batches {
				var affected int64
				if i == len(tt.batches)-1 {
					affected = 1
				}
				mock.ExpectExec(removeAllSQL(n)).WillReturnResult(sqlmock.NewResult(0, affected))
			}

			pairs := pairsOf(tt.total)
			changed, err := rel.AddAll(context.Background(), pairs)
			require.NoError(t, err)
			assert.True(t, changed)

			changed, err = rel.RemoveAll(context.Background(), pairs)
			require.NoError(t, err)
			assert.True(t, changed)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRelationReplaceAll(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `user_role`").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(addAllSQL(2)).
		WithArgs(int64(1), int64(1), int64(2), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	changed, err := rel.ReplaceAll(context.Background(), []Pair{{1, 1}, {2, 2}})
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationReplaceAllEmpty(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `user_role`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := rel.ReplaceAll(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRemoveEntity(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectExec("DELETE FROM `user_role` WHERE `user_id` = ?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `user_role` WHERE `role_id` = ?").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := rel.RemoveEntity(context.Background(), &user{}, 5)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = rel.RemoveEntity(context.Background(), &role{}, 3)
	require.NoError(t, err)
	assert.False(t, changed)

	// Unrelated types touch neither side.
	changed, err = rel.RemoveEntity(context.Background(), "not an entity", 1)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationPairsAndClear(t *testing.T) {
	rel, mock := userRoles(t, dialect.MySQL)

	mock.ExpectQuery("SELECT `user_id`, `role_id` FROM `user_role`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role_id"}).
			AddRow(1, 1).
			AddRow(2, 1))
	mock.ExpectExec("DELETE FROM `user_role`").
		WillReturnResult(sqlmock.NewResult(0, 2))

	pairs, err := rel.Pairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Pair{{1, 1}, {2, 1}}, pairs)

	changed, err := rel.Clear(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}
