package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScopedQuery(t *testing.T) {
	t.Run("rejects tables off the allow-list", func(t *testing.T) {
		_, err := NewScopedQuery("accounts", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not readable")
	})

	t.Run("allows listed tables", func(t *testing.T) {
		q, err := NewScopedQuery("usage_credits", 1)
		require.NoError(t, err)
		require.NotNil(t, q)
	})
}

func TestScopedQueryBuild(t *testing.T) {
	t.Run("account predicate is always present", func(t *testing.T) {
		q, err := NewScopedQuery("usage_credits", 42)
		require.NoError(t, err)

		sql, args := q.Build()
		assert.Contains(t, sql, `"account_id" = $1`)
		assert.Equal(t, int64(42), args[0])
	})

	t.Run("defaults select all non-sensitive columns with default limit", func(t *testing.T) {
		q, err := NewScopedQuery("api_keys", 7)
		require.NoError(t, err)

		sql, args := q.Build()
		assert.NotContains(t, sql, "key_hash")
		assert.Contains(t, sql, `"name"`)
		assert.Contains(t, sql, "LIMIT $2 OFFSET $3")
		assert.Equal(t, []any{int64(7), DefaultLimit, 0}, args)
	})

	t.Run("sensitive columns are dropped from explicit selects", func(t *testing.T) {
		q, err := NewScopedQuery("api_keys", 7)
		require.NoError(t, err)
		q.Select("name", "key_hash", "created_at")

		assert.Equal(t, []string{"name", "created_at"}, q.Columns())
	})

	t.Run("select of only sensitive or unknown columns falls back to safe set", func(t *testing.T) {
		q, err := NewScopedQuery("api_keys", 7)
		require.NoError(t, err)
		q.Select("key_hash", "nope")

		assert.Equal(t, []string{"id", "account_id", "name", "last_used_at", "created_at"}, q.Columns())
	})

	t.Run("filters on unknown or sensitive columns are dropped", func(t *testing.T) {
		q, err := NewScopedQuery("api_keys", 7)
		require.NoError(t, err)
		q.Filter("name", "prod").Filter("key_hash", "x").Filter("bogus", 1)

		sql, args := q.Build()
		assert.Contains(t, sql, `"name" = $2`)
		assert.NotContains(t, sql, "key_hash")
		assert.NotContains(t, sql, "bogus")
		assert.Equal(t, []any{int64(7), "prod", DefaultLimit, 0}, args)
	})

	t.Run("limit clamps to bounds and offset floors at zero", func(t *testing.T) {
		q, err := NewScopedQuery("usage_credits", 1)
		require.NoError(t, err)
		q.Limit(10_000).Offset(-5)
		_, args := q.Build()
		assert.Equal(t, MaxLimit, args[len(args)-2])
		assert.Equal(t, 0, args[len(args)-1])

		q.Limit(0)
		_, args = q.Build()
		assert.Equal(t, 1, args[len(args)-2])
	})
}

type fakeRows struct {
	values [][]any
	pos    int
	err    error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}
func (r *fakeRows) Scan(dest ...any) error { return nil }
func (r *fakeRows) Values() ([]any, error) { return r.values[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }


var _ pgx.Rows = (*fakeRows)(nil)

type fakeQuerier struct {
	gotSQL  string
	gotArgs []any
	rows    pgx.Rows
	err     error
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.gotSQL = sql
	f.gotArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func TestReader(t *testing.T) {
	t.Run("maps rows to records and normalizes values", func(t *testing.T) {
		created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		db := &fakeQuerier{rows: &fakeRows{values: [][]any{
			{int64(1), int64(42), "prod", nil, created},
		}}}
		reader := NewReader(db)

		q, err := NewScopedQuery("api_keys", 42)
		require.NoError(t, err)

		records, err := reader.Read(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "prod", records[0]["name"])
		assert.Equal(t, "2026-03-01T12:00:00Z", records[0]["created_at"])
		assert.NotContains(t, records[0], "key_hash")
		assert.Contains(t, db.gotSQL, `"account_id" = $1`)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		db := &fakeQuerier{rows: &fakeRows{}}
		reader := NewReader(db)

		q, err := NewScopedQuery("usage_credits", 1)
		require.NoError(t, err)

		records, err := reader.Read(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		db := &fakeQuerier{err: assert.AnError}
		reader := NewReader(db)

		q, err := NewScopedQuery("usage_credits", 1)
		require.NoError(t, err)

		_, err = reader.Read(context.Background(), q)
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
