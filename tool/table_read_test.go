package tool

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/store"
)

// fakeDB replays canned row values and records the query it received. A
// dedicated fake lives here because the tool package's internal tests cannot
// import the shared testutil fakes without an import cycle.
type fakeDB struct {
	rows    [][]any
	err     error
	gotSQL  string
	gotArgs []any
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.gotSQL = sql
	f.gotArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return &fakeDBRows{values: f.rows}, nil
}

type fakeDBRows struct {
	values [][]any
	pos    int
}

func (r *fakeDBRows) Close()                                       {}
func (r *fakeDBRows) Err() error                                   { return nil }
func (r *fakeDBRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeDBRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeDBRows) Scan(...any) error                            { return nil }
func (r *fakeDBRows) RawValues() [][]byte                          { return nil }
func (r *fakeDBRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeDBRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeDBRows) Values() ([]any, error) { return r.values[r.pos-1], nil }

func buildTableReadTool(t *testing.T, db *fakeDB, desc Descriptor, sec *core.SecurityContext) Tool {
	t.Helper()
	deps := Dependencies{Reader: store.NewReader(db)}
	tool, err := buildTableRead(context.Background(), deps, desc, sec)
	require.NoError(t, err)
	return tool
}

func TestTableRead(t *testing.T) {
	sec := core.NewSecurityContext(42, "jwt-token")

	t.Run("unknown table fails construction with a security error", func(t *testing.T) {
		deps := Dependencies{Reader: store.NewReader(&fakeDB{})}
		_, err := buildTableRead(context.Background(), deps, Descriptor{Type: TypeTableRead, Table: "accounts"}, sec)
		require.Error(t, err)

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, CodeSecurity, toolErr.Code)
	})

	t.Run("query is scoped to the caller's account", func(t *testing.T) {
		db := &fakeDB{}
		read := buildTableReadTool(t, db, Descriptor{Type: TypeTableRead, Table: "usage_credits"}, sec)
		assert.Equal(t, "read_usage_credits", read.Name())
		assert.Equal(t, TypeTableRead, read.Type())

		_, err := read.Call(toolCtx(t), map[string]any{})
		require.NoError(t, err)
		assert.Contains(t, db.gotSQL, `"account_id" = $1`)
		assert.Equal(t, int64(42), db.gotArgs[0])
	})

	t.Run("sensitive columns never reach the query even when requested", func(t *testing.T) {
		db := &fakeDB{}
		read := buildTableReadTool(t, db, Descriptor{Type: TypeTableRead, Table: "api_keys"}, sec)

		out, err := read.Call(toolCtx(t), map[string]any{
			"columns": []any{"name", "key_hash"},
		})
		require.NoError(t, err)
		assert.NotContains(t, db.gotSQL, "key_hash")
		assert.Contains(t, db.gotSQL, `"name"`)
		assert.Equal(t, 0, out["count"])
	})

	t.Run("filters on sensitive columns are dropped silently", func(t *testing.T) {
		db := &fakeDB{}
		read := buildTableReadTool(t, db, Descriptor{Type: TypeTableRead, Table: "api_keys"}, sec)

		_, err := read.Call(toolCtx(t), map[string]any{
			"filters": map[string]any{"key_hash": "deadbeef"},
		})
		require.NoError(t, err)
		assert.NotContains(t, db.gotSQL, "key_hash")
	})

	t.Run("limit and offset are clamped, not rejected", func(t *testing.T) {
		db := &fakeDB{}
		read := buildTableReadTool(t, db, Descriptor{Type: TypeTableRead, Table: "usage_credits"}, sec)

		_, err := read.Call(toolCtx(t), map[string]any{
			"limit":  float64(10_000),
			"offset": float64(-3),
		})
		require.NoError(t, err)
		assert.Equal(t, store.MaxLimit, db.gotArgs[len(db.gotArgs)-2])
		assert.Equal(t, 0, db.gotArgs[len(db.gotArgs)-1])
	})

	t.Run("descriptor limit is the default when the caller supplies none", func(t *testing.T) {
		db := &fakeDB{}
		read := buildTableReadTool(t, db, Descriptor{Type: TypeTableRead, Table: "usage_credits", Limit: 25}, sec)

		_, err := read.Call(toolCtx(t), map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, 25, db.gotArgs[len(db.gotArgs)-2])
	})

	t.Run("rows come back as records with the queried table and count", func(t *testing.T) {
		created := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
		db := &fakeDB{rows: [][]any{
			{int64(1), int64(42), int64(500), "signup bonus", created},
			{int64(2), int64(42), int64(-120), "completion usage", created},
		}}
		read := buildTableReadTool(t, db, Descriptor{Type: TypeTableRead, Table: "usage_credits"}, sec)

		out, err := read.Call(toolCtx(t), map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "usage_credits", out["table"])
		assert.Equal(t, 2, out["count"])

		records := out["results"].([]map[string]any)
		require.Len(t, records, 2)
		assert.Equal(t, "signup bonus", records[0]["reason"])
		assert.Equal(t, "2026-05-02T09:30:00Z", records[0]["created_at"])
	})

	t.Run("database failure surfaces as upstream error", func(t *testing.T) {
		db := &fakeDB{err: assert.AnError}
		read := buildTableReadTool(t, db, Descriptor{Type: TypeTableRead, Table: "usage_credits"}, sec)

		_, err := read.Call(toolCtx(t), map[string]any{})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, CodeUpstream, toolErr.Code)
	})
}
