package testutil

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FakeDB records the last query it received and replays canned row values.
// It satisfies the Querier interfaces of the store and credential packages.
type FakeDB struct {
	// Rows are the values returned row by row from the next Query call.
	Rows [][]any
	// Err fails Query and QueryRow outright when set.
	Err error

	GotSQL  string
	GotArgs []any
}

// Query implements the store Querier.
func (f *FakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.GotSQL = sql
	f.GotArgs = args
	if f.Err != nil {
		return nil, f.Err
	}
	return &fakeRows{values: f.Rows}, nil
}

// QueryRow implements the credential Querier.
func (f *FakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.GotSQL = sql
	f.GotArgs = args
	if f.Err != nil {
		return &fakeRow{err: f.Err}
	}
	if len(f.Rows) == 0 {
		return &fakeRow{err: pgx.ErrNoRows}
	}
	return &fakeRow{values: f.Rows[0]}
}

type fakeRows struct {
	values [][]any
	pos    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.values[r.pos-1], nil }

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.values[r.pos-1], dest)
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

func scanInto(values []any, dest []any) error {
	for i, d := range dest {
		if i >= len(values) {
			break
		}
		if p, ok := d.(*string); ok {
			if s, ok := values[i].(string); ok {
				*p = s
			}
		}
	}
	return nil
}
