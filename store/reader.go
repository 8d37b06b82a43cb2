package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx pool/conn behavior the reader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Reader executes scoped queries and returns rows as generic records.
type Reader struct {
	db Querier
}

// NewReader creates a reader backed by db.
func NewReader(db Querier) *Reader {
	return &Reader{db: db}
}

// Read executes q and returns one map per row, keyed by column name.
func (r *Reader) Read(ctx context.Context, q *ScopedQuery) ([]map[string]any, error) {
	sql, args := q.Build()

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("table read failed: %w", err)
	}
	defer rows.Close()

	cols := q.Columns()
	records := make([]map[string]any, 0, DefaultLimit)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("row decode failed: %w", err)
		}
		if len(values) != len(cols) {
			return nil, fmt.Errorf("row has %d values, expected %d", len(values), len(cols))
		}
		record := make(map[string]any, len(cols))
		for i, c := range cols {
			record[c] = normalizeValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table read failed: %w", err)
	}
	return records, nil
}

// normalizeValue makes driver values JSON-friendly.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return string(t)
	default:
		return v
	}
}
