package store

import (
	"fmt"
	"strings"
)

const (
	// DefaultLimit applies when the caller does not ask for one.
	DefaultLimit = 50
	// MaxLimit caps any requested row count.
	MaxLimit = 100
)

// ScopedQuery builds a read-only SELECT against an allow-listed table. For
// account-scoped tables the account predicate is injected here and cannot
// be removed or overridden by later builder calls.
type ScopedQuery struct {
	table     string
	entry     TableEntry
	accountID int64
	columns   []string
	filters   []filter
	limit     int
	offset    int
}

type filter struct {
	column string
	value  any
}

// NewScopedQuery is the only way to construct a ScopedQuery. It fails when
// the table is not on the allow-list.
func NewScopedQuery(table string, accountID int64) (*ScopedQuery, error) {
	entry, ok := AllowedTables[table]
	if !ok {
		return nil, fmt.Errorf("table %q is not readable", table)
	}
	return &ScopedQuery{
		table:     table,
		entry:     entry,
		accountID: accountID,
		limit:     DefaultLimit,
	}, nil
}

// Select restricts the projection to the given columns. Unknown and
// sensitive columns are dropped silently; with no surviving column the
// projection falls back to all non-sensitive columns.
func (q *ScopedQuery) Select(columns ...string) *ScopedQuery {
	kept := make([]string, 0, len(columns))
	for _, c := range columns {
		if q.entry.HasColumn(c) && !q.entry.IsSensitive(c) {
			kept = append(kept, c)
		}
	}
	q.columns = kept
	return q
}

// Filter adds an equality predicate. Filters on unknown or sensitive
// columns are dropped silently.
func (q *ScopedQuery) Filter(column string, value any) *ScopedQuery {
	if !q.entry.HasColumn(column) || q.entry.IsSensitive(column) {
		return q
	}
	q.filters = append(q.filters, filter{column: column, value: value})
	return q
}

// Limit sets the row cap, clamped to [1, MaxLimit].
func (q *ScopedQuery) Limit(n int) *ScopedQuery {
	if n < 1 {
		n = 1
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	q.limit = n
	return q
}

// Offset sets the row offset; negative values become zero.
func (q *ScopedQuery) Offset(n int) *ScopedQuery {
	if n < 0 {
		n = 0
	}
	q.offset = n
	return q
}

// Columns returns the effective projection after sensitive-column
// subtraction.
func (q *ScopedQuery) Columns() []string {
	if len(q.columns) > 0 {
		return q.columns
	}
	cols := make([]string, 0, len(q.entry.Columns))
	for _, c := range q.entry.Columns {
		if !q.entry.IsSensitive(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Build renders the SQL statement and its positional arguments.
func (q *ScopedQuery) Build() (string, []any) {
	cols := q.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(q.table))

	var predicates []string
	if q.entry.AccountScoped {
		args = append(args, q.accountID)
		predicates = append(predicates, fmt.Sprintf("%s = $%d", quoteIdent("account_id"), len(args)))
	}
	for _, f := range q.filters {
		args = append(args, f.value)
		predicates = append(predicates, fmt.Sprintf("%s = $%d", quoteIdent(f.column), len(args)))
	}
	if len(predicates) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(predicates, " AND "))
	}

	args = append(args, q.limit)
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, q.offset)
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	return sb.String(), args
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
