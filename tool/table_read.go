package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/internal/util"
	"github.com/hupe1980/ragmesh/store"
)

// tableRead is the allow-listed relational read capability. All scoping and
// sensitive-column rules live in store.ScopedQuery; this type only maps the
// tool argument surface onto the query builder.
type tableRead struct {
	name         string
	table        string
	entry        store.TableEntry
	defaultLimit int
	reader       *store.Reader
}

func buildTableRead(_ context.Context, deps Dependencies, desc Descriptor, _ *core.SecurityContext) (Tool, error) {
	if desc.Table == "" {
		return nil, NewToolError(desc.Type, "descriptor requires a table name", CodeConfig)
	}
	if deps.Reader == nil {
		return nil, NewToolError(desc.Type, "database reader not configured", CodeConfig)
	}
	entry, ok := store.AllowedTables[desc.Table]
	if !ok {
		return nil, NewToolError(desc.Type, fmt.Sprintf("table %q is not readable", desc.Table), CodeSecurity)
	}

	limit := desc.Limit
	if limit <= 0 {
		limit = store.DefaultLimit
	}
	if limit > store.MaxLimit {
		limit = store.MaxLimit
	}

	return &tableRead{
		name:         "read_" + desc.Table,
		table:        desc.Table,
		entry:        entry,
		defaultLimit: limit,
		reader:       deps.Reader,
	}, nil
}

// Name implements Tool.
func (t *tableRead) Name() string { return t.name }

// Type implements Tool.
func (t *tableRead) Type() string { return TypeTableRead }

// Description implements Tool.
func (t *tableRead) Description() string {
	cols := make([]string, 0, len(t.entry.Columns))
	for _, c := range t.entry.Columns {
		if !t.entry.IsSensitive(c) {
			cols = append(cols, c)
		}
	}
	return fmt.Sprintf("Read rows from the %q table. Available columns: %s. Supports equality filters, column selection, limit and offset.",
		t.table, strings.Join(cols, ", "))
}

// Parameters implements Tool.
func (t *tableRead) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filters": map[string]interface{}{
				"type":        "object",
				"description": "Equality filters as column-value pairs",
			},
			"columns": map[string]interface{}{
				"type":        "array",
				"description": "Columns to return; defaults to all available columns",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum rows to return (1-%d)", store.MaxLimit),
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "Rows to skip before returning results",
			},
		},
	}
}

// Call implements Tool.
func (t *tableRead) Call(toolCtx *core.ToolContext, args map[string]interface{}) (map[string]interface{}, error) {
	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		return nil, NewToolError(t.name, err.Error(), CodeValidation)
	}

	q, err := store.NewScopedQuery(t.table, toolCtx.Security().AccountID())
	if err != nil {
		return nil, NewToolError(t.name, err.Error(), CodeSecurity)
	}
	q.Limit(t.defaultLimit)

	if filters, ok := args["filters"].(map[string]interface{}); ok {
		for column, value := range filters {
			q.Filter(column, value)
		}
	}
	if raw, ok := args["columns"].([]interface{}); ok {
		columns := make([]string, 0, len(raw))
		for _, c := range raw {
			if name, ok := c.(string); ok {
				columns = append(columns, name)
			}
		}
		q.Select(columns...)
	}
	if limit, ok := args["limit"].(float64); ok {
		q.Limit(int(limit))
	}
	if offset, ok := args["offset"].(float64); ok {
		q.Offset(int(offset))
	}

	records, err := t.reader.Read(toolCtx.Context(), q)
	if err != nil {
		return nil, NewToolError(t.name, err.Error(), CodeUpstream)
	}

	return map[string]interface{}{
		"results": records,
		"table":   t.table,
		"count":   len(records),
	}, nil
}
