package store

// TableEntry describes one table the read capability may expose.
type TableEntry struct {
	// AccountScoped tables carry an account_id column and every read is
	// restricted to the caller's account.
	AccountScoped bool
	// Columns is the full set of selectable columns.
	Columns []string
	// Sensitive columns are never projected, even when requested.
	Sensitive []string
}

// HasColumn reports whether name is a known column of the table.
func (e TableEntry) HasColumn(name string) bool {
	for _, c := range e.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsSensitive reports whether name is withheld from projections.
func (e TableEntry) IsSensitive(name string) bool {
	for _, c := range e.Sensitive {
		if c == name {
			return true
		}
	}
	return false
}

// AllowedTables is the read capability's table allow-list. Tables absent
// from this map cannot be read at all.
var AllowedTables = map[string]TableEntry{
	"usage_credits": {
		AccountScoped: true,
		Columns:       []string{"id", "account_id", "amount", "reason", "created_at"},
	},
	"api_keys": {
		AccountScoped: true,
		Columns:       []string{"id", "account_id", "name", "key_hash", "last_used_at", "created_at"},
		Sensitive:     []string{"key_hash"},
	},
	"prompts": {
		AccountScoped: true,
		Columns:       []string{"id", "account_id", "name", "content", "version", "created_at", "updated_at"},
	},
	"webhook_endpoints": {
		AccountScoped: true,
		Columns:       []string{"id", "account_id", "url", "secret", "active", "created_at"},
		Sensitive:     []string{"secret"},
	},
}
