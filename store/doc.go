// Package store provides read-only, allow-listed access to application
// database tables. Every query against an account-scoped table is built
// through ScopedQuery, whose only constructor injects the account predicate,
// so capability code cannot produce an unscoped statement. Sensitive columns
// are subtracted from projections before SQL is generated.
package store
