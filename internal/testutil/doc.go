// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing agent configurations and stubbing
// database access. These helpers are intentionally minimal and are not
// intended for production usage.
package testutil
