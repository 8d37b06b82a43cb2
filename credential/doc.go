// Package credential resolves per-account third-party service credentials.
// Capabilities never receive raw credential tables; they ask the Store for
// the one key they need, scoped to the account executing the session.
package credential
