// Package logging provides a minimal logging interface and adapters for RagMesh.
//
// The Logger interface defines the standard structured logging methods
// (Debug, Info, Warn, Error) that sessions and capabilities use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RagMeshLogger with contextual helpers (session, component) and domain
//     helpers for tool and model calls
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
