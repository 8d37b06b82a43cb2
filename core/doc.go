// Package core defines the shared value types of the RagMesh framework: the
// event envelopes of the completion execution protocol, the immutable
// ToolCall records accumulated per session, the SecurityContext under which
// capabilities execute, and the role-based Content/Part union exchanged with
// model providers.
package core
