package core

// ToolCall is the structured, replayable record of one completed capability
// invocation: which capability ran, with what input, and what it returned.
// Created exactly once per completed invocation and immutable afterwards.
// A failed invocation still produces a record; its Output carries the failure
// description under the "error" key.
type ToolCall struct {
	ToolType string         `json:"toolType"`
	ToolName string         `json:"toolName"`
	Input    map[string]any `json:"input"`
	Output   map[string]any `json:"output"`
}

// ToolCallRecorder accumulates ToolCall records in invocation order for the
// lifetime of one execution session. It is owned by a single session and is
// not shared across requests, so no locking is required.
type ToolCallRecorder struct {
	calls []ToolCall
}

// NewToolCallRecorder creates an empty recorder.
func NewToolCallRecorder() *ToolCallRecorder { return &ToolCallRecorder{} }

// Record appends one completed invocation. Records are never mutated or
// removed afterwards.
func (r *ToolCallRecorder) Record(call ToolCall) { r.calls = append(r.calls, call) }

// Len returns the number of recorded invocations.
func (r *ToolCallRecorder) Len() int { return len(r.calls) }

// Calls returns a copy of the ordered record list.
func (r *ToolCallRecorder) Calls() []ToolCall {
	out := make([]ToolCall, len(r.calls))
	copy(out, r.calls)
	return out
}
