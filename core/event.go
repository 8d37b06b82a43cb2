package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType tags one step of the completion execution protocol. The tags are
// the wire names emitted to clients, one JSON object per event.
type EventType string

const (
	// EventChainStart opens a session stream. Emitted exactly once, first.
	EventChainStart EventType = "on_chain_start"
	// EventModelStart marks the beginning of a model turn. A session may
	// contain several model turns when the agent interleaves tool calls.
	EventModelStart EventType = "on_chat_model_start"
	// EventModelStream carries one incremental fragment of the answer text.
	// Concatenating every fragment in emission order yields the final answer.
	EventModelStream EventType = "on_chat_model_stream"
	// EventToolStart marks the beginning of a single capability invocation.
	EventToolStart EventType = "on_tool_start"
	// EventToolEnd marks the completion (successful or failed) of the
	// invocation opened by the matching EventToolStart.
	EventToolEnd EventType = "on_tool_end"
	// EventChainEnd terminates a successful session. It is the only event
	// carrying the ordered ToolCall list, alongside the final answer text.
	EventChainEnd EventType = "on_chain_end"
	// EventError terminates a session after a protocol-level failure (the
	// model call itself failed). No EventChainEnd follows.
	EventError EventType = "error"
)

// Event is one envelope of the execution protocol stream. After emission it
// must be treated as immutable. Data holds the type-specific payload: a text
// fragment for streams, the final answer for chain end, ToolStartData /
// ToolEndData for tool boundaries, an error description for errors.
type Event struct {
	ID        string     `json:"-"`
	Event     EventType  `json:"event"`
	Data      any        `json:"data,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Timestamp time.Time  `json:"-"`
}

// ToolStartData is the Data payload of an EventToolStart envelope.
type ToolStartData struct {
	ToolType string         `json:"toolType"`
	ToolName string         `json:"toolName"`
	Input    map[string]any `json:"input"`
}

// ToolEndData is the Data payload of an EventToolEnd envelope. Failed reports
// a runtime invocation failure; the failure description itself lives in the
// ToolCall record's output.
type ToolEndData struct {
	ToolName string `json:"toolName"`
	Failed   bool   `json:"failed,omitempty"`
}

// NewEvent creates a bare event of the given type.
func NewEvent(t EventType) Event {
	return Event{ID: NewID(), Event: t, Timestamp: time.Now().UTC()}
}

// NewChainStartEvent creates the opening envelope of a session stream.
func NewChainStartEvent() Event { return NewEvent(EventChainStart) }

// NewModelStartEvent creates the envelope opening one model turn.
func NewModelStartEvent() Event { return NewEvent(EventModelStart) }

// NewStreamEvent creates an envelope carrying one answer text fragment.
func NewStreamEvent(fragment string) Event {
	e := NewEvent(EventModelStream)
	e.Data = fragment
	return e
}

// NewToolStartEvent creates the envelope opening one capability invocation.
func NewToolStartEvent(toolType, toolName string, input map[string]any) Event {
	e := NewEvent(EventToolStart)
	e.Data = ToolStartData{ToolType: toolType, ToolName: toolName, Input: input}
	return e
}

// NewToolEndEvent creates the envelope closing one capability invocation.
func NewToolEndEvent(toolName string, failed bool) Event {
	e := NewEvent(EventToolEnd)
	e.Data = ToolEndData{ToolName: toolName, Failed: failed}
	return e
}

// NewChainEndEvent creates the terminal envelope of a successful session,
// carrying the full answer text and the ordered ToolCall records.
func NewChainEndEvent(answer string, calls []ToolCall) Event {
	e := NewEvent(EventChainEnd)
	e.Data = answer
	e.ToolCalls = calls
	return e
}

// NewErrorEvent creates the terminal envelope of a failed session.
func NewErrorEvent(message string) Event {
	e := NewEvent(EventError)
	e.Data = message
	return e
}

// IsTerminal reports whether no further events may follow this one.
func (e Event) IsTerminal() bool {
	return e.Event == EventChainEnd || e.Event == EventError
}

// NewID generates a unique identifier for events and invocations.
func NewID() string { return uuid.NewString() }
