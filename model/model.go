package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
)

// ToolDefinition declaratively exposes a callable capability to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a minimal JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the execution
// session.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the execution session to drive
// generation. Implementations stream responses on the first channel and
// report a terminal failure on the second; both channels are closed when the
// call finishes.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockTurn scripts one model turn of a MockModel: either a set of function
// calls the mock requests, or a final text answer.
type MockTurn struct {
	Text  string
	Calls []core.FunctionCall
}

// MockModel is a lightweight in-memory Model for tests and examples. It
// replays scripted turns in order: each Generate call consumes the next
// turn, streaming the text char-wise when Stream is requested. With no
// scripted turns it echoes the last user input.
type MockModel struct {
	info  Info
	turns []MockTurn
	next  int
	fail  error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock", SupportsTools: true}}
}

// AddTurn appends a scripted turn.
func (m *MockModel) AddTurn(turn MockTurn) { m.turns = append(m.turns, turn) }

// FailWith makes every subsequent Generate call fail with err.
func (m *MockModel) FailWith(err error) { m.fail = err }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if m.fail != nil {
			errCh <- m.fail
			return
		}

		turn := m.nextTurn(req)
		if len(turn.Calls) > 0 {
			parts := make([]core.Part, 0, len(turn.Calls))
			for _, fc := range turn.Calls {
				parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
			}
			respCh <- Response{
				Partial:      false,
				Content:      core.Content{Role: "assistant", Parts: parts},
				FinishReason: "tool_calls",
			}
			return
		}

		if req.Stream {
			for _, r := range turn.Text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent("assistant", string(r)),
				}:
				}
			}
		}
		respCh <- Response{
			Partial:      false,
			Content:      core.NewTextContent("assistant", turn.Text),
			FinishReason: "stop",
		}
	}()

	return respCh, errCh
}

func (m *MockModel) nextTurn(req Request) MockTurn {
	if m.next < len(m.turns) {
		t := m.turns[m.next]
		m.next++
		return t
	}
	var input string
	if len(req.Contents) > 0 {
		input = req.Contents[len(req.Contents)-1].Text()
	}
	return MockTurn{Text: fmt.Sprintf("Mock response to: %s", input)}
}

// Info implements the Model interface.
func (m *MockModel) Info() Info { return m.info }
