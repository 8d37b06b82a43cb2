package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWireShape(t *testing.T) {
	t.Run("chain start has only the tag", func(t *testing.T) {
		b, err := json.Marshal(NewChainStartEvent())
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"on_chain_start"}`, string(b))
	})

	t.Run("stream carries a text fragment", func(t *testing.T) {
		b, err := json.Marshal(NewStreamEvent("Hel"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"on_chat_model_stream","data":"Hel"}`, string(b))
	})

	t.Run("tool start carries type, name and input", func(t *testing.T) {
		ev := NewToolStartEvent("vectorSearch", "search_docs", map[string]any{"query": "q"})
		b, err := json.Marshal(ev)
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"on_tool_start","data":{"toolType":"vectorSearch","toolName":"search_docs","input":{"query":"q"}}}`, string(b))
	})

	t.Run("only chain end carries toolCalls", func(t *testing.T) {
		calls := []ToolCall{{
			ToolType: "tableRead",
			ToolName: "read_usage_credits",
			Input:    map[string]any{"limit": 10},
			Output:   map[string]any{"count": 1},
		}}
		b, err := json.Marshal(NewChainEndEvent("done", calls))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Equal(t, "on_chain_end", decoded["event"])
		assert.Equal(t, "done", decoded["data"])
		assert.Len(t, decoded["toolCalls"], 1)

		for _, ev := range []Event{NewChainStartEvent(), NewModelStartEvent(), NewToolEndEvent("x", false), NewErrorEvent("boom")} {
			raw, err := json.Marshal(ev)
			require.NoError(t, err)
			var m map[string]any
			require.NoError(t, json.Unmarshal(raw, &m))
			assert.NotContains(t, m, "toolCalls", "event %s must not carry toolCalls", ev.Event)
		}
	})
}

func TestEventIsTerminal(t *testing.T) {
	assert.True(t, NewChainEndEvent("", nil).IsTerminal())
	assert.True(t, NewErrorEvent("x").IsTerminal())
	assert.False(t, NewChainStartEvent().IsTerminal())
	assert.False(t, NewToolStartEvent("t", "n", nil).IsTerminal())
}

func TestToolCallRecorderOrder(t *testing.T) {
	rec := NewToolCallRecorder()
	rec.Record(ToolCall{ToolName: "first"})
	rec.Record(ToolCall{ToolName: "second"})

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].ToolName)
	assert.Equal(t, "second", calls[1].ToolName)

	// Returned slice is a copy; mutating it must not affect the recorder.
	calls[0].ToolName = "mutated"
	assert.Equal(t, "first", rec.Calls()[0].ToolName)
	assert.Equal(t, 2, rec.Len())
}

func TestContentHelpers(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "a"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "f"}},
		TextPart{Text: "b"},
	}}
	assert.Equal(t, "ab", c.Text())

	calls := c.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "f", calls[0].Name)
}

func TestSecurityContext(t *testing.T) {
	sec := NewSecurityContext(42, "tok")
	assert.Equal(t, int64(42), sec.AccountID())
	assert.Equal(t, "tok", sec.AuthToken())
}
