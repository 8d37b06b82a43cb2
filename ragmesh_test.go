package ragmesh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/internal/testutil"
	"github.com/hupe1980/ragmesh/model"
	"github.com/hupe1980/ragmesh/store"
	"github.com/hupe1980/ragmesh/tool"
)

func TestExecuteSync(t *testing.T) {
	sec := core.NewSecurityContext(42, "jwt-token")

	t.Run("returns the final answer and the event trail", func(t *testing.T) {
		m := model.NewMockModel("mock")
		m.AddTurn(model.MockTurn{Text: "the answer"})

		mesh := New(m)
		result, err := mesh.ExecuteSync(context.Background(), testutil.NewConfigBuilder().Build(), sec, "question")

		require.NoError(t, err)
		assert.Equal(t, "the answer", result.Answer)
		assert.Empty(t, result.ToolCalls)
		require.NotEmpty(t, result.Events)
		assert.Equal(t, core.EventChainStart, result.Events[0].Event)
		assert.Equal(t, core.EventChainEnd, result.Events[len(result.Events)-1].Event)
	})

	t.Run("unresolvable capabilities surface as diagnostics, not failures", func(t *testing.T) {
		m := model.NewMockModel("mock")
		m.AddTurn(model.MockTurn{Text: "ok"})

		mesh := New(m)
		cfg := testutil.NewConfigBuilder().VectorSearch("main", "docs").Build()

		events, diags := mesh.Execute(context.Background(), cfg, sec, "question")
		require.Len(t, diags, 1)

		var last core.Event
		for ev := range events {
			last = ev
		}
		assert.Equal(t, core.EventChainEnd, last.Event)
	})

	t.Run("table read capability resolves and records scoped reads end to end", func(t *testing.T) {
		m := model.NewMockModel("mock")
		m.AddTurn(model.MockTurn{Calls: []core.FunctionCall{
			{ID: "c1", Name: "read_usage_credits", Arguments: `{"limit": 2}`},
		}})
		m.AddTurn(model.MockTurn{Text: "you have 500 credits"})

		db := &testutil.FakeDB{Rows: [][]any{
			{int64(1), int64(42), int64(500), "signup bonus", time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)},
		}}
		mesh := New(m, func(o *Options) {
			o.Dependencies = tool.Dependencies{Reader: store.NewReader(db)}
		})
		cfg := testutil.NewConfigBuilder().TableRead("usage_credits").Build()

		result, err := mesh.ExecuteSync(context.Background(), cfg, sec, "how many credits do I have?")
		require.NoError(t, err)
		assert.Equal(t, "you have 500 credits", result.Answer)
		assert.Contains(t, db.GotSQL, `"account_id" = $1`)
		assert.Equal(t, int64(42), db.GotArgs[0])

		require.Len(t, result.ToolCalls, 1)
		call := result.ToolCalls[0]
		assert.Equal(t, "tableRead", call.ToolType)
		assert.Equal(t, "read_usage_credits", call.ToolName)
		assert.Equal(t, 1, call.Output["count"])
	})

	t.Run("model failure becomes an error with the partial event trail", func(t *testing.T) {
		m := model.NewMockModel("mock")
		m.FailWith(errors.New("provider down"))

		mesh := New(m)
		result, err := mesh.ExecuteSync(context.Background(), testutil.NewConfigBuilder().Build(), sec, "question")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider down")
		require.NotEmpty(t, result.Events)
		assert.Equal(t, core.EventError, result.Events[len(result.Events)-1].Event)
	})
}
