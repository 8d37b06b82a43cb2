package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/model"
	"github.com/hupe1980/ragmesh/tool"
)

// Options configure a Session.
type Options struct {
	// SystemPrompt is prepended to every model request.
	SystemPrompt string
	// MaxTurns bounds the number of model rounds before the session gives
	// up with an error event.
	MaxTurns int
	// Logger receives session progress logs.
	Logger logging.Logger
}

// Session executes one completion request. A Session owns its capability
// list and recorder exclusively; it is single-use and must not be shared
// across requests.
type Session struct {
	model    model.Model
	tools    []tool.Tool
	byName   map[string]tool.Tool
	security *core.SecurityContext
	recorder *core.ToolCallRecorder
	opts     Options
}

// New creates a Session over the given model and bound capabilities.
func New(m model.Model, tools []tool.Tool, sec *core.SecurityContext, optFns ...func(o *Options)) *Session {
	opts := Options{
		MaxTurns: 10,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	byName := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &Session{
		model:    m,
		tools:    tools,
		byName:   byName,
		security: sec,
		recorder: core.NewToolCallRecorder(),
		opts:     opts,
	}
}

// Run starts the session and returns the event stream. The channel is
// unbuffered: the caller drives consumption, and each event is produced
// only when the consumer is ready. The channel closes after the terminal
// event (chain end or error) or when ctx is canceled.
func (s *Session) Run(ctx context.Context, prompt string) <-chan core.Event {
	events := make(chan core.Event)
	go s.run(ctx, prompt, events)
	return events
}

func (s *Session) run(ctx context.Context, prompt string, events chan<- core.Event) {
	defer close(events)

	if !s.emit(ctx, events, core.NewChainStartEvent()) {
		return
	}

	contents := []core.Content{core.NewTextContent("user", prompt)}
	var answer strings.Builder

	for turn := 0; turn < s.opts.MaxTurns; turn++ {
		final, ok := s.modelTurn(ctx, events, contents, &answer)
		if !ok {
			return
		}

		calls := final.Content.FunctionCalls()
		if len(calls) == 0 {
			// Final answer turn. Providers without token streaming deliver
			// the text in one piece; surface it as a single fragment so the
			// stream still concatenates to the final answer.
			text := final.Content.Text()
			if text != "" && answer.Len() == 0 {
				if !s.emit(ctx, events, core.NewStreamEvent(text)) {
					return
				}
				answer.WriteString(text)
			}
			s.emit(ctx, events, core.NewChainEndEvent(answer.String(), s.recorder.Calls()))
			return
		}

		contents = append(contents, final.Content)
		for _, fc := range calls {
			response, ok := s.invokeTool(ctx, events, fc)
			if !ok {
				return
			}
			contents = append(contents, core.Content{Role: "tool", Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: response},
			}})
		}
	}

	s.emit(ctx, events, core.NewErrorEvent(fmt.Sprintf("no final answer after %d model turns", s.opts.MaxTurns)))
}

// modelTurn runs one model round, emitting the model start event and any
// stream fragments. It returns the final (non-partial) response, or ok=false
// when the session already terminated (model failure or cancellation).
func (s *Session) modelTurn(ctx context.Context, events chan<- core.Event, contents []core.Content, answer *strings.Builder) (model.Response, bool) {
	if !s.emit(ctx, events, core.NewModelStartEvent()) {
		return model.Response{}, false
	}

	req := model.Request{
		Instructions: s.opts.SystemPrompt,
		Contents:     contents,
		Tools:        s.toolDefinitions(),
		Stream:       true,
	}

	start := time.Now()
	respCh, errCh := s.model.Generate(ctx, req)

	var final model.Response
	var sawFinal bool
	for {
		select {
		case <-ctx.Done():
			return model.Response{}, false
		case err, ok := <-errCh:
			if ok && err != nil {
				logging.LogModelCall(s.opts.Logger, s.model.Info().Name, time.Since(start), err)
				s.emit(ctx, events, core.NewErrorEvent(err.Error()))
				return model.Response{}, false
			}
			errCh = nil
		case resp, ok := <-respCh:
			if !ok {
				if !sawFinal {
					// The error channel may still hold the failure that ended
					// the stream.
					if errCh != nil {
						if err, ok := <-errCh; ok && err != nil {
							logging.LogModelCall(s.opts.Logger, s.model.Info().Name, time.Since(start), err)
							s.emit(ctx, events, core.NewErrorEvent(err.Error()))
							return model.Response{}, false
						}
					}
					s.emit(ctx, events, core.NewErrorEvent("model produced no response"))
					return model.Response{}, false
				}
				logging.LogModelCall(s.opts.Logger, s.model.Info().Name, time.Since(start), nil)
				return final, true
			}
			if resp.Partial {
				text := resp.Content.Text()
				if text != "" {
					if !s.emit(ctx, events, core.NewStreamEvent(text)) {
						return model.Response{}, false
					}
					answer.WriteString(text)
				}
				continue
			}
			final = resp
			sawFinal = true
		}
	}
}

// invokeTool wraps one capability invocation in its start/end event pair and
// records the call. A failing invocation is recorded with an error output
// and does not terminate the session; ok=false only signals cancellation.
func (s *Session) invokeTool(ctx context.Context, events chan<- core.Event, fc core.FunctionCall) (core.FunctionResponse, bool) {
	t, known := s.byName[fc.Name]

	toolType := "unknown"
	if known {
		toolType = t.Type()
	}

	input := parseArguments(fc.Arguments)
	if !s.emit(ctx, events, core.NewToolStartEvent(toolType, fc.Name, input)) {
		return core.FunctionResponse{}, false
	}

	output, err := s.callTool(ctx, t, known, fc, input)

	// A canceled context means the caller is gone: drop the in-flight
	// record and stop without a tool end event.
	if ctx.Err() != nil {
		return core.FunctionResponse{}, false
	}

	failed := err != nil
	if failed {
		output = map[string]any{"error": err.Error()}
	}

	s.recorder.Record(core.ToolCall{
		ToolType: toolType,
		ToolName: fc.Name,
		Input:    input,
		Output:   output,
	})
	if !s.emit(ctx, events, core.NewToolEndEvent(fc.Name, failed)) {
		return core.FunctionResponse{}, false
	}

	response := core.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: output}
	if failed {
		response.Error = err.Error()
	}
	return response, true
}

func (s *Session) callTool(ctx context.Context, t tool.Tool, known bool, fc core.FunctionCall, input map[string]any) (map[string]any, error) {
	if !known {
		err := fmt.Errorf("unknown tool %q", fc.Name)
		logging.LogToolCall(s.opts.Logger, fc.Name, 0, err)
		return nil, err
	}
	toolCtx := core.NewToolContext(ctx, fc.ID, s.security, s.opts.Logger)

	start := time.Now()
	output, err := t.Call(toolCtx, input)
	logging.LogToolCall(s.opts.Logger, fc.Name, time.Since(start), err)
	return output, err
}

func (s *Session) toolDefinitions() []model.ToolDefinition {
	if len(s.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// emit delivers one event, honoring cancellation. It reports whether the
// session may continue.
func (s *Session) emit(ctx context.Context, events chan<- core.Event, ev core.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}

// parseArguments decodes a model-supplied JSON argument string. Malformed
// arguments degrade to an empty map; the capability's own validation then
// reports the missing fields.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}
