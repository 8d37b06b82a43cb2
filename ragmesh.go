// Package ragmesh provides a high-level façade over the capability registry
// and the execution session, enabling rapid construction of retrieval-backed
// completion agents. Most applications interact with this package by:
//  1. Creating a RagMesh via New() with the external collaborators wired in
//  2. Executing completion requests (Execute) against an agent configuration
//     and a per-request security context
//  3. Consuming the returned event stream, or using ExecuteSync to collect
//     the final answer and tool-call records in one call
//
// The façade delegates capability resolution to tool.Registry and turn
// execution to session.Session while keeping setup and usage ergonomics
// concise. All defaults are safe for local development and testing;
// production deployments supply real collaborators and a structured logger.
package ragmesh

import (
	"context"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/model"
	"github.com/hupe1980/ragmesh/session"
	"github.com/hupe1980/ragmesh/tool"
)

// Version is the current release of the module.
const Version = "0.1.0"

// Options configures the RagMesh instance.
type Options struct {
	// Dependencies are the external collaborators capability builders bind
	// against (embedder, vector index resolver, reranker, credential store,
	// database reader).
	Dependencies tool.Dependencies

	// SystemPrompt is prepended to every model request.
	SystemPrompt string

	// MaxTurns bounds the number of model rounds per session.
	MaxTurns int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// RagMesh is the high-level façade aggregating the capability registry and
// the model used for completion turns.
type RagMesh struct {
	opts     Options
	model    model.Model
	registry *tool.Registry
}

// New creates a RagMesh over the given model with optional overrides.
func New(m model.Model, optFns ...func(o *Options)) *RagMesh {
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
	opts.Dependencies.Logger = opts.Logger

	return &RagMesh{
		opts:     opts,
		model:    m,
		registry: tool.NewDefaultRegistry(opts.Dependencies),
	}
}

// Registry exposes the capability registry, e.g. to register custom
// capability types during process initialization.
func (r *RagMesh) Registry() *tool.Registry { return r.registry }

// Execute resolves the configuration into bound capabilities and runs one
// completion turn. It returns the session's event stream; skipped
// capabilities are reported as diagnostics, never as failures.
func (r *RagMesh) Execute(ctx context.Context, cfg tool.AgentConfig, sec *core.SecurityContext, prompt string) (<-chan core.Event, []tool.Diagnostic) {
	tools, diags := r.registry.ResolveAll(ctx, cfg, sec)

	s := session.New(r.model, tools, sec, func(o *session.Options) {
		o.SystemPrompt = r.opts.SystemPrompt
		o.MaxTurns = r.opts.MaxTurns
		o.Logger = r.opts.Logger
	})
	return s.Run(ctx, prompt), diags
}

// Result is the collected outcome of a synchronous completion request.
type Result struct {
	Answer    string
	ToolCalls []core.ToolCall
	Events    []core.Event
}

// ExecuteSync is a synchronous helper that drains the event stream and
// returns the final answer with its tool-call records. A terminal error
// event is returned as an error alongside the events collected so far.
func (r *RagMesh) ExecuteSync(ctx context.Context, cfg tool.AgentConfig, sec *core.SecurityContext, prompt string) (*Result, error) {
	events, _ := r.Execute(ctx, cfg, sec, prompt)

	result := &Result{}
	for ev := range events {
		result.Events = append(result.Events, ev)
		switch ev.Event {
		case core.EventChainEnd:
			if answer, ok := ev.Data.(string); ok {
				result.Answer = answer
			}
			result.ToolCalls = ev.ToolCalls
			return result, nil
		case core.EventError:
			return result, fmt.Errorf("session failed: %v", ev.Data)
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, fmt.Errorf("session ended without a terminal event")
}
