package core

import (
	"context"

	"github.com/hupe1980/ragmesh/logging"
)

// ToolContext is the constrained per-invocation surface handed to capability
// implementations. It carries the cancellation context of the session turn,
// the unique function call identifier assigned by the model, the request's
// SecurityContext and a structured logger. Capabilities must not retain a
// ToolContext beyond the invocation.
type ToolContext struct {
	ctx      context.Context
	callID   string
	security *SecurityContext
	logger   logging.Logger
}

// NewToolContext binds a tool invocation to its session turn.
func NewToolContext(ctx context.Context, callID string, sec *SecurityContext, logger logging.Logger) *ToolContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolContext{ctx: ctx, callID: callID, security: sec, logger: logger}
}

// Context returns the cancellation context of the invocation. All blocking
// collaborator calls must honor it.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the identifier correlating the model's function call
// request with this execution.
func (tc *ToolContext) FunctionCallID() string { return tc.callID }

// Security returns the request's security scope.
func (tc *ToolContext) Security() *SecurityContext { return tc.security }

// Logger returns the structured logger for the invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }
