package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/credential"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/retrieval"
	"github.com/hupe1980/ragmesh/store"
)

// Dependencies bundles the external collaborators capability builders close
// over. Fields a builder needs but finds nil cause a construction failure
// for that capability, not a panic.
type Dependencies struct {
	Embedder    retrieval.Embedder
	Indexes     retrieval.IndexResolver
	Reranker    retrieval.Reranker
	Credentials credential.Store
	Reader      *store.Reader
	Logger      logging.Logger
}

func (d Dependencies) logger() logging.Logger {
	if d.Logger == nil {
		return logging.NoOpLogger{}
	}
	return d.Logger
}

// Builder constructs one bound capability from a descriptor and the
// caller's security context.
type Builder func(ctx context.Context, deps Dependencies, desc Descriptor, sec *core.SecurityContext) (Tool, error)

// Registry maps capability type tags to builders. It is populated during
// process initialization and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	deps     Dependencies
	builders map[string]Builder
}

// NewRegistry creates an empty registry bound to deps.
func NewRegistry(deps Dependencies) *Registry {
	return &Registry{deps: deps, builders: make(map[string]Builder)}
}

// NewDefaultRegistry creates a registry with all built-in capability types
// registered.
func NewDefaultRegistry(deps Dependencies) *Registry {
	r := NewRegistry(deps)
	r.RegisterBuilder(TypeVectorSearch, buildVectorSearch)
	r.RegisterBuilder(TypeVectorSearchRerank, buildVectorSearchRerank)
	r.RegisterBuilder(TypeTableRead, buildTableRead)
	return r
}

// RegisterBuilder registers builder under typeTag. Last write wins.
func (r *Registry) RegisterBuilder(typeTag string, builder Builder) {
	r.builders[typeTag] = builder
}

// Builder returns the builder registered for typeTag.
func (r *Registry) Builder(typeTag string) (Builder, bool) {
	b, ok := r.builders[typeTag]
	return b, ok
}

// Types returns the registered capability type tags.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, t)
	}
	return types
}

// Diagnostic records one descriptor that could not be resolved into a
// capability.
type Diagnostic struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ResolveAll turns an agent configuration into the ordered list of bound
// capabilities. Unresolvable descriptors are skipped with a diagnostic; one
// bad descriptor never aborts resolution of the others. An empty result is
// valid and means the agent runs without capabilities.
func (r *Registry) ResolveAll(ctx context.Context, cfg AgentConfig, sec *core.SecurityContext) ([]Tool, []Diagnostic) {
	var tools []Tool
	var diags []Diagnostic

	log := r.deps.logger()
	for _, desc := range cfg.Descriptors() {
		builder, ok := r.Builder(desc.Type)
		if !ok {
			diags = append(diags, Diagnostic{Type: desc.Type, Reason: fmt.Sprintf("unknown capability type %q", desc.Type)})
			log.Warn("Skipping capability with unknown type", "type", desc.Type)
			continue
		}
		t, err := builder(ctx, r.deps, desc, sec)
		if err != nil {
			diags = append(diags, Diagnostic{Type: desc.Type, Reason: err.Error()})
			log.Warn("Skipping capability that failed to bind", "type", desc.Type, "error", err)
			continue
		}
		tools = append(tools, t)
		log.Debug("Bound capability", "type", desc.Type, "name", t.Name())
	}
	return tools, diags
}
