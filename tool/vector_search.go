package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/credential"
	"github.com/hupe1980/ragmesh/internal/util"
	"github.com/hupe1980/ragmesh/retrieval"
)

const defaultSearchTopK = 10

// vectorSearch is the single-stage semantic search capability. It embeds the
// query text and returns the top-K nearest vectors from its bound index and
// namespace.
type vectorSearch struct {
	name        string
	description string
	index       string
	namespace   string
	topK        int
	embedder    retrieval.Embedder
	store       retrieval.VectorIndex
}

func buildVectorSearch(ctx context.Context, deps Dependencies, desc Descriptor, sec *core.SecurityContext) (Tool, error) {
	store, err := bindVectorIndex(ctx, deps, desc, sec)
	if err != nil {
		return nil, err
	}

	topK := desc.TopK
	if topK <= 0 {
		topK = defaultSearchTopK
	}
	return &vectorSearch{
		name:        "search_" + desc.Namespace,
		description: searchDescription(desc),
		index:       desc.Index,
		namespace:   desc.Namespace,
		topK:        topK,
		embedder:    deps.Embedder,
		store:       store,
	}, nil
}

// bindVectorIndex validates the shared search descriptor fields, resolves
// the account's provider credential and binds the target index. Shared by
// both search capability builders.
func bindVectorIndex(ctx context.Context, deps Dependencies, desc Descriptor, sec *core.SecurityContext) (retrieval.VectorIndex, error) {
	if desc.Index == "" || desc.Namespace == "" {
		return nil, NewToolError(desc.Type, "descriptor requires index and namespace", CodeConfig)
	}
	if deps.Embedder == nil || deps.Indexes == nil || deps.Credentials == nil {
		return nil, NewToolError(desc.Type, "search collaborators not configured", CodeConfig)
	}

	apiKey, err := deps.Credentials.APIKey(ctx, sec.AccountID(), credential.ServicePinecone)
	if err != nil {
		return nil, NewToolError(desc.Type, fmt.Sprintf("no usable vector store credential: %v", err), CodeSecurity)
	}

	store, err := deps.Indexes.Resolve(ctx, apiKey, desc.Index)
	if err != nil {
		return nil, NewToolError(desc.Type, fmt.Sprintf("index %q not resolvable: %v", desc.Index, err), CodeConfig)
	}
	return store, nil
}

func searchDescription(desc Descriptor) string {
	if desc.Description != "" {
		return desc.Description
	}
	return fmt.Sprintf("Semantic search over the %q knowledge base. Use it to look up information relevant to the user's question.", desc.Namespace)
}

// Name implements Tool.
func (t *vectorSearch) Name() string { return t.name }

// Type implements Tool.
func (t *vectorSearch) Type() string { return TypeVectorSearch }

// Description implements Tool.
func (t *vectorSearch) Description() string { return t.description }

// Parameters implements Tool.
func (t *vectorSearch) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Natural language search query",
			},
			"top_k": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Number of results to return (1-%d)", t.topK),
			},
		},
		"required": []string{"query"},
	}
}

// Call implements Tool.
func (t *vectorSearch) Call(toolCtx *core.ToolContext, args map[string]interface{}) (map[string]interface{}, error) {
	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		return nil, NewToolError(t.name, err.Error(), CodeValidation)
	}
	query, _ := args["query"].(string)
	topK := clampTopK(args["top_k"], t.topK)

	matches, err := t.search(toolCtx.Context(), query, topK)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"results":   matchRecords(matches),
		"index":     t.index,
		"namespace": t.namespace,
		"count":     len(matches),
	}, nil
}

func (t *vectorSearch) search(ctx context.Context, query string, topK int) ([]retrieval.Match, error) {
	vector, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewToolError(t.name, fmt.Sprintf("embedding failed: %v", err), CodeUpstream)
	}
	matches, err := t.store.Query(ctx, vector, t.namespace, topK)
	if err != nil {
		return nil, NewToolError(t.name, fmt.Sprintf("vector query failed: %v", err), CodeUpstream)
	}
	return matches, nil
}

// clampTopK bounds a caller-supplied result count to [1, ceiling], falling
// back to the ceiling when absent or malformed.
func clampTopK(arg any, ceiling int) int {
	n := ceiling
	switch v := arg.(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	}
	if n < 1 {
		n = 1
	}
	if n > ceiling {
		n = ceiling
	}
	return n
}

func matchRecords(matches []retrieval.Match) []map[string]interface{} {
	records := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		records = append(records, map[string]interface{}{
			"id":       m.ID,
			"score":    m.Score,
			"metadata": m.Metadata,
		})
	}
	return records
}
