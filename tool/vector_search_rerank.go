package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/internal/util"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/retrieval"
)

const (
	defaultRerankTopK = 20
	defaultRerankTopN = 5
)

// vectorSearchRerank is the two-stage retrieval capability: a wide
// similarity search followed by cross-encoder reranking. When the reranker
// is unavailable the invocation degrades to the stage-1 similarity ranking
// instead of failing.
type vectorSearchRerank struct {
	name        string
	description string
	index       string
	namespace   string
	topK        int
	topN        int
	embedder    retrieval.Embedder
	store       retrieval.VectorIndex
	reranker    retrieval.Reranker
	logger      logging.Logger
}

func buildVectorSearchRerank(ctx context.Context, deps Dependencies, desc Descriptor, sec *core.SecurityContext) (Tool, error) {
	if deps.Reranker == nil {
		return nil, NewToolError(desc.Type, "reranker collaborator not configured", CodeConfig)
	}
	store, err := bindVectorIndex(ctx, deps, desc, sec)
	if err != nil {
		return nil, err
	}

	topK := desc.TopK
	if topK <= 0 {
		topK = defaultRerankTopK
	}
	topN := desc.TopN
	if topN <= 0 {
		topN = defaultRerankTopN
	}
	if topN > topK {
		return nil, NewToolError(desc.Type, fmt.Sprintf("topN %d exceeds topK %d", topN, topK), CodeConfig)
	}

	return &vectorSearchRerank{
		name:        "search_rerank_" + desc.Namespace,
		description: searchDescription(desc),
		index:       desc.Index,
		namespace:   desc.Namespace,
		topK:        topK,
		topN:        topN,
		embedder:    deps.Embedder,
		store:       store,
		reranker:    deps.Reranker,
		logger:      deps.logger(),
	}, nil
}

// Name implements Tool.
func (t *vectorSearchRerank) Name() string { return t.name }

// Type implements Tool.
func (t *vectorSearchRerank) Type() string { return TypeVectorSearchRerank }

// Description implements Tool.
func (t *vectorSearchRerank) Description() string { return t.description }

// Parameters implements Tool.
func (t *vectorSearchRerank) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Natural language search query",
			},
		},
		"required": []string{"query"},
	}
}

// Call implements Tool.
func (t *vectorSearchRerank) Call(toolCtx *core.ToolContext, args map[string]interface{}) (map[string]interface{}, error) {
	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		return nil, NewToolError(t.name, err.Error(), CodeValidation)
	}
	query, _ := args["query"].(string)
	ctx := toolCtx.Context()

	vector, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewToolError(t.name, fmt.Sprintf("embedding failed: %v", err), CodeUpstream)
	}
	matches, err := t.store.Query(ctx, vector, t.namespace, t.topK)
	if err != nil {
		return nil, NewToolError(t.name, fmt.Sprintf("vector query failed: %v", err), CodeUpstream)
	}

	results, rerankingApplied := t.rerank(ctx, query, matches)

	return map[string]interface{}{
		"results":          results,
		"index":            t.index,
		"namespace":        t.namespace,
		"count":            len(results),
		"rerankingApplied": rerankingApplied,
	}, nil
}

// rerank runs stage 2. A reranker failure falls back to the similarity
// ranking truncated to topN, flagged via the returned bool.
func (t *vectorSearchRerank) rerank(ctx context.Context, query string, matches []retrieval.Match) ([]map[string]interface{}, bool) {
	limit := t.topN
	if limit > len(matches) {
		limit = len(matches)
	}

	documents := make([]string, len(matches))
	for i, m := range matches {
		documents[i] = documentText(m)
	}

	ranked, err := t.reranker.Rerank(ctx, query, documents, t.topN)
	if err != nil {
		t.logger.Warn("Reranker unavailable, falling back to similarity order", "tool", t.name, "error", err)
		results := make([]map[string]interface{}, 0, limit)
		for _, m := range matches[:limit] {
			results = append(results, map[string]interface{}{
				"id":              m.ID,
				"similarityScore": m.Score,
				"metadata":        m.Metadata,
			})
		}
		return results, false
	}

	// The reranking service is not trusted to honor topN or return a clean
	// ranking: order, truncate and deduplicate here.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	seen := make(map[int]bool, len(ranked))
	results := make([]map[string]interface{}, 0, limit)
	for _, r := range ranked {
		if len(results) == t.topN {
			break
		}
		if r.Index < 0 || r.Index >= len(matches) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		m := matches[r.Index]
		results = append(results, map[string]interface{}{
			"id":              m.ID,
			"similarityScore": m.Score,
			"relevanceScore":  r.Score,
			"metadata":        m.Metadata,
		})
	}
	return results, true
}

// documentText extracts the rerankable text of a match. Content lives under
// the metadata "content" key; anything else is serialized wholesale so the
// reranker still sees something describable.
func documentText(m retrieval.Match) string {
	if text, ok := m.Metadata["content"].(string); ok && text != "" {
		return text
	}
	raw, err := json.Marshal(m.Metadata)
	if err != nil {
		return m.ID
	}
	return string(raw)
}
