package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RankedDocument is the reranker's relevance judgment for one candidate.
// Index refers to the position in the submitted document list.
type RankedDocument struct {
	Index int     `json:"index"`
	Score float64 `json:"relevanceScore"`
}

// Reranker reorders a candidate set by relevance to the query. The returned
// list is sorted by descending relevance and truncated to topN.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error)
}

// ServiceRerankerOptions configure the internal reranker service client.
type ServiceRerankerOptions struct {
	HTTPClient *http.Client
	Path       string
}

// ServiceReranker calls an internal cross-encoder reranking HTTP API,
// forwarding the caller's bearer token.
type ServiceReranker struct {
	baseURL   string
	authToken string
	path      string
	client    *http.Client
}

// NewServiceReranker creates a client for the internal reranker API.
func NewServiceReranker(baseURL, authToken string, optFns ...func(o *ServiceRerankerOptions)) *ServiceReranker {
	opts := ServiceRerankerOptions{
		HTTPClient: http.DefaultClient,
		Path:       "/rerank",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ServiceReranker{baseURL: baseURL, authToken: authToken, path: opts.Path, client: opts.HTTPClient}
}

// Rerank implements Reranker.
func (r *ServiceReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"documents": documents,
		"topN":      topN,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+r.path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reranker unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("reranker returned %d: %s", resp.StatusCode, body)
	}

	var decoded struct {
		Results []RankedDocument `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("reranker response malformed: %w", err)
	}
	return decoded.Results, nil
}
