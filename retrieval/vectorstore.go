package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Match is one similarity search hit. Metadata is passed through from the
// store unmodified.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VectorIndex issues similarity queries against one named index.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error)
}

// IndexResolver binds an index name to a queryable VectorIndex using the
// account's provider credential.
type IndexResolver interface {
	Resolve(ctx context.Context, apiKey, indexName string) (VectorIndex, error)
}

// PineconeResolverOptions configure the Pinecone control-plane client.
type PineconeResolverOptions struct {
	ControlURL string
	HTTPClient *http.Client
}

// PineconeResolver looks up index hosts via the Pinecone control plane and
// returns data-plane query clients.
type PineconeResolver struct {
	controlURL string
	client     *http.Client
}

// NewPineconeResolver creates a resolver against the public Pinecone API.
func NewPineconeResolver(optFns ...func(o *PineconeResolverOptions)) *PineconeResolver {
	opts := PineconeResolverOptions{
		ControlURL: "https://api.pinecone.io",
		HTTPClient: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &PineconeResolver{controlURL: strings.TrimRight(opts.ControlURL, "/"), client: opts.HTTPClient}
}

// Resolve implements IndexResolver.
func (r *PineconeResolver) Resolve(ctx context.Context, apiKey, indexName string) (VectorIndex, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.controlURL+"/indexes/"+indexName, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone control plane unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pinecone describe index %q returned %d: %s", indexName, resp.StatusCode, body)
	}

	var decoded struct {
		Host string `json:"host"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("pinecone describe index response malformed: %w", err)
	}
	if decoded.Host == "" {
		return nil, fmt.Errorf("pinecone index %q has no host", indexName)
	}

	return &PineconeIndex{host: "https://" + decoded.Host, apiKey: apiKey, client: r.client}, nil
}

// PineconeIndex queries one Pinecone index over its data-plane REST endpoint.
type PineconeIndex struct {
	host   string
	apiKey string
	client *http.Client
}

// NewPineconeIndex creates an index client for a known data-plane host.
func NewPineconeIndex(host, apiKey string, client *http.Client) *PineconeIndex {
	if client == nil {
		client = http.DefaultClient
	}
	return &PineconeIndex{host: strings.TrimRight(host, "/"), apiKey: apiKey, client: client}
}

// Query implements VectorIndex.
func (i *PineconeIndex) Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error) {
	payload, err := json.Marshal(map[string]any{
		"vector":          vector,
		"topK":            topK,
		"namespace":       namespace,
		"includeValues":   false,
		"includeMetadata": true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.host+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", i.apiKey)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("vector store query returned %d: %s", resp.StatusCode, body)
	}

	var decoded struct {
		Matches []Match `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("vector store response malformed: %w", err)
	}
	return decoded.Matches, nil
}
