package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
)

// Embedder turns query text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedderOptions configure the OpenAI embedder.
type OpenAIEmbedderOptions struct {
	Model openai.EmbeddingModel
}

// OpenAIEmbedder produces embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	opts   OpenAIEmbedderOptions
}

// NewOpenAIEmbedder creates an embedder using the default OpenAI client
// (API key from the environment).
func NewOpenAIEmbedder(optFns ...func(o *OpenAIEmbedderOptions)) *OpenAIEmbedder {
	client := openai.NewClient()
	return NewOpenAIEmbedderFromClient(&client, optFns...)
}

// NewOpenAIEmbedderFromClient creates an embedder from an existing client.
func NewOpenAIEmbedderFromClient(client *openai.Client, optFns ...func(o *OpenAIEmbedderOptions)) *OpenAIEmbedder {
	opts := OpenAIEmbedderOptions{Model: openai.EmbeddingModelTextEmbedding3Small}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAIEmbedder{client: client, opts: opts}
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: e.opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings api error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings api returned no data")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// ServiceEmbedderOptions configure the internal embeddings service client.
type ServiceEmbedderOptions struct {
	HTTPClient *http.Client
	// Path of the embedding endpoint relative to the base URL.
	Path string
}

// ServiceEmbedder calls an internal embeddings HTTP API, forwarding the
// caller's bearer token so the downstream service can enforce per-account
// access.
type ServiceEmbedder struct {
	baseURL   string
	authToken string
	path      string
	client    *http.Client
}

// NewServiceEmbedder creates a client for the internal embeddings API.
// authToken is the forwarded caller credential; it may be empty.
func NewServiceEmbedder(baseURL, authToken string, optFns ...func(o *ServiceEmbedderOptions)) *ServiceEmbedder {
	opts := ServiceEmbedderOptions{
		HTTPClient: http.DefaultClient,
		Path:       "/huggingface/embedding",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ServiceEmbedder{baseURL: baseURL, authToken: authToken, path: opts.Path, client: opts.HTTPClient}
}

// Embed implements Embedder.
func (e *ServiceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{"input": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+e.path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.authToken)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings api unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embeddings api returned %d: %s", resp.StatusCode, body)
	}

	var decoded struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("embeddings api response malformed: %w", err)
	}
	if len(decoded.Embedding) == 0 {
		return nil, fmt.Errorf("embeddings api returned an empty embedding")
	}
	return decoded.Embedding, nil
}
