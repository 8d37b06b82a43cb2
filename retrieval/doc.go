// Package retrieval defines the external collaborators of the search
// capabilities: text embedding, vector similarity queries and second-stage
// reranking. The interfaces are intentionally small so tests can substitute
// in-memory fakes; the concrete implementations talk to the OpenAI
// embeddings API, Pinecone-style vector indexes and an internal reranker
// service that authenticates with the forwarded caller token.
package retrieval
