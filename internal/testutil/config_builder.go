package testutil

import "github.com/hupe1980/ragmesh/tool"

// ConfigBuilder provides a fluent helper for constructing agent
// configurations in tests. Example:
//
//	cfg := NewConfigBuilder().VectorSearch("main", "docs").TableRead("usage_credits").Build()
//
// Chain only the parts you need; the builder emits a version 2 config
// unless KnowledgeBase is used, which forces version 1.
type ConfigBuilder struct {
	version        int
	knowledgeBases []tool.KnowledgeBase
	capabilities   []tool.Descriptor
}

// NewConfigBuilder creates a builder for a version 2 configuration.
func NewConfigBuilder() *ConfigBuilder { return &ConfigBuilder{version: 2} }

// KnowledgeBase appends a legacy v1 entry and switches the config to
// version 1 (chainable).
func (b *ConfigBuilder) KnowledgeBase(index, namespace string) *ConfigBuilder {
	b.version = 1
	b.knowledgeBases = append(b.knowledgeBases, tool.KnowledgeBase{Index: index, Namespace: namespace})
	return b
}

// VectorSearch appends a vectorSearch descriptor (chainable).
func (b *ConfigBuilder) VectorSearch(index, namespace string) *ConfigBuilder {
	b.capabilities = append(b.capabilities, tool.Descriptor{
		Type:      tool.TypeVectorSearch,
		Index:     index,
		Namespace: namespace,
	})
	return b
}

// VectorSearchRerank appends a vectorSearchWithReranking descriptor (chainable).
func (b *ConfigBuilder) VectorSearchRerank(index, namespace string, topK, topN int) *ConfigBuilder {
	b.capabilities = append(b.capabilities, tool.Descriptor{
		Type:      tool.TypeVectorSearchRerank,
		Index:     index,
		Namespace: namespace,
		TopK:      topK,
		TopN:      topN,
	})
	return b
}

// TableRead appends a tableRead descriptor (chainable).
func (b *ConfigBuilder) TableRead(table string) *ConfigBuilder {
	b.capabilities = append(b.capabilities, tool.Descriptor{
		Type:  tool.TypeTableRead,
		Table: table,
	})
	return b
}

// Descriptor appends a raw descriptor (chainable).
func (b *ConfigBuilder) Descriptor(d tool.Descriptor) *ConfigBuilder {
	b.capabilities = append(b.capabilities, d)
	return b
}

// Build constructs the tool.AgentConfig value.
func (b *ConfigBuilder) Build() tool.AgentConfig {
	return tool.AgentConfig{
		Version:        b.version,
		KnowledgeBases: b.knowledgeBases,
		Capabilities:   b.capabilities,
	}
}
