package tool

import (
	"encoding/json"
	"fmt"
)

// Descriptor is one tagged capability entry from an agent configuration.
// The Type discriminator selects the builder; the remaining fields are
// interpreted by that builder.
type Descriptor struct {
	Type string `json:"type"`

	// Search variants.
	Index       string `json:"index,omitempty"`
	Namespace   string `json:"namespace,omitempty"`
	Description string `json:"description,omitempty"`
	TopK        int    `json:"topK,omitempty"`
	TopN        int    `json:"topN,omitempty"`

	// Table read.
	Table string `json:"table,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// KnowledgeBase is one entry of the legacy (v1) configuration shape. Each
// entry is implicitly a vectorSearch descriptor.
type KnowledgeBase struct {
	Index       string `json:"index"`
	Namespace   string `json:"namespace"`
	Description string `json:"description,omitempty"`
}

// AgentConfig is the declarative capability configuration attached to an
// agent. Version 1 carries KnowledgeBases only; version 2 carries the tagged
// Capabilities list.
type AgentConfig struct {
	Version        int             `json:"version"`
	KnowledgeBases []KnowledgeBase `json:"knowledgeBases,omitempty"`
	Capabilities   []Descriptor    `json:"capabilities,omitempty"`
}

// legacyTopK is the candidate count used for translated v1 entries.
const legacyTopK = 10

// ParseAgentConfig decodes a raw JSON agent configuration. A missing
// version defaults to 1 to keep stored legacy configs readable.
func ParseAgentConfig(raw []byte) (AgentConfig, error) {
	var cfg AgentConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AgentConfig{}, fmt.Errorf("agent config malformed: %w", err)
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	return cfg, nil
}

// Descriptors normalizes the configuration into the current descriptor
// list. Legacy knowledge bases map one-to-one onto vectorSearch descriptors,
// preserving order; the mapping is deterministic and lossless.
func (c AgentConfig) Descriptors() []Descriptor {
	if c.Version >= 2 {
		return c.Capabilities
	}
	descriptors := make([]Descriptor, 0, len(c.KnowledgeBases))
	for _, kb := range c.KnowledgeBases {
		descriptors = append(descriptors, Descriptor{
			Type:        TypeVectorSearch,
			Index:       kb.Index,
			Namespace:   kb.Namespace,
			Description: kb.Description,
			TopK:        legacyTopK,
		})
	}
	return descriptors
}
