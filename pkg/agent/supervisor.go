// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"context"
	"fmt"
	"strings"

	"test-smith/pkg/llm"
)

// Supervisor selects the retrieval strategy (vector, keyword, or hybrid)
// for a query before the retriever step runs it. Grounded on the
// teacher's Supervisor; dropped the workflow.State/RetrievalStrategy
// dependency and the schema_filtered option (the new retriever step has
// no schema-filter metadata to target) in favor of a plain string result
// the retriever step maps onto pkg/retrieval's strategies.
type Supervisor struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// SupervisorConfig contains configuration for the supervisor agent.
type SupervisorConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewSupervisor creates a new supervisor agent.
func NewSupervisor(llmProvider llm.Provider, config *SupervisorConfig) *Supervisor {
	if config == nil {
		config = &SupervisorConfig{Temperature: 0.3, MaxTokens: 150}
	}
	return &Supervisor{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// SelectStrategy returns one of "vector", "keyword", "hybrid".
func (s *Supervisor) SelectStrategy(ctx context.Context, query string) (string, error) {
	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptSupervisor},
			{Role: "user", Content: fmt.Sprintf("Query: %s\n\nReturn only the strategy name: vector, keyword, or hybrid.", query)},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "hybrid", fmt.Errorf("LLM strategy selection failed: %w", err)
	}
	return parseStrategy(resp.Content), nil
}

func parseStrategy(response string) string {
	response = strings.ToLower(strings.TrimSpace(response))
	switch {
	case strings.Contains(response, "vector") && !strings.Contains(response, "hybrid"):
		return "vector"
	case strings.Contains(response, "keyword") && !strings.Contains(response, "hybrid"):
		return "keyword"
	default:
		return "hybrid"
	}
}

const systemPromptSupervisor = `You are a retrieval strategy expert for a research assistant.

Select the most effective retrieval strategy based on query characteristics:
- vector: conceptual, semantic, or exploratory queries
- keyword: exact matches, specific names, identifiers, or factual lookups
- hybrid: balanced queries that benefit from both

Return only the strategy name without explanation.`
