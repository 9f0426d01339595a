// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"fmt"

	"context"

	"test-smith/pkg/llm"
	"test-smith/pkg/planning"
)

// StrategicPlanner splits a query between the retrieval-augmented store and
// the web searcher, producing an Allocation Plan. Grounded on the teacher's
// Planner (same LLM-call/prompt-build/parse shape), re-targeted from a
// linear multi-step execution plan to the allocator contract of §4.3: the
// output is schema-validated via llm.GenerateStructured instead of the
// teacher's hand-rolled flexible JSON parsing.
type StrategicPlanner struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// PlannerConfig contains configuration for the strategic planner.
type PlannerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewStrategicPlanner creates a new strategic planner.
func NewStrategicPlanner(llmProvider llm.Provider, config *PlannerConfig) *StrategicPlanner {
	if config == nil {
		config = &PlannerConfig{
			Temperature: 0.7,
			MaxTokens:   1200,
		}
	}
	return &StrategicPlanner{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// KnowledgeBaseStatus describes the Retriever's contents, cached per
// workflow run, so the planner can leave rag_queries empty when the store
// is absent or empty (spec §4.3).
type KnowledgeBaseStatus struct {
	Collection     string
	TotalChunks    int
	SampleTitles   []string
}

// Plan invokes the Text Generator to produce an Allocation Plan. feedback
// is the prior evaluator's reason, non-empty only on a re-planning loop.
func (p *StrategicPlanner) Plan(ctx context.Context, query, feedback string, kb KnowledgeBaseStatus) (*planning.AllocationPlan, error) {
	prompt := p.buildPrompt(query, feedback, kb)

	var plan planning.AllocationPlan
	err := llm.GenerateStructured(ctx, p.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptPlanner},
			{Role: "user", Content: prompt},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}, &plan)
	if err != nil {
		return nil, fmt.Errorf("strategic planning failed: %w", err)
	}

	if kb.TotalChunks == 0 {
		plan.RAGQueries = nil
	}

	return &plan, nil
}

func (p *StrategicPlanner) buildPrompt(query, feedback string, kb KnowledgeBaseStatus) string {
	prompt := fmt.Sprintf(`Split the following query into a set of retrieval-store queries and web-search queries.

Query: %s

Knowledge base: collection %q, %d chunks indexed. Sample titles: %v
`, query, kb.Collection, kb.TotalChunks, kb.SampleTitles)

	if feedback != "" {
		prompt += fmt.Sprintf("\nThe previous iteration was judged insufficient for this reason: %s\nRefine the query split to address this gap.\n", feedback)
	}

	prompt += `
Respond with ONLY a JSON object:
{
  "rag_queries": ["..."],
  "web_queries": ["..."],
  "strategy": "one sentence rationale"
}

Each list holds 0-5 items. Leave rag_queries empty if the knowledge base has zero chunks. At least one list must be non-empty.`

	return prompt
}

const systemPromptPlanner = `You are the strategic query allocator for a research assistant.

Your task is to split a user query between a retrieval-augmented knowledge base and a web search engine, so downstream steps can gather evidence from both sources.

Guidelines:
- Prefer the knowledge base for queries likely covered by the indexed documents.
- Prefer the web for current events, general facts, or anything the knowledge base's sample titles suggest it does not cover.
- Keep each query list to 0-5 focused sub-queries.
- If the knowledge base is empty, put every query into web_queries.

Always respond with valid JSON matching the requested schema, nothing else.`
