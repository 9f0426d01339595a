// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"context"
	"fmt"
	"strings"

	"test-smith/pkg/comparative"
	"test-smith/pkg/llm"
)

// ComparativePlanner extracts the comparable items and criteria from a
// comparison query (spec §4.10's comparative workflow planner).
type ComparativePlanner struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// ComparativePlannerConfig configures the comparative planner agent.
type ComparativePlannerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewComparativePlanner creates a new comparative planner.
func NewComparativePlanner(llmProvider llm.Provider, config *ComparativePlannerConfig) *ComparativePlanner {
	if config == nil {
		config = &ComparativePlannerConfig{Temperature: 0.4, MaxTokens: 800}
	}
	return &ComparativePlanner{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Plan extracts items and criteria from query.
func (p *ComparativePlanner) Plan(ctx context.Context, query string) (*comparative.ComparisonPlan, error) {
	var out comparative.ComparisonPlan
	err := llm.GenerateStructured(ctx, p.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptComparativePlanner},
			{Role: "user", Content: fmt.Sprintf("Query: %s\n\nExtract the items being compared (at least 2) and the criteria to compare them on.", query)},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("comparative planning failed: %w", err)
	}
	return &out, nil
}

const systemPromptComparativePlanner = `You extract a comparison's structure: the distinct named items being compared, and the criteria (dimensions) to compare them on. Respond with ONLY a JSON object:
{"items": ["...", "..."], "criteria": ["...", "..."]}`

// ComparativeSynthesizer produces the comparative workflow's matrix report
// and recommendation (spec §4.10).
type ComparativeSynthesizer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// ComparativeSynthesizerConfig configures the comparative synthesizer agent.
type ComparativeSynthesizerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewComparativeSynthesizer creates a new comparative synthesizer.
func NewComparativeSynthesizer(llmProvider llm.Provider, config *ComparativeSynthesizerConfig) *ComparativeSynthesizer {
	if config == nil {
		config = &ComparativeSynthesizerConfig{Temperature: 0.4, MaxTokens: 2500}
	}
	return &ComparativeSynthesizer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Synthesize produces a Markdown report containing the item x criterion
// matrix and a recommendation.
func (s *ComparativeSynthesizer) Synthesize(ctx context.Context, query string, plan *comparative.ComparisonPlan, matrix comparative.Matrix) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nItems: %s\nCriteria: %s\n\nGathered evidence per (item, criterion):\n", query, strings.Join(plan.Items, ", "), strings.Join(plan.Criteria, ", "))
	for _, cell := range matrix {
		fmt.Fprintf(&b, "\n%s / %s:\n", cell.Item, cell.Criterion)
		for _, n := range cell.Notes {
			fmt.Fprintf(&b, "- %s\n", n.Summary)
		}
	}
	b.WriteString("\nProduce a Markdown report with a comparison table (items as rows, criteria as columns) and a closing recommendation paragraph. Cite evidence inline where the gathered notes support a cell's judgment.")

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptComparativeSynthesizer},
			{Role: "user", Content: b.String()},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("comparative synthesis failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

const systemPromptComparativeSynthesizer = `You write comparison reports: a Markdown table with items as rows and criteria as columns, each cell a concise judgment grounded in the supplied evidence, followed by a recommendation paragraph.`
