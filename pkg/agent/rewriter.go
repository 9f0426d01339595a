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

// Rewriter enhances a single rag_query for better vector retrieval using a
// fast LLM, expanding it with synonyms and related terms before it reaches
// the Retriever. Grounded on the teacher's Rewriter; the workflow.State
// past-steps context is replaced with a plain prior-context string so the
// rewriter has no dependency on any particular workflow's state shape.
type Rewriter struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// RewriterConfig contains configuration for the rewriter agent.
type RewriterConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewRewriter creates a new rewriter agent.
func NewRewriter(llmProvider llm.Provider, config *RewriterConfig) *Rewriter {
	if config == nil {
		config = &RewriterConfig{Temperature: 0.5, MaxTokens: 300}
	}
	return &Rewriter{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Rewrite enhances query for better retrieval. priorContext, if non-empty,
// is folded into the prompt (e.g. the parent subtask's findings).
func (r *Rewriter) Rewrite(ctx context.Context, query, priorContext string) (string, error) {
	resp, err := r.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptRewriter},
			{Role: "user", Content: r.buildPrompt(query, priorContext)},
		},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("LLM rewrite failed: %w", err)
	}

	rewritten := strings.TrimSpace(resp.Content)
	if rewritten == "" {
		return query, nil
	}
	return rewritten, nil
}

func (r *Rewriter) buildPrompt(query, priorContext string) string {
	if priorContext == "" {
		return fmt.Sprintf(`Rewrite the following query to be more effective for semantic search.

Original query: %s

Expand key concepts with synonyms and related terms, and add helpful context, while preserving the original intent. Return only the rewritten query.`, query)
	}

	return fmt.Sprintf(`Rewrite the following query to be more effective for semantic search, considering the prior context.

Original query: %s

Prior context:
%s

Expand key concepts with synonyms and related terms, incorporating relevant prior context, while preserving the original intent. Return only the rewritten query.`, query, priorContext)
}

const systemPromptRewriter = `You are a query enhancement specialist for a research assistant.

Your task is to rewrite queries to improve retrieval effectiveness.

Guidelines:
- Expand queries with synonyms, related terms, and domain-specific language
- Add contextual information that helps semantic search
- Keep queries concise but comprehensive
- Preserve the original intent

Return only the rewritten query without explanations or formatting.`
