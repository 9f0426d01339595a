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
	"test-smith/pkg/notes"
)

// Evaluator judges whether the Analyzed Notes gathered so far are
// sufficient to answer a question, producing a typed Evaluation Verdict.
// Adapted from the teacher's Policy agent (same LLM-call/config shape)
// but rebuilt around a structured record instead of free-text
// DECISION:/REASONING:/CONFIDENCE: parsing — spec §9 explicitly forbids
// deciding sufficiency by substring-matching a sentinel string in prior
// output, which the teacher's IsComplete()/HasReachedMaxIterations()
// approach and free-text DECISION parsing both did.
type Evaluator struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// EvaluatorConfig contains configuration for the evaluator agent.
type EvaluatorConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewEvaluator creates a new evaluator agent.
func NewEvaluator(llmProvider llm.Provider, config *EvaluatorConfig) *Evaluator {
	if config == nil {
		config = &EvaluatorConfig{Temperature: 0.3, MaxTokens: 500}
	}
	return &Evaluator{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Evaluate judges whether notes answer question sufficiently.
func (e *Evaluator) Evaluate(ctx context.Context, question string, analyzed []notes.AnalyzedNote) (*notes.EvaluationVerdict, error) {
	var verdict notes.EvaluationVerdict
	err := llm.GenerateStructured(ctx, e.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptEvaluator},
			{Role: "user", Content: e.buildPrompt(question, analyzed)},
		},
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	}, &verdict)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	return &verdict, nil
}

func (e *Evaluator) buildPrompt(question string, analyzed []notes.AnalyzedNote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nAnalyzed notes so far:\n", question)
	for i, n := range analyzed {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Summary)
		for _, kp := range n.KeyPoints {
			fmt.Fprintf(&b, "   - %s\n", kp)
		}
		if n.Conflict != "" {
			fmt.Fprintf(&b, "   (conflict: %s)\n", n.Conflict)
		}
	}
	b.WriteString(`
Decide whether these notes sufficiently answer the question. Respond with ONLY a JSON object:
{
  "sufficient": true or false,
  "reason": "explanation",
  "recommended_follow_ups": ["optional follow-up queries if not sufficient"]
}`)
	return b.String()
}

const systemPromptEvaluator = `You are the sufficiency evaluator for a research assistant.

Judge whether the gathered evidence sufficiently answers the question. Consider completeness, whether conflicts remain unresolved, and whether key sub-questions are still open.

Always respond with valid JSON matching the requested schema, nothing else.`
