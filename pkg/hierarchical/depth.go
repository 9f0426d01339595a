// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package hierarchical

import (
	"context"
	"fmt"
	"strings"

	"test-smith/pkg/llm"
	"test-smith/pkg/notes"
	"test-smith/pkg/planning"
)

// DepthEvaluator classifies a completed subtask's analyzed notes as
// shallow, adequate, or deep (spec §4.9's evaluating_depth state).
type DepthEvaluator struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// DepthEvaluatorConfig configures the depth evaluator agent.
type DepthEvaluatorConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewDepthEvaluator creates a new depth evaluator.
func NewDepthEvaluator(llmProvider llm.Provider, config *DepthEvaluatorConfig) *DepthEvaluator {
	if config == nil {
		config = &DepthEvaluatorConfig{Temperature: 0.3, MaxTokens: 300}
	}
	return &DepthEvaluator{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

type depthOutput struct {
	Depth planning.DepthClassification `json:"depth"`
}

func (d *depthOutput) Validate() error {
	switch d.Depth {
	case planning.DepthShallow, planning.DepthAdequate, planning.DepthDeep:
		return nil
	default:
		return fmt.Errorf("depth %q is not one of shallow, adequate, deep", d.Depth)
	}
}

// Evaluate classifies how thoroughly subtask's analyzed notes answer its
// question.
func (d *DepthEvaluator) Evaluate(ctx context.Context, subtask *planning.Subtask, analyzed []notes.AnalyzedNote) (planning.DepthClassification, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Subtask question: %s\n\nAnalyzed notes:\n", subtask.Question)
	for i, n := range analyzed {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Summary)
	}
	b.WriteString(`
Classify how thoroughly these notes answer the subtask question. Respond with ONLY a JSON object:
{"depth": "shallow" or "adequate" or "deep"}`)

	var out depthOutput
	err := llm.GenerateStructured(ctx, d.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptDepthEvaluator},
			{Role: "user", Content: b.String()},
		},
		Temperature: d.temperature,
		MaxTokens:   d.maxTokens,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("depth evaluation failed: %w", err)
	}
	return out.Depth, nil
}

const systemPromptDepthEvaluator = `You judge how thoroughly a subtask's gathered evidence answers its question: "shallow" if it only scratches the surface and a natural follow-up question remains unaddressed, "deep" if it is more detail than needed, "adequate" otherwise.

Always respond with valid JSON matching the requested schema, nothing else.`
