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
	"test-smith/pkg/vectorstore"
)

// Analyzer turns retrieved/web documents into Analyzed Notes that carry
// source provenance and record unresolved conflicts instead of silently
// picking a side. It reuses the teacher's Distiller and Reflector as a
// compression pre-stage (coherent text, then summary/key-findings), then
// finalizes with a structured call so every note's source ids and any
// conflict are captured reliably rather than parsed out of free text.
type Analyzer struct {
	distiller   *Distiller
	reflector   *Reflector
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// AnalyzerConfig contains configuration for the analyzer agent's final
// structured-output call (the distiller/reflector pre-stage keep their own
// configs).
type AnalyzerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewAnalyzer creates a new analyzer agent.
func NewAnalyzer(llmProvider llm.Provider, distiller *Distiller, reflector *Reflector, config *AnalyzerConfig) *Analyzer {
	if config == nil {
		config = &AnalyzerConfig{Temperature: 0.3, MaxTokens: 1200}
	}
	return &Analyzer{distiller: distiller, reflector: reflector, llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Analyze distills and reflects over docs, then emits one or more Analyzed
// Notes. Returns an empty output (no notes, no error) when docs is empty,
// so fan-in proceeds per the retriever/web-search steps' no-op contract.
func (a *Analyzer) Analyze(ctx context.Context, query string, docs []vectorstore.Document) (*notes.AnalyzerOutput, error) {
	if len(docs) == 0 {
		return &notes.AnalyzerOutput{}, nil
	}

	distilled, err := a.distiller.Distill(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("distillation failed: %w", err)
	}

	summary, keyFindings, err := a.reflector.Reflect(ctx, query, distilled)
	if err != nil {
		return nil, fmt.Errorf("reflection failed: %w", err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	var out notes.AnalyzerOutput
	err = llm.GenerateStructured(ctx, a.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptAnalyzer},
			{Role: "user", Content: a.buildPrompt(query, summary, keyFindings, ids)},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	return &out, nil
}

func (a *Analyzer) buildPrompt(query, summary string, keyFindings, sourceIDs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nDistilled summary:\n%s\n\nKey findings:\n", query)
	for _, kf := range keyFindings {
		fmt.Fprintf(&b, "- %s\n", kf)
	}
	fmt.Fprintf(&b, "\nAvailable source ids (cite only these): %s\n", strings.Join(sourceIDs, ", "))
	b.WriteString(`
Produce one or more Analyzed Notes. Respond with ONLY a JSON object:
{
  "notes": [
    {
      "summary": "...",
      "key_points": ["..."],
      "source_ids": ["must be drawn from the available source ids above"],
      "conflict": "describe any unresolved contradiction between sources, or leave empty"
    }
  ]
}`)
	return b.String()
}

const systemPromptAnalyzer = `You are the evidence analyzer for a research assistant.

Summarize and reconcile retrieved evidence into Analyzed Notes. Every note must cite at least one source id from the supplied list; never invent a source id. If sources disagree, record the disagreement in "conflict" instead of silently picking a side.

Always respond with valid JSON matching the requested schema, nothing else.`
