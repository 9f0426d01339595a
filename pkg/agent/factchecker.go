// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"context"
	"fmt"
	"strings"

	"test-smith/pkg/factcheck"
	"test-smith/pkg/llm"
	"test-smith/pkg/notes"
)

// EvidenceCategorizer labels each Analyzed Note as supporting,
// contradicting, or neutral with respect to the claim under investigation
// (spec §4.10's fact-check evidence-categorization step).
type EvidenceCategorizer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// EvidenceCategorizerConfig configures the evidence categorizer agent.
type EvidenceCategorizerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewEvidenceCategorizer creates a new evidence categorizer.
func NewEvidenceCategorizer(llmProvider llm.Provider, config *EvidenceCategorizerConfig) *EvidenceCategorizer {
	if config == nil {
		config = &EvidenceCategorizerConfig{Temperature: 0.2, MaxTokens: 1200}
	}
	return &EvidenceCategorizer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Categorize labels each note in analyzed against claim.
func (c *EvidenceCategorizer) Categorize(ctx context.Context, claim string, analyzed []notes.AnalyzedNote) ([]factcheck.CategorizedNote, error) {
	if len(analyzed) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\nNotes:\n", claim)
	for i, n := range analyzed {
		fmt.Fprintf(&b, "%d. %s\n", i, n.Summary)
	}
	b.WriteString(`
Label each note's bearing on the claim: "supporting", "contradicting", or "neutral", with a confidence in [0,1]. Respond with ONLY a JSON object:
{"categories": [{"index": 0, "label": "supporting", "confidence": 0.8}]}
One entry per note, indices matching the list above.`)

	var out factcheck.CategorizationOutput
	err := llm.GenerateStructured(ctx, c.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptEvidenceCategorizer},
			{Role: "user", Content: b.String()},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("evidence categorization failed: %w", err)
	}

	categorized := make([]factcheck.CategorizedNote, 0, len(out.Categories))
	for _, cat := range out.Categories {
		if cat.Index < 0 || cat.Index >= len(analyzed) {
			continue
		}
		categorized = append(categorized, factcheck.CategorizedNote{
			Note:       analyzed[cat.Index],
			Label:      cat.Label,
			Confidence: cat.Confidence,
		})
	}
	return categorized, nil
}

const systemPromptEvidenceCategorizer = `You label evidence notes by their bearing on a claim under fact-check. Be conservative: prefer "neutral" when a note neither clearly supports nor clearly contradicts the claim.

Always respond with valid JSON matching the requested schema, nothing else.`

// FactCheckSynthesizer produces the fact-check workflow's final verdict and
// report body from categorized evidence (spec §4.10).
type FactCheckSynthesizer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// FactCheckSynthesizerConfig configures the fact-check synthesizer agent.
type FactCheckSynthesizerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewFactCheckSynthesizer creates a new fact-check synthesizer.
func NewFactCheckSynthesizer(llmProvider llm.Provider, config *FactCheckSynthesizerConfig) *FactCheckSynthesizer {
	if config == nil {
		config = &FactCheckSynthesizerConfig{Temperature: 0.3, MaxTokens: 2000}
	}
	return &FactCheckSynthesizer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Synthesize produces the claim verdict and a Markdown report body citing
// the categorized evidence.
func (s *FactCheckSynthesizer) Synthesize(ctx context.Context, claim string, categorized []factcheck.CategorizedNote) (*factcheck.ClaimVerdict, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\nCategorized evidence:\n", claim)
	for i, c := range categorized {
		fmt.Fprintf(&b, "%d. [%s, confidence %.2f] %s (sources: %s)\n", i+1, c.Label, c.Confidence, c.Note.Summary, strings.Join(c.Note.SourceIDs, ", "))
	}
	b.WriteString(`
Decide whether the claim is true, false, or unverified given the evidence above, with a confidence in [0,1] and a one-paragraph rationale. Respond with ONLY a JSON object:
{"verdict": "true" | "false" | "unverified", "confidence": 0.0-1.0, "rationale": "..."}`)

	var verdict factcheck.ClaimVerdict
	err := llm.GenerateStructured(ctx, s.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptFactCheckSynthesizer},
			{Role: "user", Content: b.String()},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}, &verdict)
	if err != nil {
		return nil, "", fmt.Errorf("fact-check verdict failed: %w", err)
	}

	report := s.buildReport(claim, &verdict, categorized)
	return &verdict, report, nil
}

func (s *FactCheckSynthesizer) buildReport(claim string, verdict *factcheck.ClaimVerdict, categorized []factcheck.CategorizedNote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Claim\n\n%s\n\n", claim)
	fmt.Fprintf(&b, "## Verdict: %s (confidence %.2f)\n\n%s\n\n", verdict.Verdict, verdict.Confidence, verdict.Rationale)
	b.WriteString("## Evidence\n\n")
	for _, c := range categorized {
		fmt.Fprintf(&b, "- **[%s]** %s _(sources: %s)_\n", c.Label, c.Note.Summary, strings.Join(c.Note.SourceIDs, ", "))
	}
	return b.String()
}

const systemPromptFactCheckSynthesizer = `You are the fact-check synthesizer. Weigh supporting evidence against contradicting evidence; a claim with unresolved contradictions or insufficient evidence is "unverified" rather than forced to true or false.

Always respond with valid JSON matching the requested schema, nothing else.`
