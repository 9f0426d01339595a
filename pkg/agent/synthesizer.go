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

// Synthesizer produces the final report from the Query and the Analyzed
// Notes accumulated across the run (and, in hierarchical mode, the
// completed Subtask results). New in the domain — the teacher had no
// terminal report step, since its workflow ended at the policy node — but
// it reuses the LLM-call shape established by the rest of pkg/agent.
type Synthesizer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// SynthesizerConfig contains configuration for the synthesizer agent.
type SynthesizerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewSynthesizer creates a new synthesizer agent.
func NewSynthesizer(llmProvider llm.Provider, config *SynthesizerConfig) *Synthesizer {
	if config == nil {
		config = &SynthesizerConfig{Temperature: 0.4, MaxTokens: 3000}
	}
	return &Synthesizer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// SubtaskSection is one completed subtask's contribution to a hierarchical
// report: its question and the notes gathered while answering it.
type SubtaskSection struct {
	Title string
	Notes []notes.AnalyzedNote
}

// Synthesize produces a Markdown report body (sections + inline citations;
// the caller prepends the header block and appends the Sources appendix —
// see pkg/report). subtasks is nil for single-pass (quick-research,
// fact-check, comparative) workflows.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, flat []notes.AnalyzedNote, subtasks []SubtaskSection) (string, error) {
	prompt := s.buildPrompt(query, flat, subtasks)

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptSynthesizer},
			{Role: "user", Content: prompt},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}

	return strings.TrimSpace(resp.Content), nil
}

func (s *Synthesizer) buildPrompt(query string, flat []notes.AnalyzedNote, subtasks []SubtaskSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", query)

	if len(subtasks) > 0 {
		b.WriteString("This is a hierarchical investigation with the following completed subtasks:\n\n")
		for _, st := range subtasks {
			fmt.Fprintf(&b, "## Subtask: %s\n", st.Title)
			writeNotes(&b, st.Notes)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("Analyzed notes:\n\n")
		writeNotes(&b, flat)
	}

	b.WriteString(`
Write a comprehensive Markdown report body with numbered sections (no top-level title, the caller adds a header block). Every factual claim must cite at least one source id in the form [source_id]. If no source supports a claim, label it explicitly as "(inferred)". Do not invent source ids not present above.`)
	return b.String()
}

func writeNotes(b *strings.Builder, ns []notes.AnalyzedNote) {
	for i, n := range ns {
		fmt.Fprintf(b, "%d. %s (sources: %s)\n", i+1, n.Summary, strings.Join(n.SourceIDs, ", "))
		for _, kp := range n.KeyPoints {
			fmt.Fprintf(b, "   - %s\n", kp)
		}
		if n.Conflict != "" {
			fmt.Fprintf(b, "   (unresolved conflict: %s)\n", n.Conflict)
		}
	}
}

const systemPromptSynthesizer = `You are the report synthesizer for a research assistant.

Write a well-organized Markdown report answering the query from the supplied analyzed notes. Every factual claim must be traceable to a source id cited inline as [source_id]; claims with no supporting source must be labeled "(inferred)". Preserve any unresolved conflicts noted by the analyzer rather than silently picking a side.`
