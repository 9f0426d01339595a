// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"context"
	"fmt"
	"strings"

	"test-smith/pkg/codeinvestigation"
	"test-smith/pkg/llm"
	"test-smith/pkg/vectorstore"
)

// QueryAnalyzer classifies a code-investigation query's intent (spec
// §4.10: dependency, flow, usage, architecture, or implementation).
type QueryAnalyzer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// QueryAnalyzerConfig configures the query analyzer agent.
type QueryAnalyzerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewQueryAnalyzer creates a new query analyzer.
func NewQueryAnalyzer(llmProvider llm.Provider, config *QueryAnalyzerConfig) *QueryAnalyzer {
	if config == nil {
		config = &QueryAnalyzerConfig{Temperature: 0.1, MaxTokens: 100}
	}
	return &QueryAnalyzer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Classify determines the query's intent.
func (a *QueryAnalyzer) Classify(ctx context.Context, query string) (codeinvestigation.Intent, error) {
	var out codeinvestigation.IntentClassification
	err := llm.GenerateStructured(ctx, a.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptQueryAnalyzer},
			{Role: "user", Content: fmt.Sprintf("Query: %s", query)},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("query intent classification failed: %w", err)
	}
	return out.Intent, nil
}

const systemPromptQueryAnalyzer = `You classify a question about a codebase into exactly one intent:
- dependency: what does X depend on, or what depends on X
- flow: how does control or data flow through X
- usage: where and how is X used
- architecture: how are components structured and related
- implementation: how does X work internally

Respond with ONLY a JSON object: {"intent": "dependency"}`

// codeFindingsOutput is the shared structured-output shape for both the
// dependency analyzer and the flow tracker, which differ only in prompt.
type codeFindingsOutput = codeinvestigation.FindingSet

// DependencyAnalyzer extracts dependency relationships cited to specific
// file regions (spec §4.10).
type DependencyAnalyzer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// DependencyAnalyzerConfig configures the dependency analyzer agent.
type DependencyAnalyzerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewDependencyAnalyzer creates a new dependency analyzer.
func NewDependencyAnalyzer(llmProvider llm.Provider, config *DependencyAnalyzerConfig) *DependencyAnalyzer {
	if config == nil {
		config = &DependencyAnalyzerConfig{Temperature: 0.2, MaxTokens: 1500}
	}
	return &DependencyAnalyzer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Analyze produces dependency findings from the retrieved code chunks.
func (a *DependencyAnalyzer) Analyze(ctx context.Context, query string, docs []vectorstore.Document) (*codeinvestigation.FindingSet, error) {
	var out codeFindingsOutput
	err := llm.GenerateStructured(ctx, a.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You identify dependency relationships (imports, calls, data dependencies) visible in the supplied code chunks. Every finding must cite at least one file_path (and start_line/end_line if visible in the chunk metadata)."},
			{Role: "user", Content: buildCodeFindingsPrompt(query, docs)},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("dependency analysis failed: %w", err)
	}
	return &out, nil
}

// FlowTracker traces control or data flow through the code, cited to
// specific file regions (spec §4.10).
type FlowTracker struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// FlowTrackerConfig configures the flow tracker agent.
type FlowTrackerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewFlowTracker creates a new flow tracker.
func NewFlowTracker(llmProvider llm.Provider, config *FlowTrackerConfig) *FlowTracker {
	if config == nil {
		config = &FlowTrackerConfig{Temperature: 0.2, MaxTokens: 1500}
	}
	return &FlowTracker{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Analyze produces flow findings from the retrieved code chunks.
func (t *FlowTracker) Analyze(ctx context.Context, query string, docs []vectorstore.Document) (*codeinvestigation.FindingSet, error) {
	var out codeFindingsOutput
	err := llm.GenerateStructured(ctx, t.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You trace control or data flow through the supplied code chunks, describing the sequence of calls or data transformations. Every finding must cite at least one file_path (and start_line/end_line if visible in the chunk metadata)."},
			{Role: "user", Content: buildCodeFindingsPrompt(query, docs)},
		},
		Temperature: t.temperature,
		MaxTokens:   t.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("flow analysis failed: %w", err)
	}
	return &out, nil
}

func buildCodeFindingsPrompt(query string, docs []vectorstore.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nCode chunks:\n", query)
	for _, d := range docs {
		path, _ := d.Metadata["file_path"].(string)
		if path == "" {
			path = d.ID
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", path, d.Content)
	}
	b.WriteString(`

Respond with ONLY a JSON object:
{"findings": [{"description": "...", "regions": [{"file_path": "...", "start_line": 0, "end_line": 0}]}]}`)
	return b.String()
}

// CodeInvestigationSynthesizer combines the query's intent, the dependency
// findings, and the flow findings into a structured report of findings
// cited to file regions (spec §4.10).
type CodeInvestigationSynthesizer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// CodeInvestigationSynthesizerConfig configures the code-investigation
// synthesizer agent.
type CodeInvestigationSynthesizerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewCodeInvestigationSynthesizer creates a new code-investigation
// synthesizer.
func NewCodeInvestigationSynthesizer(llmProvider llm.Provider, config *CodeInvestigationSynthesizerConfig) *CodeInvestigationSynthesizer {
	if config == nil {
		config = &CodeInvestigationSynthesizerConfig{Temperature: 0.3, MaxTokens: 2000}
	}
	return &CodeInvestigationSynthesizer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Synthesize writes the Markdown report: findings grouped by dependency
// and flow, each with its cited file regions.
func (s *CodeInvestigationSynthesizer) Synthesize(ctx context.Context, query string, intent codeinvestigation.Intent, dependency, flow *codeinvestigation.FindingSet) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nIntent: %s\n", query, intent)

	b.WriteString("\nDependency findings:\n")
	for _, f := range dependency.Findings {
		fmt.Fprintf(&b, "- %s (%s)\n", f.Description, formatRegions(f.Regions))
	}
	b.WriteString("\nFlow findings:\n")
	for _, f := range flow.Findings {
		fmt.Fprintf(&b, "- %s (%s)\n", f.Description, formatRegions(f.Regions))
	}
	b.WriteString("\nWrite a Markdown report answering the query. Organize by the findings above, and cite each claim's file region inline as `path:start-end`.")

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You write code-investigation reports: structured findings about a codebase, each claim cited to the specific file region that supports it."},
			{Role: "user", Content: b.String()},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("code-investigation synthesis failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func formatRegions(regions []codeinvestigation.CitedRegion) string {
	parts := make([]string, len(regions))
	for i, r := range regions {
		if r.StartLine > 0 {
			parts[i] = fmt.Sprintf("%s:%d-%d", r.FilePath, r.StartLine, r.EndLine)
		} else {
			parts[i] = r.FilePath
		}
	}
	return strings.Join(parts, ", ")
}
