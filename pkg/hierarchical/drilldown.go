// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package hierarchical

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"test-smith/pkg/llm"
	"test-smith/pkg/notes"
	"test-smith/pkg/planning"
)

// DrillDownGenerator proposes 1-3 child subtasks for a parent judged
// "shallow" by the depth evaluator (spec §4.9's drill-down generator).
type DrillDownGenerator struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// DrillDownConfig configures the drill-down generator agent.
type DrillDownConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewDrillDownGenerator creates a new drill-down generator.
func NewDrillDownGenerator(llmProvider llm.Provider, config *DrillDownConfig) *DrillDownGenerator {
	if config == nil {
		config = &DrillDownConfig{Temperature: 0.5, MaxTokens: 800}
	}
	return &DrillDownGenerator{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Generate proposes and materializes 1-3 child Subtasks for parent, with
// parent_id = parent.ID and depth = parent.Depth + 1.
func (g *DrillDownGenerator) Generate(ctx context.Context, parent *planning.Subtask, analyzed []notes.AnalyzedNote) ([]*planning.Subtask, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Parent subtask question: %s\n\nWhat was found so far:\n", parent.Question)
	for i, n := range analyzed {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Summary)
	}
	b.WriteString(`
The above is judged shallow. Propose 1-3 focused follow-up subtasks that would deepen the investigation. Respond with ONLY a JSON object:
{"children": [{"title": "...", "question": "..."}]}`)

	var out planning.DrillDownOutput
	err := llm.GenerateStructured(ctx, g.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptDrillDown},
			{Role: "user", Content: b.String()},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("drill-down generation failed: %w", err)
	}

	children := make([]*planning.Subtask, len(out.Children))
	for i, c := range out.Children {
		children[i] = &planning.Subtask{
			ID:       uuid.New().String(),
			Title:    c.Title,
			Question: c.Question,
			ParentID: parent.ID,
			Depth:    parent.Depth + 1,
			Status:   planning.SubtaskPending,
		}
	}
	return children, nil
}

const systemPromptDrillDown = `You generate focused follow-up subtasks when a parent investigation's evidence is judged shallow. Each child must be a distinct, answerable question that deepens the parent's question rather than repeating it.

Always respond with valid JSON matching the requested schema, nothing else.`
