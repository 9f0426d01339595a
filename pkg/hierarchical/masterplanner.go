// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package hierarchical implements the deep-research workflow's master
// decomposition and subtask executor loop (spec §4.8-§4.9): classify a
// query as simple or hierarchical, decompose into top-level subtasks,
// drill down on shallow results, revise the plan on new topics,
// contradictions or gaps, and synthesize across every completed subtask.
// Grounded on the same LLM-call/prompt-build/parse idiom established in
// pkg/agent, since the teacher's workflow had no hierarchical mode to
// generalize from directly.
package hierarchical

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"test-smith/pkg/llm"
	"test-smith/pkg/planning"
)

// MasterPlanner classifies a query as simple or hierarchical and, for
// hierarchical queries, decomposes it into 2-6 top-level subtasks.
type MasterPlanner struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// MasterPlannerConfig configures the master planner agent.
type MasterPlannerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewMasterPlanner creates a new master planner.
func NewMasterPlanner(llmProvider llm.Provider, config *MasterPlannerConfig) *MasterPlanner {
	if config == nil {
		config = &MasterPlannerConfig{Temperature: 0.5, MaxTokens: 1500}
	}
	return &MasterPlanner{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Classify decides simple vs hierarchical and, for hierarchical, proposes
// the top-level decomposition.
func (p *MasterPlanner) Classify(ctx context.Context, query string) (*planning.MasterClassification, error) {
	var out planning.MasterClassification
	err := llm.GenerateStructured(ctx, p.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptMasterPlanner},
			{Role: "user", Content: fmt.Sprintf("Query: %s\n\nClassify and, if hierarchical, decompose into 2-6 top-level subtasks.", query)},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("master classification failed: %w", err)
	}
	return &out, nil
}

// BuildMasterPlan assigns ids/depth/status to a classification's subtasks,
// producing the initial Master Plan the subtask executor loop consumes.
func BuildMasterPlan(classification *planning.MasterClassification) *planning.MasterPlan {
	plan := &planning.MasterPlan{}
	for _, s := range classification.Subtasks {
		plan.Subtasks = append(plan.Subtasks, &planning.Subtask{
			ID:       uuid.New().String(),
			Title:    s.Title,
			Question: s.Question,
			Depth:    0,
			Status:   planning.SubtaskPending,
		})
	}
	plan.TotalCreated = len(plan.Subtasks)
	return plan
}

const systemPromptMasterPlanner = `You are the master planner for a hierarchical research assistant.

Classify the query's complexity from its length, conjunctions ("compare", "and", "why"), and the number of distinct named entities it mentions. Simple queries get a single-pass investigation; complex queries decompose into 2-6 top-level subtasks, each with a short title and a specific question.

Respond with ONLY a JSON object:
{
  "mode": "simple" or "hierarchical",
  "subtasks": [{"title": "...", "question": "..."}],
  "reasoning": "..."
}
"subtasks" must be empty when mode is "simple".`
