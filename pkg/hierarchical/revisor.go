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

// PlanRevisor examines a just-completed subtask's result against the
// remaining plan and, when warranted, emits a Plan Revision (spec §4.9's
// replanning state). Budget exhaustion is handled by the caller returning
// a no-op revision rather than by this type failing.
type PlanRevisor struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// PlanRevisorConfig configures the plan revisor agent.
type PlanRevisorConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewPlanRevisor creates a new plan revisor.
func NewPlanRevisor(llmProvider llm.Provider, config *PlanRevisorConfig) *PlanRevisor {
	if config == nil {
		config = &PlanRevisorConfig{Temperature: 0.4, MaxTokens: 800}
	}
	return &PlanRevisor{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Revise decides whether completed's result warrants a plan revision given
// the pending subtasks still queued.
func (r *PlanRevisor) Revise(ctx context.Context, completed *planning.Subtask, analyzed []notes.AnalyzedNote, pending []*planning.Subtask) (*planning.RevisionOutput, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Just-completed subtask: %s\n\nFindings:\n", completed.Question)
	for i, n := range analyzed {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Summary)
		if n.Conflict != "" {
			fmt.Fprintf(&b, "   (unresolved conflict: %s)\n", n.Conflict)
		}
	}
	b.WriteString("\nRemaining pending subtasks:\n")
	for _, s := range pending {
		fmt.Fprintf(&b, "- %s\n", s.Question)
	}
	b.WriteString(`
Decide whether the plan needs revision: a new important entity appeared that no pending subtask covers ("new_topic"), this subtask's findings contradict an earlier completed subtask ("contradiction"), or a necessary precondition for the remaining plan is unmet ("gap"). Respond with ONLY a JSON object:
{
  "needs_revision": true or false,
  "trigger": "new_topic" | "contradiction" | "gap" (omit if needs_revision is false),
  "rationale": "...",
  "added_subtasks": [{"title": "...", "question": "..."}]
}`)

	var out planning.RevisionOutput
	err := llm.GenerateStructured(ctx, r.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptRevisor},
			{Role: "user", Content: b.String()},
		},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("plan revision failed: %w", err)
	}
	return &out, nil
}

// Materialize turns a RevisionOutput's proposed children into Plan
// Revision with concrete Subtasks, depth = completed.Depth (siblings of the
// completed subtask's own level, since a revision reacts to what was
// learned rather than drilling further into it).
func Materialize(revisionID string, completed *planning.Subtask, out *planning.RevisionOutput) *planning.PlanRevision {
	rev := &planning.PlanRevision{
		RevisionID: revisionID,
		Trigger:    out.Trigger,
		Rationale:  out.Rationale,
	}
	for _, c := range out.AddedSubtasks {
		rev.AddedSubtasks = append(rev.AddedSubtasks, &planning.Subtask{
			ID:       uuid.New().String(),
			Title:    c.Title,
			Question: c.Question,
			ParentID: completed.ParentID,
			Depth:    completed.Depth,
			Status:   planning.SubtaskPending,
		})
	}
	return rev
}

const systemPromptRevisor = `You are the plan revisor for a hierarchical research assistant. You examine one just-completed subtask against the rest of the plan and decide whether new information warrants adding subtasks. Prefer needs_revision=false unless there is a concrete, named gap.

Always respond with valid JSON matching the requested schema, nothing else.`
