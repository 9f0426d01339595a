// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package hierarchical

import (
	"context"
	"testing"

	"test-smith/pkg/llm"
	"test-smith/pkg/planning"
	"test-smith/pkg/workflow"
)

// mockLLMProvider is a bare-bones llm.Provider stand-in returning a fixed
// JSON response, mirroring pkg/agent/agent_test.go's mockLLMProvider.
type mockLLMProvider struct {
	response string
	err      error
}

func (m *mockLLMProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.response}, nil
}

func (m *mockLLMProvider) Name() string            { return "mock" }
func (m *mockLLMProvider) ModelName() string       { return "mock-model" }
func (m *mockLLMProvider) SupportsStreaming() bool { return false }

func TestBudgets_WithDefaults(t *testing.T) {
	zero := Budgets{}.withDefaults()
	if zero.MaxDepth != 2 {
		t.Errorf("expected default MaxDepth 2, got %d", zero.MaxDepth)
	}
	if zero.MaxTotalSubtasks != 20 {
		t.Errorf("expected default MaxTotalSubtasks 20, got %d", zero.MaxTotalSubtasks)
	}
	if zero.MaxRevisions != 3 {
		t.Errorf("expected default MaxRevisions 3, got %d", zero.MaxRevisions)
	}

	explicit := Budgets{MaxDepth: 5, MaxTotalSubtasks: 50, MaxRevisions: 1}.withDefaults()
	if explicit.MaxDepth != 5 || explicit.MaxTotalSubtasks != 50 || explicit.MaxRevisions != 1 {
		t.Errorf("expected explicit budgets to pass through unchanged, got %+v", explicit)
	}
}

func TestDepthEvaluator_Evaluate(t *testing.T) {
	evaluator := NewDepthEvaluator(&mockLLMProvider{response: `{"depth": "shallow"}`}, nil)
	depth, err := evaluator.Evaluate(context.Background(), &planning.Subtask{Question: "why did it fail?"}, nil)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if depth != planning.DepthShallow {
		t.Errorf("expected shallow, got %q", depth)
	}
}

func TestDrillDownGenerator_Generate(t *testing.T) {
	gen := NewDrillDownGenerator(&mockLLMProvider{response: `{"children": [
		{"title": "a", "question": "q-a"},
		{"title": "b", "question": "q-b"}
	]}`}, nil)

	parent := &planning.Subtask{ID: "parent-1", Depth: 1}
	children, err := gen.Generate(context.Background(), parent, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	for _, c := range children {
		if c.ParentID != parent.ID {
			t.Errorf("expected ParentID %q, got %q", parent.ID, c.ParentID)
		}
		if c.Depth != parent.Depth+1 {
			t.Errorf("expected child depth %d, got %d", parent.Depth+1, c.Depth)
		}
		if c.Status != planning.SubtaskPending {
			t.Errorf("expected pending status, got %q", c.Status)
		}
	}
}

func TestPlanRevisor_ReviseAndMaterialize(t *testing.T) {
	revisor := NewPlanRevisor(&mockLLMProvider{response: `{
		"needs_revision": true,
		"trigger": "gap",
		"rationale": "missing precondition",
		"added_subtasks": [{"title": "c", "question": "q-c"}]
	}`}, nil)

	completed := &planning.Subtask{ID: "done-1", ParentID: "root", Depth: 0}
	out, err := revisor.Revise(context.Background(), completed, nil, nil)
	if err != nil {
		t.Fatalf("Revise() error: %v", err)
	}
	if !out.NeedsRevision || out.Trigger != planning.TriggerGap {
		t.Fatalf("expected a gap-triggered revision, got %+v", out)
	}

	rev := Materialize("rev-1", completed, out)
	if len(rev.AddedSubtasks) != 1 {
		t.Fatalf("expected 1 added subtask, got %d", len(rev.AddedSubtasks))
	}
	added := rev.AddedSubtasks[0]
	if added.ParentID != completed.ParentID {
		t.Errorf("expected revision sibling to share parent %q, got %q", completed.ParentID, added.ParentID)
	}
	if added.Depth != completed.Depth {
		t.Errorf("expected revision sibling depth %d, got %d", completed.Depth, added.Depth)
	}
}

func baseState(subtask *planning.Subtask, plan *planning.MasterPlan, pending []string) workflow.State {
	return workflow.State{
		CurrentSubtaskID: subtask.ID,
		SubtasksByID:     map[string]*planning.Subtask{subtask.ID: subtask},
		MasterPlan:       plan,
		PendingOrder:     pending,
		NotesBaseline:    0,
	}
}

func TestEvaluatingDepthStep_DrillsDownWhenShallowAndUnderBudget(t *testing.T) {
	subtask := &planning.Subtask{ID: "s1", Question: "q", Depth: 0}
	plan := &planning.MasterPlan{TotalCreated: 1}
	state := baseState(subtask, plan, nil)

	de := NewDepthEvaluator(&mockLLMProvider{response: `{"depth": "shallow"}`}, nil)
	step := evaluatingDepthStep(de, Budgets{MaxDepth: 2, MaxTotalSubtasks: 20, MaxRevisions: 3})

	_, next, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}
	if next != "drilldown" {
		t.Errorf("expected next=drilldown, got %q", next)
	}
}

func TestEvaluatingDepthStep_ReplansWhenDepthBudgetExhausted(t *testing.T) {
	subtask := &planning.Subtask{ID: "s1", Question: "q", Depth: 2}
	plan := &planning.MasterPlan{TotalCreated: 1}
	state := baseState(subtask, plan, nil)

	de := NewDepthEvaluator(&mockLLMProvider{response: `{"depth": "shallow"}`}, nil)
	step := evaluatingDepthStep(de, Budgets{MaxDepth: 2, MaxTotalSubtasks: 20, MaxRevisions: 3})

	_, next, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}
	if next != "replanning" {
		t.Errorf("expected next=replanning once depth budget is exhausted, got %q", next)
	}
}

func TestEvaluatingDepthStep_ReplansWhenTotalSubtaskBudgetExhausted(t *testing.T) {
	subtask := &planning.Subtask{ID: "s1", Question: "q", Depth: 0}
	plan := &planning.MasterPlan{TotalCreated: 20}
	state := baseState(subtask, plan, nil)

	de := NewDepthEvaluator(&mockLLMProvider{response: `{"depth": "shallow"}`}, nil)
	step := evaluatingDepthStep(de, Budgets{MaxDepth: 2, MaxTotalSubtasks: 20, MaxRevisions: 3})

	_, next, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}
	if next != "replanning" {
		t.Errorf("expected next=replanning once total-subtask budget is exhausted, got %q", next)
	}
}

// TestDrilldownStep_InsertsChildrenAtHeadOfPendingOrder locks in the
// drill-down ordering invariant: children are investigated before any
// already-pending sibling, since they deepen the subtask just evaluated.
func TestDrilldownStep_InsertsChildrenAtHeadOfPendingOrder(t *testing.T) {
	subtask := &planning.Subtask{ID: "parent", Question: "q", Depth: 0}
	plan := &planning.MasterPlan{Subtasks: []*planning.Subtask{subtask}, TotalCreated: 1}
	state := baseState(subtask, plan, []string{"sibling"})
	state[SubtasksByID] = map[string]*planning.Subtask{"parent": subtask, "sibling": {ID: "sibling"}}

	dg := NewDrillDownGenerator(&mockLLMProvider{response: `{"children": [
		{"title": "a", "question": "q-a"},
		{"title": "b", "question": "q-b"}
	]}`}, nil)
	step := drilldownStep(dg, Budgets{MaxDepth: 2, MaxTotalSubtasks: 20, MaxRevisions: 3})

	delta, _, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}

	order := pendingOrderFromState(delta)
	if len(order) != 3 {
		t.Fatalf("expected 3 pending entries (2 children + 1 sibling), got %d: %v", len(order), order)
	}
	if order[2] != "sibling" {
		t.Errorf("expected the pre-existing sibling to remain last, got order %v", order)
	}
	if order[0] == "sibling" || order[1] == "sibling" {
		t.Errorf("expected new children ahead of the pre-existing sibling, got order %v", order)
	}
}

func TestDrilldownStep_TruncatesChildrenAtRemainingBudget(t *testing.T) {
	subtask := &planning.Subtask{ID: "parent", Question: "q", Depth: 0}
	// Only 1 slot left before MaxTotalSubtasks is hit.
	plan := &planning.MasterPlan{Subtasks: []*planning.Subtask{subtask}, TotalCreated: 19}
	state := baseState(subtask, plan, nil)

	dg := NewDrillDownGenerator(&mockLLMProvider{response: `{"children": [
		{"title": "a", "question": "q-a"},
		{"title": "b", "question": "q-b"}
	]}`}, nil)
	step := drilldownStep(dg, Budgets{MaxDepth: 2, MaxTotalSubtasks: 20, MaxRevisions: 3})

	delta, _, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}

	order := pendingOrderFromState(delta)
	if len(order) != 1 {
		t.Fatalf("expected exactly 1 child kept under budget, got %d: %v", len(order), order)
	}
}

// TestReplanningStep_AppendsAddedSubtasksAtTailOfPendingOrder contrasts
// with drill-down's head insertion: a plan revision's added subtasks are
// queued after the existing plan, since they react to a new topic/gap
// rather than deepen the just-completed subtask.
func TestReplanningStep_AppendsAddedSubtasksAtTailOfPendingOrder(t *testing.T) {
	completed := &planning.Subtask{ID: "done", Question: "q", ParentID: "root", Depth: 0}
	plan := &planning.MasterPlan{Subtasks: []*planning.Subtask{completed}, TotalCreated: 1}
	state := baseState(completed, plan, []string{"other"})
	state[SubtasksByID] = map[string]*planning.Subtask{"done": completed, "other": {ID: "other"}}
	state[RevisionCount] = 0

	pr := NewPlanRevisor(&mockLLMProvider{response: `{
		"needs_revision": true,
		"trigger": "new_topic",
		"rationale": "unexpected entity appeared",
		"added_subtasks": [{"title": "c", "question": "q-c"}]
	}`}, nil)
	step := replanningStep(pr, Budgets{MaxDepth: 2, MaxTotalSubtasks: 20, MaxRevisions: 3})

	delta, _, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}

	order := pendingOrderFromState(delta)
	if len(order) != 2 {
		t.Fatalf("expected 2 pending entries (1 existing + 1 added), got %d: %v", len(order), order)
	}
	if order[0] != "other" {
		t.Errorf("expected the pre-existing pending entry to remain first, got order %v", order)
	}
	if delta.GetInt(RevisionCount) != 1 {
		t.Errorf("expected revision count to increment to 1, got %d", delta.GetInt(RevisionCount))
	}
}

func TestReplanningStep_NoOpWhenRevisionBudgetExhausted(t *testing.T) {
	completed := &planning.Subtask{ID: "done", Question: "q", Depth: 0}
	plan := &planning.MasterPlan{Subtasks: []*planning.Subtask{completed}, TotalCreated: 1}
	state := baseState(completed, plan, []string{"other"})
	state[SubtasksByID] = map[string]*planning.Subtask{"done": completed, "other": {ID: "other"}}
	state[RevisionCount] = 3

	pr := NewPlanRevisor(&mockLLMProvider{response: `{
		"needs_revision": true,
		"trigger": "new_topic",
		"rationale": "should never be reached",
		"added_subtasks": [{"title": "c", "question": "q-c"}]
	}`}, nil)
	step := replanningStep(pr, Budgets{MaxDepth: 2, MaxTotalSubtasks: 20, MaxRevisions: 3})

	delta, _, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}
	if _, ok := delta.Get(MasterPlan); ok {
		t.Errorf("expected a no-op delta once the revision budget is exhausted, got %+v", delta)
	}
}

func TestSavingStep_MarksSubtaskCompletedAndRecordsOwnNotes(t *testing.T) {
	subtask := &planning.Subtask{ID: "s1", Status: planning.SubtaskInProgress}
	state := workflow.State{
		CurrentSubtaskID: "s1",
		SubtasksByID:     map[string]*planning.Subtask{"s1": subtask},
		NotesBaseline:    0,
	}

	step := savingStep()
	delta, _, err := step.Execute(context.Background(), state)
	if err != nil {
		t.Fatalf("step error: %v", err)
	}

	byID := subtasksByIDFromState(delta)
	if byID["s1"].Status != planning.SubtaskCompleted {
		t.Errorf("expected subtask marked completed, got %q", byID["s1"].Status)
	}
}
