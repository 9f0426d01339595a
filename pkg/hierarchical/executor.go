// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package hierarchical

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"test-smith/pkg/agent"
	"test-smith/pkg/notes"
	"test-smith/pkg/planning"
	"test-smith/pkg/steps"
	"test-smith/pkg/workflow"
)

// Budgets bounds how far the subtask executor loop may grow a plan:
// MaxDepth caps how many drill-down levels a branch may reach, MaxTotalSubtasks
// caps the master plan's running total (originals plus every drill-down and
// revision addition), and MaxRevisions caps how many plan revisions a single
// run may emit.
type Budgets struct {
	MaxDepth         int
	MaxTotalSubtasks int
	MaxRevisions     int
}

func (b Budgets) withDefaults() Budgets {
	if b.MaxDepth <= 0 {
		b.MaxDepth = 2
	}
	if b.MaxTotalSubtasks <= 0 {
		b.MaxTotalSubtasks = 20
	}
	if b.MaxRevisions <= 0 {
		b.MaxRevisions = 3
	}
	return b
}

// BuildGraph wires the master planner, depth evaluator, drill-down
// generator and plan revisor, together with lib's shared planner/
// retriever/web-search/analyzer/evaluator steps, into the subtask executor
// loop graph (spec §4.9): selecting -> executing (planner -> retrieve +
// web_search -> analyze -> evaluate, looping on insufficiency) ->
// evaluating_depth -> (drilldown | replanning) -> saving -> (selecting |
// synthesize).
//
// A "simple" classification is executed as a master plan containing a
// single top-level subtask whose question is the original query, rather
// than as a separate flat chain: the loop is the same loop either way, it
// just never has a sibling to move on to.
func BuildGraph(lib *steps.Library, mp *MasterPlanner, de *DepthEvaluator, dg *DrillDownGenerator, pr *PlanRevisor, budgets Budgets) (*workflow.Graph, workflow.StateSchema, error) {
	budgets = budgets.withDefaults()
	g := workflow.NewGraph()

	if err := addAll(g,
		masterPlanStep(mp),
		selectingStep(),
		lib.PlannerStep("subtask_planner"),
		lib.RetrieverStep("subtask_retrieve"),
		lib.WebSearchStep("subtask_web_search"),
		lib.AnalyzerStep("subtask_analyze"),
		lib.EvaluatorStep("subtask_evaluate", "subtask_planner", "evaluating_depth"),
		evaluatingDepthStep(de, budgets),
		drilldownStep(dg, budgets),
		replanningStep(pr, budgets),
		savingStep(),
		hierarchicalSynthesizeStep(lib),
	); err != nil {
		return nil, nil, err
	}

	if err := g.AddEdge("master_plan", "selecting"); err != nil {
		return nil, nil, err
	}
	if err := g.AddEdge("selecting", "subtask_planner"); err != nil {
		return nil, nil, err
	}
	if err := g.AddFanOut("subtask_planner", []string{"subtask_retrieve", "subtask_web_search"}, "subtask_analyze"); err != nil {
		return nil, nil, err
	}
	if err := g.AddEdge("subtask_analyze", "subtask_evaluate"); err != nil {
		return nil, nil, err
	}
	// subtask_evaluate's own edges (back to subtask_planner or on to
	// evaluating_depth) are returned as its explicit `next`, not graph edges.
	if err := g.AddEdge("drilldown", "saving"); err != nil {
		return nil, nil, err
	}
	if err := g.AddEdge("replanning", "saving"); err != nil {
		return nil, nil, err
	}
	if err := g.AddConditionalEdge("saving", "selecting", func(s workflow.State) bool {
		return len(pendingOrderFromState(s)) > 0
	}); err != nil {
		return nil, nil, err
	}
	if err := g.AddEdge("saving", "hierarchical_synthesize"); err != nil {
		return nil, nil, err
	}
	if err := g.SetEntry("master_plan"); err != nil {
		return nil, nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}

	schema := workflow.StateSchema{
		steps.RAGResults: workflow.Append,
		steps.WebResults: workflow.Append,
		steps.Notes:      workflow.Append,
		SubtaskNotesByID: workflow.Union,
	}
	return g, schema, nil
}

func addAll(g *workflow.Graph, stepsList ...workflow.Step) error {
	for _, s := range stepsList {
		if err := g.AddStep(s); err != nil {
			return err
		}
	}
	return nil
}

func masterPlanStep(mp *MasterPlanner) workflow.Step {
	return workflow.StepFunc{StepName: "master_plan", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		classification, err := mp.Classify(ctx, query)
		if err != nil {
			return nil, "", err
		}
		if classification.Mode == "simple" {
			classification.Subtasks = []planning.Subtask{{Title: "research", Question: query}}
		}

		plan := BuildMasterPlan(classification)
		byID := make(map[string]*planning.Subtask, len(plan.Subtasks))
		order := make([]string, 0, len(plan.Subtasks))
		for _, s := range plan.Subtasks {
			byID[s.ID] = s
			order = append(order, s.ID)
		}

		return workflow.State{
			Mode:          classification.Mode,
			MasterPlan:    plan,
			SubtasksByID:  byID,
			PendingOrder:  order,
			RevisionCount: 0,
		}, "", nil
	}}
}

// selectingStep pops the next pending subtask id, marks it in_progress, and
// primes the shared steps.Query/Feedback/LoopCount fields for its own
// planner/retriever/analyzer/evaluator cycle. The notes-accumulated-so-far
// length is recorded as this subtask's baseline so later states can recover
// just its own contribution from steps.Notes, which keeps growing across
// the whole run rather than being reset per subtask.
func selectingStep() workflow.Step {
	return workflow.StepFunc{StepName: "selecting", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		order := pendingOrderFromState(state)
		if len(order) == 0 {
			return nil, "", fmt.Errorf("selecting: no pending subtask")
		}
		id := order[0]
		byID := cloneSubtasksByID(state)
		subtask, ok := byID[id]
		if !ok {
			return nil, "", fmt.Errorf("selecting: subtask %s not found", id)
		}
		byID[id] = withStatus(subtask, planning.SubtaskInProgress)

		return workflow.State{
			SubtasksByID:     byID,
			PendingOrder:     order[1:],
			CurrentSubtaskID: id,
			steps.Query:      subtask.Question,
			steps.Feedback:   "",
			steps.LoopCount:  0,
			NotesBaseline:    len(notesFromGlobal(state)),
		}, "", nil
	}}
}

func evaluatingDepthStep(de *DepthEvaluator, budgets Budgets) workflow.Step {
	return workflow.StepFunc{StepName: "evaluating_depth", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		subtask := currentSubtask(state)
		if subtask == nil {
			return nil, "", fmt.Errorf("evaluating_depth: no current subtask")
		}
		own := subtaskNotes(state)
		plan := masterPlanFromState(state)

		depth, err := de.Evaluate(ctx, subtask, own)
		if err != nil {
			return nil, "", err
		}

		canDrillDown := depth == planning.DepthShallow &&
			subtask.Depth < budgets.MaxDepth &&
			plan.TotalCreated < budgets.MaxTotalSubtasks

		if canDrillDown {
			return workflow.State{}, "drilldown", nil
		}
		return workflow.State{}, "replanning", nil
	}}
}

func drilldownStep(dg *DrillDownGenerator, budgets Budgets) workflow.Step {
	return workflow.StepFunc{StepName: "drilldown", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		subtask := currentSubtask(state)
		own := subtaskNotes(state)

		children, err := dg.Generate(ctx, subtask, own)
		if err != nil {
			return nil, "", err
		}

		plan := clonePlan(masterPlanFromState(state))
		room := budgets.MaxTotalSubtasks - plan.TotalCreated
		if room < len(children) {
			children = children[:max(room, 0)]
		}
		if len(children) == 0 {
			return workflow.State{}, "", nil
		}

		byID := cloneSubtasksByID(state)
		childIDs := make([]string, len(children))
		for i, c := range children {
			plan.Subtasks = append(plan.Subtasks, c)
			byID[c.ID] = c
			childIDs[i] = c.ID
		}
		plan.TotalCreated += len(children)

		order := pendingOrderFromState(state)
		newOrder := append(append([]string{}, childIDs...), order...)

		return workflow.State{
			MasterPlan:   plan,
			SubtasksByID: byID,
			PendingOrder: newOrder,
		}, "", nil
	}}
}

func replanningStep(pr *PlanRevisor, budgets Budgets) workflow.Step {
	return workflow.StepFunc{StepName: "replanning", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		subtask := currentSubtask(state)
		own := subtaskNotes(state)
		revisionCount := state.GetInt(RevisionCount)
		if revisionCount >= budgets.MaxRevisions {
			return workflow.State{}, "", nil
		}

		order := pendingOrderFromState(state)
		byID := cloneSubtasksByID(state)
		pending := make([]*planning.Subtask, 0, len(order))
		for _, id := range order {
			if s, ok := byID[id]; ok {
				pending = append(pending, s)
			}
		}

		out, err := pr.Revise(ctx, subtask, own, pending)
		if err != nil {
			return nil, "", err
		}
		if !out.NeedsRevision {
			return workflow.State{}, "", nil
		}

		plan := clonePlan(masterPlanFromState(state))
		room := budgets.MaxTotalSubtasks - plan.TotalCreated
		if room <= 0 {
			return workflow.State{}, "", nil
		}
		if room < len(out.AddedSubtasks) {
			out.AddedSubtasks = out.AddedSubtasks[:room]
		}
		if len(out.AddedSubtasks) == 0 {
			return workflow.State{}, "", nil
		}

		rev := Materialize(uuid.New().String(), subtask, out)
		for _, c := range rev.AddedSubtasks {
			plan.Subtasks = append(plan.Subtasks, c)
			byID[c.ID] = c
		}
		plan.TotalCreated += len(rev.AddedSubtasks)

		addedIDs := make([]string, len(rev.AddedSubtasks))
		for i, c := range rev.AddedSubtasks {
			addedIDs[i] = c.ID
		}
		newOrder := append(append([]string{}, order...), addedIDs...)

		return workflow.State{
			MasterPlan:    plan,
			SubtasksByID:  byID,
			PendingOrder:  newOrder,
			RevisionCount: revisionCount + 1,
		}, "", nil
	}}
}

func savingStep() workflow.Step {
	return workflow.StepFunc{StepName: "saving", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		id := state.GetString(CurrentSubtaskID)
		byID := cloneSubtasksByID(state)
		subtask, ok := byID[id]
		if !ok {
			return nil, "", fmt.Errorf("saving: subtask %s not found", id)
		}
		byID[id] = withStatus(subtask, planning.SubtaskCompleted)

		own := subtaskNotes(state)
		delta := map[string]any{id: own}

		return workflow.State{
			SubtasksByID:     byID,
			SubtaskNotesByID: delta,
		}, "", nil
	}}
}

func hierarchicalSynthesizeStep(lib *steps.Library) workflow.Step {
	return workflow.StepFunc{StepName: "hierarchical_synthesize", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		plan := masterPlanFromState(state)
		byNotes := notesByIDFromState(state)
		byID := subtasksByIDFromState(state)

		topLevel := make([]*planning.Subtask, 0, len(plan.Subtasks))
		for _, s := range plan.Subtasks {
			if s.ParentID == "" {
				topLevel = append(topLevel, s)
			}
		}

		if len(topLevel) == 1 {
			flat := collectNotes(topLevel[0].ID, byID, byNotes)
			report, err := lib.Synthesizer.Synthesize(ctx, query, flat, nil)
			if err != nil {
				return nil, "", err
			}
			return workflow.State{steps.FinalReport: report}, workflow.Terminal, nil
		}

		sections := make([]agent.SubtaskSection, 0, len(topLevel))
		for _, t := range topLevel {
			sections = append(sections, agent.SubtaskSection{
				Title: t.Title,
				Notes: collectNotes(t.ID, byID, byNotes),
			})
		}
		report, err := lib.Synthesizer.Synthesize(ctx, query, nil, sections)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{steps.FinalReport: report}, workflow.Terminal, nil
	}}
}

// collectNotes gathers id's own notes plus every descendant's, by walking
// subtasksByID for ParentID matches (depth-unbounded, since drill-down
// children may themselves have been drilled into further).
func collectNotes(id string, byID map[string]*planning.Subtask, byNotes map[string][]notes.AnalyzedNote) []notes.AnalyzedNote {
	out := append([]notes.AnalyzedNote{}, byNotes[id]...)
	for _, s := range byID {
		if s.ParentID == id {
			out = append(out, collectNotes(s.ID, byID, byNotes)...)
		}
	}
	return out
}

func withStatus(s *planning.Subtask, status planning.SubtaskStatus) *planning.Subtask {
	cp := *s
	cp.Status = status
	return &cp
}

func clonePlan(p *planning.MasterPlan) *planning.MasterPlan {
	cp := &planning.MasterPlan{TotalCreated: p.TotalCreated}
	cp.Subtasks = append(cp.Subtasks, p.Subtasks...)
	return cp
}

func masterPlanFromState(state workflow.State) *planning.MasterPlan {
	v, _ := state.Get(MasterPlan)
	p, _ := v.(*planning.MasterPlan)
	return p
}

func subtasksByIDFromState(state workflow.State) map[string]*planning.Subtask {
	v, _ := state.Get(SubtasksByID)
	m, _ := v.(map[string]*planning.Subtask)
	return m
}

func cloneSubtasksByID(state workflow.State) map[string]*planning.Subtask {
	src := subtasksByIDFromState(state)
	out := make(map[string]*planning.Subtask, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pendingOrderFromState(state workflow.State) []string {
	v, _ := state.Get(PendingOrder)
	order, _ := v.([]string)
	return order
}

func currentSubtask(state workflow.State) *planning.Subtask {
	id := state.GetString(CurrentSubtaskID)
	return subtasksByIDFromState(state)[id]
}

func notesFromGlobal(state workflow.State) []notes.AnalyzedNote {
	v, ok := state.Get(steps.Notes)
	if !ok {
		return nil
	}
	ns, _ := v.([]notes.AnalyzedNote)
	return ns
}

// subtaskNotes recovers the current subtask's own contribution to the
// run-wide (accumulating) analyzed-notes list via its recorded baseline.
func subtaskNotes(state workflow.State) []notes.AnalyzedNote {
	all := notesFromGlobal(state)
	baseline := state.GetInt(NotesBaseline)
	if baseline < 0 || baseline > len(all) {
		return all
	}
	return all[baseline:]
}

func notesByIDFromState(state workflow.State) map[string][]notes.AnalyzedNote {
	v, ok := state.Get(SubtaskNotesByID)
	if !ok {
		return map[string][]notes.AnalyzedNote{}
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return map[string][]notes.AnalyzedNote{}
	}
	out := make(map[string][]notes.AnalyzedNote, len(raw))
	for k, val := range raw {
		if ns, ok := val.([]notes.AnalyzedNote); ok {
			out[k] = ns
		}
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
