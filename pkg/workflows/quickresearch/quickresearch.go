// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package quickresearch builds the quick-research workflow (spec §4.10):
// a single pass through planner -> retrieval -> analyzer -> evaluator ->
// synthesizer, with MAX_LOOPS = 2 bounding the evaluator's feedback loop
// back to the planner.
package quickresearch

import (
	"test-smith/pkg/steps"
	"test-smith/pkg/workflow"
)

// Name is the workflow's registration name.
const Name = "quick_research"

// Register builds the quick-research graph from lib and registers it under
// Name. Called explicitly by the Entry Runner's startup registration, not
// at import time (spec §9).
func Register(reg *workflow.Registry, lib *steps.Library, budgets workflow.Budgets) error {
	if budgets.MaxLoops <= 0 {
		budgets.MaxLoops = 2
	}
	// Work off a local copy so this workflow's MaxLoops never leaks into a
	// sibling workflow registered from the same shared Library.
	scoped := *lib
	scoped.MaxLoops = budgets.MaxLoops
	lib = &scoped

	g := workflow.NewGraph()

	if err := g.AddStep(lib.PlannerStep("planner")); err != nil {
		return err
	}
	if err := g.AddStep(lib.RetrieverStep("retrieve")); err != nil {
		return err
	}
	if err := g.AddStep(lib.WebSearchStep("web_search")); err != nil {
		return err
	}
	if err := g.AddStep(lib.AnalyzerStep("analyze")); err != nil {
		return err
	}
	if err := g.AddStep(lib.EvaluatorStep("evaluate", "planner", "synthesize")); err != nil {
		return err
	}
	if err := g.AddStep(lib.SynthesizerStep("synthesize")); err != nil {
		return err
	}

	if err := g.AddFanOut("planner", []string{"retrieve", "web_search"}, "analyze"); err != nil {
		return err
	}
	if err := g.AddEdge("analyze", "evaluate"); err != nil {
		return err
	}
	// evaluate's own routing (back to planner or on to synthesize) is
	// returned as its explicit `next`, not a declared edge.
	if err := g.SetEntry("planner"); err != nil {
		return err
	}

	return reg.Register(&workflow.Definition{
		Name:  Name,
		Graph: g,
		Schema: workflow.StateSchema{
			steps.RAGResults: workflow.Append,
			steps.WebResults: workflow.Append,
			steps.Notes:      workflow.Append,
		},
		Budgets: budgets,
	})
}
