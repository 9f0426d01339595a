// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package factcheck builds the fact-check workflow (spec §4.10): the
// shared planner/retrieval/analyzer/evaluator loop, followed by an
// evidence-categorization step and a verdict-producing synthesizer instead
// of the generic one.
package factcheck

import (
	"context"

	"test-smith/pkg/agent"
	"test-smith/pkg/factcheck"
	"test-smith/pkg/notes"
	"test-smith/pkg/steps"
	"test-smith/pkg/workflow"
)

// Name is the workflow's registration name.
const Name = "fact_check"

const categoriesKey = "evidence_categories"

// Register builds the fact-check graph and registers it under Name.
func Register(reg *workflow.Registry, lib *steps.Library, categorizer *agent.EvidenceCategorizer, synthesizer *agent.FactCheckSynthesizer, budgets workflow.Budgets) error {
	if budgets.MaxLoops <= 0 {
		budgets.MaxLoops = 2
	}
	scoped := *lib
	scoped.MaxLoops = budgets.MaxLoops
	lib = &scoped

	g := workflow.NewGraph()

	steps_ := []workflow.Step{
		lib.PlannerStep("planner"),
		lib.RetrieverStep("retrieve"),
		lib.WebSearchStep("web_search"),
		lib.AnalyzerStep("analyze"),
		lib.EvaluatorStep("evaluate", "planner", "categorize"),
		categorizeStep(categorizer),
		synthesizeStep(synthesizer),
	}
	for _, s := range steps_ {
		if err := g.AddStep(s); err != nil {
			return err
		}
	}

	if err := g.AddFanOut("planner", []string{"retrieve", "web_search"}, "analyze"); err != nil {
		return err
	}
	if err := g.AddEdge("analyze", "evaluate"); err != nil {
		return err
	}
	if err := g.AddEdge("categorize", "synthesize"); err != nil {
		return err
	}
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

func categorizeStep(categorizer *agent.EvidenceCategorizer) workflow.Step {
	return workflow.StepFunc{StepName: "categorize", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		claim := state.GetString(steps.Query)
		analyzed := notesFromState(state)

		categorized, err := categorizer.Categorize(ctx, claim, analyzed)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{categoriesKey: categorized}, "", nil
	}}
}

func synthesizeStep(synthesizer *agent.FactCheckSynthesizer) workflow.Step {
	return workflow.StepFunc{StepName: "synthesize", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		claim := state.GetString(steps.Query)
		categorized := categorizedFromState(state)

		verdict, report, err := synthesizer.Synthesize(ctx, claim, categorized)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{
			"fact_check_verdict": verdict,
			steps.FinalReport:    report,
		}, workflow.Terminal, nil
	}}
}

func notesFromState(state workflow.State) []notes.AnalyzedNote {
	v, ok := state.Get(steps.Notes)
	if !ok {
		return nil
	}
	ns, _ := v.([]notes.AnalyzedNote)
	return ns
}

func categorizedFromState(state workflow.State) []factcheck.CategorizedNote {
	v, ok := state.Get(categoriesKey)
	if !ok {
		return nil
	}
	c, _ := v.([]factcheck.CategorizedNote)
	return c
}
