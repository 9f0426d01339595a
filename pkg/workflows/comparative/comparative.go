// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package comparative builds the comparative workflow (spec §4.10): the
// planner extracts items and criteria, retrieval fans out one sub-query
// per (item, criterion) pair, the analyzer builds an item x criterion
// matrix, and the synthesizer produces the matrix plus a recommendation.
//
// The item/criterion count is only known once the planner's LLM call
// returns, so the per-pair fan-out runs as one step's internal errgroup
// (the same concurrency idiom workflow.Engine's own FanOut uses) rather
// than as a graph-level FanOut edge, which requires its branch step names
// fixed at graph-build time.
package comparative

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"test-smith/pkg/agent"
	"test-smith/pkg/comparative"
	"test-smith/pkg/steps"
	"test-smith/pkg/workflow"
)

const (
	planKey   = "comparison_plan"
	matrixKey = "comparison_matrix"
)

// Name is the workflow's registration name.
const Name = "comparative"

// Register builds the comparative graph and registers it under Name.
func Register(reg *workflow.Registry, lib *steps.Library, planner *agent.ComparativePlanner, synthesizer *agent.ComparativeSynthesizer, budgets workflow.Budgets) error {
	g := workflow.NewGraph()

	workflowSteps := []workflow.Step{
		plannerStep(planner),
		retrieveMatrixStep(lib),
		synthesizeStep(synthesizer),
	}
	for _, s := range workflowSteps {
		if err := g.AddStep(s); err != nil {
			return err
		}
	}

	if err := g.AddEdge("planner", "retrieve_matrix"); err != nil {
		return err
	}
	if err := g.AddEdge("retrieve_matrix", "synthesize"); err != nil {
		return err
	}
	if err := g.SetEntry("planner"); err != nil {
		return err
	}

	return reg.Register(&workflow.Definition{
		Name:    Name,
		Graph:   g,
		Schema:  workflow.StateSchema{},
		Budgets: budgets,
	})
}

func plannerStep(planner *agent.ComparativePlanner) workflow.Step {
	return workflow.StepFunc{StepName: "planner", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		plan, err := planner.Plan(ctx, query)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{planKey: plan}, "", nil
	}}
}

func retrieveMatrixStep(lib *steps.Library) workflow.Step {
	return workflow.StepFunc{StepName: "retrieve_matrix", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		plan := planFromState(state)
		if plan == nil {
			return nil, "", fmt.Errorf("retrieve_matrix: no comparison plan in state")
		}

		topK := lib.TopK
		if topK <= 0 {
			topK = 5
		}

		type pair struct{ item, criterion string }
		var pairs []pair
		for _, item := range plan.Items {
			for _, crit := range plan.Criteria {
				pairs = append(pairs, pair{item, crit})
			}
		}

		cells := make(comparative.Matrix, len(pairs))
		grp, gctx := errgroup.WithContext(ctx)
		for i, pr := range pairs {
			i, pr := i, pr
			grp.Go(func() error {
				cellQuery := fmt.Sprintf("%s: %s", pr.item, pr.criterion)
				docs, err := lib.Search(gctx, "hybrid", cellQuery, topK)
				if err != nil {
					return fmt.Errorf("retrieving %s/%s: %w", pr.item, pr.criterion, err)
				}
				output, err := lib.Analyzer.Analyze(gctx, cellQuery, docs)
				if err != nil {
					return fmt.Errorf("analyzing %s/%s: %w", pr.item, pr.criterion, err)
				}
				cells[i] = comparative.Cell{Item: pr.item, Criterion: pr.criterion, Notes: output.Notes}
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, "", err
		}

		sort.SliceStable(cells, func(i, j int) bool {
			if cells[i].Item != cells[j].Item {
				return cells[i].Item < cells[j].Item
			}
			return cells[i].Criterion < cells[j].Criterion
		})

		return workflow.State{matrixKey: cells}, "", nil
	}}
}

func synthesizeStep(synthesizer *agent.ComparativeSynthesizer) workflow.Step {
	return workflow.StepFunc{StepName: "synthesize", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		plan := planFromState(state)
		matrix := matrixFromState(state)

		report, err := synthesizer.Synthesize(ctx, query, plan, matrix)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{steps.FinalReport: report}, workflow.Terminal, nil
	}}
}

func planFromState(state workflow.State) *comparative.ComparisonPlan {
	v, _ := state.Get(planKey)
	p, _ := v.(*comparative.ComparisonPlan)
	return p
}

func matrixFromState(state workflow.State) comparative.Matrix {
	v, _ := state.Get(matrixKey)
	m, _ := v.(comparative.Matrix)
	return m
}
