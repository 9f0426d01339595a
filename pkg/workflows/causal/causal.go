// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package causal builds the causal-inference workflow (spec §4.10): issue
// analyzer -> brainstormer -> evidence gathering per hypothesis -> causal
// checker -> hypothesis validator -> conditional loop (<=2 iterations) ->
// causal graph builder -> synthesizer.
package causal

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"test-smith/pkg/agent"
	"test-smith/pkg/causal"
	"test-smith/pkg/notes"
	"test-smith/pkg/steps"
	"test-smith/pkg/vectorstore"
	"test-smith/pkg/workflow"
)

// Name is the workflow's registration name.
const Name = "causal_inference"

const (
	issueKey      = "causal_issue"
	hypothesesKey = "causal_hypotheses"
	checksKey     = "causal_checks"
	rankedKey     = "causal_ranked"
	graphKey      = "causal_graph"
)

// Agents bundles the causal-inference specialized agents Register wires
// into the graph.
type Agents struct {
	IssueAnalyzer        *agent.IssueAnalyzer
	Brainstormer         *agent.Brainstormer
	EvidencePlanner      *agent.EvidencePlanner
	Checker              *agent.CausalChecker
	Validator            *agent.HypothesisValidator
	GraphBuilder         *agent.GraphBuilder
	Synthesizer          *agent.CausalSynthesizer
}

// Register builds the causal-inference graph and registers it under Name.
func Register(reg *workflow.Registry, lib *steps.Library, agents *Agents, budgets workflow.Budgets) error {
	maxLoops := budgets.MaxLoops
	if maxLoops <= 0 {
		maxLoops = 2
	}

	g := workflow.NewGraph()

	workflowSteps := []workflow.Step{
		issueAnalyzeStep(agents.IssueAnalyzer),
		brainstormStep(agents.Brainstormer),
		gatherEvidenceStep(lib, agents.EvidencePlanner, agents.Checker),
		validateStep(agents.Validator, maxLoops, "gather_evidence", "graph_build"),
		graphBuildStep(agents.GraphBuilder),
		synthesizeStep(agents.Synthesizer),
	}
	for _, s := range workflowSteps {
		if err := g.AddStep(s); err != nil {
			return err
		}
	}

	if err := g.AddEdge("issue_analyze", "brainstorm"); err != nil {
		return err
	}
	if err := g.AddEdge("brainstorm", "gather_evidence"); err != nil {
		return err
	}
	if err := g.AddEdge("gather_evidence", "validate"); err != nil {
		return err
	}
	if err := g.AddEdge("graph_build", "synthesize"); err != nil {
		return err
	}
	if err := g.SetEntry("issue_analyze"); err != nil {
		return err
	}

	return reg.Register(&workflow.Definition{
		Name:  Name,
		Graph: g,
		Schema: workflow.StateSchema{
			steps.Notes: workflow.Append,
		},
		Budgets: budgets,
	})
}

func issueAnalyzeStep(a *agent.IssueAnalyzer) workflow.Step {
	return workflow.StepFunc{StepName: "issue_analyze", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		issue, err := a.Analyze(ctx, query)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{issueKey: issue}, "", nil
	}}
}

func brainstormStep(b *agent.Brainstormer) workflow.Step {
	return workflow.StepFunc{StepName: "brainstorm", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		issue := state.GetString(issueKey)
		hypotheses, err := b.Brainstorm(ctx, issue)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{hypothesesKey: hypotheses}, "", nil
	}}
}

// gatherEvidenceStep plans, retrieves, and checks evidence for every
// brainstormed hypothesis concurrently. The hypothesis count is only known
// once brainstorm() returns, so this fans out inside one step's errgroup
// rather than as a graph-level FanOut edge (the same reasoning as the
// comparative workflow's per-cell retrieval).
func gatherEvidenceStep(lib *steps.Library, planner *agent.EvidencePlanner, checker *agent.CausalChecker) workflow.Step {
	return workflow.StepFunc{StepName: "gather_evidence", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		issue := state.GetString(issueKey)
		hypotheses := hypothesesFromState(state)
		if len(hypotheses) == 0 {
			return nil, "", fmt.Errorf("gather_evidence: no hypotheses in state")
		}

		topK := lib.TopK
		if topK <= 0 {
			topK = 5
		}

		checks := make([]causal.CausalCheck, len(hypotheses))
		noteSets := make([][]notes.AnalyzedNote, len(hypotheses))

		grp, gctx := errgroup.WithContext(ctx)
		for i, h := range hypotheses {
			i, h := i, h
			grp.Go(func() error {
				ragQueries, webQueries, err := planner.Plan(gctx, issue, h)
				if err != nil {
					return err
				}

				var docs []vectorstore.Document
				for _, q := range ragQueries {
					found, err := lib.Search(gctx, "hybrid", q, topK)
					if err != nil {
						return fmt.Errorf("hypothesis %s rag query %q: %w", h.ID, q, err)
					}
					docs = append(docs, found...)
				}
				if lib.Searcher != nil {
					for _, q := range webQueries {
						hits, err := lib.Searcher.Search(gctx, q)
						if err != nil {
							continue
						}
						for _, hit := range hits {
							docs = append(docs, vectorstore.Document{ID: hit.SourceID, Content: hit.Snippet, Metadata: map[string]interface{}{"title": hit.Title, "url": hit.URL}})
						}
					}
				}

				var evidence []notes.AnalyzedNote
				if len(docs) > 0 {
					out, err := lib.Analyzer.Analyze(gctx, h.Description, docs)
					if err != nil {
						return fmt.Errorf("hypothesis %s analysis: %w", h.ID, err)
					}
					evidence = out.Notes
				}

				check, err := checker.Check(gctx, issue, h, evidence)
				if err != nil {
					return err
				}
				checks[i] = *check
				noteSets[i] = evidence
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, "", err
		}

		var allNotes []notes.AnalyzedNote
		for _, ns := range noteSets {
			allNotes = append(allNotes, ns...)
		}

		return workflow.State{checksKey: checks, steps.Notes: allNotes}, "", nil
	}}
}

func validateStep(v *agent.HypothesisValidator, maxLoops int, loopBackTo, advanceTo string) workflow.Step {
	return workflow.StepFunc{StepName: "validate", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		hypotheses := hypothesesFromState(state)
		checks := checksFromState(state)

		byID := make(map[string]causal.CausalCheck, len(checks))
		for _, c := range checks {
			byID[c.HypothesisID] = c
		}

		ranked := v.Rank(hypotheses, byID)
		loopCount := state.GetInt(steps.LoopCount) + 1

		topHigh := len(ranked) > 0 && ranked[0].Confidence == causal.ConfidenceHigh
		if !topHigh && loopCount < maxLoops {
			return workflow.State{rankedKey: ranked, steps.LoopCount: loopCount}, loopBackTo, nil
		}
		return workflow.State{rankedKey: ranked, steps.LoopCount: loopCount}, advanceTo, nil
	}}
}

func graphBuildStep(gb *agent.GraphBuilder) workflow.Step {
	return workflow.StepFunc{StepName: "graph_build", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		issue := state.GetString(issueKey)
		ranked := rankedFromState(state)

		graph, err := gb.Build(ctx, issue, ranked)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{graphKey: graph}, "", nil
	}}
}

func synthesizeStep(s *agent.CausalSynthesizer) workflow.Step {
	return workflow.StepFunc{StepName: "synthesize", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		issue := state.GetString(issueKey)
		ranked := rankedFromState(state)
		graph := graphFromState(state)

		report, err := s.Synthesize(ctx, issue, ranked, graph)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{
			steps.FinalReport: report,
			graphKey:          graph,
		}, workflow.Terminal, nil
	}}
}

func hypothesesFromState(state workflow.State) []causal.Hypothesis {
	v, ok := state.Get(hypothesesKey)
	if !ok {
		return nil
	}
	h, _ := v.([]causal.Hypothesis)
	return h
}

func checksFromState(state workflow.State) []causal.CausalCheck {
	v, ok := state.Get(checksKey)
	if !ok {
		return nil
	}
	c, _ := v.([]causal.CausalCheck)
	return c
}

func rankedFromState(state workflow.State) []causal.ValidatedHypothesis {
	v, ok := state.Get(rankedKey)
	if !ok {
		return nil
	}
	r, _ := v.([]causal.ValidatedHypothesis)
	return r
}

func graphFromState(state workflow.State) *causal.Graph {
	v, ok := state.Get(graphKey)
	if !ok {
		return nil
	}
	g, _ := v.(*causal.Graph)
	return g
}
