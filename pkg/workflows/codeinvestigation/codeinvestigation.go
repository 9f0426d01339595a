// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package codeinvestigation builds the code-investigation workflow (spec
// §4.10): query-analyzer classifies intent, a code retriever fetches from
// a code collection, the dependency analyzer and flow tracker run in
// parallel over the same retrieved chunks, and the synthesizer emits a
// structured, file-region-cited report.
package codeinvestigation

import (
	"context"
	"fmt"

	"test-smith/pkg/agent"
	"test-smith/pkg/codeinvestigation"
	"test-smith/pkg/retrieval"
	"test-smith/pkg/steps"
	"test-smith/pkg/vectorstore"
	"test-smith/pkg/workflow"
)

// Name is the workflow's registration name.
const Name = "code_investigation"

const (
	intentKey     = "code_intent"
	docsKey       = "code_docs"
	dependencyKey = "dependency_findings"
	flowKey       = "flow_findings"
)

// Agents bundles the code-investigation specialized agents Register wires
// into the graph.
type Agents struct {
	QueryAnalyzer       *agent.QueryAnalyzer
	DependencyAnalyzer  *agent.DependencyAnalyzer
	FlowTracker         *agent.FlowTracker
	Synthesizer         *agent.CodeInvestigationSynthesizer
}

// Register builds the code-investigation graph and registers it under
// Name. codeRetriever searches a code-specific collection, distinct from
// the document knowledge base pkg/steps.Library's RetrieverStep searches.
func Register(reg *workflow.Registry, codeRetriever *retrieval.HybridRetriever, agents *Agents, topK int, budgets workflow.Budgets) error {
	if topK <= 0 {
		topK = 8
	}

	g := workflow.NewGraph()

	workflowSteps := []workflow.Step{
		queryAnalyzeStep(agents.QueryAnalyzer),
		codeRetrieveStep(codeRetriever, topK),
		dependencyAnalyzeStep(agents.DependencyAnalyzer),
		flowTrackerStep(agents.FlowTracker),
		synthesizeStep(agents.Synthesizer),
	}
	for _, s := range workflowSteps {
		if err := g.AddStep(s); err != nil {
			return err
		}
	}

	if err := g.AddEdge("query_analyze", "code_retrieve"); err != nil {
		return err
	}
	if err := g.AddFanOut("code_retrieve", []string{"dependency_analyze", "flow_tracker"}, "synthesize"); err != nil {
		return err
	}
	if err := g.SetEntry("query_analyze"); err != nil {
		return err
	}

	return reg.Register(&workflow.Definition{
		Name:    Name,
		Graph:   g,
		Schema:  workflow.StateSchema{},
		Budgets: budgets,
	})
}

func queryAnalyzeStep(a *agent.QueryAnalyzer) workflow.Step {
	return workflow.StepFunc{StepName: "query_analyze", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		intent, err := a.Classify(ctx, query)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{intentKey: intent}, "", nil
	}}
}

func codeRetrieveStep(retriever *retrieval.HybridRetriever, topK int) workflow.Step {
	return workflow.StepFunc{StepName: "code_retrieve", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		docs, err := retriever.Search(ctx, query, topK, nil)
		if err != nil {
			return nil, "", fmt.Errorf("code retrieval failed: %w", err)
		}
		return workflow.State{docsKey: docs}, "", nil
	}}
}

func dependencyAnalyzeStep(a *agent.DependencyAnalyzer) workflow.Step {
	return workflow.StepFunc{StepName: "dependency_analyze", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		docs := docsFromState(state)
		findings, err := a.Analyze(ctx, query, docs)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{dependencyKey: findings}, "", nil
	}}
}

func flowTrackerStep(t *agent.FlowTracker) workflow.Step {
	return workflow.StepFunc{StepName: "flow_tracker", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		docs := docsFromState(state)
		findings, err := t.Analyze(ctx, query, docs)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{flowKey: findings}, "", nil
	}}
}

func synthesizeStep(s *agent.CodeInvestigationSynthesizer) workflow.Step {
	return workflow.StepFunc{StepName: "synthesize", Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(steps.Query)
		intent := intentFromState(state)
		dependency := dependencyFromState(state)
		flow := flowFromState(state)

		report, err := s.Synthesize(ctx, query, intent, dependency, flow)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{steps.FinalReport: report}, workflow.Terminal, nil
	}}
}

func docsFromState(state workflow.State) []vectorstore.Document {
	v, ok := state.Get(docsKey)
	if !ok {
		return nil
	}
	docs, _ := v.([]vectorstore.Document)
	return docs
}

func intentFromState(state workflow.State) codeinvestigation.Intent {
	v, ok := state.Get(intentKey)
	if !ok {
		return ""
	}
	intent, _ := v.(codeinvestigation.Intent)
	return intent
}

func dependencyFromState(state workflow.State) *codeinvestigation.FindingSet {
	v, ok := state.Get(dependencyKey)
	if !ok {
		return &codeinvestigation.FindingSet{}
	}
	fs, _ := v.(*codeinvestigation.FindingSet)
	if fs == nil {
		return &codeinvestigation.FindingSet{}
	}
	return fs
}

func flowFromState(state workflow.State) *codeinvestigation.FindingSet {
	v, ok := state.Get(flowKey)
	if !ok {
		return &codeinvestigation.FindingSet{}
	}
	fs, _ := v.(*codeinvestigation.FindingSet)
	if fs == nil {
		return &codeinvestigation.FindingSet{}
	}
	return fs
}
