// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package steps

import (
	"context"
	"fmt"

	"test-smith/pkg/agent"
	"test-smith/pkg/notes"
	"test-smith/pkg/planning"
	"test-smith/pkg/retrieval"
	"test-smith/pkg/vectorstore"
	"test-smith/pkg/websearch"
	"test-smith/pkg/workflow"
)

// Library wires the agent package's LLM-calling structs and the retrieval
// strategies into workflow.Step implementations shared by every linear
// (non-hierarchical) workflow. Grounded on the teacher's pkg/nodes adapter
// pattern, generalized from the teacher's one fixed graph to any workflow
// that wants this step set under any step names.
type Library struct {
	Planner     *agent.StrategicPlanner
	Supervisor  *agent.Supervisor
	Retriever   *agent.Retriever // used for knowledge-base status only
	Rewriter    *agent.Rewriter  // optional; rewrites rag queries before retrieval
	Reranker    *agent.Reranker  // optional; trims combined results before analysis
	VectorRet   *retrieval.VectorRetriever
	KeywordRet  *retrieval.KeywordRetriever
	HybridRet   *retrieval.HybridRetriever
	Searcher    websearch.Searcher
	Analyzer    *agent.Analyzer
	Evaluator   *agent.Evaluator
	Synthesizer *agent.Synthesizer

	Collection string
	TopK       int
	MaxLoops   int
}

// PlannerStep builds the strategic planner step (spec §4.3). name lets the
// same library back both the top-level planner and a hierarchical
// subtask's per-question planner under a distinct step name.
func (lib *Library) PlannerStep(name string) workflow.Step {
	return workflow.StepFunc{StepName: name, Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(Query)
		feedback := state.GetString(Feedback)

		kb := agent.KnowledgeBaseStatus{Collection: lib.Collection}
		if lib.Retriever != nil {
			total, titles, err := lib.Retriever.CollectionStatus(ctx)
			if err == nil {
				kb.TotalChunks = total
				kb.SampleTitles = titles
			}
		}

		plan, err := lib.Planner.Plan(ctx, query, feedback, kb)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{Plan: plan, Feedback: ""}, "", nil
	}}
}

// RetrieverStep builds the retriever step (spec §4.4): for each rag query,
// requests top-k documents using the strategy the supervisor selects, and
// appends to rag_results. A nil or empty rag_queries list performs zero
// external calls and still returns an (empty) update.
func (lib *Library) RetrieverStep(name string) workflow.Step {
	return workflow.StepFunc{StepName: name, Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		plan, ok := planFromState(state)
		if !ok || len(plan.RAGQueries) == 0 {
			return workflow.State{RAGResults: []retrieval.Result{}}, "", nil
		}

		strategy, err := lib.Supervisor.SelectStrategy(ctx, plan.RAGQueries[0])
		if err != nil {
			strategy = "hybrid"
		}

		topK := lib.TopK
		if topK <= 0 {
			topK = 5
		}

		var results []retrieval.Result
		for _, q := range plan.RAGQueries {
			effective := q
			if lib.Rewriter != nil {
				if rewritten, err := lib.Rewriter.Rewrite(ctx, q, state.GetString(Feedback)); err == nil {
					effective = rewritten
				}
			}
			docs, err := lib.search(ctx, strategy, effective, topK)
			if err != nil {
				return nil, "", fmt.Errorf("retrieval query %q failed: %w", q, err)
			}
			results = append(results, retrieval.FromDocuments(docs)...)
		}
		retrieval.SortDescending(results)

		return workflow.State{RAGResults: results, Strategy: strategy}, "", nil
	}}
}

// Search performs a single ad hoc retrieval call using the named strategy
// ("vector"|"keyword"|"hybrid"), for workflows that need retrieval outside
// the shared RetrieverStep's rag_queries loop (comparative's per-cell
// lookups, code-investigation's code retriever).
func (lib *Library) Search(ctx context.Context, strategy, query string, topK int) ([]vectorstore.Document, error) {
	return lib.search(ctx, strategy, query, topK)
}

func (lib *Library) search(ctx context.Context, strategy, query string, topK int) ([]vectorstore.Document, error) {
	switch strategy {
	case "vector":
		return lib.VectorRet.Search(ctx, query, topK, nil)
	case "keyword":
		return lib.KeywordRet.Search(ctx, query, topK, nil)
	default:
		return lib.HybridRet.Search(ctx, query, topK, nil)
	}
}

// WebSearchStep builds the web-search step (spec §4.4). Provider fallback
// and the single retry per provider live in websearch.ChainSearcher; on
// total exhaustion this step appends the "web_search_unavailable" sentinel
// note rather than failing the run.
func (lib *Library) WebSearchStep(name string) workflow.Step {
	return workflow.StepFunc{StepName: name, Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		plan, ok := planFromState(state)
		if !ok || len(plan.WebQueries) == 0 || lib.Searcher == nil {
			return workflow.State{WebResults: []retrieval.Result{}}, "", nil
		}

		var results []retrieval.Result
		for _, q := range plan.WebQueries {
			hits, err := lib.Searcher.Search(ctx, q)
			if err != nil {
				results = append(results, retrieval.Result{
					Text:     fmt.Sprintf("web search unavailable: %v", err),
					SourceID: "web_search_unavailable",
					Score:    0,
					Metadata: map[string]interface{}{"sentinel": true, "query": q},
				})
				continue
			}
			results = append(results, webResultsToRetrievalResults(hits)...)
		}
		retrieval.SortDescending(results)

		return workflow.State{WebResults: results}, "", nil
	}}
}

// AnalyzerStep builds the analyzer step (spec §4.5), reconciling the
// accumulated rag_results and search_results into Analyzed Notes.
func (lib *Library) AnalyzerStep(name string) workflow.Step {
	return workflow.StepFunc{StepName: name, Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(Query)
		all := append(resultsFromState(state, RAGResults), resultsFromState(state, WebResults)...)
		if len(all) == 0 {
			return workflow.State{Notes: []notes.AnalyzedNote{}}, "", nil
		}

		docs := resultsToDocuments(all)
		if lib.Reranker != nil {
			docs = lib.Reranker.Rerank(ctx, query, docs)
		}

		output, err := lib.Analyzer.Analyze(ctx, query, docs)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{Notes: output.Notes}, "", nil
	}}
}

// EvaluatorStep builds the evaluator step and its downstream router (spec
// §4.6): route to synthesize when sufficient or loop_count has reached
// MaxLoops, otherwise back to the planner with the verdict's reason as
// feedback.
func (lib *Library) EvaluatorStep(name, plannerStep, synthesizerStep string) workflow.Step {
	maxLoops := lib.MaxLoops
	if maxLoops <= 0 {
		maxLoops = 2
	}
	return workflow.StepFunc{StepName: name, Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(Query)
		analyzed := notesFromState(state)

		verdict, err := lib.Evaluator.Evaluate(ctx, query, analyzed)
		if err != nil {
			return nil, "", err
		}
		loopCount := state.GetInt(LoopCount) + 1

		if verdict.Sufficient || loopCount >= maxLoops {
			return workflow.State{Verdict: verdict, LoopCount: loopCount}, synthesizerStep, nil
		}
		return workflow.State{Verdict: verdict, LoopCount: loopCount, Feedback: verdict.Reason}, plannerStep, nil
	}}
}

// SynthesizerStep builds the terminal synthesizer step (spec §4.7).
func (lib *Library) SynthesizerStep(name string) workflow.Step {
	return workflow.StepFunc{StepName: name, Fn: func(ctx context.Context, state workflow.State) (workflow.State, string, error) {
		query := state.GetString(Query)
		analyzed := notesFromState(state)

		report, err := lib.Synthesizer.Synthesize(ctx, query, analyzed, nil)
		if err != nil {
			return nil, "", err
		}
		return workflow.State{FinalReport: report}, workflow.Terminal, nil
	}}
}

func planFromState(state workflow.State) (*planning.AllocationPlan, bool) {
	v, ok := state.Get(Plan)
	if !ok {
		return nil, false
	}
	plan, ok := v.(*planning.AllocationPlan)
	return plan, ok
}

func resultsFromState(state workflow.State, key string) []retrieval.Result {
	v, ok := state.Get(key)
	if !ok {
		return nil
	}
	results, _ := v.([]retrieval.Result)
	return results
}

func notesFromState(state workflow.State) []notes.AnalyzedNote {
	v, ok := state.Get(Notes)
	if !ok {
		return nil
	}
	ns, _ := v.([]notes.AnalyzedNote)
	return ns
}

func resultsToDocuments(results []retrieval.Result) []vectorstore.Document {
	docs := make([]vectorstore.Document, len(results))
	for i, r := range results {
		docs[i] = vectorstore.Document{ID: r.SourceID, Content: r.Text, Score: r.Score, Metadata: r.Metadata}
	}
	return docs
}

func webResultsToRetrievalResults(hits []websearch.Result) []retrieval.Result {
	out := make([]retrieval.Result, len(hits))
	for i, h := range hits {
		out[i] = retrieval.Result{
			Text:     h.Snippet,
			SourceID: h.SourceID,
			Score:    float32(len(hits)-i) / float32(len(hits)),
			Metadata: map[string]interface{}{"title": h.Title, "url": h.URL},
		}
	}
	return out
}
