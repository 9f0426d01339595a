// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"fmt"
	"sort"
	"strings"

	"context"

	"test-smith/pkg/causal"
	"test-smith/pkg/llm"
	"test-smith/pkg/notes"
)

// IssueAnalyzer distills a causal-inference query into a concise issue
// statement the rest of the causal pipeline reasons over (spec §4.10's
// "issue analyzer" stage).
type IssueAnalyzer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// IssueAnalyzerConfig configures the issue analyzer agent.
type IssueAnalyzerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewIssueAnalyzer creates a new issue analyzer.
func NewIssueAnalyzer(llmProvider llm.Provider, config *IssueAnalyzerConfig) *IssueAnalyzer {
	if config == nil {
		config = &IssueAnalyzerConfig{Temperature: 0.3, MaxTokens: 400}
	}
	return &IssueAnalyzer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Analyze produces a short, neutral restatement of the observed symptom
// the query describes, stripped of any implied cause.
func (a *IssueAnalyzer) Analyze(ctx context.Context, query string) (string, error) {
	resp, err := a.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You restate an observed problem in one or two neutral sentences, describing only the symptom, not any suspected cause."},
			{Role: "user", Content: query},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("issue analysis failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// Brainstormer generates candidate causal hypotheses for an issue (spec
// §4.10: 5-8 hypotheses).
type Brainstormer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// BrainstormerConfig configures the brainstormer agent.
type BrainstormerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewBrainstormer creates a new brainstormer.
func NewBrainstormer(llmProvider llm.Provider, config *BrainstormerConfig) *Brainstormer {
	if config == nil {
		config = &BrainstormerConfig{Temperature: 0.9, MaxTokens: 1200}
	}
	return &Brainstormer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

type brainstormOutput struct {
	Hypotheses []causal.Hypothesis `json:"hypotheses"`
}

// Brainstorm produces 5-8 candidate explanations for the issue.
func (b *Brainstormer) Brainstorm(ctx context.Context, issue string) ([]causal.Hypothesis, error) {
	var out brainstormOutput
	err := llm.GenerateStructured(ctx, b.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptBrainstormer},
			{Role: "user", Content: fmt.Sprintf("Issue: %s\n\nGenerate 5 to 8 distinct candidate causes.", issue)},
		},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("brainstorming failed: %w", err)
	}
	if len(out.Hypotheses) < 5 {
		return nil, fmt.Errorf("brainstormer produced %d hypotheses, want at least 5", len(out.Hypotheses))
	}
	for i := range out.Hypotheses {
		if out.Hypotheses[i].ID == "" {
			out.Hypotheses[i].ID = fmt.Sprintf("h%d", i+1)
		}
	}
	return out.Hypotheses, nil
}

const systemPromptBrainstormer = `You brainstorm candidate root causes for an observed technical or operational issue. Produce distinct, non-overlapping hypotheses covering different plausible causal mechanisms. Respond with ONLY a JSON object:
{"hypotheses": [{"id": "h1", "description": "..."}, ...]}`

// EvidencePlanner turns one hypothesis into retrieval and web queries that
// would surface evidence confirming or refuting it.
type EvidencePlanner struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// EvidencePlannerConfig configures the evidence planner agent.
type EvidencePlannerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewEvidencePlanner creates a new evidence planner.
func NewEvidencePlanner(llmProvider llm.Provider, config *EvidencePlannerConfig) *EvidencePlanner {
	if config == nil {
		config = &EvidencePlannerConfig{Temperature: 0.5, MaxTokens: 500}
	}
	return &EvidencePlanner{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

type evidenceQueries struct {
	RAGQueries []string `json:"rag_queries"`
	WebQueries []string `json:"web_queries"`
}

// Plan produces the queries that would gather evidence about hypothesis.
func (p *EvidencePlanner) Plan(ctx context.Context, issue string, hypothesis causal.Hypothesis) (ragQueries, webQueries []string, err error) {
	var out evidenceQueries
	genErr := llm.GenerateStructured(ctx, p.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You produce 1-3 retrieval-store queries and 1-3 web-search queries that would surface evidence confirming or refuting a candidate cause of an issue. Respond with ONLY a JSON object: {\"rag_queries\": [\"...\"], \"web_queries\": [\"...\"]}"},
			{Role: "user", Content: fmt.Sprintf("Issue: %s\nCandidate cause: %s", issue, hypothesis.Description)},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}, &out)
	if genErr != nil {
		return nil, nil, fmt.Errorf("evidence planning for %s failed: %w", hypothesis.ID, genErr)
	}
	return out.RAGQueries, out.WebQueries, nil
}

// CausalChecker scores one hypothesis against gathered evidence on three
// attributes (spec §4.10): temporal precedence, covariation, mechanism
// plausibility, each in [0,1].
type CausalChecker struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// CausalCheckerConfig configures the causal checker agent.
type CausalCheckerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewCausalChecker creates a new causal checker.
func NewCausalChecker(llmProvider llm.Provider, config *CausalCheckerConfig) *CausalChecker {
	if config == nil {
		config = &CausalCheckerConfig{Temperature: 0.2, MaxTokens: 600}
	}
	return &CausalChecker{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Check scores hypothesis against the supplied analyzed notes.
func (c *CausalChecker) Check(ctx context.Context, issue string, hypothesis causal.Hypothesis, evidence []notes.AnalyzedNote) (*causal.CausalCheck, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Issue: %s\nCandidate cause: %s\n\nEvidence:\n", issue, hypothesis.Description)
	for _, n := range evidence {
		fmt.Fprintf(&b, "- %s\n", n.Summary)
	}
	b.WriteString("\nScore this candidate cause against the evidence on three attributes, each in [0,1]: temporal_precedence (did the cause precede the symptom), covariation (does the cause's presence/absence track the symptom's), mechanism_plausibility (is there a plausible mechanism linking them). Respond with ONLY a JSON object:\n{\"temporal_precedence\": 0.0, \"covariation\": 0.0, \"mechanism_plausibility\": 0.0, \"rationale\": \"...\"}")

	var out causal.CausalCheck
	err := llm.GenerateStructured(ctx, c.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a rigorous causal-evidence assessor. Score strictly from the supplied evidence; do not assume a cause is correct."},
			{Role: "user", Content: b.String()},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("causal check for %s failed: %w", hypothesis.ID, err)
	}
	out.HypothesisID = hypothesis.ID
	if verr := out.Validate(); verr != nil {
		return nil, verr
	}
	return &out, nil
}

// HypothesisValidator ranks hypotheses by the product of their three
// causal-check attributes (spec §4.10) and assigns a confidence label.
// Pure arithmetic; no LLM call, since the ranking rule is exact and
// deterministic once the checker's scores exist.
type HypothesisValidator struct{}

// NewHypothesisValidator creates a new hypothesis validator.
func NewHypothesisValidator() *HypothesisValidator {
	return &HypothesisValidator{}
}

// Rank scores and sorts hypotheses by descending score.
func (v *HypothesisValidator) Rank(hypotheses []causal.Hypothesis, checks map[string]causal.CausalCheck) []causal.ValidatedHypothesis {
	ranked := make([]causal.ValidatedHypothesis, 0, len(hypotheses))
	for _, h := range hypotheses {
		check, ok := checks[h.ID]
		if !ok {
			continue
		}
		score := check.TemporalPrecedence * check.Covariation * check.MechanismPlausibility
		ranked = append(ranked, causal.ValidatedHypothesis{
			Hypothesis: h,
			Check:      check,
			Score:      score,
			Confidence: causal.LabelConfidence(score),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// GraphBuilder turns the ranked hypotheses into the causal graph the
// workflow emits (spec §4.10): a symptom node, one node per hypothesis,
// and LLM-assessed relation edges between them.
type GraphBuilder struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// GraphBuilderConfig configures the causal graph builder agent.
type GraphBuilderConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewGraphBuilder creates a new causal graph builder.
func NewGraphBuilder(llmProvider llm.Provider, config *GraphBuilderConfig) *GraphBuilder {
	if config == nil {
		config = &GraphBuilderConfig{Temperature: 0.2, MaxTokens: 800}
	}
	return &GraphBuilder{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

type graphEdgesOutput struct {
	Edges []causal.Edge `json:"edges"`
}

// Build assembles the causal graph: nodes are derived directly from the
// validated hypotheses (scores already computed, not re-derived by the
// LLM); only the relation edges between the symptom and each hypothesis
// are LLM-assessed.
func (gb *GraphBuilder) Build(ctx context.Context, issue string, ranked []causal.ValidatedHypothesis) (*causal.Graph, error) {
	const symptomID = "symptom"

	nodes := []causal.Node{{ID: symptomID, Kind: causal.NodeSymptom, Label: issue, Score: 1.0}}
	var b strings.Builder
	fmt.Fprintf(&b, "Symptom: %s\n\nCandidate causes:\n", issue)
	for _, rh := range ranked {
		nodes = append(nodes, causal.Node{ID: rh.Hypothesis.ID, Kind: causal.NodeHypothesis, Label: rh.Hypothesis.Description, Score: rh.Score})
		fmt.Fprintf(&b, "- %s (%s): %s [confidence=%s]\n", rh.Hypothesis.ID, rh.Hypothesis.ID, rh.Hypothesis.Description, rh.Confidence)
	}
	b.WriteString(fmt.Sprintf("\nFor each candidate cause, emit one edge from its id to %q classifying the relation as one of causes, correlates_with, contradicts, with a strength in [0,1] reflecting how strongly the evidence supports that relation. Respond with ONLY a JSON object:\n{\"edges\": [{\"source_id\": \"h1\", \"target_id\": %q, \"relation\": \"causes\", \"strength\": 0.0}]}", symptomID, symptomID))

	var out graphEdgesOutput
	err := llm.GenerateStructured(ctx, gb.llm, &llm.StructuredRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You classify causal relations between candidate causes and an observed symptom, grounded only in the confidence levels and descriptions supplied."},
			{Role: "user", Content: b.String()},
		},
		Temperature: gb.temperature,
		MaxTokens:   gb.maxTokens,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("causal graph edge assessment failed: %w", err)
	}
	if len(out.Edges) == 0 {
		return nil, fmt.Errorf("causal graph builder produced no edges")
	}

	return &causal.Graph{Nodes: nodes, Edges: out.Edges}, nil
}

// CausalSynthesizer produces the causal-inference workflow's final report:
// the ranked hypotheses, the causal graph, and a conclusion naming the top
// candidate cause.
type CausalSynthesizer struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// CausalSynthesizerConfig configures the causal synthesizer agent.
type CausalSynthesizerConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewCausalSynthesizer creates a new causal synthesizer.
func NewCausalSynthesizer(llmProvider llm.Provider, config *CausalSynthesizerConfig) *CausalSynthesizer {
	if config == nil {
		config = &CausalSynthesizerConfig{Temperature: 0.4, MaxTokens: 2000}
	}
	return &CausalSynthesizer{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Synthesize writes the Markdown report: ranked hypotheses with their
// attribute scores and confidence, the causal graph, and a conclusion.
func (s *CausalSynthesizer) Synthesize(ctx context.Context, issue string, ranked []causal.ValidatedHypothesis, graph *causal.Graph) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Issue: %s\n\nRanked candidate causes:\n", issue)
	for _, rh := range ranked {
		fmt.Fprintf(&b, "- %s [score=%.2f confidence=%s] temporal_precedence=%.2f covariation=%.2f mechanism_plausibility=%.2f\n  %s\n  rationale: %s\n",
			rh.Hypothesis.Description, rh.Score, rh.Confidence, rh.Check.TemporalPrecedence, rh.Check.Covariation, rh.Check.MechanismPlausibility, rh.Hypothesis.ID, rh.Check.Rationale)
	}
	if graph != nil {
		b.WriteString("\nCausal graph edges:\n")
		for _, e := range graph.Edges {
			fmt.Fprintf(&b, "- %s --%s(%.2f)--> %s\n", e.SourceID, e.Relation, e.Strength, e.TargetID)
		}
	}
	b.WriteString("\nWrite a Markdown report: a ranked list of candidate causes with their scores and confidence labels, a short description of the causal graph, and a concluding paragraph naming the top-ranked candidate cause and why the evidence supports it.")

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You write causal-inference reports: ranked candidate causes with their evidence scores, a causal graph summary, and a conclusion naming the most likely cause."},
			{Role: "user", Content: b.String()},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("causal synthesis failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
