// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package notes holds the Analyzed Note and Evaluation Verdict data
// model: the summarized evidence units the analyzer produces, and the
// sufficiency judgment the evaluator produces from them. Grounded on the
// teacher's pkg/agent.Reflector summary/key-findings shape, widened to
// carry explicit source provenance (spec §3/§4.5 require this; the
// teacher's reflector dropped provenance entirely).
package notes

import "fmt"

// AnalyzedNote is a summarized synthesis unit produced from combined
// retrieval and web results. SourceIDs records every source_id the note
// consumed so downstream synthesis can cite it; Conflict is set when the
// analyzer found contradictory inputs it declined to resolve.
type AnalyzedNote struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	SourceIDs []string `json:"source_ids"`
	Conflict  string   `json:"conflict,omitempty"`
}

// Validate enforces the "must not drop source provenance" contract: every
// note must carry at least one source id.
func (n *AnalyzedNote) Validate() error {
	if len(n.SourceIDs) == 0 {
		return fmt.Errorf("analyzed note carries no source ids")
	}
	return nil
}

// AnalyzerOutput is the structured-LLM-call shape: the analyzer may emit
// more than one note per invocation (e.g. one per distinct sub-topic).
type AnalyzerOutput struct {
	Notes []AnalyzedNote `json:"notes"`
}

// Validate requires at least one note; per-note source ids are not
// checked here (the analyzer in pkg/agent/analyzer.go lists the available
// source ids in its prompt and asks the LLM to cite only those).
func (o *AnalyzerOutput) Validate() error {
	if len(o.Notes) == 0 {
		return fmt.Errorf("analyzer produced no notes")
	}
	return nil
}

// EvaluationVerdict is the evaluator's sufficiency judgment.
type EvaluationVerdict struct {
	Sufficient         bool     `json:"sufficient"`
	Reason             string   `json:"reason"`
	RecommendedFollowUps []string `json:"recommended_follow_ups,omitempty"`
}

// Validate enforces that a verdict always carries a reason; this spec
// formalizes a typed verdict so no step ever falls back to substring
// matching a sentinel string in free text (spec §9 open question).
func (v *EvaluationVerdict) Validate() error {
	if v.Reason == "" {
		return fmt.Errorf("evaluation verdict has no reason")
	}
	return nil
}
