// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"testing"

	"test-smith/pkg/causal"
)

func TestHypothesisValidator_Rank_ScoresAndSortsDescending(t *testing.T) {
	hypotheses := []causal.Hypothesis{
		{ID: "h1", Description: "weakly supported"},
		{ID: "h2", Description: "strongly supported"},
		{ID: "h3", Description: "moderately supported"},
	}
	checks := map[string]causal.CausalCheck{
		"h1": {HypothesisID: "h1", TemporalPrecedence: 0.2, Covariation: 0.2, MechanismPlausibility: 0.2}, // 0.008
		"h2": {HypothesisID: "h2", TemporalPrecedence: 0.9, Covariation: 0.9, MechanismPlausibility: 0.9}, // 0.729
		"h3": {HypothesisID: "h3", TemporalPrecedence: 0.6, Covariation: 0.6, MechanismPlausibility: 0.6}, // 0.216
	}

	ranked := NewHypothesisValidator().Rank(hypotheses, checks)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked hypotheses, got %d", len(ranked))
	}

	if ranked[0].Hypothesis.ID != "h2" || ranked[1].Hypothesis.ID != "h3" || ranked[2].Hypothesis.ID != "h1" {
		t.Fatalf("expected descending order h2, h3, h1, got %s, %s, %s",
			ranked[0].Hypothesis.ID, ranked[1].Hypothesis.ID, ranked[2].Hypothesis.ID)
	}

	if got, want := ranked[0].Score, 0.9*0.9*0.9; !almostEqual(got, want) {
		t.Errorf("expected top score %v, got %v", want, got)
	}
	if ranked[0].Confidence != causal.ConfidenceHigh {
		t.Errorf("expected top hypothesis labeled high confidence, got %q", ranked[0].Confidence)
	}
	if ranked[2].Confidence != causal.ConfidenceLow {
		t.Errorf("expected bottom hypothesis labeled low confidence, got %q", ranked[2].Confidence)
	}
}

func TestHypothesisValidator_Rank_SkipsHypothesesWithNoCheck(t *testing.T) {
	hypotheses := []causal.Hypothesis{
		{ID: "h1", Description: "has a check"},
		{ID: "h2", Description: "missing its check"},
	}
	checks := map[string]causal.CausalCheck{
		"h1": {HypothesisID: "h1", TemporalPrecedence: 0.5, Covariation: 0.5, MechanismPlausibility: 0.5},
	}

	ranked := NewHypothesisValidator().Rank(hypotheses, checks)
	if len(ranked) != 1 {
		t.Fatalf("expected unchecked hypothesis to be dropped, got %d ranked", len(ranked))
	}
	if ranked[0].Hypothesis.ID != "h1" {
		t.Errorf("expected the checked hypothesis to survive, got %q", ranked[0].Hypothesis.ID)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
