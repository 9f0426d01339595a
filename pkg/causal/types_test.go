// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package causal

import "testing"

func TestLabelConfidence(t *testing.T) {
	cases := []struct {
		score float64
		want  Confidence
	}{
		{0.0, ConfidenceLow},
		{0.32, ConfidenceLow},
		{0.329999, ConfidenceLow},
		{0.33, ConfidenceMedium},
		{0.5, ConfidenceMedium},
		{0.659999, ConfidenceMedium},
		{0.66, ConfidenceHigh},
		{0.9, ConfidenceHigh},
		{1.0, ConfidenceHigh},
	}
	for _, tc := range cases {
		if got := LabelConfidence(tc.score); got != tc.want {
			t.Errorf("LabelConfidence(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestCausalCheck_Validate(t *testing.T) {
	valid := &CausalCheck{TemporalPrecedence: 0.5, Covariation: 1, MechanismPlausibility: 0}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected in-range check to validate, got %v", err)
	}

	tooHigh := &CausalCheck{TemporalPrecedence: 1.1, Covariation: 0.5, MechanismPlausibility: 0.5}
	if err := tooHigh.Validate(); err == nil {
		t.Error("expected out-of-range temporal_precedence to fail validation")
	}

	negative := &CausalCheck{TemporalPrecedence: 0.5, Covariation: -0.1, MechanismPlausibility: 0.5}
	if err := negative.Validate(); err == nil {
		t.Error("expected negative covariation to fail validation")
	}
}
