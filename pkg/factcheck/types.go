// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package factcheck holds the fact-check workflow's data model (spec
// §4.10): per-note evidence categorization and the final claim verdict.
// Grounded on pkg/notes's Analyzed Note / Evaluation Verdict shapes,
// widened with the supporting/contradicting/neutral labeling and the
// true/false/unverified claim judgment the fact-check workflow adds on top
// of the shared analyzer/evaluator steps.
package factcheck

import (
	"fmt"

	"test-smith/pkg/notes"
)

// EvidenceLabel classifies one Analyzed Note's bearing on the claim.
type EvidenceLabel string

const (
	Supporting    EvidenceLabel = "supporting"
	Contradicting EvidenceLabel = "contradicting"
	Neutral       EvidenceLabel = "neutral"
)

// CategorizedNote pairs an Analyzed Note with its evidence label and the
// categorizer's confidence in that label.
type CategorizedNote struct {
	Note       notes.AnalyzedNote
	Label      EvidenceLabel
	Confidence float32
}

// noteCategory is the structured-LLM-call shape for a single note: index
// refers back into the note list the categorizer was given.
type noteCategory struct {
	Index      int           `json:"index"`
	Label      EvidenceLabel `json:"label"`
	Confidence float32       `json:"confidence"`
}

// CategorizationOutput is the structured-LLM-call shape the evidence
// categorizer populates.
type CategorizationOutput struct {
	Categories []noteCategory `json:"categories"`
}

// Validate requires at least one category, each with a label drawn from
// the three declared evidence kinds and a confidence in [0,1]. It does not
// check that every note received a label.
func (o *CategorizationOutput) Validate() error {
	if len(o.Categories) == 0 {
		return fmt.Errorf("evidence categorization produced no labels")
	}
	for _, c := range o.Categories {
		switch c.Label {
		case Supporting, Contradicting, Neutral:
		default:
			return fmt.Errorf("evidence label %q is not one of supporting, contradicting, neutral", c.Label)
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			return fmt.Errorf("evidence confidence %f is not in [0,1]", c.Confidence)
		}
	}
	return nil
}

// Verdict is the fact-check workflow's final claim judgment.
type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictFalse      Verdict = "false"
	VerdictUnverified Verdict = "unverified"
)

// ClaimVerdict is the structured-LLM-call shape the fact-check synthesizer
// populates: an overall verdict plus a confidence score.
type ClaimVerdict struct {
	Verdict    Verdict `json:"verdict"`
	Confidence float32 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Validate enforces the verdict's output space and confidence range.
func (v *ClaimVerdict) Validate() error {
	switch v.Verdict {
	case VerdictTrue, VerdictFalse, VerdictUnverified:
	default:
		return fmt.Errorf("claim verdict %q is not one of true, false, unverified", v.Verdict)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return fmt.Errorf("claim confidence %f is not in [0,1]", v.Confidence)
	}
	return nil
}
