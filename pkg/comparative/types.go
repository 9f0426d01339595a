// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package comparative holds the comparative workflow's data model (spec
// §4.10): the extracted item/criterion comparison plan and the resulting
// item x criterion matrix.
package comparative

import (
	"fmt"

	"test-smith/pkg/notes"
)

// ComparisonPlan is the planner's extraction of the comparable items and
// the criteria to compare them on.
type ComparisonPlan struct {
	Items    []string `json:"items"`
	Criteria []string `json:"criteria"`
}

// Validate enforces the "N >= 2 comparable items" contract; criteria must
// be non-empty or there is nothing to compare on.
func (p *ComparisonPlan) Validate() error {
	if len(p.Items) < 2 {
		return fmt.Errorf("comparison plan has %d items, want at least 2", len(p.Items))
	}
	if len(p.Criteria) == 0 {
		return fmt.Errorf("comparison plan has no criteria")
	}
	return nil
}

// Cell is one (item, criterion) intersection's gathered evidence.
type Cell struct {
	Item      string
	Criterion string
	Notes     []notes.AnalyzedNote
}

// Matrix is the full item x criterion comparison, one Cell per pair.
type Matrix []Cell
