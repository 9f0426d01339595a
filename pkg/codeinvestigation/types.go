// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package codeinvestigation holds the code-investigation workflow's data
// model (spec §4.10): the classified query intent and the structured,
// file-region-cited findings the dependency and flow analyses produce.
package codeinvestigation

import "fmt"

// Intent is the query-analyzer's classification of what the query is
// asking about.
type Intent string

const (
	IntentDependency     Intent = "dependency"
	IntentFlow           Intent = "flow"
	IntentUsage          Intent = "usage"
	IntentArchitecture   Intent = "architecture"
	IntentImplementation Intent = "implementation"
)

var validIntents = map[Intent]bool{
	IntentDependency: true, IntentFlow: true, IntentUsage: true,
	IntentArchitecture: true, IntentImplementation: true,
}

// IntentClassification is the query-analyzer's structured-LLM-call output.
type IntentClassification struct {
	Intent Intent `json:"intent"`
}

// Validate rejects any intent outside the fixed classification set.
func (c *IntentClassification) Validate() error {
	if !validIntents[c.Intent] {
		return fmt.Errorf("unrecognized code-investigation intent %q", c.Intent)
	}
	return nil
}

// CitedRegion names a specific file region a finding is grounded on.
type CitedRegion struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// Finding is one structured observation from either the dependency or flow
// analysis, grounded in one or more cited code regions.
type Finding struct {
	Description string        `json:"description"`
	Regions     []CitedRegion `json:"regions"`
}

// Validate enforces the "cited file regions" contract: a finding with no
// region is an unfounded claim.
func (f *Finding) Validate() error {
	if len(f.Regions) == 0 {
		return fmt.Errorf("finding %q cites no file regions", f.Description)
	}
	return nil
}

// FindingSet is the structured-LLM-call shape both the dependency analyzer
// and the flow tracker emit.
type FindingSet struct {
	Findings []Finding `json:"findings"`
}

// Validate requires at least one finding.
func (s *FindingSet) Validate() error {
	if len(s.Findings) == 0 {
		return fmt.Errorf("analysis produced no findings")
	}
	return nil
}
