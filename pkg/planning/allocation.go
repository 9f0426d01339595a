// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package planning holds the data model the strategic planner and the
// hierarchical master planner produce: Allocation Plans, Subtasks, Master
// Plans, and Plan Revisions. Shapes are grounded on the teacher's
// pkg/workflow.Plan/PlanStep, adapted from a single linear plan with
// integer-index dependencies to the query-allocation and subtask-tree
// shapes the step library consumes.
package planning

import "fmt"

// AllocationPlan is the strategic planner's split of a query between the
// retrieval-augmented store and the web searcher.
type AllocationPlan struct {
	RAGQueries []string `json:"rag_queries"`
	WebQueries []string `json:"web_queries"`
	Strategy   string   `json:"strategy"`
}

// Validate enforces the 0-5 items per query list invariant from the
// strategic planner's contract; it is called by llm.GenerateStructured
// when the planner step asks for a schema-validated AllocationPlan.
func (p *AllocationPlan) Validate() error {
	if len(p.RAGQueries) > 5 {
		return fmt.Errorf("rag_queries has %d items, max 5", len(p.RAGQueries))
	}
	if len(p.WebQueries) > 5 {
		return fmt.Errorf("web_queries has %d items, max 5", len(p.WebQueries))
	}
	return nil
}

// SubtaskStatus is the lifecycle state of a Subtask. Transitions are
// monotonic: pending -> in_progress -> (completed | failed), never regress.
type SubtaskStatus string

const (
	SubtaskPending    SubtaskStatus = "pending"
	SubtaskInProgress SubtaskStatus = "in_progress"
	SubtaskCompleted  SubtaskStatus = "completed"
	SubtaskFailed     SubtaskStatus = "failed"
)

// Subtask is a child investigation unit within a hierarchical plan.
type Subtask struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Question string        `json:"question"`
	ParentID string        `json:"parent_id,omitempty"`
	Depth    int           `json:"depth"`
	Status   SubtaskStatus `json:"status"`
}

// MasterPlan is the ordered sequence of Subtasks: the master planner's
// top-level subtasks followed by the drill-down children and revision
// additions the executor appends, plus the running total of subtasks
// created (all of these).
type MasterPlan struct {
	Subtasks     []*Subtask `json:"subtasks"`
	TotalCreated int        `json:"total_created"`
}

// RevisionTrigger names why a Plan Revision was emitted.
type RevisionTrigger string

const (
	TriggerNewTopic     RevisionTrigger = "new_topic"
	TriggerContradiction RevisionTrigger = "contradiction"
	TriggerGap          RevisionTrigger = "gap"
)

// PlanRevision is an append-only adjustment to the Master Plan. The
// "effective plan" at any point in time is the original plan with every
// revision's AddedSubtasks applied in order (spec §9: dynamic replanning
// re-architected away from in-place mutation into an auditable append-only
// log).
type PlanRevision struct {
	RevisionID    string          `json:"revision_id"`
	Trigger       RevisionTrigger `json:"trigger"`
	AddedSubtasks []*Subtask      `json:"added_subtasks"`
	Rationale     string          `json:"rationale"`
}

// MasterClassification is the master planner's mode decision.
type MasterClassification struct {
	Mode       string     `json:"mode"` // "simple" or "hierarchical"
	Subtasks   []Subtask  `json:"subtasks"`
	Reasoning  string     `json:"reasoning"`
}

// Validate enforces the master planner's output-space contract: mode must
// be one of the two declared values, and a hierarchical classification
// must decompose into 2-6 top-level subtasks.
func (m *MasterClassification) Validate() error {
	switch m.Mode {
	case "simple":
		return nil
	case "hierarchical":
		if len(m.Subtasks) < 2 || len(m.Subtasks) > 6 {
			return fmt.Errorf("hierarchical decomposition has %d subtasks, want 2-6", len(m.Subtasks))
		}
		return nil
	default:
		return fmt.Errorf("mode %q is not one of simple, hierarchical", m.Mode)
	}
}

// DepthClassification is the depth evaluator's judgment of a completed
// subtask's result.
type DepthClassification string

const (
	DepthShallow  DepthClassification = "shallow"
	DepthAdequate DepthClassification = "adequate"
	DepthDeep     DepthClassification = "deep"
)
