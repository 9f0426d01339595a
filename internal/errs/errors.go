// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package errs defines the error taxonomy shared by the workflow engine,
// the step library, and the preprocessing pipeline. Errors are kinds, not
// sentinel instances of a single type, so callers can carry step-specific
// context while still matching on kind with errors.As/errors.Is.
package errs

import "fmt"

// ConfigurationError indicates a missing credential or an unknown workflow
// name. Never retried; surfaced directly to the caller.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// WorkflowNotFound indicates the registry has no workflow with the given name.
type WorkflowNotFound struct {
	Name string
}

func (e *WorkflowNotFound) Error() string {
	return fmt.Sprintf("workflow not found: %s", e.Name)
}

// WorkflowConflict indicates a workflow name is already registered with a
// different definition.
type WorkflowConflict struct {
	Name string
}

func (e *WorkflowConflict) Error() string {
	return fmt.Sprintf("workflow %q already registered with a different definition", e.Name)
}

// RecursionLimitExceeded indicates the engine activated more steps than the
// workflow's recursion_limit allows.
type RecursionLimitExceeded struct {
	Limit int
}

func (e *RecursionLimitExceeded) Error() string {
	return fmt.Sprintf("recursion limit exceeded: %d step activations", e.Limit)
}

// BudgetExceeded indicates a revision-count or total-subtask budget was
// exhausted. The engine treats this as a hard failure; the planner/replanner
// treats it as a signal to no-op (see pkg/hierarchical).
type BudgetExceeded struct {
	Budget string // "revisions", "total_subtasks", "loops"
	Limit  int
}

func (e *BudgetExceeded) Error() string {
	return fmt.Sprintf("budget exceeded: %s limit %d", e.Budget, e.Limit)
}

// StepFailure wraps a step's execution failure with enough context to
// resume after operator intervention.
type StepFailure struct {
	Step  string
	Cause error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Cause)
}

func (e *StepFailure) Unwrap() error { return e.Cause }

// StepTimeout indicates a single step exceeded its per-step timeout.
type StepTimeout struct {
	Step    string
	Seconds int
}

func (e *StepTimeout) Error() string {
	return fmt.Sprintf("step %q timed out after %ds", e.Step, e.Seconds)
}

// RunTimeout indicates the global per-run wall-clock cap was exceeded.
type RunTimeout struct {
	Seconds int
}

func (e *RunTimeout) Error() string {
	return fmt.Sprintf("run exceeded wall-clock cap of %ds", e.Seconds)
}

// ExternalProviderError wraps a transient failure of a text generator,
// embedder, retriever, or web searcher.
type ExternalProviderError struct {
	Provider string
	Cause    error
}

func (e *ExternalProviderError) Error() string {
	return fmt.Sprintf("external provider %q failed: %v", e.Provider, e.Cause)
}

func (e *ExternalProviderError) Unwrap() error { return e.Cause }

// SchemaValidationError indicates a structured-output call returned a
// record that does not match the declared schema, after the single retry
// with a reminder prompt has also failed.
type SchemaValidationError struct {
	Schema string
	Cause  error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed for %q: %v", e.Schema, e.Cause)
}

func (e *SchemaValidationError) Unwrap() error { return e.Cause }

// DataIntegrityError is fatal for a preprocessing pipeline run: duplicate
// content hashes survived deduplication, or a chunk violates length bounds.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error: %s", e.Reason)
}

// EmbeddingBatchFailure indicates an embedding batch failed even after the
// halve-and-retry policy.
type EmbeddingBatchFailure struct {
	BatchSize int
	Cause     error
}

func (e *EmbeddingBatchFailure) Error() string {
	return fmt.Sprintf("embedding batch of %d failed: %v", e.BatchSize, e.Cause)
}

func (e *EmbeddingBatchFailure) Unwrap() error { return e.Cause }
