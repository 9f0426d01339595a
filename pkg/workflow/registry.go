// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package workflow

import (
	"fmt"
	"reflect"
	"sync"

	"test-smith/internal/errs"
)

// Budgets bounds a single run of a workflow: how many steps the engine may
// activate, how many sufficiency-loop iterations a step may request, how
// long any one step may run, and how long the whole run may take.
type Budgets struct {
	RecursionLimit int
	MaxLoops       int
	StepTimeoutSec int
	RunTimeoutSec  int
}

// Definition is everything the Engine needs to run a named workflow:
// its graph, the merge rule for each field its steps may write, and the
// resource budgets that apply to every run.
type Definition struct {
	Name    string
	Graph   *Graph
	Schema  StateSchema
	Budgets Budgets
}

// equivalent reports whether two definitions describe the same workflow,
// used to make re-registration of an identical definition a no-op instead
// of a WorkflowConflict.
func (d *Definition) equivalent(other *Definition) bool {
	if d.Name != other.Name || d.Budgets != other.Budgets {
		return false
	}
	if !reflect.DeepEqual(d.Schema, other.Schema) {
		return false
	}
	if d.Graph == nil || other.Graph == nil {
		return d.Graph == other.Graph
	}
	a, b := d.Graph.StepNames(), other.Graph.StepNames()
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, n := range a {
		seen[n] = true
	}
	for _, n := range b {
		if !seen[n] {
			return false
		}
	}
	return d.Graph.Entry() == other.Graph.Entry()
}

// Registry holds workflow definitions by name. Workflows register
// themselves explicitly at startup via Register — never as an import-time
// side effect — so the set of runnable workflows is always visible by
// reading the registration call sites.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]*Definition
}

// NewRegistry creates an empty workflow registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Definition)}
}

// Register validates and adds a workflow definition. Registering the same
// name twice with an equivalent definition is a no-op; registering the
// same name with a different definition returns WorkflowConflict.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return &errs.ConfigurationError{Reason: "nil workflow definition"}
	}
	if def.Name == "" {
		return &errs.ConfigurationError{Reason: "workflow definition has no name"}
	}
	if def.Graph == nil {
		return &errs.ConfigurationError{Reason: fmt.Sprintf("workflow %q has no graph", def.Name)}
	}
	if err := def.Graph.Validate(); err != nil {
		return &errs.ConfigurationError{Reason: fmt.Sprintf("workflow %q: %v", def.Name, err)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[def.Name]; ok {
		if existing.equivalent(def) {
			return nil
		}
		return &errs.WorkflowConflict{Name: def.Name}
	}
	r.byName[def.Name] = def
	return nil
}

// Get looks up a workflow definition by name.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byName[name]
	if !ok {
		return nil, &errs.WorkflowNotFound{Name: name}
	}
	return def, nil
}

// List returns the names of every registered workflow.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
