// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package workflow

import "context"

// StepFunc adapts a plain function to the Step interface, the same
// function-as-node idiom the teacher used for its mock nodes in tests,
// generalized here into a first-class way to define steps.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, state State) (State, string, error)
}

// Execute calls the wrapped function.
func (f StepFunc) Execute(ctx context.Context, state State) (State, string, error) {
	return f.Fn(ctx, state)
}

// Name returns the step's name.
func (f StepFunc) Name() string { return f.StepName }
