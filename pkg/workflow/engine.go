// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"test-smith/internal/errs"
	"test-smith/internal/telemetry"
)

// Engine runs workflows registered in a Registry, merging step deltas
// according to each workflow's StateSchema and persisting a Checkpoint to
// a StateStore after every step so a run can be resumed.
type Engine struct {
	registry *Registry
	store    StateStore
	logger   *telemetry.Logger
}

// NewEngine creates an Engine backed by the given registry and checkpoint
// store. A nil logger falls back to telemetry.Default().
func NewEngine(registry *Registry, store StateStore, logger *telemetry.Logger) *Engine {
	if logger == nil {
		logger = telemetry.Default()
	}
	return &Engine{registry: registry, store: store, logger: logger}
}

// Run starts a new execution of the named workflow from initial, under
// threadID, persisting a checkpoint after every activated step.
func (e *Engine) Run(ctx context.Context, workflowName string, initial State, threadID string) (State, error) {
	def, err := e.registry.Get(workflowName)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, def, initial, threadID, def.Graph.Entry(), 0)
}

// Resume continues a previously checkpointed run from its last activated
// step, re-activating the step after the checkpointed one via the graph's
// edges from that step name.
func (e *Engine) Resume(ctx context.Context, threadID string) (State, error) {
	if e.store == nil {
		return nil, &errs.ConfigurationError{Reason: "no state store configured, cannot resume"}
	}
	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint for thread %s: %w", threadID, err)
	}
	if cp.Done {
		return cp.State, nil
	}
	def, err := e.registry.Get(cp.Workflow)
	if err != nil {
		return nil, err
	}
	next := e.nextStep(def.Graph, cp.StepName, cp.State)
	if next == "" {
		return nil, fmt.Errorf("cannot resume thread %s: no outgoing edge from %s", threadID, cp.StepName)
	}
	return e.run(ctx, def, cp.State, threadID, next, cp.StepIndex+1)
}

func (e *Engine) run(ctx context.Context, def *Definition, state State, threadID, startStep string, startIndex int) (State, error) {
	budgets := def.Budgets
	if budgets.RunTimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(budgets.RunTimeoutSec)*time.Second)
		defer cancel()
	}

	runDeadline := time.Now()
	if budgets.RunTimeoutSec > 0 {
		runDeadline = runDeadline.Add(time.Duration(budgets.RunTimeoutSec) * time.Second)
	}

	current := startStep
	stepIndex := startIndex
	activations := 0

	for current != Terminal {
		select {
		case <-ctx.Done():
			if !runDeadline.IsZero() && time.Now().After(runDeadline) {
				return state, &errs.RunTimeout{Seconds: budgets.RunTimeoutSec}
			}
			return state, ctx.Err()
		default:
		}

		activations++
		if budgets.RecursionLimit > 0 && activations > budgets.RecursionLimit {
			return state, &errs.RecursionLimitExceeded{Limit: budgets.RecursionLimit}
		}

		step, err := def.Graph.GetStep(current)
		if err != nil {
			return state, &errs.StepFailure{Step: current, Cause: err}
		}

		delta, explicitNext, err := e.executeStep(ctx, step, state.Clone(), budgets.StepTimeoutSec)
		if err != nil {
			return state, err
		}

		state = Merge(state, delta, def.Schema)

		if err := e.checkpoint(ctx, threadID, def.Name, stepIndex, current, state, false, ""); err != nil {
			e.logger.Warning("checkpoint save failed", map[string]any{"thread_id": threadID, "step": current, "error": err.Error()})
		}
		stepIndex++

		if explicitNext != "" {
			current = explicitNext
			continue
		}

		next, err := e.route(ctx, def.Graph, current, state, &activations, budgets, def.Schema)
		if err != nil {
			return state, err
		}
		current = next
	}

	if err := e.checkpoint(ctx, threadID, def.Name, stepIndex, Terminal, state, true, ""); err != nil {
		e.logger.Warning("final checkpoint save failed", map[string]any{"thread_id": threadID, "error": err.Error()})
	}
	return state, nil
}

func (e *Engine) executeStep(ctx context.Context, step Step, state State, timeoutSec int) (State, string, error) {
	stepCtx := ctx
	var cancel context.CancelFunc
	if timeoutSec > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
		defer cancel()
	}

	type outcome struct {
		delta State
		next  string
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		delta, next, err := step.Execute(stepCtx, state)
		done <- outcome{delta: delta, next: next, err: err}
	}()

	select {
	case <-stepCtx.Done():
		if timeoutSec > 0 {
			return nil, "", &errs.StepTimeout{Step: step.Name(), Seconds: timeoutSec}
		}
		return nil, "", stepCtx.Err()
	case o := <-done:
		if o.err != nil {
			return nil, "", &errs.StepFailure{Step: step.Name(), Cause: o.err}
		}
		return o.delta, o.next, nil
	}
}

// route determines the next step from a completed step's outgoing edges,
// executing FanOut branches concurrently and merging their deltas in
// deterministic order (sorted by the producing step's name).
func (e *Engine) route(ctx context.Context, g *Graph, from string, state State, activations *int, budgets Budgets, schema StateSchema) (string, error) {
	for _, edge := range g.Edges(from) {
		switch edge.Kind {
		case Direct:
			return edge.To, nil
		case Conditional:
			if edge.When(state) {
				return edge.To, nil
			}
		case FanOut:
			merged, err := e.fanOut(ctx, g, edge.Many, state, budgets, schema)
			if err != nil {
				return "", err
			}
			*activations += len(edge.Many) - 1
			// Merge branch deltas through the schema (not a raw per-key
			// overwrite) so Append/Union fields accumulate onto the prior
			// value instead of clobbering it with just this round's batch.
			merged2 := Merge(state, merged, schema)
			for k := range merged {
				state[k] = merged2[k]
			}
			dest := edge.To
			if dest == "" {
				dest = Terminal
			}
			return dest, nil
		}
	}
	return Terminal, nil
}

type fanOutResult struct {
	stepName string
	delta    State
}

func (e *Engine) fanOut(ctx context.Context, g *Graph, branches []string, state State, budgets Budgets, schema StateSchema) (State, error) {
	results := make([]fanOutResult, len(branches))
	grp, gctx := errgroup.WithContext(ctx)

	for i, name := range branches {
		i, name := i, name
		grp.Go(func() error {
			step, err := g.GetStep(name)
			if err != nil {
				return &errs.StepFailure{Step: name, Cause: err}
			}
			delta, _, err := e.executeStep(gctx, step, state.Clone(), budgets.StepTimeoutSec)
			if err != nil {
				return err
			}
			results[i] = fanOutResult{stepName: name, delta: delta}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].stepName < results[j].stepName })

	merged := make(State)
	for _, r := range results {
		merged = Merge(merged, r.delta, schema)
	}
	return merged, nil
}

func (e *Engine) nextStep(g *Graph, from string, state State) string {
	for _, edge := range g.Edges(from) {
		switch edge.Kind {
		case Direct:
			return edge.To
		case Conditional:
			if edge.When(state) {
				return edge.To
			}
		case FanOut:
			if len(edge.Many) > 0 {
				return edge.Many[0]
			}
		}
	}
	return ""
}

func (e *Engine) checkpoint(ctx context.Context, threadID, workflowName string, stepIndex int, stepName string, state State, done bool, finalErr string) error {
	if e.store == nil {
		return nil
	}
	return e.store.Save(ctx, Checkpoint{
		ThreadID:   threadID,
		Workflow:   workflowName,
		StepIndex:  stepIndex,
		StepName:   stepName,
		State:      state,
		Done:       done,
		FinalError: finalErr,
	})
}
