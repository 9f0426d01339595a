// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package workflow

import "context"

// StateStore persists checkpoints so a run can resume after a crash or an
// operator-initiated pause. Concrete backends live under pkg/statestore
// (memory, sqlite, redis); the Engine only depends on this interface,
// mirroring the pkg/vectorstore.Store / pkg/llm.Provider abstraction
// pattern used throughout this repository.
//
// Implementations must guarantee a single writer per thread_id: Save calls
// for the same ThreadID are expected to arrive sequentially from the
// Engine, which serializes step execution per run.
type StateStore interface {
	// Save persists the given checkpoint, replacing any prior checkpoint
	// for the same ThreadID.
	Save(ctx context.Context, cp Checkpoint) error

	// Load returns the most recent checkpoint for threadID.
	Load(ctx context.Context, threadID string) (Checkpoint, error)

	// Close releases any resources (connections, file handles) held by
	// the store.
	Close() error
}
