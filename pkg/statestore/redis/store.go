// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package redis implements a workflow.StateStore over go-redis, for
// checkpoint persistence shared across processes (e.g. an Entry Runner
// behind cmd/server load-balanced across multiple instances).
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"test-smith/pkg/workflow"
)

const keyPrefix = "test-smith:checkpoint:"

// Store is a redis-backed workflow.StateStore.
type Store struct {
	client *redis.Client
}

// NewStore connects to a redis server at addr (e.g. "localhost:6379").
func NewStore(addr, password string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Save upserts the checkpoint for cp.ThreadID with no expiry; checkpoints
// are reclaimed by the operator, not by TTL, so a paused run can resume
// arbitrarily far in the future.
func (s *Store) Save(ctx context.Context, cp workflow.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+cp.ThreadID, data, 0).Err(); err != nil {
		return fmt.Errorf("saving checkpoint for thread %s: %w", cp.ThreadID, err)
	}
	return nil
}

// Load returns the most recent checkpoint for threadID.
func (s *Store) Load(ctx context.Context, threadID string) (workflow.Checkpoint, error) {
	data, err := s.client.Get(ctx, keyPrefix+threadID).Bytes()
	if err != nil {
		return workflow.Checkpoint{}, fmt.Errorf("loading checkpoint for thread %s: %w", threadID, err)
	}
	var cp workflow.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return workflow.Checkpoint{}, fmt.Errorf("unmarshaling checkpoint: %w", err)
	}
	return cp, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
