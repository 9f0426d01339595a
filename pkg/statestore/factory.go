// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package statestore

import (
	"fmt"

	"test-smith/pkg/statestore/redis"
	"test-smith/pkg/statestore/sqlite"
	"test-smith/pkg/workflow"
)

// New builds the workflow.StateStore named by backend ("memory", "sqlite",
// or "redis"), using dsn as the sqlite file path or the redis address.
func New(backend, dsn string) (workflow.StateStore, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return sqlite.NewStore(dsn)
	case "redis":
		return redis.NewStore(dsn, "", 0), nil
	default:
		return nil, fmt.Errorf("unknown state store backend %q", backend)
	}
}
