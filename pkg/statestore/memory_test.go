// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package statestore_test

import (
	"context"
	"testing"

	"test-smith/pkg/statestore"
	"test-smith/pkg/workflow"
)

func TestMemoryStore_SaveLoad(t *testing.T) {
	store := statestore.NewMemoryStore()
	ctx := context.Background()

	cp := workflow.Checkpoint{ThreadID: "t1", Workflow: "deep-research", StepIndex: 2, StepName: "retrieve", State: workflow.State{"q": "hi"}}
	if err := store.Save(ctx, cp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.StepName != "retrieve" || loaded.State.GetString("q") != "hi" {
		t.Errorf("unexpected loaded checkpoint: %+v", loaded)
	}
}

func TestMemoryStore_LoadMissing(t *testing.T) {
	store := statestore.NewMemoryStore()
	if _, err := store.Load(context.Background(), "missing"); err == nil {
		t.Error("expected error loading missing thread")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := statestore.New("bogus", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNew_Memory(t *testing.T) {
	store, err := statestore.New("memory", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}
