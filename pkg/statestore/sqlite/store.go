// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package sqlite implements a file-backed workflow.StateStore over gorm
// and glebarez/go-sqlite (a cgo-free sqlite driver), the default
// production checkpoint backend: it needs no external process, unlike
// the redis backend in pkg/statestore/redis.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	glebarezsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"test-smith/pkg/workflow"
)

// checkpointRow is the gorm model backing the checkpoints table.
type checkpointRow struct {
	ThreadID   string `gorm:"primaryKey"`
	Workflow   string
	StepIndex  int
	StepName   string
	StateJSON  string
	Done       bool
	FinalError string
	UpdatedAt  time.Time
}

func (checkpointRow) TableName() string { return "checkpoints" }

// Store is a sqlite-backed workflow.StateStore.
type Store struct {
	db *gorm.DB
}

// NewStore opens (creating if needed) the sqlite database at dsn and
// migrates the checkpoints table.
func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(glebarezsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite state store at %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&checkpointRow{}); err != nil {
		return nil, fmt.Errorf("migrating checkpoints table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the checkpoint for cp.ThreadID.
func (s *Store) Save(ctx context.Context, cp workflow.Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint state: %w", err)
	}
	row := checkpointRow{
		ThreadID:   cp.ThreadID,
		Workflow:   cp.Workflow,
		StepIndex:  cp.StepIndex,
		StepName:   cp.StepName,
		StateJSON:  string(stateJSON),
		Done:       cp.Done,
		FinalError: cp.FinalError,
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// Load returns the most recent checkpoint for threadID.
func (s *Store) Load(ctx context.Context, threadID string) (workflow.Checkpoint, error) {
	var row checkpointRow
	if err := s.db.WithContext(ctx).First(&row, "thread_id = ?", threadID).Error; err != nil {
		return workflow.Checkpoint{}, fmt.Errorf("loading checkpoint for thread %s: %w", threadID, err)
	}
	var state workflow.State
	if err := json.Unmarshal([]byte(row.StateJSON), &state); err != nil {
		return workflow.Checkpoint{}, fmt.Errorf("unmarshaling checkpoint state: %w", err)
	}
	return workflow.Checkpoint{
		ThreadID:   row.ThreadID,
		Workflow:   row.Workflow,
		StepIndex:  row.StepIndex,
		StepName:   row.StepName,
		State:      state,
		Done:       row.Done,
		FinalError: row.FinalError,
	}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
