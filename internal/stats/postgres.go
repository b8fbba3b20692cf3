// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// postgresSink writes flushed module statistics to a queryable run-history
// table instead of a stream. Left unwired by default (see BuildSink): it
// requires a real *sql.DB and schema the build doesn't own.
type postgresSink struct {
	db *sql.DB
}

// NewPostgresSink returns a Sink backed by db. Callers must have already
// created the `module_run_stats(module_id, completions, failures,
// duration_ns, commit_id unique)` table.
func NewPostgresSink(db *sql.DB) Sink {
	return &postgresSink{db: db}
}

func (s *postgresSink) CommitBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("stats: begin tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO module_run_stats (module_id, completions, failures, duration_ns, commit_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (commit_id) DO NOTHING`
	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("stats: Entry.CommitID must be set")
		}
		if _, err := tx.ExecContext(ctx, upsert, e.ModuleID, e.Completions, e.Failures, e.DurationNs, e.CommitID); err != nil {
			return fmt.Errorf("stats: exec module=%s commit=%s: %w", e.ModuleID, e.CommitID, err)
		}
	}
	return tx.Commit()
}

func (s *postgresSink) Close() error { return s.db.Close() }
