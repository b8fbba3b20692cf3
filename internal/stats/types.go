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

// Package stats provides idempotent end-of-run reporting adapters for the
// per-module statistics the worker pool accumulates. The Redis and Postgres
// adapters apply an entry at most once per (module, commit id) pair, so a
// retried flush with the same commit id is a no-op rather than a double
// count. The mock adapter logs every entry it receives, and the Kafka
// adapter publishes every entry keyed by commit id, leaving deduplication
// to the broker.
package stats

import "context"

// Entry is one flushed delta for a single module, tagged with a commit id
// for idempotent application.
type Entry struct {
	ModuleID    string
	Completions int64
	Failures    int64
	DurationNs  int64
	CommitID    string
}

// Sink is the minimal API every adapter supports. Implementations must
// ensure a duplicate CommitID for the same ModuleID is a no-op.
type Sink interface {
	CommitBatch(ctx context.Context, entries []Entry) error
	// Close releases any held resources (connections, producers). A Sink
	// that holds nothing may implement it as a no-op.
	Close() error
}
