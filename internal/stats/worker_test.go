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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"corrigo/internal/metrics"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]Entry
}

func (r *recordingSink) CommitBatch(ctx context.Context, entries []Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := append([]Entry{}, entries...)
	r.batches = append(r.batches, cp)
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) totalCompletions() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, b := range r.batches {
		for _, e := range b {
			total += e.Completions
		}
	}
	return total
}

func TestStatsWorkerCommitsOnceThresholdCrossed(t *testing.T) {
	set := metrics.NewSet()
	set.RecordCompletion("spellcheck", time.Millisecond)
	set.RecordCompletion("spellcheck", time.Millisecond)
	set.RecordCompletion("spellcheck", time.Millisecond)

	sink := &recordingSink{}
	w := NewWorker(set, sink, 2, 0, time.Hour, nil)
	w.runCommitCycle(context.Background())

	require.Equal(t, int64(3), sink.totalCompletions())
	_, vector := set.For("spellcheck").State()
	require.Equal(t, int64(0), vector.Completions)
}

func TestStatsWorkerBelowThresholdDoesNotCommit(t *testing.T) {
	set := metrics.NewSet()
	set.RecordCompletion("grammar", time.Millisecond)

	sink := &recordingSink{}
	w := NewWorker(set, sink, 5, 0, time.Hour, nil)
	w.runCommitCycle(context.Background())

	require.Empty(t, sink.batches)
}

func TestStatsWorkerHysteresisRequiresRearm(t *testing.T) {
	set := metrics.NewSet()
	acc := set.For("spellcheck")
	acc.RecordCompletion(time.Millisecond)
	acc.RecordCompletion(time.Millisecond)

	sink := &recordingSink{}
	w := NewWorker(set, sink, 2, 1, time.Hour, nil)

	// First cycle: not armed yet (never armed before), lowCommitThreshold>0
	// and armed starts false, so the high-watermark commit is gated.
	w.runCommitCycle(context.Background())
	require.Empty(t, sink.batches)

	// Falling to/under the low watermark arms it.
	acc.Commit(metrics.Delta{Completions: 1})
	w.runCommitCycle(context.Background())
	require.Empty(t, sink.batches)

	acc.RecordCompletion(time.Millisecond)
	w.runCommitCycle(context.Background())
	require.Len(t, sink.batches, 1)
}

func TestStatsWorkerFinalFlushCommitsRemainder(t *testing.T) {
	set := metrics.NewSet()
	set.RecordCompletion("spellcheck", time.Millisecond)

	sink := &recordingSink{}
	w := NewWorker(set, sink, 100, 0, time.Hour, nil)
	w.Start()
	w.Stop(context.Background())

	require.Equal(t, int64(1), sink.totalCompletions())
}
