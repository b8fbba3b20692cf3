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

// Package metrics re-homes the Vector-Scalar Accumulator pattern onto
// per-module run statistics: each worker records per-module completions,
// failures, and wall-clock duration on a side channel for end-of-run
// reporting. Many worker goroutines update the volatile vector concurrently
// without
// contending on a single lock across the whole run; a StatsWorker
// periodically commits the vector into the stable scalar and flushes it to
// an internal/stats.Sink.
package metrics

import (
	"sync"
	"time"
)

// Delta is one flush-worth of accumulated counters.
type Delta struct {
	Completions int64
	Failures    int64
	DurationNs  int64
}

func (d Delta) empty() bool { return d.Completions == 0 && d.Failures == 0 && d.DurationNs == 0 }

// StatAccumulator is a lock-light per-module counter, modeled directly on
// pkg/vsa.VSA's scalar/vector split: RecordCompletion/RecordFailure only
// touch the volatile vector; CheckCommit/Commit move a settled delta into
// the stable scalar the same way VSA.CheckCommit/Commit do for a resource
// counter.
type StatAccumulator struct {
	mu     sync.RWMutex
	scalar Delta
	vector Delta
}

// NewStatAccumulator returns a zeroed accumulator.
func NewStatAccumulator() *StatAccumulator {
	return &StatAccumulator{}
}

// RecordCompletion registers one successful module run and its duration.
func (a *StatAccumulator) RecordCompletion(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vector.Completions++
	a.vector.DurationNs += int64(d)
}

// RecordFailure registers one failed module run.
func (a *StatAccumulator) RecordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vector.Failures++
}

// CheckCommit reports whether the accumulated vector has reached threshold
// events (completions+failures) since the last commit, mirroring
// VSA.CheckCommit's read-only threshold check.
func (a *StatAccumulator) CheckCommit(threshold int64) (bool, Delta) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	events := a.vector.Completions + a.vector.Failures
	if events >= threshold && !a.vector.empty() {
		return true, a.vector
	}
	return false, Delta{}
}

// Commit moves committed into the stable scalar and subtracts it from the
// volatile vector, exactly as VSA.Commit does for S_new = S_old - A_net.
func (a *StatAccumulator) Commit(committed Delta) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scalar.Completions += committed.Completions
	a.scalar.Failures += committed.Failures
	a.scalar.DurationNs += committed.DurationNs
	a.vector.Completions -= committed.Completions
	a.vector.Failures -= committed.Failures
	a.vector.DurationNs -= committed.DurationNs
}

// State returns the current (scalar, vector) pair for monitoring/debugging.
func (a *StatAccumulator) State() (scalar, vector Delta) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.scalar, a.vector
}

// Total returns scalar+vector, the run's full count so far regardless of
// whether it has been flushed yet.
func (a *StatAccumulator) Total() Delta {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Delta{
		Completions: a.scalar.Completions + a.vector.Completions,
		Failures:    a.scalar.Failures + a.vector.Failures,
		DurationNs:  a.scalar.DurationNs + a.vector.DurationNs,
	}
}

// Set holds one StatAccumulator per module id, created lazily on first use.
// It implements pipeline.StatsRecorder.
type Set struct {
	mu   sync.Mutex
	byID map[string]*StatAccumulator
}

// NewSet returns an empty accumulator set.
func NewSet() *Set {
	return &Set{byID: map[string]*StatAccumulator{}}
}

// For returns (creating if necessary) the accumulator for moduleID.
func (s *Set) For(moduleID string) *StatAccumulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[moduleID]
	if !ok {
		acc = NewStatAccumulator()
		s.byID[moduleID] = acc
	}
	return acc
}

// RecordCompletion implements pipeline.StatsRecorder.
func (s *Set) RecordCompletion(moduleID string, d time.Duration) {
	s.For(moduleID).RecordCompletion(d)
}

// RecordFailure implements pipeline.StatsRecorder.
func (s *Set) RecordFailure(moduleID string) {
	s.For(moduleID).RecordFailure()
}

// ModuleIDs returns every module id that has an accumulator, in no
// particular order; used by StatsWorker to iterate the set each cycle.
func (s *Set) ModuleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	return ids
}
