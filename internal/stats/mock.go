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

	"corrigo/internal/logging"
)

// mockSink logs flushed entries through the configured logging.Sink. It is
// the default adapter, used when no durable backend is configured.
type mockSink struct {
	mu  sync.Mutex
	log logging.Sink
}

// NewMockSink returns a Sink that logs every flushed entry and keeps no
// further state.
func NewMockSink(log logging.Sink) Sink {
	if log == nil {
		log = logging.Discard
	}
	return &mockSink{log: log}
}

func (s *mockSink) CommitBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.log.Log(logging.Info, "stats: flushed module run statistics",
			logging.F("module", e.ModuleID),
			logging.F("completions", e.Completions),
			logging.F("failures", e.Failures),
			logging.F("duration_ns", e.DurationNs),
			logging.F("commit_id", e.CommitID))
	}
	return nil
}

func (s *mockSink) Close() error { return nil }
