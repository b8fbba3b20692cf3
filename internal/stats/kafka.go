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
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Producer abstracts the minimal surface needed from a Kafka client, kept
// interface-only (no broker library import) — real installations wire a
// client that satisfies this against their own Kafka dependency.
type Producer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

// kafkaSink publishes one JSON message per flushed module statistic,
// keyed by CommitID so broker-side idempotent-producer dedup and per-key
// ordering apply, adapted from persistence.KafkaPersister.
type kafkaSink struct {
	producer Producer
	topic    string
	timeout  time.Duration
}

// NewKafkaSink returns a Sink that publishes to topic via producer.
func NewKafkaSink(producer Producer, topic string) Sink {
	if topic == "" {
		topic = "corrigo-module-stats"
	}
	return &kafkaSink{producer: producer, topic: topic, timeout: 10 * time.Second}
}

type statsMessage struct {
	ModuleID    string `json:"module_id"`
	Completions int64  `json:"completions"`
	Failures    int64  `json:"failures"`
	DurationNs  int64  `json:"duration_ns"`
	CommitID    string `json:"commit_id"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

func (s *kafkaSink) CommitBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	now := time.Now().UnixMilli()
	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("stats: Entry.CommitID must be set")
		}
		msg := statsMessage{
			ModuleID: e.ModuleID, Completions: e.Completions, Failures: e.Failures,
			DurationNs: e.DurationNs, CommitID: e.CommitID, TsUnixMs: now,
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("stats: marshal kafka message: %w", err)
		}
		if err := s.producer.Produce(ctx, s.topic, []byte(e.CommitID), b, map[string]string{"content-type": "application/json"}); err != nil {
			return fmt.Errorf("stats: kafka produce module=%s commit=%s: %w", e.ModuleID, e.CommitID, err)
		}
	}
	return nil
}

func (s *kafkaSink) Close() error { return nil }
