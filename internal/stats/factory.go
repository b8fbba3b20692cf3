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
	"fmt"
	"time"

	"corrigo/internal/logging"
)

// Options holds the knobs needed to build any of the adapters below,
// directly adapted from persistence.DemoOptions.
type Options struct {
	RedisAddr      string
	RedisMarkerTTL time.Duration
	KafkaProducer  Producer
	KafkaTopic     string
}

// BuildSink constructs a Sink from a string selector, mirroring
// persistence.BuildPersister's adapter switch:
//   - "", "mock": logs flushed entries (default)
//   - "redis": idempotent Redis adapter (requires Options.RedisAddr)
//   - "kafka": not wired in this build — see kafka.go's NewKafkaSink for
//     installations that supply their own Producer
//   - "postgres": not wired in this build — see postgres.go's NewPostgresSink
//     for installations that supply their own *sql.DB
func BuildSink(adapter string, opts Options, log logging.Sink) (Sink, error) {
	switch adapter {
	case "", "mock":
		return NewMockSink(log), nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("stats: redis adapter requires Options.RedisAddr")
		}
		return NewRedisSink(opts.RedisAddr, opts.RedisMarkerTTL), nil
	case "kafka":
		return nil, fmt.Errorf("stats: kafka adapter is not enabled in this build; construct NewKafkaSink with your own Producer")
	case "postgres":
		return nil, fmt.Errorf("stats: postgres adapter is not enabled in this build; construct NewPostgresSink with your own *sql.DB")
	default:
		return nil, fmt.Errorf("stats: unknown adapter %q", adapter)
	}
}
