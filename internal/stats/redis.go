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
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Evaler abstracts the minimal surface needed from a Redis client, mirroring
// persistence.RedisEvaler so tests can substitute a fake without a live
// server.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// goRedisEvaler adapts *redis.Client's Eval (which returns a *redis.Cmd) to
// the Evaler shape, directly mirroring persistence.GoRedisEvaler.
type goRedisEvaler struct{ c *redis.Client }

func (g goRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.c.Eval(ctx, script, keys, args...).Result()
}

// redisSink applies flushed module statistics idempotently against Redis
// using a Lua script: SETNX a per-(module,commit) marker, and only on a
// fresh marker increment the module's running totals. A retried flush with
// the same CommitID becomes a no-op. Directly adapted from
// persistence.RedisPersister's commit-marker pattern, re-homed from rate
// counters onto module completion/failure/duration totals.
type redisSink struct {
	client    Evaler
	markerTTL time.Duration
	closer    func() error
}

// NewRedisSink returns a Sink backed by a real go-redis client at addr.
func NewRedisSink(addr string, markerTTL time.Duration) Sink {
	rc := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisSinkWithEvaler(goRedisEvaler{c: rc}, markerTTL).(*redisSink)
	s.closer = rc.Close
	return s
}

// NewRedisSinkWithEvaler returns a Sink backed by any Evaler, letting tests
// inject a fake in place of a live *redis.Client. Close is a no-op unless
// the evaler was built by NewRedisSink.
func NewRedisSinkWithEvaler(client Evaler, markerTTL time.Duration) Sink {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	return &redisSink{client: client, markerTTL: markerTTL}
}

const statsLuaScript = `
local totalsKey = KEYS[1]
local markerKey = KEYS[2]
local completions = tonumber(ARGV[1])
local failures = tonumber(ARGV[2])
local durationNs = tonumber(ARGV[3])
local ttlSeconds = tonumber(ARGV[4])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  redis.call('HINCRBY', totalsKey, 'completions', completions)
  redis.call('HINCRBY', totalsKey, 'failures', failures)
  redis.call('HINCRBY', totalsKey, 'duration_ns', durationNs)
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

func totalsKey(moduleID string) string { return fmt.Sprintf("corrigo:stats:%s", moduleID) }
func markerKey(moduleID, commitID string) string {
	return fmt.Sprintf("corrigo:stats-commit:%s:%s", moduleID, commitID)
}

func (s *redisSink) CommitBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("stats: Entry.CommitID must be set")
		}
		keys := []string{totalsKey(e.ModuleID), markerKey(e.ModuleID, e.CommitID)}
		args := []interface{}{e.Completions, e.Failures, e.DurationNs, int(s.markerTTL.Seconds())}
		if _, err := s.client.Eval(ctx, statsLuaScript, keys, args...); err != nil {
			return fmt.Errorf("stats: redis eval module=%s commit=%s: %w", e.ModuleID, e.CommitID, err)
		}
	}
	return nil
}

func (s *redisSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
