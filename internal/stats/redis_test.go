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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeEvaler struct {
	calls []struct {
		script string
		keys   []string
		args   []interface{}
	}
	returnErr error
}

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	f.calls = append(f.calls, struct {
		script string
		keys   []string
		args   []interface{}
	}{script: script, keys: append([]string{}, keys...), args: append([]interface{}{}, args...)})
	return int64(1), nil
}

func TestRedisKeyHelpers(t *testing.T) {
	require.Equal(t, "corrigo:stats:spellcheck", totalsKey("spellcheck"))
	require.Equal(t, "corrigo:stats-commit:spellcheck:c1", markerKey("spellcheck", "c1"))
}

func TestRedisSinkCommitBatchSendsOneEvalPerEntry(t *testing.T) {
	f := &fakeEvaler{}
	sink := NewRedisSinkWithEvaler(f, time.Hour)

	err := sink.CommitBatch(context.Background(), []Entry{
		{ModuleID: "spellcheck", Completions: 4, Failures: 1, DurationNs: 500, CommitID: "c1"},
		{ModuleID: "grammar", Completions: 2, Failures: 0, DurationNs: 200, CommitID: "c2"},
	})
	require.NoError(t, err)
	require.Len(t, f.calls, 2)
	require.Equal(t, []string{"corrigo:stats:spellcheck", "corrigo:stats-commit:spellcheck:c1"}, f.calls[0].keys)
	require.NoError(t, sink.Close())
}

func TestRedisSinkCommitBatchEmptyIsNoop(t *testing.T) {
	f := &fakeEvaler{}
	sink := NewRedisSinkWithEvaler(f, 0)
	require.NoError(t, sink.CommitBatch(context.Background(), nil))
	require.Empty(t, f.calls)
}

func TestRedisSinkCommitBatchMissingCommitIDFails(t *testing.T) {
	sink := NewRedisSinkWithEvaler(&fakeEvaler{}, time.Hour)
	err := sink.CommitBatch(context.Background(), []Entry{{ModuleID: "spellcheck"}})
	require.Error(t, err)
}

func TestRedisSinkCommitBatchPropagatesEvalError(t *testing.T) {
	sink := NewRedisSinkWithEvaler(&fakeEvaler{returnErr: errors.New("boom")}, time.Hour)
	err := sink.CommitBatch(context.Background(), []Entry{{ModuleID: "spellcheck", CommitID: "c1"}})
	require.Error(t, err)
}
