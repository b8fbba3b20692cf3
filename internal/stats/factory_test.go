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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSinkDefaultsToMock(t *testing.T) {
	sink, err := BuildSink("", Options{}, nil)
	require.NoError(t, err)
	require.IsType(t, &mockSink{}, sink)

	sink, err = BuildSink("mock", Options{}, nil)
	require.NoError(t, err)
	require.IsType(t, &mockSink{}, sink)
}

func TestBuildSinkRedisRequiresAddr(t *testing.T) {
	_, err := BuildSink("redis", Options{}, nil)
	require.Error(t, err)

	sink, err := BuildSink("redis", Options{RedisAddr: "127.0.0.1:6379"}, nil)
	require.NoError(t, err)
	require.IsType(t, &redisSink{}, sink)
}

func TestBuildSinkKafkaIsUnwired(t *testing.T) {
	_, err := BuildSink("kafka", Options{}, nil)
	require.Error(t, err)

	_, err = BuildSink("kafka", Options{KafkaProducer: &fakeProducer{}}, nil)
	require.Error(t, err, "kafka selector stays unwired even when a Producer is supplied in Options")
}

func TestBuildSinkPostgresIsUnwired(t *testing.T) {
	_, err := BuildSink("postgres", Options{}, nil)
	require.Error(t, err)
}

func TestBuildSinkUnknownAdapterFails(t *testing.T) {
	_, err := BuildSink("carrier-pigeon", Options{}, nil)
	require.Error(t, err)
}
