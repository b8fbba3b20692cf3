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

package telemetry

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsObserveDispatchAndErrorsAppearInHandler(t *testing.T) {
	m := New()
	m.ObserveDispatch("spellcheck", 5*time.Millisecond, false)
	m.ObserveDispatch("grammar", 10*time.Millisecond, true)
	m.IncError("TransportError")
	m.SetInputQueueDepth(3)
	m.SetOutputQueueDepth(1)
	m.SetServerLoad("spellcheck", "10.0.0.1:9000", 0.42)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	require.Contains(t, body, "corrigo_module_dispatch_seconds")
	require.Contains(t, body, "corrigo_errors_total")
	require.Contains(t, body, "corrigo_input_queue_depth 3")
	require.Contains(t, body, "corrigo_output_queue_depth 1")
	require.Contains(t, body, "corrigo_server_load")
}

func TestNewRegistersIndependentInstances(t *testing.T) {
	a := New()
	b := New()
	a.IncError("ModuleRunError")
	b.IncError("ServerUnreachable")

	recA := httptest.NewRecorder()
	a.Handler().ServeHTTP(recA, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, recA.Body.String(), `kind="ModuleRunError"`)
	require.NotContains(t, recA.Body.String(), `kind="ServerUnreachable"`)
}
