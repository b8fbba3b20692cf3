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

// Package pipeline wires the producer, worker pool, and consumer together
// over Go channels: buffered channels stand in for the input/output queues,
// giving process-level parallelism without a separate queue process.
package pipeline

import "corrigo/pkg/document"

// UnitPayload is one input-queue entry: a module/unit pairing plus the
// opaque payload PrepareInput produced. Sentinel marks an end-of-stream
// entry — exactly `threads` of these are enqueued so every worker
// terminates.
type UnitPayload struct {
	ModuleID string
	UnitID   string
	Payload  any
	Sentinel bool
}

// ResultRecord is one output-queue entry: a completed module invocation
// ready for the consumer to turn into edit queries.
type ResultRecord struct {
	ModuleID string
	UnitID   string
	Output   any
	Payload  any
	// Err is not set by the worker, which sends no record at all for a
	// failed invocation, and the consumer does not read it.
	Err error
}

// unitSource pairs a structure element with the parameters in effect for
// the run. The producer does not use it; it passes the node and its Params
// to PrepareInput directly.
type unitSource struct {
	node   *document.Node
	params map[string]string
}
