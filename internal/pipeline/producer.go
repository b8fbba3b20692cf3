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

package pipeline

import (
	"context"
	"fmt"

	"corrigo/internal/logging"
	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// Producer walks the document once and fans prepared payloads out to the
// input queue.
type Producer struct {
	Registry *registry.Registry
	Doc      *document.Document
	Params   map[string]string
	Workers  int
	Log      logging.Sink
}

// Run executes the producer procedure. It never closes out, which the caller
// owns; it ends by sending exactly Workers sentinels, and does so even when
// a module's Init fails, so the sentinel count stays exact on that error
// path too.
func (p *Producer) Run(ctx context.Context, out chan<- UnitPayload) error {
	log := p.Log
	if log == nil {
		log = logging.Discard
	}

	// Step 1: init every enabled module (including submodules — they still
	// need their correction set/class declared even though the pipeline
	// never dispatches them directly).
	for _, id := range p.Registry.All() {
		entry, _ := p.Registry.Get(id)
		if err := entry.Module.Init(ctx, p.Doc); err != nil {
			for i := 0; i < p.Workers; i++ {
				out <- UnitPayload{Sentinel: true}
			}
			return fmt.Errorf("pipeline: module %q init: %w", id, err)
		}
	}

	dispatchable := p.Registry.Dispatchable()

	// Step 2: unit types present across the dispatchable module set.
	types := map[document.Type]bool{}
	for _, id := range dispatchable {
		entry, _ := p.Registry.Get(id)
		types[entry.Spec.UnitType] = true
	}

	// Step 3: Document-level modules.
	if types[document.TypeDocument] {
		for _, id := range dispatchable {
			entry, _ := p.Registry.Get(id)
			if entry.Spec.UnitType != document.TypeDocument {
				continue
			}
			p.prepareAndEnqueue(ctx, entry, id, p.Doc.Root, out, log)
		}
	}

	// Step 4: every other unit type, in document order.
	for t := range types {
		if t == document.TypeDocument {
			continue
		}
		nodes := p.Doc.Walk(t)
		for _, id := range dispatchable {
			entry, _ := p.Registry.Get(id)
			if entry.Spec.UnitType != t {
				continue
			}
			for _, n := range nodes {
				if entry.Spec.Filter != nil && !entry.Spec.Filter(n) {
					continue
				}
				p.prepareAndEnqueue(ctx, entry, id, n, out, log)
			}
		}
	}

	// Step 5: exactly Workers sentinels so every worker terminates.
	for i := 0; i < p.Workers; i++ {
		out <- UnitPayload{Sentinel: true}
	}
	return nil
}

func (p *Producer) prepareAndEnqueue(ctx context.Context, entry *registry.Entry, moduleID string, n *document.Node, out chan<- UnitPayload, log logging.Sink) {
	payload, ok, err := entry.Module.PrepareInput(ctx, n, p.Params)
	if err != nil {
		log.Log(logging.Warn, "pipeline: prepare_input failed", logging.F("module", moduleID), logging.F("unit", n.ID), logging.F("error", err.Error()))
		return
	}
	if !ok {
		return
	}
	out <- UnitPayload{ModuleID: moduleID, UnitID: n.ID, Payload: payload}
}
