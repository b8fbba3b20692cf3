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
	"time"

	"corrigo/internal/editquery"
	"corrigo/internal/logging"
	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// Consumer is the single reader of the output queue: it owns the document
// and is the only goroutine that ever mutates it, so Document mutation
// never needs its own lock.
type Consumer struct {
	Registry *registry.Registry
	Doc      *document.Document
	Barrier  *DoneSet
	In       <-chan ResultRecord
	Timeout  time.Duration
	Log      logging.Sink
	Stats    StatsRecorder

	interp *editquery.Interpreter
}

// Run loops on the output queue until In is closed, applying each result's
// edit queries, then calls Finish on every enabled module. A failure inside
// ProcessOutput or the interpreter is logged and the loop continues with
// the next record: one bad module must not corrupt the document or halt
// the pipeline.
func (c *Consumer) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = logging.Discard
	}
	c.interp = editquery.NewInterpreter(c.Doc)

	for {
		select {
		case <-ctx.Done():
			return c.finish(ctx, log)
		case rec, open := <-c.In:
			if !open {
				return c.finish(ctx, log)
			}
			c.apply(ctx, rec, log)
		}
	}
}

func (c *Consumer) apply(ctx context.Context, rec ResultRecord, log logging.Sink) {
	entry, ok := c.Registry.Get(rec.ModuleID)
	if !ok {
		log.Log(logging.Warn, "pipeline: result for unknown module", logging.F("module", rec.ModuleID))
		return
	}

	queries, err := entry.Module.ProcessOutput(ctx, rec.Output, rec.Payload, rec.UnitID, nil)
	if err != nil {
		log.Log(logging.Error, "pipeline: process_output failed", logging.F("module", rec.ModuleID), logging.F("unit", rec.UnitID), logging.F("error", err.Error()))
		c.Barrier.MarkDone(rec.ModuleID)
		return
	}

	meta := document.Meta{Set: entry.Spec.Set, Class: entry.Spec.Class, Annotator: entry.Spec.Annotator}
	for _, qerr := range c.interp.ApplyAll(queries, meta) {
		log.Log(logging.Warn, "pipeline: query apply failed", logging.F("error", qerr.Error()))
	}

	// Publishing completion before or after a failed query still satisfies
	// "at least one process_output has completed" — dependents only need
	// to know this module produced a result, not that every query in it
	// succeeded.
	c.Barrier.MarkDone(rec.ModuleID)
}

func (c *Consumer) finish(ctx context.Context, log logging.Sink) error {
	for _, id := range c.Registry.All() {
		entry, _ := c.Registry.Get(id)
		if err := entry.Module.Finish(ctx, c.Doc); err != nil {
			log.Log(logging.Error, "pipeline: module finish failed", logging.F("module", id), logging.F("error", err.Error()))
		}
	}
	return nil
}
