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
	"sync"
	"time"

	"corrigo/internal/logging"
	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// Config holds the pipeline-level run settings, distinct from the parts
// owned by package config: id/root/ucto/language.
type Config struct {
	Threads         int
	Timeout         time.Duration // default 120s
	MinPollInterval time.Duration // default 60s, advisory only for now
	Debug           bool
}

// Controller orchestrates one pipeline run end to end: starts the
// consumer, starts the worker pool, runs the producer, drains everything,
// and joins the consumer.
type Controller struct {
	Registry *registry.Registry
	Doc      *document.Document
	Params   map[string]string
	Config   Config
	Log      logging.Sink
	Stats    StatsRecorder
	Telem    Telemetry
}

// Run executes the full producer -> workers -> consumer pipeline
// synchronously, returning once the document has had every available
// result applied and every module's Finish has run.
func (ctrl *Controller) Run(ctx context.Context) error {
	log := ctrl.Log
	if log == nil {
		log = logging.Discard
	}
	threads := ctrl.Config.Threads
	if threads <= 0 {
		threads = 1
	}
	timeout := ctrl.Config.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	input := make(chan UnitPayload, 4096)
	output := make(chan ResultRecord, 4096)
	done := NewDoneSet(ctrl.Registry.All())

	consumer := &Consumer{
		Registry: ctrl.Registry,
		Doc:      ctrl.Doc,
		Barrier:  done,
		In:       output,
		Timeout:  timeout,
		Log:      log,
		Stats:    ctrl.Stats,
	}
	consumerDone := make(chan error, 1)
	go func() { consumerDone <- consumer.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		w := &Worker{
			ID:       i,
			Registry: ctrl.Registry,
			Barrier:  done,
			In:       input,
			Out:      output,
			Timeout:  timeout,
			Debug:    ctrl.Config.Debug,
			Log:      log,
			Stats:    ctrl.Stats,
			Telem:    ctrl.Telem,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	producer := &Producer{
		Registry: ctrl.Registry,
		Doc:      ctrl.Doc,
		Params:   ctrl.Params,
		Workers:  threads,
		Log:      log,
	}
	producerErr := producer.Run(ctx, input)

	// The producer sends exactly `threads` sentinels; each worker stops on
	// the first one it receives (or on the queue-get timeout); once they have, closing the output queue signals
	// the consumer to run Finish and return.
	wg.Wait()
	close(output)

	if err := <-consumerDone; err != nil {
		return err
	}
	return producerErr
}
