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
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"time"

	"corrigo/internal/logging"
	"corrigo/internal/registry"
	"corrigo/internal/wire"
)

// StatsRecorder receives per-module completion/failure counters. Satisfied
// by internal/metrics.Set; nil-safe (a Worker with no recorder
// simply skips reporting).
type StatsRecorder interface {
	RecordCompletion(moduleID string, d time.Duration)
	RecordFailure(moduleID string)
}

// Telemetry receives dispatch observability events. Satisfied by
// internal/telemetry.Metrics; nil-safe.
type Telemetry interface {
	ObserveDispatch(moduleID string, d time.Duration, remote bool)
	IncError(kind string)
}

// Worker consumes the input queue and dispatches module invocations either
// in-process or over the wire.
type Worker struct {
	ID       int
	Registry *registry.Registry
	Barrier  *DoneSet
	In       <-chan UnitPayload
	Out      chan<- ResultRecord
	Timeout  time.Duration // queue-get timeout; default 120s
	Debug    bool
	Log      logging.Sink
	Stats    StatsRecorder
	Telem    Telemetry
	DialTO   time.Duration // per-call server timeout; defaults to Timeout

	clients map[string]*wire.Client
	seq     map[string]int
}

// Run drains the input queue until a sentinel arrives or the queue-get
// times out; both are a graceful stop.
func (w *Worker) Run(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = logging.Discard
	}
	if w.clients == nil {
		w.clients = map[string]*wire.Client{}
	}
	if w.seq == nil {
		w.seq = map[string]int{}
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	defer w.closeClients()

	for {
		select {
		case <-ctx.Done():
			return
		case item, open := <-w.In:
			if !open {
				return
			}
			if item.Sentinel {
				return
			}
			w.dispatch(ctx, item, log)
		case <-time.After(timeout):
			log.Log(logging.Warn, "pipeline: worker input timeout, stopping", logging.F("worker", w.ID))
			return
		}
	}
}

func (w *Worker) closeClients() {
	for _, c := range w.clients {
		_ = c.Close()
	}
}

func (w *Worker) dispatch(ctx context.Context, item UnitPayload, log logging.Sink) {
	entry, ok := w.Registry.Get(item.ModuleID)
	if !ok {
		log.Log(logging.Warn, "pipeline: dispatch for unknown module", logging.F("module", item.ModuleID))
		return
	}
	if entry.Spec.Submodule {
		return
	}
	if err := w.Barrier.Wait(ctx, entry.Spec.Depends); err != nil {
		log.Log(logging.Warn, "pipeline: dependency wait aborted", logging.F("module", item.ModuleID), logging.F("error", err.Error()))
		return
	}

	start := time.Now()
	var (
		output any
		got    bool
		err    error
		remote bool
	)
	if entry.Spec.EffectiveLocal() {
		output, got, err = entry.Module.Run(ctx, item.Payload)
	} else {
		remote = true
		output, got, err = w.dispatchRemote(entry, item, log)
	}
	dur := time.Since(start)

	if w.Telem != nil {
		w.Telem.ObserveDispatch(item.ModuleID, dur, remote)
	}
	if w.Debug {
		log.Log(logging.Debug, "pipeline: dispatch complete",
			logging.F("module", item.ModuleID), logging.F("unit", item.UnitID),
			logging.F("remote", remote), logging.F("duration", dur))
	}

	if err != nil {
		log.Log(logging.Error, "pipeline: module run failed", logging.F("module", item.ModuleID), logging.F("unit", item.UnitID), logging.F("error", err.Error()))
		if w.Stats != nil {
			w.Stats.RecordFailure(item.ModuleID)
		}
		if w.Telem != nil {
			w.Telem.IncError("ModuleRunError")
		}
		return
	}
	if !got {
		return
	}
	if w.Stats != nil {
		w.Stats.RecordCompletion(item.ModuleID, dur)
	}
	w.Out <- ResultRecord{ModuleID: item.ModuleID, UnitID: item.UnitID, Output: output, Payload: item.Payload}
}

// dispatchRemote implements the remote-dispatch rotation: a
// per-module sequence counter (seeded randomly on first use) selects the
// next server; on ConnectionRefused or any transport error the client is
// dropped and the next server in rotation is tried, up to 10*len(servers)
// total attempts.
func (w *Worker) dispatchRemote(entry *registry.Entry, item UnitPayload, log logging.Sink) (any, bool, error) {
	servers := entry.Spec.Servers
	if len(servers) == 0 {
		return nil, false, fmt.Errorf("pipeline: module %q has no servers configured", item.ModuleID)
	}
	if _, ok := w.seq[item.ModuleID]; !ok {
		w.seq[item.ModuleID] = rand.Intn(len(servers))
	}

	reqJSON, err := json.Marshal(item.Payload)
	if err != nil {
		return nil, false, fmt.Errorf("pipeline: marshal payload for %q: %w", item.ModuleID, err)
	}

	timeout := w.DialTO
	if timeout <= 0 {
		timeout = w.Timeout
	}

	budget := 10 * len(servers)
	for attempt := 0; attempt < budget; attempt++ {
		idx := w.seq[item.ModuleID] % len(servers)
		w.seq[item.ModuleID]++
		srv := servers[idx]
		addr := net.JoinHostPort(srv.Host, strconv.Itoa(srv.Port))

		client, derr := w.clientFor(addr, timeout)
		if derr != nil {
			log.Log(logging.Warn, "pipeline: dial failed, dropping server", logging.F("module", item.ModuleID), logging.F("server", addr), logging.F("error", derr.Error()))
			delete(w.clients, addr)
			if w.Telem != nil {
				w.Telem.IncError("TransportError")
			}
			continue
		}

		if w.Debug {
			log.Log(logging.Debug, "pipeline: remote dispatch", logging.F("module", item.ModuleID), logging.F("server", addr), logging.F("unit", item.UnitID), logging.F("payload", item.Payload))
		}

		respJSON, cerr := client.Call(reqJSON, timeout)
		if cerr != nil {
			class := wire.Classify(cerr)
			log.Log(logging.Warn, "pipeline: remote call failed, dropping server", logging.F("module", item.ModuleID), logging.F("server", addr), logging.F("class", string(class)), logging.F("error", cerr.Error()))
			_ = client.Close()
			delete(w.clients, addr)
			if w.Telem != nil {
				w.Telem.IncError("TransportError")
			}
			continue
		}

		if string(respJSON) == "null" {
			return nil, false, nil
		}
		var out any
		if err := json.Unmarshal(respJSON, &out); err != nil {
			return nil, false, fmt.Errorf("pipeline: unmarshal response from %q: %w", addr, err)
		}
		return out, true, nil
	}
	if w.Telem != nil {
		w.Telem.IncError("ServerUnreachable")
	}
	return nil, false, fmt.Errorf("pipeline: module %q: all servers unreachable after %d attempts", item.ModuleID, budget)
}

func (w *Worker) clientFor(addr string, timeout time.Duration) (*wire.Client, error) {
	if c, ok := w.clients[addr]; ok {
		return c, nil
	}
	c, err := wire.Dial(addr, timeout)
	if err != nil {
		return nil, err
	}
	w.clients[addr] = c
	return c, nil
}
