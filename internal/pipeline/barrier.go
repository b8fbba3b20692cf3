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
)

// DoneSet publishes "module M has produced at least one completion" events
// for the dependency barrier. Each module id gets a channel that is closed
// exactly once, on its first completion, and every waiter selects on it
// instead of spinning against a mutex-guarded map.
type DoneSet struct {
	mu   sync.Mutex
	done map[string]chan struct{}
}

// NewDoneSet pre-creates one channel per module id known to the registry,
// so MarkDone and Wait never race on map creation.
func NewDoneSet(moduleIDs []string) *DoneSet {
	d := &DoneSet{done: make(map[string]chan struct{}, len(moduleIDs))}
	for _, id := range moduleIDs {
		d.done[id] = make(chan struct{})
	}
	return d
}

// MarkDone records that moduleID has produced a completion, unblocking any
// waiters. Safe to call multiple times; only the first call has an effect.
func (d *DoneSet) MarkDone(moduleID string) {
	d.mu.Lock()
	ch, ok := d.done[moduleID]
	if !ok {
		ch = make(chan struct{})
		d.done[moduleID] = ch
	}
	d.mu.Unlock()
	select {
	case <-ch:
		// already closed
	default:
		d.mu.Lock()
		select {
		case <-ch:
		default:
			close(ch)
		}
		d.mu.Unlock()
	}
}

// channelFor returns the (possibly lazily created) done channel for id.
func (d *DoneSet) channelFor(id string) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.done[id]
	if !ok {
		ch = make(chan struct{})
		d.done[id] = ch
	}
	return ch
}

// Wait blocks until every id in deps has published a completion, or ctx is
// canceled: a worker calls this before running a module so a module never
// sees input from a dependency that hasn't produced anything yet.
func (d *DoneSet) Wait(ctx context.Context, deps []string) error {
	for _, dep := range deps {
		ch := d.channelFor(dep)
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
