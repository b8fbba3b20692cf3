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

package registry

import (
	"fmt"
	"sort"
)

// Constructor builds a Module implementation from a validated Spec. Modules
// are selected by Spec.Kind, resolved at compile time through the catalog
// rather than loaded dynamically by name.
type Constructor func(spec *Spec) (Module, error)

// Catalog is the compile-time map from module kind name to constructor,
// populated at program start by each module package's init-time
// registration (see internal/modules).
type Catalog struct {
	constructors map[string]Constructor
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{constructors: map[string]Constructor{}}
}

// Register adds a constructor under the given kind name. Re-registering the
// same kind overwrites the previous entry, matching how a package's init
// function would win the last call in Go's deterministic init order.
func (c *Catalog) Register(kind string, ctor Constructor) {
	c.constructors[kind] = ctor
}

// Build resolves spec.Kind to a constructor and invokes it.
func (c *Catalog) Build(spec *Spec) (Module, error) {
	ctor, ok := c.constructors[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("registry: unknown module kind %q for id %q", spec.Kind, spec.ID)
	}
	return ctor(spec)
}

// Entry pairs a module's validated Spec with its constructed Module
// instance.
type Entry struct {
	Spec   *Spec
	Module Module
}

// Registry is the pipeline controller's live view: every configured
// module's Spec (enabled or not) and constructed Module instance, keyed by
// id.
type Registry struct {
	entries map[string]*Entry
	order   []string // insertion order, preserved for stable iteration
}

// NewRegistry builds a Registry from validated specs and a catalog,
// rejecting duplicate ids.
func NewRegistry(specs []*Spec, catalog *Catalog) (*Registry, error) {
	r := &Registry{entries: map[string]*Entry{}}
	for _, spec := range specs {
		if _, dup := r.entries[spec.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate module id %q", spec.ID)
		}
		mod, err := catalog.Build(spec)
		if err != nil {
			return nil, err
		}
		r.entries[spec.ID] = &Entry{Spec: spec, Module: mod}
		r.order = append(r.order, spec.ID)
	}
	if err := checkDependencyDAG(r.entries); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadAll runs each enabled module's process-wide initialization hook,
// choosing the heavy Loader variant for a module dispatched in-process and
// the lighter ClientLoader variant for one dispatched to a remote server,
// per-entry, honoring EffectiveLocal. A module implementing neither
// interface is left alone.
func (r *Registry) LoadAll() error {
	for _, id := range r.order {
		e := r.entries[id]
		if !e.Spec.Enabled {
			continue
		}
		if e.Spec.EffectiveLocal() {
			if l, ok := e.Module.(Loader); ok {
				if err := l.Load(); err != nil {
					return fmt.Errorf("registry: loading module %q: %w", id, err)
				}
			}
			continue
		}
		if cl, ok := e.Module.(ClientLoader); ok {
			if err := cl.ClientLoad(); err != nil {
				return fmt.Errorf("registry: client-loading module %q: %w", id, err)
			}
		}
	}
	return nil
}

// Get returns the entry for a module id.
func (r *Registry) Get(id string) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Dispatchable returns every enabled, non-submodule entry's id, in config order —
// these are the modules the pipeline dispatches directly; a module marked
// submodule is never dispatched on its own.
func (r *Registry) Dispatchable() []string {
	var out []string
	for _, id := range r.order {
		e := r.entries[id]
		if e.Spec.Enabled && !e.Spec.Submodule {
			out = append(out, id)
		}
	}
	return out
}

// All returns every enabled entry's id (including submodules), in config
// order — used for Init/Finish, which run over every enabled module.
func (r *Registry) All() []string {
	var out []string
	for _, id := range r.order {
		if r.entries[id].Spec.Enabled {
			out = append(out, id)
		}
	}
	return out
}

// checkDependencyDAG fails fast if depends forms a cycle: a topological
// pass that makes no progress means some module's dependency chain cycles
// back on itself.
func checkDependencyDAG(entries map[string]*Entry) error {
	_, err := topoOrder(entries)
	return err
}

// topoOrder yields a dependency-ordered iteration: repeated scans collect
// every module whose dependencies are already "done"; a pass with no
// progress means the DAG is cyclic.
func topoOrder(entries map[string]*Entry) ([]string, error) {
	remaining := map[string]*Entry{}
	for id, e := range entries {
		if !e.Spec.Enabled {
			continue
		}
		for _, dep := range e.Spec.Depends {
			if _, ok := entries[dep]; !ok {
				return nil, fmt.Errorf("registry: module %q depends on unknown module %q", id, dep)
			}
		}
		remaining[id] = e
	}

	done := map[string]bool{}
	var order []string
	for len(remaining) > 0 {
		var progressed []string
		for id, e := range remaining {
			ready := true
			for _, dep := range e.Spec.Depends {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				progressed = append(progressed, id)
			}
		}
		if len(progressed) == 0 {
			return nil, fmt.Errorf("registry: cyclic module dependency detected among %v", sortedKeys(remaining))
		}
		sort.Strings(progressed) // deterministic order for equal-readiness ties
		for _, id := range progressed {
			done[id] = true
			order = append(order, id)
			delete(remaining, id)
		}
	}
	return order, nil
}

func sortedKeys(m map[string]*Entry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
