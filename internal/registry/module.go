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

// Package registry holds the module contract, the compile-time
// name-to-constructor map that stands in for the source system's dynamic
// module loading, and the dependency-ordered iteration protocol.
package registry

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"corrigo/pkg/document"
)

// Query is the payload/result shape every edit-query-producing method deals
// in: a mutation request bound to a target element id. It is a thin,
// JSON-serializable mirror of the document package's mutation surface, so a
// module describes an edit as data instead of calling the mutation methods
// itself.
type Query struct {
	Op          string               `json:"op"` // "suggest", "errorflag", "split", "merge", "delete", "insert"
	TargetID    string               `json:"target_id"`
	SpanIDs     []string             `json:"span_ids,omitempty"`
	Suggestions []document.Suggestion `json:"suggestions,omitempty"`
	NewWord     string               `json:"new_word,omitempty"`
	Before      bool                 `json:"before,omitempty"`
	SplitSentence bool               `json:"split_sentence,omitempty"`
	MergeNeighbor bool               `json:"merge_neighbor,omitempty"`
}

// Module is the interface every correction module implements. All methods
// must be side-effect-free on the document except through the Query values
// process_output returns — the consumer is the only thing that ever mutates
// document state.
type Module interface {
	// Init is called once per run, serially, before any dispatch. It should
	// declare the module's correction set/class on the document if not
	// already declared.
	Init(ctx context.Context, doc *document.Document) error

	// PrepareInput is called serially, producer-side, once per matching
	// unit. Returning ok=false drops this unit for this module.
	PrepareInput(ctx context.Context, unit *document.Node, params map[string]string) (payload any, ok bool, err error)

	// Run executes the module's detection logic. It may run in-process or
	// remotely and must be JSON-serializable on both sides.
	Run(ctx context.Context, payload any) (output any, ok bool, err error)

	// ProcessOutput turns a Run result into zero or more edit queries.
	ProcessOutput(ctx context.Context, output, payload any, unitID string, params map[string]string) ([]Query, error)

	// Finish is called once per run, serially, after all results are
	// applied.
	Finish(ctx context.Context, doc *document.Document) error
}

// Loader is the heavy, process-wide initialization hook for a module's model
// files. Modules that have nothing heavy to load may implement it as a
// no-op.
type Loader interface {
	Load() error
}

// ClientLoader is the lighter-weight variant called in the controller
// process when the module runs remotely — it only needs enough state to
// serialize requests and interpret responses, not the full model.
type ClientLoader interface {
	ClientLoad() error
}

// LoadReporter lets a module report its own load for the %GETLOAD% probe.
// Modules that don't implement it get SystemLoad, the package-level
// default: 0.0 means idle, 1.0 means saturated.
type LoadReporter interface {
	ServerLoad() float64
}

// DefaultServerLoad is the value SystemLoad falls back to on a platform
// where /proc/loadavg isn't available.
const DefaultServerLoad = 1.0

// SystemLoad reports the normalized 1-minute system load average: the
// first field of /proc/loadavg divided by the number of CPUs, so 0.0 means
// idle and 1.0 means saturated regardless of core count. Used for any
// module that does not implement LoadReporter. Falls back to
// DefaultServerLoad (report saturated, not idle, so a findservers probe
// prefers servers that opt in with real numbers) if /proc/loadavg can't be
// read or parsed.
func SystemLoad() float64 {
	raw, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return DefaultServerLoad
	}
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return DefaultServerLoad
	}
	avg1, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return DefaultServerLoad
	}
	cpus := runtime.NumCPU()
	if cpus <= 0 {
		cpus = 1
	}
	return avg1 / float64(cpus)
}

// UnitFilter optionally restricts which elements of the declared UnitType a
// module is dispatched against.
type UnitFilter func(*document.Node) bool

// Spec is a module's static configuration, distinct from its runtime Module
// implementation. It is populated from the pipeline YAML configuration (see
// package config) and validated by NewSpec.
type Spec struct {
	ID         string
	Kind       string // selects a constructor from the registry
	UnitType   document.Type
	Filter     UnitFilter
	Local      bool // computed at load time as "no servers configured"; may be forced by --local
	ForceLocal bool
	Submodule  bool
	Depends    []string
	Servers    []ServerAddr
	Set        string
	Class      string
	Annotator  string
	Sources    []string // input corpora a module trains/evaluates from, paired positionally with Models
	Models     []string
	Enabled    bool
}

// ServerAddr is a configured (not yet probed) module server location.
type ServerAddr struct {
	Host string
	Port int
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewSpec validates a module spec's identity constraints: id required, no
// '.', space, or '/'.
func NewSpec(id string) (*Spec, error) {
	if id == "" {
		return nil, fmt.Errorf("registry: module id must not be empty")
	}
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("registry: module id %q contains forbidden characters (no '.', space, or '/')", id)
	}
	return &Spec{ID: id, Enabled: true}, nil
}

// EffectiveLocal reports whether this module should be dispatched
// in-process, honoring a sticky --local override: once ForceLocal is set it
// always wins, regardless of what a later server probe finds.
func (s *Spec) EffectiveLocal() bool {
	if s.ForceLocal {
		return true
	}
	return s.Local
}
