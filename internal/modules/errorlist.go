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

// Package modules holds concrete correction module implementations,
// registered against a registry.Catalog by kind name.
package modules

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// errorListDelimiter separates the wrong/correct fields of each line of a
// model file, matching WordErrorListModule's default settings['delimiter'].
const errorListDelimiter = "\t"

// ErrorListModule is a word-level lookup against one or more flat wrong->
// correct model files, directly adapted from
// gecco/modules/errorlist.py's WordErrorListModule: load() parses
// "wrong<TAB>correct" lines (accumulating multiple corrections for a
// repeated wrong form), and run() looks the surface word up verbatim. A
// word that isn't in the list yields ok=false, which a module server
// answers with a null response.
type ErrorListModule struct {
	spec *registry.Spec

	errorList map[string][]string
}

// NewErrorListModule is a registry.Constructor for kind "errorlist". It
// fixes the module's unit type to Word, mirroring
// WordErrorListModule's class attribute "UNIT = folia.Word" — the kind
// itself determines the unit type, not the pipeline configuration.
func NewErrorListModule(spec *registry.Spec) (registry.Module, error) {
	spec.UnitType = document.TypeWord
	return &ErrorListModule{spec: spec, errorList: map[string][]string{}}, nil
}

// Load parses every model file declared on the module, matching
// WordErrorListModule.load's validation (a model file is required; each
// line must split into exactly two delimiter-separated fields).
func (m *ErrorListModule) Load() error {
	if len(m.spec.Models) == 0 {
		return fmt.Errorf("errorlist[%s]: specify one or more models to load", m.spec.ID)
	}
	for _, path := range m.spec.Models {
		if err := m.loadFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (m *ErrorListModule) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("errorlist[%s]: missing expected model file %s: %w", m.spec.ID, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, errorListDelimiter)
		if len(fields) != 2 {
			return fmt.Errorf("errorlist[%s]: syntax error in %s line %d, expected two fields, got %d", m.spec.ID, path, lineNo, len(fields))
		}
		wrong, correct := fields[0], fields[1]
		m.errorList[wrong] = append(m.errorList[wrong], correct)
	}
	return scanner.Err()
}

// ClientLoad is a no-op: a remote-dispatched errorlist module needs nothing
// beyond the wire protocol to serialize requests and interpret responses.
func (m *ErrorListModule) ClientLoad() error { return nil }

func (m *ErrorListModule) Init(ctx context.Context, doc *document.Document) error {
	doc.DeclareSet(m.spec.Set, m.spec.Class)
	return nil
}

func (m *ErrorListModule) PrepareInput(ctx context.Context, unit *document.Node, params map[string]string) (any, bool, error) {
	return unit.Text, true, nil
}

// Run looks wordstr up verbatim, mirroring run()'s "if wordstr in
// self.errorlist: self.process(word, suggestions)". A miss yields ok=false,
// i.e. no output record at all — matching the Python module's silence.
func (m *ErrorListModule) Run(ctx context.Context, payload any) (any, bool, error) {
	word, _ := payload.(string)
	suggestions, found := m.errorList[word]
	if !found {
		return nil, false, nil
	}
	return suggestions, true, nil
}

// ProcessOutput turns the matched corrections into a single suggest query.
// output arrives as []string for a local run, or []interface{} of strings
// once it has round-tripped through JSON from a remote server.
func (m *ErrorListModule) ProcessOutput(ctx context.Context, output, payload any, unitID string, params map[string]string) ([]registry.Query, error) {
	words, err := coerceStringSlice(output)
	if err != nil {
		return nil, fmt.Errorf("errorlist[%s]: %w", m.spec.ID, err)
	}
	if len(words) == 0 {
		return nil, nil
	}
	return []registry.Query{{
		Op:       "suggest",
		TargetID: unitID,
		Suggestions: []document.Suggestion{
			{Words: words},
		},
	}}, nil
}

func (m *ErrorListModule) Finish(ctx context.Context, doc *document.Document) error { return nil }

func coerceStringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected string elements, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected output shape %T", v)
	}
}

func init() {
	DefaultCatalog.Register("errorlist", NewErrorListModule)
}
