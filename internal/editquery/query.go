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

// Package editquery implements a small document-mutation query language: a
// declarative string form modules may emit instead of (or in addition to) a
// structured registry.Query, plus the interpreter that executes either
// shape against a document.Document. Modules that build a registry.Query
// directly skip straight to Interpreter.Apply; Format/Parse exist for the
// modules and wire payloads that prefer the string form.
package editquery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// value is a small tagged union for one argument. The parser does not use
// it: parsed arguments are plain Go values (string, []string, float64,
// bool, []document.Suggestion).
type value struct {
	str    string
	strs   []string
	num    float64
	hasNum bool
	boo    bool
	hasBoo bool
}

// Format renders a registry.Query as the declarative string form, quoting
// and escaping every text value.
func Format(q registry.Query) (string, error) {
	var b strings.Builder
	args := map[string]string{}

	switch q.Op {
	case "suggest":
		b.WriteString("suggest(")
		args["target"] = quote(q.TargetID)
		args["suggestions"] = formatSuggestions(q.Suggestions)
	case "errorflag":
		b.WriteString("errorflag(")
		args["target"] = quote(q.TargetID)
	case "split":
		b.WriteString("split(")
		args["target"] = quote(q.TargetID)
		args["suggestions"] = formatSuggestions(q.Suggestions)
	case "merge":
		b.WriteString("merge(")
		args["span"] = formatStrings(q.SpanIDs)
		args["text"] = quote(q.NewWord)
	case "delete":
		b.WriteString("delete(")
		args["target"] = quote(q.TargetID)
		args["merge_neighbor"] = strconv.FormatBool(q.MergeNeighbor)
	case "insert":
		b.WriteString("insert(")
		args["target"] = quote(q.TargetID)
		args["text"] = quote(q.NewWord)
		args["before"] = strconv.FormatBool(q.Before)
		args["split_sentence"] = strconv.FormatBool(q.SplitSentence)
	default:
		return "", fmt.Errorf("editquery: unknown op %q", q.Op)
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(args[k])
	}
	b.WriteString(")")
	return b.String(), nil
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatStrings(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = quote(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatSuggestions(suggestions []document.Suggestion) string {
	parts := make([]string, len(suggestions))
	for i, s := range suggestions {
		conf := "null"
		if s.Confidence != nil {
			conf = strconv.FormatFloat(*s.Confidence, 'f', -1, 64)
		}
		parts[i] = fmt.Sprintf("{words=%s, confidence=%s}", formatStrings(s.Words), conf)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Parse parses the declarative string form back into a registry.Query.
func Parse(s string) (registry.Query, error) {
	p := &parser{input: s}
	return p.parseQuery()
}
