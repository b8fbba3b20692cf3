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

package editquery

import (
	"fmt"

	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// QueryError wraps a failure applying a single query. It is logged and the
// run continues; it never aborts the consumer.
type QueryError struct {
	Query registry.Query
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("editquery: op %q against %q: %v", e.Query.Op, e.Query.TargetID, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Interpreter applies registry.Query values to a single document.Document.
// It holds no state of its own beyond the document reference: every call
// is independent, matching the consumer's single-reader apply loop.
type Interpreter struct {
	Doc *document.Document
}

// NewInterpreter returns an Interpreter bound to doc.
func NewInterpreter(doc *document.Document) *Interpreter {
	return &Interpreter{Doc: doc}
}

// Apply executes one query against the bound document, returning a
// *QueryError (never any other error type) on failure.
func (it *Interpreter) Apply(q registry.Query, meta document.Meta) error {
	var err error
	switch q.Op {
	case "suggest":
		_, err = it.Doc.AddSuggestions(q.TargetID, q.Suggestions, meta)
	case "errorflag":
		err = it.Doc.AddErrorFlag(q.TargetID, meta)
	case "split":
		_, err = it.Doc.Split(q.TargetID, q.Suggestions, meta)
	case "merge":
		var confidence *float64
		if len(q.Suggestions) == 1 {
			confidence = q.Suggestions[0].Confidence
		}
		_, err = it.Doc.Merge(q.SpanIDs, q.NewWord, confidence, meta)
	case "delete":
		_, err = it.Doc.SuggestDeletion(q.TargetID, q.MergeNeighbor, meta)
	case "insert":
		_, err = it.Doc.SuggestInsertion(q.TargetID, q.NewWord, q.Before, q.SplitSentence, meta)
	default:
		err = fmt.Errorf("unknown op %q", q.Op)
	}
	if err != nil {
		return &QueryError{Query: q, Err: err}
	}
	return nil
}

// ApplyAll executes every query in order, collecting (not stopping on)
// individual QueryErrors and returning them all to the caller for logging.
func (it *Interpreter) ApplyAll(queries []registry.Query, meta document.Meta) []error {
	var errs []error
	for _, q := range queries {
		if err := it.Apply(q, meta); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
