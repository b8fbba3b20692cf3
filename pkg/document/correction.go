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

package document

import "time"

// Kind distinguishes the shape of a Correction's suggestion payload.
type Kind int

const (
	KindText Kind = iota
	KindSplit
	KindMerge
	KindDeletion
	KindInsertion
)

// Suggestion is one alternative correction. Words holds a single element for
// ordinary text suggestions and merge/deletion/insertion targets; it holds
// more than one element only for a split suggestion.
type Suggestion struct {
	Words      []string
	Confidence *float64
}

// Correction is the document-level container holding one or more alternative
// suggestions for an original span. The original text is always preserved:
// every edit-query primitive only adds a Correction, it never rewrites the
// text in place.
type Correction struct {
	ID         string
	Set        string
	Class      string
	Annotator  string
	Kind       Kind
	Suggestions []Suggestion
	Original   []string // original word text(s) under the "current" branch
	Timestamp  time.Time
	Auto       bool

	// MergeWithNeighbor: for a deletion of sentence-terminal punctuation,
	// whether applying this suggestion should also merge with a neighboring
	// sentence.
	MergeWithNeighbor bool
	// SplitSentence: for an insertion, whether applying this suggestion
	// should also split the sentence at the pivot.
	SplitSentence bool
	// InsertBefore: for an insertion, whether the new word goes before or
	// after the pivot word.
	InsertBefore bool
	// Span holds the ids of the words a merge suggestion replaces, in order.
	Span []string
}

// ErrorFlag is a standalone error-detection marker (no suggested fix).
type ErrorFlag struct {
	Set       string
	Class     string
	Annotator string
	Timestamp time.Time
}

// Meta bundles the module-identifying fields every edit-query primitive
// attaches to the Correction/ErrorFlag it creates.
type Meta struct {
	Set       string
	Class     string
	Annotator string
}

func (d *Document) newCorrection(meta Meta, kind Kind) *Correction {
	d.mu.Lock()
	id := d.freshID("c")
	d.mu.Unlock()
	return &Correction{
		ID:        id,
		Set:       meta.Set,
		Class:     meta.Class,
		Annotator: meta.Annotator,
		Kind:      kind,
		Timestamp: time.Now(),
		Auto:      true,
	}
}
