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

import (
	"fmt"
	"time"
)

// The methods in this file are the package's edit-query mutation surface.
// Outside this file only AddChild (used while building the tree) and
// DeclareSet (used by Module.Init) write to a document. Only the pipeline consumer is
// expected to call them, and only sequentially (single-writer); no locking
// is done at this layer beyond what's needed for id allocation, by design.

// AddSuggestions attaches a KindText Correction with one or more text
// suggestions to the target element.
func (d *Document) AddSuggestions(targetID string, suggestions []Suggestion, meta Meta) (*Correction, error) {
	n, ok := d.Lookup(targetID)
	if !ok {
		return nil, fmt.Errorf("document: unknown target id %q", targetID)
	}
	c := d.newCorrection(meta, KindText)
	c.Suggestions = suggestions
	if n.Type == TypeWord {
		c.Original = []string{n.Text}
	}
	n.Corrections = append(n.Corrections, c)
	return c, nil
}

// AddErrorFlag attaches a standalone error-detection marker to the target
// element.
func (d *Document) AddErrorFlag(targetID string, meta Meta) error {
	n, ok := d.Lookup(targetID)
	if !ok {
		return fmt.Errorf("document: unknown target id %q", targetID)
	}
	n.ErrorFlags = append(n.ErrorFlags, &ErrorFlag{
		Set: meta.Set, Class: meta.Class, Annotator: meta.Annotator, Timestamp: time.Now(),
	})
	return nil
}

// Split attaches a Correction to a Word suggesting it be replaced by an
// ordered list of new words. Multiple alternative splits may be attached to
// the same word by calling Split again; the interpreter is robust to
// repeated queries on the same element and corrections simply accumulate.
func (d *Document) Split(wordID string, alternatives []Suggestion, meta Meta) (*Correction, error) {
	n, ok := d.Lookup(wordID)
	if !ok {
		return nil, fmt.Errorf("document: unknown target id %q", wordID)
	}
	if n.Type != TypeWord {
		return nil, fmt.Errorf("document: split target %q is not a Word", wordID)
	}
	c := d.newCorrection(meta, KindSplit)
	c.Suggestions = alternatives
	c.Original = []string{n.Text}
	n.Corrections = append(n.Corrections, c)
	return c, nil
}

// Merge attaches a Correction to the first word of an ordered span of
// adjacent word ids, suggesting the whole span be replaced by one new word.
func (d *Document) Merge(spanIDs []string, newWord string, confidence *float64, meta Meta) (*Correction, error) {
	if len(spanIDs) < 2 {
		return nil, fmt.Errorf("document: merge span needs at least 2 words, got %d", len(spanIDs))
	}
	nodes := make([]*Node, len(spanIDs))
	original := make([]string, len(spanIDs))
	for i, id := range spanIDs {
		n, ok := d.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("document: unknown span id %q", id)
		}
		if n.Type != TypeWord {
			return nil, fmt.Errorf("document: merge span id %q is not a Word", id)
		}
		nodes[i] = n
		original[i] = n.Text
	}
	c := d.newCorrection(meta, KindMerge)
	c.Suggestions = []Suggestion{{Words: []string{newWord}, Confidence: confidence}}
	c.Original = original
	c.Span = append([]string(nil), spanIDs...)
	// Anchored on the first word of the span.
	nodes[0].Corrections = append(nodes[0].Corrections, c)
	return c, nil
}

// SuggestDeletion attaches a Correction to a Word whose suggestion is empty.
// mergeWithNeighbor records whether applying this suggestion should also
// merge with a neighboring structure element (used for sentence-terminal
// punctuation deletions).
func (d *Document) SuggestDeletion(wordID string, mergeWithNeighbor bool, meta Meta) (*Correction, error) {
	n, ok := d.Lookup(wordID)
	if !ok {
		return nil, fmt.Errorf("document: unknown target id %q", wordID)
	}
	if n.Type != TypeWord {
		return nil, fmt.Errorf("document: deletion target %q is not a Word", wordID)
	}
	c := d.newCorrection(meta, KindDeletion)
	c.Original = []string{n.Text}
	c.Suggestions = []Suggestion{{Words: nil}}
	c.MergeWithNeighbor = mergeWithNeighbor
	n.Corrections = append(n.Corrections, c)
	return c, nil
}

// SuggestInsertion attaches a Correction to a pivot Word suggesting a new
// word be inserted before or after it. splitSentence records whether
// applying the suggestion should also split the sentence at the pivot.
func (d *Document) SuggestInsertion(pivotID, newWord string, before, splitSentence bool, meta Meta) (*Correction, error) {
	n, ok := d.Lookup(pivotID)
	if !ok {
		return nil, fmt.Errorf("document: unknown target id %q", pivotID)
	}
	if n.Type != TypeWord {
		return nil, fmt.Errorf("document: insertion pivot %q is not a Word", pivotID)
	}
	c := d.newCorrection(meta, KindInsertion)
	c.Suggestions = []Suggestion{{Words: []string{newWord}}}
	c.InsertBefore = before
	c.SplitSentence = splitSentence
	n.Corrections = append(n.Corrections, c)
	return c, nil
}
