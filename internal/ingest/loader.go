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

// Package ingest turns plain text into a document.Document tree. It is a
// deliberately minimal stand-in for a configurable external tokenizer:
// paragraph-per-blank-line, sentence-per-terminal-punctuation,
// word-per-whitespace. Nothing here reads or writes a richer annotated
// document format; see pkg/document's own doc comment for that boundary.
package ingest

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"corrigo/pkg/document"
)

// LoadText builds a Document from raw text. id, when empty, is generated
// with a random identifier so two documents loaded in the same run never
// collide.
func LoadText(id, text string) *document.Document {
	if id == "" {
		id = "doc-" + uuid.NewString()
	}
	doc := document.New(id)

	for _, paraText := range splitParagraphs(text) {
		para := doc.AddChild(doc.Root, document.TypeParagraph, "")
		for _, sentText := range splitSentences(paraText) {
			sent := doc.AddChild(para, document.TypeSentence, "")
			for _, word := range splitWords(sentText) {
				doc.AddChild(sent, document.TypeWord, word)
			}
		}
	}
	return doc
}

// splitParagraphs treats one or more consecutive blank lines as a
// paragraph boundary.
func splitParagraphs(text string) []string {
	var paras []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if cur.Len() > 0 {
				paras = append(paras, cur.String())
				cur.Reset()
			}
			continue
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		paras = append(paras, cur.String())
	}
	return paras
}

// splitSentences breaks on '.', '!', or '?' followed by whitespace (or end
// of input), keeping the terminal punctuation attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		isTerminal := r == '.' || r == '!' || r == '?'
		atBoundary := i == len(runes)-1 || unicode.IsSpace(runes[i+1])
		if isTerminal && atBoundary {
			if s := strings.TrimSpace(cur.String()); s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// splitWords splits on whitespace only; punctuation stays attached to its
// neighboring token, matching the coarse granularity a real tokenizer would
// refine.
func splitWords(text string) []string {
	return strings.Fields(text)
}
