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
	"encoding/json"
	"encoding/xml"
)

// SuggestionSummary is the flattened, serialization-friendly shape of a
// Correction, matching the "index/text/suggestions/annotator" projection the
// pipeline's dump commands print. It intentionally does not attempt to
// reproduce the real annotated-document file format, which is out of scope
// for the core (see package document's doc comment).
type SuggestionSummary struct {
	ElementID   string   `json:"id" xml:"id,attr"`
	Text        string   `json:"text" xml:"text"`
	Suggestions []string `json:"suggestions" xml:"suggestion"`
	Annotator   string   `json:"annotator,omitempty" xml:"annotator,attr,omitempty"`
	Class       string   `json:"class,omitempty" xml:"class,attr,omitempty"`
}

// Summarize walks the document and flattens every Correction into a
// SuggestionSummary, in document order.
func (d *Document) Summarize() []SuggestionSummary {
	var out []SuggestionSummary
	var visit func(n *Node)
	visit = func(n *Node) {
		for _, c := range n.Corrections {
			var texts []string
			for _, s := range c.Suggestions {
				for _, w := range s.Words {
					texts = append(texts, w)
				}
				if len(s.Words) == 0 {
					texts = append(texts, "")
				}
			}
			out = append(out, SuggestionSummary{
				ElementID:   n.ID,
				Text:        n.Text,
				Suggestions: texts,
				Annotator:   c.Annotator,
				Class:       c.Class,
			})
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(d.Root)
	return out
}

// DumpJSON renders Summarize's output as indented JSON.
func (d *Document) DumpJSON() ([]byte, error) {
	return json.MarshalIndent(d.Summarize(), "", "  ")
}

type xmlDump struct {
	XMLName     xml.Name            `xml:"corrections"`
	Corrections []SuggestionSummary `xml:"correction"`
}

// DumpXML renders Summarize's output as indented XML.
func (d *Document) DumpXML() ([]byte, error) {
	return xml.MarshalIndent(xmlDump{Corrections: d.Summarize()}, "", "  ")
}
