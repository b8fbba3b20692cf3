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
	"strconv"
	"strings"

	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// parser is a small hand-rolled recursive-descent reader for the DSL
// produced by Format. It is intentionally minimal: one op call with named
// arguments whose values are quoted strings, string arrays, numbers,
// booleans, or suggestion-object arrays.
type parser struct {
	input string
	pos   int
}

func (p *parser) parseQuery() (registry.Query, error) {
	op, err := p.ident()
	if err != nil {
		return registry.Query{}, err
	}
	if err := p.expect('('); err != nil {
		return registry.Query{}, err
	}
	args := map[string]any{}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			break
		}
		key, err := p.ident()
		if err != nil {
			return registry.Query{}, err
		}
		if err := p.expect('='); err != nil {
			return registry.Query{}, err
		}
		val, err := p.value()
		if err != nil {
			return registry.Query{}, err
		}
		args[key] = val
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if err := p.expect(')'); err != nil {
			return registry.Query{}, err
		}
		break
	}

	q := registry.Query{Op: op}
	if v, ok := args["target"].(string); ok {
		q.TargetID = v
	}
	if v, ok := args["text"].(string); ok {
		q.NewWord = v
	}
	if v, ok := args["span"].([]string); ok {
		q.SpanIDs = v
	}
	if v, ok := args["before"].(bool); ok {
		q.Before = v
	}
	if v, ok := args["split_sentence"].(bool); ok {
		q.SplitSentence = v
	}
	if v, ok := args["merge_neighbor"].(bool); ok {
		q.MergeNeighbor = v
	}
	if v, ok := args["suggestions"].([]document.Suggestion); ok {
		q.Suggestions = v
	}
	return q, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("editquery: expected %q at position %d in %q", c, p.pos, p.input)
	}
	p.pos++
	return nil
}

func (p *parser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && (isAlnum(p.input[p.pos]) || p.input[p.pos] == '_') {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("editquery: expected identifier at position %d in %q", p.pos, p.input)
	}
	return p.input[start:p.pos], nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-'
}

func (p *parser) value() (any, error) {
	switch c := p.peek(); {
	case c == '"':
		return p.quotedString()
	case c == '[':
		return p.arrayOfStringsOrSuggestions()
	case c == '{':
		return p.suggestionObject()
	case c == 't' || c == 'f':
		return p.boolValue()
	case c == 'n':
		return p.nullValue()
	default:
		return p.numberValue()
	}
}

// arrayOfStringsOrSuggestions looks past the opening '[' to decide whether
// this is a plain string array (span=["id1","id2"]) or an array of
// suggestion objects (suggestions=[{words=[...], confidence=...}]).
func (p *parser) arrayOfStringsOrSuggestions() (any, error) {
	save := p.pos
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '[' {
		inner := p.pos + 1
		for inner < len(p.input) && (p.input[inner] == ' ' || p.input[inner] == '\t' || p.input[inner] == '\n') {
			inner++
		}
		if inner < len(p.input) && p.input[inner] == '{' {
			p.pos = save
			return p.suggestionArray()
		}
	}
	p.pos = save
	return p.arrayValue()
}

func (p *parser) quotedString() (string, error) {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '"' {
		return "", fmt.Errorf("editquery: expected quoted string at position %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '\\' && p.pos+1 < len(p.input) {
			next := p.input[p.pos+1]
			if next == '"' || next == '\\' {
				b.WriteByte(next)
				p.pos += 2
				continue
			}
		}
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("editquery: unterminated quoted string at position %d", p.pos)
}

func (p *parser) arrayValue() (any, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	var strs []string
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			break
		}
		s, err := p.quotedString()
		if err != nil {
			return nil, err
		}
		strs = append(strs, s)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		break
	}
	return strs, nil
}

func (p *parser) suggestionObject() (document.Suggestion, error) {
	if err := p.expect('{'); err != nil {
		return document.Suggestion{}, err
	}
	var s document.Suggestion
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			break
		}
		key, err := p.ident()
		if err != nil {
			return s, err
		}
		if err := p.expect('='); err != nil {
			return s, err
		}
		switch key {
		case "words":
			v, err := p.arrayValue()
			if err != nil {
				return s, err
			}
			s.Words = v.([]string)
		case "confidence":
			if p.peek() == 'n' {
				if _, err := p.nullValue(); err != nil {
					return s, err
				}
			} else {
				f, err := p.numberValue()
				if err != nil {
					return s, err
				}
				fv := f.(float64)
				s.Confidence = &fv
			}
		default:
			return s, fmt.Errorf("editquery: unknown suggestion field %q", key)
		}
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if err := p.expect('}'); err != nil {
			return s, err
		}
		break
	}
	return s, nil
}

// suggestionArray parses an array of suggestion objects — used for
// split's "multiple alternative splits" and ordinary multi-suggestion
// "suggest" queries.
func (p *parser) suggestionArray() ([]document.Suggestion, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	var out []document.Suggestion
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			break
		}
		s, err := p.suggestionObject()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		break
	}
	return out, nil
}

func (p *parser) boolValue() (bool, error) {
	if strings.HasPrefix(p.input[p.pos:], "true") {
		p.pos += 4
		return true, nil
	}
	if strings.HasPrefix(p.input[p.pos:], "false") {
		p.pos += 5
		return false, nil
	}
	return false, fmt.Errorf("editquery: expected boolean at position %d", p.pos)
}

func (p *parser) nullValue() (any, error) {
	if strings.HasPrefix(p.input[p.pos:], "null") {
		p.pos += 4
		return nil, nil
	}
	return nil, fmt.Errorf("editquery: expected null at position %d", p.pos)
}

func (p *parser) numberValue() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return nil, fmt.Errorf("editquery: expected number at position %d", p.pos)
	}
	f, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("editquery: invalid number %q: %w", p.input[start:p.pos], err)
	}
	return f, nil
}
