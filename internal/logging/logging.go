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

// Package logging provides the single sink interface every component logs
// through, as an explicit, swappable dependency instead of a package-level
// global.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is a log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Field is a single structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field inline at call sites.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Sink is the minimal logging surface every package in this module depends
// on. Components take a Sink, never a concrete logger.
type Sink interface {
	Log(level Level, msg string, fields ...Field)
}

// zerologSink adapts github.com/rs/zerolog to Sink.
type zerologSink struct {
	logger zerolog.Logger
}

// New returns a Sink backed by zerolog, writing to w at the given minimum
// level. Pass os.Stderr and Info for ordinary CLI use.
func New(w io.Writer, minLevel Level) Sink {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZerolog(minLevel))
	return &zerologSink{logger: zl}
}

// Default returns the package's standard stderr sink at Info level, used
// where a component is constructed without an explicit Sink (tests, simple
// CLI subcommands).
func Default() Sink {
	return New(os.Stderr, Info)
}

func (s *zerologSink) Log(level Level, msg string, fields ...Field) {
	var ev *zerolog.Event
	switch level {
	case Debug:
		ev = s.logger.Debug()
	case Warn:
		ev = s.logger.Warn()
	case Error:
		ev = s.logger.Error()
	default:
		ev = s.logger.Info()
	}
	for _, f := range fields {
		ev = addField(ev, f)
	}
	ev.Msg(msg)
}

func addField(ev *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return ev.Str(f.Key, v)
	case error:
		return ev.AnErr(f.Key, v)
	case int:
		return ev.Int(f.Key, v)
	case int64:
		return ev.Int64(f.Key, v)
	case float64:
		return ev.Float64(f.Key, v)
	case bool:
		return ev.Bool(f.Key, v)
	case time.Duration:
		return ev.Dur(f.Key, v)
	default:
		return ev.Interface(f.Key, v)
	}
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Discard is a Sink that drops every line; useful in tests that don't want
// to assert on log output.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Log(Level, string, ...Field) {}
