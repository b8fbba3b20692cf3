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

package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"

	"corrigo/internal/logging"
)

// Handler is the server-side hook for a module call: decode the request
// payload, run the module, encode the response. It is supplied by whatever
// wraps a live Module instance (see internal/pipeline), keeping this package
// free of any dependency on the module contract itself.
type Handler func(requestJSON []byte) (responseJSON []byte, err error)

// LoadFunc reports the server's current load for the %GETLOAD% probe.
type LoadFunc func() float64

// Server accepts TCP connections and, on each one, loops handling frames
// until the client disconnects. One Server hosts exactly one module.
type Server struct {
	Addr    string
	Handler Handler
	Load    LoadFunc
	Log     logging.Sink
}

// ListenAndServe binds Addr with SO_REUSEADDR semantics (Go's net package
// sets this by default on Listen) and serves until the listener is closed
// or an unrecoverable accept error occurs.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("wire: listen %s: %w", s.Addr, err)
	}
	defer ln.Close()
	return s.Serve(ln)
}

// Serve accepts connections from ln, handling each on its own goroutine.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// handleConn never lets a panic in Handler take the server down: it is
// logged with a stack trace and the connection is closed, and the server
// keeps accepting new connections.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			if s.Log != nil {
				s.Log.Log(logging.Error, "wire: recovered panic in connection handler",
					logging.F("panic", fmt.Sprintf("%v", r)),
					logging.F("stack", string(debug.Stack())))
			}
		}
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			return
		}
		frame := trimNewline(line)
		resp := s.respond(frame)
		if _, err := conn.Write(append(resp, '\n')); err != nil {
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) respond(frame []byte) []byte {
	if string(frame) == LoadProbe {
		load := 1.0
		if s.Load != nil {
			load = s.Load()
		}
		return []byte(strconv.FormatFloat(load, 'f', -1, 64))
	}
	out, err := s.Handler(frame)
	if err != nil {
		if s.Log != nil {
			s.Log.Log(logging.Error, "wire: handler error", logging.F("error", err.Error()))
		}
		return []byte("null")
	}
	if out == nil {
		return []byte("null")
	}
	return out
}

func trimNewline(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}

// EncodeJSON is a small convenience used by module wrappers building a
// Handler.
func EncodeJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
