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
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/bassosimone/errclass"
)

// Client is a single persistent connection to one module server. Workers
// keep a map of (host,port) -> *Client so repeated calls to the same server
// reuse the TCP connection instead of dialing per call.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial opens a new connection to addr ("host:port").
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends a single JSON-encoded module-call frame and returns the raw
// JSON response frame (possibly the literal "null").
func (c *Client) Call(requestJSON []byte, timeout time.Duration) ([]byte, error) {
	return c.roundTrip(requestJSON, timeout)
}

// Probe sends the %GETLOAD% control frame with a fixed 250ms budget and
// parses the textual float response.
func (c *Client) Probe() (float64, error) {
	resp, err := c.roundTrip([]byte(LoadProbe), ProbeTimeout)
	if err != nil {
		return 0, err
	}
	load, err := strconv.ParseFloat(string(resp), 64)
	if err != nil {
		return 0, fmt.Errorf("wire: non-numeric load probe reply %q: %w", resp, err)
	}
	return load, nil
}

func (c *Client) roundTrip(frame []byte, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		deadline := time.Now().Add(timeout)
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
		defer c.conn.SetDeadline(time.Time{})
	}
	if _, err := c.conn.Write(append(append([]byte{}, frame...), '\n')); err != nil {
		return nil, err
	}
	line, err := c.reader.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	return trimNewline(line), nil
}

// Classification is the coarse transport-error bucket the worker pool uses
// to decide whether to drop a client and try the next server, or treat the
// server as simply refusing connections.
type Classification string

const (
	ClassConnectionRefused Classification = errclass.ECONNREFUSED
	ClassTimeout           Classification = errclass.ETIMEDOUT
	ClassOther             Classification = "other"
)

// Classify maps a transport error from Dial/Call/Probe to a Classification,
// using github.com/bassosimone/errclass to recognize the well-known syscall
// errnos without per-platform string matching.
func Classify(err error) Classification {
	if err == nil {
		return ""
	}
	label := errclass.New(err)
	switch label {
	case errclass.ECONNREFUSED:
		return ClassConnectionRefused
	case errclass.ETIMEDOUT:
		return ClassTimeout
	default:
		return ClassOther
	}
}
