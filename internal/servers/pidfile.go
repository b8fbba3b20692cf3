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

// Package servers implements the file-system-backed module server registry:
// PID files under <root>/run/, start/stop/find/wipe, and the host-identity
// rules a distributed deployment needs to tell its own servers apart from
// ones spawned on other hosts.
package servers

import (
	"fmt"
	"strconv"
	"strings"
)

// PIDFile is the parsed shape of a registry entry's filename:
// "<module_id>.<host>.<port>.pid". The first dot-separated field is the
// module id; the last is the port; every field in between, rejoined with
// dots, is the host — this makes IPv4 dotted hosts parse losslessly.
type PIDFile struct {
	ModuleID string
	Host     string
	Port     int
	PID      int
}

// FileName renders the PID file's name (without directory) for this entry.
func (p PIDFile) FileName() string {
	return fmt.Sprintf("%s.%s.%d.pid", p.ModuleID, p.Host, p.Port)
}

// ParseFileName parses a PID file's base name back into its three
// identifying fields; reparsing a name FileName produced always yields the
// same (moduleID, host, port), including IPv4 hosts with dots.
func ParseFileName(name string) (moduleID, host string, port int, err error) {
	name = strings.TrimSuffix(name, ".pid")
	fields := strings.Split(name, ".")
	if len(fields) < 3 {
		return "", "", 0, fmt.Errorf("servers: malformed pid file name %q", name)
	}
	moduleID = fields[0]
	portStr := fields[len(fields)-1]
	host = strings.Join(fields[1:len(fields)-1], ".")
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", "", 0, fmt.Errorf("servers: malformed port in pid file name %q: %w", name, err)
	}
	return moduleID, host, port, nil
}
