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

// Package wire implements the module server wire protocol: TCP, newline
// terminated, one frame per request and one per response. There is no
// length-prefix framing — the newline byte is the only delimiter.
package wire

import "time"

// LoadProbe is the literal control payload that requests a server's current
// load.
const LoadProbe = "%GETLOAD%"

// ProbeTimeout bounds how long the client waits for a load-probe reply.
// Fixed regardless of the pipeline's configured per-call timeout; a
// deliberately tight default since a slow load probe should just fail over.
const ProbeTimeout = 250 * time.Millisecond
