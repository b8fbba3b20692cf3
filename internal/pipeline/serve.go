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

package pipeline

import (
	"context"
	"encoding/json"

	"corrigo/internal/registry"
	"corrigo/internal/wire"
)

// NewModuleHandler adapts a single Module into a wire.Handler, the server
// side of the dispatch Worker.dispatchRemote performs: decode the JSON
// request into an untyped payload, call Run, and encode the result the same
// way a local call's output would be encoded — a miss (ok=false) or an error
// both resolve to the wire package's "null" response, matching
// Worker.dispatchRemote's interpretation on the client side.
func NewModuleHandler(mod registry.Module) wire.Handler {
	return func(requestJSON []byte) ([]byte, error) {
		var payload any
		if err := json.Unmarshal(requestJSON, &payload); err != nil {
			return nil, err
		}
		output, ok, err := mod.Run(context.Background(), payload)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return json.Marshal(output)
	}
}
