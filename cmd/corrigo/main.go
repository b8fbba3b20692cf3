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

// Package main implements corrigo, the pipeline controller CLI.
//
// File index:
//   - main.go     - rootCmd, global flags, registry construction shared by
//                   every subcommand
//   - commands.go - run, startservers/stopservers/listservers/startserver,
//                   wipe, and the out-of-scope train/evaluate/reset commands
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"corrigo/internal/config"
	"corrigo/internal/logging"
	"corrigo/internal/modules"
	"corrigo/internal/registry"
	"corrigo/internal/servers"
)

var (
	configPath string
	verbose    bool
	log        logging.Sink
)

var rootCmd = &cobra.Command{
	Use:   "corrigo",
	Short: "corrigo runs the distributed spelling/grammar correction pipeline",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logging.Info
		if verbose {
			level = logging.Debug
		}
		log = logging.New(os.Stderr, level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "corrigo.yaml", "pipeline configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// buildRegistry loads the configuration and constructs a live registry
// against internal/modules.DefaultCatalog, the compile-time stand-in for
// dynamic module loading.
func buildRegistry() (*config.Config, *registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	specs, err := cfg.BuildSpecs()
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.NewRegistry(specs, modules.DefaultCatalog)
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}

// serverDirectory opens the PID-file-backed registry rooted at cfg.Root.
func serverDirectory(cfg *config.Config) (*servers.Directory, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	return servers.NewDirectory(root, log)
}

// filterByIDs restricts a registry's dispatchable set to the given ids
// (when non-empty), disabling everything else. This backs the optional
// "[modules]" positional argument on run/startservers.
func filterByIDs(reg *registry.Registry, ids []string) {
	if len(ids) == 0 {
		return
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	for _, id := range reg.All() {
		entry, _ := reg.Get(id)
		if !want[id] {
			entry.Spec.Enabled = false
		}
	}
}
