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

package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"corrigo/internal/ingest"
	"corrigo/internal/logging"
	"corrigo/internal/metrics"
	"corrigo/internal/pipeline"
	"corrigo/internal/registry"
	"corrigo/internal/servers"
	"corrigo/internal/stats"
	"corrigo/internal/telemetry"
	"corrigo/internal/wire"
)

var (
	outPath     string
	localFlag   bool
	dumpXML     bool
	dumpJSON    bool
	paramFlags  []string
	metricsAddr string
)

func init() {
	runCmd.Flags().StringVarP(&outPath, "output", "o", "", "write the corrected document here (default: stdout)")
	runCmd.Flags().BoolVar(&localFlag, "local", false, "force every module to run in-process, overriding probed servers (sticky)")
	runCmd.Flags().BoolVar(&dumpXML, "dump-xml", false, "print the applied suggestions as XML (default output is JSON)")
	runCmd.Flags().BoolVar(&dumpJSON, "dump-json", false, "print the applied suggestions as JSON (the default output)")
	runCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "module parameter as k=v, may be repeated")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus /metrics on this address (e.g. :9090); empty disables")

	rootCmd.AddCommand(runCmd, startServersCmd, stopServersCmd, listServersCmd, startServerCmd, wipeCmd, trainCmd, evaluateCmd, resetCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <input> [modules...]",
	Short: "execute the pipeline against an input document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, moduleIDs := args[0], args[1:]

		cfg, reg, err := buildRegistry()
		if err != nil {
			return err
		}
		filterByIDs(reg, moduleIDs)

		dir, err := serverDirectory(cfg)
		if err != nil {
			return err
		}
		probeAndAttachServers(reg, dir, localFlag)

		if err := reg.LoadAll(); err != nil {
			return err
		}

		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("corrigo: reading input: %w", err)
		}
		doc := ingest.LoadText("", string(raw))

		params, err := parseParams(paramFlags)
		if err != nil {
			return err
		}

		set := metrics.NewSet()
		var telem pipeline.Telemetry
		if metricsAddr != "" {
			m := telemetry.New()
			telem = m
			go func() {
				if err := m.ServeAddr(cmd.Context(), metricsAddr); err != nil {
					log.Log(logging.Warn, "corrigo: metrics server stopped", logging.F("error", err.Error()))
				}
			}()
		}

		sink, err := stats.BuildSink(cfg.Stats.Adapter, stats.Options{
			RedisAddr:      cfg.Stats.RedisAddr,
			RedisMarkerTTL: cfg.GetRedisMarkerTTL(),
			KafkaTopic:     cfg.Stats.KafkaTopic,
		}, log)
		if err != nil {
			return fmt.Errorf("corrigo: building stats sink: %w", err)
		}
		statsWorker := stats.NewWorker(set, sink, 100, 10, 5*time.Second, log)
		statsWorker.Start()

		ctrl := &pipeline.Controller{
			Registry: reg,
			Doc:      doc,
			Params:   params,
			Config: pipeline.Config{
				Threads:         cfg.Threads,
				Timeout:         cfg.GetTimeout(),
				MinPollInterval: cfg.GetMinPollInterval(),
				Debug:           verbose,
			},
			Log:   log,
			Stats: set,
			Telem: telem,
		}
		runErr := ctrl.Run(cmd.Context())
		statsWorker.Stop(cmd.Context())
		if runErr != nil {
			return fmt.Errorf("corrigo: pipeline run failed: %w", runErr)
		}

		return writeResult(doc)
	},
}

// probeAndAttachServers reprobes the PID directory and attaches the live
// servers found to each module's spec, rewriting its local/remote flag on
// every probe. forceLocal, once set, wins regardless of what the probe
// finds (the sticky --local override).
func probeAndAttachServers(reg *registry.Registry, dir *servers.Directory, forceLocal bool) {
	found, err := dir.FindServers()
	byModule := map[string][]registry.ServerAddr{}
	if err == nil {
		for _, f := range found {
			byModule[f.ModuleID] = append(byModule[f.ModuleID], registry.ServerAddr{Host: f.Host, Port: f.Port})
		}
	}
	for _, id := range reg.All() {
		entry, _ := reg.Get(id)
		if live, ok := byModule[id]; ok {
			entry.Spec.Servers = live
			entry.Spec.Local = false
		} else if len(entry.Spec.Servers) == 0 {
			entry.Spec.Local = true
		}
		if forceLocal {
			entry.Spec.ForceLocal = true
		}
	}
}

func parseParams(flags []string) (map[string]string, error) {
	out := map[string]string{}
	for _, f := range flags {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("corrigo: malformed -p %q, expected k=v", f)
		}
		out[k] = v
	}
	return out, nil
}

func writeResult(doc interface {
	DumpJSON() ([]byte, error)
	DumpXML() ([]byte, error)
}) error {
	var (
		b   []byte
		err error
	)
	switch {
	case dumpXML:
		b, err = doc.DumpXML()
	default:
		b, err = doc.DumpJSON()
	}
	if err != nil {
		return fmt.Errorf("corrigo: serializing result: %w", err)
	}
	if outPath == "" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	return os.WriteFile(outPath, b, 0o644)
}

var startServersCmd = &cobra.Command{
	Use:   "startservers [modules...]",
	Short: "spawn a server process for each configured non-local module targeted at this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, reg, err := buildRegistry()
		if err != nil {
			return err
		}
		filterByIDs(reg, args)
		dir, err := serverDirectory(cfg)
		if err != nil {
			return err
		}
		identity := servers.HostIdentity()
		self, err := os.Executable()
		if err != nil {
			self = os.Args[0]
		}

		started := 0
		for _, id := range reg.Dispatchable() {
			entry, _ := reg.Get(id)
			for _, srv := range entry.Spec.Servers {
				if !identity[srv.Host] {
					continue
				}
				argv := []string{self, "--config", configPath, "startserver", id, srv.Host, strconv.Itoa(srv.Port)}
				if _, err := dir.SpawnServer(argv, id, srv.Host, srv.Port); err != nil {
					return fmt.Errorf("corrigo: starting %q on %s:%d: %w", id, srv.Host, srv.Port, err)
				}
				started++
				log.Log(logging.Info, "corrigo: started module server", logging.F("module", id), logging.F("host", srv.Host), logging.F("port", srv.Port))
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "started %d server(s)\n", started)
		return nil
	},
}

var stopServersCmd = &cobra.Command{
	Use:   "stopservers [modules...]",
	Short: "terminate this host's module servers and remove their PID files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := serverDirectory(cfg)
		if err != nil {
			return err
		}
		want := map[string]bool{}
		for _, id := range args {
			want[id] = true
		}
		identity := servers.HostIdentity()

		files, err := dir.List()
		if err != nil {
			return err
		}
		stopped := 0
		for _, p := range files {
			if !identity[p.Host] {
				continue
			}
			if len(want) > 0 && !want[p.ModuleID] {
				continue
			}
			if err := dir.StopServer(p); err != nil {
				return fmt.Errorf("corrigo: stopping %q: %w", p.ModuleID, err)
			}
			stopped++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stopped %d server(s)\n", stopped)
		return nil
	},
}

var listServersCmd = &cobra.Command{
	Use:   "listservers",
	Short: "probe every registered server and print (module, host, port, load)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := serverDirectory(cfg)
		if err != nil {
			return err
		}
		found, err := dir.FindServers()
		if err != nil {
			return err
		}
		for _, f := range found {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%.3f\n", f.ModuleID, f.Host, f.Port, f.Load)
		}
		return nil
	},
}

var startServerCmd = &cobra.Command{
	Use:    "startserver <module> <host> <port>",
	Short:  "internal helper: run a single module server in the foreground",
	Hidden: true,
	Args:   cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		moduleID, host, portStr := args[0], args[1], args[2]
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("corrigo: malformed port %q: %w", portStr, err)
		}

		_, reg, err := buildRegistry()
		if err != nil {
			return err
		}
		entry, ok := reg.Get(moduleID)
		if !ok {
			return fmt.Errorf("corrigo: unknown module %q", moduleID)
		}
		if loader, ok := entry.Module.(registry.Loader); ok {
			if err := loader.Load(); err != nil {
				return fmt.Errorf("corrigo: loading %q: %w", moduleID, err)
			}
		}

		loadFn := registry.SystemLoad
		if lr, ok := entry.Module.(registry.LoadReporter); ok {
			loadFn = lr.ServerLoad
		}

		srv := &wire.Server{
			Addr:    net.JoinHostPort(host, portStr),
			Handler: pipeline.NewModuleHandler(entry.Module),
			Load:    loadFn,
			Log:     log,
		}
		log.Log(logging.Info, "corrigo: module server listening", logging.F("module", moduleID), logging.F("addr", srv.Addr), logging.F("port", port))
		return srv.ListenAndServe()
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "remove every PID file (destructive: orphans any still-running servers)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := serverDirectory(cfg)
		if err != nil {
			return err
		}
		n, err := dir.Wipe()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wiped %d pid file(s)\n", n)
		return nil
	},
}

// train, evaluate, and reset are separate entry points that share the
// module registry but not the live pipeline. They do not implement a
// training or evaluation harness; they only validate that the named
// module resolves and loads cleanly against the current configuration.
var trainCmd = &cobra.Command{
	Use:   "train <module>",
	Short: "out of scope: validates a module resolves and loads against the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runModuleRegistryCheck("train"),
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <module>",
	Short: "out of scope: validates a module resolves and loads against the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runModuleRegistryCheck("evaluate"),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "out of scope: reloads every module against the current configuration as a smoke test",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := buildRegistry()
		if err != nil {
			return err
		}
		if err := reg.LoadAll(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "registry reloaded cleanly")
		return nil
	},
}

func runModuleRegistryCheck(verb string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		_, reg, err := buildRegistry()
		if err != nil {
			return err
		}
		entry, ok := reg.Get(args[0])
		if !ok {
			return fmt.Errorf("corrigo: unknown module %q", args[0])
		}
		if loader, ok := entry.Module.(registry.Loader); ok {
			if err := loader.Load(); err != nil {
				return fmt.Errorf("corrigo: loading %q: %w", args[0], err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: module %q loaded; %s harness is out of scope for this build\n", verb, args[0], verb)
		return nil
	}
}
