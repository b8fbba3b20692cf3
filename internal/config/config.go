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

// Package config loads a pipeline's declarative YAML configuration into
// registry.Spec values, chasing "inherit" chains and applying the
// documented pipeline-level defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"corrigo/internal/registry"
)

// DefaultTimeoutStr and DefaultMinPollIntervalStr are the literal defaults
// applied to a pipeline that doesn't set them.
const (
	DefaultTimeoutStr         = "120s"
	DefaultMinPollIntervalStr = "60s"
)

// ServerConfig is one configured-but-not-yet-probed module server endpoint.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ModuleConfig is one module's YAML-facing shape: id (required), module
// (the catalog selector), optional servers, optional enabled/disabled,
// optional depends, optional submodule, optional submodules, optional
// set, class, annotator, source(s), model(s).
type ModuleConfig struct {
	ID         string         `yaml:"id"`
	Module     string         `yaml:"module"`
	Servers    []ServerConfig `yaml:"servers"`
	Enabled    *bool          `yaml:"enabled"`
	Disabled   *bool          `yaml:"disabled"`
	Depends    []string       `yaml:"depends"`
	Submodule  bool           `yaml:"submodule"`
	Submodules []string       `yaml:"submodules"`
	Set        string         `yaml:"set"`
	Class      string         `yaml:"class"`
	Annotator  string         `yaml:"annotator"`
	Source     string         `yaml:"source"`
	Sources    []string       `yaml:"sources"`
	Model      string         `yaml:"model"`
	Models     []string       `yaml:"models"`
}

// StatsConfig selects and configures the run-statistics sink a
// stats.Worker flushes committed module counters to; this is ambient
// infrastructure, not part of the documented module configuration fields.
type StatsConfig struct {
	Adapter        string `yaml:"adapter"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisMarkerTTL string `yaml:"redis_marker_ttl"`
	KafkaTopic     string `yaml:"kafka_topic"`
}

// Config is a pipeline's declarative configuration, loaded from YAML and
// possibly chained from a base config via Inherit.
type Config struct {
	Inherit         string         `yaml:"inherit"`
	ID              string         `yaml:"id"`
	Root            string         `yaml:"root"`
	Ucto            string         `yaml:"ucto"`
	Language        string         `yaml:"language"`
	Threads         int            `yaml:"threads"`
	Timeout         string         `yaml:"timeout"`
	MinPollInterval string         `yaml:"minpollinterval"`
	Modules         []ModuleConfig `yaml:"modules"`
	Stats           StatsConfig    `yaml:"stats"`
}

// DefaultConfig returns a Config carrying the documented pipeline defaults
// and nothing else; Load unmarshals over a copy of this, so an omitted
// field in every config in an inherit chain still resolves sensibly.
func DefaultConfig() *Config {
	return &Config{
		Threads:         4,
		Timeout:         DefaultTimeoutStr,
		MinPollInterval: DefaultMinPollIntervalStr,
	}
}

// GetTimeout parses Timeout, falling back to the documented default on an
// empty or malformed value.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultTimeoutStr)
	}
	return d
}

// GetMinPollInterval parses MinPollInterval the same way GetTimeout parses
// Timeout.
func (c *Config) GetMinPollInterval() time.Duration {
	d, err := time.ParseDuration(c.MinPollInterval)
	if err != nil {
		d, _ = time.ParseDuration(DefaultMinPollIntervalStr)
	}
	return d
}

// GetRedisMarkerTTL parses Stats.RedisMarkerTTL, defaulting to 24h when
// empty or malformed, mirroring stats.NewRedisSink's own default.
func (c *Config) GetRedisMarkerTTL() time.Duration {
	d, err := time.ParseDuration(c.Stats.RedisMarkerTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// Load reads the YAML file at path, chasing an "inherit" chain to its root
// and unmarshaling each config on top of its parent's resolved values — a
// field present in a child always wins, a field the child omits falls
// through to whatever the parent (or the documented defaults) already set.
// A config that (directly or transitively) inherits from itself is rejected
// before any further processing, mirroring how a cyclic "depends" chain is
// rejected before dispatch.
func Load(path string) (*Config, error) {
	return load(path, map[string]bool{})
}

func load(path string, visited map[string]bool) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolving path %s: %w", path, err)
	}
	if visited[abs] {
		return nil, fmt.Errorf("config: cyclic inherit chain detected at %s", path)
	}
	visited[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var probe struct {
		Inherit string `yaml:"inherit"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if probe.Inherit != "" {
		parentPath := probe.Inherit
		if !filepath.IsAbs(parentPath) {
			parentPath = filepath.Join(filepath.Dir(abs), parentPath)
		}
		parent, err := load(parentPath, visited)
		if err != nil {
			return nil, err
		}
		cfg = parent
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.Inherit = ""
	return cfg, nil
}

// BuildSpecs converts the loaded module configurations into validated
// registry.Spec values, applying the configuration checks that belong to
// configuration loading rather than to registry construction: mismatched
// source/model counts and a submodule with no servers. Duplicate ids and
// cyclic depends are left to registry.NewRegistry, which already rejects
// both.
func (c *Config) BuildSpecs() ([]*registry.Spec, error) {
	specs := make([]*registry.Spec, 0, len(c.Modules))
	for _, mc := range c.Modules {
		spec, err := buildSpec(mc)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func buildSpec(mc ModuleConfig) (*registry.Spec, error) {
	spec, err := registry.NewSpec(mc.ID)
	if err != nil {
		return nil, err
	}
	spec.Kind = mc.Module
	spec.Depends = mc.Depends
	spec.Submodule = mc.Submodule
	spec.Set = mc.Set
	spec.Class = mc.Class
	spec.Annotator = mc.Annotator
	spec.Models = mergeStringField(mc.Model, mc.Models)
	spec.Sources = mergeStringField(mc.Source, mc.Sources)

	if len(spec.Sources) > 0 && len(spec.Models) > 0 && len(spec.Sources) != len(spec.Models) {
		return nil, fmt.Errorf("config: module %q declares %d source(s) but %d model(s); counts must match", mc.ID, len(spec.Sources), len(spec.Models))
	}

	for _, s := range mc.Servers {
		spec.Servers = append(spec.Servers, registry.ServerAddr{Host: s.Host, Port: s.Port})
	}
	spec.Local = len(spec.Servers) == 0
	if mc.Submodule && len(spec.Servers) == 0 {
		return nil, fmt.Errorf("config: module %q is a submodule but configures no servers", mc.ID)
	}

	spec.Enabled = true
	if mc.Disabled != nil && *mc.Disabled {
		spec.Enabled = false
	}
	if mc.Enabled != nil {
		spec.Enabled = *mc.Enabled
	}

	return spec, nil
}

// mergeStringField folds a singular YAML field ("model") and its plural
// counterpart ("models") into one slice, singular first, matching how the
// source configuration format lets either shorthand stand in for the other.
func mergeStringField(singular string, plural []string) []string {
	if singular == "" {
		return plural
	}
	out := make([]string, 0, len(plural)+1)
	out = append(out, singular)
	out = append(out, plural...)
	return out
}
