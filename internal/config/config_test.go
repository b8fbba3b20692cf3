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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDocumentedDefaults(t *testing.T) {
	path := writeConfig(t, "pipeline.yaml", `
id: demo
root: /var/corrigo
language: en
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.ID)
	require.Equal(t, 4, cfg.Threads)
	require.Equal(t, 120*time.Second, cfg.GetTimeout())
	require.Equal(t, 60*time.Second, cfg.GetMinPollInterval())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "pipeline.yaml", `
id: demo
threads: 8
timeout: 5s
minpollinterval: 1s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Threads)
	require.Equal(t, 5*time.Second, cfg.GetTimeout())
	require.Equal(t, 1*time.Second, cfg.GetMinPollInterval())
}

func TestLoadInheritMergesFieldByField(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
id: base
threads: 2
language: en
`)
	childDir := filepath.Dir(base)
	child := filepath.Join(childDir, "child.yaml")
	require.NoError(t, os.WriteFile(child, []byte(`
inherit: base.yaml
id: child
threads: 6
`), 0o644))

	cfg, err := Load(child)
	require.NoError(t, err)
	require.Equal(t, "child", cfg.ID)  // child overrides
	require.Equal(t, 6, cfg.Threads)   // child overrides
	require.Equal(t, "en", cfg.Language) // inherited from base
}

func TestLoadRejectsCyclicInherit(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("inherit: b.yaml\nid: a\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("inherit: a.yaml\nid: b\n"), 0o644))

	_, err := Load(a)
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBuildSpecsMergesSingularAndPluralFields(t *testing.T) {
	cfg := &Config{
		Modules: []ModuleConfig{
			{ID: "lex1", Module: "lexicon", Model: "base.lex", Models: []string{"extra.lex"}},
		},
	}
	specs, err := cfg.BuildSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	require.Equal(t, []string{"base.lex", "extra.lex"}, specs[0].Models)
	require.True(t, specs[0].Local)
}

func TestBuildSpecsRejectsMismatchedSourceModelCounts(t *testing.T) {
	cfg := &Config{
		Modules: []ModuleConfig{
			{ID: "lm1", Module: "languagemodel", Sources: []string{"a.txt", "b.txt"}, Models: []string{"a.lm"}},
		},
	}
	_, err := cfg.BuildSpecs()
	require.Error(t, err)
}

func TestBuildSpecsRejectsSubmoduleWithNoServers(t *testing.T) {
	cfg := &Config{
		Modules: []ModuleConfig{
			{ID: "sub1", Module: "confusible", Submodule: true},
		},
	}
	_, err := cfg.BuildSpecs()
	require.Error(t, err)
}

func TestBuildSpecsEnabledDefaultsTrueAndHonorsDisabled(t *testing.T) {
	trueVal := true
	cfg := &Config{
		Modules: []ModuleConfig{
			{ID: "m1", Module: "lexicon"},
			{ID: "m2", Module: "lexicon", Disabled: &trueVal},
		},
	}
	specs, err := cfg.BuildSpecs()
	require.NoError(t, err)
	require.True(t, specs[0].Enabled)
	require.False(t, specs[1].Enabled)
}

func TestBuildSpecsComputesLocalFromServers(t *testing.T) {
	cfg := &Config{
		Modules: []ModuleConfig{
			{ID: "remote1", Module: "lexicon", Servers: []ServerConfig{{Host: "127.0.0.1", Port: 9000}}},
		},
	}
	specs, err := cfg.BuildSpecs()
	require.NoError(t, err)
	require.False(t, specs[0].Local)
	require.Len(t, specs[0].Servers, 1)
}
