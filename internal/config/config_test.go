// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.1, cfg.LLM.Temperature)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.Equal(t, []string{"en", "zh", "ja"}, cfg.Langs)
	assert.Equal(t, "main", cfg.Git.BaseBranch)
	assert.Equal(t, 5, cfg.Versions.Window)

	// STARROCKS_HOME has no default.
	require.Error(t, cfg.Validate())
	cfg.StarRocksHome = "/src/starrocks"
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		check   func(t *testing.T, c *Config)
		wantErr string
	}{
		{
			name: "paths",
			vars: map[string]string{"STARROCKS_HOME": "/sr", "DOCS_OUTPUT_DIR": "/out", "DOCS_MODULE_DIR": "/tpl", "META_DIR": "/meta"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "/sr", c.StarRocksHome)
				assert.Equal(t, "/out", c.DocsOutputDir)
				assert.Equal(t, "/tpl", c.DocsModuleDir)
				assert.Equal(t, filepath.Join("/meta", "be_config.meta"), c.MetaPath("be_config"))
				assert.Equal(t, filepath.Join("/meta", "be_config.version"), c.VersionCachePath("be_config"))
				assert.Equal(t, filepath.Join("/meta", "ignore.meta"), c.IgnorePath())
				assert.Equal(t, "/sr", c.DocsRepoPath())
			},
		},
		{
			name: "model with provider prefix",
			vars: map[string]string{"LLM_MODEL": "ollama:qwen2.5:7b", "LLM_TEMPERATURE": "0.8", "LLM_MAX_TOKENS": "2000"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "ollama", c.LLM.Provider)
				assert.Equal(t, "qwen2.5:7b", c.LLM.Model)
				assert.Equal(t, 0.8, c.LLM.Temperature)
				assert.Equal(t, 2000, c.LLM.MaxTokens)
			},
		},
		{
			name: "model without prefix keeps provider",
			vars: map[string]string{"LLM_PROVIDER": "anthropic", "LLM_MODEL": "claude-3-5-haiku-latest"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "anthropic", c.LLM.Provider)
				assert.Equal(t, "claude-3-5-haiku-latest", c.LLM.Model)
			},
		},
		{
			name: "github",
			vars: map[string]string{"GITHUB_TOKEN": "tok", "GITHUB_REPO": "StarRocks/starrocks"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "tok", c.Git.GitHubToken)
				assert.Equal(t, "StarRocks/starrocks", c.Git.GitHubRepo)
			},
		},
		{
			name: "empty values are ignored",
			vars: map[string]string{"META_DIR": ""},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "./meta", c.MetaDir)
			},
		},
		{name: "bad temperature", vars: map[string]string{"LLM_TEMPERATURE": "warm"}, wantErr: "LLM_TEMPERATURE"},
		{name: "bad max tokens", vars: map[string]string{"LLM_MAX_TOKENS": "many"}, wantErr: "LLM_MAX_TOKENS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(env(tt.vars))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "gemini" }, wantErr: "Provider"},
		{name: "bad url", mutate: func(c *Config) { c.LLM.BaseURL = "not a url" }, wantErr: "BaseURL"},
		{name: "temperature range", mutate: func(c *Config) { c.LLM.Temperature = 3 }, wantErr: "Temperature"},
		{name: "unknown language", mutate: func(c *Config) { c.Langs = []string{"en", "fr"} }, wantErr: "Langs[1]"},
		{name: "release branch", mutate: func(c *Config) { c.Versions.Branches = []string{"3.3", "main"} }, wantErr: "release_branch"},
		{name: "github repo", mutate: func(c *Config) { c.Git.GitHubRepo = "starrocks" }, wantErr: "github_repo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.StarRocksHome = "/sr"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, k := range []string{"STARROCKS_HOME", "DOCS_OUTPUT_DIR", "DOCS_MODULE_DIR", "META_DIR", "LLM_PROVIDER", "LLM_MODEL", "LLM_URL", "LLM_API_KEY", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "GITHUB_TOKEN", "GITHUB_REPO", "DOCS_REPO"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), ".docsagent", "config.yaml")

	cfg := Default()
	cfg.StarRocksHome = "/sr"
	cfg.LLM.APIKey = "secret"
	cfg.LLM.Timeout = 45 * time.Second
	cfg.Versions.Branches = []string{"3.4", "3.5"}
	require.NoError(t, Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/sr", loaded.StarRocksHome)
	assert.Equal(t, 45*time.Second, loaded.LLM.Timeout)
	assert.Equal(t, []string{"3.4", "3.5"}, loaded.Versions.Branches)
	assert.Empty(t, loaded.LLM.APIKey)

	t.Setenv("STARROCKS_HOME", "/env")
	loaded, err = Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/env", loaded.StarRocksHome)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(path, true)
	require.Error(t, err)

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o600))
	_, err := Load(path, false)
	require.Error(t, err)
}
