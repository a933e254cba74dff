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

// Package config loads the docsagent configuration: built-in defaults, then
// a YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/docsagent/internal/fsutil"
	"github.com/kraklabs/docsagent/pkg/llm"
)

// DefaultPath is the config file used when -c is not given.
const DefaultPath = ".docsagent/config.yaml"

// Config is built once in main and passed to every command.
type Config struct {
	// StarRocksHome is the source checkout that is extracted and whose tags
	// are scanned for version history.
	StarRocksHome string `yaml:"starrocks_home" validate:"required"`
	// DocsOutputDir receives generated files, one directory per language.
	DocsOutputDir string `yaml:"docs_output_dir" validate:"required"`
	// DocsModuleDir holds the page templates (<lang>/<file>).
	DocsModuleDir string `yaml:"docs_module_dir"`
	// MetaDir holds <domain>.meta, <domain>.version and ignore.meta.
	MetaDir string   `yaml:"meta_dir" validate:"required"`
	Langs   []string `yaml:"langs" validate:"min=1,dive,oneof=en zh ja"`

	LLM      LLMConfig      `yaml:"llm"`
	Git      GitConfig      `yaml:"git"`
	Versions VersionsConfig `yaml:"versions"`
	Usage    UsageConfig    `yaml:"usage"`
}

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	Provider          string        `yaml:"provider" validate:"omitempty,oneof=ollama local openai openai-compatible anthropic claude mock test"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey            string        `yaml:"api_key,omitempty"`
	Temperature       float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens         int           `yaml:"max_tokens" validate:"gte=1"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gte=0"`
	// Workers bounds concurrent generation and translation calls.
	Workers int `yaml:"workers" validate:"gte=1,lte=32"`
}

// GitConfig describes where generated docs are published.
type GitConfig struct {
	// DocsRepo is the working copy that receives docs/<lang>/...; empty
	// means StarRocksHome.
	DocsRepo    string `yaml:"docs_repo"`
	BaseBranch  string `yaml:"base_branch" validate:"required"`
	Remote      string `yaml:"remote" validate:"required"`
	GitHubRepo  string `yaml:"github_repo" validate:"omitempty,github_repo"`
	GitHubToken string `yaml:"github_token,omitempty"`
}

// VersionsConfig tunes version tracking.
type VersionsConfig struct {
	// Branches pins the maintained window; empty discovers it from tags.
	Branches []string `yaml:"branches" validate:"dive,release_branch"`
	Window   int      `yaml:"window" validate:"gte=1"`
	Workers  int      `yaml:"workers" validate:"gte=1"`
}

// UsageConfig tunes the --search-code scan.
type UsageConfig struct {
	Exclude    []string `yaml:"exclude"`
	MaxPerName int      `yaml:"max_per_name" validate:"gte=1"`
}

var (
	releaseBranchPattern = regexp.MustCompile(`^\d+\.\d+$`)
	githubRepoPattern    = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("release_branch", func(fl validator.FieldLevel) bool {
		return releaseBranchPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("github_repo", func(fl validator.FieldLevel) bool {
		return githubRepoPattern.MatchString(fl.Field().String())
	})
	return v
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DocsOutputDir: "./docs/output",
		DocsModuleDir: "./docs_modules",
		MetaDir:       "./meta",
		Langs:         []string{"en", "zh", "ja"},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.1,
			MaxTokens:   500,
			Timeout:     120 * time.Second,
			MaxRetries:  3,
			Workers:     1,
		},
		Git: GitConfig{
			BaseBranch: "main",
			Remote:     "origin",
		},
		Versions: VersionsConfig{
			Window:  5,
			Workers: 4,
		},
		Usage: UsageConfig{
			MaxPerName: 5,
		},
	}
}

// Load reads path over the defaults and applies the environment. A missing
// file is not an error unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("STARROCKS_HOME", &c.StarRocksHome)
	str("DOCS_OUTPUT_DIR", &c.DocsOutputDir)
	str("DOCS_MODULE_DIR", &c.DocsModuleDir)
	str("META_DIR", &c.MetaDir)
	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_URL", &c.LLM.BaseURL)
	str("LLM_API_KEY", &c.LLM.APIKey)
	str("GITHUB_TOKEN", &c.Git.GitHubToken)
	str("GITHUB_REPO", &c.Git.GitHubRepo)
	str("DOCS_REPO", &c.Git.DocsRepo)

	if v, ok := lookup("LLM_MODEL"); ok && v != "" {
		provider, model := llm.ParseModel(v)
		if provider != "" {
			c.LLM.Provider = provider
		}
		c.LLM.Model = model
	}
	if v, ok := lookup("LLM_TEMPERATURE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LLM_TEMPERATURE: %w", err)
		}
		c.LLM.Temperature = f
	}
	if v, ok := lookup("LLM_MAX_TOKENS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LLM_MAX_TOKENS: %w", err)
		}
		c.LLM.MaxTokens = n
	}
	return nil
}

// Validate checks the struct tags and returns one error naming every invalid
// field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// Save writes c as YAML. The API key and GitHub token are never written.
func Save(c *Config, path string) error {
	out := *c
	out.LLM.APIKey = ""
	out.Git.GitHubToken = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

// Provider returns the LLM provider settings.
func (c *Config) Provider() llm.ProviderConfig {
	return llm.ProviderConfig{
		Type:              c.LLM.Provider,
		BaseURL:           c.LLM.BaseURL,
		APIKey:            c.LLM.APIKey,
		DefaultModel:      c.LLM.Model,
		Temperature:       c.LLM.Temperature,
		MaxTokens:         c.LLM.MaxTokens,
		Timeout:           c.LLM.Timeout,
		MaxRetries:        c.LLM.MaxRetries,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
	}
}

// MetaPath is the item meta file of domain.
func (c *Config) MetaPath(domain string) string {
	return filepath.Join(c.MetaDir, domain+".meta")
}

// VersionCachePath is the version cache file of domain.
func (c *Config) VersionCachePath(domain string) string {
	return filepath.Join(c.MetaDir, domain+".version")
}

// IgnorePath is the shared ignore list.
func (c *Config) IgnorePath() string {
	return filepath.Join(c.MetaDir, "ignore.meta")
}

// DocsRepoPath is the working copy that receives published docs.
func (c *Config) DocsRepoPath() string {
	if c.Git.DocsRepo != "" {
		return c.Git.DocsRepo
	}
	return c.StarRocksHome
}
