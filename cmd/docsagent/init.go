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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/docsagent/internal/config"
	"github.com/kraklabs/docsagent/internal/errors"
	"github.com/kraklabs/docsagent/pkg/llm"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force         bool
	starrocksHome string
	outputDir     string
	metaDir       string
	llmModel      string
	llmURL        string
	langs         []string
}

func parseInitFlags(args []string) initFlags {
	var f initFlags
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.StringVar(&f.starrocksHome, "starrocks-home", "", "StarRocks source checkout")
	fs.StringVar(&f.outputDir, "docs-output-dir", "", "Output directory for generated files")
	fs.StringVar(&f.metaDir, "meta-dir", "", "Directory for item metadata and version caches")
	fs.StringVar(&f.llmModel, "llm-model", "", "LLM model, optionally provider-prefixed (openai:gpt-4o)")
	fs.StringVar(&f.llmURL, "llm-url", "", "LLM API URL")
	fs.StringSliceVar(&f.langs, "langs", nil, "Target languages (en,zh,ja)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: docsagent init [options]

Description:
  Write a default configuration file. Secrets (LLM_API_KEY, GITHUB_TOKEN)
  are never written; set them in the environment.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  docsagent init --starrocks-home ~/src/starrocks
  docsagent init --force --llm-model openai:gpt-4o-mini
`)
	}
	_ = fs.Parse(args)
	return f
}

// runInit writes the configuration file.
func (a *app) runInit(args []string) error {
	f := parseInitFlags(args)
	path := a.globals.ConfigPath

	if _, err := os.Stat(path); err == nil && !f.force {
		return errors.NewInputError(
			fmt.Sprintf("%s already exists", path),
			"Refusing to overwrite an existing configuration",
			"Use --force to overwrite",
		)
	}

	cfg := config.Default()
	applyInitFlags(cfg, f)

	if err := config.Save(cfg, path); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration",
			err.Error(),
			fmt.Sprintf("Check write permissions for %s", filepath.Dir(path)),
			err,
		)
	}
	a.logger.Info("config.init", "path", path)

	if done, err := a.emitJSON(map[string]string{"config": path}); done {
		return err
	}
	a.printer.Successf("Created %s", path)
	a.printer.Infof("")
	a.printer.Infof("Next steps:")
	a.printer.Infof("  1. Set starrocks_home in %s or export STARROCKS_HOME", path)
	a.printer.Infof("  2. Export LLM_API_KEY for your provider")
	a.printer.Infof("  3. Run 'docsagent extract -t fe_config' to import existing docs")
	a.printer.Infof("  4. Run 'docsagent generate -t fe_config --dry-run' to preview")
	return nil
}

func applyInitFlags(cfg *config.Config, f initFlags) {
	if f.starrocksHome != "" {
		cfg.StarRocksHome = f.starrocksHome
	}
	if f.outputDir != "" {
		cfg.DocsOutputDir = f.outputDir
	}
	if f.metaDir != "" {
		cfg.MetaDir = f.metaDir
	}
	if f.llmURL != "" {
		cfg.LLM.BaseURL = f.llmURL
	}
	if f.llmModel != "" {
		provider, model := llm.ParseModel(f.llmModel)
		if provider != "" {
			cfg.LLM.Provider = provider
		}
		cfg.LLM.Model = model
	}
	if len(f.langs) > 0 {
		cfg.Langs = f.langs
	}
}
