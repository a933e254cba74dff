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
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/docsagent/internal/config"
	"github.com/kraklabs/docsagent/internal/errors"
	"github.com/kraklabs/docsagent/internal/output"
	"github.com/kraklabs/docsagent/internal/ui"
	"github.com/kraklabs/docsagent/pkg/domains"
	"github.com/kraklabs/docsagent/pkg/gitrepo"
	"github.com/kraklabs/docsagent/pkg/llm"
)

// app carries what every command needs: the global flags, the logger and
// the output streams.
type app struct {
	globals  GlobalFlags
	logger   *slog.Logger
	out      io.Writer
	errOut   io.Writer
	printer  *ui.Printer
	progress ProgressConfig
	// provider overrides the configured LLM provider in tests.
	provider llm.Provider
}

func newApp(globals GlobalFlags, logger *slog.Logger) *app {
	return &app{
		globals:  globals,
		logger:   logger,
		out:      os.Stdout,
		errOut:   os.Stderr,
		printer:  ui.NewPrinter(globals.Quiet),
		progress: NewProgressConfig(globals),
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "init":
		return a.runInit(args)
	case "extract":
		return a.runExtract(ctx, args)
	case "generate":
		return a.runGenerate(ctx, args)
	case "versions":
		return a.runVersions(ctx, args)
	case "show":
		return a.runShow(args)
	case "version":
		return a.runVersion()
	default:
		return errors.NewInputError(
			fmt.Sprintf("Unknown command: %s", command),
			"The command is not recognized",
			"Run 'docsagent --help' to list commands",
		)
	}
}

// loadConfig reads and validates the configuration.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.globals.ConfigPath, false)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot load configuration",
			err.Error(),
			fmt.Sprintf("Fix %s or recreate it with 'docsagent init --force'", a.globals.ConfigPath),
			err,
		)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration",
			err.Error(),
			fmt.Sprintf("Edit %s or set STARROCKS_HOME and the other environment variables", a.globals.ConfigPath),
			err,
		)
	}
	a.logger.Debug("config.loaded", "path", a.globals.ConfigPath,
		"starrocks_home", cfg.StarRocksHome, "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return cfg, nil
}

// lookupDomain validates the -t value.
func lookupDomain(name string) (domains.Info, error) {
	if name == "" {
		return domains.Info{}, errors.NewInputError(
			"No domain given",
			"The -t/--type flag is required",
			fmt.Sprintf("Pass one of: %v", domains.Names),
		)
	}
	info, err := domains.Lookup(name)
	if err != nil {
		return domains.Info{}, errors.NewInputError(
			fmt.Sprintf("Unknown domain %q", name),
			err.Error(),
			fmt.Sprintf("Pass one of: %v", domains.Names),
		)
	}
	return info, nil
}

// domainFlag registers the shared -t/--type flag.
func domainFlag(fs *flag.FlagSet) *string {
	return fs.StringP("type", "t", "", "Domain: fe_config, be_config, variables or functions")
}

// openRepo opens the git working copy at path for the named purpose.
func (a *app) openRepo(path, purpose string) (*gitrepo.Repo, error) {
	repo, err := gitrepo.Open(path, a.logger)
	if err != nil {
		fix := "Check that git is installed and the path is a clone"
		if stderrors.Is(err, gitrepo.ErrNotRepository) {
			fix = fmt.Sprintf("Point %s at a git clone", purpose)
		}
		return nil, errors.NewGitError(
			fmt.Sprintf("Cannot open %s", path),
			err.Error(),
			fix,
			err,
		)
	}
	return repo, nil
}

// newProvider creates the configured LLM provider.
func (a *app) newProvider(cfg *config.Config) (llm.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	p, err := llm.NewProvider(cfg.Provider())
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot create LLM provider",
			err.Error(),
			"Check LLM_PROVIDER, LLM_MODEL, LLM_URL and LLM_API_KEY",
			err,
		)
	}
	return p, nil
}

// emitJSON writes v to stdout when --json is set and reports whether it did.
func (a *app) emitJSON(v any) (bool, error) {
	if !a.globals.JSON {
		return false, nil
	}
	if err := output.JSONTo(a.out, v); err != nil {
		return true, errors.NewInternalError("Cannot encode output", err.Error(), "", err)
	}
	return true, nil
}
