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

// Package main implements the docsagent CLI, which keeps the StarRocks
// reference documentation in sync with the source tree.
//
// Usage:
//
//	docsagent init                      Create .docsagent/config.yaml
//	docsagent extract -t <domain>       Refresh item metadata
//	docsagent generate -t <domain>      Generate, translate and write docs
//	docsagent versions -t <domain>      Show introduction versions
//	docsagent show <file>               Render a markdown file
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/docsagent/internal/config"
	"github.com/kraklabs/docsagent/internal/errors"
	"github.com/kraklabs/docsagent/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are the options accepted before the command name.
type GlobalFlags struct {
	JSON        bool
	Quiet       bool
	NoColor     bool
	Debug       bool
	ConfigPath  string
	MetricsAddr string
}

const usageText = `docsagent - StarRocks documentation agent

Extracts configuration items, session variables and SQL functions from a
StarRocks checkout, generates missing documentation with an LLM, translates
it and writes the reference pages.

Usage:
  docsagent [global options] <command> [options]

Commands:
  init        Create the configuration file
  extract     Refresh item metadata from source and published docs
  generate    Generate, translate and write documentation
  versions    Track and show the release each item was introduced in
  show        Render a markdown file in the terminal
  version     Show version information

Domains:
  fe_config, be_config, variables, functions

Global Options:
`

const usageFooter = `
Environment Variables:
  STARROCKS_HOME     StarRocks source checkout
  DOCS_OUTPUT_DIR    Output directory for generated files
  LLM_MODEL          Model, optionally prefixed with a provider (openai:gpt-4o)
  LLM_API_KEY        Provider API key
  GITHUB_TOKEN       Token used to open pull requests

For detailed command help: docsagent <command> --help
`

// parseGlobals parses the global flags and returns them together with the
// command and its arguments.
func parseGlobals(args []string, stderr io.Writer) (GlobalFlags, string, []string, error) {
	var g GlobalFlags
	fs := flag.NewFlagSet("docsagent", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(stderr)
	fs.BoolVar(&g.JSON, "json", false, "Output results as JSON")
	fs.BoolVarP(&g.Quiet, "quiet", "q", false, "Only print warnings and errors")
	fs.BoolVar(&g.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&g.Debug, "debug", false, "Enable debug logging")
	fs.StringVarP(&g.ConfigPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	fs.StringVar(&g.MetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	showVersion := fs.Bool("version", false, "Show version and exit")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
		fmt.Fprint(stderr, usageFooter)
	}

	if err := fs.Parse(args); err != nil {
		return g, "", nil, err
	}
	// JSON output implies no progress or informational chatter.
	if g.JSON {
		g.Quiet = true
	}
	if *showVersion {
		return g, "version", nil, nil
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return g, "", nil, flag.ErrHelp
	}
	return g, rest[0], rest[1:], nil
}

// newLogger builds the stderr logger. --debug lowers the level and --quiet
// raises it.
func newLogger(g GlobalFlags, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case g.Debug:
		level = slog.LevelDebug
	case g.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	globals, command, args, err := parseGlobals(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	ui.InitColors(globals.NoColor)
	logger := newLogger(globals, os.Stderr)
	slog.SetDefault(logger)

	if globals.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: globals.MetricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", globals.MetricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	a := newApp(globals, logger)
	if err := a.dispatch(ctx, command, args); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}
