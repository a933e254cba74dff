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
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/docsagent/internal/config"
	"github.com/kraklabs/docsagent/internal/errors"
	"github.com/kraklabs/docsagent/internal/ui"
	"github.com/kraklabs/docsagent/pkg/domains"
	"github.com/kraklabs/docsagent/pkg/gitrepo"
	"github.com/kraklabs/docsagent/pkg/llm"
	"github.com/kraklabs/docsagent/pkg/persist"
	"github.com/kraklabs/docsagent/pkg/pipeline"
	"github.com/kraklabs/docsagent/pkg/versiontrack"
)

// generateFlags holds parsed flags for the generate command.
type generateFlags struct {
	domain  string
	langs   []string
	workers int
	opts    pipeline.Options
}

func parseGenerateFlags(args []string) generateFlags {
	var f generateFlags
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	fs.StringVarP(&f.domain, "type", "t", "", "Domain: fe_config, be_config, variables or functions")
	fs.StringSliceVar(&f.langs, "langs", nil, "Target languages (default: configured langs)")
	fs.IntVar(&f.opts.Limit, "limit", 0, "Process at most N items that still need documentation")
	fs.StringSliceVar(&f.opts.Names, "name", nil, "Only process these items (repeatable)")
	fs.BoolVar(&f.opts.TrackVersions, "track-versions", false, "Scan new release tags for introduction versions")
	fs.BoolVar(&f.opts.OnlyMeta, "only-meta", false, "Refresh metadata only; no generation or output")
	fs.BoolVar(&f.opts.WithoutLLM, "without-llm", false, "Write output from existing documentation only")
	fs.BoolVar(&f.opts.SearchCode, "search-code", false, "Attach source usages to the generation prompt")
	fs.BoolVar(&f.opts.DryRun, "dry-run", false, "Print diffs instead of writing files or metadata")
	fs.BoolVar(&f.opts.GitCommit, "git-ci", false, "Commit and push the generated files to a new branch")
	fs.BoolVar(&f.opts.GitPR, "git-pr", false, "Like --git-ci, then open a GitHub pull request")
	fs.IntVar(&f.workers, "workers", 0, "Concurrent LLM requests (default: llm.workers)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: docsagent generate -t <domain> [options]

Description:
  Run the documentation pipeline for one domain:
  1. Extract items from source and merge them with saved metadata.
  2. Attach introduction versions from the version cache.
  3. Generate English docs for items without any, translate the rest.
  4. Save metadata and write the reference pages.
  5. Optionally commit, push and open a pull request.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  docsagent generate -t be_config --dry-run
  docsagent generate -t variables --langs en,zh --limit 10
  docsagent generate -t functions --name array_sum --search-code
  docsagent generate -t fe_config --track-versions --git-pr
`)
	}
	_ = fs.Parse(args)
	return f
}

// generateOutput is the --json form of a pipeline run.
type generateOutput struct {
	RunID      string                 `json:"run_id"`
	Domain     string                 `json:"domain"`
	Languages  []string               `json:"languages"`
	Total      int                    `json:"total"`
	HasZH      int                    `json:"has_zh"`
	HasENOnly  int                    `json:"has_en_only"`
	HasNeither int                    `json:"has_neither"`
	Generated  int                    `json:"generated"`
	Translated int                    `json:"translated"`
	Files      []string               `json:"files"`
	Added      int                    `json:"lines_added"`
	Removed    int                    `json:"lines_removed"`
	Publish    *persist.PublishResult `json:"publish,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

func newGenerateOutput(res *pipeline.Result) generateOutput {
	out := generateOutput{
		RunID:      res.RunID,
		Domain:     res.Domain,
		Languages:  res.Languages,
		Total:      res.Total,
		HasZH:      res.HasZH,
		HasENOnly:  res.HasENOnly,
		HasNeither: res.HasNeither,
		Generated:  res.Generated,
		Translated: res.Translated,
		Files:      res.Files,
		Publish:    res.Publish,
		DurationMS: res.Duration.Milliseconds(),
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	if res.Report != nil {
		out.Added, out.Removed = res.Report.Totals()
	}
	return out
}

// runGenerate runs the pipeline of one domain.
func (a *app) runGenerate(ctx context.Context, args []string) error {
	f := parseGenerateFlags(args)
	if _, err := lookupDomain(f.domain); err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if f.workers > 0 {
		cfg.LLM.Workers = f.workers
	}
	f.opts.Langs = cfg.Langs
	if len(f.langs) > 0 {
		f.opts.Langs = f.langs
	}

	bopts, err := a.buildOptions(cfg, f.opts)
	if err != nil {
		return err
	}
	progress := newStageProgress(a.progress)
	bopts.Progress = progress.Update
	if f.opts.TrackVersions {
		if err := a.discoverBranches(ctx, cfg, bopts.Source, &bopts.Tracker); err != nil {
			return err
		}
		onTag, finish := tagProgress(a.progress)
		defer finish()
		bopts.Tracker.OnTag = onTag
	}

	runner, err := domains.Build(f.domain, cfg, bopts, a.logger)
	if err != nil {
		return errors.NewInternalError("Cannot assemble pipeline", err.Error(), "", err)
	}

	res, err := runner.Run(ctx, f.opts)
	progress.Finish()
	if err != nil {
		return pipelineError(f.domain, err)
	}

	if done, err := a.emitJSON(newGenerateOutput(res)); done {
		return err
	}
	a.printGenerate(res, f.opts)
	return nil
}

// buildOptions opens the collaborators a run needs. The StarRocks checkout
// is attached whenever it is a git clone so cached versions are applied; it
// is mandatory with --track-versions. The docs repository is opened only for
// --git-ci and --git-pr.
func (a *app) buildOptions(cfg *config.Config, opts pipeline.Options) (domains.BuildOptions, error) {
	bopts := domains.BuildOptions{
		DryRun:  opts.DryRun,
		DiffOut: a.out,
		Colour:  !a.globals.NoColor && !a.globals.JSON,
	}
	if a.globals.JSON {
		bopts.DiffOut = a.errOut
	}

	if !opts.WithoutLLM && !opts.OnlyMeta {
		p, err := a.newProvider(cfg)
		if err != nil {
			return bopts, err
		}
		bopts.Provider = p
	}

	if opts.TrackVersions {
		repo, err := a.openRepo(cfg.StarRocksHome, "STARROCKS_HOME")
		if err != nil {
			return bopts, err
		}
		bopts.Source = repo
	} else if repo, err := gitrepo.Open(cfg.StarRocksHome, a.logger); err == nil {
		bopts.Source = repo
	} else {
		a.logger.Debug("generate.versions.disabled", "err", err)
	}

	if (opts.GitCommit || opts.GitPR) && !opts.DryRun {
		repo, err := a.openRepo(cfg.DocsRepoPath(), "DOCS_REPO")
		if err != nil {
			return bopts, err
		}
		bopts.Docs = repo
	}
	return bopts, nil
}

// pipelineError maps a failed run onto the exit code family.
func pipelineError(domain string, err error) error {
	msg := fmt.Sprintf("Documentation run for %s failed", domain)
	var status *llm.StatusError
	switch {
	case stderrors.Is(err, context.Canceled):
		return errors.NewInternalError(msg, "Interrupted", "", err)
	case stderrors.Is(err, versiontrack.ErrInvalidBranchSpec):
		return errors.NewConfigError(msg, err.Error(),
			"Set versions.branches in the configuration or pass --branches to 'docsagent versions'", err)
	case stderrors.Is(err, versiontrack.ErrRepositoryUnavailable):
		return errors.NewGitError(msg, err.Error(), "Check that STARROCKS_HOME is a full clone with tags", err)
	case stderrors.As(err, &status), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewNetworkError(msg, err.Error(), "Check the LLM endpoint and API key, or retry later", err)
	case stderrors.Is(err, pipeline.ErrPublish):
		return errors.NewGitError(msg, err.Error(), "Check the docs repository state and GITHUB_TOKEN", err)
	default:
		return errors.NewInternalError(msg, err.Error(), "Re-run with --debug for details", err)
	}
}

func (a *app) printGenerate(res *pipeline.Result, opts pipeline.Options) {
	p := a.printer
	title := fmt.Sprintf("Documentation: %s", res.Domain)
	if opts.DryRun {
		title += " (dry run)"
	}
	p.Header(title)
	p.Field("Run", ui.DimText(res.RunID))
	p.Field("Languages", strings.Join(res.Languages, ", "))
	p.Field("Items", res.Total)
	p.Field("Have zh", res.HasZH)
	p.Field("Have en only", res.HasENOnly)
	p.Field("Have neither", res.HasNeither)
	if !opts.OnlyMeta && !opts.WithoutLLM {
		p.Field("Generated", ui.CountText(res.Generated))
		p.Field("Translated", ui.CountText(res.Translated))
	}
	p.Field("Duration", res.Duration.Round(time.Millisecond))

	if opts.OnlyMeta {
		p.Successf("Metadata refreshed")
		return
	}
	if len(res.Files) == 0 {
		p.Infof("No output changes")
	} else {
		added, removed := 0, 0
		if res.Report != nil {
			added, removed = res.Report.Totals()
		}
		verb := "Updated"
		if opts.DryRun {
			verb = "Would update"
		}
		p.Successf("%s %d files (+%d -%d)", verb, len(res.Files), added, removed)
		for _, file := range res.Files {
			fmt.Fprintf(p.Out, "  %s\n", file)
		}
	}
	if res.Publish != nil {
		persist.PrintResult(p.Out, res.Publish)
	}
}
