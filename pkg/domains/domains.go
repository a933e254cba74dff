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

// Package domains wires the documentation domains (FE config, BE config,
// system variables, SQL functions) to their extractors, generators,
// persisters and version trackers.
package domains

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kraklabs/docsagent/internal/config"
	"github.com/kraklabs/docsagent/pkg/docgen"
	"github.com/kraklabs/docsagent/pkg/extract"
	"github.com/kraklabs/docsagent/pkg/gitrepo"
	"github.com/kraklabs/docsagent/pkg/items"
	"github.com/kraklabs/docsagent/pkg/llm"
	"github.com/kraklabs/docsagent/pkg/persist"
	"github.com/kraklabs/docsagent/pkg/pipeline"
	"github.com/kraklabs/docsagent/pkg/usage"
	"github.com/kraklabs/docsagent/pkg/versiontrack"
)

// Domain names as used on the command line and in meta file names.
const (
	FEConfig  = "fe_config"
	BEConfig  = "be_config"
	Variables = "variables"
	Functions = "functions"
)

// Names lists every domain.
var Names = []string{FEConfig, BEConfig, Variables, Functions}

// ErrUnknownDomain is returned for a name not in Names.
var ErrUnknownDomain = errors.New("unknown domain")

// Info describes the static parts of a domain.
type Info struct {
	Name  string
	Title string
	// Sources are the files read from the working tree and, at each release
	// tag, by the version tracker.
	Sources []string
	// Names extracts the item names the version tracker records.
	Names versiontrack.NameExtractor
	// KeepOrphans keeps saved items that are no longer extracted.
	KeepOrphans bool
	// Usage scopes the --search-code scan.
	Usage usage.Options
}

var infos = map[string]Info{
	FEConfig: {
		Name:    FEConfig,
		Title:   "FE configuration",
		Sources: extract.FEConfigSources,
		Names:   extract.FEConfigNames,
		Usage:   usage.Options{Dirs: []string{"fe"}, Extensions: []string{".java"}},
	},
	BEConfig: {
		Name:    BEConfig,
		Title:   "BE configuration",
		Sources: extract.BEConfigSources,
		Names:   extract.BEConfigNames,
		Usage:   usage.Options{Dirs: []string{"be/src"}, Extensions: []string{".h", ".hpp", ".cc", ".cpp"}},
	},
	Variables: {
		Name:    Variables,
		Title:   "System variables",
		Sources: extract.VariableSources,
		Names:   extract.VariableNames,
		Usage:   usage.Options{Dirs: []string{"fe"}, Extensions: []string{".java"}},
	},
	Functions: {
		Name:        Functions,
		Title:       "SQL functions",
		Sources:     extract.FunctionSources,
		Names:       extract.FunctionNames,
		KeepOrphans: true,
		Usage:       usage.Options{Dirs: []string{"be/src/exprs"}, Extensions: []string{".h", ".cpp"}},
	},
}

// Lookup returns the Info of name.
func Lookup(name string) (Info, error) {
	info, ok := infos[name]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownDomain, name, Names)
	}
	return info, nil
}

// Runner is a pipeline with its item type erased.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// TrackerOptions overrides the configured version tracking settings.
type TrackerOptions struct {
	Branches []string
	Window   int
	Workers  int
	Limit    int
	// TrustCache skips tag listing when the cache already covers HEAD.
	TrustCache bool
	OnTag      func(branch, tag string)
}

// NewTracker creates the version tracker of a domain over repo.
func NewTracker(cfg *config.Config, info Info, repo versiontrack.Repository, o TrackerOptions, logger *slog.Logger) (*versiontrack.Tracker, error) {
	opts := versiontrack.Options{
		Branches:    cfg.Versions.Branches,
		Window:      cfg.Versions.Window,
		Workers:     cfg.Versions.Workers,
		SourceFiles: info.Sources,
		CachePath:   cfg.VersionCachePath(info.Name),
		Limit:       o.Limit,
		TrustCache:  o.TrustCache,
		OnTag:       o.OnTag,
	}
	if len(o.Branches) > 0 {
		opts.Branches = o.Branches
	}
	if o.Window > 0 {
		opts.Window = o.Window
	}
	if o.Workers > 0 {
		opts.Workers = o.Workers
	}
	return versiontrack.NewTracker(repo, info.Names, opts, logger.With("domain", info.Name))
}

// BuildOptions carries the per-run collaborators of Build.
type BuildOptions struct {
	Provider llm.Provider
	// Source is the StarRocks checkout; nil disables version tracking.
	Source *gitrepo.Repo
	// Docs is the repository generated files are published to; nil disables
	// publishing.
	Docs     *gitrepo.Repo
	Tracker  TrackerOptions
	DryRun   bool
	DiffOut  io.Writer
	Colour   bool
	Progress func(stage string, done, total int)
}

// Build assembles the pipeline of domain.
func Build(domain string, cfg *config.Config, o BuildOptions, logger *slog.Logger) (Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := Lookup(domain)
	if err != nil {
		return nil, err
	}
	logger = logger.With("domain", domain)
	logger.Debug("domains.build", "starrocks_home", cfg.StarRocksHome,
		"docs_module_dir", cfg.DocsModuleDir, "meta_dir", cfg.MetaDir)

	popts := persist.Options{
		OutputDir: cfg.DocsOutputDir,
		ModuleDir: cfg.DocsModuleDir,
		DryRun:    o.DryRun,
		DiffOut:   o.DiffOut,
		Colour:    o.Colour,
	}
	translator := docgen.NewTranslator(o.Provider, logger)

	switch domain {
	case FEConfig, BEConfig:
		scope := "FE"
		if domain == BEConfig {
			scope = "BE"
		}
		var ex pipeline.Extractor[*items.ConfigItem] = extract.NewFEConfigExtractor(cfg.StarRocksHome, logger)
		if domain == BEConfig {
			ex = extract.NewBEConfigExtractor(cfg.StarRocksHome, logger)
		}
		p := pipeline.New[*items.ConfigItem](domain, ex,
			items.NewStore[*items.ConfigItem](cfg.MetaPath(domain), logger),
			docgen.NewConfigGenerator(o.Provider, logger), translator,
			persist.NewConfigPersister(popts, scope+"_configuration.md", logger), logger)
		return wired(p, info, cfg, o, logger)
	case Variables:
		p := pipeline.New[*items.VariableItem](domain, extract.NewVariablesExtractor(cfg.StarRocksHome, logger),
			items.NewStore[*items.VariableItem](cfg.MetaPath(domain), logger),
			docgen.NewVariableGenerator(o.Provider, logger), translator,
			persist.NewVariablesPersister(popts, logger), logger)
		return wired(p, info, cfg, o, logger)
	default:
		p := pipeline.New[*items.FunctionItem](domain, extract.NewFunctionsExtractor(cfg.StarRocksHome, logger),
			items.NewStore[*items.FunctionItem](cfg.MetaPath(domain), logger),
			docgen.NewFunctionGenerator(o.Provider, logger), translator,
			persist.NewFunctionsPersister(popts, logger), logger)
		return wired(p, info, cfg, o, logger)
	}
}

// wired attaches the optional collaborators shared by every domain.
func wired[T items.Item](p *pipeline.Pipeline[T], info Info, cfg *config.Config, o BuildOptions, logger *slog.Logger) (Runner, error) {
	p.IgnorePath = cfg.IgnorePath()
	p.KeepOrphans = info.KeepOrphans
	p.Workers = cfg.LLM.Workers
	p.Progress = o.Progress

	uopts := info.Usage
	uopts.Exclude = cfg.Usage.Exclude
	uopts.MaxPerName = cfg.Usage.MaxPerName
	p.Usage = usage.NewSearcher(cfg.StarRocksHome, uopts, logger)

	if o.Source != nil {
		tracker, err := NewTracker(cfg, info, o.Source, o.Tracker, logger)
		if err != nil {
			return nil, err
		}
		p.Tracker = tracker
	}
	if o.Docs != nil {
		p.Publisher = NewPublisher(cfg, info.Name, o.Docs, logger)
	}
	return p, nil
}

// NewPublisher creates the git publisher of a domain. Pull requests are
// enabled when a GitHub token is configured; the repository slug falls back
// to the remote URL.
func NewPublisher(cfg *config.Config, domain string, repo *gitrepo.Repo, logger *slog.Logger) *persist.GitPublisher {
	var pr persist.PullRequester
	if cfg.Git.GitHubToken != "" {
		slug := cfg.Git.GitHubRepo
		if slug == "" {
			if url, err := repo.RemoteURL(context.Background(), cfg.Git.Remote); err == nil {
				slug, _ = persist.RepoFromRemote(url)
			}
		}
		if slug != "" {
			pr = persist.NewGitHubClient(cfg.Git.GitHubToken, slug, logger)
		} else {
			logger.Warn("domains.publisher.no_repo", "hint", "set GITHUB_REPO")
		}
	}
	pub := persist.NewGitPublisher(repo, domain, pr, logger)
	pub.BaseBranch = cfg.Git.BaseBranch
	pub.Remote = cfg.Git.Remote
	return pub
}
