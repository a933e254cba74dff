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
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/docsagent/internal/config"
	"github.com/kraklabs/docsagent/internal/errors"
	"github.com/kraklabs/docsagent/pkg/domains"
	"github.com/kraklabs/docsagent/pkg/versiontrack"
)

// versionsFlags holds parsed flags for the versions command.
type versionsFlags struct {
	domain  string
	track   bool
	tracker domains.TrackerOptions
	names   []string
}

func parseVersionsFlags(args []string) versionsFlags {
	var f versionsFlags
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	fs.StringVarP(&f.domain, "type", "t", "", "Domain: fe_config, be_config, variables or functions")
	fs.BoolVar(&f.track, "track", false, "Scan release tags newer than the cache before printing")
	fs.IntVar(&f.tracker.Limit, "limit", 0, "Scan at most N new tags (0 = all)")
	fs.StringSliceVar(&f.tracker.Branches, "branches", nil, "Maintained release branches, e.g. 3.3,3.4,3.5")
	fs.IntVar(&f.tracker.Window, "window", 0, "Number of most recent branches kept (default: versions.window)")
	fs.IntVar(&f.tracker.Workers, "workers", 0, "Branches scanned concurrently (default: versions.workers)")
	fs.BoolVar(&f.tracker.TrustCache, "trust-cache", false, "Skip tag listing when the cache covers the current HEAD")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: docsagent versions -t <domain> [options] [name...]

Description:
  Print the release tags each item was introduced in. With --track the
  release tags of every maintained branch that are newer than the version
  cache are read first and the cache is updated. Without names, every item
  in the current source tree is listed.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  docsagent versions -t fe_config enable_auto_tablet_distribution
  docsagent versions -t be_config --track --branches 3.3,3.4,3.5
  docsagent versions -t variables --track --limit 20 --json
`)
	}
	_ = fs.Parse(args)
	f.names = fs.Args()
	return f
}

// versionsOutput is the --json form of a versions run.
type versionsOutput struct {
	Domain       string                    `json:"domain"`
	Branches     []string                  `json:"branches"`
	Versions     map[string][]string       `json:"versions"`
	TagsScanned  int                       `json:"tags_scanned"`
	NewRecords   int                       `json:"new_records"`
	CacheWritten bool                      `json:"cache_written"`
	FromCache    bool                      `json:"from_cache"`
	Diagnostics  []versiontrack.Diagnostic `json:"diagnostics,omitempty"`
}

// runVersions runs the version tracker of one domain on its own.
func (a *app) runVersions(ctx context.Context, args []string) error {
	f := parseVersionsFlags(args)
	info, err := lookupDomain(f.domain)
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	repo, err := a.sourceRepository(cfg, f.track)
	if err != nil {
		return err
	}
	if f.track {
		if err := a.discoverBranches(ctx, cfg, repo, &f.tracker); err != nil {
			return err
		}
		onTag, finish := tagProgress(a.progress)
		defer finish()
		f.tracker.OnTag = onTag
	}
	tracker, err := domains.NewTracker(cfg, info, repo, f.tracker, a.logger)
	if err != nil {
		return errors.NewConfigError("Cannot create version tracker", err.Error(), "", err)
	}

	names := f.names
	if len(names) == 0 {
		names, err = workingTreeNames(cfg.StarRocksHome, info)
		if err != nil {
			a.logger.Warn("versions.names.fallback", "err", err)
			names = slices.Sorted(maps.Keys(tracker.Cache().Versions))
		}
	}

	res, err := tracker.Update(ctx, names, f.track)
	var cacheErr *versiontrack.CacheWriteError
	switch {
	case stderrors.As(err, &cacheErr) && res != nil:
		a.logger.Warn("versions.cache.not_saved", "path", cacheErr.Path, "err", cacheErr.Err)
	case err != nil:
		return trackerError(err)
	}

	out := versionsOutput{
		Domain:       info.Name,
		Branches:     res.Branches,
		Versions:     res.Versions,
		TagsScanned:  res.TagsScanned,
		NewRecords:   res.NewRecords,
		CacheWritten: res.CacheWritten,
		FromCache:    res.FromCache,
		Diagnostics:  res.Diagnostics,
	}
	if done, err := a.emitJSON(out); done {
		return err
	}
	for _, d := range out.Diagnostics {
		a.printer.Warningf("%s", d)
	}
	a.printVersions(out)
	return nil
}

// sourceRepository opens STARROCKS_HOME. Reading the cache alone does not
// touch the repository, so outside --track a missing clone is tolerated.
func (a *app) sourceRepository(cfg *config.Config, track bool) (versiontrack.Repository, error) {
	if track {
		return a.openRepo(cfg.StarRocksHome, "STARROCKS_HOME")
	}
	repo, err := a.openRepo(cfg.StarRocksHome, "STARROCKS_HOME")
	if err != nil {
		a.logger.Debug("versions.repo.offline", "err", err)
		return offlineRepo{}, nil
	}
	return repo, nil
}

// discoverBranches fills o.Branches from the repository's release tags when
// neither the flags nor the configuration name any.
func (a *app) discoverBranches(ctx context.Context, cfg *config.Config, repo versiontrack.Repository, o *domains.TrackerOptions) error {
	if len(o.Branches) > 0 || len(cfg.Versions.Branches) > 0 {
		return nil
	}
	n := o.Window
	if n <= 0 {
		n = cfg.Versions.Window
	}
	branches, err := versiontrack.DiscoverBranches(ctx, repo, n)
	if err != nil {
		return trackerError(err)
	}
	a.logger.Info("versions.branches.discovered", "branches", branches)
	o.Branches = branches
	return nil
}

// offlineRepo is the Repository used when only the cache is read.
type offlineRepo struct{}

func (offlineRepo) Tags(context.Context) ([]string, error) {
	return nil, versiontrack.ErrRepositoryUnavailable
}

func (offlineRepo) ReadFileAt(context.Context, string, string) ([]byte, error) {
	return nil, versiontrack.ErrRepositoryUnavailable
}

func (offlineRepo) HeadCommit(context.Context) (string, error) {
	return "", versiontrack.ErrRepositoryUnavailable
}

// workingTreeNames extracts the item names of info from the source files in
// the working tree under root.
func workingTreeNames(root string, info domains.Info) ([]string, error) {
	seen := make(map[string]struct{})
	read := 0
	for _, src := range info.Sources {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(src)))
		if err != nil {
			continue
		}
		read++
		found, err := info.Names(content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		for _, n := range found {
			seen[n] = struct{}{}
		}
	}
	if read == 0 {
		return nil, fmt.Errorf("no source files of %s found under %s", info.Name, root)
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

func trackerError(err error) error {
	switch {
	case stderrors.Is(err, versiontrack.ErrInvalidBranchSpec):
		return errors.NewConfigError("Invalid branch configuration", err.Error(),
			"Pass --branches (e.g. 3.3,3.4,3.5) or set versions.branches", err)
	case stderrors.Is(err, versiontrack.ErrRepositoryUnavailable):
		return errors.NewGitError("Cannot read version history", err.Error(),
			"Check that STARROCKS_HOME is a full clone and run 'git fetch --tags'", err)
	case stderrors.Is(err, context.Canceled):
		return errors.NewInternalError("Version tracking interrupted", err.Error(), "", err)
	default:
		return errors.NewInternalError("Version tracking failed", err.Error(), "Re-run with --debug for details", err)
	}
}

func (a *app) printVersions(out versionsOutput) {
	p := a.printer
	p.Header(fmt.Sprintf("Introduced in: %s", out.Domain))
	p.Field("Branches", strings.Join(out.Branches, ", "))
	if out.FromCache {
		p.Field("Source", "cache")
	} else {
		p.Field("Tags scanned", out.TagsScanned)
		p.Field("New records", out.NewRecords)
	}
	fmt.Fprintln(p.Out)

	names := slices.Sorted(maps.Keys(out.Versions))
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		tags := "-"
		if v := out.Versions[name]; len(v) > 0 {
			tags = strings.Join(v, ", ")
		}
		rows = append(rows, []string{name, tags})
	}
	p.Table([]string{"NAME", "INTRODUCED IN"}, rows)
}
