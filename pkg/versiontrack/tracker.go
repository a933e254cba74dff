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

package versiontrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWindow is the number of most recent branches tracked and displayed.
const DefaultWindow = 5

// Repository is the read-only view of version history the tracker needs.
// Implementations must be safe for concurrent use when Options.Workers > 1.
type Repository interface {
	// Tags lists every tag in the repository, in any order.
	Tags(ctx context.Context) ([]string, error)
	// ReadFileAt returns the content of path as of tag without touching the
	// working tree. It returns an error wrapping ErrPathNotFound when path
	// does not exist at tag.
	ReadFileAt(ctx context.Context, tag, path string) ([]byte, error)
	// HeadCommit identifies the working copy's current commit.
	HeadCommit(ctx context.Context) (string, error)
}

// NameExtractor returns the item names present in one source file's content.
type NameExtractor func(content []byte) ([]string, error)

// Options configures a Tracker.
type Options struct {
	// Branches is the maintained window, e.g. ["3.3", "3.4", "3.5"].
	Branches []string
	// Window caps Branches to the most recent entries. Zero means DefaultWindow.
	Window int
	// SourceFiles are repository-relative paths read at each tag.
	SourceFiles []string
	// CachePath is the version cache file.
	CachePath string
	// Limit caps the number of new tags scanned per run. Zero is unlimited.
	Limit int
	// Workers is the number of branches scanned concurrently. Zero means 1.
	Workers int
	// TrustCache skips tag listing when the cached commit, branch window and
	// source files all match the current ones and every branch was scanned to
	// its newest tag. Tags fetched without moving HEAD are then not seen, so
	// callers opt in explicitly.
	TrustCache bool
	// OnTag is called after each scanned tag. It may be called concurrently
	// when Workers > 1.
	OnTag func(branch, tag string)
}

// Result is the outcome of Update.
type Result struct {
	// Versions maps every requested item to its displayed introduction tags,
	// oldest first. Items with no data map to an empty slice.
	Versions map[string][]string
	// Branches is the window used for display.
	Branches []string
	// Diagnostics lists recovered per-tag failures.
	Diagnostics []Diagnostic
	// TagsScanned counts tags read in this run.
	TagsScanned int
	// NewRecords counts first-seen records added to the cache.
	NewRecords int
	// CacheWritten reports whether the cache file was rewritten.
	CacheWritten bool
	// FromCache is true when no repository scan was attempted.
	FromCache bool
}

// Tracker maintains the version cache of one documentation domain.
type Tracker struct {
	repo    Repository
	extract NameExtractor
	opts    Options
	logger  *slog.Logger

	mu sync.Mutex
}

// NewTracker creates a tracker. The repository is not contacted until Update.
func NewTracker(repo Repository, extract NameExtractor, opts Options, logger *slog.Logger) (*Tracker, error) {
	if repo == nil {
		return nil, errors.New("versiontrack: nil repository")
	}
	if extract == nil {
		return nil, errors.New("versiontrack: nil name extractor")
	}
	if opts.CachePath == "" {
		return nil, errors.New("versiontrack: cache path is required")
	}
	if len(opts.SourceFiles) == 0 {
		return nil, errors.New("versiontrack: at least one source file is required")
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{repo: repo, extract: extract, opts: opts, logger: logger}, nil
}

// Update returns the displayed introduction versions of items.
//
// With trackNew false the cached data is returned as is and the repository is
// never read. With trackNew true every tag newer than each branch's cached
// frontier is scanned, new first-seen records are merged, and the cache is
// rewritten. A *CacheWriteError is returned together with a usable Result.
func (t *Tracker) Update(ctx context.Context, items []string, trackNew bool) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	cache := t.loadCache()
	win := window(t.opts.Branches, t.opts.Window)

	if !trackNew {
		if len(win) == 0 {
			win = window(cache.Metadata.MaintainedBranches, t.opts.Window)
		}
		return &Result{Versions: project(cache, items, win), Branches: win, FromCache: true}, nil
	}

	if len(win) == 0 {
		return nil, fmt.Errorf("%w: no maintained branches configured", ErrInvalidBranchSpec)
	}

	head, err := t.repo.HeadCommit(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve head: %v", ErrRepositoryUnavailable, err)
	}

	if t.opts.TrustCache && t.cacheCurrent(cache, head, win) {
		t.logger.Info("versiontrack.update.cache_hit",
			"commit", shortSHA(head),
			"branches", win,
		)
		return &Result{Versions: project(cache, items, win), Branches: win, FromCache: true}, nil
	}

	tags, err := t.repo.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tags: %v", ErrRepositoryUnavailable, err)
	}
	groups := GroupByBranch(tags)
	for _, b := range win {
		if len(groups[b]) == 0 {
			return nil, fmt.Errorf("%w: branch %s has no release tags", ErrInvalidBranchSpec, b)
		}
	}

	sourcesChanged := len(cache.Metadata.SourceFiles) > 0 && !cache.sameSources(t.opts.SourceFiles)
	plans := t.plan(cache, groups, win, sourcesChanged)

	t.logger.Info("versiontrack.update.start",
		"branches", win,
		"commit", shortSHA(head),
		"pending_tags", countPending(plans),
		"sources_changed", sourcesChanged,
	)

	scans, err := t.scanAll(ctx, plans)
	if err != nil {
		return nil, err
	}

	res := &Result{Branches: win}
	reads, hardFailures := 0, 0
	for _, s := range scans {
		res.TagsScanned += len(s.plan.tags)
		res.Diagnostics = append(res.Diagnostics, s.diags...)
		reads += s.reads
		hardFailures += s.hardFailures
	}
	if reads > 0 && hardFailures == reads {
		return nil, fmt.Errorf("%w: no historical content could be read (%d failures)", ErrRepositoryUnavailable, hardFailures)
	}

	dirty := t.merge(cache, scans, groups, sourcesChanged, res)
	if cache.Metadata.RepositoryCommit != head || !slices.Equal(cache.Metadata.MaintainedBranches, win) || !cache.sameSources(t.opts.SourceFiles) {
		dirty = true
	}
	cache.Metadata.RepositoryCommit = head
	cache.Metadata.MaintainedBranches = win
	cache.Metadata.SourceFiles = slices.Clone(t.opts.SourceFiles)

	res.Versions = project(cache, items, win)
	recordNewRecords(res.NewRecords)
	observeScan(time.Since(start))

	if dirty {
		if err := SaveCache(t.opts.CachePath, cache); err != nil {
			recordCacheWrite(false)
			t.logger.Error("versiontrack.cache.write_failed", "path", t.opts.CachePath, "err", err)
			return res, &CacheWriteError{Path: t.opts.CachePath, Err: err}
		}
		recordCacheWrite(true)
		res.CacheWritten = true
	}

	t.logger.Info("versiontrack.update.complete",
		"tags_scanned", res.TagsScanned,
		"new_records", res.NewRecords,
		"diagnostics", len(res.Diagnostics),
		"cache_written", res.CacheWritten,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Cache returns a copy of the on-disk cache, or an empty cache when the file
// is missing or unreadable.
func (t *Tracker) Cache() *Cache {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadCache()
}

func (t *Tracker) loadCache() *Cache {
	cache, err := LoadCache(t.opts.CachePath)
	if err != nil {
		t.logger.Warn("versiontrack.cache.load_failed", "path", t.opts.CachePath, "err", err)
		return NewCache()
	}
	return cache
}

func (t *Tracker) cacheCurrent(c *Cache, head string, win []string) bool {
	if c.Metadata.RepositoryCommit != head || !slices.Equal(window(c.Metadata.MaintainedBranches, 0), win) {
		return false
	}
	if !c.sameSources(t.opts.SourceFiles) {
		return false
	}
	for _, b := range win {
		st := c.Metadata.Branches[b]
		if st.LastScanned == "" || !st.Complete {
			return false
		}
	}
	return true
}

// branchPlan is the ordered list of tags one branch still has to scan,
// together with the names already seen on it.
type branchPlan struct {
	branch string
	tags   []string
	seen   map[string]struct{}
}

func (t *Tracker) plan(c *Cache, groups map[string][]string, win []string, reset bool) []branchPlan {
	budget := t.opts.Limit
	plans := make([]branchPlan, 0, len(win))
	for _, b := range win {
		frontier := c.Metadata.Branches[b].LastScanned
		if reset {
			frontier = ""
		}
		var pending []string
		for _, tag := range groups[b] {
			if frontier == "" || CompareTags(tag, frontier) > 0 {
				pending = append(pending, tag)
			}
		}
		if t.opts.Limit > 0 {
			if budget < len(pending) {
				pending = pending[:budget]
			}
			budget -= len(pending)
		}
		plans = append(plans, branchPlan{branch: b, tags: pending, seen: c.SeenOn(b)})
	}
	return plans
}

// branchScan is the outcome of walking one branch.
type branchScan struct {
	plan         branchPlan
	records      map[string]string // name -> first tag, new names only
	diags        []Diagnostic
	reads        int
	hardFailures int
}

func (t *Tracker) scanAll(ctx context.Context, plans []branchPlan) ([]branchScan, error) {
	scans := make([]branchScan, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.Workers)
	for i := range plans {
		g.Go(func() error {
			s, err := t.scanBranch(gctx, plans[i])
			if err != nil {
				return err
			}
			scans[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scans, nil
}

// scanBranch walks the plan's tags in ascending order. Each tag's names are
// diffed against the running seen-set, so only first appearances are kept.
func (t *Tracker) scanBranch(ctx context.Context, p branchPlan) (branchScan, error) {
	s := branchScan{plan: p, records: make(map[string]string)}
	if len(p.tags) == 0 {
		return s, nil
	}
	seen := make(map[string]struct{}, len(p.seen))
	for n := range p.seen {
		seen[n] = struct{}{}
	}

	t.logger.Debug("versiontrack.branch.scan", "branch", p.branch, "tags", len(p.tags), "from", p.tags[0])
	for _, tag := range p.tags {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		names := t.namesAt(ctx, p.branch, tag, &s)
		added := 0
		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			s.records[n] = tag
			added++
		}
		recordTagScanned()
		if added > 0 {
			t.logger.Debug("versiontrack.tag.new_items", "branch", p.branch, "tag", tag, "count", added)
		}
		if t.opts.OnTag != nil {
			t.opts.OnTag(p.branch, tag)
		}
	}
	return s, nil
}

// namesAt reads every source file at tag and returns the union of extracted
// names. Failures are recorded on s and contribute no names.
func (t *Tracker) namesAt(ctx context.Context, branch, tag string, s *branchScan) []string {
	var names []string
	for _, path := range t.opts.SourceFiles {
		s.reads++
		content, err := t.repo.ReadFileAt(ctx, tag, path)
		if err != nil {
			s.diags = append(s.diags, Diagnostic{Branch: branch, Tag: tag, Path: path, Err: err.Error()})
			if errors.Is(err, ErrPathNotFound) {
				t.logger.Debug("versiontrack.tag.path_missing", "tag", tag, "path", path)
				continue
			}
			s.hardFailures++
			recordExtractFailure()
			t.logger.Warn("versiontrack.tag.read_failed", "tag", tag, "path", path, "err", err)
			continue
		}
		found, err := t.extract(content)
		if err != nil {
			s.diags = append(s.diags, Diagnostic{Branch: branch, Tag: tag, Path: path, Err: err.Error()})
			recordExtractFailure()
			t.logger.Warn("versiontrack.tag.extract_failed", "tag", tag, "path", path, "err", err)
			continue
		}
		names = append(names, found...)
	}
	return names
}

// merge folds branch scans into the cache and advances each branch frontier.
// It reports whether anything changed.
func (t *Tracker) merge(c *Cache, scans []branchScan, groups map[string][]string, reset bool, res *Result) bool {
	dirty := false
	for _, s := range scans {
		b := s.plan.branch
		for name, tag := range s.records {
			if c.Record(name, b, tag) {
				res.NewRecords++
				dirty = true
			}
		}

		prev := c.Metadata.Branches[b]
		next := BranchState{FirstTag: groups[b][0], LastScanned: prev.LastScanned}
		if reset {
			next.LastScanned = ""
		}
		if n := len(s.plan.tags); n > 0 {
			next.LastScanned = s.plan.tags[n-1]
		}
		all := groups[b]
		next.Complete = next.LastScanned != "" && CompareTags(next.LastScanned, all[len(all)-1]) >= 0
		if next != prev {
			c.Metadata.Branches[b] = next
			dirty = true
		}
	}
	return dirty
}

func countPending(plans []branchPlan) int {
	n := 0
	for _, p := range plans {
		n += len(p.tags)
	}
	return n
}

func shortSHA(sha string) string {
	return sha[:min(8, len(sha))]
}
