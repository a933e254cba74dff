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

// Package pipeline runs one documentation domain end to end: extraction,
// filtering, version tracking, generation, translation, persistence and
// publishing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/docsagent/pkg/docgen"
	"github.com/kraklabs/docsagent/pkg/items"
	"github.com/kraklabs/docsagent/pkg/persist"
	"github.com/kraklabs/docsagent/pkg/versiontrack"
)

// Extractor produces the current items of a domain from source code.
type Extractor[T items.Item] interface {
	Extract(ctx context.Context) ([]T, error)
}

// MetaStore keeps items and their documents between runs.
type MetaStore[T items.Item] interface {
	Load() ([]T, error)
	Save(list []T) error
}

// Generator writes the English document of one item.
type Generator[T items.Item] interface {
	Generate(ctx context.Context, item T) (string, error)
}

// Translator translates markdown between languages.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Persister renders items into output files.
type Persister[T items.Item] interface {
	Persist(ctx context.Context, list []T, langs []string) (*persist.Report, error)
	Mapping(langs []string) (persist.Mapping, error)
}

// VersionTracker resolves the release versions that introduced each name.
type VersionTracker interface {
	Update(ctx context.Context, names []string, trackNew bool) (*versiontrack.Result, error)
}

// Publisher copies outputs into the docs repository and commits them.
type Publisher interface {
	Publish(ctx context.Context, mapping persist.Mapping, langs []string, createPR bool) (*persist.PublishResult, error)
}

// UsageSearcher finds where names are referenced in source code.
type UsageSearcher interface {
	Search(ctx context.Context, names []string) (map[string][]string, error)
}

// DefaultBatchSize is the number of documents sent in one translation call.
const DefaultBatchSize = 10

// ErrPublish wraps failures of the git publishing step. Files are already
// written when it is returned.
var ErrPublish = errors.New("publish failed")

// Options controls a single run.
type Options struct {
	Langs []string
	// Names restricts the run to these items (key or version key).
	Names []string
	// Limit caps the items that get generated or translated; 0 means all.
	Limit         int
	TrackVersions bool
	OnlyMeta      bool
	WithoutLLM    bool
	SearchCode    bool
	DryRun        bool
	GitCommit     bool
	GitPR         bool
}

// Result summarizes a run.
type Result struct {
	RunID      string
	Domain     string
	Languages  []string
	Total      int
	HasZH      int
	HasENOnly  int
	HasNeither int
	Generated  int
	Translated int
	// Files are the output files that changed (or would change in dry-run).
	Files    []string
	Report   *persist.Report
	Publish  *persist.PublishResult
	Duration time.Duration
}

// Pipeline wires the components of one domain. Tracker, Publisher and Usage
// are optional.
type Pipeline[T items.Item] struct {
	Domain     string
	Extractor  Extractor[T]
	Store      MetaStore[T]
	Generator  Generator[T]
	Translator Translator
	Persister  Persister[T]
	Tracker    VersionTracker
	Publisher  Publisher
	Usage      UsageSearcher

	// IgnorePath is the ignore list (one name per line); empty disables it.
	IgnorePath string
	// KeepOrphans keeps saved items that are no longer extracted.
	KeepOrphans bool
	BatchSize   int
	// Workers bounds concurrent generation and translation calls.
	Workers int
	// Progress, when set, is called as generation and translation advance.
	Progress func(stage string, done, total int)

	logger *slog.Logger
}

// New creates a pipeline for domain.
func New[T items.Item](domain string, ex Extractor[T], store MetaStore[T], gen Generator[T], tr Translator, ps Persister[T], logger *slog.Logger) *Pipeline[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline[T]{
		Domain:     domain,
		Extractor:  ex,
		Store:      store,
		Generator:  gen,
		Translator: tr,
		Persister:  ps,
		BatchSize:  DefaultBatchSize,
		Workers:    1,
		logger:     logger,
	}
}

// groups partitions items by the documents they already have.
type groups[T items.Item] struct {
	zh      []T // has a Chinese document
	enOnly  []T // English but no Chinese
	neither []T
}

// Run executes the pipeline.
func (p *Pipeline[T]) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	langs := normalizeLangs(opts.Langs)
	res := &Result{RunID: uuid.NewString(), Domain: p.Domain, Languages: langs}
	defer func() {
		res.Duration = time.Since(start)
		observeRun(p.Domain, res.Duration)
	}()
	p.logger.Info("pipeline.start", "run_id", res.RunID, "domain", p.Domain, "langs", langs, "limit", opts.Limit)

	fresh, err := p.Extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", p.Domain, err)
	}
	saved, err := p.Store.Load()
	if err != nil {
		return nil, err
	}
	all := items.Merge(fresh, saved, p.KeepOrphans)
	p.logger.Info("pipeline.step.extract", "run_id", res.RunID, "extracted", len(fresh), "saved", len(saved), "merged", len(all))

	ignore := map[string]struct{}{}
	if p.IgnorePath != "" {
		if ignore, err = items.ReadIgnoreList(p.IgnorePath); err != nil {
			return nil, err
		}
	}
	work := items.Exclude(items.Filter(all, opts.Names), ignore)
	if len(opts.Names) > 0 && len(work) == 0 {
		p.logger.Warn("pipeline.filter.empty", "run_id", res.RunID, "names", opts.Names)
	}

	if opts.SearchCode && p.Usage != nil {
		if err := p.searchUsage(ctx, work); err != nil {
			return nil, err
		}
	}
	if p.Tracker != nil {
		if err := p.updateVersions(ctx, work, opts.TrackVersions); err != nil {
			return nil, err
		}
	}

	g := group(work)
	res.Total = len(work)
	res.HasZH, res.HasENOnly, res.HasNeither = len(g.zh), len(g.enOnly), len(g.neither)
	recordItems(p.Domain, res.HasZH, res.HasENOnly, res.HasNeither)
	p.logger.Info("pipeline.step.group", "run_id", res.RunID,
		"total", res.Total, "has_zh", res.HasZH, "has_en_only", res.HasENOnly, "has_neither", res.HasNeither)

	if opts.OnlyMeta {
		if !opts.DryRun {
			if err := p.Store.Save(all); err != nil {
				return nil, err
			}
		}
		p.logger.Info("pipeline.only_meta", "run_id", res.RunID)
		return res, nil
	}

	if !opts.WithoutLLM {
		if opts.Limit > 0 {
			g = limit(work, langs, opts.Limit)
			p.logger.Info("pipeline.step.limit", "run_id", res.RunID, "limit", opts.Limit,
				"chosen", len(g.zh)+len(g.enOnly)+len(g.neither))
		}
		generated, err := p.generate(ctx, g.neither)
		res.Generated = generated
		if err != nil {
			return nil, err
		}
		// Freshly generated items now behave like English-only ones.
		for _, it := range g.neither {
			if it.Doc(items.LangEN) != "" {
				g.enOnly = append(g.enOnly, it)
			}
		}
		translated, err := p.translate(ctx, g, langs)
		res.Translated = translated
		if err != nil {
			return nil, err
		}
	}

	for _, it := range work {
		annotateVersions(it)
	}

	if !opts.DryRun {
		if err := p.Store.Save(all); err != nil {
			return nil, err
		}
	}

	report, err := p.Persister.Persist(ctx, items.Exclude(all, ignore), langs)
	if err != nil {
		return nil, fmt.Errorf("persist %s: %w", p.Domain, err)
	}
	res.Report = report
	res.Files = report.Files()

	if (opts.GitCommit || opts.GitPR) && p.Publisher != nil {
		if opts.DryRun {
			p.logger.Info("pipeline.publish.skipped", "run_id", res.RunID, "reason", "dry_run")
		} else {
			mapping, err := p.Persister.Mapping(langs)
			if err != nil {
				return nil, err
			}
			pub, err := p.Publisher.Publish(ctx, mapping, langs, opts.GitPR)
			if err != nil {
				return nil, fmt.Errorf("%w for %s: %w", ErrPublish, p.Domain, err)
			}
			res.Publish = pub
		}
	}

	p.logger.Info("pipeline.complete", "run_id", res.RunID, "generated", res.Generated,
		"translated", res.Translated, "files", len(res.Files), "duration", time.Since(start))
	return res, nil
}

func (p *Pipeline[T]) searchUsage(ctx context.Context, list []T) error {
	names := make([]string, 0, len(list))
	for _, it := range list {
		names = append(names, it.Key())
	}
	found, err := p.Usage.Search(ctx, names)
	if err != nil {
		return fmt.Errorf("search usage: %w", err)
	}
	for _, it := range list {
		if locs, ok := found[it.Key()]; ok {
			it.SetLocations(locs)
		}
	}
	p.logger.Info("pipeline.step.usage", "names", len(names), "found", len(found))
	return nil
}

func (p *Pipeline[T]) updateVersions(ctx context.Context, list []T, trackNew bool) error {
	res, err := p.Tracker.Update(ctx, items.VersionKeys(list), trackNew)
	var cacheErr *versiontrack.CacheWriteError
	switch {
	case errors.As(err, &cacheErr) && res != nil:
		p.logger.Warn("pipeline.versions.cache_write_failed", "err", err)
	case err != nil:
		return fmt.Errorf("track versions: %w", err)
	}

	updated := 0
	for _, it := range list {
		if v := res.Versions[it.VersionKey()]; len(v) > 0 {
			it.SetVersions(v)
			updated++
		}
	}
	p.logger.Info("pipeline.step.versions", "track_new", trackNew, "items", len(list),
		"with_versions", updated, "tags_scanned", res.TagsScanned, "from_cache", res.FromCache)
	return nil
}

func (p *Pipeline[T]) generate(ctx context.Context, list []T) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}
	p.logger.Info("pipeline.step.generate", "items", len(list))

	var (
		mu        sync.Mutex
		generated int
		done      int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(p.Workers, 1))
	for _, it := range list {
		eg.Go(func() error {
			doc, err := p.Generator.Generate(egCtx, it)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if doc != "" {
				it.SetDoc(items.LangEN, doc)
				generated++
				recordGenerated(p.Domain)
			}
			done++
			p.progress("generate", done, len(list))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return generated, fmt.Errorf("generate: %w", err)
	}
	return generated, nil
}

func (p *Pipeline[T]) progress(stage string, done, total int) {
	if p.Progress != nil {
		p.Progress(stage, done, total)
	}
}

// group drops blank documents and partitions list.
func group[T items.Item](list []T) groups[T] {
	var g groups[T]
	for _, it := range list {
		docs := it.Docs()
		for lang, doc := range docs {
			if strings.TrimSpace(doc) == "" {
				delete(docs, lang)
			}
		}
		switch {
		case it.Doc(items.LangZH) != "":
			g.zh = append(g.zh, it)
		case it.Doc(items.LangEN) != "":
			g.enOnly = append(g.enOnly, it)
		default:
			g.neither = append(g.neither, it)
		}
	}
	return g
}

// limit picks the first n items that still lack a document in some target
// language and regroups them.
func limit[T items.Item](list []T, langs []string, n int) groups[T] {
	var chosen []T
	for _, it := range list {
		if len(chosen) == n {
			break
		}
		for _, lang := range langs {
			if it.Doc(lang) == "" {
				chosen = append(chosen, it)
				break
			}
		}
	}
	return group(chosen)
}

func annotateVersions(it items.Item) {
	v := it.Versions()
	if len(v) == 0 {
		return
	}
	for lang, doc := range it.Docs() {
		it.SetDoc(lang, docgen.SetIntroducedIn(doc, v))
	}
}

// normalizeLangs lowercases, de-duplicates and defaults to English.
func normalizeLangs(langs []string) []string {
	var out []string
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []string{items.LangEN}
	}
	return out
}
