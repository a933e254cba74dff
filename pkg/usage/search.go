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

// Package usage finds where item names are referenced in the source tree.
package usage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxPerName caps the locations kept per name.
const DefaultMaxPerName = 5

var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"build":        {},
	"output":       {},
	"thirdparty":   {},
	"test":         {},
	"tests":        {},
	"testdata":     {},
}

// Options configures a Searcher.
type Options struct {
	// Dirs are searched relative to the root; empty means the whole root.
	Dirs []string
	// Extensions limits the files searched, e.g. ".java", ".cpp".
	Extensions []string
	// Exclude holds gitignore-style patterns applied to root-relative paths.
	Exclude    []string
	MaxPerName int
	Workers    int
}

// Searcher scans source files for whole-word occurrences of names.
type Searcher struct {
	root   string
	opts   Options
	ignore *ignore.GitIgnore
	exts   map[string]struct{}
	logger *slog.Logger
}

// NewSearcher creates a searcher rooted at root. The root's .gitignore, when
// present, is combined with opts.Exclude.
func NewSearcher(root string, opts Options, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxPerName <= 0 {
		opts.MaxPerName = DefaultMaxPerName
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	var gi *ignore.GitIgnore
	gitignore := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignore); err == nil {
		if compiled, err := ignore.CompileIgnoreFileAndLines(gitignore, opts.Exclude...); err == nil {
			gi = compiled
		} else {
			logger.Warn("usage.gitignore.invalid", "path", gitignore, "err", err)
		}
	}
	if gi == nil && len(opts.Exclude) > 0 {
		gi = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Searcher{root: root, opts: opts, ignore: gi, exts: exts, logger: logger}
}

// Search returns, for each name found, up to MaxPerName "path:line"
// locations sorted by path and line. Names never seen are absent.
func (s *Searcher) Search(ctx context.Context, names []string) (map[string][]string, error) {
	if len(names) == 0 {
		return map[string][]string{}, nil
	}
	pattern, err := wordPattern(names)
	if err != nil {
		return nil, err
	}

	files, err := s.files()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	found := make(map[string][]location)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hits, err := scanFile(filepath.Join(s.root, rel), pattern)
			if err != nil {
				s.logger.Debug("usage.file.read_failed", "path", rel, "err", err)
				return nil
			}
			if len(hits) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for name, lines := range hits {
				for _, line := range lines {
					found[name] = append(found[name], location{path: rel, line: line})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(found))
	for name, locs := range found {
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].path != locs[j].path {
				return locs[i].path < locs[j].path
			}
			return locs[i].line < locs[j].line
		})
		if len(locs) > s.opts.MaxPerName {
			locs = locs[:s.opts.MaxPerName]
		}
		for _, l := range locs {
			out[name] = append(out[name], fmt.Sprintf("%s:%d", l.path, l.line))
		}
	}
	s.logger.Info("usage.search.complete", "files", len(files), "names", len(names), "found", len(out))
	return out, nil
}

type location struct {
	path string
	line int
}

func wordPattern(names []string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			quoted = append(quoted, regexp.QuoteMeta(n))
		}
	}
	// Longest first so that a name is not shadowed by one of its prefixes.
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	re, err := regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}
	return re, nil
}

func scanFile(path string, pattern *regexp.Regexp) (map[string][]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !pattern.Match(data) {
		return nil, nil
	}

	hits := make(map[string][]int)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		for _, m := range pattern.FindAllString(scanner.Text(), -1) {
			if n := len(hits[m]); n == 0 || hits[m][n-1] != line {
				hits[m] = append(hits[m], line)
			}
		}
	}
	return hits, scanner.Err()
}

// files lists the candidate files, root-relative with forward slashes.
func (s *Searcher) files() ([]string, error) {
	dirs := s.opts.Dirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	var out []string
	for _, dir := range dirs {
		start := filepath.Join(s.root, dir)
		if _, err := os.Stat(start); err != nil {
			s.logger.Warn("usage.dir.missing", "path", start)
			continue
		}
		err := filepath.WalkDir(start, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			rel, relErr := filepath.Rel(s.root, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path == start {
					return nil
				}
				if _, skip := skipDirs[strings.ToLower(d.Name())]; skip {
					return filepath.SkipDir
				}
				if s.ignore != nil && s.ignore.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}
			if !s.wanted(rel, d.Name()) {
				return nil
			}
			out = append(out, rel)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", start, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Searcher) wanted(rel, name string) bool {
	if len(s.exts) > 0 {
		if _, ok := s.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return false
		}
	}
	if isTestFile(name) {
		return false
	}
	return s.ignore == nil || !s.ignore.MatchesPath(rel)
}

func isTestFile(name string) bool {
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	return strings.HasPrefix(base, "test") || strings.HasSuffix(base, "test") || strings.HasSuffix(base, "_test")
}
