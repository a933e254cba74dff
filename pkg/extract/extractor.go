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

package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/docsagent/pkg/items"
)

// Designated source files, relative to the source root.
var (
	BEConfigSources = []string{"be/src/common/config.h", "be/src/common/config.cpp"}
	FEConfigSources = []string{"fe/fe-core/src/main/java/com/starrocks/common/Config.java"}
	VariableSources = []string{
		"fe/fe-core/src/main/java/com/starrocks/qe/SessionVariable.java",
		"fe/fe-core/src/main/java/com/starrocks/qe/GlobalVariable.java",
	}
	FunctionSources = []string{"gensrc/script/functions.py"}
)

// ErrNoSources is returned when none of the designated files exist.
var ErrNoSources = errors.New("no source files found")

// ParseFunc parses the content of one source file.
type ParseFunc[T items.Item] func(ctx context.Context, content []byte, path string) ([]T, error)

// FileExtractor parses a fixed list of files under a source root. Files are
// read and parsed concurrently; results keep the file order and the first
// definition of a key wins.
type FileExtractor[T items.Item] struct {
	root    string
	files   []string
	parse   ParseFunc[T]
	workers int
	logger  *slog.Logger
}

// NewFileExtractor creates an extractor for files relative to root.
func NewFileExtractor[T items.Item](root string, files []string, parse ParseFunc[T], logger *slog.Logger) *FileExtractor[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExtractor[T]{
		root:    root,
		files:   files,
		parse:   parse,
		workers: runtime.NumCPU(),
		logger:  logger,
	}
}

// Sources returns the designated files.
func (e *FileExtractor[T]) Sources() []string { return e.files }

// Extract parses every designated file. Missing files are skipped with a
// warning; if all are missing ErrNoSources is returned.
func (e *FileExtractor[T]) Extract(ctx context.Context) ([]T, error) {
	results := make([][]T, len(e.files))
	found := make([]bool, len(e.files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, rel := range e.files {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(e.root, rel))
			if err != nil {
				if os.IsNotExist(err) {
					e.logger.Warn("extract.source.missing", "root", e.root, "path", rel)
					return nil
				}
				return fmt.Errorf("read %s: %w", rel, err)
			}
			found[i] = true

			out, err := e.parse(gctx, data, rel)
			if err != nil {
				return fmt.Errorf("parse %s: %w", rel, err)
			}
			e.logger.Debug("extract.source.parsed", "path", rel, "items", len(out))
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !slices.Contains(found, true) {
		return nil, fmt.Errorf("%w under %s", ErrNoSources, e.root)
	}

	var out []T
	seen := make(map[string]struct{})
	for i, list := range results {
		for _, it := range list {
			if _, dup := seen[it.Key()]; dup {
				e.logger.Debug("extract.item.duplicate", "key", it.Key(), "path", e.files[i])
				continue
			}
			seen[it.Key()] = struct{}{}
			out = append(out, it)
		}
	}
	e.logger.Info("extract.complete", "root", e.root, "files", len(e.files), "items", len(out))
	return out, nil
}

// NewBEConfigExtractor parses the CONF_ macros of the BE config sources.
func NewBEConfigExtractor(root string, logger *slog.Logger) *FileExtractor[*items.ConfigItem] {
	parse := func(_ context.Context, content []byte, path string) ([]*items.ConfigItem, error) {
		return ParseBEConfig(content, path), nil
	}
	return NewFileExtractor(root, BEConfigSources, parse, logger)
}

// NewFEConfigExtractor parses the @ConfField fields of the FE config class.
func NewFEConfigExtractor(root string, logger *slog.Logger) *FileExtractor[*items.ConfigItem] {
	return NewFileExtractor(root, FEConfigSources, NewFEConfigParser(logger).Parse, logger)
}

// NewVariablesExtractor parses the session and global variable classes.
func NewVariablesExtractor(root string, logger *slog.Logger) *FileExtractor[*items.VariableItem] {
	parse := func(_ context.Context, content []byte, path string) ([]*items.VariableItem, error) {
		return ParseVariables(content, path), nil
	}
	return NewFileExtractor(root, VariableSources, parse, logger)
}

// NewFunctionsExtractor parses the vectorized function table.
func NewFunctionsExtractor(root string, logger *slog.Logger) *FileExtractor[*items.FunctionItem] {
	parse := func(_ context.Context, content []byte, _ string) ([]*items.FunctionItem, error) {
		return ParseFunctions(content), nil
	}
	return NewFileExtractor(root, FunctionSources, parse, logger)
}
