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

package persist

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kraklabs/docsagent/pkg/items"
)

// Options is shared by the domain persisters.
type Options struct {
	OutputDir string    // generated files, one directory per language
	ModuleDir string    // per-language document templates
	DryRun    bool      // print diffs instead of writing
	DiffOut   io.Writer // dry-run diff destination
	Colour    bool
}

// Mapping pairs generated files (absolute paths) with their location in the
// target repository.
type Mapping map[string]string

func (o Options) writer(logger *slog.Logger) *Writer {
	w := NewWriter(o.DryRun, o.DiffOut, logger)
	w.Colour = o.Colour
	return w
}

// template returns the template for file in lang, or "" when there is none.
func (o Options) template(lang, file string, logger *slog.Logger) (string, error) {
	if o.ModuleDir == "" {
		return "", nil
	}
	path := filepath.Join(o.ModuleDir, lang, file)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("persist.template.missing", "path", path)
			return "", nil
		}
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}

// render substitutes vars into the template, or returns fallback when no
// template exists.
func (o Options) render(lang, file string, vars map[string]string, fallback string, logger *slog.Logger) (string, error) {
	tmpl, err := o.template(lang, file, logger)
	if err != nil {
		return "", err
	}
	if tmpl == "" {
		return fallback, nil
	}
	return Substitute(tmpl, vars), nil
}

// singleFileMapping maps <out>/<lang>/<file> to <prefix>/<lang>/<dir>/<file>
// for every language whose output exists.
func (o Options) singleFileMapping(langs []string, file, dir string) Mapping {
	m := make(Mapping)
	for _, lang := range langs {
		src := filepath.Join(o.OutputDir, lang, file)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		m[src] = filepath.ToSlash(filepath.Join("docs", lang, dir, file))
	}
	return m
}

// ConfigPersister writes FE_configuration.md or BE_configuration.md: items
// grouped under catalog headings in canonical order, substituted into the
// template as $outputs.
type ConfigPersister struct {
	opts   Options
	file   string
	logger *slog.Logger
}

func NewConfigPersister(opts Options, file string, logger *slog.Logger) *ConfigPersister {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigPersister{opts: opts, file: file, logger: logger}
}

func (p *ConfigPersister) Persist(ctx context.Context, list []*items.ConfigItem, langs []string) (*Report, error) {
	byCatalog := make(map[string][]*items.ConfigItem)
	for _, it := range list {
		c := it.CatalogName()
		if !items.IsCatalog(c) {
			c = items.DefaultCatalog
		}
		byCatalog[c] = append(byCatalog[c], it)
	}
	for _, group := range byCatalog {
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
	}

	w := p.opts.writer(p.logger)
	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var body strings.Builder
		for _, catalog := range items.Catalogs {
			group := byCatalog[catalog]
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&body, "### %s\n\n", items.CatalogTitle(catalog, lang))
			for _, it := range group {
				doc := it.Doc(lang)
				if doc == "" {
					p.logger.Warn("persist.doc.missing", "item", it.Name, "lang", lang)
					continue
				}
				body.WriteString(doc + "\n\n")
			}
		}
		content, err := p.opts.render(lang, p.file, map[string]string{"outputs": body.String()}, body.String(), p.logger)
		if err != nil {
			return nil, err
		}
		if err := w.Write(filepath.Join(p.opts.OutputDir, lang, p.file), []byte(content)); err != nil {
			return nil, err
		}
	}
	return w.Report(), nil
}

// Mapping targets docs/<lang>/administration/management/<file>.
func (p *ConfigPersister) Mapping(langs []string) (Mapping, error) {
	return p.opts.singleFileMapping(langs, p.file, "administration/management"), nil
}

// VariablesPersister writes System_variable.md. The template receives the
// global variable index as $global_variables_list and the documents as
// $variables_lists. Invisible variables are not published.
type VariablesPersister struct {
	opts   Options
	logger *slog.Logger
}

// VariablesFile is the published variables document.
const VariablesFile = "System_variable.md"

func NewVariablesPersister(opts Options, logger *slog.Logger) *VariablesPersister {
	if logger == nil {
		logger = slog.Default()
	}
	return &VariablesPersister{opts: opts, logger: logger}
}

func (p *VariablesPersister) Persist(ctx context.Context, list []*items.VariableItem, langs []string) (*Report, error) {
	visible := make([]*items.VariableItem, 0, len(list))
	for _, v := range list {
		if !v.Invisible {
			visible = append(visible, v)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].VersionKey() < visible[j].VersionKey() })

	var globals strings.Builder
	for _, v := range visible {
		if strings.EqualFold(v.Scope, "global") {
			fmt.Fprintf(&globals, "* %s\n", v.VersionKey())
		}
	}

	w := p.opts.writer(p.logger)
	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var body strings.Builder
		for _, v := range visible {
			if doc := v.Doc(lang); doc != "" {
				body.WriteString(doc + "\n\n")
			}
		}
		vars := map[string]string{
			"global_variables_list": globals.String(),
			"variables_lists":       body.String(),
		}
		content, err := p.opts.render(lang, VariablesFile, vars, body.String(), p.logger)
		if err != nil {
			return nil, err
		}
		if err := w.Write(filepath.Join(p.opts.OutputDir, lang, VariablesFile), []byte(content)); err != nil {
			return nil, err
		}
	}
	return w.Report(), nil
}

// Mapping targets docs/<lang>/sql-reference/System_variable.md.
func (p *VariablesPersister) Mapping(langs []string) (Mapping, error) {
	return p.opts.singleFileMapping(langs, VariablesFile, "sql-reference"), nil
}

// FunctionsPersister writes one page per function at
// <out>/<lang>/functions/<catalog>/<name>.md. Functions without a catalog are
// skipped.
type FunctionsPersister struct {
	opts   Options
	logger *slog.Logger
}

func NewFunctionsPersister(opts Options, logger *slog.Logger) *FunctionsPersister {
	if logger == nil {
		logger = slog.Default()
	}
	return &FunctionsPersister{opts: opts, logger: logger}
}

func (p *FunctionsPersister) Persist(ctx context.Context, list []*items.FunctionItem, langs []string) (*Report, error) {
	w := p.opts.writer(p.logger)
	for _, it := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		catalog := it.CatalogName()
		if catalog == "" {
			p.logger.Warn("persist.function.no_catalog", "item", it.Name)
			w.Skip(it.Name)
			continue
		}
		for _, lang := range langs {
			doc := it.Doc(lang)
			if doc == "" {
				continue
			}
			path := filepath.Join(p.opts.OutputDir, lang, "functions", catalog, it.Name+".md")
			if err := w.Write(path, []byte(doc+"\n")); err != nil {
				return nil, err
			}
		}
	}
	return w.Report(), nil
}

// Mapping targets docs/<lang>/sql-reference/sql-functions/<catalog>/<name>.md
// for every generated page.
func (p *FunctionsPersister) Mapping(langs []string) (Mapping, error) {
	m := make(Mapping)
	for _, lang := range langs {
		root := filepath.Join(p.opts.OutputDir, lang, "functions")
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == root {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".md" {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			m[path] = filepath.ToSlash(filepath.Join("docs", lang, "sql-reference", "sql-functions", rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("map function pages: %w", err)
		}
	}
	return m, nil
}
