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

// Package docsimport reads the published reference pages (configuration,
// system variables, SQL functions) and turns them into items, so existing
// hand-written documentation seeds the meta store instead of being
// regenerated.
package docsimport

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kraklabs/docsagent/pkg/items"
)

// ErrPrimaryMissing is returned when the English page, which carries the
// item metadata, does not exist.
var ErrPrimaryMissing = errors.New("english reference page not found")

// Languages are imported in this order; English is the primary source.
var Languages = []string{items.LangEN, items.LangJA, items.LangZH}

var (
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	headingPattern     = regexp.MustCompile(`^(#{2,5})\s+(.+?)\s*#*\s*$`)
	propertyPattern    = regexp.MustCompile(`^[-*]\s+(?:\*\*|__)?([^*_:：]+?)(?:\*\*|__)?\s*[:：]\s*(.*)$`)
)

// ConfigDocPath returns the page of scope ("FE" or "BE") relative to a
// language directory.
func ConfigDocPath(scope string) string {
	return filepath.Join("administration", "management", scope+"_configuration.md")
}

func sectionPatterns(scope string) []*regexp.Regexp {
	s := regexp.QuoteMeta(scope)
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)^##\s+Understand\s+` + s + `\s+parameters?\s*$`),
		regexp.MustCompile(`(?i)^##\s+` + s + `\s+parameter.*description.*$`),
		regexp.MustCompile(`^##\s+` + s + `\s+参数描述\s*$`),
		regexp.MustCompile(`^##\s+` + s + `\s+.*パラメータ.*説明.*$`),
	}
}

// Importer reads pages under docsDir/<lang>/.
type Importer struct {
	docsDir string
	logger  *slog.Logger
}

// New creates an importer for the docs tree at docsDir.
func New(docsDir string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{docsDir: docsDir, logger: logger}
}

// ImportConfig reads the scope page in every language and aggregates it:
// metadata comes from the English page, documents from each language.
func (im *Importer) ImportConfig(scope string) ([]*items.ConfigItem, error) {
	byLang := make(map[string]map[string]*items.ConfigItem)
	var primary []*items.ConfigItem

	for _, lang := range Languages {
		path := filepath.Join(im.docsDir, lang, ConfigDocPath(scope))
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				im.logger.Warn("docsimport.page.missing", "path", path)
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		parsed := ParseConfigDoc(string(data), lang, scope)
		if len(parsed) == 0 {
			im.logger.Warn("docsimport.page.empty", "path", path)
		}
		im.logger.Info("docsimport.page.parsed", "lang", lang, "scope", scope, "items", len(parsed))

		index := make(map[string]*items.ConfigItem, len(parsed))
		for _, it := range parsed {
			index[it.Name] = it
		}
		byLang[lang] = index
		if lang == items.LangEN {
			primary = parsed
		}
	}

	if _, ok := byLang[items.LangEN]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPrimaryMissing, filepath.Join(im.docsDir, items.LangEN, ConfigDocPath(scope)))
	}

	for _, it := range primary {
		for _, lang := range Languages {
			if lang == items.LangEN {
				continue
			}
			if other, ok := byLang[lang][it.Name]; ok {
				it.SetDoc(lang, other.Doc(lang))
			}
		}
	}
	return primary, nil
}

// ParseConfigDoc parses one language version of a configuration reference
// page. "###" headings are catalogs, "#####" headings are items, and the
// "- Key: value" bullets below an item are its properties.
func ParseConfigDoc(content, lang, scope string) []*items.ConfigItem {
	content = htmlCommentPattern.ReplaceAllString(content, "")
	lines := strings.Split(content, "\n")

	start := -1
	patterns := sectionPatterns(scope)
	for i, line := range lines {
		for _, p := range patterns {
			if p.MatchString(strings.TrimSpace(line)) {
				start = i + 1
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []*items.ConfigItem
	catalog := items.DefaultCatalog
	var name string
	var block []string

	flush := func() {
		if name != "" {
			if it := parseConfigBlock(name, strings.Join(block, "\n"), lang, scope, catalog); it != nil {
				out = append(out, it)
			}
		}
		name, block = "", nil
	}

	for _, line := range lines[start:] {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			if name != "" {
				block = append(block, line)
			}
			continue
		}

		flush()
		switch len(m[1]) {
		case 2:
			return out
		case 3:
			catalog = items.NormalizeCatalog(m[2])
			if catalog == "" {
				catalog = items.DefaultCatalog
			}
		case 5:
			name = strings.Trim(strings.TrimSpace(m[2]), "`")
		}
	}
	flush()
	return out
}

func parseConfigBlock(name, block, lang, scope, catalog string) *items.ConfigItem {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil
	}
	props := properties(block)

	description := first(props, "Description", "描述", "说明", "説明")
	unit := first(props, "Unit", "单位", "単位")
	comment := description
	if unit != "" && unit != "-" {
		comment = strings.TrimSpace(description + " Unit: " + unit)
	}

	typ := first(props, "Type", "类型", "タイプ", "型")
	if typ == "" {
		typ = "String"
	}

	it := &items.ConfigItem{
		Name:         name,
		Type:         typ,
		DefaultValue: first(props, "Default", "默认值", "デフォルト", "デフォルト値"),
		Comment:      comment,
		IsMutable:    mutable(props),
		Scope:        scope,
	}
	it.Catalog = catalog
	it.SetDoc(lang, "##### "+name+"\n\n"+block)

	introduced := first(props, "Introduced in", "引入版本", "導入バージョン")
	if introduced != "" && introduced != "-" {
		it.SetVersions(splitVersions(introduced))
	} else {
		it.SetVersions(nil)
	}
	return it
}

// properties reads "- Key: value" bullets. Indented continuation lines are
// folded into the previous value.
func properties(block string) map[string]string {
	props := make(map[string]string)
	var last string
	scanner := bufio.NewScanner(strings.NewReader(block))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			last = ""
			continue
		}
		if m := propertyPattern.FindStringSubmatch(line); m != nil {
			last = strings.TrimSpace(m[1])
			props[last] = strings.TrimSpace(m[2])
			continue
		}
		if last != "" && !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
			props[last] = strings.TrimSpace(props[last] + " " + line)
		}
	}
	return props
}

func first(props map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := props[k]; v != "" {
			return v
		}
	}
	return ""
}

func mutable(props map[string]string) string {
	for _, key := range []string{"Is mutable", "Is dynamic", "是否可变", "是否动态", "Dynamic", "ダイナミック", "動的", "可変", "Mutable"} {
		v, ok := props[key]
		if !ok {
			continue
		}
		v = strings.ToLower(v)
		for _, yes := range []string{"yes", "是", "true", "はい"} {
			if strings.Contains(v, yes) {
				return "true"
			}
		}
		return "false"
	}
	return "false"
}

// splitVersions splits "v3.2.0, v3.1.5" into its versions, dropping a
// leading "v".
func splitVersions(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' || r == ' ' }) {
		part = strings.TrimPrefix(strings.TrimSpace(part), "v")
		if part != "" && part != "-" {
			out = append(out, part)
		}
	}
	return out
}

// Seedable is an item whose catalog can be replaced by an imported one.
type Seedable interface {
	items.Item
	SetCatalog(string)
}

// Seed merges imported items into existing meta, matching them by version
// key. Imported documents fill the languages they cover, catalogs replace an
// empty or default catalog, and versions fill empty version lists. Imported
// items unknown to meta are appended.
func Seed[T Seedable](existing, imported []T) []T {
	index := make(map[string]T, len(existing))
	for _, it := range existing {
		index[it.VersionKey()] = it
	}

	out := existing
	for _, imp := range imported {
		cur, ok := index[imp.VersionKey()]
		if !ok {
			out = append(out, imp)
			index[imp.VersionKey()] = imp
			continue
		}
		for lang, doc := range imp.Docs() {
			cur.SetDoc(lang, doc)
		}
		if c := imp.CatalogName(); c != "" && c != items.DefaultCatalog {
			if cc := cur.CatalogName(); cc == "" || cc == items.DefaultCatalog {
				cur.SetCatalog(c)
			}
		}
		if len(cur.Versions()) == 0 && len(imp.Versions()) > 0 {
			cur.SetVersions(imp.Versions())
		}
	}
	return out
}
