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

package docsimport

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kraklabs/docsagent/pkg/items"
)

// FunctionsDocDir is the SQL function reference relative to a language
// directory. Each category is a subdirectory holding one page per function.
var FunctionsDocDir = filepath.Join("sql-reference", "sql-functions")

var (
	syntaxHeadingPattern = regexp.MustCompile(`(?i)^##\s+(Syntax|语法|文法)\s*$`)
	titlePattern         = regexp.MustCompile(`^#\s+(.+?)\s*$`)
	aliasCleanPattern    = regexp.MustCompile(`[^\w]`)
)

var functionVersionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`从\s*[vV]?(\d+\.\d+(?:\.\d+)?)\s*版本开始`),
	regexp.MustCompile(`[Ss]ince\s+[vV]?(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`[Ii]ntroduced\s+in\s+[vV]?(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`[vV]?(\d+\.\d+(?:\.\d+)?)\s*から`),
}

// ImportFunctions reads every function page under
// docsDir/<lang>/sql-reference/sql-functions/<category>/. The category
// directory is the catalog. Metadata comes from the English pages, or from
// the first language that has any when English is absent.
func (im *Importer) ImportFunctions() ([]*items.FunctionItem, error) {
	byLang := make(map[string]map[string]*items.FunctionItem)
	var primary []*items.FunctionItem

	for _, lang := range Languages {
		parsed, err := im.functionPages(lang)
		if err != nil {
			return nil, err
		}
		if parsed == nil {
			continue
		}
		im.logger.Info("docsimport.page.parsed", "lang", lang, "domain", "functions", "items", len(parsed))

		index := make(map[string]*items.FunctionItem, len(parsed))
		for _, it := range parsed {
			index[it.Name] = it
		}
		byLang[lang] = index
		if primary == nil || lang == items.LangEN {
			primary = parsed
		}
	}

	if len(byLang) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPrimaryMissing, filepath.Join(im.docsDir, items.LangEN, FunctionsDocDir))
	}
	if _, ok := byLang[items.LangEN]; !ok {
		im.logger.Warn("docsimport.functions.no_english", "dir", im.docsDir)
	}

	for _, it := range primary {
		for _, lang := range Languages {
			if other, ok := byLang[lang][it.Name]; ok && other != it {
				it.SetDoc(lang, other.Doc(lang))
			}
		}
	}
	return primary, nil
}

// functionPages parses the pages of one language. It returns nil without an
// error when the language has no function reference.
func (im *Importer) functionPages(lang string) ([]*items.FunctionItem, error) {
	root := filepath.Join(im.docsDir, lang, FunctionsDocDir)
	categories, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			im.logger.Warn("docsimport.page.missing", "path", root)
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	out := []*items.FunctionItem{}
	for _, cat := range categories {
		if !cat.IsDir() {
			continue
		}
		dir := filepath.Join(root, cat.Name())
		pages, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, page := range pages {
			name := page.Name()
			if page.IsDir() || filepath.Ext(name) != ".md" {
				continue
			}
			if upper := strings.ToUpper(name); upper == "README.MD" || upper == "INDEX.MD" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			out = append(out, ParseFunctionDoc(string(data), lang, cat.Name(), strings.TrimSuffix(name, ".md")))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ParseFunctionDoc turns one function page into an item. Parsing is best
// effort: the whole page is kept as the document even when no signature,
// alias or version can be found.
func ParseFunctionDoc(content, lang, category, name string) *items.FunctionItem {
	it := &items.FunctionItem{
		Name:      name,
		Alias:     functionAliases(content, name),
		Signature: functionSignatures(content),
		Module:    functionModule(category),
	}
	it.Catalog = items.NormalizeFunctionCatalog(category)
	if it.Catalog == "" {
		it.Catalog = category
	}
	it.SetDoc(lang, strings.TrimSpace(content))
	it.SetVersions(functionVersions(content))
	return it
}

func functionModule(category string) string {
	switch {
	case strings.Contains(category, "aggregate"):
		return "Aggregate"
	case strings.Contains(category, "window"):
		return "Window"
	case strings.Contains(category, "table"):
		return "Table"
	}
	return "Scalar"
}

// functionSignatures returns the lines of the code blocks in the Syntax
// section.
func functionSignatures(content string) []string {
	var out []string
	inSection, inFence := false, false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inSection {
			inSection = syntaxHeadingPattern.MatchString(trimmed)
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			if trimmed != "" {
				out = append(out, trimmed)
			}
			continue
		}
		if strings.HasPrefix(trimmed, "## ") {
			break
		}
	}
	return out
}

// functionAliases reads a title such as "# pow, power, dpow" and returns the
// names other than primary.
func functionAliases(content, primary string) []string {
	var out []string
	lines := strings.Split(content, "\n")
	for _, line := range lines[:min(20, len(lines))] {
		m := titlePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		names := strings.Split(m[1], ",")
		if len(names) < 2 {
			return nil
		}
		for _, n := range names {
			n = strings.TrimSpace(n)
			clean := strings.ToLower(aliasCleanPattern.ReplaceAllString(n, ""))
			if clean == "" || clean == strings.ToLower(primary) {
				continue
			}
			out = appendUnique(out, n)
		}
		return out
	}
	return nil
}

// functionVersions collects "Since v3.0", "从 2.4 版本开始" and similar
// mentions, without the leading "v".
func functionVersions(content string) []string {
	var out []string
	for _, p := range functionVersionPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			out = appendUnique(out, m[1])
		}
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
