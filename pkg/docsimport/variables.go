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
	"strings"

	"github.com/kraklabs/docsagent/pkg/items"
)

// VariablesDocPath is the system variables page relative to a language
// directory.
var VariablesDocPath = filepath.Join("sql-reference", "System_variable.md")

var variableSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^##\s+Descriptions of variables\s*$`),
	regexp.MustCompile(`^##\s+変数の説明\s*$`),
	regexp.MustCompile(`^##\s+支持的变量\s*$`),
}

var variableNamePattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\s*(?:[(（]\s*(?i:(global|session|全局|会话|グローバル|セッション))\s*[)）])?`)

// ImportVariables reads System_variable.md in every language. Metadata comes
// from the English page; documents come from each language.
func (im *Importer) ImportVariables() ([]*items.VariableItem, error) {
	byLang := make(map[string]map[string]*items.VariableItem)
	var primary []*items.VariableItem

	for _, lang := range Languages {
		path := filepath.Join(im.docsDir, lang, VariablesDocPath)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				im.logger.Warn("docsimport.page.missing", "path", path)
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		parsed := ParseVariablesDoc(string(data), lang)
		if len(parsed) == 0 {
			im.logger.Warn("docsimport.page.empty", "path", path)
		}
		im.logger.Info("docsimport.page.parsed", "lang", lang, "domain", "variables", "items", len(parsed))

		index := make(map[string]*items.VariableItem, len(parsed))
		for _, it := range parsed {
			index[it.Name] = it
		}
		byLang[lang] = index
		if lang == items.LangEN {
			primary = parsed
		}
	}

	if _, ok := byLang[items.LangEN]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPrimaryMissing, filepath.Join(im.docsDir, items.LangEN, VariablesDocPath))
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

// ParseVariablesDoc parses one language version of System_variable.md. Each
// "###" heading below the variables section is a variable, optionally
// followed by its scope in parentheses.
func ParseVariablesDoc(content, lang string) []*items.VariableItem {
	content = htmlCommentPattern.ReplaceAllString(content, "")
	lines := strings.Split(content, "\n")

	start := -1
	for i, line := range lines {
		for _, p := range variableSectionPatterns {
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

	var out []*items.VariableItem
	var heading string
	var block []string

	flush := func() {
		if heading != "" {
			if it := parseVariableBlock(heading, strings.Join(block, "\n"), lang); it != nil {
				out = append(out, it)
			}
		}
		heading, block = "", nil
	}

	for _, line := range lines[start:] {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil || len(m[1]) > 3 {
			if heading != "" {
				block = append(block, line)
			}
			continue
		}
		flush()
		if len(m[1]) == 2 {
			return out
		}
		heading = m[2]
	}
	flush()
	return out
}

func parseVariableBlock(heading, block, lang string) *items.VariableItem {
	heading = strings.TrimSpace(strings.ReplaceAll(heading, "`", ""))
	m := variableNamePattern.FindStringSubmatch(heading)
	if m == nil {
		return nil
	}
	name := m[1]
	scope := "Session"
	switch strings.ToLower(m[2]) {
	case "global", "全局", "グローバル":
		scope = "Global"
	}

	block = strings.TrimSpace(block)
	props := properties(block)
	description := first(props, "Description", "描述", "说明", "説明")
	unit := first(props, "Unit", "单位", "単位")
	comment := description
	if unit != "" && unit != "-" {
		comment = strings.TrimSpace(description + " Unit: " + unit)
	}
	typ := first(props, "Data type", "Type", "数据类型", "类型", "データ型", "タイプ")
	if typ == "" {
		typ = "String"
	}

	it := &items.VariableItem{
		Name:         name,
		Show:         name,
		Type:         typ,
		DefaultValue: first(props, "Default", "Default value", "默认值", "デフォルト値", "デフォルト"),
		Comment:      comment,
		Scope:        scope,
	}
	doc := "### " + heading
	if block != "" {
		doc += "\n\n" + block
	}
	it.SetDoc(lang, doc)
	it.SetVersions(splitVersions(first(props, "Introduced in", "引入版本", "導入バージョン")))
	return it
}
