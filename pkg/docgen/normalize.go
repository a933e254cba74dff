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

package docgen

import (
	"regexp"
	"strings"
)

const frontmatter = "---\ndisplayed_sidebar: docs\n---\n\n"

var (
	headingPattern    = regexp.MustCompile(`^#{1,6}\s+\S`)
	introducedPattern = regexp.MustCompile(`(?m)^(\s*[-*]\s*(?:\*\*)?(?:Introduced in|引入版本|導入バージョン)(?:\*\*)?\s*[:：]\s*).*$`)
	keywordPattern    = regexp.MustCompile(`(?m)^##\s+keyword\s*$`)
)

// cleanOutput strips what models wrap around a document: code fences around
// the whole reply and "// document start/end" marker lines.
func cleanOutput(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	kept := lines[:0]
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "// document start") || strings.HasPrefix(t, "// document end") {
			continue
		}
		kept = append(kept, l)
	}
	text := strings.TrimSpace(strings.Join(kept, "\n"))
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") && len(text) > 6 {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = strings.TrimSpace(strings.TrimSuffix(text[nl+1:], "```"))
		}
	}
	return text
}

// normalizeHeading makes doc start with a heading of the given level whose
// text is title. An existing leading heading is replaced; otherwise one is
// prepended. Empty input stays empty.
func normalizeHeading(doc string, level int, title string) string {
	doc = cleanOutput(doc)
	if doc == "" {
		return ""
	}
	heading := strings.Repeat("#", level) + " " + title
	first, rest, _ := strings.Cut(doc, "\n")
	if headingPattern.MatchString(first) {
		return heading + "\n\n" + strings.TrimSpace(rest)
	}
	return heading + "\n\n" + doc
}

// normalizeFunctionDoc gives a function page the sidebar frontmatter, an H1
// with the function name and a keyword section.
func normalizeFunctionDoc(doc, name string) string {
	doc = cleanOutput(doc)
	if strings.HasPrefix(doc, "---") {
		if end := strings.Index(doc[3:], "\n---"); end >= 0 {
			doc = strings.TrimSpace(doc[3+end+4:])
		}
	}
	if doc == "" {
		return ""
	}
	doc = normalizeHeading(doc, 1, name)
	if !keywordPattern.MatchString(doc) {
		doc += "\n\n## keyword\n\n" + strings.ToUpper(name)
	}
	return frontmatter + doc
}

// SetIntroducedIn rewrites the "Introduced in" property of doc, in any of the
// supported languages, to the given versions. Documents without the property
// are returned unchanged.
func SetIntroducedIn(doc string, versions []string) string {
	if len(versions) == 0 {
		return doc
	}
	value := introducedIn(versions)
	return introducedPattern.ReplaceAllStringFunc(doc, func(line string) string {
		m := introducedPattern.FindStringSubmatch(line)
		return m[1] + value
	})
}
