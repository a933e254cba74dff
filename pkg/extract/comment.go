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

import "strings"

// precedingComment returns the comment that ends right before offset: a
// block or doc comment, or a run of consecutive line comments. A blank line
// between the comment and offset detaches it.
func precedingComment(content string, offset int) string {
	before := strings.TrimRight(content[:offset], " \t\r\n")

	if strings.HasSuffix(before, "*/") {
		if start := strings.LastIndex(before, "/*"); start >= 0 {
			return cleanBlockComment(before[start+2 : len(before)-2])
		}
	}

	var lines []string
	for {
		i := strings.LastIndexByte(before, '\n')
		line := strings.TrimSpace(before[i+1:])
		if !strings.HasPrefix(line, "//") {
			break
		}
		if text := strings.TrimSpace(strings.TrimLeft(line, "/")); text != "" {
			lines = append(lines, text)
		}
		if i < 0 {
			break
		}
		before = strings.TrimRight(before[:i], " \t\r")
	}
	for l, r := 0, len(lines)-1; l < r; l, r = l+1, r-1 {
		lines[l], lines[r] = lines[r], lines[l]
	}
	return strings.Join(lines, " ")
}

// cleanBlockComment strips the leading '*' decoration of doc comments and
// joins the remaining lines.
func cleanBlockComment(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// lineAt returns the 1-based line number of offset.
func lineAt(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}

// unquote strips one pair of matching single or double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// collapseSpace folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
