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
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines shown around a change.
const contextLines = 3

// FileDiff is the line-level difference between two versions of a file.
type FileDiff struct {
	Path    string
	Added   int
	Removed int
	Text    string // unified-style body, lines prefixed "+ ", "- " or "  "
}

// Changed reports whether any line differs.
func (d FileDiff) Changed() bool { return d.Added > 0 || d.Removed > 0 }

// ComputeDiff compares two file contents line by line.
func ComputeDiff(path, oldContent, newContent string) FileDiff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	fd := FileDiff{Path: path}
	var sb strings.Builder
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if d.Text == "" {
			continue
		}
		split := strings.Split(text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fd.Removed += len(split)
			writeLines(&sb, "- ", split)
		case diffmatchpatch.DiffInsert:
			fd.Added += len(split)
			writeLines(&sb, "+ ", split)
		case diffmatchpatch.DiffEqual:
			if len(split) > 2*contextLines {
				writeLines(&sb, "  ", split[:contextLines])
				sb.WriteString("  ...\n")
				writeLines(&sb, "  ", split[len(split)-contextLines:])
			} else {
				writeLines(&sb, "  ", split)
			}
		}
	}
	fd.Text = sb.String()
	return fd
}

func writeLines(sb *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		sb.WriteString(prefix + l + "\n")
	}
}

// Format returns the diff with a header, coloured when colour is set.
func (d FileDiff) Format(colour bool) string {
	header := fmt.Sprintf("--- %s\n+++ %s (+%d -%d)\n", d.Path, d.Path, d.Added, d.Removed)
	if !colour {
		return header + d.Text
	}
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	var sb strings.Builder
	sb.WriteString(color.New(color.Bold).Sprint(header))
	for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "- "):
			sb.WriteString(red(line))
		case strings.HasPrefix(line, "+ "):
			sb.WriteString(green(line))
		default:
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
