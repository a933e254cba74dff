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

package gitrepo

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
)

// Change is one entry of `git status --porcelain`.
type Change struct {
	// Status is the two-letter porcelain code, e.g. " M", "A ", "??".
	Status string
	Path   string
	// OldPath is set for renames.
	OldPath string
}

// Staged reports whether the change is in the index.
func (c Change) Staged() bool {
	return c.Status != "" && c.Status[0] != ' ' && c.Status[0] != '?'
}

// Status lists working tree changes, optionally limited to paths. Untracked
// files are listed individually. Entries are sorted by path.
func (r *Repo) Status(ctx context.Context, paths ...string) ([]Change, error) {
	args := []string{"status", "--porcelain", "--untracked-files=all"}
	if len(paths) > 0 {
		args = append(append(args, "--"), paths...)
	}
	output, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var changes []Change
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if c, ok := parseStatusLine(scanner.Text()); ok {
			changes = append(changes, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse git status: %w", err)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// StagedFiles returns the paths currently staged for commit.
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	changes, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range changes {
		if c.Staged() {
			out = append(out, c.Path)
		}
	}
	return out, nil
}

// parseStatusLine parses "XY path" or "XY old -> new".
func parseStatusLine(line string) (Change, bool) {
	if len(line) < 4 {
		return Change{}, false
	}
	c := Change{Status: line[:2]}
	rest := line[3:]
	if old, newPath, ok := strings.Cut(rest, " -> "); ok {
		c.OldPath = unquoteGitPath(old)
		rest = newPath
	}
	c.Path = unquoteGitPath(rest)
	return c, true
}

// unquoteGitPath removes quotes and handles escape sequences from git paths.
func unquoteGitPath(path string) string {
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		unquoted := path[1 : len(path)-1]
		unquoted = strings.ReplaceAll(unquoted, "\\n", "\n")
		unquoted = strings.ReplaceAll(unquoted, "\\t", "\t")
		unquoted = strings.ReplaceAll(unquoted, "\\\"", "\"")
		unquoted = strings.ReplaceAll(unquoted, "\\\\", "\\")
		return unquoted
	}
	return path
}
