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

package versiontrack

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// releaseTagPattern matches plain release tags. Pre-release and suffixed tags
// ("3.3.0-rc1", "3.3.0-hotfix") are not release markers.
var releaseTagPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// ParseReleaseTag reports the major.minor branch a release tag belongs to.
func ParseReleaseTag(tag string) (branch string, ok bool) {
	m := releaseTagPattern.FindStringSubmatch(strings.TrimSpace(tag))
	if m == nil {
		return "", false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%d.%d", major, minor), true
}

// BranchOf returns the branch of tag, or "" when tag is not a release tag.
func BranchOf(tag string) string {
	b, _ := ParseReleaseTag(tag)
	return b
}

func canonical(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}

// CompareTags orders two release tags by semantic version. Tags with and
// without the "v" prefix compare equal when their versions match.
func CompareTags(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// CompareBranches orders two major.minor branch names numerically.
func CompareBranches(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// SortTags sorts release tags ascending in place.
func SortTags(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool {
		return CompareTags(tags[i], tags[j]) < 0
	})
}

// SortBranches sorts branch names ascending in place.
func SortBranches(branches []string) {
	sort.SliceStable(branches, func(i, j int) bool {
		return CompareBranches(branches[i], branches[j]) < 0
	})
}

// GroupByBranch groups release tags by branch, each group sorted ascending.
// Non-release tags are dropped. When the same version is tagged twice (with
// and without the "v" prefix) only the first listed spelling is kept.
func GroupByBranch(tags []string) map[string][]string {
	groups := make(map[string][]string)
	seen := make(map[string]bool)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		branch, ok := ParseReleaseTag(tag)
		if !ok {
			continue
		}
		key := canonical(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		groups[branch] = append(groups[branch], tag)
	}
	for _, list := range groups {
		SortTags(list)
	}
	return groups
}

// RecentBranches returns the n most recent branches found in tags, ascending.
// n <= 0 returns every branch.
func RecentBranches(tags []string, n int) []string {
	groups := GroupByBranch(tags)
	branches := make([]string, 0, len(groups))
	for b := range groups {
		branches = append(branches, b)
	}
	SortBranches(branches)
	if n > 0 && len(branches) > n {
		branches = branches[len(branches)-n:]
	}
	return branches
}

// DiscoverBranches lists the repository's tags and returns the n most recent
// release branches.
func DiscoverBranches(ctx context.Context, repo Repository, n int) ([]string, error) {
	tags, err := repo.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tags: %v", ErrRepositoryUnavailable, err)
	}
	branches := RecentBranches(tags, n)
	if len(branches) == 0 {
		return nil, fmt.Errorf("%w: repository has no release tags", ErrInvalidBranchSpec)
	}
	return branches, nil
}

// window normalises a branch list: deduplicated, ascending, and capped to the
// size most recent entries when size > 0.
func window(branches []string, size int) []string {
	seen := make(map[string]bool, len(branches))
	out := make([]string, 0, len(branches))
	for _, b := range branches {
		b = strings.TrimPrefix(strings.TrimSpace(b), "v")
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	SortBranches(out)
	if size > 0 && len(out) > size {
		out = out[len(out)-size:]
	}
	return out
}
