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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReleaseTag(t *testing.T) {
	tests := []struct {
		tag    string
		branch string
		ok     bool
	}{
		{"3.2.0", "3.2", true},
		{"v3.2.10", "3.2", true},
		{" 4.0.1 ", "4.0", true},
		{"3.2.0-rc1", "", false},
		{"3.2", "", false},
		{"release-3.2.0", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			branch, ok := ParseReleaseTag(tt.tag)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.branch, branch)
		})
	}
}

func TestCompareTagsAndBranches(t *testing.T) {
	assert.Negative(t, CompareTags("3.2.9", "3.2.10"))
	assert.Zero(t, CompareTags("v3.2.1", "3.2.1"))
	assert.Positive(t, CompareTags("3.3.0", "v3.2.15"))

	assert.Negative(t, CompareBranches("3.9", "3.10"))
	assert.Positive(t, CompareBranches("4.0", "3.5"))
}

func TestGroupByBranch(t *testing.T) {
	tags := []string{"3.3.10", "v3.3.2", "3.2.1", "3.3.0", "nightly", "3.2.0", "v3.2.1", "3.3.1-rc"}
	got := GroupByBranch(tags)

	assert.Equal(t, map[string][]string{
		"3.2": {"3.2.0", "3.2.1"},
		"3.3": {"3.3.0", "v3.3.2", "3.3.10"},
	}, got)
}

func TestRecentBranches(t *testing.T) {
	tags := []string{"3.0.0", "3.1.0", "3.2.0", "3.10.0", "3.9.0", "4.0.0"}

	assert.Equal(t, []string{"3.9", "3.10", "4.0"}, RecentBranches(tags, 3))
	assert.Len(t, RecentBranches(tags, 0), 6)
	assert.Empty(t, RecentBranches([]string{"foo"}, 5))
}

func TestWindow(t *testing.T) {
	assert.Equal(t, []string{"3.3", "3.4"}, window([]string{"3.4", "v3.3", "3.4", " "}, 0))
	assert.Equal(t, []string{"3.4", "3.5"}, window([]string{"3.2", "3.3", "3.4", "3.5"}, 2))
}
