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

// DisplayVersions projects an item's raw branch -> first-tag record into the
// ordered list of tags shown in documentation.
//
// Only branches in win (ascending) are considered. A branch is omitted when
// the item was first seen at that branch's first retained tag and the
// previous window branch also has a record for the item: the item was carried
// forward rather than introduced there. A run of such branches collapses to
// its earliest member. firstTags maps branch -> first retained tag.
func DisplayVersions(record map[string]string, win []string, firstTags map[string]string) []string {
	out := make([]string, 0, len(record))
	for i, branch := range win {
		tag, ok := record[branch]
		if !ok {
			continue
		}
		if i > 0 && isBaseline(tag, firstTags[branch]) {
			if _, prev := record[win[i-1]]; prev {
				continue
			}
		}
		out = append(out, tag)
	}
	return out
}

func isBaseline(tag, first string) bool {
	return first != "" && CompareTags(tag, first) == 0
}

// project applies DisplayVersions to every requested item. Unknown items map
// to an empty slice.
func project(c *Cache, items []string, win []string) map[string][]string {
	firstTags := c.FirstTags()
	out := make(map[string][]string, len(items))
	for _, name := range items {
		record, ok := c.Versions[name]
		if !ok {
			out[name] = []string{}
			continue
		}
		out[name] = DisplayVersions(record, win, firstTags)
	}
	return out
}
