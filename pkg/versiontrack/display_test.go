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

func TestDisplayVersions(t *testing.T) {
	win := []string{"3.0", "3.1", "3.2", "3.3"}
	first := map[string]string{"3.0": "3.0.0", "3.1": "3.1.0", "3.2": "3.2.0", "3.3": "3.3.0"}

	tests := []struct {
		name   string
		record map[string]string
		want   []string
	}{
		{
			name:   "present in every branch since baseline collapses to earliest",
			record: map[string]string{"3.0": "3.0.0", "3.1": "3.1.0", "3.2": "3.2.0", "3.3": "3.3.0"},
			want:   []string{"3.0.0"},
		},
		{
			name:   "backported to older branches hides carried-forward newest",
			record: map[string]string{"3.0": "3.0.11", "3.1": "3.1.1", "3.2": "3.2.5", "3.3": "3.3.0"},
			want:   []string{"3.0.11", "3.1.1", "3.2.5"},
		},
		{
			name:   "introduced mid-branch then carried forward",
			record: map[string]string{"3.2": "3.2.3", "3.3": "3.3.0"},
			want:   []string{"3.2.3"},
		},
		{
			name:   "single branch patch release",
			record: map[string]string{"3.3": "3.3.1"},
			want:   []string{"3.3.1"},
		},
		{
			name:   "baseline after a gap is reported",
			record: map[string]string{"3.0": "3.0.4", "3.2": "3.2.0"},
			want:   []string{"3.0.4", "3.2.0"},
		},
		{
			name:   "patch introduction on a newer branch is kept",
			record: map[string]string{"3.2": "3.2.0", "3.3": "3.3.2"},
			want:   []string{"3.2.0", "3.3.2"},
		},
		{
			name:   "empty record",
			record: map[string]string{},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayVersions(tt.record, win, first))
		})
	}
}

func TestDisplayVersions_OmitsCarriedForwardBranch(t *testing.T) {
	win := []string{"3.2", "3.3"}
	first := map[string]string{"3.2": "3.2.0", "3.3": "3.3.0"}

	got := DisplayVersions(map[string]string{"3.2": "3.2.4", "3.3": "3.3.0"}, win, first)

	assert.NotContains(t, got, "3.3.0")
}

func TestDisplayVersions_CollapsesConsecutiveBaselines(t *testing.T) {
	win := []string{"3.4", "3.5", "4.0"}
	first := map[string]string{"3.4": "3.4.0", "3.5": "3.5.0", "4.0": "4.0.0"}

	got := DisplayVersions(map[string]string{"3.5": "3.5.0", "4.0": "4.0.0"}, win, first)

	assert.Equal(t, []string{"3.5.0"}, got)
}

func TestDisplayVersions_LoneBaselineIsReported(t *testing.T) {
	win := []string{"3.2", "3.3"}
	first := map[string]string{"3.2": "3.2.0", "3.3": "3.3.0"}

	assert.Equal(t, []string{"3.3.0"}, DisplayVersions(map[string]string{"3.3": "3.3.0"}, win, first))
	assert.Equal(t, []string{"3.2.0"}, DisplayVersions(map[string]string{"3.2": "3.2.0"}, win, first))
	assert.Equal(t, []string{"3.3.0"}, DisplayVersions(map[string]string{"3.3": "3.3.0"}, []string{"3.3"}, first))
}

func TestDisplayVersions_WindowCap(t *testing.T) {
	all := []string{"3.0", "3.1", "3.2", "3.3", "3.4", "3.5", "3.6", "3.7"}
	record := make(map[string]string)
	first := make(map[string]string)
	for _, b := range all {
		first[b] = b + ".0"
		record[b] = b + ".2"
	}

	win := window(all, 5)
	got := DisplayVersions(record, win, first)

	assert.Len(t, got, 5)
	assert.Equal(t, []string{"3.3.2", "3.4.2", "3.5.2", "3.6.2", "3.7.2"}, got)
}

func TestProject_UnknownItemsGetEmptySlice(t *testing.T) {
	c := NewCache()
	c.Record("known", "3.3", "3.3.1")
	c.Metadata.Branches["3.3"] = BranchState{FirstTag: "3.3.0", LastScanned: "3.3.2"}

	got := project(c, []string{"known", "unknown"}, []string{"3.3"})

	assert.Equal(t, []string{"3.3.1"}, got["known"])
	assert.NotNil(t, got["unknown"])
	assert.Empty(t, got["unknown"])
}
