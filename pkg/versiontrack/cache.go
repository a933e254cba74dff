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
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/kraklabs/docsagent/internal/fsutil"
)

// Cache is the persisted snapshot of first-seen data for one domain.
type Cache struct {
	Metadata Metadata                     `json:"metadata"`
	Versions map[string]map[string]string `json:"versions"` // item -> branch -> first tag
}

// Metadata describes the repository state a Cache reflects.
type Metadata struct {
	RepositoryCommit   string                 `json:"repository_commit"`
	MaintainedBranches []string               `json:"maintained_branches"`
	SourceFiles        []string               `json:"source_files,omitempty"`
	Branches           map[string]BranchState `json:"branches,omitempty"`
}

// BranchState is the scan frontier of one branch.
// Complete is false while tags older than the newest known one are still
// pending, as after a run capped by Options.Limit.
type BranchState struct {
	FirstTag    string `json:"first_tag"`
	LastScanned string `json:"last_scanned,omitempty"`
	Complete    bool   `json:"complete,omitempty"`
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	c := &Cache{}
	c.ensure()
	return c
}

func (c *Cache) ensure() {
	if c.Versions == nil {
		c.Versions = make(map[string]map[string]string)
	}
	if c.Metadata.Branches == nil {
		c.Metadata.Branches = make(map[string]BranchState)
	}
}

// Record stores tag as the first-seen tag of name on branch unless a record
// already exists. It reports whether a record was added.
func (c *Cache) Record(name, branch, tag string) bool {
	c.ensure()
	byBranch, ok := c.Versions[name]
	if !ok {
		byBranch = make(map[string]string)
		c.Versions[name] = byBranch
	}
	if _, exists := byBranch[branch]; exists {
		return false
	}
	byBranch[branch] = tag
	return true
}

// SeenOn returns the set of names with a record on branch.
func (c *Cache) SeenOn(branch string) map[string]struct{} {
	seen := make(map[string]struct{})
	for name, byBranch := range c.Versions {
		if _, ok := byBranch[branch]; ok {
			seen[name] = struct{}{}
		}
	}
	return seen
}

// FirstTags returns the first retained tag of every branch in the metadata.
func (c *Cache) FirstTags() map[string]string {
	out := make(map[string]string, len(c.Metadata.Branches))
	for b, st := range c.Metadata.Branches {
		out[b] = st.FirstTag
	}
	return out
}

// sameSources reports whether the cached source-file list equals files,
// ignoring order.
func (c *Cache) sameSources(files []string) bool {
	a := slices.Clone(c.Metadata.SourceFiles)
	b := slices.Clone(files)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// LoadCache reads a cache file. A missing file yields an empty cache.
func LoadCache(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCache(), nil
		}
		return nil, fmt.Errorf("read version cache: %w", err)
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse version cache: %w", err)
	}
	c.ensure()
	return &c, nil
}

// SaveCache writes c to path atomically, so readers see either the previous
// cache or the new one.
func SaveCache(path string, c *Cache) error {
	if err := fsutil.WriteJSON(path, c); err != nil {
		return fmt.Errorf("save version cache: %w", err)
	}
	return nil
}
