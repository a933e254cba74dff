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
	"errors"
	"fmt"
)

var (
	// ErrRepositoryUnavailable means tags could not be listed or no historical
	// content could be read at all. Nothing is written to the cache.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrInvalidBranchSpec means the maintained-branch window is empty or one
	// of its branches has no release tag. Raised before any scanning.
	ErrInvalidBranchSpec = errors.New("invalid branch spec")

	// ErrPathNotFound is returned by a Repository when a path does not exist
	// at the requested tag. The tracker treats it as an empty name set.
	ErrPathNotFound = errors.New("path not found at tag")
)

// CacheWriteError reports that the updated cache could not be persisted.
// The Result returned alongside it is complete and usable.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("write version cache %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// Diagnostic records a recovered per-tag failure: a file that could not be
// read or whose content the extractor rejected.
type Diagnostic struct {
	Branch string `json:"branch"`
	Tag    string `json:"tag"`
	Path   string `json:"path"`
	Err    string `json:"error"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s@%s (branch %s): %s", d.Path, d.Tag, d.Branch, d.Err)
}
