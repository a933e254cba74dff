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

// Package versiontrack determines, for every named item of a documentation
// domain, the earliest release tag on each maintained branch at which the
// item's name appears in the domain's designated source files.
//
// # How it works
//
// Release tags (for example "3.3.1" or "v3.3.1") are grouped into branches by
// major.minor and ordered by semantic version. For each maintained branch the
// tracker walks the tags newer than the cached scan frontier in ascending
// order, reads the designated files at each tag with `git show`, extracts the
// names present through a caller-supplied NameExtractor, and records the tag
// at which each name is first seen. Results are merged into a JSON cache that
// is rewritten atomically (temp file + rename).
//
// Names never lose a record once recorded, and a recorded first-seen tag is
// never replaced, so repeated and incremental runs converge on the same data
// as a cold scan.
//
// # Display filtering
//
// The cache stores raw first-seen data. When versions are projected for
// documentation, DisplayVersions hides branches that merely carried an item
// forward from the previous branch, and drops branches outside the window.
//
// # Usage
//
//	tracker, err := versiontrack.NewTracker(repo, extract.BEConfigNames, versiontrack.Options{
//	    Branches:    []string{"3.3", "3.4", "3.5"},
//	    SourceFiles: []string{"be/src/common/config.h"},
//	    CachePath:   "meta/be_config.version",
//	}, logger)
//	res, err := tracker.Update(ctx, names, true)
//	for name, tags := range res.Versions {
//	    fmt.Println(name, tags)
//	}
package versiontrack
