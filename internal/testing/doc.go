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

// Package testing provides fixtures shared by docsagent tests: temporary
// source trees and throwaway git repositories with tagged history.
//
// # Quick Start
//
// Import it under an alias so it does not shadow the standard library:
//
//	import dtest "github.com/kraklabs/docsagent/internal/testing"
//
//	func TestTracker(t *testing.T) {
//	    repo := dtest.NewGitRepo(t)
//	    repo.Write("be/src/common/config.h", `CONF_Int32(be_port, "9060");`)
//	    repo.CommitAll("add config")
//	    repo.Tag("3.3.0")
//	    // open repo.Dir with gitrepo.Open ...
//	}
//
// Git-backed fixtures skip the test when git is not on PATH.
package testing
