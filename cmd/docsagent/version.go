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

package main

import (
	"fmt"
	"runtime"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

func (a *app) runVersion() error {
	info := versionInfo{Version: version, Commit: commit, Date: date, Go: runtime.Version()}
	if done, err := a.emitJSON(info); done {
		return err
	}
	fmt.Fprintf(a.out, "docsagent version %s\n", info.Version)
	fmt.Fprintf(a.out, "commit: %s\n", info.Commit)
	fmt.Fprintf(a.out, "built: %s\n", info.Date)
	return nil
}
