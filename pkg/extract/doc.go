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

// Package extract reads documentable items out of the database source tree.
//
// Every domain has two views of its designated source files:
//
//   - an item extractor, which parses the working tree into fully populated
//     items (type, default value, mutability, comment, definition site)
//   - a name extractor, which only lists the item names present in one
//     historical revision of a file and feeds the version tracker
//
// Both views use the same patterns so that the names the tracker records
// match the keys of the extracted items.
package extract
