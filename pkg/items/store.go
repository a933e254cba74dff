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

package items

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/kraklabs/docsagent/internal/fsutil"
)

// Store persists the items of one domain as a JSON array
// (<META_DIR>/<domain>.meta).
type Store[T Item] struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by path.
func NewStore[T Item](path string, logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{path: path, logger: logger}
}

// Path returns the meta file location.
func (s *Store[T]) Path() string { return s.path }

// Load reads the saved items. A missing file yields no items.
func (s *Store[T]) Load() ([]T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("items.store.missing", "path", s.path)
			return nil, nil
		}
		return nil, fmt.Errorf("read meta: %w", err)
	}

	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse meta %s: %w", s.path, err)
	}
	s.logger.Debug("items.store.loaded", "path", s.path, "items", len(list))
	return list, nil
}

// Save writes list sorted by key.
func (s *Store[T]) Save(list []T) error {
	sorted := slices.Clone(list)
	SortByKey(sorted)
	if sorted == nil {
		sorted = []T{}
	}
	if err := fsutil.WriteJSON(s.path, sorted); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	s.logger.Debug("items.store.saved", "path", s.path, "items", len(sorted))
	return nil
}

// Merge carries saved state into freshly extracted items. Saved items that
// are no longer extracted are appended when keepOrphans is set and dropped
// otherwise.
func Merge[T Item](fresh, saved []T, keepOrphans bool) []T {
	byKey := make(map[string]T, len(saved))
	for _, it := range saved {
		byKey[it.Key()] = it
	}

	out := make([]T, 0, len(fresh))
	seen := make(map[string]struct{}, len(fresh))
	for _, it := range fresh {
		if prev, ok := byKey[it.Key()]; ok {
			it.Inherit(prev)
		}
		seen[it.Key()] = struct{}{}
		out = append(out, it)
	}
	if keepOrphans {
		for _, it := range saved {
			if _, ok := seen[it.Key()]; !ok {
				out = append(out, it)
			}
		}
	}
	return out
}

// ReadIgnoreList reads one name per line. Blank lines and lines starting with
// '#' are skipped. A missing file yields an empty set.
func ReadIgnoreList(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("open ignore list: %w", err)
	}
	defer func() { _ = f.Close() }()

	out := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore list: %w", err)
	}
	return out, nil
}
