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

// Package persist renders item documents into the published Markdown files,
// reports what changed, and publishes the result to a git repository.
package persist

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/kraklabs/docsagent/internal/fsutil"
)

// Report summarises one persist run.
type Report struct {
	Changed   []FileDiff // written, or would be written in dry-run mode
	Unchanged []string
	Skipped   []string // items left out for lack of a catalog or document
}

// Files returns the paths of changed files.
func (r *Report) Files() []string {
	out := make([]string, len(r.Changed))
	for i, d := range r.Changed {
		out[i] = d.Path
	}
	return out
}

// Totals returns the added and removed line counts over all files.
func (r *Report) Totals() (added, removed int) {
	for _, d := range r.Changed {
		added += d.Added
		removed += d.Removed
	}
	return added, removed
}

// Writer writes output files, leaving identical files untouched. In dry-run
// mode it prints the diff of each would-be change to Out instead.
type Writer struct {
	DryRun bool
	Out    io.Writer
	Colour bool

	logger *slog.Logger
	mu     sync.Mutex
	report Report
}

// NewWriter creates a Writer. A nil out discards dry-run diffs.
func NewWriter(dryRun bool, out io.Writer, logger *slog.Logger) *Writer {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{DryRun: dryRun, Out: out, logger: logger}
}

// Write stores content at path when it differs from the current file.
func (w *Writer) Write(path string, content []byte) error {
	old, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil && bytes.Equal(old, content) {
		w.report.Unchanged = append(w.report.Unchanged, path)
		w.logger.Debug("persist.file.unchanged", "path", path)
		return nil
	}

	d := ComputeDiff(path, string(old), string(content))
	if w.DryRun {
		fmt.Fprint(w.Out, d.Format(w.Colour))
	} else if err := fsutil.WriteFileAtomic(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.report.Changed = append(w.report.Changed, d)
	w.logger.Info("persist.file.written", "path", path, "added", d.Added, "removed", d.Removed, "dry_run", w.DryRun)
	return nil
}

// Skip records an item that produced no output.
func (w *Writer) Skip(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.report.Skipped = append(w.report.Skipped, name)
}

// Report returns what has been written so far, sorted by path.
func (w *Writer) Report() *Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := Report{
		Changed:   append([]FileDiff(nil), w.report.Changed...),
		Unchanged: append([]string(nil), w.report.Unchanged...),
		Skipped:   append([]string(nil), w.report.Skipped...),
	}
	sort.Slice(r.Changed, func(i, j int) bool { return r.Changed[i].Path < r.Changed[j].Path })
	sort.Strings(r.Unchanged)
	sort.Strings(r.Skipped)
	return &r
}
