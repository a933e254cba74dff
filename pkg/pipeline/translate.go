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

package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/docsagent/pkg/items"
)

const separatorFormat = "<!-- ITEM_SEP_%d -->"

var blankRun = regexp.MustCompile(`\n{3,}`)

func separator(i int) string { return fmt.Sprintf(separatorFormat, i) }

// translate fills the missing target languages. Chinese sources are first
// translated to English, then English feeds every other language.
func (p *Pipeline[T]) translate(ctx context.Context, g groups[T], langs []string) (int, error) {
	total := 0
	step := func(list []T, from, to string) error {
		n, err := p.translatePair(ctx, list, from, to)
		total += n
		return err
	}

	if slices.Contains(langs, items.LangEN) {
		if err := step(g.zh, items.LangZH, items.LangEN); err != nil {
			return total, err
		}
	}
	sources := append(append([]T(nil), g.zh...), g.enOnly...)
	for _, to := range langs {
		if to == items.LangEN {
			continue
		}
		if err := step(sources, items.LangEN, to); err != nil {
			return total, err
		}
	}
	return total, nil
}

// translatePair translates the from document of every item that lacks a to
// document. Failed batches are logged and skipped; only cancellation aborts.
func (p *Pipeline[T]) translatePair(ctx context.Context, list []T, from, to string) (int, error) {
	var pending []T
	for _, it := range list {
		if it.Doc(from) != "" && it.Doc(to) == "" {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}
	size := p.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	p.logger.Info("pipeline.step.translate", "from", from, "to", to, "items", len(pending), "batch_size", size)

	var (
		mu         sync.Mutex
		translated int
		done       int
	)
	stage := "translate " + from + "->" + to
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(p.Workers, 1))
	for start := 0; start < len(pending); start += size {
		batch := pending[start:min(start+size, len(pending))]
		eg.Go(func() error {
			docs := make([]string, len(batch))
			for i, it := range batch {
				docs[i] = it.Doc(from)
			}
			out, err := p.Translator.Translate(egCtx, joinBatch(docs), from, to)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				p.logger.Warn("pipeline.translate.batch_failed", "from", from, "to", to,
					"offset", start, "size", len(batch), "err", err)
				recordBatchFailure(p.Domain, to)
				return nil
			}
			parts, ok := splitBatch(out, len(docs))
			if !ok {
				p.logger.Warn("pipeline.translate.count_mismatch", "from", from, "to", to, "offset", start, "expected", len(docs))
			}

			mu.Lock()
			defer mu.Unlock()
			n := 0
			for i, it := range batch {
				if parts[i] == "" {
					continue
				}
				it.SetDoc(to, parts[i])
				n++
			}
			translated += n
			recordTranslated(p.Domain, to, n)
			done += len(batch)
			p.progress(stage, done, len(pending))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return translated, fmt.Errorf("translate %s->%s: %w", from, to, err)
	}
	return translated, nil
}

// joinBatch concatenates docs, each followed by its numbered separator.
func joinBatch(docs []string) string {
	var sb strings.Builder
	for i, d := range docs {
		sb.WriteString(d)
		sb.WriteString("\n\n")
		sb.WriteString(separator(i))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// splitBatch recovers n documents from a translated batch. When the
// separators are gone it splits on runs of blank lines. The result always
// has n entries; missing ones are empty and ok is false.
func splitBatch(text string, n int) (parts []string, ok bool) {
	parts = make([]string, 0, n)
	if strings.Contains(text, separator(0)) {
		rest := text
		for i := 0; i < n; i++ {
			sep := separator(i)
			idx := strings.Index(rest, sep)
			if idx < 0 {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, strings.TrimSpace(rest[:idx]))
			rest = rest[idx+len(sep):]
		}
	} else {
		for _, chunk := range blankRun.Split(text, -1) {
			if c := strings.TrimSpace(chunk); c != "" {
				parts = append(parts, c)
			}
		}
	}

	ok = len(parts) == n
	for _, part := range parts {
		if part == "" {
			ok = false
		}
	}
	for len(parts) < n {
		parts = append(parts, "")
	}
	return parts[:n], ok
}
