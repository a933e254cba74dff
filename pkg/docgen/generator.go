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

// Package docgen drafts English documentation for items with an LLM and
// translates documentation between languages.
//
// Generators never fail on a bad model reply: an error or an empty answer
// yields a metadata-only document built from the item itself. Only context
// cancellation is returned as an error.
package docgen

import (
	"context"
	"log/slog"

	"github.com/kraklabs/docsagent/pkg/items"
	"github.com/kraklabs/docsagent/pkg/llm"
)

type base struct {
	provider llm.Provider
	logger   *slog.Logger
}

func newBase(p llm.Provider, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{provider: p, logger: logger}
}

// draft renders the user prompt and asks the model. Failures are logged and
// reported as an empty draft.
func (b base) draft(ctx context.Context, name, system, userTemplate string, data any) string {
	user, err := render(userTemplate, data)
	if err != nil {
		b.logger.Error("docgen.prompt.error", "item", name, "err", err)
		return ""
	}
	out, err := llm.Complete(ctx, b.provider, system, user)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Warn("docgen.generate.failed", "item", name, "err", err)
		}
		return ""
	}
	if out == "" {
		b.logger.Warn("docgen.generate.empty", "item", name)
	}
	return out
}

// finish picks the normalised draft or the fallback document.
func (b base) finish(ctx context.Context, name, doc, fallbackTemplate string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc != "" {
		b.logger.Debug("docgen.generate.done", "item", name, "chars", len(doc))
		return doc, nil
	}
	b.logger.Info("docgen.generate.fallback", "item", name)
	return render(fallbackTemplate, data)
}

// ConfigGenerator documents FE and BE configuration items.
type ConfigGenerator struct{ base }

func NewConfigGenerator(p llm.Provider, logger *slog.Logger) *ConfigGenerator {
	return &ConfigGenerator{newBase(p, logger)}
}

func (g *ConfigGenerator) Generate(ctx context.Context, item *items.ConfigItem) (string, error) {
	raw := g.draft(ctx, item.Name, configSystemPrompt, "config.user", item)
	doc := normalizeHeading(raw, 5, item.Name)
	return g.finish(ctx, item.Name, doc, "config.fallback", item)
}

// VariableGenerator documents session and global variables.
type VariableGenerator struct{ base }

func NewVariableGenerator(p llm.Provider, logger *slog.Logger) *VariableGenerator {
	return &VariableGenerator{newBase(p, logger)}
}

func (g *VariableGenerator) Generate(ctx context.Context, item *items.VariableItem) (string, error) {
	raw := g.draft(ctx, item.Name, variableSystemPrompt, "variable.user", item)
	doc := normalizeHeading(raw, 3, variableTitle(item))
	return g.finish(ctx, item.Name, doc, "variable.fallback", item)
}

// FunctionGenerator documents SQL functions. When the function has no known
// category it also asks the model to classify it and stores the answer in
// item.Catalog.
type FunctionGenerator struct{ base }

func NewFunctionGenerator(p llm.Provider, logger *slog.Logger) *FunctionGenerator {
	return &FunctionGenerator{newBase(p, logger)}
}

func (g *FunctionGenerator) Generate(ctx context.Context, item *items.FunctionItem) (string, error) {
	raw := g.draft(ctx, item.Name, functionSystemPrompt, "function.user", item)
	doc := normalizeFunctionDoc(raw, item.Name)
	doc, err := g.finish(ctx, item.Name, doc, "function.fallback", item)
	if err != nil {
		return "", err
	}
	if items.NormalizeFunctionCatalog(item.Catalog) == "" {
		g.classify(ctx, item, doc)
	}
	return doc, nil
}

func (g *FunctionGenerator) classify(ctx context.Context, item *items.FunctionItem, doc string) {
	answer := g.draft(ctx, item.Name, classifySystem(), "function.classify", struct {
		Item *items.FunctionItem
		Doc  string
	}{item, doc})
	catalog := items.NormalizeFunctionCatalog(answer)
	if catalog == "" {
		g.logger.Warn("docgen.classify.unknown", "item", item.Name, "answer", answer)
		return
	}
	g.logger.Debug("docgen.classify.done", "item", item.Name, "catalog", catalog)
	item.Catalog = catalog
}
