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

package docgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kraklabs/docsagent/pkg/items"
	"github.com/kraklabs/docsagent/pkg/llm"
)

// ErrEmptyTranslation is returned when the model answers with nothing.
var ErrEmptyTranslation = errors.New("empty translation")

var languageNames = map[string]string{
	items.LangZH: "Simplified Chinese (简体中文)",
	items.LangJA: "Japanese (日本語)",
	items.LangEN: "English",
}

// LanguageName returns the prompt name of a language code.
func LanguageName(code string) string {
	if n, ok := languageNames[code]; ok {
		return n
	}
	return code
}

// Translator translates Markdown documentation, keeping HTML comment markers
// intact so batched documents can be split again.
type Translator struct {
	provider llm.Provider
	logger   *slog.Logger
}

func NewTranslator(p llm.Provider, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{provider: p, logger: logger}
}

// Translate returns text translated from one language code to another.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to || text == "" {
		return text, nil
	}
	user, err := render("translate.user", struct{ Text, To string }{text, LanguageName(to)})
	if err != nil {
		return "", err
	}
	t.logger.Debug("docgen.translate.start", "from", from, "to", to, "chars", len(text))
	out, err := llm.Complete(ctx, t.provider, translateSystem(from, to), user)
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", from, to, err)
	}
	if out == "" {
		return "", fmt.Errorf("translate %s->%s: %w", from, to, ErrEmptyTranslation)
	}
	t.logger.Debug("docgen.translate.done", "from", from, "to", to, "chars", len(out))
	return cleanOutput(out), nil
}

func translateSystem(from, to string) string {
	return "You are a professional technical translator specializing in database documentation.\n\n" +
		"Translate StarRocks documentation from " + LanguageName(from) + " to " + LanguageName(to) + ".\n" +
		`Requirements:
- Maintain the exact Markdown formatting (headers, lists, code blocks)
- Keep configuration, variable and function names unchanged (e.g. query_timeout)
- Keep technical terms in English when appropriate
- Preserve code examples and SQL statements
- Keep numbers, units and default values unchanged

Output only the translated content, no additional commentary.`
}
