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

package docsimport

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dtest "github.com/kraklabs/docsagent/internal/testing"
	"github.com/kraklabs/docsagent/pkg/items"
)

const fence = "```"

const powPage = `---
displayed_sidebar: docs
---

# pow, power, dpow, fpow

Returns x raised to the power of y. Since v2.5.

## Syntax

` + fence + `Haskell
DOUBLE pow(DOUBLE x, DOUBLE y);
DOUBLE power(DOUBLE x, DOUBLE y);
` + fence + `

## Examples

` + fence + `sql
select pow(2, 2);
` + fence + `
`

func TestParseFunctionDoc(t *testing.T) {
	got := ParseFunctionDoc(powPage, items.LangEN, "math-functions", "pow")
	assert.Equal(t, "pow", got.Name)
	assert.Equal(t, "math-functions", got.Catalog)
	assert.Equal(t, "Scalar", got.Module)
	assert.Equal(t, []string{"power", "dpow", "fpow"}, got.Alias)
	assert.Equal(t, []string{"DOUBLE pow(DOUBLE x, DOUBLE y);", "DOUBLE power(DOUBLE x, DOUBLE y);"}, got.Signature)
	assert.Equal(t, []string{"2.5"}, got.Versions())
	assert.Contains(t, got.Doc(items.LangEN), "select pow(2, 2);")
}

func TestParseFunctionDoc_BestEffort(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		category string
		catalog  string
		module   string
		versions []string
	}{
		{"aggregate", "# count\n\nCounts rows.\n", "aggregate-functions", "aggregate-functions", "Aggregate", []string{}},
		{"window", "# lead\n\nIntroduced in v3.1.\n", "window-functions", "window-functions", "Window", []string{"3.1"}},
		{"unknown category", "no title at all", "vector-functions", "vector-functions", "Scalar", []string{}},
		{"chinese", "# pow\n\n从 2.4 版本开始支持。\n", "math-functions", "math-functions", "Scalar", []string{"2.4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFunctionDoc(tt.content, items.LangEN, tt.category, "f")
			assert.Equal(t, tt.catalog, got.Catalog)
			assert.Equal(t, tt.module, got.Module)
			assert.Equal(t, tt.versions, got.Versions())
			assert.Empty(t, got.Alias)
			assert.Empty(t, got.Signature)
			assert.NotEmpty(t, got.Doc(items.LangEN))
		})
	}
}

func TestImporter_ImportFunctions(t *testing.T) {
	docs := t.TempDir()

	_, err := New(docs, dtest.DiscardLogger()).ImportFunctions()
	assert.ErrorIs(t, err, ErrPrimaryMissing)

	en := filepath.Join(docs, items.LangEN, FunctionsDocDir)
	zh := filepath.Join(docs, items.LangZH, FunctionsDocDir)
	dtest.WriteFile(t, filepath.Join(en, "math-functions", "pow.md"), powPage)
	dtest.WriteFile(t, filepath.Join(en, "math-functions", "README.md"), "# Math functions\n")
	dtest.WriteFile(t, filepath.Join(en, "aggregate-functions", "count.md"), "# count\n")
	dtest.WriteFile(t, filepath.Join(en, "index.md"), "# Functions\n")
	dtest.WriteFile(t, filepath.Join(zh, "math-functions", "pow.md"), "# pow\n\n从 2.5 版本开始支持。\n")

	got, err := New(docs, dtest.DiscardLogger()).ImportFunctions()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "count", got[0].Name)
	assert.Equal(t, "Aggregate", got[0].Module)
	assert.Empty(t, got[0].Doc(items.LangZH))

	pow := got[1]
	assert.Equal(t, "pow", pow.Name)
	assert.Equal(t, "math-functions", pow.Catalog)
	assert.Contains(t, pow.Doc(items.LangEN), "# pow, power")
	assert.Contains(t, pow.Doc(items.LangZH), "从 2.5 版本开始")
}

func TestImporter_ImportFunctionsWithoutEnglish(t *testing.T) {
	docs := t.TempDir()
	dtest.WriteFile(t, filepath.Join(docs, items.LangZH, FunctionsDocDir, "string-functions", "upper.md"), "# upper\n")

	got, err := New(docs, dtest.DiscardLogger()).ImportFunctions()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "upper", got[0].Name)
	assert.Equal(t, "string-functions", got[0].Catalog)
	assert.Equal(t, "# upper", got[0].Doc(items.LangZH))
	assert.Empty(t, got[0].Doc(items.LangEN))
}

func TestSeed_FunctionCatalogFromDocs(t *testing.T) {
	existing := &items.FunctionItem{Name: "pow", Signature: []string{"DOUBLE pow(DOUBLE, DOUBLE)"}}
	imported := ParseFunctionDoc(powPage, items.LangEN, "math-functions", "pow")

	out := Seed([]*items.FunctionItem{existing}, []*items.FunctionItem{imported})
	require.Len(t, out, 1)
	assert.Equal(t, "math-functions", out[0].Catalog)
	assert.Equal(t, []string{"DOUBLE pow(DOUBLE, DOUBLE)"}, out[0].Signature, "extracted signature kept")
	assert.NotEmpty(t, out[0].Doc(items.LangEN))
}
