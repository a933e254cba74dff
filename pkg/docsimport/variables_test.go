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

const enVariablesPage = `# System variables

## View variables

SHOW VARIABLES;

## Descriptions of variables

<!-- ### hidden_variable -->

### activate_node_reuse

* **Description**: Whether to reuse nodes.
* **Default**: false
* **Data type**: Boolean
* **Introduced in**: v3.3.0

### ` + "`query_timeout`" + ` (global)

* **Description**: The query timeout
  in seconds.
* **Default**: 300
* **Unit**: Second
* **Data type**: Int

#### Example

SET query_timeout = 10;

## Appendix

### not_a_variable
`

const zhVariablesPage = `# 系统变量

## 支持的变量

### activate_node_reuse

* **描述**：是否复用节点。
* **默认值**：false
* **类型**：Boolean
`

func TestParseVariablesDoc(t *testing.T) {
	got := ParseVariablesDoc(enVariablesPage, items.LangEN)
	require.Len(t, got, 2)

	reuse := got[0]
	assert.Equal(t, "activate_node_reuse", reuse.Name)
	assert.Equal(t, "activate_node_reuse", reuse.VersionKey())
	assert.Equal(t, "Session", reuse.Scope)
	assert.Equal(t, "Boolean", reuse.Type)
	assert.Equal(t, "false", reuse.DefaultValue)
	assert.Equal(t, []string{"3.3.0"}, reuse.Versions())
	assert.Contains(t, reuse.Doc(items.LangEN), "### activate_node_reuse\n\n* **Description**")

	timeout := got[1]
	assert.Equal(t, "query_timeout", timeout.Name)
	assert.Equal(t, "Global", timeout.Scope)
	assert.Equal(t, "300", timeout.DefaultValue)
	assert.Equal(t, "The query timeout in seconds. Unit: Second", timeout.Comment)
	assert.Empty(t, timeout.Versions())
	assert.Contains(t, timeout.Doc(items.LangEN), "#### Example")
	assert.NotContains(t, timeout.Doc(items.LangEN), "not_a_variable")
}

func TestParseVariablesDoc_Chinese(t *testing.T) {
	got := ParseVariablesDoc(zhVariablesPage, items.LangZH)
	require.Len(t, got, 1)
	assert.Equal(t, "false", got[0].DefaultValue)
	assert.Equal(t, "是否复用节点。", got[0].Comment)
}

func TestParseVariablesDoc_NoSection(t *testing.T) {
	assert.Empty(t, ParseVariablesDoc("# title\n\n### x\n* **Default**: 1\n", items.LangEN))
}

func TestImporter_ImportVariables(t *testing.T) {
	docs := t.TempDir()

	_, err := New(docs, dtest.DiscardLogger()).ImportVariables()
	assert.ErrorIs(t, err, ErrPrimaryMissing)

	dtest.WriteFile(t, filepath.Join(docs, items.LangEN, VariablesDocPath), enVariablesPage)
	dtest.WriteFile(t, filepath.Join(docs, items.LangZH, VariablesDocPath), zhVariablesPage)

	got, err := New(docs, dtest.DiscardLogger()).ImportVariables()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Doc(items.LangZH), "是否复用节点")
	assert.Equal(t, "Whether to reuse nodes.", got[0].Comment, "metadata comes from English")
	assert.Empty(t, got[1].Doc(items.LangZH))
}

func TestSeed_VariablesMatchByShowName(t *testing.T) {
	existing := &items.VariableItem{Name: "queryTimeoutS", Show: "query_timeout", Scope: "Global"}
	imported := &items.VariableItem{Name: "query_timeout", Show: "query_timeout"}
	imported.SetDoc(items.LangEN, "### query_timeout (global)")
	imported.SetVersions([]string{"3.1.0"})

	out := Seed([]*items.VariableItem{existing}, []*items.VariableItem{imported})
	require.Len(t, out, 1)
	assert.Equal(t, "queryTimeoutS", out[0].Name)
	assert.Equal(t, "### query_timeout (global)", out[0].Doc(items.LangEN))
	assert.Equal(t, []string{"3.1.0"}, out[0].Versions())
}
