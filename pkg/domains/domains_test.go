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

package domains

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/docsagent/internal/config"
	dtest "github.com/kraklabs/docsagent/internal/testing"
	"github.com/kraklabs/docsagent/pkg/extract"
	"github.com/kraklabs/docsagent/pkg/items"
	"github.com/kraklabs/docsagent/pkg/llm"
	"github.com/kraklabs/docsagent/pkg/pipeline"
	"github.com/kraklabs/docsagent/pkg/versiontrack"
)

const beConfig = `// Port of the BE thrift server.
CONF_Int32(be_port, "9060");
// Log level.
CONF_mString(sys_log_level, "INFO");
`

const bePage = `# BE configuration

## Understand BE parameters

### Logging

##### sys_log_level

- Default: INFO
- Type: String
- Is mutable: Yes
- Description: The severity level of logs.
- Introduced in: v3.2.0
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.StarRocksHome = filepath.Join(root, "starrocks")
	cfg.DocsOutputDir = filepath.Join(root, "out")
	cfg.DocsModuleDir = ""
	cfg.MetaDir = filepath.Join(root, "meta")
	dtest.WriteFile(t, filepath.Join(cfg.StarRocksHome, "be/src/common/config.h"), beConfig)
	return cfg
}

func TestLookup(t *testing.T) {
	for _, name := range Names {
		info, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, info.Name)
		assert.NotEmpty(t, info.Sources)
		assert.NotNil(t, info.Names)
	}

	_, err := Lookup("udfs")
	require.ErrorIs(t, err, ErrUnknownDomain)

	fn, _ := Lookup(Functions)
	assert.True(t, fn.KeepOrphans)
}

func TestBuildEveryDomain(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range Names {
		r, err := Build(name, cfg, BuildOptions{Provider: &llm.MockProvider{}}, dtest.DiscardLogger())
		require.NoError(t, err, name)
		assert.NotNil(t, r)
	}
	_, err := Build("nope", cfg, BuildOptions{}, dtest.DiscardLogger())
	require.ErrorIs(t, err, ErrUnknownDomain)
}

func TestBuildRunBEConfig(t *testing.T) {
	cfg := testConfig(t)
	r, err := Build(BEConfig, cfg, BuildOptions{Provider: &llm.MockProvider{}}, dtest.DiscardLogger())
	require.NoError(t, err)

	res, err := r.Run(context.Background(), pipeline.Options{Langs: []string{"en"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Generated)

	out, err := os.ReadFile(filepath.Join(cfg.DocsOutputDir, "en", "BE_configuration.md"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "##### be_port")
	assert.Contains(t, string(out), "##### sys_log_level")

	saved, err := items.NewStore[*items.ConfigItem](cfg.MetaPath(BEConfig), nil).Load()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotEmpty(t, saved[0].Doc("en"))
}

func TestRefreshBEConfigImportsPublishedDocs(t *testing.T) {
	cfg := testConfig(t)
	docsDir := filepath.Join(t.TempDir(), "docs")
	dtest.WriteFile(t, filepath.Join(docsDir, "en", "administration", "management", "BE_configuration.md"), bePage)

	res, err := Refresh(context.Background(), BEConfig, cfg, docsDir, dtest.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Saved)

	saved, err := items.NewStore[*items.ConfigItem](cfg.MetaPath(BEConfig), nil).Load()
	require.NoError(t, err)
	byName := map[string]*items.ConfigItem{}
	for _, it := range saved {
		byName[it.Name] = it
	}
	level := byName["sys_log_level"]
	require.NotNil(t, level)
	assert.Contains(t, level.Doc("en"), "The severity level of logs.")
	assert.Equal(t, "Logging", level.Catalog)
	assert.Equal(t, []string{"3.2.0"}, level.Versions())
	assert.Empty(t, byName["be_port"].Doc("en"))
}

func TestRefreshWithoutPublishedDocs(t *testing.T) {
	cfg := testConfig(t)
	res, err := Refresh(context.Background(), BEConfig, cfg, t.TempDir(), dtest.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Imported)
	assert.Equal(t, 2, res.Saved)
}

func TestRefreshVariablesImportsPublishedDocs(t *testing.T) {
	cfg := testConfig(t)
	dtest.WriteFile(t, filepath.Join(cfg.StarRocksHome, extract.VariableSources[0]), `public class SessionVariable {
    // Query timeout in seconds.
    @VarAttr(name = "query_timeout")
    private int queryTimeoutS = 300;

    @VarAttr(name = "sql_mode_v2", show = "sql_mode")
    private long sqlMode = 32L;
}
`)
	docsDir := filepath.Join(t.TempDir(), "docs")
	dtest.WriteFile(t, filepath.Join(docsDir, "en", "sql-reference", "System_variable.md"), `# System variables

## Descriptions of variables

### sql_mode

* **Description**: The SQL mode.
* **Introduced in**: v3.0.0
`)

	res, err := Refresh(context.Background(), Variables, cfg, docsDir, dtest.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Saved)

	saved, err := items.NewStore[*items.VariableItem](cfg.MetaPath(Variables), nil).Load()
	require.NoError(t, err)
	byKey := map[string]*items.VariableItem{}
	for _, it := range saved {
		byKey[it.VersionKey()] = it
	}
	mode := byKey["sql_mode"]
	require.NotNil(t, mode)
	assert.Equal(t, "sql_mode_v2", mode.Name)
	assert.Contains(t, mode.Doc("en"), "The SQL mode.")
	assert.Equal(t, []string{"3.0.0"}, mode.Versions())
	assert.Empty(t, byKey["query_timeout"].Doc("en"))
}

func TestRefreshFunctionsImportsPublishedDocs(t *testing.T) {
	cfg := testConfig(t)
	dtest.WriteFile(t, filepath.Join(cfg.StarRocksHome, extract.FunctionSources[0]), `vectorized_functions = [
    [10010, 'abs', True, False, 'DOUBLE', ['DOUBLE'], 'MathFunctions::abs_double'],
    [10020, 'ceil', True, False, 'BIGINT', ['DOUBLE'], 'MathFunctions::ceil'],
]
`)
	docsDir := filepath.Join(t.TempDir(), "docs")
	fnDir := filepath.Join(docsDir, "en", "sql-reference", "sql-functions", "math-functions")
	dtest.WriteFile(t, filepath.Join(fnDir, "abs.md"), "# abs\n\nReturns the absolute value. Since v2.1.\n")
	dtest.WriteFile(t, filepath.Join(docsDir, "zh", "sql-reference", "sql-functions", "math-functions", "abs.md"), "# abs\n\n返回绝对值。\n")

	res, err := Refresh(context.Background(), Functions, cfg, docsDir, dtest.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
	assert.Equal(t, 1, res.Imported)

	saved, err := items.NewStore[*items.FunctionItem](cfg.MetaPath(Functions), nil).Load()
	require.NoError(t, err)
	byName := map[string]*items.FunctionItem{}
	for _, it := range saved {
		byName[it.Name] = it
	}
	abs := byName["abs"]
	require.NotNil(t, abs)
	assert.Equal(t, "math-functions", abs.Catalog)
	assert.Contains(t, abs.Doc("en"), "absolute value")
	assert.Contains(t, abs.Doc("zh"), "返回绝对值")
	assert.Equal(t, []string{"2.1"}, abs.Versions())
	assert.Empty(t, byName["ceil"].Catalog)
}

func TestNewTrackerOverrides(t *testing.T) {
	cfg := testConfig(t)
	info, _ := Lookup(BEConfig)
	tracker, err := NewTracker(cfg, info, newReleaseRepo(), TrackerOptions{Branches: []string{"3.4"}, Window: 2}, dtest.DiscardLogger())
	require.NoError(t, err)
	assert.NotNil(t, tracker)
}

func TestNewTrackerScansTagsFetchedWithoutHeadChange(t *testing.T) {
	cfg := testConfig(t)
	info, _ := Lookup(BEConfig)
	repo := newReleaseRepo()
	repo.release("3.3.0", "be_port")
	repo.release("3.3.1", "be_port")
	ctx := context.Background()

	tracker, err := NewTracker(cfg, info, repo, TrackerOptions{Branches: []string{"3.3"}}, dtest.DiscardLogger())
	require.NoError(t, err)
	_, err = tracker.Update(ctx, nil, true)
	require.NoError(t, err)

	repo.release("3.3.2", "be_port", "brpc_port")
	res, err := tracker.Update(ctx, []string{"brpc_port"}, true)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, res.TagsScanned)
	assert.Equal(t, []string{"3.3.2"}, res.Versions["brpc_port"])
}

func TestNewTrackerFinishesLimitedScan(t *testing.T) {
	cfg := testConfig(t)
	info, _ := Lookup(BEConfig)
	repo := newReleaseRepo()
	repo.release("3.3.0", "be_port")
	repo.release("3.3.1", "be_port")
	repo.release("3.3.2", "be_port", "brpc_port")
	ctx := context.Background()

	limited, err := NewTracker(cfg, info, repo, TrackerOptions{Branches: []string{"3.3"}, Limit: 1}, dtest.DiscardLogger())
	require.NoError(t, err)
	_, err = limited.Update(ctx, nil, true)
	require.NoError(t, err)

	full, err := NewTracker(cfg, info, repo, TrackerOptions{Branches: []string{"3.3"}}, dtest.DiscardLogger())
	require.NoError(t, err)
	res, err := full.Update(ctx, []string{"brpc_port"}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TagsScanned)
	assert.Equal(t, []string{"3.3.2"}, res.Versions["brpc_port"])
}

// releaseRepo serves the BE config header of each tag from memory. HEAD
// never moves, as after a tag-only fetch.
type releaseRepo struct {
	tags  []string
	files map[string]string
}

func newReleaseRepo() *releaseRepo {
	return &releaseRepo{files: make(map[string]string)}
}

func (r *releaseRepo) release(tag string, names ...string) {
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "CONF_Int32(%s, \"0\");\n", n)
	}
	r.tags = append(r.tags, tag)
	r.files[tag] = b.String()
}

func (r *releaseRepo) Tags(context.Context) ([]string, error) {
	return slices.Clone(r.tags), nil
}

func (r *releaseRepo) ReadFileAt(_ context.Context, tag, path string) ([]byte, error) {
	content, ok := r.files[tag]
	if !ok || path != extract.BEConfigSources[0] {
		return nil, fmt.Errorf("%s:%s: %w", tag, path, versiontrack.ErrPathNotFound)
	}
	return []byte(content), nil
}

func (r *releaseRepo) HeadCommit(context.Context) (string, error) { return "abc", nil }
