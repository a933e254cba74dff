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

package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/docsagent/pkg/items"
)

const beConfigSource = `// Port of the BE thrift server.
CONF_Int32(be_port, "9060");

/**
 * Log level.
 */
CONF_mString(sys_log_level, "INFO");

CONF_String_enum(brpc_connection_type, "single", "single,pooled,short");
CONF_Int64(webserver_port, "8040");
CONF_Alias(be_http_port, webserver_port);
CONF_Bool(enable_https, "false");
`

func TestParseBEConfig(t *testing.T) {
	got := ParseBEConfig([]byte(beConfigSource), "be/src/common/config.h")
	require.Len(t, got, 5)

	byName := make(map[string]*items.ConfigItem)
	for _, it := range got {
		byName[it.Name] = it
	}

	port := byName["be_port"]
	require.NotNil(t, port)
	assert.Equal(t, "int", port.Type)
	assert.Equal(t, "9060", port.DefaultValue)
	assert.Equal(t, "false", port.IsMutable)
	assert.Equal(t, "Port of the BE thrift server.", port.Comment)
	assert.Equal(t, "be/src/common/config.h:2", port.Define)
	assert.Equal(t, "BE", port.Scope)

	level := byName["sys_log_level"]
	require.NotNil(t, level)
	assert.Equal(t, "string", level.Type)
	assert.Equal(t, "true", level.IsMutable)
	assert.Equal(t, "Log level.", level.Comment)

	enum := byName["brpc_connection_type"]
	require.NotNil(t, enum)
	assert.Equal(t, "string", enum.Type)
	assert.Equal(t, "single (options: single,pooled,short)", enum.DefaultValue)
	assert.Empty(t, enum.Comment)

	alias := byName["be_http_port"]
	require.NotNil(t, alias, "aliased parameter is reported under its alias")
	assert.Equal(t, "long", alias.Type)
	assert.NotContains(t, byName, "webserver_port")
}

func TestBEConfigNames(t *testing.T) {
	names, err := BEConfigNames([]byte(beConfigSource))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"be_http_port", "be_port", "brpc_connection_type",
		"enable_https", "sys_log_level", "webserver_port",
	}, names)
}

const feConfigSource = `package com.starrocks.common;

public class Config extends ConfigBase {
    /**
     * The max size of one sys log file.
     */
    @ConfField
    public static int sys_log_roll_num = 10;

    // Whether to enable the feature.
    @ConfField(mutable = true, comment = "Enable the thing")
    public static boolean enable_thing = false;

    @ConfField(mutable = true)
    @Deprecated
    public static String sys_log_format = "plaintext";

    @ConfField
    public static long[] bucket_sizes = {1, 2};

    public static int not_a_conf = 1;
}
`

func TestParseFEConfig(t *testing.T) {
	treeParse := func(content []byte, path string) []*items.ConfigItem {
		out, err := NewFEConfigParser(nil).Parse(context.Background(), content, path)
		require.NoError(t, err)
		return out
	}

	parsers := map[string]func([]byte, string) []*items.ConfigItem{
		"tree-sitter": treeParse,
		"regex":       ParseFEConfigRegex,
	}
	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			got := parse([]byte(feConfigSource), "Config.java")
			require.Len(t, got, 4)

			assert.Equal(t, "sys_log_roll_num", got[0].Name)
			assert.Equal(t, "int", got[0].Type)
			assert.Equal(t, "10", got[0].DefaultValue)
			assert.Equal(t, "false", got[0].IsMutable)
			assert.Equal(t, "The max size of one sys log file.", got[0].Comment)
			assert.Equal(t, "Config.java:7", got[0].Define)
			assert.Equal(t, "FE", got[0].Scope)

			assert.Equal(t, "enable_thing", got[1].Name)
			assert.Equal(t, "true", got[1].IsMutable)
			assert.Equal(t, "Enable the thing", got[1].Comment)

			assert.Equal(t, "sys_log_format", got[2].Name)
			assert.Equal(t, "String", got[2].Type)
			assert.Equal(t, "plaintext", got[2].DefaultValue)

			assert.Equal(t, "bucket_sizes", got[3].Name)
			assert.Equal(t, "long[]", got[3].Type)
			assert.Equal(t, "{1, 2}", got[3].DefaultValue)
		})
	}
}

func TestParseFEConfig_NoAnnotations(t *testing.T) {
	out, err := NewFEConfigParser(nil).Parse(context.Background(), []byte("class A {}"), "A.java")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFEConfigNames(t *testing.T) {
	names, err := FEConfigNames([]byte(feConfigSource))
	require.NoError(t, err)
	assert.Equal(t, []string{"bucket_sizes", "enable_thing", "sys_log_format", "sys_log_roll_num"}, names)
}

const sessionVariableSource = `public class SessionVariable implements Serializable {
    public static final String QUERY_TIMEOUT = "query_timeout";
    public static final String ENABLE_PROFILE = "enable_profile";

    // Query timeout in seconds.
    @VariableMgr.VarAttr(name = QUERY_TIMEOUT)
    private int queryTimeoutS = 300;

    @VarAttr(name = "enable_profile_internal", show = ENABLE_PROFILE, flag = VariableMgr.INVISIBLE)
    private boolean enableProfile = false;

    @VarAttr(name = "sql_mode_v2", show = "sql_mode")
    private long sqlMode = 32L;

    @VarAttr(name = UNKNOWN_CONST)
    private int ghost;
}
`

func TestVariableNames(t *testing.T) {
	names, err := VariableNames([]byte(sessionVariableSource))
	require.NoError(t, err)
	assert.Equal(t, []string{"enable_profile", "query_timeout", "sql_mode"}, names)
}

func TestParseVariables(t *testing.T) {
	got := ParseVariables([]byte(sessionVariableSource), "fe/fe-core/src/main/java/com/starrocks/qe/SessionVariable.java")
	require.Len(t, got, 3)

	assert.Equal(t, "query_timeout", got[0].Name)
	assert.Equal(t, "query_timeout", got[0].Show)
	assert.Equal(t, "int", got[0].Type)
	assert.Equal(t, "300", got[0].DefaultValue)
	assert.Equal(t, "Query timeout in seconds.", got[0].Comment)
	assert.Equal(t, "Session", got[0].Scope)
	assert.False(t, got[0].Invisible)

	assert.Equal(t, "enable_profile_internal", got[1].Name)
	assert.Equal(t, "enable_profile", got[1].VersionKey())
	assert.True(t, got[1].Invisible)

	assert.Equal(t, "sql_mode", got[2].Show)
	assert.Equal(t, "32L", got[2].DefaultValue)

	global := ParseVariables([]byte(sessionVariableSource), "qe/GlobalVariable.java")
	assert.Equal(t, "Global", global[0].Scope)
}

const functionsSource = `# Function table
vectorized_functions = [
    [10010, 'abs', True, False, 'DOUBLE', ['DOUBLE'], 'MathFunctions::abs_double'],
    [10011, 'abs', True, False, 'BIGINT', ['BIGINT'], 'MathFunctions::abs_bigint'],
    [10020, 'ceil', True, False, 'BIGINT', ['DOUBLE'], 'MathFunctions::ceil'],
    [10021, 'ceiling', True, False, 'BIGINT', ['DOUBLE'], 'MathFunctions::ceil'],
    [10022, 'dceil', True, False, 'BIGINT', ['DOUBLE'], 'MathFunctions::ceil'],
    [20010, 'array_contains_seq', True, False, 'BOOLEAN', ['ARRAY_INT', 'ARRAY_INT'], 'ArrayFunctions::array_contains_seq_specific<TYPE_INT>', 'ArrayFunctions::array_contains_seq_specific_prepare<TYPE_INT>', 'ArrayFunctions::array_contains_seq_specific_close<TYPE_INT>'],
    [30010, 'now', 'DATETIME', [], 'nullptr'],
]
`

func TestFunctionNames(t *testing.T) {
	names, err := FunctionNames([]byte(functionsSource))
	require.NoError(t, err)
	assert.Equal(t, []string{"abs", "array_contains_seq", "ceil", "ceiling", "dceil", "now"}, names)

	names, err = FunctionNames([]byte("other_table = []"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestParseFunctions(t *testing.T) {
	got := ParseFunctions([]byte(functionsSource))
	require.Len(t, got, 4)

	abs := got[0]
	assert.Equal(t, "abs", abs.Name)
	assert.Empty(t, abs.Alias)
	assert.Equal(t, []string{"abs(BIGINT) -> BIGINT", "abs(DOUBLE) -> DOUBLE"}, abs.Signature)
	assert.Equal(t, []string{"MathFunctions::abs_bigint", "MathFunctions::abs_double"}, abs.ImplementFns)

	arr := got[1]
	assert.Equal(t, "array_contains_seq", arr.Name)
	assert.Equal(t, []string{"array_contains_seq(ARRAY_INT, ARRAY_INT) -> BOOLEAN"}, arr.Signature)
	assert.Equal(t, []string{
		"ArrayFunctions::array_contains_seq_specific",
		"ArrayFunctions::array_contains_seq_specific_close",
		"ArrayFunctions::array_contains_seq_specific_prepare",
	}, arr.ImplementFns)

	ceil := got[2]
	assert.Equal(t, "ceil", ceil.Name)
	assert.Equal(t, []string{"ceiling", "dceil"}, ceil.Alias)
	assert.Equal(t, []string{"ceil(DOUBLE) -> BIGINT"}, ceil.Signature)

	now := got[3]
	assert.Equal(t, "now", now.Name)
	assert.Equal(t, []string{"now() -> DATETIME"}, now.Signature)
	assert.Empty(t, now.ImplementFns)
	assert.Equal(t, "Scalar", now.Module)
}

func TestPrecedingComment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"line run", "// first\n// second\nX", "first second"},
		{"blank line detaches", "// detached\n\n// attached\nX", "attached"},
		{"doc comment", "/**\n * Doc line.\n * More.\n */\nX", "Doc line. More."},
		{"block comment", "/* inline */ X", "inline"},
		{"code before", "int a = 1;\nX", ""},
		{"start of file", "X", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := len(tt.content) - 1
			assert.Equal(t, tt.want, precedingComment(tt.content, offset))
		})
	}
}

func TestFileExtractor(t *testing.T) {
	root := t.TempDir()
	writeFile := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	t.Run("no sources", func(t *testing.T) {
		_, err := NewBEConfigExtractor(root, nil).Extract(context.Background())
		assert.ErrorIs(t, err, ErrNoSources)
	})

	writeFile("be/src/common/config.h", beConfigSource)

	t.Run("missing file skipped", func(t *testing.T) {
		got, err := NewBEConfigExtractor(root, nil).Extract(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})

	t.Run("first definition wins", func(t *testing.T) {
		writeFile("be/src/common/config.cpp", `CONF_Int32(be_port, "1");`)
		got, err := NewBEConfigExtractor(root, nil).Extract(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, "9060", got[0].DefaultValue)
	})

	t.Run("functions", func(t *testing.T) {
		writeFile("gensrc/script/functions.py", functionsSource)
		ex := NewFunctionsExtractor(root, nil)
		assert.Equal(t, FunctionSources, ex.Sources())
		got, err := ex.Extract(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})
}
