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

package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/docsagent/internal/config"
)

func TestParseGlobals(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		want     GlobalFlags
		command  string
		rest     []string
		wantHelp bool
	}{
		{
			name:    "defaults",
			args:    []string{"generate", "-t", "be_config"},
			want:    GlobalFlags{ConfigPath: config.DefaultPath},
			command: "generate",
			rest:    []string{"-t", "be_config"},
		},
		{
			name:    "json implies quiet",
			args:    []string{"--json", "versions"},
			want:    GlobalFlags{JSON: true, Quiet: true, ConfigPath: config.DefaultPath},
			command: "versions",
			rest:    []string{},
		},
		{
			name:    "short flags and metrics",
			args:    []string{"-q", "-c", "/etc/docsagent.yaml", "--metrics-addr", ":9090", "--no-color", "--debug", "extract", "-t", "variables"},
			want:    GlobalFlags{Quiet: true, NoColor: true, Debug: true, ConfigPath: "/etc/docsagent.yaml", MetricsAddr: ":9090"},
			command: "extract",
			rest:    []string{"-t", "variables"},
		},
		{
			name:    "command flags stay with the command",
			args:    []string{"generate", "--json"},
			want:    GlobalFlags{ConfigPath: config.DefaultPath},
			command: "generate",
			rest:    []string{"--json"},
		},
		{
			name:    "version flag",
			args:    []string{"--version"},
			want:    GlobalFlags{ConfigPath: config.DefaultPath},
			command: "version",
		},
		{
			name:     "no command",
			args:     []string{},
			want:     GlobalFlags{ConfigPath: config.DefaultPath},
			wantHelp: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			g, command, rest, err := parseGlobals(tt.args, &stderr)
			if tt.wantHelp {
				require.ErrorIs(t, err, flag.ErrHelp)
				assert.Contains(t, stderr.String(), "Commands:")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
			assert.Equal(t, tt.command, command)
			if tt.rest != nil {
				assert.Equal(t, tt.rest, rest)
			}
		})
	}
}

func TestParseGlobalsUnknownFlag(t *testing.T) {
	_, _, _, err := parseGlobals([]string{"--bogus", "generate"}, io.Discard)
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		globals GlobalFlags
		want    slog.Level
	}{
		{"default", GlobalFlags{}, slog.LevelInfo},
		{"debug", GlobalFlags{Debug: true}, slog.LevelDebug},
		{"quiet", GlobalFlags{Quiet: true}, slog.LevelWarn},
		{"debug wins over quiet", GlobalFlags{Debug: true, Quiet: true}, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tt.globals, &buf)
			ctx := t.Context()
			assert.True(t, logger.Enabled(ctx, tt.want))
			assert.False(t, logger.Enabled(ctx, tt.want-1))
		})
	}
}
