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
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgressConfig(t *testing.T) {
	tests := []struct {
		name        string
		globals     GlobalFlags
		wantNoColor bool
	}{
		{name: "default flags", globals: GlobalFlags{}},
		{name: "quiet", globals: GlobalFlags{Quiet: true}},
		{name: "json", globals: GlobalFlags{JSON: true, Quiet: true}},
		{name: "no color propagates", globals: GlobalFlags{NoColor: true}, wantNoColor: true},
		{name: "debug does not matter", globals: GlobalFlags{Debug: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewProgressConfig(tt.globals)
			// stderr is not a TTY under go test
			assert.False(t, cfg.Enabled)
			assert.Equal(t, tt.wantNoColor, cfg.NoColor)
			assert.Equal(t, os.Stderr, cfg.Writer)
		})
	}
}

func TestNewProgressBar(t *testing.T) {
	assert.Nil(t, NewProgressBar(ProgressConfig{}, 100, "Test"))

	var buf bytes.Buffer
	bar := NewProgressBar(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}, 10, "Test")
	require.NotNil(t, bar)
	require.NoError(t, bar.Set(5))
	require.NoError(t, bar.Finish())

	empty := NewProgressBar(ProgressConfig{Enabled: true, Writer: &buf}, 0, "Empty")
	require.NotNil(t, empty)
	_ = empty.Finish()
}

func TestNewSpinner(t *testing.T) {
	assert.Nil(t, NewSpinner(ProgressConfig{}, "Test"))

	var buf bytes.Buffer
	spinner := NewSpinner(ProgressConfig{Enabled: true, Writer: &buf}, "Test")
	require.NotNil(t, spinner)
	_ = spinner.Add(1)
	_ = spinner.Finish()
}

func TestStageDescription(t *testing.T) {
	tests := []struct {
		stage string
		want  string
	}{
		{"generate", "Generating docs"},
		{"translate en->zh", "Translating en->zh"},
		{"translate zh->en", "Translating zh->en"},
		{"custom", "custom"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			assert.Equal(t, tt.want, stageDescription(tt.stage))
		})
	}
}

func TestStageProgress(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		s := newStageProgress(ProgressConfig{})
		s.Update("generate", 1, 2)
		assert.Nil(t, s.bar)
		s.Finish()
	})

	t.Run("new stage replaces the bar", func(t *testing.T) {
		var buf bytes.Buffer
		s := newStageProgress(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true})
		s.Update("generate", 1, 4)
		first := s.bar
		require.NotNil(t, first)
		s.Update("generate", 2, 4)
		assert.Same(t, first, s.bar)

		s.Update("translate en->zh", 1, 3)
		assert.NotSame(t, first, s.bar)
		assert.Equal(t, "translate en->zh", s.stage)

		s.Finish()
		assert.Nil(t, s.bar)
		assert.Empty(t, s.stage)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		var buf bytes.Buffer
		s := newStageProgress(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true})
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Update("generate", i+1, 8)
			}()
		}
		wg.Wait()
		s.Finish()
	})
}

func TestTagProgress(t *testing.T) {
	onTag, finish := tagProgress(ProgressConfig{})
	assert.Nil(t, onTag)
	finish()

	var buf bytes.Buffer
	onTag, finish = tagProgress(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true})
	require.NotNil(t, onTag)
	onTag("3.3", "3.3.1")
	onTag("3.4", "3.4.0")
	finish()
}
