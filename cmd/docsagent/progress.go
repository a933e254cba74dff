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
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled is false with --json or --quiet, and when stderr is not a TTY.
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// NewProgressConfig creates a progress configuration based on global flags and TTY detection.
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd())

	return ProgressConfig{
		Enabled: enabled,
		Writer:  os.Stderr,
		NoColor: globals.NoColor,
	}
}

// NewProgressBar creates a progress bar with consistent styling.
// Returns nil if progress is disabled.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// NewSpinner creates an indeterminate progress spinner for operations
// where the total count is unknown. Returns nil if progress is disabled.
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

// stageProgress shows one bar per pipeline stage, replacing the bar whenever
// the stage name changes. It is safe for concurrent use.
type stageProgress struct {
	cfg   ProgressConfig
	mu    sync.Mutex
	stage string
	bar   *progressbar.ProgressBar
}

func newStageProgress(cfg ProgressConfig) *stageProgress {
	return &stageProgress{cfg: cfg}
}

// Update matches the pipeline Progress callback.
func (s *stageProgress) Update(stage string, done, total int) {
	if !s.cfg.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar == nil || stage != s.stage {
		s.finishLocked()
		s.stage = stage
		s.bar = NewProgressBar(s.cfg, int64(total), stageDescription(stage))
	}
	if s.bar != nil {
		_ = s.bar.Set(done)
	}
}

// stageDescription maps pipeline stage names to bar labels.
func stageDescription(stage string) string {
	switch {
	case stage == "generate":
		return "Generating docs"
	case strings.HasPrefix(stage, "translate "):
		return "Translating " + strings.TrimPrefix(stage, "translate ")
	default:
		return stage
	}
}

// Finish clears the current bar.
func (s *stageProgress) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

func (s *stageProgress) finishLocked() {
	if s.bar != nil {
		_ = s.bar.Finish()
		s.bar = nil
	}
	s.stage = ""
}

// tagProgress returns a tracker OnTag callback driving a spinner, and a
// function that clears it.
func tagProgress(cfg ProgressConfig) (func(branch, tag string), func()) {
	spinner := NewSpinner(cfg, "Scanning tags")
	if spinner == nil {
		return nil, func() {}
	}
	var mu sync.Mutex
	onTag := func(branch, tag string) {
		mu.Lock()
		defer mu.Unlock()
		spinner.Describe("Scanning " + tag)
		_ = spinner.Add(1)
	}
	return onTag, func() { _ = spinner.Finish() }
}
