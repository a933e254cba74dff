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

// Package ui provides terminal output helpers for the docsagent CLI.
//
// Colors respect --no-color and NO_COLOR and are disabled automatically when
// the output is not a TTY:
//   - Red: errors
//   - Yellow: warnings, removed lines
//   - Green: success, added lines
//   - Cyan: info, counts
//   - Bold: headers and labels
//   - Dim: paths and secondary details
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors applies the --no-color flag. fatih/color already honours
// NO_COLOR and non-TTY output on its own.
func InitColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Printer writes status lines for one command. Quiet suppresses everything
// except warnings and errors.
type Printer struct {
	Out   io.Writer
	Quiet bool
}

// NewPrinter returns a printer on stdout.
func NewPrinter(quiet bool) *Printer {
	return &Printer{Out: os.Stdout, Quiet: quiet}
}

func (p *Printer) line(c *color.Color, prefix, format string, args ...any) {
	_, _ = c.Fprintf(p.Out, prefix+format+"\n", args...)
}

// Successf prints "✓ msg" in green.
func (p *Printer) Successf(format string, args ...any) {
	if !p.Quiet {
		p.line(Green, "✓ ", format, args...)
	}
}

// Infof prints "ℹ msg" in cyan.
func (p *Printer) Infof(format string, args ...any) {
	if !p.Quiet {
		p.line(Cyan, "ℹ ", format, args...)
	}
}

// Warningf prints "⚠ msg" in yellow, even in quiet mode.
func (p *Printer) Warningf(format string, args ...any) {
	p.line(Yellow, "⚠ ", format, args...)
}

// Errorf prints "✗ msg" in red, even in quiet mode.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(Red, "✗ ", format, args...)
}

// Header prints a bold title underlined with '='.
func (p *Printer) Header(text string) {
	if p.Quiet {
		return
	}
	_, _ = Bold.Fprintln(p.Out, text)
	fmt.Fprintln(p.Out, strings.Repeat("=", len([]rune(text))))
}

// Field prints an aligned "label value" line.
func (p *Printer) Field(label string, value any) {
	if !p.Quiet {
		fmt.Fprintf(p.Out, "  %-14s %v\n", Label(label+":"), value)
	}
}

// Table prints rows under a bold header with tab-aligned columns.
func (p *Printer) Table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, Bold.Sprint(strings.Join(header, "\t")))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
}

// Label returns text in bold.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns text dimmed, for paths.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns a count in cyan.
func CountText(count int) string { return Cyan.Sprint(count) }
