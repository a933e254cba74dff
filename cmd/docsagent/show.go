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
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kraklabs/docsagent/internal/errors"
)

const defaultWidth = 80

// runShow renders a generated markdown file. Output that is not a terminal,
// or --raw, gets the file unchanged.
func (a *app) runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	raw := fs.Bool("raw", false, "Print the markdown source")
	width := fs.Int("width", 0, "Wrap width (default: terminal width)")
	style := fs.String("style", "dark", "Glamour style: dark, light, notty, ascii")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: docsagent show [options] <file>

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  docsagent show docs/output/en/BE_configuration.md
  docsagent show --raw docs/output/zh/System_variable.md
`)
	}
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.NewInputError("Expected one file", "show takes exactly one markdown file", "Run 'docsagent show --help'")
	}
	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError(fmt.Sprintf("%s not found", path), err.Error(),
				"Run 'docsagent generate' first or check the path")
		}
		return errors.NewPermissionError(fmt.Sprintf("Cannot read %s", path), err.Error(), "", err)
	}

	fd := int(os.Stdout.Fd())
	if *raw || a.globals.NoColor || !term.IsTerminal(fd) {
		_, err := a.out.Write(content)
		return err
	}
	w := *width
	if w <= 0 {
		w = terminalWidth(fd)
	}
	rendered, err := renderMarkdown(string(content), *style, w)
	if err != nil {
		a.logger.Warn("show.render_failed", "err", err)
		_, err = a.out.Write(content)
		return err
	}
	_, err = fmt.Fprint(a.out, rendered)
	return err
}

func terminalWidth(fd int) int {
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

func renderMarkdown(content, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(content)
}
