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
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/docsagent/internal/errors"
	"github.com/kraklabs/docsagent/pkg/domains"
)

// runExtract refreshes a domain's meta file from source and, for the config
// domains, from the published reference pages.
func (a *app) runExtract(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	domain := domainFlag(fs)
	docsDir := fs.String("docs-dir", "", "Published docs root containing en/, zh/, ja/ (default: <docs repo>/docs)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: docsagent extract -t <domain> [options]

Description:
  Extract items from the StarRocks source tree, merge them with the saved
  metadata and, for fe_config and be_config, import documentation, catalogs
  and versions from the already published reference pages.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  docsagent extract -t be_config
  docsagent extract -t fe_config --docs-dir ~/src/starrocks/docs
`)
	}
	_ = fs.Parse(args)

	if _, err := lookupDomain(*domain); err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	dir := *docsDir
	if dir == "" {
		dir = filepath.Join(cfg.DocsRepoPath(), "docs")
	}

	res, err := domains.Refresh(ctx, *domain, cfg, dir, a.logger)
	if err != nil {
		return errors.NewInternalError(
			fmt.Sprintf("Extraction of %s failed", *domain),
			err.Error(),
			"Check that STARROCKS_HOME points at a StarRocks checkout",
			err,
		)
	}

	if done, err := a.emitJSON(res); done {
		return err
	}
	a.printer.Header(fmt.Sprintf("Extracted %s", *domain))
	a.printer.Field("Extracted", res.Extracted)
	a.printer.Field("Imported", res.Imported)
	a.printer.Field("Saved", res.Saved)
	a.printer.Field("Meta file", res.MetaPath)
	return nil
}
