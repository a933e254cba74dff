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
	"errors"
	"log/slog"

	"github.com/kraklabs/docsagent/internal/config"
	"github.com/kraklabs/docsagent/pkg/docsimport"
	"github.com/kraklabs/docsagent/pkg/extract"
	"github.com/kraklabs/docsagent/pkg/items"
	"github.com/kraklabs/docsagent/pkg/pipeline"
)

// RefreshResult counts the items of a refresh.
type RefreshResult struct {
	Domain    string `json:"domain"`
	Extracted int    `json:"extracted"`
	Imported  int    `json:"imported"`
	Saved     int    `json:"saved"`
	MetaPath  string `json:"meta_path"`
}

// Refresh re-extracts the items of domain from source and merges them into
// the meta store. The published reference pages under docsDir/<lang>/ then
// seed documents, catalogs and versions; a missing English page only skips
// the import.
func Refresh(ctx context.Context, domain string, cfg *config.Config, docsDir string, logger *slog.Logger) (*RefreshResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := Lookup(domain)
	if err != nil {
		return nil, err
	}
	logger = logger.With("domain", domain)
	res := &RefreshResult{Domain: domain, MetaPath: cfg.MetaPath(domain)}
	im := docsimport.New(docsDir, logger)

	switch domain {
	case FEConfig, BEConfig:
		ex := extract.NewFEConfigExtractor(cfg.StarRocksHome, logger)
		scope := "FE"
		if domain == BEConfig {
			ex, scope = extract.NewBEConfigExtractor(cfg.StarRocksHome, logger), "BE"
		}
		store := items.NewStore[*items.ConfigItem](res.MetaPath, logger)
		err = refreshAndSeed(ctx, ex, store, info, res, logger, func() ([]*items.ConfigItem, error) {
			return im.ImportConfig(scope)
		})
	case Variables:
		store := items.NewStore[*items.VariableItem](res.MetaPath, logger)
		ex := extract.NewVariablesExtractor(cfg.StarRocksHome, logger)
		err = refreshAndSeed(ctx, ex, store, info, res, logger, im.ImportVariables)
	default:
		store := items.NewStore[*items.FunctionItem](res.MetaPath, logger)
		ex := extract.NewFunctionsExtractor(cfg.StarRocksHome, logger)
		err = refreshAndSeed(ctx, ex, store, info, res, logger, im.ImportFunctions)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func refreshAndSeed[T docsimport.Seedable](
	ctx context.Context,
	ex pipeline.Extractor[T],
	store pipeline.MetaStore[T],
	info Info,
	res *RefreshResult,
	logger *slog.Logger,
	importDocs func() ([]T, error),
) error {
	merged, err := refresh(ctx, ex, store, info, res)
	if err != nil {
		return err
	}
	imported, err := importDocs()
	switch {
	case errors.Is(err, docsimport.ErrPrimaryMissing):
		logger.Warn("domains.refresh.import_skipped", "err", err)
	case err != nil:
		return err
	default:
		res.Imported = len(imported)
		merged = docsimport.Seed(merged, imported)
	}
	return save(store, merged, res, logger)
}

func refresh[T items.Item](ctx context.Context, ex pipeline.Extractor[T], store pipeline.MetaStore[T], info Info, res *RefreshResult) ([]T, error) {
	fresh, err := ex.Extract(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := store.Load()
	if err != nil {
		return nil, err
	}
	res.Extracted = len(fresh)
	return items.Merge(fresh, saved, info.KeepOrphans), nil
}

func save[T items.Item](store pipeline.MetaStore[T], list []T, res *RefreshResult, logger *slog.Logger) error {
	if err := store.Save(list); err != nil {
		return err
	}
	res.Saved = len(list)
	logger.Info("domains.refresh.saved", "extracted", res.Extracted, "imported", res.Imported, "saved", res.Saved, "path", res.MetaPath)
	return nil
}
