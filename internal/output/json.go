// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output writes machine-readable command results for --json mode.
//
//	res, err := tracker.Update(ctx, names, true)
//	...
//	if err := output.JSON(res.Versions); err != nil {
//	    errors.FatalError(err, true)
//	}
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSON writes data to stdout with 2-space indentation.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data to w with 2-space indentation. HTML characters are not
// escaped, so markdown and "<!-- -->" markers survive unchanged.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}
