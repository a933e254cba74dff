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
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kraklabs/docsagent/pkg/items"
)

const quotedToken = `(?:'[^']*'|"[^"]*")`

var (
	// [id, 'name', True, False, 'RET', ['ARG', ...], 'backend_fn', 'prepare', 'close']
	// The two boolean flags are absent in older revisions.
	functionEntryPattern = regexp.MustCompile(`\[\s*\d+\s*,\s*(` + quotedToken + `)\s*,` +
		`(?:\s*(?:True|False)\s*,)*` +
		`\s*(` + quotedToken + `)\s*,\s*\[([^\]]*)\]` +
		`((?:\s*,\s*(?:` + quotedToken + `|\w+))*)\s*,?\s*\]`)

	functionTokenPattern = regexp.MustCompile(`'([^']*)'|"([^"]*)"|(\w+)`)
)

// rawFunction is one entry of the vectorized function table.
type rawFunction struct {
	name      string
	signature string
	impl      []string
}

func functionTable(text string) string {
	i := strings.Index(text, "vectorized_functions")
	if i < 0 {
		return ""
	}
	return text[i:]
}

func parseFunctionEntries(content []byte) []rawFunction {
	table := functionTable(string(content))
	if table == "" {
		return nil
	}

	var out []rawFunction
	for _, m := range functionEntryPattern.FindAllStringSubmatch(table, -1) {
		name := unquote(m[1])
		ret := unquote(m[2])

		var args []string
		for _, a := range functionTokenPattern.FindAllStringSubmatch(m[3], -1) {
			args = append(args, a[1]+a[2])
		}

		var impl []string
		for _, t := range functionTokenPattern.FindAllStringSubmatch(m[4], -1) {
			fn := t[1] + t[2]
			if t[3] != "" {
				// Bare identifiers (None, nullptr) carry no implementation.
				continue
			}
			if i := strings.IndexByte(fn, '<'); i >= 0 {
				fn = fn[:i]
			}
			fn = strings.TrimSpace(fn)
			if fn == "" || fn == "nullptr" {
				continue
			}
			impl = append(impl, fn)
		}

		out = append(out, rawFunction{
			name:      name,
			signature: fmt.Sprintf("%s(%s) -> %s", name, strings.Join(args, ", "), ret),
			impl:      impl,
		})
	}
	return out
}

// FunctionNames lists the function names registered in one revision of the
// function table.
func FunctionNames(content []byte) ([]string, error) {
	names := make(map[string]struct{})
	for _, f := range parseFunctionEntries(content) {
		names[f.name] = struct{}{}
	}
	return sortedKeys(names), nil
}

// ParseFunctions reads the function table and aggregates it into one item
// per function. Entries sharing the same implementation functions are
// aliases; the shortest name (then the alphabetically first) is primary.
// Overloads of the primary name are merged into its signature list.
func ParseFunctions(content []byte) []*items.FunctionItem {
	raw := parseFunctionEntries(content)

	implGroups := make(map[string][]rawFunction)
	var implOrder []string
	for _, f := range raw {
		key := strings.Join(f.impl, "|")
		if key == "" {
			key = "name:" + f.name
		}
		if _, ok := implGroups[key]; !ok {
			implOrder = append(implOrder, key)
		}
		implGroups[key] = append(implGroups[key], f)
	}

	type aggregate struct {
		signatures map[string]struct{}
		aliases    map[string]struct{}
		impl       map[string]struct{}
	}
	byName := make(map[string]*aggregate)

	for _, key := range implOrder {
		funcs := implGroups[key]
		primary := funcs[0].name
		for _, f := range funcs[1:] {
			if len(f.name) < len(primary) || (len(f.name) == len(primary) && f.name < primary) {
				primary = f.name
			}
		}

		agg, ok := byName[primary]
		if !ok {
			agg = &aggregate{
				signatures: make(map[string]struct{}),
				aliases:    make(map[string]struct{}),
				impl:       make(map[string]struct{}),
			}
			byName[primary] = agg
		}
		for _, f := range funcs {
			if f.name != primary {
				agg.aliases[f.name] = struct{}{}
			}
			agg.signatures[renameSignature(f.signature, f.name, primary)] = struct{}{}
			for _, fn := range f.impl {
				agg.impl[fn] = struct{}{}
			}
		}
	}

	out := make([]*items.FunctionItem, 0, len(byName))
	for name, agg := range byName {
		it := &items.FunctionItem{
			Name:         name,
			Alias:        sortedKeys(agg.aliases),
			Signature:    sortedKeys(agg.signatures),
			Module:       "Scalar",
			ImplementFns: sortedKeys(agg.impl),
			TestCases:    []string{},
		}
		it.SetVersions(nil)
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// renameSignature rewrites "alias(args) -> ret" as "primary(args) -> ret" so
// aliases with identical parameter lists collapse into one overload.
func renameSignature(sig, name, primary string) string {
	if name == primary {
		return sig
	}
	return primary + strings.TrimPrefix(sig, name)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
