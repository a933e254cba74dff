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

	"github.com/kraklabs/docsagent/pkg/items"
)

var (
	// CONF_Int32(be_port, "9060"); CONF_mString(x, "a"); CONF_String_enum(x, "a", "a,b")
	beConfPattern = regexp.MustCompile(`CONF_(m)?(\w+)\s*\(\s*(\w+)\s*,\s*"([^"]*)"\s*(?:,\s*"([^"]*)")?\s*\)`)
	// CONF_Alias(alias_name, target_name)
	beAliasPattern = regexp.MustCompile(`CONF_Alias\s*\(\s*(\w+)\s*,\s*(\w+)\s*\)`)
)

var beTypeNames = map[string]string{
	"Int16":       "short",
	"Int32":       "int",
	"Int64":       "long",
	"Bool":        "boolean",
	"String":      "string",
	"Strings":     "string[]",
	"String_enum": "string",
	"Double":      "double",
}

// ParseBEConfig parses CONF_ macro definitions. An aliased parameter is
// reported under its alias.
func ParseBEConfig(content []byte, path string) []*items.ConfigItem {
	text := string(content)

	aliasOf := make(map[string]string)
	for _, m := range beAliasPattern.FindAllStringSubmatch(text, -1) {
		aliasOf[m[2]] = m[1]
	}

	var out []*items.ConfigItem
	for _, loc := range beConfPattern.FindAllStringSubmatchIndex(text, -1) {
		group := func(i int) string {
			if loc[2*i] < 0 {
				return ""
			}
			return text[loc[2*i]:loc[2*i+1]]
		}
		mutable := group(1) != ""
		rawType := group(2)
		name := group(3)
		def := group(4)

		typ, ok := beTypeNames[rawType]
		if !ok {
			typ = rawType
		}
		if rawType == "String_enum" && group(5) != "" {
			def = fmt.Sprintf("%s (options: %s)", def, group(5))
		}
		if alias, ok := aliasOf[name]; ok {
			name = alias
		}

		it := &items.ConfigItem{
			Name:         name,
			Type:         typ,
			DefaultValue: def,
			Comment:      precedingComment(text, loc[0]),
			IsMutable:    fmt.Sprint(mutable),
			Scope:        "BE",
			Define:       fmt.Sprintf("%s:%d", path, lineAt(text, loc[0])),
		}
		it.SetVersions(nil)
		out = append(out, it)
	}
	return out
}

// BEConfigNames lists the parameter names defined in one revision of a BE
// config source, aliases included.
func BEConfigNames(content []byte) ([]string, error) {
	text := string(content)
	names := make(map[string]struct{})
	for _, m := range beConfPattern.FindAllStringSubmatch(text, -1) {
		names[m[3]] = struct{}{}
	}
	for _, m := range beAliasPattern.FindAllStringSubmatch(text, -1) {
		names[m[1]] = struct{}{}
	}
	return sortedKeys(names), nil
}
