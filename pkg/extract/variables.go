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
	"regexp"
	"strings"

	"github.com/kraklabs/docsagent/pkg/items"
)

var (
	// [modifiers] String CONSTANT = "value";
	stringConstPattern = regexp.MustCompile(`(?:(?:` + javaModifiers + `)\s+)*String\s+(\w+)\s*=\s*["']([^"']+)["']`)

	varAttrPattern = regexp.MustCompile(`@(?:VariableMgr\.)?VarAttr\s*\(([^)]+)\)`)

	// @VarAttr(...) followed by the annotated field.
	varFieldPattern = regexp.MustCompile(`(?s)@(?:VariableMgr\.)?VarAttr\s*\(([^)]+)\)\s*` +
		`(?:@\w+(?:\([^)]*\))?\s*)*` +
		`(?:(?:` + javaModifiers + `)\s+)*` +
		`([\w\[\]<>,.\s]+?)\s+(\w+)\s*(?:=\s*([^;]+))?;`)

	showParamPattern = regexp.MustCompile(`\bshow\s*=\s*(?:"([^"]+)"|'([^']+)'|([\w.]+))`)
	nameParamPattern = regexp.MustCompile(`\bname\s*=\s*(?:"([^"]+)"|'([^']+)'|([\w.]+))`)
)

// stringConstants maps the String constants of a Java file to their values.
func stringConstants(text string) map[string]string {
	out := make(map[string]string)
	for _, m := range stringConstPattern.FindAllStringSubmatch(text, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// resolveParam reads a show= or name= parameter, resolving constant
// references. Unresolvable references yield "".
func resolveParam(p *regexp.Regexp, params string, constants map[string]string) (string, bool) {
	m := p.FindStringSubmatch(params)
	if m == nil {
		return "", false
	}
	switch {
	case m[1] != "":
		return m[1], true
	case m[2] != "":
		return m[2], true
	}
	ref := m[3]
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		ref = ref[i+1:]
	}
	v, ok := constants[ref]
	return v, ok
}

// variableShowName returns the user-visible name of a @VarAttr annotation:
// show= when present, name= otherwise.
func variableShowName(params string, constants map[string]string) string {
	if showParamPattern.MatchString(params) {
		v, _ := resolveParam(showParamPattern, params, constants)
		return v
	}
	v, _ := resolveParam(nameParamPattern, params, constants)
	return v
}

// VariableNames lists the visible variable names of one revision of a
// SessionVariable/GlobalVariable source.
func VariableNames(content []byte) ([]string, error) {
	text := string(content)
	constants := stringConstants(text)
	names := make(map[string]struct{})
	for _, m := range varAttrPattern.FindAllStringSubmatch(text, -1) {
		if name := variableShowName(m[1], constants); name != "" {
			names[name] = struct{}{}
		}
	}
	return sortedKeys(names), nil
}

// ParseVariables extracts @VarAttr fields. Files named GlobalVariable are
// global scope, everything else is session scope.
func ParseVariables(content []byte, path string) []*items.VariableItem {
	text := string(content)
	constants := stringConstants(text)
	scope := "Session"
	if strings.Contains(path, "GlobalVariable") {
		scope = "Global"
	}

	var out []*items.VariableItem
	for _, loc := range varFieldPattern.FindAllStringSubmatchIndex(text, -1) {
		group := func(i int) string {
			if loc[2*i] < 0 {
				return ""
			}
			return text[loc[2*i]:loc[2*i+1]]
		}
		params := group(1)
		name, ok := resolveParam(nameParamPattern, params, constants)
		if !ok || name == "" {
			continue
		}
		show := variableShowName(params, constants)
		if show == "" {
			show = name
		}

		parsed := parseAnnotationParams(params)
		comment := parsed["comment"]
		if comment == "" {
			comment = precedingComment(text, loc[0])
		}

		it := &items.VariableItem{
			Name:         name,
			Show:         show,
			Type:         collapseSpace(group(2)),
			DefaultValue: cleanJavaDefault(group(4)),
			Comment:      comment,
			Invisible:    strings.Contains(parsed["flag"], "INVISIBLE"),
			Scope:        scope,
		}
		it.SetVersions(nil)
		out = append(out, it)
	}
	return out
}
