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
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/kraklabs/docsagent/pkg/items"
)

const javaModifiers = `public|protected|private|static|final|transient|volatile|synchronized|native|strictfp`

var (
	feFieldPattern = regexp.MustCompile(`(?s)@ConfField\s*(?:\(([^)]*)\))?\s*` +
		`(?:@\w+(?:\([^)]*\))?\s*)*` +
		`(?:public|private|protected)?\s*static\s+(?:final\s+)?` +
		`([\w\[\]<>,\s]+?)\s+(\w+)\s*=\s*([^;]+);`)

	feNamePattern = regexp.MustCompile(`(?s)@ConfField\s*(?:\([^)]*\))?\s*` +
		`(?:@\w+(?:\([^)]*\))?\s*)*` +
		`(?:(?:` + javaModifiers + `)\s+)*` +
		`[\w\[\]<>,\s]+?\s+(\w+)\s*=\s*[^;]+;`)

	// key = "value", key = 'v', key = true
	annotationParamPattern = regexp.MustCompile(`(\w+)\s*=\s*("(?:[^"\\]|\\.)*"|'[^']*'|[^,]*)`)
)

// FEConfigParser parses @ConfField fields of Java config classes. It walks a
// tree-sitter syntax tree and falls back to pattern matching when the tree
// yields nothing.
type FEConfigParser struct {
	logger *slog.Logger
}

// NewFEConfigParser creates a parser. A nil logger uses slog.Default().
func NewFEConfigParser(logger *slog.Logger) *FEConfigParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &FEConfigParser{logger: logger}
}

// Parse extracts the configuration items of one Java file.
func (p *FEConfigParser) Parse(ctx context.Context, content []byte, path string) ([]*items.ConfigItem, error) {
	if !strings.Contains(string(content), "@ConfField") {
		return nil, nil
	}

	out, err := p.parseTree(ctx, content, path)
	if err != nil {
		p.logger.Warn("extract.fe.treesitter_failed", "path", path, "err", err)
	}
	if len(out) == 0 {
		p.logger.Debug("extract.fe.regex_fallback", "path", path)
		out = ParseFEConfigRegex(content, path)
	}
	return out, nil
}

func (p *FEConfigParser) parseTree(ctx context.Context, content []byte, path string) ([]*items.ConfigItem, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.logger.Debug("extract.fe.syntax_errors", "path", path)
	}

	var out []*items.ConfigItem
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "field_declaration" {
			if it := confFieldItem(n, content, path); it != nil {
				out = append(out, it)
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return out, nil
}

// confFieldItem converts a static field annotated with @ConfField.
func confFieldItem(n *sitter.Node, src []byte, path string) *items.ConfigItem {
	var modifiers *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == "modifiers" {
			modifiers = c
			break
		}
	}
	if modifiers == nil {
		return nil
	}

	var confField *sitter.Node
	static := false
	for i := 0; i < int(modifiers.ChildCount()); i++ {
		c := modifiers.Child(i)
		switch c.Type() {
		case "static":
			static = true
		case "marker_annotation", "annotation":
			if name := c.ChildByFieldName("name"); name != nil && name.Content(src) == "ConfField" {
				confField = c
			}
		}
	}
	if confField == nil || !static {
		return nil
	}

	typeNode := n.ChildByFieldName("type")
	decl := n.ChildByFieldName("declarator")
	if typeNode == nil || decl == nil {
		return nil
	}
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	def := ""
	if v := decl.ChildByFieldName("value"); v != nil {
		def = cleanJavaDefault(v.Content(src))
	}

	params := map[string]string{}
	if args := confField.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			pair := args.NamedChild(i)
			if pair.Type() != "element_value_pair" {
				continue
			}
			key, val := pair.ChildByFieldName("key"), pair.ChildByFieldName("value")
			if key != nil && val != nil {
				params[key.Content(src)] = unquote(val.Content(src))
			}
		}
	}

	comment := params["comment"]
	if comment == "" {
		comment = nodeComment(n, src)
	}
	mutable := params["mutable"]
	if mutable == "" {
		mutable = "false"
	}

	it := &items.ConfigItem{
		Name:         nameNode.Content(src),
		Type:         collapseSpace(typeNode.Content(src)),
		DefaultValue: def,
		Comment:      comment,
		IsMutable:    mutable,
		Scope:        "FE",
		Define:       fmt.Sprintf("%s:%d", path, n.StartPoint().Row+1),
	}
	it.SetVersions(nil)
	return it
}

// nodeComment collects the comment nodes directly above n. A blank line ends
// the run.
func nodeComment(n *sitter.Node, src []byte) string {
	var parts []string
	row := n.StartPoint().Row
	for prev := n.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		switch prev.Type() {
		case "line_comment", "block_comment", "comment":
		default:
			prev = nil
		}
		if prev == nil || prev.EndPoint().Row+1 < row {
			break
		}
		text := prev.Content(src)
		parts = append(parts, text)
		if strings.HasPrefix(text, "/*") {
			break
		}
		row = prev.StartPoint().Row
	}

	var lines []string
	for i := len(parts) - 1; i >= 0; i-- {
		text := parts[i]
		if strings.HasPrefix(text, "/*") {
			lines = append(lines, cleanBlockComment(strings.TrimSuffix(text[2:], "*/")))
			continue
		}
		lines = append(lines, strings.TrimSpace(strings.TrimLeft(text, "/")))
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

// ParseFEConfigRegex is the pattern-based @ConfField parser.
func ParseFEConfigRegex(content []byte, path string) []*items.ConfigItem {
	text := string(content)
	var out []*items.ConfigItem
	for _, loc := range feFieldPattern.FindAllStringSubmatchIndex(text, -1) {
		group := func(i int) string {
			if loc[2*i] < 0 {
				return ""
			}
			return text[loc[2*i]:loc[2*i+1]]
		}
		params := parseAnnotationParams(group(1))
		comment := params["comment"]
		if comment == "" {
			comment = precedingComment(text, loc[0])
		}
		mutable := params["mutable"]
		if mutable == "" {
			mutable = "false"
		}
		it := &items.ConfigItem{
			Name:         group(3),
			Type:         collapseSpace(group(2)),
			DefaultValue: cleanJavaDefault(group(4)),
			Comment:      comment,
			IsMutable:    mutable,
			Scope:        "FE",
			Define:       fmt.Sprintf("%s:%d", path, lineAt(text, loc[0])),
		}
		it.SetVersions(nil)
		out = append(out, it)
	}
	return out
}

// FEConfigNames lists the @ConfField names in one revision of Config.java.
func FEConfigNames(content []byte) ([]string, error) {
	names := make(map[string]struct{})
	for _, m := range feNamePattern.FindAllStringSubmatch(string(content), -1) {
		names[m[1]] = struct{}{}
	}
	return sortedKeys(names), nil
}

func parseAnnotationParams(s string) map[string]string {
	params := make(map[string]string)
	for _, m := range annotationParamPattern.FindAllStringSubmatch(s, -1) {
		params[m[1]] = unquote(strings.TrimSpace(m[2]))
	}
	return params
}

// cleanJavaDefault normalizes an initializer expression for display.
func cleanJavaDefault(expr string) string {
	return unquote(collapseSpace(expr))
}
