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

// Package items defines the documentable item types (configuration
// parameters, system variables, SQL functions), their catalogs, and the JSON
// meta store that keeps generated documents between runs.
package items

import (
	"sort"
	"strings"
)

// Languages the pipeline knows how to produce.
const (
	LangEN = "en"
	LangZH = "zh"
	LangJA = "ja"
)

// Item is a unit of documentation.
type Item interface {
	// Key identifies the item in meta files.
	Key() string
	// VersionKey is the name the version tracker records history under.
	VersionKey() string
	Docs() map[string]string
	Doc(lang string) string
	SetDoc(lang, doc string)
	Versions() []string
	SetVersions(v []string)
	CatalogName() string
	Locations() []string
	SetLocations(locs []string)
	// Inherit copies the state that only exists in saved meta (documents,
	// catalog, usage locations, versions) from prev.
	Inherit(prev Item)
}

// Meta holds the fields every item type shares.
type Meta struct {
	UseLocations []string          `json:"useLocations"`
	Documents    map[string]string `json:"documents"`
	Catalog      string            `json:"catalog,omitempty"`
	Version      []string          `json:"version"`
}

func (d *Meta) Docs() map[string]string { return d.Documents }

func (d *Meta) Doc(lang string) string {
	return strings.TrimSpace(d.Documents[lang])
}

func (d *Meta) SetDoc(lang, text string) {
	if d.Documents == nil {
		d.Documents = make(map[string]string)
	}
	d.Documents[lang] = text
}

func (d *Meta) Versions() []string { return d.Version }

func (d *Meta) SetVersions(v []string) {
	if v == nil {
		v = []string{}
	}
	d.Version = v
}

func (d *Meta) Locations() []string { return d.UseLocations }

func (d *Meta) SetLocations(locs []string) { d.UseLocations = locs }

func (d *Meta) SetCatalog(c string) { d.Catalog = c }

func (d *Meta) CatalogName() string {
	if d.Catalog == "" {
		return DefaultCatalog
	}
	return d.Catalog
}

func (d *Meta) inherit(prev *Meta) {
	if len(prev.Documents) > 0 {
		d.Documents = prev.Documents
	}
	if prev.Catalog != "" {
		d.Catalog = prev.Catalog
	}
	if len(prev.UseLocations) > 0 && len(d.UseLocations) == 0 {
		d.UseLocations = prev.UseLocations
	}
	if len(prev.Version) > 0 && len(d.Version) == 0 {
		d.Version = prev.Version
	}
}

// ConfigItem is an FE or BE configuration parameter.
type ConfigItem struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue"`
	Comment      string `json:"comment"`
	IsMutable    string `json:"isMutable"` // "true" or "false"
	Scope        string `json:"scope"`     // "FE" or "BE"
	Define       string `json:"define"`
	Meta
}

func (c *ConfigItem) Key() string        { return c.Name }
func (c *ConfigItem) VersionKey() string { return c.Name }

func (c *ConfigItem) Inherit(prev Item) {
	if p, ok := prev.(*ConfigItem); ok {
		c.Meta.inherit(&p.Meta)
	}
}

// VariableItem is a session or global system variable.
type VariableItem struct {
	Name         string `json:"name"`
	Show         string `json:"show"`
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue"`
	Comment      string `json:"comment"`
	Invisible    bool   `json:"invisible"`
	Scope        string `json:"scope"` // "Session" or "Global"
	Meta
}

func (v *VariableItem) Key() string { return v.Name }

// VersionKey is the user-visible name.
func (v *VariableItem) VersionKey() string {
	if v.Show != "" {
		return v.Show
	}
	return v.Name
}

func (v *VariableItem) Inherit(prev Item) {
	if p, ok := prev.(*VariableItem); ok {
		v.Meta.inherit(&p.Meta)
	}
}

// FunctionItem is a SQL scalar function with its aliases and overloads.
type FunctionItem struct {
	Name         string   `json:"name"`
	Alias        []string `json:"alias"`
	Signature    []string `json:"signature"`
	Module       string   `json:"module"`
	ImplementFns []string `json:"implement_fns"`
	TestCases    []string `json:"testCases"`
	Meta
}

func (f *FunctionItem) Key() string        { return f.Name }
func (f *FunctionItem) VersionKey() string { return f.Name }

// CatalogName returns the function category. Unlike config items, functions
// have no default category.
func (f *FunctionItem) CatalogName() string { return f.Catalog }

func (f *FunctionItem) Inherit(prev Item) {
	p, ok := prev.(*FunctionItem)
	if !ok {
		return
	}
	f.Meta.inherit(&p.Meta)
	if len(f.TestCases) == 0 {
		f.TestCases = p.TestCases
	}
}

// Filter returns the items whose key or version key is in names. An empty
// names list returns items unchanged.
func Filter[T Item](list []T, names []string) []T {
	if len(names) == 0 {
		return list
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []T
	for _, it := range list {
		_, byKey := want[it.Key()]
		_, byVersion := want[it.VersionKey()]
		if byKey || byVersion {
			out = append(out, it)
		}
	}
	return out
}

// Exclude drops the items whose key or version key is in ignore.
func Exclude[T Item](list []T, ignore map[string]struct{}) []T {
	if len(ignore) == 0 {
		return list
	}
	out := make([]T, 0, len(list))
	for _, it := range list {
		if _, ok := ignore[it.Key()]; ok {
			continue
		}
		if _, ok := ignore[it.VersionKey()]; ok {
			continue
		}
		out = append(out, it)
	}
	return out
}

// VersionKeys returns the version key of every item, in order.
func VersionKeys[T Item](list []T) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = it.VersionKey()
	}
	return out
}

// SortByKey sorts items by key.
func SortByKey[T Item](list []T) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Key() < list[j].Key() })
}
