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

package items

import "strings"

// DefaultCatalog holds items nobody has classified.
const DefaultCatalog = "Other"

// Catalogs lists the configuration catalogs in the order they appear in the
// published documents.
var Catalogs = []string{
	"Logging",
	"Server",
	"Metadata and cluster management",
	"User, role, and privilege",
	"Query engine",
	"Loading and unloading",
	"Storage",
	"Shared-data",
	"Data Lake",
	"Other",
}

var catalogTitles = map[string]map[string]string{
	"Logging":                         {LangEN: "Logging", LangZH: "日志记录", LangJA: "ロギング"},
	"Server":                          {LangEN: "Server", LangZH: "服务器", LangJA: "サーバー"},
	"Metadata and cluster management": {LangEN: "Metadata and cluster management", LangZH: "元数据和集群管理", LangJA: "メタデータとクラスタ管理"},
	"User, role, and privilege":       {LangEN: "User, role, and privilege", LangZH: "用户、角色和权限", LangJA: "ユーザー、役割、特権"},
	"Query engine":                    {LangEN: "Query engine", LangZH: "查询引擎", LangJA: "クエリエンジン"},
	"Loading and unloading":           {LangEN: "Loading and unloading", LangZH: "加载和卸载", LangJA: "ロードとアンロード"},
	"Storage":                         {LangEN: "Storage", LangZH: "存储", LangJA: "ストレージ"},
	"Shared-data":                     {LangEN: "Shared-data", LangZH: "共享数据", LangJA: "共有データ"},
	"Data Lake":                       {LangEN: "Data Lake", LangZH: "数据湖", LangJA: "データレイク"},
	"Other":                           {LangEN: "Other", LangZH: "其他", LangJA: "その他"},
}

// IsCatalog reports whether name is one of Catalogs.
func IsCatalog(name string) bool {
	_, ok := catalogTitles[name]
	return ok
}

// CatalogTitle returns the heading of catalog in lang, falling back to the
// English name.
func CatalogTitle(catalog, lang string) string {
	titles, ok := catalogTitles[catalog]
	if !ok {
		return catalog
	}
	if t, ok := titles[lang]; ok {
		return t
	}
	return catalog
}

// NormalizeCatalog maps a heading in any supported language to its canonical
// catalog name. Unknown headings yield "".
func NormalizeCatalog(text string) string {
	text = strings.TrimSpace(text)
	for _, name := range Catalogs {
		for _, title := range catalogTitles[name] {
			if strings.EqualFold(text, title) {
				return name
			}
		}
	}
	return ""
}

// FunctionCatalogs lists the SQL function categories. Each one is a
// directory under <lang>/functions/ in the published docs.
var FunctionCatalogs = []string{
	"aggregate-functions",
	"array-functions",
	"binary-functions",
	"bit-functions",
	"bitmap-functions",
	"condition-functions",
	"cryptographic-functions",
	"date-time-functions",
	"dict-functions",
	"hash-functions",
	"json-functions",
	"Lambda",
	"like-predicate-functions",
	"map-functions",
	"math-functions",
	"percentile-functions",
	"spatial-functions",
	"string-functions",
	"struct-functions",
	"table-functions",
	"utility-functions",
	"window-functions",
}

// NormalizeFunctionCatalog maps an answer such as "Math Functions" or
// "math-functions" to a FunctionCatalogs entry, or "" when none matches.
func NormalizeFunctionCatalog(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	key = strings.Trim(key, "`*\"'. ")
	key = strings.Join(strings.Fields(strings.ReplaceAll(key, "_", " ")), "-")
	for _, c := range FunctionCatalogs {
		lc := strings.ToLower(c)
		if key == lc || key+"-functions" == lc || key == strings.TrimSuffix(lc, "-functions") {
			return c
		}
	}
	return ""
}
