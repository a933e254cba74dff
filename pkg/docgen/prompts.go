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

package docgen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/kraklabs/docsagent/pkg/items"
)

const configSystemPrompt = `You are a technical documentation writer for the StarRocks database system.

Your task is to generate clear, concise, and accurate documentation for configuration items.

Requirements:
- Write in professional English
- Use Markdown format
- Base the description on the provided comment and usage locations
- Be specific and avoid vague statements
- Focus on practical usage and implications
- Keep the documentation under 200 words

Output only the documentation content, no additional commentary, in exactly this format:

##### <config name>

- Default: <default value>
- Type: <config type>
- Unit: <unit if applicable, else N/A>
- Is mutable: <Yes or No>
- Description: <description>
- Introduced in: <version or ->

Example:

##### black_host_history_sec

- Default: 2 * 60
- Type: Int
- Unit: Seconds
- Is mutable: Yes
- Description: The time duration for retaining historical connection failures of BE nodes in the BE Blacklist. Within ` + "`black_host_history_sec`" + `, only if a blacklisted BE node has fewer connection failures than the threshold set in ` + "`black_host_connect_failures_within_time`" + `, it can be removed from the BE Blacklist.
- Introduced in: v3.3.0`

const variableSystemPrompt = `You are a technical documentation writer for the StarRocks database system.

Your task is to generate clear, concise, and accurate documentation for session and global variables.

Requirements:
- Write in professional English
- Use Markdown format
- Base the description on the provided comment and usage locations
- Be specific and avoid vague statements
- Keep the documentation under 300 words

Output only the documentation content, no additional commentary, in exactly this format:

### <show name> <append "(Global)" when the scope is global>

* **Description**: <description>
* **Default**: <default value>
* **Data Type**: <variable type>
* **Introduced in**: <version or ->

Example:

### tablet_internal_parallel_mode

* **Description**: Internal Parallel Scan strategy of tablets. Valid Values:
    * ` + "`auto`" + `: the system decides whether Parallel Scan is needed based on the estimated tablet size.
    * ` + "`force_split`" + `: forces the splitting of tablets and performs Parallel Scan.
* **Default**: auto
* **Data Type**: String
* **Introduced in**: v2.5.0`

const functionSystemPrompt = `You are a technical documentation writer for the StarRocks database system.

Your task is to generate clear, concise, and accurate documentation for SQL functions.

Requirements:
- Write in professional English
- Use Markdown with this frontmatter and these sections, in order:
  frontmatter (displayed_sidebar: docs), the function name as H1, a brief
  description, Syntax, Parameters (if any), Return value, Usage notes,
  Examples, keyword
- Focus on practical usage with real examples
- Examples use Plain code blocks for SQL output

Output only the documentation content, no additional commentary, in exactly this format:

---
displayed_sidebar: docs
---

# function_name

Brief description.

## Syntax

` + "```Haskell" + `
RETURN_TYPE function_name(TYPE param1[, TYPE param2, ...])
` + "```" + `

### Parameters

` + "`param1`" + `: Description of the parameter.

## Return value

Returns a value of the RETURN_TYPE data type.

## Usage notes

Notes about behavior and edge cases.

## Examples

` + "```Plain" + `
mysql> SELECT function_name(example_input);
` + "```" + `

## keyword

FUNCTION_NAME`

const classifySystemPrompt = `You are a StarRocks SQL function classification expert.

Classify the SQL function into exactly one of these categories:
{{range .}}  - {{.}}
{{end}}
Return ONLY the category name.`

const promptTemplates = `
{{define "config.user"}}Generate documentation for the following StarRocks configuration item:

**Configuration Name**: {{.Name}}
**Scope**: {{or .Scope "N/A"}}
**Type**: {{or .Type "N/A"}}
**Default Value**: {{or .DefaultValue "N/A"}}
**Is Mutable**: {{yesno .IsMutable}}
**Introduced in**: {{introduced .Version}}
**Use Locations**: {{list .UseLocations}}
**Comment**: {{or .Comment "N/A"}}

Please generate the documentation following the required structure.{{end}}

{{define "config.fallback"}}##### {{.Name}}

- Default: {{or .DefaultValue "N/A"}}
- Type: {{or .Type "N/A"}}
- Unit: N/A
- Is mutable: {{yesno .IsMutable}}
- Description: {{or .Comment "N/A"}}
- Introduced in: {{introduced .Version}}{{end}}

{{define "variable.user"}}Generate documentation for the following StarRocks variable:

**Variable Name**: {{.Name}}
**Show Name**: {{.VersionKey}}
**Scope**: {{or .Scope "Session"}}
**Data Type**: {{or .Type "N/A"}}
**Default Value**: {{or .DefaultValue "N/A"}}
**Introduced in**: {{introduced .Version}}
**Use Locations**: {{list .UseLocations}}
**Comment**: {{or .Comment "N/A"}}

Please generate the documentation following the required structure.{{end}}

{{define "variable.fallback"}}### {{variableTitle .}}

* **Description**: {{or .Comment "N/A"}}
* **Default**: {{or .DefaultValue "N/A"}}
* **Data Type**: {{or .Type "N/A"}}
* **Introduced in**: {{introduced .Version}}{{end}}

{{define "function.user"}}Generate documentation for the following StarRocks SQL function:

**Function Name**: {{.Name}}
**Aliases**: {{if .Alias}}{{join .Alias ", "}}{{else}}None{{end}}
**Signatures**:
{{range .Signature}}  - {{.}}
{{end}}**Implementation Functions**:
{{range .ImplementFns}}  - {{.}}
{{else}}  None
{{end}}**Test Cases**:
{{range .TestCases}}  - {{.}}
{{else}}  None available
{{end}}
Please generate the documentation following the required structure.
Make sure to include practical examples that demonstrate the function's usage.{{end}}

{{define "function.fallback"}}---
displayed_sidebar: docs
---

# {{.Name}}

{{.Name}} function.

## Syntax

` + "```Haskell" + `
{{range .Signature}}{{.}}
{{end}}` + "```" + `

## Return value

Returns a value based on the function signature.

## Examples

` + "```Plain" + `
mysql> SELECT {{.Name}}();
` + "```" + `

## keyword

{{upper .Name}}{{end}}

{{define "function.classify"}}Please classify the following SQL function:

**Function Name**: {{.Item.Name}}
**Signatures**: {{join .Item.Signature "; "}}

**Documentation**:
{{.Doc}}

Return the most appropriate category for this function.{{end}}

{{define "translate.user"}}Translate the following text to {{.To}}:

IMPORTANT: Keep ALL special markers EXACTLY as they are. Do NOT translate or modify:
- HTML comments like: <!-- ... -->
- Markers like: ====...====
- Any text inside {{"{{ }}"}} or similar brackets

{{.Text}}

Remember to preserve Markdown formatting and keep technical terms accurate.{{end}}
`

var funcs = template.FuncMap{
	"join":          strings.Join,
	"upper":         strings.ToUpper,
	"yesno":         yesNo,
	"introduced":    introducedIn,
	"list":          listOrNone,
	"variableTitle": variableTitle,
}

var (
	prompts        = template.Must(template.New("prompts").Funcs(funcs).Parse(promptTemplates))
	classifyPrompt = template.Must(template.New("classify").Parse(classifySystemPrompt))
)

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func classifySystem() string {
	var buf bytes.Buffer
	// Static template over a static list.
	_ = classifyPrompt.Execute(&buf, items.FunctionCatalogs)
	return buf.String()
}

func yesNo(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes":
		return "Yes"
	}
	return "No"
}

// introducedIn renders tracked versions as "v3.3.0, v3.2.5" or "-".
func introducedIn(versions []string) string {
	if len(versions) == 0 {
		return "-"
	}
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = "v" + strings.TrimPrefix(v, "v")
	}
	return strings.Join(out, ", ")
}

func listOrNone(v []string) string {
	if len(v) == 0 {
		return "None"
	}
	return strings.Join(v, ", ")
}

func variableTitle(v *items.VariableItem) string {
	if strings.EqualFold(v.Scope, "global") {
		return v.VersionKey() + " (Global)"
	}
	return v.VersionKey()
}
