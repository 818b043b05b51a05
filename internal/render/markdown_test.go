// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTMLPlainMarkdown(t *testing.T) {
	html, err := ToHTML("Hola, tienes **7 productos** en stock.")
	require.NoError(t, err)

	assert.Contains(t, html, "<p>")
	assert.Contains(t, html, "<strong>7 productos</strong>")
	assert.NotContains(t, html, "mermaid")
}

func TestToHTMLPreservesMermaidBlocksInOrder(t *testing.T) {
	text := "Aquí va el primer diagrama:\n\n" +
		"```mermaid\ngraph TD\nA-->B\n```\n\n" +
		"Y aquí el segundo:\n\n" +
		"```mermaid\ngraph LR\nC-->D\n```\n\n" +
		"Fin."

	html, err := ToHTML(text)
	require.NoError(t, err)

	first := "<pre class=\"mermaid\">\ngraph TD\nA-->B\n</pre>"
	second := "<pre class=\"mermaid\">\ngraph LR\nC-->D\n</pre>"

	assert.Contains(t, html, first)
	assert.Contains(t, html, second)
	assert.Less(t, strings.Index(html, first), strings.Index(html, second))

	// Surrounding prose still converts to regular HTML
	assert.Contains(t, html, "<p>Aquí va el primer diagrama:</p>")
	assert.Contains(t, html, "<p>Fin.</p>")
	assert.NotContains(t, html, "@@MERMAID_BLOCK_PLACEHOLDER@@")
}

func TestToHTMLSingleMermaidBlock(t *testing.T) {
	html, err := ToHTML("```mermaid\ngraph TD\nX-->Y\n```")
	require.NoError(t, err)

	assert.Contains(t, html, "<pre class=\"mermaid\">\ngraph TD\nX-->Y\n</pre>")
}

func TestToHTMLRegularFencedCodeUntouched(t *testing.T) {
	html, err := ToHTML("```sql\nSELECT * FROM products;\n```")
	require.NoError(t, err)

	// Non-mermaid fences go through standard conversion, not the container
	assert.NotContains(t, html, "class=\"mermaid\"")
	assert.Contains(t, html, "<code")
}

func TestToHTMLTables(t *testing.T) {
	html, err := ToHTML("| Producto | Stock |\n|---|---|\n| Mouse | 3 |")
	require.NoError(t, err)

	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>Mouse</td>")
}
