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

// Package render converts assistant responses to display HTML. Mermaid
// diagram blocks are carved out before Markdown conversion and reinserted
// verbatim afterwards so the conversion cannot mangle them; the frontend
// renders them client-side.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// mermaidPlaceholder stands in for an extracted diagram block during
// Markdown conversion. It must survive the conversion as plain text.
const mermaidPlaceholder = "@@MERMAID_BLOCK_PLACEHOLDER@@"

var mermaidBlockRe = regexp.MustCompile("(?s)```mermaid\\s*\\n(.*?)\\n```")

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// ToHTML converts Markdown text to HTML, preserving fenced mermaid blocks.
// Each block is replaced by a placeholder, the remaining text is converted,
// and the blocks are reinserted one-for-one in original order wrapped in
// <pre class="mermaid"> containers.
func ToHTML(text string) (string, error) {
	var blocks []string
	for _, match := range mermaidBlockRe.FindAllStringSubmatch(text, -1) {
		blocks = append(blocks, strings.TrimSpace(match[1]))
	}

	withPlaceholders := mermaidBlockRe.ReplaceAllString(text, mermaidPlaceholder)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(withPlaceholders), &buf); err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}

	html := buf.String()
	for _, block := range blocks {
		wrapped := fmt.Sprintf("<pre class=\"mermaid\">\n%s\n</pre>", block)
		html = strings.Replace(html, mermaidPlaceholder, wrapped, 1)
	}

	return html, nil
}
