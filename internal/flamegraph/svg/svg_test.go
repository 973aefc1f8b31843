// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package svg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactOutputHasNoLineBreaks(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	w.Open("svg", Attr{Key: "width", Value: "10"})
	w.Open("g")
	w.TextElement("title", "hello")
	w.Empty("rect", Attr{Key: "x", Value: "0"})
	w.Close("g")
	w.Close("svg")
	require.NoError(t, w.Err())
	assert.Equal(t, `<svg width="10"><g><title>hello</title><rect x="0"/></g></svg>`, buf.String())
}

func TestPrettyOutputIndentsTwoSpaces(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.Open("svg")
	w.Open("g")
	w.TextElement("title", "hello")
	w.Close("g")
	w.Close("svg")
	require.NoError(t, w.Err())
	expected := "<svg>\n" +
		"  <g>\n" +
		"    <title>hello</title>\n" +
		"  </g>\n" +
		"</svg>"
	assert.Equal(t, expected, buf.String())
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"a<b", "a&lt;b"},
		{"a&b", "a&amp;b"},
		{`"quoted"`, "&quot;quoted&quot;"},
		{"it's", "it&apos;s"},
		{"plain", "plain"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, Escape(test.in))
	}
}

func TestAttributeValuesAreEscaped(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	w.Empty("rect", Attr{Key: "title", Value: `a"b<c`})
	require.NoError(t, w.Err())
	assert.Equal(t, `<rect title="a&quot;b&lt;c"/>`, buf.String())
}

func TestCDATAContentIsNotEscaped(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	w.CDATAElement("script", "if (a < b) { run(); }", Attr{Key: "type", Value: "text/ecmascript"})
	require.NoError(t, w.Err())
	assert.Equal(t, `<script type="text/ecmascript"><![CDATA[if (a < b) { run(); }]]></script>`, buf.String())
}

func TestEmbeddedAssetsPresent(t *testing.T) {
	assert.Contains(t, ScriptJS, "function init(evt)")
	assert.Contains(t, StyleCSS, ".hide")
}

func TestPrologue(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.Prologue()
	require.NoError(t, w.Err())
	assert.Contains(t, buf.String(), `<?xml version="1.0" standalone="no"?>`)
	assert.Contains(t, buf.String(), "<!DOCTYPE svg")
}
