// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package difffolded

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inferno/internal/flamegraph"
)

func fold(t *testing.T, opt *Options, before, after string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Fold(opt, strings.NewReader(before), strings.NewReader(after), &out))
	return out.String()
}

func TestFold(t *testing.T) {
	out := fold(t, &Options{},
		"a;b 3\nc 1\n",
		"a;b 5\nd 2\n")
	expected := "a;b 3 5\n" +
		"c 1 0\n" +
		"d 0 2\n"
	assert.Equal(t, expected, out)
}

func TestFoldOutputIsDetectedAsDifferential(t *testing.T) {
	out := fold(t, &Options{}, "a;b 3\n", "a;b 5\n")
	assert.True(t, flamegraph.DetectDiff(out))
}

func TestFoldRepeatedStacksAccumulate(t *testing.T) {
	out := fold(t, &Options{}, "a 1\na 2\n", "")
	assert.Equal(t, "a 3 0\n", out)
}

func TestFoldSkipsCommentsAndInvalidLines(t *testing.T) {
	out := fold(t, &Options{}, "# header\nbogus\na 1\n", "a 2\n")
	assert.Equal(t, "a 1 2\n", out)
}

func TestFoldNormalize(t *testing.T) {
	// first profile total 4, second 8: before counts scale by 2
	out := fold(t, &Options{Normalize: true},
		"a 3\nb 1\n",
		"a 8\n")
	assert.Equal(t, "a 6 8\nb 2 0\n", out)
}

func TestFoldStripHex(t *testing.T) {
	out := fold(t, &Options{StripHex: true},
		"main;0x7f3a21b4 1\n",
		"main;0x55e09a10 2\n")
	assert.Equal(t, "main;0x... 1 2\n", out)
}
