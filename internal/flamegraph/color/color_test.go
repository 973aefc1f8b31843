// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package color

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestColorScale(t *testing.T) {
	tests := []struct {
		value    int64
		max      int64
		expected Color
	}{
		{0, 10, Color{255, 255, 255}},
		{10, 10, Color{255, 0, 0}},
		{-10, 10, Color{0, 0, 255}},
		{5, 10, Color{255, 105, 105}},
		{-5, 10, Color{105, 105, 255}},
		{0, 0, Color{255, 255, 255}},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, ColorScale(test.value, test.max), "value %d max %d", test.value, test.max)
	}
}

func TestParsePalette(t *testing.T) {
	for _, name := range PaletteNames() {
		p, err := ParsePalette(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.String())
	}
	_, err := ParsePalette("sepia")
	assert.Error(t, err)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#e600e6")
	require.NoError(t, err)
	assert.Equal(t, Color{230, 0, 230}, c)
	_, err = ParseHex("e600e6")
	assert.Error(t, err)
	_, err = ParseHex("#xyzxyz")
	assert.Error(t, err)
}

func TestPickColorDeterministicIsStable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	first := PickColor(PaletteHot, false, true, "some_function", rng)
	second := PickColor(PaletteHot, false, true, "some_function", rng)
	assert.Equal(t, first, second)
	other := PickColor(PaletteHot, false, true, "another_function", rng)
	assert.NotEqual(t, first, other)
}

func TestPickColorHashIsStable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	first := PickColor(PaletteHot, true, false, "some_function", rng)
	second := PickColor(PaletteHot, true, false, "some_function", rng)
	assert.Equal(t, first, second)
}

func TestSemanticPalettes(t *testing.T) {
	tests := []struct {
		palette  Palette
		name     string
		expected Palette
	}{
		{PaletteJava, "Ljava/util/HashMap;::get_[j]", PaletteGreen},
		{PaletteJava, "frame_[i]", PaletteAqua},
		{PaletteJava, "vfs_read_[k]", PaletteOrange},
		{PaletteJava, "java/lang/String::hashCode", PaletteGreen},
		{PaletteJava, "std::sort", PaletteYellow},
		{PaletteJava, "write", PaletteRed},
		{PaletteJS, "app.js/handleRequest", PaletteGreen},
		{PaletteJS, "page_fault_[k]", PaletteOrange},
		{PalettePerl, "Foo::bar", PaletteGreen},
		{PaletteWakeup, "anything", PaletteAqua},
		{PaletteHot, "anything", PaletteHot},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, resolveSemantic(test.palette, test.name), "%s / %s", test.palette, test.name)
	}
}

func TestNamehashRange(t *testing.T) {
	for _, name := range []string{"", "a", "some_function", "x`y", "日本語"} {
		v := namehash(name)
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

func TestBackgroundFor(t *testing.T) {
	top, bottom := BackgroundFor(nil, PaletteHot)
	assert.Equal(t, "#eeeeee", top)
	assert.Equal(t, "#eeeeb0", bottom)
	top, _ = BackgroundFor(nil, PaletteMem)
	assert.Equal(t, "#eef2ee", top)
	grey := BackgroundGrey
	top, bottom = BackgroundFor(&grey, PaletteHot)
	assert.Equal(t, "#f8f8f8", top)
	assert.Equal(t, "#e8e8e8", bottom)
}

func TestPaletteMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.map")
	m, err := LoadPaletteMap(path)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	generated := 0
	gen := func(string) Color {
		generated++
		return Color{R: 1, G: 2, B: 3}
	}
	c := m.FindColorFor("func_a", gen)
	assert.Equal(t, Color{1, 2, 3}, c)
	// second lookup hits the map, not the generator
	m.FindColorFor("func_a", gen)
	assert.Equal(t, 1, generated)

	require.NoError(t, m.Save(path))

	loaded, err := LoadPaletteMap(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, Color{1, 2, 3}, loaded.FindColorFor("func_a", gen))
	assert.Equal(t, 1, generated)
}
