// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package color picks fill colours for flame graph frames. Colour selection
// follows the conventions of the classic flamegraph tooling: a named palette
// varied per function, either at random, or as a pure function of the
// function name when hashed or deterministic selection is requested.
package color

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Grey tones for the "-" and "--" sentinel frame names.
var (
	DGrey  = Color{R: 200, G: 200, B: 200}
	VDGrey = Color{R: 160, G: 160, B: 160}
)

// ParseHex parses a #rrggbb colour.
func ParseHex(s string) (Color, error) {
	var c Color
	if len(s) != 7 || s[0] != '#' {
		return c, errors.Errorf("unparseable hex color: %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, errors.Wrapf(err, "unparseable hex color: %q", s)
	}
	return c, nil
}

// Palette selects the hue family used for frames without differential data.
type Palette int

const (
	PaletteHot Palette = iota
	PaletteMem
	PaletteIO
	PaletteWakeup
	PaletteJava
	PaletteJS
	PalettePerl
	PalettePython
	PaletteRed
	PaletteGreen
	PaletteBlue
	PaletteAqua
	PaletteYellow
	PalettePurple
	PaletteOrange
)

var paletteNames = []string{
	"hot", "mem", "io", "wakeup", "java", "js", "perl", "python",
	"red", "green", "blue", "aqua", "yellow", "purple", "orange",
}

func (p Palette) String() string {
	if int(p) < len(paletteNames) {
		return paletteNames[p]
	}
	return "hot"
}

// ParsePalette converts a palette name to a Palette.
func ParsePalette(name string) (Palette, error) {
	for i, n := range paletteNames {
		if n == name {
			return Palette(i), nil
		}
	}
	return PaletteHot, errors.Errorf("unknown color palette: %q (expected one of %s)",
		name, strings.Join(paletteNames, ", "))
}

// PaletteNames returns the accepted palette names.
func PaletteNames() []string {
	return append([]string(nil), paletteNames...)
}

// PickColor selects a colour for function in the given palette. With
// deterministic or hash set, the colour is a pure function of the name;
// otherwise the supplied random source is consumed.
func PickColor(palette Palette, hash, deterministic bool, function string, rng *rand.Rand) Color {
	basic := resolveSemantic(palette, function)
	var v1, v2, v3 float64
	switch {
	case deterministic:
		v1, v2, v3 = deterministicTriple(function)
	case hash:
		v1 = namehash(function)
		v2 = namehash(reverse(function))
		v3 = v2
	default:
		v1 = rng.Float64()
		v2 = rng.Float64()
		v3 = rng.Float64()
	}
	return basicColor(basic, v1, v2, v3)
}

// resolveSemantic maps the semantic multi-palettes (java, js, perl, python,
// wakeup) to a basic palette based on annotation suffixes and name shape.
// Basic palettes are returned unchanged.
func resolveSemantic(p Palette, name string) Palette {
	switch p {
	case PaletteJava:
		switch {
		case strings.HasSuffix(name, "_[j]"):
			return PaletteGreen // jit compiled
		case strings.HasSuffix(name, "_[i]"):
			return PaletteAqua // inlined
		case strings.HasSuffix(name, "_[k]"):
			return PaletteOrange // kernel
		case javaPackage(name):
			return PaletteGreen
		case strings.Contains(name, "::"):
			return PaletteYellow // C++
		default:
			return PaletteRed // system / native
		}
	case PaletteJS:
		switch {
		case strings.HasSuffix(name, "_[j]"):
			if strings.Contains(name, "/") {
				return PaletteGreen // jit compiled javascript
			}
			return PaletteAqua // builtin
		case strings.HasSuffix(name, "_[k]"):
			return PaletteOrange
		case strings.Contains(name, "/"):
			return PaletteGreen // javascript source
		case strings.Contains(name, "::"):
			return PaletteYellow
		default:
			return PaletteRed
		}
	case PalettePerl, PalettePython:
		switch {
		case strings.HasSuffix(name, "_[k]"):
			return PaletteOrange
		case strings.Contains(name, "::") || strings.Contains(name, "/"):
			return PaletteGreen
		default:
			return PaletteRed
		}
	case PaletteWakeup:
		return PaletteAqua
	default:
		return p
	}
}

func javaPackage(name string) bool {
	trimmed := strings.TrimPrefix(name, "L")
	for _, prefix := range []string{"java/", "javax/", "jdk/", "net/", "org/", "com/", "io/", "sun/"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func basicColor(p Palette, v1, v2, v3 float64) Color {
	switch p {
	case PaletteMem:
		return Color{R: 0, G: uint8(190 + 50*v2), B: uint8(210 * v1)}
	case PaletteIO:
		r := uint8(80 + 60*v1)
		return Color{R: r, G: r, B: uint8(190 + 55*v2)}
	case PaletteRed:
		g := uint8(50 + 80*v1)
		return Color{R: uint8(200 + 55*v1), G: g, B: g}
	case PaletteGreen:
		r := uint8(120 * v1)
		return Color{R: r, G: uint8(200 + 55*v1), B: r}
	case PaletteBlue:
		r := uint8(80 + 60*v1)
		return Color{R: r, G: r, B: uint8(205 + 50*v1)}
	case PaletteAqua:
		g := uint8(165 + 55*v1)
		return Color{R: uint8(50 + 60*v1), G: g, B: g}
	case PaletteYellow:
		r := uint8(175 + 55*v1)
		return Color{R: r, G: r, B: uint8(50 + 20*v1)}
	case PalettePurple:
		r := uint8(190 + 55*v1)
		return Color{R: r, G: uint8(80 + 60*v1), B: r}
	case PaletteOrange:
		return Color{R: uint8(190 + 65*v1), G: uint8(90 + 65*v1), B: 0}
	default: // PaletteHot and the semantic palettes before resolution
		return Color{R: uint8(205 + 50*v3), G: uint8(230 * v1), B: uint8(55 * v2)}
	}
}

// namehash generates a weighted vector in [0, 1] from the leading characters
// of a function name, so that similar names map to similar colours. This is
// the hashing scheme of the classic flamegraph tooling.
func namehash(name string) float64 {
	// trim module name, e.g. `foo`bar
	if i := strings.IndexByte(name, '`'); i > 0 {
		name = name[i+1:]
	}
	vector := 0.0
	weight := 1.0
	max := 1.0
	mod := 10
	for i := 0; i < len(name); i++ {
		rem := int(name[i]) % mod
		vector += float64(rem) / float64(mod-1) * weight
		mod++
		max += weight
		weight *= 0.70
		if mod > 12 {
			break
		}
	}
	return 1 - vector/max
}

// deterministicTriple derives three variation values from an FNV-1a hash of
// the whole name, with no positional weighting.
func deterministicTriple(name string) (float64, float64, float64) {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var h uint64 = offset64
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= prime64
	}
	v1 := float64(h&0xffff) / 0xffff
	v2 := float64((h>>16)&0xffff) / 0xffff
	v3 := float64((h>>32)&0xffff) / 0xffff
	return v1, v2, v3
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// ColorScale maps a clamped differential value onto the red-blue diverging
// scale: positive values (more samples) are red, negative values (fewer
// samples) are blue, zero is white.
func ColorScale(value, max int64) Color {
	if value == 0 || max == 0 {
		return Color{R: 255, G: 255, B: 255}
	}
	if value > 0 {
		c := uint8(210 * (max - value) / max)
		return Color{R: 255, G: c, B: c}
	}
	c := uint8(210 * (max + value) / max)
	return Color{R: c, G: c, B: 255}
}

// BackgroundColor selects the background gradient.
type BackgroundColor int

const (
	BackgroundYellow BackgroundColor = iota
	BackgroundBlue
	BackgroundGreen
	BackgroundGrey
)

// ParseBackgroundColor converts a background colour name.
func ParseBackgroundColor(name string) (BackgroundColor, error) {
	switch name {
	case "yellow":
		return BackgroundYellow, nil
	case "blue":
		return BackgroundBlue, nil
	case "green":
		return BackgroundGreen, nil
	case "grey", "gray":
		return BackgroundGrey, nil
	}
	return BackgroundYellow, errors.Errorf("unknown background color: %q", name)
}

// BackgroundFor returns the top and bottom gradient stops. When bg is nil
// the gradient is derived from the palette: mem profiles get green, io and
// wakeup profiles blue, everything else the classic yellow.
func BackgroundFor(bg *BackgroundColor, palette Palette) (string, string) {
	selected := BackgroundYellow
	if bg != nil {
		selected = *bg
	} else {
		switch palette {
		case PaletteMem:
			selected = BackgroundGreen
		case PaletteIO, PaletteWakeup:
			selected = BackgroundBlue
		}
	}
	switch selected {
	case BackgroundBlue:
		return "#eeeeee", "#e0e0ff"
	case BackgroundGreen:
		return "#eef2ee", "#e0ffe0"
	case BackgroundGrey:
		return "#f8f8f8", "#e8e8e8"
	default:
		return "#eeeeee", "#eeeeb0"
	}
}
