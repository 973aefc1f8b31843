// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package flamegraph

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v2"

	"inferno/internal/flamegraph/color"
	"inferno/internal/flamegraph/merge"
)

// Defaults for Options.
const (
	DefaultColors       = "hot"
	DefaultSearchColor  = "#e600e6"
	DefaultUIColor      = "#000000"
	DefaultTitle        = "Flame Graph"
	DefaultChartTitle   = "Flame Chart"
	DefaultFrameHeight  = 16
	DefaultMinWidth     = 0.01
	DefaultFontType     = "monospace"
	DefaultFontSize     = 12
	DefaultFontWidth    = 0.59
	DefaultCountName    = "samples"
	DefaultNameType     = "Function:"
	DefaultFactor       = 1.0
	DefaultImageWidth   = 1200
)

const (
	// xpad pads the frame container left and right.
	xpad = 10
	// framepad separates frames vertically.
	framepad = 1
)

// Direction selects whether the plot grows bottom-up or top-down.
type Direction int

const (
	// DirectionStraight grows from the bottom to the top; the all frame is
	// at the bottom.
	DirectionStraight Direction = iota
	// DirectionInverted (icicle) grows from the top to the bottom.
	DirectionInverted
)

// TextTruncateDirection selects which end of a too-long label is kept:
// TruncateLeft keeps the leading characters and appends "..", TruncateRight
// keeps the trailing characters behind a ".." prefix.
type TextTruncateDirection int

const (
	TruncateLeft TextTruncateDirection = iota
	TruncateRight
)

// Options configures the flame graph.
type Options struct {
	// Colors is the palette used when plotting.
	Colors color.Palette `yaml:"-"`
	// BgColors overrides the background gradient. When nil the gradient is
	// selected based on Colors.
	BgColors *color.BackgroundColor `yaml:"-"`
	// UIColor is the colour of UI text such as the search and reset zoom
	// buttons.
	UIColor string `yaml:"ui-color"`
	// Hash varies colours based on a hash of the function name, so similar
	// functions are coloured similarly.
	Hash bool `yaml:"hash"`
	// Deterministic varies colours based on a hash of the function name,
	// without the weighting scheme Hash uses.
	Deterministic bool `yaml:"deterministic"`
	// PaletteMap, when set, keeps colour choices consistent across renders.
	PaletteMap *color.PaletteMap `yaml:"-"`
	// FuncFrameAttrs assigns extra SVG attributes to particular functions.
	FuncFrameAttrs FrameAttrsMap `yaml:"-"`
	// Direction selects bottom-up (the default) or top-down growth.
	Direction Direction `yaml:"-"`
	// SearchColor is the highlight colour used by the embedded search.
	SearchColor string `yaml:"search-color"`
	// StrokeColor outlines frame rectangles; empty means no stroke.
	StrokeColor string `yaml:"stroke-color"`
	// Title is centred at the top of the image.
	Title string `yaml:"title"`
	// Subtitle is rendered below the title when non-empty.
	Subtitle string `yaml:"subtitle"`
	// ImageWidth is the width of the image in pixels; 0 selects the default
	// width with fluid resizing by the embedded script.
	ImageWidth int `yaml:"width"`
	// FrameHeight is the height of each frame in pixels.
	FrameHeight int `yaml:"frame-height"`
	// MinWidth prunes frames narrower than this percentage of the total.
	MinWidth float64 `yaml:"min-width"`
	// FontType, FontSize and FontWidth control label metrics.
	FontType  string  `yaml:"font-type"`
	FontSize  int     `yaml:"font-size"`
	FontWidth float64 `yaml:"font-width"`
	// TextTruncateDirection selects which end of a long label is kept.
	TextTruncateDirection TextTruncateDirection `yaml:"-"`
	// CountName labels sample counts in tooltips, e.g. "samples" or "bytes".
	CountName string `yaml:"count-name"`
	// NameType labels function names in the interactive details line.
	NameType string `yaml:"name-type"`
	// Notes is rendered on the line of the details text: at the bottom of
	// the image, or at the top in inverted mode.
	Notes string `yaml:"notes"`
	// NegateDifferentials flips the sign of all differentials, so the graph
	// shows before-minus-after.
	NegateDifferentials bool `yaml:"negate"`
	// Factor rescales sample counts for display. Useful when fractional
	// counts were scaled up to integers before folding.
	Factor float64 `yaml:"factor"`
	// PrettyXML breaks the SVG onto indented lines.
	PrettyXML bool `yaml:"pretty-xml"`
	// NoSort skips sorting for pre-sorted input.
	NoSort bool `yaml:"no-sort"`
	// ReverseStackOrder reverses each stack, root becoming leaf. Implies
	// sorting.
	ReverseStackOrder bool `yaml:"reverse"`
	// NoJavaScript omits the embedded script and stylesheet. Meant for
	// tests.
	NoJavaScript bool `yaml:"-"`
	// ColorDiffusion colours frames by width: the wider, the redder.
	ColorDiffusion bool `yaml:"color-diffusion"`
	// FlameChart preserves input order and reverses it so time runs left to
	// right; identical stacks are not merged.
	FlameChart bool `yaml:"flame-chart"`
	// Base truncates each stack to begin at its right-most occurrence of one
	// of these symbols; stacks without any are dropped. The filter is not
	// applied when ReverseStackOrder, FlameChart or NoSort is set.
	Base []string `yaml:"base"`
	// IncludeChildren bases each frame's differential colouring on its total
	// count rather than its self count.
	IncludeChildren bool `yaml:"include-children"`
	// FrameWidthSource selects the layout width of diff frames.
	FrameWidthSource merge.WidthSource `yaml:"-"`
	// DetailedTooltips forces the multi-line diff tooltip. Implied by width
	// sources other than before and after.
	DetailedTooltips bool `yaml:"detailed-tooltips"`
	// Normalize compares differential samples by percent of their own totals
	// rather than by absolute count.
	Normalize bool `yaml:"normalize"`
	// Rand supplies colour variation when neither Hash nor Deterministic is
	// set. A seeded source is created on demand when nil.
	Rand *rand.Rand `yaml:"-"`
}

// DefaultOptions returns an Options with the standard defaults applied.
func DefaultOptions() *Options {
	return &Options{
		Colors:      color.PaletteHot,
		UIColor:     DefaultUIColor,
		SearchColor: DefaultSearchColor,
		Title:       DefaultTitle,
		FrameHeight: DefaultFrameHeight,
		MinWidth:    DefaultMinWidth,
		FontType:    DefaultFontType,
		FontSize:    DefaultFontSize,
		FontWidth:   DefaultFontWidth,
		CountName:   DefaultCountName,
		NameType:    DefaultNameType,
		Factor:      DefaultFactor,
	}
}

// optionsFile is the YAML representation of the string-valued enum options.
type optionsFile struct {
	Options          `yaml:",inline"`
	ColorsName       string `yaml:"colors"`
	BgColorsName     string `yaml:"bg-colors"`
	DirectionName    string `yaml:"direction"`
	TruncateTextName string `yaml:"truncate-text"`
	WidthSourceName  string `yaml:"frame-width-source"`
}

// LoadOptions reads render options from a YAML file, starting from the
// defaults.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read options file")
	}
	file := optionsFile{Options: *DefaultOptions()}
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse options file")
	}
	opt := file.Options
	if file.ColorsName != "" {
		if opt.Colors, err = color.ParsePalette(file.ColorsName); err != nil {
			return nil, err
		}
	}
	if file.BgColorsName != "" {
		bg, err := color.ParseBackgroundColor(file.BgColorsName)
		if err != nil {
			return nil, err
		}
		opt.BgColors = &bg
	}
	switch file.DirectionName {
	case "", "straight":
	case "inverted":
		opt.Direction = DirectionInverted
	default:
		return nil, errors.Errorf("unknown direction: %q", file.DirectionName)
	}
	switch file.TruncateTextName {
	case "", "left":
	case "right":
		opt.TextTruncateDirection = TruncateRight
	default:
		return nil, errors.Errorf("unknown truncate-text direction: %q", file.TruncateTextName)
	}
	if file.WidthSourceName != "" {
		ws, ok := merge.ParseWidthSource(file.WidthSourceName)
		if !ok {
			return nil, errors.Errorf("unknown frame-width-source: %q", file.WidthSourceName)
		}
		opt.FrameWidthSource = ws
	}
	return &opt, nil
}

// ypad1 is the top padding, making room for the title, optional subtitle
// and, in inverted mode, the details line.
func (o *Options) ypad1() int {
	subtitleHeight := 0
	if o.Subtitle != "" {
		subtitleHeight = o.FontSize * 2
	}
	if o.Direction == DirectionStraight {
		return o.FontSize*3 + subtitleHeight
	}
	// Inverted (icicle) mode puts the details on top. The +4 adds a little
	// space between the title, or subtitle if there is one, and the details.
	return o.FontSize*4 + subtitleHeight + 4
}

// ypad2 is the bottom padding for the labels.
func (o *Options) ypad2() int {
	if o.Direction == DirectionStraight {
		return o.FontSize*2 + 10
	}
	return o.FontSize + 10
}

func (o *Options) imageWidth() int {
	if o.ImageWidth > 0 {
		return o.ImageWidth
	}
	return DefaultImageWidth
}

// fluid reports whether the embedded script should resize the graph to its
// container. A graph with an explicit width stays fixed.
func (o *Options) fluid() bool {
	return o.ImageWidth == 0
}

func (o *Options) rng() *rand.Rand {
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(rand.Uint64()))
	}
	return o.Rand
}
