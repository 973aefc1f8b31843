// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package flamegraph

import (
	"fmt"
	"strconv"

	"inferno/internal/flamegraph/color"
	"inferno/internal/flamegraph/svg"
)

// writeHeader emits the XML prologue, doctype and the root svg element.
func writeHeader(sw *svg.Writer, opt *Options, imageheight int) {
	width := opt.imageWidth()
	sw.Prologue()
	sw.Open("svg",
		svg.Attr{Key: "version", Value: "1.1"},
		svg.Attr{Key: "width", Value: strconv.Itoa(width)},
		svg.Attr{Key: "height", Value: strconv.Itoa(imageheight)},
		svg.Attr{Key: "onload", Value: "init(evt)"},
		svg.Attr{Key: "viewBox", Value: fmt.Sprintf("0 0 %d %d", width, imageheight)},
		svg.Attr{Key: "xmlns", Value: "http://www.w3.org/2000/svg"},
		svg.Attr{Key: "xmlns:xlink", Value: "http://www.w3.org/1999/xlink"},
	)
}

// writePrelude emits the background gradient, the embedded stylesheet and
// script, and the chrome text elements surrounding the frame container.
func writePrelude(sw *svg.Writer, opt *Options, imageheight int) {
	width := opt.imageWidth()
	bg1, bg2 := color.BackgroundFor(opt.BgColors, opt.Colors)

	sw.Open("defs")
	sw.Open("linearGradient",
		svg.Attr{Key: "id", Value: "background"},
		svg.Attr{Key: "y1", Value: "0"},
		svg.Attr{Key: "y2", Value: "1"},
		svg.Attr{Key: "x1", Value: "0"},
		svg.Attr{Key: "x2", Value: "0"},
	)
	sw.Empty("stop", svg.Attr{Key: "stop-color", Value: bg1}, svg.Attr{Key: "offset", Value: "5%"})
	sw.Empty("stop", svg.Attr{Key: "stop-color", Value: bg2}, svg.Attr{Key: "offset", Value: "95%"})
	sw.Close("linearGradient")
	sw.Close("defs")

	if opt.NoJavaScript {
		sw.CDATAElement("style", "", svg.Attr{Key: "type", Value: "text/css"})
		sw.CDATAElement("script", "", svg.Attr{Key: "type", Value: "text/ecmascript"})
	} else {
		sw.CDATAElement("style", styleParams(opt)+svg.StyleCSS, svg.Attr{Key: "type", Value: "text/css"})
		sw.CDATAElement("script", scriptParams(opt)+svg.ScriptJS, svg.Attr{Key: "type", Value: "text/ecmascript"})
	}

	sw.Empty("rect",
		svg.Attr{Key: "x", Value: "0"},
		svg.Attr{Key: "y", Value: "0"},
		svg.Attr{Key: "width", Value: strconv.Itoa(width)},
		svg.Attr{Key: "height", Value: strconv.Itoa(imageheight)},
		svg.Attr{Key: "fill", Value: "url(#background)"},
	)

	sw.TextElement("text", opt.Title,
		svg.Attr{Key: "id", Value: "title"},
		svg.Attr{Key: "x", Value: strconv.Itoa(width / 2)},
		svg.Attr{Key: "y", Value: strconv.Itoa(opt.FontSize * 2)},
	)
	if opt.Subtitle != "" {
		sw.TextElement("text", opt.Subtitle,
			svg.Attr{Key: "id", Value: "subtitle"},
			svg.Attr{Key: "x", Value: strconv.Itoa(width / 2)},
			svg.Attr{Key: "y", Value: strconv.Itoa(opt.FontSize * 4)},
		)
	}
	detailsY := imageheight - opt.ypad2()/2
	if opt.Direction == DirectionInverted {
		detailsY = opt.ypad1() - 5
	}
	sw.TextElement("text", " ",
		svg.Attr{Key: "id", Value: "details"},
		svg.Attr{Key: "x", Value: strconv.Itoa(xpad)},
		svg.Attr{Key: "y", Value: strconv.Itoa(detailsY)},
	)
	sw.TextElement("text", "Reset Zoom",
		svg.Attr{Key: "id", Value: "unzoom"},
		svg.Attr{Key: "class", Value: "hide"},
		svg.Attr{Key: "x", Value: strconv.Itoa(xpad)},
		svg.Attr{Key: "y", Value: strconv.Itoa(opt.FontSize * 2)},
	)
	sw.TextElement("text", "Search",
		svg.Attr{Key: "id", Value: "search"},
		svg.Attr{Key: "x", Value: strconv.Itoa(width - xpad - 100)},
		svg.Attr{Key: "y", Value: strconv.Itoa(opt.FontSize * 2)},
	)
	sw.TextElement("text", " ",
		svg.Attr{Key: "id", Value: "matched"},
		svg.Attr{Key: "x", Value: strconv.Itoa(width - xpad - 100)},
		svg.Attr{Key: "y", Value: strconv.Itoa(detailsY)},
	)
	if opt.Notes != "" {
		sw.TextElement("text", opt.Notes,
			svg.Attr{Key: "id", Value: "notes"},
			svg.Attr{Key: "x", Value: strconv.Itoa(width / 2)},
			svg.Attr{Key: "y", Value: strconv.Itoa(detailsY)},
		)
	}
}

// styleParams renders the per-image CSS ahead of the static stylesheet.
func styleParams(opt *Options) string {
	params := fmt.Sprintf("text { font-family: %s; font-size: %dpx; }\n", opt.FontType, opt.FontSize)
	params += fmt.Sprintf("#title, #subtitle, #details, #unzoom, #search, #matched { fill: %s; }\n", opt.UIColor)
	if opt.StrokeColor != "" && opt.StrokeColor != "none" {
		params += fmt.Sprintf("#frames rect { stroke: %s; stroke-width: 1; }\n", opt.StrokeColor)
	}
	return params
}

// scriptParams renders the settings the static script reads.
func scriptParams(opt *Options) string {
	return fmt.Sprintf(
		"var nametype = %q;\nvar fontsize = %d;\nvar fontwidth = %g;\nvar xpad = %d;\nvar inverted = %t;\nvar searchcolor = %q;\nvar fluiddrawing = %t;\nvar truncate_text_right = %t;\n",
		opt.NameType, opt.FontSize, opt.FontWidth, xpad,
		opt.Direction == DirectionInverted, opt.SearchColor,
		opt.fluid(), opt.TextTruncateDirection == TruncateRight,
	)
}
