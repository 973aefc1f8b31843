// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package flamegraph renders folded stack samples as an interactive SVG
// flame graph.
//
// Each input line holds a semicolon-separated frame path followed by one
// sample count, or two counts for a differential graph. Aggregation happens
// fully before any output is written: the image height depends on the
// deepest surviving frame and differential colours are scaled against
// render-wide maxima.
package flamegraph

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"inferno/internal/flamegraph/color"
	"inferno/internal/flamegraph/merge"
	"inferno/internal/flamegraph/svg"
)

// ErrNoStackCounts is returned when the input contains no parsable stacks.
// An error SVG is still written for tools automating flame graph use.
var ErrNoStackCounts = errors.New("no stack counts found")

// FromLines renders a flame graph from folded stack lines.
func FromLines(opt *Options, lines []string, mode merge.CountMode, w io.Writer) error {
	tidied := tidyLines(lines)

	var res merge.Result
	switch {
	case opt.ReverseStackOrder:
		if opt.NoSort {
			slog.Warn("Input lines are always sorted when reverse-stack-order is set. The no-sort option is being ignored.")
		}
		reversed := make([]string, 0, len(tidied))
		for _, line := range tidied {
			reversed = append(reversed, reverseStackLine(line))
		}
		sort.Strings(reversed)
		res = merge.Frames(reversed, mode, false, opt.FrameWidthSource)
	case opt.FlameChart:
		// preserve input order, reversed so time runs left to right
		chronological := make([]string, len(tidied))
		for i, line := range tidied {
			chronological[len(tidied)-1-i] = line
		}
		res = merge.Frames(chronological, mode, true, opt.FrameWidthSource)
	case opt.NoSort:
		res = merge.Frames(tidied, mode, false, opt.FrameWidthSource)
	default:
		sorted := tidied
		if len(opt.Base) > 0 {
			sorted = filterBase(sorted, opt.Base)
		}
		sorted = append([]string(nil), sorted...)
		sort.Strings(sorted)
		res = merge.Frames(sorted, mode, false, opt.FrameWidthSource)
	}

	if res.Ignored > 0 {
		slog.Warn(fmt.Sprintf("Ignored %d lines with invalid format", res.Ignored))
	}
	if res.Fractional {
		slog.Warn("The input data has fractional sample counts")
	}

	sw := svg.NewWriter(w, opt.PrettyXML)
	if len(res.Frames) == 0 {
		slog.Error("No stack counts found")
		// emit an error message SVG, for tools automating flamegraph use
		imageheight := opt.FontSize * 5
		writeHeader(sw, opt, imageheight)
		sw.TextElement("text", "ERROR: No valid input provided to flamegraph",
			svg.Attr{Key: "x", Value: "50.0000%"},
			svg.Attr{Key: "y", Value: strconv.Itoa(opt.FontSize * 2)},
		)
		sw.Close("svg")
		if err := sw.Err(); err != nil {
			return err
		}
		return ErrNoStackCounts
	}

	// prune frames that are too narrow to see
	depthmax := 0
	kept := res.Frames[:0]
	for _, f := range res.Frames {
		if f.VisualWidthPct(res.TotalVisual) < opt.MinWidth {
			continue
		}
		if f.Location.Depth > depthmax {
			depthmax = f.Location.Depth
		}
		kept = append(kept, f)
	}
	res.Frames = kept

	imageheight := (depthmax+1)*opt.FrameHeight + opt.ypad1() + opt.ypad2()
	writeHeader(sw, opt, imageheight)
	writePrelude(sw, opt, imageheight)

	r := renderer{
		opt:         opt,
		sw:          sw,
		printer:     message.NewPrinter(language.English),
		imageWidth:  float64(opt.imageWidth()),
		imageheight: imageheight,
	}

	sw.Open("svg",
		svg.Attr{Key: "id", Value: "frames"},
		svg.Attr{Key: "x", Value: strconv.Itoa(xpad)},
		svg.Attr{Key: "width", Value: strconv.Itoa(opt.imageWidth() - 2*xpad)},
		svg.Attr{Key: "total_samples", Value: strconv.FormatInt(res.TotalVisual, 10)},
	)
	for i := range res.Frames {
		r.writeFrame(&res.Frames[i], &res)
	}
	sw.Close("svg")
	sw.Close("svg")
	return sw.Err()
}

// FromReader renders a flame graph from a reader of folded stack lines,
// selecting single-count or differential mode from the first parsable line.
func FromReader(opt *Options, rd io.Reader, w io.Writer) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return errors.Wrap(err, "failed to read folded stacks")
	}
	input := string(data)
	mode := merge.SingleCount
	if DetectDiff(input) {
		mode = merge.DiffCount
	}
	return FromLines(opt, strings.Split(input, "\n"), mode, w)
}

// FromFiles renders a flame graph from folded stack files. With no files, or
// the single file "-", stdin is read instead; in a multi-file list "-" is
// read at most once.
func FromFiles(opt *Options, files []string, w io.Writer) error {
	if len(files) == 0 {
		return FromReader(opt, os.Stdin, w)
	}
	var sb strings.Builder
	stdinAdded := false
	for _, path := range files {
		var data []byte
		var err error
		if path == "-" {
			if stdinAdded {
				continue
			}
			stdinAdded = true
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				return errors.Wrap(err, "failed to read stdin")
			}
		} else {
			data, err = os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", path)
			}
		}
		sb.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}
	return FromReader(opt, strings.NewReader(sb.String()), w)
}

// DetectDiff scans input top-down and reports whether the first parsable
// line carries two sample counts.
func DetectDiff(input string) bool {
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "# ") {
			continue
		}
		if _, _, _, ok := merge.ParseLine(line, merge.DiffCount); ok {
			return true
		}
		if _, _, _, ok := merge.ParseLine(line, merge.SingleCount); ok {
			return false
		}
	}
	return false
}

// tidyLines trims whitespace and drops blank and comment lines.
func tidyLines(lines []string) []string {
	tidied := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "# ") {
			continue
		}
		tidied = append(tidied, line)
	}
	return tidied
}

// reverseStackLine reverses the frame order of one folded line, keeping its
// trailing count tokens in place. The final trim drops the separating space
// when the line carries no count tokens.
func reverseStackLine(line string) string {
	idx := merge.CountsIndex(line)
	funcs := strings.Split(strings.TrimSpace(line[:idx]), ";")
	var sb strings.Builder
	sb.Grow(len(line) + 1)
	for i := len(funcs) - 1; i >= 0; i-- {
		if i != len(funcs)-1 {
			sb.WriteByte(';')
		}
		sb.WriteString(funcs[i])
	}
	sb.WriteByte(' ')
	sb.WriteString(line[idx:])
	return strings.TrimSpace(sb.String())
}

// filterBase truncates each stack to begin at its right-most frame whose
// name is one of the base symbols, dropping stacks that contain none.
func filterBase(lines []string, base []string) []string {
	symbols := mapset.NewThreadUnsafeSet(base...)
	var kept []string
	for _, line := range lines {
		cursor := len(line)
		found := false
		segments := strings.Split(line, ";")
		for i := len(segments) - 1; i >= 0; i-- {
			cursor -= len(segments[i])
			if symbols.Contains(segments[i]) {
				found = true
				break
			}
			if cursor > 0 {
				cursor--
			}
		}
		if found {
			kept = append(kept, line[cursor:])
		}
	}
	return kept
}

// deannotate strips the _[k], _[w], _[i] and _[j] annotation suffixes used
// by perf tooling from a display name.
func deannotate(f string) string {
	if strings.HasSuffix(f, "]") {
		if ai := strings.LastIndex(f, "_["); ai >= 0 && len(f)-ai == 4 &&
			strings.IndexByte("kwij", f[ai+2]) >= 0 {
			return f[:ai]
		}
	}
	return f
}

type renderer struct {
	opt         *Options
	sw          *svg.Writer
	printer     *message.Printer
	imageWidth  float64
	imageheight int
}

// rectangle is one frame's extent: horizontal in percent of the frame
// container, vertical in pixels.
type rectangle struct {
	x1Pct float64
	x2Pct float64
	y1    int
	y2    int
}

func (r *rectangle) widthPct() float64 {
	return r.x2Pct - r.x1Pct
}

func (r *renderer) writeFrame(f *merge.TimedFrame, res *merge.Result) {
	opt := r.opt
	x1Pct, x2Pct := f.StartAndEndPct(res.TotalVisual)
	var y1, y2 int
	if opt.Direction == DirectionStraight {
		y1 = r.imageheight - opt.ypad2() - (f.Location.Depth+1)*opt.FrameHeight + framepad
		y2 = r.imageheight - opt.ypad2() - f.Location.Depth*opt.FrameHeight
	} else {
		y1 = opt.ypad1() + f.Location.Depth*opt.FrameHeight
		y2 = opt.ypad1() + (f.Location.Depth+1)*opt.FrameHeight - framepad
	}
	rect := rectangle{x1Pct: x1Pct, x2Pct: x2Pct, y1: y1, y2: y2}

	isAllFrame := f.Location.Function == "" && f.Location.Depth == 0
	functionName := f.Location.Function
	if isAllFrame {
		functionName = "all"
	} else {
		functionName = deannotate(functionName)
	}
	title := r.tooltip(f, res, isAllFrame, functionName)

	fa := opt.FuncFrameAttrs[f.Location.Function]
	containerTag := "g"
	var containerAttrs []svg.Attr
	if fa != nil {
		if fa.HasHref() {
			containerTag = "a"
		}
		keys := make([]string, 0, len(fa.Attrs))
		for k := range fa.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			containerAttrs = append(containerAttrs, svg.Attr{Key: k, Value: fa.Attrs[k]})
		}
		if fa.Title != "" {
			title = fa.Title
		}
	}

	r.sw.Open(containerTag, containerAttrs...)
	r.sw.TextElement("title", title)

	fill := r.frameColor(f, res, rect.widthPct())
	r.sw.Empty("rect",
		svg.Attr{Key: "x", Value: pctAttr(rect.x1Pct)},
		svg.Attr{Key: "y", Value: strconv.Itoa(rect.y1)},
		svg.Attr{Key: "width", Value: pctAttr(rect.widthPct())},
		svg.Attr{Key: "height", Value: strconv.Itoa(rect.y2 - rect.y1)},
		svg.Attr{Key: "fill", Value: fill.String()},
		svg.Attr{Key: "fg:x", Value: strconv.FormatInt(f.Start, 10)},
		svg.Attr{Key: "fg:w", Value: strconv.FormatInt(f.VisualSamples(), 10)},
	)

	label := r.fitText(f.Location.Function, rect.widthPct())
	r.sw.TextElement("text", label,
		svg.Attr{Key: "x", Value: pctAttr(rect.x1Pct + 100*3/r.imageWidth)},
		svg.Attr{Key: "y", Value: strconv.FormatFloat(3+float64(rect.y1+rect.y2)/2, 'f', -1, 64)},
	)
	r.sw.Close(containerTag)
}

// fitText computes the in-rectangle label: empty when fewer than three
// characters fit, truncated with ".." when the name is too long.
func (r *renderer) fitText(function string, widthPct float64) string {
	fit := int(widthPct / (100 * float64(r.opt.FontSize) * r.opt.FontWidth / r.imageWidth))
	if fit < 3 {
		// room for one char plus two dots, at minimum
		return ""
	}
	name := deannotate(function)
	runes := []rune(name)
	if len(runes) < fit {
		return name
	}
	if r.opt.TextTruncateDirection == TruncateRight {
		return ".." + string(runes[len(runes)-(fit-2):])
	}
	return string(runes[:fit-2]) + ".."
}

func (r *renderer) frameColor(f *merge.TimedFrame, res *merge.Result, widthPct float64) color.Color {
	opt := r.opt
	function := f.Location.Function
	if function == "--" {
		return color.VDGrey
	}
	if function == "-" {
		return color.DGrey
	}
	if opt.ColorDiffusion {
		// Wider frames are redder. A frame at 50% of width is already a high
		// priority target, so the dropoff uses sqrt rather than being linear.
		return color.ColorScale(int64(math.Sqrt(widthPct/100)*2000), 2000)
	}
	if f.Counts.Total.Diff {
		var delta, deltaMax int64
		if opt.Normalize {
			var d, dm float64
			if opt.IncludeChildren {
				d = f.Counts.Total.NormalizedDelta(res.Overall)
				dm = res.DeltaMax.MaxAbsTotalDeltaPctPt / 100
			} else {
				d = f.Counts.Self.NormalizedDelta(res.Overall)
				dm = res.DeltaMax.MaxAbsSelfDeltaPctPt / 100
			}
			delta = int64(d * 1e4)
			deltaMax = int64(dm * 1e4)
		} else {
			if opt.IncludeChildren {
				delta = f.Counts.Total.Delta()
				deltaMax = res.DeltaMax.MaxAbsTotalDelta
			} else {
				delta = f.Counts.Self.Delta()
				deltaMax = res.DeltaMax.MaxAbsSelfDelta
			}
		}
		if opt.NegateDifferentials {
			delta = -delta
		}
		// Clamp: the all frame can exceed the maxima, which exclude it, and
		// would otherwise dominate when rendering several processes at once.
		if delta > deltaMax {
			delta = deltaMax
		}
		if delta < -deltaMax {
			delta = -deltaMax
		}
		return color.ColorScale(delta, deltaMax)
	}
	gen := func(name string) color.Color {
		return color.PickColor(opt.Colors, opt.Hash, opt.Deterministic, name, opt.rng())
	}
	if opt.PaletteMap != nil {
		return opt.PaletteMap.FindColorFor(function, gen)
	}
	return gen(function)
}

// tooltip builds the frame's title text.
func (r *renderer) tooltip(f *merge.TimedFrame, res *merge.Result, isAllFrame bool, functionName string) string {
	opt := r.opt
	if !f.Counts.Total.Diff {
		return fmt.Sprintf("%s (%s)", functionName,
			r.countAndPctTxt(f.Counts.Total.After, res.Overall.After, isAllFrame))
	}

	delta := f.Counts.Self
	if opt.IncludeChildren {
		delta = f.Counts.Total
	}
	var deltaPctPt float64
	if opt.Normalize {
		deltaPctPt = delta.DeltaPctPt(res.Overall)
	} else {
		deltaPctPt = delta.DeltaPctPtSameScale(res.Overall.After)
	}

	detailed := opt.DetailedTooltips ||
		(opt.FrameWidthSource != merge.WidthBefore && opt.FrameWidthSource != merge.WidthAfter)
	if detailed {
		selfPctChange := r.getPct(f.Counts.Self.After, res.Overall.After) -
			r.getPct(f.Counts.Self.Before, res.Overall.Before)
		totalPctChange := r.getPct(f.Counts.Total.After, res.Overall.After) -
			r.getPct(f.Counts.Total.Before, res.Overall.Before)
		return fmt.Sprintf(
			"%s\nSelf:\n\tBefore:\t(%s)\n\tAfter:\t(%s)\n\tChange:\t%spt\nTotal:\n\tBefore:\t(%s)\n\tAfter:\t(%s)\n\tChange:\t%spt\n\nVisual Width:\t(%s)",
			functionName,
			r.countAndPctTxt(f.Counts.Self.Before, res.Overall.Before, isAllFrame),
			r.countAndPctTxt(f.Counts.Self.After, res.Overall.After, isAllFrame),
			deltaPctTxt(selfPctChange),
			r.countAndPctTxt(f.Counts.Total.Before, res.Overall.Before, isAllFrame),
			r.countAndPctTxt(f.Counts.Total.After, res.Overall.After, isAllFrame),
			deltaPctTxt(totalPctChange),
			r.countAndPctTxt(f.VisualSamples(), res.TotalVisual, isAllFrame),
		)
	}

	frameTotal, total := f.Counts.Total.Before, res.Overall.Before
	if opt.FrameWidthSource == merge.WidthAfter {
		frameTotal, total = f.Counts.Total.After, res.Overall.After
	}
	if opt.NegateDifferentials {
		deltaPctPt = -deltaPctPt
	}
	samplesTxt := r.countAndPctTxt(frameTotal, total, isAllFrame)
	if isAllFrame {
		return fmt.Sprintf("%s (%s)", functionName, samplesTxt)
	}
	return fmt.Sprintf("%s (%s; %s)", functionName, samplesTxt, deltaPctTxt(deltaPctPt))
}

// getPct converts a sample count to a percentage of sMax in display units.
func (r *renderer) getPct(s, sMax int64) float64 {
	denominator := float64(sMax) * r.opt.Factor
	if denominator == 0 {
		return 0
	}
	return 100 * float64(s) / denominator
}

// countAndPctTxt formats "1,234 samples, 12.34%". The all frame shows
// exactly "100%" when its share rounds to 100.00%.
func (r *renderer) countAndPctTxt(s, sMax int64, isAllFrame bool) string {
	samples := int64(math.Round(float64(s) * r.opt.Factor))
	samplesTxt := r.printer.Sprintf("%d", samples)
	pctTxt := fmt.Sprintf("%.2f%%", r.getPct(samples, sMax))
	if isAllFrame && pctTxt == "100.00%" {
		pctTxt = "100%"
	}
	return fmt.Sprintf("%s %s, %s", samplesTxt, r.opt.CountName, pctTxt)
}

// deltaPctTxt formats a signed percent-point change, e.g. "+1.23%".
func deltaPctTxt(pct float64) string {
	sign := ""
	if pct < 0 {
		sign = "-"
	} else if pct > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, math.Abs(pct))
}

func pctAttr(v float64) string {
	return fmt.Sprintf("%.4f%%", v)
}
