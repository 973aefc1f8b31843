// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package merge

import (
	"strconv"
	"strings"
)

// CountMode selects how many sample counts each folded line carries.
type CountMode int

const (
	// SingleCount lines end with one sample count.
	SingleCount CountMode = iota
	// DiffCount lines end with two sample counts, before and after.
	DiffCount
)

// WidthSource selects the scalar used for frame layout when each sample
// carries a before/after pair.
type WidthSource int

const (
	// WidthBefore takes the shape from the first dataset. Functions that have
	// been added will not be visible.
	WidthBefore WidthSource = iota
	// WidthAfter takes the shape from the second dataset. Functions that have
	// been removed will not be visible. This is the default.
	WidthAfter
	// WidthDifference shows only the differences between the two datasets.
	WidthDifference
	// WidthCommon shows only the commonalities between the two datasets.
	WidthCommon
	// WidthAllSamples uses all samples from both datasets.
	WidthAllSamples
	// WidthMax uses the larger of the two counts, i.e. common + difference.
	WidthMax
)

var widthSourceNames = map[WidthSource]string{
	WidthBefore:     "before",
	WidthAfter:      "after",
	WidthDifference: "difference",
	WidthCommon:     "common",
	WidthAllSamples: "all-samples",
	WidthMax:        "max",
}

func (ws WidthSource) String() string {
	return widthSourceNames[ws]
}

// ParseWidthSource converts a width source name, e.g. from a command line
// flag, to a WidthSource.
func ParseWidthSource(name string) (WidthSource, bool) {
	for ws, n := range widthSourceNames {
		if n == name {
			return ws, true
		}
	}
	return WidthAfter, false
}

// WidthSourceNames returns the accepted width source names in option order.
func WidthSourceNames() []string {
	names := make([]string, 0, len(widthSourceNames))
	for ws := WidthBefore; ws <= WidthMax; ws++ {
		names = append(names, widthSourceNames[ws])
	}
	return names
}

// Apply projects a before/after pair onto the scalar width for this source.
func (ws WidthSource) Apply(before, after int64) int64 {
	switch ws {
	case WidthBefore:
		return before
	case WidthAfter:
		return after
	case WidthDifference:
		if before > after {
			return before - after
		}
		return after - before
	case WidthCommon:
		if before < after {
			return before
		}
		return after
	case WidthAllSamples:
		return before + after
	default: // WidthMax
		if before > after {
			return before
		}
		return after
	}
}

// SampleCount is the weight carried by one folded line or accumulated across
// several. Single-count input stores its value in After with Diff unset; diff
// input carries a before/after pair. The fields are signed so that
// accumulated differences stay representable.
type SampleCount struct {
	Diff   bool
	Before int64
	After  int64
}

func singleCount(v int64) SampleCount {
	return SampleCount{After: v}
}

// Visual projects the count onto the scalar metric used for layout.
func (c SampleCount) Visual(ws WidthSource) int64 {
	if !c.Diff {
		return c.After
	}
	return ws.Apply(c.Before, c.After)
}

func (c *SampleCount) add(o SampleCount) {
	c.Before += o.Before
	c.After += o.After
	c.Diff = c.Diff || o.Diff
}

// Delta is the raw after-minus-before difference.
func (c SampleCount) Delta() int64 {
	return c.After - c.Before
}

// DeltaPctPt is the percent-point change of this count between the two
// datasets, each taken relative to its own overall total. A zero dataset
// total contributes zero.
func (c SampleCount) DeltaPctPt(overall SampleCount) float64 {
	var before, after float64
	if overall.Before != 0 {
		before = float64(c.Before) / float64(overall.Before)
	}
	if overall.After != 0 {
		after = float64(c.After) / float64(overall.After)
	}
	return 100 * (after - before)
}

// DeltaPctPtSameScale is the percent-point change computed as if both
// datasets had totalAfter samples.
func (c SampleCount) DeltaPctPtSameScale(totalAfter int64) float64 {
	if totalAfter == 0 {
		return 0
	}
	return 100 * float64(c.After-c.Before) / float64(totalAfter)
}

// NormalizedDelta is the per-total-normalised difference as a fraction,
// suitable for comparison against the percent-point maxima divided by 100.
func (c SampleCount) NormalizedDelta(overall SampleCount) float64 {
	return c.DeltaPctPt(overall) / 100
}

// rfindSample locates the right-most whitespace-delimited token of line and
// parses it as a non-negative sample count. It returns the byte offset of the
// token, its integer value, and whether a non-zero fractional part was
// stripped. Counts are searched from the right because frame names may
// themselves contain whitespace-free separators such as semicolons.
func rfindSample(line string) (idx int, value int64, fractional bool, ok bool) {
	i := strings.LastIndexAny(line, " \t")
	if i < 0 {
		return 0, 0, false, false
	}
	value, fractional, ok = parseCount(line[i+1:])
	if !ok {
		return 0, 0, false, false
	}
	return i + 1, value, fractional, true
}

// parseCount parses a token of the form d+ or d+.d+. The fractional part, if
// any, is stripped from the value.
func parseCount(tok string) (value int64, fractional bool, ok bool) {
	if tok == "" {
		return 0, false, false
	}
	intPart := tok
	fracPart := ""
	if dot := strings.IndexByte(tok, '.'); dot >= 0 {
		intPart = tok[:dot]
		fracPart = tok[dot+1:]
		if intPart == "" || fracPart == "" {
			return 0, false, false
		}
		for i := 0; i < len(fracPart); i++ {
			if fracPart[i] < '0' || fracPart[i] > '9' {
				return 0, false, false
			}
		}
	}
	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || v < 0 {
		return 0, false, false
	}
	return v, strings.Trim(fracPart, "0") != "", true
}

// ParseLine splits one folded line into its frame path and sample count. In
// DiffCount mode the final two tokens must both parse as counts; they are the
// before and after values, in that order.
func ParseLine(line string, mode CountMode) (frames string, count SampleCount, fractional bool, ok bool) {
	idx, after, frac, found := rfindSample(line)
	if !found {
		return "", SampleCount{}, false, false
	}
	if mode == SingleCount {
		frames = strings.TrimSpace(line[:idx-1])
		if frames == "" {
			return "", SampleCount{}, false, false
		}
		return frames, singleCount(after), frac, true
	}
	rest := line[:idx-1]
	idx2, before, frac2, found2 := rfindSample(rest)
	if !found2 {
		return "", SampleCount{}, false, false
	}
	frames = strings.TrimSpace(rest[:idx2-1])
	if frames == "" {
		return "", SampleCount{}, false, false
	}
	return frames, SampleCount{Diff: true, Before: before, After: after}, frac || frac2, true
}

// CountsIndex returns the byte offset where the sample counts of line begin,
// considering up to two trailing count tokens. Lines with no parsable count
// return len(line).
func CountsIndex(line string) int {
	idx := len(line)
	if i, _, _, ok := rfindSample(line); ok {
		idx = i
	}
	if idx >= 1 {
		if i, _, _, ok := rfindSample(line[:idx-1]); ok {
			idx = i
		}
	}
	return idx
}
