// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package merge folds an ordered sequence of stack samples into timed frames.
//
// Input lines must be pre-sorted (or time-ordered, for flame charts) so that
// stacks sharing a prefix are adjacent. Each frame's horizontal extent is
// accumulated in the visual metric selected by the WidthSource so that
// sibling ranges stay contiguous regardless of how a before/after pair is
// projected.
package merge

import "strings"

// FrameLocation identifies a frame by name and depth. Depth 0 is reserved
// for the synthetic root frame, whose function name is empty.
type FrameLocation struct {
	Function string
	Depth    int
}

// FrameCounts carries a frame's self count (samples where the frame was the
// leaf) and total count (self plus all descendants).
type FrameCounts struct {
	Self  SampleCount
	Total SampleCount
}

// TimedFrame is an aggregated frame with a contiguous [Start, End) range in
// the visual metric.
type TimedFrame struct {
	Location FrameLocation
	Start    int64
	End      int64
	Counts   FrameCounts
}

// VisualSamples is the frame's width in the visual metric.
func (f *TimedFrame) VisualSamples() int64 {
	return f.End - f.Start
}

// VisualWidthPct is the frame's width as a percentage of the overall total.
func (f *TimedFrame) VisualWidthPct(totalVisual int64) float64 {
	if totalVisual == 0 {
		return 0
	}
	return 100 * float64(f.End-f.Start) / float64(totalVisual)
}

// StartAndEndPct returns the frame's horizontal extent as percentages of the
// overall total.
func (f *TimedFrame) StartAndEndPct(totalVisual int64) (float64, float64) {
	if totalVisual == 0 {
		return 0, 0
	}
	return 100 * float64(f.Start) / float64(totalVisual),
		100 * float64(f.End) / float64(totalVisual)
}

// DeltaMax holds the per-render maxima used to scale differential colours
// uniformly across the whole graph. The synthetic root frame is excluded so
// that it cannot dominate the scale.
type DeltaMax struct {
	MaxAbsSelfDelta       int64
	MaxAbsTotalDelta      int64
	MaxAbsSelfDeltaPctPt  float64
	MaxAbsTotalDeltaPctPt float64
}

// Result is the outcome of folding one input sequence.
type Result struct {
	// Frames are the aggregated timed frames, including the synthetic root
	// when at least one line parsed.
	Frames []TimedFrame
	// Overall is the pairwise sum of every parsed count.
	Overall SampleCount
	// TotalVisual is the sum of the per-line visual projections. Layout
	// percentages are computed against this value so depth-0 widths tile
	// exactly.
	TotalVisual int64
	// Ignored counts lines that failed to parse.
	Ignored int
	// Fractional reports whether any count had a non-zero fractional part.
	Fractional bool
	// DeltaMax is populated in DiffCount mode.
	DeltaMax DeltaMax
}

// openFrame is a frame whose time range has started but not yet ended.
type openFrame struct {
	loc    FrameLocation
	start  int64
	counts FrameCounts
}

// Frames folds lines into timed frames. Lines must already be sorted, or in
// chronological order when flameChart is set. In flame chart mode the leaf
// frame of every line stays distinct so that identical adjacent stacks are
// not merged into one run.
func Frames(lines []string, mode CountMode, flameChart bool, ws WidthSource) Result {
	var res Result
	var (
		prev   []string
		stack  []openFrame
		cursor int64
		seen   bool
	)

	closeDeeperThan := func(n int) {
		for len(stack)-1 > n {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			res.Frames = append(res.Frames, TimedFrame{
				Location: f.loc,
				Start:    f.start,
				End:      cursor,
				Counts:   f.counts,
			})
			parent := &stack[len(stack)-1]
			parent.counts.Total.add(f.counts.Total)
		}
	}

	for _, line := range lines {
		framePath, count, fractional, ok := ParseLine(line, mode)
		if !ok {
			res.Ignored++
			continue
		}
		res.Fractional = res.Fractional || fractional
		if !seen {
			// open the synthetic root
			stack = append(stack, openFrame{loc: FrameLocation{Function: "", Depth: 0}})
			seen = true
		}
		funcs := strings.Split(framePath, ";")

		n := 0
		for n < len(prev) && n < len(funcs) && prev[n] == funcs[n] {
			n++
		}
		if flameChart && n == len(funcs) {
			n = len(funcs) - 1
		}
		closeDeeperThan(n)
		for d := len(stack) - 1; d < len(funcs); d++ {
			stack = append(stack, openFrame{
				loc:   FrameLocation{Function: funcs[d], Depth: d + 1},
				start: cursor,
			})
		}

		deepest := &stack[len(stack)-1]
		deepest.counts.Self.add(count)
		deepest.counts.Total.add(count)

		cursor += count.Visual(ws)
		res.Overall.add(count)
		prev = funcs
	}

	if !seen {
		return res
	}
	closeDeeperThan(0)
	root := stack[0]
	res.Frames = append(res.Frames, TimedFrame{
		Location: root.loc,
		Start:    0,
		End:      cursor,
		Counts:   root.counts,
	})
	res.TotalVisual = cursor

	if mode == DiffCount {
		res.DeltaMax = deltaMaxima(res.Frames, res.Overall)
	}
	return res
}

// deltaMaxima scans all timed frames except the synthetic root for the
// largest absolute self and total deltas, in raw and percent-point form.
func deltaMaxima(frames []TimedFrame, overall SampleCount) DeltaMax {
	var dm DeltaMax
	for i := range frames {
		f := &frames[i]
		if f.Location.Depth == 0 && f.Location.Function == "" {
			continue
		}
		dm.MaxAbsSelfDelta = maxAbs64(dm.MaxAbsSelfDelta, f.Counts.Self.Delta())
		dm.MaxAbsTotalDelta = maxAbs64(dm.MaxAbsTotalDelta, f.Counts.Total.Delta())
		dm.MaxAbsSelfDeltaPctPt = maxAbsFloat(dm.MaxAbsSelfDeltaPctPt, f.Counts.Self.DeltaPctPt(overall))
		dm.MaxAbsTotalDeltaPctPt = maxAbsFloat(dm.MaxAbsTotalDeltaPctPt, f.Counts.Total.DeltaPctPt(overall))
	}
	return dm
}

func maxAbs64(cur, v int64) int64 {
	if v < 0 {
		v = -v
	}
	if v > cur {
		return v
	}
	return cur
}

func maxAbsFloat(cur, v float64) float64 {
	if v < 0 {
		v = -v
	}
	if v > cur {
		return v
	}
	return cur
}
