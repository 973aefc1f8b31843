// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package flamegraph

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inferno/internal/flamegraph/merge"
)

// testOptions returns options that produce stable, comparable output: no
// embedded script, pretty printing, and name-keyed colors.
func testOptions() *Options {
	opt := DefaultOptions()
	opt.NoJavaScript = true
	opt.PrettyXML = true
	opt.Hash = true
	return opt
}

// captureLogs redirects the default logger into a buffer for the duration of
// fn and returns what was logged.
func captureLogs(fn func()) string {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(old)
	fn()
	return buf.String()
}

func render(t *testing.T, opt *Options, lines []string, mode merge.CountMode) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, FromLines(opt, lines, mode, &out))
	return out.String()
}

func TestTopYPaddingAdjustsForSubtitle(t *testing.T) {
	plain := DefaultOptions()
	withSubtitle := DefaultOptions()
	withSubtitle.Subtitle = "hello!"
	assert.Greater(t, withSubtitle.ypad1(), plain.ypad1())
}

func TestYPaddingAdjustsForInvertedMode(t *testing.T) {
	regular := DefaultOptions()
	inverted := DefaultOptions()
	inverted.Direction = DirectionInverted
	assert.Greater(t, inverted.ypad1(), regular.ypad1())
	assert.Less(t, inverted.ypad2(), regular.ypad2())
}

func TestDeannotate(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"func_[k]", "func"},
		{"func_[w]", "func"},
		{"func_[i]", "func"},
		{"func_[j]", "func"},
		{"func_[x]", "func_[x]"},
		{"func_[kk]", "func_[kk]"},
		{"func", "func"},
		{"_[k]", ""},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, deannotate(test.name), test.name)
	}
}

func TestReverseStackLine(t *testing.T) {
	tests := []struct {
		line     string
		expected string
	}{
		{"a;b;c 10", "c;b;a 10"},
		{"a 1", "a 1"},
		{"a;b 3 7", "b;a 3 7"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, reverseStackLine(test.line), test.line)
	}
}

func TestFilterBase(t *testing.T) {
	lines := []string{"a;b;c;d 5", "x;y 3", "c 1"}
	filtered := filterBase(lines, []string{"c"})
	assert.Equal(t, []string{"c;d 5"}, filtered)
}

func TestFilterBaseRightMostOccurrence(t *testing.T) {
	filtered := filterBase([]string{"c;a;c;d 5"}, []string{"c"})
	assert.Equal(t, []string{"c;d 5"}, filtered)
}

func TestEmptyInput(t *testing.T) {
	opt := testOptions()
	var out bytes.Buffer
	var err error
	logged := captureLogs(func() {
		err = FromLines(opt, nil, merge.SingleCount, &out)
	})
	require.ErrorIs(t, err, ErrNoStackCounts)
	assert.Contains(t, out.String(), "ERROR: No valid input provided to flamegraph")
	assert.Contains(t, logged, "No stack counts found")
}

func TestSingleStack(t *testing.T) {
	out := render(t, testOptions(), []string{"a;b;c 10"}, merge.SingleCount)
	assert.Contains(t, out, "<title>all (10 samples, 100%)</title>")
	assert.Contains(t, out, "<title>a (10 samples, 100.00%)</title>")
	assert.Contains(t, out, "<title>b (10 samples, 100.00%)</title>")
	assert.Contains(t, out, "<title>c (10 samples, 100.00%)</title>")
	assert.Contains(t, out, `total_samples="10"`)
	// all four frames are full width
	assert.Equal(t, 4, strings.Count(out, `width="100.0000%"`))
}

func TestTwoStacks(t *testing.T) {
	out := render(t, testOptions(), []string{"a;b 3", "a;c 7"}, merge.SingleCount)
	// imageheight = 3*16 + 36 + 34 = 118; depth 2 frames sit at y = 118-34-48+1
	assert.Contains(t, out, `x="0.0000%" y="37" width="30.0000%"`)
	assert.Contains(t, out, `x="30.0000%" y="37" width="70.0000%"`)
	assert.Contains(t, out, "<title>b (3 samples, 30.00%)</title>")
	assert.Contains(t, out, "<title>c (7 samples, 70.00%)</title>")
}

func TestImageHeight(t *testing.T) {
	opt := testOptions()
	out := render(t, opt, []string{"a;b;c 10"}, merge.SingleCount)
	// depthmax 3: (3+1)*16 + fontSize*3 + fontSize*2+10
	expected := 4*opt.FrameHeight + opt.ypad1() + opt.ypad2()
	assert.Contains(t, out, fmt.Sprintf(`height="%d"`, expected))
	assert.Contains(t, out, fmt.Sprintf(`viewBox="0 0 1200 %d"`, expected))
}

func TestMinWidthPrunesNarrowFrames(t *testing.T) {
	out := render(t, testOptions(), []string{"a 99999", "b 1"}, merge.SingleCount)
	assert.Contains(t, out, "<title>a (")
	assert.NotContains(t, out, "<title>b (")
}

func TestFractionalWarningLoggedOnce(t *testing.T) {
	opt := testOptions()
	logged := captureLogs(func() {
		render(t, opt, []string{"x 1.5", "y 2.25"}, merge.SingleCount)
	})
	assert.Equal(t, 1, strings.Count(logged, "The input data has fractional sample counts"))
}

func TestIgnoredLinesWarning(t *testing.T) {
	logged := captureLogs(func() {
		render(t, testOptions(), []string{"a 1", "bogus", "also bad x"}, merge.SingleCount)
	})
	assert.Contains(t, logged, "Ignored 2 lines with invalid format")
}

func TestNoSortIgnoredWithReversal(t *testing.T) {
	opt := testOptions()
	opt.ReverseStackOrder = true
	opt.NoSort = true
	logged := captureLogs(func() {
		render(t, opt, []string{"a;b 1"}, merge.SingleCount)
	})
	assert.Contains(t, logged, "no-sort option is being ignored")
}

func TestCommentAndBlankLinesIgnoredSilently(t *testing.T) {
	logged := captureLogs(func() {
		out := render(t, testOptions(), []string{"# a comment", "", "  ", "a 1"}, merge.SingleCount)
		assert.Contains(t, out, "<title>a (1 samples, 100.00%)</title>")
	})
	assert.NotContains(t, logged, "Ignored")
}

func TestReversedEqualsPreReversedSorted(t *testing.T) {
	opt := testOptions()
	opt.ReverseStackOrder = true
	reversed := render(t, opt, []string{"a;b 3", "a;c 7"}, merge.SingleCount)
	direct := render(t, testOptions(), []string{"b;a 3", "c;a 7"}, merge.SingleCount)
	assert.Equal(t, direct, reversed)
}

func TestRenderingTwiceIsByteIdentical(t *testing.T) {
	lines := []string{"a;b 3", "a;c 7"}
	first := render(t, testOptions(), lines, merge.SingleCount)
	second := render(t, testOptions(), lines, merge.SingleCount)
	assert.Equal(t, first, second)
}

func TestDiffColors(t *testing.T) {
	opt := testOptions()
	out := render(t, opt, []string{"f 10 20", "g 5 0"}, merge.DiffCount)
	// f grew by the self delta maximum: fully red
	assert.Contains(t, out, `fill="rgb(255,0,0)"`)
	// g has zero width under the default after source and is pruned
	assert.NotContains(t, out, "<title>g")
	// brief tooltip carries the percent-point change
	assert.Contains(t, out, "<title>f (20 samples, 100.00%; +50.00%)</title>")
}

func TestDiffNegated(t *testing.T) {
	opt := testOptions()
	opt.NegateDifferentials = true
	out := render(t, opt, []string{"f 10 20", "g 1 1"}, merge.DiffCount)
	// f grew, so negation turns it blue
	assert.Contains(t, out, `fill="rgb(0,0,255)"`)
}

func TestDiffDetailedTooltips(t *testing.T) {
	opt := testOptions()
	opt.FrameWidthSource = merge.WidthAllSamples
	out := render(t, opt, []string{"f 10 20"}, merge.DiffCount)
	assert.Contains(t, out, "Self:")
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "Visual Width:")
	assert.Contains(t, out, "Before:")
	assert.Contains(t, out, "After:")
	assert.Contains(t, out, "Change:")
}

func TestFlameChartKeepsAdjacentStacksApart(t *testing.T) {
	opt := testOptions()
	out := render(t, opt, []string{"a;b 1", "a;b 1"}, merge.SingleCount)
	// plain mode merges the identical stacks
	assert.Equal(t, 1, strings.Count(out, "<title>b ("))

	opt = testOptions()
	opt.FlameChart = true
	out = render(t, opt, []string{"a;b 1", "a;b 1"}, merge.SingleCount)
	assert.Equal(t, 2, strings.Count(out, "<title>b ("))
	assert.Equal(t, 1, strings.Count(out, "<title>a ("))
}

func TestBaseFilterDropsStacksWithoutBase(t *testing.T) {
	opt := testOptions()
	opt.Base = []string{"c"}
	out := render(t, opt, []string{"a;b;c;d 5", "x;y 3"}, merge.SingleCount)
	assert.Contains(t, out, "<title>c (5 samples, 100.00%)</title>")
	assert.Contains(t, out, "<title>d (5 samples, 100.00%)</title>")
	assert.NotContains(t, out, "<title>x")
	assert.NotContains(t, out, "<title>a (")
}

func TestSentinelFrameColors(t *testing.T) {
	out := render(t, testOptions(), []string{"a;- 1", "a;-- 1"}, merge.SingleCount)
	assert.Contains(t, out, `fill="rgb(200,200,200)"`)
	assert.Contains(t, out, `fill="rgb(160,160,160)"`)
}

func TestFrameAttrsHyperlink(t *testing.T) {
	opt := testOptions()
	attrs, err := ParseFrameAttrs(strings.NewReader("hot\thref=http://example.com/hot\tclass=special\n"))
	require.NoError(t, err)
	opt.FuncFrameAttrs = attrs
	out := render(t, opt, []string{"main;hot 10"}, merge.SingleCount)
	assert.Contains(t, out, `<a class="special" target="_top" xlink:href="http://example.com/hot">`)
	assert.Contains(t, out, "</a>")
}

func TestTruncatedLabels(t *testing.T) {
	opt := testOptions()
	longName := strings.Repeat("x", 300)
	out := render(t, opt, []string{longName + " 10"}, merge.SingleCount)
	assert.Contains(t, out, "..</text>")

	opt = testOptions()
	opt.TextTruncateDirection = TruncateRight
	out = render(t, opt, []string{longName + " 10"}, merge.SingleCount)
	assert.Contains(t, out, ">..")
}

func TestNarrowFramesGetNoLabel(t *testing.T) {
	out := render(t, testOptions(), []string{"wide 999", "thin;deep_function_name 1"}, merge.SingleCount)
	// the 0.1% frame fits no characters
	assert.NotContains(t, out, "deep_function_name</text>")
	assert.Contains(t, out, "wide</text>")
}

func TestFactorScalesDisplayedCounts(t *testing.T) {
	opt := testOptions()
	opt.Factor = 0.1
	out := render(t, opt, []string{"a 234"}, merge.SingleCount)
	// counts are rounded for display, percentages keep the raw denominator
	assert.Contains(t, out, "<title>a (23 samples, 98.29%)</title>")
}

func TestThousandsSeparatorsInTooltips(t *testing.T) {
	out := render(t, testOptions(), []string{"a 1234567"}, merge.SingleCount)
	assert.Contains(t, out, "1,234,567 samples")
}

func TestDetectDiff(t *testing.T) {
	assert.True(t, DetectDiff("a;b 1 2\n"))
	assert.False(t, DetectDiff("a;b 1\n"))
	assert.False(t, DetectDiff("# comment\n\nnothing here\n"))
	assert.True(t, DetectDiff("# comment\na 3 4\n"))
}

func TestFromReaderDetectsDiff(t *testing.T) {
	opt := testOptions()
	var out bytes.Buffer
	require.NoError(t, FromReader(opt, strings.NewReader("f 10 20\n"), &out))
	assert.Contains(t, out.String(), "+50.00%")
}

func TestInvertedLayout(t *testing.T) {
	opt := testOptions()
	opt.Direction = DirectionInverted
	out := render(t, opt, []string{"a 10"}, merge.SingleCount)
	// the root frame starts right below the top padding
	assert.Contains(t, out, fmt.Sprintf(`y="%d"`, opt.ypad1()))
}

func TestNoJavaScriptOmitsAssets(t *testing.T) {
	out := render(t, testOptions(), []string{"a 1"}, merge.SingleCount)
	assert.Contains(t, out, "<script type=\"text/ecmascript\"><![CDATA[]]></script>")

	opt := DefaultOptions()
	opt.Hash = true
	withJS := render(t, opt, []string{"a 1"}, merge.SingleCount)
	assert.Contains(t, withJS, "function init(evt)")
	assert.Contains(t, withJS, "var nametype = \"Function:\";")
}

func TestSubtitleRendered(t *testing.T) {
	opt := testOptions()
	opt.Subtitle = "second line"
	out := render(t, opt, []string{"a 1"}, merge.SingleCount)
	assert.Contains(t, out, `<text id="subtitle"`)
	assert.Contains(t, out, ">second line</text>")
}

func TestXMLEscaping(t *testing.T) {
	out := render(t, testOptions(), []string{"std::vector<int>;a&b 1"}, merge.SingleCount)
	assert.Contains(t, out, "std::vector&lt;int&gt;")
	assert.Contains(t, out, "a&amp;b")
	assert.NotContains(t, out, "<int>")
}
