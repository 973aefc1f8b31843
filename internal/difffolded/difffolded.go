// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package difffolded merges two folded stack profiles into the two-count
// differential format consumed by the renderer: `stack before after`, one
// line per stack seen in either profile.
package difffolded

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"inferno/internal/flamegraph/merge"
)

// Options configures the fold.
type Options struct {
	// Normalize scales the first profile's counts so both profiles have the
	// same total. Useful when the two profiles were sampled for different
	// durations.
	Normalize bool
	// StripHex replaces hexadecimal addresses in frame names with "0x...",
	// so unsymbolised frames from different runs can line up.
	StripHex bool
}

var hexAddress = regexp.MustCompile(`0x[0-9a-fA-F]+`)

type stackCounts struct {
	before int64
	after  int64
}

// Fold reads two single-count folded profiles and writes their differential
// folding to w, sorted by stack.
func Fold(opt *Options, before, after io.Reader, w io.Writer) error {
	counts := make(map[string]*stackCounts)
	beforeTotal, err := accumulate(before, opt.StripHex, counts, func(c *stackCounts, n int64) {
		c.before += n
	})
	if err != nil {
		return errors.Wrap(err, "failed to read first profile")
	}
	afterTotal, err := accumulate(after, opt.StripHex, counts, func(c *stackCounts, n int64) {
		c.after += n
	})
	if err != nil {
		return errors.Wrap(err, "failed to read second profile")
	}

	if opt.Normalize && beforeTotal > 0 && beforeTotal != afterTotal {
		ratio := float64(afterTotal) / float64(beforeTotal)
		for _, c := range counts {
			c.before = int64(math.Round(float64(c.before) * ratio))
		}
	}

	stacks := make([]string, 0, len(counts))
	for stack := range counts {
		stacks = append(stacks, stack)
	}
	sort.Strings(stacks)

	bw := bufio.NewWriter(w)
	for _, stack := range stacks {
		c := counts[stack]
		if _, err := fmt.Fprintf(bw, "%s %d %d\n", stack, c.before, c.after); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// accumulate parses one folded profile into counts, returning its total.
func accumulate(r io.Reader, stripHex bool, counts map[string]*stackCounts, add func(*stackCounts, int64)) (int64, error) {
	var total int64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "# ") {
			continue
		}
		stack, count, _, ok := merge.ParseLine(line, merge.SingleCount)
		if !ok {
			continue
		}
		if stripHex {
			stack = hexAddress.ReplaceAllString(stack, "0x...")
		}
		c, found := counts[stack]
		if !found {
			c = &stackCounts{}
			counts[stack] = c
		}
		add(c, count.After)
		total += count.After
	}
	return total, scanner.Err()
}
