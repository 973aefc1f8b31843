// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package flamegraph

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// FrameAttrs carries extra SVG attributes for one function's frames. When
// the attributes include an xlink:href, the frame container becomes an
// anchor element. A non-empty Title overrides the generated tooltip.
type FrameAttrs struct {
	Title string
	Attrs map[string]string
}

// FrameAttrsMap maps function names to their extra attributes.
type FrameAttrsMap map[string]*FrameAttrs

// HasHref reports whether the frame container should be an <a> element.
func (a *FrameAttrs) HasHref() bool {
	if a == nil {
		return false
	}
	_, ok := a.Attrs["xlink:href"]
	return ok
}

// ParseFrameAttrs reads a function attributes file: one function per line,
// the name followed by tab-separated attr=value pairs. An href attribute is
// stored as xlink:href; a title attribute overrides the tooltip text.
func ParseFrameAttrs(r io.Reader) (FrameAttrsMap, error) {
	m := make(FrameAttrsMap)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		name := fields[0]
		attrs := &FrameAttrs{Attrs: make(map[string]string)}
		for _, field := range fields[1:] {
			sep := strings.IndexByte(field, '=')
			if sep < 0 {
				return nil, errors.Errorf("invalid function attribute: %q", field)
			}
			key := field[:sep]
			value := strings.Trim(field[sep+1:], `"`)
			switch key {
			case "title":
				attrs.Title = value
			case "href":
				attrs.Attrs["xlink:href"] = value
			default:
				attrs.Attrs[key] = value
			}
		}
		// default target for linked frames
		if _, ok := attrs.Attrs["xlink:href"]; ok {
			if _, ok := attrs.Attrs["target"]; !ok {
				attrs.Attrs["target"] = "_top"
			}
		}
		m[name] = attrs
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read function attributes")
	}
	return m, nil
}
