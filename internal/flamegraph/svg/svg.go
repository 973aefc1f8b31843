// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package svg streams SVG markup to a sink, with optional pretty printing.
//
// The writer keeps the first error it encounters and turns every later call
// into a no-op, so rendering code can emit an entire document and check the
// error once at the end.
package svg

import (
	"bufio"
	"io"
	"strings"
)

// Attr is one XML attribute.
type Attr struct {
	Key   string
	Value string
}

// Writer emits XML elements to an underlying sink. Pretty mode breaks
// elements onto their own lines with two-space indentation per level.
type Writer struct {
	w      *bufio.Writer
	pretty bool
	depth  int
	err    error
}

// NewWriter wraps sink in a buffered SVG writer.
func NewWriter(sink io.Writer, pretty bool) *Writer {
	return &Writer{w: bufio.NewWriterSize(sink, 64*1024), pretty: pretty}
}

// Err returns the first write error, if any, after flushing.
func (s *Writer) Err() error {
	if s.err == nil {
		s.err = s.w.Flush()
	}
	return s.err
}

func (s *Writer) write(str string) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.WriteString(str)
}

func (s *Writer) newline() {
	if s.pretty {
		s.write("\n")
		for i := 0; i < s.depth; i++ {
			s.write("  ")
		}
	}
}

// Prologue writes the XML declaration and SVG doctype.
func (s *Writer) Prologue() {
	s.write(`<?xml version="1.0" standalone="no"?>`)
	if s.pretty {
		s.write("\n")
	}
	s.write(`<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">`)
	if s.pretty {
		s.write("\n")
	}
}

// Open writes a start tag and increases the nesting depth.
func (s *Writer) Open(tag string, attrs ...Attr) {
	if s.depth > 0 {
		s.newline()
	}
	s.writeTag(tag, attrs, false)
	s.depth++
}

// Close writes an end tag.
func (s *Writer) Close(tag string) {
	s.depth--
	s.newline()
	s.write("</")
	s.write(tag)
	s.write(">")
}

// Empty writes a self-closing element.
func (s *Writer) Empty(tag string, attrs ...Attr) {
	s.newline()
	s.writeTag(tag, attrs, true)
}

// TextElement writes an element whose only content is escaped text, on a
// single line.
func (s *Writer) TextElement(tag, text string, attrs ...Attr) {
	s.newline()
	s.writeTag(tag, attrs, false)
	s.write(Escape(text))
	s.write("</")
	s.write(tag)
	s.write(">")
}

// CDATAElement writes an element wrapping raw content in a CDATA section,
// for embedded script and stylesheet blocks.
func (s *Writer) CDATAElement(tag, content string, attrs ...Attr) {
	s.newline()
	s.writeTag(tag, attrs, false)
	s.write("<![CDATA[")
	s.write(content)
	s.write("]]>")
	s.write("</")
	s.write(tag)
	s.write(">")
}

func (s *Writer) writeTag(tag string, attrs []Attr, selfClose bool) {
	s.write("<")
	s.write(tag)
	for _, a := range attrs {
		s.write(" ")
		s.write(a.Key)
		s.write(`="`)
		s.write(Escape(a.Value))
		s.write(`"`)
	}
	if selfClose {
		s.write("/>")
	} else {
		s.write(">")
	}
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape escapes text for use in XML content and attribute values.
func Escape(s string) string {
	return escaper.Replace(s)
}
