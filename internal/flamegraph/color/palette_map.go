// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package color

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// PaletteMap persists the colour chosen for each function so that repeated
// renders colour the same functions consistently. The on-disk format is one
// `name->rgb(r,g,b)` entry per line.
type PaletteMap struct {
	colors map[string]Color
	dirty  bool
}

// NewPaletteMap returns an empty palette map.
func NewPaletteMap() *PaletteMap {
	return &PaletteMap{colors: make(map[string]Color)}
}

// LoadPaletteMap reads a palette map file. A missing file yields an empty
// map so that the first render of a session can create it.
func LoadPaletteMap(path string) (*PaletteMap, error) {
	m := NewPaletteMap()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, errors.Wrap(err, "failed to open palette map")
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, c, err := parsePaletteMapEntry(line)
		if err != nil {
			return nil, err
		}
		m.colors[name] = c
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read palette map")
	}
	return m, nil
}

func parsePaletteMapEntry(line string) (string, Color, error) {
	sep := strings.Index(line, "->")
	if sep < 0 {
		return "", Color{}, errors.Errorf("invalid palette map entry: %q", line)
	}
	name := line[:sep]
	var c Color
	if _, err := fmt.Sscanf(line[sep+2:], "rgb(%d,%d,%d)", &c.R, &c.G, &c.B); err != nil {
		return "", Color{}, errors.Wrapf(err, "invalid palette map color: %q", line)
	}
	return name, c, nil
}

// Save writes the palette map with entries sorted by function name. It is a
// no-op when no new colours were assigned since loading.
func (m *PaletteMap) Save(path string) error {
	if !m.dirty {
		return nil
	}
	names := make([]string, 0, len(m.colors))
	for name := range m.colors {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		c := m.colors[name]
		fmt.Fprintf(&sb, "%s->rgb(%d,%d,%d)\n", name, c.R, c.G, c.B)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil { // #nosec G306
		return errors.Wrap(err, "failed to write palette map")
	}
	m.dirty = false
	return nil
}

// FindColorFor returns the stored colour for function, generating and
// recording one via gen on first sight.
func (m *PaletteMap) FindColorFor(function string, gen func(string) Color) Color {
	if c, ok := m.colors[function]; ok {
		return c
	}
	c := gen(function)
	m.colors[function] = c
	m.dirty = true
	return c
}

// Len reports the number of recorded functions.
func (m *PaletteMap) Len() int {
	return len(m.colors)
}
