package theme

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//go:embed default.gpl
var defaultGPL string

type RGB [3]uint8

// Palette is an ordered colour ramp; meters sample it by value
type Palette struct {
	Name   string
	Colors []RGB
}

// DefaultPalette returns the palette compiled into the binary
func DefaultPalette() *Palette {
	p, err := ParseGPL(strings.NewReader(defaultGPL), "default.gpl")
	if err != nil {
		panic(fmt.Sprintf("embedded palette: %v", err))
	}
	return p
}

// LoadOrDefault loads the GIMP palette at path. An empty path, or a file
// that cannot be used, yields the embedded palette (plus the error).
func LoadOrDefault(path string) (*Palette, error) {
	if path == "" {
		return DefaultPalette(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return DefaultPalette(), err
	}
	defer f.Close()

	p, err := ParseGPL(f, path)
	if err != nil {
		return DefaultPalette(), err
	}
	return p, nil
}

// ParseGPL reads a GIMP palette. Colour rows are "R G B [label]"; header,
// comment and malformed rows are skipped. source only labels errors.
func ParseGPL(r io.Reader, source string) (*Palette, error) {
	p := &Palette{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if name, ok := strings.CutPrefix(line, "Name:"); ok {
			p.Name = strings.TrimSpace(name)
			continue
		}
		if c, ok := parseRow(line); ok {
			p.Colors = append(p.Colors, c)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read palette %s: %w", source, err)
	}
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %s", source)
	}
	return p, nil
}

func parseRow(line string) (RGB, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return RGB{}, false
	}
	var c RGB
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil || v < 0 || v > 255 {
			return RGB{}, false
		}
		c[i] = uint8(v)
	}
	return c, true
}

// Lookup samples the ramp at norm (clamped to 0-1), blending neighbours
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	pos := min(max(norm, 0), 1) * float64(last)
	i := min(int(pos), last)
	if i == last {
		return p.Colors[last]
	}
	frac := pos - float64(i)
	var out RGB
	for k := range out {
		a, b := float64(p.Colors[i][k]), float64(p.Colors[i+1][k])
		out[k] = uint8(a + (b-a)*frac)
	}
	return out
}
