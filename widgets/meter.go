package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MeterGlyphs are the runes a meter is drawn with
type MeterGlyphs struct {
	Full, Half, Empty rune
}

// MeterBar draws a 7-bit value as width cells with half-cell resolution
func MeterBar(value, width int, g MeterGlyphs) string {
	if width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 127 {
		value = 127
	}
	halves := (value*2*width + 63) / 127
	full, half := halves/2, halves%2

	var b strings.Builder
	b.WriteString(strings.Repeat(string(g.Full), full))
	if half == 1 {
		b.WriteRune(g.Half)
	}
	b.WriteString(strings.Repeat(string(g.Empty), width-full-half))
	return b.String()
}

// RenderMeter renders "label  bar  value" with the bar in color
func RenderMeter(label string, value, width int, color lipgloss.Color, g MeterGlyphs) string {
	bar := lipgloss.NewStyle().Foreground(color).Render(MeterBar(value, width, g))
	return fmt.Sprintf("%-14s %s %3d", label, bar, value)
}

// RenderFlag renders a labelled on/off indicator
func RenderFlag(label string, on bool, onColor, offColor lipgloss.Color, onGlyph, offGlyph rune) string {
	glyph, color := offGlyph, offColor
	if on {
		glyph, color = onGlyph, onColor
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(glyph)) + " " + label
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
