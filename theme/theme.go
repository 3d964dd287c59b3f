package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Meters
	MeterFull  rune // █ filled cell
	MeterHalf  rune // ▌ partially filled cell
	MeterEmpty rune // · empty cell

	// Flags
	On  rune // ● flag set
	Off rune // ○ flag clear

	// Ports
	Connected    rune // ▶ port open
	Disconnected rune // ✕ no port
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			MeterFull:  '█',
			MeterHalf:  '▌',
			MeterEmpty: '·',

			On:  '●',
			Off: '○',

			Connected:    '▶',
			Disconnected: '✕',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0   // night
	RoleMuted   = 0.25  // steel
	RoleFG      = 1.0   // bone
	RoleAccent  = 0.375 // teal
	RoleActive  = 0.75  // amber
	RoleWarning = 0.875 // ember
	RoleSuccess = 0.5   // sage
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// CCColor colours a 7-bit controller value, skipping the background end of
// the palette so zero stays visible
func (t *Theme) CCColor(value int) lipgloss.Color {
	return t.Color(RoleMuted + (1-RoleMuted)*float64(value)/127)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
