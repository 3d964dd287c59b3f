package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"swam-ewi/engine"
	"swam-ewi/router"
	"swam-ewi/theme"
	"swam-ewi/widgets"
)

const meterWidth = 24

var helpKeys = []widgets.KeySection{{
	Title: "Keys",
	Keys: []widgets.KeyBinding{
		{Key: "+ / -", Desc: "nudge parameter"},
		{Key: "r", Desc: "reset session"},
		{Key: "space", Desc: "panic (all notes off)"},
		{Key: "q", Desc: "quit"},
	},
}}

// meter is one output controller shown as a bar
type meter struct {
	label string
	cc    int
}

type Model struct {
	Router   *router.Manager
	Theme    *theme.Theme
	meters   []meter
	quitting bool
}

type UpdateMsg struct{}

func NewModel(r *router.Manager, th *theme.Theme) Model {
	return Model{
		Router: r,
		Theme:  th,
		meters: metersFor(r.Profile()),
	}
}

// metersFor lists the output controllers the profile drives
func metersFor(p engine.Profile) []meter {
	all := []meter{
		{"breath", p.BreathCC},
		{"bow pressure", p.BowPressureCC},
		{"bow position", p.BowPositionCC},
		{"breath noise", p.BreathNoiseCC},
		{"vibrato rate", p.VibratoRateCC},
		{"vibrato depth", p.VibratoDepthCC},
		{"portamento", p.PortamentoCC},
		{"alt fingering", p.AltFingeringCC},
		{"harmonic", p.HarmonicCC},
		{"brightness", p.BrightnessCC},
		{"pipe split", p.PipeSplitCC},
	}
	var out []meter
	for _, m := range all {
		if m.cc != engine.NoCC {
			out = append(out, m)
		}
	}
	return out
}

func ListenForUpdates(r *router.Manager) tea.Cmd {
	return func() tea.Msg {
		<-r.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Router)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Router.Panic()
			return m, tea.Quit

		case "+", "=":
			m.Router.Nudge(1)

		case "-", "_":
			m.Router.Nudge(-1)

		case "r":
			m.Router.Reset()

		case " ", "space":
			m.Router.Panic()
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Router)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Router.Snapshot()
	t := m.Theme

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(t.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(t.FG())

	header := headerStyle.Render(fmt.Sprintf("swam-ewi  %s (%s)", snap.Profile, snap.Family))
	ports := fmt.Sprintf("%s  %s", m.port("in", snap.Input), m.port("out", snap.Output))
	param := fgStyle.Render(fmt.Sprintf("%s: %s", snap.ParamName, formatParam(snap.Param)))

	s := snap.State
	flags := []string{
		widgets.RenderFlag("portamento", s.PortamentoEnabled, t.Active(), t.Muted(), t.Symbols.On, t.Symbols.Off),
		widgets.RenderFlag("flautando", s.FlautandoEnabled, t.Active(), t.Muted(), t.Symbols.On, t.Symbols.Off),
		widgets.RenderFlag("harmonic", s.HarmonicActive(), t.Active(), t.Muted(), t.Symbols.On, t.Symbols.Off),
		widgets.RenderFlag("fast vibrato", s.FastVibratoEnabled, t.Active(), t.Muted(), t.Symbols.On, t.Symbols.Off),
	}
	session := dimStyle.Render(fmt.Sprintf("notes on %d  hand %s  last pitch %d", s.NotesOn, s.Hand, s.LastPitch))

	glyphs := widgets.MeterGlyphs{Full: t.Symbols.MeterFull, Half: t.Symbols.MeterHalf, Empty: t.Symbols.MeterEmpty}
	var meters []string
	for _, mt := range m.meters {
		v := snap.CC[mt.cc]
		label := fmt.Sprintf("%s %d", mt.label, mt.cc)
		meters = append(meters, widgets.RenderMeter(label, v, meterWidth, t.CCColor(v), glyphs))
	}

	last := "-"
	if snap.HasLastIn {
		last = snap.LastIn.String()
	}
	stats := dimStyle.Render(fmt.Sprintf("last in: %s  recv %d  sent %d  errors %d", last, snap.Received, snap.Sent, snap.Errors))

	help := dimStyle.Render(widgets.RenderKeyHelp(helpKeys))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(ports)
	out.WriteString("\n\n")
	out.WriteString(param)
	out.WriteString("\n")
	out.WriteString(strings.Join(flags, "   "))
	out.WriteString("\n")
	out.WriteString(session)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(meters, "\n"))
	out.WriteString("\n\n")
	out.WriteString(stats)
	out.WriteString("\n\n")
	out.WriteString(help)

	return out.String()
}

func (m Model) port(dir, name string) string {
	t := m.Theme
	if name == "" {
		return lipgloss.NewStyle().Foreground(t.Warning()).Render(fmt.Sprintf("%s %c none", dir, t.Symbols.Disconnected))
	}
	return lipgloss.NewStyle().Foreground(t.Success()).Render(fmt.Sprintf("%s %c %s", dir, t.Symbols.Connected, name))
}

func formatParam(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.2f", v)
}
