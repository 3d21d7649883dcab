package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-morp/midi"
	"go-morp/rig"
	"go-morp/sequencer"
	"go-morp/theme"
	"go-morp/widgets"
)

// Recent events shown under the keyboard
const recentLines = 8

type Model struct {
	Rig      *rig.Manager
	Theme    *theme.Theme
	keyboard widgets.Keyboard
	snap     rig.Snapshot
	message  string
	quitting bool
}

type UpdateMsg struct{}

func NewModel(r *rig.Manager, th *theme.Theme) Model {
	return Model{
		Rig:   r,
		Theme: th,
		keyboard: widgets.Keyboard{
			Low:       36,
			High:      96,
			Held:      th.Symbols.KeyHeld,
			Free:      th.Symbols.KeyFree,
			HeldColor: th.Active(),
			FreeColor: th.Muted(),
		},
		snap: r.Snapshot(),
	}
}

func ListenForUpdates(r *rig.Manager) tea.Cmd {
	return func() tea.Msg {
		<-r.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Rig)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.report("", m.Rig.ToggleRecord())
		case "p":
			m.report("", m.Rig.Play())
		case "s", " ":
			m.report("", m.Rig.StopSequencer())
		case "z":
			m.report("rewound", m.Rig.Reset())
		case "w":
			path, err := m.Rig.SavePattern("")
			m.report("saved "+path, err)
		case "l":
			m.report("loaded latest pattern", m.Rig.LoadPattern(""))
		case "d":
			name, err := m.Rig.DeletePattern("")
			m.report("deleted "+name, err)
		case "c":
			m.report("pattern cleared", m.Rig.ClearPattern())
		}
		m.snap = m.Rig.Snapshot()

	case UpdateMsg:
		m.snap = m.Rig.Snapshot()
		return m, ListenForUpdates(m.Rig)
	}

	return m, nil
}

// report shows err, or ok when there is no error
func (m *Model) report(ok string, err error) {
	if err != nil {
		m.message = err.Error()
		return
	}
	m.message = ok
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.snap

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render("go-morp  " + m.transport(snap)))
	out.WriteString("\n\n")

	if snap.HasSequencer {
		out.WriteString(widgets.RenderBeats(snap.Beat(), snap.Meter.Count,
			m.Theme.Symbols.BeatNow, m.Theme.Symbols.BeatDone, m.Theme.Symbols.BeatAhead, fgStyle))
		out.WriteString(dimStyle.Render(fmt.Sprintf("   pattern: %d bars, %d events", snap.PatternMeasures, snap.PatternEvents)))
		if snap.State == sequencer.Recording {
			out.WriteString(dimStyle.Render(fmt.Sprintf("   take: %d events", snap.TakeEvents)))
		}
		out.WriteString("\n\n")
	}

	out.WriteString(fgStyle.Render(snap.Signal()))
	out.WriteString("\n\n")
	out.WriteString(m.keyboard.Render(snap.Sounding))
	out.WriteString("\n\n")

	out.WriteString(m.renderPorts(snap))
	out.WriteString("\n\n")

	if len(snap.Recent) > 0 {
		out.WriteString(widgets.RenderEvents(snap.Recent, recentLines, func(e midi.Event) lipgloss.Color {
			if e.IsNoteOn() {
				return m.Theme.Velocity(e.Velocity)
			}
			return m.Theme.Muted()
		}))
		out.WriteString("\n\n")
	}

	if m.message != "" {
		out.WriteString(fgStyle.Render(m.message))
		out.WriteString("\n\n")
	}

	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{{
		Keys: []widgets.KeyBinding{
			{Key: "r", Desc: "record / finish take"},
			{Key: "p", Desc: "play pattern"},
			{Key: "s", Desc: "stop"},
			{Key: "z", Desc: "rewind"},
			{Key: "w / l", Desc: "save / load pattern"},
			{Key: "d", Desc: "delete newest saved pattern"},
			{Key: "c", Desc: "clear pattern"},
			{Key: "q", Desc: "quit"},
		},
	}})))
	return out.String()
}

func (m Model) transport(snap rig.Snapshot) string {
	if !snap.HasSequencer {
		if snap.ShowClock {
			return fmt.Sprintf("THRU  %d events", snap.Dispatched)
		}
		return "THRU"
	}
	var state string
	switch snap.State {
	case sequencer.Recording:
		state = lipgloss.NewStyle().Foreground(m.Theme.Record()).Render("REC ")
	case sequencer.Playing:
		state = lipgloss.NewStyle().Foreground(m.Theme.Success()).Render("PLAY")
	default:
		state = "IDLE"
	}
	line := fmt.Sprintf("%s  %d/%d  bar %d beat %d", state,
		snap.Meter.Count, snap.Meter.Subdivision, snap.Measure(), snap.Beat())
	if snap.ShowClock {
		line += fmt.Sprintf("  clock %d", snap.Position)
	}
	return line
}

func (m Model) renderPorts(snap rig.Snapshot) string {
	sent := make(map[string]rig.OutputStatus, len(snap.Outputs))
	for _, o := range snap.Outputs {
		sent[o.Name] = o
	}

	var lines []string
	for _, p := range snap.Ports {
		symbol, color := m.Theme.Symbols.PortIdle, m.Theme.Muted()
		switch {
		case p.Err != nil:
			symbol, color = m.Theme.Symbols.PortError, m.Theme.Warning()
		case p.Open:
			symbol, color = m.Theme.Symbols.PortOpen, m.Theme.Success()
		}

		dir := "out"
		if p.Input {
			dir = "in "
		}
		line := fmt.Sprintf("%c %s %s", symbol, dir, p.Name)
		if o, ok := sent[p.Name]; ok && !p.Input {
			line += fmt.Sprintf("  sent %d", o.Sent)
			if o.Failed > 0 {
				line += fmt.Sprintf(" failed %d", o.Failed)
			}
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(line))
	}
	if len(lines) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("no ports configured")
	}
	return strings.Join(lines, "\n")
}
