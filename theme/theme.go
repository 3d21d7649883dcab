package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Keyboard strip
	KeyHeld rune // █ pitch sounding
	KeyFree rune // ─ pitch silent

	// Beat ruler
	BeatNow   rune // ▶ current beat
	BeatDone  rune // ● beat already passed this measure
	BeatAhead rune // · beat still to come

	// Port status
	PortOpen  rune // ● open
	PortError rune // ✕ failed to open
	PortIdle  rune // ○ not open yet
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			KeyHeld: '█',
			KeyFree: '─',

			BeatNow:   '▶',
			BeatDone:  '●',
			BeatAhead: '·',

			PortOpen:  '●',
			PortError: '✕',
			PortIdle:  '○',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.3
	RoleFG      = 0.5
	RoleAccent  = 0.6
	RoleActive  = 0.7  // sounding notes
	RoleRecord  = 0.55 // recording
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Record() lipgloss.Color  { return t.Color(RoleRecord) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// Velocity returns the color for a note velocity, brighter when harder
func (t *Theme) Velocity(v uint8) lipgloss.Color {
	return t.Color(RoleMuted + (RoleSuccess-RoleMuted)*float64(v)/127)
}
