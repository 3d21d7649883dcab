package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-morp/config"
	"go-morp/midi"
	"go-morp/rig"
	"go-morp/sequencer"
	"go-morp/theme"
)

type noPorts struct{}

func (noPorts) Source(string) (midi.Source, error) { return nil, midi.ErrPortNotFound }
func (noPorts) Sink(string) (midi.Sink, error)     { return nil, midi.ErrPortNotFound }
func (noPorts) CloseInput(string)                  {}
func (noPorts) CloseOutput(string)                 {}
func (noPorts) InputError(string) error            { return midi.ErrPortNotFound }
func (noPorts) OutputError(string) error           { return midi.ErrPortNotFound }

func newModel(t *testing.T, cfg *config.Config) Model {
	t.Helper()
	r := rig.NewManager(noPorts{})
	if err := r.Build(cfg); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return NewModel(r, theme.New(theme.Plasma()))
}

func press(m Model, key string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(Model)
}

func TestTransportKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Outputs = []string{"synth"}
	m := newModel(t, cfg)

	m = press(m, "r")
	if m.snap.State != sequencer.Recording || !strings.Contains(m.View(), "REC") {
		t.Fatalf("expected recording, got %v", m.snap.State)
	}
	m.Rig.Dispatch(midi.NewNoteOn(60, 100))
	m = press(m, "r")
	if m.snap.State != sequencer.Idle || m.snap.PatternEvents != 1 {
		t.Fatalf("expected idle with the take installed: %+v", m.snap)
	}
	m = press(m, "p")
	if !strings.Contains(m.View(), "PLAY") {
		t.Fatal("expected PLAY in view")
	}
	if !strings.Contains(m.View(), "out synth") {
		t.Fatal("configured output missing from view")
	}
}

func TestThruWithoutSequencer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sequencer.Enabled = false
	m := newModel(t, cfg)

	m = press(m, "p")
	if !strings.Contains(m.View(), "THRU") || !strings.Contains(m.View(), "sequencer disabled") {
		t.Fatalf("view should report disabled sequencer:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t, config.DefaultConfig())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || next.(Model).View() != "" {
		t.Fatal("q should quit")
	}
}

func TestShowClock(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.ShowClock = true
	m := newModel(t, cfg)

	m = press(m, "r")
	m.Rig.DispatchClock()
	m.Rig.DispatchClock()
	m = press(m, "x")
	if !strings.Contains(m.View(), "clock 2") {
		t.Fatalf("expected clock position in header:\n%s", m.View())
	}
}

func TestClearPattern(t *testing.T) {
	m := newModel(t, config.DefaultConfig())
	m = press(m, "r")
	m.Rig.Dispatch(midi.NewNoteOn(60, 100))
	m = press(m, "r")
	if m.snap.PatternEvents != 1 {
		t.Fatalf("expected a recorded event, got %d", m.snap.PatternEvents)
	}
	m = press(m, "c")
	if m.snap.PatternEvents != 0 || !strings.Contains(m.View(), "pattern cleared") {
		t.Fatalf("pattern not cleared:\n%s", m.View())
	}
}
