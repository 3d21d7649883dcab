package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-morp/midi"
)

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

// Keyboard renders one cell per pitch from Low to High, marking held pitches
type Keyboard struct {
	Low, High  uint8
	Held, Free rune
	HeldColor  lipgloss.Color
	FreeColor  lipgloss.Color
}

// Render draws the strip with an octave label under every C that fits
func (k Keyboard) Render(held []uint8) string {
	on := make(map[uint8]bool, len(held))
	for _, p := range held {
		on[p] = true
	}
	heldStyle := lipgloss.NewStyle().Foreground(k.HeldColor)
	freeStyle := lipgloss.NewStyle().Foreground(k.FreeColor)

	width := int(k.High) - int(k.Low) + 1
	labels := []byte(strings.Repeat(" ", max(width, 0)))

	var keys strings.Builder
	for p := int(k.Low); p <= int(k.High); p++ {
		if on[uint8(p)] {
			keys.WriteString(heldStyle.Render(string(k.Held)))
		} else {
			keys.WriteString(freeStyle.Render(string(k.Free)))
		}
		if label := midi.NoteName(uint8(p)); p%12 == 0 && p-int(k.Low)+len(label) <= width {
			copy(labels[p-int(k.Low):], label)
		}
	}
	return keys.String() + "\n" + freeStyle.Render(string(labels))
}

// RenderBeats draws one symbol per beat of the measure
func RenderBeats(beat, count int, now, done, ahead rune, style lipgloss.Style) string {
	var out strings.Builder
	for b := 1; b <= count; b++ {
		if b > 1 {
			out.WriteString(" ")
		}
		switch {
		case b == beat:
			out.WriteRune(now)
		case b < beat:
			out.WriteRune(done)
		default:
			out.WriteRune(ahead)
		}
	}
	return style.Render(out.String())
}

// RenderEvents lists the most recent events, newest last, up to max lines
func RenderEvents(events []midi.Event, max int, color func(midi.Event) lipgloss.Color) string {
	if len(events) > max {
		events = events[len(events)-max:]
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, lipgloss.NewStyle().Foreground(color(e)).Render(e.String()))
	}
	return strings.Join(lines, "\n")
}
