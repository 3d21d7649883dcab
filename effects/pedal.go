package effects

import (
	"go-morp/box"
	"go-morp/midi"
)

// Pedal behaves like a sustain pedal that goes down when the last held note
// is released. Other releases pass through until then; while pedaling every
// release is buffered, and the next NoteOn lifts the pedal.
type Pedal struct {
	pedaling bool
	held     map[uint8]struct{}
}

func NewPedal() *Pedal {
	return &Pedal{held: make(map[uint8]struct{})}
}

// Pedaling reports whether releases are being held back
func (p *Pedal) Pedaling() bool {
	return p.pedaling
}

// Held returns the buffered release pitches in ascending order
func (p *Pedal) Held() []uint8 {
	return sortedPitches(p.held)
}

func (p *Pedal) Modify(e midi.Event) []midi.Event {
	return []midi.Event{e}
}

func (p *Pedal) HandleNoteOn(n *box.Node, e midi.Event) {
	if p.pedaling {
		for _, pitch := range p.Held() {
			n.NoteOff(midi.NewNoteOff(pitch))
		}
		p.pedaling = false
		n.ClearNotes()
		clear(p.held)
	}
	n.NoteOn(e)
}

func (p *Pedal) HandleNoteOff(n *box.Node, e midi.Event) {
	if p.pedaling {
		p.held[e.Note] = struct{}{}
		return
	}
	if n.ActiveCount() == 1 && n.IsActive(e.Note) {
		// last note: keep it active and hold the release
		p.held[e.Note] = struct{}{}
		p.pedaling = true
		return
	}
	n.NoteOff(e)
}

func (p *Pedal) Clone() box.Effect {
	c := NewPedal()
	c.pedaling = p.pedaling
	for pitch := range p.held {
		c.held[pitch] = struct{}{}
	}
	return c
}
