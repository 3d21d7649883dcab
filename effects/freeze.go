package effects

import (
	"sort"

	"go-morp/box"
	"go-morp/midi"
)

// Freeze holds notes after they are released. Releases are buffered; once the
// last held pitch is released the stage is frozen and everything keeps
// sounding until the next NoteOn flushes the buffered releases.
type Freeze struct {
	frozen  bool
	pending map[uint8]struct{}
}

func NewFreeze() *Freeze {
	return &Freeze{pending: make(map[uint8]struct{})}
}

// Frozen reports whether the stage is sustaining released notes
func (f *Freeze) Frozen() bool {
	return f.frozen
}

// Pending returns the buffered release pitches in ascending order
func (f *Freeze) Pending() []uint8 {
	return sortedPitches(f.pending)
}

func (f *Freeze) Modify(e midi.Event) []midi.Event {
	return []midi.Event{e}
}

func (f *Freeze) HandleNoteOn(n *box.Node, e midi.Event) {
	if f.frozen {
		f.cancel(n)
	}
	n.NoteOn(e)
}

func (f *Freeze) HandleNoteOff(n *box.Node, e midi.Event) {
	f.pending[e.Note] = struct{}{}
	if n.ActiveCount() == 1 && n.IsActive(e.Note) {
		f.frozen = true
	}
	n.Release(e.Note)
}

// cancel releases every buffered pitch downstream
func (f *Freeze) cancel(n *box.Node) {
	for _, p := range f.Pending() {
		n.NoteOff(midi.NewNoteOff(p))
	}
	f.frozen = false
	n.ClearNotes()
	clear(f.pending)
}

func (f *Freeze) Clone() box.Effect {
	c := NewFreeze()
	c.frozen = f.frozen
	for p := range f.pending {
		c.pending[p] = struct{}{}
	}
	return c
}

func sortedPitches(set map[uint8]struct{}) []uint8 {
	pitches := make([]uint8, 0, len(set))
	for p := range set {
		pitches = append(pitches, p)
	}
	sort.Slice(pitches, func(i, j int) bool { return pitches[i] < pitches[j] })
	return pitches
}
