// Package effects holds the effect stages that can sit in a box graph.
package effects

import (
	"go-morp/box"
	"go-morp/midi"
)

// Harmonizer layers copies of every note at fixed semitone offsets
type Harmonizer struct {
	Voices []int
}

// NewHarmonizer creates a harmonizer emitting the original plus one copy per voice
func NewHarmonizer(voices ...int) *Harmonizer {
	return &Harmonizer{Voices: append([]int(nil), voices...)}
}

// Modify returns the original first, then one copy per voice in order.
// Voices landing outside 0-127 are dropped.
func (h *Harmonizer) Modify(e midi.Event) []midi.Event {
	out := make([]midi.Event, 0, len(h.Voices)+1)
	out = append(out, e)
	for _, v := range h.Voices {
		if shifted, ok := e.Transpose(v); ok {
			out = append(out, shifted)
		}
	}
	return out
}

func (h *Harmonizer) Clone() box.Effect {
	return NewHarmonizer(h.Voices...)
}
