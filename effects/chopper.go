package effects

import (
	"go-morp/box"
	"go-morp/midi"
)

// Chopper discards everything it receives. It has no working behavior yet.
type Chopper struct{}

func (Chopper) Modify(midi.Event) []midi.Event { return nil }
func (Chopper) Clone() box.Effect              { return Chopper{} }
