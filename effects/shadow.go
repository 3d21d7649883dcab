package effects

import (
	"math"

	"go-morp/box"
	"go-morp/midi"
)

// Shadow defaults
const (
	DefaultShadowPeriod = 3
	DefaultShadowRepeat = 2
	DefaultShadowDecay  = 0.3
)

// Shadow echoes earlier events. Every input re-emits the events seen
// period, 2*period, ... repeat*period inputs ago, each at its own velocity
// scaled once by (1 - decay).
type Shadow struct {
	period int
	repeat int
	decay  float64

	history []midi.Event // most recent first, at most period*repeat long
}

// NewShadow creates an echo stage. period and repeat below 1 are raised to 1;
// decay is clamped to [0, 1].
func NewShadow(period, repeat int, decay float64) *Shadow {
	return &Shadow{
		period: max(period, 1),
		repeat: max(repeat, 1),
		decay:  min(max(decay, 0), 1),
	}
}

func (s *Shadow) Period() int     { return s.period }
func (s *Shadow) Repeat() int     { return s.repeat }
func (s *Shadow) Decay() float64  { return s.decay }
func (s *Shadow) capacity() int   { return s.period * s.repeat }
func (s *Shadow) HistoryLen() int { return len(s.history) }

func (s *Shadow) Modify(e midi.Event) []midi.Event {
	out := []midi.Event{e}
	for k := 1; k <= s.repeat; k++ {
		i := k*s.period - 1
		if i >= len(s.history) {
			break
		}
		prior := s.history[i]
		v := math.Round(float64(prior.Velocity) * (1 - s.decay))
		out = append(out, prior.WithVelocity(uint8(v)))
	}

	s.history = append(s.history, midi.Event{})
	copy(s.history[1:], s.history)
	s.history[0] = e
	if len(s.history) > s.capacity() {
		s.history = s.history[:s.capacity()]
	}
	return out
}

func (s *Shadow) Clone() box.Effect {
	c := NewShadow(s.period, s.repeat, s.decay)
	c.history = append([]midi.Event(nil), s.history...)
	return c
}
