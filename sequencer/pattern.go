package sequencer

import (
	"errors"
	"sort"

	"go-morp/midi"
)

// ErrEmptyPattern is returned when there is nothing to write
var ErrEmptyPattern = errors.New("pattern is empty")

// Clock resolution used throughout: MIDI clock runs at 24 pulses per quarter note
const ClocksPerBeat = 24

// Quantize resolutions, in clocks
const (
	Sixteenth = 6
	Eighth    = 12
	Quarter   = 24
)

// Pattern maps clock ticks to the events recorded there
type Pattern struct {
	Notes        map[int][]midi.Event
	MeasureCount int
}

// NewPattern wraps notes, sizing the pattern to cover its last tick.
// Negative ticks fall before the downbeat and do not count.
func NewPattern(notes map[int][]midi.Event, clocksPerMeasure int) Pattern {
	last := -1
	for t := range notes {
		last = max(last, t)
	}
	measures := 1
	if last >= 0 && clocksPerMeasure > 0 {
		measures = last/clocksPerMeasure + 1
	}
	return Pattern{Notes: notes, MeasureCount: measures}
}

// Ticks returns the ticks holding events, ascending
func (p Pattern) Ticks() []int {
	ticks := make([]int, 0, len(p.Notes))
	for t, events := range p.Notes {
		if len(events) > 0 {
			ticks = append(ticks, t)
		}
	}
	sort.Ints(ticks)
	return ticks
}

// Len returns the number of events in the pattern
func (p Pattern) Len() int {
	n := 0
	for _, events := range p.Notes {
		n += len(events)
	}
	return n
}

// Empty reports whether the pattern holds no events
func (p Pattern) Empty() bool {
	return p.Len() == 0
}

// At returns the events at tick
func (p Pattern) At(tick int) []midi.Event {
	return p.Notes[tick]
}

// Clone returns a deep copy
func (p Pattern) Clone() Pattern {
	return Pattern{Notes: copyNotes(p.Notes), MeasureCount: p.MeasureCount}
}

// Quantize snaps every recorded tick to the nearest multiple of resolution,
// rounding a tie down, then shifts the result left by the count-in. Events
// landing on the same tick are merged in recording order.
func Quantize(take map[int][]midi.Event, resolution, countIn, clocksPerMeasure int) map[int][]midi.Event {
	resolution = max(resolution, 1)
	offset := countIn * clocksPerMeasure

	ticks := make([]int, 0, len(take))
	for t := range take {
		ticks = append(ticks, t)
	}
	sort.Ints(ticks)

	quantized := make(map[int][]midi.Event, len(take))
	for _, t := range ticks {
		q := snap(t, resolution) - offset
		quantized[q] = append(quantized[q], take[t]...)
	}
	return quantized
}

func snap(tick, resolution int) int {
	position := tick % resolution
	if position < 0 {
		position += resolution
	}
	if position <= resolution/2 {
		return tick - position
	}
	return tick + resolution - position
}

func copyNotes(notes map[int][]midi.Event) map[int][]midi.Event {
	c := make(map[int][]midi.Event, len(notes))
	for t, events := range notes {
		c[t] = append([]midi.Event(nil), events...)
	}
	return c
}
