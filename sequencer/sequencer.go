// Package sequencer records notes against an incoming MIDI clock and plays
// them back as a looping Pattern.
package sequencer

import (
	"go-morp/box"
	"go-morp/midi"
)

// State is the transport state of a Sequencer
type State int

const (
	Idle State = iota
	Recording
	Playing
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// Metronome click sent while recording
const (
	MetronomeNote     = 100
	MetronomeVelocity = 100
	metronomeOnAt     = 0
	metronomeOffAt    = 6
)

// Sequencer is a Node that records the notes passing through it and replays
// them on clock. It consumes Clock events instead of forwarding them.
//
// Like every Node it is not safe for concurrent use; drive it through a
// box.Graph.
type Sequencer struct {
	*box.Node

	state       State
	count       int
	subdivision int
	countIn     int
	resolution  int
	clockSource *box.Node

	clock   int
	pattern Pattern
	take    map[int][]midi.Event
}

// New creates an idle sequencer in 4/4 with a two measure count-in and
// sixteenth note quantization
func New() *Sequencer {
	s := &Sequencer{
		count:       4,
		subdivision: 4,
		countIn:     2,
		resolution:  Sixteenth,
		pattern:     Pattern{Notes: map[int][]midi.Event{}, MeasureCount: 1},
		take:        map[int][]midi.Event{},
	}
	s.Node = box.NewNode("sequencer", s)
	return s
}

// Record starts a fresh take. The clock position is left alone.
func (s *Sequencer) Record() {
	s.take = map[int][]midi.Event{}
	s.state = Recording
}

// Play rewinds and starts looping the current pattern
func (s *Sequencer) Play() {
	s.Reset()
	s.state = Playing
}

// Stop returns to idle. A take in progress is quantized and replaces the
// current pattern.
func (s *Sequencer) Stop() {
	if s.state == Recording {
		notes := Quantize(s.take, s.resolution, s.countIn, s.ClocksPerMeasure())
		s.pattern = NewPattern(notes, s.ClocksPerMeasure())
		s.take = map[int][]midi.Event{}
	}
	s.state = Idle
	s.Reset()
}

// Reset rewinds the clock position
func (s *Sequencer) Reset() {
	s.clock = 0
}

func (s *Sequencer) State() State     { return s.state }
func (s *Sequencer) Playing() bool    { return s.state == Playing }
func (s *Sequencer) Recording() bool  { return s.state == Recording }
func (s *Sequencer) Position() int    { return s.clock }
func (s *Sequencer) Count() int       { return s.count }
func (s *Sequencer) Subdivision() int { return s.subdivision }
func (s *Sequencer) CountIn() int     { return s.countIn }
func (s *Sequencer) Resolution() int  { return s.resolution }

// SetCount sets the beats per measure
func (s *Sequencer) SetCount(count int) {
	s.count = max(count, 1)
}

// SetSubdivision sets the time signature denominator. Clock timing is
// unaffected.
func (s *Sequencer) SetSubdivision(subdivision int) {
	s.subdivision = max(subdivision, 1)
}

// SetCountIn sets how many measures of lead-in are cut from a take
func (s *Sequencer) SetCountIn(measures int) {
	s.countIn = max(measures, 0)
}

// SetResolution sets the quantize grid in clocks
func (s *Sequencer) SetResolution(clocks int) {
	s.resolution = max(clocks, 1)
}

// ClocksPerMeasure is 24 clocks per beat times the beat count
func (s *Sequencer) ClocksPerMeasure() int {
	return ClocksPerBeat * s.count
}

// ClockSource returns the node feeding clock into the sequencer, if set
func (s *Sequencer) ClockSource() *box.Node {
	return s.clockSource
}

// SetClockSource records which node supplies clock. Wiring the source's
// outputs is left to the caller.
func (s *Sequencer) SetClockSource(source *box.Node) {
	s.clockSource = source
}

// Pattern returns a copy of the pattern used for playback
func (s *Sequencer) Pattern() Pattern {
	return s.pattern.Clone()
}

// SetPattern installs notes as the playback pattern, sized to its last tick
func (s *Sequencer) SetPattern(notes map[int][]midi.Event) {
	s.pattern = NewPattern(copyNotes(notes), s.ClocksPerMeasure())
}

// Load installs a previously saved pattern as is
func (s *Sequencer) Load(p Pattern) {
	p = p.Clone()
	p.MeasureCount = max(p.MeasureCount, 1)
	s.pattern = p
}

// Take returns a copy of the events recorded so far in the current take
func (s *Sequencer) Take() map[int][]midi.Event {
	return copyNotes(s.take)
}

func (s *Sequencer) Modify(e midi.Event) []midi.Event {
	return []midi.Event{e}
}

// Clone copies settings, pattern and transport state. The copy is driven by
// whichever node holds it.
func (s *Sequencer) Clone() box.Effect {
	return &Sequencer{
		state:       s.state,
		count:       s.count,
		subdivision: s.subdivision,
		countIn:     s.countIn,
		resolution:  s.resolution,
		clockSource: s.clockSource,
		clock:       s.clock,
		pattern:     s.pattern.Clone(),
		take:        copyNotes(s.take),
	}
}

func (s *Sequencer) HandleNote(n *box.Node, e midi.Event) {
	n.Note(e)
	if s.state == Recording && !n.IsFxReturn() {
		s.take[s.clock] = append(s.take[s.clock], e)
	}
}

func (s *Sequencer) HandleClock(n *box.Node, _ midi.Event) {
	switch s.state {
	case Playing:
		for _, e := range s.pattern.At(s.clock) {
			n.OnMessage(e)
		}
		s.clock = (s.clock + 1) % (s.pattern.MeasureCount * s.ClocksPerMeasure())
	case Recording:
		switch s.clock % ClocksPerBeat {
		case metronomeOnAt:
			n.Route(midi.NewNoteOn(MetronomeNote, MetronomeVelocity), true)
		case metronomeOffAt:
			n.Route(midi.NewNoteOff(MetronomeNote), true)
		}
		s.clock++
	}
}
