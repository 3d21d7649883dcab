package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	Clock   uint8 = 0xF8
)

// MaxValue is the largest pitch or velocity a note event can carry
const MaxValue = 127

// Event represents one musical occurrence flowing through the graph.
// Events are passed by value; a stage derives a new Event rather than
// mutating the one it received.
type Event struct {
	Type     uint8 // NoteOn, NoteOff, Clock
	Channel  uint8 // output channel, ignored by the engine
	Note     uint8
	Velocity uint8
}

// NewNoteOn creates a note-on event on channel 0
func NewNoteOn(note, velocity uint8) Event {
	return Event{Type: NoteOn, Note: note, Velocity: velocity}
}

// NewNoteOff creates a note-off event on channel 0
func NewNoteOff(note uint8) Event {
	return Event{Type: NoteOff, Note: note}
}

// ClockTick creates a timing clock pulse
func ClockTick() Event {
	return Event{Type: Clock}
}

// IsClock reports whether e is a timing clock pulse
func (e Event) IsClock() bool {
	return e.Type == Clock
}

// IsNoteOn reports whether e starts a note. A NoteOn with velocity 0 does not.
func (e Event) IsNoteOn() bool {
	return e.Type == NoteOn && e.Velocity > 0
}

// IsNoteOff reports whether e ends a note, including NoteOn with velocity 0
func (e Event) IsNoteOff() bool {
	return e.Type == NoteOff || (e.Type == NoteOn && e.Velocity == 0)
}

// WithNote returns a copy of e with a different pitch
func (e Event) WithNote(note uint8) Event {
	e.Note = note
	return e
}

// WithVelocity returns a copy of e with a different velocity
func (e Event) WithVelocity(velocity uint8) Event {
	e.Velocity = velocity
	return e
}

// Transpose returns a copy of e shifted by offset semitones.
// ok is false when the result would leave 0-127.
func (e Event) Transpose(offset int) (shifted Event, ok bool) {
	note := int(e.Note) + offset
	if note < 0 || note > MaxValue {
		return e, false
	}
	return e.WithNote(uint8(note)), true
}

// Valid reports whether pitch and velocity are inside 0-127
func (e Event) Valid() bool {
	if e.Type == Clock {
		return true
	}
	return e.Note <= MaxValue && e.Velocity <= MaxValue
}

// Clamp saturates pitch and velocity into 0-127
func (e Event) Clamp() Event {
	if e.Note > MaxValue {
		e.Note = MaxValue
	}
	if e.Velocity > MaxValue {
		e.Velocity = MaxValue
	}
	return e
}

// Message converts e to a wire message
func (e Event) Message() gomidi.Message {
	ch := e.Channel & 0x0F
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(ch, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOffVelocity(ch, e.Note, e.Velocity)
	default:
		return gomidi.TimingClock()
	}
}

// FromMessage converts a wire message into an Event.
// ok is false for message types the engine does not route.
func FromMessage(msg gomidi.Message) (Event, bool) {
	var channel, note, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &note, &velocity):
		return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}, true
	case msg.GetNoteOff(&channel, &note, &velocity):
		return Event{Type: NoteOff, Channel: channel, Note: note, Velocity: velocity}, true
	case msg.Type() == gomidi.TimingClockMsg:
		return ClockTick(), true
	}
	return Event{}, false
}

// String formats e for logs and the console
func (e Event) String() string {
	switch {
	case e.Type == Clock:
		return "clock"
	case e.IsNoteOn():
		return fmt.Sprintf("on:%s/%d", NoteName(e.Note), e.Velocity)
	default:
		return "off:" + NoteName(e.Note)
	}
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the pitch name with octave, e.g. C4 for 60
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}
