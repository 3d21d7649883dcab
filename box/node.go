// Package box routes events through a graph of Nodes. Each Node applies an
// Effect to incoming notes, tracks which pitches it has turned on, and
// forwards the result to its outputs or into an attached fx Loop.
//
// Dispatch is synchronous and depth-first: OnMessage returns only after every
// downstream Node has handled the event. A graph must be driven by one
// goroutine at a time; Graph provides the lock for callers that need one.
package box

import (
	"sort"

	"go-morp/midi"
)

// Effect transforms one incoming note event into zero or more events
type Effect interface {
	Modify(e midi.Event) []midi.Event
	// Clone returns an independent copy, used when a Loop template is attached
	Clone() Effect
}

// NoteHandler replaces the Node's note dispatch for every modified event
type NoteHandler interface {
	HandleNote(n *Node, e midi.Event)
}

// NoteOnHandler replaces the base NoteOn behavior
type NoteOnHandler interface {
	HandleNoteOn(n *Node, e midi.Event)
}

// NoteOffHandler replaces the base NoteOff behavior
type NoteOffHandler interface {
	HandleNoteOff(n *Node, e midi.Event)
}

// ClockHandler replaces the base clock behavior
type ClockHandler interface {
	HandleClock(n *Node, e midi.Event)
}

// Thru passes every event unchanged
type Thru struct{}

func (Thru) Modify(e midi.Event) []midi.Event { return []midi.Event{e} }
func (Thru) Clone() Effect                    { return Thru{} }

// Node is a routing unit in the event graph
type Node struct {
	name    string
	effect  Effect
	outputs []*Node

	loop     *loopInstance
	fxReturn bool // re-entry point of some Loop; never sends into its own Loop

	suppressRetrigger bool
	notesOn           map[uint8]struct{}
}

// NewNode creates a node applying effect. A nil effect passes events through.
func NewNode(name string, effect Effect) *Node {
	if effect == nil {
		effect = Thru{}
	}
	return &Node{
		name:    name,
		effect:  effect,
		notesOn: make(map[uint8]struct{}),
	}
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Effect() Effect {
	return n.effect
}

// SetOutputs replaces the full output list. The return node of an attached
// Loop follows the new list.
func (n *Node) SetOutputs(outputs ...*Node) {
	n.outputs = append([]*Node(nil), outputs...)
	if n.loop != nil {
		n.loop.setReturn(n.outputs)
	}
}

// Outputs returns a copy of the output list
func (n *Node) Outputs() []*Node {
	return append([]*Node(nil), n.outputs...)
}

// AssignLoop attaches a fresh copy of the template as this node's fx loop,
// replacing any previous one. A nil template detaches.
func (n *Node) AssignLoop(template *Loop) {
	if template == nil {
		n.loop = nil
		return
	}
	n.loop = template.instantiate()
	n.loop.setReturn(n.outputs)
}

// HasLoop reports whether an fx loop is attached
func (n *Node) HasLoop() bool {
	return n.loop != nil
}

// LoopNodes returns the nodes of the attached loop instance
func (n *Node) LoopNodes() []*Node {
	if n.loop == nil {
		return nil
	}
	return append([]*Node(nil), n.loop.nodes...)
}

// IsFxReturn reports whether this node is where a Loop re-enters the graph
func (n *Node) IsFxReturn() bool {
	return n.fxReturn
}

// SetSuppressRetrigger drops NoteOn for a pitch that is already active
// instead of routing it again
func (n *Node) SetSuppressRetrigger(suppress bool) {
	n.suppressRetrigger = suppress
}

// OnMessage is the entry point for every event. Pitch and velocity above 127
// are saturated before the Effect sees them.
func (n *Node) OnMessage(e midi.Event) {
	e = e.Clamp()
	if e.IsClock() {
		if h, ok := n.effect.(ClockHandler); ok {
			h.HandleClock(n, e)
		} else {
			n.Clock(e)
		}
		return
	}

	for _, m := range n.effect.Modify(e) {
		m = normalize(m)
		if h, ok := n.effect.(NoteHandler); ok {
			h.HandleNote(n, m)
		} else {
			n.Note(m)
		}
	}
}

// Note dispatches to the NoteOn or NoteOff handler. NoteOn with velocity 0
// is handled as NoteOff. Non-note events are ignored.
func (n *Node) Note(e midi.Event) {
	e = normalize(e)
	switch e.Type {
	case midi.NoteOn:
		if h, ok := n.effect.(NoteOnHandler); ok {
			h.HandleNoteOn(n, e)
		} else {
			n.NoteOn(e)
		}
	case midi.NoteOff:
		if h, ok := n.effect.(NoteOffHandler); ok {
			h.HandleNoteOff(n, e)
		} else {
			n.NoteOff(e)
		}
	}
}

// NoteOn routes e downstream, then marks its pitch active
func (n *Node) NoteOn(e midi.Event) {
	if n.suppressRetrigger && n.IsActive(e.Note) {
		return
	}
	n.Route(e, false)
	n.notesOn[e.Note] = struct{}{}
}

// NoteOff routes e downstream, then clears its pitch. Clearing an inactive
// pitch is a no-op.
func (n *Node) NoteOff(e midi.Event) {
	n.Route(e, false)
	delete(n.notesOn, e.Note)
}

// Clock routes a clock pulse downstream
func (n *Node) Clock(e midi.Event) {
	n.Route(e, false)
}

// Route sends e into the attached Loop, or to every output when there is no
// Loop, when this node is a Loop's return, or when through is set.
func (n *Node) Route(e midi.Event, through bool) {
	if n.loop != nil && !(n.fxReturn || through) {
		n.loop.send(e)
		return
	}
	outputs := n.outputs
	for _, out := range outputs {
		out.OnMessage(e)
	}
}

// IsActive reports whether pitch has an unmatched NoteOn
func (n *Node) IsActive(pitch uint8) bool {
	_, ok := n.notesOn[pitch]
	return ok
}

// ActiveCount returns the number of active pitches
func (n *Node) ActiveCount() int {
	return len(n.notesOn)
}

// ActiveNotes returns the active pitches in ascending order
func (n *Node) ActiveNotes() []uint8 {
	notes := make([]uint8, 0, len(n.notesOn))
	for p := range n.notesOn {
		notes = append(notes, p)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i] < notes[j] })
	return notes
}

// Release clears pitch without routing anything
func (n *Node) Release(pitch uint8) {
	delete(n.notesOn, pitch)
}

// ClearNotes clears every active pitch without routing anything
func (n *Node) ClearNotes() {
	clear(n.notesOn)
}

// clone copies the node's effect, flags and note state. Outputs are left
// empty; the caller wires the copy.
func (n *Node) clone() *Node {
	c := NewNode(n.name, n.effect.Clone())
	c.suppressRetrigger = n.suppressRetrigger
	for p := range n.notesOn {
		c.notesOn[p] = struct{}{}
	}
	if n.loop != nil {
		c.loop = n.loop.template.instantiate()
	}
	return c
}

func normalize(e midi.Event) midi.Event {
	if e.Type == midi.NoteOn && e.Velocity == 0 {
		e.Type = midi.NoteOff
	}
	return e
}
