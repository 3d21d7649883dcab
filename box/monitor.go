package box

import (
	"sync"

	"go-morp/midi"
)

// Monitor remembers the most recent events passing through its node.
// A capacity of 0 keeps everything.
type Monitor struct {
	capacity int

	mu     sync.Mutex
	events []midi.Event
}

// NewMonitor creates a pass-through node recording what it sees
func NewMonitor(name string, capacity int) (*Node, *Monitor) {
	m := &Monitor{capacity: capacity}
	return NewNode(name, m), m
}

func (m *Monitor) Modify(e midi.Event) []midi.Event {
	return []midi.Event{e}
}

func (m *Monitor) Clone() Effect {
	return &Monitor{capacity: m.capacity}
}

func (m *Monitor) HandleNote(n *Node, e midi.Event) {
	m.record(e)
	n.Note(e)
}

func (m *Monitor) HandleClock(n *Node, e midi.Event) {
	m.record(e)
	n.Clock(e)
}

func (m *Monitor) record(e midi.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	if m.capacity > 0 && len(m.events) > m.capacity {
		m.events = m.events[len(m.events)-m.capacity:]
	}
}

// Events returns a copy of the recorded events, oldest first
func (m *Monitor) Events() []midi.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]midi.Event(nil), m.events...)
}

// Notes returns the recorded note events, skipping clocks
func (m *Monitor) Notes() []midi.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var notes []midi.Event
	for _, e := range m.events {
		if !e.IsClock() {
			notes = append(notes, e)
		}
	}
	return notes
}

// Reset forgets everything recorded so far
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
