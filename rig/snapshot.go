package rig

import (
	"sort"
	"strings"

	"go-morp/box"
	"go-morp/midi"
	"go-morp/sequencer"
)

// PortStatus is the state of one configured port
type PortStatus struct {
	Name  string
	Input bool
	Open  bool
	Err   error
}

// OutputStatus counts what an open output has sent
type OutputStatus struct {
	Name   string
	Sent   int
	Failed int
}

// Snapshot is a copy of the rig state for display
type Snapshot struct {
	HasSequencer     bool
	State            sequencer.State
	Position         int
	ClocksPerMeasure int
	Meter            sequencer.Meter
	PatternMeasures  int
	PatternEvents    int
	TakeEvents       int

	Input      string
	ClockInput string
	Loop       []string
	Chain      []string
	Ports      []PortStatus
	Outputs    []OutputStatus

	Sounding   []uint8 // pitches held at the outputs
	Recent     []midi.Event
	Dispatched uint64
	ShowClock  bool
}

// Measure and Beat return the 1-based playhead position
func (s Snapshot) Measure() int {
	if s.ClocksPerMeasure == 0 {
		return 1
	}
	return s.Position/s.ClocksPerMeasure + 1
}

func (s Snapshot) Beat() int {
	if s.ClocksPerMeasure == 0 {
		return 1
	}
	return s.Position%s.ClocksPerMeasure/sequencer.ClocksPerBeat + 1
}

// Signal describes the effect path, e.g. "input [shadow] > harmonizer > sequencer"
func (s Snapshot) Signal() string {
	parts := []string{"input"}
	if len(s.Loop) > 0 {
		parts[0] += " [" + strings.Join(s.Loop, " > ") + "]"
	}
	parts = append(parts, s.Chain...)
	if s.HasSequencer {
		parts = append(parts, "sequencer")
	}
	return strings.Join(parts, " > ")
}

// Snapshot copies the current state under the dispatch lock
func (m *Manager) Snapshot() Snapshot {
	var snap Snapshot
	if m.cfg == nil {
		return snap
	}
	snap.Input = m.cfg.Input
	snap.ClockInput = m.cfg.ClockInput
	snap.Loop = nodeNames(m.loop)
	snap.Chain = nodeNames(m.chain)
	snap.Ports = m.portStatus()
	snap.ShowClock = m.cfg.UI.ShowClock

	m.graph.Do(func() {
		if m.seq != nil {
			p := m.seq.Pattern()
			snap.HasSequencer = true
			snap.State = m.seq.State()
			snap.Position = m.seq.Position()
			snap.ClocksPerMeasure = m.seq.ClocksPerMeasure()
			snap.Meter = m.seq.Meter()
			snap.PatternMeasures = p.MeasureCount
			snap.PatternEvents = p.Len()
			for _, events := range m.seq.Take() {
				snap.TakeEvents += len(events)
			}
		}
		snap.Sounding = m.monNode.ActiveNotes()
		snap.Recent = m.monitor.Notes()
	})
	snap.Outputs = m.outputStatus()
	snap.Dispatched = m.graph.Dispatched()
	return snap
}

func (m *Manager) portStatus() []PortStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ports []PortStatus
	seen := map[string]bool{}
	addInput := func(name string) {
		if name == "" || seen["in:"+name] {
			return
		}
		seen["in:"+name] = true
		_, open := m.stops[name]
		err := m.bindErr[name]
		if err == nil {
			err = m.ports.InputError(name)
		}
		ports = append(ports, PortStatus{Name: name, Input: true, Open: open, Err: err})
	}
	addInput(m.cfg.Input)
	addInput(m.cfg.ClockInput)
	for _, name := range m.cfg.Outputs {
		_, open := m.outputs[name]
		ports = append(ports, PortStatus{Name: name, Open: open, Err: m.ports.OutputError(name)})
	}
	return ports
}

func (m *Manager) outputStatus() []OutputStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats []OutputStatus
	for _, name := range sortedKeys(m.outputs) {
		if out, ok := box.OutputOf(m.outputs[name]); ok {
			sent, failed, _ := out.Stats()
			stats = append(stats, OutputStatus{Name: name, Sent: sent, Failed: failed})
		}
	}
	return stats
}

func nodeNames(nodes []*box.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name()
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
