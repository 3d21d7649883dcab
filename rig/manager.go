// Package rig turns a config into a running node graph: it opens the
// configured ports, feeds device callbacks into the graph one at a time and
// exposes transport controls and snapshots for the UI.
package rig

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go-morp/box"
	"go-morp/config"
	"go-morp/debug"
	"go-morp/midi"
	"go-morp/sequencer"
)

// ErrNoSequencer is returned by transport controls when the sequencer is disabled
var ErrNoSequencer = errors.New("sequencer disabled")

// Ports opens devices by name and remembers why a name failed to open
type Ports interface {
	Source(name string) (midi.Source, error)
	Sink(name string) (midi.Sink, error)
	CloseInput(name string)
	CloseOutput(name string)
	InputError(name string) error
	OutputError(name string) error
}

// Watcher reports ports coming and going. *midi.DeviceManager is one.
type Watcher interface {
	Run(ctx context.Context)
	Events() <-chan midi.DeviceEvent
}

// UI refresh rate
const uiFPS = 30

// Recent events kept for the UI
const monitorSize = 64

// Manager owns the graph built from a config
type Manager struct {
	ports Ports
	graph *box.Graph
	cfg   *config.Config

	input   *box.Node
	clock   *box.Node // nil when clock arrives on the note input
	loop    []*box.Node
	chain   []*box.Node
	seq     *sequencer.Sequencer
	monitor *box.Monitor
	monNode *box.Node

	mu      sync.Mutex
	outputs map[string]*box.Node
	stops   map[string]func()
	bindErr map[string]error // inputs that opened but could not be listened to
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager opening devices through ports
func NewManager(ports Ports) *Manager {
	return &Manager{
		ports:      ports,
		graph:      box.NewGraph(),
		outputs:    make(map[string]*box.Node),
		stops:      make(map[string]func()),
		bindErr:    make(map[string]error),
		UpdateChan: make(chan struct{}, 1),
	}
}

// Build creates the node graph for cfg: input, fx loop, effect chain,
// sequencer, then outputs. Ports are not opened until Start.
func (m *Manager) Build(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	loop, err := newNodes(cfg.Loop)
	if err != nil {
		return err
	}
	stages, err := newNodes(cfg.Chain)
	if err != nil {
		return err
	}

	m.graph.Do(func() {
		m.cfg = cfg
		m.loop = loop
		m.chain = stages
		m.input = box.NewNode("input", nil)
		if len(loop) > 0 {
			m.input.AssignLoop(box.NewLoop(loop...))
		}
		tail := chain(m.input, stages)

		m.seq = nil
		if cfg.Sequencer.Enabled {
			m.seq = sequencer.New()
			m.seq.SetCount(cfg.Sequencer.Count)
			m.seq.SetSubdivision(cfg.Sequencer.Subdivision)
			m.seq.SetCountIn(cfg.Sequencer.CountInMeasures())
			m.seq.SetResolution(cfg.Sequencer.Resolution)
			tail.SetOutputs(m.seq.Node)
		}

		m.clock = nil
		if cfg.ClockInput != "" && cfg.ClockInput != cfg.Input {
			m.clock = box.NewNode("clock", nil)
			if m.seq != nil {
				m.clock.SetOutputs(m.seq.Node)
				m.seq.SetClockSource(m.clock)
			}
		} else if m.seq != nil {
			m.seq.SetClockSource(m.input)
		}

		m.monNode, m.monitor = box.NewMonitor("monitor", monitorSize)
	})

	m.mu.Lock()
	clear(m.outputs)
	m.mu.Unlock()
	m.rewire()

	debug.Log("rig", "built: loop=%d chain=%d sequencer=%v", len(loop), len(stages), cfg.Sequencer.Enabled)
	return nil
}

// tail is the last stage before the outputs
func (m *Manager) tail() *box.Node {
	if m.seq != nil {
		return m.seq.Node
	}
	if len(m.chain) > 0 {
		return m.chain[len(m.chain)-1]
	}
	return m.input
}

// rewire points the tail (and a separate clock without sequencer) at the
// open outputs plus the monitor
func (m *Manager) rewire() {
	m.mu.Lock()
	outs := make([]*box.Node, 0, len(m.outputs)+1)
	for _, name := range m.cfg.Outputs {
		if n, ok := m.outputs[name]; ok {
			outs = append(outs, n)
		}
	}
	m.mu.Unlock()

	m.graph.Do(func() {
		outs = append(outs, m.monNode)
		m.tail().SetOutputs(outs...)
		if m.clock != nil && m.seq == nil {
			m.clock.SetOutputs(outs...)
		}
	})
}

// Start opens the configured ports and, if the ports can watch for
// hot-plugging, reconnects them as they come back. Failures to open are
// recorded, not fatal.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg == nil {
		return errors.New("rig not built")
	}
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	for _, name := range m.cfg.Outputs {
		m.attachOutput(name)
	}
	m.bindInputs()

	if w, ok := m.ports.(Watcher); ok {
		m.wg.Add(2)
		go func() {
			defer m.wg.Done()
			w.Run(ctx)
		}()
		go func() {
			defer m.wg.Done()
			m.watch(ctx, w.Events())
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.uiLoop(ctx)
	}()
	return nil
}

// Stop stops listening, closes every port and waits for background loops
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	stops := m.stops
	m.stops = make(map[string]func())
	outputs := sortedKeys(m.outputs)
	clear(m.outputs)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for name, stop := range stops {
		stop()
		m.ports.CloseInput(name)
	}
	for _, name := range outputs {
		m.ports.CloseOutput(name)
	}
	m.wg.Wait()
	if m.cfg != nil {
		m.rewire()
	}
}

func (m *Manager) bindInputs() {
	if m.cfg.Input != "" {
		m.bindInput(m.cfg.Input)
	}
	if m.clock != nil {
		m.bindInput(m.cfg.ClockInput)
	}
}

// bindInput listens on the named port, feeding the node it is configured for
func (m *Manager) bindInput(name string) {
	target := m.input
	if m.clock != nil && name == m.cfg.ClockInput {
		target = m.clock
	}

	m.mu.Lock()
	_, bound := m.stops[name]
	m.mu.Unlock()
	if bound {
		return
	}

	src, err := m.ports.Source(name)
	if err != nil {
		debug.Log("rig", "input %s: %v", name, err)
		return
	}
	stop, err := m.graph.Bind(src, target)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		debug.Log("rig", "listen %s: %v", name, err)
		m.bindErr[name] = err
		return
	}
	delete(m.bindErr, name)
	m.stops[name] = stop
}

func (m *Manager) unbindInput(name string) {
	m.mu.Lock()
	stop, ok := m.stops[name]
	delete(m.stops, name)
	m.mu.Unlock()
	if ok {
		stop()
	}
}

// attachOutput opens the named output and adds it to the graph
func (m *Manager) attachOutput(name string) {
	m.mu.Lock()
	_, open := m.outputs[name]
	m.mu.Unlock()
	if open {
		return
	}

	sink, err := m.ports.Sink(name)
	if err != nil {
		debug.Log("rig", "output %s: %v", name, err)
		return
	}
	m.mu.Lock()
	m.outputs[name] = box.NewOutput(sink)
	m.mu.Unlock()
	m.rewire()
}

func (m *Manager) detachOutput(name string) {
	m.mu.Lock()
	_, ok := m.outputs[name]
	delete(m.outputs, name)
	m.mu.Unlock()
	if ok {
		m.rewire()
	}
}

// watch reconnects configured ports as they appear and drops them as they go
func (m *Manager) watch(ctx context.Context, events <-chan midi.DeviceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleDeviceEvent(ev)
		}
	}
}

func (m *Manager) handleDeviceEvent(ev midi.DeviceEvent) {
	debug.Log("rig", "device event: %+v", ev)
	switch {
	case ev.Input && m.cfg.WantsInput(ev.Name):
		if ev.Type == midi.DeviceConnected {
			m.bindInput(ev.Name)
		} else {
			m.unbindInput(ev.Name)
		}
	case !ev.Input && m.cfg.HasOutput(ev.Name):
		if ev.Type == midi.DeviceConnected {
			m.attachOutput(ev.Name)
		} else {
			m.detachOutput(ev.Name)
		}
	default:
		return
	}
	m.notifyUpdate()
}

// uiLoop nudges the UI whenever events have flowed since the last frame
func (m *Manager) uiLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / uiFPS)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.graph.Dispatched(); n != last {
				last = n
				m.notifyUpdate()
			}
		}
	}
}

// notifyUpdate notifies the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Dispatch feeds e into the input as if it came from the input port
func (m *Manager) Dispatch(e midi.Event) {
	m.graph.Dispatch(m.input, e)
}

// DispatchClock feeds a clock pulse to wherever clock is expected
func (m *Manager) DispatchClock() {
	target := m.input
	if m.clock != nil {
		target = m.clock
	}
	m.graph.Dispatch(target, midi.ClockTick())
}

func (m *Manager) transport(fn func(s *sequencer.Sequencer)) error {
	if m.seq == nil {
		return ErrNoSequencer
	}
	m.graph.Do(func() { fn(m.seq) })
	m.notifyUpdate()
	return nil
}

// Record starts a new take
func (m *Manager) Record() error {
	return m.transport(func(s *sequencer.Sequencer) { s.Record() })
}

// Play loops the current pattern from the start
func (m *Manager) Play() error {
	return m.transport(func(s *sequencer.Sequencer) { s.Play() })
}

// StopSequencer stops playback, keeping a take in progress as the pattern
func (m *Manager) StopSequencer() error {
	return m.transport(func(s *sequencer.Sequencer) { s.Stop() })
}

// Reset rewinds the sequencer
func (m *Manager) Reset() error {
	return m.transport(func(s *sequencer.Sequencer) { s.Reset() })
}

// ToggleRecord starts recording, or stops a take in progress
func (m *Manager) ToggleRecord() error {
	return m.transport(func(s *sequencer.Sequencer) {
		if s.Recording() {
			s.Stop()
		} else {
			s.Record()
		}
	})
}

// PatternDir returns where patterns are saved
func (m *Manager) PatternDir() (string, error) {
	if m.cfg != nil && m.cfg.PatternDir != "" {
		return m.cfg.PatternDir, nil
	}
	return sequencer.PatternsDir()
}

// SavePattern writes the current pattern to the pattern dir and returns its path
func (m *Manager) SavePattern(name string) (string, error) {
	if m.seq == nil {
		return "", ErrNoSequencer
	}
	var (
		p     sequencer.Pattern
		meter sequencer.Meter
	)
	m.graph.Do(func() {
		p = m.seq.Pattern()
		meter = m.seq.Meter()
	})

	dir, err := m.PatternDir()
	if err != nil {
		return "", err
	}
	path, err := sequencer.SavePattern(dir, name, p, meter)
	if err != nil {
		return "", fmt.Errorf("saving pattern: %w", err)
	}
	debug.Log("rig", "saved pattern %s", path)
	return path, nil
}

// LoadPattern installs the pattern at path, or the newest saved one when
// path is empty. A relative path is taken from the pattern dir.
func (m *Manager) LoadPattern(path string) error {
	if m.seq == nil {
		return ErrNoSequencer
	}

	var (
		p     sequencer.Pattern
		meter sequencer.Meter
		err   error
	)
	dir, err := m.PatternDir()
	if err != nil {
		return err
	}
	switch {
	case path == "":
		p, meter, err = sequencer.LoadLatestPattern(dir)
	case filepath.IsAbs(path):
		p, meter, err = sequencer.ReadPatternFile(path)
	default:
		p, meter, err = sequencer.ReadPatternFile(filepath.Join(dir, path))
	}
	if err != nil {
		return fmt.Errorf("loading pattern: %w", err)
	}

	m.graph.Do(func() {
		m.seq.SetMeter(meter)
		m.seq.Load(p)
	})
	m.notifyUpdate()
	return nil
}

// DeletePattern removes the named file from the pattern dir, or the newest
// saved pattern when filename is empty. It returns the removed filename.
func (m *Manager) DeletePattern(filename string) (string, error) {
	dir, err := m.PatternDir()
	if err != nil {
		return "", err
	}
	if filename == "" {
		patterns, err := sequencer.ListPatterns(dir)
		if err != nil {
			return "", err
		}
		if len(patterns) == 0 {
			return "", fmt.Errorf("no patterns found in %s", dir)
		}
		filename = patterns[0].Filename
	}
	if err := sequencer.DeletePattern(dir, filename); err != nil {
		return "", fmt.Errorf("deleting pattern: %w", err)
	}
	debug.Log("rig", "deleted pattern %s", filename)
	return filename, nil
}

// ClearPattern empties the playback pattern
func (m *Manager) ClearPattern() error {
	return m.transport(func(s *sequencer.Sequencer) { s.SetPattern(nil) })
}

// Sequencer returns the sequencer node, nil when disabled
func (m *Manager) Sequencer() *sequencer.Sequencer {
	return m.seq
}

// Graph returns the dispatch lock shared by every caller
func (m *Manager) Graph() *box.Graph {
	return m.graph
}
