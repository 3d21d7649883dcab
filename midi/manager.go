package midi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-morp/debug"
)

// ErrPortNotFound is returned when no port carries the requested name
var ErrPortNotFound = errors.New("port not found")

// DeviceEvent is emitted when ports appear or disappear
type DeviceEvent struct {
	Type  DeviceEventType
	Name  string
	Input bool // false for output ports
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// PortLister enumerates the ports currently offered by the driver
type PortLister interface {
	Ins() []drivers.In
	Outs() []drivers.Out
}

type driverPorts struct{}

func (driverPorts) Ins() []drivers.In   { return gomidi.GetInPorts() }
func (driverPorts) Outs() []drivers.Out { return gomidi.GetOutPorts() }

// DeviceManager tracks which ports are open and which names failed to open
type DeviceManager struct {
	lister PortLister

	mu         sync.RWMutex
	inputs     map[string]*InPort
	outputs    map[string]*OutPort
	errInputs  map[string]error
	errOutputs map[string]error
	seen       map[string]bool // "in:name" / "out:name" from the last scan

	events   chan DeviceEvent
	pollRate time.Duration
}

// NewDeviceManager creates a device manager using the registered driver
func NewDeviceManager() *DeviceManager {
	return NewDeviceManagerWith(driverPorts{})
}

// NewDeviceManagerWith creates a device manager over a custom port lister
func NewDeviceManagerWith(lister PortLister) *DeviceManager {
	return &DeviceManager{
		lister:     lister,
		inputs:     make(map[string]*InPort),
		outputs:    make(map[string]*OutPort),
		errInputs:  make(map[string]error),
		errOutputs: make(map[string]error),
		seen:       make(map[string]bool),
		events:     make(chan DeviceEvent, 16),
		pollRate:   time.Second,
	}
}

// Events returns a channel of port connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// InputNames returns the names of available input ports
func (dm *DeviceManager) InputNames() []string {
	ins, _ := dm.listPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// OutputNames returns the names of available output ports
func (dm *DeviceManager) OutputNames() []string {
	_, outs := dm.listPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// OpenInput opens the named input, returning the already open port if any.
// A failure is kept for InputError; a later success clears it.
func (dm *DeviceManager) OpenInput(name string) (*InPort, error) {
	dm.mu.RLock()
	if p, ok := dm.inputs[name]; ok {
		dm.mu.RUnlock()
		return p, nil
	}
	dm.mu.RUnlock()

	p, err := dm.openInput(name)

	dm.mu.Lock()
	defer dm.mu.Unlock()
	if err != nil {
		debug.Log("midi", "open input %q failed: %v", name, err)
		dm.errInputs[name] = err
		return nil, err
	}
	delete(dm.errInputs, name)
	dm.inputs[name] = p
	return p, nil
}

func (dm *DeviceManager) openInput(name string) (*InPort, error) {
	ins, _ := dm.listPorts()
	for _, in := range ins {
		if in.String() == name {
			return NewInPort(in)
		}
	}
	return nil, fmt.Errorf("input %q: %w", name, ErrPortNotFound)
}

// CloseInput closes the named input if it is open
func (dm *DeviceManager) CloseInput(name string) {
	dm.mu.Lock()
	p, ok := dm.inputs[name]
	delete(dm.inputs, name)
	dm.mu.Unlock()

	if ok {
		if err := p.Close(); err != nil {
			debug.Log("midi", "close input %q: %v", name, err)
		}
	}
}

// OpenOutput opens the named output, returning the already open port if any
func (dm *DeviceManager) OpenOutput(name string) (*OutPort, error) {
	dm.mu.RLock()
	if p, ok := dm.outputs[name]; ok {
		dm.mu.RUnlock()
		return p, nil
	}
	dm.mu.RUnlock()

	p, err := dm.openOutput(name)

	dm.mu.Lock()
	defer dm.mu.Unlock()
	if err != nil {
		debug.Log("midi", "open output %q failed: %v", name, err)
		dm.errOutputs[name] = err
		return nil, err
	}
	delete(dm.errOutputs, name)
	dm.outputs[name] = p
	return p, nil
}

func (dm *DeviceManager) openOutput(name string) (*OutPort, error) {
	_, outs := dm.listPorts()
	for _, out := range outs {
		if out.String() == name {
			return NewOutPort(out)
		}
	}
	return nil, fmt.Errorf("output %q: %w", name, ErrPortNotFound)
}

// CloseOutput closes the named output if it is open
func (dm *DeviceManager) CloseOutput(name string) {
	dm.mu.Lock()
	p, ok := dm.outputs[name]
	delete(dm.outputs, name)
	dm.mu.Unlock()

	if ok {
		if err := p.Close(); err != nil {
			debug.Log("midi", "close output %q: %v", name, err)
		}
	}
}

// Source opens the named input as an event Source
func (dm *DeviceManager) Source(name string) (Source, error) {
	p, err := dm.OpenInput(name)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Sink opens the named output as an event Sink
func (dm *DeviceManager) Sink(name string) (Sink, error) {
	p, err := dm.OpenOutput(name)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OpenInputs returns the sorted names of open inputs
func (dm *DeviceManager) OpenInputs() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return sortedKeys(dm.inputs)
}

// OpenOutputs returns the sorted names of open outputs
func (dm *DeviceManager) OpenOutputs() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return sortedKeys(dm.outputs)
}

// InputError returns why the named input last failed to open, nil if it
// opened or was never tried
func (dm *DeviceManager) InputError(name string) error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.errInputs[name]
}

// OutputError returns why the named output last failed to open
func (dm *DeviceManager) OutputError(name string) error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.errOutputs[name]
}

// Run polls for port changes until ctx is done (blocking - run in goroutine).
// Open ports are closed on return. The Events channel stays open, so Run may be
// called again.
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

// listPorts asks the driver for ports with a timeout (CoreMIDI can hang)
func (dm *DeviceManager) listPorts() ([]drivers.In, []drivers.Out) {
	type portsResult struct {
		ins  []drivers.In
		outs []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{ins: dm.lister.Ins(), outs: dm.lister.Outs()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return nil, nil
	}
}

func (dm *DeviceManager) scan() {
	ins, outs := dm.listPorts()
	if ins == nil && outs == nil {
		return
	}

	now := make(map[string]bool)
	for _, in := range ins {
		now["in:"+in.String()] = true
	}
	for _, out := range outs {
		now["out:"+out.String()] = true
	}

	dm.mu.Lock()
	var changes []DeviceEvent
	for key := range now {
		if !dm.seen[key] {
			changes = append(changes, portEvent(DeviceConnected, key))
		}
	}
	for key := range dm.seen {
		if !now[key] {
			changes = append(changes, portEvent(DeviceDisconnected, key))
		}
	}
	dm.seen = now
	dm.mu.Unlock()

	for _, ev := range changes {
		if ev.Type == DeviceDisconnected {
			if ev.Input {
				dm.CloseInput(ev.Name)
			} else {
				dm.CloseOutput(ev.Name)
			}
		}
		select {
		case dm.events <- ev:
		default:
			// Drop if nobody is listening
		}
	}
}

func portEvent(t DeviceEventType, key string) DeviceEvent {
	if len(key) > 3 && key[:3] == "in:" {
		return DeviceEvent{Type: t, Name: key[3:], Input: true}
	}
	return DeviceEvent{Type: t, Name: key[4:]}
}

func (dm *DeviceManager) closeAll() {
	for _, name := range dm.OpenInputs() {
		dm.CloseInput(name)
	}
	for _, name := range dm.OpenOutputs() {
		dm.CloseOutput(name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
