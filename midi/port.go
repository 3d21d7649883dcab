package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-morp/debug"
)

// Source delivers events from an input device via callback
type Source interface {
	Name() string
	Listen(recv func(Event)) (stop func(), err error)
}

// Sink accepts events for an output device
type Sink interface {
	Name() string
	Send(e Event) error
}

// InPort is a Source backed by a MIDI input port
type InPort struct {
	name string
	in   drivers.In

	mu    sync.Mutex
	stops []func()
}

// NewInPort opens the given driver port for listening
func NewInPort(in drivers.In) (*InPort, error) {
	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return nil, fmt.Errorf("open input %s: %w", in.String(), err)
		}
	}
	return &InPort{name: in.String(), in: in}, nil
}

func (p *InPort) Name() string {
	return p.name
}

// Listen forwards note and clock messages to recv until stop is called.
// recv runs on the driver's callback thread. stop may be called more than once.
func (p *InPort) Listen(recv func(Event)) (func(), error) {
	stopListening, err := gomidi.ListenTo(p.in, func(msg gomidi.Message, timestampms int32) {
		if e, ok := FromMessage(msg); ok {
			recv(e)
		}
	}, gomidi.UseTimeCode(), gomidi.HandleError(func(err error) {
		debug.Log("midi-in", "%s: %v", p.name, err)
	}))
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", p.name, err)
	}
	var once sync.Once
	stop := func() { once.Do(stopListening) }

	p.mu.Lock()
	p.stops = append(p.stops, stop)
	p.mu.Unlock()
	return stop, nil
}

// Close stops every listener and closes the port
func (p *InPort) Close() error {
	p.mu.Lock()
	for _, stop := range p.stops {
		stop()
	}
	p.stops = nil
	p.mu.Unlock()
	return p.in.Close()
}

// OutPort is a Sink backed by a MIDI output port
type OutPort struct {
	name string
	out  drivers.Out
	send func(msg gomidi.Message) error
}

// NewOutPort opens the given driver port for sending
func NewOutPort(out drivers.Out) (*OutPort, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", out.String(), err)
	}
	return &OutPort{name: out.String(), out: out, send: send}, nil
}

func (p *OutPort) Name() string {
	return p.name
}

// Send writes e to the port
func (p *OutPort) Send(e Event) error {
	return p.send(e.Message())
}

// Close closes the port
func (p *OutPort) Close() error {
	return p.out.Close()
}
