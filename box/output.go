package box

import (
	"sync"

	"go-morp/debug"
	"go-morp/midi"
)

// Output sends everything reaching its node to a Sink, then routes it on as
// usual so the node still tracks active notes.
type Output struct {
	sink midi.Sink

	mu      sync.Mutex
	sent    int
	failed  int
	lastErr error
}

// NewOutput creates a node that writes to sink
func NewOutput(sink midi.Sink) *Node {
	return NewNode("out:"+sink.Name(), &Output{sink: sink})
}

// OutputOf returns the Output effect behind n, if any
func OutputOf(n *Node) (*Output, bool) {
	out, ok := n.Effect().(*Output)
	return out, ok
}

func (o *Output) Modify(e midi.Event) []midi.Event {
	return []midi.Event{e}
}

// Clone shares the sink, which the graph does not own
func (o *Output) Clone() Effect {
	return &Output{sink: o.sink}
}

func (o *Output) HandleNote(n *Node, e midi.Event) {
	o.send(e)
	n.Note(e)
}

func (o *Output) HandleClock(n *Node, e midi.Event) {
	o.send(e)
	n.Clock(e)
}

func (o *Output) send(e midi.Event) {
	err := o.sink.Send(e)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failed++
		o.lastErr = err
		debug.Log("output", "%s: send %s: %v", o.sink.Name(), e, err)
		return
	}
	o.sent++
}

// Stats returns the number of sent and failed events and the last error
func (o *Output) Stats() (sent, failed int, lastErr error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent, o.failed, o.lastErr
}
