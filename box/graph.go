package box

import (
	"sync"
	"sync/atomic"

	"go-morp/debug"
	"go-morp/midi"
)

// Graph serializes dispatch into a shared node graph. Device callbacks,
// transport controls and UI reads all go through the same lock, held for the
// whole depth-first dispatch.
type Graph struct {
	mu         sync.Mutex
	dispatched atomic.Uint64
}

// NewGraph creates an empty dispatch lock
func NewGraph() *Graph {
	return &Graph{}
}

// Dispatch delivers e to n and waits for the full fan-out to finish
func (g *Graph) Dispatch(n *Node, e midi.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n.OnMessage(e)
	count := g.dispatched.Add(1)
	if e.IsClock() {
		debug.LogEvery(96, "route", "%s clock", n.Name())
	} else {
		debug.Log("route", "%s %s (#%d)", n.Name(), e, count)
	}
}

// Do runs fn while holding the dispatch lock
func (g *Graph) Do(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// Dispatched returns how many events have entered the graph
func (g *Graph) Dispatched() uint64 {
	return g.dispatched.Load()
}

// Bind listens on src and dispatches everything it delivers into n
func (g *Graph) Bind(src midi.Source, n *Node) (stop func(), err error) {
	return src.Listen(func(e midi.Event) {
		g.Dispatch(n, e)
	})
}
