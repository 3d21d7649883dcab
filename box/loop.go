package box

import "go-morp/midi"

// Loop is an fx send/return template: an ordered chain of nodes. Attaching it
// to a Node builds a private copy, so one template can serve many nodes
// without them sharing effect state. The template nodes' own outputs are
// ignored.
type Loop struct {
	nodes []*Node
}

// NewLoop creates a loop template from nodes, in send order
func NewLoop(nodes ...*Node) *Loop {
	return &Loop{nodes: append([]*Node(nil), nodes...)}
}

// Len returns the number of nodes in the chain
func (l *Loop) Len() int {
	return len(l.nodes)
}

// Nodes returns the template nodes
func (l *Loop) Nodes() []*Node {
	return append([]*Node(nil), l.nodes...)
}

type loopInstance struct {
	template *Loop
	nodes    []*Node
}

// instantiate copies every node and wires copy[i] -> copy[i+1]. The last copy
// is marked as the fx return.
func (l *Loop) instantiate() *loopInstance {
	li := &loopInstance{template: l, nodes: make([]*Node, len(l.nodes))}
	for i, node := range l.nodes {
		li.nodes[i] = node.clone()
	}
	for i := 0; i < len(li.nodes)-1; i++ {
		li.nodes[i].SetOutputs(li.nodes[i+1])
	}
	if len(li.nodes) > 0 {
		li.nodes[len(li.nodes)-1].fxReturn = true
	}
	return li
}

// setReturn points the last node at the attaching node's outputs
func (li *loopInstance) setReturn(outputs []*Node) {
	if len(li.nodes) == 0 {
		return
	}
	li.nodes[len(li.nodes)-1].SetOutputs(outputs...)
}

// send forwards e to the first node. An empty loop swallows e.
func (li *loopInstance) send(e midi.Event) {
	if len(li.nodes) > 0 {
		li.nodes[0].OnMessage(e)
	}
}
