package zen

import "sync/atomic"

// IDAllocator issues strictly increasing node ids. Zero is never issued.
type IDAllocator struct {
	last atomic.Uint64
}

// Next returns an id that no previous call has returned.
func (a *IDAllocator) Next() uint64 {
	return a.last.Add(1)
}

// Reset restarts the sequence. Only safe when no node allocated from a
// previous sequence is still reachable.
func (a *IDAllocator) Reset() {
	a.last.Store(0)
}

// ids is shared by every expression and regex node in the process.
var ids IDAllocator

// node holds the identity shared by all expression and regex nodes.
type node struct {
	id uint64
}

func newNode() node { return node{id: ids.Next()} }

// ID returns the process-wide unique id of the node.
func (n *node) ID() uint64 { return n.id }
