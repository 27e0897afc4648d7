package scheduler

import "sync"

type gainNode struct {
	gain    float64
	stopped bool
}

type scheduledNode struct {
	contextTime float64
	spec        SourceSpec
	output      *gainNode
	stopped     bool
}

// FakeGraph is an in-memory Graph for scheduler tests: it records every
// scheduled node and gain write instead of touching real audio hardware.
type FakeGraph struct {
	mu    sync.Mutex
	now   float64
	nodes []*scheduledNode
	gains []*gainNode
}

// NewFakeGraph creates a FakeGraph with its clock at t=0.
func NewFakeGraph() *FakeGraph { return &FakeGraph{} }

func (g *FakeGraph) Now() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now
}

// Advance moves the fake graph's clock forward by dt seconds.
func (g *FakeGraph) Advance(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now += dt
}

func (g *FakeGraph) CreateGain() NodeHandle {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &gainNode{gain: 1.0}
	g.gains = append(g.gains, n)
	return n
}

func (g *FakeGraph) ScheduleSource(contextTime float64, spec SourceSpec, output NodeHandle) NodeHandle {
	out, _ := output.(*gainNode)
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &scheduledNode{contextTime: contextTime, spec: spec, output: out}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *FakeGraph) SetGain(h NodeHandle, gain float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch n := h.(type) {
	case *gainNode:
		n.gain = gain
	case *scheduledNode:
		if n.output != nil {
			n.output.gain = gain
		}
	}
}

func (g *FakeGraph) Stop(h NodeHandle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch n := h.(type) {
	case *gainNode:
		n.stopped = true
	case *scheduledNode:
		n.stopped = true
	}
}

// Nodes returns a snapshot of every source node ever scheduled, in
// schedule order.
func (g *FakeGraph) Nodes() []*scheduledNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*scheduledNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// ContextTime exposes a node's scheduled context time for assertions.
func (n *scheduledNode) ContextTime() float64 { return n.contextTime }
func (n *scheduledNode) Offset() float64      { return n.spec.OffsetSeconds }
func (n *scheduledNode) SampleLen() int       { return len(n.spec.Samples) }
func (n *scheduledNode) Stopped() bool        { return n.stopped }

// GainOf exposes the current gain value of a gain node handle.
func GainOf(h NodeHandle) float64 {
	if g, ok := h.(*gainNode); ok {
		return g.gain
	}
	return 0
}
