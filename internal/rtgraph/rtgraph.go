// Package rtgraph is a reference scheduler.Graph: a wall-clock-paced mixer
// that sums every scheduled source's PCM into a 48kHz stereo master bus,
// the way a real platform audio graph would, but without platform audio
// output. It exists so cmd/engine can run standalone (no host-supplied
// Graph) and so the monitor preview tap has a real master mix to read,
// pacing its own output on a fixed ticker rather than blocking on hardware.
package rtgraph

import (
	"context"
	"sync"
	"time"

	"github.com/timelineaudio/engine/internal/monitor"
	"github.com/timelineaudio/engine/internal/scheduler"
)

const tickInterval = monitor.FrameDuration

type gainNode struct {
	gain    float64
	stopped bool
}

type scheduledNode struct {
	contextTime float64
	spec        scheduler.SourceSpec
	output      *gainNode
	cursor      int // next unplayed frame-sample index into spec.Samples
	stopped     bool
}

// Graph mixes every node scheduled onto it into one master bus, sampled
// out at tickInterval and optionally pushed to a monitor.Pump for preview.
type Graph struct {
	start time.Time
	pump  *monitor.Pump

	mu    sync.Mutex
	nodes []*scheduledNode
	gains []*gainNode
}

// New creates a Graph whose clock starts now. pump may be nil, in which
// case the mixed master bus is computed and discarded (no preview tap).
func New(pump *monitor.Pump) *Graph {
	return &Graph{start: time.Now(), pump: pump}
}

// Now reports the graph's wall-clock time, in seconds since construction.
func (g *Graph) Now() float64 { return time.Since(g.start).Seconds() }

func (g *Graph) CreateGain() scheduler.NodeHandle {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &gainNode{gain: 1.0}
	g.gains = append(g.gains, n)
	return n
}

func (g *Graph) ScheduleSource(contextTime float64, spec scheduler.SourceSpec, output scheduler.NodeHandle) scheduler.NodeHandle {
	out, _ := output.(*gainNode)
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &scheduledNode{contextTime: contextTime, spec: spec, output: out}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *Graph) SetGain(h scheduler.NodeHandle, gain float64) {
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

func (g *Graph) Stop(h scheduler.NodeHandle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch n := h.(type) {
	case *gainNode:
		n.stopped = true
	case *scheduledNode:
		n.stopped = true
	}
}

// Run mixes the master bus at tickInterval until ctx is cancelled, pushing
// each mixed chunk to the preview pump (if configured). Exhausted or
// stopped nodes are pruned as the mix passes them.
func (g *Graph) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chunk := g.mixTick()
			if g.pump != nil && chunk != nil {
				g.pump.Push(ctx, chunk)
			}
		}
	}
}

func (g *Graph) mixTick() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.Now()
	out := make([]float64, monitor.FrameSamples)

	kept := g.nodes[:0]
	mixed := false
	for _, n := range g.nodes {
		if n.stopped || n.contextTime > now {
			if !n.stopped {
				kept = append(kept, n)
			}
			continue
		}
		gain := 1.0
		if n.output != nil {
			gain = n.output.gain
		}
		remaining := len(n.spec.Samples) - n.cursor
		if remaining <= 0 {
			continue
		}
		take := remaining
		if take > len(out) {
			take = len(out)
		}
		for i := 0; i < take; i++ {
			out[i] += n.spec.Samples[n.cursor+i] * gain
		}
		n.cursor += take
		mixed = true
		if n.cursor < len(n.spec.Samples) {
			kept = append(kept, n)
		}
	}
	g.nodes = kept

	if !mixed {
		return nil
	}
	return out
}
