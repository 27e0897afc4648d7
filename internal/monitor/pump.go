package monitor

import "context"

// Pump re-chunks an arbitrarily-sized stream of interleaved float64 master
// mix samples (as produced by the real-time audio graph's own render loop)
// into fixed FrameSamples-sized, sequence-numbered Frames and emits them on
// Frames(). It performs no pacing of its own -- the graph that feeds In is
// already real-time paced, so Pump only reformats, re-buffers, and numbers.
type Pump struct {
	in    chan []float64
	out   chan Frame
	carry []float64
	seq   uint64
}

// NewPump creates a Pump with room for a few chunks of backpressure.
func NewPump() *Pump {
	return &Pump{
		in:  make(chan []float64, 32),
		out: make(chan Frame, 32),
	}
}

// Frames returns the channel of outgoing sequence-numbered PCM frames, each
// FrameSamples long, suitable for Broadcaster.Run.
func (p *Pump) Frames() <-chan Frame {
	return p.out
}

// Push enqueues one chunk of interleaved float64 master-mix samples.
// Blocks if the pump's internal buffer is full; callers on a real-time
// thread should size their own upstream buffering to avoid that.
func (p *Pump) Push(ctx context.Context, chunk []float64) bool {
	select {
	case p.in <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run drains In, re-chunks into FrameSamples-sized frames, and emits them
// on Frames() until ctx is cancelled or Push stops arriving and the
// caller closes the underlying context.
func (p *Pump) Run(ctx context.Context) {
	defer close(p.out)
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-p.in:
			if !ok {
				return
			}
			p.carry = append(p.carry, chunk...)
			for len(p.carry) >= FrameSamples {
				pcm := Int16Frame(p.carry[:FrameSamples])
				p.carry = append([]float64{}, p.carry[FrameSamples:]...)
				frame := Frame{Seq: p.seq, PCM: pcm}
				p.seq++
				select {
				case p.out <- frame:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
