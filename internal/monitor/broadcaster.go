package monitor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Broadcaster fans out numbered master-mix Frames from the real-time graph
// to N preview listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	log       zerolog.Logger
}

// Listener receives master-mix Frames from the broadcaster. Dropped counts
// frames the broadcaster discarded for this listener because its buffer
// was full -- a slow HTTP or WebRTC consumer falling behind the live mix,
// not a bug in the broadcaster itself.
type Listener struct {
	C       chan Frame
	done    chan struct{}
	Dropped atomic.Uint64
	lastSeq uint64
	seqSet  bool
}

// NewBroadcaster creates a new broadcaster that logs dropped-frame gaps
// with log. Pass logging.Nop() if the caller doesn't care about them.
func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
		log:       log,
	}
}

// Subscribe registers a new listener. Returns a Listener that receives frames.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan Frame, 150), // ~3 seconds of buffer at 20ms/frame
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	close(l.done)
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Run reads frames from source and fans out to all listeners.
// Slow listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
					l.noteDelivered(frame.Seq, b.log)
				default:
					l.Dropped.Add(1)
				}
			}
			b.mu.RUnlock()
		}
	}
}

// noteDelivered tracks the sequence-number gap between consecutive frames
// this listener actually received, logging when the broadcaster's
// best-effort delivery skipped one or more frames for it.
func (l *Listener) noteDelivered(seq uint64, log zerolog.Logger) {
	if l.seqSet && seq > l.lastSeq+1 {
		log.Debug().
			Uint64("missed_frames", seq-l.lastSeq-1).
			Uint64("total_dropped", l.Dropped.Load()).
			Msg("monitor: listener fell behind the master mix")
	}
	l.lastSeq = seq
	l.seqSet = true
}
