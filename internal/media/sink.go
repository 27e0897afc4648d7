package media

import (
	"context"
	"sync"

	"github.com/timelineaudio/engine/internal/model"
)

// ChunkSeconds is the size of one PCM chunk handed to a clip iterator by a
// Sink, matching the scheduler's 20ms real-time-audio-graph frame size.
const ChunkSeconds = 0.02

// Sink is a cached decoder-backed PCM source keyed by a source-file
// identity, shared by every clip iterator reading from that source.
type Sink struct {
	key      string
	buffer   *Buffer
	disposed bool
}

// Key returns the sink's source-file identity.
func (s *Sink) Key() string { return s.key }

// Disposed reports whether the sink has been torn down.
func (s *Sink) Disposed() bool { return s.disposed }

// ReadChunk returns up to ChunkSeconds of interleaved PCM starting at
// offsetSeconds of source time, and the chunk's own source-time timestamp.
// Returns ok=false past end-of-buffer or once disposed (the Disposed error
// kind is the caller's concern -- this layer just signals "nothing here").
func (s *Sink) ReadChunk(offsetSeconds float64) (samples []float64, timestamp float64, ok bool) {
	if s.disposed || s.buffer == nil {
		return nil, 0, false
	}
	frames := len(s.buffer.Samples) / s.buffer.Channels
	startFrame := int(offsetSeconds * float64(s.buffer.Rate))
	if startFrame < 0 || startFrame >= frames {
		return nil, 0, false
	}
	chunkFrames := int(ChunkSeconds * float64(s.buffer.Rate))
	endFrame := startFrame + chunkFrames
	if endFrame > frames {
		endFrame = frames
	}
	chunk := s.buffer.Samples[startFrame*s.buffer.Channels : endFrame*s.buffer.Channels]
	return chunk, float64(startFrame) / float64(s.buffer.Rate), true
}

// Rate and Channels expose the sink's native format for the scheduler's
// resampling/mixing path.
func (s *Sink) Rate() int     { return s.buffer.Rate }
func (s *Sink) Channels() int { return s.buffer.Channels }

// Pool creates and shares Sinks by source key and counts references to
// each. The count does not drive disposal: a sink stays alive after its
// last Release and is only torn down by DisposeAll.
type Pool struct {
	mu    sync.Mutex
	cache *DecodeCache
	sinks map[string]*poolEntry
}

type poolEntry struct {
	sink     *Sink
	refcount int
}

// NewPool creates a sink pool backed by the given decode cache. Callers
// resolve sourceKey/path pairs themselves (see scheduler.MediaPathResolver)
// and pass them to Acquire.
func NewPool(cache *DecodeCache) *Pool {
	return &Pool{cache: cache, sinks: make(map[string]*poolEntry)}
}

// Acquire returns the shared Sink for sourceKey, decoding via path on
// first acquisition. Returns ok=false on decode failure.
func (p *Pool) Acquire(ctx context.Context, sourceKey, path string) (*Sink, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, found := p.sinks[sourceKey]; found {
		e.refcount++
		return e.sink, true
	}

	buf, ok := p.cache.GetByFile(ctx, sourceKey, path)
	if !ok {
		return nil, false
	}
	sink := &Sink{key: sourceKey, buffer: buf}
	p.sinks[sourceKey] = &poolEntry{sink: sink, refcount: 1}
	return sink, true
}

// Release drops one reference to sourceKey's sink. The sink itself is only
// torn down by DisposeAll -- sinks are disposed on a full teardown
// (tracks/media set change), not merely when a clip finishes.
func (p *Pool) Release(sourceKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.sinks[sourceKey]; ok {
		e.refcount--
	}
}

// DisposeAll tears down every sink in the pool, marking each disposed so
// in-flight iterators observe model.ErrDisposed and exit cleanly.
func (p *Pool) DisposeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, e := range p.sinks {
		e.sink.disposed = true
		delete(p.sinks, key)
	}
}

// ErrSinkInit wraps a sink-acquisition failure as the documented error
// kind, for callers that want to propagate rather than silently skip.
func ErrSinkInit(sourceKey string, cause error) *model.EngineError {
	return model.NewError(model.ErrSinkInitFailure, "media.Pool.Acquire:"+sourceKey, cause)
}
