package transport

import (
	"sync"

	"github.com/timelineaudio/engine/internal/model"
)

// Fake is an in-memory Transport + TimelineQueries implementation for
// scheduler and mixdown tests; it never talks to a real audio graph.
type Fake struct {
	mu        sync.Mutex
	playing   bool
	time      float64
	volume    float64
	tracks    []model.Track
	listeners []Listener
	onChange  []func()
}

// NewFake creates a Fake transport with volume defaulted to 1.0.
func NewFake() *Fake {
	return &Fake{volume: 1.0}
}

func (f *Fake) IsPlaying() bool      { f.mu.Lock(); defer f.mu.Unlock(); return f.playing }
func (f *Fake) CurrentTime() float64 { f.mu.Lock(); defer f.mu.Unlock(); return f.time }
func (f *Fake) Volume() float64      { f.mu.Lock(); defer f.mu.Unlock(); return f.volume }

func (f *Fake) Subscribe(l Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
	idx := len(f.listeners) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners[idx] = nil
	}
}

// Play sets the transport to playing from the given timeline time and
// notifies listeners.
func (f *Fake) Play(at float64) {
	f.mu.Lock()
	f.playing = true
	f.time = at
	listeners := append([]Listener{}, f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			l.OnPlayStateChanged(true)
		}
	}
}

// Stop sets the transport to stopped and notifies listeners.
func (f *Fake) Stop() {
	f.mu.Lock()
	f.playing = false
	listeners := append([]Listener{}, f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			l.OnPlayStateChanged(false)
		}
	}
}

// Seek moves the transport's current time and notifies listeners.
func (f *Fake) Seek(t float64) {
	f.mu.Lock()
	f.time = t
	listeners := append([]Listener{}, f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			l.OnSeek(SeekEvent{Time: t})
		}
	}
}

// AdvanceTime moves current time forward without emitting a seek, the way
// a running audio graph clock would.
func (f *Fake) AdvanceTime(dt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.time += dt
}

// SetTracks replaces the fake's timeline and fires every registered
// change callback.
func (f *Fake) SetTracks(tracks []model.Track) {
	f.mu.Lock()
	f.tracks = tracks
	cbs := append([]func(){}, f.onChange...)
	f.mu.Unlock()
	for _, cb := range cbs {
		if cb != nil {
			cb()
		}
	}
}

func (f *Fake) Tracks() []model.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Track{}, f.tracks...)
}

func (f *Fake) TotalDuration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var max float64
	for _, tr := range f.tracks {
		if tr.Hidden {
			continue
		}
		for _, el := range tr.Elements {
			if end := el.EndTime(); end > max {
				max = end
			}
		}
	}
	return max
}

func (f *Fake) TrackByID(id model.TrackID) (model.Track, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.tracks {
		if tr.ID == id {
			return tr, true
		}
	}
	return model.Track{}, false
}

func (f *Fake) SubscribeChange(onChange func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = append(f.onChange, onChange)
	idx := len(f.onChange) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.onChange[idx] = nil
	}
}
