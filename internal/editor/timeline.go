package editor

import (
	"sync"

	"github.com/timelineaudio/engine/internal/model"
)

// sceneTimeline implements transport.TimelineQueries over whatever scene
// the owning Editor currently has active. refresh is called by the Editor
// under its own lock whenever the active scene's content changes; readers
// never see a half-updated scene.
type sceneTimeline struct {
	mu    sync.RWMutex
	scene model.Scene

	cbMu sync.Mutex
	cbs  []func()
}

func newSceneTimeline() *sceneTimeline {
	return &sceneTimeline{}
}

func (t *sceneTimeline) refresh(s model.Scene) {
	t.mu.Lock()
	t.scene = s
	t.mu.Unlock()
}

func (t *sceneTimeline) Tracks() []model.Track {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.Track{}, t.scene.Tracks...)
}

func (t *sceneTimeline) TotalDuration() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scene.TotalDuration()
}

func (t *sceneTimeline) TrackByID(id model.TrackID) (model.Track, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tr, ok := t.scene.TrackByID(id)
	if !ok {
		return model.Track{}, false
	}
	return *tr, true
}

func (t *sceneTimeline) SubscribeChange(onChange func()) func() {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.cbs = append(t.cbs, onChange)
	idx := len(t.cbs) - 1
	return func() {
		t.cbMu.Lock()
		defer t.cbMu.Unlock()
		t.cbs[idx] = nil
	}
}

// fireChange notifies every registered callback that the timeline shape
// changed -- called by the Editor after refresh, outside its own lock, so
// a callback that calls back into the Editor doesn't deadlock.
func (t *sceneTimeline) fireChange() {
	t.cbMu.Lock()
	cbs := append([]func(){}, t.cbs...)
	t.cbMu.Unlock()
	for _, cb := range cbs {
		if cb != nil {
			cb()
		}
	}
}
