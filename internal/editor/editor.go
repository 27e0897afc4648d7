// Package editor ties the scene/command layer, the one-shot/automation/
// sidechain managers, and the playback scheduler into one context object
// bound to a single active scene. It exists because those collaborators
// otherwise need cyclic references to each other (the scheduler needs the
// active scene's timeline, the sidechain manager needs decoded audio for
// that same scene, scene commands need to invalidate the sidechain/
// one-shot caches they never otherwise touch) -- Editor breaks the cycle by
// owning all of them and wiring the narrow interfaces each one actually
// consumes.
package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/timelineaudio/engine/internal/automation"
	"github.com/timelineaudio/engine/internal/config"
	"github.com/timelineaudio/engine/internal/media"
	"github.com/timelineaudio/engine/internal/model"
	"github.com/timelineaudio/engine/internal/obsmetrics"
	"github.com/timelineaudio/engine/internal/oneshot"
	"github.com/timelineaudio/engine/internal/persistence"
	"github.com/timelineaudio/engine/internal/scene"
	"github.com/timelineaudio/engine/internal/scheduler"
	"github.com/timelineaudio/engine/internal/sidechain"
)

// Editor owns the scene list, the active scene's derived managers, and the
// scheduler driving playback of that scene.
type Editor struct {
	mu sync.RWMutex

	log   zerolog.Logger
	store *persistence.Store

	scenes   *scene.Manager
	activeID model.SceneID

	provider   *media.FFmpegProvider
	mediaCache *media.DecodeCache
	sinkPool   *media.Pool

	oneshots      *oneshot.Manager
	automationMgr *automation.Manager
	ducking       *sidechain.Manager

	timeline *sceneTimeline
	sched    *scheduler.Scheduler
}

// New creates an Editor over an initial scene, wiring every derived manager
// and the scheduler against it. graph is the real-time audio graph the
// scheduler drives; resolver maps a MediaAsset's opaque handle to the bytes
// ffmpeg decodes.
func New(graph scheduler.Graph, initial model.Scene, store *persistence.Store, resolver media.Resolver, metrics *obsmetrics.Scheduler, cfg config.Config, log zerolog.Logger) *Editor {
	scenes := scene.NewManager([]model.Scene{initial})

	provider := media.NewFFmpegProvider(resolver)
	mediaCache := media.NewDecodeCache(provider, cfg.MediaCacheCapacity, log)
	sinkPool := media.NewPool(mediaCache)

	decodeCache := media.NewDecodeCache(provider, cfg.OneshotCacheCapacity, log)

	e := &Editor{
		log:        log,
		store:      store,
		scenes:     scenes,
		activeID:   initial.ID,
		provider:   provider,
		mediaCache: mediaCache,
		sinkPool:   sinkPool,
	}

	e.oneshots = oneshot.NewManager(initial.OneshotDefinitions, initial.OneshotMarkers, decodeCache)
	e.automationMgr = automation.NewManager(initial.AutomationStates, initial.AutomationMarkers)
	e.ducking = sidechain.NewManager(initial.SidechainConfigs, &sourceProvider{editor: e})
	e.timeline = newSceneTimeline()
	e.timeline.refresh(initial)

	e.sched = scheduler.New(
		graph,
		sinkPool,
		&mediaPathResolver{editor: e},
		e.oneshots,
		e.ducking,
		e.automationMgr,
		e.timeline,
		metrics,
		log,
		scheduler.Config{LookaheadWindow: cfg.LookaheadWindow, BackpressureSec: cfg.BackpressureSec},
	)

	e.scenes.Subscribe(scene.ObserverFunc(e.onScenesChanged))
	return e
}

// onScenesChanged re-derives every active-scene manager when the scene list
// mutates, and suspends a running playback session so it restarts against
// the fresh state rather than stale clip/envelope data.
func (e *Editor) onScenesChanged(scenes []model.Scene) {
	e.mu.Lock()
	var active *model.Scene
	for i := range scenes {
		if scenes[i].ID == e.activeID {
			active = &scenes[i]
			break
		}
	}
	if active == nil {
		e.mu.Unlock()
		return
	}
	e.oneshots.SetScene(active.OneshotDefinitions, active.OneshotMarkers)
	e.automationMgr.SetScene(active.AutomationStates, active.AutomationMarkers)
	e.ducking.SetScene(active.SidechainConfigs)
	e.timeline.refresh(*active)
	e.mu.Unlock()

	e.timeline.fireChange()
}

// ActiveSceneID returns the id of the scene the scheduler is currently
// bound to.
func (e *Editor) ActiveSceneID() model.SceneID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activeID
}

// ActiveScene returns a snapshot of the currently active scene.
func (e *Editor) ActiveScene() (model.Scene, bool) {
	return e.scenes.SceneByID(e.ActiveSceneID())
}

// Scenes returns a snapshot of every scene the editor knows about.
func (e *Editor) Scenes() []model.Scene {
	return e.scenes.Scenes()
}

// AddScene inserts a new scene into the editor's scene list without making
// it active.
func (e *Editor) AddScene(s model.Scene) {
	e.scenes.AddScene(s)
}

// SwitchActiveScene stops any running playback and rebinds every derived
// manager and the scheduler's timeline to a different scene already present
// in the editor's scene list.
func (e *Editor) SwitchActiveScene(id model.SceneID) error {
	sc, ok := e.scenes.SceneByID(id)
	if !ok {
		return model.NewError(model.ErrNotFound, "editor.SwitchActiveScene", nil)
	}
	e.sched.Stop()

	e.mu.Lock()
	e.activeID = id
	e.oneshots.SetScene(sc.OneshotDefinitions, sc.OneshotMarkers)
	e.automationMgr.SetScene(sc.AutomationStates, sc.AutomationMarkers)
	e.ducking.SetScene(sc.SidechainConfigs)
	e.timeline.refresh(sc)
	e.mu.Unlock()

	e.timeline.fireChange()
	return nil
}

// Execute runs cmd against the scene manager, triggering the observer
// refresh above on success.
func (e *Editor) Execute(cmd scene.Command) error {
	return e.scenes.Execute(cmd)
}

// Undo delegates to the underlying scene manager.
func (e *Editor) Undo() bool { return e.scenes.Undo() }

// Redo delegates to the underlying scene manager.
func (e *Editor) Redo() bool { return e.scenes.Redo() }

// Play starts playback of the active scene at timeline time t.
func (e *Editor) Play(ctx context.Context, t float64) { e.sched.Play(ctx, t) }

// Stop halts playback.
func (e *Editor) Stop() { e.sched.Stop() }

// Seek moves playback to a new timeline time.
func (e *Editor) Seek(ctx context.Context, t float64) { e.sched.Seek(ctx, t) }

// OnLookaheadTick forwards to the scheduler; callers drive this from a
// host ticker loop.
func (e *Editor) OnLookaheadTick(ctx context.Context, now float64) { e.sched.OnLookaheadTick(ctx, now) }

// OnGainTick forwards to the scheduler; callers drive this from a host
// ticker loop.
func (e *Editor) OnGainTick(ctx context.Context, now float64) { e.sched.OnGainTick(ctx, now) }

// SaveActiveScene persists the active scene through the editor's store.
func (e *Editor) SaveActiveScene() error {
	sc, ok := e.ActiveScene()
	if !ok {
		return model.NewError(model.ErrNotFound, "editor.SaveActiveScene", nil)
	}
	return e.store.Save(sc)
}

// resolveSourceHandle turns a MediaAsset's opaque SourceHandle into the
// local path or URL ffmpeg can actually decode.
func (e *Editor) resolveSourceHandle(ctx context.Context, handle string) (string, bool) {
	path, err := e.provider.ResolveHandle(ctx, handle)
	if err != nil {
		e.log.Warn().Err(err).Str("handle", handle).Msg("editor: resolve source handle failed")
		return "", false
	}
	return path, true
}

// LoadScene loads a scene from the store and adds it to the editor's scene
// list without switching to it.
func (e *Editor) LoadScene(id model.SceneID) (model.Scene, error) {
	sc, migrated, err := e.store.Load(id)
	if err != nil {
		return model.Scene{}, fmt.Errorf("editor: load scene: %w", err)
	}
	if migrated {
		e.log.Info().Str("scene_id", id.String()).Msg("editor: loaded scene required migration")
	}
	e.AddScene(sc)
	return sc, nil
}
