// Package scheduler implements the Playback Scheduler: a
// single-threaded cooperative actor that pre-schedules timeline audio
// clips and triggered one-shot samples onto a real-time audio graph.
//
// The scheduler never blocks on real time itself -- it is driven by an
// external lookahead tick (500ms) and gain tick (100ms), matching the
// "single-threaded cooperative within the editor" model: all
// scheduling decisions happen synchronously inside OnLookaheadTick and
// OnGainTick, which the host application calls from its own ticker loop.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/timelineaudio/engine/internal/automation"
	"github.com/timelineaudio/engine/internal/media"
	"github.com/timelineaudio/engine/internal/model"
	"github.com/timelineaudio/engine/internal/obsmetrics"
	"github.com/timelineaudio/engine/internal/oneshot"
	"github.com/timelineaudio/engine/internal/sidechain"
	"github.com/timelineaudio/engine/internal/transport"
)

// State is the scheduler's playback state machine.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateRunning
	StateSuspended
)

// BackwardGrace is the small backward window a one-shot
// marker already slightly in the past is still eligible for scheduling
// within, to absorb tick-boundary jitter.
const BackwardGrace = 0.1

// DefaultBackpressureSec bounds how far ahead of current playback time a
// clip iterator is allowed to buffer chunks.
const DefaultBackpressureSec = 1.0

// MediaPathResolver resolves a MediaAsset to the (sourceKey, path) pair a
// Sink decodes from. sourceKey identifies the shared Sink; same mediaID
// must always resolve to the same sourceKey.
type MediaPathResolver interface {
	ResolvePath(ctx context.Context, mediaID model.MediaID) (sourceKey, path string, ok bool)
}

type activeClip struct {
	clip     Clip
	iterator *clipIterator
	sink     *media.Sink
	gainNode NodeHandle
}

type activeOneshot struct {
	markerID model.MarkerID
	defID    model.DefinitionID
	volume   float64
	gainNode NodeHandle
}

// Scheduler drives the real-time audio graph from the active Scene's
// timeline plus the one-shot, sidechain, and automation managers.
type Scheduler struct {
	graph     Graph
	sinkPool  *media.Pool
	resolver  MediaPathResolver
	oneshots  *oneshot.Manager
	ducking   *sidechain.Manager
	automationMgr *automation.Manager
	timeline  transport.TimelineQueries
	metrics   *obsmetrics.Scheduler
	log       zerolog.Logger

	lookaheadWindow float64
	backpressureSec float64

	state     State
	sessionID int64

	clips  []Clip
	active map[model.ElementID]*activeClip

	scheduledOneshots map[model.MarkerID]*activeOneshot

	playbackStartTime        float64
	playbackStartContextTime float64
}

// Config bundles the scheduler's timing parameters, matching
// internal/config.Config's scheduler fields.
type Config struct {
	LookaheadWindow time.Duration
	BackpressureSec float64
}

// New creates a Scheduler wired to its collaborators.
func New(graph Graph, sinkPool *media.Pool, resolver MediaPathResolver, oneshots *oneshot.Manager, ducking *sidechain.Manager, automationMgr *automation.Manager, timeline transport.TimelineQueries, metrics *obsmetrics.Scheduler, log zerolog.Logger, cfg Config) *Scheduler {
	backpressure := cfg.BackpressureSec
	if backpressure <= 0 {
		backpressure = DefaultBackpressureSec
	}
	lookahead := cfg.LookaheadWindow.Seconds()
	if lookahead <= 0 {
		lookahead = 2.0
	}
	return &Scheduler{
		graph:           graph,
		sinkPool:        sinkPool,
		resolver:        resolver,
		oneshots:        oneshots,
		ducking:         ducking,
		automationMgr:   automationMgr,
		timeline:        timeline,
		metrics:         metrics,
		log:             log,
		lookaheadWindow: lookahead,
		backpressureSec: backpressure,
		active:          make(map[model.ElementID]*activeClip),
		scheduledOneshots: make(map[model.MarkerID]*activeOneshot),
	}
}

// State returns the scheduler's current playback state.
func (s *Scheduler) State() State { return s.state }

// SessionID returns the current session's identifier. Any stale async task
// observing a different value must exit.
func (s *Scheduler) SessionID() int64 { return s.sessionID }

// Play starts a new play session at timeline time t.
func (s *Scheduler) Play(ctx context.Context, t float64) {
	s.state = StatePreparing
	s.sessionID++

	s.clips = CollectClips(s.timeline.Tracks())
	s.oneshots.PrepareForPlayback()
	s.ducking.PrepareForPlayback()

	s.playbackStartTime = t
	s.playbackStartContextTime = s.graph.Now()
	if s.metrics != nil {
		s.metrics.SessionStarted(ctx)
	}

	s.state = StateRunning
	s.OnLookaheadTick(ctx, t)
}

// Stop tears down the current session: cancels iterators, stops queued
// source nodes, and clears all scheduler-owned state.
func (s *Scheduler) Stop() {
	for _, ac := range s.active {
		s.graph.Stop(ac.gainNode)
		if ac.sink != nil {
			s.sinkPool.Release(ac.sink.Key())
		}
	}
	for _, ao := range s.scheduledOneshots {
		s.graph.Stop(ao.gainNode)
	}
	s.active = make(map[model.ElementID]*activeClip)
	s.scheduledOneshots = make(map[model.MarkerID]*activeOneshot)
	s.oneshots.Teardown()
	s.ducking.Teardown()
	s.sessionID++
	s.state = StateIdle
}

// Seek behaves like stop-then-start at the new time if currently playing,
// otherwise it's just a stop.
func (s *Scheduler) Seek(ctx context.Context, t float64) {
	wasRunning := s.state == StateRunning
	s.Stop()
	if wasRunning {
		s.Play(ctx, t)
	}
}

// Suspend reacts to a timeline/media mutation while playing: dispose all
// sinks and iterators, then restart at the current playback time with the
// same sessionId increment.
func (s *Scheduler) Suspend(ctx context.Context, currentPlaybackTime float64) {
	if s.state != StateRunning {
		return
	}
	s.state = StateSuspended
	s.sinkPool.DisposeAll()
	s.Stop()
	s.Play(ctx, currentPlaybackTime)
}

// OnLookaheadTick runs one look-ahead pass: activates clips and one-shot
// triggers newly within [now, now+lookahead), and pumps already-active
// clip iterators up to the backpressure bound.
func (s *Scheduler) OnLookaheadTick(ctx context.Context, now float64) {
	if s.state != StateRunning {
		return
	}
	if s.metrics != nil {
		s.metrics.LookaheadTick(ctx)
	}

	windowEnd := now + s.lookaheadWindow
	totalDuration := s.timeline.TotalDuration()

	for _, clip := range s.clips {
		if clip.Muted {
			continue
		}
		if _, active := s.active[clip.ElementID]; active {
			continue
		}
		end := clip.EffectiveEnd(totalDuration)
		if clip.StartTime >= windowEnd || end <= now {
			continue
		}
		s.activateClip(ctx, clip, now)
	}

	for elID, ac := range s.active {
		s.pumpClip(ctx, elID, ac, now, windowEnd)
	}

	for _, hit := range s.oneshots.MarkersInWindow(now, windowEnd) {
		if _, scheduled := s.scheduledOneshots[hit.Marker.ID]; scheduled {
			continue
		}
		if hit.AudioStart < now-BackwardGrace {
			continue
		}
		s.scheduleOneshot(ctx, hit)
	}
}

func (s *Scheduler) activateClip(ctx context.Context, clip Clip, now float64) {
	sourceKey, path, ok := s.resolver.ResolvePath(ctx, clip.MediaID)
	if !ok {
		if s.metrics != nil {
			s.metrics.ClipSkipped(ctx)
		}
		s.log.Warn().Str("mediaID", clip.MediaID.String()).Msg("scheduler: media path resolution failed, skipping clip")
		return
	}
	sink, ok := s.sinkPool.Acquire(ctx, sourceKey, path)
	if !ok {
		if s.metrics != nil {
			s.metrics.ClipSkipped(ctx)
		}
		s.log.Warn().Str("sourceKey", sourceKey).Msg("scheduler: sink init failed, skipping clip")
		return
	}
	startAt := clip.StartTime
	if now > startAt {
		startAt = now
	}
	gainNode := s.graph.CreateGain()
	s.active[clip.ElementID] = &activeClip{
		clip:     clip,
		iterator: newClipIterator(clip, sink, startAt, s.timeline.TotalDuration()),
		sink:     sink,
		gainNode: gainNode,
	}
}

func (s *Scheduler) pumpClip(ctx context.Context, elID model.ElementID, ac *activeClip, now, windowEnd float64) {
	for {
		chunk, ok := ac.iterator.next()
		if !ok {
			s.graph.Stop(ac.gainNode)
			s.sinkPool.Release(ac.sink.Key())
			delete(s.active, elID)
			return
		}
		if chunk.timelineTime-now >= s.backpressureSec {
			return
		}

		contextTime := s.playbackStartContextTime + (chunk.timelineTime - s.playbackStartTime)
		offset := 0.0
		if contextTime < s.graph.Now() {
			offset = s.graph.Now() - contextTime
			contextTime = s.graph.Now()
		}
		s.graph.ScheduleSource(contextTime, SourceSpec{
			Samples:       chunk.samples,
			Rate:          chunk.rate,
			Channels:      chunk.channels,
			OffsetSeconds: offset,
		}, ac.gainNode)

		if chunk.timelineTime >= windowEnd {
			return
		}
	}
}

func (s *Scheduler) scheduleOneshot(ctx context.Context, hit oneshot.Hit) {
	buf, ok := s.oneshots.Buffer(ctx, hit.Definition)
	if !ok {
		if s.metrics != nil {
			s.metrics.ClipSkipped(ctx)
		}
		return
	}
	startFrame := int(hit.Definition.TrimStart * float64(buf.Rate))
	endFrame := int(hit.Definition.TrimEnd * float64(buf.Rate))
	frames := len(buf.Samples) / buf.Channels
	if endFrame > frames {
		endFrame = frames
	}
	if startFrame >= endFrame {
		return
	}
	slice := buf.Samples[startFrame*buf.Channels : endFrame*buf.Channels]

	gainNode := s.graph.CreateGain()
	contextTime := s.playbackStartContextTime + (hit.AudioStart - s.playbackStartTime)
	offset := 0.0
	if contextTime < s.graph.Now() {
		offset = s.graph.Now() - contextTime
		contextTime = s.graph.Now()
	}
	s.graph.ScheduleSource(contextTime, SourceSpec{
		Samples:       slice,
		Rate:          buf.Rate,
		Channels:      buf.Channels,
		OffsetSeconds: offset,
	}, gainNode)

	s.scheduledOneshots[hit.Marker.ID] = &activeOneshot{
		markerID: hit.Marker.ID,
		defID:    hit.Definition.ID,
		volume:   hit.Marker.EffectiveVolume(),
		gainNode: gainNode,
	}
}

// OnGainTick updates every active clip's and live one-shot's gain node
// from the current automation/sidechain state.
func (s *Scheduler) OnGainTick(ctx context.Context, now float64) {
	if s.state != StateRunning {
		return
	}
	if s.metrics != nil {
		s.metrics.GainTick(ctx)
	}

	for _, ac := range s.active {
		effectiveVolume := s.automationMgr.EffectiveVolume(ac.clip.TrackID, ac.clip.ElementID, now, nil, ac.clip.BaseVolume*100) / 100
		sidechainGain := s.ducking.GainForTrack(ac.clip.TrackID, now)
		s.graph.SetGain(ac.gainNode, effectiveVolume*sidechainGain)
	}

	for _, ao := range s.scheduledOneshots {
		gain := ao.volume * s.ducking.GainForOneshot(ao.defID, now)
		s.graph.SetGain(ao.gainNode, gain)
	}
}

// CollectClips gathers every non-hidden audio element on every track into
// Clip records, skipping hidden elements.
func CollectClips(tracks []model.Track) []Clip {
	var clips []Clip
	for _, tr := range tracks {
		if tr.Hidden {
			continue
		}
		for _, el := range tr.Elements {
			if el.Kind != model.ElementAudio || el.Audio == nil {
				continue
			}
			if el.Hidden {
				continue
			}
			clips = append(clips, Clip{
				ElementID:  el.ID,
				TrackID:    tr.ID,
				MediaID:    el.Audio.MediaID,
				StartTime:  el.StartTime,
				Duration:   el.Duration,
				TrimStart:  el.TrimStart,
				TrimEnd:    el.TrimEnd,
				BaseVolume: el.Audio.BaseVolume,
				Loop:       el.Audio.Loop,
			})
		}
	}
	return clips
}
