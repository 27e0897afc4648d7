package scheduler

import (
	"math"

	"github.com/timelineaudio/engine/internal/media"
	"github.com/timelineaudio/engine/internal/model"
)

// Clip is one scheduled-per-play-session audio clip, collected from the
// timeline at play start.
type Clip struct {
	ElementID  model.ElementID
	TrackID    model.TrackID
	MediaID    model.MediaID
	StartTime  float64
	Duration   float64
	TrimStart  float64
	TrimEnd    float64
	BaseVolume float64
	Loop       bool
	Muted      bool
}

// EffectiveEnd is the timeline time at which the clip's iteration must
// stop: the timeline's total duration when looping, otherwise
// startTime+duration.
func (c Clip) EffectiveEnd(timelineTotalDuration float64) float64 {
	if c.Loop {
		return timelineTotalDuration
	}
	return c.StartTime + c.Duration
}

// loopCycleDuration is the source-time span that repeats on each loop
// iteration: the trimmed slice, not the element's full timeline duration.
func (c Clip) loopCycleDuration() float64 { return c.TrimEnd - c.TrimStart }

// clipIterator walks a clip's source sink, producing successive PCM chunks
// mapped onto timeline time.
type clipIterator struct {
	clip       Clip
	sink       *media.Sink
	effectiveEnd float64

	iterStart float64 // timeline time the next chunk continues from
	done      bool
}

func newClipIterator(clip Clip, sink *media.Sink, startAt, timelineTotalDuration float64) *clipIterator {
	return &clipIterator{
		clip:         clip,
		sink:         sink,
		effectiveEnd: clip.EffectiveEnd(timelineTotalDuration),
		iterStart:    startAt,
	}
}

// chunkResult is one produced PCM chunk plus its timeline placement.
type chunkResult struct {
	samples      []float64
	rate         int
	channels     int
	sourceOffset float64 // in-source-time offset of this chunk's first sample
	timelineTime float64 // timeline time the chunk's first sample lands at
}

// next advances the iterator by one chunk, applying the loop-iteration
// and timeline-time-mapping formulas. ok=false once the iterator is done
// or the sink is empty/disposed.
func (it *clipIterator) next() (chunkResult, bool) {
	if it.done || it.sink == nil || it.sink.Disposed() {
		it.done = true
		return chunkResult{}, false
	}
	if it.iterStart >= it.effectiveEnd {
		it.done = true
		return chunkResult{}, false
	}

	cycle := it.clip.loopCycleDuration()
	var loopIteration float64
	var positionInLoop float64
	if it.clip.Loop && cycle > 0 {
		loopIteration = math.Floor((it.iterStart - it.clip.StartTime) / cycle)
		positionInLoop = math.Mod(it.iterStart-it.clip.StartTime, cycle)
		if positionInLoop < 0 {
			positionInLoop += cycle
		}
	} else {
		loopIteration = 0
		positionInLoop = it.iterStart - it.clip.StartTime
	}
	sourceOffset := it.clip.TrimStart + positionInLoop

	samples, timestamp, ok := it.sink.ReadChunk(sourceOffset)
	if !ok {
		it.done = true
		return chunkResult{}, false
	}

	timelineTime := it.clip.StartTime + loopIteration*cycle + (timestamp - it.clip.TrimStart)
	if timelineTime >= it.effectiveEnd {
		it.done = true
		return chunkResult{}, false
	}

	chunkDuration := float64(len(samples)/it.sink.Channels()) / float64(it.sink.Rate())
	it.iterStart += chunkDuration
	if it.clip.Loop && chunkDuration == 0 {
		// A zero-length chunk would spin forever; treat as exhausted.
		it.done = true
	}

	return chunkResult{
		samples:      samples,
		rate:         it.sink.Rate(),
		channels:     it.sink.Channels(),
		sourceOffset: sourceOffset,
		timelineTime: timelineTime,
	}, true
}
