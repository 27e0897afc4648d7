// Package mixdown implements the offline time-remap export: a synthetic
// stereo PCM render of the active Scene at a requested time scale,
// honoring per-track stretch/pitch-preserve/loop/fixed remap behavior.
package mixdown

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/timelineaudio/engine/internal/dsp"
	"github.com/timelineaudio/engine/internal/media"
	"github.com/timelineaudio/engine/internal/model"
)

// MediaResolver decodes the audio backing a MediaAsset. Returns ok=false on
// decode failure, which the renderer treats as "skip this element" rather
// than aborting the export.
type MediaResolver interface {
	Decode(ctx context.Context, assetID model.MediaID) (*media.Buffer, bool)
}

// ProgressFunc is called with export progress in [0,1]. Calls are
// throttled by the renderer so a caller driving a UI progress bar isn't
// flooded.
type ProgressFunc func(fraction float64)

// Render produces the stereo interleaved PCM export of scene under cfg at
// outRate (Hz). Cancellation is polled between elements, the renderer's
// chunk boundary.
func Render(ctx context.Context, scene *model.Scene, cfg model.TimeRemapConfig, outRate int, resolver MediaResolver, onProgress ProgressFunc) ([]float64, error) {
	if outRate <= 0 {
		outRate = 44100
	}
	timeScale := cfg.TimeScale
	if timeScale <= 0 {
		timeScale = 1
	}

	origDur := scene.TotalDuration()
	newDur := origDur / timeScale
	outFrames := int(math.Ceil(newDur * float64(outRate)))
	out := make([]float64, outFrames*2)

	limiter := rate.NewLimiter(rate.Limit(20), 1) // at most 20 progress callbacks/sec

	totalElements := countAudioElements(scene) + len(scene.OneshotMarkers)
	if totalElements == 0 {
		totalElements = 1
	}
	done := 0

	reportProgress := func() {
		done++
		if onProgress == nil {
			return
		}
		if !limiter.Allow() && done < totalElements {
			return
		}
		onProgress(float64(done) / float64(totalElements))
	}

	for _, tr := range scene.Tracks {
		if tr.Hidden {
			continue
		}
		behavior := cfg.BehaviorFor(tr.ID)
		for _, el := range tr.Elements {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if el.Kind != model.ElementAudio || el.Audio == nil {
				continue
			}
			buf, ok := resolver.Decode(ctx, el.Audio.MediaID)
			if !ok {
				reportProgress()
				continue
			}
			renderElement(out, outFrames, outRate, el, buf, behavior, timeScale)
			reportProgress()
		}
	}

	for _, mk := range scene.OneshotMarkers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		def, ok := findDefinition(scene, mk.OneshotID)
		if !ok {
			reportProgress()
			continue
		}
		buf, ok := resolver.Decode(ctx, model.MediaID(def.ID))
		if !ok {
			reportProgress()
			continue
		}
		renderMarker(out, outFrames, outRate, mk, def, buf, cfg, timeScale)
		reportProgress()
	}

	if onProgress != nil {
		onProgress(1.0)
	}
	return out, nil
}

func countAudioElements(scene *model.Scene) int {
	n := 0
	for _, tr := range scene.Tracks {
		for _, el := range tr.Elements {
			if el.Kind == model.ElementAudio {
				n++
			}
		}
	}
	return n
}

func findDefinition(scene *model.Scene, id model.DefinitionID) (model.OneshotDefinition, bool) {
	for _, d := range scene.OneshotDefinitions {
		if d.ID == id {
			return d, true
		}
	}
	return model.OneshotDefinition{}, false
}

// renderElement dispatches to one of the four remap paths for a single
// timeline audio element.
func renderElement(out []float64, outFrames, outRate int, el model.Element, buf *media.Buffer, behavior model.TrackRemapBehavior, timeScale float64) {
	gain := el.Audio.BaseVolume
	outputStart := int(math.Floor((el.StartTime / timeScale) * float64(outRate)))
	if outputStart >= outFrames {
		return
	}
	outElementFrames := int(math.Ceil((el.Duration / timeScale) * float64(outRate)))

	switch behavior {
	case model.RemapStretch:
		renderStretch(out, outFrames, outputStart, outElementFrames, buf, el.TrimStart, timeScale, gain)
	case model.RemapPitchPreserve:
		renderPitchPreserve(out, outFrames, outRate, outputStart, outElementFrames, buf, el, timeScale, gain)
	case model.RemapLoop:
		renderLoop(out, outFrames, outRate, outputStart, buf, gain)
	case model.RemapFixed:
		renderFixed(out, outFrames, outRate, outputStart, buf, gain)
	}
}

// renderStretch: output index i -> sourcePos = i*playbackRate; sourceIdx =
// trimStart*rate + floor(sourcePos); accumulate.
func renderStretch(out []float64, outFrames, outputStart, elementFrames int, buf *media.Buffer, trimStart, playbackRate, gain float64) {
	srcFrames := len(buf.Samples) / buf.Channels
	trimStartSample := trimStart * float64(buf.Rate)
	for i := 0; i < elementFrames; i++ {
		outIdx := outputStart + i
		if outIdx >= outFrames {
			break
		}
		sourcePos := float64(i) * playbackRate
		sourceIdx := int(trimStartSample + math.Floor(sourcePos))
		if sourceIdx < 0 || sourceIdx >= srcFrames {
			continue
		}
		l, r := stereoFrame(buf, sourceIdx)
		out[outIdx*2] += l * gain
		out[outIdx*2+1] += r * gain
	}
}

// renderPitchPreserve: WSOLA-stretch a source slice so it plays back at
// playbackRate without shifting pitch.
func renderPitchPreserve(out []float64, outFrames, outRate, outputStart, elementFrames int, buf *media.Buffer, el model.Element, playbackRate, gain float64) {
	trimStartSample := int(el.TrimStart * float64(buf.Rate))
	sliceDurationSamples := int(el.Duration * playbackRate * float64(buf.Rate))
	srcFrames := len(buf.Samples) / buf.Channels
	end := trimStartSample + sliceDurationSamples
	if end > srcFrames {
		end = srcFrames
	}
	if trimStartSample >= end {
		return
	}

	slice := interleavedSlice(buf, trimStartSample, end)
	resampled := dsp.Resample(slice, buf.Channels, buf.Rate, outRate)
	stretched := dsp.TimeStretch(resampled, buf.Channels, playbackRate)

	frames := len(stretched) / max(buf.Channels, 1)
	for i := 0; i < frames && i < elementFrames; i++ {
		outIdx := outputStart + i
		if outIdx >= outFrames {
			break
		}
		l, r := stereoFromInterleaved(stretched, buf.Channels, i)
		out[outIdx*2] += l * gain
		out[outIdx*2+1] += r * gain
	}
}

// renderLoop resamples the whole source to outRate and tiles it across the
// remaining output.
func renderLoop(out []float64, outFrames, outRate, outputStart int, buf *media.Buffer, gain float64) {
	resampled := dsp.Resample(buf.Samples, buf.Channels, buf.Rate, outRate)
	loopFrames := len(resampled) / max(buf.Channels, 1)
	if loopFrames == 0 {
		return
	}
	samplesToFill := outFrames - outputStart
	for i := 0; i < samplesToFill; i++ {
		outIdx := outputStart + i
		if outIdx >= outFrames {
			break
		}
		srcIdx := i % loopFrames
		l, r := stereoFromInterleaved(resampled, buf.Channels, srcIdx)
		out[outIdx*2] += l * gain
		out[outIdx*2+1] += r * gain
	}
}

// renderFixed resamples the whole source to outRate and writes it once,
// with no wrap.
func renderFixed(out []float64, outFrames, outRate, outputStart int, buf *media.Buffer, gain float64) {
	resampled := dsp.Resample(buf.Samples, buf.Channels, buf.Rate, outRate)
	frames := len(resampled) / max(buf.Channels, 1)
	for i := 0; i < frames; i++ {
		outIdx := outputStart + i
		if outIdx >= outFrames {
			break
		}
		l, r := stereoFromInterleaved(resampled, buf.Channels, i)
		out[outIdx*2] += l * gain
		out[outIdx*2+1] += r * gain
	}
}

// renderMarker places one one-shot trigger into the export, following the
// config's independently-selectable trigger/playback remap behavior.
func renderMarker(out []float64, outFrames, outRate int, mk model.OneshotMarker, def model.OneshotDefinition, buf *media.Buffer, cfg model.TimeRemapConfig, timeScale float64) {
	audioStart := model.AudioStartTime(mk, def)

	triggerTime := audioStart
	if cfg.MarkerTriggerBehavior == model.MarkerRemapStretch {
		triggerTime = audioStart / timeScale
	}

	playbackRate := 1.0
	if cfg.MarkerPlaybackBehavior == model.MarkerRemapStretch {
		playbackRate = timeScale
	}

	outputStart := int(math.Floor(triggerTime * float64(outRate)))
	if outputStart >= outFrames || outputStart < 0 {
		return
	}

	trimStartSample := int(def.TrimStart * float64(buf.Rate))
	trimEndSample := int(def.TrimEnd * float64(buf.Rate))
	srcFrames := len(buf.Samples) / buf.Channels
	if trimEndSample > srcFrames {
		trimEndSample = srcFrames
	}
	if trimStartSample >= trimEndSample {
		return
	}
	slice := interleavedSlice(buf, trimStartSample, trimEndSample)
	resampled := dsp.Resample(slice, buf.Channels, buf.Rate, outRate)

	gain := mk.EffectiveVolume()
	if playbackRate == 1 {
		renderFixedSlice(out, outFrames, outputStart, resampled, buf.Channels, gain)
		return
	}
	stretched := dsp.TimeStretch(resampled, buf.Channels, playbackRate)
	renderFixedSlice(out, outFrames, outputStart, stretched, buf.Channels, gain)
}

func renderFixedSlice(out []float64, outFrames, outputStart int, slice []float64, channels int, gain float64) {
	frames := len(slice) / max(channels, 1)
	for i := 0; i < frames; i++ {
		outIdx := outputStart + i
		if outIdx >= outFrames {
			break
		}
		l, r := stereoFromInterleaved(slice, channels, i)
		out[outIdx*2] += l * gain
		out[outIdx*2+1] += r * gain
	}
}

func interleavedSlice(buf *media.Buffer, startFrame, endFrame int) []float64 {
	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > len(buf.Samples)/max(buf.Channels, 1) {
		endFrame = len(buf.Samples) / max(buf.Channels, 1)
	}
	return buf.Samples[startFrame*buf.Channels : endFrame*buf.Channels]
}

func stereoFrame(buf *media.Buffer, frameIdx int) (l, r float64) {
	return stereoFromInterleaved(buf.Samples, buf.Channels, frameIdx)
}

func stereoFromInterleaved(samples []float64, channels, frameIdx int) (l, r float64) {
	base := frameIdx * channels
	if base >= len(samples) {
		return 0, 0
	}
	l = samples[base]
	if channels > 1 && base+1 < len(samples) {
		r = samples[base+1]
	} else {
		r = l
	}
	return l, r
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
