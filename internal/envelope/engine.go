// Package envelope composes one or more timeline-anchored audio sources
// into a single SidechainEnvelope: a 200Hz gain curve produced by feeding
// a synthetic mono mixdown through an RMS window and a compressor curve.
package envelope

import (
	"math"

	"github.com/timelineaudio/engine/internal/dsp"
	"github.com/timelineaudio/engine/internal/model"
)

// Source is one timeline-anchored contributor to the envelope's input
// signal: a decoded mono buffer at its own native rate, placed on the
// timeline at StartTime, trimmed to [TrimStart, TrimStart+Duration) of its
// own source time, optionally looping for the remainder of the timeline.
type Source struct {
	Buffer    []float64
	Rate      int
	StartTime float64
	TrimStart float64
	Duration  float64
	Loop      bool
}

// Compose builds a SidechainEnvelope from sources observed against a
// timeline of the given total duration.
func Compose(sources []Source, timelineDuration float64, params model.SidechainParams) *model.SidechainEnvelope {
	envLen := int(math.Ceil(timelineDuration * model.EnvelopeSampleRate))
	if len(sources) == 0 {
		gains := make([]float64, envLen)
		for i := range gains {
			gains[i] = 1.0
		}
		return &model.SidechainEnvelope{GainValues: gains, Duration: timelineDuration}
	}

	targetRate := sources[0].Rate
	if targetRate <= 0 {
		targetRate = 48000
	}

	outputLen := int(math.Ceil(timelineDuration * float64(targetRate)))
	mixed := make([]float64, outputLen)

	for _, src := range sources {
		composeSource(mixed, src, targetRate)
	}

	rms := dsp.RMSEnvelope(mixed, targetRate, model.EnvelopeSampleRate)
	gains := dsp.CompressorCurve(rms, model.EnvelopeSampleRate, dsp.CompressorParams{
		ThresholdDB: params.ThresholdDB,
		Ratio:       params.Ratio,
		AttackSec:   params.AttackSec,
		ReleaseSec:  params.ReleaseSec,
		DepthDB:     params.DepthDB,
	})

	return &model.SidechainEnvelope{GainValues: gains, Duration: timelineDuration}
}

// composeSource mixes (sums) one source's contribution into the shared
// output buffer at the target rate.
func composeSource(mixed []float64, src Source, targetRate int) {
	rate := src.Rate
	if rate <= 0 {
		return
	}
	rho := float64(targetRate) / float64(rate) // resample ratio

	outputStart := int(math.Floor(src.StartTime * float64(targetRate)))
	if outputStart >= len(mixed) {
		return
	}

	sourceStartSample := int(math.Floor(src.TrimStart * float64(rate)))
	sourceLenSamples := int(math.Floor(src.Duration * float64(rate)))
	if sourceLenSamples <= 0 {
		return
	}

	resampledLoopLen := int(math.Floor(float64(sourceLenSamples) * rho))
	if resampledLoopLen <= 0 {
		return
	}

	var maxOutputSamples int
	if src.Loop {
		maxOutputSamples = len(mixed) - outputStart
	} else {
		maxOutputSamples = resampledLoopLen
	}
	if maxOutputSamples <= 0 {
		return
	}

	for i := 0; i < maxOutputSamples; i++ {
		outIdx := outputStart + i
		if outIdx < 0 || outIdx >= len(mixed) {
			continue
		}

		var srcOffset int
		if src.Loop {
			srcOffset = i % resampledLoopLen
		} else {
			srcOffset = i
		}

		srcIdx := sourceStartSample + int(math.Floor(float64(srcOffset)/rho))
		if srcIdx < 0 || srcIdx >= len(src.Buffer) {
			continue
		}
		mixed[outIdx] += src.Buffer[srcIdx]
	}
}
