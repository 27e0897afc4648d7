package dsp

import "math"

// WSOLA parameters: standard values for 44.1-48kHz material: ~43-46ms
// frames, 50% overlap, a +-256 sample search window for grain alignment.
const (
	wsolaFrameSize     = 2048
	wsolaSynthesisHop  = wsolaFrameSize / 2
	wsolaSearchRadius  = 256
)

// hannWindow returns a precomputed Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// TimeStretch resamples an interleaved multi-channel signal by tempo factor
// tempo using WSOLA (Waveform Similarity Overlap-Add), preserving pitch.
// Output length is approximately len(input)/channels/tempo frames. At
// tempo == 1 the input is returned unchanged, a bit-exact bypass.
func TimeStretch(interleaved []float64, channels int, tempo float64) []float64 {
	if channels <= 0 {
		channels = 1
	}
	if tempo <= 0 {
		tempo = 1
	}
	inFrames := len(interleaved) / channels
	if tempo == 1 || inFrames == 0 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	outFrames := int(math.Ceil(float64(inFrames) / tempo))
	out := make([]float64, outFrames*channels)
	window := hannWindow(wsolaFrameSize)

	// read extracts a Hann-windowed grain of wsolaFrameSize frames starting
	// at input frame `start` (may be negative or run past the end; missing
	// samples are treated as silence).
	read := func(start int) []float64 {
		grain := make([]float64, wsolaFrameSize*channels)
		for i := 0; i < wsolaFrameSize; i++ {
			srcFrame := start + i
			if srcFrame < 0 || srcFrame >= inFrames {
				continue
			}
			w := window[i]
			for c := 0; c < channels; c++ {
				grain[i*channels+c] = interleaved[srcFrame*channels+c] * w
			}
		}
		return grain
	}

	// crossCorr scores how well a candidate grain's first overlapLen frames
	// match the tail already written into out at [synthPos, synthPos+overlapLen).
	crossCorr := func(candidate []float64, synthPos, overlapLen int) float64 {
		var score float64
		for i := 0; i < overlapLen; i++ {
			outFrame := synthPos + i
			if outFrame < 0 || outFrame >= outFrames {
				continue
			}
			for c := 0; c < channels; c++ {
				score += candidate[i*channels+c] * out[outFrame*channels+c]
			}
		}
		return score
	}

	synthPos := 0
	analysisPos := 0.0
	overlapLen := wsolaFrameSize - wsolaSynthesisHop

	for synthPos < outFrames {
		ideal := int(math.Round(analysisPos))

		bestPos := ideal
		if synthPos > 0 {
			bestScore := math.Inf(-1)
			lo := ideal - wsolaSearchRadius
			hi := ideal + wsolaSearchRadius
			for cand := lo; cand <= hi; cand++ {
				g := read(cand)
				score := crossCorr(g, synthPos, overlapLen)
				if score > bestScore {
					bestScore = score
					bestPos = cand
				}
			}
		}

		grain := read(bestPos)
		for i := 0; i < wsolaFrameSize; i++ {
			outFrame := synthPos + i
			if outFrame < 0 || outFrame >= outFrames {
				continue
			}
			for c := 0; c < channels; c++ {
				out[outFrame*channels+c] += grain[i*channels+c]
			}
		}

		synthPos += wsolaSynthesisHop
		analysisPos = float64(bestPos) + float64(wsolaSynthesisHop)*tempo
	}

	return out
}
