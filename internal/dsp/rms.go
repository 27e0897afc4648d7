package dsp

import "math"

// RMSWindowSeconds is the fixed analysis window for envelope extraction
// (10ms).
const RMSWindowSeconds = 0.01

// RMSEnvelope resamples a mono signal at sourceRate into an envelope of RMS
// magnitudes at envelopeRate. For each output index i it centers a window
// of width floor(RMSWindowSeconds*sourceRate) samples on
// floor(i*sourceRate/envelopeRate), clamped to the buffer, and takes the
// root-mean-square of the samples inside; a buffer shorter than the window
// just yields the RMS of the samples that remain after clamping. A window
// left empty after clamping (only possible when it is under two samples
// wide) yields 0.
func RMSEnvelope(mono []float64, sourceRate, envelopeRate int) []float64 {
	if sourceRate <= 0 || envelopeRate <= 0 || len(mono) == 0 {
		return nil
	}
	w := int(RMSWindowSeconds * float64(sourceRate))
	outLen := int(math.Ceil(float64(len(mono)) * float64(envelopeRate) / float64(sourceRate)))
	out := make([]float64, outLen)

	for i := 0; i < outLen; i++ {
		center := i * sourceRate / envelopeRate
		lo := center - w/2
		hi := center + w/2
		if lo < 0 {
			lo = 0
		}
		if hi > len(mono) {
			hi = len(mono)
		}
		if hi <= lo {
			out[i] = 0
			continue
		}
		var sumSq float64
		for s := lo; s < hi; s++ {
			sumSq += mono[s] * mono[s]
		}
		out[i] = math.Sqrt(sumSq / float64(hi-lo))
	}
	return out
}
