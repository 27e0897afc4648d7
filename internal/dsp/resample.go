package dsp

// Resample linearly interpolates an interleaved multi-channel signal from
// srcRate to dstRate. Used by the offline mixdown's loop/fixed remap paths,
// which need a source buffer re-timed to the export's output rate before
// they tile or truncate it.
func Resample(interleaved []float64, channels, srcRate, dstRate int) []float64 {
	if channels <= 0 {
		channels = 1
	}
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}
	inFrames := len(interleaved) / channels
	if inFrames == 0 {
		return nil
	}
	ratio := float64(srcRate) / float64(dstRate)
	outFrames := int(float64(inFrames) / ratio)
	out := make([]float64, outFrames*channels)
	for i := 0; i < outFrames; i++ {
		srcPos := float64(i) * ratio
		i0 := int(srcPos)
		frac := srcPos - float64(i0)
		i1 := i0 + 1
		if i1 >= inFrames {
			i1 = inFrames - 1
		}
		if i0 >= inFrames {
			i0 = inFrames - 1
		}
		for c := 0; c < channels; c++ {
			a := interleaved[i0*channels+c]
			b := interleaved[i1*channels+c]
			out[i*channels+c] = a*(1-frac) + b*frac
		}
	}
	return out
}
