package dsp

import "math"

// CompressorParams mirrors model.SidechainParams without importing the
// model package, keeping dsp free of any scene-model dependency.
type CompressorParams struct {
	ThresholdDB float64
	Ratio       float64
	AttackSec   float64
	ReleaseSec  float64
	DepthDB     float64 // negative = max reduction, e.g. -24
}

// negInf stands in for -Infinity dB so comparisons against ThresholdDB
// behave correctly for a silent (zero) RMS sample.
var negInf = math.Inf(-1)

// iirCoeff returns the single-pole smoothing coefficient for time constant
// tau (seconds) at the given sample rate: exp(-1/(tau*rate)).
func iirCoeff(tauSec float64, rate int) float64 {
	if tauSec <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (tauSec * float64(rate)))
}

// CompressorCurve turns an RMS envelope (linear magnitude) into a linear
// gain envelope implementing feed-forward compression with single-pole
// attack/release smoothing of the gain-reduction target.
func CompressorCurve(rms []float64, envelopeRate int, p CompressorParams) []float64 {
	out := make([]float64, len(rms))
	attackCoeff := iirCoeff(p.AttackSec, envelopeRate)
	releaseCoeff := iirCoeff(p.ReleaseSec, envelopeRate)
	maxReduction := math.Abs(p.DepthDB)

	var smoothed float64
	for i, r := range rms {
		var rDb float64
		if r <= 0 {
			rDb = negInf
		} else {
			rDb = 20 * math.Log10(r)
		}

		var target float64
		if rDb > p.ThresholdDB {
			target = clamp((rDb-p.ThresholdDB)*(1-1/p.Ratio), 0, maxReduction)
		}

		coeff := releaseCoeff
		if target > smoothed {
			coeff = attackCoeff
		}
		smoothed = coeff*smoothed + (1-coeff)*target

		out[i] = math.Pow(10, -smoothed/20)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
