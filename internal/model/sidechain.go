package model

import "time"

// EnvelopeSampleRate is the fixed rate, in Hz, at which every
// SidechainEnvelope is stored.
const EnvelopeSampleRate = 200

// SidechainParams controls the compressor curve applied to a source
// envelope.
type SidechainParams struct {
	ThresholdDB float64 `validate:"gte=-60,lte=0"`
	Ratio       float64 `validate:"gte=1,lte=20"`
	AttackSec   float64 `validate:"gte=0.001,lte=0.5"`
	ReleaseSec  float64 `validate:"gte=0.01,lte=2.0"`
	DepthDB     float64 `validate:"gte=-60,lte=0"` // negative = max reduction
}

// SidechainSourceKind tags the SidechainConfig.Source union.
type SidechainSourceKind int

const (
	SidechainSourceTrack SidechainSourceKind = iota
	SidechainSourceOneshot
)

// SidechainSource is a tagged union: either a track or a one-shot
// definition acts as the ducking trigger. Narrow on Kind.
type SidechainSource struct {
	Kind SidechainSourceKind

	TrackID      TrackID      // valid when Kind == SidechainSourceTrack
	DefinitionID DefinitionID // valid when Kind == SidechainSourceOneshot
}

// SidechainConfig describes one duck-on-trigger relationship.
//
// Invariant: the source's own id never appears in its own target sets.
type SidechainConfig struct {
	ID     ConfigID
	Name   string
	Source SidechainSource

	TargetTrackIDs            map[TrackID]struct{}
	TargetOneshotDefinitionIDs map[DefinitionID]struct{}

	Params  SidechainParams
	Enabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TargetsTrack reports whether id is one of the config's track targets.
func (c *SidechainConfig) TargetsTrack(id TrackID) bool {
	_, ok := c.TargetTrackIDs[id]
	return ok
}

// TargetsOneshot reports whether id is one of the config's one-shot
// definition targets.
func (c *SidechainConfig) TargetsOneshot(id DefinitionID) bool {
	_, ok := c.TargetOneshotDefinitionIDs[id]
	return ok
}

// SidechainEnvelope is a derived, cached gain envelope sampled at
// EnvelopeSampleRate.
type SidechainEnvelope struct {
	GainValues []float64 // linear gain in [0,1]
	Duration   float64   // seconds
}

// LookupGain returns the interpolated linear gain at timeline time t.
// Outside [0, Duration) the envelope has no opinion and the caller should
// treat the signal as unducked (gain 1).
func (e *SidechainEnvelope) LookupGain(t float64) float64 {
	if e == nil || len(e.GainValues) == 0 {
		return 1.0
	}
	if t < 0 || t >= e.Duration {
		return 1.0
	}
	exact := t * EnvelopeSampleRate
	i := int(exact)
	if i >= len(e.GainValues)-1 {
		return e.GainValues[len(e.GainValues)-1]
	}
	frac := exact - float64(i)
	return e.GainValues[i]*(1-frac) + e.GainValues[i+1]*frac
}
