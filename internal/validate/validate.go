// Package validate enforces the command-boundary invariants: an
// InvariantViolation is rejected before a Command ever mutates a scene.
// Struct-tag validation via go-playground/validator covers range checks;
// the handful of cross-field checks tags can't express (trim/cue
// ordering, positive durations, timeScale > 0) are hand-written below.
package validate

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/timelineaudio/engine/internal/model"
)

var v = validator.New()

// Struct runs go-playground/validator's struct-tag checks and wraps any
// failure as an InvariantViolation EngineError.
func Struct(op string, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return model.NewError(model.ErrInvariantViolation, op, err)
	}
	return nil
}

// OneshotDefinition checks the cue-point-within-trim-window invariant, since
// validator's field-to-field comparisons can't express a three-way ordering
// against two other fields directly.
func OneshotDefinition(op string, d model.OneshotDefinition) error {
	if d.TrimStart > d.CuePoint || d.CuePoint > d.TrimEnd {
		return model.NewError(model.ErrInvariantViolation, op,
			fmt.Errorf("cue point %.6f must lie within [trimStart %.6f, trimEnd %.6f]", d.CuePoint, d.TrimStart, d.TrimEnd))
	}
	if d.TrimStart < 0 {
		return model.NewError(model.ErrInvariantViolation, op, fmt.Errorf("trimStart must be >= 0"))
	}
	return nil
}

// Element checks the trim/duration invariants on a timeline element:
// 0 <= trimStart <= trimEnd <= sourceDuration; duration > 0.
func Element(op string, e model.Element, sourceDuration float64) error {
	if e.TrimStart < 0 || e.TrimStart > e.TrimEnd {
		return model.NewError(model.ErrInvariantViolation, op,
			fmt.Errorf("trimStart %.6f must be in [0, trimEnd %.6f]", e.TrimStart, e.TrimEnd))
	}
	if sourceDuration > 0 && e.TrimEnd > sourceDuration {
		return model.NewError(model.ErrInvariantViolation, op,
			fmt.Errorf("trimEnd %.6f exceeds source duration %.6f", e.TrimEnd, sourceDuration))
	}
	if e.Duration <= 0 {
		return model.NewError(model.ErrInvariantViolation, op, fmt.Errorf("duration must be > 0, got %.6f", e.Duration))
	}
	return nil
}

// OneshotMarkerVolume checks the optional volume override's range.
func OneshotMarkerVolume(op string, volume *float64) error {
	if volume == nil {
		return nil
	}
	if *volume < 0 || *volume > 1 {
		return model.NewError(model.ErrInvariantViolation, op, fmt.Errorf("volume %.6f must be in [0,1]", *volume))
	}
	return nil
}

// TimeScale checks the mixdown time-remap factor.
func TimeScale(op string, timeScale float64) error {
	if timeScale <= 0 {
		return model.NewError(model.ErrInvariantViolation, op, fmt.Errorf("timeScale must be > 0, got %.6f", timeScale))
	}
	return nil
}

// SidechainSelfTarget checks that a config's own id never appears in its
// own target sets.
func SidechainSelfTarget(op string, c model.SidechainConfig) error {
	if c.Source.Kind == model.SidechainSourceTrack {
		if _, ok := c.TargetTrackIDs[c.Source.TrackID]; ok {
			return model.NewError(model.ErrInvariantViolation, op, fmt.Errorf("sidechain config %s targets its own trigger track", c.ID))
		}
	}
	if c.Source.Kind == model.SidechainSourceOneshot {
		if _, ok := c.TargetOneshotDefinitionIDs[c.Source.DefinitionID]; ok {
			return model.NewError(model.ErrInvariantViolation, op, fmt.Errorf("sidechain config %s targets its own trigger definition", c.ID))
		}
	}
	return nil
}
