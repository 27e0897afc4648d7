// Package automation implements the Automation Manager: a
// last-wins effective-volume query over range and point markers.
package automation

import (
	"sort"

	"github.com/timelineaudio/engine/internal/model"
)

// Manager owns the scene's automation states and markers.
type Manager struct {
	states  map[model.StateID]model.AutomationState
	markers []model.AutomationMarker
}

// NewManager creates a Manager over the given states and markers.
func NewManager(states []model.AutomationState, markers []model.AutomationMarker) *Manager {
	m := &Manager{}
	m.SetScene(states, markers)
	return m
}

// SetScene replaces the manager's states and markers wholesale.
func (m *Manager) SetScene(states []model.AutomationState, markers []model.AutomationMarker) {
	stateMap := make(map[model.StateID]model.AutomationState, len(states))
	for _, s := range states {
		stateMap[s.ID] = s
	}
	m.states = stateMap
	m.markers = markers
}

// EffectiveVolume computes the running volume for (trackID, elementID) at
// time t, starting from baseVolume and applying every matching automation
// operation last-wins: point markers (deduplicated by state, keeping the
// most recent at or before t) apply first, then range markers, so an
// active range always takes precedence over a point value.
func (m *Manager) EffectiveVolume(trackID model.TrackID, elementID model.ElementID, t float64, elementActive func(model.ElementID, float64) bool, baseVolume float64) float64 {
	var rangeStates []model.AutomationState
	for _, mk := range m.markers {
		if mk.Kind != model.AutomationMarkerRange {
			continue
		}
		if mk.TrackID != trackID {
			continue
		}
		if mk.ElementID != elementID {
			continue
		}
		if elementActive != nil && !elementActive(elementID, t) {
			continue
		}
		if s, ok := m.states[mk.StateID]; ok {
			rangeStates = append(rangeStates, s)
		}
	}

	type pointHit struct {
		stateID model.StateID
		time    float64
	}
	latest := make(map[model.StateID]pointHit)
	for _, mk := range m.markers {
		if mk.Kind != model.AutomationMarkerPoint {
			continue
		}
		if mk.Time > t {
			continue
		}
		cur, seen := latest[mk.StateID]
		if !seen || mk.Time > cur.time {
			latest[mk.StateID] = pointHit{stateID: mk.StateID, time: mk.Time}
		}
	}
	pointStates := make([]pointHit, 0, len(latest))
	for _, h := range latest {
		pointStates = append(pointStates, h)
	}
	sort.Slice(pointStates, func(i, j int) bool { return pointStates[i].time < pointStates[j].time })

	// Concatenate point automation first, range automation last: range
	// markers take precedence under last-wins application.
	var ordered []model.AutomationState
	for _, h := range pointStates {
		if s, ok := m.states[h.stateID]; ok {
			ordered = append(ordered, s)
		}
	}
	ordered = append(ordered, rangeStates...)

	running := baseVolume
	for _, s := range ordered {
		for _, op := range s.Operations {
			if op.TrackID == trackID {
				running = op.Value
			}
		}
	}
	return running
}
