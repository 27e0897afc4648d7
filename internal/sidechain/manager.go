// Package sidechain implements the Sidechain Manager: per-
// config ducking envelopes, playback-ready lookup tables, and multiplicative
// gain queries for tracks and one-shot definitions.
package sidechain

import (
	"sync"

	"github.com/timelineaudio/engine/internal/envelope"
	"github.com/timelineaudio/engine/internal/model"
)

// SourceProvider resolves a SidechainSource into the timeline-anchored
// signal the envelope engine mixes down, and reports the live timeline
// duration the envelope must span. The editor wiring layer implements this
// over the active Scene plus the media decode cache.
type SourceProvider interface {
	TrackSources(trackID model.TrackID) []envelope.Source
	OneshotSources(defID model.DefinitionID) []envelope.Source
	TotalDuration() float64
}

// Manager owns the scene's sidechain configs and their derived envelopes.
type Manager struct {
	mu       sync.Mutex
	provider SourceProvider
	configs  map[model.ConfigID]model.SidechainConfig
	envCache map[model.ConfigID]*model.SidechainEnvelope

	trackLookup   map[model.TrackID][]*model.SidechainEnvelope
	oneshotLookup map[model.DefinitionID][]*model.SidechainEnvelope
}

// NewManager creates a Manager over the given configs, resolving source
// signals through provider.
func NewManager(configs []model.SidechainConfig, provider SourceProvider) *Manager {
	m := &Manager{provider: provider, envCache: make(map[model.ConfigID]*model.SidechainEnvelope)}
	m.SetScene(configs)
	return m
}

// SetScene replaces the manager's configs wholesale and clears every cached
// envelope -- a scene load or switch invalidates everything.
func (m *Manager) SetScene(configs []model.SidechainConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfgMap := make(map[model.ConfigID]model.SidechainConfig, len(configs))
	for _, c := range configs {
		cfgMap[c.ID] = c
	}
	m.configs = cfgMap
	m.envCache = make(map[model.ConfigID]*model.SidechainEnvelope)
	m.trackLookup = nil
	m.oneshotLookup = nil
}

// InvalidateConfig drops the cached envelope for one config, used when its
// params or source change.
func (m *Manager) InvalidateConfig(id model.ConfigID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.envCache, id)
}

// InvalidateAll drops every cached envelope, used on broader scene-content
// changes the manager can't attribute to a single config.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envCache = make(map[model.ConfigID]*model.SidechainEnvelope)
}

// UpsertConfig adds or replaces a config definition and invalidates its
// cached envelope.
func (m *Manager) UpsertConfig(c model.SidechainConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[c.ID] = c
	delete(m.envCache, c.ID)
}

func (m *Manager) envelopeFor(c model.SidechainConfig) *model.SidechainEnvelope {
	if env, ok := m.envCache[c.ID]; ok {
		return env
	}

	var sources []envelope.Source
	switch c.Source.Kind {
	case model.SidechainSourceTrack:
		sources = m.provider.TrackSources(c.Source.TrackID)
	case model.SidechainSourceOneshot:
		sources = m.provider.OneshotSources(c.Source.DefinitionID)
	}

	env := envelope.Compose(sources, m.provider.TotalDuration(), c.Params)
	m.envCache[c.ID] = env
	return env
}

// PrepareForPlayback builds the trackID/definitionID lookup tables used
// during playback, including only enabled configs with successfully
// computed envelopes.
func (m *Manager) PrepareForPlayback() {
	m.mu.Lock()
	defer m.mu.Unlock()

	trackLookup := make(map[model.TrackID][]*model.SidechainEnvelope)
	oneshotLookup := make(map[model.DefinitionID][]*model.SidechainEnvelope)

	for _, c := range m.configs {
		if !c.Enabled {
			continue
		}
		env := m.envelopeFor(c)
		if env == nil {
			continue
		}
		for trackID := range c.TargetTrackIDs {
			trackLookup[trackID] = append(trackLookup[trackID], env)
		}
		for defID := range c.TargetOneshotDefinitionIDs {
			oneshotLookup[defID] = append(oneshotLookup[defID], env)
		}
	}

	m.trackLookup = trackLookup
	m.oneshotLookup = oneshotLookup
}

// Teardown drops the playback lookup tables, returning to on-demand mode.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackLookup = nil
	m.oneshotLookup = nil
}

// GainForTrack multiplicatively combines every envelope targeting trackID
// at time t. A track with no targeting envelope gets gain 1.0; multiple
// configs targeting the same track multiply (duck stacking).
func (m *Manager) GainForTrack(trackID model.TrackID, t float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	gain := 1.0
	for _, env := range m.trackLookup[trackID] {
		gain *= env.LookupGain(t)
	}
	return gain
}

// GainForOneshot is the one-shot-definition analogue of GainForTrack.
func (m *Manager) GainForOneshot(defID model.DefinitionID, t float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	gain := 1.0
	for _, env := range m.oneshotLookup[defID] {
		gain *= env.LookupGain(t)
	}
	return gain
}
