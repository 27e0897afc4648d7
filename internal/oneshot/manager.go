// Package oneshot implements the One-Shot Manager: derived
// marker timing, a windowed query over triggered samples that runs cold
// (linear scan) before playback and hot (binary-search index) after
// prepareForPlayback, and a lazily-populated decoded-audio-buffer cache
// keyed by definition id.
package oneshot

import (
	"context"
	"sort"

	"github.com/timelineaudio/engine/internal/media"
	"github.com/timelineaudio/engine/internal/model"
)

// Hit is one row of a markersInWindow result: a marker, its definition,
// and the marker's derived audio timing.
type Hit struct {
	Marker        model.OneshotMarker
	Definition    model.OneshotDefinition
	AudioStart    float64
	AudioEnd      float64
}

// Manager owns the scene's one-shot definitions and markers and answers
// window queries against their derived timing.
type Manager struct {
	defs    map[model.DefinitionID]model.OneshotDefinition
	markers []model.OneshotMarker
	cache   *media.DecodeCache

	hot *hotIndex
}

// hotIndex is the sorted-by-audioStartTime structure built by
// PrepareForPlayback for the "hot" query mode.
type hotIndex struct {
	entries []hotEntry
	defs    map[model.DefinitionID]model.OneshotDefinition
}

type hotEntry struct {
	marker     model.OneshotMarker
	defID      model.DefinitionID
	audioStart float64
	audioEnd   float64
}

// NewManager creates a Manager over the given definitions and markers,
// decoding through cache on demand.
func NewManager(defs []model.OneshotDefinition, markers []model.OneshotMarker, cache *media.DecodeCache) *Manager {
	defMap := make(map[model.DefinitionID]model.OneshotDefinition, len(defs))
	for _, d := range defs {
		defMap[d.ID] = d
	}
	return &Manager{defs: defMap, markers: markers, cache: cache}
}

// SetScene replaces the manager's definitions and markers wholesale (a
// scene switch or load), invalidating any hot index.
func (m *Manager) SetScene(defs []model.OneshotDefinition, markers []model.OneshotMarker) {
	defMap := make(map[model.DefinitionID]model.OneshotDefinition, len(defs))
	for _, d := range defs {
		defMap[d.ID] = d
	}
	m.defs = defMap
	m.markers = markers
	m.hot = nil
}

// DefinitionByID returns the one-shot definition with the given id.
func (m *Manager) DefinitionByID(id model.DefinitionID) (model.OneshotDefinition, bool) {
	d, ok := m.defs[id]
	return d, ok
}

// PrepareForPlayback builds the hot, binary-searchable index: entries
// sorted by audioStartTime, each carrying its resolved definition.
func (m *Manager) PrepareForPlayback() {
	entries := make([]hotEntry, 0, len(m.markers))
	for _, mk := range m.markers {
		d, ok := m.defs[mk.OneshotID]
		if !ok {
			continue
		}
		entries = append(entries, hotEntry{
			marker:     mk,
			defID:      d.ID,
			audioStart: model.AudioStartTime(mk, d),
			audioEnd:   model.AudioEndTime(mk, d),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].audioStart < entries[j].audioStart })

	defsCopy := make(map[model.DefinitionID]model.OneshotDefinition, len(m.defs))
	for k, v := range m.defs {
		defsCopy[k] = v
	}
	m.hot = &hotIndex{entries: entries, defs: defsCopy}
}

// Teardown drops the hot index, returning the manager to cold-query mode.
func (m *Manager) Teardown() {
	m.hot = nil
}

// MarkersInWindow returns every marker whose derived [audioStart, audioEnd]
// interval overlaps [start, end], using the hot index when available and
// falling back to a cold O(N) scan otherwise. Both modes must return the
// same set.
func (m *Manager) MarkersInWindow(start, end float64) []Hit {
	if m.hot != nil {
		return m.hot.query(start, end)
	}
	return m.coldQuery(start, end)
}

func (m *Manager) coldQuery(start, end float64) []Hit {
	var out []Hit
	for _, mk := range m.markers {
		d, ok := m.defs[mk.OneshotID]
		if !ok {
			continue
		}
		as := model.AudioStartTime(mk, d)
		ae := model.AudioEndTime(mk, d)
		if ae > start && as < end {
			out = append(out, Hit{Marker: mk, Definition: d, AudioStart: as, AudioEnd: ae})
		}
	}
	return out
}

// query implements hot lookup: lower-bound binary search on
// audioStart >= start, then scan every earlier entry for an audioEnd that
// still overlaps start (entries are sorted by start, not end, so a long
// earlier entry can outlast a shorter later one), and forwards until
// audioStart >= end.
func (h *hotIndex) query(start, end float64) []Hit {
	n := len(h.entries)
	lo := sort.Search(n, func(i int) bool { return h.entries[i].audioStart >= start })

	var out []Hit
	emit := func(e hotEntry) {
		if e.audioEnd <= start {
			return
		}
		d := h.defs[e.defID]
		out = append(out, Hit{Marker: e.marker, Definition: d, AudioStart: e.audioStart, AudioEnd: e.audioEnd})
	}

	for i := lo - 1; i >= 0; i-- {
		if h.entries[i].audioEnd <= start {
			continue
		}
		emit(h.entries[i])
	}
	for i := lo; i < n && h.entries[i].audioStart < end; i++ {
		emit(h.entries[i])
	}
	return out
}

// Buffer returns the decoded audio buffer for a definition, decoding
// lazily on first access and caching by definition id thereafter. Failures
// are logged by the underlying cache and yield ok=false -- no error is
// thrown.
func (m *Manager) Buffer(ctx context.Context, d model.OneshotDefinition) (*media.Buffer, bool) {
	key := d.ID.String()
	switch d.AudioSource.Kind {
	case model.AudioSourceLibrary:
		return m.cache.GetByURL(ctx, key, d.AudioSource.LibraryURL)
	case model.AudioSourceUpload:
		return m.cache.GetByURL(ctx, key, d.AudioSource.AssetURL)
	default:
		return nil, false
	}
}
