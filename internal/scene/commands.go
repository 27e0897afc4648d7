package scene

import (
	"github.com/timelineaudio/engine/internal/model"
	"github.com/timelineaudio/engine/internal/validate"
)

// UpdateElementCommand replaces one element's fields on a track.
type UpdateElementCommand struct {
	SceneID   model.SceneID
	TrackID   model.TrackID
	ElementID model.ElementID
	Apply     func(*model.Element)
}

// Execute applies the mutation and validates the result, rejecting at the
// command boundary without mutating the scene on invariant violation.
func (c UpdateElementCommand) Execute(m *Manager) error {
	sc, ok := m.SceneByID(c.SceneID)
	if !ok {
		return model.NewError(model.ErrNotFound, "scene.UpdateElementCommand", nil)
	}
	tr, ok := sc.TrackByID(c.TrackID)
	if !ok {
		return model.NewError(model.ErrNotFound, "scene.UpdateElementCommand", nil)
	}
	var target *model.Element
	for i := range tr.Elements {
		if tr.Elements[i].ID == c.ElementID {
			target = &tr.Elements[i]
			break
		}
	}
	if target == nil {
		return model.NewError(model.ErrNotFound, "scene.UpdateElementCommand", nil)
	}

	candidate := *target
	if target.Audio != nil {
		audio := *target.Audio
		candidate.Audio = &audio
	}
	c.Apply(&candidate)
	if err := validate.Element("scene.UpdateElementCommand", candidate, 0); err != nil {
		return err
	}
	*target = candidate

	m.replaceScene(sc)
	return nil
}

// AddOneshotMarkerCommand appends a new marker to a scene, validating its
// derived alignment against the referenced definition.
type AddOneshotMarkerCommand struct {
	SceneID model.SceneID
	Marker  model.OneshotMarker
}

func (c AddOneshotMarkerCommand) Execute(m *Manager) error {
	sc, ok := m.SceneByID(c.SceneID)
	if !ok {
		return model.NewError(model.ErrNotFound, "scene.AddOneshotMarkerCommand", nil)
	}
	var def model.OneshotDefinition
	found := false
	for _, d := range sc.OneshotDefinitions {
		if d.ID == c.Marker.OneshotID {
			def = d
			found = true
			break
		}
	}
	if !found {
		return model.NewError(model.ErrNotFound, "scene.AddOneshotMarkerCommand", nil)
	}
	if err := validate.OneshotDefinition("scene.AddOneshotMarkerCommand", def); err != nil {
		return err
	}
	if err := validate.OneshotMarkerVolume("scene.AddOneshotMarkerCommand", c.Marker.Volume); err != nil {
		return err
	}

	sc.OneshotMarkers = append(append([]model.OneshotMarker{}, sc.OneshotMarkers...), c.Marker)
	m.replaceScene(sc)
	return nil
}

// UpsertSidechainConfigCommand adds or replaces a sidechain config,
// rejecting self-targeting configs at the boundary.
type UpsertSidechainConfigCommand struct {
	SceneID model.SceneID
	Config  model.SidechainConfig
}

func (c UpsertSidechainConfigCommand) Execute(m *Manager) error {
	sc, ok := m.SceneByID(c.SceneID)
	if !ok {
		return model.NewError(model.ErrNotFound, "scene.UpsertSidechainConfigCommand", nil)
	}
	if err := validate.SidechainSelfTarget("scene.UpsertSidechainConfigCommand", c.Config); err != nil {
		return err
	}
	if err := validate.Struct("scene.UpsertSidechainConfigCommand", c.Config.Params); err != nil {
		return err
	}

	replaced := false
	configs := append([]model.SidechainConfig{}, sc.SidechainConfigs...)
	for i := range configs {
		if configs[i].ID == c.Config.ID {
			configs[i] = c.Config
			replaced = true
			break
		}
	}
	if !replaced {
		configs = append(configs, c.Config)
	}
	sc.SidechainConfigs = configs

	m.replaceScene(sc)
	return nil
}

// DeleteOneshotDefinitionCommand removes a definition and every marker
// that referenced it.
type DeleteOneshotDefinitionCommand struct {
	SceneID      model.SceneID
	DefinitionID model.DefinitionID
}

func (c DeleteOneshotDefinitionCommand) Execute(m *Manager) error {
	sc, ok := m.SceneByID(c.SceneID)
	if !ok {
		return model.NewError(model.ErrNotFound, "scene.DeleteOneshotDefinitionCommand", nil)
	}
	defs := make([]model.OneshotDefinition, 0, len(sc.OneshotDefinitions))
	found := false
	for _, d := range sc.OneshotDefinitions {
		if d.ID == c.DefinitionID {
			found = true
			continue
		}
		defs = append(defs, d)
	}
	if !found {
		return model.NewError(model.ErrNotFound, "scene.DeleteOneshotDefinitionCommand", nil)
	}
	markers := make([]model.OneshotMarker, 0, len(sc.OneshotMarkers))
	for _, mk := range sc.OneshotMarkers {
		if mk.OneshotID == c.DefinitionID {
			continue
		}
		markers = append(markers, mk)
	}
	sc.OneshotDefinitions = defs
	sc.OneshotMarkers = markers

	m.replaceScene(sc)
	return nil
}
