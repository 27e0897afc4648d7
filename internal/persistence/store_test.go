package persistence

import (
	"testing"

	"github.com/timelineaudio/engine/internal/logging"
	"github.com/timelineaudio/engine/internal/model"
)

func fixtureStoreScene() model.Scene {
	trackID := model.NewTrackID()
	return model.Scene{
		ID: model.NewSceneID(),
		Tracks: []model.Track{
			{
				ID:   trackID,
				Kind: model.TrackAudio,
				Name: "music",
				Elements: []model.Element{
					{
						ID:        model.NewElementID(),
						Kind:      model.ElementAudio,
						StartTime: 0,
						Duration:  4,
						TrimStart: 0,
						TrimEnd:   4,
						Audio:     &model.AudioElementData{BaseVolume: 0.7},
					},
				},
			},
		},
		OneshotDefinitions: []model.OneshotDefinition{
			{ID: model.NewDefinitionID(), Name: "boom", TrimStart: 0, TrimEnd: 1, CuePoint: 0.2},
		},
		Keybindings: map[string]string{"play-pause": "space"},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := Open("", logging.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	scene := fixtureStoreScene()
	if err := store.Save(scene); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, migrated, err := store.Load(scene.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if migrated {
		t.Error("a scene saved at CurrentVersion must not report migrated on load")
	}
	if got.ID != scene.ID {
		t.Errorf("id mismatch: got %v want %v", got.ID, scene.ID)
	}
	if len(got.Tracks) != 1 || len(got.Tracks[0].Elements) != 1 {
		t.Fatalf("expected 1 track with 1 element, got %+v", got.Tracks)
	}
	if got.Tracks[0].Elements[0].Audio == nil || got.Tracks[0].Elements[0].Audio.BaseVolume != 0.7 {
		t.Errorf("expected base volume 0.7 round-tripped, got %+v", got.Tracks[0].Elements[0].Audio)
	}
	if len(got.OneshotDefinitions) != 1 || got.OneshotDefinitions[0].Name != "boom" {
		t.Errorf("expected oneshot definition round-tripped, got %+v", got.OneshotDefinitions)
	}
	if got.Keybindings["play-pause"] != "space" {
		t.Errorf("expected keybinding round-tripped, got %+v", got.Keybindings)
	}
}

func TestLoadMissingSceneIsNotFound(t *testing.T) {
	store, err := Open("", logging.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	_, _, err = store.Load(model.NewSceneID())
	if !model.IsKind(err, model.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// TestLoadMigratesLegacyRow exercises the full chain through Store.Load:
// a v1 row (scalar sidechain source, partial keybindings) comes back at
// CurrentVersion with the reshaped union and the filled-in keybinding.
func TestLoadMigratesLegacyRow(t *testing.T) {
	store, err := Open("", logging.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	id := model.NewSceneID()
	configID := model.NewConfigID()
	trackID := model.NewTrackID()
	legacy := sceneRow{
		ID:                 id.String(),
		Version:            1,
		Tracks:             emptyArray(),
		MediaAssets:        emptyArray(),
		OneshotDefinitions: emptyArray(),
		OneshotMarkers:     emptyArray(),
		AutomationStates:   emptyArray(),
		AutomationMarkers:  emptyArray(),
		SidechainConfigs:   marshalJSON([]map[string]interface{}{{"ID": configID.String(), "sourceTrackId": trackID.String()}}),
		Keybindings:        marshalJSON(map[string]interface{}{"undo": "ctrl+z"}),
	}
	if err := store.db.Create(&legacy).Error; err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	got, migrated, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !migrated {
		t.Error("expected a v1 row to report migrated=true")
	}
	if got.Keybindings["play-pause"] != "space" {
		t.Errorf("expected default keybinding filled in, got %+v", got.Keybindings)
	}
	if got.Keybindings["undo"] != "ctrl+z" {
		t.Errorf("expected existing keybinding preserved, got %+v", got.Keybindings)
	}
	if len(got.SidechainConfigs) != 1 {
		t.Fatalf("expected 1 sidechain config, got %d", len(got.SidechainConfigs))
	}
	cfg := got.SidechainConfigs[0]
	if cfg.Source.Kind != model.SidechainSourceTrack {
		t.Errorf("expected reshaped source kind track, got %v", cfg.Source.Kind)
	}
}
