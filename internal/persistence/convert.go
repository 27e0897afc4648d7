package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/timelineaudio/engine/internal/model"
)

// rawState is the opaque in/out type migrators operate on: plain JSON
// values, no Go struct tags, so a migrator that reshapes one field (e.g.
// sidechain source from a scalar trackId to a tagged union) never needs
// knowledge of the rest of the document.
type rawState map[string]interface{}

func emptyArray() datatypes.JSON { return datatypes.JSON([]byte("[]")) }

func marshalJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return emptyArray()
	}
	return datatypes.JSON(b)
}

// sceneToRow marshals a Scene into its current-version row representation.
func sceneToRow(s model.Scene) sceneRow {
	keybindings := s.Keybindings
	if keybindings == nil {
		keybindings = map[string]string{}
	}
	return sceneRow{
		ID:                 s.ID.String(),
		Version:            CurrentVersion,
		Tracks:             marshalJSON(s.Tracks),
		MediaAssets:        marshalJSON(s.MediaAssets),
		OneshotDefinitions: marshalJSON(s.OneshotDefinitions),
		OneshotMarkers:     marshalJSON(s.OneshotMarkers),
		AutomationStates:   marshalJSON(s.AutomationStates),
		AutomationMarkers:  marshalJSON(s.AutomationMarkers),
		SidechainConfigs:   marshalJSON(s.SidechainConfigs),
		Keybindings:        marshalJSON(keybindings),
	}
}

// rowToRaw decodes a row's JSON columns into the opaque map the migrator
// chain consumes, keyed exactly the way the migrators in migrate.go expect.
func rowToRaw(r sceneRow) (rawState, error) {
	raw := rawState{"id": r.ID, "version": r.Version}
	fields := map[string]datatypes.JSON{
		"tracks":             r.Tracks,
		"mediaAssets":        r.MediaAssets,
		"oneshotDefinitions": r.OneshotDefinitions,
		"oneshotMarkers":     r.OneshotMarkers,
		"automationStates":   r.AutomationStates,
		"automationMarkers":  r.AutomationMarkers,
		"sidechainConfigs":   r.SidechainConfigs,
		"keybindings":        r.Keybindings,
	}
	for key, col := range fields {
		var v interface{}
		data := []byte(col)
		if len(data) == 0 {
			data = []byte("null")
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("persistence: decode column %q: %w", key, err)
		}
		raw[key] = v
	}
	return raw, nil
}

// rawToScene re-encodes the opaque post-migration state back into typed
// Go values. Missing fields on load default to empty collections.
func rawToScene(raw rawState) (model.Scene, error) {
	var s model.Scene

	id, _ := raw["id"].(string)
	if parsed, err := parseSceneID(id); err == nil {
		s.ID = parsed
	}

	if err := decodeInto(raw["tracks"], &s.Tracks); err != nil {
		return s, err
	}
	if err := decodeInto(raw["mediaAssets"], &s.MediaAssets); err != nil {
		return s, err
	}
	if err := decodeInto(raw["oneshotDefinitions"], &s.OneshotDefinitions); err != nil {
		return s, err
	}
	if err := decodeInto(raw["oneshotMarkers"], &s.OneshotMarkers); err != nil {
		return s, err
	}
	if err := decodeInto(raw["automationStates"], &s.AutomationStates); err != nil {
		return s, err
	}
	if err := decodeInto(raw["automationMarkers"], &s.AutomationMarkers); err != nil {
		return s, err
	}
	if err := decodeInto(raw["sidechainConfigs"], &s.SidechainConfigs); err != nil {
		return s, err
	}
	if err := decodeInto(raw["keybindings"], &s.Keybindings); err != nil {
		return s, err
	}

	if s.Keybindings == nil {
		s.Keybindings = map[string]string{}
	}
	return s, nil
}

func decodeInto(v interface{}, dst interface{}) error {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func parseSceneID(s string) (model.SceneID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return model.SceneID{}, err
	}
	return model.SceneID(parsed), nil
}
