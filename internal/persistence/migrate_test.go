package persistence

import (
	"encoding/json"
	"reflect"
	"testing"
)

func cloneRaw(t *testing.T, raw rawState) rawState {
	t.Helper()
	b, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal raw: %v", err)
	}
	var out rawState
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	return out
}

func v1Fixture() rawState {
	return rawState{
		"version":     1,
		"keybindings": map[string]interface{}{"undo": "ctrl+z"},
		"sidechainConfigs": []interface{}{
			map[string]interface{}{
				"id":            "cfg-1",
				"sourceTrackId": "track-1",
			},
		},
		"tracks": []interface{}{},
	}
}

// TestMigrationChainAssociativeWithVersion verifies migrating v1->v3
// directly equals migrating v1->v2 then v2->v3.
func TestMigrationChainAssociativeWithVersion(t *testing.T) {
	direct, err := applyChain(cloneRaw(t, v1Fixture()), 1, 3)
	if err != nil {
		t.Fatalf("direct migration: %v", err)
	}

	stepped := cloneRaw(t, v1Fixture())
	stepped, err = applyChain(stepped, 1, 2)
	if err != nil {
		t.Fatalf("v1->v2: %v", err)
	}
	stepped, err = applyChain(stepped, 2, 3)
	if err != nil {
		t.Fatalf("v2->v3: %v", err)
	}

	directJSON, _ := json.Marshal(direct)
	steppedJSON, _ := json.Marshal(stepped)
	var directVal, steppedVal interface{}
	json.Unmarshal(directJSON, &directVal)
	json.Unmarshal(steppedJSON, &steppedVal)

	if !reflect.DeepEqual(directVal, steppedVal) {
		t.Errorf("direct migration and stepped migration diverge:\ndirect:  %s\nstepped: %s", directJSON, steppedJSON)
	}
}

func TestMigrateV1ToV2PreservesExistingKeybinding(t *testing.T) {
	raw := migrateV1ToV2(cloneRaw(t, v1Fixture()))
	kb, ok := raw["keybindings"].(map[string]interface{})
	if !ok {
		t.Fatal("expected keybindings map after migration")
	}
	if kb["undo"] != "ctrl+z" {
		t.Errorf("expected pre-existing undo binding preserved, got %v", kb["undo"])
	}
	if kb["play-pause"] != "space" {
		t.Errorf("expected default play-pause binding filled in, got %v", kb["play-pause"])
	}
}

func TestMigrateV2ToV3ReshapesSidechainSource(t *testing.T) {
	raw := migrateV2ToV3(cloneRaw(t, v1Fixture()))
	configs, ok := raw["sidechainConfigs"].([]interface{})
	if !ok || len(configs) != 1 {
		t.Fatalf("expected 1 sidechain config, got %v", raw["sidechainConfigs"])
	}
	cfg := configs[0].(map[string]interface{})
	if _, hasOld := cfg["sourceTrackId"]; hasOld {
		t.Error("expected sourceTrackId removed after reshape")
	}
	source, ok := cfg["source"].(map[string]interface{})
	if !ok {
		t.Fatal("expected source union after reshape")
	}
	kind, _ := source["kind"].(float64) // JSON numbers decode as float64
	if kind != 0 || source["trackId"] != "track-1" {
		t.Errorf("unexpected reshaped source: %v", source)
	}
}
