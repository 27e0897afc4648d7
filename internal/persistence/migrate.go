package persistence

import "fmt"

// migrator transforms the persisted document from one schema version to
// the next. Opaque state in, opaque state out; no global access.
type migrator func(rawState) rawState

type versionedMigrator struct {
	from int
	fn   migrator
}

// chain holds every migrator in order, keyed by the version it migrates
// FROM. Appending a new version means appending one entry here and bumping
// CurrentVersion in row.go -- never touching an earlier entry.
var chain = []versionedMigrator{
	{from: 1, fn: migrateV1ToV2},
	{from: 2, fn: migrateV2ToV3},
}

// defaultKeybindings is the keybinding set introduced at v2. A v1 document
// may carry a partial map (or none); migration only fills in the keys it
// doesn't already have, so a user's existing rebind survives the upgrade.
var defaultKeybindings = map[string]interface{}{
	"play-pause":  "space",
	"toggle-loop": "l",
	"undo":        "mod+z",
	"redo":        "mod+shift+z",
}

// migrateV1ToV2 adds the keybinding map.
func migrateV1ToV2(raw rawState) rawState {
	existing, _ := raw["keybindings"].(map[string]interface{})
	merged := make(map[string]interface{}, len(defaultKeybindings))
	for k, v := range defaultKeybindings {
		merged[k] = v
	}
	for k, v := range existing {
		merged[k] = v
	}
	raw["keybindings"] = merged
	return raw
}

// migrateV2ToV3 reshapes each sidechain config's source from a scalar
// sourceTrackId string into the tagged union {kind, trackId} | {kind,
// definitionId}. Any envelope cache keyed by the old scalar
// shape is invalidated by virtue of the reshape itself -- callers re-derive
// envelopes from the new Source field on first use after migration.
// Store.Load itself touches no envelope cache; it only reports migrated=true.
func migrateV2ToV3(raw rawState) rawState {
	configsIface, ok := raw["sidechainConfigs"].([]interface{})
	if !ok {
		return raw
	}
	out := make([]interface{}, 0, len(configsIface))
	for _, c := range configsIface {
		cfg, ok := c.(map[string]interface{})
		if !ok {
			out = append(out, c)
			continue
		}
		if _, hasSource := cfg["source"]; !hasSource {
			if trackID, ok := cfg["sourceTrackId"]; ok {
				// Kind 0 is SidechainSourceTrack; the tagged union is
				// serialized the same way the rest of the scene model's
				// enums are, as a numeric ordinal, not a string tag.
				cfg["source"] = map[string]interface{}{
					"kind":    0,
					"trackId": trackID,
				}
				delete(cfg, "sourceTrackId")
			}
		}
		out = append(out, cfg)
	}
	raw["sidechainConfigs"] = out
	return raw
}

// applyChain migrates raw from its current version up through target,
// applying each contiguous step. Associative with version by construction:
// migrating v_i->v_j then v_j->v_k runs the exact same ordered subsequence
// of migrators as migrating v_i->v_k directly.
func applyChain(raw rawState, from, target int) (rawState, error) {
	if from > target {
		return nil, fmt.Errorf("persistence: cannot migrate backward from v%d to v%d", from, target)
	}
	version := from
	for _, step := range chain {
		if version >= target {
			break
		}
		if step.from != version {
			continue
		}
		raw = step.fn(raw)
		version++
	}
	if version != target {
		return nil, fmt.Errorf("persistence: no migration path from v%d to v%d (stalled at v%d)", from, target, version)
	}
	raw["version"] = target
	return raw, nil
}
