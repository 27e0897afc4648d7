// Package persistence stores Scenes as one row per scene, nested
// collections marshaled to datatypes.JSON columns so every scene field is
// explicitly present on save and restored on load, behind a linear migrator chain keyed by a root-level
// integer version.
package persistence

import (
	"time"

	"gorm.io/datatypes"
)

// CurrentVersion is the schema version new rows are written at. Bump this
// and append a migrator in migrate.go whenever the persisted shape changes.
const CurrentVersion = 3

// sceneRow is the GORM model backing the scenes table. Every Scene field is
// its own column (scalar) or its own datatypes.JSON column (collection) --
// never a single blob -- so a migrator touching one field never needs to
// round-trip the others through JSON.
type sceneRow struct {
	ID      string `gorm:"primaryKey"`
	Version int    `gorm:"not null"`

	Tracks             datatypes.JSON
	MediaAssets        datatypes.JSON
	OneshotDefinitions datatypes.JSON
	OneshotMarkers     datatypes.JSON
	AutomationStates   datatypes.JSON
	AutomationMarkers  datatypes.JSON
	SidechainConfigs   datatypes.JSON
	Keybindings        datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sceneRow) TableName() string { return "scenes" }
