package persistence

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/timelineaudio/engine/internal/model"
)

// Store is the scene persistence layer: one SQLite row per scene via GORM,
// behind the linear migrator chain in migrate.go.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the SQLite database at path (use "" for a transient
// in-memory store) and ensures the scenes table exists.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&sceneRow{}); err != nil {
		return nil, fmt.Errorf("persistence: automigrate: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Save writes a scene at CurrentVersion, replacing any row with the same id.
func (s *Store) Save(scene model.Scene) error {
	row := sceneToRow(scene)
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("persistence: save scene %s: %w", scene.ID, err)
	}
	return nil
}

// Load reads one scene, running it through the migrator chain up to
// CurrentVersion. migrated reports whether any migrator ran, so a caller
// holding derived caches keyed by the pre-migration shape (e.g. sidechain
// envelopes keyed by the old scalar source) knows to invalidate them.
func (s *Store) Load(id model.SceneID) (scene model.Scene, migrated bool, err error) {
	var row sceneRow
	if err := s.db.First(&row, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Scene{}, false, model.NewError(model.ErrNotFound, "persistence.Load", err)
		}
		return model.Scene{}, false, fmt.Errorf("persistence: load scene %s: %w", id, err)
	}

	raw, err := rowToRaw(row)
	if err != nil {
		return model.Scene{}, false, err
	}

	migrated = row.Version < CurrentVersion
	if migrated {
		raw, err = applyChain(raw, row.Version, CurrentVersion)
		if err != nil {
			return model.Scene{}, false, err
		}
		s.log.Info().Str("sceneId", id.String()).Int("from", row.Version).Int("to", CurrentVersion).Msg("migrated scene on load")
	}

	scene, err = rawToScene(raw)
	if err != nil {
		return model.Scene{}, false, err
	}
	return scene, migrated, nil
}

// List returns every persisted scene id, ordered by last save time, oldest
// first.
func (s *Store) List() ([]model.SceneID, error) {
	var ids []string
	if err := s.db.Model(&sceneRow{}).Order("updated_at").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("persistence: list scenes: %w", err)
	}
	out := make([]model.SceneID, 0, len(ids))
	for _, raw := range ids {
		parsed, err := parseSceneID(raw)
		if err != nil {
			continue
		}
		out = append(out, parsed)
	}
	return out, nil
}

// Delete removes a scene row. A no-op, not an error, if the id is absent.
func (s *Store) Delete(id model.SceneID) error {
	if err := s.db.Delete(&sceneRow{}, "id = ?", id.String()).Error; err != nil {
		return fmt.Errorf("persistence: delete scene %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
