package editor

import (
	"context"

	"github.com/timelineaudio/engine/internal/model"
)

// mediaPathResolver implements scheduler.MediaPathResolver over the
// Editor's active scene: a clip's MediaID resolves to its MediaAsset, whose
// opaque source handle is resolved to a decodable path; the asset's id
// string is the sourceKey shared sinks are keyed by.
type mediaPathResolver struct {
	editor *Editor
}

func (r *mediaPathResolver) ResolvePath(ctx context.Context, mediaID model.MediaID) (sourceKey, path string, ok bool) {
	sc, ok := r.editor.ActiveScene()
	if !ok {
		return "", "", false
	}
	asset, ok := sc.MediaAssetByID(mediaID)
	if !ok {
		return "", "", false
	}
	path, ok = r.editor.resolveSourceHandle(ctx, asset.SourceHandle)
	if !ok {
		return "", "", false
	}
	return asset.ID.String(), path, true
}
