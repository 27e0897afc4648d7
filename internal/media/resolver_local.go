package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalResolver is the reference Resolver: it treats a MediaAsset's opaque
// handle as a filename under a fixed base directory. Host applications
// with a real asset library (blob store, CDN, DAM) supply their own
// Resolver instead; this one exists so the engine is runnable standalone.
type LocalResolver struct {
	baseDir string
}

// NewLocalResolver creates a LocalResolver rooted at baseDir.
func NewLocalResolver(baseDir string) *LocalResolver {
	return &LocalResolver{baseDir: baseDir}
}

// ResolveHandle joins the handle onto the resolver's base directory and
// confirms the file exists before handing the path to ffmpeg.
func (r *LocalResolver) ResolveHandle(ctx context.Context, assetID string) (string, error) {
	path := filepath.Join(r.baseDir, assetID)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("media: resolve %s: %w", assetID, err)
	}
	return path, nil
}
