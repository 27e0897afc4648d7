package media

import (
	"context"
	"sync"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Decoder is the subset of Provider the cache needs: decode-by-URL or
// decode-by-file, keyed identically (both just strings to the cache).
type Decoder interface {
	DecodeURL(ctx context.Context, url string) (*Buffer, error)
	DecodeFile(ctx context.Context, path string) (*Buffer, error)
}

// DecodeCache is a keyed, lazily-populated audio-buffer cache: decode from
// source URL or file happens once per key, and a decode failure returns
// ok=false rather than panicking or caching the failure. Eviction policy
// is LRU rather than unbounded so a long editing session with many one-shot
// definitions doesn't hold every decoded buffer in memory forever; callers
// that need the "never evicted during a play session" guarantee size the
// cache generously via NewDecodeCache's capacity argument.
type DecodeCache struct {
	mu      sync.Mutex
	decoder Decoder
	cache   *lru.Cache[string, *Buffer]
	log     zerolog.Logger
}

// NewDecodeCache creates a cache with room for `capacity` decoded buffers.
func NewDecodeCache(decoder Decoder, capacity int, log zerolog.Logger) *DecodeCache {
	if capacity <= 0 {
		capacity = 256
	}
	c, _ := lru.New[string, *Buffer](capacity)
	return &DecodeCache{decoder: decoder, cache: c, log: log}
}

// GetByURL returns the cached buffer for url, decoding on first access.
// On decode failure it logs and returns (nil, false) -- it never returns
// an error to the caller.
func (c *DecodeCache) GetByURL(ctx context.Context, key, url string) (*Buffer, bool) {
	return c.getOrDecode(key, func() (*Buffer, error) {
		return c.decoder.DecodeURL(ctx, url)
	})
}

// GetByFile is the file-path analogue of GetByURL.
func (c *DecodeCache) GetByFile(ctx context.Context, key, path string) (*Buffer, bool) {
	return c.getOrDecode(key, func() (*Buffer, error) {
		return c.decoder.DecodeFile(ctx, path)
	})
}

func (c *DecodeCache) getOrDecode(key string, decode func() (*Buffer, error)) (*Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if buf, ok := c.cache.Get(key); ok {
		return buf, true
	}

	buf, err := decode()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("media: decode failed, skipping")
		return nil, false
	}
	c.log.Debug().
		Str("key", key).
		Str("size", humanize.Bytes(uint64(len(buf.Samples)*8))).
		Msg("media: decoded and cached")
	c.cache.Add(key, buf)
	return buf, true
}

// Invalidate drops a single cached buffer, used when a definition's source
// changes or is deleted.
func (c *DecodeCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(key)
}

// Clear drops every cached buffer, used on scene change.
func (c *DecodeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}
