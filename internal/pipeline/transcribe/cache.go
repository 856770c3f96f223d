package transcribe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"media-pipeline/internal/common/cache"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/metrics"
)

const cacheKeyPrefix = "transcript:"

// CachedEngine memoizes transcripts by the SHA-256 of the audio bytes.
// Cache failures are logged and fall through to the wrapped engine.
type CachedEngine struct {
	next   Engine
	store  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedEngine(next Engine, store cache.Cache, ttl time.Duration, log logger.Logger) *CachedEngine {
	return &CachedEngine{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "transcript-cache"}),
	}
}

func (c *CachedEngine) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	key, err := contentKey(audioPath)
	if err != nil {
		return c.next.Transcribe(ctx, audioPath)
	}

	if t, ok := c.lookup(ctx, key); ok {
		return t, nil
	}

	t, err := c.next.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(t); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("transcript cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}
	return t, nil
}

func (c *CachedEngine) lookup(ctx context.Context, key string) (*Transcript, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		metrics.TranscriptCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("transcript cache read failed", map[string]interface{}{"key": key, "error": err})
		return nil, false
	}
	if !found {
		metrics.TranscriptCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		metrics.TranscriptCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("transcript cache entry corrupt", map[string]interface{}{"key": key, "error": err})
		return nil, false
	}
	metrics.TranscriptCacheLookups.WithLabelValues("hit").Inc()
	c.logger.Debug("transcript cache hit", map[string]interface{}{"key": key})
	return &t, true
}

func contentKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
