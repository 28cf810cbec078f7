package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/interfaces"
)

// CachedEmbedder serves embeddings from storage before calling the wrapped embedder
type CachedEmbedder struct {
	next    interfaces.Embedder
	storage interfaces.EmbeddingStorage
	logger  arbor.ILogger
}

// NewCachedEmbedder wraps next with storage
func NewCachedEmbedder(next interfaces.Embedder, storage interfaces.EmbeddingStorage, logger arbor.ILogger) *CachedEmbedder {
	return &CachedEmbedder{
		next:    next,
		storage: storage,
		logger:  logger,
	}
}

// CacheKey is the hex sha256 of model and text
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Model returns the wrapped model name
func (c *CachedEmbedder) Model() string {
	return c.next.Model()
}

// Embed returns a cached vector when present, otherwise embeds and stores the result.
// Cache failures are logged and never fail the call.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.next.Model(), text)

	cached, err := c.storage.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug().Str("key", key[:12]).Msg("Embedding cache hit")
		return cached.Vector, nil
	case !errors.Is(err, interfaces.ErrNotFound):
		c.logger.Warn().Err(err).Msg("Embedding cache read failed")
	}

	vector, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	if err := c.storage.Put(ctx, key, c.next.Model(), vector); err != nil {
		c.logger.Warn().Err(err).Msg("Embedding cache write failed")
	}
	return vector, nil
}
