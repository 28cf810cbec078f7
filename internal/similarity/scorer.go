package similarity

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/common"
	"github.com/ternarybob/docsprobe/internal/interfaces"
)

// Scorer compares texts by the cosine similarity of their embeddings
type Scorer struct {
	embedder interfaces.Embedder
	logger   arbor.ILogger
}

// NewScorer creates a Scorer over any embedder
func NewScorer(embedder interfaces.Embedder, logger arbor.ILogger) *Scorer {
	return &Scorer{
		embedder: embedder,
		logger:   logger,
	}
}

// New builds the configured scorer: Gemini embeddings behind the storage cache.
// Returns an error wrapping ErrDisabled when scoring is off or unconfigured.
func New(ctx context.Context, config common.SimilarityConfig, cache interfaces.EmbeddingStorage, logger arbor.ILogger) (*Scorer, error) {
	gemini, err := NewGeminiEmbedder(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	var embedder interfaces.Embedder = gemini
	if cache != nil {
		embedder = NewCachedEmbedder(gemini, cache, logger)
	}
	return NewScorer(embedder, logger), nil
}

// Model returns the embedding model used for scoring
func (s *Scorer) Model() string {
	return s.embedder.Model()
}

// Similarity embeds a and b and returns their cosine similarity
func (s *Scorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("failed to embed first text: %w", err)
	}
	vb, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("failed to embed second text: %w", err)
	}

	score, err := Cosine(va, vb)
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Str("model", s.embedder.Model()).
		Float64("score", score).
		Msg("Computed text similarity")

	return score, nil
}
