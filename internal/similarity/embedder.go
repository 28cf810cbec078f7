package similarity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/common"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrDisabled is returned when similarity scoring is switched off or has no API key
var ErrDisabled = errors.New("similarity scoring disabled")

// GeminiEmbedder produces embeddings through the Gemini API
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	taskType  string
	timeout   time.Duration
	limiter   *rate.Limiter
	retry     RetryPolicy
	logger    arbor.ILogger
}

// NewGeminiEmbedder creates a Gemini embedder from similarity config
func NewGeminiEmbedder(ctx context.Context, config common.SimilarityConfig, logger arbor.ILogger) (*GeminiEmbedder, error) {
	if !config.Enabled {
		return nil, ErrDisabled
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: no Gemini API key configured (set DOCSPROBE_GEMINI_API_KEY)", ErrDisabled)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	timeout := config.Timeout.Duration
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger.Debug().
		Str("model", config.Model).
		Int("dimension", config.Dimension).
		Int("rate_limit", config.RateLimit).
		Msg("Gemini embedder initialized")

	return &GeminiEmbedder{
		client:    client,
		model:     config.Model,
		dimension: config.Dimension,
		taskType:  config.TaskType,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
		retry:     NewRetryPolicy(config.MaxRetries),
		logger:    logger,
	}, nil
}

// Model returns the embedding model name
func (e *GeminiEmbedder) Model() string {
	return e.model
}

// Embed returns the embedding of text, retrying rate-limit errors with the API-suggested delay
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		embedding, err := e.embedOnce(ctx, text)
		if err == nil {
			return embedding, nil
		}
		lastErr = err

		if !IsRateLimitError(err) || attempt == e.retry.MaxRetries {
			break
		}

		backoff := e.retry.Backoff(attempt, ExtractRetryDelay(err))
		e.logger.Warn().
			Int("attempt", attempt+1).
			Int("max_retries", e.retry.MaxRetries).
			Dur("backoff", backoff).
			Msg("Embedding rate limited, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, lastErr
}

func (e *GeminiEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	outputDim := int32(e.dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
		TaskType:             e.taskType,
	}

	start := time.Now()
	result, err := e.client.Models.EmbedContent(ctx, e.model, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if embedding == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}
	if len(embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(embedding))
	}

	e.logger.Debug().
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return embedding, nil
}
