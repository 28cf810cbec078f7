package models

import "time"

// CachedEmbedding is a stored embedding vector for one (model, text) pair
type CachedEmbedding struct {
	Key       string    `json:"key"`
	Model     string    `json:"model"`
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}
