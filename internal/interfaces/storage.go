package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/docsprobe/internal/models"
)

// ErrNotFound is returned when a stored record does not exist
var ErrNotFound = errors.New("not found")

// RunStorage persists suite runs
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error) // Newest first, limit <= 0 = all
}

// EmbeddingStorage caches embedding vectors with a time-to-live
type EmbeddingStorage interface {
	Get(ctx context.Context, key string) (*models.CachedEmbedding, error)
	Put(ctx context.Context, key string, model string, vector []float32) error
}

// StorageManager groups the storages backed by one database
type StorageManager interface {
	RunStorage() RunStorage
	EmbeddingStorage() EmbeddingStorage
	Close() error
}
