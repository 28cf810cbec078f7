package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/interfaces"
	"github.com/ternarybob/docsprobe/internal/models"
)

const embeddingKeyPrefix = "embedding:"

// EmbeddingStorage caches embedding vectors directly in Badger so entries expire by TTL
type EmbeddingStorage struct {
	db     *BadgerDB
	ttl    time.Duration
	logger arbor.ILogger
}

// NewEmbeddingStorage creates a new EmbeddingStorage. ttl <= 0 keeps entries forever.
func NewEmbeddingStorage(db *BadgerDB, ttl time.Duration, logger arbor.ILogger) interfaces.EmbeddingStorage {
	return &EmbeddingStorage{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached embedding for key or interfaces.ErrNotFound
func (s *EmbeddingStorage) Get(ctx context.Context, key string) (*models.CachedEmbedding, error) {
	var data []byte
	err := s.db.Store().Badger().View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(embeddingKeyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding: %w", err)
	}

	var cached models.CachedEmbedding
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	return &cached, nil
}

// Put stores vector under key
func (s *EmbeddingStorage) Put(ctx context.Context, key string, model string, vector []float32) error {
	data, err := json.Marshal(models.CachedEmbedding{
		Key:       key,
		Model:     model,
		Vector:    vector,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	err = s.db.Store().Badger().Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(embeddingKeyPrefix+key), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	s.logger.Debug().Str("model", model).Int("dimension", len(vector)).Msg("Embedding cached")
	return nil
}
