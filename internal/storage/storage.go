// Package storage provides the object storage collaborator the edit
// pipeline fetches overlay and watermark assets from.
package storage

import (
	"context"

	"github.com/pixeldrift/imagehandler/internal/apperr"
)

// Store retrieves stored objects by bucket and key. Implementations fail
// with an *apperr.Error carrying the backend's status, code and message;
// backends that supply no status default to 500.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// MemStore is an in-memory Store for tests and local runs.
type MemStore struct {
	objects map[string]map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]map[string][]byte)}
}

// Put stores an object. A copy of data is not taken; callers must not
// mutate it afterwards.
func (s *MemStore) Put(bucket, key string, data []byte) {
	b, ok := s.objects[bucket]
	if !ok {
		b = make(map[string][]byte)
		s.objects[bucket] = b
	}
	b[key] = data
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	if b, ok := s.objects[bucket]; ok {
		if data, ok := b[key]; ok {
			return data, nil
		}
	}
	return nil, apperr.Newf(404, "NoSuchKey", "object %s/%s does not exist", bucket, key)
}
