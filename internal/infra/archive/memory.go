package archive

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/lassnet/powerdash/internal/domain/forecast"
)

// MemorySink keeps files in memory. Used for dry runs and tests.
type MemorySink struct {
	mu    sync.RWMutex
	blobs map[string]forecast.StoredObject
	data  map[string][]byte
}

// NewMemorySink constructs an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		blobs: make(map[string]forecast.StoredObject),
		data:  make(map[string][]byte),
	}
}

// Put stores the blob and returns metadata.
func (s *MemorySink) Put(_ context.Context, key string, data []byte, contentType string) (forecast.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := md5.Sum(data)
	obj := forecast.StoredObject{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		ETag:        hex.EncodeToString(hash[:]),
	}
	s.blobs[key] = obj
	s.data[key] = append([]byte(nil), data...)
	return obj, nil
}

// Get returns a copy of a stored blob.
func (s *MemorySink) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Keys lists stored keys in lexical order.
func (s *MemorySink) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ forecast.Sink = (*MemorySink)(nil)
