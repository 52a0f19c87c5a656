package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryStore keeps uploaded objects in memory. It backs the archive when no
// bucket is configured, and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	objects       map[string][]byte
	publicBaseURL string
}

func NewMemoryStore(publicBaseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), publicBaseURL: publicBaseURL}
}

func (m *MemoryStore) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	sum := md5.Sum(buf.Bytes())

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return &UploadResult{Key: key, Location: m.GetPublicURL(key), ETag: hex.EncodeToString(sum[:])}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) GetPublicURL(key string) string {
	return publicURL(m.publicBaseURL, key)
}

// Object returns a stored object and whether it exists.
func (m *MemoryStore) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
