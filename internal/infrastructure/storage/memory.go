package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	manufacturingapp "github.com/loomworks/backend/internal/application/manufacturing"
)

var _ manufacturingapp.ObjectStorageService = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps object state in a process-local map. It is the
// development fallback when no S3 endpoint is configured: presigned URLs are
// fabricated, but key existence and deletion behave like the real backend so
// the attach flow can be exercised end to end.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]string // storageKey -> contentType
	baseURL string
}

// NewMemoryObjectStorage creates an empty in-memory object store
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "https://storage.invalid"
	}
	return &MemoryObjectStorage{
		objects: make(map[string]string),
		baseURL: baseURL,
	}
}

// GenerateUploadURL fabricates an upload URL and records the key as uploaded.
// There is no real upload step in memory mode, so issuing the URL is the upload.
func (m *MemoryObjectStorage) GenerateUploadURL(_ context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiration
	}

	m.mu.Lock()
	m.objects[storageKey] = contentType
	m.mu.Unlock()

	return m.baseURL + "/upload/" + storageKey, time.Now().Add(expiresIn), nil
}

// GenerateDownloadURL fabricates a download URL for a known key
func (m *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiration
	}

	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, errors.New("object not found: " + storageKey)
	}

	return m.baseURL + "/download/" + storageKey, time.Now().Add(expiresIn), nil
}

// DeleteObject removes the key. Deleting an unknown key succeeds, matching
// S3 semantics.
func (m *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	delete(m.objects, storageKey)
	m.mu.Unlock()
	return nil
}

// ObjectExists reports whether the key was uploaded and not yet deleted
func (m *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	return ok, nil
}

// ObjectURL returns the stable URL for a key
func (m *MemoryObjectStorage) ObjectURL(storageKey string) string {
	return m.baseURL + "/" + storageKey
}

// Len reports the number of stored objects
func (m *MemoryObjectStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
