package cachestore

import (
	"context"
	"sync"

	"github.com/mikey/mail-sorter/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the FolderCacheStore
// interface. Entries live for the process lifetime only; fingerprint
// comparison, not a TTL, decides whether an entry is still usable.
type MemoryStore struct {
	entries map[string]*core.FolderCacheEntry
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory folder cache store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*core.FolderCacheEntry),
		logger:  logger,
	}
}

// Get retrieves the entry for a folder
func (s *MemoryStore) Get(ctx context.Context, folder string) (*core.FolderCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[folder]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyEntry(entry), nil
}

// Put stores an entry, replacing any previous one for the folder
func (s *MemoryStore) Put(ctx context.Context, entry *core.FolderCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.FolderName] = copyEntry(entry)
	return nil
}

// Delete removes the entry for a folder
func (s *MemoryStore) Delete(ctx context.Context, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, folder)
	return nil
}

// Close releases the store
func (s *MemoryStore) Close() error {
	return nil
}

// copyEntry keeps callers from aliasing the stored address slice.
func copyEntry(entry *core.FolderCacheEntry) *core.FolderCacheEntry {
	cp := *entry
	cp.Addresses = make([]string, len(entry.Addresses))
	copy(cp.Addresses, entry.Addresses)
	return &cp
}
