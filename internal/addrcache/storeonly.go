package addrcache

import (
	"context"
	"time"

	"github.com/mikey/mail-sorter/internal/core"
	"go.uber.org/zap"
)

// StoreOnly answers address queries from persisted cache entries
// alone, for offline classification where no mailbox connection is
// available. The field and cutoff arguments are accepted for interface
// compatibility but cannot be re-checked against the mailbox; folders
// without a usable entry yield an empty list rather than an error.
type StoreOnly struct {
	store  core.FolderCacheStore
	logger *zap.Logger
}

// NewStoreOnly creates a store-backed, scan-free address source.
func NewStoreOnly(store core.FolderCacheStore, logger *zap.Logger) *StoreOnly {
	return &StoreOnly{store: store, logger: logger}
}

// AddressesFor returns the persisted address list for the folder, or
// an empty list when none exists.
func (s *StoreOnly) AddressesFor(ctx context.Context, folder string, _ core.AddressField, _ time.Time) ([]string, error) {
	entry, err := s.store.Get(ctx, folder)
	if err != nil {
		s.logger.Debug("No cached addresses for folder",
			zap.String("folder", folder), zap.Error(err))
		return []string{}, nil
	}
	return entry.Addresses, nil
}
