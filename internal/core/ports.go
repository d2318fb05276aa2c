package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a FolderCacheStore when no readable entry
// exists for a folder.
var ErrNotFound = errors.New("folder cache entry not found")

// MailboxClient is the four-operation mailbox surface the sorter
// depends on. Implementations own all network concerns (timeouts,
// retries); callers treat every error as fatal for the folder being
// processed.
type MailboxClient interface {
	// Select makes the folder the current one for Search/Fetch
	Select(ctx context.Context, folder string) error

	// Search returns the UIDs in the selected folder matching the criteria
	Search(ctx context.Context, criteria SearchCriteria) ([]uint32, error)

	// Fetch returns envelope addresses and raw headers for the given UIDs
	Fetch(ctx context.Context, uids []uint32) ([]MessageRecord, error)

	// Status reports the folder fingerprint without selecting it
	Status(ctx context.Context, folder string) (Fingerprint, error)
}

// FolderCacheStore persists one FolderCacheEntry per folder. Put
// replaces the entry wholesale. Concurrent writers from separate
// processes are not serialized: last write wins.
type FolderCacheStore interface {
	// Get retrieves the entry for a folder, or ErrNotFound
	Get(ctx context.Context, folder string) (*FolderCacheEntry, error)

	// Put stores an entry, replacing any previous one for the folder
	Put(ctx context.Context, entry *FolderCacheEntry) error

	// Delete removes the entry for a folder
	Delete(ctx context.Context, folder string) error

	// Close releases any underlying storage
	Close() error
}

// DecisionExecutor applies one Decision to one message.
type DecisionExecutor interface {
	Execute(ctx context.Context, uid uint32, decision Decision) error
}

// RuleSource builds the rule context for a run, scanning no earlier
// than since.
type RuleSource interface {
	Build(ctx context.Context, since time.Time) (*RuleContext, error)
}

// FingerprintToucher refreshes a folder's cached fingerprint without
// rescanning its addresses.
type FingerprintToucher interface {
	TouchFingerprint(ctx context.Context, folder string) error
}
