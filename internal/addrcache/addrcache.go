// Package addrcache memoizes per-folder address scans behind a folder
// state fingerprint, so repeated sorting runs avoid re-fetching every
// envelope in every rule folder.
package addrcache

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/mail-sorter/internal/core"
	"go.uber.org/zap"
)

// Cache answers "which addresses appear in this folder" questions,
// consulting the persisted store first and scanning the mailbox only
// when the folder fingerprint moved. All blocking I/O happens in the
// mailbox client and the store; the cache itself makes no retry
// decisions.
type Cache struct {
	client  core.MailboxClient
	store   core.FolderCacheStore
	logger  *zap.Logger
	enabled bool
	now     func() time.Time
}

// New creates a new address cache. When enabled is false every call
// rescans the folder and nothing is persisted.
func New(client core.MailboxClient, store core.FolderCacheStore, logger *zap.Logger, enabled bool) *Cache {
	return &Cache{
		client:  client,
		store:   store,
		logger:  logger,
		enabled: enabled,
		now:     time.Now,
	}
}

// AddressesFor returns the de-duplicated, first-seen-ordered addresses
// observed in the folder's messages since the cutoff, reading the
// chosen envelope field. A persisted entry whose fingerprint exactly
// matches the folder's current state is returned without any
// select/search/fetch traffic.
func (c *Cache) AddressesFor(ctx context.Context, folder string, field core.AddressField, since time.Time) ([]string, error) {
	fp, err := c.client.Status(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read status of folder %q: %w", folder, err)
	}

	if c.enabled {
		entry, err := c.store.Get(ctx, folder)
		if err == nil && entry.Fingerprint == fp {
			c.logger.Debug("Folder cache hit",
				zap.String("folder", folder),
				zap.Int("addresses", len(entry.Addresses)))
			return entry.Addresses, nil
		}
		if err != nil {
			// Missing or corrupt entries are just a miss
			c.logger.Debug("No usable folder cache entry",
				zap.String("folder", folder), zap.Error(err))
		} else {
			c.logger.Debug("Folder fingerprint changed, rescanning",
				zap.String("folder", folder),
				zap.Uint32("cached_messages", entry.Fingerprint.MessageCount),
				zap.Uint32("current_messages", fp.MessageCount))
		}
	}

	addresses, err := c.scan(ctx, folder, field, since)
	if err != nil {
		return nil, err
	}

	if c.enabled {
		entry := &core.FolderCacheEntry{
			FolderName:  folder,
			Addresses:   addresses,
			Fingerprint: fp,
			CachedAt:    c.now(),
		}
		// A failed persist must not lose the scan result
		if err := c.store.Put(ctx, entry); err != nil {
			c.logger.Error("Failed to persist folder cache entry",
				zap.String("folder", folder), zap.Error(err))
		}
	}

	return addresses, nil
}

// DomainsFor returns the de-duplicated domains of the addresses
// AddressesFor would return, in first-seen order.
func (c *Cache) DomainsFor(ctx context.Context, folder string, field core.AddressField, since time.Time) ([]string, error) {
	addresses, err := c.AddressesFor(ctx, folder, field, since)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(addresses))
	domains := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		domain := core.DomainOf(addr)
		if domain == "" {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	}
	return domains, nil
}

// TouchFingerprint refreshes the persisted fingerprint and timestamp
// of a folder's entry, leaving its address list untouched. Callers use
// it after mutations known not to introduce new senders (cleanup runs
// that delete or expunge); the cache never infers that safety itself.
// Touching a folder with no persisted entry is a no-op.
func (c *Cache) TouchFingerprint(ctx context.Context, folder string) error {
	if !c.enabled {
		return nil
	}

	fp, err := c.client.Status(ctx, folder)
	if err != nil {
		return fmt.Errorf("failed to read status of folder %q: %w", folder, err)
	}

	entry, err := c.store.Get(ctx, folder)
	if err != nil {
		c.logger.Debug("No folder cache entry to touch",
			zap.String("folder", folder), zap.Error(err))
		return nil
	}

	entry.Fingerprint = fp
	entry.CachedAt = c.now()
	if err := c.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist touched entry for folder %q: %w", folder, err)
	}
	return nil
}

// scan performs the full select/search/fetch pass over a folder and
// extracts the configured address field.
func (c *Cache) scan(ctx context.Context, folder string, field core.AddressField, since time.Time) ([]string, error) {
	if err := c.client.Select(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to select folder %q: %w", folder, err)
	}

	uids, err := c.client.Search(ctx, core.SearchCriteria{Since: since})
	if err != nil {
		return nil, fmt.Errorf("failed to search folder %q: %w", folder, err)
	}
	if len(uids) == 0 {
		return []string{}, nil
	}

	records, err := c.client.Fetch(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch envelopes from folder %q: %w", folder, err)
	}

	seen := make(map[string]struct{}, len(records))
	addresses := make([]string, 0, len(records))
	for _, rec := range records {
		var candidates []string
		switch field {
		case core.FieldTo:
			candidates = rec.To
		default:
			candidates = rec.From
		}
		if len(candidates) == 0 {
			continue
		}
		addr := core.NormalizeAddress(candidates[0])
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	c.logger.Debug("Scanned folder",
		zap.String("folder", folder),
		zap.String("field", string(field)),
		zap.Int("messages", len(records)),
		zap.Int("addresses", len(addresses)))
	return addresses, nil
}
