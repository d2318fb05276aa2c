package addrcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/mail-sorter/internal/adapters/cachestore"
	"github.com/mikey/mail-sorter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailbox struct {
	fingerprint core.Fingerprint
	records     []core.MessageRecord

	statuses int
	selects  int
	searches int
	fetches  int
}

func (f *fakeMailbox) Status(ctx context.Context, folder string) (core.Fingerprint, error) {
	f.statuses++
	return f.fingerprint, nil
}

func (f *fakeMailbox) Select(ctx context.Context, folder string) error {
	f.selects++
	return nil
}

func (f *fakeMailbox) Search(ctx context.Context, criteria core.SearchCriteria) ([]uint32, error) {
	f.searches++
	uids := make([]uint32, 0, len(f.records))
	for _, rec := range f.records {
		uids = append(uids, rec.UID)
	}
	return uids, nil
}

func (f *fakeMailbox) Fetch(ctx context.Context, uids []uint32) ([]core.MessageRecord, error) {
	f.fetches++
	return f.records, nil
}

type failingStore struct {
	core.FolderCacheStore
	getErr error
	putErr error
}

func (s *failingStore) Get(ctx context.Context, folder string) (*core.FolderCacheEntry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.FolderCacheStore.Get(ctx, folder)
}

func (s *failingStore) Put(ctx context.Context, entry *core.FolderCacheEntry) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.FolderCacheStore.Put(ctx, entry)
}

func records(addrs ...string) []core.MessageRecord {
	recs := make([]core.MessageRecord, 0, len(addrs))
	for i, addr := range addrs {
		recs = append(recs, core.MessageRecord{
			UID:  uint32(i + 1),
			From: []string{addr},
			To:   []string{"me@example.com"},
		})
	}
	return recs
}

func TestAddressesForCacheHit(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 10, NextUID: 11, UIDValidity: 100},
		records:     records("A@One.com", "b@two.com", "a@one.com"),
	}
	cache := New(client, cachestore.NewMemoryStore(zap.NewNop()), zap.NewNop(), true)

	ctx := context.Background()
	since := time.Now().AddDate(0, -12, 0)

	first, err := cache.AddressesFor(ctx, "INBOX", core.FieldFrom, since)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@one.com", "b@two.com"}, first)
	assert.Equal(t, 1, client.selects)
	assert.Equal(t, 1, client.searches)
	assert.Equal(t, 1, client.fetches)

	// Unchanged fingerprint: second call does no mailbox scanning
	second, err := cache.AddressesFor(ctx, "INBOX", core.FieldFrom, since)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.selects)
	assert.Equal(t, 1, client.searches)
	assert.Equal(t, 1, client.fetches)
	assert.Equal(t, 2, client.statuses)
}

func TestAddressesForRescanOnFingerprintChange(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 10, NextUID: 11, UIDValidity: 100},
		records:     records("a@one.com"),
	}
	cache := New(client, cachestore.NewMemoryStore(zap.NewNop()), zap.NewNop(), true)
	ctx := context.Background()

	_, err := cache.AddressesFor(ctx, "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)

	// New mail arrived
	client.fingerprint = core.Fingerprint{MessageCount: 12, NextUID: 13, UIDValidity: 100}
	client.records = records("a@one.com", "c@three.com")

	addrs, err := cache.AddressesFor(ctx, "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@one.com", "c@three.com"}, addrs)
	assert.Equal(t, 2, client.fetches)
}

func TestAddressesForUIDValidityChangeForcesRescan(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 10, NextUID: 11, UIDValidity: 100},
		records:     records("a@one.com"),
	}
	cache := New(client, cachestore.NewMemoryStore(zap.NewNop()), zap.NewNop(), true)
	ctx := context.Background()

	_, err := cache.AddressesFor(ctx, "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)

	// Same counts, different generation
	client.fingerprint = core.Fingerprint{MessageCount: 10, NextUID: 11, UIDValidity: 101}

	_, err = cache.AddressesFor(ctx, "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, client.fetches)
}

func TestAddressesForDisabledNeverPersists(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 1, NextUID: 2, UIDValidity: 3},
		records:     records("a@one.com"),
	}
	store := cachestore.NewMemoryStore(zap.NewNop())
	cache := New(client, store, zap.NewNop(), false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := cache.AddressesFor(ctx, "INBOX", core.FieldFrom, time.Time{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, client.fetches, "disabled cache must rescan every call")

	_, err := store.Get(ctx, "INBOX")
	assert.ErrorIs(t, err, core.ErrNotFound, "disabled cache must not persist")
}

func TestAddressesForToField(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 2, NextUID: 3, UIDValidity: 1},
		records:     records("a@one.com", "b@two.com"),
	}
	cache := New(client, cachestore.NewMemoryStore(zap.NewNop()), zap.NewNop(), true)

	addrs, err := cache.AddressesFor(context.Background(), "Sent", core.FieldTo, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"me@example.com"}, addrs)
}

func TestAddressesForEmptyFolderStillCached(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 0, NextUID: 1, UIDValidity: 7},
	}
	store := cachestore.NewMemoryStore(zap.NewNop())
	cache := New(client, store, zap.NewNop(), true)
	ctx := context.Background()

	addrs, err := cache.AddressesFor(ctx, "Empty", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, addrs)

	entry, err := store.Get(ctx, "Empty")
	require.NoError(t, err)
	assert.Empty(t, entry.Addresses)
	assert.Equal(t, client.fingerprint, entry.Fingerprint)
}

func TestAddressesForCorruptEntryIsMiss(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 1, NextUID: 2, UIDValidity: 3},
		records:     records("a@one.com"),
	}
	store := &failingStore{
		FolderCacheStore: cachestore.NewMemoryStore(zap.NewNop()),
		getErr:           errors.New("unreadable row"),
	}
	cache := New(client, store, zap.NewNop(), true)

	addrs, err := cache.AddressesFor(context.Background(), "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err, "corrupt cache entries must not be fatal")
	assert.Equal(t, []string{"a@one.com"}, addrs)
	assert.Equal(t, 1, client.fetches)
}

func TestAddressesForPersistFailureStillReturnsResult(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 1, NextUID: 2, UIDValidity: 3},
		records:     records("a@one.com"),
	}
	store := &failingStore{
		FolderCacheStore: cachestore.NewMemoryStore(zap.NewNop()),
		putErr:           errors.New("disk full"),
	}
	cache := New(client, store, zap.NewNop(), true)

	addrs, err := cache.AddressesFor(context.Background(), "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@one.com"}, addrs)
}

func TestDomainsFor(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 3, NextUID: 4, UIDValidity: 1},
		records:     records("a@one.com", "b@one.com", "c@two.com"),
	}
	cache := New(client, cachestore.NewMemoryStore(zap.NewNop()), zap.NewNop(), true)

	domains, err := cache.DomainsFor(context.Background(), "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one.com", "two.com"}, domains)
}

func TestTouchFingerprint(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 10, NextUID: 11, UIDValidity: 100},
		records:     records("a@one.com", "b@two.com"),
	}
	store := cachestore.NewMemoryStore(zap.NewNop())
	cache := New(client, store, zap.NewNop(), true)
	ctx := context.Background()

	cachedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cache.now = func() time.Time { return cachedAt }

	_, err := cache.AddressesFor(ctx, "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)

	// A cleanup expunged messages: count and UIDNEXT moved, senders did not
	client.fingerprint = core.Fingerprint{MessageCount: 8, NextUID: 15, UIDValidity: 100}
	touchedAt := cachedAt.Add(time.Hour)
	cache.now = func() time.Time { return touchedAt }

	require.NoError(t, cache.TouchFingerprint(ctx, "INBOX"))

	entry, err := store.Get(ctx, "INBOX")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@one.com", "b@two.com"}, entry.Addresses)
	assert.Equal(t, client.fingerprint, entry.Fingerprint)
	assert.Equal(t, touchedAt, entry.CachedAt)

	// And the refreshed fingerprint now counts as a hit
	_, err = cache.AddressesFor(ctx, "INBOX", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, client.fetches)
}

func TestTouchFingerprintWithoutEntry(t *testing.T) {
	client := &fakeMailbox{
		fingerprint: core.Fingerprint{MessageCount: 1, NextUID: 2, UIDValidity: 3},
	}
	store := cachestore.NewMemoryStore(zap.NewNop())
	cache := New(client, store, zap.NewNop(), true)
	ctx := context.Background()

	require.NoError(t, cache.TouchFingerprint(ctx, "Nothing"))

	_, err := store.Get(ctx, "Nothing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreOnlySource(t *testing.T) {
	store := cachestore.NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &core.FolderCacheEntry{
		FolderName: "Bills",
		Addresses:  []string{"billing@utility.com"},
	}))

	source := NewStoreOnly(store, zap.NewNop())

	addrs, err := source.AddressesFor(ctx, "Bills", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"billing@utility.com"}, addrs)

	empty, err := source.AddressesFor(ctx, "Unknown", core.FieldFrom, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
