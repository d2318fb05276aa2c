package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/mail-sorter/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the FolderCacheStore
// interface. Each folder maps to one row; Put replaces the row in a
// single statement so a failed scan never leaves a partially written
// entry behind.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite folder cache store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS folder_cache (
			folder_name TEXT PRIMARY KEY,
			addresses TEXT NOT NULL,
			message_count INTEGER NOT NULL,
			next_uid INTEGER NOT NULL,
			uid_validity INTEGER NOT NULL,
			cached_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the entry for a folder. Rows that cannot be decoded
// are reported as not found so the caller falls back to a rescan.
func (s *SQLiteStore) Get(ctx context.Context, folder string) (*core.FolderCacheEntry, error) {
	var addressesJSON, cachedAt string
	var messageCount, nextUID, uidValidity uint32

	err := s.db.QueryRowContext(ctx, `
		SELECT addresses, message_count, next_uid, uid_validity, cached_at
		FROM folder_cache
		WHERE folder_name = ?
	`, folder).Scan(&addressesJSON, &messageCount, &nextUID, &uidValidity, &cachedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query folder cache: %w", err)
	}

	entry := &core.FolderCacheEntry{
		FolderName: folder,
		Fingerprint: core.Fingerprint{
			MessageCount: messageCount,
			NextUID:      nextUID,
			UIDValidity:  uidValidity,
		},
	}

	if err := json.Unmarshal([]byte(addressesJSON), &entry.Addresses); err != nil {
		s.logger.Warn("Corrupt address list in folder cache, treating as miss",
			zap.String("folder", folder), zap.Error(err))
		return nil, core.ErrNotFound
	}
	if entry.CachedAt, err = time.Parse(time.RFC3339, cachedAt); err != nil {
		s.logger.Warn("Corrupt timestamp in folder cache, treating as miss",
			zap.String("folder", folder), zap.Error(err))
		return nil, core.ErrNotFound
	}

	return entry, nil
}

// Put stores an entry, replacing any previous one for the folder
func (s *SQLiteStore) Put(ctx context.Context, entry *core.FolderCacheEntry) error {
	addressesJSON, err := json.Marshal(entry.Addresses)
	if err != nil {
		return fmt.Errorf("failed to encode address list: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO folder_cache
			(folder_name, addresses, message_count, next_uid, uid_validity, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.FolderName, string(addressesJSON),
		entry.Fingerprint.MessageCount, entry.Fingerprint.NextUID, entry.Fingerprint.UIDValidity,
		entry.CachedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to write folder cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for a folder
func (s *SQLiteStore) Delete(ctx context.Context, folder string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM folder_cache
		WHERE folder_name = ?
	`, folder)

	if err != nil {
		return fmt.Errorf("failed to delete folder cache entry: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
