package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/mail-sorter/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the FolderCacheStore
// interface, for deployments where several machines sort against the
// same mailbox. Writers are not serialized: last write wins.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL folder cache store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS folder_cache (
			folder_name VARCHAR(255) PRIMARY KEY,
			addresses TEXT NOT NULL,
			message_count INT UNSIGNED NOT NULL,
			next_uid INT UNSIGNED NOT NULL,
			uid_validity INT UNSIGNED NOT NULL,
			cached_at VARCHAR(35) NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the entry for a folder. Rows that cannot be decoded
// are reported as not found so the caller falls back to a rescan.
func (s *MySQLStore) Get(ctx context.Context, folder string) (*core.FolderCacheEntry, error) {
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
func (s *MySQLStore) Put(ctx context.Context, entry *core.FolderCacheEntry) error {
	addressesJSON, err := json.Marshal(entry.Addresses)
	if err != nil {
		return fmt.Errorf("failed to encode address list: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO folder_cache
			(folder_name, addresses, message_count, next_uid, uid_validity, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			addresses = VALUES(addresses),
			message_count = VALUES(message_count),
			next_uid = VALUES(next_uid),
			uid_validity = VALUES(uid_validity),
			cached_at = VALUES(cached_at)
	`, entry.FolderName, string(addressesJSON),
		entry.Fingerprint.MessageCount, entry.Fingerprint.NextUID, entry.Fingerprint.UIDValidity,
		entry.CachedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to write folder cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for a folder
func (s *MySQLStore) Delete(ctx context.Context, folder string) error {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
