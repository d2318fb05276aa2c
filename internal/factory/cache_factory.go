package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/mail-sorter/internal/adapters/cachestore"
	"github.com/mikey/mail-sorter/internal/config"
	"github.com/mikey/mail-sorter/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates folder cache stores based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFolderCacheStore creates a folder cache store based on the configuration
func (f *CacheFactory) CreateFolderCacheStore() (core.FolderCacheStore, error) {
	cacheCfg := f.cfg.GetCache()

	switch cacheCfg.Type {
	case "memory":
		return cachestore.NewMemoryStore(f.logger), nil
	case "sqlite":
		sqlitePath := cacheCfg.SQLitePath
		if sqlitePath == "" {
			sqlitePath = filepath.Join(f.cfg.GetString("storage.data_dir"), "folder_cache.db")
		}
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cachestore.NewSQLiteStore(sqlitePath, f.logger)
	case "mysql":
		return cachestore.NewMySQLStore(cacheCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

// IsCacheEnabled returns whether folder caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
