package config

import "time"

// IMAPConfig represents the configuration for the IMAP connection
type IMAPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
}

// FoldersConfig names the mailbox folders the sorter works with
type FoldersConfig struct {
	Inbox       string
	Junk        string
	ListDefault string
	Sent        string
	Keep        []string
	Filing      []string
}

// RulesConfig represents the statically configured identity rules
type RulesConfig struct {
	AllowedAddresses []string
	AllowedDomains   []string
	ListDomains      []string
	ListFolders      map[string]string
}

// ScanConfig bounds how far back folder scans look
type ScanConfig struct {
	LookbackMonths int
	Since          string
}

// CacheConfig represents the folder cache configuration
type CacheConfig struct {
	Enabled    bool
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Host:     c.GetString("imap.host"),
		Port:     c.GetString("imap.port"),
		Username: c.GetString("imap.username"),
		Password: c.GetString("imap.password"),
		TLS:      c.GetBool("imap.tls"),
	}
}

// GetFolders returns the folder configuration
func (c *Config) GetFolders() FoldersConfig {
	return FoldersConfig{
		Inbox:       c.GetString("folders.inbox"),
		Junk:        c.GetString("folders.junk"),
		ListDefault: c.GetString("folders.list_default"),
		Sent:        c.GetString("folders.sent"),
		Keep:        c.GetStringSlice("folders.keep"),
		Filing:      c.GetStringSlice("folders.filing"),
	}
}

// GetRules returns the static rule configuration
func (c *Config) GetRules() RulesConfig {
	return RulesConfig{
		AllowedAddresses: c.GetStringSlice("rules.allowed_addresses"),
		AllowedDomains:   c.GetStringSlice("rules.allowed_domains"),
		ListDomains:      c.GetStringSlice("rules.list_domains"),
		ListFolders:      c.GetStringMapString("rules.list_folders"),
	}
}

// GetScan returns the scan window configuration
func (c *Config) GetScan() ScanConfig {
	return ScanConfig{
		LookbackMonths: c.GetInt("scan.lookback_months"),
		Since:          c.GetString("scan.since"),
	}
}

// GetCache returns the folder cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Enabled:    c.GetBool("cache.enabled"),
		Type:       c.GetString("cache.type"),
		SQLitePath: c.GetString("cache.sqlite_path"),
		MySQLDSN:   c.GetString("cache.mysql_dsn"),
	}
}

// SinceTime resolves the scan cutoff: an explicit scan.since date wins,
// otherwise the cutoff is lookback_months before now.
func (s ScanConfig) SinceTime(now time.Time) time.Time {
	if s.Since != "" {
		if t, err := time.Parse("2006-01-02", s.Since); err == nil {
			return t
		}
	}
	months := s.LookbackMonths
	if months <= 0 {
		months = 12
	}
	return now.AddDate(0, -months, 0)
}
