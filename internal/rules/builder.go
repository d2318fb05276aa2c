// Package rules builds the rule context a classification run uses:
// configured allow-lists and list-domain tables merged with addresses
// learned from the mailbox itself.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/mail-sorter/internal/config"
	"github.com/mikey/mail-sorter/internal/core"
	"go.uber.org/zap"
)

// AddressSource yields the addresses observed in a folder. Satisfied
// by the address cache, or by a store-only source for offline use.
type AddressSource interface {
	AddressesFor(ctx context.Context, folder string, field core.AddressField, since time.Time) ([]string, error)
}

// Builder assembles a RuleContext from configuration and folder scans:
//
//   - the sent folder's recipients and the keep folders' senders
//     become allowed addresses
//   - configured extra addresses, domains, and list-domain tables are
//     merged in
//   - each filing folder's senders map back to that folder, first
//     folder wins
type Builder struct {
	source  AddressSource
	folders config.FoldersConfig
	static  config.RulesConfig
	logger  *zap.Logger
}

// NewBuilder creates a new rule context builder
func NewBuilder(source AddressSource, cfg *config.Config, logger *zap.Logger) *Builder {
	return &Builder{
		source:  source,
		folders: cfg.GetFolders(),
		static:  cfg.GetRules(),
		logger:  logger,
	}
}

// Build assembles the rule context for one run, scanning no earlier
// than since. Scan failures propagate; a run with half-built rules
// would junk mail it has no business junking.
func (b *Builder) Build(ctx context.Context, since time.Time) (*core.RuleContext, error) {
	rc := core.NewRuleContext(b.folders.ListDefault)

	for _, addr := range b.static.AllowedAddresses {
		if normalized := core.NormalizeAddress(addr); normalized != "" {
			rc.AllowedAddresses[normalized] = struct{}{}
		}
	}
	for _, domain := range b.static.AllowedDomains {
		if normalized := core.NormalizeAddress(domain); normalized != "" {
			rc.AllowedDomains[normalized] = struct{}{}
		}
	}
	for _, domain := range b.static.ListDomains {
		if normalized := core.NormalizeAddress(domain); normalized != "" {
			rc.ListDomains[normalized] = struct{}{}
		}
	}
	for domain, folder := range b.static.ListFolders {
		if normalized := core.NormalizeAddress(domain); normalized != "" && folder != "" {
			rc.ListDomainFolders[normalized] = folder
		}
	}

	if b.folders.Sent != "" {
		addrs, err := b.source.AddressesFor(ctx, b.folders.Sent, core.FieldTo, since)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sent folder %q: %w", b.folders.Sent, err)
		}
		for _, addr := range addrs {
			rc.AllowedAddresses[addr] = struct{}{}
		}
	}

	for _, folder := range b.folders.Keep {
		addrs, err := b.source.AddressesFor(ctx, folder, core.FieldFrom, since)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keep folder %q: %w", folder, err)
		}
		for _, addr := range addrs {
			rc.AllowedAddresses[addr] = struct{}{}
		}
	}

	for _, folder := range b.folders.Filing {
		addrs, err := b.source.AddressesFor(ctx, folder, core.FieldFrom, since)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filing folder %q: %w", folder, err)
		}
		for _, addr := range addrs {
			if _, ok := rc.SenderFolders[addr]; !ok {
				rc.SenderFolders[addr] = folder
			}
		}
	}

	b.logger.Debug("Assembled rule context",
		zap.Int("allowed_addresses", len(rc.AllowedAddresses)),
		zap.Int("allowed_domains", len(rc.AllowedDomains)),
		zap.Int("list_domains", len(rc.ListDomains)),
		zap.Int("list_folders", len(rc.ListDomainFolders)),
		zap.Int("sender_folders", len(rc.SenderFolders)))
	return rc, nil
}
