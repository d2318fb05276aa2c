package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SorterConfig carries the run parameters the sorter service needs.
type SorterConfig struct {
	InboxFolder string
	JunkFolder  string
	Since       time.Time
}

// RunStats summarizes one sorting run.
type RunStats struct {
	Scanned int
	Kept    int
	Moved   int
	Junked  int
}

func (s *RunStats) count(d Decision) {
	switch d.Action {
	case ActionKeep:
		s.Kept++
	case ActionMove:
		s.Moved++
	case ActionJunk:
		s.Junked++
	}
}

// RunOptions selects which phases a run performs.
type RunOptions struct {
	Triage bool
	File   bool
	Unjunk bool
}

// SorterService drives classification runs against the mailbox. It is
// synchronous: messages are fetched and classified one folder at a
// time, and every decision is executed before the next message is
// considered.
type SorterService struct {
	client   MailboxClient
	rules    RuleSource
	executor DecisionExecutor
	toucher  FingerprintToucher
	logger   *zap.Logger
	cfg      SorterConfig
}

// NewSorterService creates a new sorter service
func NewSorterService(
	client MailboxClient,
	rules RuleSource,
	executor DecisionExecutor,
	toucher FingerprintToucher,
	logger *zap.Logger,
	cfg SorterConfig,
) *SorterService {
	return &SorterService{
		client:   client,
		rules:    rules,
		executor: executor,
		toucher:  toucher,
		logger:   logger,
		cfg:      cfg,
	}
}

// Run builds the rule context once and performs the selected phases.
func (s *SorterService) Run(ctx context.Context, opts RunOptions) (RunStats, error) {
	stats := RunStats{}

	rc, err := s.rules.Build(ctx, s.cfg.Since)
	if err != nil {
		return stats, fmt.Errorf("failed to build rule context: %w", err)
	}
	s.logger.Info("Built rule context",
		zap.Int("allowed_addresses", len(rc.AllowedAddresses)),
		zap.Int("allowed_domains", len(rc.AllowedDomains)),
		zap.Int("list_domains", len(rc.ListDomains)),
		zap.Int("sender_folders", len(rc.SenderFolders)))

	if opts.Triage {
		if err := s.triage(ctx, rc, &stats); err != nil {
			return stats, err
		}
	}

	touched := make(map[string]struct{})
	if opts.File {
		if err := s.refile(ctx, rc, s.cfg.InboxFolder, SearchCriteria{Since: s.cfg.Since, SeenOnly: true}, &stats, touched); err != nil {
			return stats, err
		}
	}
	if opts.Unjunk {
		if err := s.refile(ctx, rc, s.cfg.JunkFolder, SearchCriteria{Since: s.cfg.Since}, &stats, touched); err != nil {
			return stats, err
		}
	}

	// Sender-driven moves only added messages whose addresses the
	// destination's cached list already holds, so refreshing the
	// fingerprint spares the next run a full rescan.
	for folder := range touched {
		if err := s.toucher.TouchFingerprint(ctx, folder); err != nil {
			s.logger.Warn("Failed to touch folder fingerprint",
				zap.String("folder", folder), zap.Error(err))
		}
	}

	s.logger.Info("Run complete",
		zap.Int("scanned", stats.Scanned),
		zap.Int("kept", stats.Kept),
		zap.Int("moved", stats.Moved),
		zap.Int("junked", stats.Junked))
	return stats, nil
}

// triage classifies unseen inbox mail with the incoming rule chain.
func (s *SorterService) triage(ctx context.Context, rc *RuleContext, stats *RunStats) error {
	records, err := s.scanFolder(ctx, s.cfg.InboxFolder, SearchCriteria{Since: s.cfg.Since, UnseenOnly: true})
	if err != nil {
		return err
	}

	for _, rec := range records {
		view := NewMessageView(rec)
		decision := ClassifyIncoming(view, rc)
		s.logger.Debug("Classified incoming message",
			zap.Uint32("uid", rec.UID),
			zap.String("from", view.FromAddress),
			zap.String("action", decision.Action.String()),
			zap.String("folder", decision.Folder))
		if err := s.executor.Execute(ctx, rec.UID, decision); err != nil {
			return fmt.Errorf("failed to execute decision for uid %d: %w", rec.UID, err)
		}
		stats.Scanned++
		stats.count(decision)
	}
	return nil
}

// refile classifies messages already in a folder with the filing rule
// chain. Messages matching no rule are kept in place; for the junk
// folder that means they stay junked.
func (s *SorterService) refile(ctx context.Context, rc *RuleContext, folder string, criteria SearchCriteria, stats *RunStats, touched map[string]struct{}) error {
	records, err := s.scanFolder(ctx, folder, criteria)
	if err != nil {
		return err
	}

	for _, rec := range records {
		view := NewMessageView(rec)
		decision := ClassifyForFiling(view, rc)
		s.logger.Debug("Classified message for filing",
			zap.Uint32("uid", rec.UID),
			zap.String("source", folder),
			zap.String("from", view.FromAddress),
			zap.String("action", decision.Action.String()),
			zap.String("folder", decision.Folder))
		if err := s.executor.Execute(ctx, rec.UID, decision); err != nil {
			return fmt.Errorf("failed to execute decision for uid %d: %w", rec.UID, err)
		}
		// A list-domain move can carry a sender the destination's
		// cached address list has never seen; only sender-driven
		// moves leave that list valid.
		if decision.Action == ActionMove {
			if _, ok := rc.SenderFolders[view.FromAddress]; ok {
				touched[decision.Folder] = struct{}{}
			}
		}
		stats.Scanned++
		stats.count(decision)
	}
	return nil
}

// scanFolder selects a folder and fetches the records matching the
// criteria.
func (s *SorterService) scanFolder(ctx context.Context, folder string, criteria SearchCriteria) ([]MessageRecord, error) {
	if err := s.client.Select(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to select folder %q: %w", folder, err)
	}
	uids, err := s.client.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search folder %q: %w", folder, err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	records, err := s.client.Fetch(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from folder %q: %w", folder, err)
	}
	return records, nil
}
