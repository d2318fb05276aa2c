package factory

import (
	"github.com/mikey/mail-sorter/internal/adapters/mailbox"
	"github.com/mikey/mail-sorter/internal/config"
	"go.uber.org/zap"
)

// MailboxFactory creates mailbox clients based on configuration
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailboxClient dials the configured IMAP server and returns the
// connected client
func (f *MailboxFactory) CreateMailboxClient() (*mailbox.Client, error) {
	imapCfg := f.cfg.GetIMAP()
	return mailbox.Dial(mailbox.Options{
		Host:     imapCfg.Host,
		Port:     imapCfg.Port,
		Username: imapCfg.Username,
		Password: imapCfg.Password,
		TLS:      imapCfg.TLS,
	}, f.logger)
}
