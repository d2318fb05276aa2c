package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-sorter/internal/addrcache"
	"github.com/mikey/mail-sorter/internal/adapters/executor"
	"github.com/mikey/mail-sorter/internal/adapters/mailbox"
	"github.com/mikey/mail-sorter/internal/config"
	"github.com/mikey/mail-sorter/internal/core"
	"github.com/mikey/mail-sorter/internal/factory"
	"github.com/mikey/mail-sorter/internal/logging"
	"github.com/mikey/mail-sorter/internal/rules"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return nil, err
	}

	// Register folder cache store
	if err := container.Provide(func(f *factory.CacheFactory) (core.FolderCacheStore, error) {
		return f.CreateFolderCacheStore()
	}); err != nil {
		return nil, err
	}

	// Register mailbox client
	if err := container.Provide(func(f *factory.MailboxFactory) (*mailbox.Client, error) {
		return f.CreateMailboxClient()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *mailbox.Client) core.MailboxClient {
		return c
	}); err != nil {
		return nil, err
	}

	// Register address cache
	if err := container.Provide(func(
		client core.MailboxClient,
		store core.FolderCacheStore,
		logger *zap.Logger,
		f *factory.CacheFactory,
	) *addrcache.Cache {
		return addrcache.New(client, store, logger, f.IsCacheEnabled())
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *addrcache.Cache) rules.AddressSource {
		return c
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *addrcache.Cache) core.FingerprintToucher {
		return c
	}); err != nil {
		return nil, err
	}

	// Register rule context builder
	if err := container.Provide(rules.NewBuilder); err != nil {
		return nil, err
	}
	if err := container.Provide(func(b *rules.Builder) core.RuleSource {
		return b
	}); err != nil {
		return nil, err
	}

	// Register decision executor
	if err := container.Provide(func(c *mailbox.Client, cfg *config.Config, logger *zap.Logger) core.DecisionExecutor {
		return executor.New(c, cfg.GetFolders().Junk, logger, cfg.GetBool("sorter.dry_run"))
	}); err != nil {
		return nil, err
	}

	// Register sorter run parameters
	if err := container.Provide(func(cfg *config.Config) core.SorterConfig {
		folders := cfg.GetFolders()
		return core.SorterConfig{
			InboxFolder: folders.Inbox,
			JunkFolder:  folders.Junk,
			Since:       cfg.GetScan().SinceTime(time.Now()),
		}
	}); err != nil {
		return nil, err
	}

	// Register sorter service
	if err := container.Provide(core.NewSorterService); err != nil {
		return nil, err
	}

	return container, nil
}
