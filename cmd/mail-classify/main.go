package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mikey/mail-sorter/internal/adapters/cachestore"
	"github.com/mikey/mail-sorter/internal/addrcache"
	"github.com/mikey/mail-sorter/internal/config"
	"github.com/mikey/mail-sorter/internal/core"
	"github.com/mikey/mail-sorter/internal/factory"
	"github.com/mikey/mail-sorter/internal/logging"
	"github.com/mikey/mail-sorter/internal/rules"
	"go.uber.org/zap"
)

var (
	// Input flags
	inputFile = flag.String("file", "", "Input email file (use stdin if not specified)")
	filing    = flag.Bool("filing", false, "Use the filing rule chain instead of incoming triage")

	// Rule override flags
	allowAddresses = flag.String("allow", "", "Comma-separated list of allowed addresses")
	allowDomains   = flag.String("allow-domains", "", "Comma-separated list of allowed domains")
	listDomains    = flag.String("list-domains", "", "Comma-separated list of mailing-list domains")

	// Logging flags
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(logger); err != nil {
		logger.Error("Classification failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// run classifies one message and releases all resources
func run(logger *zap.Logger) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(cfg)

	ctx := context.Background()

	// Classification is offline: rule folders are read from warm cache
	// entries only, never from the mailbox.
	store := openStore(cfg, logger)
	defer store.Close()

	source := addrcache.NewStoreOnly(store, logger)
	builder := rules.NewBuilder(source, cfg, logger)
	rc, err := builder.Build(ctx, cfg.GetScan().SinceTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to build rule context: %w", err)
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file %q: %w", *inputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	raw, err := io.ReadAll(emailReader)
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	view := core.NewMessageView(core.MessageRecord{RawHeader: raw})

	var decision core.Decision
	chain := "incoming"
	if *filing {
		chain = "filing"
		decision = core.ClassifyForFiling(view, rc)
	} else {
		decision = core.ClassifyIncoming(view, rc)
	}

	// Print results
	fmt.Printf("\n=== Message ===\n")
	fmt.Printf("From: %s\n", view.FromAddress)
	fmt.Printf("Domain: %s\n", view.FromDomain)
	fmt.Printf("Authentication header: %t\n", view.HasAuthHeader)
	fmt.Printf("Suspicious header: %t\n", view.HasSuspiciousHeader)

	fmt.Printf("\n=== Decision (%s) ===\n", chain)
	fmt.Printf("Action: %s\n", decision.Action)
	if decision.Action == core.ActionMove {
		fmt.Printf("Folder: %s\n", decision.Folder)
	}
	return nil
}

// applyOverrides layers command line rule overrides on top of the
// loaded configuration
func applyOverrides(cfg *config.Config) {
	v := cfg.GetViper()
	if *allowAddresses != "" {
		v.Set("rules.allowed_addresses", splitList(*allowAddresses))
	}
	if *allowDomains != "" {
		v.Set("rules.allowed_domains", splitList(*allowDomains))
	}
	if *listDomains != "" {
		v.Set("rules.list_domains", splitList(*listDomains))
	}
}

// openStore opens the configured cache store, falling back to an empty
// in-memory store when it is unavailable
func openStore(cfg *config.Config, logger *zap.Logger) core.FolderCacheStore {
	store, err := factory.NewCacheFactory(cfg, logger).CreateFolderCacheStore()
	if err != nil {
		logger.Warn("Folder cache store unavailable, classifying from configured rules only",
			zap.Error(err))
		return cachestore.NewMemoryStore(logger)
	}
	return store
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
