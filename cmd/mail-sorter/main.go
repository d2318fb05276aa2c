package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/mail-sorter/internal/adapters/mailbox"
	"github.com/mikey/mail-sorter/internal/core"
	"github.com/mikey/mail-sorter/internal/di"
	"go.uber.org/zap"
)

var mode = flag.String("mode", "all", "Run mode (triage, file, unjunk, all)")

func main() {
	flag.Parse()

	opts, err := runOptions(*mode)
	if err != nil {
		fmt.Printf("Invalid mode: %v\n", err)
		os.Exit(1)
	}

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(func(
		logger *zap.Logger,
		service *core.SorterService,
		client *mailbox.Client,
		store core.FolderCacheStore,
	) error {
		return run(logger, service, client, store, opts)
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run performs one sorting run and releases all resources
func run(
	logger *zap.Logger,
	service *core.SorterService,
	client *mailbox.Client,
	store core.FolderCacheStore,
	opts core.RunOptions,
) error {
	defer logger.Sync()

	// Interrupts cancel the run between messages
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := service.Run(ctx, opts)
	if err != nil {
		logger.Error("Sorting run failed", zap.Error(err))
	}

	if cerr := client.Close(); cerr != nil {
		logger.Error("Failed to close mailbox connection", zap.Error(cerr))
	}
	if cerr := store.Close(); cerr != nil {
		logger.Error("Failed to close folder cache store", zap.Error(cerr))
	}

	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d messages: %d kept, %d moved, %d junked\n",
		stats.Scanned, stats.Kept, stats.Moved, stats.Junked)
	return nil
}

// runOptions maps the -mode flag onto run phases
func runOptions(mode string) (core.RunOptions, error) {
	switch mode {
	case "triage":
		return core.RunOptions{Triage: true}, nil
	case "file":
		return core.RunOptions{File: true}, nil
	case "unjunk":
		return core.RunOptions{Unjunk: true}, nil
	case "all":
		return core.RunOptions{Triage: true, File: true, Unjunk: true}, nil
	default:
		return core.RunOptions{}, fmt.Errorf("unknown mode %q", mode)
	}
}
