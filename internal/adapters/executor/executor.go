// Package executor applies classification decisions to the mailbox.
package executor

import (
	"context"
	"fmt"

	"github.com/mikey/mail-sorter/internal/core"
	"github.com/mikey/mail-sorter/internal/ports"
	"go.uber.org/zap"
)

const flagSeen = "\\Seen"

var _ ports.DecisionExecutor = (*Executor)(nil)

// Executor translates Decisions into mailbox mutations: keep is a
// no-op, move relocates the message, junk marks it seen and moves it
// to the junk folder. In dry-run mode every mutation is logged but
// nothing is changed.
type Executor struct {
	mover      ports.MessageMover
	junkFolder string
	logger     *zap.Logger
	dryRun     bool
}

// New creates a new decision executor
func New(mover ports.MessageMover, junkFolder string, logger *zap.Logger, dryRun bool) *Executor {
	return &Executor{
		mover:      mover,
		junkFolder: junkFolder,
		logger:     logger,
		dryRun:     dryRun,
	}
}

// Execute applies one decision to one message
func (e *Executor) Execute(ctx context.Context, uid uint32, decision core.Decision) error {
	switch decision.Action {
	case core.ActionKeep:
		return nil

	case core.ActionMove:
		if e.dryRun {
			e.logger.Info("Dry run: would move message",
				zap.Uint32("uid", uid), zap.String("folder", decision.Folder))
			return nil
		}
		if err := e.mover.Move(ctx, []uint32{uid}, decision.Folder); err != nil {
			return fmt.Errorf("failed to move message %d to %q: %w", uid, decision.Folder, err)
		}
		return nil

	case core.ActionJunk:
		if e.dryRun {
			e.logger.Info("Dry run: would junk message",
				zap.Uint32("uid", uid), zap.String("folder", e.junkFolder))
			return nil
		}
		// Junked mail should not sit unread in the junk folder
		if err := e.mover.AddFlags(ctx, []uint32{uid}, []string{flagSeen}); err != nil {
			e.logger.Warn("Failed to mark message seen before junking",
				zap.Uint32("uid", uid), zap.Error(err))
		}
		if err := e.mover.Move(ctx, []uint32{uid}, e.junkFolder); err != nil {
			return fmt.Errorf("failed to junk message %d: %w", uid, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown decision action %d", decision.Action)
	}
}
