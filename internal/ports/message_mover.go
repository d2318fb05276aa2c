package ports

import (
	"context"
)

// MessageMover defines the mailbox mutations the decision executor
// needs. All operations act on the currently selected folder.
type MessageMover interface {
	// Move moves messages to another folder
	Move(ctx context.Context, uids []uint32, folder string) error

	// AddFlags adds flags to messages
	AddFlags(ctx context.Context, uids []uint32, flags []string) error

	// Expunge permanently removes deleted messages
	Expunge(ctx context.Context) error
}
