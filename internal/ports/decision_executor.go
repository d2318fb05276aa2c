package ports

import (
	"context"

	"github.com/mikey/mail-sorter/internal/core"
)

// DecisionExecutor defines the interface for applying classification
// decisions to the mailbox
type DecisionExecutor interface {
	// Execute applies one decision to one message
	Execute(ctx context.Context, uid uint32, decision core.Decision) error
}
