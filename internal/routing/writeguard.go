package routing

import (
	"context"

	"github.com/elektrine/mailroute/internal/address"
)

// WriteTimeGuard validates alias and mailbox forwarding configuration
// before it is persisted. It runs the same resolution walk as live
// delivery, seeded with the record being written, so a configuration that
// would cycle is rejected without ever touching the directory.
//
// The guard is a per-call correctness check only: callers must run it
// inside the same transaction scope as the subsequent persist, or two
// concurrent writes could each pass and jointly create a cycle.
type WriteTimeGuard struct {
	engine *Engine
}

// NewWriteTimeGuard creates a WriteTimeGuard backed by the given engine.
func NewWriteTimeGuard(engine *Engine) *WriteTimeGuard {
	return &WriteTimeGuard{engine: engine}
}

// ValidateAliasTarget checks a proposed alias forwarding target. An empty
// target is always valid: the alias then delivers to its owner's mailbox.
// Returns nil when safe to persist, or ErrInvalidAddress, ErrLoopDetected,
// ErrMaxDepthExceeded, or ErrDirectoryUnavailable.
func (g *WriteTimeGuard) ValidateAliasTarget(ctx context.Context, aliasEmail, targetEmail string) error {
	if targetEmail == "" {
		return nil
	}

	aliasAddr, err := address.Canonicalize(aliasEmail)
	if err != nil {
		return ErrInvalidAddress
	}
	target, err := address.Canonicalize(targetEmail)
	if err != nil {
		return ErrInvalidAddress
	}

	return g.dryRun(ctx, target, []address.Address{aliasAddr})
}

// ValidateMailboxForward checks a proposed mailbox forwarding target. The
// mailbox's identity spans every supported domain, so forwarding to any of
// its own domain variants is a self-forward and rejected as a loop.
func (g *WriteTimeGuard) ValidateMailboxForward(ctx context.Context, username, forwardTo string) error {
	if forwardTo == "" {
		return nil
	}

	target, err := address.Canonicalize(forwardTo)
	if err != nil {
		return ErrInvalidAddress
	}

	return g.dryRun(ctx, target, g.engine.Domains().Variants(username))
}

// dryRun runs the resolution walk from the proposed target and maps the
// outcome to a validation error. Local delivery, external forwarding, and
// not-found targets are all acceptable; only loops, depth overflows, bad
// addresses, and directory failures reject the write.
func (g *WriteTimeGuard) dryRun(ctx context.Context, target address.Address, recordOrigins []address.Address) error {
	return g.engine.dryRun(ctx, target, recordOrigins).Err()
}
