package routing

import (
	"context"
	"errors"

	"github.com/elektrine/mailroute/internal/address"
	"github.com/elektrine/mailroute/internal/models"
	"github.com/elektrine/mailroute/internal/repository"
)

// AliasDirectory is the read-only alias lookup the engine consumes. Lookups
// are keyed case-insensitively; absence is reported as
// repository.ErrNotFound.
type AliasDirectory interface {
	LookupByAddress(ctx context.Context, addr string) (*models.Alias, error)
}

// MailboxDirectory is the read-only mailbox lookup the engine consumes.
type MailboxDirectory interface {
	LookupByAddress(ctx context.Context, addr string) (*models.Mailbox, error)
	LookupByUsername(ctx context.Context, username string) (*models.Mailbox, error)
	LookupByUserID(ctx context.Context, userID uint) (*models.Mailbox, error)
}

// Engine performs the resolution walk: starting from an address, it
// alternates alias and mailbox lookups through a LoopGuard until it reaches
// a terminal Decision. The engine holds no mutable state between calls and
// is safe for concurrent use; all walk state lives on the call stack. It
// never retries and never logs.
type Engine struct {
	domains   address.DomainSet
	guard     LoopGuard
	aliases   AliasDirectory
	mailboxes MailboxDirectory
}

// NewEngine creates an Engine over the given supported-domain set and
// directories.
func NewEngine(domains address.DomainSet, aliases AliasDirectory, mailboxes MailboxDirectory) *Engine {
	return &Engine{
		domains:   domains,
		guard:     NewLoopGuard(domains),
		aliases:   aliases,
		mailboxes: mailboxes,
	}
}

// Domains returns the supported-domain set the engine routes for.
func (e *Engine) Domains() address.DomainSet {
	return e.domains
}

// Resolve resolves a raw recipient address to a terminal decision. The
// input may be any header form ("Name <addr>" or bare). Addresses outside
// the supported-domain set are rejected; inside the walk, leaving the set
// terminates as an external forward instead.
func (e *Engine) Resolve(ctx context.Context, rawRecipient string) Decision {
	addr, err := address.Canonicalize(rawRecipient)
	if err != nil {
		return RejectedDecision(ReasonInvalidAddress)
	}
	if !e.domains.Contains(addr.Domain) {
		return RejectedDecision(ReasonUnsupportedDomain)
	}
	return e.walk(ctx, addr, addr, nil, NewWalk())
}

// walk is the shared resolution loop. current is the address being looked
// up this hop; original is the untouched recipient preserved on forward
// decisions; extraOrigins are additional identity addresses checked at
// every hop (used by write-time dry runs for the record being written,
// which is not in the directory yet). The same Walk is threaded through
// all hops, which is what makes cross-type cycles (alias -> mailbox ->
// alias) detectable.
func (e *Engine) walk(ctx context.Context, current, original address.Address, extraOrigins []address.Address, w *Walk) Decision {
	for {
		if !e.domains.Contains(current.Domain) {
			return ForwardDecision(current, original)
		}

		// Alias lookup first, by base form (plus-tag stripped).
		alias, err := e.aliases.LookupByAddress(ctx, current.Base().String())
		switch {
		case err == nil:
			next, decision, done := e.stepAlias(ctx, alias, original, extraOrigins, w)
			if done {
				return decision
			}
			current = next
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return RejectedDecision(ReasonDirectoryUnavailable)
		}

		// No alias: mailbox lookup. Try the exact address first, then fall
		// back to the bare username; the directory treats any supported
		// domain as the same namespace, so cross-domain variants resolve
		// via the same path.
		mailbox, err := e.mailboxes.LookupByAddress(ctx, current.Base().String())
		if errors.Is(err, repository.ErrNotFound) {
			mailbox, err = e.mailboxes.LookupByUsername(ctx, current.Base().Local)
		}
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NotFoundDecision()
		case err != nil:
			return RejectedDecision(ReasonDirectoryUnavailable)
		}

		if !mailbox.ForwardingActive() {
			return LocalDecision(mailbox)
		}

		target, err := address.Canonicalize(*mailbox.ForwardTo)
		if err != nil {
			return RejectedDecision(ReasonInvalidAddress)
		}

		origins := append(e.domains.Variants(mailbox.Username), extraOrigins...)
		switch e.guard.Step(w, target, origins) {
		case StepLoopDetected:
			return RejectedDecision(ReasonLoopDetected)
		case StepMaxDepthExceeded:
			return RejectedDecision(ReasonMaxDepthExceeded)
		}
		current = target
	}
}

// stepAlias handles one alias hop. It returns either the next address to
// follow (done=false) or a terminal decision (done=true).
func (e *Engine) stepAlias(ctx context.Context, alias *models.Alias, original address.Address, extraOrigins []address.Address, w *Walk) (address.Address, Decision, bool) {
	if alias.Enabled && alias.HasTarget() {
		target, err := address.Canonicalize(*alias.TargetEmail)
		if err != nil {
			return address.Address{}, RejectedDecision(ReasonInvalidAddress), true
		}

		aliasAddr, err := address.Canonicalize(alias.AliasEmail)
		if err != nil {
			return address.Address{}, RejectedDecision(ReasonInvalidAddress), true
		}

		origins := append([]address.Address{aliasAddr}, extraOrigins...)
		switch e.guard.Step(w, target, origins) {
		case StepLoopDetected:
			return address.Address{}, RejectedDecision(ReasonLoopDetected), true
		case StepMaxDepthExceeded:
			return address.Address{}, RejectedDecision(ReasonMaxDepthExceeded), true
		}
		return target, Decision{}, false
	}

	// Disabled alias, or no target configured: deliver to the owner's own
	// mailbox.
	mailbox, err := e.mailboxes.LookupByUserID(ctx, alias.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return address.Address{}, RejectedDecision(ReasonAliasOwnerNoMailbox), true
	case err != nil:
		return address.Address{}, RejectedDecision(ReasonDirectoryUnavailable), true
	}
	return address.Address{}, LocalDecision(mailbox), true
}

// dryRun resolves from a proposed forwarding target as if the record owning
// recordOrigins were already configured, without requiring it to exist in
// the directory. Used by write-time validation.
func (e *Engine) dryRun(ctx context.Context, target address.Address, recordOrigins []address.Address) Decision {
	w := NewWalk()
	switch e.guard.Step(w, target, recordOrigins) {
	case StepLoopDetected:
		return RejectedDecision(ReasonLoopDetected)
	case StepMaxDepthExceeded:
		return RejectedDecision(ReasonMaxDepthExceeded)
	}
	return e.walk(ctx, target, target, recordOrigins, w)
}
