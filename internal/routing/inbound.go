package routing

import (
	"context"
	"errors"

	"github.com/elektrine/mailroute/internal/address"
	"github.com/elektrine/mailroute/internal/models"
	"github.com/elektrine/mailroute/internal/repository"
)

// InboundRouteResolver routes inbound messages. It picks the right
// recipient from the (To, Rcpt-To) pair, delegates to the engine, and
// provides a final addressed-to-this-mailbox check applied immediately
// before a message is persisted.
type InboundRouteResolver struct {
	engine  *Engine
	aliases AliasDirectory
}

// NewInboundRouteResolver creates an InboundRouteResolver.
func NewInboundRouteResolver(engine *Engine, aliases AliasDirectory) *InboundRouteResolver {
	return &InboundRouteResolver{engine: engine, aliases: aliases}
}

// Resolve resolves an inbound message's recipient. The envelope recipient
// (rcptTo) is preferred over the header To when it denotes a supported
// domain: with mailing lists the To header carries the list address while
// the envelope carries the actual subscriber.
func (r *InboundRouteResolver) Resolve(ctx context.Context, to, rcptTo string) Decision {
	chosen := r.pickRecipient(to, rcptTo)
	if chosen == "" {
		return RejectedDecision(ReasonInvalidAddress)
	}
	return r.engine.Resolve(ctx, chosen)
}

// pickRecipient selects between the header To and the envelope Rcpt-To.
func (r *InboundRouteResolver) pickRecipient(to, rcptTo string) string {
	domains := r.engine.Domains()

	if rcptTo != "" {
		if addr, err := address.Canonicalize(rcptTo); err == nil && domains.Contains(addr.Domain) {
			return rcptTo
		}
	}
	if to != "" {
		if addr, err := address.Canonicalize(to); err == nil && domains.Contains(addr.Domain) {
			return to
		}
	}

	// Neither is on a supported domain; hand the engine whichever parses
	// so the rejection reason is accurate.
	for _, raw := range []string{rcptTo, to} {
		if raw == "" {
			continue
		}
		if _, err := address.Canonicalize(raw); err == nil {
			return raw
		}
	}
	return ""
}

// ValidateRoute confirms that a message carrying the given To / Rcpt-To
// addresses is actually addressed to candidate: directly, via plus-address
// or cross-domain equivalence, or via an alias owned by the same user.
// This is a defense-in-depth gate run immediately before persistence,
// independent of how the mailbox was selected. Returns nil when the route
// checks out, ErrRouteMismatch otherwise.
func (r *InboundRouteResolver) ValidateRoute(ctx context.Context, to, rcptTo string, candidate *models.Mailbox) error {
	domains := r.engine.Domains()

	for _, raw := range []string{rcptTo, to} {
		if raw == "" {
			continue
		}
		addr, err := address.Canonicalize(raw)
		if err != nil {
			continue
		}

		// Direct match against any of the mailbox's own addresses.
		for _, own := range domains.Variants(candidate.Username) {
			if domains.Equivalent(addr, own) {
				return nil
			}
		}

		// Alias owned by the same user as the mailbox.
		alias, err := r.aliases.LookupByAddress(ctx, addr.Base().String())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return ErrDirectoryUnavailable
		}
		if candidate.OwnedBy(alias.UserID) {
			return nil
		}
	}

	return ErrRouteMismatch
}
