package routing

import (
	"context"

	"github.com/elektrine/mailroute/internal/address"
)

// Classification is the outbound routing class of a message's recipient
// set as a whole.
type Classification string

const (
	// ClassificationInternal means every recipient is on a supported
	// domain and none resolve to an external forward.
	ClassificationInternal Classification = "internal"
	// ClassificationExternal means at least one recipient leaves the
	// system.
	ClassificationExternal Classification = "external"
)

// OutboundRoutingClassifier wraps the engine for the send path. A message
// is first classified as a whole; internally classified messages are then
// routed per recipient, because a single recipient with a forward
// configured may still terminate externally.
type OutboundRoutingClassifier struct {
	engine *Engine
}

// NewOutboundRoutingClassifier creates an OutboundRoutingClassifier.
func NewOutboundRoutingClassifier(engine *Engine) *OutboundRoutingClassifier {
	return &OutboundRoutingClassifier{engine: engine}
}

// Classify classifies a recipient set. Internal iff every address is on a
// supported domain and none resolve to ForwardExternal. Unparseable
// addresses classify the message external; the transport will bounce them.
func (c *OutboundRoutingClassifier) Classify(ctx context.Context, recipients []string) Classification {
	domains := c.engine.Domains()

	for _, raw := range recipients {
		addr, err := address.Canonicalize(raw)
		if err != nil || !domains.Contains(addr.Domain) {
			return ClassificationExternal
		}
		if c.engine.Resolve(ctx, raw).Kind == DecisionForward {
			return ClassificationExternal
		}
	}
	return ClassificationInternal
}

// ResolvePerRecipient routes one To/Cc/Bcc recipient of an internally
// classified message. The result may still be an external forward for that
// one recipient.
func (c *OutboundRoutingClassifier) ResolvePerRecipient(ctx context.Context, recipient string) Decision {
	return c.engine.Resolve(ctx, recipient)
}

// SelfEmailCheck reports whether every recipient resolves to the sender's
// own mailbox, accounting for cross-domain and alias-owned identity. Used
// to store one combined sent+received record instead of separate delivery
// records. Any recipient that forwards externally, fails to resolve, or
// lands in another mailbox makes this false.
func (c *OutboundRoutingClassifier) SelfEmailCheck(ctx context.Context, sender string, recipients []string) bool {
	if len(recipients) == 0 {
		return false
	}

	senderDecision := c.engine.Resolve(ctx, sender)
	if senderDecision.Kind != DecisionLocal {
		return false
	}

	for _, raw := range recipients {
		decision := c.engine.Resolve(ctx, raw)
		if decision.Kind != DecisionLocal {
			return false
		}
		if decision.Mailbox.ID != senderDecision.Mailbox.ID {
			return false
		}
	}
	return true
}
