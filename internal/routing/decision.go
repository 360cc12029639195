// Package routing implements the mail delivery routing and resolution
// engine: the single algorithm that takes any recipient address and
// deterministically resolves it to local delivery, an external forward, a
// rejection, or not-found. The same engine backs inbound delivery, the
// outbound send path, and write-time validation of alias and forwarding
// configuration, so all of them agree on loop detection and address
// equivalence.
package routing

import (
	"errors"

	"github.com/elektrine/mailroute/internal/address"
	apperrors "github.com/elektrine/mailroute/internal/errors"
	"github.com/elektrine/mailroute/internal/models"
)

// DecisionKind is the terminal outcome of a resolution walk.
type DecisionKind int

const (
	// DecisionLocal delivers to a mailbox on this system.
	DecisionLocal DecisionKind = iota
	// DecisionForward hands the message off for external delivery.
	DecisionForward
	// DecisionRejected refuses the address with a reason code.
	DecisionRejected
	// DecisionNotFound means no alias or mailbox matched. Whether to
	// auto-provision, bounce, or drop is the calling pipeline's policy.
	DecisionNotFound
)

// RejectReason identifies why a resolution was rejected.
type RejectReason string

const (
	ReasonInvalidAddress        RejectReason = "INVALID_ADDRESS"
	ReasonUnsupportedDomain     RejectReason = "UNSUPPORTED_DOMAIN"
	ReasonLoopDetected          RejectReason = "LOOP_DETECTED"
	ReasonMaxDepthExceeded      RejectReason = "MAX_DEPTH_EXCEEDED"
	ReasonAliasOwnerNoMailbox   RejectReason = "ALIAS_OWNER_HAS_NO_MAILBOX"
	ReasonDirectoryUnavailable  RejectReason = "DIRECTORY_UNAVAILABLE"
	ReasonRouteMismatch         RejectReason = "ROUTE_MISMATCH"
)

// Validation errors returned by WriteTimeGuard and ValidateRoute are the
// shared sentinels from internal/errors. The live resolution path never
// returns errors; it returns Decision values.
var (
	ErrInvalidAddress       = apperrors.ErrInvalidAddress
	ErrUnsupportedDomain    = apperrors.ErrUnsupportedDomain
	ErrLoopDetected         = apperrors.ErrLoopDetected
	ErrMaxDepthExceeded     = apperrors.ErrMaxDepthExceeded
	ErrDirectoryUnavailable = apperrors.ErrDirectoryUnavailable
	ErrRouteMismatch        = apperrors.ErrRouteMismatch
)

// Decision is the terminal output of the resolution engine.
type Decision struct {
	Kind DecisionKind

	// Mailbox is set for DecisionLocal.
	Mailbox *models.Mailbox

	// Target is the external address to forward to, for DecisionForward.
	Target address.Address

	// Original is the recipient address as it appeared on the message,
	// untouched by alias or forwarding resolution. Set for DecisionForward
	// so downstream bookkeeping records where the forward came from.
	Original address.Address

	// Reason is set for DecisionRejected.
	Reason RejectReason
}

// LocalDecision builds a local-delivery decision.
func LocalDecision(mailbox *models.Mailbox) Decision {
	return Decision{Kind: DecisionLocal, Mailbox: mailbox}
}

// ForwardDecision builds an external-forward decision.
func ForwardDecision(target, original address.Address) Decision {
	return Decision{Kind: DecisionForward, Target: target, Original: original}
}

// RejectedDecision builds a rejection with the given reason.
func RejectedDecision(reason RejectReason) Decision {
	return Decision{Kind: DecisionRejected, Reason: reason}
}

// NotFoundDecision builds a not-found decision.
func NotFoundDecision() Decision {
	return Decision{Kind: DecisionNotFound}
}

// Err maps a rejection reason to its validation error. Returns nil for
// non-rejected decisions.
func (d Decision) Err() error {
	if d.Kind != DecisionRejected {
		return nil
	}
	switch d.Reason {
	case ReasonInvalidAddress:
		return ErrInvalidAddress
	case ReasonUnsupportedDomain:
		return ErrUnsupportedDomain
	case ReasonLoopDetected:
		return ErrLoopDetected
	case ReasonMaxDepthExceeded:
		return ErrMaxDepthExceeded
	case ReasonDirectoryUnavailable:
		return ErrDirectoryUnavailable
	case ReasonRouteMismatch:
		return ErrRouteMismatch
	default:
		return errors.New(string(d.Reason))
	}
}
