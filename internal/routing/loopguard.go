package routing

import (
	"github.com/elektrine/mailroute/internal/address"
)

// MaxDepth bounds every resolution walk. It is enforced independent of
// directory state, so even inconsistent reads across hops terminate.
const MaxDepth = 10

// StepResult is the outcome of one LoopGuard step.
type StepResult int

const (
	// StepContinue means the target is safe to follow.
	StepContinue StepResult = iota
	// StepLoopDetected means the target revisits an already-traversed
	// address or one of the walk's own origin addresses.
	StepLoopDetected
	// StepMaxDepthExceeded means the walk ran out of hops.
	StepMaxDepthExceeded
)

// Walk is the ephemeral state of one resolution call: the set of canonical
// addresses already traversed and the hops remaining. It is created per
// call, threaded through every hop, and never shared or persisted.
type Walk struct {
	visited   map[address.Address]struct{}
	remaining int
}

// NewWalk returns a fresh walk with the full depth budget.
func NewWalk() *Walk {
	return &Walk{
		visited:   make(map[address.Address]struct{}),
		remaining: MaxDepth,
	}
}

// Visited reports whether the walk has already traversed addr (base form).
func (w *Walk) Visited(addr address.Address) bool {
	_, ok := w.visited[addr.Base()]
	return ok
}

// Remaining returns the number of hops left in the budget.
func (w *Walk) Remaining() int {
	return w.remaining
}

// LoopGuard is the shared cycle-detection primitive. Alias validation,
// mailbox forwarding validation, and live delivery resolution all step
// through it with the same rules.
type LoopGuard struct {
	domains address.DomainSet
}

// NewLoopGuard creates a LoopGuard over the given supported-domain set.
func NewLoopGuard(domains address.DomainSet) LoopGuard {
	return LoopGuard{domains: domains}
}

// Step checks one forwarding hop. origins are all addresses denoting the
// resolving record's own identity: every supported-domain variant for a
// mailbox, the single alias address for an alias. On StepContinue the
// target has been recorded in the walk and one hop consumed; the caller
// performs the next lookup and steps again.
func (g LoopGuard) Step(w *Walk, target address.Address, origins []address.Address) StepResult {
	if w.remaining <= 0 {
		return StepMaxDepthExceeded
	}

	for _, origin := range origins {
		if g.domains.Equivalent(target, origin) {
			return StepLoopDetected
		}
	}

	key := target.Base()
	if _, ok := w.visited[key]; ok {
		return StepLoopDetected
	}

	w.visited[key] = struct{}{}
	w.remaining--
	return StepContinue
}
