package cloudsync

import (
	"context"
	"time"
)

// Runnable is the cooperative worker contract of spec.md §4.5: something
// with a Do tick and a Done teardown. SyncManager implements it.
type Runnable interface {
	// Do performs one unit of work, returning an error if the tick failed
	// in a way the caller should know about (the loop itself keeps going
	// regardless — see Run).
	Do(ctx context.Context) error
	// Done performs teardown once the run loop exits.
	Done()
}

// hasChanges is implemented by components (namely SyncState) that can tell
// Run whether there's pending work, so it can avoid a busy-loop when idle.
type hasChanges interface {
	HasChanges() bool
}

// DefaultIdleYield is how long Run sleeps between ticks when there is no
// pending work and the caller passes a zero idleYield, per spec.md §4.5
// ("yielding briefly between ticks when the state has no changes").
const DefaultIdleYield = 10 * time.Millisecond

// Run drives r in a loop — `while not until(): do()` — until either ctx is
// cancelled or until returns true, then calls r.Done(). If state is
// non-nil and reports no pending changes, Run sleeps idleYield (or
// DefaultIdleYield, if idleYield is zero) before the next tick rather than
// spinning. Matches cloudsync/runnable.py's Runnable base class as used by
// SyncManager.
func Run(ctx context.Context, r Runnable, state hasChanges, idleYield time.Duration, until func() bool) {
	if idleYield <= 0 {
		idleYield = DefaultIdleYield
	}
	defer r.Done()
	for {
		if until != nil && until() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := r.Do(ctx); err != nil {
			// Errors are surfaced via the manager's own logger; Run itself
			// keeps the loop alive per spec.md §7's propagation policy
			// ("any non-enumerated exception from a provider is treated as
			// transient... the entry is left in the changeset for a later
			// tick").
			_ = err
		}

		if state != nil && !state.HasChanges() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleYield):
			}
		}
	}
}
