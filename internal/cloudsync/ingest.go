package cloudsync

import (
	"context"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync/logging"
)

// IngestEvent applies a single provider Event to state for the given side,
// the "event → state ingestion contract" named in spec.md §1. It is the
// sole translation point between the wire Event shape (§6) and
// SyncState.Update's parameters.
func IngestEvent(state *SyncState, side Side, ev Event) *SyncEntry {
	exists := ev.Exists
	var path *string
	if ev.Path != "" {
		p := ev.Path
		path = &p
	}
	var hash []byte
	if len(ev.Hash) > 0 {
		hash = ev.Hash
	}
	return state.Update(side, ev.OType, ev.Oid, UpdateEntryParams{
		Path:   path,
		Hash:   hash,
		Exists: &exists,
	})
}

// discardNamespaceViolation implements the ErrNamespaceRule policy of
// spec.md §7: "surface as a conflict; mark discarded after logging". If the
// offending event names an oid state already knows about, that entry is
// discarded outright rather than left pending, since the path it wants is
// one its own provider will never accept. An event for an oid state hasn't
// seen yet (a rejected creation) has nothing to discard.
func discardNamespaceViolation(state *SyncState, side Side, ev Event) {
	if ev.Oid == "" {
		return
	}
	ent := state.LookupOid(side, ev.Oid)
	if ent == nil {
		return
	}
	ent.Discard()
	_ = state.StorageUpdate(ent)
}

// PumpEvents drains p's event stream into state for side until ctx is
// cancelled, applying the engine-side policy spec.md §7 assigns to each
// error kind a provider's event stream can surface:
//
//   - ErrCursor: the provider's cursor is no longer recognized. PumpEvents
//     cold-walks rootPath to reseed state, then resubscribes to Events and
//     keeps pumping — "the caller must cold-walk and reset the cursor".
//   - ErrAuthentication: fatal to this provider session. PumpEvents stops
//     and returns the error without resubscribing — "the engine pauses
//     until reconnect"; the caller is responsible for constructing a
//     reconnected Provider and calling PumpEvents again.
//   - ErrNamespaceRule: the offending entry is surfaced as a conflict via
//     discardNamespaceViolation, then ingestion continues.
//   - anything else (including ErrDisconnected, which the provider is
//     expected to recover from on its own): logged and ignored, matching
//     §7's catch-all "treated as transient" policy.
func PumpEvents(ctx context.Context, state *SyncState, p Provider, side Side, rootPath string, log *logging.Logger) error {
pump:
	for {
		for result := range p.Events(ctx) {
			if result.Err != nil {
				switch {
				case IsCursor(result.Err):
					if log != nil {
						log.Warn(result.Err)
					}
					ColdWalk(ctx, state, p, side, rootPath, log)
					continue pump
				case IsAuthentication(result.Err):
					if log != nil {
						log.Error(result.Err)
					}
					return result.Err
				case IsNamespaceRule(result.Err):
					if log != nil {
						log.Warn(result.Err)
					}
					discardNamespaceViolation(state, side, result.Event)
				default:
					if log != nil {
						log.Warn(result.Err)
					}
				}
				continue
			}
			IngestEvent(state, side, result.Event)
		}
		select {
		case <-ctx.Done():
			return nil
		default:
			continue pump
		}
	}
}

// ColdWalk drains a one-shot Walk over path into state for side, used to
// seed state on startup or after a cursor-invalid error forces a reset. It
// blocks until the walk channel closes.
func ColdWalk(ctx context.Context, state *SyncState, p Provider, side Side, path string, log *logging.Logger) {
	for result := range p.Walk(ctx, path) {
		if result.Err != nil {
			if log != nil {
				log.Warn(result.Err)
			}
			continue
		}
		IngestEvent(state, side, result.Event)
	}
}
