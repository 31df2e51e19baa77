package cloudsync

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// SideState is the per-side half of a SyncEntry, per spec.md §3. Field
// names match the original's SideState attributes; sync_oid is implicit
// via Oid (the original noted this too — there is no separate sync_oid
// field, oid identity is assumed stable once assigned).
type SideState struct {
	// Side is which side this state belongs to, carried for assertions
	// only (state[i].side == i is Invariant 1).
	Side Side
	// Oid is the stable identifier at this provider.
	Oid string
	// Path is the current path at this provider.
	Path string
	// Hash is the current content hash at this provider (files only).
	Hash []byte
	// Exists is EXISTS / TRASHED / UNKNOWN.
	Exists Exists
	// Changed is the time of the last unhandled change, or the zero Time
	// when the entry is in sync from this side's perspective.
	Changed time.Time
	// SyncPath is the path as last successfully propagated to / observed
	// on this side.
	SyncPath string
	// SyncHash is the hash as last successfully propagated.
	SyncHash []byte
}

// newSideState constructs a zero-valued SideState for the given side.
func newSideState(side Side) *SideState {
	return &SideState{Side: side}
}

// hasChanged reports whether this side has a pending, unhandled change.
func (s *SideState) hasChanged() bool {
	return !s.Changed.IsZero()
}

// SyncEntry is a pair of SideStates plus the metadata spec.md §3 specifies:
// object type, a discarded flag, a cached temp file path for in-flight
// transfer, and a persistence id. It is grounded on cloudsync/sync.py's
// SyncEntry class, generalized from __getitem__/__setitem__ duck-typed
// indexing to an explicit accessor pair since Go has no operator overload.
type SyncEntry struct {
	states    [2]*SideState
	OType     OType
	TempFile  string
	Discarded bool
	StorageID string
	Dirty     bool
}

// NewSyncEntry creates a fresh, dirty SyncEntry of the given type.
func NewSyncEntry(otype OType) *SyncEntry {
	return &SyncEntry{
		states: [2]*SideState{newSideState(Local), newSideState(Remote)},
		OType:  otype,
		Dirty:  true,
	}
}

// Get returns the SideState for side i (panics on an invalid side, since
// that is a programming error per spec.md §7's "Programming / assertion"
// error kind, not a recoverable condition).
func (e *SyncEntry) Get(i Side) *SideState {
	if i != Local && i != Remote {
		panic(fmt.Sprintf("cloudsync: invalid side %v", i))
	}
	return e.states[i]
}

// Set replaces the SideState for side i, enforcing Invariant 1
// (state[i].side == i).
func (e *SyncEntry) Set(i Side, s *SideState) {
	if s.Side != i {
		panic(fmt.Sprintf("cloudsync: side state side mismatch: slot %v, state.Side %v", i, s.Side))
	}
	e.states[i] = s
	e.Dirty = true
}

// GetLatestState refreshes hash (files) or existence (directories) from the
// providers for each side whose Changed is set, per spec.md §4.2.
func (e *SyncEntry) GetLatestState(ctx context.Context, providers [2]Provider) error {
	for _, i := range []Side{Local, Remote} {
		st := e.Get(i)
		if !st.hasChanged() {
			continue
		}
		if e.OType == File {
			hash, err := providers[i].HashOid(ctx, st.Oid)
			if err != nil {
				return err
			}
			st.Hash = hash
			if len(hash) > 0 {
				st.Exists = ExistsYes
			} else {
				st.Exists = ExistsTrashed
			}
		} else {
			exists, err := providers[i].ExistsOid(ctx, st.Oid)
			if err != nil {
				return err
			}
			st.Exists = ExistsFromBool(exists)
		}
		e.Dirty = true
	}
	return nil
}

// HashConflict reports whether both sides have a hash that differs from
// their recorded SyncHash — a genuine concurrent content edit, per
// spec.md §4.2.
func (e *SyncEntry) HashConflict() bool {
	l, r := e.Get(Local), e.Get(Remote)
	if len(l.Hash) > 0 && len(r.Hash) > 0 {
		return !bytesEqual(l.Hash, l.SyncHash) && !bytesEqual(r.Hash, r.SyncHash)
	}
	return false
}

// PathConflict reports whether both sides have a path that differs from
// their recorded SyncPath — both sides renamed the same object, per
// spec.md §4.2.
func (e *SyncEntry) PathConflict() bool {
	l, r := e.Get(Local), e.Get(Remote)
	if l.Path != "" && r.Path != "" {
		return l.Path != l.SyncPath && r.Path != r.SyncPath
	}
	return false
}

// IsPathChange reports whether side's live path differs from its recorded
// sync path (Invariant 6).
func (e *SyncEntry) IsPathChange(side Side) bool {
	st := e.Get(side)
	return st.Path != st.SyncPath
}

// IsCreation reports whether side has never had a path successfully
// propagated (Invariant 6).
func (e *SyncEntry) IsCreation(side Side) bool {
	return e.Get(side).SyncPath == ""
}

// Discard marks the entry for removal at the next persistence write
// (Invariant 4).
func (e *SyncEntry) Discard() {
	e.Discarded = true
	e.Dirty = true
}

// bytesEqual compares two byte hashes by length and content, so a nil hash
// and an empty one compare equal (HashConflict separately requires both
// sides to have a non-empty hash before comparing against sync state).
func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Pretty renders a compact, fixed-column debug summary of the entry, the
// Go counterpart of cloudsync/sync.py's SyncEntry.pretty (spec.md
// SUPPLEMENTED FEATURES #5). Relative times use humanize.Time instead of
// the original's raw modulo-300-seconds hack.
func (e *SyncEntry) Pretty() string {
	if e.Discarded {
		return "DISCARDED"
	}

	changedStr := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	}

	l, r := e.Get(Local), e.Get(Remote)
	return fmt.Sprintf(
		"S%3s I%6s T%6s  L[C%14s P%24s O%6s SP%24s:%s]  R[C%14s P%24s O%6s SP%24s:%s]  D%s",
		DebugSig(fmt.Sprintf("%p", e)),
		e.StorageID,
		e.OType,
		changedStr(l.Changed), l.Path, DebugSig(l.Oid), l.SyncPath, l.Exists,
		changedStr(r.Changed), r.Path, DebugSig(r.Oid), r.SyncPath, r.Exists,
		boolFlag(e.Discarded),
	)
}

func boolFlag(b bool) string {
	if b {
		return "T"
	}
	return "F"
}
