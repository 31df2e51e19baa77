package cloudsync

import "github.com/pkg/errors"

// The following sentinel errors correspond to the error kinds enumerated in
// spec.md §7. Providers signal these by returning (or wrapping, via
// errors.Wrap) one of these values; the engine classifies a returned error
// by walking errors.Is/errors.Cause against this table before deciding
// policy. This mirrors the teacher's heavy use of github.com/pkg/errors for
// wrap-with-context while preserving a matchable root cause.
var (
	// ErrNotFound indicates the operation's target is absent. The engine
	// swallows this in idempotent deletes, converts it to ExistsTrashed on
	// source reads, and uses it to trigger the parent-mkdir fallback in
	// create_synced.
	ErrNotFound = errors.New("cloudsync: object not found")

	// ErrExists indicates the operation's target already exists and
	// collides with what was requested. The engine uses this to trigger
	// split-conflict handling, rename-over-empty-folder, or a REQUEUE.
	ErrExists = errors.New("cloudsync: object already exists")

	// ErrDisconnected indicates a transport failure. The engine propagates
	// it; the caller may retry, and the engine re-ticks on the next loop
	// iteration.
	ErrDisconnected = errors.New("cloudsync: provider disconnected")

	// ErrAuthentication indicates an auth/token failure. This is fatal to
	// the provider session; the engine pauses that side until reconnect.
	ErrAuthentication = errors.New("cloudsync: provider authentication failed")

	// ErrCursor indicates the provider's event cursor is no longer
	// recognized. The caller must cold-walk and reset the cursor.
	ErrCursor = errors.New("cloudsync: event cursor invalid")

	// ErrNamespaceRule indicates a path violates provider-specific naming
	// rules. The engine surfaces this as a conflict and discards the
	// offending entry after logging.
	ErrNamespaceRule = errors.New("cloudsync: path violates provider namespace rules")
)

// IsNotFound reports whether err's root cause is ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsExists reports whether err's root cause is ErrExists.
func IsExists(err error) bool { return errors.Is(err, ErrExists) }

// IsDisconnected reports whether err's root cause is ErrDisconnected.
func IsDisconnected(err error) bool { return errors.Is(err, ErrDisconnected) }

// IsAuthentication reports whether err's root cause is ErrAuthentication.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }

// IsCursor reports whether err's root cause is ErrCursor.
func IsCursor(err error) bool { return errors.Is(err, ErrCursor) }

// IsNamespaceRule reports whether err's root cause is ErrNamespaceRule.
func IsNamespaceRule(err error) bool { return errors.Is(err, ErrNamespaceRule) }
