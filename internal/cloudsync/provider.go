package cloudsync

import (
	"context"
	"io"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync/pathutil"
)

// EventResult pairs an Event with an error so that Events/Walk can stream
// failures inline with successes over a single channel, the same way a
// Python generator can raise mid-iteration. A non-nil Err always means the
// channel is about to close; Event is only meaningful when Err is nil.
type EventResult struct {
	Event Event
	Err   error
}

// Provider is the abstract object store contract consumed by the
// reconciliation engine, per spec.md §4.1. Concrete implementations (cloud
// SDKs, local filesystem watchers) are external collaborators outside this
// module's scope; only the interface and a reference in-memory
// implementation (internal/cloudsync/testutil) live here.
//
// Every method may block on I/O and may return one of the sentinel errors
// in errors.go (wrapped with context via github.com/pkg/errors) to signal
// one of the conditions in spec.md §7.
type Provider interface {
	// PathConfig returns the provider's path dialect (separator,
	// case-sensitivity, ...), used by the engine's path helpers.
	PathConfig() pathutil.Config

	// OidIsPath reports whether this provider's oid is itself the path
	// (as opposed to an opaque identifier stable across renames).
	OidIsPath() bool

	// Events returns a channel that is fed Event values as the provider
	// observes mutations, for as long as ctx remains live. The channel is
	// closed (after optionally delivering a final EventResult carrying a
	// terminal error) when ctx is cancelled or an unrecoverable error
	// occurs. Event order on this channel defines an observed
	// linearization for this provider; the engine does not assume any
	// ordering relationship to the other side's channel.
	Events(ctx context.Context) <-chan EventResult

	// Walk yields an EventResult for every existing descendant of path,
	// closing the returned channel when the walk completes or ctx is
	// cancelled. Used on cold start to seed state without waiting for live
	// events.
	Walk(ctx context.Context, path string) <-chan EventResult

	// InfoPath resolves a path to an ObjInfo, or returns (nil, nil) if
	// nothing exists there.
	InfoPath(ctx context.Context, path string) (*ObjInfo, error)

	// InfoOid resolves an oid to an ObjInfo, or returns (nil, nil) if the
	// object is gone.
	InfoOid(ctx context.Context, oid string) (*ObjInfo, error)

	// ExistsOid is a fast-path existence check by oid.
	ExistsOid(ctx context.Context, oid string) (bool, error)

	// ExistsPath is a fast-path existence check by path.
	ExistsPath(ctx context.Context, path string) (bool, error)

	// HashOid returns the current content hash for oid, or nil if the
	// object is missing. Unlike most other methods, a missing object is
	// not reported as an error here — it is indistinguishable from an
	// empty-hash response and the caller treats nil as "gone".
	HashOid(ctx context.Context, oid string) ([]byte, error)

	// Create uploads reader's content as a brand new object at path,
	// returning its resulting ObjInfo.
	Create(ctx context.Context, path string, reader io.Reader) (*ObjInfo, error)

	// Upload replaces the content of the object identified by oid with
	// reader's content, returning the resulting ObjInfo.
	Upload(ctx context.Context, oid string, reader io.Reader) (*ObjInfo, error)

	// Download writes the content of the object identified by oid to
	// writer.
	Download(ctx context.Context, oid string, writer io.Writer) error

	// Rename moves the object identified by oid to newPath, returning the
	// (possibly changed) oid of the object at its new location.
	Rename(ctx context.Context, oid string, newPath string) (string, error)

	// Mkdir creates a directory at path, returning its oid.
	Mkdir(ctx context.Context, path string) (string, error)

	// Delete removes the object identified by oid.
	Delete(ctx context.Context, oid string) error

	// Listdir yields the direct children of the directory identified by
	// oid.
	Listdir(ctx context.Context, oid string) ([]DirInfo, error)
}

// DownloadPath resolves path to an oid via InfoPath, then downloads it to
// writer. This is cloudsync/provider.py's Provider.download_path
// convenience (spec.md SUPPLEMENTED FEATURES #1): not part of the required
// Provider interface, but a trivial composition any provider author can use
// instead of re-deriving it.
func DownloadPath(ctx context.Context, p Provider, path string, writer io.Writer) error {
	info, err := p.InfoPath(ctx, path)
	if err != nil {
		return err
	}
	if info == nil || info.Oid == "" {
		return ErrNotFound
	}
	return p.Download(ctx, info.Oid, writer)
}

// infoProviderAdapter adapts a Provider to pathutil.InfoProvider so the
// engine can classify a parent path (missing vs. occupied by a file) via
// pathutil.VerifyParentFolder without that package depending on Provider.
type infoProviderAdapter struct{ p Provider }

func (a infoProviderAdapter) InfoPath(ctx context.Context, path string) (string, bool, bool, error) {
	info, err := a.p.InfoPath(ctx, path)
	if err != nil {
		return "", false, false, err
	}
	if info == nil {
		return "", false, false, nil
	}
	return info.Oid, info.OType == Directory, true, nil
}
