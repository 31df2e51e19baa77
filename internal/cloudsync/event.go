package cloudsync

import "time"

// Event is a single mutation notification from a provider's event stream,
// per spec.md §4.1/§6. The engine only ever looks at the post-event
// ObjInfo-equivalent carried in the event — it ignores whatever
// provider-specific event-type taxonomy (create/modify/move/...) a
// concrete provider might also expose.
type Event struct {
	// OType is the object's type, or NotKnown if the provider cannot
	// determine it from the event alone.
	OType OType
	// Oid is the object's stable identifier at the provider.
	Oid string
	// Path is the object's current path, if known.
	Path string
	// Hash is the object's current content hash (files only), if known.
	Hash []byte
	// Exists is the object's existence state as of this event.
	Exists Exists
	// Mtime is the provider-reported modification time, if any.
	Mtime time.Time
	// NewCursor advances this provider's durable, resumable cursor.
	NewCursor string
}

// ObjInfo is a point-in-time description of an object, returned by
// Provider.InfoPath / Provider.InfoOid.
type ObjInfo struct {
	// Oid is the object's stable identifier.
	Oid string
	// Path is the object's current path, if the provider can report one
	// outside of a directory listing.
	Path string
	// OType is the object's type.
	OType OType
	// Hash is the object's content hash (files only).
	Hash []byte
}

// DirInfo describes one child of a directory, as yielded by
// Provider.Listdir.
type DirInfo struct {
	// Oid is the child's stable identifier.
	Oid string
	// Name is the child's name within the directory (not a full path).
	Name string
	// OType is the child's type.
	OType OType
	// Hash is the child's content hash (files only).
	Hash []byte
}
