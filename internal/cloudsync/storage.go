package cloudsync

// Storage is the persistence contract of spec.md §6: four operations over
// opaque byte blobs keyed by a tag (the sync-pair name) and a persistence
// id. The engine tags persistence by sync-pair name and treats the id as
// opaque. The persistence backend itself is explicitly out of scope per
// spec.md §1 — only this interface, plus a couple of reference
// implementations for tests and the demo CLI, live in this module (see
// internal/cloudsync/storage).
type Storage interface {
	// Create upserts a new blob under tag and returns its persistence id.
	Create(tag string, blob []byte) (string, error)

	// Update overwrites the blob at id under tag.
	Update(tag string, blob []byte, id string) error

	// Delete removes the blob at id under tag.
	Delete(tag string, id string) error

	// ReadAll returns every persisted blob under tag, keyed by persistence
	// id.
	ReadAll(tag string) (map[string][]byte, error)
}

// Translator maps a path on one side to its counterpart on the opposite
// side, per spec.md §6. A nil error and empty string together mean
// "ignore" (the original's None return) — the engine silently drops such
// changes, and they may reappear if the translation later becomes
// non-empty. targetSide is the side the returned path is expressed in.
type Translator func(targetSide Side, pathOnSourceSide string) (string, error)

// ignoreTranslation is the sentinel empty-string-and-nil-error pair a
// Translator returns to mean "do not propagate this path". It exists only
// as a readability aid at call sites.
const ignoreTranslation = ""
