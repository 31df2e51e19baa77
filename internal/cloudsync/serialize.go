package cloudsync

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// sideStateWire is the tagged-dictionary wire form of a SideState, per
// spec.md §6: hashes are hex-encoded, existence stores the enumeration's
// underlying tri-state value, and Changed is a Unix timestamp in seconds
// (or omitted when the side has no pending change) to match the original's
// "changed: Optional[float]" field. encoding/json is used rather than a
// third-party serialization library: the blob is an internal persistence
// format with no cross-language or schema-evolution requirement beyond what
// spec.md §9 already calls for (new fields default safely when absent),
// which plain struct-tag JSON already gives us.
type sideStateWire struct {
	Side     int     `json:"side"`
	Hash     string  `json:"hash,omitempty"`
	Changed  float64 `json:"changed,omitempty"`
	SyncHash string  `json:"sync_hash,omitempty"`
	Path     string  `json:"path,omitempty"`
	SyncPath string  `json:"sync_path,omitempty"`
	Oid      string  `json:"oid,omitempty"`
	Exists   int     `json:"exists"`
}

// entryWire is the tagged-dictionary wire form of a SyncEntry.
type entryWire struct {
	Side0     sideStateWire `json:"side0"`
	Side1     sideStateWire `json:"side1"`
	OType     string        `json:"otype"`
	TempFile  string        `json:"temp_file,omitempty"`
	Discarded bool          `json:"discarded"`
}

func sideStateToWire(s *SideState) sideStateWire {
	w := sideStateWire{
		Side:     int(s.Side),
		Path:     s.Path,
		SyncPath: s.SyncPath,
		Oid:      s.Oid,
		Exists:   int(s.Exists),
	}
	if len(s.Hash) > 0 {
		w.Hash = hex.EncodeToString(s.Hash)
	}
	if len(s.SyncHash) > 0 {
		w.SyncHash = hex.EncodeToString(s.SyncHash)
	}
	if !s.Changed.IsZero() {
		w.Changed = float64(s.Changed.UnixNano()) / 1e9
	}
	return w
}

func sideStateFromWire(w sideStateWire) (*SideState, error) {
	s := &SideState{
		Side:     Side(w.Side),
		Path:     w.Path,
		SyncPath: w.SyncPath,
		Oid:      w.Oid,
		Exists:   Exists(w.Exists),
	}
	if w.Hash != "" {
		h, err := hex.DecodeString(w.Hash)
		if err != nil {
			return nil, errors.Wrap(err, "invalid hash encoding")
		}
		s.Hash = h
	}
	if w.SyncHash != "" {
		h, err := hex.DecodeString(w.SyncHash)
		if err != nil {
			return nil, errors.Wrap(err, "invalid sync_hash encoding")
		}
		s.SyncHash = h
	}
	if w.Changed != 0 {
		sec := int64(w.Changed)
		nsec := int64((w.Changed - float64(sec)) * 1e9)
		s.Changed = time.Unix(sec, nsec)
	}
	return s, nil
}

// Serialize converts the entry into its tagged-dictionary wire form,
// matching cloudsync/sync.py's SyncEntry.serialize. The persistence id is
// never included — per spec.md §4.2, storage_id is injected on
// deserialization only.
func (e *SyncEntry) Serialize() ([]byte, error) {
	w := entryWire{
		Side0:     sideStateToWire(e.Get(Local)),
		Side1:     sideStateToWire(e.Get(Remote)),
		OType:     e.OType.String(),
		TempFile:  e.TempFile,
		Discarded: e.Discarded,
	}
	return json.Marshal(w)
}

// DeserializeSyncEntry reconstructs a SyncEntry from a persisted blob and
// storage id, matching cloudsync/sync.py's SyncEntry.deserialize /
// storage_init constructor path. The returned entry is clean (Dirty=false).
func DeserializeSyncEntry(storageID string, blob []byte) (*SyncEntry, error) {
	var w entryWire
	if err := json.Unmarshal(blob, &w); err != nil {
		return nil, errors.Wrap(err, "invalid sync entry encoding")
	}
	s0, err := sideStateFromWire(w.Side0)
	if err != nil {
		return nil, err
	}
	s1, err := sideStateFromWire(w.Side1)
	if err != nil {
		return nil, err
	}
	s0.Side, s1.Side = Local, Remote
	return &SyncEntry{
		states:    [2]*SideState{s0, s1},
		OType:     otypeFromString(w.OType),
		TempFile:  w.TempFile,
		Discarded: w.Discarded,
		StorageID: storageID,
		Dirty:     false,
	}, nil
}
