package cloudsync

// OType identifies the kind of object a SyncEntry tracks.
type OType int

const (
	// NotKnown indicates the object's type has not yet been determined.
	NotKnown OType = iota
	// File indicates a regular file with content and a hash.
	File
	// Directory indicates a directory, which has no hash and whose
	// existence is tracked instead of its content.
	Directory
)

// String renders the object type for logging and serialization.
func (t OType) String() string {
	switch t {
	case File:
		return "file"
	case Directory:
		return "dir"
	default:
		return "unknown"
	}
}

// otypeFromString is the inverse of OType.String, used when deserializing.
func otypeFromString(s string) OType {
	switch s {
	case "file":
		return File
	case "dir":
		return Directory
	default:
		return NotKnown
	}
}

// Exists is a three-valued existence enumeration. Per spec.md §3, boolean
// coercion is forbidden: comparisons must be explicit equality checks
// against one of the three values below. Go has no operator-overloading
// escape hatch to panic on `if x {}` the way the Python original's
// `__bool__` raise does, so the discipline is enforced by never giving
// Exists an underlying bool representation and by ExistsFromBool being the
// only sanctioned way to produce one from a boolean source value.
type Exists int

const (
	// ExistsUnknown indicates no existence information has been observed.
	ExistsUnknown Exists = iota
	// ExistsYes indicates the object is known to exist.
	ExistsYes
	// ExistsTrashed indicates the object is known to have been deleted.
	ExistsTrashed
)

// String renders the existence state for logging.
func (e Exists) String() string {
	switch e {
	case ExistsUnknown:
		return "unknown"
	case ExistsYes:
		return "exists"
	case ExistsTrashed:
		return "trashed"
	default:
		return "invalid-exists"
	}
}

// ExistsFromBool maps the setter semantics described in spec.md §3: true
// becomes ExistsYes, false becomes ExistsTrashed. There is no sanctioned
// mapping from "null" here because Go's bool has no third value — callers
// wanting ExistsUnknown must set it directly.
func ExistsFromBool(b bool) Exists {
	if b {
		return ExistsYes
	}
	return ExistsTrashed
}

