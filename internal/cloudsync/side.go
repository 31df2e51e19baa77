package cloudsync

// Side identifies one of the two participants in a sync pair. Values are
// labels, not physical locations — "local" and "remote" are conventional
// names for side 0 and side 1, but the engine treats both sides uniformly.
type Side int

const (
	// Local is side 0.
	Local Side = 0
	// Remote is side 1.
	Remote Side = 1
)

// Other returns the side opposite to s.
func (s Side) Other() Side {
	return 1 - s
}

// String renders the side as "local" or "remote" for logging.
func (s Side) String() string {
	switch s {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "invalid-side"
	}
}
