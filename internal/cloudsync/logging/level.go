package logging

// Level orders how verbose a Logger is, from completely silent up to the
// per-tick reconciliation tracing SyncManager/SyncState emit. Levels are
// comparable by value: output is emitted when, and only when, its own
// level is less than or equal to the Logger's configured level.
type Level uint

const (
	// LevelDisabled silences a Logger entirely, including fatal errors.
	LevelDisabled Level = iota
	// LevelError surfaces only conditions spec.md §7 classifies as fatal to
	// a provider session (authentication failure) — the engine has nothing
	// useful to do but stop pumping that side and wait for reconnection.
	LevelError
	// LevelWarn adds recoverable, per-event problems: a provider error the
	// engine treats as transient, a discarded namespace-rule violation, a
	// requeued conflict.
	LevelWarn
	// LevelInfo adds coarse lifecycle notices: manager teardown, a tick that
	// had nothing to do.
	LevelInfo
	// LevelDebug adds per-tick reconciliation tracing: entry selection,
	// conflict classification, and the propagation decisions SyncManager
	// makes on each changed entry. This is the finest level the engine
	// itself emits at.
	LevelDebug
)

// levelNames holds the canonical string form of every level, indexed by
// its numeric value, so NameToLevel/String stay in lockstep by
// construction instead of duplicating a parallel switch each.
var levelNames = [...]string{
	LevelDisabled: "disabled",
	LevelError:    "error",
	LevelWarn:     "warn",
	LevelInfo:     "info",
	LevelDebug:    "debug",
}

// NameToLevel converts a string-based representation of a log level to the
// appropriate Level value. It returns a boolean indicating whether or not
// the conversion was valid. If the name is invalid, LevelDisabled is
// returned.
func NameToLevel(name string) (Level, bool) {
	for level, candidate := range levelNames {
		if candidate == name {
			return Level(level), true
		}
	}
	return LevelDisabled, false
}

// String provides a human-readable representation of a log level.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}
