// Package player implements the real-time playback skip engine: it
// watches the media clock and performs exactly-once skips over the
// detected ad segments, tolerating manual seeks, source reloads and
// missing-file recovery.
package player

// sessionState is the playback session state machine. Exactly one
// state holds at a time, which keeps illegal combinations (skipping
// while recovering) unrepresentable.
type sessionState int

const (
	// stateIdle is normal playback outside any detected segment.
	stateIdle sessionState = iota
	// stateSkipping means a skip cue is playing and a seek is queued.
	stateSkipping
	// stateEnding means end-of-episode finalization is in progress;
	// all segment checks are suppressed until the next source load.
	stateEnding
	// stateRecovering means a missing local source is being
	// redownloaded. At most one attempt per load.
	stateRecovering
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSkipping:
		return "skipping"
	case stateEnding:
		return "ending"
	case stateRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}
