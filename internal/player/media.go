package player

import "context"

// Media is the command boundary to the audio subsystem. The engine
// issues commands through it and samples the clock from it; the media
// layer reports its signals back through the engine's OnEnded and
// OnSourceError methods. Swapping the source resets rate and volume to
// defaults, so the engine reapplies both after every load.
type Media interface {
	Play()
	Pause()
	Seek(position float64)
	SetRate(rate float64)
	SetVolume(volume float64)
	LoadSource(uri string) error
	Position() float64
	Duration() float64
}

// CuePlayer plays the short skip-cue sound that masks the pause-seek-
// resume discontinuity from the listener. done is invoked once when
// the cue finishes; implementations may call it from any goroutine.
type CuePlayer interface {
	Play(done func())
}

// NoopCue completes immediately. Used when no cue sound is configured.
type NoopCue struct{}

// Play invokes done immediately.
func (NoopCue) Play(done func()) { done() }

// Redownloader fetches a fresh copy of an episode's audio during
// missing-file recovery and returns the new local path.
type Redownloader interface {
	Redownload(ctx context.Context, episodeID string) (string, error)
}
