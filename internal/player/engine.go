package player

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/podskipapp/podskip-server/internal/domain"
	"github.com/podskipapp/podskip-server/internal/errors"
)

const (
	// tickInterval throttles position sampling to 5 samples/sec,
	// deliberately slower than the media clock's native tick rate to
	// bound the per-tick segment scan.
	tickInterval = 200 * time.Millisecond

	// endGuardSeconds absorbs floating-point and streaming duration
	// jitter at the very end of a file. Positions within this guard of
	// the duration count as past all segments.
	endGuardSeconds = 0.5

	// manualSeekThreshold is the position discrepancy, in seconds,
	// beyond which a sampled position is treated as a user seek rather
	// than clock progress. Normal progress between ticks is well under
	// a second even at 4x rate.
	manualSeekThreshold = 2.5
)

// Engine drives one playback session: it samples the media clock and
// skips over the current segment set exactly once per crossing. The
// segment set is pushed in via SetSegments whenever detection commits,
// so the engine always acts on the latest delivered snapshot instead of
// re-querying shared state on every tick.
type Engine struct {
	media        Media
	cue          CuePlayer
	redownloader Redownloader
	logger       *slog.Logger

	// OnFinished is invoked when playback ends, naturally or because a
	// segment ran to the end of the episode. Set before Start.
	OnFinished func()
	// OnError is invoked with a terminal playback error after the
	// single recovery attempt is exhausted. Set before Start.
	OnError func(error)

	ctx    context.Context //nolint:containedctx // worker lifecycle, mirrors service workers
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	state         sessionState
	segments      []domain.AdSegment
	episodeID     string
	sourceLocal   bool
	intentPlaying bool
	rate          float64
	volume        float64
	lastPosition  float64

	// skipGen invalidates in-flight cue continuations: a cue completion
	// whose generation no longer matches has been pre-empted by a
	// manual seek or a source swap and must do nothing. loadGen does
	// the same for recovery results and coalesces concurrent recovery
	// requests into one redownload per load attempt.
	skipGen int
	loadGen int
}

// NewEngine creates a playback skip engine for one session.
func NewEngine(media Media, cue CuePlayer, redownloader Redownloader, logger *slog.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		media:        media,
		cue:          cue,
		redownloader: redownloader,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		state:        stateIdle,
		rate:         1.0,
		volume:       1.0,
	}
}

// Start begins the position sampling loop.
func (e *Engine) Start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-e.ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts the engine down.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

// LoadEpisode swaps the session to a new episode. Rate and volume are
// reapplied after the swap since loading a source resets both. A load
// failure for a locally cached file enters recovery instead of
// returning an error.
func (e *Engine) LoadEpisode(ep *domain.Episode) {
	e.mu.Lock()
	e.episodeID = ep.ID
	e.sourceLocal = ep.AudioPath != ""
	e.segments = nil
	e.state = stateIdle
	e.lastPosition = 0
	e.skipGen++
	e.loadGen++

	source := ep.AudioPath
	if source == "" {
		source = ep.EnclosureURL
	}

	if err := e.media.LoadSource(source); err != nil {
		e.logger.Warn("source load failed", "episode_id", ep.ID, "error", err)
		e.handleSourceErrorLocked(err)
		e.mu.Unlock()
		return
	}

	e.media.SetRate(e.rate)
	e.media.SetVolume(e.volume)
	e.mu.Unlock()
}

// SetSegments delivers a fresh segment snapshot. Detection can commit
// mid-playback; the next tick acts on the new set.
func (e *Engine) SetSegments(segments []domain.AdSegment) {
	e.mu.Lock()
	e.segments = make([]domain.AdSegment, len(segments))
	copy(e.segments, segments)
	e.mu.Unlock()
}

// Play records the play intent and resumes the media.
func (e *Engine) Play() {
	e.mu.Lock()
	e.intentPlaying = true
	e.media.Play()
	e.mu.Unlock()
}

// Pause records the pause intent and pauses the media.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.intentPlaying = false
	e.media.Pause()
	e.mu.Unlock()
}

// Seek is a user-initiated seek. It pre-empts any in-flight skip
// sequence; recovery is not interruptible.
func (e *Engine) Seek(position float64) {
	e.mu.Lock()
	if e.state == stateSkipping || e.state == stateEnding {
		e.state = stateIdle
	}
	e.skipGen++
	e.lastPosition = position
	e.media.Seek(position)
	e.mu.Unlock()
}

// SetRate stores and forwards the playback rate.
func (e *Engine) SetRate(rate float64) {
	e.mu.Lock()
	e.rate = rate
	e.media.SetRate(rate)
	e.mu.Unlock()
}

// SetVolume stores and forwards the volume.
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	e.volume = volume
	e.media.SetVolume(volume)
	e.mu.Unlock()
}

// OnEnded handles the media's end-of-playback signal. Re-entrant calls
// while finalization is already running are ignored, since dispatching
// a synthetic end signal can retrigger a tick before the handler
// completes.
func (e *Engine) OnEnded() {
	e.mu.Lock()
	if e.state == stateEnding {
		e.mu.Unlock()
		return
	}
	e.state = stateEnding
	e.mu.Unlock()

	if e.OnFinished != nil {
		e.OnFinished()
	}
}

// Status is a point-in-time snapshot of the playback session.
type Status struct {
	EpisodeID string  `json:"episode_id,omitempty"`
	Position  float64 `json:"position"`
	Duration  float64 `json:"duration"`
	Rate      float64 `json:"rate"`
	Volume    float64 `json:"volume"`
	State     string  `json:"state"`
	Playing   bool    `json:"playing"`
}

// Status samples the current session state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		EpisodeID: e.episodeID,
		Position:  e.media.Position(),
		Duration:  e.media.Duration(),
		Rate:      e.rate,
		Volume:    e.volume,
		State:     e.state.String(),
		Playing:   e.intentPlaying,
	}
}

// CurrentEpisodeID returns the loaded episode's ID, or "" when no
// episode is loaded.
func (e *Engine) CurrentEpisodeID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.episodeID
}

// OnSourceError handles a media load error.
func (e *Engine) OnSourceError(err error) {
	e.mu.Lock()
	e.handleSourceErrorLocked(err)
	e.mu.Unlock()
}

// tick samples the clock and runs the segment state machine once.
func (e *Engine) tick() {
	e.mu.Lock()

	if e.state == stateEnding || e.state == stateRecovering {
		e.mu.Unlock()
		return
	}

	pos := e.media.Position()
	dur := e.media.Duration()

	if math.Abs(pos-e.lastPosition) > manualSeekThreshold {
		// User seek outside the engine API (OS media controls, the
		// player's own UI). Always re-arms the session.
		e.logger.Debug("manual seek detected",
			"from", e.lastPosition, "to", pos)
		e.skipGen++
		e.state = stateIdle
	}
	e.lastPosition = pos

	if dur <= 0 {
		e.mu.Unlock()
		return
	}

	safeEnd := dur - endGuardSeconds
	if pos >= safeEnd {
		// Past all segments; the natural end signal takes it from here.
		e.mu.Unlock()
		return
	}

	hit, ok := e.segmentAt(pos, safeEnd)
	if !ok {
		if e.state == stateSkipping {
			// User sought out of the segment mid-skip.
			e.state = stateIdle
		}
		e.mu.Unlock()
		return
	}

	if e.state != stateIdle {
		// A skip sequence is already in flight for this crossing.
		e.mu.Unlock()
		return
	}

	e.state = stateSkipping
	e.skipGen++
	gen := e.skipGen
	e.media.Pause()
	e.logger.Debug("skip sequence started",
		"type", hit.Type, "start", hit.Start, "end", hit.End)
	e.mu.Unlock()

	e.cue.Play(func() { e.completeSkip(gen, hit) })
}

// segmentAt returns the segment containing pos, with segment ends
// capped at safeEnd for the containment check.
func (e *Engine) segmentAt(pos, safeEnd float64) (domain.AdSegment, bool) {
	for _, seg := range e.segments {
		if pos >= seg.Start && pos < math.Min(seg.End, safeEnd) {
			return seg, true
		}
	}
	return domain.AdSegment{}, false
}

// completeSkip is the cue-completion continuation: it performs the
// queued seek, or finalizes the episode when the segment runs to its
// end. Pre-empted continuations (stale generation) do nothing.
func (e *Engine) completeSkip(gen int, seg domain.AdSegment) {
	e.mu.Lock()
	if e.state != stateSkipping || gen != e.skipGen {
		e.mu.Unlock()
		return
	}

	dur := e.media.Duration()
	effectiveEnd := math.Min(seg.End, dur)

	if effectiveEnd >= dur-endGuardSeconds {
		// The segment runs to the end of the episode. Seeking to the
		// literal duration is unreliable for triggering end-of-media
		// handling across backends, so synthesize the finished signal
		// instead.
		e.state = stateEnding
		e.logger.Debug("segment runs to end of episode, finishing")
		e.mu.Unlock()

		if e.OnFinished != nil {
			e.OnFinished()
		}
		return
	}

	e.media.Seek(effectiveEnd)
	e.lastPosition = effectiveEnd
	e.state = stateIdle
	if e.intentPlaying {
		e.media.Play()
	}
	e.mu.Unlock()
}

// handleSourceErrorLocked implements the recovery sub-state machine.
// Callers hold e.mu.
func (e *Engine) handleSourceErrorLocked(err error) {
	if !e.sourceLocal {
		// Streaming sources get no automatic recovery.
		e.failLocked(errors.Wrap(err, errors.CodePlaybackSource, "stream source failed"))
		return
	}

	if e.state == stateRecovering {
		// Second error on the same load: one attempt only, to avoid
		// redownload storms.
		e.failLocked(errors.Wrap(err, errors.CodePlaybackSource, "source failed during recovery"))
		return
	}

	e.state = stateRecovering
	gen := e.loadGen
	episodeID := e.episodeID
	e.logger.Info("local source missing, starting recovery",
		"episode_id", episodeID)

	go e.recover(gen, episodeID)
}

// recover performs the one-shot redownload-and-reload. A stale
// generation means the session moved on to another load while the
// redownload was in flight; the result is discarded.
func (e *Engine) recover(gen int, episodeID string) {
	path, err := e.redownloader.Redownload(e.ctx, episodeID)

	e.mu.Lock()
	if gen != e.loadGen || e.state != stateRecovering {
		e.mu.Unlock()
		return
	}

	if err != nil {
		e.failLocked(errors.Wrap(err, errors.CodePlaybackSource, "redownload failed"))
		e.mu.Unlock()
		return
	}

	if err := e.media.LoadSource(path); err != nil {
		e.failLocked(errors.Wrap(err, errors.CodePlaybackSource, "reload after redownload failed"))
		e.mu.Unlock()
		return
	}

	// The swap reset rate and volume; restore everything, then the
	// position the session had reached.
	e.media.SetRate(e.rate)
	e.media.SetVolume(e.volume)
	e.media.Seek(e.lastPosition)
	e.state = stateIdle
	resume := e.intentPlaying
	if resume {
		e.media.Play()
	}
	e.logger.Info("recovery complete",
		"episode_id", episodeID, "position", e.lastPosition, "resumed", resume)
	e.mu.Unlock()
}

// failLocked surfaces a terminal playback error. Callers hold e.mu.
// The expected external remedy is skipping to the next episode, so the
// session returns to idle with playback intent cleared.
func (e *Engine) failLocked(err *errors.Error) {
	e.state = stateIdle
	e.intentPlaying = false
	e.logger.Error("playback source failure",
		"episode_id", e.episodeID, "error", err)

	if e.OnError != nil {
		cb := e.OnError
		go cb(err)
	}
}
