package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/podskipapp/podskip-server/internal/domain"
	domainerrors "github.com/podskipapp/podskip-server/internal/errors"
	"github.com/podskipapp/podskip-server/internal/media/cache"
	"github.com/podskipapp/podskip-server/internal/player"
	"github.com/podskipapp/podskip-server/internal/sse"
	"github.com/podskipapp/podskip-server/internal/store"
	"github.com/podskipapp/podskip-server/internal/watcher"
)

// PlaybackService owns the playback session: it loads episodes into the
// skip engine, forwards transport commands, keeps the engine's segment
// snapshot current and reconciles the audio cache with the store when
// files appear or vanish on disk.
type PlaybackService struct {
	store  *store.Store
	engine *player.Engine
	media  player.Media
	cache  *cache.Cache
	events store.EventEmitter
	logger *slog.Logger
}

// NewPlaybackService creates a new playback service. It constructs the
// skip engine around the given media and cue players, with itself as
// the engine's redownloader.
func NewPlaybackService(store *store.Store, cache *cache.Cache, media player.Media, cue player.CuePlayer, events store.EventEmitter, logger *slog.Logger) *PlaybackService {
	s := &PlaybackService{
		store:  store,
		media:  media,
		cache:  cache,
		events: events,
		logger: logger,
	}

	engine := player.NewEngine(media, cue, s, logger)
	engine.OnFinished = func() {
		logger.Info("playback finished", "episode_id", engine.CurrentEpisodeID())
	}
	engine.OnError = func(err error) {
		logger.Error("playback failed",
			"episode_id", engine.CurrentEpisodeID(), "error", err)
	}
	if cm, ok := media.(*player.ClockMedia); ok {
		cm.OnEnded = engine.OnEnded
	}
	s.engine = engine

	return s
}

// Start begins the engine's position sampling loop.
func (s *PlaybackService) Start() {
	s.engine.Start()
}

// Stop shuts the engine down.
func (s *PlaybackService) Stop() {
	s.engine.Stop()
}

// Load swaps the session to the given episode and delivers its
// committed segment set to the engine. Episodes without a cached file
// stream from the enclosure URL.
func (s *PlaybackService) Load(ctx context.Context, episodeID string) (*domain.Episode, error) {
	ep, err := s.store.GetEpisode(ctx, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("episode %s not found", episodeID)
		}
		return nil, fmt.Errorf("get episode: %w", err)
	}

	// Headless backends cannot derive the duration from the source.
	if sink, ok := s.media.(player.DurationSink); ok {
		sink.SetDuration(ep.Duration)
	}
	s.engine.LoadEpisode(ep)

	set, err := s.store.GetSegmentSet(ctx, episodeID)
	switch {
	case err == nil:
		s.engine.SetSegments(set.Segments)
	case errors.Is(err, store.ErrNotFound):
		// No detection run yet, play straight through.
	default:
		return nil, fmt.Errorf("get segment set: %w", err)
	}

	s.logger.Info("episode loaded",
		"episode_id", episodeID,
		"local", ep.AudioPath != "",
	)
	return ep, nil
}

// Play resumes playback.
func (s *PlaybackService) Play() { s.engine.Play() }

// Pause pauses playback.
func (s *PlaybackService) Pause() { s.engine.Pause() }

// Seek jumps to a position in seconds.
func (s *PlaybackService) Seek(position float64) error {
	if position < 0 {
		return domainerrors.Validation("position must not be negative")
	}
	s.engine.Seek(position)
	return nil
}

// SetRate sets the playback rate.
func (s *PlaybackService) SetRate(rate float64) error {
	if rate <= 0 || rate > 4 {
		return domainerrors.Validation("rate must be in (0, 4]")
	}
	s.engine.SetRate(rate)
	return nil
}

// SetVolume sets the playback volume.
func (s *PlaybackService) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domainerrors.Validation("volume must be in [0, 1]")
	}
	s.engine.SetVolume(volume)
	return nil
}

// Status returns a snapshot of the playback session.
func (s *PlaybackService) Status() player.Status {
	return s.engine.Status()
}

// Redownload fetches a fresh copy of an episode's audio during
// missing-file recovery. Implements player.Redownloader.
func (s *PlaybackService) Redownload(ctx context.Context, episodeID string) (string, error) {
	ep, err := s.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return "", fmt.Errorf("get episode: %w", err)
	}

	path, err := s.cache.Download(ctx, ep.ID, ep.EnclosureURL)
	if err != nil {
		return "", fmt.Errorf("redownload audio: %w", err)
	}

	ep.AudioPath = path
	if err := s.store.UpdateEpisode(ctx, ep); err != nil {
		return "", fmt.Errorf("record audio path: %w", err)
	}

	return path, nil
}

// Emit inspects broadcast events and keeps the engine's segment
// snapshot current when detection commits or clears mid-playback.
// Implements store.EventEmitter; wired as a fan-out alongside the SSE
// manager.
func (s *PlaybackService) Emit(event any) {
	e, ok := event.(sse.Event)
	if !ok {
		return
	}

	switch e.Type {
	case sse.EventSegmentsCommitted:
		data, ok := e.Data.(sse.SegmentsEventData)
		if ok && data.EpisodeID == s.engine.CurrentEpisodeID() {
			s.engine.SetSegments(data.Segments)
		}
	case sse.EventSegmentsDeleted:
		data, ok := e.Data.(sse.SegmentsDeletedEventData)
		if ok && data.EpisodeID == s.engine.CurrentEpisodeID() {
			s.engine.SetSegments(nil)
		}
	}
}

// WatchCache consumes cache watcher events until the context is
// canceled, reconciling episode audio paths with what is actually on
// disk.
func (s *PlaybackService) WatchCache(ctx context.Context, w *watcher.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events():
			if !ok {
				return
			}
			s.handleCacheEvent(ctx, event)
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			s.logger.Warn("cache watcher error", "error", err)
		}
	}
}

func (s *PlaybackService) handleCacheEvent(ctx context.Context, event watcher.Event) {
	switch event.Type {
	case watcher.EventRemoved:
		s.handleFileRemoved(ctx, event.Path)
	case watcher.EventAdded:
		s.handleFileAdded(ctx, event.Path)
	}
}

// handleFileRemoved clears the audio path of the episode whose cached
// file vanished and notifies clients. If the file belonged to the
// loaded episode, the engine is told so recovery can start.
func (s *PlaybackService) handleFileRemoved(ctx context.Context, path string) {
	ep, err := s.store.GetEpisodeByAudioPath(ctx, path)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("audio path lookup failed", "path", path, "error", err)
		}
		return
	}

	ep.AudioPath = ""
	if err := s.store.UpdateEpisode(ctx, ep); err != nil {
		s.logger.Warn("failed to clear audio path",
			"episode_id", ep.ID, "error", err)
		return
	}

	s.logger.Warn("cached audio file disappeared",
		"episode_id", ep.ID, "path", path)
	s.events.Emit(sse.NewEpisodeFileMissingEvent(ep.ID, path))

	if s.engine.CurrentEpisodeID() == ep.ID {
		s.engine.OnSourceError(domainerrors.PlaybackSource("cached audio file removed"))
	}
}

// handleFileAdded records the audio path when a matching cache file
// appears on disk, covering files placed there outside the downloader.
func (s *PlaybackService) handleFileAdded(ctx context.Context, path string) {
	base := filepath.Base(path)
	episodeID := strings.TrimSuffix(base, filepath.Ext(base))

	ep, err := s.store.GetEpisode(ctx, episodeID)
	if err != nil {
		// Not an episode file, ignore.
		return
	}
	if ep.AudioPath == path {
		return
	}

	ep.AudioPath = path
	if err := s.store.UpdateEpisode(ctx, ep); err != nil {
		s.logger.Warn("failed to record audio path",
			"episode_id", ep.ID, "error", err)
		return
	}

	s.logger.Info("cached audio file appeared",
		"episode_id", ep.ID, "path", path)
}
