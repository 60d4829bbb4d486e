// Package service implements the application services: episode
// management, ad-segment detection runs and playback session control.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/podskipapp/podskip-server/internal/domain"
	domainerrors "github.com/podskipapp/podskip-server/internal/errors"
	"github.com/podskipapp/podskip-server/internal/id"
	"github.com/podskipapp/podskip-server/internal/media/cache"
	"github.com/podskipapp/podskip-server/internal/store"
)

// EpisodeService manages episodes, their transcripts and their cached
// audio files.
type EpisodeService struct {
	store  *store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewEpisodeService creates a new episode service.
func NewEpisodeService(store *store.Store, cache *cache.Cache, logger *slog.Logger) *EpisodeService {
	return &EpisodeService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// CreateEpisodeRequest contains the data for registering an episode.
type CreateEpisodeRequest struct {
	Title        string    `json:"title" validate:"required,max=500"`
	PodcastTitle string    `json:"podcast_title" validate:"max=500"`
	EnclosureURL string    `json:"enclosure_url" validate:"required,url"`
	Duration     float64   `json:"duration" validate:"gt=0"`
	Description  string    `json:"description"`
	PublishedAt  time.Time `json:"published_at"`
}

// CreateEpisode registers a new episode. The enclosure URL is the
// dedupe key: registering the same URL twice is a conflict.
func (s *EpisodeService) CreateEpisode(ctx context.Context, req CreateEpisodeRequest) (*domain.Episode, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	episodeID, err := id.Generate("ep")
	if err != nil {
		return nil, fmt.Errorf("generate episode ID: %w", err)
	}

	now := time.Now()
	ep := &domain.Episode{
		ID:           episodeID,
		Title:        req.Title,
		PodcastTitle: req.PodcastTitle,
		EnclosureURL: req.EnclosureURL,
		Duration:     req.Duration,
		Description:  req.Description,
		PublishedAt:  req.PublishedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateEpisode(ctx, ep); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("an episode with this enclosure URL already exists")
		}
		return nil, fmt.Errorf("store episode: %w", err)
	}

	s.logger.Info("episode created",
		"episode_id", ep.ID,
		"title", ep.Title,
		"duration", ep.Duration,
	)

	return ep, nil
}

// GetEpisode retrieves an episode by ID.
func (s *EpisodeService) GetEpisode(ctx context.Context, episodeID string) (*domain.Episode, error) {
	ep, err := s.store.GetEpisode(ctx, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("episode %s not found", episodeID)
		}
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return ep, nil
}

// ListEpisodes returns one page of registered episodes.
func (s *EpisodeService) ListEpisodes(ctx context.Context, limit int, cursor string) (*store.PaginatedResult[*domain.Episode], error) {
	page, err := s.store.ListEpisodesPage(ctx, store.PaginationParams{Limit: limit, Cursor: cursor})
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return nil, domainerrors.Validation("invalid pagination cursor")
		}
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return page, nil
}

// DeleteEpisode removes an episode, its transcript, its segment set and
// its cached audio file.
func (s *EpisodeService) DeleteEpisode(ctx context.Context, episodeID string) error {
	ep, err := s.store.GetEpisode(ctx, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("episode %s not found", episodeID)
		}
		return fmt.Errorf("get episode: %w", err)
	}

	if err := s.store.DeleteEpisode(ctx, episodeID); err != nil {
		return fmt.Errorf("delete episode: %w", err)
	}

	if ep.AudioPath != "" {
		if err := s.cache.Remove(episodeID, ep.EnclosureURL); err != nil {
			s.logger.Warn("failed to remove cached audio",
				"episode_id", episodeID, "error", err)
		}
	}

	s.logger.Info("episode deleted", "episode_id", episodeID)
	return nil
}

// DownloadEpisode fetches the episode's audio into the local cache and
// records the cache path on the episode.
func (s *EpisodeService) DownloadEpisode(ctx context.Context, episodeID string) (*domain.Episode, error) {
	ep, err := s.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	path, err := s.cache.Download(ctx, ep.ID, ep.EnclosureURL)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}

	ep.AudioPath = path
	if err := s.store.UpdateEpisode(ctx, ep); err != nil {
		return nil, fmt.Errorf("record audio path: %w", err)
	}

	return ep, nil
}

// UploadTranscriptRequest contains an externally produced transcript.
type UploadTranscriptRequest struct {
	Segments []domain.TranscriptSegment `json:"segments" validate:"required,min=1"`
	Duration float64                    `json:"duration" validate:"gt=0"`
}

// UploadTranscript stores the transcript for an episode, replacing any
// previous one. Transcripts are read-only once stored.
func (s *EpisodeService) UploadTranscript(ctx context.Context, episodeID string, req UploadTranscriptRequest) (*domain.Transcript, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if _, err := s.GetEpisode(ctx, episodeID); err != nil {
		return nil, err
	}

	t := &domain.Transcript{
		EpisodeID: episodeID,
		Duration:  req.Duration,
		Segments:  req.Segments,
		CreatedAt: time.Now(),
	}

	if err := s.store.SaveTranscript(ctx, t); err != nil {
		return nil, fmt.Errorf("store transcript: %w", err)
	}

	s.logger.Info("transcript stored",
		"episode_id", episodeID,
		"segments", len(t.Segments),
	)

	return t, nil
}

// GetTranscript retrieves the transcript for an episode.
func (s *EpisodeService) GetTranscript(ctx context.Context, episodeID string) (*domain.Transcript, error) {
	t, err := s.store.GetTranscript(ctx, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("no transcript for episode %s", episodeID)
		}
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return t, nil
}
