package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/podskipapp/podskip-server/internal/domain"
)

const transcriptPrefix = "transcript:"

// SaveTranscript stores the transcript for an episode, replacing any
// previous one. There is one transcript per episode.
func (s *Store) SaveTranscript(ctx context.Context, t *domain.Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := buildKey(transcriptPrefix, t.EpisodeID)
	defer releaseKey(key)

	return s.set(key, t)
}

// GetTranscript retrieves the transcript for an episode.
// Returns ErrNotFound if no transcript has been uploaded.
func (s *Store) GetTranscript(ctx context.Context, episodeID string) (*domain.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(transcriptPrefix, episodeID)
	defer releaseKey(key)

	var t domain.Transcript
	err := s.get(key, &t)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTranscript removes an episode's transcript. Idempotent.
func (s *Store) DeleteTranscript(ctx context.Context, episodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := buildKey(transcriptPrefix, episodeID)
	defer releaseKey(key)

	return s.delete(key)
}
