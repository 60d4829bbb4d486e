package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/podskipapp/podskip-server/internal/domain"
	"github.com/podskipapp/podskip-server/internal/sse"
)

// CreateEpisode stores a new episode and broadcasts its creation.
// Returns ErrAlreadyExists if the ID or enclosure URL is already taken.
func (s *Store) CreateEpisode(ctx context.Context, ep *domain.Episode) error {
	if err := s.Episodes.Create(ctx, ep.ID, ep); err != nil {
		return err
	}
	s.eventEmitter.Emit(sse.NewEpisodeCreatedEvent(ep))
	return nil
}

// GetEpisode retrieves an episode by ID.
func (s *Store) GetEpisode(ctx context.Context, id string) (*domain.Episode, error) {
	return s.Episodes.Get(ctx, id)
}

// GetEpisodeByAudioPath resolves a cached audio file back to its episode.
// Used by the cache watcher when a file disappears.
func (s *Store) GetEpisodeByAudioPath(ctx context.Context, path string) (*domain.Episode, error) {
	return s.Episodes.GetByIndex(ctx, "audiopath", path)
}

// UpdateEpisode updates an existing episode and broadcasts the change.
func (s *Store) UpdateEpisode(ctx context.Context, ep *domain.Episode) error {
	ep.UpdatedAt = time.Now()
	if err := s.Episodes.Update(ctx, ep.ID, ep); err != nil {
		return err
	}
	s.eventEmitter.Emit(sse.NewEpisodeUpdatedEvent(ep))
	return nil
}

// DeleteEpisode removes an episode along with its transcript, segment
// set, and detection counter. Idempotent.
func (s *Store) DeleteEpisode(ctx context.Context, id string) error {
	if err := s.Episodes.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.DeleteTranscript(ctx, id); err != nil {
		return err
	}
	if err := s.deleteSegmentState(ctx, id); err != nil {
		return err
	}
	s.eventEmitter.Emit(sse.NewEpisodeDeletedEvent(id, time.Now()))
	return nil
}

// ListEpisodes returns all stored episodes.
func (s *Store) ListEpisodes(ctx context.Context) ([]*domain.Episode, error) {
	var episodes []*domain.Episode
	for ep, err := range s.Episodes.List(ctx) {
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

// ListEpisodesPage returns one page of episodes in key order. The
// cursor is exclusive: pass the previous page's NextCursor to continue.
func (s *Store) ListEpisodesPage(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Episode], error) {
	params.Validate()

	startKey, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	const prefix = "episode:"
	result := &PaginatedResult[*domain.Episode]{}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(prefix)
		if startKey != "" {
			seek = []byte(startKey)
		}

		var lastKey string
		for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			key := string(it.Item().Key())
			if strings.HasPrefix(key[len(prefix):], "idx:") {
				continue
			}
			if key == startKey {
				continue
			}
			if len(result.Items) == params.Limit {
				result.HasMore = true
				result.NextCursor = EncodeCursor(lastKey)
				return nil
			}

			var ep domain.Episode
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ep)
			}); err != nil {
				return err
			}
			result.Items = append(result.Items, &ep)
			lastKey = key
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
