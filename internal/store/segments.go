package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/podskipapp/podskip-server/internal/domain"
	"github.com/podskipapp/podskip-server/internal/sse"
)

const (
	segmentsPrefix     = "segments:"
	detectionGenPrefix = "detgen:"
)

// NextDetectionGeneration allocates the next generation number for an
// episode's detection runs. The counter is monotonic per episode and is
// never reset, so a slow run that finishes after a newer one can always
// be recognized as stale.
func (s *Store) NextDetectionGeneration(ctx context.Context, episodeID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var gen uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(detectionGenPrefix + episodeID)

		item, err := txn.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				parsed, perr := strconv.ParseUint(string(val), 10, 64)
				if perr != nil {
					return fmt.Errorf("parse generation counter: %w", perr)
				}
				gen = parsed
				return nil
			}); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get generation counter: %w", err)
		}

		gen++
		return txn.Set(key, []byte(strconv.FormatUint(gen, 10)))
	})
	if err != nil {
		return 0, err
	}
	return gen, nil
}

// CommitSegmentSet makes a detection result the active segment set for
// its episode and broadcasts the change. Returns ErrStaleGeneration if
// a set with an equal or higher generation is already committed, so a
// slow run can never overwrite a newer result.
func (s *Store) CommitSegmentSet(ctx context.Context, set *domain.SegmentSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	set.CreatedAt = time.Now()
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal segment set: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(segmentsPrefix + set.EpisodeID)

		item, err := txn.Get(key)
		if err == nil {
			var existing domain.SegmentSet
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); err != nil {
				return fmt.Errorf("unmarshal existing segment set: %w", err)
			}
			// Generations are unique per run, so equality also means
			// this commit is a duplicate.
			if existing.Generation >= set.Generation {
				return ErrStaleGeneration
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get existing segment set: %w", err)
		}

		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.eventEmitter.Emit(sse.NewSegmentsCommittedEvent(set))
	return nil
}

// GetSegmentSet retrieves the active segment set for an episode.
// Returns ErrNotFound if no detection result has been committed.
func (s *Store) GetSegmentSet(ctx context.Context, episodeID string) (*domain.SegmentSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(segmentsPrefix, episodeID)
	defer releaseKey(key)

	var set domain.SegmentSet
	err := s.get(key, &set)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// DeleteSegmentSet clears an episode's active segment set and
// broadcasts the change. The generation counter is kept so in-flight
// detection results stay comparable. Idempotent.
func (s *Store) DeleteSegmentSet(ctx context.Context, episodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := buildKey(segmentsPrefix, episodeID)
	defer releaseKey(key)

	if err := s.delete(key); err != nil {
		return err
	}

	s.eventEmitter.Emit(sse.NewSegmentsDeletedEvent(episodeID, time.Now()))
	return nil
}

// deleteSegmentState removes all detection state for an episode,
// including the generation counter. Only used when the episode itself
// is deleted.
func (s *Store) deleteSegmentState(ctx context.Context, episodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(segmentsPrefix + episodeID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete([]byte(detectionGenPrefix + episodeID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}
