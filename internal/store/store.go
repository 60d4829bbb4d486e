package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/podskipapp/podskip-server/internal/domain"
)

// EventEmitter broadcasts store changes. Keeping it as an interface
// here means the store never imports the SSE package.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter discards all events. Tests use it.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter returns an emitter that discards events.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// Store is the badger-backed persistence layer for episodes,
// transcripts, and detected segments.
type Store struct {
	db           *badger.DB
	logger       *slog.Logger
	eventEmitter EventEmitter

	Episodes *Entity[domain.Episode]
}

// New opens (or creates) the badger database at path. The emitter
// receives change events for every mutation; pass NewNoopEmitter when
// no SSE fanout is wanted.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	// Synced writes cost throughput but keep the store consistent
	// after a crash mid-detection.
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:           db,
		logger:       logger,
		eventEmitter: emitter,
	}
	store.initEpisodes()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}
	return store, nil
}

// Close shuts down the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping reports whether the database is open and usable.
func (s *Store) Ping() error {
	if s.db.IsClosed() {
		return errors.New("database is closed")
	}
	return nil
}

// get loads and unmarshals the value at key into dest.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set marshals value and writes it at key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (s *Store) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// initEpisodes wires the Episodes entity. The enclosure index keeps
// feed URLs unique so a re-submitted episode is rejected instead of
// duplicated. The audiopath index lets the cache watcher resolve a
// deleted file back to its episode.
func (s *Store) initEpisodes() {
	s.Episodes = NewEntity[domain.Episode](s, "episode:").
		WithIndex("enclosure", func(ep *domain.Episode) []string {
			if ep.EnclosureURL == "" {
				return nil
			}
			return []string{ep.EnclosureURL}
		}).
		WithIndex("audiopath", func(ep *domain.Episode) []string {
			if ep.AudioPath == "" {
				return nil
			}
			return []string{ep.AudioPath}
		})
}
