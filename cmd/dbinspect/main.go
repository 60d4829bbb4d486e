package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/podskipapp/podskip-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/PodSkip/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	episodeCount := 0
	cached := 0
	streaming := 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("episode:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var ep domain.Episode
				if err := json.Unmarshal(val, &ep); err != nil {
					return err
				}

				episodeCount++
				if ep.AudioPath != "" {
					cached++
				} else {
					streaming++
				}

				if episodeCount <= 5 {
					fmt.Printf("Episode: %s\n", ep.Title)
					fmt.Printf("  ID: %s\n", ep.ID)
					fmt.Printf("  Duration: %s\n", domain.FormatOffset(ep.Duration))
					fmt.Printf("  Audio: %s\n", audioState(&ep))
					showSegments(txn, ep.ID)
					fmt.Println()
				}

				return nil
			})
			if err != nil {
				log.Printf("Error reading episode %s: %v", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total episodes: %d\n", episodeCount)
	fmt.Printf("Cached locally: %d\n", cached)
	fmt.Printf("Streaming only: %d\n", streaming)
}

func audioState(ep *domain.Episode) string {
	if ep.AudioPath != "" {
		return ep.AudioPath
	}
	return "(not cached) " + ep.EnclosureURL
}

func showSegments(txn *badger.Txn, episodeID string) {
	item, err := txn.Get([]byte("segments:" + episodeID))
	if err != nil {
		fmt.Println("  Segments: none")
		return
	}

	_ = item.Value(func(val []byte) error {
		var set domain.SegmentSet
		if err := json.Unmarshal(val, &set); err != nil {
			return err
		}

		fmt.Printf("  Segments: %d (%s, generation %d)\n",
			len(set.Segments), set.DetectionType, set.Generation)
		for i, seg := range set.Segments {
			if i >= 5 {
				fmt.Printf("    ... and %d more\n", len(set.Segments)-5)
				break
			}
			fmt.Printf("    [%s - %s] %s (%d%%)\n",
				seg.StartDisplay(), seg.EndDisplay(), seg.Type, seg.Confidence)
		}
		return nil
	})
}
