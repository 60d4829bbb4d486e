package store

import "sync"

// keyPool recycles byte slices used to assemble badger keys, keeping
// the per-operation allocation count down on read paths.
var keyPool = sync.Pool{
	New: func() any {
		// 128 bytes comfortably fits every key shape in use:
		// prefix + nanoid episode ID.
		return make([]byte, 0, 128)
	},
}

// buildKey assembles a key from a bucket prefix and an ID using a
// pooled buffer. Pair every call with releaseKey:
//
//	key := buildKey(transcriptPrefix, episodeID)
//	defer releaseKey(key)
func buildKey(prefix, id string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = append(buf[:0], prefix...)
	return append(buf, id...)
}

// releaseKey returns a key buffer to the pool. The slice must not be
// used afterwards. Oversized buffers are dropped rather than pooled.
func releaseKey(key []byte) {
	if cap(key) <= 256 {
		keyPool.Put(key[:0])
	}
}
