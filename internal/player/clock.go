package player

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// ClockMedia is a headless media transport: it keeps an authoritative
// playback position against the wall clock instead of decoding audio.
// Connected players mirror this position and render the actual sound;
// the engine drives it exactly like a decoding backend. Durations come
// from episode metadata via SetDuration since no decoding happens.
type ClockMedia struct {
	// OnEnded is invoked once when the position reaches the duration.
	// Dispatched from its own goroutine; safe to call back into the
	// engine. Set before use.
	OnEnded func()

	mu       sync.Mutex
	source   string
	duration float64
	base     float64
	startedAt time.Time
	rate     float64
	volume   float64
	playing  bool
	ended    bool
}

// NewClockMedia creates a stopped transport with nothing loaded.
func NewClockMedia() *ClockMedia {
	return &ClockMedia{rate: 1.0, volume: 1.0}
}

// DurationSink is implemented by media backends that cannot derive the
// duration from the source and need it supplied from episode metadata.
type DurationSink interface {
	SetDuration(seconds float64)
}

// SetDuration supplies the duration of the next loaded source.
func (m *ClockMedia) SetDuration(seconds float64) {
	m.mu.Lock()
	m.duration = seconds
	m.mu.Unlock()
}

// LoadSource swaps the transport to a new source. Local paths must
// exist on disk; URLs are accepted as-is. Rate and volume reset to
// defaults, position resets to zero.
func (m *ClockMedia) LoadSource(uri string) error {
	if !isStreamURL(uri) {
		if _, err := os.Stat(uri); err != nil {
			return fmt.Errorf("open source: %w", err)
		}
	}

	m.mu.Lock()
	m.source = uri
	m.base = 0
	m.playing = false
	m.ended = false
	m.rate = 1.0
	m.volume = 1.0
	m.mu.Unlock()
	return nil
}

// Play starts the clock.
func (m *ClockMedia) Play() {
	m.mu.Lock()
	if !m.playing {
		m.playing = true
		m.startedAt = time.Now()
	}
	m.mu.Unlock()
}

// Pause freezes the clock.
func (m *ClockMedia) Pause() {
	m.mu.Lock()
	if m.playing {
		m.base = m.positionLocked()
		m.playing = false
	}
	m.mu.Unlock()
}

// Seek jumps the clock to a position.
func (m *ClockMedia) Seek(position float64) {
	m.mu.Lock()
	if position < 0 {
		position = 0
	}
	if m.duration > 0 && position > m.duration {
		position = m.duration
	}
	m.base = position
	m.startedAt = time.Now()
	m.ended = false
	m.mu.Unlock()
}

// SetRate changes the clock speed.
func (m *ClockMedia) SetRate(rate float64) {
	m.mu.Lock()
	// Rebase so the already-elapsed span keeps the old rate.
	m.base = m.positionLocked()
	m.startedAt = time.Now()
	m.rate = rate
	m.mu.Unlock()
}

// SetVolume records the volume for mirroring players.
func (m *ClockMedia) SetVolume(volume float64) {
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
}

// Volume returns the recorded volume.
func (m *ClockMedia) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Position returns the current clock position in seconds.
func (m *ClockMedia) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionLocked()
}

// Duration returns the loaded source's duration in seconds.
func (m *ClockMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

// positionLocked computes the position and fires OnEnded once when the
// clock runs past the duration. Callers hold mu.
func (m *ClockMedia) positionLocked() float64 {
	pos := m.base
	if m.playing {
		pos += time.Since(m.startedAt).Seconds() * m.rate
	}
	if m.duration > 0 && pos >= m.duration {
		pos = m.duration
		if m.playing && !m.ended {
			m.ended = true
			m.playing = false
			m.base = m.duration
			if m.OnEnded != nil {
				go m.OnEnded()
			}
		}
	}
	return pos
}

func isStreamURL(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}
