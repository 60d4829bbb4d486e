package player

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestClockMediaAdvancesWhilePlaying(t *testing.T) {
	m := NewClockMedia()
	m.SetDuration(3600)
	if err := m.LoadSource("https://example.com/feed/ep1.mp3"); err != nil {
		t.Fatalf("LoadSource: %v", err)
	}

	m.Play()
	time.Sleep(50 * time.Millisecond)
	pos := m.Position()
	if pos <= 0 {
		t.Errorf("position = %v, want > 0 while playing", pos)
	}

	m.Pause()
	frozen := m.Position()
	time.Sleep(30 * time.Millisecond)
	if got := m.Position(); got != frozen {
		t.Errorf("position advanced while paused: %v -> %v", frozen, got)
	}
}

func TestClockMediaSeekAndRate(t *testing.T) {
	m := NewClockMedia()
	m.SetDuration(3600)
	if err := m.LoadSource("https://example.com/feed/ep1.mp3"); err != nil {
		t.Fatalf("LoadSource: %v", err)
	}

	m.Seek(100)
	if got := m.Position(); got != 100 {
		t.Errorf("position after seek = %v, want 100", got)
	}

	m.SetRate(2.0)
	m.Play()
	time.Sleep(50 * time.Millisecond)
	if got := m.Position(); got < 100.05 {
		t.Errorf("position = %v, want noticeably past 100 at 2x", got)
	}
}

func TestClockMediaLoadSourceMissingFile(t *testing.T) {
	m := NewClockMedia()
	if err := m.LoadSource(filepath.Join(t.TempDir(), "nope.mp3")); err == nil {
		t.Fatal("expected error for missing local file")
	}
}

func TestClockMediaLoadSourceResetsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ep.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := NewClockMedia()
	m.SetDuration(3600)
	m.SetRate(2.0)
	m.SetVolume(0.3)
	m.Seek(500)

	if err := m.LoadSource(path); err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if got := m.Position(); got != 0 {
		t.Errorf("position after load = %v, want 0", got)
	}
	if got := m.Volume(); got != 1.0 {
		t.Errorf("volume after load = %v, want 1.0", got)
	}
}

func TestClockMediaFiresOnEndedOnce(t *testing.T) {
	m := NewClockMedia()
	var ended atomic.Int32
	m.OnEnded = func() { ended.Add(1) }

	m.SetDuration(0.01)
	if err := m.LoadSource("https://example.com/feed/short.mp3"); err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	m.Play()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Position() >= 0.01 && ended.Load() > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Extra samples past the end must not refire.
	m.Position()
	m.Position()
	time.Sleep(20 * time.Millisecond)

	if got := ended.Load(); got != 1 {
		t.Errorf("OnEnded fired %d times, want 1", got)
	}
}
