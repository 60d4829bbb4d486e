// Package cache manages the local episode audio cache.
package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/podskipapp/podskip-server/internal/ratelimit"
)

const (
	// maxAudioSize limits download size to prevent disk exhaustion from
	// a misbehaving feed host.
	maxAudioSize = 512 * 1024 * 1024 // 512MB

	// downloadTimeout is the maximum time for a single episode download.
	downloadTimeout = 15 * time.Minute

	// hostRPS keeps downloads polite toward feed hosts.
	hostRPS   = 1.0
	hostBurst = 2
)

// Cache downloads episode audio into a local directory and hands back
// stable file paths for playback.
type Cache struct {
	dir        string
	httpClient *http.Client
	limiter    *ratelimit.KeyedRateLimiter
	sem        chan struct{}
	logger     *slog.Logger
}

// New creates an audio cache rooted at dir. maxConcurrent bounds
// simultaneous downloads.
func New(dir string, maxConcurrent int, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	return &Cache{
		dir: dir,
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
		limiter: ratelimit.New(hostRPS, hostBurst),
		sem:     make(chan struct{}, maxConcurrent),
		logger:  logger,
	}, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Close releases the cache's rate limiter.
func (c *Cache) Close() {
	c.limiter.Stop()
}

// Path returns the cache path an episode's audio would occupy. The file
// may or may not exist.
func (c *Cache) Path(episodeID, enclosureURL string) string {
	return filepath.Join(c.dir, episodeID+audioExt(enclosureURL))
}

// Download fetches an episode's audio into the cache and returns the
// local path. The download goes to a temp file first and is renamed
// into place, so a partially written file is never visible under the
// final name.
func (c *Cache) Download(ctx context.Context, episodeID, enclosureURL string) (string, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	parsed, err := url.Parse(enclosureURL)
	if err != nil {
		return "", fmt.Errorf("parse enclosure url: %w", err)
	}

	if err := c.limiter.Wait(ctx, parsed.Host); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, enclosureURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	finalPath := c.Path(episodeID, enclosureURL)

	tmp, err := os.CreateTemp(c.dir, episodeID+".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, maxAudioSize))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write audio: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize audio file: %w", err)
	}

	c.logger.Info("downloaded episode audio",
		"episode_id", episodeID,
		"host", parsed.Host,
		"size", written,
		"path", finalPath,
	)

	return finalPath, nil
}

// Remove deletes an episode's cached audio. Idempotent.
func (c *Cache) Remove(episodeID, enclosureURL string) error {
	err := os.Remove(c.Path(episodeID, enclosureURL))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cached audio: %w", err)
	}
	return nil
}

// audioExt picks a file extension from the enclosure URL path,
// defaulting to .mp3 when the URL gives nothing usable.
func audioExt(enclosureURL string) string {
	parsed, err := url.Parse(enclosureURL)
	if err != nil {
		return ".mp3"
	}
	switch ext := filepath.Ext(parsed.Path); ext {
	case ".mp3", ".m4a", ".m4b", ".aac", ".ogg", ".opus", ".wav", ".flac":
		return ext
	default:
		return ".mp3"
	}
}
