package store_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podskipapp/podskip-server/internal/domain"
	"github.com/podskipapp/podskip-server/internal/store"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "podskip-store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	require.NoError(t, err)

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func testEpisode(id string) *domain.Episode {
	return &domain.Episode{
		ID:           id,
		Title:        "Interview with a Gopher",
		PodcastTitle: "Go Time",
		EnclosureURL: "https://feeds.example.com/" + id + ".mp3",
		Duration:     3600,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestCreateEpisode(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	ep := testEpisode("ep-1")

	require.NoError(t, s.CreateEpisode(ctx, ep))

	retrieved, err := s.GetEpisode(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, ep.Title, retrieved.Title)
	assert.Equal(t, ep.EnclosureURL, retrieved.EnclosureURL)
	assert.Equal(t, ep.Duration, retrieved.Duration)
}

func TestCreateEpisode_DuplicateEnclosureURL(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateEpisode(ctx, testEpisode("ep-1")))

	dup := testEpisode("ep-2")
	dup.EnclosureURL = "https://feeds.example.com/ep-1.mp3"

	err := s.CreateEpisode(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetEpisode_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetEpisode(context.Background(), "ep-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetEpisodeByAudioPath(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	ep := testEpisode("ep-1")
	ep.AudioPath = "/cache/audio/ep-1.mp3"
	require.NoError(t, s.CreateEpisode(ctx, ep))

	found, err := s.GetEpisodeByAudioPath(ctx, "/cache/audio/ep-1.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ep-1", found.ID)

	_, err = s.GetEpisodeByAudioPath(ctx, "/cache/audio/other.mp3")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateEpisode_AudioPathIndexFollows(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	ep := testEpisode("ep-1")
	require.NoError(t, s.CreateEpisode(ctx, ep))

	// Episode gets downloaded.
	ep.AudioPath = "/cache/audio/ep-1.mp3"
	require.NoError(t, s.UpdateEpisode(ctx, ep))

	found, err := s.GetEpisodeByAudioPath(ctx, "/cache/audio/ep-1.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ep-1", found.ID)

	// File goes missing, the path is cleared.
	ep.AudioPath = ""
	require.NoError(t, s.UpdateEpisode(ctx, ep))

	_, err = s.GetEpisodeByAudioPath(ctx, "/cache/audio/ep-1.mp3")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteEpisode_CascadesDetectionState(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	ep := testEpisode("ep-1")
	require.NoError(t, s.CreateEpisode(ctx, ep))

	require.NoError(t, s.SaveTranscript(ctx, &domain.Transcript{
		EpisodeID: "ep-1",
		Duration:  3600,
		Segments: []domain.TranscriptSegment{
			{Start: 0, End: 5, Text: "Welcome back", Speaker: "Host"},
		},
	}))

	gen, err := s.NextDetectionGeneration(ctx, "ep-1")
	require.NoError(t, err)
	require.NoError(t, s.CommitSegmentSet(ctx, &domain.SegmentSet{
		EpisodeID:     "ep-1",
		Generation:    gen,
		DetectionType: domain.DetectionBasic,
	}))

	require.NoError(t, s.DeleteEpisode(ctx, "ep-1"))

	_, err = s.GetEpisode(ctx, "ep-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTranscript(ctx, "ep-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetSegmentSet(ctx, "ep-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteEpisode_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, s.DeleteEpisode(context.Background(), "ep-never-existed"))
}

func TestListEpisodes(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateEpisode(ctx, testEpisode("ep-1")))
	require.NoError(t, s.CreateEpisode(ctx, testEpisode("ep-2")))
	require.NoError(t, s.CreateEpisode(ctx, testEpisode("ep-3")))

	episodes, err := s.ListEpisodes(ctx)
	require.NoError(t, err)
	assert.Len(t, episodes, 3)
}

func TestListEpisodesPage(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.CreateEpisode(ctx, testEpisode(fmt.Sprintf("ep-%d", i))))
	}

	first, err := s.ListEpisodesPage(ctx, store.PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	second, err := s.ListEpisodesPage(ctx, store.PaginationParams{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.True(t, second.HasMore)

	third, err := s.ListEpisodesPage(ctx, store.PaginationParams{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	assert.Len(t, third.Items, 1)
	assert.False(t, third.HasMore)
	assert.Empty(t, third.NextCursor)

	// No page repeats an episode.
	seen := map[string]bool{}
	for _, page := range [][]*domain.Episode{first.Items, second.Items, third.Items} {
		for _, ep := range page {
			assert.False(t, seen[ep.ID], "episode %s returned twice", ep.ID)
			seen[ep.ID] = true
		}
	}
}

func TestListEpisodesPage_BadCursor(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.ListEpisodesPage(context.Background(), store.PaginationParams{Cursor: "not base64!"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}
