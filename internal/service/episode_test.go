package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podskipapp/podskip-server/internal/domain"
	domainerrors "github.com/podskipapp/podskip-server/internal/errors"
	"github.com/podskipapp/podskip-server/internal/media/cache"
	"github.com/podskipapp/podskip-server/internal/store"
)

func setupEpisodeTest(t *testing.T) (*EpisodeService, *store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "podskip-episode-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	audioCache, err := cache.New(filepath.Join(tmpDir, "audio"), 2, logger)
	require.NoError(t, err)

	svc := NewEpisodeService(st, audioCache, logger)

	cleanup := func() {
		audioCache.Close()
		st.Close()
		os.RemoveAll(tmpDir)
	}
	return svc, st, cleanup
}

func validEpisodeRequest() CreateEpisodeRequest {
	return CreateEpisodeRequest{
		Title:        "Interview with a Gopher",
		PodcastTitle: "Go Time",
		EnclosureURL: "https://feeds.example.com/123.mp3",
		Duration:     3600,
	}
}

func TestCreateEpisode_Service(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ep, err := svc.CreateEpisode(context.Background(), validEpisodeRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ep.ID, "ep-"), "unexpected ID %q", ep.ID)
	assert.Equal(t, "Interview with a Gopher", ep.Title)
	assert.False(t, ep.CreatedAt.IsZero())
}

func TestCreateEpisode_Validation(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateEpisodeRequest)
	}{
		{"missing title", func(r *CreateEpisodeRequest) { r.Title = "" }},
		{"missing enclosure URL", func(r *CreateEpisodeRequest) { r.EnclosureURL = "" }},
		{"bad enclosure URL", func(r *CreateEpisodeRequest) { r.EnclosureURL = "not a url" }},
		{"zero duration", func(r *CreateEpisodeRequest) { r.Duration = 0 }},
		{"negative duration", func(r *CreateEpisodeRequest) { r.Duration = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validEpisodeRequest()
			tt.mutate(&req)
			_, err := svc.CreateEpisode(ctx, req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestCreateEpisode_DuplicateEnclosure(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ctx := context.Background()
	_, err := svc.CreateEpisode(ctx, validEpisodeRequest())
	require.NoError(t, err)

	_, err = svc.CreateEpisode(ctx, validEpisodeRequest())
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestListEpisodes_Pages(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ctx := context.Background()
	for i := range 3 {
		req := validEpisodeRequest()
		req.EnclosureURL = validEpisodeRequest().EnclosureURL + "?" + string(rune('a'+i))
		_, err := svc.CreateEpisode(ctx, req)
		require.NoError(t, err)
	}

	page, err := svc.ListEpisodes(ctx, 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	rest, err := svc.ListEpisodes(ctx, 2, page.NextCursor)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.False(t, rest.HasMore)
}

func TestListEpisodes_BadCursor(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	_, err := svc.ListEpisodes(context.Background(), 10, "not a cursor!")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestDownloadEpisode_CachesAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, "audio-bytes")
	}))
	defer srv.Close()

	svc, st, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ctx := context.Background()
	req := validEpisodeRequest()
	req.EnclosureURL = srv.URL + "/feed/episode.mp3"
	ep, err := svc.CreateEpisode(ctx, req)
	require.NoError(t, err)

	downloaded, err := svc.DownloadEpisode(ctx, ep.ID)
	require.NoError(t, err)
	require.NotEmpty(t, downloaded.AudioPath)

	_, err = os.Stat(downloaded.AudioPath)
	require.NoError(t, err)

	// The path is persisted and indexed.
	found, err := st.GetEpisodeByAudioPath(ctx, downloaded.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, ep.ID, found.ID)
}

func TestDeleteEpisode_RemovesCachedAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "audio-bytes")
	}))
	defer srv.Close()

	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ctx := context.Background()
	req := validEpisodeRequest()
	req.EnclosureURL = srv.URL + "/episode.mp3"
	ep, err := svc.CreateEpisode(ctx, req)
	require.NoError(t, err)

	downloaded, err := svc.DownloadEpisode(ctx, ep.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEpisode(ctx, ep.ID))

	_, err = svc.GetEpisode(ctx, ep.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = os.Stat(downloaded.AudioPath)
	assert.True(t, os.IsNotExist(err))
}

func TestUploadTranscript_Service(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ctx := context.Background()
	ep, err := svc.CreateEpisode(ctx, validEpisodeRequest())
	require.NoError(t, err)

	transcript, err := svc.UploadTranscript(ctx, ep.ID, UploadTranscriptRequest{
		Duration: 3600,
		Segments: []domain.TranscriptSegment{
			{Start: 0, End: 5, Text: "Welcome back", Speaker: "Host"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ep.ID, transcript.EpisodeID)

	stored, err := svc.GetTranscript(ctx, ep.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Segments, 1)
}

func TestUploadTranscript_Validation(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	ctx := context.Background()
	ep, err := svc.CreateEpisode(ctx, validEpisodeRequest())
	require.NoError(t, err)

	_, err = svc.UploadTranscript(ctx, ep.ID, UploadTranscriptRequest{Duration: 3600})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.UploadTranscript(ctx, ep.ID, UploadTranscriptRequest{
		Segments: []domain.TranscriptSegment{{Start: 0, End: 5, Text: "hi"}},
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestUploadTranscript_EpisodeNotFound(t *testing.T) {
	svc, _, cleanup := setupEpisodeTest(t)
	defer cleanup()

	_, err := svc.UploadTranscript(context.Background(), "ep-missing", UploadTranscriptRequest{
		Duration: 3600,
		Segments: []domain.TranscriptSegment{{Start: 0, End: 5, Text: "hi"}},
	})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
