package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podskipapp/podskip-server/internal/domain"
	domainerrors "github.com/podskipapp/podskip-server/internal/errors"
	"github.com/podskipapp/podskip-server/internal/sse"
	"github.com/podskipapp/podskip-server/internal/store"
)

// captureEmitter records emitted SSE events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (c *captureEmitter) Emit(event any) {
	e, ok := event.(sse.Event)
	if !ok {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *captureEmitter) ofType(t sse.EventType) []sse.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sse.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fakeCompleter returns a canned reply or error.
type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.reply, f.err
}

func setupDetectionTest(t *testing.T, llm Completer) (*DetectionService, *store.Store, *captureEmitter, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "podskip-detection-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	emitter := &captureEmitter{}
	svc := NewDetectionService(st, llm, emitter, logger)

	cleanup := func() {
		svc.Wait()
		st.Close()
		os.RemoveAll(tmpDir)
	}
	return svc, st, emitter, cleanup
}

func seedEpisodeWithTranscript(t *testing.T, st *store.Store, episodeID string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, st.CreateEpisode(ctx, &domain.Episode{
		ID:           episodeID,
		Title:        "Episode " + episodeID,
		EnclosureURL: "https://feeds.example.com/" + episodeID + ".mp3",
		Duration:     1800,
	}))

	require.NoError(t, st.SaveTranscript(ctx, &domain.Transcript{
		EpisodeID: episodeID,
		Duration:  1800,
		Segments: []domain.TranscriptSegment{
			{Start: 0, End: 30, Text: "Welcome back to the show", Speaker: "Host"},
			{Start: 30, End: 50, Text: "This episode is brought to you by", Speaker: "Sponsor"},
			{Start: 50, End: 75, Text: "use code PODCAST at checkout", Speaker: "Sponsor"},
			{Start: 75, End: 1800, Text: "Back to our guest", Speaker: "Host"},
		},
	}))
}

func TestRunBasic_CommitsSpeakerSegments(t *testing.T) {
	svc, st, emitter, cleanup := setupDetectionTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	seedEpisodeWithTranscript(t, st, "ep-1")

	set, err := svc.RunBasic(ctx, "ep-1")
	require.NoError(t, err)
	require.Len(t, set.Segments, 1)

	seg := set.Segments[0]
	assert.Equal(t, 30.0, seg.Start)
	assert.Equal(t, 75.0, seg.End)
	assert.Equal(t, domain.SegmentAdvertisement, seg.Type)
	assert.NotEmpty(t, seg.ID)
	assert.Equal(t, uint64(1), set.Generation)
	assert.Equal(t, domain.DetectionBasic, set.DetectionType)

	// The committed set is readable back.
	stored, err := svc.GetSegments(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, set.Generation, stored.Generation)

	assert.Len(t, emitter.ofType(sse.EventDetectionStarted), 1)
	assert.Len(t, emitter.ofType(sse.EventDetectionCompleted), 1)
	assert.Empty(t, emitter.ofType(sse.EventDetectionFailed))
}

func TestRunBasic_NoTranscript(t *testing.T) {
	svc, st, _, cleanup := setupDetectionTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, st.CreateEpisode(ctx, &domain.Episode{
		ID:           "ep-bare",
		Title:        "No transcript yet",
		EnclosureURL: "https://feeds.example.com/ep-bare.mp3",
		Duration:     1800,
	}))

	_, err := svc.RunBasic(ctx, "ep-bare")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRunBasic_EpisodeNotFound(t *testing.T) {
	svc, _, _, cleanup := setupDetectionTest(t, nil)
	defer cleanup()

	_, err := svc.RunBasic(context.Background(), "ep-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRunBasic_RerunBumpsGeneration(t *testing.T) {
	svc, st, _, cleanup := setupDetectionTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	seedEpisodeWithTranscript(t, st, "ep-1")

	first, err := svc.RunBasic(ctx, "ep-1")
	require.NoError(t, err)
	second, err := svc.RunBasic(ctx, "ep-1")
	require.NoError(t, err)

	assert.Greater(t, second.Generation, first.Generation)
}

func TestStartAdvanced_NotConfigured(t *testing.T) {
	svc, st, _, cleanup := setupDetectionTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	seedEpisodeWithTranscript(t, st, "ep-1")

	_, err := svc.StartAdvanced(ctx, "ep-1")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestStartAdvanced_CommitsParsedSegments(t *testing.T) {
	llm := &fakeCompleter{reply: `Here are the detected segments:
[
  {"startTime": "1:00", "endTime": "2:00", "type": "advertisement", "confidence": 95},
  {"startTime": "15:00", "endTime": "16:00", "type": "self-promotion", "confidence": 80}
]`}
	svc, st, emitter, cleanup := setupDetectionTest(t, llm)
	defer cleanup()

	ctx := context.Background()
	seedEpisodeWithTranscript(t, st, "ep-1")

	gen, err := svc.StartAdvanced(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	svc.Wait()

	set, err := svc.GetSegments(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DetectionAdvanced, set.DetectionType)
	require.Len(t, set.Segments, 2)
	assert.Equal(t, 60.0, set.Segments[0].Start)
	assert.Equal(t, 960.0, set.Segments[1].End)

	assert.Len(t, emitter.ofType(sse.EventDetectionCompleted), 1)
	assert.Empty(t, emitter.ofType(sse.EventDetectionFailed))
}

func TestStartAdvanced_CompletionFailureEmitsFailedEvent(t *testing.T) {
	llm := &fakeCompleter{err: fmt.Errorf("connection refused")}
	svc, st, emitter, cleanup := setupDetectionTest(t, llm)
	defer cleanup()

	ctx := context.Background()
	seedEpisodeWithTranscript(t, st, "ep-1")

	_, err := svc.StartAdvanced(ctx, "ep-1")
	require.NoError(t, err)

	svc.Wait()

	_, err = svc.GetSegments(ctx, "ep-1")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Len(t, emitter.ofType(sse.EventDetectionFailed), 1)
}

func TestStartAdvanced_UnparseableReplyEmitsFailedEvent(t *testing.T) {
	llm := &fakeCompleter{reply: "I could not find any advertisements in this episode."}
	svc, st, emitter, cleanup := setupDetectionTest(t, llm)
	defer cleanup()

	ctx := context.Background()
	seedEpisodeWithTranscript(t, st, "ep-1")

	_, err := svc.StartAdvanced(ctx, "ep-1")
	require.NoError(t, err)

	svc.Wait()

	assert.Len(t, emitter.ofType(sse.EventDetectionFailed), 1)
}

func TestDeleteSegments_KeepsGenerationCounter(t *testing.T) {
	svc, st, _, cleanup := setupDetectionTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	seedEpisodeWithTranscript(t, st, "ep-1")

	first, err := svc.RunBasic(ctx, "ep-1")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSegments(ctx, "ep-1"))

	_, err = svc.GetSegments(ctx, "ep-1")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// A later run still allocates a higher generation.
	second, err := svc.RunBasic(ctx, "ep-1")
	require.NoError(t, err)
	assert.Greater(t, second.Generation, first.Generation)
}
