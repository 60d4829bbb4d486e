package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/podskipapp/podskip-server/internal/detection"
	"github.com/podskipapp/podskip-server/internal/domain"
	domainerrors "github.com/podskipapp/podskip-server/internal/errors"
	"github.com/podskipapp/podskip-server/internal/id"
	"github.com/podskipapp/podskip-server/internal/llm"
	"github.com/podskipapp/podskip-server/internal/sse"
	"github.com/podskipapp/podskip-server/internal/store"
)

// Completer produces a free-text reply to a system/user prompt pair.
// Satisfied by llm.Client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// DetectionService runs ad-segment detection over episode transcripts.
// Basic detection is a synchronous transcript heuristic; advanced
// detection calls the external text-generation service and runs in the
// background. Every run allocates a generation number up front, and
// only the highest generation may commit - a slow run started earlier
// can never overwrite a faster run started later.
type DetectionService struct {
	store    *store.Store
	llm      Completer
	pipeline *detection.Pipeline
	events   store.EventEmitter
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewDetectionService creates a new detection service. llm may be nil,
// in which case advanced detection is unavailable.
func NewDetectionService(store *store.Store, llm Completer, events store.EventEmitter, logger *slog.Logger) *DetectionService {
	return &DetectionService{
		store:    store,
		llm:      llm,
		pipeline: detection.NewPipeline(logger),
		events:   events,
		logger:   logger,
	}
}

// Wait blocks until all background detection runs have finished. Used
// during shutdown.
func (s *DetectionService) Wait() {
	s.wg.Wait()
}

// RunBasic runs the transcript speaker-label heuristic synchronously
// and commits the result as the episode's segment set.
func (s *DetectionService) RunBasic(ctx context.Context, episodeID string) (*domain.SegmentSet, error) {
	ep, t, gen, err := s.beginRun(ctx, episodeID, domain.DetectionBasic)
	if err != nil {
		return nil, err
	}

	candidates := detection.DetectFromSpeakers(t)
	set, err := s.commitRun(ctx, ep, domain.DetectionBasic, gen, candidates)
	if err != nil {
		s.events.Emit(sse.NewDetectionFailedEvent(episodeID, domain.DetectionBasic, gen, err.Error()))
		return nil, err
	}
	return set, nil
}

// StartAdvanced begins an advanced detection run in the background and
// returns its generation number. The run's outcome is reported through
// detection.completed / detection.failed events.
func (s *DetectionService) StartAdvanced(ctx context.Context, episodeID string) (uint64, error) {
	if s.llm == nil {
		return 0, domainerrors.Validation("advanced detection is not configured: set an LLM base URL")
	}

	ep, t, gen, err := s.beginRun(ctx, episodeID, domain.DetectionAdvanced)
	if err != nil {
		return 0, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Detached from the request context: the run outlives the
		// HTTP request that triggered it.
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := s.runAdvanced(runCtx, ep, t, gen); err != nil {
			s.logger.Error("advanced detection failed",
				"episode_id", ep.ID, "generation", gen, "error", err)
			s.events.Emit(sse.NewDetectionFailedEvent(ep.ID, domain.DetectionAdvanced, gen, err.Error()))
		}
	}()

	return gen, nil
}

// beginRun loads the run inputs, allocates the generation and announces
// the run.
func (s *DetectionService) beginRun(ctx context.Context, episodeID string, detType domain.DetectionType) (*domain.Episode, *domain.Transcript, uint64, error) {
	ep, err := s.store.GetEpisode(ctx, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, 0, domainerrors.NotFoundf("episode %s not found", episodeID)
		}
		return nil, nil, 0, fmt.Errorf("get episode: %w", err)
	}

	t, err := s.store.GetTranscript(ctx, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, 0, domainerrors.NotFoundf("no transcript for episode %s: upload one first", episodeID)
		}
		return nil, nil, 0, fmt.Errorf("get transcript: %w", err)
	}

	gen, err := s.store.NextDetectionGeneration(ctx, episodeID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("allocate detection generation: %w", err)
	}

	s.logger.Info("detection run started",
		"episode_id", episodeID,
		"type", detType,
		"generation", gen,
	)
	s.events.Emit(sse.NewDetectionStartedEvent(episodeID, detType, gen))

	return ep, t, gen, nil
}

func (s *DetectionService) runAdvanced(ctx context.Context, ep *domain.Episode, t *domain.Transcript, gen uint64) error {
	reply, err := s.llm.Complete(ctx, llm.SystemPrompt(), llm.BuildPrompt(t))
	if err != nil {
		return fmt.Errorf("completion: %w", err)
	}

	candidates, err := detection.ParseResponse(reply, s.logger)
	if err != nil {
		return err
	}

	_, err = s.commitRun(ctx, ep, domain.DetectionAdvanced, gen, candidates)
	return err
}

// commitRun validates candidates through the pipeline and commits the
// resulting set under the run's generation.
func (s *DetectionService) commitRun(ctx context.Context, ep *domain.Episode, detType domain.DetectionType, gen uint64, candidates []domain.AdSegment) (*domain.SegmentSet, error) {
	segments := s.pipeline.Run(candidates, ep.Duration)

	for i := range segments {
		segID, err := id.Generate("seg")
		if err != nil {
			return nil, fmt.Errorf("generate segment ID: %w", err)
		}
		segments[i].ID = segID
	}

	set := &domain.SegmentSet{
		EpisodeID:     ep.ID,
		Segments:      segments,
		DetectionType: detType,
		Generation:    gen,
	}

	if err := s.store.CommitSegmentSet(ctx, set); err != nil {
		if errors.Is(err, store.ErrStaleGeneration) {
			return nil, domainerrors.StaleResult("a newer detection run already committed for this episode")
		}
		return nil, fmt.Errorf("commit segment set: %w", err)
	}

	s.logger.Info("detection run committed",
		"episode_id", ep.ID,
		"type", detType,
		"generation", gen,
		"candidates", len(candidates),
		"segments", len(segments),
	)
	s.events.Emit(sse.NewDetectionCompletedEvent(ep.ID, detType, gen, len(segments)))

	return set, nil
}

// GetSegments returns the committed segment set for an episode.
func (s *DetectionService) GetSegments(ctx context.Context, episodeID string) (*domain.SegmentSet, error) {
	set, err := s.store.GetSegmentSet(ctx, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("no segments for episode %s", episodeID)
		}
		return nil, fmt.Errorf("get segment set: %w", err)
	}
	return set, nil
}

// DeleteSegments removes the committed segment set for an episode. The
// generation counter survives, so in-flight runs stay ordered.
func (s *DetectionService) DeleteSegments(ctx context.Context, episodeID string) error {
	if err := s.store.DeleteSegmentSet(ctx, episodeID); err != nil {
		return fmt.Errorf("delete segment set: %w", err)
	}
	return nil
}
