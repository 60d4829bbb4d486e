package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/podskipapp/podskip-server/internal/domain"
)

func (s *Server) registerDetectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "detectSegments",
		Method:      http.MethodPost,
		Path:        "/api/v1/episodes/{id}/detect",
		Summary:     "Run ad detection",
		Description: "Runs the transcript heuristic synchronously, or starts an advanced run in the background",
		Tags:        []string{"Detection"},
	}, s.handleDetect)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSegments",
		Method:      http.MethodGet,
		Path:        "/api/v1/episodes/{id}/segments",
		Summary:     "Get segments",
		Description: "Returns the committed segment set for an episode",
		Tags:        []string{"Detection"},
	}, s.handleGetSegments)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSegments",
		Method:      http.MethodDelete,
		Path:        "/api/v1/episodes/{id}/segments",
		Summary:     "Clear segments",
		Description: "Removes the committed segment set for an episode",
		Tags:        []string{"Detection"},
	}, s.handleDeleteSegments)
}

// DetectInput is the request for triggering a detection run.
type DetectInput struct {
	ID   string `path:"id" doc:"Episode ID"`
	Body struct {
		Method string `json:"method" enum:"basic,advanced" doc:"Detection method"`
	}
}

// DetectOutput reports the outcome of a detection trigger. For basic
// runs the committed set is returned inline; advanced runs report their
// generation and deliver results over SSE.
type DetectOutput struct {
	Status int
	Body   struct {
		Method     string             `json:"method"`
		Generation uint64             `json:"generation"`
		Segments   []domain.AdSegment `json:"segments,omitempty"`
	}
}

// SegmentSetOutput wraps a committed segment set.
type SegmentSetOutput struct {
	Body *domain.SegmentSet
}

func (s *Server) handleDetect(ctx context.Context, input *DetectInput) (*DetectOutput, error) {
	out := &DetectOutput{}
	out.Body.Method = input.Body.Method

	switch input.Body.Method {
	case "advanced":
		gen, err := s.services.Detection.StartAdvanced(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		out.Status = http.StatusAccepted
		out.Body.Generation = gen
	default:
		set, err := s.services.Detection.RunBasic(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		out.Status = http.StatusOK
		out.Body.Generation = set.Generation
		out.Body.Segments = set.Segments
	}

	return out, nil
}

func (s *Server) handleGetSegments(ctx context.Context, input *EpisodeIDInput) (*SegmentSetOutput, error) {
	set, err := s.services.Detection.GetSegments(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SegmentSetOutput{Body: set}, nil
}

func (s *Server) handleDeleteSegments(ctx context.Context, input *EpisodeIDInput) (*MessageOutput, error) {
	if err := s.services.Detection.DeleteSegments(ctx, input.ID); err != nil {
		return nil, err
	}
	out := &MessageOutput{}
	out.Body.Message = "Segments cleared"
	return out, nil
}
