package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/podskipapp/podskip-server/internal/domain"
	"github.com/podskipapp/podskip-server/internal/service"
	"github.com/podskipapp/podskip-server/internal/store"
)

func (s *Server) registerEpisodeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createEpisode",
		Method:      http.MethodPost,
		Path:        "/api/v1/episodes",
		Summary:     "Register episode",
		Description: "Registers a podcast episode by enclosure URL and metadata",
		Tags:        []string{"Episodes"},
	}, s.handleCreateEpisode)

	huma.Register(s.api, huma.Operation{
		OperationID: "listEpisodes",
		Method:      http.MethodGet,
		Path:        "/api/v1/episodes",
		Summary:     "List episodes",
		Description: "Returns all registered episodes",
		Tags:        []string{"Episodes"},
	}, s.handleListEpisodes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEpisode",
		Method:      http.MethodGet,
		Path:        "/api/v1/episodes/{id}",
		Summary:     "Get episode",
		Description: "Returns an episode by ID",
		Tags:        []string{"Episodes"},
	}, s.handleGetEpisode)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEpisode",
		Method:      http.MethodDelete,
		Path:        "/api/v1/episodes/{id}",
		Summary:     "Delete episode",
		Description: "Deletes an episode, its transcript, segments and cached audio",
		Tags:        []string{"Episodes"},
	}, s.handleDeleteEpisode)

	huma.Register(s.api, huma.Operation{
		OperationID: "downloadEpisode",
		Method:      http.MethodPost,
		Path:        "/api/v1/episodes/{id}/download",
		Summary:     "Download episode audio",
		Description: "Fetches the episode's audio into the local cache",
		Tags:        []string{"Episodes"},
	}, s.handleDownloadEpisode)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadTranscript",
		Method:      http.MethodPut,
		Path:        "/api/v1/episodes/{id}/transcript",
		Summary:     "Attach transcript",
		Description: "Stores the transcript for an episode, replacing any previous one",
		Tags:        []string{"Episodes"},
	}, s.handleUploadTranscript)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTranscript",
		Method:      http.MethodGet,
		Path:        "/api/v1/episodes/{id}/transcript",
		Summary:     "Get transcript",
		Description: "Returns the stored transcript for an episode",
		Tags:        []string{"Episodes"},
	}, s.handleGetTranscript)
}

// CreateEpisodeInput is the request for registering an episode.
type CreateEpisodeInput struct {
	Body struct {
		Title        string    `json:"title" doc:"Episode title"`
		PodcastTitle string    `json:"podcast_title,omitempty" doc:"Podcast the episode belongs to"`
		EnclosureURL string    `json:"enclosure_url" doc:"Audio enclosure URL from the feed"`
		Duration     float64   `json:"duration" doc:"Episode duration in seconds"`
		Description  string    `json:"description,omitempty"`
		PublishedAt  time.Time `json:"published_at,omitzero"`
	}
}

// EpisodeOutput wraps a single episode response.
type EpisodeOutput struct {
	Body *domain.Episode
}

// ListEpisodesInput carries pagination parameters.
type ListEpisodesInput struct {
	Limit  int    `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Items per page"`
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// EpisodeListOutput wraps one page of episodes.
type EpisodeListOutput struct {
	Body *store.PaginatedResult[*domain.Episode]
}

// EpisodeIDInput identifies an episode by path parameter.
type EpisodeIDInput struct {
	ID string `path:"id" doc:"Episode ID"`
}

// MessageOutput wraps a simple confirmation message.
type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (s *Server) handleCreateEpisode(ctx context.Context, input *CreateEpisodeInput) (*EpisodeOutput, error) {
	ep, err := s.services.Episode.CreateEpisode(ctx, service.CreateEpisodeRequest{
		Title:        input.Body.Title,
		PodcastTitle: input.Body.PodcastTitle,
		EnclosureURL: input.Body.EnclosureURL,
		Duration:     input.Body.Duration,
		Description:  input.Body.Description,
		PublishedAt:  input.Body.PublishedAt,
	})
	if err != nil {
		return nil, err
	}
	return &EpisodeOutput{Body: ep}, nil
}

func (s *Server) handleListEpisodes(ctx context.Context, input *ListEpisodesInput) (*EpisodeListOutput, error) {
	page, err := s.services.Episode.ListEpisodes(ctx, input.Limit, input.Cursor)
	if err != nil {
		return nil, err
	}
	return &EpisodeListOutput{Body: page}, nil
}

func (s *Server) handleGetEpisode(ctx context.Context, input *EpisodeIDInput) (*EpisodeOutput, error) {
	ep, err := s.services.Episode.GetEpisode(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &EpisodeOutput{Body: ep}, nil
}

func (s *Server) handleDeleteEpisode(ctx context.Context, input *EpisodeIDInput) (*MessageOutput, error) {
	if err := s.services.Episode.DeleteEpisode(ctx, input.ID); err != nil {
		return nil, err
	}
	out := &MessageOutput{}
	out.Body.Message = "Episode deleted"
	return out, nil
}

func (s *Server) handleDownloadEpisode(ctx context.Context, input *EpisodeIDInput) (*EpisodeOutput, error) {
	ep, err := s.services.Episode.DownloadEpisode(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &EpisodeOutput{Body: ep}, nil
}

// UploadTranscriptInput is the request for attaching a transcript.
type UploadTranscriptInput struct {
	ID   string `path:"id" doc:"Episode ID"`
	Body struct {
		Duration float64                    `json:"duration" doc:"Episode duration in seconds"`
		Segments []domain.TranscriptSegment `json:"segments"`
	}
}

// TranscriptOutput wraps a transcript response.
type TranscriptOutput struct {
	Body *domain.Transcript
}

func (s *Server) handleUploadTranscript(ctx context.Context, input *UploadTranscriptInput) (*TranscriptOutput, error) {
	t, err := s.services.Episode.UploadTranscript(ctx, input.ID, service.UploadTranscriptRequest{
		Duration: input.Body.Duration,
		Segments: input.Body.Segments,
	})
	if err != nil {
		return nil, err
	}
	return &TranscriptOutput{Body: t}, nil
}

func (s *Server) handleGetTranscript(ctx context.Context, input *EpisodeIDInput) (*TranscriptOutput, error) {
	t, err := s.services.Episode.GetTranscript(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TranscriptOutput{Body: t}, nil
}
