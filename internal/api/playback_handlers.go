package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/podskipapp/podskip-server/internal/player"
)

func (s *Server) registerPlaybackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "loadPlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/load",
		Summary:     "Load episode",
		Description: "Loads an episode into the playback session and arms its segment set",
		Tags:        []string{"Playback"},
	}, s.handlePlaybackLoad)

	huma.Register(s.api, huma.Operation{
		OperationID: "playPlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/play",
		Summary:     "Play",
		Tags:        []string{"Playback"},
	}, s.handlePlaybackPlay)

	huma.Register(s.api, huma.Operation{
		OperationID: "pausePlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/pause",
		Summary:     "Pause",
		Tags:        []string{"Playback"},
	}, s.handlePlaybackPause)

	huma.Register(s.api, huma.Operation{
		OperationID: "seekPlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/seek",
		Summary:     "Seek",
		Tags:        []string{"Playback"},
	}, s.handlePlaybackSeek)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPlaybackRate",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/rate",
		Summary:     "Set rate",
		Tags:        []string{"Playback"},
	}, s.handlePlaybackRate)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPlaybackVolume",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/volume",
		Summary:     "Set volume",
		Tags:        []string{"Playback"},
	}, s.handlePlaybackVolume)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlaybackStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/playback/status",
		Summary:     "Playback status",
		Tags:        []string{"Playback"},
	}, s.handlePlaybackStatus)
}

// PlaybackLoadInput selects the episode to load.
type PlaybackLoadInput struct {
	Body struct {
		EpisodeID string `json:"episode_id" doc:"Episode ID to load"`
	}
}

// StatusOutput wraps a playback session snapshot.
type StatusOutput struct {
	Body player.Status
}

func (s *Server) handlePlaybackLoad(ctx context.Context, input *PlaybackLoadInput) (*EpisodeOutput, error) {
	ep, err := s.services.Playback.Load(ctx, input.Body.EpisodeID)
	if err != nil {
		return nil, err
	}
	return &EpisodeOutput{Body: ep}, nil
}

func (s *Server) handlePlaybackPlay(_ context.Context, _ *struct{}) (*StatusOutput, error) {
	s.services.Playback.Play()
	return &StatusOutput{Body: s.services.Playback.Status()}, nil
}

func (s *Server) handlePlaybackPause(_ context.Context, _ *struct{}) (*StatusOutput, error) {
	s.services.Playback.Pause()
	return &StatusOutput{Body: s.services.Playback.Status()}, nil
}

// SeekInput carries the target position.
type SeekInput struct {
	Body struct {
		Position float64 `json:"position" doc:"Target position in seconds"`
	}
}

func (s *Server) handlePlaybackSeek(_ context.Context, input *SeekInput) (*StatusOutput, error) {
	if err := s.services.Playback.Seek(input.Body.Position); err != nil {
		return nil, err
	}
	return &StatusOutput{Body: s.services.Playback.Status()}, nil
}

// RateInput carries the playback rate.
type RateInput struct {
	Body struct {
		Rate float64 `json:"rate" doc:"Playback rate multiplier"`
	}
}

func (s *Server) handlePlaybackRate(_ context.Context, input *RateInput) (*StatusOutput, error) {
	if err := s.services.Playback.SetRate(input.Body.Rate); err != nil {
		return nil, err
	}
	return &StatusOutput{Body: s.services.Playback.Status()}, nil
}

// VolumeInput carries the playback volume.
type VolumeInput struct {
	Body struct {
		Volume float64 `json:"volume" doc:"Volume in [0, 1]"`
	}
}

func (s *Server) handlePlaybackVolume(_ context.Context, input *VolumeInput) (*StatusOutput, error) {
	if err := s.services.Playback.SetVolume(input.Body.Volume); err != nil {
		return nil, err
	}
	return &StatusOutput{Body: s.services.Playback.Status()}, nil
}

func (s *Server) handlePlaybackStatus(_ context.Context, _ *struct{}) (*StatusOutput, error) {
	return &StatusOutput{Body: s.services.Playback.Status()}, nil
}
