// Package sse implements Server-Sent Events for real-time detection and playback updates.
package sse

import (
	"time"

	"github.com/podskipapp/podskip-server/internal/domain"
)

// PodSkip uses SSE for server-to-client communication only. Playback
// commands follow a request/response pattern, so a bidirectional
// channel is not needed.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventEpisodeCreated represents an episode registration event.
	EventEpisodeCreated EventType = "episode.created"
	// EventEpisodeUpdated represents an episode update event.
	EventEpisodeUpdated EventType = "episode.updated"
	// EventEpisodeDeleted represents an episode deletion event.
	EventEpisodeDeleted EventType = "episode.deleted"
	// EventEpisodeFileMissing represents a cached audio file disappearing.
	EventEpisodeFileMissing EventType = "episode.file_missing"

	// EventDetectionStarted represents an ad detection run starting.
	EventDetectionStarted EventType = "detection.started"
	// EventDetectionCompleted represents an ad detection run finishing.
	EventDetectionCompleted EventType = "detection.completed"
	// EventDetectionFailed represents an ad detection run failing.
	EventDetectionFailed EventType = "detection.failed"

	// EventSegmentsCommitted represents a new segment set becoming active.
	EventSegmentsCommitted EventType = "segments.committed"
	// EventSegmentsDeleted represents an episode's segment set being cleared.
	EventSegmentsDeleted EventType = "segments.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`
}

// EpisodeEventData is the data payload for episode events.
type EpisodeEventData struct {
	Episode *domain.Episode `json:"episode"`
}

// EpisodeDeletedEventData is the data payload for episode delete events.
type EpisodeDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	EpisodeID string    `json:"episode_id"`
}

// EpisodeFileMissingEventData is the data payload for file missing events.
type EpisodeFileMissingEventData struct {
	EpisodeID string `json:"episode_id"`
	Path      string `json:"path"`
}

// DetectionStartedEventData is the data payload for detection start events.
type DetectionStartedEventData struct {
	StartedAt  time.Time            `json:"started_at"`
	EpisodeID  string               `json:"episode_id"`
	Type       domain.DetectionType `json:"type"`
	Generation uint64               `json:"generation"`
}

// DetectionCompletedEventData is the data payload for detection completion events.
type DetectionCompletedEventData struct {
	CompletedAt  time.Time            `json:"completed_at"`
	EpisodeID    string               `json:"episode_id"`
	Type         domain.DetectionType `json:"type"`
	Generation   uint64               `json:"generation"`
	SegmentCount int                  `json:"segment_count"`
}

// DetectionFailedEventData is the data payload for detection failure events.
type DetectionFailedEventData struct {
	EpisodeID  string               `json:"episode_id"`
	Type       domain.DetectionType `json:"type"`
	Generation uint64               `json:"generation"`
	Error      string               `json:"error"`
}

// SegmentsEventData is the data payload for segment set events.
type SegmentsEventData struct {
	EpisodeID  string             `json:"episode_id"`
	Generation uint64             `json:"generation"`
	Segments   []domain.AdSegment `json:"segments"`
}

// SegmentsDeletedEventData is the data payload for segment clear events.
type SegmentsDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	EpisodeID string    `json:"episode_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewEpisodeCreatedEvent creates an episode.created event.
func NewEpisodeCreatedEvent(ep *domain.Episode) Event {
	return Event{
		Type:      EventEpisodeCreated,
		Data:      EpisodeEventData{Episode: ep},
		Timestamp: time.Now(),
	}
}

// NewEpisodeUpdatedEvent creates an episode.updated event.
func NewEpisodeUpdatedEvent(ep *domain.Episode) Event {
	return Event{
		Type:      EventEpisodeUpdated,
		Data:      EpisodeEventData{Episode: ep},
		Timestamp: time.Now(),
	}
}

// NewEpisodeDeletedEvent creates an episode.deleted event.
func NewEpisodeDeletedEvent(episodeID string, deletedAt time.Time) Event {
	return Event{
		Type: EventEpisodeDeleted,
		Data: EpisodeDeletedEventData{
			EpisodeID: episodeID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewEpisodeFileMissingEvent creates an episode.file_missing event.
func NewEpisodeFileMissingEvent(episodeID, path string) Event {
	return Event{
		Type: EventEpisodeFileMissing,
		Data: EpisodeFileMissingEventData{
			EpisodeID: episodeID,
			Path:      path,
		},
		Timestamp: time.Now(),
	}
}

// NewDetectionStartedEvent creates a detection.started event.
func NewDetectionStartedEvent(episodeID string, detType domain.DetectionType, generation uint64) Event {
	return Event{
		Type: EventDetectionStarted,
		Data: DetectionStartedEventData{
			EpisodeID:  episodeID,
			Type:       detType,
			Generation: generation,
			StartedAt:  time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewDetectionCompletedEvent creates a detection.completed event.
func NewDetectionCompletedEvent(episodeID string, detType domain.DetectionType, generation uint64, segmentCount int) Event {
	return Event{
		Type: EventDetectionCompleted,
		Data: DetectionCompletedEventData{
			EpisodeID:    episodeID,
			Type:         detType,
			Generation:   generation,
			SegmentCount: segmentCount,
			CompletedAt:  time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewDetectionFailedEvent creates a detection.failed event.
func NewDetectionFailedEvent(episodeID string, detType domain.DetectionType, generation uint64, errMsg string) Event {
	return Event{
		Type: EventDetectionFailed,
		Data: DetectionFailedEventData{
			EpisodeID:  episodeID,
			Type:       detType,
			Generation: generation,
			Error:      errMsg,
		},
		Timestamp: time.Now(),
	}
}

// NewSegmentsCommittedEvent creates a segments.committed event.
func NewSegmentsCommittedEvent(set *domain.SegmentSet) Event {
	return Event{
		Type: EventSegmentsCommitted,
		Data: SegmentsEventData{
			EpisodeID:  set.EpisodeID,
			Generation: set.Generation,
			Segments:   set.Segments,
		},
		Timestamp: time.Now(),
	}
}

// NewSegmentsDeletedEvent creates a segments.deleted event.
func NewSegmentsDeletedEvent(episodeID string, deletedAt time.Time) Event {
	return Event{
		Type: EventSegmentsDeleted,
		Data: SegmentsDeletedEventData{
			EpisodeID: episodeID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
