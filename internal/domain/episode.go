package domain

import "time"

// Episode is one podcast episode known to the server. AudioPath points
// into the local download cache and may be empty until the episode has
// been fetched.
type Episode struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	PodcastTitle string    `json:"podcast_title,omitempty"`
	EnclosureURL string    `json:"enclosure_url"`
	Duration     float64   `json:"duration"` // seconds
	AudioPath    string    `json:"audio_path,omitempty"`
	Description  string    `json:"description,omitempty"`
	PublishedAt  time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DetectionType records which detector produced a segment set.
type DetectionType string

const (
	// DetectionBasic is the heuristic transcript speaker-label detector.
	DetectionBasic DetectionType = "basic"
	// DetectionAdvanced is the external text-generation detector.
	DetectionAdvanced DetectionType = "advanced"
)

// SegmentSet is the authoritative interval set for one episode. Each
// detection run replaces the whole set; runs never merge with a prior
// set. Generation is a per-episode monotonic counter allocated when a
// run starts - only the highest generation may commit, so a slow run
// started earlier can never overwrite a faster run started later.
type SegmentSet struct {
	EpisodeID     string        `json:"episode_id"`
	Segments      []AdSegment   `json:"segments"`
	DetectionType DetectionType `json:"detection_type"`
	Generation    uint64        `json:"generation"`
	CreatedAt     time.Time     `json:"created_at"`
}
