package domain

import "time"

// TranscriptSegment is one externally-produced transcript span. Speaker
// labels are whatever the transcription service emitted; the heuristic
// detector matches them case-insensitively.
type TranscriptSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the read-only transcript for one episode.
type Transcript struct {
	EpisodeID string              `json:"episode_id"`
	Duration  float64             `json:"duration"`
	Segments  []TranscriptSegment `json:"segments"`
	CreatedAt time.Time           `json:"created_at"`
}
