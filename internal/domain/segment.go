package domain

import (
	"fmt"
	"math"
	"strings"
)

// SegmentType classifies skippable content inside an episode.
type SegmentType string

const (
	SegmentAdvertisement  SegmentType = "advertisement"
	SegmentSelfPromotion  SegmentType = "self-promotion"
	SegmentIntroOutro     SegmentType = "intro/outro"
	SegmentClosingCredits SegmentType = "closing credits"
)

// ParseSegmentType matches raw against the canonical segment types,
// case-insensitively. Returns false for anything else ("sponsor",
// "music", empty string).
func ParseSegmentType(raw string) (SegmentType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SegmentAdvertisement):
		return SegmentAdvertisement, true
	case string(SegmentSelfPromotion):
		return SegmentSelfPromotion, true
	case string(SegmentIntroOutro):
		return SegmentIntroOutro, true
	case string(SegmentClosingCredits):
		return SegmentClosingCredits, true
	default:
		return "", false
	}
}

// AdSegment is a half-open time range [Start, End) in an episode tagged
// with a skippable-content type. Start and End are seconds from the
// beginning of the episode.
type AdSegment struct {
	ID          string      `json:"id,omitempty"`
	Start       float64     `json:"start"`
	End         float64     `json:"end"`
	Type        SegmentType `json:"type"`
	Confidence  int         `json:"confidence"` // 1-100
	Description string      `json:"description,omitempty"`
}

// Duration returns the segment length in seconds.
func (s AdSegment) Duration() float64 {
	return s.End - s.Start
}

// Contains reports whether position falls inside [Start, End).
func (s AdSegment) Contains(position float64) bool {
	return position >= s.Start && position < s.End
}

// StartDisplay returns the formatted start offset for UI labels.
// Not authoritative - Start is.
func (s AdSegment) StartDisplay() string {
	return FormatOffset(s.Start)
}

// EndDisplay returns the formatted end offset for UI labels.
func (s AdSegment) EndDisplay() string {
	return FormatOffset(s.End)
}

// FormatOffset renders seconds as M:SS, or H:MM:SS once the offset
// reaches an hour.
func FormatOffset(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ClampConfidence normalizes a raw confidence value to the 1-100 range,
// rounding to the nearest integer.
func ClampConfidence(raw float64) int {
	c := int(math.Round(raw))
	if c < 1 {
		return 1
	}
	if c > 100 {
		return 100
	}
	return c
}
