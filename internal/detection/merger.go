package detection

import (
	"sort"
	"strings"

	"github.com/podskipapp/podskip-server/internal/domain"
)

// mergeGapSeconds is the largest silent gap between two advertisement
// fragments that still counts as one ad break. Real ad breaks are
// frequently split into several transcript-derived fragments; merging
// them avoids a run of flickering back-to-back skip markers.
const mergeGapSeconds = 8

// MergeAdjacent coalesces advertisement segments separated by less than
// mergeGapSeconds. Segments of any other type, or pairs of differing
// types, are never merged. The input is re-sorted by start first and
// the result preserves that order.
func MergeAdjacent(segments []domain.AdSegment) []domain.AdSegment {
	if len(segments) <= 1 {
		return segments
	}

	sorted := make([]domain.AdSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]domain.AdSegment, 0, len(sorted))
	current := sorted[0]

	for _, next := range sorted[1:] {
		gap := next.Start - current.End // negative when overlapping

		bothAds := current.Type == domain.SegmentAdvertisement && next.Type == domain.SegmentAdvertisement
		if bothAds && gap < mergeGapSeconds {
			if next.End > current.End {
				current.End = next.End
			}
			if next.Confidence > current.Confidence {
				current.Confidence = next.Confidence
			}
			current.Description = joinDescriptions(current.Description, next.Description)
			continue
		}

		merged = append(merged, current)
		current = next
	}

	return append(merged, current)
}

// joinDescriptions appends addition to base with a " | " separator,
// skipping empty additions and text already present.
func joinDescriptions(base, addition string) string {
	if addition == "" || strings.Contains(base, addition) {
		return base
	}
	if base == "" {
		return addition
	}
	return base + " | " + addition
}
