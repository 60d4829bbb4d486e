package detection

import (
	"strings"

	"github.com/podskipapp/podskip-server/internal/domain"
)

// minSpeakerRunSeconds is the shortest run of ad-labeled transcript
// segments worth emitting. Single mid-sentence label glitches produce
// sub-second runs.
const minSpeakerRunSeconds = 6

// adSpeakerLabels are transcript speaker labels that mark sponsored
// content, matched case-insensitively.
var adSpeakerLabels = map[string]struct{}{
	"advertiser":    {},
	"advertisement": {},
	"ad":            {},
	"sponsor":       {},
}

// DetectFromSpeakers is the basic detector: it extracts candidate ad
// segments from transcript speaker labels without any network call.
// Consecutive ad-labeled transcript segments coalesce into one
// candidate; runs shorter than minSpeakerRunSeconds are discarded.
// Candidates carry confidence 100 - the label is an explicit marker,
// not a guess.
func DetectFromSpeakers(t *domain.Transcript) []domain.AdSegment {
	if t == nil || len(t.Segments) == 0 {
		return nil
	}

	var (
		candidates []domain.AdSegment
		runStart   float64
		runEnd     float64
		inRun      bool
	)

	flush := func() {
		if inRun && runEnd-runStart >= minSpeakerRunSeconds {
			candidates = append(candidates, domain.AdSegment{
				Start:      runStart,
				End:        runEnd,
				Type:       domain.SegmentAdvertisement,
				Confidence: 100,
			})
		}
		inRun = false
	}

	for _, seg := range t.Segments {
		if isAdSpeaker(seg.Speaker) {
			if !inRun {
				runStart = seg.Start
				inRun = true
			}
			runEnd = seg.End
			continue
		}
		flush()
	}
	flush()

	return candidates
}

func isAdSpeaker(label string) bool {
	_, ok := adSpeakerLabels[strings.ToLower(strings.TrimSpace(label))]
	return ok
}
