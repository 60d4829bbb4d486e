package detection

import (
	"log/slog"
	"slices"
	"sort"

	"github.com/podskipapp/podskip-server/internal/domain"
)

const (
	// Ads shorter than this are almost always validator noise;
	// other segment types (intros, credits) can legitimately be short.
	minAdDurationSeconds    = 8
	minOtherDurationSeconds = 3

	// Segments the model itself is unsure about get dropped outright.
	minConfidence = 60

	// More than this many segments in one episode is almost certainly
	// detection noise. Logged, never filtered.
	maxPlausibleSegments = 15

	// Overlap splitting can leave slivers; anything shorter than this
	// after splitting is dropped.
	minPostSplitSeconds = 2
)

// Pipeline produces the authoritative segment set for an episode from
// validated candidates. The result is sorted, non-overlapping (touching
// allowed) and bounded by the episode duration.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a validation pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Run applies every filter in order: bounds, clamp, minimum duration,
// confidence, merge, overlap resolution, post-split minimum. duration
// is the episode length in seconds.
//
// The committed set must be a fixed point: replaying pipeline output
// through the pipeline has to return the identical set, or a committed
// set would not survive its own revalidation. A single pass is almost
// always stable already; splitting and dropping can occasionally expose
// a segment to a filter it previously passed, so the pass repeats until
// nothing changes. Every non-final pass removes at least one segment,
// which bounds the loop.
func (p *Pipeline) Run(candidates []domain.AdSegment, duration float64) []domain.AdSegment {
	out := p.runOnce(candidates, duration)
	for {
		next := p.runOnce(out, duration)
		if slices.Equal(next, out) {
			return next
		}
		out = next
	}
}

func (p *Pipeline) runOnce(candidates []domain.AdSegment, duration float64) []domain.AdSegment {
	kept := make([]domain.AdSegment, 0, len(candidates))

	for _, seg := range candidates {
		if seg.Start < 0 || seg.Start >= duration || seg.End <= seg.Start {
			p.logger.Debug("dropping out-of-bounds segment",
				"start", seg.Start, "end", seg.End, "duration", duration)
			continue
		}
		if seg.End > duration {
			seg.End = duration
		}
		if tooShort(seg) {
			p.logger.Debug("dropping short segment",
				"type", seg.Type, "duration", seg.Duration())
			continue
		}
		if seg.Confidence < minConfidence {
			p.logger.Debug("dropping low-confidence segment",
				"type", seg.Type, "confidence", seg.Confidence)
			continue
		}
		kept = append(kept, seg)
	}

	if len(kept) > maxPlausibleSegments {
		p.logger.Warn("unusually many segments detected, likely noise",
			"count", len(kept))
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start < kept[j].Start
	})
	kept = MergeAdjacent(kept)
	kept = resolveOverlaps(kept)

	final := kept[:0]
	for _, seg := range kept {
		if seg.Duration() < minPostSplitSeconds {
			p.logger.Debug("dropping post-split sliver",
				"start", seg.Start, "end", seg.End)
			continue
		}
		final = append(final, seg)
	}

	return final
}

func tooShort(seg domain.AdSegment) bool {
	if seg.Type == domain.SegmentAdvertisement {
		return seg.Duration() < minAdDurationSeconds
	}
	return seg.Duration() < minOtherDurationSeconds
}

// resolveOverlaps walks a sorted segment list and guarantees no two
// segments overlap. A candidate fully nested inside the previously
// accepted segment is dropped; a partial overlap is split at the
// midpoint of the overlapping region, shortening the already-accepted
// segment in place.
func resolveOverlaps(sorted []domain.AdSegment) []domain.AdSegment {
	if len(sorted) <= 1 {
		return sorted
	}

	accepted := sorted[:1]
	for _, candidate := range sorted[1:] {
		previous := &accepted[len(accepted)-1]

		switch {
		case candidate.Start >= previous.End:
			accepted = append(accepted, candidate)
		case candidate.End <= previous.End:
			// Fully nested - drop the candidate.
		default:
			midpoint := (candidate.Start + previous.End) / 2
			previous.End = midpoint
			candidate.Start = midpoint
			accepted = append(accepted, candidate)
		}
	}

	return accepted
}
