package detection

import (
	"testing"

	"github.com/podskipapp/podskip-server/internal/domain"
)

func ad(start, end float64) domain.AdSegment {
	return domain.AdSegment{Start: start, End: end, Type: domain.SegmentAdvertisement, Confidence: 80}
}

func TestMergeAdjacent_SmallGapMerges(t *testing.T) {
	got := MergeAdjacent([]domain.AdSegment{ad(0, 10), ad(15, 25)})
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
	if got[0].Start != 0 || got[0].End != 25 {
		t.Errorf("merged = [%v, %v), want [0, 25)", got[0].Start, got[0].End)
	}
}

func TestMergeAdjacent_ExactThresholdDoesNotMerge(t *testing.T) {
	got := MergeAdjacent([]domain.AdSegment{ad(0, 10), ad(18, 28)})
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2 (gap of exactly 8s must not merge)", len(got))
	}
}

func TestMergeAdjacent_DifferentTypesNeverMerge(t *testing.T) {
	promo := domain.AdSegment{Start: 15, End: 25, Type: domain.SegmentSelfPromotion, Confidence: 80}
	got := MergeAdjacent([]domain.AdSegment{ad(0, 10), promo})
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
}

func TestMergeAdjacent_OverlappingAdsMerge(t *testing.T) {
	got := MergeAdjacent([]domain.AdSegment{ad(0, 20), ad(10, 15)})
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
	if got[0].End != 20 {
		t.Errorf("End = %v, want 20 (max of both)", got[0].End)
	}
}

func TestMergeAdjacent_TakesMaxConfidence(t *testing.T) {
	a := ad(0, 10)
	a.Confidence = 70
	b := ad(12, 22)
	b.Confidence = 95

	got := MergeAdjacent([]domain.AdSegment{a, b})
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
	if got[0].Confidence != 95 {
		t.Errorf("Confidence = %d, want 95", got[0].Confidence)
	}
}

func TestMergeAdjacent_DescriptionJoining(t *testing.T) {
	a := ad(0, 10)
	a.Description = "Squarespace"
	b := ad(12, 22)
	b.Description = "Mailchimp"
	c := ad(24, 34)
	c.Description = "Squarespace" // already present, not repeated
	d := ad(36, 46)
	d.Description = ""

	got := MergeAdjacent([]domain.AdSegment{a, b, c, d})
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
	if got[0].Description != "Squarespace | Mailchimp" {
		t.Errorf("Description = %q", got[0].Description)
	}
}

func TestMergeAdjacent_SortsDefensively(t *testing.T) {
	got := MergeAdjacent([]domain.AdSegment{ad(15, 25), ad(0, 10)})
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
	if got[0].Start != 0 || got[0].End != 25 {
		t.Errorf("merged = [%v, %v), want [0, 25)", got[0].Start, got[0].End)
	}
}
