package detection

import (
	"testing"

	"github.com/podskipapp/podskip-server/internal/domain"
)

func transcript(segments ...domain.TranscriptSegment) *domain.Transcript {
	return &domain.Transcript{
		EpisodeID: "ep-test",
		Duration:  1800,
		Segments:  segments,
	}
}

func ts(start, end float64, speaker string) domain.TranscriptSegment {
	return domain.TranscriptSegment{Start: start, End: end, Text: "...", Speaker: speaker}
}

func TestDetectFromSpeakers_CoalescesRun(t *testing.T) {
	got := DetectFromSpeakers(transcript(
		ts(0, 10, "Host"),
		ts(10, 15, "Advertiser"),
		ts(15, 22, "advertiser"),
		ts(22, 30, "Host"),
	))

	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Start != 10 || got[0].End != 22 {
		t.Errorf("candidate = [%v, %v), want [10, 22)", got[0].Start, got[0].End)
	}
	if got[0].Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", got[0].Confidence)
	}
	if got[0].Type != domain.SegmentAdvertisement {
		t.Errorf("Type = %q", got[0].Type)
	}
}

func TestDetectFromSpeakers_LabelVariants(t *testing.T) {
	for _, label := range []string{"AD", "Sponsor", "ADVERTISEMENT", " advertiser "} {
		got := DetectFromSpeakers(transcript(ts(0, 10, label)))
		if len(got) != 1 {
			t.Errorf("label %q: got %d candidates, want 1", label, len(got))
		}
	}
}

func TestDetectFromSpeakers_IgnoresOtherSpeakers(t *testing.T) {
	got := DetectFromSpeakers(transcript(
		ts(0, 10, "Host"),
		ts(10, 20, "Guest"),
		ts(20, 30, ""),
	))
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
}

func TestDetectFromSpeakers_MinimumRunLength(t *testing.T) {
	// 5s run: below the 6s minimum.
	got := DetectFromSpeakers(transcript(
		ts(0, 10, "Host"),
		ts(10, 15, "ad"),
		ts(15, 30, "Host"),
	))
	if len(got) != 0 {
		t.Errorf("5s run: got %d candidates, want 0", len(got))
	}

	// Exactly 6s: kept.
	got = DetectFromSpeakers(transcript(
		ts(0, 10, "Host"),
		ts(10, 16, "ad"),
	))
	if len(got) != 1 {
		t.Errorf("6s run: got %d candidates, want 1", len(got))
	}
}

func TestDetectFromSpeakers_MultipleRuns(t *testing.T) {
	got := DetectFromSpeakers(transcript(
		ts(0, 20, "sponsor"),
		ts(20, 30, "Host"),
		ts(30, 45, "sponsor"),
	))
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[1].Start != 30 || got[1].End != 45 {
		t.Errorf("second candidate = [%v, %v), want [30, 45)", got[1].Start, got[1].End)
	}
}

func TestDetectFromSpeakers_NilTranscript(t *testing.T) {
	if got := DetectFromSpeakers(nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
