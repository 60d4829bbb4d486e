package detection

import (
	"log/slog"
	"testing"

	"github.com/podskipapp/podskip-server/internal/errors"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const wellFormed = `[
	{"startTime": "1:00", "endTime": "1:45", "type": "advertisement", "confidence": 92, "description": "pre-roll"},
	{"startTime": "20:00", "endTime": "20:30", "type": "self-promotion", "confidence": 75}
]`

func TestParseResponse_PlainArray(t *testing.T) {
	got, err := ParseResponse(wellFormed, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	if got[0].Start != 60 || got[0].End != 105 {
		t.Errorf("segment 0 = [%v, %v), want [60, 105)", got[0].Start, got[0].End)
	}
}

func TestParseResponse_MarkdownFence(t *testing.T) {
	raw := "Here are the detected segments:\n```json\n" + wellFormed + "\n```\nLet me know if you need more."
	got, err := ParseResponse(raw, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d segments, want 2", len(got))
	}
}

func TestParseResponse_LeadingProse(t *testing.T) {
	// "[listed]" is a bracketed aside that is not JSON; the scan must
	// move past it to the real array.
	raw := "Sure! The segments are [listed] below.\n" + wellFormed
	got, err := ParseResponse(raw, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d segments, want 2", len(got))
	}
}

func TestParseResponse_SanitizesBareTimes(t *testing.T) {
	raw := `[{"startTime": 1:00, "endTime": 1:45, "type": "advertisement", "confidence": 92}]`
	got, err := ParseResponse(raw, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
	if got[0].Start != 60 {
		t.Errorf("Start = %v, want 60", got[0].Start)
	}
}

func TestParseResponse_BadRecordSkipped(t *testing.T) {
	raw := `[
		{"startTime": "1:00", "endTime": "1:45", "type": "advertisement"},
		{"startTime": "bogus", "endTime": "2:00", "type": "advertisement"},
		{"startTime": "3:00", "endTime": "3:30", "type": "music"}
	]`
	got, err := ParseResponse(raw, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d segments, want 1 (bad records skipped, not fatal)", len(got))
	}
}

func TestParseResponse_NoArray(t *testing.T) {
	_, err := ParseResponse("I could not find any advertisements in this transcript.", discard())
	if !errors.Is(err, errors.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestParseResponse_StillInvalidAfterSanitizing(t *testing.T) {
	_, err := ParseResponse(`[{"startTime" "1:00"}]`, discard())
	if !errors.Is(err, errors.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}
