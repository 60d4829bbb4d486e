package detection

import (
	"testing"

	"github.com/podskipapp/podskip-server/internal/domain"
)

func validRecord() RawSegment {
	return RawSegment{
		"startTime":  "15:10",
		"endTime":    "16:00",
		"type":       "advertisement",
		"confidence": float64(85),
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	seg, err := ValidateRecord(validRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Start != 910 {
		t.Errorf("Start = %v, want 910", seg.Start)
	}
	if seg.End != 960 {
		t.Errorf("End = %v, want 960", seg.End)
	}
	if seg.Type != domain.SegmentAdvertisement {
		t.Errorf("Type = %q", seg.Type)
	}
	if seg.Confidence != 85 {
		t.Errorf("Confidence = %d, want 85", seg.Confidence)
	}
}

func TestValidateRecord_HoursClock(t *testing.T) {
	r := validRecord()
	r["startTime"] = "1:23:45"
	r["endTime"] = "1:25:00"

	seg, err := ValidateRecord(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Start != 5025 {
		t.Errorf("Start = %v, want 5025", seg.Start)
	}
}

func TestValidateRecord_TimeRejections(t *testing.T) {
	bad := []any{nil, "15", "15:1", "1:2:3", "99:99:99x", "fifteen", "15:10:10:10"}

	for _, v := range bad {
		r := validRecord()
		if v == nil {
			delete(r, "startTime")
		} else {
			r["startTime"] = v
		}
		if _, err := ValidateRecord(r); err == nil {
			t.Errorf("startTime=%v: expected rejection", v)
		}
	}
}

func TestValidateRecord_TrimsTimes(t *testing.T) {
	r := validRecord()
	r["startTime"] = "  15:10  "

	seg, err := ValidateRecord(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Start != 910 {
		t.Errorf("Start = %v, want 910", seg.Start)
	}
}

func TestValidateRecord_TypeNormalization(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.SegmentType
		ok   bool
	}{
		{"ADVERTISEMENT", domain.SegmentAdvertisement, true},
		{"Self-Promotion", domain.SegmentSelfPromotion, true},
		{"  intro/outro  ", domain.SegmentIntroOutro, true},
		{"Closing Credits", domain.SegmentClosingCredits, true},
		{"sponsor", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		r := validRecord()
		r["type"] = tt.raw
		seg, err := ValidateRecord(r)
		if tt.ok {
			if err != nil {
				t.Errorf("type %q: unexpected rejection: %v", tt.raw, err)
				continue
			}
			if seg.Type != tt.want {
				t.Errorf("type %q -> %q, want %q", tt.raw, seg.Type, tt.want)
			}
		} else if err == nil {
			t.Errorf("type %q: expected rejection", tt.raw)
		}
	}
}

func TestValidateRecord_MissingType(t *testing.T) {
	r := validRecord()
	delete(r, "type")
	if _, err := ValidateRecord(r); err == nil {
		t.Error("expected rejection for missing type")
	}
}

func TestValidateRecord_ConfidenceNormalization(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{float64(-10), 1},
		{float64(150), 100},
		{float64(85.7), 86},
		{"90", 90},
		{"not a number", 50},
		{nil, 50},
	}

	for _, tt := range tests {
		r := validRecord()
		if tt.raw == nil {
			delete(r, "confidence")
		} else {
			r["confidence"] = tt.raw
		}
		seg, err := ValidateRecord(r)
		if err != nil {
			t.Fatalf("confidence %v: unexpected error: %v", tt.raw, err)
		}
		if seg.Confidence != tt.want {
			t.Errorf("confidence %v -> %d, want %d", tt.raw, seg.Confidence, tt.want)
		}
	}
}

func TestValidateRecord_DescriptionDefaultsAndTrims(t *testing.T) {
	r := validRecord()
	seg, err := ValidateRecord(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Description != "" {
		t.Errorf("Description = %q, want empty", seg.Description)
	}

	r["description"] = "  Squarespace pre-roll  "
	seg, err = ValidateRecord(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Description != "Squarespace pre-roll" {
		t.Errorf("Description = %q", seg.Description)
	}
}

func TestValidateRecord_DropsUnknownKeys(t *testing.T) {
	r := validRecord()
	r["speaker"] = "host"
	r["extra"] = map[string]any{"nested": true}

	if _, err := ValidateRecord(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Nothing beyond the schema fields exists on AdSegment, so the
	// record validating at all is the whole assertion.
}
