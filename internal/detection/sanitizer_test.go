package detection

import "testing"

func TestSanitizeResponse_NoOpOnValidJSON(t *testing.T) {
	inputs := []string{
		`[]`,
		`[{"startTime": "15:10", "endTime": "16:00"}]`,
		`{"value": 1530, "time": "15:30"}`,
		`{"note": "starts at 15:10, then music"}`,
		`  [ { "confidence" : 85 } ]  `,
	}

	for _, in := range inputs {
		if got := SanitizeResponse(in); got != in {
			t.Errorf("SanitizeResponse(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestSanitizeResponse_QuotesBareTimes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"startTime": 15:10}`, `{"startTime": "15:10"}`},
		{`{"startTime": 1:23:45}`, `{"startTime": "1:23:45"}`},
		{`{"startTime":15:10,"endTime":16:45}`, `{"startTime":"15:10","endTime":"16:45"}`},
		{`[{"startTime": 0:30}, {"startTime": 2:05}]`, `[{"startTime": "0:30"}, {"startTime": "2:05"}]`},
		{"{\"startTime\":\n  15:10\n}", "{\"startTime\":\n  \"15:10\"\n}"},
	}

	for _, tt := range tests {
		if got := SanitizeResponse(tt.in); got != tt.want {
			t.Errorf("SanitizeResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeResponse_LeavesIntegersAlone(t *testing.T) {
	in := `{"value": 1530, "startTime": 15:10, "count": 7}`
	want := `{"value": 1530, "startTime": "15:10", "count": 7}`
	if got := SanitizeResponse(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSanitizeResponse_IgnoresTimesInsideStrings(t *testing.T) {
	in := `{"description": "ad runs: 15:10, roughly", "startTime": 15:10}`
	want := `{"description": "ad runs: 15:10, roughly", "startTime": "15:10"}`
	if got := SanitizeResponse(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSanitizeResponse_EscapedQuotes(t *testing.T) {
	in := `{"description": "say \"hi: 1:23,\" now", "t": 1:23}`
	want := `{"description": "say \"hi: 1:23,\" now", "t": "1:23"}`
	if got := SanitizeResponse(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSanitizeResponse_DoesNotRepairOtherErrors(t *testing.T) {
	// Missing key separator stays broken.
	in := `{"startTime" 15:10}`
	if got := SanitizeResponse(in); got != in {
		t.Errorf("got %q, want unchanged", got)
	}
}
