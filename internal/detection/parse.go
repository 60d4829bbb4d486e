package detection

import (
	"encoding/json/v2"
	"log/slog"

	"github.com/podskipapp/podskip-server/internal/domain"
	"github.com/podskipapp/podskip-server/internal/errors"
)

// ParseResponse turns the raw free-text reply from the text-generation
// service into validated candidate segments, ready for the pipeline.
// Malformed individual records are logged and skipped - a bad record
// never aborts the batch, and a reply where every record is rejected
// yields an empty (not erroring) candidate list. Only a reply with no
// payload that parses even after sanitizing fails the whole detection
// attempt.
func ParseResponse(raw string, logger *slog.Logger) ([]domain.AdSegment, error) {
	records, ok := parseArray(raw)
	if !ok {
		return nil, errors.Parse("response contains no parseable segment array")
	}

	candidates := make([]domain.AdSegment, 0, len(records))
	for i, record := range records {
		seg, err := ValidateRecord(record)
		if err != nil {
			logger.Warn("rejecting segment record", "index", i, "reason", err.Error())
			continue
		}
		candidates = append(candidates, seg)
	}

	return candidates, nil
}

// parseArray tries each candidate array span until one unmarshals.
func parseArray(raw string) ([]RawSegment, bool) {
	for span := range arraySpans(raw) {
		var records []RawSegment
		if err := json.Unmarshal([]byte(SanitizeResponse(span)), &records); err == nil {
			return records, true
		}
	}
	return nil, false
}
