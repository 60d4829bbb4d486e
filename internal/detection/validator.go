package detection

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/podskipapp/podskip-server/internal/domain"
)

// defaultConfidence is assumed when the model omits confidence or emits
// something that is not a number.
const defaultConfidence = 50

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)

// RawSegment is one untyped candidate record as parsed from the
// sanitized response. Unknown keys are ignored - nothing passes through
// to the validated record except the schema fields.
type RawSegment map[string]any

// ValidateRecord normalizes one raw candidate into a typed AdSegment or
// rejects it. A rejection only ever drops this record; callers log and
// continue with the rest of the batch.
func ValidateRecord(raw RawSegment) (domain.AdSegment, error) {
	start, err := clockField(raw, "startTime")
	if err != nil {
		return domain.AdSegment{}, err
	}
	end, err := clockField(raw, "endTime")
	if err != nil {
		return domain.AdSegment{}, err
	}

	rawType, ok := raw["type"]
	if !ok {
		return domain.AdSegment{}, fmt.Errorf("missing type")
	}
	segType, ok := domain.ParseSegmentType(coerceString(rawType))
	if !ok {
		return domain.AdSegment{}, fmt.Errorf("unknown segment type %q", coerceString(rawType))
	}

	confidence := defaultConfidence
	if v, ok := raw["confidence"]; ok {
		if n, ok := coerceNumber(v); ok {
			confidence = domain.ClampConfidence(n)
		}
	}

	description := ""
	if v, ok := raw["description"]; ok {
		description = strings.TrimSpace(coerceString(v))
	}

	return domain.AdSegment{
		Start:       start,
		End:         end,
		Type:        segType,
		Confidence:  confidence,
		Description: description,
	}, nil
}

// clockField reads a required M:SS / H:MM:SS field and converts it to
// seconds.
func clockField(raw RawSegment, key string) (float64, error) {
	v, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	s := strings.TrimSpace(coerceString(v))
	if !clockPattern.MatchString(s) {
		return 0, fmt.Errorf("%s %q is not a clock value", key, s)
	}
	return parseClock(s), nil
}

// parseClock converts a pattern-validated clock string to seconds.
func parseClock(s string) float64 {
	parts := strings.Split(s, ":")
	total := 0
	for _, p := range parts {
		n, _ := strconv.Atoi(p)
		total = total*60 + n
	}
	return float64(total)
}

// coerceString renders any JSON scalar as a string.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// coerceNumber interprets numbers and numeric strings.
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
