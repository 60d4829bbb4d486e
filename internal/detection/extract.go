package detection

import (
	"iter"
	"strings"
)

// arraySpans yields candidate JSON array payloads found in free text
// returned by the text-generation service, best guess first. The model
// is asked for a bare array but frequently wraps it in a markdown code
// fence or surrounds it with prose, and prose can contain bracketed
// asides that are not JSON - so callers try each span until one parses.
func arraySpans(raw string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if fenced := extractFenced(raw); fenced != "" {
			if span, _ := balancedSpan(fenced, 0); span != "" {
				if !yield(span) {
					return
				}
			}
		}

		offset := 0
		for {
			span, next := balancedSpan(raw, offset)
			if span == "" {
				return
			}
			if !yield(span) {
				return
			}
			offset = next
		}
	}
}

// extractFenced returns the body of the first ``` code fence, with an
// optional language tag on the opening line.
func extractFenced(raw string) string {
	start := strings.Index(raw, "```")
	if start < 0 {
		return ""
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || strings.EqualFold(tag, "json") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// balancedSpan returns the first balanced [...] span at or after
// offset, respecting string literals so brackets inside descriptions do
// not terminate the scan early. The second return value is the offset
// to resume searching from.
func balancedSpan(raw string, offset int) (string, int) {
	idx := strings.IndexByte(raw[offset:], '[')
	if idx < 0 {
		return "", len(raw)
	}
	start := offset + idx

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1], start + 1
			}
		}
	}

	return "", len(raw)
}
