// Package detection turns unreliable segment lists - from the external
// text-generation service or from transcript speaker labels - into
// validated, non-overlapping, duration-bounded ad segment sets.
package detection

import "strings"

// SanitizeResponse repairs the one malformation the text-generation
// service produces often enough to matter: bare time literals where a
// quoted string was expected, e.g. {"startTime": 15:10}. The literal is
// wrapped in quotes; everything else passes through byte-for-byte, so
// input that needs no fixing is returned unchanged. Values already
// quoted and plain integers (1530) are never touched. Other structural
// JSON errors are left alone - they remain parse failures.
func SanitizeResponse(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if c == ':' {
			b.WriteByte(c)
			// Property separator: look ahead for an unquoted time literal.
			j := i + 1
			for j < len(raw) && (raw[j] == ' ' || raw[j] == '\t' || raw[j] == '\n' || raw[j] == '\r') {
				j++
			}
			if token, end := matchTimeLiteral(raw, j); token != "" {
				b.WriteString(raw[i+1 : j]) // preserve whitespace
				b.WriteByte('"')
				b.WriteString(token)
				b.WriteByte('"')
				i = end - 1
			}
			continue
		}

		b.WriteByte(c)
	}

	return b.String()
}

// matchTimeLiteral matches \d{1,2}:\d{2}(:\d{2})? at raw[start:] and
// requires the token to be followed (after optional whitespace) by ',',
// '}' or ']'. Returns the token and the index just past it, or "" when
// there is no match. Plain integers never match because the pattern
// requires an internal colon.
func matchTimeLiteral(raw string, start int) (string, int) {
	i := start

	digits := func(minimum, maximum int) bool {
		n := 0
		for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
			i++
			n++
		}
		return n >= minimum && n <= maximum
	}

	if !digits(1, 2) {
		return "", 0
	}
	if i >= len(raw) || raw[i] != ':' {
		return "", 0
	}
	i++
	if !digits(2, 2) {
		return "", 0
	}
	if i < len(raw) && raw[i] == ':' {
		i++
		if !digits(2, 2) {
			return "", 0
		}
	}
	end := i

	// The literal must terminate the value position.
	for i < len(raw) && (raw[i] == ' ' || raw[i] == '\t' || raw[i] == '\n' || raw[i] == '\r') {
		i++
	}
	if i >= len(raw) {
		return "", 0
	}
	if raw[i] != ',' && raw[i] != '}' && raw[i] != ']' {
		return "", 0
	}

	return raw[start:end], end
}
