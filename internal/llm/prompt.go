package llm

import (
	"fmt"
	"strings"

	"github.com/podskipapp/podskip-server/internal/domain"
)

// systemPrompt pins down the reply shape. The detection package still
// tolerates fences, prose and unquoted time literals - models drift.
const systemPrompt = `You identify non-content segments in podcast transcripts: advertisements, self-promotion, intro/outro music, and closing credits.

Reply with a JSON array only. Each element: {"startTime": "M:SS" or "H:MM:SS", "endTime": same, "type": one of "advertisement", "self-promotion", "intro/outro", "closing credits", "confidence": integer 1-100, "description": short string}.

Reply with [] if the transcript contains no such segments.`

// BuildPrompt renders a transcript as the user message for segment
// detection: one line per transcript segment with its start offset and
// speaker label when present.
func BuildPrompt(t *domain.Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Episode duration: %s\n\nTranscript:\n", domain.FormatOffset(t.Duration))

	for _, seg := range t.Segments {
		b.WriteByte('[')
		b.WriteString(domain.FormatOffset(seg.Start))
		b.WriteByte(']')
		if seg.Speaker != "" {
			b.WriteByte(' ')
			b.WriteString(seg.Speaker)
			b.WriteByte(':')
		}
		b.WriteByte(' ')
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteByte('\n')
	}

	return b.String()
}

// SystemPrompt returns the instruction message for segment detection.
func SystemPrompt() string {
	return systemPrompt
}
