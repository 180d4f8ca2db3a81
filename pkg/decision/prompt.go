package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"ustudiopd/eventlive/pkg/analysis"
)

// Instructions is the fixed part of the generation prompt.
const Instructions = `You are a B2B marketing analyst. Using only the analysis pack below, write a decision pack as a single JSON object with this shape:

{"version":"dp-1.0","summary":"...","cards":[{"id":"C1","title":"...","recommendation":"...","rationale":"...","priority":"high|medium|low","evidenceIds":["E1","E2"]}],"actionBoard":{"today":[{"action":"...","owner":"...","targetCount":0,"evidenceIds":["E1"]}],"thisWeek":[],"thisMonth":[]},"leadTiers":[{"tier":"P0","count":0,"pct":0}]}

Rules:
- Every card cites at least two evidence ids from the evidence list. Never invent ids.
- Numbers you state must come from the evidence list.
- Return only the JSON object.`

// BaseContext renders the analysis pack into the base prompt. The evidence
// catalog is listed explicitly so the model can cite it.
func BaseContext(ap *analysis.Pack) (string, error) {
	var b strings.Builder
	b.WriteString(Instructions)
	b.WriteString("\n\nEvidence:\n")
	for _, e := range ap.Evidence {
		fmt.Fprintf(&b, "- %s [%s] %s: %s (n=%d)\n", e.ID, e.Kind, e.Title, e.ValueText, e.SampleSize)
	}
	if len(ap.Highlights) > 0 {
		b.WriteString("\nHighlights:\n")
		for _, h := range ap.Highlights {
			fmt.Fprintf(&b, "- %s (%s; %s)\n", h.Statement, h.Confidence, strings.Join(h.EvidenceIDs, ", "))
		}
	}

	data, err := json.Marshal(ap)
	if err != nil {
		return "", fmt.Errorf("encode analysis pack: %w", err)
	}
	b.WriteString("\nAnalysis pack:\n")
	b.Write(data)
	b.WriteString("\n")
	return b.String(), nil
}
