package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"LegalScanner/internal/domain"
)

// verdictJSON is the one-object wire contract with the model.
type verdictJSON struct {
	IsRelevant bool   `json:"is_relevant"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Summary    string `json:"summary"`
	Category   string `json:"category"`
}

// ParseVerdict parses raw model output into a Verdict. The model frequently
// wraps its JSON in code-fence markers; those are stripped first. A parse
// failure is returned as an error so the caller can log it, but callers
// must treat it as a not-relevant verdict.
func ParseVerdict(raw string) (domain.Verdict, error) {
	cleaned := StripCodeFence(raw)

	var decoded verdictJSON
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return domain.Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}

	if !decoded.IsRelevant {
		return domain.Verdict{}, nil
	}

	return domain.Verdict{
		Relevant: true,
		Title:    strings.TrimSpace(decoded.Title),
		Date:     strings.TrimSpace(decoded.Date),
		Summary:  strings.TrimSpace(decoded.Summary),
		Category: strings.TrimSpace(decoded.Category),
	}, nil
}

// StripCodeFence removes leading/trailing triple-backtick fences and an
// optional language tag, e.g. "```json\n{...}\n```".
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(text[:idx])
		// A short first token like "json" is a language tag, not content.
		if firstLine != "" && len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			text = text[idx+1:]
		}
	}

	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
