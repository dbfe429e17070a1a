package capability

import (
	"context"
	"strings"

	"CredibilityScanner/internal/ports"
)

const (
	minSummaryWords = 30
	maxSummaryChars = 4000

	// SummaryUnavailable stands in when no summary can be produced.
	SummaryUnavailable = "Summary unavailable."
)

// Summarizer bounds the input of the abstractive summary model.
type Summarizer struct {
	model ports.SummaryModel
}

// NewSummarizer wraps a summary model.
func NewSummarizer(model ports.SummaryModel) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize returns short inputs unchanged and truncates long ones to the
// model's character window.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return SummaryUnavailable, nil
	}
	if len(strings.Fields(text)) < minSummaryWords {
		return text, nil
	}
	if s == nil || s.model == nil {
		return "", fail("summarizer", ReasonUnavailable, ErrNotConfigured)
	}

	summary, err := s.model.Summarize(ctx, Truncate(text, maxSummaryChars))
	if err != nil {
		return "", invocation("summarizer", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return SummaryUnavailable, nil
	}
	return summary, nil
}

// Truncate cuts text to at most limit runes.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
