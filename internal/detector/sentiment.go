package detector

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"CredibilityScanner/internal/capability"
	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

const (
	maxPolarityChars    = 1500
	intensityThreshold  = 0.9
	sensationalScale    = 10
	sensationalismShare = 0.7
	intensityShare      = 0.3

	neutralLabel = "Neutral"
)

// Sentiment blends model polarity with a sensational-word scan.
type Sentiment struct {
	model   ports.SentimentModel
	words   map[string]struct{}
	phrases []string
}

// NewSentiment accepts a nil model; the detector then runs on the lexicon alone.
func NewSentiment(model ports.SentimentModel, lex Lexicon) *Sentiment {
	s := &Sentiment{model: model, words: make(map[string]struct{})}
	for _, w := range lex.SensationalWords {
		w = strings.ToLower(strings.TrimSpace(w))
		switch {
		case w == "":
		case strings.Contains(w, " "):
			s.phrases = append(s.phrases, w)
		default:
			s.words[w] = struct{}{}
		}
	}
	return s
}

// Analyze always returns a complete result. A non-nil error reports that the
// polarity model could not be used and the result relies on the lexicon only.
func (s *Sentiment) Analyze(ctx context.Context, doc domain.NormalizedText) (domain.SentimentResult, error) {
	return s.AnalyzeText(ctx, doc.Clean())
}

// AnalyzeText is Analyze over a plain string.
func (s *Sentiment) AnalyzeText(ctx context.Context, text string) (domain.SentimentResult, error) {
	res := domain.SentimentResult{Label: neutralLabel}
	if strings.TrimSpace(text) == "" {
		return res, nil
	}

	var modelErr error
	if s.model == nil {
		modelErr = fmt.Errorf("sentiment model: %w", capability.ErrNotConfigured)
	} else {
		label, score, err := s.model.Polarity(ctx, truncate(text, maxPolarityChars))
		if err != nil {
			modelErr = fmt.Errorf("sentiment polarity: %w", err)
		} else {
			res.Label = label
			res.Intensity = clamp(score, 0, 1)
			res.ModelAvailable = true
		}
	}

	res.Sensationalism = s.Sensationalism(text)
	res.RiskScore = SentimentRisk(res.Sensationalism, res.Intensity)
	return res, modelErr
}

// Sensationalism is min(1, matches/words * 10).
func (s *Sentiment) Sensationalism(text string) float64 {
	lower := strings.ToLower(text)
	tokens := strings.Fields(lower)
	if len(tokens) == 0 {
		return 0
	}

	matches := 0
	for _, tok := range tokens {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if _, ok := s.words[tok]; ok {
			matches++
		}
	}
	for _, p := range s.phrases {
		matches += strings.Count(lower, p)
	}

	return clamp(float64(matches)/float64(len(tokens))*sensationalScale, 0, 1)
}

// SentimentRisk combines the capped sub-signals onto the 0-100 risk scale.
func SentimentRisk(sensationalism, intensity float64) float64 {
	extreme := 0.0
	if intensity > intensityThreshold {
		extreme = 1
	}
	risk := clamp(sensationalism, 0, 1)*sensationalismShare + extreme*intensityShare
	return clamp(risk, 0, 1) * 100
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
