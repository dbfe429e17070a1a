package detector

import (
	"regexp"
	"strings"
	"unicode"

	"CredibilityScanner/internal/domain"
)

const (
	extremeWeight     = 20
	conspiracyWeight  = 25
	capsWeight        = 15
	exclamationWeight = 10

	capsThreshold        = 0.15
	exclamationThreshold = 3
)

type phrase struct {
	text string
	expr *regexp.Regexp
}

func compilePhrases(list []string) []phrase {
	out := make([]phrase, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, p := range list {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, phrase{text: p, expr: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p))})
	}
	return out
}

// Linguistic scores rhetorical red flags with fixed additive rules.
type Linguistic struct {
	extreme    []phrase
	conspiracy []phrase
}

// NewLinguistic compiles the pattern lists; duplicates are counted once.
func NewLinguistic(lex Lexicon) *Linguistic {
	return &Linguistic{
		extreme:    compilePhrases(lex.ExtremePatterns),
		conspiracy: compilePhrases(lex.ConspiracyPhrases),
	}
}

// Analyze scores the normalized document. Patterns and exclamation marks are
// read from the clean text, capitalization from the cased text.
func (l *Linguistic) Analyze(doc domain.NormalizedText) domain.LinguisticResult {
	return l.AnalyzeText(doc.Clean(), doc.Cased())
}

// AnalyzeText scores text; cased may equal text when no cased copy exists.
func (l *Linguistic) AnalyzeText(text, cased string) domain.LinguisticResult {
	if strings.TrimSpace(text) == "" {
		return domain.LinguisticResult{Flags: []string{}}
	}

	var (
		score float64
		flags = []string{}
	)

	if matched := matchAll(l.extreme, text); len(matched) > 0 {
		score += float64(extremeWeight * len(matched))
		flags = append(flags, "Contains extreme claims: "+strings.Join(matched, ", "))
	}
	if matched := matchAll(l.conspiracy, text); len(matched) > 0 {
		score += float64(conspiracyWeight * len(matched))
		flags = append(flags, "Uses conspiracy terminology: "+strings.Join(matched, ", "))
	}

	caps := CapsRatio(cased)
	if caps > capsThreshold {
		score += capsWeight
		flags = append(flags, "Excessive use of Capital Letters")
	}

	exclamations := strings.Count(text, "!")
	if exclamations > exclamationThreshold {
		score += exclamationWeight
		flags = append(flags, "Excessive exclamation marks")
	}

	return domain.LinguisticResult{
		RiskScore:        clamp(score, 0, 100),
		Flags:            flags,
		Readability:      FleschReadingEase(text),
		CapsRatio:        caps,
		ExclamationCount: exclamations,
	}
}

func matchAll(list []phrase, text string) []string {
	var matched []string
	for _, p := range list {
		if p.expr.MatchString(text) {
			matched = append(matched, p.text)
		}
	}
	return matched
}

// CapsRatio is uppercase ASCII letters over all ASCII letters.
func CapsRatio(text string) float64 {
	var letters, upper int
	for _, r := range text {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
