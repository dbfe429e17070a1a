// Package textnorm cleans raw input and extracts the shared artifacts every
// detector reads: URLs, claim sentences and named entities.
package textnorm

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

const (
	defaultNLPTimeout = 10 * time.Second
	minClaimTokens    = 5
)

var (
	urlFindExpr  = regexp.MustCompile(`https?://[^\s<>"]+`)
	urlStripExpr = regexp.MustCompile(`https?://\S+|www\.\S+`)
	spaceExpr    = regexp.MustCompile(`\s+`)
	tagExpr      = regexp.MustCompile(`<[^>]+>`)
)

// Config tunes the normalizer.
type Config struct {
	// NLPTimeout bounds a single call into the NLP capability.
	NLPTimeout time.Duration
	// MaxInputChars truncates oversized input before any processing; 0 disables.
	MaxInputChars int
}

// Normalizer turns raw input into domain.NormalizedText. It never fails once
// constructed: NLP problems degrade to empty entity and claim lists.
type Normalizer struct {
	recognizer ports.EntityRecognizer
	cfg        Config
	logger     *slog.Logger
}

// New validates the configuration; a nil recognizer is allowed.
func New(recognizer ports.EntityRecognizer, cfg Config, logger *slog.Logger) (*Normalizer, error) {
	if cfg.NLPTimeout < 0 {
		return nil, errors.New("nlp timeout must not be negative")
	}
	if cfg.MaxInputChars < 0 {
		return nil, errors.New("max input chars must not be negative")
	}
	if cfg.NLPTimeout == 0 {
		cfg.NLPTimeout = defaultNLPTimeout
	}
	return &Normalizer{recognizer: recognizer, cfg: cfg, logger: logger}, nil
}

// Normalize records URLs, strips them, collapses whitespace, strips markup,
// lowercases and finally asks the NLP capability for sentences and entities.
func (n *Normalizer) Normalize(ctx context.Context, raw string) domain.NormalizedText {
	input := raw
	if n.cfg.MaxInputChars > 0 && len(input) > n.cfg.MaxInputChars {
		input = truncateRunes(input, n.cfg.MaxInputChars)
	}

	urls := ExtractURLs(input)
	cased := CleanCased(input)
	clean := strings.ToLower(cased)

	entities, claims := n.annotate(ctx, cased)
	return domain.NewNormalizedText(raw, cased, clean, urls, claims, entities)
}

func (n *Normalizer) annotate(ctx context.Context, text string) ([]domain.Entity, []string) {
	if n.recognizer == nil || text == "" {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, n.cfg.NLPTimeout)
	defer cancel()

	ann, err := n.recognizer.Annotate(callCtx, text)
	if err != nil {
		n.warn("nlp capability failed, continuing without entities", "error", err)
		return nil, nil
	}
	return DocumentEntities(ann), ExtractClaims(ann)
}

func (n *Normalizer) warn(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}

// ExtractURLs returns every http(s) URL in order of appearance.
func ExtractURLs(text string) []string {
	found := urlFindExpr.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	return found
}

// Clean applies the full cleaning sequence including lowercasing.
func Clean(text string) string {
	return strings.ToLower(CleanCased(text))
}

// CleanCased strips URLs, collapses whitespace and strips markup, keeping case.
func CleanCased(text string) string {
	if text == "" {
		return ""
	}
	text = urlStripExpr.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceExpr.ReplaceAllString(text, " "))
	return strings.TrimSpace(stripTags(text))
}

func stripTags(text string) string {
	if !tagExpr.MatchString(text) {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return tagExpr.ReplaceAllString(text, "")
	}
	return doc.Text()
}

// DocumentEntities prefers document-level entities and falls back to the
// per-sentence ones when the capability only reports those.
func DocumentEntities(ann domain.Annotation) []domain.Entity {
	if len(ann.Entities) > 0 {
		return append([]domain.Entity(nil), ann.Entities...)
	}
	var entities []domain.Entity
	for _, sent := range ann.Sentences {
		entities = append(entities, sent.Entities...)
	}
	return entities
}

// ExtractClaims keeps sentences longer than five tokens that mention an
// entity or contain a verb. Claims are lowercased like the clean text.
func ExtractClaims(ann domain.Annotation) []string {
	var claims []string
	for _, sent := range ann.Sentences {
		text := strings.TrimSpace(sent.Text)
		if text == "" {
			continue
		}
		tokens := len(sent.Tokens)
		if tokens == 0 {
			tokens = len(strings.Fields(text))
		}
		if tokens <= minClaimTokens {
			continue
		}
		if len(sent.Entities) == 0 && !hasVerb(sent.Tokens) {
			continue
		}
		claims = append(claims, strings.ToLower(text))
	}
	return claims
}

func hasVerb(tokens []domain.Token) bool {
	for _, tok := range tokens {
		if strings.EqualFold(tok.POS, "VERB") {
			return true
		}
	}
	return false
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
