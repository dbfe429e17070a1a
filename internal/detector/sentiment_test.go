package detector

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPolarity struct {
	label string
	score float64
	err   error
	seen  string
}

func (s *stubPolarity) Polarity(_ context.Context, text string) (string, float64, error) {
	s.seen = text
	return s.label, s.score, s.err
}

func TestSentimentExtremeIntensity(t *testing.T) {
	t.Parallel()

	model := &stubPolarity{label: "NEGATIVE", score: 0.97}
	s := NewSentiment(model, DefaultLexicon())

	res, err := s.AnalyzeText(context.Background(), "shocking news about the secret cure")
	require.NoError(t, err)

	assert.Equal(t, "NEGATIVE", res.Label)
	assert.True(t, res.ModelAvailable)
	assert.Equal(t, 1.0, res.Sensationalism)
	assert.InDelta(t, 100.0, res.RiskScore, 1e-9)
}

func TestSentimentCalmText(t *testing.T) {
	t.Parallel()

	s := NewSentiment(&stubPolarity{label: "POSITIVE", score: 0.6}, DefaultLexicon())

	res, err := s.AnalyzeText(context.Background(),
		"the weather today is mild and pleasant with light wind expected later")
	require.NoError(t, err)
	assert.Zero(t, res.Sensationalism)
	assert.Zero(t, res.RiskScore)
}

func TestSentimentModelFailureKeepsLexiconSignal(t *testing.T) {
	t.Parallel()

	s := NewSentiment(&stubPolarity{err: errors.New("boom")}, DefaultLexicon())

	res, err := s.AnalyzeText(context.Background(), "shocking news about the secret cure")
	require.Error(t, err)

	assert.False(t, res.ModelAvailable)
	assert.Equal(t, neutralLabel, res.Label)
	assert.Zero(t, res.Intensity)
	assert.InDelta(t, 70.0, res.RiskScore, 1e-9)
}

func TestSentimentNilModel(t *testing.T) {
	t.Parallel()

	res, err := NewSentiment(nil, DefaultLexicon()).AnalyzeText(context.Background(), "breaking")
	require.Error(t, err)
	assert.InDelta(t, 70.0, res.RiskScore, 1e-9)
}

func TestSentimentCountsPhrases(t *testing.T) {
	t.Parallel()

	s := NewSentiment(nil, DefaultLexicon())
	got := s.Sensationalism("you won't believe this")
	if got != 1 {
		t.Fatalf("expected phrase match to saturate, got %v", got)
	}
}

func TestSentimentTruncatesModelInput(t *testing.T) {
	t.Parallel()

	model := &stubPolarity{label: "POSITIVE", score: 0.5}
	s := NewSentiment(model, DefaultLexicon())

	_, err := s.AnalyzeText(context.Background(), strings.Repeat("a", 4000))
	require.NoError(t, err)
	assert.Len(t, model.seen, maxPolarityChars)
}

func TestSentimentEmptyText(t *testing.T) {
	t.Parallel()

	model := &stubPolarity{label: "POSITIVE", score: 0.99}
	res, err := NewSentiment(model, DefaultLexicon()).AnalyzeText(context.Background(), "  ")
	require.NoError(t, err)
	assert.Zero(t, res.RiskScore)
	assert.Empty(t, model.seen)
}

func TestSentimentRiskRange(t *testing.T) {
	t.Parallel()

	for _, sens := range []float64{-1, 0, 0.5, 1, 3} {
		for _, intensity := range []float64{0, 0.9, 0.91, 1} {
			r := SentimentRisk(sens, intensity)
			if r < 0 || r > 100 {
				t.Fatalf("SentimentRisk(%v, %v) = %v out of range", sens, intensity, r)
			}
		}
	}
	assert.Zero(t, SentimentRisk(0, 0.9))
	assert.InDelta(t, 30.0, SentimentRisk(0, 0.91), 1e-9)
}

func TestSentimentNonFiniteModelScore(t *testing.T) {
	t.Parallel()

	s := NewSentiment(&stubPolarity{label: "NEGATIVE", score: math.NaN()}, DefaultLexicon())

	res, err := s.AnalyzeText(context.Background(), "shocking news about the secret cure")
	require.NoError(t, err)
	assert.Zero(t, res.Intensity)
	assert.False(t, math.IsNaN(res.RiskScore))

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}
