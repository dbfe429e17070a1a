// Package scoring folds the five detector signals into one credibility verdict.
package scoring

import (
	"math"

	"CredibilityScanner/internal/domain"
)

const (
	RatingReliable  = "Likely Reliable"
	RatingUncertain = "Uncertain / Verification Needed"
	RatingFake      = "Likely Fake / Misleading"

	ColorReliable  = "#10B981"
	ColorUncertain = "#F59E0B"
	ColorFake      = "#EF4444"

	reliableFrom  = 70
	uncertainFrom = 40
)

// Weights are the fixed contributions of each signal. They sum to 1.
type Weights struct {
	MLModel     float64
	KeywordRisk float64
	Sentiment   float64
	Source      float64
	Entity      float64
}

// Sum adds every weight.
func (w Weights) Sum() float64 {
	return w.MLModel + w.KeywordRisk + w.Sentiment + w.Source + w.Entity
}

// DefaultWeights returns the scoring weights.
func DefaultWeights() Weights {
	return Weights{MLModel: 0.50, KeywordRisk: 0.15, Sentiment: 0.10, Source: 0.15, Entity: 0.10}
}

// Signals are the scorer inputs. ML, Source and Entity are trust values,
// KeywordRisk and SentimentRisk are risk values; all on 0-100.
type Signals struct {
	ML            float64
	KeywordRisk   float64
	SentimentRisk float64
	Source        float64
	Entity        float64
}

// SignalsFrom routes detector results into scorer inputs by Kind. A signal
// whose Direction differs from its slot is flipped onto the slot's scale.
// Kinds that are absent stay zero.
func SignalsFrom(results ...domain.DetectorResult) Signals {
	var s Signals
	for _, r := range results {
		switch r.Kind() {
		case domain.KindClassifier:
			s.ML = oriented(r, domain.DirectionTrust)
		case domain.KindLinguistic:
			s.KeywordRisk = oriented(r, domain.DirectionRisk)
		case domain.KindSentiment:
			s.SentimentRisk = oriented(r, domain.DirectionRisk)
		case domain.KindSource:
			s.Source = oriented(r, domain.DirectionTrust)
		case domain.KindEntity:
			s.Entity = oriented(r, domain.DirectionTrust)
		}
	}
	return s
}

func oriented(r domain.DetectorResult, slot domain.SignalDirection) float64 {
	if r.Direction() == slot {
		return r.Signal()
	}
	return 100 - clamp(r.Signal())
}

// Score is pure: identical signals always give an identical verdict.
func Score(s Signals) domain.Verdict {
	w := DefaultWeights()

	ml := clamp(s.ML)
	keyword := safety(s.KeywordRisk)
	sentiment := safety(s.SentimentRisk)
	source := clamp(s.Source)
	entity := clamp(s.Entity)

	total := clamp(ml*w.MLModel + keyword*w.KeywordRisk + sentiment*w.Sentiment +
		source*w.Source + entity*w.Entity)

	rating, color, tier := classify(total)
	return domain.Verdict{
		Score:  round1(total),
		Rating: rating,
		Color:  color,
		Tier:   tier,
		Breakdown: domain.ScoreBreakdown{
			MLModel:     round1(ml),
			KeywordRisk: round1(keyword),
			Sentiment:   round1(sentiment),
			Source:      round1(source),
			Entity:      round1(entity),
		},
	}
}

// classify works on the unrounded score so 69.96 stays Uncertain.
func classify(score float64) (string, string, domain.Tier) {
	switch {
	case score >= reliableFrom:
		return RatingReliable, ColorReliable, domain.TierSuccess
	case score >= uncertainFrom:
		return RatingUncertain, ColorUncertain, domain.TierWarning
	default:
		return RatingFake, ColorFake, domain.TierDanger
	}
}

func safety(risk float64) float64 {
	return math.Max(0, 100-clamp(risk))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(100, math.Max(0, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
