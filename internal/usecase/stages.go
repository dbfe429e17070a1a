package usecase

import (
	"context"
	"fmt"
	"time"

	"CredibilityScanner/internal/capability"
	"CredibilityScanner/internal/domain"
)

const (
	StageLinguistic = "linguistic"
	StageClassifier = "classifier"
	StageSentiment  = "sentiment"
	StagePolarity   = "sentiment.polarity"
	StageEntity     = "entity"
	StageSource     = "source"
	StageSemantic   = "semantic_verify"
	StageFactCheck  = "fact_check"
	StageSummary    = "summarize"
)

const (
	// FastModeSummary replaces the summary when the deep track is skipped.
	FastModeSummary = "Summary unavailable in fast scan mode."

	neutralRealProb = 0.5
	excerptChars    = 200
)

// draft collects stage outputs. Each stage writes only its own field, so
// concurrent stages never share memory before the join barrier.
type draft struct {
	linguistic domain.LinguisticResult
	classifier domain.ClassifierResult
	sentiment  domain.SentimentResult
	entity     domain.EntityResult
	source     domain.SourceResult
	claims     []domain.ClaimVerification
	factChecks []domain.FactCheck
	summary    string

	failures map[string]*domain.StageFailure
	notes    map[string]*domain.StageFailure
}

func newDraft() *draft {
	return &draft{
		failures: make(map[string]*domain.StageFailure),
		notes:    make(map[string]*domain.StageFailure),
	}
}

// fastDefaults fills every deep-track field with its fixed neutral value.
func (d *draft) fastDefaults() {
	d.classifier = domain.ClassifierResult{Label: "Skipped", FakeProb: neutralRealProb, RealProb: neutralRealProb, Fallback: true}
	d.sentiment = domain.SentimentResult{Label: "Neutral", Fallback: true}
	d.claims = []domain.ClaimVerification{}
	d.summary = FastModeSummary
}

// substitutions maps a failed stage and its reason onto the neutral default
// that replaces the stage output.
var substitutions = map[string]func(d *draft, reason capability.Reason){
	StageLinguistic: func(d *draft, _ capability.Reason) {
		d.linguistic = domain.LinguisticResult{Flags: []string{}, Fallback: true}
	},
	StageClassifier: func(d *draft, reason capability.Reason) {
		d.classifier = domain.ClassifierResult{
			Label:    fallbackLabel(reason),
			FakeProb: 1 - neutralRealProb,
			RealProb: neutralRealProb,
			Fallback: true,
		}
	},
	StageSentiment: func(d *draft, reason capability.Reason) {
		d.sentiment = domain.SentimentResult{Label: fallbackLabel(reason), Fallback: true}
	},
	StageEntity: func(d *draft, _ capability.Reason) {
		d.entity = domain.EntityResult{Score: 50, Reason: "Entity check unavailable.", Fallback: true}
	},
	StageSource: func(d *draft, _ capability.Reason) {
		d.source = domain.SourceResult{Score: 50, Status: "Unknown", Fallback: true}
	},
	StageSemantic: func(d *draft, _ capability.Reason) {
		d.claims = []domain.ClaimVerification{}
	},
	StageFactCheck: func(d *draft, _ capability.Reason) {
		d.factChecks = nil
	},
	StageSummary: func(d *draft, _ capability.Reason) {
		d.summary = capability.SummaryUnavailable
	},
}

func fallbackLabel(reason capability.Reason) string {
	switch reason {
	case capability.ReasonUnavailable:
		return "Unavailable"
	case capability.ReasonTimeout:
		return "Timeout"
	case capability.ReasonMalformed:
		return "Invalid Input"
	default:
		return "Error"
	}
}

// stageOrder is the fixed order used to assemble degraded entries.
var stageOrder = []string{
	StageLinguistic, StageClassifier, StageSentiment, StagePolarity, StageEntity,
	StageSource, StageSemantic, StageFactCheck, StageSummary,
}

// guard runs one stage under its timeout and turns errors and panics into a
// StageFailure.
func guard[T any](ctx context.Context, p *Pipeline, stage string, limit time.Duration,
	fn func(ctx context.Context) (T, error)) (val T, failure *domain.StageFailure) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			val = zero
			failure = &domain.StageFailure{
				Stage:   stage,
				Reason:  string(capability.ReasonRuntime),
				Message: fmt.Sprintf("panic: %v", r),
			}
		}
		p.metrics.ObserveStage(stage, p.now().Sub(start))
	}()

	v, err := capability.WithTimeout(ctx, stage, limit, fn)
	if err != nil {
		var zero T
		return zero, &domain.StageFailure{
			Stage:   stage,
			Reason:  string(capability.ReasonOf(err)),
			Message: err.Error(),
		}
	}
	return v, nil
}

func excerpt(clean string) string {
	return capability.Truncate(clean, excerptChars) + "..."
}
