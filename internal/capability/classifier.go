package capability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

const (
	labelReal = "Real"
	labelFake = "Fake"
)

// Classifier is the real/fake contract around the text classification model.
type Classifier struct {
	model ports.ClassifierModel
}

// NewClassifier wraps a model; a nil model is reported as unavailable per call.
func NewClassifier(model ports.ClassifierModel) *Classifier {
	return &Classifier{model: model}
}

// Predict returns label and probabilities with fake_prob + real_prob = 1.
func (c *Classifier) Predict(ctx context.Context, text string) (domain.ClassifierResult, error) {
	if c == nil || c.model == nil {
		return domain.ClassifierResult{}, fail("classifier", ReasonUnavailable, ErrNotConfigured)
	}
	if strings.TrimSpace(text) == "" {
		return domain.ClassifierResult{}, fail("classifier", ReasonMalformed, errors.New("empty text"))
	}

	fakeProb, realProb, err := c.model.Classify(ctx, text)
	if err != nil {
		return domain.ClassifierResult{}, invocation("classifier", err)
	}

	sum := fakeProb + realProb
	if fakeProb < 0 || realProb < 0 || sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return domain.ClassifierResult{}, fail("classifier", ReasonRuntime,
			fmt.Errorf("invalid probabilities fake=%v real=%v", fakeProb, realProb))
	}
	fakeProb, realProb = fakeProb/sum, realProb/sum

	label := labelFake
	if realProb > fakeProb {
		label = labelReal
	}
	return domain.ClassifierResult{Label: label, FakeProb: fakeProb, RealProb: realProb}, nil
}
