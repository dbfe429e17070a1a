package ports

import (
	"context"
	"time"

	"CredibilityScanner/internal/domain"
)

// EntityRecognizer segments text and extracts named entities (external NLP).
type EntityRecognizer interface {
	Annotate(ctx context.Context, text string) (domain.Annotation, error)
}

// ClassifierModel returns fake/real probabilities for a text.
type ClassifierModel interface {
	Classify(ctx context.Context, text string) (fakeProb, realProb float64, err error)
}

// SentimentModel returns a polarity label and its confidence.
type SentimentModel interface {
	Polarity(ctx context.Context, text string) (label string, score float64, err error)
}

// Embedder turns texts into dense vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// SummaryModel produces an abstractive summary.
type SummaryModel interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// FactChecker looks up published fact-check reviews for a claim.
type FactChecker interface {
	SearchClaims(ctx context.Context, query string) ([]domain.FactCheck, error)
}

// HistoryRepository persists flattened analysis records per user.
type HistoryRepository interface {
	SaveAnalysis(ctx context.Context, record domain.HistoryRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error)
}

// ResultCache keeps recent results for re-display by the session layer.
type ResultCache interface {
	Put(ctx context.Context, result domain.AnalysisResult) error
	Get(ctx context.Context, id string) (domain.AnalysisResult, bool, error)
}

// Publisher pushes finished verdicts to outbound channels (Telegram, etc.).
type Publisher interface {
	PublishVerdict(ctx context.Context, result domain.AnalysisResult) error
}

// Scheduler triggers a recurring job until stopped.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
