package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"CredibilityScanner/internal/capability"
	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/metrics"
	"CredibilityScanner/internal/ports"
	"CredibilityScanner/internal/scoring"
)

// ErrNormalizerUnavailable is the only failure that aborts a request.
var ErrNormalizerUnavailable = errors.New("text normalizer unavailable")

// AnalysisError is returned when a run could not produce any result.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string { return fmt.Sprintf("analysis failed at %s: %v", e.Stage, e.Err) }

func (e *AnalysisError) Unwrap() error { return e.Err }

// Stage contracts consumed by the pipeline.
type (
	Normalizer interface {
		Normalize(ctx context.Context, raw string) domain.NormalizedText
	}
	LinguisticDetector interface {
		Analyze(doc domain.NormalizedText) domain.LinguisticResult
	}
	SentimentDetector interface {
		Analyze(ctx context.Context, doc domain.NormalizedText) (domain.SentimentResult, error)
	}
	EntityDetector interface {
		Analyze(doc domain.NormalizedText) domain.EntityResult
	}
	SourceDetector interface {
		Verify(rawURL string) domain.SourceResult
	}
	Classifier interface {
		Predict(ctx context.Context, text string) (domain.ClassifierResult, error)
	}
	ClaimVerifier interface {
		VerifyClaims(ctx context.Context, claims, corpus []string) ([]domain.ClaimVerification, error)
	}
	Summarizer interface {
		Summarize(ctx context.Context, text string) (string, error)
	}
)

// StageTimeouts bounds the model-backed stages. Zero disables a limit.
type StageTimeouts struct {
	Classifier time.Duration
	Sentiment  time.Duration
	Semantic   time.Duration
	FactCheck  time.Duration
	Summary    time.Duration
}

// PipelineDeps wires detectors, capabilities and collaborators into the pipeline.
type PipelineDeps struct {
	Normalizer  Normalizer
	Linguistic  LinguisticDetector
	Classifier  Classifier
	Sentiment   SentimentDetector
	Entity      EntityDetector
	Source      SourceDetector
	Verifier    ClaimVerifier
	Summarizer  Summarizer
	FactChecker ports.FactChecker

	Repository ports.HistoryRepository
	Cache      ports.ResultCache
	Publisher  ports.Publisher

	Metrics *metrics.Collector
	Logger  *slog.Logger

	ReferenceCorpus   []string
	Timeouts          StageTimeouts
	FactCheckClaims   int
	CollaboratorLimit time.Duration
	// Sequential runs stages one after another instead of fanning out.
	Sequential bool

	NewID func() string
	Now   func() time.Time
}

// AnalysisRequest is what the session layer hands to RunAnalysis.
type AnalysisRequest struct {
	Text       string
	SourceType domain.SourceType
	SourceURL  string
	DeepScan   bool
	// UserID is empty for anonymous analysis; nothing is persisted then.
	UserID string
}

// Pipeline runs one credibility analysis per call and keeps no per-request state.
type Pipeline struct {
	normalizer  Normalizer
	linguistic  LinguisticDetector
	classifier  Classifier
	sentiment   SentimentDetector
	entity      EntityDetector
	source      SourceDetector
	verifier    ClaimVerifier
	summarizer  Summarizer
	factChecker ports.FactChecker

	repository ports.HistoryRepository
	cache      ports.ResultCache
	publisher  ports.Publisher

	metrics *metrics.Collector
	logger  *slog.Logger

	corpus            []string
	timeouts          StageTimeouts
	factCheckClaims   int
	collaboratorLimit time.Duration
	sequential        bool

	newID func() string
	now   func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		normalizer:        deps.Normalizer,
		linguistic:        deps.Linguistic,
		classifier:        deps.Classifier,
		sentiment:         deps.Sentiment,
		entity:            deps.Entity,
		source:            deps.Source,
		verifier:          deps.Verifier,
		summarizer:        deps.Summarizer,
		factChecker:       deps.FactChecker,
		repository:        deps.Repository,
		cache:             deps.Cache,
		publisher:         deps.Publisher,
		metrics:           deps.Metrics,
		logger:            deps.Logger,
		corpus:            append([]string(nil), deps.ReferenceCorpus...),
		timeouts:          deps.Timeouts,
		factCheckClaims:   deps.FactCheckClaims,
		collaboratorLimit: deps.CollaboratorLimit,
		sequential:        deps.Sequential,
		newID:             deps.NewID,
		now:               deps.Now,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.newID == nil {
		p.newID = func() string { return uuid.NewString() }
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.factCheckClaims <= 0 {
		p.factCheckClaims = 3
	}
	if p.collaboratorLimit <= 0 {
		p.collaboratorLimit = 10 * time.Second
	}
	return p
}

// RunAnalysis returns either a complete AnalysisResult or an *AnalysisError.
// Every failing stage is replaced by its neutral default and listed in
// AnalysisResult.Degraded.
func (p *Pipeline) RunAnalysis(ctx context.Context, req AnalysisRequest) (domain.AnalysisResult, error) {
	if p.normalizer == nil {
		return domain.AnalysisResult{}, &AnalysisError{Stage: "normalize", Err: ErrNormalizerUnavailable}
	}

	started := p.now()
	mode := domain.ModeFast
	if req.DeepScan {
		mode = domain.ModeDeep
	}
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = domain.SourceText
	}
	logger := p.logger.With("mode", string(mode), "source_type", string(sourceType))

	doc := p.normalizer.Normalize(ctx, req.Text)
	targetURL := strings.TrimSpace(req.SourceURL)
	if targetURL == "" {
		targetURL = doc.FirstURL()
	}

	d := newDraft()
	if !req.DeepScan {
		d.fastDefaults()
	}

	stages := p.stages(doc, targetURL, req.DeepScan, d)
	p.execute(ctx, stages, d)

	degraded := p.applySubstitutions(logger, d)

	result := domain.AnalysisResult{
		ID:         p.newID(),
		Excerpt:    excerpt(doc.Clean()),
		FullText:   doc.Clean(),
		Linguistic: d.linguistic,
		Classifier: d.classifier,
		Sentiment:  d.sentiment,
		Entity:     d.entity,
		Source:     d.source,
		Summary:    d.summary,
		Claims:     d.claims,
		FactChecks: d.factChecks,
		Degraded:   degraded,
		Mode:       mode,
		SourceType: sourceType,
		SourceURL:  targetURL,
		Timestamp:  p.now().UTC(),
	}
	if result.Claims == nil {
		result.Claims = []domain.ClaimVerification{}
	}
	detectors := result.Detectors()
	result.Verdict = scoring.Score(scoring.SignalsFrom(detectors...))
	verdict := result.Verdict

	p.metrics.ObserveAnalysis(string(mode), verdict.Rating, verdict.Score, p.now().Sub(started))
	logger.Info("analysis complete",
		"analysis_id", result.ID,
		"score", verdict.Score,
		"rating", verdict.Rating,
		"degraded", len(degraded),
		"fallbacks", countFallbacks(detectors))

	p.handOff(ctx, logger, result, req.UserID)
	return result, nil
}

func countFallbacks(results []domain.DetectorResult) int {
	n := 0
	for _, r := range results {
		if r.IsFallback() {
			n++
		}
	}
	return n
}

type stage struct {
	name string
	// run writes its own draft field and reports a failure plus an optional
	// note for a sub-capability that degraded without failing the stage.
	run func(ctx context.Context) (failure, note *domain.StageFailure)
}

func (p *Pipeline) stages(doc domain.NormalizedText, targetURL string, deep bool, d *draft) []stage {
	linguistic := stage{name: StageLinguistic, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		d.linguistic, failure = guard(ctx, p, StageLinguistic, 0,
			func(context.Context) (domain.LinguisticResult, error) {
				if p.linguistic == nil {
					return domain.LinguisticResult{}, missing(StageLinguistic)
				}
				return p.linguistic.Analyze(doc), nil
			})
		return failure, nil
	}}
	entity := stage{name: StageEntity, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		d.entity, failure = guard(ctx, p, StageEntity, 0,
			func(context.Context) (domain.EntityResult, error) {
				if p.entity == nil {
					return domain.EntityResult{}, missing(StageEntity)
				}
				return p.entity.Analyze(doc), nil
			})
		return failure, nil
	}}
	source := stage{name: StageSource, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		d.source, failure = guard(ctx, p, StageSource, 0,
			func(context.Context) (domain.SourceResult, error) {
				if p.source == nil {
					return domain.SourceResult{}, missing(StageSource)
				}
				return p.source.Verify(targetURL), nil
			})
		return failure, nil
	}}
	if !deep {
		return []stage{linguistic, entity, source}
	}

	classifier := stage{name: StageClassifier, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		d.classifier, failure = guard(ctx, p, StageClassifier, p.timeouts.Classifier,
			func(ctx context.Context) (domain.ClassifierResult, error) {
				if p.classifier == nil {
					return domain.ClassifierResult{}, missing(StageClassifier)
				}
				return p.classifier.Predict(ctx, doc.Clean())
			})
		return failure, nil
	}}
	sentiment := stage{name: StageSentiment, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		var polarityErr error
		d.sentiment, failure = guard(ctx, p, StageSentiment, p.timeouts.Sentiment,
			func(ctx context.Context) (domain.SentimentResult, error) {
				if p.sentiment == nil {
					return domain.SentimentResult{}, missing(StageSentiment)
				}
				res, err := p.sentiment.Analyze(ctx, doc)
				polarityErr = err
				return res, nil
			})
		if failure == nil && polarityErr != nil {
			note = &domain.StageFailure{
				Stage:   StagePolarity,
				Reason:  string(capability.ReasonOf(polarityErr)),
				Message: polarityErr.Error(),
			}
		}
		return failure, note
	}}
	semantic := stage{name: StageSemantic, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		d.claims, failure = guard(ctx, p, StageSemantic, p.timeouts.Semantic,
			func(ctx context.Context) ([]domain.ClaimVerification, error) {
				claims := doc.Claims()
				if len(claims) == 0 || len(p.corpus) == 0 {
					return []domain.ClaimVerification{}, nil
				}
				if p.verifier == nil {
					return nil, missing(StageSemantic)
				}
				return p.verifier.VerifyClaims(ctx, claims, p.corpus)
			})
		return failure, nil
	}}
	factCheck := stage{name: StageFactCheck, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		if p.factChecker == nil {
			return nil, nil
		}
		d.factChecks, failure = guard(ctx, p, StageFactCheck, p.timeouts.FactCheck,
			func(ctx context.Context) ([]domain.FactCheck, error) {
				return p.lookupFactChecks(ctx, doc.Claims())
			})
		return failure, nil
	}}
	summary := stage{name: StageSummary, run: func(ctx context.Context) (failure, note *domain.StageFailure) {
		d.summary, failure = guard(ctx, p, StageSummary, p.timeouts.Summary,
			func(ctx context.Context) (string, error) {
				if p.summarizer == nil {
					return "", missing(StageSummary)
				}
				return p.summarizer.Summarize(ctx, doc.Clean())
			})
		return failure, nil
	}}

	return []stage{linguistic, classifier, sentiment, entity, source, semantic, factCheck, summary}
}

// execute runs every stage and records failures in the draft once all of
// them have finished.
func (p *Pipeline) execute(ctx context.Context, stages []stage, d *draft) {
	type outcome struct{ failure, note *domain.StageFailure }
	outcomes := make([]outcome, len(stages))

	if p.sequential {
		for i, s := range stages {
			outcomes[i].failure, outcomes[i].note = s.run(ctx)
		}
	} else {
		var g errgroup.Group
		for i, s := range stages {
			i, s := i, s
			g.Go(func() error {
				outcomes[i].failure, outcomes[i].note = s.run(ctx)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, s := range stages {
		if f := outcomes[i].failure; f != nil {
			d.failures[s.name] = f
		}
		if n := outcomes[i].note; n != nil {
			d.notes[n.Stage] = n
		}
	}
}

// applySubstitutions replaces failed stage outputs with their neutral
// defaults and returns the degraded list in stage order.
func (p *Pipeline) applySubstitutions(logger *slog.Logger, d *draft) []domain.StageFailure {
	var degraded []domain.StageFailure
	for _, name := range stageOrder {
		if f, ok := d.failures[name]; ok {
			if sub, ok := substitutions[name]; ok {
				sub(d, capability.Reason(f.Reason))
			}
			logger.Warn("stage failed, substituting neutral default",
				"stage", name, "reason", f.Reason, "error", f.Message)
			p.metrics.Substituted(name, f.Reason)
			degraded = append(degraded, *f)
			continue
		}
		if n, ok := d.notes[name]; ok {
			logger.Warn("capability degraded", "stage", name, "reason", n.Reason, "error", n.Message)
			p.metrics.Substituted(name, n.Reason)
			degraded = append(degraded, *n)
		}
	}
	return degraded
}

func (p *Pipeline) lookupFactChecks(ctx context.Context, claims []string) ([]domain.FactCheck, error) {
	if len(claims) > p.factCheckClaims {
		claims = claims[:p.factCheckClaims]
	}
	var found []domain.FactCheck
	for _, claim := range claims {
		reviews, err := p.factChecker.SearchClaims(ctx, claim)
		if err != nil {
			return nil, fmt.Errorf("search fact checks: %w", err)
		}
		found = append(found, reviews...)
	}
	return found, nil
}

// handOff passes the finished result to the collaborators. Their failures
// are logged and never change the result.
func (p *Pipeline) handOff(ctx context.Context, logger *slog.Logger, result domain.AnalysisResult, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.collaboratorLimit)
	defer cancel()

	if p.repository != nil && userID != "" {
		if err := p.repository.SaveAnalysis(ctx, result.Record(userID)); err != nil {
			logger.Error("persist analysis", "analysis_id", result.ID, "error", err)
		}
	}
	if p.cache != nil {
		if err := p.cache.Put(ctx, result); err != nil {
			logger.Warn("cache analysis", "analysis_id", result.ID, "error", err)
		}
	}
	if p.publisher != nil {
		if err := p.publisher.PublishVerdict(ctx, result); err != nil {
			logger.Warn("publish verdict", "analysis_id", result.ID, "error", err)
		}
	}
}

func missing(stage string) error {
	return &capability.Failure{Capability: stage, Reason: capability.ReasonUnavailable, Err: capability.ErrNotConfigured}
}
