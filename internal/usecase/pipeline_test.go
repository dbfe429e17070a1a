package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CredibilityScanner/internal/capability"
	"CredibilityScanner/internal/detector"
	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/textnorm"
)

type classifierFunc func(ctx context.Context, text string) (domain.ClassifierResult, error)

func (f classifierFunc) Predict(ctx context.Context, text string) (domain.ClassifierResult, error) {
	return f(ctx, text)
}

type summaryFunc func(ctx context.Context, text string) (string, error)

func (f summaryFunc) Summarize(ctx context.Context, text string) (string, error) { return f(ctx, text) }

type panicLinguistic struct{}

func (panicLinguistic) Analyze(domain.NormalizedText) domain.LinguisticResult { panic("rule table corrupt") }

type memoryRepo struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
	err     error
}

func (m *memoryRepo) SaveAnalysis(_ context.Context, r domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memoryRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HistoryRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	return out, m.err
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]domain.AnalysisResult
}

func (c *memoryCache) Put(_ context.Context, r domain.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]domain.AnalysisResult{}
	}
	c.items[r.ID] = r
	return nil
}

func (c *memoryCache) Get(_ context.Context, id string) (domain.AnalysisResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[id]
	return r, ok, nil
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) PublishVerdict(context.Context, domain.AnalysisResult) error {
	f.calls++
	return errors.New("telegram down")
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func baseDeps(t *testing.T) PipelineDeps {
	t.Helper()

	norm, err := textnorm.New(nil, textnorm.Config{}, nil)
	require.NoError(t, err)

	lex := detector.DefaultLexicon()
	return PipelineDeps{
		Normalizer: norm,
		Linguistic: detector.NewLinguistic(lex),
		Sentiment:  detector.NewSentiment(nil, lex),
		Entity:     detector.NewEntity(lex),
		Source:     detector.NewSource(lex),
		Verifier:   capability.NewSemanticVerifier(nil),
		Summarizer: capability.NewSummarizer(nil),
		NewID:      func() string { return "analysis-1" },
		Now:        fixedClock(),
	}
}

const sampleText = "Scientists said the miracle cure is guaranteed! Read more at https://www.reuters.com/world/story"

func TestRunAnalysisClassifierFailureUsesNeutralDefault(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	deps.Classifier = classifierFunc(func(context.Context, string) (domain.ClassifierResult, error) {
		return domain.ClassifierResult{}, errors.New("model crashed")
	})
	p := NewPipeline(deps)

	res, err := p.RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText, DeepScan: true})
	require.NoError(t, err)

	assert.Equal(t, 0.5, res.Classifier.RealProb)
	assert.True(t, res.Classifier.Fallback)
	assert.Equal(t, "Error", res.Classifier.Label)
	assert.Equal(t, 50.0, res.Verdict.Breakdown.MLModel)

	stages := map[string]string{}
	for _, f := range res.Degraded {
		stages[f.Stage] = f.Reason
	}
	assert.Equal(t, string(capability.ReasonRuntime), stages[StageClassifier])
	assert.Equal(t, string(capability.ReasonUnavailable), stages[StagePolarity])
	assert.NotContains(t, stages, StageSummary)
	assert.Equal(t, res.FullText, res.Summary)
	assert.Equal(t, domain.ModeDeep, res.Mode)
}

func TestRunAnalysisFastModeDefaults(t *testing.T) {
	t.Parallel()

	called := false
	deps := baseDeps(t)
	deps.Classifier = classifierFunc(func(context.Context, string) (domain.ClassifierResult, error) {
		called = true
		return domain.ClassifierResult{RealProb: 1}, nil
	})
	p := NewPipeline(deps)

	res, err := p.RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText})
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, 0.5, res.Classifier.RealProb)
	assert.Zero(t, res.Sentiment.RiskScore)
	assert.Empty(t, res.Claims)
	assert.NotNil(t, res.Claims)
	assert.Equal(t, FastModeSummary, res.Summary)
	assert.Empty(t, res.Degraded)
	assert.Equal(t, domain.ModeFast, res.Mode)
	assert.Equal(t, domain.SourceText, res.SourceType)

	assert.Equal(t, "https://www.reuters.com/world/story", res.SourceURL)
	assert.Equal(t, 100.0, res.Source.Score)
	assert.Equal(t, 40.0, res.Linguistic.RiskScore)
}

func TestRunAnalysisFastModeIsIdempotent(t *testing.T) {
	t.Parallel()

	p := NewPipeline(baseDeps(t))
	req := AnalysisRequest{Text: sampleText, SourceType: domain.SourceVideo}

	first, err := p.RunAnalysis(context.Background(), req)
	require.NoError(t, err)
	second, err := p.RunAnalysis(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunAnalysisSequentialMatchesConcurrent(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	concurrent, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText, DeepScan: true})
	require.NoError(t, err)

	deps.Sequential = true
	sequential, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText, DeepScan: true})
	require.NoError(t, err)

	assert.Equal(t, concurrent, sequential)
}

func TestRunAnalysisStageTimeout(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	deps.Timeouts = StageTimeouts{Summary: 20 * time.Millisecond}
	deps.Summarizer = summaryFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	p := NewPipeline(deps)

	res, err := p.RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText, DeepScan: true})
	require.NoError(t, err)

	assert.Equal(t, capability.SummaryUnavailable, res.Summary)
	var found bool
	for _, f := range res.Degraded {
		if f.Stage == StageSummary {
			found = true
			assert.Equal(t, string(capability.ReasonTimeout), f.Reason)
		}
	}
	assert.True(t, found, "summary timeout should be recorded")
}

func TestRunAnalysisRecoversPanickingStage(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	deps.Linguistic = panicLinguistic{}
	p := NewPipeline(deps)

	res, err := p.RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText})
	require.NoError(t, err)

	assert.True(t, res.Linguistic.Fallback)
	assert.Zero(t, res.Linguistic.RiskScore)
	require.Len(t, res.Degraded, 1)
	assert.Equal(t, StageLinguistic, res.Degraded[0].Stage)
	assert.Contains(t, res.Degraded[0].Message, "panic")
}

func TestRunAnalysisWithoutNormalizer(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	deps.Normalizer = nil

	_, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText})
	require.Error(t, err)

	var ae *AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.ErrorIs(t, err, ErrNormalizerUnavailable)
}

func TestRunAnalysisEmptyTextIsNotFatal(t *testing.T) {
	t.Parallel()

	res, err := NewPipeline(baseDeps(t)).RunAnalysis(context.Background(), AnalysisRequest{Text: "   ", DeepScan: true})
	require.NoError(t, err)

	assert.Zero(t, res.Linguistic.RiskScore)
	assert.Equal(t, 40.0, res.Entity.Score)
	assert.Equal(t, detector.StatusUnknown, res.Source.Status)
	assert.Equal(t, "...", res.Excerpt)
	assert.GreaterOrEqual(t, res.Verdict.Score, 0.0)
	assert.LessOrEqual(t, res.Verdict.Score, 100.0)
}

func TestRunAnalysisHandsOffToCollaborators(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	cache := &memoryCache{}
	pub := &failingPublisher{}

	deps := baseDeps(t)
	deps.Repository = repo
	deps.Cache = cache
	deps.Publisher = pub
	p := NewPipeline(deps)

	res, err := p.RunAnalysis(context.Background(), AnalysisRequest{
		Text:       sampleText,
		SourceType: domain.SourceImage,
		SourceURL:  "http://infowars.com/x",
		UserID:     "user-7",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Source.Score)
	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, "user-7", rec.UserID)
	assert.Equal(t, res.Verdict.Score, rec.CredibilityScore)
	assert.Equal(t, res.Verdict.Rating, rec.Classification)
	assert.Equal(t, domain.SourceImage, rec.SourceType)
	assert.Equal(t, res.FullText, rec.ArticleText)

	cached, ok, err := cache.Get(context.Background(), res.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.Verdict, cached.Verdict)

	assert.Equal(t, 1, pub.calls)
}

func TestRunAnalysisAnonymousIsNotPersisted(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	deps := baseDeps(t)
	deps.Repository = repo

	_, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText})
	require.NoError(t, err)
	assert.Empty(t, repo.records)
}

func TestRunAnalysisPersistenceErrorIsLoggedOnly(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	deps.Repository = &memoryRepo{err: errors.New("db down")}

	_, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText, UserID: "u"})
	require.NoError(t, err)
}

type stubFactChecker struct {
	queries []string
	err     error
}

func (s *stubFactChecker) SearchClaims(_ context.Context, q string) ([]domain.FactCheck, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return []domain.FactCheck{{Claim: q, Publisher: "Snopes", Rating: "False"}}, nil
}

type staticNormalizer struct{ doc domain.NormalizedText }

func (s staticNormalizer) Normalize(context.Context, string) domain.NormalizedText { return s.doc }

func TestRunAnalysisFactChecksFirstClaims(t *testing.T) {
	t.Parallel()

	claims := []string{"claim one is long enough", "claim two", "claim three", "claim four"}
	fc := &stubFactChecker{}

	deps := baseDeps(t)
	deps.Normalizer = staticNormalizer{doc: domain.NewNormalizedText("raw", "Raw", "raw", nil, claims, nil)}
	deps.FactChecker = fc
	deps.Sequential = true

	res, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: "raw", DeepScan: true})
	require.NoError(t, err)

	assert.Equal(t, claims[:3], fc.queries)
	assert.Len(t, res.FactChecks, 3)
	assert.Equal(t, 50.0, res.Verdict.Breakdown.Source)
}

func TestRunAnalysisFactCheckFailureDegrades(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	deps.Normalizer = staticNormalizer{doc: domain.NewNormalizedText("raw", "Raw", "raw", nil, []string{"c"}, nil)}
	deps.FactChecker = &stubFactChecker{err: errors.New("quota")}

	res, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: "raw", DeepScan: true})
	require.NoError(t, err)

	assert.Empty(t, res.FactChecks)
	var stages []string
	for _, f := range res.Degraded {
		stages = append(stages, f.Stage)
	}
	assert.Contains(t, stages, StageFactCheck)
}

type mapEmbedder map[string][]float32

func (m mapEmbedder) Embed(_ context.Context, in []string) ([][]float32, error) {
	out := make([][]float32, len(in))
	for i, s := range in {
		out[i] = m[s]
	}
	return out, nil
}

func TestRunAnalysisVerifiesClaimsAgainstCorpus(t *testing.T) {
	t.Parallel()

	deps := baseDeps(t)
	deps.Normalizer = staticNormalizer{doc: domain.NewNormalizedText("raw", "Raw", "raw", nil, []string{"the earth orbits the sun"}, nil)}
	deps.Verifier = capability.NewSemanticVerifier(mapEmbedder{
		"the earth orbits the sun": {1, 0},
		"nasa confirms":            {1, 0},
		"vaccines are safe":        {0, 1},
	})
	deps.ReferenceCorpus = []string{"vaccines are safe", "nasa confirms"}

	res, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: "raw", DeepScan: true})
	require.NoError(t, err)

	require.Len(t, res.Claims, 1)
	assert.Equal(t, "nasa confirms", res.Claims[0].MatchedReference)
	assert.Equal(t, domain.ClaimVerified, res.Claims[0].Status)
}

type stageTrace struct {
	mu    sync.Mutex
	names []string
}

func (s *stageTrace) add(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
}

type tracedLinguistic struct {
	LinguisticDetector
	trace *stageTrace
}

func (l tracedLinguistic) Analyze(doc domain.NormalizedText) domain.LinguisticResult {
	l.trace.add(StageLinguistic)
	return l.LinguisticDetector.Analyze(doc)
}

type tracedSentiment struct {
	SentimentDetector
	trace *stageTrace
}

func (s tracedSentiment) Analyze(ctx context.Context, doc domain.NormalizedText) (domain.SentimentResult, error) {
	s.trace.add(StageSentiment)
	return s.SentimentDetector.Analyze(ctx, doc)
}

type tracedEntity struct {
	EntityDetector
	trace *stageTrace
}

func (e tracedEntity) Analyze(doc domain.NormalizedText) domain.EntityResult {
	e.trace.add(StageEntity)
	return e.EntityDetector.Analyze(doc)
}

type tracedSource struct {
	SourceDetector
	trace *stageTrace
}

func (s tracedSource) Verify(rawURL string) domain.SourceResult {
	s.trace.add(StageSource)
	return s.SourceDetector.Verify(rawURL)
}

func TestRunAnalysisSequentialFollowsStageOrder(t *testing.T) {
	t.Parallel()

	trace := &stageTrace{}
	deps := baseDeps(t)
	deps.Sequential = true
	deps.Linguistic = tracedLinguistic{deps.Linguistic, trace}
	deps.Sentiment = tracedSentiment{deps.Sentiment, trace}
	deps.Entity = tracedEntity{deps.Entity, trace}
	deps.Source = tracedSource{deps.Source, trace}
	deps.Classifier = classifierFunc(func(context.Context, string) (domain.ClassifierResult, error) {
		trace.add(StageClassifier)
		return domain.ClassifierResult{Label: "Real", FakeProb: 0.3, RealProb: 0.7}, nil
	})
	deps.Summarizer = summaryFunc(func(context.Context, string) (string, error) {
		trace.add(StageSummary)
		return "summary", nil
	})

	_, err := NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText, DeepScan: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		StageLinguistic, StageClassifier, StageSentiment, StageEntity, StageSource, StageSummary,
	}, trace.names)

	trace.names = nil
	_, err = NewPipeline(deps).RunAnalysis(context.Background(), AnalysisRequest{Text: sampleText})
	require.NoError(t, err)
	assert.Equal(t, []string{StageLinguistic, StageEntity, StageSource}, trace.names)
}
