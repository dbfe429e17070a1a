package capability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

// Constructor builds a capability instance. It may be slow (model loading).
type Constructor[T any] func(ctx context.Context) (T, error)

// Lazy constructs a value on first use and hands the same instance to every
// later caller. Concurrent first calls share one construction. A failed
// construction is remembered for retryAfter before it is attempted again.
type Lazy[T any] struct {
	name       string
	build      Constructor[T]
	retryAfter time.Duration
	now        func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	value    T
	ready    bool
	err      error
	failedAt time.Time
}

// NewLazy registers a constructor; a nil constructor is permanently unavailable.
func NewLazy[T any](name string, build Constructor[T], retryAfter time.Duration) *Lazy[T] {
	return &Lazy[T]{name: name, build: build, retryAfter: retryAfter, now: time.Now}
}

// Get returns the constructed instance or an unavailable Failure.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if l == nil || l.build == nil {
		return zero, fail(l.label(), ReasonUnavailable, ErrNotConfigured)
	}

	if v, done, err := l.cached(); done {
		return v, err
	}

	res, err, _ := l.group.Do(l.name, func() (interface{}, error) {
		if v, done, cerr := l.cached(); done {
			return v, cerr
		}
		// Construction outlives the first caller's cancellation.
		v, berr := l.build(context.WithoutCancel(ctx))

		l.mu.Lock()
		defer l.mu.Unlock()
		if berr != nil {
			l.err = berr
			l.failedAt = l.now()
			return zero, fail(l.name, ReasonUnavailable, berr)
		}
		l.value, l.ready, l.err = v, true, nil
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// Ready reports whether construction already succeeded.
func (l *Lazy[T]) Ready() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

func (l *Lazy[T]) cached() (T, bool, error) {
	var zero T
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ready {
		return l.value, true, nil
	}
	if l.err != nil && l.now().Sub(l.failedAt) < l.retryAfter {
		return zero, true, fail(l.name, ReasonUnavailable, l.err)
	}
	return zero, false, nil
}

func (l *Lazy[T]) label() string {
	if l == nil {
		return "capability"
	}
	return l.name
}

// Constructors lists the builders for every heavy capability.
type Constructors struct {
	Recognizer Constructor[ports.EntityRecognizer]
	Classifier Constructor[ports.ClassifierModel]
	Sentiment  Constructor[ports.SentimentModel]
	Embedder   Constructor[ports.Embedder]
	Summary    Constructor[ports.SummaryModel]
}

// Registry is the process-wide holder of lazily constructed capabilities.
// It is built once at startup and passed into the pipeline by reference.
type Registry struct {
	recognizer *Lazy[ports.EntityRecognizer]
	classifier *Lazy[ports.ClassifierModel]
	sentiment  *Lazy[ports.SentimentModel]
	embedder   *Lazy[ports.Embedder]
	summary    *Lazy[ports.SummaryModel]
}

// NewRegistry wires constructors; nothing is built until first use.
func NewRegistry(c Constructors, retryAfter time.Duration) *Registry {
	return &Registry{
		recognizer: NewLazy("nlp", c.Recognizer, retryAfter),
		classifier: NewLazy("classifier", c.Classifier, retryAfter),
		sentiment:  NewLazy("sentiment", c.Sentiment, retryAfter),
		embedder:   NewLazy("embedder", c.Embedder, retryAfter),
		summary:    NewLazy("summarizer", c.Summary, retryAfter),
	}
}

// Warm constructs every configured capability up front and returns the
// names of those that failed.
func (r *Registry) Warm(ctx context.Context) []string {
	var failed []string
	check := func(name string, err error) {
		if err != nil && ReasonOf(err) == ReasonUnavailable {
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
		}
	}
	_, err := r.recognizer.Get(ctx)
	check("nlp", err)
	_, err = r.classifier.Get(ctx)
	check("classifier", err)
	_, err = r.sentiment.Get(ctx)
	check("sentiment", err)
	_, err = r.embedder.Get(ctx)
	check("embedder", err)
	_, err = r.summary.Get(ctx)
	check("summarizer", err)
	return failed
}

// Recognizer returns a proxy that resolves the NLP capability per call.
func (r *Registry) Recognizer() ports.EntityRecognizer { return lazyRecognizer{r.recognizer} }

// ClassifierModel returns a proxy for the text classifier.
func (r *Registry) ClassifierModel() ports.ClassifierModel { return lazyClassifier{r.classifier} }

// SentimentModel returns a proxy for the polarity model.
func (r *Registry) SentimentModel() ports.SentimentModel { return lazySentiment{r.sentiment} }

// Embedder returns a proxy for the sentence-embedding model.
func (r *Registry) Embedder() ports.Embedder { return lazyEmbedder{r.embedder} }

// SummaryModel returns a proxy for the summarizer model.
func (r *Registry) SummaryModel() ports.SummaryModel { return lazySummary{r.summary} }

type lazyRecognizer struct{ l *Lazy[ports.EntityRecognizer] }

func (p lazyRecognizer) Annotate(ctx context.Context, text string) (domain.Annotation, error) {
	m, err := p.l.Get(ctx)
	if err != nil {
		return domain.Annotation{}, err
	}
	return m.Annotate(ctx, text)
}

type lazyClassifier struct{ l *Lazy[ports.ClassifierModel] }

func (p lazyClassifier) Classify(ctx context.Context, text string) (float64, float64, error) {
	m, err := p.l.Get(ctx)
	if err != nil {
		return 0, 0, err
	}
	return m.Classify(ctx, text)
}

type lazySentiment struct{ l *Lazy[ports.SentimentModel] }

func (p lazySentiment) Polarity(ctx context.Context, text string) (string, float64, error) {
	m, err := p.l.Get(ctx)
	if err != nil {
		return "", 0, err
	}
	return m.Polarity(ctx, text)
}

type lazyEmbedder struct{ l *Lazy[ports.Embedder] }

func (p lazyEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	m, err := p.l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return m.Embed(ctx, inputs)
}

type lazySummary struct{ l *Lazy[ports.SummaryModel] }

func (p lazySummary) Summarize(ctx context.Context, text string) (string, error) {
	m, err := p.l.Get(ctx)
	if err != nil {
		return "", err
	}
	return m.Summarize(ctx, text)
}
