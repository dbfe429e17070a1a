package capability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CredibilityScanner/internal/ports"
)

type fixedClassifier struct{ fakeProb, realProb float64 }

func (f fixedClassifier) Classify(context.Context, string) (float64, float64, error) {
	return f.fakeProb, f.realProb, nil
}

func TestLazyConstructsOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	var builds int32
	release := make(chan struct{})
	lazy := NewLazy[ports.ClassifierModel]("classifier", func(context.Context) (ports.ClassifierModel, error) {
		atomic.AddInt32(&builds, 1)
		<-release
		return fixedClassifier{fakeProb: 0.2, realProb: 0.8}, nil
	}, time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lazy.Get(context.Background())
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	assert.True(t, lazy.Ready())

	_, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

func TestLazyCachesFailureUntilRetryWindow(t *testing.T) {
	t.Parallel()

	var builds int32
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lazy := NewLazy[ports.ClassifierModel]("classifier", func(context.Context) (ports.ClassifierModel, error) {
		if atomic.AddInt32(&builds, 1) == 1 {
			return nil, errors.New("weights missing")
		}
		return fixedClassifier{realProb: 1}, nil
	}, time.Minute)
	lazy.now = func() time.Time { return now }

	_, err := lazy.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, ReasonUnavailable, ReasonOf(err))

	_, err = lazy.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))

	now = now.Add(2 * time.Minute)
	_, err = lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&builds))
}

func TestLazyWithoutConstructorIsUnavailable(t *testing.T) {
	t.Parallel()

	var lazy *Lazy[ports.Embedder]
	_, err := lazy.Get(context.Background())
	assert.Equal(t, ReasonUnavailable, ReasonOf(err))

	_, err = NewLazy[ports.Embedder]("embedder", nil, 0).Get(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRegistryProxiesAndWarm(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(Constructors{
		Classifier: func(context.Context) (ports.ClassifierModel, error) {
			return fixedClassifier{fakeProb: 0.3, realProb: 0.7}, nil
		},
		Embedder: func(context.Context) (ports.Embedder, error) {
			return nil, errors.New("no gpu")
		},
	}, time.Minute)

	failed := reg.Warm(context.Background())
	assert.Len(t, failed, 4)

	fakeProb, realProb, err := reg.ClassifierModel().Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 0.3, fakeProb)
	assert.Equal(t, 0.7, realProb)

	_, err = reg.Embedder().Embed(context.Background(), []string{"x"})
	assert.Equal(t, ReasonUnavailable, ReasonOf(err))

	_, err = reg.SummaryModel().Summarize(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
