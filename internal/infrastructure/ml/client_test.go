package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CredibilityScanner/internal/infrastructure/resilience"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilience.DefaultConfig("ml-test")
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	cfg.BreakerWindow = 0
	return NewClient(Options{Endpoint: srv.URL + "/", APIKey: "secret", Resilience: cfg})
}

func TestClientEndpoints(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"fake_prob": 0.3, "real_prob": 0.7})
	})
	mux.HandleFunc("/sentiment", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"label": "NEGATIVE", "score": 0.93})
	})
	mux.HandleFunc("/entities", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sentences":[{"text":"NASA flew.","tokens":[{"text":"NASA","pos":"PROPN"},{"text":"flew","pos":"VERB"}],"entities":[{"text":"NASA","type":"ORG"}]}],"entities":[{"text":"NASA","type":"ORG"}]}`))
	})
	mux.HandleFunc("/summarize", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "short: " + req["text"][:4]})
	})
	mux.HandleFunc("/embed", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1, 0}, {0, 1}}})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	fake, realProb, err := c.Classify(ctx, "text")
	require.NoError(t, err)
	assert.Equal(t, 0.3, fake)
	assert.Equal(t, 0.7, realProb)

	label, score, err := c.Polarity(ctx, "text")
	require.NoError(t, err)
	assert.Equal(t, "NEGATIVE", label)
	assert.Equal(t, 0.93, score)

	ann, err := c.Annotate(ctx, "NASA flew.")
	require.NoError(t, err)
	require.Len(t, ann.Sentences, 1)
	assert.Equal(t, "VERB", ann.Sentences[0].Tokens[1].POS)
	assert.Equal(t, "ORG", ann.Entities[0].Type)

	summary, err := c.Summarize(ctx, "long article")
	require.NoError(t, err)
	assert.Equal(t, "short: long", summary)

	vecs, err := c.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)

	_, err = c.Embed(ctx, []string{"only one"})
	assert.Error(t, err)
}

func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"fake_prob": 0.1, "real_prob": 0.9})
	}))

	_, realProb, err := c.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 0.9, realProb)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad input", http.StatusBadRequest)
	}))

	_, err := c.Summarize(context.Background(), "text")
	require.Error(t, err)

	var se *resilience.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "bad input", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPingWithoutEndpoint(t *testing.T) {
	t.Parallel()

	if err := NewClient(Options{}).Ping(context.Background()); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
