package factcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CredibilityScanner/internal/domain"
)

const searchFixture = `{
  "claims": [
    {
      "text": "The earth is flat",
      "claimReview": [
        {"publisher": {"name": "Snopes"}, "url": "https://snopes.com/a", "title": "Flat earth", "textualRating": "False"},
        {"publisher": {}, "url": "https://example.org/b", "title": "", "textualRating": ""}
      ]
    }
  ]
}`

func TestSearchClaims(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("languageCode") != "en" || q.Get("pageSize") != "3" || q.Get("query") != "earth is flat" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c, err := New(Options{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	got, err := c.SearchClaims(context.Background(), "  earth is flat ")
	require.NoError(t, err)
	assert.Equal(t, []domain.FactCheck{
		{Claim: "The earth is flat", Publisher: "Snopes", Rating: "False", URL: "https://snopes.com/a", ReviewTitle: "Flat earth"},
		{Claim: "The earth is flat", Publisher: "Unknown Publisher", Rating: "Unknown", URL: "https://example.org/b"},
	}, got)
}

func TestSearchClaimsErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(Options{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.SearchClaims(context.Background(), "anything")
	assert.Error(t, err)

	got, err := c.SearchClaims(context.Background(), " ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = New(Options{})
	assert.Error(t, err)
}
