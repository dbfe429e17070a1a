// Package factcheck queries the Google Fact Check Tools claim search API.
package factcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/infrastructure/resilience"
	"CredibilityScanner/internal/ports"
)

// DefaultEndpoint is the public claim search URL.
const DefaultEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

const (
	defaultLanguage = "en"
	defaultPageSize = 3
	maxQueryChars   = 500
)

// Options configures the client.
type Options struct {
	APIKey     string
	Endpoint   string
	Language   string
	PageSize   int
	Timeout    time.Duration
	Resilience resilience.Config
	Logger     *slog.Logger
}

// Client implements ports.FactChecker.
type Client struct {
	endpoint string
	apiKey   string
	language string
	pageSize int
	http     *resilience.Client
}

var _ ports.FactChecker = (*Client)(nil)

// New requires an API key.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("fact check api key is empty")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	lang := opts.Language
	if lang == "" {
		lang = defaultLanguage
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   opts.APIKey,
		language: lang,
		pageSize: pageSize,
		http:     resilience.NewClient(&http.Client{Timeout: timeout}, opts.Resilience, opts.Logger),
	}, nil
}

type searchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// SearchClaims returns one FactCheck per published review of matching claims.
func (c *Client) SearchClaims(ctx context.Context, query string) ([]domain.FactCheck, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if len(query) > maxQueryChars {
		query = query[:maxQueryChars]
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("key", c.apiKey)
	q.Set("languageCode", c.language)
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("claim search: %w", err)
	}
	defer resp.Body.Close()

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode claim search: %w", err)
	}

	var out []domain.FactCheck
	for _, claim := range payload.Claims {
		for _, review := range claim.ClaimReview {
			out = append(out, domain.FactCheck{
				Claim:       claim.Text,
				Publisher:   orDefault(review.Publisher.Name, "Unknown Publisher"),
				Rating:      orDefault(review.TextualRating, "Unknown"),
				URL:         review.URL,
				ReviewTitle: review.Title,
			})
		}
	}
	return out, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
