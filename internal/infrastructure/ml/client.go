package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/infrastructure/resilience"
	"CredibilityScanner/internal/ports"
)

// Client talks to the inference service hosting the classifier, polarity,
// NLP, summarization and embedding models.
type Client struct {
	endpoint string
	apiKey   string
	http     *resilience.Client
}

var (
	_ ports.ClassifierModel  = (*Client)(nil)
	_ ports.SentimentModel   = (*Client)(nil)
	_ ports.EntityRecognizer = (*Client)(nil)
	_ ports.SummaryModel     = (*Client)(nil)
	_ ports.Embedder         = (*Client)(nil)
)

// Options configures the client.
type Options struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	Resilience resilience.Config
	Logger     *slog.Logger
}

// NewClient creates a reusable HTTP client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		apiKey:   opts.APIKey,
		http:     resilience.NewClient(&http.Client{Timeout: timeout}, opts.Resilience, opts.Logger),
	}
}

// Ping checks that the service is up and its models are loaded.
func (c *Client) Ping(ctx context.Context) error {
	if c.endpoint == "" {
		return fmt.Errorf("inference endpoint not configured")
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return fmt.Errorf("ping inference service: %w", err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return fmt.Errorf("inference service not ready: %s", resp.Status)
	}
	return nil
}

// Classify returns raw fake/real probabilities.
func (c *Client) Classify(ctx context.Context, text string) (float64, float64, error) {
	var resp struct {
		FakeProb float64 `json:"fake_prob"`
		RealProb float64 `json:"real_prob"`
	}
	if err := c.call(ctx, http.MethodPost, "/classify", map[string]string{"text": text}, &resp); err != nil {
		return 0, 0, fmt.Errorf("classify: %w", err)
	}
	return resp.FakeProb, resp.RealProb, nil
}

// Polarity returns the sentiment label and its confidence.
func (c *Client) Polarity(ctx context.Context, text string) (string, float64, error) {
	var resp struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := c.call(ctx, http.MethodPost, "/sentiment", map[string]string{"text": text}, &resp); err != nil {
		return "", 0, fmt.Errorf("sentiment: %w", err)
	}
	return resp.Label, resp.Score, nil
}

// Annotate segments text and extracts entities.
func (c *Client) Annotate(ctx context.Context, text string) (domain.Annotation, error) {
	var resp domain.Annotation
	if err := c.call(ctx, http.MethodPost, "/entities", map[string]string{"text": text}, &resp); err != nil {
		return domain.Annotation{}, fmt.Errorf("annotate: %w", err)
	}
	return resp, nil
}

// Summarize requests an abstractive summary.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.call(ctx, http.MethodPost, "/summarize", map[string]string{"text": text}, &resp); err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return resp.Summary, nil
}

// Embed returns one vector per input.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := c.call(ctx, http.MethodPost, "/embed", map[string][]string{"inputs": inputs}, &resp); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("embed: expected %d vectors, got %d", len(inputs), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

func (c *Client) call(ctx context.Context, method, path string, payload any, v any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
