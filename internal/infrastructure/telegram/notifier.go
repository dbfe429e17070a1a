package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/infrastructure/resilience"
	"CredibilityScanner/internal/ports"
)

const DefaultAPIBase = "https://api.telegram.org"

// Options configure the verdict notifier.
type Options struct {
	BotToken string
	ChatID   string
	APIBase  string
	// NotifyBelow sends only verdicts scoring under the threshold.
	// Zero sends every verdict.
	NotifyBelow float64
	Timeout     time.Duration
	Resilience  resilience.Config
	Logger      *slog.Logger
}

// Notifier posts verdict summaries to a Telegram chat via bot API.
type Notifier struct {
	botToken    string
	chatID      string
	apiBase     string
	notifyBelow float64
	http        *resilience.Client
}

var _ ports.Publisher = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(opts Options) (*Notifier, error) {
	if opts.BotToken == "" || opts.ChatID == "" {
		return nil, errors.New("telegram notifier misconfigured")
	}
	base := strings.TrimRight(opts.APIBase, "/")
	if base == "" {
		base = DefaultAPIBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		botToken:    opts.BotToken,
		chatID:      opts.ChatID,
		apiBase:     base,
		notifyBelow: opts.NotifyBelow,
		http:        resilience.NewClient(&http.Client{Timeout: timeout}, opts.Resilience, opts.Logger),
	}, nil
}

// PublishVerdict posts a Markdown message for result, unless it scores at or
// above the notify threshold.
func (n *Notifier) PublishVerdict(ctx context.Context, result domain.AnalysisResult) error {
	if n.notifyBelow > 0 && result.Verdict.Score >= n.notifyBelow {
		return nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatVerdict(result))
	form.Set("parse_mode", "Markdown")
	body := form.Encode()

	resp, err := n.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// FormatVerdict renders the message body.
func FormatVerdict(result domain.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* (%.1f/100)\n", result.Verdict.Rating, result.Verdict.Score)
	if result.SourceURL != "" {
		fmt.Fprintf(&b, "Source: %s (%s)\n", result.SourceURL, result.Source.Status)
	}
	for _, flag := range result.Linguistic.Flags {
		fmt.Fprintf(&b, "- %s\n", flag)
	}
	if len(result.Degraded) > 0 {
		stages := make([]string, 0, len(result.Degraded))
		for _, d := range result.Degraded {
			stages = append(stages, d.Stage)
		}
		fmt.Fprintf(&b, "Degraded: %s\n", strings.Join(stages, ", "))
	}
	if result.Excerpt != "" {
		fmt.Fprintf(&b, "\n_%s_", result.Excerpt)
	}
	return b.String()
}
