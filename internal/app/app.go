package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"CredibilityScanner/internal/capability"
	"CredibilityScanner/internal/config"
	"CredibilityScanner/internal/detector"
	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/infrastructure/cache"
	"CredibilityScanner/internal/infrastructure/factcheck"
	"CredibilityScanner/internal/infrastructure/httpapi"
	"CredibilityScanner/internal/infrastructure/llm"
	"CredibilityScanner/internal/infrastructure/ml"
	"CredibilityScanner/internal/infrastructure/resilience"
	"CredibilityScanner/internal/infrastructure/scheduler"
	"CredibilityScanner/internal/infrastructure/storage"
	"CredibilityScanner/internal/infrastructure/telegram"
	"CredibilityScanner/internal/logging"
	"CredibilityScanner/internal/metrics"
	"CredibilityScanner/internal/ports"
	"CredibilityScanner/internal/textnorm"
	"CredibilityScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	pipeline *usecase.Pipeline
	history  *usecase.History
	cache    ports.ResultCache
	metrics  *metrics.Collector
	registry *capability.Registry
	warmup   *usecase.Warmup

	closers []func() error
}

// New builds every adapter the configuration asks for. Optional
// collaborators that cannot be reached are logged and left out.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger, metrics: metrics.New("credscan")}

	a.registry = capability.NewRegistry(a.constructors(), cfg.Capabilities.RetryAfter)

	normalizer, err := textnorm.New(a.registry.Recognizer(), textnorm.Config{
		NLPTimeout:    cfg.Pipeline.NLPTimeout,
		MaxInputChars: cfg.Pipeline.MaxInputChars,
	}, logging.Component(baseLogger, "textnorm"))
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	corpus, err := cfg.Pipeline.LoadReferenceCorpus()
	if err != nil {
		return nil, err
	}

	repository, err := a.openRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	lex := cfg.Pipeline.Lexicon
	deps := usecase.PipelineDeps{
		Normalizer: normalizer,
		Linguistic: detector.NewLinguistic(lex),
		Classifier: capability.NewClassifier(a.registry.ClassifierModel()),
		Sentiment:  detector.NewSentiment(a.registry.SentimentModel(), lex),
		Entity:     detector.NewEntity(lex),
		Source:     detector.NewSource(lex),
		Verifier:   capability.NewSemanticVerifier(a.registry.Embedder()),
		Summarizer: capability.NewSummarizer(a.registry.SummaryModel()),

		Repository:  repository,
		Cache:       a.openCache(ctx),
		Publisher:   a.publisher(),
		FactChecker: a.factChecker(),

		Metrics:         a.metrics,
		Logger:          logging.Component(baseLogger, "pipeline"),
		ReferenceCorpus: corpus,
		Timeouts: usecase.StageTimeouts{
			Classifier: cfg.Pipeline.StageTimeout,
			Sentiment:  cfg.Pipeline.StageTimeout,
			Semantic:   cfg.Pipeline.StageTimeout,
			FactCheck:  cfg.Pipeline.StageTimeout,
			Summary:    cfg.Pipeline.SummaryTimeout,
		},
		FactCheckClaims:   cfg.FactCheck.MaxClaims,
		CollaboratorLimit: cfg.Pipeline.CollaboratorLimit,
		Sequential:        cfg.Pipeline.Sequential,
	}
	a.cache = deps.Cache
	a.pipeline = usecase.NewPipeline(deps)
	if repository != nil {
		a.history = usecase.NewHistory(repository)
	}
	a.warmup = usecase.NewWarmup(
		scheduler.NewTicker(cfg.Capabilities.WarmInterval),
		a.registry,
		logging.Component(baseLogger, "warmup"),
	)
	return a, nil
}

// Analyze runs one analysis synchronously.
func (a *Application) Analyze(ctx context.Context, req usecase.AnalysisRequest) (domain.AnalysisResult, error) {
	return a.pipeline.RunAnalysis(ctx, req)
}

// History lists stored analyses for a user.
func (a *Application) History(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	if a.history == nil {
		return nil, usecase.ErrHistoryUnavailable
	}
	return a.history.ForUser(ctx, userID, limit)
}

// Serve warms capabilities in the background and blocks serving HTTP until
// ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.warmup.Start(ctx); err != nil {
		return fmt.Errorf("start warmup: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := a.warmup.Stop(stopCtx); err != nil {
			a.logger.Warn("stop warmup", "error", err)
		}
	}()

	var history httpapi.HistoryReader
	if a.history != nil {
		history = a.history
	}
	server := httpapi.NewServer(httpapi.Options{
		Addr:            a.cfg.Server.Addr,
		Analyzer:        a.pipeline,
		History:         history,
		Cache:           a.cache,
		Metrics:         a.metrics,
		Logger:          a.logger,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})
	return server.ListenAndServe(ctx)
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) constructors() capability.Constructors {
	var c capability.Constructors
	cfg := a.cfg

	if cfg.Inference.URL != "" {
		rc := resilience.DefaultConfig("inference")
		rc.MaxRetries = cfg.Inference.MaxRetries
		rc.RatePerSecond = cfg.Inference.RatePerSecond
		client := ml.NewClient(ml.Options{
			Endpoint:   cfg.Inference.URL,
			APIKey:     cfg.Inference.APIKey,
			Timeout:    cfg.Inference.Timeout,
			Resilience: rc,
			Logger:     logging.Component(a.logger, "inference"),
		})
		ping := func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, cfg.Inference.Timeout)
			defer cancel()
			return client.Ping(pingCtx)
		}
		c.Recognizer = func(ctx context.Context) (ports.EntityRecognizer, error) { return client, ping(ctx) }
		c.Classifier = func(ctx context.Context) (ports.ClassifierModel, error) { return client, ping(ctx) }
		c.Sentiment = func(ctx context.Context) (ports.SentimentModel, error) { return client, ping(ctx) }
		c.Embedder = func(ctx context.Context) (ports.Embedder, error) { return client, ping(ctx) }
		c.Summary = func(ctx context.Context) (ports.SummaryModel, error) { return client, ping(ctx) }
	}

	switch resolveBackend(cfg.Capabilities.Summarizer, cfg) {
	case config.BackendOpenAI:
		c.Summary = func(context.Context) (ports.SummaryModel, error) { return a.openAI() }
	case "":
		c.Summary = nil
	}
	switch resolveBackend(cfg.Capabilities.Embedder, cfg) {
	case config.BackendOpenAI:
		c.Embedder = func(context.Context) (ports.Embedder, error) { return a.openAI() }
	case "":
		c.Embedder = nil
	}
	return c
}

// resolveBackend maps a configured choice onto a usable backend, or "" when
// nothing can serve it. Auto prefers OpenAI when a key is set.
func resolveBackend(choice string, cfg config.Config) string {
	hasOpenAI := cfg.OpenAI.APIKey != ""
	hasInference := cfg.Inference.URL != ""
	switch {
	case choice == config.BackendOpenAI && hasOpenAI:
		return config.BackendOpenAI
	case choice == config.BackendInference && hasInference:
		return config.BackendInference
	case (choice == config.BackendAuto || choice == "") && hasOpenAI:
		return config.BackendOpenAI
	case (choice == config.BackendAuto || choice == "") && hasInference:
		return config.BackendInference
	default:
		return ""
	}
}

func (a *Application) openAI() (*llm.Client, error) {
	return llm.NewClient(llm.Config{
		APIKey:       a.cfg.OpenAI.APIKey,
		BaseURL:      a.cfg.OpenAI.BaseURL,
		Model:        a.cfg.OpenAI.Model,
		SystemPrompt: a.cfg.OpenAI.SystemPrompt,
		MaxTokens:    a.cfg.OpenAI.MaxTokens,
	})
}

// openRepository prefers Postgres and falls back to the local SQLite file.
func (a *Application) openRepository(ctx context.Context) (ports.HistoryRepository, error) {
	st := a.cfg.Storage
	var repo *storage.HistoryRepository
	switch {
	case st.PostgresDSN != "":
		db, err := storage.OpenPostgres(ctx, st.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		repo = storage.NewPostgresRepository(db)
	case st.SQLitePath != "":
		db, err := storage.OpenSQLite(st.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		repo = storage.NewSQLiteRepository(db)
	default:
		a.logger.Info("history storage disabled")
		return nil, nil
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (a *Application) openCache(ctx context.Context) ports.ResultCache {
	rc := a.cfg.Redis
	if rc.Addr == "" {
		return nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	rcache := cache.New(client, rc.Prefix, rc.TTL)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rcache.Ping(pingCtx); err != nil {
		a.logger.Warn("redis unavailable, result cache disabled", "addr", rc.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	a.closers = append(a.closers, client.Close)
	return rcache
}

func (a *Application) publisher() ports.Publisher {
	tg := a.cfg.Notifications.Telegram
	if tg.BotToken == "" || tg.ChatID == "" {
		return nil
	}
	n, err := telegram.NewNotifier(telegram.Options{
		BotToken:    tg.BotToken,
		ChatID:      tg.ChatID,
		APIBase:     tg.APIBase,
		NotifyBelow: tg.NotifyBelow,
		Resilience:  resilience.DefaultConfig("telegram"),
		Logger:      logging.Component(a.logger, "telegram"),
	})
	if err != nil {
		a.logger.Warn("telegram notifier disabled", "error", err)
		return nil
	}
	return n
}

func (a *Application) factChecker() ports.FactChecker {
	fc := a.cfg.FactCheck
	if fc.APIKey == "" {
		return nil
	}
	rc := resilience.DefaultConfig("factcheck")
	rc.RatePerSecond = 5
	rc.Burst = 3
	client, err := factcheck.New(factcheck.Options{
		APIKey:     fc.APIKey,
		Endpoint:   fc.Endpoint,
		Language:   fc.Language,
		PageSize:   fc.PageSize,
		Resilience: rc,
		Logger:     logging.Component(a.logger, "factcheck"),
	})
	if err != nil {
		a.logger.Warn("fact check disabled", "error", err)
		return nil
	}
	return client
}
