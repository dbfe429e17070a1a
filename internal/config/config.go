package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CredibilityScanner/internal/detector"
)

const (
	configPathEnv       = "CREDSCAN_CONFIG"
	logLevelEnv         = "LOG_LEVEL"
	debugModeEnv        = "DEBUG_MODE"
	httpAddrEnv         = "HTTP_ADDR"
	databaseDSNEnv      = "DATABASE_DSN"
	sqlitePathEnv       = "SQLITE_PATH"
	redisAddrEnv        = "REDIS_ADDR"
	redisPasswordEnv    = "REDIS_PASSWORD"
	inferenceURLEnv     = "INFERENCE_URL"
	inferenceAPIKeyEnv  = "INFERENCE_API_KEY"
	openAIAPIKeyEnv     = "OPENAI_API_KEY"
	openAIModelEnv      = "OPENAI_MODEL"
	factCheckAPIKeyEnv  = "GOOGLE_FACTCHECK_API_KEY"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	sequentialStagesEnv = "PIPELINE_SEQUENTIAL"
)

// Backend names for capabilities that more than one adapter can serve.
const (
	BackendAuto      = "auto"
	BackendInference = "inference"
	BackendOpenAI    = "openai"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Server        ServerConfig       `yaml:"server"`
	Inference     InferenceConfig    `yaml:"inference"`
	OpenAI        OpenAIConfig       `yaml:"openai"`
	FactCheck     FactCheckConfig    `yaml:"factCheck"`
	Storage       StorageConfig      `yaml:"storage"`
	Redis         RedisConfig        `yaml:"redis"`
	Notifications NotificationConfig `yaml:"notifications"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Capabilities  CapabilityConfig   `yaml:"capabilities"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// InferenceConfig describes the model-serving HTTP service.
type InferenceConfig struct {
	URL           string        `yaml:"url"`
	APIKey        string        `yaml:"apiKey"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"maxRetries"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
}

// OpenAIConfig defines how to contact the OpenAI API.
type OpenAIConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
	MaxTokens    int    `yaml:"maxTokens"`
}

type FactCheckConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"apiKey"`
	Language  string `yaml:"language"`
	// MaxClaims is how many extracted claims are queried per analysis.
	MaxClaims int    `yaml:"maxClaims"`
	// PageSize is how many reviews are fetched per claim query.
	PageSize  int    `yaml:"pageSize"`
}

// StorageConfig picks Postgres when a DSN is set, otherwise SQLite at SQLitePath.
// Both empty disables history.
type StorageConfig struct {
	PostgresDSN string `yaml:"postgresDsn"`
	SQLitePath  string `yaml:"sqlitePath"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken    string  `yaml:"botToken"`
	ChatID      string  `yaml:"chatId"`
	APIBase     string  `yaml:"apiBase"`
	NotifyBelow float64 `yaml:"notifyBelow"`
}

type PipelineConfig struct {
	NLPTimeout        time.Duration `yaml:"nlpTimeout"`
	StageTimeout      time.Duration `yaml:"stageTimeout"`
	SummaryTimeout    time.Duration `yaml:"summaryTimeout"`
	CollaboratorLimit time.Duration `yaml:"collaboratorLimit"`
	MaxInputChars     int           `yaml:"maxInputChars"`
	Sequential        bool          `yaml:"sequential"`
	// ReferenceCorpusFile is a YAML list of trusted statements.
	ReferenceCorpusFile string           `yaml:"referenceCorpusFile"`
	ReferenceCorpus     []string         `yaml:"referenceCorpus"`
	Lexicon             detector.Lexicon `yaml:"lexicon"`
}

// CapabilityConfig tunes the lazy capability registry.
type CapabilityConfig struct {
	RetryAfter   time.Duration `yaml:"retryAfter"`
	WarmInterval time.Duration `yaml:"warmInterval"`
	Summarizer   string        `yaml:"summarizer"`
	Embedder     string        `yaml:"embedder"`
}

// Load reads .env, then YAML configuration (if present), then applies
// environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := defaultConfig()
	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.Pipeline.Lexicon = cfg.Pipeline.Lexicon.Merge(detector.DefaultLexicon())

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadFile parses a YAML config file without applying defaults.
func ReadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the components cannot run with.
func (c Config) Validate() error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"pipeline.nlpTimeout":        c.Pipeline.NLPTimeout,
		"pipeline.stageTimeout":      c.Pipeline.StageTimeout,
		"pipeline.summaryTimeout":    c.Pipeline.SummaryTimeout,
		"pipeline.collaboratorLimit": c.Pipeline.CollaboratorLimit,
		"capabilities.retryAfter":    c.Capabilities.RetryAfter,
		"capabilities.warmInterval":  c.Capabilities.WarmInterval,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Pipeline.MaxInputChars < 0 {
		errs = append(errs, errors.New("pipeline.maxInputChars must not be negative"))
	}
	for name, backend := range map[string]string{
		"capabilities.summarizer": c.Capabilities.Summarizer,
		"capabilities.embedder":   c.Capabilities.Embedder,
	} {
		switch backend {
		case BackendAuto, BackendInference, BackendOpenAI:
		default:
			errs = append(errs, fmt.Errorf("%s: unknown backend %q", name, backend))
		}
	}
	if c.Notifications.Telegram.NotifyBelow < 0 || c.Notifications.Telegram.NotifyBelow > 100 {
		errs = append(errs, errors.New("notifications.telegram.notifyBelow must be within [0, 100]"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Logging.Level, logLevelEnv)
	if v, err := strconv.ParseBool(os.Getenv(debugModeEnv)); err == nil && v {
		c.Logging.Level = "debug"
	}
	setString(&c.Server.Addr, httpAddrEnv)
	setString(&c.Storage.PostgresDSN, databaseDSNEnv)
	setString(&c.Storage.SQLitePath, sqlitePathEnv)
	setString(&c.Redis.Addr, redisAddrEnv)
	setString(&c.Redis.Password, redisPasswordEnv)
	setString(&c.Inference.URL, inferenceURLEnv)
	setString(&c.Inference.APIKey, inferenceAPIKeyEnv)
	setString(&c.OpenAI.APIKey, openAIAPIKeyEnv)
	setString(&c.OpenAI.Model, openAIModelEnv)
	setString(&c.FactCheck.APIKey, factCheckAPIKeyEnv)
	setString(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)
	if v, err := strconv.ParseBool(os.Getenv(sequentialStagesEnv)); err == nil {
		c.Pipeline.Sequential = v
	}

	c.Capabilities.Summarizer = strings.ToLower(strings.TrimSpace(c.Capabilities.Summarizer))
	c.Capabilities.Embedder = strings.ToLower(strings.TrimSpace(c.Capabilities.Embedder))
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Inference.URL != "" {
		base.Inference.URL = override.Inference.URL
	}
	if override.Inference.APIKey != "" {
		base.Inference.APIKey = override.Inference.APIKey
	}
	if override.Inference.Timeout > 0 {
		base.Inference.Timeout = override.Inference.Timeout
	}
	if override.Inference.MaxRetries > 0 {
		base.Inference.MaxRetries = override.Inference.MaxRetries
	}
	if override.Inference.RatePerSecond > 0 {
		base.Inference.RatePerSecond = override.Inference.RatePerSecond
	}

	if override.OpenAI.BaseURL != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.SystemPrompt != "" {
		base.OpenAI.SystemPrompt = override.OpenAI.SystemPrompt
	}
	if override.OpenAI.MaxTokens > 0 {
		base.OpenAI.MaxTokens = override.OpenAI.MaxTokens
	}

	if override.FactCheck.Endpoint != "" {
		base.FactCheck.Endpoint = override.FactCheck.Endpoint
	}
	if override.FactCheck.APIKey != "" {
		base.FactCheck.APIKey = override.FactCheck.APIKey
	}
	if override.FactCheck.Language != "" {
		base.FactCheck.Language = override.FactCheck.Language
	}
	if override.FactCheck.MaxClaims > 0 {
		base.FactCheck.MaxClaims = override.FactCheck.MaxClaims
	}
	if override.FactCheck.PageSize > 0 {
		base.FactCheck.PageSize = override.FactCheck.PageSize
	}

	if override.Storage.PostgresDSN != "" || override.Storage.SQLitePath != "" {
		base.Storage = override.Storage
	}

	if override.Redis.Addr != "" {
		base.Redis = override.Redis
		if base.Redis.TTL <= 0 {
			base.Redis.TTL = defaultConfig().Redis.TTL
		}
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIBase != "" {
		base.Notifications.Telegram.APIBase = override.Notifications.Telegram.APIBase
	}
	if override.Notifications.Telegram.NotifyBelow != 0 {
		base.Notifications.Telegram.NotifyBelow = override.Notifications.Telegram.NotifyBelow
	}

	p := override.Pipeline
	if p.NLPTimeout != 0 {
		base.Pipeline.NLPTimeout = p.NLPTimeout
	}
	if p.StageTimeout != 0 {
		base.Pipeline.StageTimeout = p.StageTimeout
	}
	if p.SummaryTimeout != 0 {
		base.Pipeline.SummaryTimeout = p.SummaryTimeout
	}
	if p.CollaboratorLimit != 0 {
		base.Pipeline.CollaboratorLimit = p.CollaboratorLimit
	}
	if p.MaxInputChars != 0 {
		base.Pipeline.MaxInputChars = p.MaxInputChars
	}
	if p.Sequential {
		base.Pipeline.Sequential = true
	}
	if p.ReferenceCorpusFile != "" {
		base.Pipeline.ReferenceCorpusFile = p.ReferenceCorpusFile
	}
	if len(p.ReferenceCorpus) > 0 {
		base.Pipeline.ReferenceCorpus = p.ReferenceCorpus
	}
	base.Pipeline.Lexicon = p.Lexicon.Merge(base.Pipeline.Lexicon)

	if override.Capabilities.RetryAfter != 0 {
		base.Capabilities.RetryAfter = override.Capabilities.RetryAfter
	}
	if override.Capabilities.WarmInterval != 0 {
		base.Capabilities.WarmInterval = override.Capabilities.WarmInterval
	}
	if override.Capabilities.Summarizer != "" {
		base.Capabilities.Summarizer = override.Capabilities.Summarizer
	}
	if override.Capabilities.Embedder != "" {
		base.Capabilities.Embedder = override.Capabilities.Embedder
	}

	return base
}

// LoadReferenceCorpus returns the inline corpus plus the statements listed in
// ReferenceCorpusFile.
func (p PipelineConfig) LoadReferenceCorpus() ([]string, error) {
	corpus := append([]string(nil), p.ReferenceCorpus...)
	if p.ReferenceCorpusFile == "" {
		return corpus, nil
	}
	raw, err := os.ReadFile(p.ReferenceCorpusFile)
	if err != nil {
		return nil, fmt.Errorf("config: read reference corpus: %w", err)
	}
	var extra []string
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("config: parse reference corpus: %w", err)
	}
	for _, s := range extra {
		if s = strings.TrimSpace(s); s != "" {
			corpus = append(corpus, s)
		}
	}
	return corpus, nil
}

// DefaultReferenceCorpus returns the trusted statements claims are checked
// against when no corpus is configured.
func DefaultReferenceCorpus() []string {
	return []string{
		"Official health reports confirm vaccine safety protocols were strictly followed.",
		"Cybersecurity agencies deny rumors of a national grid breach.",
		"The World Health Organization states that vaccines are safe.",
		"NASA confirms the earth is round and orbits the sun.",
		"Climate change is scientifically proven to be driven by human activity.",
	}
}

// Default returns the built-in configuration without file or env input.
func Default() Config { return defaultConfig() }

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Server:  ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Inference: InferenceConfig{
			Timeout:    20 * time.Second,
			MaxRetries: 2,
		},
		OpenAI: OpenAIConfig{
			Model:        "gpt-3.5-turbo",
			SystemPrompt: "You summarize news articles in three neutral sentences.",
			MaxTokens:    256,
		},
		FactCheck: FactCheckConfig{
			Endpoint:  "https://factchecktools.googleapis.com/v1alpha1/claims:search",
			Language:  "en",
			MaxClaims: 3,
			PageSize:  3,
		},
		Storage: StorageConfig{SQLitePath: "credscan.db"},
		Redis:   RedisConfig{Prefix: "credscan:analysis:", TTL: time.Hour},
		Pipeline: PipelineConfig{
			NLPTimeout:        10 * time.Second,
			StageTimeout:      20 * time.Second,
			SummaryTimeout:    30 * time.Second,
			CollaboratorLimit: 10 * time.Second,
			MaxInputChars:     100_000,
			ReferenceCorpus:   DefaultReferenceCorpus(),
			Lexicon:           detector.DefaultLexicon(),
		},
		Capabilities: CapabilityConfig{
			RetryAfter:   time.Minute,
			WarmInterval: 5 * time.Minute,
			Summarizer:   BackendAuto,
			Embedder:     BackendAuto,
		},
	}
}
