package domain

// DetectorKind identifies a detector variant.
type DetectorKind string

const (
	KindLinguistic DetectorKind = "linguistic"
	KindClassifier DetectorKind = "ml_model"
	KindSentiment  DetectorKind = "sentiment"
	KindEntity     DetectorKind = "entity"
	KindSource     DetectorKind = "source"
)

// SignalDirection tells how to read a detector signal.
type SignalDirection string

const (
	// DirectionRisk signals are 0-100, higher = more suspicious.
	DirectionRisk SignalDirection = "risk"
	// DirectionTrust signals are 0-100, higher = more credible.
	DirectionTrust SignalDirection = "trust"
)

// DetectorResult is the closed set of detector outputs. Every variant carries
// a numeric signal with a known direction plus its own evidence.
type DetectorResult interface {
	Kind() DetectorKind
	Signal() float64
	Direction() SignalDirection
	IsFallback() bool
	detectorResult()
}

// LinguisticResult reports rhetorical red flags.
type LinguisticResult struct {
	RiskScore        float64  `json:"risk_score"`
	Flags            []string `json:"flags"`
	Readability      float64  `json:"readability_score"`
	CapsRatio        float64  `json:"caps_ratio"`
	ExclamationCount int      `json:"exclamation_count"`
	Fallback         bool     `json:"fallback,omitempty"`
}

func (r LinguisticResult) Kind() DetectorKind         { return KindLinguistic }
func (r LinguisticResult) Signal() float64            { return r.RiskScore }
func (r LinguisticResult) Direction() SignalDirection { return DirectionRisk }
func (r LinguisticResult) IsFallback() bool           { return r.Fallback }
func (LinguisticResult) detectorResult()              {}

// ClassifierResult is the real/fake probability pair of the text classifier.
type ClassifierResult struct {
	Label    string  `json:"label"`
	FakeProb float64 `json:"fake_prob"`
	RealProb float64 `json:"real_prob"`
	Fallback bool    `json:"fallback,omitempty"`
}

func (r ClassifierResult) Kind() DetectorKind         { return KindClassifier }
func (r ClassifierResult) Signal() float64            { return r.RealProb * 100 }
func (r ClassifierResult) Direction() SignalDirection { return DirectionTrust }
func (r ClassifierResult) IsFallback() bool           { return r.Fallback }
func (ClassifierResult) detectorResult()              {}

// SentimentResult combines polarity with the sensationalism lexicon scan.
type SentimentResult struct {
	Label          string  `json:"sentiment"`
	Intensity      float64 `json:"sentiment_intensity"`
	Sensationalism float64 `json:"sensationalism_score"`
	RiskScore      float64 `json:"risk_score"`
	ModelAvailable bool    `json:"model_available"`
	Fallback       bool    `json:"fallback,omitempty"`
}

func (r SentimentResult) Kind() DetectorKind         { return KindSentiment }
func (r SentimentResult) Signal() float64            { return r.RiskScore }
func (r SentimentResult) Direction() SignalDirection { return DirectionRisk }
func (r SentimentResult) IsFallback() bool           { return r.Fallback }
func (SentimentResult) detectorResult()              {}

// EntityResult is the anchor-matching trust verdict.
type EntityResult struct {
	Score    float64  `json:"score"`
	Reason   string   `json:"reason"`
	Count    int      `json:"entity_count"`
	Matches  []string `json:"matches,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
}

func (r EntityResult) Kind() DetectorKind         { return KindEntity }
func (r EntityResult) Signal() float64            { return r.Score }
func (r EntityResult) Direction() SignalDirection { return DirectionTrust }
func (r EntityResult) IsFallback() bool           { return r.Fallback }
func (EntityResult) detectorResult()              {}

// SourceResult is the domain-list trust verdict.
type SourceResult struct {
	Score    float64 `json:"score"`
	Status   string  `json:"status"`
	Domain   string  `json:"domain,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
}

func (r SourceResult) Kind() DetectorKind         { return KindSource }
func (r SourceResult) Signal() float64            { return r.Score }
func (r SourceResult) Direction() SignalDirection { return DirectionTrust }
func (r SourceResult) IsFallback() bool           { return r.Fallback }
func (SourceResult) detectorResult()              {}
