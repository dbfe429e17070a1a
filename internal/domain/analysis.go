package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceType tags where the analysed text came from.
type SourceType string

const (
	SourceText  SourceType = "Text"
	SourceImage SourceType = "Image"
	SourceVideo SourceType = "Video"
)

// ParseSourceType accepts the tag case-insensitively; empty means Text.
func ParseSourceType(value string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "text":
		return SourceText, nil
	case "image":
		return SourceImage, nil
	case "video":
		return SourceVideo, nil
	default:
		return "", fmt.Errorf("unknown source type %q", value)
	}
}

// AnalysisMode selects the fast heuristic or deep AI track.
type AnalysisMode string

const (
	ModeFast AnalysisMode = "fast"
	ModeDeep AnalysisMode = "deep"
)

// ClaimStatus is the semantic verification bucket of a claim.
type ClaimStatus string

const (
	ClaimVerified   ClaimStatus = "Verified"
	ClaimRelated    ClaimStatus = "Related"
	ClaimUnverified ClaimStatus = "Unverified"
)

// ClaimVerification pairs a claim with its nearest reference statement.
type ClaimVerification struct {
	Claim            string      `json:"claim"`
	MatchedReference string      `json:"match_source"`
	Similarity       float64     `json:"similarity_score"`
	Status           ClaimStatus `json:"status"`
}

// FactCheck is a published review returned by a fact-check index.
type FactCheck struct {
	Claim       string `json:"text"`
	Publisher   string `json:"publisher"`
	Rating      string `json:"rating"`
	URL         string `json:"url"`
	ReviewTitle string `json:"review_title"`
}

// ScoreBreakdown holds the five signals on the 0-100 safety/trust scale.
type ScoreBreakdown struct {
	MLModel     float64 `json:"ml_model"`
	KeywordRisk float64 `json:"keyword_risk"`
	Sentiment   float64 `json:"sentiment"`
	Source      float64 `json:"source"`
	Entity      float64 `json:"entity"`
}

// Tier is the presentation bucket of a rating.
type Tier string

const (
	TierSuccess Tier = "success"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// Verdict is the scorer output.
type Verdict struct {
	Score     float64        `json:"score"`
	Rating    string         `json:"rating"`
	Color     string         `json:"color"`
	Tier      Tier           `json:"tier"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// StageFailure records a stage whose output was replaced by its neutral default.
type StageFailure struct {
	Stage   string `json:"stage"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// AnalysisResult is the terminal artifact of one pipeline run.
type AnalysisResult struct {
	ID         string              `json:"id"`
	Excerpt    string              `json:"text"`
	FullText   string              `json:"full_text"`
	Verdict    Verdict             `json:"score"`
	Linguistic LinguisticResult    `json:"linguistic"`
	Classifier ClassifierResult    `json:"deberta"`
	Sentiment  SentimentResult     `json:"bias"`
	Entity     EntityResult        `json:"entity"`
	Source     SourceResult        `json:"source"`
	Summary    string              `json:"summary"`
	Claims     []ClaimVerification `json:"claims"`
	FactChecks []FactCheck         `json:"fact_checks,omitempty"`
	Degraded   []StageFailure      `json:"degraded,omitempty"`
	Mode       AnalysisMode        `json:"mode"`
	SourceType SourceType          `json:"source_type"`
	SourceURL  string              `json:"source_url,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// Detectors lists every detector result in stage order.
func (r AnalysisResult) Detectors() []DetectorResult {
	return []DetectorResult{r.Linguistic, r.Classifier, r.Sentiment, r.Entity, r.Source}
}

// Record flattens the result into the persistence shape.
func (r AnalysisResult) Record(userID string) HistoryRecord {
	return HistoryRecord{
		AnalysisID:       r.ID,
		UserID:           userID,
		ArticleText:      r.FullText,
		CredibilityScore: r.Verdict.Score,
		Classification:   r.Verdict.Rating,
		BiasSentiment:    r.Sentiment,
		Summary:          r.Summary,
		SourceType:       r.SourceType,
		Timestamp:        r.Timestamp,
	}
}

// HistoryRecord is what the persistence collaborator stores per analysis.
type HistoryRecord struct {
	AnalysisID       string          `json:"analysis_id"`
	UserID           string          `json:"user_id"`
	ArticleText      string          `json:"article_text"`
	CredibilityScore float64         `json:"credibility_score"`
	Classification   string          `json:"classification"`
	BiasSentiment    SentimentResult `json:"bias_sentiment"`
	Summary          string          `json:"summary"`
	SourceType       SourceType      `json:"source_type"`
	Timestamp        time.Time       `json:"timestamp"`
}
