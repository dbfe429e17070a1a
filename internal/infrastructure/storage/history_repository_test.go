package storage

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CredibilityScanner/internal/domain"
)

func sampleRecord(id string, ts time.Time) domain.HistoryRecord {
	return domain.HistoryRecord{
		AnalysisID:       id,
		UserID:           "user-1",
		ArticleText:      "nasa confirms the rover reached orbit",
		CredibilityScore: 72.5,
		Classification:   "Likely Reliable",
		BiasSentiment:    domain.SentimentResult{Label: "POSITIVE", Intensity: 0.8, RiskScore: 10, ModelAvailable: true},
		Summary:          "rover reached orbit",
		SourceType:       domain.SourceText,
		Timestamp:        ts,
	}
}

func TestPostgresSaveAnalysis(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	rec := sampleRecord("a-1", ts)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO analyses (analysis_id,user_id,article_text,credibility_score,classification,bias_sentiment,summary,source_type,created_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (analysis_id) DO NOTHING")).
		WithArgs("a-1", "user-1", rec.ArticleText, 72.5, "Likely Reliable", sqlmock.AnyArg(), rec.Summary, "Text", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresRepository(db).SaveAnalysis(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByUser(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(analysisColumns).
		AddRow("a-2", "user-1", "text two", 30.0, "Likely Fake / Misleading", `{"sentiment":"NEGATIVE","risk_score":70}`, "s2", "Video", ts.Add(time.Hour)).
		AddRow("a-1", "user-1", "text one", 85.0, "Likely Reliable", `{"sentiment":"Neutral"}`, "s1", "Text", ts)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT analysis_id, user_id, article_text, credibility_score, classification, bias_sentiment, summary, source_type, created_at "+
			"FROM analyses WHERE user_id = $1 ORDER BY created_at DESC, analysis_id DESC LIMIT 2")).
		WithArgs("user-1").
		WillReturnRows(rows)

	got, err := NewPostgresRepository(db).ListByUser(context.Background(), "user-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a-2", got[0].AnalysisID)
	assert.Equal(t, domain.SourceVideo, got[0].SourceType)
	assert.Equal(t, "NEGATIVE", got[0].BiasSentiment.Label)
	assert.Equal(t, 70.0, got[0].BiasSentiment.RiskScore)
	assert.Equal(t, ts, got[1].Timestamp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserRejectsCorruptSentiment(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(analysisColumns).
		AddRow("a-1", "u", "t", 1.0, "c", "{not json", "s", "Text", time.Now()))

	_, err = NewPostgresRepository(db).ListByUser(context.Background(), "u", 5)
	assert.Error(t, err)
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a-1", "a-2", "a-3"} {
		require.NoError(t, repo.SaveAnalysis(ctx, sampleRecord(id, base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, repo.SaveAnalysis(ctx, sampleRecord("a-1", base)))

	other := sampleRecord("b-1", base)
	other.UserID = "user-2"
	require.NoError(t, repo.SaveAnalysis(ctx, other))

	got, err := repo.ListByUser(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a-3", "a-2", "a-1"}, []string{got[0].AnalysisID, got[1].AnalysisID, got[2].AnalysisID})
	assert.Equal(t, "POSITIVE", got[0].BiasSentiment.Label)
	assert.True(t, got[2].Timestamp.Equal(base))

	limited, err := repo.ListByUser(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "a-3", limited[0].AnalysisID)
}
