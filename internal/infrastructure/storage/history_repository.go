package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

const analysesTable = "analyses"

var analysisColumns = []string{
	"analysis_id",
	"user_id",
	"article_text",
	"credibility_score",
	"classification",
	"bias_sentiment",
	"summary",
	"source_type",
	"created_at",
}

// Dialect selects placeholder style and schema flavour.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// HistoryRepository persists flattened analysis records.
type HistoryRepository struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

// NewPostgresRepository wires a Postgres-backed sql.DB.
func NewPostgresRepository(db *sql.DB) *HistoryRepository {
	return newRepository(db, DialectPostgres)
}

// NewSQLiteRepository wires a SQLite-backed sql.DB.
func NewSQLiteRepository(db *sql.DB) *HistoryRepository {
	return newRepository(db, DialectSQLite)
}

func newRepository(db *sql.DB, dialect Dialect) *HistoryRepository {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		format = sq.Dollar
	}
	return &HistoryRepository{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// EnsureSchema creates the analyses table and its user index.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return errors.New("history repository has no database")
	}
	for _, stmt := range schema(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SaveAnalysis inserts the record once; a repeated analysis id is ignored.
func (r *HistoryRepository) SaveAnalysis(ctx context.Context, record domain.HistoryRecord) error {
	if r.db == nil {
		return nil
	}

	bias, err := json.Marshal(record.BiasSentiment)
	if err != nil {
		return fmt.Errorf("marshal bias sentiment: %w", err)
	}
	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args, err := r.builder.
		Insert(analysesTable).
		Columns(analysisColumns...).
		Values(
			record.AnalysisID,
			record.UserID,
			record.ArticleText,
			record.CredibilityScore,
			record.Classification,
			string(bias),
			record.Summary,
			string(record.SourceType),
			ts.UTC(),
		).
		Suffix("ON CONFLICT (analysis_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ListByUser returns the newest records first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		return []domain.HistoryRecord{}, nil
	}

	query, args, err := r.builder.
		Select(analysisColumns...).
		From(analysesTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "analysis_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0, limit)
	for rows.Next() {
		var (
			rec        domain.HistoryRecord
			bias       string
			sourceType string
		)
		if err := rows.Scan(
			&rec.AnalysisID,
			&rec.UserID,
			&rec.ArticleText,
			&rec.CredibilityScore,
			&rec.Classification,
			&bias,
			&rec.Summary,
			&sourceType,
			&rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if bias != "" {
			if err := json.Unmarshal([]byte(bias), &rec.BiasSentiment); err != nil {
				return nil, fmt.Errorf("decode bias sentiment for %s: %w", rec.AnalysisID, err)
			}
		}
		rec.SourceType = domain.SourceType(sourceType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

func schema(dialect Dialect) []string {
	scoreType, tsType := "DOUBLE PRECISION", "TIMESTAMPTZ"
	if dialect == DialectSQLite {
		scoreType, tsType = "REAL", "TIMESTAMP"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS analyses (
	analysis_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	article_text TEXT NOT NULL,
	credibility_score %s NOT NULL,
	classification TEXT NOT NULL,
	bias_sentiment TEXT NOT NULL,
	summary TEXT NOT NULL,
	source_type TEXT NOT NULL,
	created_at %s NOT NULL
)`, scoreType, tsType),
		`CREATE INDEX IF NOT EXISTS analyses_user_created_idx ON analyses (user_id, created_at DESC)`,
	}
}
