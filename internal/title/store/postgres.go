package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"titlechain/internal/title/models"
	"titlechain/pkg/platform/sentinel"
)

// PostgresStore persists results in PostgreSQL. The full result is stored as
// a JSONB payload; case id, analysis id, and chain flags are lifted into
// columns for querying.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed result store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the results table. Called by integration tests and local
// bootstrap; production runs migrations out of band.
const Schema = `
CREATE TABLE IF NOT EXISTS title_analyses (
	case_id        TEXT PRIMARY KEY,
	analysis_id    UUID NOT NULL,
	schema_version TEXT NOT NULL,
	analyzed_at    TIMESTAMPTZ NOT NULL,
	chain_flags    TEXT[] NOT NULL DEFAULT '{}',
	payload        JSONB NOT NULL
)`

func (s *PostgresStore) Save(ctx context.Context, result models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	flags := make([]string, 0, 4)
	for _, f := range result.Summary.Flags() {
		flags = append(flags, string(f))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO title_analyses (case_id, analysis_id, schema_version, analyzed_at, chain_flags, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_id) DO UPDATE SET
			analysis_id    = EXCLUDED.analysis_id,
			schema_version = EXCLUDED.schema_version,
			analyzed_at    = EXCLUDED.analyzed_at,
			chain_flags    = EXCLUDED.chain_flags,
			payload        = EXCLUDED.payload`,
		result.CaseID, result.AnalysisID, result.SchemaVersion, result.AnalyzedAt,
		pq.Array(flags), payload,
	)
	if err != nil {
		return fmt.Errorf("save analysis result: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCase(ctx context.Context, caseID string) (models.AnalysisResult, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM title_analyses WHERE case_id = $1`, caseID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AnalysisResult{}, sentinel.ErrNotFound
		}
		return models.AnalysisResult{}, fmt.Errorf("find analysis by case: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("unmarshal analysis result: %w", err)
	}
	return result, nil
}
