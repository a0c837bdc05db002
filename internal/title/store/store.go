// Package store persists finished analysis results. Stores are
// interface-driven so the service stays testable and persistence can move
// between in-memory, PostgreSQL, and cached variants without rewiring
// business code.
package store

import (
	"context"

	"titlechain/internal/title/models"
)

// Store persists one AnalysisResult per case; a re-run replaces the previous
// result for that case.
type Store interface {
	Save(ctx context.Context, result models.AnalysisResult) error
	FindByCase(ctx context.Context, caseID string) (models.AnalysisResult, error)
}
