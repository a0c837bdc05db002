package handler

import (
	"time"

	"titlechain/internal/title/models"
)

// AnalysisResponse is the wire shape for a finished analysis. It mirrors the
// versioned result contract; the flag list is precomputed so dashboard
// clients need no summary logic.
type AnalysisResponse struct {
	SchemaVersion string `json:"schema_version"`
	AnalysisID    string `json:"analysis_id"`
	CaseID        string `json:"case_id"`
	AnalyzedAt    string `json:"analyzed_at"`

	Periods           []models.OwnershipPeriod   `json:"periods"`
	Encumbrances      []models.Encumbrance       `json:"encumbrances"`
	Summary           models.ChainSummary        `json:"summary"`
	Flags             []models.ChainFlag         `json:"flags"`
	UnmatchedReleases []models.UnmatchedRelease  `json:"unmatched_releases,omitempty"`
	Skipped           []models.SkippedInstrument `json:"skipped,omitempty"`
}

// FromResult builds the response from a stored or freshly computed result.
func FromResult(result models.AnalysisResult) AnalysisResponse {
	return AnalysisResponse{
		SchemaVersion:     result.SchemaVersion,
		AnalysisID:        result.AnalysisID.String(),
		CaseID:            result.CaseID,
		AnalyzedAt:        result.AnalyzedAt.UTC().Format(time.RFC3339),
		Periods:           result.Periods,
		Encumbrances:      result.Encumbrances,
		Summary:           result.Summary,
		Flags:             result.Summary.Flags(),
		UnmatchedReleases: result.UnmatchedReleases,
		Skipped:           result.Skipped,
	}
}
