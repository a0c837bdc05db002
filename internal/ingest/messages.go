// Package ingest consumes analysis requests from the instruments topic and
// publishes finished results. The ingestion collaborator (scraping, OCR,
// normalization) produces the requests; dashboards and downstream jobs
// consume the results.
package ingest

import (
	"titlechain/internal/title"
	"titlechain/internal/title/models"
)

// AnalysisRequest is one message on the instruments topic: everything the
// pipeline needs for a single property, keyed by case id.
type AnalysisRequest struct {
	CaseID      string                      `json:"case_id"`
	ParcelLegal string                      `json:"parcel_legal_description,omitempty"`
	Instruments []models.InstrumentRecord   `json:"instruments"`
	Judgment    *models.ForeclosureJudgment `json:"judgment,omitempty"`
}

// ToInput converts the message into the service input.
func (r AnalysisRequest) ToInput() title.Input {
	return title.Input{
		CaseID:      r.CaseID,
		ParcelLegal: r.ParcelLegal,
		Instruments: r.Instruments,
		Judgment:    r.Judgment,
	}
}
