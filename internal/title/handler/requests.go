package handler

import (
	"time"

	"titlechain/internal/title"
	"titlechain/internal/title/models"
	dErrors "titlechain/pkg/domain-errors"
)

// AnalyzeRequest is the POST /v1/title/analyses body.
type AnalyzeRequest struct {
	CaseID      string                    `json:"case_id"`
	ParcelLegal string                    `json:"parcel_legal_description,omitempty"`
	Instruments []models.InstrumentRecord `json:"instruments"`
	Judgment    *judgmentRequest          `json:"judgment,omitempty"`
}

type judgmentRequest struct {
	Type            string `json:"type"`
	LisPendensDate  string `json:"lis_pendens_date"`
	ForeclosingID   string `json:"foreclosing_instrument_id,omitempty"`
	ForeclosingBook string `json:"foreclosing_book_page,omitempty"`
	SaleDate        string `json:"sale_date,omitempty"`
}

// Validate checks the request shape. Enum and date validation on individual
// instruments is left to the service, which skips malformed records instead
// of rejecting the run.
func (r *AnalyzeRequest) Validate() error {
	if r.CaseID == "" {
		return dErrors.New(dErrors.CodeValidation, "case_id is required")
	}
	if r.Judgment != nil {
		if _, err := models.ParseForeclosureType(r.Judgment.Type); err != nil {
			return err
		}
		if _, err := parseDate(r.Judgment.LisPendensDate); err != nil {
			return dErrors.New(dErrors.CodeValidation, "judgment.lis_pendens_date must be an RFC 3339 date")
		}
		if r.Judgment.SaleDate != "" {
			if _, err := parseDate(r.Judgment.SaleDate); err != nil {
				return dErrors.New(dErrors.CodeValidation, "judgment.sale_date must be an RFC 3339 date")
			}
		}
	}
	return nil
}

// ToInput converts a validated request into the service input.
func (r *AnalyzeRequest) ToInput() title.Input {
	in := title.Input{
		CaseID:      r.CaseID,
		ParcelLegal: r.ParcelLegal,
		Instruments: r.Instruments,
	}
	if r.Judgment != nil {
		ft, _ := models.ParseForeclosureType(r.Judgment.Type)
		lp, _ := parseDate(r.Judgment.LisPendensDate)
		j := &models.ForeclosureJudgment{
			CaseID:          r.CaseID,
			Type:            ft,
			LisPendensDate:  lp,
			ForeclosingID:   r.Judgment.ForeclosingID,
			ForeclosingBook: r.Judgment.ForeclosingBook,
		}
		if r.Judgment.SaleDate != "" {
			j.SaleDate, _ = parseDate(r.Judgment.SaleDate)
		}
		in.Judgment = j
	}
	return in
}

// parseDate accepts bare dates and full RFC 3339 timestamps; county feeds
// send both.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
