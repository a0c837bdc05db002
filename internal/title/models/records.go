// Package models defines the versioned data contract between the title
// analysis core and its two collaborators: the ingestion side (scraping, OCR,
// normalization) that produces InstrumentRecord and ForeclosureJudgment
// values, and the reporting side (dashboard, storage) that consumes
// AnalysisResult values. The core embeds no acquisition, OCR, storage, or
// presentation concerns; this package is the whole surface.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion identifies the shape of AnalysisResult so ingestion-format
// changes and core-logic changes can evolve independently.
const SchemaVersion = "v1"

// InstrumentRecord is one recorded instrument for a property, already
// deduplicated and normalized by the ingestion collaborator. The analysis
// core treats it as immutable input.
type InstrumentRecord struct {
	// ID is the county instrument number, unique per property set.
	ID string `json:"id"`

	DocType       DocType   `json:"doc_type"`
	RecordingDate time.Time `json:"recording_date"`

	// PartyOne holds grantor/debtor names; PartyTwo holds grantee/creditor
	// names, as extracted from the instrument.
	PartyOne []string `json:"party_one"`
	PartyTwo []string `json:"party_two"`

	LegalDescription string `json:"legal_description,omitempty"`

	// Amount is the stated dollar amount, when the instrument carries one.
	Amount *float64 `json:"amount,omitempty"`

	// SatisfiesID back-references the instrument this one satisfies, when the
	// recording includes an explicit cross-reference.
	SatisfiesID string `json:"satisfies_id,omitempty"`

	// BookPage is the recording book/page, used to match the judgment's
	// foreclosing-instrument reference when it cites book/page instead of an
	// instrument number.
	BookPage string `json:"book_page,omitempty"`
}

// ForeclosureJudgment is the extracted judgment record for the case under
// analysis. Read-only input.
type ForeclosureJudgment struct {
	CaseID          string          `json:"case_id"`
	Type            ForeclosureType `json:"type"`
	LisPendensDate  time.Time       `json:"lis_pendens_date"`
	ForeclosingID   string          `json:"foreclosing_instrument_id,omitempty"`
	ForeclosingBook string          `json:"foreclosing_book_page,omitempty"`
	SaleDate        time.Time       `json:"sale_date,omitempty"`
}

// CitesInstrument reports whether the judgment's foreclosing-lien reference
// identifies the given instrument, by instrument number or book/page.
func (j ForeclosureJudgment) CitesInstrument(rec InstrumentRecord) bool {
	if j.ForeclosingID != "" && j.ForeclosingID == rec.ID {
		return true
	}
	return j.ForeclosingBook != "" && j.ForeclosingBook == rec.BookPage
}

// CitesEncumbrance is CitesInstrument against an already-created
// encumbrance.
func (j ForeclosureJudgment) CitesEncumbrance(e Encumbrance) bool {
	if j.ForeclosingID != "" && j.ForeclosingID == e.InstrumentID {
		return true
	}
	return j.ForeclosingBook != "" && j.ForeclosingBook == e.BookPage
}

// OwnershipPeriod is one entry in the reconstructed chain of title. Periods
// are chronologically ordered and non-overlapping; at most one (the last) has
// a nil End, meaning the owner of record today.
type OwnershipPeriod struct {
	ID           uuid.UUID  `json:"id"`
	Owner        []string   `json:"owner"`
	AcquiredFrom []string   `json:"acquired_from,omitempty"`
	Start        time.Time  `json:"start"`
	End          *time.Time `json:"end,omitempty"`

	// SourceInstrumentID is the anchor deed that opened the period, or a
	// descriptive "implied by <doc-type> <id>" source for implied periods.
	SourceInstrumentID string `json:"source_instrument_id"`

	LinkStatus LinkStatus `json:"link_status"`
	Confidence float64    `json:"confidence"`

	// SelfTransferIDs lists deeds recorded inside the period that moved title
	// between the same parties without changing ownership.
	SelfTransferIDs []string `json:"self_transfer_ids,omitempty"`
}

// Contains reports whether a recording date falls inside [Start, End).
func (p OwnershipPeriod) Contains(date time.Time) bool {
	if date.Before(p.Start) {
		return false
	}
	return p.End == nil || date.Before(*p.End)
}

// Encumbrance is an open claim against the property. The classifier creates
// it, the satisfaction matcher may mark it satisfied, and the survival
// analyzer assigns its final disposition.
type Encumbrance struct {
	InstrumentID  string          `json:"instrument_id"`
	Type          EncumbranceType `json:"type"`
	DocType       DocType         `json:"doc_type"`
	Creditor      []string        `json:"creditor"`
	Debtor        []string        `json:"debtor,omitempty"`
	RecordingDate time.Time       `json:"recording_date"`
	Amount        *float64        `json:"amount,omitempty"`

	// BookPage mirrors the source instrument's recording book/page so the
	// judgment's foreclosing-lien citation can be matched either way.
	BookPage string `json:"book_page,omitempty"`

	// ReRecordedDate is set when a judgment lien was re-recorded, extending
	// its statutory life.
	ReRecordedDate *time.Time `json:"re_recorded_date,omitempty"`

	Satisfied                bool       `json:"satisfied"`
	SatisfactionInstrumentID string     `json:"satisfaction_instrument_id,omitempty"`
	SatisfactionDate         *time.Time `json:"satisfaction_date,omitempty"`

	// ChainPeriodID links the encumbrance to the ownership period it was
	// recorded under, when one matches. Liens that run with the land may
	// legitimately predate the current period and carry no link.
	ChainPeriodID *uuid.UUID `json:"chain_period_id,omitempty"`

	SurvivalStatus SurvivalStatus `json:"survival_status,omitempty"`
	SurvivalReason string         `json:"survival_reason,omitempty"`

	// FederalCreditor marks IRS/USA-style creditors whose extinguished liens
	// keep a statutory redemption window.
	FederalCreditor bool `json:"federal_creditor,omitempty"`

	// NomineeRegistry marks a mortgage held by a nominee mortgagee-of-record
	// registry. Releases naming the registry match regardless of the
	// beneficiary named at origination.
	NomineeRegistry bool `json:"nominee_registry,omitempty"`

	// PossiblePreForeclosureSignal is set when an assignment moved the
	// mortgage away from the nominee registry to a specific lender.
	PossiblePreForeclosureSignal bool `json:"possible_pre_foreclosure_signal,omitempty"`

	// AssignedTo records the lender named by the most recent assignment.
	AssignedTo []string `json:"assigned_to,omitempty"`

	// ModificationIDs lists loan modifications attached to this mortgage.
	// Modifications never change the original priority date.
	ModificationIDs []string `json:"modification_ids,omitempty"`

	// CheckPartial flags a partial release that covered a different lot of
	// the same blanket instrument; the encumbrance stays open for review.
	CheckPartial bool `json:"check_partial,omitempty"`
}

// ChainSummary is the chain-level report handed to the reporting
// collaborator alongside the periods themselves.
type ChainSummary struct {
	RootOfTitleDate     *time.Time  `json:"root_of_title_date,omitempty"`
	InsufficientHistory bool        `json:"insufficient_history"`
	InferredNoDeeds     bool        `json:"inferred_no_deeds"`
	CheckPartial        bool        `json:"check_partial"`
	BrokenChainDates    []time.Time `json:"broken_chain_dates,omitempty"`
}

// Flags assembles the chain-level flag list from the summary fields.
func (s ChainSummary) Flags() []ChainFlag {
	var flags []ChainFlag
	if len(s.BrokenChainDates) > 0 {
		flags = append(flags, FlagBrokenChain)
	}
	if s.InferredNoDeeds {
		flags = append(flags, FlagInferredNoDeeds)
	}
	if s.InsufficientHistory {
		flags = append(flags, FlagInsufficientHistory)
	}
	if s.CheckPartial {
		flags = append(flags, FlagCheckPartial)
	}
	return flags
}

// UnmatchedRelease reports a release-like instrument the satisfaction
// matcher could not confidently assign. Queued for manual review, not an
// error.
type UnmatchedRelease struct {
	InstrumentID string  `json:"instrument_id"`
	BestScore    float64 `json:"best_score"`
}

// SkippedInstrument reports a malformed input record that validation set
// aside. The rest of the run proceeds without it.
type SkippedInstrument struct {
	InstrumentID string `json:"instrument_id"`
	Reason       string `json:"reason"`
}

// AnalysisResult is the complete output for one property: the ownership
// timeline, the dispositioned encumbrances, and the chain summary.
type AnalysisResult struct {
	SchemaVersion string    `json:"schema_version"`
	AnalysisID    uuid.UUID `json:"analysis_id"`
	CaseID        string    `json:"case_id"`
	AnalyzedAt    time.Time `json:"analyzed_at"`

	Periods           []OwnershipPeriod   `json:"periods"`
	Encumbrances      []Encumbrance       `json:"encumbrances"`
	Summary           ChainSummary        `json:"summary"`
	UnmatchedReleases []UnmatchedRelease  `json:"unmatched_releases,omitempty"`
	Skipped           []SkippedInstrument `json:"skipped,omitempty"`
}
