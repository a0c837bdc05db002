// Package survival assigns the final legal disposition to every encumbrance
// on a foreclosed property. The rules form an ordered decision table: the
// first matching rule wins, and the fall-through disposition is Uncertain
// rather than a silent Survived or Extinguished for lack of data.
//
// The analyzer is a pure function over the finished chain, the
// post-satisfaction encumbrance set, and the judgment record. Re-running it
// on identical inputs yields identical output.
package survival

import (
	"fmt"
	"time"

	"titlechain/internal/title/chain"
	"titlechain/internal/title/models"
)

// Policy holds the statutory knobs the decision table reads. Jurisdictions
// differ on these; the defaults encode the Florida-style rules the pipeline
// was built against.
type Policy struct {
	// JudgmentLienYears is the initial life of a recorded judgment lien.
	JudgmentLienYears int

	// JudgmentLienMaxYears is the extended life after a re-recording.
	JudgmentLienMaxYears int

	// FederalRedemptionDays is the statutory window during which a federal
	// creditor may redeem after its lien is extinguished by the sale.
	FederalRedemptionDays int

	// SafeHarborMonths and SafeHarborFraction bound a first mortgagee's
	// liability for association assessments after an HOA foreclosure: the
	// lesser of this many months of assessments or this fraction of the
	// original mortgage debt.
	SafeHarborMonths   int
	SafeHarborFraction float64

	// RunsWithLand marks encumbrance subclasses that follow the parcel
	// through ownership changes, so predating the current owner's
	// acquisition does not make them historical. The exact seniority
	// boundary for code-enforcement liens is unsettled; keep this a policy
	// table and have a domain expert review changes rather than hard-coding
	// a cutover.
	RunsWithLand map[models.DocType]bool
}

// DefaultPolicy returns the statutory defaults.
func DefaultPolicy() Policy {
	return Policy{
		JudgmentLienYears:     10,
		JudgmentLienMaxYears:  20,
		FederalRedemptionDays: 120,
		SafeHarborMonths:      12,
		SafeHarborFraction:    0.01,
		RunsWithLand: map[models.DocType]bool{
			models.DocCodeEnforcementLien:  true,
			models.DocMunicipalUtilityLien: true,
		},
	}
}

// Analyzer applies the decision table. now is injected so statutory-age
// rules are reproducible in tests.
type Analyzer struct {
	policy Policy
	now    time.Time
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(policy Policy, now time.Time) *Analyzer {
	return &Analyzer{policy: policy, now: now}
}

// Analyze returns a copy of encs with survival fields populated. Every
// returned encumbrance carries exactly one status from the closed set. The
// judgment may be nil (research ordered before a judgment exists); chain
// position then decides between Historical and Uncertain.
func (a *Analyzer) Analyze(ch chain.Chain, encs []models.Encumbrance, judgment *models.ForeclosureJudgment) []models.Encumbrance {
	out := make([]models.Encumbrance, len(encs))
	copy(out, encs)

	firstMortgageID := earliestOpenMortgage(out)

	for i := range out {
		status, reason := a.evaluate(ch, out[i], judgment, firstMortgageID)
		out[i].SurvivalStatus = status
		out[i].SurvivalReason = reason
	}
	return out
}

func (a *Analyzer) evaluate(ch chain.Chain, e models.Encumbrance, judgment *models.ForeclosureJudgment, firstMortgageID string) (models.SurvivalStatus, string) {
	// Rule 1: a satisfied encumbrance is closed regardless of the sale.
	if e.Satisfied {
		return models.SurvivalSatisfied, fmt.Sprintf("satisfied by instrument %s", e.SatisfactionInstrumentID)
	}

	// Rule 2: the lien being foreclosed is its own category.
	if judgment != nil && judgment.CitesEncumbrance(e) {
		return models.SurvivalForeclosing, "cited by the judgment as the foreclosing lien"
	}

	// Rule 3: superpriority liens survive every sale type.
	switch e.Type {
	case models.EncTaxLien, models.EncPACE, models.EncMunicipalUtilityLien:
		return models.SurvivalSurvived, "superpriority lien survives foreclosure"
	case models.EncMortgage, models.EncLien, models.EncJudgment, models.EncLisPendens, models.EncOther:
		// fall through to the remaining rules
	}

	// A prior tax deed wiped private liens recorded before it; they cannot
	// ride through into the current analysis.
	for _, reset := range ch.HardResetDates {
		if e.RecordingDate.Before(reset) {
			return models.SurvivalExtinguished,
				fmt.Sprintf("extinguished by tax deed recorded %s", reset.Format("2006-01-02"))
		}
	}

	// Rule 4: a judgment lien past its statutory life is dead on its own.
	if e.Type == models.EncJudgment && a.judgmentLienExpired(e) {
		return models.SurvivalExpired, fmt.Sprintf("judgment lien exceeded its %d-year statutory life", a.lienLifeYears(e))
	}

	// Rules 5-8: outcome under the judgment type, with the federal
	// redemption overlay.
	if judgment != nil {
		status, reason := a.underJudgment(e, *judgment, firstMortgageID)
		if status == models.SurvivalExtinguished && e.FederalCreditor {
			// Rule 5: federal liens are extinguished but keep a statutory
			// redemption window.
			return models.SurvivalExtinguishedRedemptionRight,
				fmt.Sprintf("extinguished subject to a %d-day federal redemption window", a.policy.FederalRedemptionDays)
		}
		return status, reason
	}

	// Rule 9: with no judgment to apply, an encumbrance predating the
	// current owner's acquisition is historical unless its subclass runs
	// with the land.
	if cur, ok := currentPeriod(ch); ok {
		if e.RecordingDate.Before(cur.Start) && !a.policy.RunsWithLand[e.DocType] {
			return models.SurvivalHistorical, "predates the current owner's acquisition"
		}
	}

	// Rule 10: no rule matched; surface the uncertainty.
	return models.SurvivalUncertain, "no decisive rule; flagged for review"
}

// underJudgment applies rules 6-8, the per-foreclosure-type outcomes.
// Exhaustive over ForeclosureType.
func (a *Analyzer) underJudgment(e models.Encumbrance, j models.ForeclosureJudgment, firstMortgageID string) (models.SurvivalStatus, string) {
	switch j.Type {
	case models.ForeclosureTaxDeed:
		// Rule 6: a tax deed sale clears every remaining private claim.
		return models.SurvivalExtinguished, "extinguished by tax deed sale"

	case models.ForeclosureHOA:
		// Rule 7: an association foreclosure cannot cut off the senior
		// first mortgage; everything else goes.
		if e.Type == models.EncMortgage && e.InstrumentID == firstMortgageID {
			return models.SurvivalSurvived, a.safeHarborReason(e)
		}
		return models.SurvivalExtinguished, "junior to the foreclosing association lien"

	case models.ForeclosureMortgage:
		// Rule 8: the lis pendens date is the priority cutoff.
		if e.RecordingDate.Before(j.LisPendensDate) {
			return models.SurvivalSurvived, "recorded before the lis pendens"
		}
		return models.SurvivalExtinguished, "recorded on or after the lis pendens"
	}

	return models.SurvivalUncertain, fmt.Sprintf("unrecognized foreclosure type %q", j.Type)
}

func (a *Analyzer) safeHarborReason(e models.Encumbrance) string {
	if e.Amount != nil {
		limit := *e.Amount * a.policy.SafeHarborFraction
		return fmt.Sprintf("first mortgage survives HOA foreclosure; assessment liability capped at the lesser of %d months of assessments or %.2f",
			a.policy.SafeHarborMonths, limit)
	}
	return fmt.Sprintf("first mortgage survives HOA foreclosure; assessment liability capped by the %d-month statutory safe harbor",
		a.policy.SafeHarborMonths)
}

func (a *Analyzer) judgmentLienExpired(e models.Encumbrance) bool {
	expiry := e.RecordingDate.AddDate(a.lienLifeYears(e), 0, 0)
	return a.now.After(expiry)
}

func (a *Analyzer) lienLifeYears(e models.Encumbrance) int {
	if e.ReRecordedDate != nil {
		return a.policy.JudgmentLienMaxYears
	}
	return a.policy.JudgmentLienYears
}

// earliestOpenMortgage finds the instrument id of the earliest-recorded
// unsatisfied mortgage, the one HOA foreclosure cannot extinguish.
func earliestOpenMortgage(encs []models.Encumbrance) string {
	best := ""
	var bestDate time.Time
	for _, e := range encs {
		if e.Type != models.EncMortgage || e.Satisfied {
			continue
		}
		if best == "" || e.RecordingDate.Before(bestDate) {
			best, bestDate = e.InstrumentID, e.RecordingDate
		}
	}
	return best
}

func currentPeriod(ch chain.Chain) (models.OwnershipPeriod, bool) {
	if len(ch.Periods) == 0 {
		return models.OwnershipPeriod{}, false
	}
	return ch.Periods[len(ch.Periods)-1], true
}
