// Package docclass maps normalized instruments into the semantic roles the
// chain builder consumes, and creates the encumbrance records the
// satisfaction matcher and survival analyzer operate on.
package docclass

import (
	"strings"

	"titlechain/internal/title/models"
	"titlechain/internal/title/namematch"
)

// Role is the chain-level meaning of an instrument.
type Role string

const (
	// RoleAnchor: the instrument legally transfers title.
	RoleAnchor Role = "anchor"
	// RoleSupport: possession evidence signed by or naming the then-current
	// owner, usable to fill gaps between anchors.
	RoleSupport Role = "support"
	// RoleReleaseLike: satisfies or releases an earlier encumbrance.
	RoleReleaseLike Role = "release_like"
	// RoleIgnored: not usable for chain mechanics. Ignored instruments may
	// still create or annotate encumbrances.
	RoleIgnored Role = "ignored"
)

// Classification is the classifier's verdict for one instrument.
type Classification struct {
	Record models.InstrumentRecord
	Role   Role

	// HardReset: a tax deed anchor. Private liens do not carry forward
	// across it.
	HardReset bool

	// SoftReset: the grantee matches a government-sponsored-enterprise
	// pattern, flagging likely-recent-foreclosure provenance. Chain
	// mechanics are unaffected.
	SoftReset bool
}

var anchorTypes = map[models.DocType]bool{
	models.DocWarrantyDeed:        true,
	models.DocQuitclaimDeed:       true,
	models.DocSpecialWarrantyDeed: true,
	models.DocCertificateOfTitle:  true,
	models.DocTaxDeed:             true,
	models.DocAgreementForDeed:    true,
	models.DocProbateOrder:        true,
}

var supportTypes = map[models.DocType]bool{
	models.DocMortgage:             true,
	models.DocNoticeOfCommencement: true,
	models.DocLisPendens:           true,
	models.DocHOALien:              true,
	models.DocMechanicsLien:        true,
}

var releaseTypes = map[models.DocType]bool{
	models.DocSatisfaction:        true,
	models.DocRelease:             true,
	models.DocPartialRelease:      true,
	models.DocReleaseOfLisPendens: true,
}

// encumbranceTypeFor maps instrument types to the encumbrance category they
// create. Federal tax liens are deliberately ordinary liens with the federal
// flag, not superpriority tax liens: only county property-tax claims get the
// tax-lien category.
var encumbranceTypeFor = map[models.DocType]models.EncumbranceType{
	models.DocMortgage:             models.EncMortgage,
	models.DocLisPendens:           models.EncLisPendens,
	models.DocHOALien:              models.EncLien,
	models.DocMechanicsLien:        models.EncLien,
	models.DocCodeEnforcementLien:  models.EncLien,
	models.DocFederalTaxLien:       models.EncLien,
	models.DocJudgmentLien:         models.EncJudgment,
	models.DocTaxLien:              models.EncTaxLien,
	models.DocPACEAssessment:       models.EncPACE,
	models.DocMunicipalUtilityLien: models.EncMunicipalUtilityLien,
}

// gsePatterns identify government-sponsored-enterprise grantees.
var gsePatterns = []string{
	"FANNIE MAE",
	"FEDERAL NATIONAL MORTGAGE",
	"FNMA",
	"FREDDIE MAC",
	"FEDERAL HOME LOAN MORTGAGE",
	"FHLMC",
	"GINNIE MAE",
	"GNMA",
	"SECRETARY OF HOUSING",
	"SECRETARY OF VETERANS AFFAIRS",
	"HUD",
}

// federalPatterns identify federal-entity creditors whose extinguished liens
// retain a statutory redemption window.
var federalPatterns = []string{
	"UNITED STATES",
	"INTERNAL REVENUE",
	"IRS",
	"DEPARTMENT OF THE TREASURY",
	"SMALL BUSINESS ADMINISTRATION",
	"SBA",
	"DEPARTMENT OF JUSTICE",
}

// nomineePatterns identify a private loan registry acting as nominee
// mortgagee-of-record on behalf of the true lender.
var nomineePatterns = []string{
	"MORTGAGE ELECTRONIC REGISTRATION SYSTEMS",
	"MERS",
}

func matchesAny(names []string, patterns []string) bool {
	for _, name := range names {
		upper := strings.ToUpper(name)
		for _, p := range patterns {
			if strings.Contains(upper, p) {
				return true
			}
		}
	}
	return false
}

// NamesNomineeRegistry reports whether any of the names is the nominee
// mortgage registry. The satisfaction matcher uses it: a release signed by
// the registry discharges a registry-held mortgage no matter which lender
// was named at origination.
func NamesNomineeRegistry(names []string) bool {
	return matchesAny(names, nomineePatterns)
}

// Classify assigns the chain role and orthogonal markers for one instrument.
// Pure and total: every supported DocType maps to exactly one role.
func Classify(rec models.InstrumentRecord) Classification {
	c := Classification{Record: rec, Role: RoleIgnored}

	switch {
	case anchorTypes[rec.DocType]:
		c.Role = RoleAnchor
		c.HardReset = rec.DocType == models.DocTaxDeed
		c.SoftReset = matchesAny(rec.PartyTwo, gsePatterns)
	case supportTypes[rec.DocType]:
		c.Role = RoleSupport
	case releaseTypes[rec.DocType]:
		c.Role = RoleReleaseLike
	}

	return c
}

// Outcome groups a property's instruments by role and carries the
// encumbrance set the later stages mutate copies of.
type Outcome struct {
	Anchors      []Classification
	Supports     []Classification
	Releases     []Classification
	Encumbrances []models.Encumbrance
}

// ClassifyAll classifies every instrument, creates encumbrances for
// encumbrance-class instruments, and attaches assignment and loan-
// modification metadata to the mortgages they reference. Assignments and
// modifications never open or close ownership periods and never create new
// encumbrances.
func ClassifyAll(recs []models.InstrumentRecord, names *namematch.Matcher) Outcome {
	var out Outcome
	var assignments, modifications []models.InstrumentRecord

	for _, rec := range recs {
		c := Classify(rec)
		switch c.Role {
		case RoleAnchor:
			out.Anchors = append(out.Anchors, c)
		case RoleSupport:
			out.Supports = append(out.Supports, c)
		case RoleReleaseLike:
			out.Releases = append(out.Releases, c)
		case RoleIgnored:
			// Encumbrance-only instruments and true noise both land here.
		}

		switch rec.DocType {
		case models.DocMortgageAssignment:
			assignments = append(assignments, rec)
		case models.DocLoanModification:
			modifications = append(modifications, rec)
		default:
			if enc, ok := newEncumbrance(rec); ok {
				out.Encumbrances = append(out.Encumbrances, enc)
			}
		}
	}

	for _, a := range assignments {
		attachAssignment(out.Encumbrances, a, names)
	}
	for _, m := range modifications {
		attachModification(out.Encumbrances, m, names)
	}

	return out
}

func newEncumbrance(rec models.InstrumentRecord) (models.Encumbrance, bool) {
	encType, ok := encumbranceTypeFor[rec.DocType]
	if !ok {
		return models.Encumbrance{}, false
	}
	return models.Encumbrance{
		InstrumentID:    rec.ID,
		Type:            encType,
		DocType:         rec.DocType,
		Creditor:        rec.PartyTwo,
		Debtor:          rec.PartyOne,
		RecordingDate:   rec.RecordingDate,
		Amount:          rec.Amount,
		BookPage:        rec.BookPage,
		FederalCreditor: matchesAny(rec.PartyTwo, federalPatterns),
		NomineeRegistry: matchesAny(rec.PartyTwo, nomineePatterns) || matchesAny(rec.PartyOne, nomineePatterns),
	}, true
}

// attachAssignment records the assignment on the mortgage it transfers. An
// assignment away from the nominee registry to a specific lender is a
// possible pre-foreclosure signal; it never alters ownership periods.
func attachAssignment(encs []models.Encumbrance, rec models.InstrumentRecord, names *namematch.Matcher) {
	idx := findMortgage(encs, rec, names)
	if idx < 0 {
		return
	}
	encs[idx].AssignedTo = rec.PartyTwo
	if encs[idx].NomineeRegistry && !matchesAny(rec.PartyTwo, nomineePatterns) {
		encs[idx].PossiblePreForeclosureSignal = true
	}
}

// attachModification hangs a loan modification off the existing mortgage.
// The mortgage keeps its original recording date, so its priority is
// unchanged.
func attachModification(encs []models.Encumbrance, rec models.InstrumentRecord, names *namematch.Matcher) {
	idx := findMortgage(encs, rec, names)
	if idx < 0 {
		return
	}
	encs[idx].ModificationIDs = append(encs[idx].ModificationIDs, rec.ID)
}

// findMortgage locates the mortgage an assignment or modification refers to:
// by explicit back-reference first, then by creditor name match on mortgages
// recorded on or before the referring instrument. Ties break to the earliest
// recording date.
func findMortgage(encs []models.Encumbrance, rec models.InstrumentRecord, names *namematch.Matcher) int {
	if rec.SatisfiesID != "" {
		for i := range encs {
			if encs[i].Type == models.EncMortgage && encs[i].InstrumentID == rec.SatisfiesID {
				return i
			}
		}
	}

	best := -1
	for i := range encs {
		if encs[i].Type != models.EncMortgage || encs[i].RecordingDate.After(rec.RecordingDate) {
			continue
		}
		// The registry's own name matches any of its mortgages; otherwise the
		// assignor must name-match the mortgage creditor.
		linked := encs[i].NomineeRegistry && matchesAny(rec.PartyOne, nomineePatterns)
		if !linked {
			linked = names.ClassifyNames(encs[i].Creditor, rec.PartyOne).Linkable()
		}
		if !linked {
			continue
		}
		if best < 0 || encs[i].RecordingDate.Before(encs[best].RecordingDate) {
			best = i
		}
	}
	return best
}
