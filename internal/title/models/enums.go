package models

import (
	dErrors "titlechain/pkg/domain-errors"
)

// DocType is the normalized document-type code for a recorded instrument.
// The ingestion collaborator translates raw county type strings into this
// closed set before records reach the analysis core.
//
// Usage: construct via ParseDocType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type DocType string

const (
	// Deed-class instruments (transfer of title).
	DocWarrantyDeed        DocType = "warranty_deed"
	DocQuitclaimDeed       DocType = "quitclaim_deed"
	DocSpecialWarrantyDeed DocType = "special_warranty_deed"
	DocCertificateOfTitle  DocType = "certificate_of_title"
	DocTaxDeed             DocType = "tax_deed"
	DocAgreementForDeed    DocType = "agreement_for_deed"
	DocProbateOrder        DocType = "probate_order"

	// Mortgage-class instruments.
	DocMortgage           DocType = "mortgage"
	DocMortgageAssignment DocType = "mortgage_assignment"
	DocLoanModification   DocType = "loan_modification"

	// Possession evidence.
	DocNoticeOfCommencement DocType = "notice_of_commencement"

	// Lien-class instruments.
	DocLisPendens           DocType = "lis_pendens"
	DocHOALien              DocType = "hoa_lien"
	DocMechanicsLien        DocType = "mechanics_lien"
	DocCodeEnforcementLien  DocType = "code_enforcement_lien"
	DocMunicipalUtilityLien DocType = "municipal_utility_lien"
	DocTaxLien              DocType = "tax_lien"
	DocPACEAssessment       DocType = "pace_assessment"
	DocJudgmentLien         DocType = "judgment_lien"
	DocFederalTaxLien       DocType = "federal_tax_lien"

	// Release-class instruments.
	DocSatisfaction        DocType = "satisfaction"
	DocRelease             DocType = "release"
	DocPartialRelease      DocType = "partial_release"
	DocReleaseOfLisPendens DocType = "release_of_lis_pendens"

	// Everything the county records that the analysis does not interpret.
	DocOther DocType = "other"
)

// validDocTypes is the single source of truth for supported document types.
var validDocTypes = map[DocType]bool{
	DocWarrantyDeed:         true,
	DocQuitclaimDeed:        true,
	DocSpecialWarrantyDeed:  true,
	DocCertificateOfTitle:   true,
	DocTaxDeed:              true,
	DocAgreementForDeed:     true,
	DocProbateOrder:         true,
	DocMortgage:             true,
	DocMortgageAssignment:   true,
	DocLoanModification:     true,
	DocNoticeOfCommencement: true,
	DocLisPendens:           true,
	DocHOALien:              true,
	DocMechanicsLien:        true,
	DocCodeEnforcementLien:  true,
	DocMunicipalUtilityLien: true,
	DocTaxLien:              true,
	DocPACEAssessment:       true,
	DocJudgmentLien:         true,
	DocFederalTaxLien:       true,
	DocSatisfaction:         true,
	DocRelease:              true,
	DocPartialRelease:       true,
	DocReleaseOfLisPendens:  true,
	DocOther:                true,
}

// ParseDocType constructs a DocType from external input.
//
// Errors: returns CodeValidation when the value is empty or unsupported.
func ParseDocType(s string) (DocType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "document type cannot be empty")
	}
	d := DocType(s)
	if !d.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unsupported document type %q", s)
	}
	return d, nil
}

// IsValid checks if the document type is one of the supported enum values.
func (d DocType) IsValid() bool {
	return validDocTypes[d]
}

func (d DocType) String() string {
	return string(d)
}

// EncumbranceType categorizes an open claim against the property.
type EncumbranceType string

const (
	EncMortgage             EncumbranceType = "mortgage"
	EncLien                 EncumbranceType = "lien"
	EncJudgment             EncumbranceType = "judgment"
	EncLisPendens           EncumbranceType = "lis_pendens"
	EncTaxLien              EncumbranceType = "tax_lien"
	EncPACE                 EncumbranceType = "pace"
	EncMunicipalUtilityLien EncumbranceType = "municipal_utility_lien"
	EncOther                EncumbranceType = "other"
)

var validEncumbranceTypes = map[EncumbranceType]bool{
	EncMortgage:             true,
	EncLien:                 true,
	EncJudgment:             true,
	EncLisPendens:           true,
	EncTaxLien:              true,
	EncPACE:                 true,
	EncMunicipalUtilityLien: true,
	EncOther:                true,
}

// ParseEncumbranceType constructs an EncumbranceType from external input.
func ParseEncumbranceType(s string) (EncumbranceType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "encumbrance type cannot be empty")
	}
	e := EncumbranceType(s)
	if !e.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unsupported encumbrance type %q", s)
	}
	return e, nil
}

func (e EncumbranceType) IsValid() bool {
	return validEncumbranceTypes[e]
}

func (e EncumbranceType) String() string {
	return string(e)
}

// SurvivalStatus is the final legal disposition of an encumbrance after the
// foreclosure sale. Every encumbrance leaving the analyzer carries exactly
// one of these; there is no unset state.
type SurvivalStatus string

const (
	SurvivalSatisfied                   SurvivalStatus = "satisfied"
	SurvivalForeclosing                 SurvivalStatus = "foreclosing"
	SurvivalSurvived                    SurvivalStatus = "survived"
	SurvivalExpired                     SurvivalStatus = "expired"
	SurvivalExtinguishedRedemptionRight SurvivalStatus = "extinguished_redemption_right"
	SurvivalExtinguished                SurvivalStatus = "extinguished"
	SurvivalHistorical                  SurvivalStatus = "historical"
	SurvivalUncertain                   SurvivalStatus = "uncertain"
)

var validSurvivalStatuses = map[SurvivalStatus]bool{
	SurvivalSatisfied:                   true,
	SurvivalForeclosing:                 true,
	SurvivalSurvived:                    true,
	SurvivalExpired:                     true,
	SurvivalExtinguishedRedemptionRight: true,
	SurvivalExtinguished:                true,
	SurvivalHistorical:                  true,
	SurvivalUncertain:                   true,
}

func (s SurvivalStatus) IsValid() bool {
	return validSurvivalStatuses[s]
}

func (s SurvivalStatus) String() string {
	return string(s)
}

// ForeclosureType identifies which kind of foreclosure action produced the
// judgment. The survival decision table branches on it.
type ForeclosureType string

const (
	ForeclosureMortgage ForeclosureType = "mortgage"
	ForeclosureHOA      ForeclosureType = "hoa"
	ForeclosureTaxDeed  ForeclosureType = "tax_deed"
)

var validForeclosureTypes = map[ForeclosureType]bool{
	ForeclosureMortgage: true,
	ForeclosureHOA:      true,
	ForeclosureTaxDeed:  true,
}

// ParseForeclosureType constructs a ForeclosureType from external input.
func ParseForeclosureType(s string) (ForeclosureType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "foreclosure type cannot be empty")
	}
	f := ForeclosureType(s)
	if !f.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unsupported foreclosure type %q", s)
	}
	return f, nil
}

func (f ForeclosureType) IsValid() bool {
	return validForeclosureTypes[f]
}

func (f ForeclosureType) String() string {
	return string(f)
}

// LinkStatus describes how an ownership period connects to its predecessor.
type LinkStatus string

const (
	LinkVerified LinkStatus = "verified"
	LinkFuzzy    LinkStatus = "fuzzy"
	LinkImplied  LinkStatus = "implied"
	LinkBroken   LinkStatus = "broken"
)

func (l LinkStatus) IsValid() bool {
	switch l {
	case LinkVerified, LinkFuzzy, LinkImplied, LinkBroken:
		return true
	}
	return false
}

func (l LinkStatus) String() string {
	return string(l)
}

// ChainFlag marks a chain-level condition the reporting collaborator must
// surface. Flags degrade confidence; they never abort a run.
type ChainFlag string

const (
	FlagBrokenChain         ChainFlag = "broken_chain"
	FlagInferredNoDeeds     ChainFlag = "inferred_no_deeds"
	FlagInsufficientHistory ChainFlag = "insufficient_history"
	FlagCheckPartial        ChainFlag = "check_partial"
)
