// Package satisfaction pairs release-like instruments with the open
// encumbrances they discharge. Matching is greedy, one release to one
// encumbrance, highest score first, with a review threshold below which a
// release is left unmatched rather than guessed.
package satisfaction

import (
	"sort"
	"strings"

	"titlechain/internal/title/docclass"
	"titlechain/internal/title/models"
	"titlechain/internal/title/namematch"
)

// autoMatchThreshold is the minimum name-match score for an automatic
// satisfaction. Releases scoring below it queue for manual review; that is a
// finding, not an error.
const autoMatchThreshold = 0.80

// releaseCompat maps a release instrument type to the encumbrance types it
// can discharge.
var releaseCompat = map[models.DocType][]models.EncumbranceType{
	models.DocSatisfaction:        {models.EncMortgage},
	models.DocRelease:             {models.EncMortgage},
	models.DocPartialRelease:      {models.EncMortgage},
	models.DocReleaseOfLisPendens: {models.EncLisPendens},
}

// Outcome carries the updated encumbrance set and the review queue. The
// input slice is never mutated.
type Outcome struct {
	Encumbrances []models.Encumbrance
	Unmatched    []models.UnmatchedRelease

	// CheckPartial is set when a partial release covered a different lot of
	// a blanket mortgage; the mortgage stays open.
	CheckPartial bool
}

// Match applies every release-like instrument to the open encumbrances.
// parcelLegal is the target parcel's legal description, used to decide
// whether a partial release covers this property. Deterministic: releases
// are processed in recording order, candidates tie-break on earliest
// encumbrance recording date.
func Match(releases []docclass.Classification, encs []models.Encumbrance, names *namematch.Matcher, parcelLegal string) Outcome {
	out := Outcome{Encumbrances: make([]models.Encumbrance, len(encs))}
	copy(out.Encumbrances, encs)

	ordered := make([]docclass.Classification, len(releases))
	copy(ordered, releases)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := ordered[i].Record.RecordingDate, ordered[j].Record.RecordingDate
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return ordered[i].Record.ID < ordered[j].Record.ID
	})

	for _, r := range ordered {
		applyRelease(&out, r.Record, names, parcelLegal)
	}
	return out
}

func applyRelease(out *Outcome, rel models.InstrumentRecord, names *namematch.Matcher, parcelLegal string) {
	compat, ok := releaseCompat[rel.DocType]
	if !ok {
		return
	}

	best, bestScore := -1, 0.0
	for i := range out.Encumbrances {
		e := &out.Encumbrances[i]
		if e.Satisfied || !typeCompatible(e.Type, compat) {
			continue
		}
		if rel.RecordingDate.Before(e.RecordingDate) {
			continue
		}

		score := matchScore(e, rel, names)
		if score <= 0 {
			continue
		}
		if best < 0 || score > bestScore ||
			(score == bestScore && e.RecordingDate.Before(out.Encumbrances[best].RecordingDate)) {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore < autoMatchThreshold {
		out.Unmatched = append(out.Unmatched, models.UnmatchedRelease{InstrumentID: rel.ID, BestScore: bestScore})
		return
	}

	e := &out.Encumbrances[best]
	if rel.DocType == models.DocPartialRelease && !legalCovers(rel.LegalDescription, parcelLegal) {
		// Blanket-mortgage partial release for a different lot: the mortgage
		// stays open on this parcel and goes to review.
		e.CheckPartial = true
		out.CheckPartial = true
		return
	}

	date := rel.RecordingDate
	e.Satisfied = true
	e.SatisfactionInstrumentID = rel.ID
	e.SatisfactionDate = &date
}

func typeCompatible(t models.EncumbranceType, compat []models.EncumbranceType) bool {
	for _, c := range compat {
		if t == c {
			return true
		}
	}
	return false
}

// matchScore scores a release against one encumbrance. An explicit recorded
// back-reference is decisive. A release naming the nominee registry matches
// a registry-held mortgage regardless of the beneficiary named at
// origination. Otherwise the release's first party must name-match the
// creditor, including any single name out of a multi-party comma-joined
// creditor, so a release signed by one of several co-lenders still matches.
func matchScore(e *models.Encumbrance, rel models.InstrumentRecord, names *namematch.Matcher) float64 {
	if rel.SatisfiesID != "" {
		if rel.SatisfiesID == e.InstrumentID {
			return 1.0
		}
		return 0
	}

	if e.NomineeRegistry && docclass.NamesNomineeRegistry(rel.PartyOne) {
		return 1.0
	}

	best := 0.0
	for _, subset := range creditorCandidates(e.Creditor) {
		r := names.ClassifyNames(subset, rel.PartyOne)
		if r.Linkable() && r.Score > best {
			best = r.Score
		}
	}
	return best
}

// creditorCandidates expands a creditor list into independent candidate
// name sets: the full set plus each individual name, with comma-joined
// multi-party strings split apart.
func creditorCandidates(creditor []string) [][]string {
	var singles []string
	for _, name := range creditor {
		for _, part := range strings.Split(name, ",") {
			if part = strings.TrimSpace(part); part != "" {
				singles = append(singles, part)
			}
		}
	}

	candidates := [][]string{creditor}
	if len(singles) > 1 {
		for _, s := range singles {
			candidates = append(candidates, []string{s})
		}
	}
	return candidates
}

// legalCovers reports whether a partial release's legal description
// textually covers the target parcel. Comparison is whitespace- and
// case-insensitive containment in either direction. A release with no legal
// description cannot be verified against the parcel and does not cover it.
func legalCovers(releaseLegal, parcelLegal string) bool {
	rl := normalizeLegal(releaseLegal)
	pl := normalizeLegal(parcelLegal)
	if rl == "" || pl == "" {
		return false
	}
	return strings.Contains(rl, pl) || strings.Contains(pl, rl)
}

func normalizeLegal(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}
