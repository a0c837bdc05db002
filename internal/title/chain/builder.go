// Package chain reconstructs the ownership history of a property from its
// classified instruments. The builder follows an "anchor and fill" strategy:
// deed-class anchors open and close ownership periods, and support documents
// (mortgages, notices of commencement, liens signed by the then-owner) fill
// gaps the recorded deeds leave behind.
//
// The builder never fails on malformed or incomplete input. Unlinkable
// transitions degrade to implied periods or broken links with explicit
// flags, and the whole build is a pure function of its inputs: same
// instruments in, byte-identical chain out.
package chain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"titlechain/internal/title/docclass"
	"titlechain/internal/title/models"
	"titlechain/internal/title/namematch"
)

// rootOfTitleAge is the statutory marketable-record-title horizon: the first
// period at least this old roots the chain and cures older defects.
const rootOfTitleAge = 30 * 365 * 24 * time.Hour

// Link confidence by strategy.
const (
	confidenceVerified = 1.0
	confidencePartial  = 0.9 // party added or removed across the transfer
	confidenceImplied  = 0.5
	confidenceBroken   = 0.2
)

// supportPriority breaks ties between equally plausible implied-owner
// candidates: a mortgage is stronger possession evidence than a notice of
// commencement, which beats a lien.
var supportPriority = map[models.DocType]int{
	models.DocMortgage:             3,
	models.DocNoticeOfCommencement: 2,
	models.DocLisPendens:           1,
	models.DocHOALien:              1,
	models.DocMechanicsLien:        1,
}

// Chain is the finished ownership timeline plus chain-level findings.
type Chain struct {
	Periods []models.OwnershipPeriod
	Summary models.ChainSummary

	// HardResetDates are tax-deed anchor recording dates. Private liens do
	// not carry forward across them.
	HardResetDates []time.Time

	// SoftReset notes a GSE grantee somewhere in the chain: likely
	// recent-foreclosure provenance, no mechanical effect.
	SoftReset bool
}

// Builder folds classified instruments into a Chain. It is cheap to build
// and single-use per property; the shared name matcher carries the
// normalization memo for the run.
type Builder struct {
	names *namematch.Matcher
	now   time.Time
}

// NewBuilder constructs a Builder. now anchors the root-of-title scan and is
// injected so tests can pin the present.
func NewBuilder(names *namematch.Matcher, now time.Time) *Builder {
	return &Builder{names: names, now: now}
}

// Build reconstructs the chain from anchors and support documents. Anchors
// are processed in strict recording-date order; each step appends to a fresh
// slice rather than mutating earlier periods in place.
func (b *Builder) Build(anchors, supports []docclass.Classification) Chain {
	anchors = sortByDate(anchors)
	supports = sortByDate(supports)

	if len(anchors) == 0 {
		return b.inferFromSupports(supports)
	}

	var c Chain
	first := anchors[0]
	c.Periods = append(c.Periods, b.openPeriod(first.Record, first.Record.PartyOne, models.LinkVerified, confidenceVerified))
	b.noteResets(&c, first)

	prevAnchorDate := first.Record.RecordingDate
	for _, a := range anchors[1:] {
		rec := a.Record

		if b.isSelfTransfer(rec) {
			cur := &c.Periods[len(c.Periods)-1]
			cur.SelfTransferIDs = append(cur.SelfTransferIDs, rec.ID)
			continue
		}

		b.noteResets(&c, a)

		cur := c.Periods[len(c.Periods)-1]
		link := b.names.ClassifyNames(cur.Owner, rec.PartyOne)
		if link.Linkable() {
			c.Periods = closeCurrent(c.Periods, rec.RecordingDate)
			status, conf := linkStatusFor(link)
			c.Periods = append(c.Periods, b.openPeriod(rec, rec.PartyOne, status, conf))
			prevAnchorDate = rec.RecordingDate
			continue
		}

		// Gap: the anchor's grantor is a stranger to the current owner. Look
		// for possession evidence recorded inside the gap that names the
		// missing intermediate owner.
		c = b.fillGap(c, cur, rec, supports, prevAnchorDate)
		prevAnchorDate = rec.RecordingDate
	}

	c.Summary = b.summarize(c)
	return c
}

// isSelfTransfer reports whether the deed moves title between the same
// parties (trust funding, adding or dropping a spouse). Such deeds annotate
// the current period instead of opening a new one.
func (b *Builder) isSelfTransfer(rec models.InstrumentRecord) bool {
	r := b.names.ClassifyNames(rec.PartyOne, rec.PartyTwo)
	switch r.Class {
	case namematch.Identical, namematch.PartyAdded, namematch.PartyRemoved:
		return true
	case namematch.Fuzzy, namematch.NoMatch:
		return false
	}
	return false
}

// fillGap handles a NoMatch transition into anchor rec. It scans supports
// recorded strictly inside (prevAnchorDate, rec date) for a signer who is
// not the current owner; the best candidate becomes an implied owner
// bridging the gap. With no candidate the transition is tagged broken and
// the new period opens anyway, best-effort.
func (b *Builder) fillGap(c Chain, cur models.OwnershipPeriod, rec models.InstrumentRecord, supports []docclass.Classification, prevAnchorDate time.Time) Chain {
	candidate, ok := b.findImpliedOwner(cur.Owner, rec.PartyOne, supports, prevAnchorDate, rec.RecordingDate)
	if !ok {
		c.Summary.BrokenChainDates = append(c.Summary.BrokenChainDates, rec.RecordingDate)
		c.Periods = closeCurrent(c.Periods, rec.RecordingDate)
		c.Periods = append(c.Periods, b.openPeriod(rec, rec.PartyOne, models.LinkBroken, confidenceBroken))
		return c
	}

	sup := candidate.Record
	c.Summary.BrokenChainDates = append(c.Summary.BrokenChainDates, sup.RecordingDate)
	c.Periods = closeCurrent(c.Periods, sup.RecordingDate)

	end := rec.RecordingDate
	c.Periods = append(c.Periods, models.OwnershipPeriod{
		ID:                 uuid.New(),
		Owner:              sup.PartyOne,
		Start:              sup.RecordingDate,
		End:                &end,
		SourceInstrumentID: fmt.Sprintf("implied by %s %s", sup.DocType, sup.ID),
		LinkStatus:         models.LinkImplied,
		Confidence:         confidenceImplied,
	})

	// Link the implied owner into the incoming anchor the ordinary way.
	link := b.names.ClassifyNames(sup.PartyOne, rec.PartyOne)
	if link.Linkable() {
		status, conf := linkStatusFor(link)
		c.Periods = append(c.Periods, b.openPeriod(rec, rec.PartyOne, status, conf))
		return c
	}

	c.Summary.BrokenChainDates = append(c.Summary.BrokenChainDates, rec.RecordingDate)
	c.Periods = append(c.Periods, b.openPeriod(rec, rec.PartyOne, models.LinkBroken, confidenceBroken))
	return c
}

// findImpliedOwner picks the support document that best evidences a missing
// intermediate owner inside the (after, before) gap. Ties resolve
// deterministically: earliest recording date, then higher name-match score
// against the incoming grantor, then document-type priority. The resolution
// is always tagged low-confidence downstream, never presented as certain.
func (b *Builder) findImpliedOwner(currentOwner, incomingGrantor []string, supports []docclass.Classification, after, before time.Time) (docclass.Classification, bool) {
	type scored struct {
		c     docclass.Classification
		score float64
	}
	var best scored
	found := false

	for _, s := range supports {
		d := s.Record.RecordingDate
		if !d.After(after) || !d.Before(before) {
			continue
		}
		signer := s.Record.PartyOne
		if len(signer) == 0 {
			continue
		}
		// A support signed by the current owner is ordinary activity, not
		// evidence of a missing transfer.
		if b.names.ClassifyNames(signer, currentOwner).Linkable() {
			continue
		}

		cand := scored{c: s, score: b.names.ClassifyNames(signer, incomingGrantor).Score}
		if !found || betterCandidate(cand.c, cand.score, best.c, best.score) {
			best = cand
			found = true
		}
	}
	return best.c, found
}

func betterCandidate(cand docclass.Classification, candScore float64, inc docclass.Classification, incScore float64) bool {
	cd, id := cand.Record.RecordingDate, inc.Record.RecordingDate
	if !cd.Equal(id) {
		return cd.Before(id)
	}
	if candScore != incScore {
		return candScore > incScore
	}
	cp, ip := supportPriority[cand.Record.DocType], supportPriority[inc.Record.DocType]
	if cp != ip {
		return cp > ip
	}
	return cand.Record.ID < inc.Record.ID
}

// inferFromSupports is the degenerate no-deeds mode: group supports by
// signer in date order and build an implied-throughout chain.
func (b *Builder) inferFromSupports(supports []docclass.Classification) Chain {
	var c Chain
	c.Summary.InferredNoDeeds = len(supports) > 0

	for _, s := range supports {
		rec := s.Record
		if len(rec.PartyOne) == 0 {
			continue
		}
		if len(c.Periods) > 0 {
			cur := &c.Periods[len(c.Periods)-1]
			if b.names.ClassifyNames(cur.Owner, rec.PartyOne).Linkable() {
				continue // same possessor, same period
			}
		}
		c.Periods = closeCurrent(c.Periods, rec.RecordingDate)
		c.Periods = append(c.Periods, models.OwnershipPeriod{
			ID:                 uuid.New(),
			Owner:              rec.PartyOne,
			Start:              rec.RecordingDate,
			SourceInstrumentID: fmt.Sprintf("implied by %s %s", rec.DocType, rec.ID),
			LinkStatus:         models.LinkImplied,
			Confidence:         confidenceImplied,
		})
	}

	c.Summary = b.summarize(c)
	return c
}

// summarize runs the root-of-title scan and finalizes chain-level findings.
// Pre-root periods stay in the output; older defects are curable by statute,
// not invisible.
func (b *Builder) summarize(c Chain) models.ChainSummary {
	s := c.Summary
	cutoff := b.now.Add(-rootOfTitleAge)

	for i := len(c.Periods) - 1; i >= 0; i-- {
		if !c.Periods[i].Start.After(cutoff) {
			root := c.Periods[i].Start
			s.RootOfTitleDate = &root
			break
		}
	}
	if s.RootOfTitleDate == nil {
		s.InsufficientHistory = true
	}
	return s
}

func (b *Builder) noteResets(c *Chain, a docclass.Classification) {
	if a.HardReset {
		c.HardResetDates = append(c.HardResetDates, a.Record.RecordingDate)
	}
	if a.SoftReset {
		c.SoftReset = true
	}
}

func (b *Builder) openPeriod(rec models.InstrumentRecord, acquiredFrom []string, status models.LinkStatus, confidence float64) models.OwnershipPeriod {
	return models.OwnershipPeriod{
		ID:                 uuid.New(),
		Owner:              rec.PartyTwo,
		AcquiredFrom:       acquiredFrom,
		Start:              rec.RecordingDate,
		SourceInstrumentID: rec.ID,
		LinkStatus:         status,
		Confidence:         confidence,
	}
}

// closeCurrent returns the period list with the last period closed at date.
// No-op on an empty list.
func closeCurrent(periods []models.OwnershipPeriod, date time.Time) []models.OwnershipPeriod {
	if len(periods) == 0 {
		return periods
	}
	out := make([]models.OwnershipPeriod, len(periods))
	copy(out, periods)
	end := date
	out[len(out)-1].End = &end
	return out
}

func linkStatusFor(r namematch.Result) (models.LinkStatus, float64) {
	switch r.Class {
	case namematch.Identical:
		return models.LinkVerified, confidenceVerified
	case namematch.PartyAdded, namematch.PartyRemoved:
		return models.LinkVerified, confidencePartial
	case namematch.Fuzzy:
		return models.LinkFuzzy, r.Score
	case namematch.NoMatch:
		return models.LinkBroken, confidenceBroken
	}
	return models.LinkBroken, confidenceBroken
}

// AssignPeriods links each encumbrance to the ownership period covering its
// recording date. Encumbrances recorded outside every period (for example a
// lien that predates the reconstructed history) keep a nil period link.
func AssignPeriods(periods []models.OwnershipPeriod, encs []models.Encumbrance) []models.Encumbrance {
	out := make([]models.Encumbrance, len(encs))
	copy(out, encs)
	for i := range out {
		for _, p := range periods {
			if p.Contains(out[i].RecordingDate) {
				id := p.ID
				out[i].ChainPeriodID = &id
				break
			}
		}
	}
	return out
}

func sortByDate(cs []docclass.Classification) []docclass.Classification {
	out := make([]docclass.Classification, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Record.RecordingDate, out[j].Record.RecordingDate
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].Record.ID < out[j].Record.ID
	})
	return out
}
