package survival

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titlechain/internal/title/chain"
	"titlechain/internal/title/models"
	"titlechain/pkg/testutil"
)

var testNow = testutil.Date(2026, time.January, 1)

func newAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultPolicy(), testNow)
}

func enc(id string, t models.EncumbranceType, doc models.DocType, date time.Time) models.Encumbrance {
	return models.Encumbrance{
		InstrumentID:  id,
		Type:          t,
		DocType:       doc,
		RecordingDate: date,
	}
}

func statusOf(t *testing.T, encs []models.Encumbrance, id string) models.Encumbrance {
	t.Helper()
	for _, e := range encs {
		if e.InstrumentID == id {
			return e
		}
	}
	t.Fatalf("no encumbrance %q in result", id)
	return models.Encumbrance{}
}

func TestHOAForeclosure(t *testing.T) {
	// An association foreclosure extinguishes everything junior to its lien
	// but cannot cut off the first mortgage.
	amount := 200000.0
	first := enc("m1", models.EncMortgage, models.DocMortgage, testutil.Date(2010, time.March, 1))
	first.Amount = &amount
	second := enc("m2", models.EncMortgage, models.DocMortgage, testutil.Date(2015, time.June, 1))
	hoa := enc("h1", models.EncLien, models.DocHOALien, testutil.Date(2022, time.February, 1))

	judgment := &models.ForeclosureJudgment{
		CaseID:         "2023-CA-001",
		Type:           models.ForeclosureHOA,
		LisPendensDate: testutil.Date(2023, time.January, 10),
		ForeclosingID:  "h1",
	}

	out := newAnalyzer().Analyze(chain.Chain{}, []models.Encumbrance{first, second, hoa}, judgment)

	m1 := statusOf(t, out, "m1")
	assert.Equal(t, models.SurvivalSurvived, m1.SurvivalStatus)
	assert.Contains(t, m1.SurvivalReason, "capped at the lesser of 12 months")

	assert.Equal(t, models.SurvivalExtinguished, statusOf(t, out, "m2").SurvivalStatus)
	assert.Equal(t, models.SurvivalForeclosing, statusOf(t, out, "h1").SurvivalStatus)
}

func TestHOAForeclosureSatisfiedFirstMortgage(t *testing.T) {
	// With the first mortgage satisfied, the next open mortgage takes the
	// senior position and survives instead.
	first := enc("m1", models.EncMortgage, models.DocMortgage, testutil.Date(2010, time.March, 1))
	first.Satisfied = true
	first.SatisfactionInstrumentID = "s1"
	second := enc("m2", models.EncMortgage, models.DocMortgage, testutil.Date(2015, time.June, 1))

	judgment := &models.ForeclosureJudgment{
		Type:           models.ForeclosureHOA,
		LisPendensDate: testutil.Date(2023, time.January, 10),
		ForeclosingID:  "h1",
	}

	out := newAnalyzer().Analyze(chain.Chain{}, []models.Encumbrance{first, second}, judgment)

	assert.Equal(t, models.SurvivalSatisfied, statusOf(t, out, "m1").SurvivalStatus)
	assert.Equal(t, models.SurvivalSurvived, statusOf(t, out, "m2").SurvivalStatus)
}

func TestTaxDeedForeclosure(t *testing.T) {
	// Tax deed sale: private claims extinguished, federal creditors keep a
	// redemption window, superpriority municipal liens survive.
	mort := enc("m1", models.EncMortgage, models.DocMortgage, testutil.Date(2012, time.April, 1))
	irs := enc("f1", models.EncLien, models.DocFederalTaxLien, testutil.Date(2018, time.September, 1))
	irs.FederalCreditor = true
	utility := enc("u1", models.EncMunicipalUtilityLien, models.DocMunicipalUtilityLien, testutil.Date(2020, time.May, 1))

	judgment := &models.ForeclosureJudgment{
		Type:           models.ForeclosureTaxDeed,
		LisPendensDate: testutil.Date(2024, time.March, 1),
		SaleDate:       testutil.Date(2024, time.August, 1),
	}

	out := newAnalyzer().Analyze(chain.Chain{}, []models.Encumbrance{mort, irs, utility}, judgment)

	assert.Equal(t, models.SurvivalExtinguished, statusOf(t, out, "m1").SurvivalStatus)

	f1 := statusOf(t, out, "f1")
	assert.Equal(t, models.SurvivalExtinguishedRedemptionRight, f1.SurvivalStatus)
	assert.Contains(t, f1.SurvivalReason, "120-day")

	assert.Equal(t, models.SurvivalSurvived, statusOf(t, out, "u1").SurvivalStatus)
}

func TestMortgageForeclosureLisPendensCutoff(t *testing.T) {
	lp := testutil.Date(2023, time.June, 15)
	before := enc("m1", models.EncMortgage, models.DocMortgage, testutil.Date(2023, time.June, 14))
	onDate := enc("j1", models.EncLien, models.DocHOALien, lp)
	after := enc("j2", models.EncLien, models.DocMechanicsLien, testutil.Date(2023, time.July, 1))

	judgment := &models.ForeclosureJudgment{
		Type:           models.ForeclosureMortgage,
		LisPendensDate: lp,
		ForeclosingID:  "m0",
	}

	out := newAnalyzer().Analyze(chain.Chain{}, []models.Encumbrance{before, onDate, after}, judgment)

	assert.Equal(t, models.SurvivalSurvived, statusOf(t, out, "m1").SurvivalStatus)
	assert.Equal(t, models.SurvivalExtinguished, statusOf(t, out, "j1").SurvivalStatus,
		"recorded on the lis pendens date is not before it")
	assert.Equal(t, models.SurvivalExtinguished, statusOf(t, out, "j2").SurvivalStatus)
}

func TestExpiredJudgmentLien(t *testing.T) {
	// An eleven-year-old judgment lien is past its ten-year life and dies on
	// its own terms, before the lis pendens comparison ever runs.
	stale := enc("j1", models.EncJudgment, models.DocJudgmentLien, testutil.Date(2014, time.October, 1))

	rerecorded := enc("j2", models.EncJudgment, models.DocJudgmentLien, testutil.Date(2014, time.October, 1))
	rr := testutil.Date(2023, time.October, 1)
	rerecorded.ReRecordedDate = &rr

	judgment := &models.ForeclosureJudgment{
		Type:           models.ForeclosureMortgage,
		LisPendensDate: testutil.Date(2025, time.February, 1),
	}

	out := newAnalyzer().Analyze(chain.Chain{}, []models.Encumbrance{stale, rerecorded}, judgment)

	j1 := statusOf(t, out, "j1")
	assert.Equal(t, models.SurvivalExpired, j1.SurvivalStatus)
	assert.Contains(t, j1.SurvivalReason, "10-year")

	// Re-recording extends the life to twenty years; the ordinary lis
	// pendens rule applies instead.
	assert.Equal(t, models.SurvivalSurvived, statusOf(t, out, "j2").SurvivalStatus)
}

func TestPriorTaxDeedWipesEarlierPrivateLiens(t *testing.T) {
	reset := testutil.Date(2016, time.July, 1)
	ch := chain.Chain{HardResetDates: []time.Time{reset}}

	old := enc("m1", models.EncMortgage, models.DocMortgage, testutil.Date(2014, time.January, 1))
	newer := enc("m2", models.EncMortgage, models.DocMortgage, testutil.Date(2018, time.January, 1))

	judgment := &models.ForeclosureJudgment{
		Type:           models.ForeclosureMortgage,
		LisPendensDate: testutil.Date(2025, time.January, 1),
	}

	out := newAnalyzer().Analyze(ch, []models.Encumbrance{old, newer}, judgment)

	m1 := statusOf(t, out, "m1")
	assert.Equal(t, models.SurvivalExtinguished, m1.SurvivalStatus)
	assert.Contains(t, m1.SurvivalReason, "2016-07-01")

	assert.Equal(t, models.SurvivalSurvived, statusOf(t, out, "m2").SurvivalStatus)
}

func TestNoJudgment(t *testing.T) {
	ch := chain.Chain{Periods: []models.OwnershipPeriod{
		{Owner: []string{"CARTER DANA"}, Start: testutil.Date(2019, time.March, 1)},
	}}

	predating := enc("m1", models.EncMortgage, models.DocMortgage, testutil.Date(2015, time.January, 1))
	current := enc("m2", models.EncMortgage, models.DocMortgage, testutil.Date(2020, time.January, 1))
	code := enc("c1", models.EncLien, models.DocCodeEnforcementLien, testutil.Date(2015, time.June, 1))

	out := newAnalyzer().Analyze(ch, []models.Encumbrance{predating, current, code}, nil)

	assert.Equal(t, models.SurvivalHistorical, statusOf(t, out, "m1").SurvivalStatus)
	assert.Equal(t, models.SurvivalUncertain, statusOf(t, out, "m2").SurvivalStatus)
	assert.Equal(t, models.SurvivalUncertain, statusOf(t, out, "c1").SurvivalStatus,
		"code-enforcement liens run with the land and are never merely historical")
}

func TestForeclosingByBookPage(t *testing.T) {
	lien := enc("h1", models.EncLien, models.DocHOALien, testutil.Date(2022, time.February, 1))
	lien.BookPage = "OR 4412/0198"

	judgment := &models.ForeclosureJudgment{
		Type:            models.ForeclosureHOA,
		LisPendensDate:  testutil.Date(2023, time.January, 10),
		ForeclosingBook: "OR 4412/0198",
	}

	out := newAnalyzer().Analyze(chain.Chain{}, []models.Encumbrance{lien}, judgment)
	assert.Equal(t, models.SurvivalForeclosing, statusOf(t, out, "h1").SurvivalStatus)
}

func TestEveryEncumbranceGetsAStatus(t *testing.T) {
	encs := []models.Encumbrance{
		enc("a", models.EncMortgage, models.DocMortgage, testutil.Date(2010, time.January, 1)),
		enc("b", models.EncLien, models.DocMechanicsLien, testutil.Date(2018, time.January, 1)),
		enc("c", models.EncJudgment, models.DocJudgmentLien, testutil.Date(2024, time.January, 1)),
		enc("d", models.EncTaxLien, models.DocTaxLien, testutil.Date(2025, time.January, 1)),
		enc("e", models.EncOther, models.DocOther, testutil.Date(2025, time.June, 1)),
	}

	for _, judgment := range []*models.ForeclosureJudgment{
		nil,
		{Type: models.ForeclosureMortgage, LisPendensDate: testutil.Date(2024, time.June, 1)},
		{Type: models.ForeclosureHOA, LisPendensDate: testutil.Date(2024, time.June, 1)},
		{Type: models.ForeclosureTaxDeed, LisPendensDate: testutil.Date(2024, time.June, 1)},
	} {
		out := newAnalyzer().Analyze(chain.Chain{}, encs, judgment)
		for _, e := range out {
			assert.NotEmpty(t, e.SurvivalStatus, "encumbrance %s under %+v", e.InstrumentID, judgment)
			assert.NotEmpty(t, e.SurvivalReason, "encumbrance %s under %+v", e.InstrumentID, judgment)
		}
	}
}

func TestAnalyzeIsIdempotentAndPure(t *testing.T) {
	encs := []models.Encumbrance{
		enc("m1", models.EncMortgage, models.DocMortgage, testutil.Date(2012, time.April, 1)),
		enc("h1", models.EncLien, models.DocHOALien, testutil.Date(2022, time.February, 1)),
	}
	judgment := &models.ForeclosureJudgment{
		Type:           models.ForeclosureMortgage,
		LisPendensDate: testutil.Date(2023, time.June, 1),
		ForeclosingID:  "m1",
	}

	a := newAnalyzer()
	first := a.Analyze(chain.Chain{}, encs, judgment)
	second := a.Analyze(chain.Chain{}, first, judgment)

	require.Equal(t, first, second)

	// Inputs untouched.
	assert.Empty(t, encs[0].SurvivalStatus)
	assert.Empty(t, encs[1].SurvivalStatus)
}
