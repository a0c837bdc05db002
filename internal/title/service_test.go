package title

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"titlechain/internal/title/models"
	"titlechain/internal/title/store"
	dErrors "titlechain/pkg/domain-errors"
	"titlechain/pkg/requestcontext"
	"titlechain/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store *store.InMemoryStore
	svc   *Service
	ctx   context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	svc, err := New(s.store)
	s.Require().NoError(err)
	s.svc = svc
	s.ctx = requestcontext.WithTime(context.Background(), testutil.Date(2026, time.January, 1))
}

func rec(id string, doc models.DocType, date time.Time, partyOne, partyTwo []string) models.InstrumentRecord {
	return models.InstrumentRecord{
		ID:            id,
		DocType:       doc,
		RecordingDate: date,
		PartyOne:      partyOne,
		PartyTwo:      partyTwo,
	}
}

func (s *ServiceSuite) findEnc(result models.AnalysisResult, id string) models.Encumbrance {
	s.T().Helper()
	for _, e := range result.Encumbrances {
		if e.InstrumentID == id {
			return e
		}
	}
	s.Require().Failf("missing encumbrance", "no encumbrance %q in result", id)
	return models.Encumbrance{}
}

func (s *ServiceSuite) TestMortgageForeclosure() {
	// Single deed, mortgage, lis pendens; the cited mortgage is foreclosing.
	result, err := s.svc.Analyze(s.ctx, Input{
		CaseID: "2023-CA-000101",
		Instruments: []models.InstrumentRecord{
			rec("d1", models.DocWarrantyDeed, testutil.Date(2015, time.January, 1),
				[]string{"BUILDER HOMES LLC"}, []string{"SMITH JOHN"}),
			rec("m1", models.DocMortgage, testutil.Date(2015, time.January, 2),
				[]string{"SMITH JOHN"}, []string{"BANKX NA"}),
			rec("lp1", models.DocLisPendens, testutil.Date(2023, time.June, 1),
				[]string{"SMITH JOHN"}, []string{"BANKX NA"}),
		},
		Judgment: &models.ForeclosureJudgment{
			CaseID:         "2023-CA-000101",
			Type:           models.ForeclosureMortgage,
			LisPendensDate: testutil.Date(2023, time.June, 1),
			ForeclosingID:  "m1",
		},
	})
	s.Require().NoError(err)

	s.Require().Len(result.Periods, 1)
	p := result.Periods[0]
	s.Equal([]string{"SMITH JOHN"}, p.Owner)
	s.Equal(testutil.Date(2015, time.January, 1), p.Start)
	s.Nil(p.End)
	s.Equal(models.LinkVerified, p.LinkStatus)

	s.Equal(models.SurvivalForeclosing, s.findEnc(result, "m1").SurvivalStatus)
	s.Equal(models.SchemaVersion, result.SchemaVersion)
	s.NotZero(result.AnalysisID)
}

func (s *ServiceSuite) TestGapFilledByImpliedOwner() {
	// Deed gap bridged by a mortgage the missing owner signed.
	result, err := s.svc.Analyze(s.ctx, Input{
		CaseID: "2024-CA-000202",
		Instruments: []models.InstrumentRecord{
			rec("d1", models.DocWarrantyDeed, testutil.Date(2010, time.January, 1),
				[]string{"ADAMS ALBERT"}, []string{"BRYANT BETTY"}),
			rec("d2", models.DocWarrantyDeed, testutil.Date(2020, time.January, 1),
				[]string{"CONNOR CHARLES"}, []string{"DAVIS DIANA"}),
			rec("m1", models.DocMortgage, testutil.Date(2015, time.June, 1),
				[]string{"CONNOR CHARLES"}, []string{"SUN BANK"}),
		},
	})
	s.Require().NoError(err)

	s.Require().Len(result.Periods, 3)
	implied := result.Periods[1]
	s.Equal([]string{"CONNOR CHARLES"}, implied.Owner)
	s.Equal(models.LinkImplied, implied.LinkStatus)
	s.Equal(testutil.Date(2015, time.June, 1), implied.Start)
	s.Require().NotNil(implied.End)
	s.Equal(testutil.Date(2020, time.January, 1), *implied.End)

	s.Equal(models.LinkVerified, result.Periods[2].LinkStatus)
	s.Contains(result.Summary.Flags(), models.FlagBrokenChain)
}

func (s *ServiceSuite) TestHOAForeclosure() {
	result, err := s.svc.Analyze(s.ctx, Input{
		CaseID: "2023-CA-000303",
		Instruments: []models.InstrumentRecord{
			rec("m1", models.DocMortgage, testutil.Date(2018, time.March, 1),
				[]string{"SMITH JOHN"}, []string{"FIRST BANK"}),
			rec("m2", models.DocMortgage, testutil.Date(2019, time.August, 1),
				[]string{"SMITH JOHN"}, []string{"SECOND BANK"}),
			rec("h1", models.DocHOALien, testutil.Date(2021, time.May, 1),
				[]string{"SMITH JOHN"}, []string{"OAKS HOA"}),
		},
		Judgment: &models.ForeclosureJudgment{
			Type:           models.ForeclosureHOA,
			LisPendensDate: testutil.Date(2022, time.February, 1),
			ForeclosingID:  "h1",
		},
	})
	s.Require().NoError(err)

	s.Equal(models.SurvivalSurvived, s.findEnc(result, "m1").SurvivalStatus)
	s.Equal(models.SurvivalExtinguished, s.findEnc(result, "m2").SurvivalStatus)
	s.Equal(models.SurvivalForeclosing, s.findEnc(result, "h1").SurvivalStatus)
}

func (s *ServiceSuite) TestTaxDeedForeclosure() {
	result, err := s.svc.Analyze(s.ctx, Input{
		CaseID: "2024-TD-000404",
		Instruments: []models.InstrumentRecord{
			rec("m1", models.DocMortgage, testutil.Date(2012, time.April, 1),
				[]string{"SMITH JOHN"}, []string{"SUN BANK"}),
			rec("f1", models.DocFederalTaxLien, testutil.Date(2018, time.September, 1),
				[]string{"SMITH JOHN"}, []string{"INTERNAL REVENUE SERVICE"}),
			rec("u1", models.DocMunicipalUtilityLien, testutil.Date(2020, time.May, 1),
				[]string{"SMITH JOHN"}, []string{"CITY OF LAKEWOOD UTILITIES"}),
		},
		Judgment: &models.ForeclosureJudgment{
			Type:           models.ForeclosureTaxDeed,
			LisPendensDate: testutil.Date(2024, time.March, 1),
		},
	})
	s.Require().NoError(err)

	s.Equal(models.SurvivalExtinguished, s.findEnc(result, "m1").SurvivalStatus)
	s.Equal(models.SurvivalExtinguishedRedemptionRight, s.findEnc(result, "f1").SurvivalStatus)
	s.Equal(models.SurvivalSurvived, s.findEnc(result, "u1").SurvivalStatus)
}

func (s *ServiceSuite) TestCommaSplitSatisfaction() {
	result, err := s.svc.Analyze(s.ctx, Input{
		CaseID: "2022-CA-000505",
		Instruments: []models.InstrumentRecord{
			rec("m1", models.DocMortgage, testutil.Date(2012, time.July, 1),
				[]string{"SMITH JOHN"}, []string{"BORREGO HENRY W, LONGO LEONARD V"}),
			rec("s1", models.DocSatisfaction, testutil.Date(2019, time.April, 15),
				[]string{"BORREGO HENRY W"}, nil),
		},
	})
	s.Require().NoError(err)

	m1 := s.findEnc(result, "m1")
	s.True(m1.Satisfied)
	s.Equal(models.SurvivalSatisfied, m1.SurvivalStatus)
	s.Empty(result.UnmatchedReleases)
}

func (s *ServiceSuite) TestStaleJudgmentLienExpires() {
	// Eleven years old, never re-recorded: Expired beats the lis pendens rule.
	result, err := s.svc.Analyze(s.ctx, Input{
		CaseID: "2025-CA-000606",
		Instruments: []models.InstrumentRecord{
			rec("j1", models.DocJudgmentLien, testutil.Date(2014, time.October, 1),
				[]string{"SMITH JOHN"}, []string{"CAPITAL RECOVERY LLC"}),
		},
		Judgment: &models.ForeclosureJudgment{
			Type:           models.ForeclosureMortgage,
			LisPendensDate: testutil.Date(2025, time.February, 1),
		},
	})
	s.Require().NoError(err)

	s.Equal(models.SurvivalExpired, s.findEnc(result, "j1").SurvivalStatus)
}

func (s *ServiceSuite) TestMalformedRecordsAreSkippedNotFatal() {
	result, err := s.svc.Analyze(s.ctx, Input{
		CaseID: "2024-CA-000707",
		Instruments: []models.InstrumentRecord{
			rec("d1", models.DocWarrantyDeed, testutil.Date(2015, time.January, 1),
				[]string{"ADAMS ALBERT"}, []string{"BRYANT BETTY"}),
			rec("", models.DocMortgage, testutil.Date(2016, time.January, 1),
				[]string{"BRYANT BETTY"}, []string{"SUN BANK"}),
			rec("x1", models.DocType("covenant"), testutil.Date(2017, time.January, 1),
				[]string{"BRYANT BETTY"}, nil),
			rec("x2", models.DocMortgage, time.Time{},
				[]string{"BRYANT BETTY"}, []string{"SUN BANK"}),
			rec("d1", models.DocWarrantyDeed, testutil.Date(2015, time.January, 1),
				[]string{"ADAMS ALBERT"}, []string{"BRYANT BETTY"}),
		},
	})
	s.Require().NoError(err)

	s.Len(result.Periods, 1)
	s.Require().Len(result.Skipped, 4)
	reasons := make(map[string]string)
	for _, sk := range result.Skipped {
		reasons[sk.InstrumentID] = sk.Reason
	}
	s.Contains(reasons[""], "missing instrument id")
	s.Contains(reasons["x1"], "unsupported document type")
	s.Contains(reasons["x2"], "missing recording date")
	s.Contains(reasons["d1"], "duplicate")
}

func (s *ServiceSuite) TestEmptyInputStillPersistsDegradedResult() {
	result, err := s.svc.Analyze(s.ctx, Input{CaseID: "2024-CA-000808"})
	s.Require().NoError(err)
	s.Empty(result.Periods)
	s.True(result.Summary.InsufficientHistory)

	stored, err := s.store.FindByCase(s.ctx, "2024-CA-000808")
	s.Require().NoError(err)
	s.Equal(result.AnalysisID, stored.AnalysisID)
}

func (s *ServiceSuite) TestAnalyzeRequiresCaseID() {
	_, err := s.svc.Analyze(s.ctx, Input{})
	s.Require().Error(err)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func (s *ServiceSuite) TestGet() {
	result, err := s.svc.Analyze(s.ctx, Input{CaseID: "2024-CA-000909"})
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, "2024-CA-000909")
	s.Require().NoError(err)
	s.Equal(result.AnalysisID, got.AnalysisID)

	_, err = s.svc.Get(s.ctx, "2024-CA-999999")
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *ServiceSuite) TestAnalyzeBatchKeepsInputOrder() {
	inputs := []Input{
		{CaseID: "2024-CA-001001"},
		{CaseID: "2024-CA-001002"},
		{CaseID: "2024-CA-001003"},
	}

	results, err := s.svc.AnalyzeBatch(s.ctx, inputs)
	s.Require().NoError(err)
	s.Require().Len(results, len(inputs))
	for i, in := range inputs {
		s.Equal(in.CaseID, results[i].CaseID)
	}
}

func (s *ServiceSuite) TestAnalyzeBatchFailsFast() {
	_, err := s.svc.AnalyzeBatch(s.ctx, []Input{
		{CaseID: "2024-CA-001101"},
		{},
	})
	s.Require().Error(err)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
}
