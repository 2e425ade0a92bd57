package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
	"github.com/a3tai/labreport-summarizer/internal/pdf"
)

func newTestScanner() *Scanner {
	return NewScanner(intelligence.DefaultRuleSet(), DefaultOptions(), nil)
}

func doc(name string, pages ...pdf.Page) *pdf.Document {
	for i := range pages {
		pages[i].Number = i + 1
	}
	return &pdf.Document{Name: name, Pages: pages, ContentType: pdf.ContentText}
}

func displays(t *testing.T, res FileResult, key intelligence.Key) []string {
	t.Helper()
	var out []string
	for _, c := range res.Pools.Candidates(key) {
		assert.Equal(t, res.Name, c.File)
		out = append(out, c.Display)
	}
	return out
}

func TestScan_ResultTable(t *testing.T) {
	res := newTestScanner().Scan(doc("r.pdf", pdf.Page{
		Text: "Issue Date: 2024/03/10",
		Tables: []pdf.Table{{
			{"Test Item", "Unit", "MDL", "Result"},
			{"Lead (Pb)", "mg/kg", "2", "8"},
			{"Cadmium (Cd)", "mg/kg", "2", "n.d."},
			{"Mercury (Hg)", "mg/kg", "2", "Negative"},
			{"Chromium", "mg/kg", "2", "1000"},
		}},
	}))

	assert.Equal(t, []string{"8"}, displays(t, res, "Pb"))
	assert.Equal(t, []string{"n.d."}, displays(t, res, "Cd"))
	assert.Equal(t, []string{"Negative"}, displays(t, res, "Hg"))
	require.NotNil(t, res.Date)
	assert.Equal(t, "2024-03-10", res.Date.Date.Format("2006-01-02"))
	assert.Equal(t, "r.pdf", res.Date.File)
	assert.Equal(t, 1, res.Stats.ResolvedTables)
	assert.Equal(t, 3, res.Stats.Candidates)
}

func TestScan_CarryOverAcrossPages(t *testing.T) {
	res := newTestScanner().Scan(doc("multi.pdf",
		pdf.Page{Tables: []pdf.Table{{
			{"Test Item", "Unit", "MDL", "Result"},
			{"Lead", "mg/kg", "2", "8"},
		}}},
		pdf.Page{Tables: []pdf.Table{{
			{"Cadmium", "mg/kg", "2", "n.d."},
			{"Mercury", "mg/kg", "2", "15"},
		}}},
	))

	assert.Equal(t, []string{"n.d."}, displays(t, res, "Cd"))
	assert.Equal(t, []string{"15"}, displays(t, res, "Hg"))
	assert.Equal(t, 1, res.Stats.CarriedTables)
}

func TestScan_ReferenceTableIsIgnoredAndResetsCarry(t *testing.T) {
	res := newTestScanner().Scan(doc("ref.pdf",
		pdf.Page{Tables: []pdf.Table{
			{
				{"Test Item", "Unit", "MDL", "Result"},
				{"Lead", "mg/kg", "2", "8"},
			},
			{
				{"Restricted Substance", "Limit", "CAS No.", "Unit"},
				{"Cadmium", "100", "7440-43-9", "mg/kg"},
			},
			{
				{"Mercury", "mg/kg", "2", "15"},
				{"Cadmium", "mg/kg", "2", "30"},
			},
		}},
	))

	assert.Equal(t, []string{"8"}, displays(t, res, "Pb"))
	assert.Empty(t, res.Pools.Candidates("Cd"))
	assert.Empty(t, res.Pools.Candidates("Hg"))
	assert.Equal(t, 1, res.Stats.ReferenceTables)
	assert.Equal(t, 1, res.Stats.SkippedTables)
}

func TestScan_DecimalMDLKeepsCarriedLayout(t *testing.T) {
	res := newTestScanner().Scan(doc("pfas.pdf",
		pdf.Page{
			Text: "Test requested: PFHxA and its salts",
			Tables: []pdf.Table{{
				{"Test Item", "Unit", "MDL", "Result"},
				{"PFOA", "mg/kg", "0.01", "n.d."},
			}},
		},
		pdf.Page{Tables: []pdf.Table{{
			{"PFHxA", "mg/kg", "0.005", "n.d."},
			{"PFHpA", "mg/kg", "0.005", "n.d."},
			{"PFNA", "mg/kg", "0.005", "n.d."},
		}}},
	))

	assert.Equal(t, []string{"n.d."}, displays(t, res, "PFAS"))
	assert.Equal(t, 1, res.Stats.CarriedTables)
}

func TestScan_ReferenceTableWithDecimalLimits(t *testing.T) {
	res := newTestScanner().Scan(doc("limits.pdf", pdf.Page{Tables: []pdf.Table{{
		{"Restricted Substances", "CAS No.", "Limit"},
		{"PFOS", "1763-23-1", "0.001%"},
		{"Lead (Pb)", "7439-92-1", "0.1%"},
		{"Cadmium (Cd)", "7440-43-9", "0.01%"},
	}}}))

	assert.Empty(t, res.Pools.Candidates("Pb"))
	assert.Empty(t, res.Pools.Candidates("Cd"))
	assert.Empty(t, res.Pools.Candidates("PFOS"))
	assert.Equal(t, 1, res.Stats.ReferenceTables)
}

func TestScan_GroupedFamilyReducedPerFile(t *testing.T) {
	res := newTestScanner().Scan(doc("pbb.pdf", pdf.Page{Tables: []pdf.Table{{
		{"Test Item", "Result"},
		{"Monobromobiphenyl", "n.d."},
		{"Dibromobiphenyl", "n.d."},
		{"Tribromobiphenyl", "3.2"},
		{"Sum of PBBs", "n.d."},
		{"Decabromodiphenyl ether", "n.d."},
	}}}))

	assert.Equal(t, []string{"3.2"}, displays(t, res, "PBB"))
	assert.Equal(t, []string{"n.d."}, displays(t, res, "PBDE"))
	assert.Empty(t, res.Pools.Candidates("BR"))
	assert.Empty(t, res.Pools.Candidates("Pb"))
}

func TestScan_PFASGate(t *testing.T) {
	table := pdf.Table{
		{"Test Item", "Result"},
		{"PFHxA", "n.d."},
		{"PFOA", "12"},
		{"PFOS", "n.d."},
	}

	closed := newTestScanner().Scan(doc("closed.pdf",
		pdf.Page{Text: "RoHS test report"},
		pdf.Page{Tables: []pdf.Table{table}},
	))
	assert.Empty(t, closed.Pools.Candidates("PFAS"), "no trigger phrase, no PFAS")
	assert.Equal(t, []string{"n.d."}, displays(t, closed, "PFOS"))

	open := newTestScanner().Scan(doc("open.pdf",
		pdf.Page{Text: "Test requested: PFHxA and its salts"},
		pdf.Page{Tables: []pdf.Table{table}},
	))
	assert.True(t, open.Triggered.Has("PFAS"))
	assert.Equal(t, []string{"12"}, displays(t, open, "PFAS"))
	assert.Equal(t, []string{"n.d."}, displays(t, open, "PFOS"))
}

func TestScan_TriggerOutsideFrontPagesIsIgnored(t *testing.T) {
	res := newTestScanner().Scan(doc("late.pdf",
		pdf.Page{Text: "cover"},
		pdf.Page{Text: "summary"},
		pdf.Page{
			Text: "Per- and Polyfluoroalkyl Substances",
			Tables: []pdf.Table{{
				{"Test Item", "Result"},
				{"PFOA", "12"},
			}},
		},
	))

	assert.Empty(t, res.Pools.Candidates("PFAS"))
}

func TestScan_HeaderEchoAndShortRows(t *testing.T) {
	res := newTestScanner().Scan(doc("echo.pdf", pdf.Page{Tables: []pdf.Table{{
		{"Test Item", "MDL", "Result"},
		{"Lead", "2", "8"},
		{"Test Item", "MDL", "Result"},
		{"Cadmium", "2"},
		{"Mercury", "2", "5"},
	}}}))

	assert.Equal(t, []string{"8"}, displays(t, res, "Pb"))
	assert.Equal(t, []string{"5"}, displays(t, res, "Hg"))
	assert.Empty(t, res.Pools.Candidates("Cd"))
	assert.Equal(t, 2, res.Stats.Rows)
}

func TestScan_ReportFlag(t *testing.T) {
	rs := intelligence.DefaultRuleSet()
	for i := range rs.Grouped {
		if rs.Grouped[i].Key == "PFAS" {
			rs.Grouped[i].ReportFlags = []string{"PFAS screening performed"}
		}
	}
	s := NewScanner(rs, DefaultOptions(), nil)

	res := s.Scan(doc("flag.pdf", pdf.Page{Text: "Note: PFAS screening performed"}))

	assert.Equal(t, []string{"Tested"}, displays(t, res, "PFAS"))
}

func TestScan_EmptyDocument(t *testing.T) {
	res := newTestScanner().Scan(doc("empty.pdf"))

	assert.Nil(t, res.Date)
	assert.Zero(t, res.Pools.Len())
	assert.Zero(t, res.Stats.Tables)
}
