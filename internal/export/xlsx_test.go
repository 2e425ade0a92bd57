package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
	"github.com/a3tai/labreport-summarizer/internal/summary"
)

func testRecord() summary.Record {
	pools := summary.NewPools()
	pools.Add("Pb", intelligence.Candidate{
		Verdict: intelligence.Verdict{Tier: intelligence.TierNumeric, Magnitude: 8, Display: "8"},
		File:    "report.pdf",
	})
	pools.Add("Cd", intelligence.Candidate{
		Verdict: intelligence.Verdict{Tier: intelligence.TierBelowLimit, Display: "n.d."},
		File:    "report.pdf",
	})
	dates := []summary.DateObservation{{Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), File: "report.pdf"}}
	return summary.NewAggregator(intelligence.DefaultRuleSet().Output).Aggregate(pools, dates, []string{"report.pdf"})
}

func rowsOf(t *testing.T, f *xlsx.File, sheet string) [][]string {
	t.Helper()
	s, ok := f.Sheet[sheet]
	require.True(t, ok, "sheet %q missing", sheet)

	var rows [][]string
	for _, row := range s.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows
}

func TestWriteXLSX(t *testing.T) {
	rec := testRecord()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rec, ""))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	rows := rowsOf(t, f, DefaultSheet)
	require.Len(t, rows, 2)
	assert.Equal(t, rec.Header(), rows[0])
	assert.Equal(t, "8", rows[1][0])
	assert.Equal(t, "n.d.", rows[1][1])
	assert.Equal(t, "2024/03/10", rows[1][16])
	assert.Equal(t, "report.pdf", rows[1][17])
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.xlsx")

	require.NoError(t, SaveXLSX(path, testRecord(), "Batch"))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	rows := rowsOf(t, f, "Batch")
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 18)
}

func TestWorkbook_InvalidSheetName(t *testing.T) {
	_, err := Workbook(testRecord(), "this sheet name is far too long for excel")
	assert.Error(t, err)
}
