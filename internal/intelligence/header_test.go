package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *HeaderResolver {
	return NewHeaderResolver(DefaultRuleSet().Header, DefaultHeaderOptions())
}

func TestHeaderResolver_Resolve(t *testing.T) {
	resolver := newTestResolver()

	tests := []struct {
		name      string
		table     [][]string
		itemCol   int
		resultCol int
		headerRow int
		skip      bool
		reference bool
	}{
		{
			name:      "simple result table",
			table:     [][]string{{"Test Item", "Result"}, {"Lead", "8 mg/kg"}},
			itemCol:   0,
			resultCol: 1,
			headerRow: 0,
		},
		{
			name: "result column after limit columns",
			table: [][]string{
				{"Test Item(s)", "Unit", "Method", "MDL", "Limit", "Result"},
				{"Cadmium (Cd)", "mg/kg", "IEC 62321", "2", "100", "n.d."},
			},
			itemCol:   0,
			resultCol: 5,
			headerRow: 0,
		},
		{
			name: "sample index header on second row",
			table: [][]string{
				{"Test Items", "Unit", "MDL", "Limit", "Sample"},
				{"", "", "", "", "001"},
				{"Lead (Pb)", "mg/kg", "2", "1000", "n.d."},
			},
			itemCol:   0,
			resultCol: 4,
			headerRow: 1,
		},
		{
			name: "limit header with sample index is a result table",
			table: [][]string{
				{"Test Item", "Unit", "MDL", "Limit", "001", "002"},
				{"Mercury (Hg)", "mg/kg", "2", "1000", "n.d.", "n.d."},
			},
			itemCol:   0,
			resultCol: 4,
			headerRow: 0,
		},
		{
			name: "localized headers",
			table: [][]string{
				{"測試項目", "單位", "結果"},
				{"鉛", "mg/kg", "5"},
			},
			itemCol:   0,
			resultCol: 2,
			headerRow: 0,
		},
		{
			name: "item column not found defaults to zero",
			table: [][]string{
				{"Substance", "Result"},
				{"Lead", "3"},
			},
			itemCol:   0,
			resultCol: 1,
			headerRow: 0,
		},
		{
			name: "item column to the right",
			table: [][]string{
				{"No.", "Test Item", "Result"},
				{"1", "Lead", "3"},
			},
			itemCol:   1,
			resultCol: 2,
			headerRow: 0,
		},
		{
			name: "restricted substance list",
			table: [][]string{
				{"Restricted Substances", "CAS No.", "Limits"},
				{"Lead (Pb)", "7439-92-1", "1000 ppm"},
			},
			itemCol:   0,
			resultCol: -1,
			headerRow: -1,
			skip:      true,
			reference: true,
		},
		{
			name: "substance name and limit",
			table: [][]string{
				{"Substance Name", "Maximum Limit"},
				{"DEHP", "0.1%"},
			},
			itemCol:   0,
			resultCol: -1,
			headerRow: -1,
			skip:      true,
			reference: true,
		},
		{
			name: "reference table with decimal limits",
			table: [][]string{
				{"Restricted Substances", "CAS No.", "Limit"},
				{"PFOS", "1763-23-1", "0.001%"},
				{"Lead (Pb)", "7439-92-1", "0.1%"},
			},
			itemCol:   0,
			resultCol: -1,
			headerRow: -1,
			skip:      true,
			reference: true,
		},
		{
			name: "sample number header cell",
			table: [][]string{
				{"Test Item", "Unit", "No. 2"},
				{"Lead (Pb)", "mg/kg", "n.d."},
			},
			itemCol:   0,
			resultCol: 2,
			headerRow: 0,
		},
		{
			name: "no header and no carry",
			table: [][]string{
				{"Lead", "mg/kg", "2", "n.d."},
			},
			itemCol:   0,
			resultCol: -1,
			headerRow: -1,
			skip:      true,
		},
		{
			name:      "empty table",
			table:     nil,
			itemCol:   0,
			resultCol: -1,
			headerRow: -1,
			skip:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := resolver.Resolve(tt.table, nil)
			assert.Equal(t, tt.itemCol, d.ItemCol, "item column")
			assert.Equal(t, tt.resultCol, d.ResultCol, "result column")
			assert.Equal(t, tt.headerRow, d.HeaderRow, "header row")
			assert.Equal(t, tt.skip, d.Skip, "skip")
			assert.Equal(t, tt.reference, d.Reference, "reference")
			assert.False(t, d.CarriedOver)
		})
	}
}

func TestHeaderResolver_CarryOver(t *testing.T) {
	resolver := newTestResolver()

	first := [][]string{
		{"Test Item", "Unit", "MDL", "Result"},
		{"Lead", "mg/kg", "2", "8"},
	}
	d1 := resolver.Resolve(first, nil)
	require.True(t, d1.Usable())
	require.Equal(t, 3, d1.ResultCol)

	carry := d1.Layout()
	continuation := [][]string{
		{"Cadmium", "mg/kg", "2", "n.d."},
		{"Mercury", "mg/kg", "2", "n.d."},
	}
	d2 := resolver.Resolve(continuation, &carry)
	assert.True(t, d2.Usable())
	assert.True(t, d2.CarriedOver)
	assert.Equal(t, 0, d2.ItemCol)
	assert.Equal(t, 3, d2.ResultCol)
	assert.Equal(t, -1, d2.HeaderRow, "every row of a continuation is data")
}

func TestHeaderResolver_DecimalIsNotSampleIndex(t *testing.T) {
	resolver := newTestResolver()
	carry := Layout{ItemCol: 0, ResultCol: 3}

	continuation := [][]string{
		{"PFHxA", "mg/kg", "0.005", "n.d."},
		{"PFHpA", "mg/kg", "0.001", "n.d."},
	}
	d := resolver.Resolve(continuation, &carry)

	assert.True(t, d.CarriedOver)
	assert.Equal(t, 3, d.ResultCol)
}

func TestHeaderResolver_CarryOverNeedsWidth(t *testing.T) {
	resolver := newTestResolver()
	carry := Layout{ItemCol: 0, ResultCol: 2}

	narrow := [][]string{{"Signed", "Lab manager", "2024"}}
	d := resolver.Resolve(narrow, &carry)

	assert.True(t, d.Skip)
	assert.False(t, d.CarriedOver)
}

func TestHeaderResolver_ReferenceTableNeverCarries(t *testing.T) {
	resolver := newTestResolver()
	carry := Layout{ItemCol: 0, ResultCol: 3}

	reference := [][]string{
		{"Restricted Substance", "CAS No.", "Limit", "Unit"},
		{"Lead", "7439-92-1", "1000", "ppm"},
	}
	d := resolver.Resolve(reference, &carry)

	assert.True(t, d.Reference)
	assert.False(t, d.CarriedOver)
	assert.False(t, d.Usable())
}

func TestHeaderResolver_ScanRowsBound(t *testing.T) {
	resolver := NewHeaderResolver(DefaultRuleSet().Header, HeaderOptions{ScanRows: 1, CarryMinColumns: 3})

	table := [][]string{
		{"Report No.", "ABC"},
		{"Test Item", "Result"},
	}
	d := resolver.Resolve(table, nil)

	assert.True(t, d.Skip)
}

func TestHeaderResolver_IsHeaderEcho(t *testing.T) {
	resolver := newTestResolver()

	assert.True(t, resolver.IsHeaderEcho([]string{"Test Item", "Unit", "Result"}))
	assert.True(t, resolver.IsHeaderEcho([]string{"Restricted Substances", ""}))
	assert.True(t, resolver.IsHeaderEcho([]string{"測試項目", "結果"}))
	assert.False(t, resolver.IsHeaderEcho([]string{"Lead (Pb)", "mg/kg", "8"}))
}
