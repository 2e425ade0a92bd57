package intelligence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleSet_Valid(t *testing.T) {
	rs := DefaultRuleSet()
	require.NoError(t, rs.Validate())

	assert.Equal(t, Key("Pb"), rs.Output.Anchor)
	assert.Len(t, rs.Output.Columns, 16)
	assert.ElementsMatch(t, rs.Keys(), rs.Output.Columns)
	assert.True(t, rs.IsGrouped("PFAS"))
	assert.False(t, rs.IsGrouped("Pb"))
}

func TestRuleSet_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rs *RuleSet)
	}{
		{name: "duplicate key", mutate: func(rs *RuleSet) { rs.Simple[1].Key = "Pb" }},
		{name: "group shadows simple key", mutate: func(rs *RuleSet) { rs.Grouped[0].Key = "Cd" }},
		{name: "simple without synonyms", mutate: func(rs *RuleSet) {
			rs.Simple[0].Synonyms, rs.Simple[0].Tokens = nil, nil
		}},
		{name: "family without keywords", mutate: func(rs *RuleSet) { rs.Grouped[1].Keywords = nil }},
		{name: "unknown column", mutate: func(rs *RuleSet) { rs.Output.Columns = append(rs.Output.Columns, "Sn") }},
		{name: "no columns", mutate: func(rs *RuleSet) { rs.Output.Columns = nil }},
		{name: "unknown anchor", mutate: func(rs *RuleSet) { rs.Output.Anchor = "Zn" }},
		{name: "empty date window", mutate: func(rs *RuleSet) { rs.Dates.MinYear = 2031 }},
		{name: "bad regex", mutate: func(rs *RuleSet) { rs.Header.SampleIndex = "(" }},
		{name: "missing number pattern", mutate: func(rs *RuleSet) { rs.Values.NumberPattern = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := DefaultRuleSet()
			tt.mutate(rs)
			assert.Error(t, rs.Validate())
		})
	}
}

func TestLoadRuleSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	content := `
values:
  units: ["mg/kg"]
  denylist: ["result"]
  cas_pattern: '^\d+-\d+-\d+$'
  round_limits: [1000]
  below_limit:
    contains: ["n.d."]
    display: "N.D."
  negative:
    contains: ["negative"]
    display: "NEGATIVE"
  number_pattern: '\d+(?:\.\d+)?'
dates:
  min_year: 2010
  max_year: 2030
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)

	assert.Equal(t, "N.D.", rs.Values.BelowLimit.Display)
	assert.Equal(t, []float64{1000}, rs.Values.RoundLimits)
	assert.Equal(t, 2010, rs.Dates.MinYear)
	assert.Len(t, rs.Simple, len(DefaultRuleSet().Simple), "sections absent from the file keep their defaults")
}

func TestLoadRuleSet_Errors(t *testing.T) {
	_, err := LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  anchor: Zn\n"), 0o600))
	_, err = LoadRuleSet(path)
	assert.Error(t, err)
}
