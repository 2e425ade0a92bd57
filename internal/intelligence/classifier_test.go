package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstanceClassifier_Simple(t *testing.T) {
	sc := NewSubstanceClassifier(DefaultRuleSet())

	tests := []struct {
		item string
		want Key
	}{
		{item: "Lead (Pb)", want: "Pb"},
		{item: "Pb", want: "Pb"},
		{item: "鉛", want: "Pb"},
		{item: "Cadmium", want: "Cd"},
		{item: "Mercury (Hg)", want: "Hg"},
		{item: "Hexavalent Chromium Cr(VI)", want: "Cr6+"},
		{item: "Di(2-ethylhexyl) phthalate (DEHP)", want: "DEHP"},
		{item: "Butyl benzyl phthalate (BBP)", want: "BBP"},
		{item: "Dibutyl phthalate (DBP)", want: "DBP"},
		{item: "Diisobutyl phthalate (DIBP)", want: "DIBP"},
		{item: "Perfluorooctane sulfonates (PFOS)", want: "PFOS"},
		{item: "Fluorine (F)", want: "F"},
		{item: "Chlorine (Cl)", want: "CL"},
		{item: "Bromine (Br)", want: "BR"},
		{item: "Iodine (I)", want: "I"},
		{item: "Lead\n(Pb)", want: "Pb"},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.Equal(t, tt.want, sc.Classify(tt.item, nil).Simple)
		})
	}
}

func TestSubstanceClassifier_Exclusions(t *testing.T) {
	sc := NewSubstanceClassifier(DefaultRuleSet())
	open := FamilySet{"PFAS": true}

	t.Run("PFOS related compounds are not PFOS", func(t *testing.T) {
		m := sc.Classify("PFOS related compounds", open)
		assert.Empty(t, m.Simple)
		assert.Equal(t, []Key{"PFAS"}, m.Groups)
	})

	t.Run("plain PFOS row stays out of the PFAS family", func(t *testing.T) {
		m := sc.Classify("Perfluorooctane sulfonates (PFOS)", open)
		assert.Equal(t, Key("PFOS"), m.Simple)
		assert.Empty(t, m.Groups)
	})

	t.Run("PVC is not a chlorine result", func(t *testing.T) {
		assert.Empty(t, sc.Classify("Chlorine content of PVC", nil).Simple)
		assert.Empty(t, sc.Classify("聚氯乙烯", nil).Simple)
	})

	t.Run("element symbols only match whole words", func(t *testing.T) {
		m := sc.Classify("Sum of PBBs", nil)
		assert.Empty(t, m.Simple)
		assert.Equal(t, []Key{"PBB"}, m.Groups)
	})

	t.Run("localized perfluoro row is not fluorine", func(t *testing.T) {
		m := sc.Classify("全氟辛酸 PFOA", open)
		assert.Empty(t, m.Simple)
		assert.Equal(t, []Key{"PFAS"}, m.Groups)
	})

	t.Run("brominated family row is not bromine", func(t *testing.T) {
		m := sc.Classify("多溴聯苯總和", nil)
		assert.Empty(t, m.Simple)
		assert.Equal(t, []Key{"PBB"}, m.Groups)
	})
}

func TestSubstanceClassifier_Groups(t *testing.T) {
	sc := NewSubstanceClassifier(DefaultRuleSet())

	tests := []struct {
		item string
		want []Key
	}{
		{item: "Monobromobiphenyl", want: []Key{"PBB"}},
		{item: "Decabromobiphenyl", want: []Key{"PBB"}},
		{item: "Sum of PBBs", want: []Key{"PBB"}},
		{item: "Pentabromodiphenyl ether", want: []Key{"PBDE"}},
		{item: "Sum of PBDEs", want: []Key{"PBDE"}},
		{item: "多溴聯苯醚總和", want: []Key{"PBDE"}},
		{item: "Lead", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.Equal(t, tt.want, sc.Classify(tt.item, nil).Groups)
		})
	}
}

func TestSubstanceClassifier_PFASGate(t *testing.T) {
	sc := NewSubstanceClassifier(DefaultRuleSet())

	closed := sc.Triggered("Test Report RoHS 2.0 Directive (EU) 2015/863")
	assert.False(t, closed.Has("PFAS"))
	assert.True(t, sc.Classify("PFHxA", closed).Empty())

	open := sc.Triggered("Scope: Per- and Polyfluoroalkyl\nSubstances (PFAS) screening")
	assert.True(t, open.Has("PFAS"))
	assert.Equal(t, []Key{"PFAS"}, sc.Classify("PFHxA", open).Groups)

	assert.True(t, sc.Triggered("測試項目 全氟/多氟烷基物質").Has("PFAS"))
	assert.True(t, sc.Triggered("PFHxA and its salts").Has("PFAS"))
}

func TestSubstanceClassifier_Flags(t *testing.T) {
	rs := DefaultRuleSet()
	rs.Grouped[0].ReportFlags = []string{"PBBs were tested"}
	rs.Grouped[0].FlagDisplay = "Tested"
	sc := NewSubstanceClassifier(rs)

	flags := sc.Flags("Remark: PBBs were tested as a group")
	assert.Equal(t, map[Key]Verdict{"PBB": {Tier: TierReportFlag, Display: "Tested"}}, flags)

	assert.Empty(t, NewSubstanceClassifier(DefaultRuleSet()).Flags("PBBs were tested"))
}

func TestSubstanceClassifier_EmptyItem(t *testing.T) {
	sc := NewSubstanceClassifier(DefaultRuleSet())
	assert.True(t, sc.Classify("  \n", FamilySet{"PFAS": true}).Empty())
}
