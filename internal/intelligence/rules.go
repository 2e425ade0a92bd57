package intelligence

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Exclusion vetoes a keyword hit when the item contains Phrase,
// unless the item also contains one of Unless
type Exclusion struct {
	Phrase string   `yaml:"phrase" json:"phrase"`
	Unless []string `yaml:"unless,omitempty" json:"unless,omitempty"`
}

// SimpleRule maps single-row analytes to a key.
// Synonyms match as substrings, Tokens only as whole words so that short
// element symbols do not fire inside longer words.
type SimpleRule struct {
	Key        Key         `yaml:"key" json:"key"`
	Synonyms   []string    `yaml:"synonyms" json:"synonyms"`
	Tokens     []string    `yaml:"tokens,omitempty" json:"tokens,omitempty"`
	Exclusions []Exclusion `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
}

// GroupRule describes a family reported through several congener rows
type GroupRule struct {
	Key        Key         `yaml:"key" json:"key"`
	Keywords   []string    `yaml:"keywords" json:"keywords"`
	Exclusions []Exclusion `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`

	// Triggers gate the family: when non-empty, rows may only match in files
	// whose front matter contains at least one trigger phrase.
	Triggers []string `yaml:"triggers,omitempty" json:"triggers,omitempty"`

	// ReportFlags are front-matter phrases declaring the family as tested.
	// A hit adds a report-level candidate displayed as FlagDisplay.
	ReportFlags []string `yaml:"report_flags,omitempty" json:"report_flags,omitempty"`
	FlagDisplay string   `yaml:"flag_display,omitempty" json:"flag_display,omitempty"`
}

// Gated reports whether the family needs a trigger phrase
func (g GroupRule) Gated() bool {
	return len(g.Triggers) > 0
}

// MarkerRule describes one qualitative result class
type MarkerRule struct {
	Contains []string `yaml:"contains" json:"contains"`
	Equals   []string `yaml:"equals,omitempty" json:"equals,omitempty"`
	Prefixes []string `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`
	Display  string   `yaml:"display" json:"display"`
}

// ValueRules are the literals used by the value classifier
type ValueRules struct {
	Units         []string   `yaml:"units" json:"units"`
	Denylist      []string   `yaml:"denylist" json:"denylist"`
	CASPattern    string     `yaml:"cas_pattern" json:"cas_pattern"`
	RoundLimits   []float64  `yaml:"round_limits" json:"round_limits"`
	BelowLimit    MarkerRule `yaml:"below_limit" json:"below_limit"`
	Negative      MarkerRule `yaml:"negative" json:"negative"`
	NumberPattern string     `yaml:"number_pattern" json:"number_pattern"`
}

// HeaderRules are the literals used by the table header resolver
type HeaderRules struct {
	SkipMarkers   []string `yaml:"skip_markers" json:"skip_markers"`
	ResultMarkers []string `yaml:"result_markers" json:"result_markers"`
	SampleIndex   string   `yaml:"sample_index" json:"sample_index"`
	ItemMarkers   []string `yaml:"item_markers" json:"item_markers"`
	EchoMarkers   []string `yaml:"echo_markers" json:"echo_markers"`
}

// DateRules bound the plausible report dates
type DateRules struct {
	MinYear int `yaml:"min_year" json:"min_year"`
	MaxYear int `yaml:"max_year" json:"max_year"`
}

// OutputRules define the summary row schema
type OutputRules struct {
	Columns       []Key  `yaml:"columns" json:"columns"`
	Anchor        Key    `yaml:"anchor" json:"anchor"`
	DateColumn    string `yaml:"date_column" json:"date_column"`
	FileColumn    string `yaml:"file_column" json:"file_column"`
	FileSeparator string `yaml:"file_separator" json:"file_separator"`
}

// RuleSet is the complete taxonomy and heuristic configuration
type RuleSet struct {
	Version string       `yaml:"version" json:"version"`
	Simple  []SimpleRule `yaml:"simple" json:"simple"`
	Grouped []GroupRule  `yaml:"grouped" json:"grouped"`
	Values  ValueRules   `yaml:"values" json:"values"`
	Header  HeaderRules  `yaml:"header" json:"header"`
	Dates   DateRules    `yaml:"dates" json:"dates"`
	Output  OutputRules  `yaml:"output" json:"output"`
}

// DefaultRuleSet returns the built-in RoHS/REACH/PFAS taxonomy
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Version: "1.0",
		Simple: []SimpleRule{
			{Key: "Pb", Synonyms: []string{"Lead", "鉛"}, Tokens: []string{"Pb"}},
			{Key: "Cd", Synonyms: []string{"Cadmium", "鎘"}, Tokens: []string{"Cd"}},
			{Key: "Hg", Synonyms: []string{"Mercury", "汞"}, Tokens: []string{"Hg"}},
			{Key: "Cr6+", Synonyms: []string{"Hexavalent Chromium", "六價鉻", "Cr(VI)", "Chromium VI", "Cr6+", "Cr (VI)"}},
			{Key: "DEHP", Synonyms: []string{"DEHP", "Di(2-ethylhexyl) phthalate", "Bis(2-ethylhexyl) phthalate"}},
			{Key: "BBP", Synonyms: []string{"BBP", "Butyl benzyl phthalate"}},
			{Key: "DBP", Synonyms: []string{"DBP", "Dibutyl phthalate"}},
			{Key: "DIBP", Synonyms: []string{"DIBP", "Diisobutyl phthalate"}},
			{
				Key:        "PFOS",
				Synonyms:   []string{"PFOS", "Perfluorooctane sulfonates", "Perfluorooctane sulfonate", "Perfluorooctane sulphonate"},
				Exclusions: []Exclusion{{Phrase: "related"}},
			},
			{
				Key:        "F",
				Synonyms:   []string{"Fluorine", "氟"},
				Exclusions: []Exclusion{{Phrase: "全氟"}, {Phrase: "多氟"}},
			},
			{
				Key:      "CL",
				Synonyms: []string{"Chlorine", "氯"},
				Exclusions: []Exclusion{
					{Phrase: "pvc"}, {Phrase: "polyvinyl chloride"}, {Phrase: "聚氯乙烯"},
				},
			},
			{
				Key:        "BR",
				Synonyms:   []string{"Bromine", "溴"},
				Exclusions: []Exclusion{{Phrase: "多溴"}},
			},
			{Key: "I", Synonyms: []string{"Iodine", "碘"}},
		},
		Grouped: []GroupRule{
			{
				Key: "PBB",
				Keywords: []string{
					"Sum of PBBs", "Polybrominated Biphenyls", "PBBs", "多溴聯苯總和", "多溴聯苯",
					"Monobromobiphenyl", "Dibromobiphenyl", "Tribromobiphenyl",
					"Tetrabromobiphenyl", "Pentabromobiphenyl", "Hexabromobiphenyl",
					"Heptabromobiphenyl", "Octabromobiphenyl", "Nonabromobiphenyl",
					"Decabromobiphenyl", "bromobiphenyl",
				},
				Exclusions: []Exclusion{{Phrase: "ether"}, {Phrase: "醚"}},
			},
			{
				Key: "PBDE",
				Keywords: []string{
					"Sum of PBDEs", "Polybrominated Diphenyl Ethers", "PBDEs", "多溴聯苯醚總和", "多溴聯苯醚",
					"Monobromodiphenyl ether", "Dibromodiphenyl ether", "Tribromodiphenyl ether",
					"Tetrabromodiphenyl ether", "Pentabromodiphenyl ether", "Hexabromodiphenyl ether",
					"Heptabromodiphenyl ether", "Octabromodiphenyl ether", "Nonabromodiphenyl ether",
					"Decabromodiphenyl ether", "bromodiphenyl ether",
				},
			},
			{
				Key: "PFAS",
				Keywords: []string{
					"PFHxA", "PFOA", "PFNA", "PFDA", "PFUnDA", "PFDoDA", "PFTrDA", "PFTeDA",
					"FTOH", "FTA", "FTMAC", "FTS", "FTCA", "PFAS", "Perfluoro", "全氟",
					"PFOS related", "PFOS-related",
				},
				Exclusions: []Exclusion{
					{Phrase: "pfos", Unless: []string{"related"}},
					{Phrase: "perfluorooctane sulfonat", Unless: []string{"related"}},
					{Phrase: "perfluorooctane sulphonat", Unless: []string{"related"}},
				},
				Triggers: []string{
					"Per- and Polyfluoroalkyl Substances",
					"PFHxA and its salts",
					"全氟/多氟烷基物質",
				},
				FlagDisplay: "Tested",
			},
		},
		Values: ValueRules{
			Units: []string{"mg/kg", "ppm", "µg/cm²", "ug/cm2", "μg/cm2", "µg/g", "ug/g", "wt%", "%"},
			Denylist: []string{
				"result", "results", "limit", "limits", "mdl", "loq", "lod", "rl", "unit", "units",
				"method", "test item", "test method", "-", "--", "---", "/", "n.a.", "n/a", "na",
				"001", "002", "003", "004", "005", "006", "007", "008", "009", "010",
				"no.1", "no.2", "no.3", "no.4", "no.5",
				"結果", "限值", "單位", "方法",
			},
			CASPattern:  `^\d+-\d+-\d+$`,
			RoundLimits: []float64{1000, 100, 50},
			BelowLimit: MarkerRule{
				Contains: []string{"n.d.", "not detected", "未檢出"},
				Equals:   []string{"nd", "n.d"},
				Prefixes: []string{"<"},
				Display:  "n.d.",
			},
			Negative: MarkerRule{
				Contains: []string{"negative", "陰性"},
				Display:  "Negative",
			},
			NumberPattern: `\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?|\.\d+`,
		},
		Header: HeaderRules{
			SkipMarkers: []string{
				"restricted substance", "limit", "substance name", "cas no", "cas number", "cas#",
				"限值", "限用物質",
			},
			ResultMarkers: []string{"result", "結果", "green", "submitted", "composite"},
			SampleIndex:   `^(?:00[1-9]|no\.\s*\d+)$`,
			ItemMarkers:   []string{"test item", "tested item", "測試項目", "檢測項目"},
			EchoMarkers:   []string{"test item", "tested item", "result", "restricted substances", "測試項目", "結果"},
		},
		Dates: DateRules{MinYear: 2000, MaxYear: 2030},
		Output: OutputRules{
			Columns: []Key{
				"Pb", "Cd", "Hg", "Cr6+", "PBB", "PBDE",
				"DEHP", "BBP", "DBP", "DIBP",
				"PFOS", "PFAS", "F", "CL", "BR", "I",
			},
			Anchor:        "Pb",
			DateColumn:    "Date",
			FileColumn:    "File Name",
			FileSeparator: ", ",
		},
	}
}

// LoadRuleSet reads a YAML (or JSON) rule file on top of the defaults.
// Sections present in the file replace the built-in ones.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read %s", path)
	}

	rs := DefaultRuleSet()
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, eris.Wrapf(err, "rules: parse %s", path)
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Validate checks the rule set for structural mistakes
func (rs *RuleSet) Validate() error {
	seen := make(map[Key]bool)
	for _, r := range rs.Simple {
		if r.Key == "" {
			return eris.New("rules: simple rule without key")
		}
		if seen[r.Key] {
			return eris.Errorf("rules: duplicate key %q", r.Key)
		}
		if len(r.Synonyms) == 0 && len(r.Tokens) == 0 {
			return eris.Errorf("rules: key %q has no synonyms", r.Key)
		}
		seen[r.Key] = true
	}
	for _, g := range rs.Grouped {
		if g.Key == "" {
			return eris.New("rules: grouped rule without key")
		}
		if seen[g.Key] {
			return eris.Errorf("rules: duplicate key %q", g.Key)
		}
		if len(g.Keywords) == 0 {
			return eris.Errorf("rules: family %q has no keywords", g.Key)
		}
		seen[g.Key] = true
	}

	if len(rs.Output.Columns) == 0 {
		return eris.New("rules: output columns are empty")
	}
	for _, c := range rs.Output.Columns {
		if !seen[c] {
			return eris.Errorf("rules: output column %q is not a declared key", c)
		}
	}
	if rs.Output.Anchor != "" && !seen[rs.Output.Anchor] {
		return eris.Errorf("rules: anchor %q is not a declared key", rs.Output.Anchor)
	}
	if rs.Dates.MinYear > rs.Dates.MaxYear {
		return eris.Errorf("rules: date window %d-%d is empty", rs.Dates.MinYear, rs.Dates.MaxYear)
	}

	for name, pattern := range map[string]string{
		"cas_pattern":    rs.Values.CASPattern,
		"number_pattern": rs.Values.NumberPattern,
		"sample_index":   rs.Header.SampleIndex,
	} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return eris.Wrapf(err, "rules: invalid %s", name)
		}
	}
	if rs.Values.NumberPattern == "" {
		return eris.New("rules: number_pattern is required")
	}
	return nil
}

// Keys returns every declared key, simple keys first
func (rs *RuleSet) Keys() []Key {
	keys := make([]Key, 0, len(rs.Simple)+len(rs.Grouped))
	for _, r := range rs.Simple {
		keys = append(keys, r.Key)
	}
	for _, g := range rs.Grouped {
		keys = append(keys, g.Key)
	}
	return keys
}

// IsGrouped reports whether key names a grouped family
func (rs *RuleSet) IsGrouped(key Key) bool {
	for _, g := range rs.Grouped {
		if g.Key == key {
			return true
		}
	}
	return false
}

// compileOptional compiles pattern, returning nil for an empty pattern
func compileOptional(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	return regexp.MustCompile(pattern)
}
