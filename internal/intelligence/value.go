package intelligence

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// trailing "(...)" annotation, ASCII or full-width brackets after NFKC
var trailingParenRe = regexp.MustCompile(`\s*\([^()]*\)\s*$`)

// ValueClassifier maps a raw result cell to a Verdict
type ValueClassifier struct {
	units    *regexp.Regexp
	denylist map[string]bool
	cas      *regexp.Regexp
	number   *regexp.Regexp
	limits   []float64
	below    markerMatcher
	negative markerMatcher
}

type markerMatcher struct {
	contains []string
	equals   map[string]bool
	prefixes []string
	display  string
}

func newMarkerMatcher(r MarkerRule) markerMatcher {
	m := markerMatcher{
		contains: foldAll(r.Contains),
		equals:   make(map[string]bool, len(r.Equals)),
		prefixes: foldAll(r.Prefixes),
		display:  r.Display,
	}
	for _, e := range foldAll(r.Equals) {
		m.equals[e] = true
	}
	return m
}

func (m markerMatcher) match(lower string) bool {
	if m.equals[lower] || containsAny(lower, m.contains) {
		return true
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// NewValueClassifier compiles the value heuristics of a rule set
func NewValueClassifier(rules ValueRules) *ValueClassifier {
	vc := &ValueClassifier{
		denylist: make(map[string]bool, len(rules.Denylist)),
		cas:      compileOptional(rules.CASPattern),
		number:   regexp.MustCompile(rules.NumberPattern),
		limits:   append([]float64(nil), rules.RoundLimits...),
		below:    newMarkerMatcher(rules.BelowLimit),
		negative: newMarkerMatcher(rules.Negative),
	}
	for _, d := range foldAll(rules.Denylist) {
		vc.denylist[d] = true
	}

	// Longest unit first so "wt%" is removed before "%".
	units := foldAll(rules.Units)
	sort.SliceStable(units, func(i, j int) bool { return len(units[i]) > len(units[j]) })
	if len(units) > 0 {
		quoted := make([]string, len(units))
		for i, u := range units {
			quoted[i] = regexp.QuoteMeta(u)
		}
		vc.units = regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
	}
	return vc
}

// Classify applies the ordered value heuristics to one cell
func (vc *ValueClassifier) Classify(raw string) Verdict {
	s := Normalize(raw)
	s = trailingParenRe.ReplaceAllString(s, "")
	if vc.units != nil {
		s = vc.units.ReplaceAllString(s, " ")
	}
	s = Normalize(s)
	if s == "" {
		return Verdict{}
	}

	lower := strings.ToLower(s)
	if vc.denylist[lower] {
		return Verdict{Display: s}
	}
	if vc.cas != nil && vc.cas.MatchString(s) {
		return Verdict{Display: s}
	}
	if vc.isRoundLimit(s) {
		return Verdict{Display: s}
	}

	if vc.below.match(lower) {
		return Verdict{Tier: TierBelowLimit, Display: vc.below.display}
	}
	if vc.negative.match(lower) {
		return Verdict{Tier: TierNegative, Display: vc.negative.display}
	}

	if text := vc.number.FindString(s); text != "" {
		magnitude, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err == nil {
			return Verdict{Tier: TierNumeric, Magnitude: magnitude, Display: text}
		}
	}
	return Verdict{Display: s}
}

// isRoundLimit reports whether the whole cell is one of the canonical limits
func (vc *ValueClassifier) isRoundLimit(s string) bool {
	if len(vc.limits) == 0 {
		return false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return false
	}
	for _, l := range vc.limits {
		if v == l {
			return true
		}
	}
	return false
}
