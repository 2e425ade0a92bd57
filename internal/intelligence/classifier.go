package intelligence

import (
	"regexp"
	"strings"
)

type exclusion struct {
	phrase string
	unless []string
}

func compileExclusions(in []Exclusion) []exclusion {
	out := make([]exclusion, 0, len(in))
	for _, e := range in {
		if p := fold(e.Phrase); p != "" {
			out = append(out, exclusion{phrase: p, unless: foldAll(e.Unless)})
		}
	}
	return out
}

func vetoed(item string, exclusions []exclusion) bool {
	for _, e := range exclusions {
		if strings.Contains(item, e.phrase) && !containsAny(item, e.unless) {
			return true
		}
	}
	return false
}

type simpleMatcher struct {
	key        Key
	synonyms   []string
	tokens     *regexp.Regexp
	exclusions []exclusion
}

func (m simpleMatcher) match(item string) bool {
	if vetoed(item, m.exclusions) {
		return false
	}
	if containsAny(item, m.synonyms) {
		return true
	}
	return m.tokens != nil && m.tokens.MatchString(item)
}

type groupMatcher struct {
	key         Key
	keywords    []string
	exclusions  []exclusion
	triggers    []string
	flags       []string
	flagDisplay string
}

// SubstanceClassifier routes table rows to taxonomy keys
type SubstanceClassifier struct {
	simple []simpleMatcher
	groups []groupMatcher
}

// NewSubstanceClassifier compiles the taxonomy of a rule set
func NewSubstanceClassifier(rs *RuleSet) *SubstanceClassifier {
	sc := &SubstanceClassifier{}
	for _, r := range rs.Simple {
		sc.simple = append(sc.simple, simpleMatcher{
			key:        r.Key,
			synonyms:   foldAll(r.Synonyms),
			tokens:     tokenPattern(r.Tokens),
			exclusions: compileExclusions(r.Exclusions),
		})
	}
	for _, g := range rs.Grouped {
		sc.groups = append(sc.groups, groupMatcher{
			key:         g.Key,
			keywords:    foldAll(g.Keywords),
			exclusions:  compileExclusions(g.Exclusions),
			triggers:    foldAll(g.Triggers),
			flags:       foldAll(g.ReportFlags),
			flagDisplay: g.FlagDisplay,
		})
	}
	return sc
}

// tokenPattern matches any of the tokens as a standalone word
func tokenPattern(tokens []string) *regexp.Regexp {
	folded := foldAll(tokens)
	if len(folded) == 0 {
		return nil
	}
	quoted := make([]string, len(folded))
	for i, t := range folded {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:[^\p{L}\p{N}]|$)`)
}

// Classify matches an item name against the taxonomy. A row maps to at most
// one simple key and to every grouped family whose keywords hit. Gated
// families only match when open is set for them.
func (sc *SubstanceClassifier) Classify(item string, open FamilySet) Match {
	var m Match
	text := fold(item)
	if text == "" {
		return m
	}

	for _, s := range sc.simple {
		if s.match(text) {
			m.Simple = s.key
			break
		}
	}

	for _, g := range sc.groups {
		if len(g.triggers) > 0 && !open.Has(g.key) {
			continue
		}
		if vetoed(text, g.exclusions) {
			continue
		}
		if containsAny(text, g.keywords) {
			m.Groups = append(m.Groups, g.key)
		}
	}
	return m
}

// Triggered returns the gated families whose trigger phrases occur in text
func (sc *SubstanceClassifier) Triggered(text string) FamilySet {
	open := make(FamilySet)
	folded := fold(text)
	for _, g := range sc.groups {
		if len(g.triggers) > 0 && containsAny(folded, g.triggers) {
			open[g.key] = true
		}
	}
	return open
}

// Flags returns a report-level verdict for every family whose report flag
// phrase occurs in text
func (sc *SubstanceClassifier) Flags(text string) map[Key]Verdict {
	flags := make(map[Key]Verdict)
	folded := fold(text)
	for _, g := range sc.groups {
		if len(g.flags) > 0 && containsAny(folded, g.flags) {
			flags[g.key] = Verdict{Tier: TierReportFlag, Display: g.flagDisplay}
		}
	}
	return flags
}
