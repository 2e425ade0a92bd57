package intelligence

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a substance or substance family in the taxonomy
type Key string

// Tier is the coarse confidence ranking of a measured result
type Tier int

const (
	TierInvalid Tier = iota
	TierBelowLimit
	TierNegative
	TierNumeric
	TierReportFlag
)

// String returns the lowercase label used in logs and metrics
func (t Tier) String() string {
	switch t {
	case TierInvalid:
		return "invalid"
	case TierBelowLimit:
		return "below_limit"
	case TierNegative:
		return "negative"
	case TierNumeric:
		return "numeric"
	case TierReportFlag:
		return "report_flag"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Verdict is the classified form of one result cell
type Verdict struct {
	Tier      Tier    `json:"tier"`
	Magnitude float64 `json:"magnitude"`
	Display   string  `json:"display"`
}

// Valid reports whether the verdict may enter a candidate pool
func (v Verdict) Valid() bool {
	return v.Tier > TierInvalid
}

// Compare orders verdicts by tier, then by magnitude within a tier.
// It returns a negative number when a ranks below b, zero when they tie
// and a positive number when a outranks b.
func Compare(a, b Verdict) int {
	if a.Tier != b.Tier {
		if a.Tier < b.Tier {
			return -1
		}
		return 1
	}
	switch {
	case a.Magnitude < b.Magnitude:
		return -1
	case a.Magnitude > b.Magnitude:
		return 1
	default:
		return 0
	}
}

// Candidate is a verdict attributed to the file it was read from
type Candidate struct {
	Verdict
	File string `json:"file"`
}

// Layout is the item/result column pair of a result table.
// It is the state carried from one table to the next within a file.
type Layout struct {
	ItemCol   int `json:"item_col"`
	ResultCol int `json:"result_col"`
}

// Decision is the header resolution for a single table
type Decision struct {
	ItemCol     int  `json:"item_col"`
	ResultCol   int  `json:"result_col"` // -1 when no result column exists
	HeaderRow   int  `json:"header_row"` // last row consumed as header, -1 for none
	Skip        bool `json:"skip"`
	Reference   bool `json:"reference"` // restricted-substance or limit table
	CarriedOver bool `json:"carried_over"`
}

// Usable reports whether rows of the table should be classified
func (d Decision) Usable() bool {
	return !d.Skip && d.ResultCol >= 0
}

// Layout returns the column pair of a usable decision
func (d Decision) Layout() Layout {
	return Layout{ItemCol: d.ItemCol, ResultCol: d.ResultCol}
}

// Match is the routing of one table row to taxonomy keys
type Match struct {
	Simple Key   `json:"simple,omitempty"`
	Groups []Key `json:"groups,omitempty"`
}

// Empty reports whether the row matched nothing
func (m Match) Empty() bool {
	return m.Simple == "" && len(m.Groups) == 0
}

// FamilySet holds the gated families opened for one file
type FamilySet map[Key]bool

// Has reports whether key is in the set
func (s FamilySet) Has(key Key) bool {
	return s[key]
}

// String lists the members in a stable order for logging
func (s FamilySet) String() string {
	keys := make([]string, 0, len(s))
	for k, ok := range s {
		if ok {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	return "[" + strings.Join(keys, " ") + "]"
}
