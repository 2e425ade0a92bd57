package summary

import (
	"github.com/a3tai/labreport-summarizer/internal/intelligence"
)

// FamilyLists collects the congener verdicts of one file, per grouped family
type FamilyLists struct {
	order []intelligence.Key
	lists map[intelligence.Key][]intelligence.Verdict
}

// NewFamilyLists creates empty lists for the given families
func NewFamilyLists(families []intelligence.Key) *FamilyLists {
	return &FamilyLists{
		order: families,
		lists: make(map[intelligence.Key][]intelligence.Verdict, len(families)),
	}
}

// Add records a congener verdict. Invalid verdicts are ignored.
func (f *FamilyLists) Add(family intelligence.Key, v intelligence.Verdict) {
	if !v.Valid() {
		return
	}
	f.lists[family] = append(f.lists[family], v)
}

// List returns the verdicts gathered for family
func (f *FamilyLists) List(family intelligence.Key) []intelligence.Verdict {
	return f.lists[family]
}

// Reduce appends the single best verdict of every non-empty family list to
// pools, attributed to file.
func (f *FamilyLists) Reduce(file string, pools *Pools) {
	for _, family := range f.order {
		list := f.lists[family]
		if len(list) == 0 {
			continue
		}
		best := list[0]
		for _, v := range list[1:] {
			if intelligence.Compare(v, best) > 0 {
				best = v
			}
		}
		pools.Add(family, intelligence.Candidate{Verdict: best, File: file})
	}
}
