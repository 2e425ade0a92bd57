// Package summary reconciles classified candidates into the batch summary row.
package summary

import (
	"time"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
)

// Pools holds the candidate sequence of every taxonomy key for one batch,
// or for one file before it is merged into the batch.
type Pools struct {
	byKey map[intelligence.Key][]intelligence.Candidate
	count int
}

// NewPools creates an empty pool set
func NewPools() *Pools {
	return &Pools{byKey: make(map[intelligence.Key][]intelligence.Candidate)}
}

// Add appends a candidate to the key's pool. Invalid candidates are refused
// and Add reports false.
func (p *Pools) Add(key intelligence.Key, c intelligence.Candidate) bool {
	if !c.Valid() {
		return false
	}
	p.byKey[key] = append(p.byKey[key], c)
	p.count++
	return true
}

// Merge appends every candidate of other after the existing ones.
// Merging per-file pools in upload order reproduces sequential scanning.
func (p *Pools) Merge(other *Pools) {
	if other == nil {
		return
	}
	for key, cands := range other.byKey {
		p.byKey[key] = append(p.byKey[key], cands...)
		p.count += len(cands)
	}
}

// Candidates returns the key's pool in append order
func (p *Pools) Candidates(key intelligence.Key) []intelligence.Candidate {
	return p.byKey[key]
}

// Len is the total number of pooled candidates
func (p *Pools) Len() int {
	return p.count
}

// Best returns the winning candidate of the key's pool
func (p *Pools) Best(key intelligence.Key) (intelligence.Candidate, bool) {
	return Best(p.byKey[key])
}

// Best returns the candidate with the greatest (tier, magnitude).
// Ties keep the candidate seen first.
func Best(cands []intelligence.Candidate) (intelligence.Candidate, bool) {
	if len(cands) == 0 {
		return intelligence.Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if intelligence.Compare(c.Verdict, best.Verdict) > 0 {
			best = c
		}
	}
	return best, true
}

// DateObservation is the latest date read from one file
type DateObservation struct {
	Date time.Time `json:"date"`
	File string    `json:"file"`
}
