// Package pipeline turns extracted report documents into candidate pools and
// reconciles a batch of them into one summary record.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
	"github.com/a3tai/labreport-summarizer/internal/pdf"
	"github.com/a3tai/labreport-summarizer/internal/summary"
)

// Options are the engine knobs
type Options struct {
	DateScanPages    int // pages searched for report dates
	TriggerScanPages int // pages searched for family trigger phrases, 0 = all
	Header           intelligence.HeaderOptions
	Workers          int // files scanned concurrently
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		DateScanPages:    3,
		TriggerScanPages: 2,
		Header:           intelligence.DefaultHeaderOptions(),
		Workers:          1,
	}
}

// ScanStats count what happened while scanning one file
type ScanStats struct {
	Pages           int `json:"pages"`
	Tables          int `json:"tables"`
	ResolvedTables  int `json:"resolved_tables"`
	CarriedTables   int `json:"carried_tables"`
	ReferenceTables int `json:"reference_tables"`
	SkippedTables   int `json:"skipped_tables"`
	Rows            int `json:"rows"`
	MatchedRows     int `json:"matched_rows"`
	Candidates      int `json:"candidates"`
}

// FileResult is everything one file contributes to the batch
type FileResult struct {
	Name      string
	Pools     *summary.Pools
	Date      *summary.DateObservation
	Triggered intelligence.FamilySet
	Stats     ScanStats
}

// Scanner classifies the tables of one document at a time. It holds no
// per-file state and is safe for concurrent use.
type Scanner struct {
	opts       Options
	dates      *intelligence.DateExtractor
	values     *intelligence.ValueClassifier
	headers    *intelligence.HeaderResolver
	substances *intelligence.SubstanceClassifier
	families   []intelligence.Key
	recorder   Recorder
}

// NewScanner compiles a rule set into a scanner
func NewScanner(rs *intelligence.RuleSet, opts Options, recorder Recorder) *Scanner {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	families := make([]intelligence.Key, 0, len(rs.Grouped))
	for _, g := range rs.Grouped {
		families = append(families, g.Key)
	}
	return &Scanner{
		opts:       opts,
		dates:      intelligence.NewDateExtractor(rs.Dates),
		values:     intelligence.NewValueClassifier(rs.Values),
		headers:    intelligence.NewHeaderResolver(rs.Header, opts.Header),
		substances: intelligence.NewSubstanceClassifier(rs),
		families:   families,
		recorder:   recorder,
	}
}

// fileScan is the state threaded through the tables of one file
type fileScan struct {
	name  string
	open  intelligence.FamilySet
	pools *summary.Pools
	lists *summary.FamilyLists
	carry *intelligence.Layout
	stats ScanStats
}

// Scan walks pages in order and tables in extraction order
func (s *Scanner) Scan(doc *pdf.Document) FileResult {
	fs := &fileScan{
		name:  doc.Name,
		pools: summary.NewPools(),
		lists: summary.NewFamilyLists(s.families),
	}
	fs.stats.Pages = len(doc.Pages)

	front := doc.FrontText(s.opts.TriggerScanPages)
	fs.open = s.substances.Triggered(front)
	for key, v := range s.substances.Flags(front) {
		fs.lists.Add(key, v)
	}

	result := FileResult{Name: doc.Name, Triggered: fs.open}
	if d, ok := s.dates.Latest(doc.FrontText(s.opts.DateScanPages)); ok {
		result.Date = &summary.DateObservation{Date: d, File: doc.Name}
	}

	for _, page := range doc.Pages {
		for _, table := range page.Tables {
			s.scanTable(fs, table)
		}
	}

	fs.lists.Reduce(doc.Name, fs.pools)
	fs.stats.Candidates = fs.pools.Len()

	result.Pools = fs.pools
	result.Stats = fs.stats
	zap.L().Debug("pipeline: file scanned",
		zap.String("file", doc.Name),
		zap.String("open_families", fs.open.String()),
		zap.Int("tables", fs.stats.Tables),
		zap.Int("candidates", fs.stats.Candidates),
	)
	return result
}

func (s *Scanner) scanTable(fs *fileScan, table pdf.Table) {
	fs.stats.Tables++
	d := s.headers.Resolve(table, fs.carry)

	switch {
	case d.Reference:
		fs.stats.ReferenceTables++
		fs.carry = nil
		s.recorder.TableResolved("reference")
		return
	case !d.Usable():
		fs.stats.SkippedTables++
		s.recorder.TableResolved("skipped")
		return
	case d.CarriedOver:
		fs.stats.CarriedTables++
		s.recorder.TableResolved("carried")
	default:
		fs.stats.ResolvedTables++
		s.recorder.TableResolved("resolved")
	}
	layout := d.Layout()
	fs.carry = &layout

	for r := d.HeaderRow + 1; r < len(table); r++ {
		s.scanRow(fs, table[r], d)
	}
}

func (s *Scanner) scanRow(fs *fileScan, row []string, d intelligence.Decision) {
	if d.ItemCol >= len(row) || d.ResultCol >= len(row) {
		return
	}
	if s.headers.IsHeaderEcho(row) {
		return
	}
	fs.stats.Rows++

	match := s.substances.Classify(row[d.ItemCol], fs.open)
	if match.Empty() {
		return
	}
	fs.stats.MatchedRows++

	v := s.values.Classify(row[d.ResultCol])
	if !v.Valid() {
		return
	}
	s.recorder.CandidateAccepted(v.Tier)

	if match.Simple != "" {
		fs.pools.Add(match.Simple, intelligence.Candidate{Verdict: v, File: fs.name})
	}
	for _, family := range match.Groups {
		fs.lists.Add(family, v)
	}
}
