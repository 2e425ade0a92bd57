package summary

import (
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
)

// DateLayout is the summary date format
const DateLayout = "2006/01/02"

// Record is the one summary row of a batch
type Record struct {
	Keys   []intelligence.Key          `json:"keys"`
	Values map[intelligence.Key]string `json:"values"`
	Date   string                      `json:"date"`
	Files  []string                    `json:"files"`

	dateColumn string
	fileColumn string
	fileSep    string
}

// Header returns the ordered column labels
func (r Record) Header() []string {
	header := make([]string, 0, len(r.Keys)+2)
	for _, k := range r.Keys {
		header = append(header, string(k))
	}
	return append(header, r.dateColumn, r.fileColumn)
}

// Row returns the cell values aligned with Header. Missing values are empty
// strings, never omitted.
func (r Record) Row() []string {
	row := make([]string, 0, len(r.Keys)+2)
	for _, k := range r.Keys {
		row = append(row, r.Values[k])
	}
	return append(row, r.Date, r.FileName())
}

// FileName is the attributed source file cell
func (r Record) FileName() string {
	return strings.Join(r.Files, r.fileSep)
}

// Map returns the row keyed by column label
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.Keys)+2)
	header, row := r.Header(), r.Row()
	for i := range header {
		out[header[i]] = row[i]
	}
	return out
}

// Aggregator reduces the batch pools to a Record
type Aggregator struct {
	out intelligence.OutputRules
}

// NewAggregator creates an aggregator for the given output schema
func NewAggregator(out intelligence.OutputRules) *Aggregator {
	if out.FileSeparator == "" {
		out.FileSeparator = ", "
	}
	return &Aggregator{out: out}
}

// Aggregate picks the winner of every column, the latest date and the
// attributed source files. files is the upload order of the batch.
func (a *Aggregator) Aggregate(pools *Pools, dates []DateObservation, files []string) Record {
	rec := Record{
		Keys:       append([]intelligence.Key(nil), a.out.Columns...),
		Values:     make(map[intelligence.Key]string, len(a.out.Columns)),
		dateColumn: a.out.DateColumn,
		fileColumn: a.out.FileColumn,
		fileSep:    a.out.FileSeparator,
	}
	if pools == nil {
		pools = NewPools()
	}

	for _, key := range rec.Keys {
		rec.Values[key] = ""
		if best, ok := pools.Best(key); ok {
			rec.Values[key] = best.Display
		}
	}

	latest, hasDate := LatestDate(dates)
	if hasDate {
		rec.Date = latest.Date.Format(DateLayout)
	}

	switch anchorFiles := a.anchorFiles(pools); {
	case len(anchorFiles) > 0:
		rec.Files = anchorFiles
	case hasDate:
		rec.Files = []string{latest.File}
	case len(files) > 0:
		rec.Files = []string{files[0]}
	default:
		rec.Files = []string{}
	}

	zap.L().Debug("summary: aggregated",
		zap.Int("candidates", pools.Len()),
		zap.String("date", rec.Date),
		zap.Strings("files", rec.Files),
	)
	return rec
}

// anchorFiles returns every file holding the anchor's winning candidate when
// that winner is numeric or stronger, in pool order without duplicates
func (a *Aggregator) anchorFiles(pools *Pools) []string {
	if a.out.Anchor == "" {
		return nil
	}
	cands := pools.Candidates(a.out.Anchor)
	best, ok := Best(cands)
	if !ok || best.Tier < intelligence.TierNumeric {
		return nil
	}

	var files []string
	seen := make(map[string]bool)
	for _, c := range cands {
		if intelligence.Compare(c.Verdict, best.Verdict) != 0 || seen[c.File] {
			continue
		}
		seen[c.File] = true
		files = append(files, c.File)
	}
	return files
}

// LatestDate returns the most recent observation. Equal dates keep the one
// observed first.
func LatestDate(dates []DateObservation) (DateObservation, bool) {
	if len(dates) == 0 {
		return DateObservation{}, false
	}
	latest := dates[0]
	for _, d := range dates[1:] {
		if d.Date.After(latest.Date) {
			latest = d
		}
	}
	return latest, true
}
