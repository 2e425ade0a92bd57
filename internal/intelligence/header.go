package intelligence

import (
	"regexp"
	"strings"
)

// HeaderOptions bound how much of a table is inspected
type HeaderOptions struct {
	// ScanRows is the number of leading rows searched for header cells
	ScanRows int
	// CarryMinColumns is the width a header-less table must exceed to
	// inherit the previous layout
	CarryMinColumns int
}

// DefaultHeaderOptions returns the usual lab report geometry
func DefaultHeaderOptions() HeaderOptions {
	return HeaderOptions{ScanRows: 3, CarryMinColumns: 3}
}

// HeaderResolver decides which columns of a table hold item names and results
type HeaderResolver struct {
	opts          HeaderOptions
	skipMarkers   []string
	resultMarkers []string
	itemMarkers   []string
	echoMarkers   []string
	sampleIndex   *regexp.Regexp
}

// NewHeaderResolver compiles the header heuristics of a rule set
func NewHeaderResolver(rules HeaderRules, opts HeaderOptions) *HeaderResolver {
	if opts.ScanRows <= 0 {
		opts.ScanRows = DefaultHeaderOptions().ScanRows
	}
	return &HeaderResolver{
		opts:          opts,
		skipMarkers:   foldAll(rules.SkipMarkers),
		resultMarkers: foldAll(rules.ResultMarkers),
		itemMarkers:   foldAll(rules.ItemMarkers),
		echoMarkers:   foldAll(rules.EchoMarkers),
		sampleIndex:   compileOptional(rules.SampleIndex),
	}
}

// Resolve inspects the leading rows of table. carry is the last usable
// layout seen earlier in the same file, or nil.
func (h *HeaderResolver) Resolve(table [][]string, carry *Layout) Decision {
	d := Decision{ItemCol: -1, ResultCol: -1, HeaderRow: -1}

	rows := len(table)
	if rows > h.opts.ScanRows {
		rows = h.opts.ScanRows
	}

	var blob strings.Builder
	var cells []string
	for _, row := range table[:rows] {
		for _, cell := range row {
			text := fold(cell)
			blob.WriteString(text)
			blob.WriteByte(' ')
			cells = append(cells, text)
		}
	}
	if h.isReference(blob.String(), cells) {
		d.Skip, d.Reference = true, true
		d.ItemCol = 0
		return d
	}

	for r := 0; r < rows; r++ {
		for c, cell := range table[r] {
			text := fold(cell)
			if text == "" {
				continue
			}
			if d.ItemCol < 0 && containsAny(text, h.itemMarkers) {
				d.ItemCol = c
				d.HeaderRow = max(d.HeaderRow, r)
				continue
			}
			if d.ResultCol < 0 && h.isResultHeader(text) {
				d.ResultCol = c
				d.HeaderRow = max(d.HeaderRow, r)
			}
		}
	}

	if d.ResultCol < 0 && carry != nil && tableWidth(table) > h.opts.CarryMinColumns {
		d.ItemCol, d.ResultCol = carry.ItemCol, carry.ResultCol
		d.HeaderRow = -1
		d.CarriedOver = true
		return d
	}

	if d.ItemCol < 0 {
		d.ItemCol = 0
	}
	if d.ResultCol < 0 {
		d.Skip = true
	}
	return d
}

// IsHeaderEcho reports whether a data row repeats the table header
func (h *HeaderResolver) IsHeaderEcho(row []string) bool {
	return containsAny(fold(strings.Join(row, " ")), h.echoMarkers)
}

// isReference is the two-sided test for restricted-substance and limit tables.
// Markers are searched in the whole blob, sample indexes per cell.
func (h *HeaderResolver) isReference(blob string, cells []string) bool {
	if !containsAny(blob, h.skipMarkers) {
		return false
	}
	if containsAny(blob, h.resultMarkers) {
		return false
	}
	for _, cell := range cells {
		if h.isSampleIndex(cell) {
			return false
		}
	}
	return true
}

func (h *HeaderResolver) isResultHeader(text string) bool {
	if containsAny(text, h.resultMarkers) {
		return true
	}
	return h.isSampleIndex(text)
}

// isSampleIndex matches a whole cell such as "001" or "No.2", never a
// fragment of a decimal like 0.001
func (h *HeaderResolver) isSampleIndex(cell string) bool {
	return h.sampleIndex != nil && h.sampleIndex.MatchString(strings.TrimSpace(cell))
}

func tableWidth(table [][]string) int {
	width := 0
	for _, row := range table {
		width = max(width, len(row))
	}
	return width
}
